package config

import (
	"fmt"
	"os"
)

// EnvConfig содержит токены и другие переменные окружения.
type EnvConfig struct {
	GeminiAPIKey     string
	TelegramBotToken string
	NewsAPIKey       string
	ForceRefresh     bool // пересобрать дайджест, даже если сегодняшний уже есть
}

// LoadEnvConfig читает переменные окружения и сверяет их с включёнными модулями.
// Ключ нужен только тому модулю, который включён в конфиге.
func LoadEnvConfig(root Root) (*EnvConfig, error) {
	env := &EnvConfig{
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		NewsAPIKey:       os.Getenv("NEWSAPI_KEY"),
		ForceRefresh:     os.Getenv("FORCE_REFRESH") == "1",
	}

	if root.Gemini.Enabled && env.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required when gemini.enabled is true")
	}
	if root.Telegram.Enabled && env.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is required when telegram.enabled is true")
	}
	for _, s := range root.EnabledSources() {
		if s.Type == SourceNewsAPI && env.NewsAPIKey == "" {
			return nil, fmt.Errorf("NEWSAPI_KEY environment variable is required for source %q", s.Name)
		}
	}
	return env, nil
}
