package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const appName = "techbriefs"

// Типы источников.
const (
	SourceRSS     = "rss"
	SourceNewsAPI = "newsapi"
)

// Драйверы хранилища состояния.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type (
	// Root объединяет все конфигурационные блоки.
	Root struct {
		Pipeline Pipeline `yaml:"pipeline"`
		Sources  []Source `yaml:"sources"`
		Storage  Storage  `yaml:"storage"`
		Server   Server   `yaml:"server"`
		Gemini   Gemini   `yaml:"gemini"`
		Telegram Telegram `yaml:"telegram"`
		Logging  Logging  `yaml:"logging"`
	}

	// Pipeline описывает параметры отбора статей и архива.
	Pipeline struct {
		Keywords    []string `yaml:"keywords"`
		MaxArticles int      `yaml:"max_articles"`
		ArchiveSize int      `yaml:"archive_size"`
		Title       string   `yaml:"title"`
	}

	// Source описывает один фид. Порядок в списке определяет порядок записей в дайджесте.
	// Без enabled в YAML источник считается включённым.
	Source struct {
		Name    string `yaml:"name"`
		Type    string `yaml:"type"`
		URL     string `yaml:"url"`
		Enabled bool   `yaml:"enabled"`
	}

	// Storage задаёт, где лежат PDF и состояние (seen-титулы, маркер даты).
	Storage struct {
		Driver string `yaml:"driver"`
		Dir    string `yaml:"dir"`
		DSN    string `yaml:"dsn,omitempty"` // для sqlite по умолчанию <dir>/state.db
	}

	// Server задаёт параметры веб-интерфейса.
	Server struct {
		Addr          string `yaml:"addr"`
		ReadTimeoutS  int    `yaml:"read_timeout_s"`
		WriteTimeoutS int    `yaml:"write_timeout_s"`
	}

	// Gemini включает дополнение пустых описаний.
	Gemini struct {
		Enabled bool   `yaml:"enabled"`
		Model   string `yaml:"model"`
	}

	// Telegram включает уведомление о готовом дайджесте.
	Telegram struct {
		Enabled   bool   `yaml:"enabled"`
		ChatID    string `yaml:"chat_id"`
		PublicURL string `yaml:"public_url"` // ссылка на веб-интерфейс в сообщении
	}

	// Logging настраивает ротацию лог-файла через lumberjack. При пустом File пишем только в stderr.
	Logging struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	}
)

// UnmarshalYAML включает источник, если enabled не указан явно.
func (s *Source) UnmarshalYAML(value *yaml.Node) error {
	type plain Source
	raw := plain{Enabled: true}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*s = Source(raw)
	return nil
}

// DisabledSources возвращает имена выключенных источников.
func (c *Root) DisabledSources() []string {
	var out []string
	for _, s := range c.Sources {
		if !s.Enabled {
			out = append(out, s.Name)
		}
	}
	return out
}

// DefaultKeywords содержит список подстрок для отбора технологических новостей.
var DefaultKeywords = []string{
	"ai", "artificial intelligence", "machine learning", "deep learning",
	"openai", "chatgpt", "llm", "nvidia", "intel", "tesla",
	"google", "microsoft", "meta", "amazon", "apple",
	"startup", "cybersecurity", "robotics", "data science",
	"programming", "developer", "software", "coding",
	"python", "java", "javascript", "blockchain", "cloud",
}

// DefaultSources: поисковые ленты Google News и общая лента TechCrunch.
var DefaultSources = []Source{
	{Name: "google-ai", Type: SourceRSS, URL: "https://news.google.com/rss/search?q=ai&hl=en-IN&gl=IN&ceid=IN:en", Enabled: true},
	{Name: "google-google-ai", Type: SourceRSS, URL: "https://news.google.com/rss/search?q=google+ai&hl=en-IN&gl=IN&ceid=IN:en", Enabled: true},
	{Name: "google-microsoft", Type: SourceRSS, URL: "https://news.google.com/rss/search?q=microsoft+technology&hl=en-IN&gl=IN&ceid=IN:en", Enabled: true},
	{Name: "google-programming", Type: SourceRSS, URL: "https://news.google.com/rss/search?q=programming&hl=en-IN&gl=IN&ceid=IN:en", Enabled: true},
	{Name: "google-ml", Type: SourceRSS, URL: "https://news.google.com/rss/search?q=machine+learning&hl=en-IN&gl=IN&ceid=IN:en", Enabled: true},
	{Name: "techcrunch", Type: SourceRSS, URL: "https://techcrunch.com/feed/", Enabled: true},
}

// Default возвращает конфигурацию, с которой сервис работает без файла.
func Default() Root {
	return Root{
		Pipeline: Pipeline{
			Keywords:    append([]string(nil), DefaultKeywords...),
			MaxArticles: 25,
			ArchiveSize: 7,
			Title:       "Daily Tech News",
		},
		Sources: append([]Source(nil), DefaultSources...),
		Storage: Storage{
			Driver: DriverFile,
			Dir:    DefaultDataDir(),
		},
		Server: Server{
			Addr:          ":8080",
			ReadTimeoutS:  15,
			WriteTimeoutS: 120, // обновление идёт прямо в запросе
		},
		Gemini: Gemini{
			Model: "gemini-2.5-flash",
		},
		Logging: Logging{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// DefaultConfigPath возвращает путь к конфигу по умолчанию ($XDG_CONFIG_HOME/techbriefs/config.yaml).
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// DefaultDataDir возвращает каталог для PDF и файлов состояния.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// LoadRoot читает основной файл конфигурации поверх значений по умолчанию.
// Пустой path означает DefaultConfigPath; отсутствующий файл не считается ошибкой.
func LoadRoot(path string) (Root, error) {
	cfg := Default()
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Root{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Root{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Root{}, fmt.Errorf("config validation error: %w", err)
	}
	return cfg, nil
}

// Validate проверяет согласованность значений.
func (c *Root) Validate() error {
	if len(c.Pipeline.Keywords) == 0 {
		return fmt.Errorf("pipeline.keywords must not be empty")
	}
	if c.Pipeline.MaxArticles <= 0 {
		return fmt.Errorf("pipeline.max_articles must be > 0")
	}
	if c.Pipeline.ArchiveSize < 0 {
		return fmt.Errorf("pipeline.archive_size must be >= 0")
	}
	for i, s := range c.Sources {
		if s.URL == "" {
			return fmt.Errorf("sources[%d].url is required", i)
		}
		if s.Type != SourceRSS && s.Type != SourceNewsAPI {
			return fmt.Errorf("sources[%d].type must be '%s' or '%s'", i, SourceRSS, SourceNewsAPI)
		}
	}
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("storage.driver must be 'file', 'sqlite' or 'postgres'")
	}
	if c.Storage.Dir == "" {
		return fmt.Errorf("storage.dir is required")
	}
	if c.Gemini.Enabled && c.Gemini.Model == "" {
		return fmt.Errorf("gemini.model is required when gemini.enabled is true")
	}
	if c.Telegram.Enabled && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.enabled is true")
	}
	return nil
}

// EnabledSources возвращает включённые источники в исходном порядке.
func (c *Root) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// SQLiteDSN возвращает путь к базе sqlite.
func (c *Root) SQLiteDSN() string {
	if c.Storage.DSN != "" {
		return c.Storage.DSN
	}
	return filepath.Join(c.Storage.Dir, "state.db")
}

func (c *Root) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutS) * time.Second
}

func (c *Root) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutS) * time.Second
}
