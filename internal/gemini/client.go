package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient генерирует текст по промпту. В тестах подменяется моком.
type GeminiClient interface {
	GenerateText(ctx context.Context, model string, prompt string) (string, error)
}

// Client ходит в Gemini API через официальный SDK.
type Client struct {
	client    *genai.Client
	attempts  int
	baseDelay time.Duration
}

var _ GeminiClient = (*Client)(nil)

// NewClient создаёт клиент с ключом из GEMINI_API_KEY.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, attempts: 3, baseDelay: 5 * time.Second}, nil
}

// GenerateText возвращает текстовый ответ модели.
// 429 по RPM/TPM и 5xx повторяются с растущей паузой, исчерпанная квота сразу возвращается.
func (c *Client) GenerateText(ctx context.Context, model string, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			delay := c.baseDelay * time.Duration(attempt-1)
			log.Printf("Retrying Gemini request (attempt %d/%d) after %v", attempt, c.attempts, delay)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err == nil {
			text, err := result.Text()
			if err != nil {
				return "", fmt.Errorf("read response text: %w", err)
			}
			return text, nil
		}

		lastErr = err
		switch classify(err.Error()) {
		case errQuota:
			return "", fmt.Errorf("gemini quota exceeded: %w", err)
		case errRetryable:
			log.Printf("Temporary Gemini error: %v", err)
		default:
			return "", fmt.Errorf("generate content: %w", err)
		}
	}
	return "", fmt.Errorf("gemini retries exhausted: %w", lastErr)
}

type errClass int

const (
	errFatal errClass = iota
	errQuota
	errRetryable
)

var (
	// дневной лимит или запрет доступа
	quotaMarkers = []string{"quota exceeded", "daily limit", "generate_content_free_tier_requests", "403"}
	// 429 и 5xx
	retryableMarkers = []string{
		"rate limit", "429", "too many requests", "resource exhausted",
		"500", "502", "503", "504",
		"service unavailable", "overloaded", "internal server error", "bad gateway", "gateway timeout",
	}
)

// classify разбирает текст ошибки SDK. Квота проверяется первой.
func classify(msg string) errClass {
	msg = strings.ToLower(msg)
	if containsAny(msg, quotaMarkers) {
		return errQuota
	}
	if containsAny(msg, retryableMarkers) {
		return errRetryable
	}
	return errFatal
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
