package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const retryAttempts = 3

// Notifier реализует app.Notifier: сообщает в чат, что дайджест за день готов.
type Notifier struct {
	client     TelegramClient
	chatID     string
	publicURL  string
	retryDelay time.Duration
}

// NewNotifier создаёт уведомителя. publicURL (адрес веб-интерфейса) может быть пустым.
func NewNotifier(client TelegramClient, chatID, publicURL string) *Notifier {
	return &Notifier{
		client:     client,
		chatID:     chatID,
		publicURL:  strings.TrimRight(publicURL, "/"),
		retryDelay: 2 * time.Second,
	}
}

// Notify реализует app.Notifier.
func (n *Notifier) Notify(ctx context.Context, date string, articles int) error {
	return n.sendWithRetry(ctx, n.message(date, articles))
}

func (n *Notifier) message(date string, articles int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Daily Tech News for %s: %d new article(s).", date, articles))
	if n.publicURL != "" {
		sb.WriteString("\nDownload: " + n.publicURL + "/download")
	}
	return sb.String()
}

// sendWithRetry отправляет сообщение с повторными попытками при ошибках.
func (n *Notifier) sendWithRetry(ctx context.Context, message string) error {
	var lastErr error

	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.retryDelay * time.Duration(attempt)):
			}
		}

		err := n.client.SendMessage(ctx, n.chatID, message, "")
		if err == nil {
			return nil
		}

		lastErr = err
		// чат не найден или бот заблокирован, повтор не поможет
		if !isRetryableError(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryableError определяет, можно ли повторить отправку при данной ошибке.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	nonRetryableErrors := []string{
		"chat not found",
		"bot was blocked",
		"user is deactivated",
		"chat_id is empty",
		"message is too long",
		"bad request",
		"unauthorized",
	}
	for _, nonRetryable := range nonRetryableErrors {
		if strings.Contains(errStr, nonRetryable) {
			return false
		}
	}
	return true
}
