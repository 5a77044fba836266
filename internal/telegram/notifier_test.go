package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// mockTelegramClient - мок для тестирования Notifier
type mockTelegramClient struct {
	sendMessageFunc func(ctx context.Context, chatID string, text string, parseMode string) error
	calls           int
}

func (m *mockTelegramClient) SendMessage(ctx context.Context, chatID string, text string, parseMode string) error {
	m.calls++
	if m.sendMessageFunc != nil {
		return m.sendMessageFunc(ctx, chatID, text, parseMode)
	}
	return nil
}

func TestNotifier_Notify(t *testing.T) {
	tests := []struct {
		name      string
		mockFunc  func(calls int) error
		wantErr   bool
		wantCalls int
	}{
		{
			name:      "successful send",
			mockFunc:  func(int) error { return nil },
			wantCalls: 1,
		},
		{
			name: "retry on retryable error",
			mockFunc: func(calls int) error {
				if calls < 2 {
					return errors.New("network error")
				}
				return nil
			},
			wantCalls: 2,
		},
		{
			name:      "no retry on non-retryable error",
			mockFunc:  func(int) error { return errors.New("telegram api status 400: Bad Request: chat not found") },
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name:      "gives up after max attempts",
			mockFunc:  func(int) error { return errors.New("timeout") },
			wantErr:   true,
			wantCalls: retryAttempts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockTelegramClient{}
			mock.sendMessageFunc = func(ctx context.Context, chatID string, text string, parseMode string) error {
				if chatID != "42" {
					t.Errorf("chatID = %q, want 42", chatID)
				}
				return tt.mockFunc(mock.calls)
			}
			n := NewNotifier(mock, "42", "")
			n.retryDelay = 0

			err := n.Notify(context.Background(), "2026-10-18", 3)
			if (err != nil) != tt.wantErr {
				t.Errorf("Notify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if mock.calls != tt.wantCalls {
				t.Errorf("SendMessage calls = %d, want %d", mock.calls, tt.wantCalls)
			}
		})
	}
}

func TestNotifier_message(t *testing.T) {
	n := NewNotifier(&mockTelegramClient{}, "1", "https://briefs.example.com/")
	got := n.message("2026-10-18", 5)
	if !strings.Contains(got, "2026-10-18") || !strings.Contains(got, "5 new") {
		t.Errorf("message() = %q", got)
	}
	if !strings.Contains(got, "https://briefs.example.com/download") {
		t.Errorf("message() missing download link: %q", got)
	}
}

func TestClient_SendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		if gotBody["chat_id"] == "missing" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, "TOKEN", srv.Client())
	if err := c.SendMessage(context.Background(), "42", "hello", ""); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if gotPath != "/botTOKEN/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["text"] != "hello" {
		t.Errorf("text = %q", gotBody["text"])
	}
	if _, ok := gotBody["parse_mode"]; ok {
		t.Error("parse_mode should be omitted when empty")
	}

	err := c.SendMessage(context.Background(), "missing", "hello", "")
	if err == nil || isRetryableError(err) {
		t.Errorf("SendMessage() error = %v, want non-retryable", err)
	}

	if err := c.SendMessage(context.Background(), "", "hello", ""); err == nil {
		t.Error("SendMessage() should reject empty chat id")
	}
}
