package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/maine/techbriefs/internal/config"
	"github.com/maine/techbriefs/internal/news"
)

// mockGeminiClient - мок для тестирования Summarizer
type mockGeminiClient struct {
	generateTextFunc func(ctx context.Context, model string, prompt string) (string, error)
	calls            int
}

func (m *mockGeminiClient) GenerateText(ctx context.Context, model string, prompt string) (string, error) {
	m.calls++
	if m.generateTextFunc != nil {
		return m.generateTextFunc(ctx, model, prompt)
	}
	return "", errors.New("not implemented")
}

func TestSummarizer_Enrich(t *testing.T) {
	articles := []news.Article{
		{Title: "Has summary", Summary: "already here", Link: "a"},
		{Title: "Needs summary", Summary: "", Link: "b"},
		{Title: "Whitespace summary", Summary: "   ", Link: "c"},
	}

	tests := []struct {
		name      string
		mockFunc  func(ctx context.Context, model string, prompt string) (string, error)
		want      []string
		wantCalls int
	}{
		{
			name: "fills empty summaries",
			mockFunc: func(ctx context.Context, model string, prompt string) (string, error) {
				if model != "test-model" {
					return "", errors.New("wrong model")
				}
				return "  \"A short   sentence.\"\n", nil
			},
			want:      []string{"already here", "A short sentence.", "A short sentence."},
			wantCalls: 2,
		},
		{
			name: "errors keep summary empty",
			mockFunc: func(ctx context.Context, model string, prompt string) (string, error) {
				return "", errors.New("503 service unavailable")
			},
			want:      []string{"already here", "", "   "},
			wantCalls: 2,
		},
		{
			name: "empty model answer is ignored",
			mockFunc: func(ctx context.Context, model string, prompt string) (string, error) {
				return "   ", nil
			},
			want:      []string{"already here", "", "   "},
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockGeminiClient{generateTextFunc: tt.mockFunc}
			s := NewSummarizer(mock, config.Gemini{Model: "test-model"})

			got := s.Enrich(context.Background(), articles)
			if len(got) != len(articles) {
				t.Fatalf("Enrich() len = %d, want %d", len(got), len(articles))
			}
			for i := range got {
				if got[i].Title != articles[i].Title {
					t.Errorf("Enrich() reordered articles: %q at %d", got[i].Title, i)
				}
				if got[i].Summary != tt.want[i] {
					t.Errorf("Enrich()[%d].Summary = %q, want %q", i, got[i].Summary, tt.want[i])
				}
			}
			if mock.calls != tt.wantCalls {
				t.Errorf("GenerateText calls = %d, want %d", mock.calls, tt.wantCalls)
			}
			// вход не меняется
			if articles[1].Summary != "" {
				t.Error("Enrich() mutated input slice")
			}
		})
	}
}

func TestSummarizer_Enrich_CanceledContext(t *testing.T) {
	mock := &mockGeminiClient{generateTextFunc: func(ctx context.Context, model string, prompt string) (string, error) {
		return "x", nil
	}}
	s := NewSummarizer(mock, config.Gemini{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := s.Enrich(ctx, []news.Article{{Title: "t"}})
	if mock.calls != 0 {
		t.Errorf("GenerateText calls = %d, want 0", mock.calls)
	}
	if got[0].Summary != "" {
		t.Errorf("Summary = %q, want empty", got[0].Summary)
	}
}

func TestNormalizeSummary(t *testing.T) {
	long := strings.Repeat("word ", 200)
	got := normalizeSummary(long)
	if len([]rune(got)) != maxSummaryRunes {
		t.Errorf("normalizeSummary() len = %d, want %d", len([]rune(got)), maxSummaryRunes)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("normalizeSummary() should end with ellipsis")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  string
		want errClass
	}{
		{"Error 429: Too Many Requests", errRetryable},
		{"rpc error: 503 model overloaded", errRetryable},
		{"Error 403: permission denied", errQuota},
		{"Error 429: quota exceeded for generate_content_free_tier_requests", errQuota},
		{"invalid argument", errFatal},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
