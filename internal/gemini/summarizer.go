package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/maine/techbriefs/internal/config"
	"github.com/maine/techbriefs/internal/news"
)

const maxSummaryRunes = 400

// Summarizer реализует app.Summarizer: дописывает описание статьям, у которых его нет.
type Summarizer struct {
	client GeminiClient
	model  string
}

// NewSummarizer создаёт новый экземпляр суммаризатора.
func NewSummarizer(client GeminiClient, cfg config.Gemini) *Summarizer {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Summarizer{client: client, model: model}
}

// Enrich реализует app.Summarizer.
// Ошибка модели не прерывает цикл: статья остаётся без описания,
// а билдер подставит заглушку. Порядок и заголовки не меняются.
func (s *Summarizer) Enrich(ctx context.Context, articles []news.Article) []news.Article {
	out := make([]news.Article, len(articles))
	copy(out, articles)

	filled := 0
	for i, article := range out {
		if strings.TrimSpace(article.Summary) != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Printf("Summary enrichment interrupted: %v", err)
			break
		}

		text, err := s.client.GenerateText(ctx, s.model, buildPrompt(article))
		if err != nil {
			log.Printf("Failed to summarize %q: %v", article.Title, err)
			continue
		}
		summary := normalizeSummary(text)
		if summary == "" {
			continue
		}
		out[i].Summary = summary
		filled++
	}

	if filled > 0 {
		log.Printf("Generated %d summaries with Gemini", filled)
	}
	return out
}

func buildPrompt(article news.Article) string {
	return fmt.Sprintf(`Write one neutral sentence (max 40 words) summarizing this technology news headline for a daily digest.
Do not add facts that are not implied by the headline. Reply with the sentence only.

Headline: %s
Link: %s`, article.Title, article.Link)
}

// normalizeSummary схлопывает пробелы, снимает кавычки и обрезает слишком длинный ответ.
func normalizeSummary(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = strings.Trim(text, "\"'`")
	runes := []rune(text)
	if len(runes) > maxSummaryRunes {
		text = string(runes[:maxSummaryRunes-3]) + "..."
	}
	return text
}
