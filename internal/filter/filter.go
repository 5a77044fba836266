package filter

import (
	"strings"

	"github.com/maine/techbriefs/internal/config"
	"github.com/maine/techbriefs/internal/news"
)

// Filter отбирает статьи по ключевым словам, исключая уже виденные заголовки.
type Filter struct {
	keywords []string
	maxCount int
}

// Result содержит итог одного прохода фильтра.
type Result struct {
	Articles []news.Article
	Seen     news.SeenSet // входное множество плюс все отобранные заголовки
	Skipped  int          // записи без заголовка
}

// New создаёт экземпляр фильтра. Ключевые слова приводятся к нижнему регистру.
func New(cfg config.Pipeline) *Filter {
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	return &Filter{keywords: keywords, maxCount: cfg.MaxArticles}
}

// Apply реализует app.Filter.
// Совпадение считается по простому вхождению подстроки: "ai" находится и в "again".
// Входное множество seen не изменяется.
func (f *Filter) Apply(entries []news.RawEntry, seen news.SeenSet) Result {
	res := Result{Seen: seen.Clone()}
	if f.maxCount <= 0 {
		return res
	}

	for _, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			res.Skipped++
			continue
		}
		// res.Seen содержит и прошлые заголовки, и отобранные в этом проходе
		if res.Seen.Has(title) {
			continue
		}

		summary := strings.TrimSpace(entry.Summary)
		if !f.matches(strings.ToLower(title + " " + summary)) {
			continue
		}

		res.Articles = append(res.Articles, news.Article{
			Title:   title,
			Summary: summary,
			Link:    strings.TrimSpace(entry.Link),
		})
		res.Seen.Add(title)

		if len(res.Articles) >= f.maxCount {
			break
		}
	}

	return res
}

func (f *Filter) matches(text string) bool {
	for _, k := range f.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
