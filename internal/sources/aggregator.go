package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/maine/techbriefs/internal/config"
	"github.com/maine/techbriefs/internal/news"
)

const userAgent = "Mozilla/5.0 (compatible; techbriefs/1.0; +https://github.com/maine/techbriefs)"

// Aggregator последовательно обходит источники и склеивает их записи.
type Aggregator struct {
	sources    []config.Source
	client     *http.Client
	parser     *gofeed.Parser
	newsAPIKey string
}

// NewAggregator создаёт новый экземпляр. client может быть nil.
func NewAggregator(sources []config.Source, client *http.Client, newsAPIKey string) *Aggregator {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent

	return &Aggregator{
		sources:    sources,
		client:     client,
		parser:     parser,
		newsAPIKey: newsAPIKey,
	}
}

// Collect реализует app.SourceCollector.
// Ошибка одного источника не прерывает сбор: источник просто ничего не даёт,
// а сбой учитывается в FetchResult.Failed. После отмены ctx оставшиеся
// источники не запрашиваются и тоже считаются упавшими.
func (a *Aggregator) Collect(ctx context.Context) news.FetchResult {
	var result news.FetchResult
	for i, src := range a.sources {
		if err := ctx.Err(); err != nil {
			log.Printf("Collection interrupted, skipping %d sources: %v", len(a.sources)-i, err)
			for _, rest := range a.sources[i:] {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Errorf("source %s: %w", rest.Name, err))
			}
			break
		}
		entries, err := a.fetch(ctx, src)
		if err != nil {
			log.Printf("Error fetching source %s (%s): %v", src.Name, src.URL, err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("source %s: %w", src.Name, err))
			continue
		}
		if len(entries) == 0 {
			log.Printf("Source %s returned no entries", src.Name)
		}
		result.Entries = append(result.Entries, entries...)
	}
	return result
}

func (a *Aggregator) fetch(ctx context.Context, src config.Source) ([]news.RawEntry, error) {
	switch src.Type {
	case config.SourceRSS, "":
		return a.fetchFeed(ctx, src)
	case config.SourceNewsAPI:
		return a.fetchNewsAPI(ctx, src)
	default:
		return nil, fmt.Errorf("unsupported source type %q", src.Type)
	}
}

func (a *Aggregator) fetchFeed(ctx context.Context, src config.Source) ([]news.RawEntry, error) {
	feed, err := a.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]news.RawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		entries = append(entries, news.RawEntry{
			Source:  src.Name,
			Title:   strings.TrimSpace(item.Title),
			Summary: cleanText(summary),
			Link:    strings.TrimSpace(item.Link),
		})
	}
	return entries, nil
}

// newsAPIResponse: ответ эндпоинта /v2/everything.
type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
	} `json:"articles"`
}

func (a *Aggregator) fetchNewsAPI(ctx context.Context, src config.Source) ([]news.RawEntry, error) {
	u, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	if a.newsAPIKey != "" {
		q.Set("apiKey", a.newsAPIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Status != "" && body.Status != "ok" {
		return nil, fmt.Errorf("newsapi error %s: %s", body.Code, body.Message)
	}

	entries := make([]news.RawEntry, 0, len(body.Articles))
	for _, art := range body.Articles {
		entries = append(entries, news.RawEntry{
			Source:  src.Name,
			Title:   strings.TrimSpace(art.Title),
			Summary: cleanText(art.Description),
			Link:    strings.TrimSpace(art.URL),
		})
	}
	return entries, nil
}

// cleanText убирает HTML-разметку и схлопывает пробелы.
func cleanText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
