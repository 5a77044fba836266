package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maine/techbriefs/internal/digest"
	"github.com/maine/techbriefs/internal/filter"
	"github.com/maine/techbriefs/internal/news"
)

var (
	// ErrNotConfigured возвращается, когда контроллер запущен без обязательных зависимостей.
	ErrNotConfigured = errors.New("refresher dependencies not configured")
	// ErrRefreshFailed оборачивает любую ошибку, прервавшую цикл обновления.
	// Маркер при этом не сдвигается, следующий вызов начнёт цикл заново.
	ErrRefreshFailed = errors.New("could not refresh digest")
)

// Clock определяет источник времени (удобно подменять в тестах).
type Clock func() time.Time

// SourceCollector агрегирует записи из подключённых источников.
type SourceCollector interface {
	Collect(ctx context.Context) news.FetchResult
}

// Filter отбирает статьи и возвращает обновлённое множество seen.
type Filter interface {
	Apply(entries []news.RawEntry, seen news.SeenSet) filter.Result
}

// Summarizer дописывает описания статьям, у которых их нет. Опционален.
type Summarizer interface {
	Enrich(ctx context.Context, articles []news.Article) []news.Article
}

// Builder собирает дайджест за дату и возвращает путь к нему.
type Builder interface {
	Build(date string, articles []news.Article) (string, error)
}

// Artifacts отвечает на вопрос, лежит ли на диске дайджест за дату.
type Artifacts interface {
	Exists(date string) bool
	Path(date string) string
}

// SeenStore хранит множество уже использованных заголовков.
type SeenStore interface {
	LoadSeen(ctx context.Context) (news.SeenSet, error)
	SaveSeen(ctx context.Context, seen news.SeenSet) error
}

// MarkerStore хранит дату последней успешной сборки.
type MarkerStore interface {
	LoadMarker(ctx context.Context) (string, error)
	SaveMarker(ctx context.Context, date string) error
}

// Notifier сообщает о готовом дайджесте. Опционален, ошибки не прерывают цикл.
type Notifier interface {
	Notify(ctx context.Context, date string, articles int) error
}

// Status описывает состояние дайджеста за сегодня.
type Status int

const (
	UpToDate Status = iota
	NeedsRebuild
)

func (s Status) String() string {
	switch s {
	case UpToDate:
		return "up-to-date"
	case NeedsRebuild:
		return "needs-rebuild"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Decide решает, нужно ли пересобирать дайджест за today.
func Decide(today, marker string, artifactExists bool) Status {
	if marker == "" || marker != today || !artifactExists {
		return NeedsRebuild
	}
	return UpToDate
}

// Result описывает итог вызова Refresh.
type Result struct {
	CycleID       string
	Date          string
	Status        Status // состояние до вызова
	Rebuilt       bool   // false, если дайджест не пересобирался

	Articles      int
	FailedSources int
	SkippedItems  int
	Path          string
}

// RefresherDeps перечисляет зависимости контроллера.
type RefresherDeps struct {
	Collector  SourceCollector
	Filter     Filter
	Summarizer Summarizer
	Builder    Builder
	Artifacts  Artifacts
	Seen       SeenStore
	Marker     MarkerStore
	Notifier   Notifier
	Clock      Clock
}

// Refresher раз в день пересобирает дайджест:
// Collect → Apply → (Enrich) → Build → SaveSeen → SaveMarker → (Notify).
type Refresher struct {
	mu         sync.Mutex // один цикл за раз
	collector  SourceCollector
	filter     Filter
	summarizer Summarizer
	builder    Builder
	artifacts  Artifacts
	seen       SeenStore
	marker     MarkerStore
	notifier   Notifier
	clock      Clock
}

// NewRefresher создаёт новый экземпляр контроллера.
func NewRefresher(deps RefresherDeps) *Refresher {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Refresher{
		collector:  deps.Collector,
		filter:     deps.Filter,
		summarizer: deps.Summarizer,
		builder:    deps.Builder,
		artifacts:  deps.Artifacts,
		seen:       deps.Seen,
		marker:     deps.Marker,
		notifier:   deps.Notifier,
		clock:      clock,
	}
}

// Today возвращает сегодняшнюю дату в формате имени дайджеста.
func (r *Refresher) Today() string {
	return r.clock().Format(digest.DateLayout)
}

// Status сообщает состояние сегодняшнего дайджеста, ничего не пересобирая.
func (r *Refresher) Status(ctx context.Context) (Status, error) {
	if err := r.validateDeps(); err != nil {
		return NeedsRebuild, err
	}
	today := r.Today()
	marker, err := r.marker.LoadMarker(ctx)
	if err != nil {
		return NeedsRebuild, fmt.Errorf("load marker: %w", err)
	}
	return Decide(today, marker, r.artifacts.Exists(today)), nil
}

// Refresh проверяет актуальность дайджеста и при необходимости собирает его.
// force пересобирает даже актуальный дайджест, но только если появились
// новые статьи: уже показанные заголовки в него не попадут.
func (r *Refresher) Refresh(ctx context.Context, force bool) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.validateDeps(); err != nil {
		return Result{}, err
	}

	today := r.Today()
	res := Result{Date: today, Path: r.artifacts.Path(today)}

	marker, err := r.marker.LoadMarker(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: load marker: %w", ErrRefreshFailed, err)
	}

	res.Status = Decide(today, marker, r.artifacts.Exists(today))
	if res.Status == UpToDate && !force {
		log.Printf("Digest for %s already up to date", today)
		return res, nil
	}

	res.CycleID = uuid.NewString()
	// при force уже собранный дайджест не заменяется пустым
	keepExisting := res.Status == UpToDate
	if err := r.rebuild(ctx, today, keepExisting, &res); err != nil {
		log.Printf("[%s] Refresh cycle failed: %v", res.CycleID, err)
		return res, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return res, nil
}

// rebuild выполняет один цикл. Отменённый контекст прерывает цикл до сохранения
// состояния: сбор с отменённым контекстом даёт пустой результат, и такой
// дайджест не должен считаться собранным.
func (r *Refresher) rebuild(ctx context.Context, today string, keepExisting bool, res *Result) error {
	id := res.CycleID

	seen, err := r.seen.LoadSeen(ctx)
	if err != nil {
		return fmt.Errorf("load seen titles: %w", err)
	}
	log.Printf("[%s] Generating digest for %s (%d titles already seen)", id, today, seen.Len())

	log.Printf("[%s] Step 1: Collecting entries from feeds...", id)
	fetched := r.collector.Collect(ctx)
	res.FailedSources = fetched.Failed
	log.Printf("[%s] Collected %d raw entries (%d sources failed)", id, len(fetched.Entries), fetched.Failed)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("collect entries: %w", err)
	}

	log.Printf("[%s] Step 2: Filtering entries...", id)
	filtered := r.filter.Apply(fetched.Entries, seen)
	res.Articles = len(filtered.Articles)
	res.SkippedItems = filtered.Skipped
	log.Printf("[%s] After filtering: %d articles (%d entries without title)", id, len(filtered.Articles), filtered.Skipped)

	articles := filtered.Articles
	if keepExisting && len(articles) == 0 {
		log.Printf("[%s] No new articles, keeping existing digest %s", id, res.Path)
		return nil
	}
	if r.summarizer != nil && len(articles) > 0 {
		log.Printf("[%s] Step 3: Filling missing summaries...", id)
		articles = r.summarizer.Enrich(ctx, articles)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("build digest: %w", err)
	}
	log.Printf("[%s] Step 4: Building digest...", id)
	path, err := r.builder.Build(today, articles)
	if err != nil {
		return fmt.Errorf("build digest: %w", err)
	}
	res.Path = path

	log.Printf("[%s] Step 5: Saving state...", id)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	// seen и маркер пишутся вместе: отмена между ними оставила бы seen без маркера
	saveCtx := context.WithoutCancel(ctx)
	if err := r.seen.SaveSeen(saveCtx, filtered.Seen); err != nil {
		return fmt.Errorf("save seen titles: %w", err)
	}
	if err := r.marker.SaveMarker(saveCtx, today); err != nil {
		return fmt.Errorf("save marker: %w", err)
	}
	res.Rebuilt = true
	log.Printf("[%s] Digest %s ready with %d articles", id, path, len(articles))

	if r.notifier != nil {
		if err := r.notifier.Notify(ctx, today, len(articles)); err != nil {
			log.Printf("[%s] Failed to send notification: %v", id, err)
		}
	}
	return nil
}

func (r *Refresher) validateDeps() error {
	// summarizer и notifier опциональны
	switch {
	case r.collector == nil,
		r.filter == nil,
		r.builder == nil,
		r.artifacts == nil,
		r.seen == nil,
		r.marker == nil,
		r.clock == nil:
		return ErrNotConfigured
	default:
		return nil
	}
}
