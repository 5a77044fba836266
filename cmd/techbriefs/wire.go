package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/maine/techbriefs/internal/app"
	"github.com/maine/techbriefs/internal/config"
	"github.com/maine/techbriefs/internal/digest"
	"github.com/maine/techbriefs/internal/filter"
	"github.com/maine/techbriefs/internal/gemini"
	"github.com/maine/techbriefs/internal/observability"
	"github.com/maine/techbriefs/internal/sources"
	"github.com/maine/techbriefs/internal/state"
	"github.com/maine/techbriefs/internal/telegram"
)

const fetchTimeout = 15 * time.Second

// stateStore объединяет хранилище seen-титулов и маркера даты.
type stateStore interface {
	app.SeenStore
	app.MarkerStore
}

// services держит собранные модули для команд serve и refresh.
type services struct {
	cfg       config.Root
	env       *config.EnvConfig
	digests   *digest.Store
	refresher *app.Refresher
	closers   []io.Closer
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

// loadConfig читает YAML и настраивает логирование.
func loadConfig() (config.Root, io.Closer, error) {
	cfg, err := config.LoadRoot(flagConfig)
	if err != nil {
		return config.Root{}, nil, fmt.Errorf("load config: %w", err)
	}
	closer, err := observability.Setup(cfg.Logging)
	if err != nil {
		return config.Root{}, nil, fmt.Errorf("setup logging: %w", err)
	}
	return cfg, closer, nil
}

func newServices(ctx context.Context) (*services, error) {
	cfg, logCloser, err := loadConfig()
	if err != nil {
		return nil, err
	}
	s := &services{cfg: cfg, closers: []io.Closer{logCloser}}

	// Переменные окружения (токены)
	env, err := config.LoadEnvConfig(cfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load env config: %w", err)
	}
	s.env = env

	store, closer, err := openState(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}

	httpClient := &http.Client{Timeout: fetchTimeout}
	s.digests = digest.NewStore(cfg.Storage.Dir)

	deps := app.RefresherDeps{
		Collector: sources.NewAggregator(cfg.EnabledSources(), httpClient, env.NewsAPIKey),
		Filter:    filter.New(cfg.Pipeline),
		Builder:   digest.NewPDFBuilder(s.digests, cfg.Pipeline.Title),
		Artifacts: s.digests,
		Seen:      store,
		Marker:    store,
	}

	// Gemini и Telegram подключаются только если включены в конфиге
	if cfg.Gemini.Enabled {
		client, err := gemini.NewClient(ctx, env.GeminiAPIKey)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		deps.Summarizer = gemini.NewSummarizer(client, cfg.Gemini)
	}
	if cfg.Telegram.Enabled {
		tgClient := telegram.NewClient(env.TelegramBotToken)
		deps.Notifier = telegram.NewNotifier(tgClient, cfg.Telegram.ChatID, cfg.Telegram.PublicURL)
	}

	s.refresher = app.NewRefresher(deps)
	if disabled := cfg.DisabledSources(); len(disabled) > 0 {
		log.Printf("Skipping disabled sources: %s", strings.Join(disabled, ", "))
	}
	log.Printf("Configured %d sources, storage %s in %s", len(cfg.EnabledSources()), cfg.Storage.Driver, cfg.Storage.Dir)
	return s, nil
}

// openState выбирает хранилище состояния по storage.driver.
// Второе значение закрывает соединение с базой, для файлов оно nil.
func openState(ctx context.Context, cfg config.Root) (stateStore, io.Closer, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		st, err := state.OpenSQL(ctx, state.DriverSQLite, cfg.SQLiteDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite state: %w", err)
		}
		return st, st, nil
	case config.DriverPostgres:
		st, err := state.OpenSQL(ctx, state.DriverPostgres, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres state: %w", err)
		}
		return st, st, nil
	default:
		return state.NewFileStore(cfg.Storage.Dir), nil, nil
	}
}
