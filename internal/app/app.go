// Package app wires configuration into the running components shared by the
// daemon and the command line tool.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/discovery"
	"github.com/joseph-ayodele/docfields/internal/export"
	"github.com/joseph-ayodele/docfields/internal/extract"
	"github.com/joseph-ayodele/docfields/internal/llm"
	"github.com/joseph-ayodele/docfields/internal/llm/cache"
	"github.com/joseph-ayodele/docfields/internal/llm/langchain"
	"github.com/joseph-ayodele/docfields/internal/llm/openai"
	"github.com/joseph-ayodele/docfields/internal/pipeline"
	"github.com/joseph-ayodele/docfields/internal/repository"
)

type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	DB        *repository.DB
	Templates repository.TemplateRepository
	Model     llm.Completer
	Text      extract.TextExtractor
	Processor *pipeline.Processor
	Discovery *discovery.Engine
	Export    *export.Service

	closers []func() error
}

// New opens the template store, runs migrations and builds the model chain.
// Callers must Close the result.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.DB, err = repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, func() error { a.DB.Close(); return nil })
	if err = a.DB.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	a.Templates = repository.NewTemplateRepository(repository.NewSQLStore(a.DB, logger), logger)

	a.Model, err = a.newCompleter(ctx)
	if err != nil {
		return nil, err
	}

	a.Text = extract.NewPDFExtractor(logger)
	a.Processor = pipeline.NewProcessor(logger, a.Model, a.Text, a.Templates)
	a.Discovery = discovery.NewEngine(a.Model, a.Text, logger)
	a.Export = export.NewService(logger)
	return a, nil
}

// newCompleter picks the provider client and puts the redis cache in front of
// it when REDIS_URL is set.
func (a *App) newCompleter(ctx context.Context) (llm.Completer, error) {
	cfg := a.Config.LLM

	var model llm.Completer
	switch cfg.Provider {
	case langchain.ProviderOpenAI:
		model = openai.NewClient(openai.Config{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			Organization: cfg.Organization,
			Timeout:      cfg.Timeout,
			Retries:      cfg.MaxRetries,
		}, a.Logger)
	default:
		lc, err := langchain.New(langchain.Config{
			Provider:        cfg.Provider,
			Model:           cfg.Model,
			OpenAIAPIKey:    cfg.APIKey,
			OpenAIBaseURL:   cfg.BaseURL,
			AnthropicAPIKey: cfg.AnthropicAPIKey,
			OllamaHost:      cfg.OllamaHost,
		}, a.Logger)
		if err != nil {
			return nil, err
		}
		model = lc
	}

	if a.Config.Cache.RedisURL == "" {
		return model, nil
	}
	store, err := cache.NewRedisStore(ctx, a.Config.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect completion cache: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	a.Logger.Info("llm.cache.enabled", "ttl", a.Config.Cache.TTL)
	return cache.New(model, store, a.Config.Cache.TTL, a.Logger), nil
}

// Close releases everything New opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
