package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outlined/internal/chunkindex"
	"github.com/fyrsmithlabs/outlined/internal/completion"
	"github.com/fyrsmithlabs/outlined/internal/config"
	"github.com/fyrsmithlabs/outlined/internal/embeddings"
	"github.com/fyrsmithlabs/outlined/internal/generator"
	"github.com/fyrsmithlabs/outlined/internal/library"
	"github.com/fyrsmithlabs/outlined/internal/logging"
	"github.com/fyrsmithlabs/outlined/internal/telemetry"
)

// app holds the services behind the library and generation commands.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	store     *library.Store
	service   *generator.Service
}

// newApp loads configuration and wires the library, embedding, chunk index
// and generation services.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(cfg.Logging, logLevel)
	if err != nil {
		return nil, err
	}
	zl := logger.Underlying()

	tel, err := telemetry.New(ctx, cfg.Telemetry, version)
	if err != nil {
		return nil, err
	}
	if degraded, reason := tel.Degraded(); degraded {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", reason))
	}

	libraryPath, err := config.ExpandPath(cfg.Library.Path)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("expanding library path: %w", err)
	}
	store, err := library.Open(ctx, libraryPath, zl.Named("library"))
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("opening library: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, telemetry: tel, store: store}
	fail := func(err error) (*app, error) {
		_ = a.Close()
		return nil, err
	}

	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL:   cfg.Embeddings.BaseURL,
		Model:     cfg.Embeddings.Model,
		APIKey:    cfg.Embeddings.APIKey.Value(),
		Dimension: cfg.Embeddings.Dimension,
	}, zl.Named("embeddings"))
	if err != nil {
		return fail(fmt.Errorf("creating embedding service: %w", err))
	}

	index, err := chunkindex.New(chunkindex.Config{
		Path:       cfg.Index.Path,
		Collection: cfg.Index.Collection,
		Compress:   cfg.Index.Compress,
	}, embedder, zl.Named("chunkindex"))
	if err != nil {
		return fail(fmt.Errorf("opening chunk index: %w", err))
	}

	var llm completion.Generator
	client, err := completion.NewClient(completion.Config{
		BaseURL:    cfg.Generation.BaseURL,
		Model:      cfg.Generation.Model,
		APIKey:     cfg.Generation.APIKey.Value(),
		Timeout:    cfg.Generation.Timeout.Duration(),
		MaxRetries: cfg.Generation.MaxRetries,
		RateLimit:  cfg.Generation.RateLimit,
		Burst:      cfg.Generation.Burst,
	}, zl.Named("completion"))
	if err != nil {
		// Library commands work without a generation service.
		logger.Debug(ctx, "generation service unavailable", zap.Error(err))
		llm = unavailableGenerator{err: err}
	} else {
		llm = client
	}

	service, err := generator.NewService(generatorConfig(cfg), generator.Deps{
		Store:     store,
		Embedder:  embedder,
		Generator: llm,
		Index:     index,
	}, logger)
	if err != nil {
		return fail(fmt.Errorf("creating generator: %w", err))
	}

	a.service = service
	return a, nil
}

// Close releases the library, flushes telemetry and syncs the logger.
func (a *app) Close() error {
	err := errors.Join(a.store.Close(), a.telemetry.Shutdown(context.Background()))
	_ = a.logger.Sync()
	return err
}

// newLogger maps the logging section, with an optional level override, onto
// a stderr logger.
func newLogger(settings config.LoggingConfig, levelOverride string) (*logging.Logger, error) {
	level := settings.Level
	if levelOverride != "" {
		level = levelOverride
	}
	logCfg, err := logging.FromSettings(level, settings.Format, settings.Sampling)
	if err != nil {
		return nil, fmt.Errorf("logging config: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}

func generatorConfig(cfg *config.Config) generator.Config {
	return generator.Config{
		Temperature:      cfg.Generation.Temperature,
		MaxTokens:        cfg.Generation.MaxTokens,
		SegmentMaxTokens: cfg.Generation.SegmentMaxTokens,
		StyleAdherence:   cfg.Prompt.StyleAdherence,
		TotalDuration:    cfg.Prompt.TotalDuration,
		ReferenceLimit:   cfg.Prompt.ReferenceLimit,
		ExcerptChars:     cfg.Prompt.ExcerptChars,
		ChunkSize:        cfg.Index.ChunkSize,
	}
}

// unavailableGenerator fails every request with the reason the generation
// client could not be created.
type unavailableGenerator struct {
	err error
}

func (u unavailableGenerator) Generate(context.Context, completion.Request) (string, error) {
	return "", fmt.Errorf("%w: %w", completion.ErrGenerationFailed, u.err)
}

// withApp runs fn against a freshly wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(*app) error) (err error) {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()
	return fn(a)
}
