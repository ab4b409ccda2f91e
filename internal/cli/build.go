package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/adjudicate"
	"github.com/ppiankov/factlens/internal/cache"
	"github.com/ppiankov/factlens/internal/embed"
	"github.com/ppiankov/factlens/internal/extract"
	"github.com/ppiankov/factlens/internal/index"
	"github.com/ppiankov/factlens/internal/llm"
	"github.com/ppiankov/factlens/internal/metrics"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/retrieve"
	"github.com/ppiankov/factlens/internal/verify"
)

// services is everything a verification command needs
type services struct {
	cfg          *model.Config
	logger       *log.Logger
	embedder     embed.Embedder
	store        index.Store
	provider     llm.Provider
	orchestrator *verify.Orchestrator
}

// openStore opens the embedder and the configured index
func openStore(ctx context.Context, cfg *model.Config, logger *log.Logger) (embed.Embedder, index.Store, error) {
	embedder, err := embed.FromModel(cfg.Embed, cfg.HTTP, cache.Open(cfg.Cache), logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := index.Open(ctx, cfg.Index, embedder, logger)
	if err != nil {
		if !errors.Is(err, model.ErrConfiguration) {
			err = fmt.Errorf("%w: %w", model.ErrIndexUnavailable, err)
		}
		return nil, nil, err
	}
	return embedder, store, nil
}

// buildServices wires extraction, retrieval and adjudication from cfg.
// rec may be nil.
func buildServices(ctx context.Context, cfg *model.Config, logger *log.Logger, rec *metrics.Recorder) (*services, error) {
	embedder, store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	provider, err := llm.FromModel(cfg.LLM, cfg.HTTP, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	extractor, err := extract.FromModel(cfg.Extract, provider, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	adjudicator := adjudicate.New(retrieve.New(store, logger), provider, adjudicate.Options{
		TopK:        cfg.Verify.TopK,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Logger:      logger,
		Metrics:     rec,
	})

	orchestrator := verify.New(extractor, adjudicator, verify.Options{
		Workers:  cfg.Verify.Workers,
		Deadline: cfg.Verify.Deadline,
		Logger:   logger,
		Metrics:  rec,
	})

	return &services{
		cfg:          cfg,
		logger:       logger,
		embedder:     embedder,
		store:        store,
		provider:     provider,
		orchestrator: orchestrator,
	}, nil
}

// Close releases the index
func (s *services) Close() error {
	return s.store.Close()
}
