package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackzampolin/marginalia/internal/config"
	"github.com/jackzampolin/marginalia/internal/defra"
	"github.com/jackzampolin/marginalia/internal/history"
	"github.com/jackzampolin/marginalia/internal/notion"
	"github.com/jackzampolin/marginalia/internal/schema"
	"github.com/jackzampolin/marginalia/internal/store"
	"github.com/jackzampolin/marginalia/internal/weread"
)

// historyFlushTimeout bounds how long a finished run waits for queued
// history events.
const historyFlushTimeout = 10 * time.Second

// newRemote builds the reading-service client and warms its session.
// cfg must already be resolved.
func newRemote(ctx context.Context, cfg *config.Config) (*weread.Client, error) {
	remote, err := weread.NewClient(weread.Config{
		Cookie:      cfg.WeRead.Cookie,
		WebURL:      cfg.WeRead.WebURL,
		APIURL:      cfg.WeRead.APIURL,
		Timeout:     cfg.WeRead.Timeout,
		MaxAttempts: cfg.WeRead.MaxAttempts,
		RetryDelay:  cfg.WeRead.RetryDelay,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	if err := remote.Establish(ctx); err != nil {
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}
	return remote, nil
}

// newWriter opens the configured target store. cfg must already be resolved.
func newWriter(ctx context.Context, cfg *config.Config) (store.Writer, error) {
	switch cfg.Target.Backend {
	case config.BackendNotion:
		client, err := notion.NewClient(notion.Config{
			Token:      cfg.Notion.Token,
			DatabaseID: cfg.Notion.DatabaseID,
			BaseURL:    cfg.Notion.BaseURL,
			Version:    cfg.Notion.Version,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		return notion.NewWriter(client), nil
	case config.BackendDefra:
		client, err := openDefra(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return defra.NewNoteStore(client, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown target backend %q", config.ErrConfiguration, cfg.Target.Backend)
	}
}

// openDefra connects to the DefraDB node and makes sure the collections exist.
func openDefra(ctx context.Context, cfg *config.Config) (*defra.Client, error) {
	client := defra.NewClient(cfg.Defra.URL)
	if err := client.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("%w (use 'marginalia defra start')", err)
	}
	if err := schema.Initialize(ctx, client, logger); err != nil {
		return nil, err
	}
	return client, nil
}

// historyRecorder is a history recorder together with the sink it owns.
type historyRecorder struct {
	*history.Recorder
	sink *defra.Sink
}

// openHistory starts a sink-backed recorder for sync events.
func openHistory(ctx context.Context, cfg *config.Config) (*historyRecorder, error) {
	client, err := openDefra(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	sink := defra.NewSink(defra.SinkConfig{Client: client, Logger: logger})
	// Events outlive an interrupted run; Close drains them.
	sink.Start(context.WithoutCancel(ctx))
	return &historyRecorder{Recorder: history.NewRecorder(sink), sink: sink}, nil
}

// Close waits for queued events, then stops the sink. It runs after the
// sync context may already be cancelled.
func (h *historyRecorder) Close(ctx context.Context) {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyFlushTimeout)
	defer cancel()
	if err := h.Flush(flushCtx); err != nil {
		logger.Warn("history flush incomplete", "error", err)
	}
	h.sink.Stop()
}
