package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"apilab/internal/adapter"
	"apilab/internal/board"
	"apilab/internal/catalog"
	"apilab/internal/config"
	"apilab/internal/gateway/provider"
	"apilab/internal/logger"
	"apilab/internal/metrics"
	"apilab/internal/snapshot"
	"apilab/internal/store/journal"
	labhttp "apilab/internal/transport/http/lab"
)

const journalWriteTimeout = 5 * time.Second

// Prober reports whether headless screenshots can be taken.
type Prober interface {
	adapter.Snapshotter
	Available(ctx context.Context) error
}

type AppBuilder struct {
	cfg *config.Config

	modelProviderFn func(context.Context, config.ModelConfig) (provider.ModelProvider, error)
	snapshotterFn   func(config.AuditConfig) Prober
	httpServerFn    func(labhttp.ServerConfig) (*labhttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

// WithModelProvider replaces the configured model backend.
func WithModelProvider(p provider.ModelProvider) AppBuilderOption {
	return func(b *AppBuilder) {
		b.modelProviderFn = func(context.Context, config.ModelConfig) (provider.ModelProvider, error) {
			return p, nil
		}
	}
}

func WithSnapshotter(fn func(config.AuditConfig) Prober) AppBuilderOption {
	return func(b *AppBuilder) { b.snapshotterFn = fn }
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:             cfg,
		modelProviderFn: buildModelProvider,
		snapshotterFn:   buildSnapshotter,
		httpServerFn:    labhttp.NewServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func buildModelProvider(ctx context.Context, m config.ModelConfig) (provider.ModelProvider, error) {
	return provider.BuildFromConfig(ctx, provider.ModelCfg{
		Provider: m.ProviderKind(),
		APIURL:   m.APIURL,
		APIKey:   m.APIKey,
		Timeout:  m.Timeout(),
		Headers:  m.Headers,
	})
}

func buildSnapshotter(a config.AuditConfig) Prober {
	return snapshot.New(snapshot.Config{
		Width:   a.ViewportWidth,
		Height:  a.ViewportHeight,
		Timeout: a.ScreenshotTimeout(),
	})
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	client, err := b.modelProviderFn(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("model provider: %w", err)
	}
	logger.Infof("✓ model provider %s ready", client.ID())

	var adapterOpts []adapter.Option
	screenshots := false
	if cfg.Audit.Screenshot && b.snapshotterFn != nil {
		snap := b.snapshotterFn(cfg.Audit)
		if err := snap.Available(ctx); err != nil {
			logger.Warnf("headless browser unavailable, audits run without screenshots: %v", err)
		} else {
			adapterOpts = append(adapterOpts, adapter.WithSnapshotter(snap))
			screenshots = true
		}
	}
	adapters := adapter.New(client, adapter.Models{
		Text:   cfg.Model.TextModel,
		Vision: cfg.Model.VisionModel,
		Maps:   cfg.Model.MapsModel,
	}, adapterOpts...)

	runs, err := journal.Open(journal.Config{
		Path:       cfg.Journal.Path,
		MaxEntries: cfg.Journal.MaxEntries,
		TextLimit:  cfg.Journal.OutputLimit,
	})
	if err != nil {
		return nil, err
	}

	var (
		recorder       metrics.Recorder = metrics.Noop{}
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		recorder = metrics.NewProm(cfg.Metrics.Namespace)
		metricsHandler = metrics.Handler()
	}

	bd := board.New(adapters, board.WithObserver(runObserver(runs, recorder)))

	cards, err := catalog.NewRegistry(cfg.Catalog.Path)
	if err != nil {
		_ = runs.Close()
		return nil, fmt.Errorf("load cards: %w", err)
	}
	snap := cards.Snapshot()
	if err := bd.Sync(snap.Cards); err != nil {
		_ = runs.Close()
		return nil, fmt.Errorf("register cards: %w", err)
	}
	cards.Subscribe(func(s catalog.Snapshot) {
		if err := bd.Sync(s.Cards); err != nil {
			logger.Errorf("[catalog] apply version %d failed: %v", s.Version, err)
			return
		}
		logger.Infof("[catalog] applied version %d (%d cards)", s.Version, len(s.Cards))
	})

	srv, err := b.httpServerFn(labhttp.ServerConfig{
		Addr:            cfg.App.HTTPAddr,
		Board:           bd,
		Runs:            runs,
		Recorder:        recorder,
		MetricsPath:     cfg.Metrics.Path,
		MetricsHandler:  metricsHandler,
		ShutdownTimeout: cfg.App.ShutdownTimeout(),
	})
	if err != nil {
		_ = runs.Close()
		return nil, fmt.Errorf("http server: %w", err)
	}

	return &App{
		cfg:     cfg,
		board:   bd,
		http:    srv,
		cards:   cards,
		journal: runs,
		Summary: newStartupSummary(cfg, client.ID(), snap, screenshots),
	}, nil
}

type runRecorder interface {
	Record(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

// runObserver journals every settled run and counts it.
func runObserver(runs runRecorder, rec metrics.Recorder) board.Observer {
	return func(ev board.Event) {
		dur := ev.State.FinishedAt.Sub(ev.State.StartedAt)
		rec.ObserveRun(string(ev.Card.Kind), string(ev.State.Status), string(ev.State.ErrorKind), dur.Seconds())
		if runs == nil {
			return
		}
		entry := journal.Entry{
			UnitID:     ev.UnitID,
			Kind:       string(ev.Card.Kind),
			Status:     string(ev.State.Status),
			ErrorKind:  string(ev.State.ErrorKind),
			Input:      ev.Input,
			Output:     ev.State.Output,
			Duration:   dur,
			StartedAt:  ev.State.StartedAt,
			FinishedAt: ev.State.FinishedAt,
		}
		if ev.State.Result != nil {
			if raw, err := json.Marshal(ev.State.Result); err == nil {
				entry.Result = raw
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		defer cancel()
		if _, err := runs.Record(ctx, entry); err != nil {
			logger.Warnf("[journal] record %s: %v", ev.UnitID, err)
		}
	}
}
