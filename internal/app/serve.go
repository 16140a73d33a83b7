package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/stockgrid/internal/logging"
	"github.com/five82/stockgrid/internal/metrics"
	"github.com/five82/stockgrid/internal/server"
	"github.com/five82/stockgrid/internal/state"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configure `stockgrid serve`.
type ServeOptions struct {
	Options
	Listen string
}

// Serve exposes the configured source over HTTP until ctx is cancelled.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := LoadConfig(opts.Options)
	if err != nil {
		return err
	}
	if opts.Listen != "" {
		cfg.ListenAddr = opts.Listen
	}

	logger, err := logging.New(logging.Options{Level: opts.LogLevel})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	src, closeSrc, err := OpenSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeSrc(context.Background()) }()

	m := metrics.New()
	store := state.New(src)
	load := func(ctx context.Context) {
		items, err := store.Load(ctx)
		m.RecordLoad(err)
		if err != nil {
			logger.Warn("load failed", zap.Error(err))
			return
		}
		m.SetProducts(len(items))
		logger.Info("products loaded", zap.Int("count", len(items)))
	}
	load(ctx)
	if snap := store.Snapshot(); !snap.Loaded {
		return fmt.Errorf("initial load: %w", snap.LastError)
	}

	httpServer := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: server.New(store, server.Options{
			Logger:    logging.Named(logger, "http"),
			Metrics:   m,
			Persister: src,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	var refresher *Refresher
	if cfg.RefreshSchedule != "" {
		refresher, err = NewRefresher(cfg.RefreshSchedule, func() { load(gctx) },
			func() int { return store.Snapshot().ConsecutiveFailures },
			logging.Named(logger, "refresher"))
		if err != nil {
			return fmt.Errorf("schedule refresh: %w", err)
		}
		refresher.Start()
		defer refresher.Stop()
	}

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	if w, ok := src.(watcher); ok {
		g.Go(func() error {
			// A missing data directory only costs live reloads, not the server.
			if err := w.Watch(gctx, func() { load(gctx) }); err != nil {
				logger.Warn("file watch stopped", zap.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}
