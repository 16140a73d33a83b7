package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/stockgrid/internal/config"
	"github.com/five82/stockgrid/internal/grid"
	"github.com/five82/stockgrid/internal/kv"
	"github.com/five82/stockgrid/internal/logging"
	"github.com/five82/stockgrid/internal/prefs"
	"github.com/five82/stockgrid/internal/query"
	"github.com/five82/stockgrid/internal/searchform"
	"github.com/five82/stockgrid/internal/state"
	"github.com/five82/stockgrid/internal/ui"
)

// Options configure a stockgrid run. Zero values defer to the config file.
type Options struct {
	ConfigPath string
	EnvFile    string
	PrefsPath  string // empty uses default ~/.config/stockgrid/prefs.toml
	Source     string
	PageSize   int
	LogLevel   string
}

// LoadConfig reads the env file and config, then applies command-line
// overrides.
func LoadConfig(opts Options) (config.Config, error) {
	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.Source != "" {
		cfg.Source = config.Source(opts.Source)
	}
	if opts.PageSize > 0 {
		cfg.PageSize = opts.PageSize
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Run boots the grid TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, prefsErr := prefs.Load(prefsPath)

	logger, err := logging.New(logging.Options{Path: cfg.LogPath, Level: opts.LogLevel})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if prefsErr != nil {
		logger.Warn("preferences unavailable, using defaults", zap.Error(prefsErr))
	}

	src, closeSrc, err := OpenSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeSrc(context.Background()) }()

	store := state.New(src)

	kvStore, err := kv.Open(kv.Config{Path: cfg.KVPath(), Logger: logging.Named(logger, "kv")})
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer func() { _ = kvStore.Close() }()

	form := searchform.New(kvStore)
	criteria, err := form.Restore()
	if err != nil {
		logger.Warn("saved search criteria unreadable", zap.Error(err))
	}

	pageSize := cfg.PageSize
	if opts.PageSize == 0 && userPrefs.PageSize > 0 {
		pageSize = userPrefs.PageSize
	}
	initial := query.Default().WithPageSize(pageSize)
	if filter, err := criteria.Filter(); err != nil {
		logger.Warn("saved search criteria ignored", zap.Error(err))
		criteria = searchform.Criteria{}
	} else {
		initial = initial.WithFilter(filter)
	}

	ctrl := grid.New(store, initial,
		grid.WithLogger(logging.Named(logger, "grid")),
		grid.WithPersister(src))
	defer ctrl.Close()

	model := ui.New(ui.Options{
		Context:     ctx,
		Controller:  ctrl,
		Store:       store,
		Form:        form,
		Criteria:    criteria,
		Prefs:       userPrefs,
		PrefsPath:   prefsPath,
		SourceLabel: sourceLabel(cfg),
		LogPath:     cfg.LogPath,
		Logger:      logging.Named(logger, "ui"),
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	reload := func() { program.Send(ui.ReloadMsg{}) }

	if cfg.RefreshSchedule != "" {
		refresher, err := NewRefresher(cfg.RefreshSchedule, reload,
			func() int { return store.Snapshot().ConsecutiveFailures },
			logging.Named(logger, "refresher"))
		if err != nil {
			return fmt.Errorf("schedule refresh: %w", err)
		}
		refresher.Start()
		defer refresher.Stop()
	}

	if w, ok := src.(watcher); ok {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := w.Watch(watchCtx, reload); err != nil {
				logger.Warn("file watch stopped", zap.Error(err))
			}
		}()
	}

	logger.Info("starting grid", zap.String("source", string(cfg.Source)), zap.Int("page_size", pageSize))
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func sourceLabel(cfg config.Config) string {
	switch cfg.Source {
	case config.SourceFile:
		return cfg.DataFile
	case config.SourceHTTP:
		return cfg.APIURL
	case config.SourceMongo:
		return cfg.MongoDatabase + "." + cfg.MongoCollection
	default:
		return string(cfg.Source)
	}
}
