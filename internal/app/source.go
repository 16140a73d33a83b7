package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/stockgrid/internal/config"
	"github.com/five82/stockgrid/internal/product"
	"github.com/five82/stockgrid/internal/source/filesource"
	"github.com/five82/stockgrid/internal/source/httpsource"
	"github.com/five82/stockgrid/internal/source/mongosource"
)

// Source is a product collection that can be read whole and written back.
type Source interface {
	Fetch(ctx context.Context) ([]product.Product, error)
	Save(ctx context.Context, items []product.Product) error
}

// watcher is implemented by sources that can report external edits.
type watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// OpenSource connects the source selected by cfg. The returned close func is
// never nil.
func OpenSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (Source, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Source {
	case config.SourceFile:
		logger.Info("using file source", zap.String("path", cfg.DataFile))
		return filesource.New(cfg.DataFile, logger.Named("filesource")), noop, nil

	case config.SourceHTTP:
		client, err := httpsource.NewClient(cfg.APIURL)
		if err != nil {
			return nil, noop, fmt.Errorf("init http source: %w", err)
		}
		logger.Info("using http source", zap.String("url", client.BaseURL()))
		return client, noop, nil

	case config.SourceMongo:
		src, err := mongosource.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, noop, fmt.Errorf("init mongo source: %w", err)
		}
		logger.Info("using mongo source",
			zap.String("database", cfg.MongoDatabase),
			zap.String("collection", cfg.MongoCollection))
		return src, src.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown source %q", cfg.Source)
	}
}
