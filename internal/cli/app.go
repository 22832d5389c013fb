package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tiles/internal/config"
	"github.com/kailas-cloud/tiles/internal/db"
	"github.com/kailas-cloud/tiles/internal/db/memory"
	dbRedis "github.com/kailas-cloud/tiles/internal/db/redis"
	"github.com/kailas-cloud/tiles/internal/db/sqlite"
	"github.com/kailas-cloud/tiles/internal/repository/annotation"
	healthuc "github.com/kailas-cloud/tiles/internal/usecase/health"
	"github.com/kailas-cloud/tiles/internal/usecase/registry"
	"github.com/kailas-cloud/tiles/internal/usecase/tiledata"
	"github.com/kailas-cloud/tiles/internal/usecase/tileurl"
)

// app is the composition root shared by the commands.
type app struct {
	cfg         config.Config
	logger      *zap.Logger
	store       db.Store
	types       *registry.Registry
	annotations *annotation.Repo
	data        *tiledata.Service
	urls        *tileurl.Service
	health      *healthuc.Service
}

// openStore creates the database store selected by the driver.
// Valkey speaks the Redis protocol, so both drivers share one client.
func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "valkey", "redis":
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
			CacheTTL: time.Duration(cfg.CacheTTLSec) * time.Second,
		})
	case "sqlite":
		return sqlite.NewStore(sqlite.Config{Path: cfg.Path})
	case "memory":
		return memory.NewStore(), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	types, err := registry.FromConfig(cfg.Tiles)
	if err != nil {
		return nil, fmt.Errorf("failed to register tile types: %w", err)
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database store: %w", err)
	}
	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	annotations := annotation.New(store, cfg.Storage.KeyPrefix)
	var opts []tiledata.Option
	if len(cfg.Storage.Anchors) > 0 {
		opts = append(opts, tiledata.WithContextResolver(tiledata.NewPrefixContextResolver(cfg.Storage.Anchors)))
	}
	data := tiledata.New(types, annotations, logger, opts...)

	return &app{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		types:       types,
		annotations: annotations,
		data:        data,
		urls:        tileurl.New(cfg.Site.BaseURL, types, data),
		health:      healthuc.New(store, types),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}
