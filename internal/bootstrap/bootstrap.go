// Package bootstrap opens the configured entity store and search index. The
// API server, the seed command and graphctl share it.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-social-graph/config"
	"github.com/oksasatya/go-social-graph/internal/domain/repository"
	badgerstore "github.com/oksasatya/go-social-graph/internal/infrastructure/badger"
	"github.com/oksasatya/go-social-graph/internal/infrastructure/esindex"
	"github.com/oksasatya/go-social-graph/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-social-graph/internal/infrastructure/postgres"
	"github.com/oksasatya/go-social-graph/internal/infrastructure/search"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
)

const (
	StoreMemory   = "memory"
	StoreBadger   = "badger"
	StorePostgres = "postgres"

	SearchScan          = "scan"
	SearchElasticsearch = "elasticsearch"
)

// OpenStore returns the store named by cfg.StoreBackend. The caller owns it
// and must Close it.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.Store, error) {
	switch cfg.StoreBackend {
	case StoreMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		return memory.NewStore(), nil

	case StoreBadger:
		bcfg := badgerstore.DefaultConfig(cfg.BadgerPath)
		bcfg.Logger = logger
		st, err := badgerstore.Open(bcfg)
		if err != nil {
			return nil, fmt.Errorf("open badger at %s: %w", cfg.BadgerPath, err)
		}
		logger.WithField("path", cfg.BadgerPath).Info("badger store opened")
		return st, nil

	case StorePostgres:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &pooledStore{Store: pginfra.NewStore(pool), close: pool.Close}, nil
	}
	return nil, fmt.Errorf("unknown STORE_BACKEND %q (want memory, badger or postgres)", cfg.StoreBackend)
}

// pooledStore closes the pgx pool along with the store.
type pooledStore struct {
	*pginfra.Store
	close func()
}

func (p *pooledStore) Close() error {
	p.close()
	return nil
}

// OpenSearch returns the index named by cfg.SearchBackend. The Elasticsearch
// index is created if missing and backfilled from the store.
func OpenSearch(ctx context.Context, cfg *config.Config, store repository.Store, logger *logrus.Logger) (repository.SearchIndex, error) {
	switch cfg.SearchBackend {
	case SearchScan:
		return search.NewScanIndex(store), nil

	case SearchElasticsearch:
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			return nil, fmt.Errorf("elasticsearch client: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := helpers.PingES(pingCtx, es); err != nil {
			return nil, err
		}
		idx := esindex.NewUsersIndex(es, cfg.ESUsersIndex, logger)
		if err := idx.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		return idx, nil
	}
	return nil, fmt.Errorf("unknown SEARCH_BACKEND %q (want scan or elasticsearch)", cfg.SearchBackend)
}
