// Package app assembles the service graph shared by the server and CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdy7080/kpop-ranker-sub000/internal/aliases"
	"github.com/pdy7080/kpop-ranker-sub000/internal/backend"
	"github.com/pdy7080/kpop-ranker-sub000/internal/cache"
	"github.com/pdy7080/kpop-ranker-sub000/internal/config"
	"github.com/pdy7080/kpop-ranker-sub000/internal/dedup"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
	"github.com/pdy7080/kpop-ranker-sub000/internal/repositories"
	"github.com/pdy7080/kpop-ranker-sub000/internal/route"
	"github.com/pdy7080/kpop-ranker-sub000/internal/suggest"
	"github.com/pdy7080/kpop-ranker-sub000/internal/trending"
)

const (
	l1CacheItems = 2048
	l1CacheTTL   = 30 * time.Second
	cachePrefix  = "kpopranker:"
)

// App holds the wired components
type App struct {
	Config *config.Config

	Cache     cache.Cache
	Database  *models.Database // nil unless MONGODB_URL is set
	Backend   *backend.Client
	Aliases   *aliases.Watcher
	Suggest   *suggest.Resolver
	Route     *route.Resolver
	Dedup     *dedup.Service
	Decisions repositories.DecisionRepository
	Trending  *trending.Loader
}

// New wires every component from cfg. Valkey and MongoDB are optional;
// when configured they must be reachable.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	var l2 cache.Cache
	if cfg.CacheEnabled() {
		valkey, err := cache.NewValkeyCache(cfg.ValkeyURL, cachePrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		l2 = valkey
		slog.Info("Valkey cache enabled")
	}
	a.Cache = cache.NewMultiLevel(cache.NewMemoryCache(l1CacheItems), l2, l1CacheTTL)

	if cfg.AuditEnabled() {
		db, err := models.NewDatabase(ctx, cfg.MongodbURL, cfg.MongodbDatabase)
		if err != nil {
			a.Close(context.Background())
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.CreateIndexes(ctx); err != nil {
			slog.Warn("Failed to create decision log indexes", "error", err)
		}
		a.Database = db
		a.Decisions = repositories.NewCachedDecisionRepository(repositories.NewMongoDecisionRepository(db), a.Cache)
		slog.Info("MongoDB decision log enabled", "database", cfg.MongodbDatabase)
	} else {
		a.Decisions = repositories.NewMemoryDecisionRepository(0)
	}

	watcher, err := aliases.NewWatcher(cfg.AliasesPath)
	if err != nil {
		a.Close(context.Background())
		return nil, fmt.Errorf("failed to load aliases: %w", err)
	}
	a.Aliases = watcher

	a.Backend = backend.NewFromConfig(cfg, a.Cache)
	a.Suggest = suggest.NewResolver(a.Backend, nil, cfg.SuggestLimit)
	a.Route = route.NewResolver(a.Aliases, a.Suggest, a.Backend)
	a.Dedup = dedup.NewService(a.Backend, a.Decisions, cfg.DedupMasterPolicy)
	a.Trending = trending.NewLoader(a.Backend, trending.NewStore(), trending.Options{
		SnapshotPath:    cfg.SnapshotPath,
		Limit:           cfg.TrendingLimit,
		RefreshDelay:    cfg.TrendingRefreshDelay,
		RefreshInterval: cfg.TrendingRefreshInterval,
	})

	return a, nil
}

// Close releases the cache and database connections
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.Database != nil {
		errs = append(errs, a.Database.Close(ctx))
	}
	return errors.Join(errs...)
}
