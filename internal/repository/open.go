// Package repository selects the incident data source named by the configuration.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/smartcity/incidentmap/internal/config"
	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/repository/cache"
	"github.com/smartcity/incidentmap/internal/repository/httpsource"
	"github.com/smartcity/incidentmap/internal/repository/postgres"
	"github.com/smartcity/incidentmap/internal/repository/sqlstore"
)

// Open builds the configured repository. Database drivers fall back to the demo
// data set when the database cannot be reached. The returned func releases
// connections and is never nil.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.IncidentRepository, func()) {
	repo, closeFn := openSource(ctx, cfg, logger)

	client := cache.OpenRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if client == nil {
		return repo, closeFn
	}
	logger.Info("snapshot cache enabled",
		zap.String("addr", cfg.Redis.Addr),
		zap.Duration("ttl", cfg.Redis.SnapshotTTL),
	)
	cached := cache.NewRepository(repo, cache.NewRedisStore(client, "incidentmap:"), cfg.Redis.SnapshotTTL, logger)
	return cached, func() {
		_ = client.Close()
		closeFn()
	}
}

func openSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.IncidentRepository, func()) {
	noop := func() {}
	db := cfg.Database

	switch db.Driver {
	case config.DriverPgx:
		if db.URL == "" {
			break
		}
		pool, err := pgxpool.New(ctx, db.URL)
		if err == nil {
			err = pool.Ping(ctx)
			if err != nil {
				pool.Close()
			}
		}
		if err != nil {
			logger.Warn("could not connect to database", zap.Error(err))
			break
		}
		logger.Info("connected to PostgreSQL", zap.String("driver", db.Driver))
		return postgres.NewPostgresRepository(pool), pool.Close

	case config.DriverPostgres:
		if db.URL == "" {
			break
		}
		store, err := sqlstore.OpenPostgres(ctx, db.URL)
		if err != nil {
			logger.Warn("could not connect to database", zap.Error(err))
			break
		}
		logger.Info("connected to PostgreSQL", zap.String("driver", db.Driver))
		return store, func() { _ = store.Close() }

	case config.DriverSQLite:
		store, err := sqlstore.OpenSQLite(ctx, db.SQLitePath)
		if err != nil {
			logger.Warn("could not open sqlite database", zap.String("path", db.SQLitePath), zap.Error(err))
			break
		}
		logger.Info("opened SQLite database", zap.String("path", db.SQLitePath))
		return store, func() { _ = store.Close() }

	case config.DriverHTTP:
		logger.Info("reading incidents over HTTP", zap.String("url", db.IncidentsURL))
		return httpsource.New(db.IncidentsURL, 0), noop
	}

	logger.Info("running with mock data only")
	return postgres.NewMockRepository(), noop
}
