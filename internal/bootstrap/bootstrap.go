// internal/bootstrap/bootstrap.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"product-discovery/internal/common/config"
	"product-discovery/internal/common/database"
	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/memory"
	extractintent "product-discovery/internal/workers/discovery/extract-intent"
	handlemessage "product-discovery/internal/workers/discovery/handle-message"
	querycatalog "product-discovery/internal/workers/discovery/query-catalog"
)

// Resources are the backing services shared by the HTTP server, the job
// workers and the CLI.
type Resources struct {
	Store     querycatalog.Store
	Memory    memory.Store
	Completer extractintent.Completer
	Redis     *redis.Client
	// Checks are probed by the readiness endpoint.
	Checks map[string]func(context.Context) error

	closers []func() error
}

// Close releases every connection opened by Open, newest first.
func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i]()
	}
}

// RetryWithBackoff runs operation up to maxRetries times, doubling the delay
// after each failure.
func RetryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Open connects the catalog, cache, memory and extractor described by cfg.
// On error everything opened so far is closed again.
func Open(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (_ *Resources, err error) {
	res := &Resources{Checks: map[string]func(context.Context) error{}}
	defer func() {
		if err != nil {
			res.Close()
		}
	}()

	if err = res.openCatalog(ctx, cfg, zapLog); err != nil {
		return nil, err
	}

	needsRedis := cfg.Catalog.CacheEnabled || cfg.Memory.Backend == config.MemoryBackendRedis
	if needsRedis {
		var rc *database.RedisClient
		err = RetryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rc.Ping(ctx); err != nil {
				rc.Close()
				return err
			}
			return nil
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			return nil, err
		}
		res.Redis = rc.Client
		res.closers = append(res.closers, rc.Close)
		res.Checks["redis"] = rc.Ping
		zapLog.Info("Redis connected", zap.String("address", cfg.Database.Redis.Address))
	}

	if cfg.Catalog.CacheEnabled {
		ttl := config.GetDuration(cfg.Catalog.CacheTTL)
		res.Store = querycatalog.NewCachedStore(res.Store, res.Redis, ttl, handlemessage.CatalogLogger(log))
		zapLog.Info("catalog cache enabled", zap.Duration("ttl", ttl))
	}

	res.Memory, err = memory.New(cfg.Memory, res.Redis)
	if err != nil {
		return nil, err
	}
	zapLog.Info("conversation memory ready", zap.String("backend", cfg.Memory.Backend))

	if cfg.LLM.Active() {
		res.Completer = extractintent.NewOpenAICompleter(extractintent.OpenAIConfig{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     config.GetDuration(cfg.LLM.Timeout),
		})
		zapLog.Info("language extractor enabled", zap.String("model", cfg.LLM.Model))
	} else {
		zapLog.Info("language extractor disabled, using query parser only")
	}

	return res, nil
}

func (r *Resources) openCatalog(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) error {
	switch cfg.Catalog.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		client, err := openSQL(ctx, cfg, zapLog)
		if err != nil {
			return err
		}
		r.closers = append(r.closers, client.Close)
		if err := prepareSQL(ctx, client, cfg.Catalog.SeedOnStart); err != nil {
			return err
		}
		r.Checks["catalog"] = client.CatalogReady
		r.Store = querycatalog.NewSQLStore(client.DB, client.Dialect)

	case config.DriverElasticsearch:
		var es *database.ElasticsearchClient
		err := RetryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return apperrors.NewDatabaseConnectionFailedError(err)
		}
		store := querycatalog.NewESStore(es.Client, cfg.Catalog.Index)
		if cfg.Catalog.SeedOnStart {
			err = store.IndexCatalog(ctx, database.DemoBusinesses(), database.DemoProducts())
		} else {
			err = store.EnsureIndex(ctx)
		}
		if err != nil {
			return err
		}
		r.Checks["catalog"] = es.IndexReady(cfg.Catalog.Index)
		r.Store = store

	default:
		return fmt.Errorf("unknown catalog driver %q", cfg.Catalog.Driver)
	}

	zapLog.Info("catalog connected",
		zap.String("driver", cfg.Catalog.Driver),
		zap.Bool("seeded", cfg.Catalog.SeedOnStart),
	)
	return nil
}

func openSQL(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*database.SQLClient, error) {
	if cfg.Catalog.Driver == config.DriverSQLite {
		return database.NewSQLite(cfg.Database.SQLite)
	}

	var pg *database.SQLClient
	err := RetryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		return nil
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return nil, apperrors.NewDatabaseConnectionFailedError(err)
	}
	return pg, nil
}

func prepareSQL(ctx context.Context, client *database.SQLClient, seed bool) error {
	if err := database.ApplyCatalogSchema(ctx, client.DB); err != nil {
		return err
	}
	if !seed {
		return nil
	}
	return database.SeedCatalog(ctx, client.DB, client.Dialect, database.DemoBusinesses(), database.DemoProducts())
}
