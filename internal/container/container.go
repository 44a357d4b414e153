package container

import (
	"context"
	"fmt"

	"grocery/scraper/internal/client"
	"grocery/scraper/internal/config"
	"grocery/scraper/internal/proxy"
	"grocery/scraper/internal/queue"
	"grocery/scraper/internal/repository"
	"grocery/scraper/internal/service"
	"grocery/scraper/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config   *config.Config
	Client   client.RetailClient
	Catalog  repository.CatalogRepository
	Products repository.ProductRepository

	// Queue and StateManager stay nil when Redis is disabled
	Queue        queue.Queue
	StateManager state.StateManager

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	proxySupplier := proxy.NewProxySupplier(ctx, cfg.Scraper.Proxies,
		proxy.HTTPChecker(cfg.Scraper.BaseURL, cfg.Scraper.RequestTimeoutDuration()))

	var fetcher client.Fetcher
	switch cfg.Scraper.FetchMode {
	case "http":
		fetcher = client.NewHTTPFetcher(cfg.Scraper, proxySupplier)
	default:
		fetcher = client.NewBrowserFetcher(cfg.Scraper, proxySupplier)
	}
	log.Infof("🌐 Fetching pages in %s mode", cfg.Scraper.FetchMode)

	container.Client = client.NewRetailClient(cfg.Scraper, fetcher)

	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	container.db = db

	if err := db.Ping(ctx); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		container.Close()
		return nil, err
	}
	log.Info("✅ Connected to database successfully")

	container.Catalog = repository.NewCatalogRepository(db)
	container.Products = repository.NewProductRepository(db)

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		container.redis = rdb

		if err := rdb.Ping(ctx).Err(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
		if err != nil {
			container.Close()
			return nil, err
		}
		container.Queue = redisQueue
		container.StateManager = state.NewRedisStateManager(rdb)
	} else {
		log.Info("Redis disabled, failed products are only logged")
	}

	container.Service = service.NewService(
		container.Catalog,
		container.Products,
		container.Client,
		container.Queue,
		container.StateManager,
		cfg.Scraper.MaxRetries,
		cfg.Redis.MinIdleTime,
	)

	return container, nil
}

// Close releases the database pool and the Redis connection
func (c *Container) Close() {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("⚠️ Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
}
