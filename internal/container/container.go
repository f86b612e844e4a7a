package container

import (
	"context"
	"fmt"
	"os"

	"lenta/parser/internal/client"
	"lenta/parser/internal/config"
	"lenta/parser/internal/proxy"
	"lenta/parser/internal/repository"
	"lenta/parser/internal/service"
	"lenta/parser/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config       *config.Config
	Client       client.LentaClient
	Repository   repository.ProductRepository
	StateManager state.StateManager

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized. The
// Postgres sink and Redis resume state are wired only when enabled in the
// configuration; the run works without either.
func New(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	proxySupplier, err := proxy.NewProxySupplier(context.Background(), cfg.Lenta.Proxies, cfg.Lenta.APIURL+"/stores/")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize proxy supplier: %w", err)
	}

	if cfg.Database.Enabled {
		db, err := pgxpool.New(context.Background(),
			fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.Database.Host,
				cfg.Database.Port,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Name,
			))
		if err != nil {
			return nil, err
		}
		container.db = db
		container.Repository = repository.NewProductRepository(db)
		log.Info("✅ Connected to Postgres")
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})

		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis")

		container.redis = rdb
		container.StateManager = state.NewRedisStateManager(rdb)
	} else {
		container.StateManager = state.NewNoopStateManager()
	}

	lentaClient := client.NewLentaClient(cfg.Lenta, proxySupplier)
	container.Client = lentaClient

	container.Service = service.NewService(
		lentaClient,
		container.Repository,
		container.StateManager,
		cfg,
		os.Stdin,
	)

	return container, nil
}

// Run executes one full interactive scraping session
func (c *Container) Run(ctx context.Context) error {
	return c.Service.Run(ctx)
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return err
		}
	}
	return nil
}
