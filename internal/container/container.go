package container

import (
	"context"
	"fmt"

	"poll-be/internal/config"
	"poll-be/internal/repository"
	"poll-be/internal/service"
	"poll-be/internal/service/auth"
	"poll-be/pkg/database"
	"poll-be/pkg/logger"
	"poll-be/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	RedisClient  *redis.Client
	Postgres     *database.PostgresDB
	Mongo        *database.MongoDB
	Repositories *repository.Repositories
	Services     *service.Services
}

// New creates a new dependency injection container. The storage driver
// decides which store backs the repositories; Redis is optional.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: log,
	}

	if err := c.initStore(ctx); err != nil {
		return nil, err
	}

	// Initialize Redis client if Redis URL is configured
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Named("redis").Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			c.RedisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	cache := service.NewCacheService(c.RedisClient, log.Named("cache").Logger, cfg.StatsCacheTTL, cfg.VoteLockTTL)
	aggregator := service.NewAggregator(c.Repositories.Poll, c.Repositories.User, cache, log.Named("aggregator").Logger)
	recorder := service.NewVoteRecorder(c.Repositories.Poll, cache, log.Named("votes").Logger)

	c.Services = &service.Services{
		Auth: auth.NewService(cfg.JWTSecret, log.Named("auth")),
		Poll: service.NewPollService(c.Repositories, recorder, aggregator, log.Named("polls").Logger),
	}

	return c, nil
}

func (c *Container) initStore(ctx context.Context) error {
	switch c.Config.StorageDriver {
	case config.DriverPostgres:
		db, err := database.NewPostgresDB(ctx, c.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.Postgres = db
		c.Repositories = &repository.Repositories{
			Poll: repository.NewPostgresPollRepository(db),
			User: repository.NewPostgresUserRepository(db),
		}
	case config.DriverMongo:
		db, err := database.NewMongoDB(ctx, c.Config.MongoURI, c.Config.MongoDB)
		if err != nil {
			return fmt.Errorf("failed to connect to mongo: %w", err)
		}
		if err := repository.EnsurePollIndexes(ctx, db); err != nil {
			c.Logger.WithError(err).Warn("Failed to ensure poll indexes")
		}
		if err := repository.EnsureUserIndexes(ctx, db); err != nil {
			c.Logger.WithError(err).Warn("Failed to ensure user indexes")
		}
		c.Mongo = db
		c.Repositories = &repository.Repositories{
			Poll: repository.NewMongoPollRepository(db),
			User: repository.NewMongoUserRepository(db),
		}
	case config.DriverMemory:
		c.Logger.Warn("Using in-memory storage, data is lost on restart")
		c.Repositories = &repository.Repositories{
			Poll: repository.NewMemoryPollRepository(),
			User: repository.NewMemoryUserRepository(),
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Config.StorageDriver)
	}

	c.Logger.WithField("driver", c.Config.StorageDriver).Info("Storage initialized")
	return nil
}

// HealthCheck reports the health of the store and, when configured, Redis
func (c *Container) HealthCheck(ctx context.Context) map[string]error {
	results := map[string]error{"store": nil}

	switch {
	case c.Postgres != nil:
		results["store"] = c.Postgres.Health(ctx)
	case c.Mongo != nil:
		results["store"] = c.Mongo.Health(ctx)
	}

	if c.RedisClient != nil {
		results["redis"] = c.Services.Poll.HealthCheck(ctx)
	}
	return results
}

// Close releases the Redis client and store connections
func (c *Container) Close(ctx context.Context) error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if c.Mongo != nil {
		if err := c.Mongo.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongo close: %w", err))
		}
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}

	if len(errs) > 0 {
		return fmt.Errorf("close completed with %d errors: %v", len(errs), errs)
	}
	return nil
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetPollService returns the poll service
func (c *Container) GetPollService() *service.PollService {
	return c.Services.Poll
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}
