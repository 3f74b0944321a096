// internal/bootstrap/bootstrap.go
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/lending-be/internal/adapters/db"
	"github.com/ammerola/lending-be/internal/adapters/memory"
	redis_a "github.com/ammerola/lending-be/internal/adapters/redis_adapter"
	"github.com/ammerola/lending-be/internal/adapters/sqlite"
	"github.com/ammerola/lending-be/internal/adapters/storage"
	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
	"github.com/ammerola/lending-be/internal/pkg/config"
	"github.com/ammerola/lending-be/internal/pkg/keylock"
)

// Store is the item and movement persistence selected by STORAGE_DRIVER
type Store struct {
	Items     ports.ItemRepository
	Movements ports.MovementRepository
	Postgres  *db.Database
	SQLite    *sql.DB
}

// Close releases whichever connection the driver opened
func (s *Store) Close() {
	if s.Postgres != nil {
		s.Postgres.Close()
	}
	if s.SQLite != nil {
		s.SQLite.Close()
	}
}

// OpenStore connects to the configured driver and prepares its schema
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		return &Store{
			Items:     memory.NewItemRepository(),
			Movements: memory.NewMovementRepository(),
		}, nil

	case config.DriverSQLite:
		logger.Info("opening sqlite database", slog.String("path", cfg.Storage.SQLitePath))

		conn, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		if err := sqlite.EnsureSchema(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to prepare sqlite schema: %w", err)
		}
		return &Store{
			Items:     sqlite.NewItemRepository(conn, logger),
			Movements: sqlite.NewMovementRepository(conn),
			SQLite:    conn,
		}, nil

	case config.DriverPostgres:
		logger.Info("connecting to database",
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Name),
		)

		database, err := db.NewDatabase(ctx, &db.Config{
			Host:               cfg.Database.Host,
			Port:               cfg.Database.Port,
			User:               cfg.Database.User,
			Password:           cfg.Database.Password,
			Database:           cfg.Database.Name,
			SSLMode:            cfg.Database.SSLMode,
			MaxConnections:     cfg.Database.MaxConnections,
			MinConnections:     cfg.Database.MinConnections,
			MaxConnLifetime:    cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
			HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
			ConnectTimeout:     cfg.Database.ConnectTimeout,
			EnableQueryLogging: cfg.Database.EnableQueryLogging,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}

		if cfg.Database.AutoMigrate {
			if err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
				DatabaseURL: cfg.GetDatabaseURL(),
				SourcePath:  cfg.Database.MigrationPath,
			}, logger, 3); err != nil {
				database.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		return &Store{
			Items:     db.NewItemRepository(database, logger),
			Movements: db.NewMovementRepository(database, logger),
			Postgres:  database,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// NewRedisClient connects and pings. It returns nil when Redis is disabled.
func NewRedisClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	client := redis.NewClient(&redis.Options{
		Addr:            cfg.GetRedisAddress(),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewLocker picks the per-item lock backend. Redis locks are needed once
// more than one API process shares a database.
func NewLocker(cfg *config.Config, client *redis.Client, logger *slog.Logger) (ports.Locker, error) {
	switch cfg.Lock.Backend {
	case config.LockRedis:
		if client == nil {
			return nil, fmt.Errorf("lock backend %q requires redis", cfg.Lock.Backend)
		}
		return redis_a.NewLocker(client, cfg.Lock.TTL, cfg.Lock.RetryInterval, logger), nil
	default:
		return keylock.New(), nil
	}
}

// NewCache returns the Redis cache, or nil when caching is off
func NewCache(cfg *config.Config, client *redis.Client, logger *slog.Logger) ports.CacheRepository {
	if !cfg.Cache.Enabled || client == nil {
		return nil
	}
	return redis_a.NewCache(client, cfg.Cache.TTL, logger)
}

// AsynqRedisOpt builds the connection options shared by client, inspector and server
func AsynqRedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
}

// NewReportStorage picks where stock reports are written
func NewReportStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.FileStorage, error) {
	switch cfg.Reports.Storage {
	case config.ReportStorageS3:
		return storage.NewS3Storage(ctx, &storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.S3Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.S3Endpoint,
			UsePathStyle:    cfg.AWS.UsePathStyle,
		}, logger)
	default:
		return storage.NewLocalStorage(cfg.Reports.LocalDir, logger)
	}
}

// DirectPublisher writes movements straight to the log. It replaces the
// queue when asynq is disabled.
type DirectPublisher struct {
	repo ports.MovementRepository
}

var _ ports.MovementPublisher = (*DirectPublisher)(nil)

func NewDirectPublisher(repo ports.MovementRepository) *DirectPublisher {
	return &DirectPublisher{repo: repo}
}

func (p *DirectPublisher) PublishMovement(ctx context.Context, m domain.StockMovement) error {
	return p.repo.Save(ctx, m)
}
