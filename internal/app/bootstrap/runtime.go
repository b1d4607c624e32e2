package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/ai-receptionist/internal/bookings"
	appconfig "github.com/wolfman30/ai-receptionist/internal/config"
	"github.com/wolfman30/ai-receptionist/internal/session"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// NeedsAWS reports whether any configured component talks to AWS.
func NeedsAWS(cfg *appconfig.Config) bool {
	if cfg == nil {
		return false
	}
	return (strings.TrimSpace(cfg.RedisAddr) == "" && cfg.SessionsTable != "") ||
		cfg.TranscriptBucket != "" ||
		cfg.BookingEventsQueueURL != "" ||
		cfg.EmailProvider == "ses" ||
		cfg.Planner() == "bedrock"
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks Redis when a client is available, then DynamoDB
// when a table is configured, then process memory.
func BuildSessionStore(cfg *appconfig.Config, rdb *redis.Client, awsCfg *aws.Config, logger *logging.Logger) session.Store {
	if logger == nil {
		logger = logging.Default()
	}
	switch {
	case rdb != nil:
		logger.Info("session store: redis", "ttl", cfg.SessionTTL.String())
		return session.NewRedisStore(rdb, cfg.SessionTTL)
	case cfg.SessionsTable != "" && awsCfg != nil:
		logger.Info("session store: dynamodb", "table", cfg.SessionsTable, "ttl", cfg.SessionTTL.String())
		return session.NewDynamoStore(dynamodb.NewFromConfig(*awsCfg), cfg.SessionsTable, cfg.SessionTTL)
	default:
		logger.Warn("session store: in-memory; sessions are lost on restart")
		return session.NewMemoryStore()
	}
}

// BuildLedger connects the booking ledger. It returns nils when no database
// is configured or reachable; bookings then go unrecorded.
func BuildLedger(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*pgxpool.Pool, *bookings.Service) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Info("booking ledger disabled (no DATABASE_URL)")
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil, nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres not reachable; booking ledger disabled", "error", err)
		pool.Close()
		return nil, nil
	}
	return pool, bookings.NewService(bookings.NewRepository(pool), logger)
}
