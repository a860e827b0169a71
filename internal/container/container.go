package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// Store modes selectable with --store-mode.
const (
	StoreModeScript = "script"
	StoreModeWatch  = "watch"
	StoreModeMemory = "memory"
)

// Options configures the server. Every field can also be set from the
// environment as SERVICE_<NAME>.
type Options struct {
	Port          int    `default:"8888"           help:"Port to listen on"                                     short:"p"`
	RedisAddr     string `default:"localhost:6379" help:"Redis server address"                                  short:"r"`
	DatabaseURL   string `default:""               help:"PostgreSQL URL; when set scenes are persisted there"  short:"d"`
	LogFormat     string `default:"console"        help:"Log format: json or console"`
	Enabled       bool   `default:"true"           help:"Serve the sliding window routes and rate limit middleware"`
	KeyPrefix     string `default:"sl_:"           help:"Prefix for every sliding window key"`
	DatacenterID  int    `default:"1"              help:"Snowflake datacenter id (0-31)"`
	MachineID     int    `default:"1"              help:"Snowflake machine id (0-31)"`
	StoreMode     string `default:"script"         help:"Window store: script, watch or memory"`
	WatchRetries  int    `default:"5"              help:"Optimistic retries per call in watch mode"`
	SceneCacheTTL int    `default:"60"             help:"Seconds a scene stays cached in Redis"`
	ClientLimit   string `default:""               help:"Extra window:threshold applied to every client; empty disables"`

	ConsumerGroup     string `default:"sliding-window-consumers" help:"Redis Streams consumer group for events"`
	EventStreamMaxLen int    `default:"10000"                    help:"Approximate cap on each event stream; 0 disables trimming"`

	Scenes string `default:"global=60:600,read=60:300,write=60:60,scenes=60:120" help:"Scene table as name=window:threshold,..."`
}

// RedisClient owns the shared Redis connection and closes it on shutdown.
type RedisClient struct {
	Client redis.UniversalClient
}

// Shutdown closes the connection pool.
func (c *RedisClient) Shutdown() error {
	return c.Client.Close()
}

// PostgresPool owns the PostgreSQL pool and closes it on shutdown.
type PostgresPool struct {
	*pgxpool.Pool
}

// Shutdown closes the pool.
func (p *PostgresPool) Shutdown() error {
	p.Close()

	return nil
}

// LoggerPackage provides the application logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		var (
			logger *zap.Logger
			err    error
		)

		switch opts.LogFormat {
		case "json":
			logger, err = zap.NewProduction()
		case "console", "":
			logger, err = zap.NewDevelopment()
		default:
			return nil, fmt.Errorf("unknown log format %q", opts.LogFormat)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}

		return logger, nil
	})
}

// RedisPackage provides the Redis client shared by the window store, the
// scene cache and the event streams.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		return &RedisClient{
			Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr}),
		}, nil
	})
}

// PostgresPackage provides the PostgreSQL pool. Only invoke it when
// Options.DatabaseURL is set.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*PostgresPool, error) {
		opts := do.MustInvoke[*Options](i)

		pool, err := pgxpool.New(context.Background(), opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		return &PostgresPool{Pool: pool}, nil
	})
}
