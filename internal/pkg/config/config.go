package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the API server configuration.
type Config struct {
	Port          string `env:"PORT,      default=8080"`
	Env           string `env:"ENV,       default=development"`
	JWTSecret     string `env:"JWT_SECRET"`
	LogLevel      string `env:"LOG_LEVEL, default=info"`
	WebhookSecret string `env:"BILLING_WEBHOOK_SECRET"`
	PortalBaseURL string `env:"PORTAL_BASE_URL, default=http://localhost:8080"`
	Workers       int    `env:"DISPATCHER_WORKERS, default=8"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=contractor_hub"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// AgentConfig configures the offline-aware sync agent.
type AgentConfig struct {
	AccountID     string        `env:"ACCOUNT_ID"`
	Env           string        `env:"ENV,            default=development"`
	LogLevel      string        `env:"LOG_LEVEL,      default=info"`
	StoreDriver   string        `env:"STORE_DRIVER,   default=mongo"`
	CacheDriver   string        `env:"CACHE_DRIVER,   default=sqlite"`
	CachePath     string        `env:"CACHE_PATH,     default=contractor-cache.db"`
	SyncInterval  time.Duration `env:"SYNC_INTERVAL,  default=5m"`
	ProbeInterval time.Duration `env:"PROBE_INTERVAL, default=15s"`
	ProbeTimeout  time.Duration `env:"PROBE_TIMEOUT,  default=3s"`

	Mongo MongoConfig
	Redis RedisConfig
}

var (
	storeDrivers = map[string]bool{"mongo": true, "memory": true}
	cacheDrivers = map[string]bool{"sqlite": true, "redis": true, "memory": true}
)

// Validate checks the driver selections and the required account id.
func (c *AgentConfig) Validate() error {
	if c.AccountID == "" {
		return fmt.Errorf("config: ACCOUNT_ID is required")
	}
	if !storeDrivers[c.StoreDriver] {
		return fmt.Errorf("config: unknown STORE_DRIVER %q (mongo|memory)", c.StoreDriver)
	}
	if !cacheDrivers[c.CacheDriver] {
		return fmt.Errorf("config: unknown CACHE_DRIVER %q (sqlite|redis|memory)", c.CacheDriver)
	}
	if c.ProbeTimeout <= 0 || c.ProbeInterval <= 0 || c.SyncInterval <= 0 {
		return fmt.Errorf("config: intervals and timeouts must be positive")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// LoadAgent reads the agent configuration from lookuper. The CLI passes
// envconfig.OsLookuper(); tests pass a MapLookuper.
func LoadAgent(ctx context.Context, lookuper envconfig.Lookuper) (*AgentConfig, error) {
	var cfg AgentConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: load agent: %w", err)
	}
	return &cfg, nil
}
