package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Session backends selectable with SESSION_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	LogFile  string `env:"LOG_FILE"`

	API     APIConfig
	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	MockAPI MockAPIConfig
}

// APIConfig points at the remote recruitment API.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:8000"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=10s"`
}

type SessionConfig struct {
	Backend       string        `env:"SESSION_BACKEND,        default=memory"`
	CookieName    string        `env:"SESSION_COOKIE,         default=portal_sid"`
	CookieSecure  bool          `env:"SESSION_COOKIE_SECURE,  default=false"`
	IdleTTL       time.Duration `env:"SESSION_IDLE_TTL,       default=24h"`
	BootstrapWait time.Duration `env:"SESSION_BOOTSTRAP_WAIT, default=2s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=hirelane_portal"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// MockAPIConfig configures cmd/mockapi, the local stand-in for the remote API.
type MockAPIConfig struct {
	Port      string        `env:"MOCKAPI_PORT,       default=8000"`
	JWTSecret string        `env:"MOCKAPI_JWT_SECRET, default=dev-secret"`
	TokenTTL  time.Duration `env:"MOCKAPI_TOKEN_TTL,  default=24h"`
	Store     string        `env:"MOCKAPI_STORE,      default=memory"`
}

// IsProduction reports whether ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("SESSION_BACKEND %q: want memory, redis or mongo", c.Session.Backend)
	}
	switch c.MockAPI.Store {
	case BackendMemory, BackendMongo:
	default:
		return fmt.Errorf("MOCKAPI_STORE %q: want memory or mongo", c.MockAPI.Store)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	return nil
}
