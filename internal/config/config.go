package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/greenleaf-shop/server/internal/core"
	pkgredis "github.com/greenleaf-shop/server/pkg/redis"
)

const (
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

// Config defines every tunable of the storefront server, sourced from
// environment variables (loaded from .env for local runs).
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	PingMessage string `envconfig:"PING_MESSAGE" default:"ping"`
	DataDir     string `envconfig:"DATA_DIR" default:"data"`

	HTTP    HTTPConfig
	Auth    AuthConfig
	Order   OrderConfig
	Advisor AdvisorConfig
	Tracing TracingConfig

	// Infrastructure
	Redis pkgredis.Config
}

// HTTPConfig configures the listener. AllowedOrigins is a comma separated
// CORS allow list; empty allows any origin.
type HTTPConfig struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"HTTP_ALLOWED_ORIGINS"`
}

type AuthConfig struct {
	TokenTTL   time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"168h"`
	TokenStore string        `envconfig:"AUTH_TOKEN_STORE" default:"memory"`
}

type OrderConfig struct {
	DeliveryLeadTime time.Duration `envconfig:"ORDER_DELIVERY_LEAD_TIME" default:"168h"`
}

type AdvisorConfig struct {
	APIKey       string        `envconfig:"GEMINI_API_KEY"`
	BaseURL      string        `envconfig:"GEMINI_BASE_URL"`
	Model        string        `envconfig:"ADVISOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens    int           `envconfig:"ADVISOR_MAX_TOKENS" default:"1024"`
	Temperature  float32       `envconfig:"ADVISOR_TEMPERATURE" default:"0.4"`
	MaxToolCalls int           `envconfig:"ADVISOR_MAX_TOOL_CALLS" default:"4"`
	HistoryTTL   time.Duration `envconfig:"ADVISOR_HISTORY_TTL" default:"30m"`
	HistoryTurns int           `envconfig:"ADVISOR_HISTORY_TURNS" default:"20"`
	StoreName    string        `envconfig:"ADVISOR_STORE_NAME" default:"Greenleaf"`
}

// Enabled reports whether the advisor has credentials to talk to Gemini.
func (a AdvisorConfig) Enabled() bool {
	return a.APIKey != ""
}

type TracingConfig struct {
	Enabled     bool   `envconfig:"TRACING_ENABLED" default:"false"`
	ServiceName string `envconfig:"TRACING_SERVICE_NAME" default:"greenleaf-server"`
}

// Load reads the optional .env file and processes the environment into a Config.
// A missing .env file is reported through the returned warning, not as an error.
func Load(envFile string) (cfg Config, warning error, err error) {
	if envFile != "" {
		if loadErr := godotenv.Load(envFile); loadErr != nil {
			warning = fmt.Errorf("could not load %s: %w", envFile, loadErr)
		}
	}

	if err = envconfig.Process("", &cfg); err != nil {
		return Config{}, warning, fmt.Errorf("process environment config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, warning, err
	}
	return cfg, warning, nil
}

// Env returns the parsed deployment environment.
func (c Config) Env() core.Environment {
	return core.ParseEnvironment(c.Environment)
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	switch c.Auth.TokenStore {
	case TokenStoreMemory:
	case TokenStoreRedis:
		if !c.Redis.Enabled() {
			return errors.New("AUTH_TOKEN_STORE=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown AUTH_TOKEN_STORE %q", c.Auth.TokenStore)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("AUTH_TOKEN_TTL must be positive")
	}
	if c.Order.DeliveryLeadTime < 0 {
		return errors.New("ORDER_DELIVERY_LEAD_TIME must not be negative")
	}
	if c.DataDir == "" {
		return errors.New("DATA_DIR must not be empty")
	}
	return nil
}

// UsersPath is the JSON collection file holding registered users.
func (c Config) UsersPath() string {
	return filepath.Join(c.DataDir, "users.json")
}

// OrdersPath is the JSON collection file holding placed orders.
func (c Config) OrdersPath() string {
	return filepath.Join(c.DataDir, "orders.json")
}

// EnsureDataDir creates the data directory. Failures are returned so callers
// can log them; the directory usually already exists.
func (c Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o755)
}
