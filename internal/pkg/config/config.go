package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	// EmployeeDeletePolicy is one of ignore, block or cascade.
	EmployeeDeletePolicy string `env:"EMPLOYEE_DELETE_POLICY, default=ignore"`
	LegacyStorageKey     string `env:"LEGACY_STORAGE_KEY,     default=freelance_projects"`
	AuthRatePerMinute    int    `env:"AUTH_RATE_PER_MINUTE,   default=20"`

	Mongo MongoConfig
	Redis RedisConfig
	Bus   BusConfig
	OAuth OAuthConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=freelance_manager"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type BusConfig struct {
	Channel string `env:"BUS_CHANNEL, default=freelance:bus"`
	Workers int    `env:"BUS_WORKERS, default=4"`
}

// OAuthConfig configures federated sign-in. Federated sign-in is disabled
// while ClientID is empty; the endpoint URLs default to Google's.
type OAuthConfig struct {
	ClientID     string `env:"OAUTH_CLIENT_ID"`
	ClientSecret string `env:"OAUTH_CLIENT_SECRET"`
	RedirectURL  string `env:"OAUTH_REDIRECT_URL"`
	AuthURL      string `env:"OAUTH_AUTH_URL"`
	TokenURL     string `env:"OAUTH_TOKEN_URL"`
	UserInfoURL  string `env:"OAUTH_USERINFO_URL"`
}

func (o OAuthConfig) Enabled() bool {
	return o.ClientID != ""
}

// DeletePolicy parses EmployeeDeletePolicy.
func (c *Config) DeletePolicy() (domain.DeletePolicy, error) {
	return domain.ParseDeletePolicy(c.EmployeeDeletePolicy)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if _, err := c.DeletePolicy(); err != nil {
		errs = append(errs, err)
	}
	if c.Bus.Workers <= 0 {
		errs = append(errs, fmt.Errorf("BUS_WORKERS must be positive, got %d", c.Bus.Workers))
	}
	if c.OAuth.Enabled() && c.OAuth.RedirectURL == "" {
		errs = append(errs, errors.New("OAUTH_REDIRECT_URL is required when OAUTH_CLIENT_ID is set"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
