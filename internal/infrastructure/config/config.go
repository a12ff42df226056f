package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT      JWTConfig
	Cookie   CookieConfig
	Security SecurityConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Audit    AuditConfig
}

type JWTConfig struct {
	Secret               string `env:"JWT_SECRET"`
	RefreshSecret        string `env:"JWT_REFRESH_SECRET_KEY"`
	Algorithm            string `env:"JWT_ALGO,                         default=HS256"`
	ExpireMinutes        int    `env:"JWT_EXPIRE,                       default=30"`
	RefreshExpireMinutes int    `env:"JWT_REFRESH_TOKEN_EXPIRE_MINUTES, default=300"`
	Issuer               string `env:"JWT_ISSUER,                       default=emphasys-software.com"`
	Audience             string `env:"JWT_AUDIENCE,                     default=izlottery.com"`
}

func (c JWTConfig) AccessTTL() time.Duration  { return time.Duration(c.ExpireMinutes) * time.Minute }
func (c JWTConfig) RefreshTTL() time.Duration { return time.Duration(c.RefreshExpireMinutes) * time.Minute }

type CookieConfig struct {
	Name   string `env:"COOKIE_NAME,   default=iz_session"`
	Secure bool   `env:"COOKIE_SECURE, default=false"`
}

type SecurityConfig struct {
	BcryptCost    int `env:"BCRYPT_COST,     default=10"`
	AdminTierSize int `env:"ADMIN_TIER_SIZE, default=2"`
}

type DatabaseConfig struct {
	Path  string `env:"DATABASE_PATH,  default=identity.db"`
	Debug bool   `env:"DATABASE_DEBUG, default=false"`
}

// MongoConfig points at the audit trail. An empty URI disables it.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=identity"`
}

// RedisConfig points at the token revocation list. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

var (
	ErrMissingSecret = errors.New("config: JWT_SECRET and JWT_REFRESH_SECRET_KEY are required")
	ErrSharedSecret  = errors.New("config: access and refresh secrets must differ")
)

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" || c.JWT.RefreshSecret == "" {
		return ErrMissingSecret
	}
	if c.JWT.Secret == c.JWT.RefreshSecret {
		return ErrSharedSecret
	}
	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("config: unsupported JWT_ALGO %q", c.JWT.Algorithm)
	}
	if c.JWT.ExpireMinutes <= 0 || c.JWT.RefreshExpireMinutes <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}
	if c.Security.AdminTierSize < 1 {
		return errors.New("config: ADMIN_TIER_SIZE must be at least 1")
	}
	return nil
}

// Load reads the optional dotenv files, then the process environment. Values
// already set in the environment win over the files.
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom processes configuration from l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
