package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/types"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type AdminConfig struct {
	Name     string `mapstructure:"admin_name"`
	Email    string `mapstructure:"admin_email"`
	Password string `mapstructure:"admin_password"`
}

type Config struct {
	Env      string `mapstructure:"env"`
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	DatabaseURL string `mapstructure:"database_url"`

	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTTTL       time.Duration `mapstructure:"jwt_ttl"`
	CookieDomain string        `mapstructure:"cookie_domain"`
	BcryptCost   int           `mapstructure:"bcrypt_cost"`

	ClientURL         string `mapstructure:"client_url"`
	AllowedOriginsRaw string `mapstructure:"allowed_origins"`

	RedisURL      string `mapstructure:"redis_url"`
	AuthRateLimit int    `mapstructure:"auth_rate_limit"`

	Admin AdminConfig `mapstructure:",squash"`
}

var keys = []string{
	"env", "port", "log_level", "database_url",
	"jwt_secret", "jwt_ttl", "cookie_domain", "bcrypt_cost",
	"client_url", "allowed_origins",
	"redis_url", "auth_rate_limit",
	"admin_name", "admin_email", "admin_password",
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("port", "3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt_ttl", "168h")
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("auth_rate_limit", 60)
	v.SetDefault("admin_name", "Administrator")

	for _, key := range keys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return Config{}, err
		}
	}

	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}

	return c, c.validate()
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("config error: JWT_SECRET is required")
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("config error: JWT_TTL must be positive")
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config error: BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if (c.Admin.Email == "") != (c.Admin.Password == "") {
		return fmt.Errorf("config error: ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// AllowedOrigins merges the development defaults, CLIENT_URL and the
// comma-separated ALLOWED_ORIGINS list.
func (c Config) AllowedOrigins() []string {
	origins := make([]string, 0, len(types.DefaultOrigins)+2)
	seen := make(map[string]bool)

	add := func(origin string) {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")

		if origin != "" && !seen[origin] {
			seen[origin] = true
			origins = append(origins, origin)
		}
	}

	for _, o := range types.DefaultOrigins {
		add(o)
	}

	add(c.ClientURL)

	for _, o := range strings.Split(c.AllowedOriginsRaw, ",") {
		add(o)
	}

	return origins
}
