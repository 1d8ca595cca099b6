package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	StoreDriver     string        `mapstructure:"STORE_DRIVER"`
	DBUser          string        `mapstructure:"DB_USER"`
	DBPassword      string        `mapstructure:"DB_PASSWORD"`
	DBHost          string        `mapstructure:"DB_HOST"`
	DBName          string        `mapstructure:"DB_NAME"`
	MongoURIRaw     string        `mapstructure:"MONGO_URI"`
	DBTransactions  bool          `mapstructure:"DB_TRANSACTIONS"`
	AccessToken     string        `mapstructure:"ACCESS_TOKEN"`
	TokenTTL        time.Duration `mapstructure:"TOKEN_TTL"`
	StripeSecretKey string        `mapstructure:"STRIPE_SECRET_KEY"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	RateLimitRPS    float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
}

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

var defaults = map[string]any{
	"PORT":              "5000",
	"ENV":               "development",
	"STORE_DRIVER":      DriverMongo,
	"DB_USER":           "",
	"DB_PASSWORD":       "",
	"DB_HOST":           "cluster0.6ertblk.mongodb.net",
	"DB_NAME":           "newDoctorsPortal",
	"MONGO_URI":         "",
	"DB_TRANSACTIONS":   true,
	"ACCESS_TOKEN":      "",
	"TOKEN_TTL":         "1h",
	"STRIPE_SECRET_KEY": "",
	"REDIS_URL":         "",
	"RATE_LIMIT_RPS":    5,
	"RATE_LIMIT_BURST":  10,
	"CORS_ORIGINS":      "*",
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// viper only splits comma lists on the default value
	if raw := v.GetString("CORS_ORIGINS"); raw != "" {
		cfg.CORSOrigins = splitList(raw)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("ACCESS_TOKEN is required")
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverMongo:
		if c.MongoURIRaw == "" && (c.DBUser == "" || c.DBPassword == "") {
			return fmt.Errorf("MONGO_URI or DB_USER and DB_PASSWORD are required")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.IsProduction() && c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// MongoURI returns MONGO_URI when set, otherwise the Atlas SRV uri built from
// the DB_* credentials.
func (c *Config) MongoURI() string {
	if c.MongoURIRaw != "" {
		return c.MongoURIRaw
	}
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority",
		url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPassword), c.DBHost)
}

// Addr returns the listen address for PORT.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
