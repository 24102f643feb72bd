package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (GIFT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Storage     string `default:"postgres" usage:"Storage backend: postgres or memory"`
	DatabaseURL string `usage:"PostgreSQL connection URL (GIFT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Voucher     VoucherConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// VoucherConfig controls issuance and the code guard.
type VoucherConfig struct {
	// TTL is the validity window of a freshly issued voucher.
	TTL time.Duration `default:"8760h" usage:"Voucher validity window from issuance"`
	// GuardCapacity sizes the bloom filter over issued codes; 0 disables
	// the guard.
	GuardCapacity uint    `default:"1000000" usage:"Expected number of voucher codes for the code guard (0 disables)" flag:"guard-capacity"`
	GuardFPR      float64 `default:"0.001" usage:"Code guard false positive rate" flag:"guard-fpr"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "GIFT",
		Files:     []string{"config.yaml", "/etc/giftvoucher/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.Storage != "postgres" && cfg.Storage != "memory" {
		return nil, errors.Errorf("unknown storage backend %q", cfg.Storage)
	}
	if cfg.Storage == "postgres" && cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set GIFT_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL and PORT onto the GIFT_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
