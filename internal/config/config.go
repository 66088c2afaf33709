package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends recognised by STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
)

// Config is the process configuration, read from the environment and an
// optional config file named by CONFIG_FILE.
type Config struct {
	RunLocal  bool   `mapstructure:"RUN_LOCAL"`
	HTTPAddr  string `mapstructure:"HTTP_ADDR"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	PageIdleTTL time.Duration `mapstructure:"PAGE_IDLE_TTL"`

	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	StorageQuota   int    `mapstructure:"STORAGE_QUOTA_BYTES"`
	CartTable      string `mapstructure:"CART_TABLE"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	RedisPrefix   string        `mapstructure:"REDIS_PREFIX"`
	RedisTTL      time.Duration `mapstructure:"REDIS_TTL"`

	IdempotencyTable string        `mapstructure:"IDEMPOTENCY_TABLE"`
	IdempotencyTTL   time.Duration `mapstructure:"IDEMPOTENCY_TTL"`

	WhatsAppNumber   string `mapstructure:"WHATSAPP_NUMBER"`
	CurrencySuffix   string `mapstructure:"CURRENCY_SUFFIX"`
	CheckoutGreeting string `mapstructure:"CHECKOUT_GREETING"`

	SuggestionsURL  string        `mapstructure:"SUGGESTIONS_URL"`
	SearchMinChars  int           `mapstructure:"SEARCH_MIN_CHARS"`
	SearchLimit     int           `mapstructure:"SEARCH_LIMIT"`
	SearchDebounce  time.Duration `mapstructure:"SEARCH_DEBOUNCE"`
	SearchBlurDelay time.Duration `mapstructure:"SEARCH_BLUR_DELAY"`
	SearchTimeout   time.Duration `mapstructure:"SEARCH_TIMEOUT"`
	ShowProducts    bool          `mapstructure:"SEARCH_SHOW_PRODUCTS"`
	ShowCategories  bool          `mapstructure:"SEARCH_SHOW_CATEGORIES"`
	ShowQueries     bool          `mapstructure:"SEARCH_SHOW_QUERIES"`
	ProductPath     string        `mapstructure:"PRODUCT_PATH"`
	CategoryPath    string        `mapstructure:"CATEGORY_PATH"`
	SearchPath      string        `mapstructure:"SEARCH_PATH"`
}

var defaults = map[string]any{
	"RUN_LOCAL":  false,
	"HTTP_ADDR":  ":8080",
	"LOG_LEVEL":  "info",
	"LOG_PRETTY": false,

	"PAGE_IDLE_TTL": 30 * time.Minute,

	"STORAGE_BACKEND":     BackendMemory,
	"STORAGE_QUOTA_BYTES": 5 << 20,
	"CART_TABLE":          "",

	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
	"REDIS_PREFIX":   "abak",
	"REDIS_TTL":      30 * 24 * time.Hour,

	"IDEMPOTENCY_TABLE": "",
	"IDEMPOTENCY_TTL":   48 * time.Hour,

	"WHATSAPP_NUMBER":   "",
	"CURRENCY_SUFFIX":   "₽",
	"CHECKOUT_GREETING": "Здравствуйте! Хочу заказать:",

	"SUGGESTIONS_URL":        "http://localhost:8000/api/catalog/search/suggestions/",
	"SEARCH_MIN_CHARS":       2,
	"SEARCH_LIMIT":           8,
	"SEARCH_DEBOUNCE":        300 * time.Millisecond,
	"SEARCH_BLUR_DELAY":      200 * time.Millisecond,
	"SEARCH_TIMEOUT":         5 * time.Second,
	"SEARCH_SHOW_PRODUCTS":   true,
	"SEARCH_SHOW_CATEGORIES": true,
	"SEARCH_SHOW_QUERIES":    true,
	"PRODUCT_PATH":           "/catalog/product/",
	"CATEGORY_PATH":          "/catalog/menu/",
	"SEARCH_PATH":            "/catalog/search/",
}

// Load reads configuration. A missing CONFIG_FILE is an error; an unset
// CONFIG_FILE means environment and defaults only.
func Load() (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendRedis:
	case BackendDynamoDB:
		if c.CartTable == "" {
			return errors.New("CART_TABLE is required for the dynamodb storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.SearchMinChars < 1 {
		return fmt.Errorf("SEARCH_MIN_CHARS must be positive, got %d", c.SearchMinChars)
	}
	if c.SearchLimit < 1 {
		return fmt.Errorf("SEARCH_LIMIT must be positive, got %d", c.SearchLimit)
	}
	return nil
}
