package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
}

// ScraperConfig holds retail site and fetching configuration
type ScraperConfig struct {
	BaseURL              string   `mapstructure:"base_url"`
	CategoriesURL        string   `mapstructure:"categories_url"`
	SearchPath           string   `mapstructure:"search_path"`
	SearchKeyword        string   `mapstructure:"search_keyword"`
	FetchMode            string   `mapstructure:"fetch_mode"` // browser or http
	Headless             bool     `mapstructure:"headless"`
	UserAgent            string   `mapstructure:"user_agent"`
	WaitTimeout          int      `mapstructure:"wait_timeout"`    // seconds
	RequestTimeout       int      `mapstructure:"request_timeout"` // seconds
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	MaxRetries           int      `mapstructure:"max_retries"`
	BlockMarker          string   `mapstructure:"block_marker"`
	BlockCooldown        int      `mapstructure:"block_cooldown"` // seconds
	Proxies              []string `mapstructure:"proxies"`

	// Category hub links that are navigation, not categories. The hub ends
	// with such links, DropTrailingCategories of them are always dropped.
	ExcludedCategories     []string `mapstructure:"excluded_categories"`
	DropTrailingCategories int      `mapstructure:"drop_trailing_categories"`

	Selectors SelectorConfig `mapstructure:"selectors"`
}

// SelectorConfig holds the CSS selectors tied to the site's page templates
type SelectorConfig struct {
	CategoryGrid string `mapstructure:"category_grid"`
	ProductGrid  string `mapstructure:"product_grid"`
	Pagination   string `mapstructure:"pagination"`
	PageNumber   string `mapstructure:"page_number"`
	EmbeddedData string `mapstructure:"embedded_data"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig holds Redis connection details. Redis is optional.
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c ScraperConfig) WaitTimeoutDuration() time.Duration {
	return time.Duration(c.WaitTimeout) * time.Second
}

func (c ScraperConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func (c ScraperConfig) BlockCooldownDuration() time.Duration {
	return time.Duration(c.BlockCooldown) * time.Second
}

// Load loads configuration from YAML file with environment variable overrides.
// An empty path searches for config.yaml in the current directory; a missing
// file is not an error, defaults and environment apply.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.Scraper.FetchMode {
	case "browser", "http":
	default:
		return fmt.Errorf("invalid scraper.fetch_mode %q: want browser or http", c.Scraper.FetchMode)
	}
	if c.Scraper.WaitTimeout <= 0 {
		return fmt.Errorf("scraper.wait_timeout must be positive")
	}
	if c.Scraper.RequestTimeout <= c.Scraper.WaitTimeout {
		return fmt.Errorf("scraper.request_timeout (%ds) must be greater than scraper.wait_timeout (%ds)",
			c.Scraper.RequestTimeout, c.Scraper.WaitTimeout)
	}
	if c.Scraper.DropTrailingCategories < 0 {
		return fmt.Errorf("scraper.drop_trailing_categories must not be negative")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("scraper.base_url", "https://www.walmart.com")
	viper.SetDefault("scraper.categories_url", "https://www.walmart.com/cp/food/976759")
	viper.SetDefault("scraper.search_path", "/search")
	viper.SetDefault("scraper.search_keyword", "bread italian")
	viper.SetDefault("scraper.fetch_mode", "browser")
	viper.SetDefault("scraper.headless", true)
	viper.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36")
	viper.SetDefault("scraper.wait_timeout", 10)
	viper.SetDefault("scraper.request_timeout", 60)
	viper.SetDefault("scraper.max_requests_per_second", 1)
	viper.SetDefault("scraper.max_retries", 3)
	viper.SetDefault("scraper.block_marker", "Robot or human?")
	viper.SetDefault("scraper.block_cooldown", 600)
	viper.SetDefault("scraper.proxies", []string{})
	viper.SetDefault("scraper.excluded_categories", []string{})
	viper.SetDefault("scraper.drop_trailing_categories", 2)

	viper.SetDefault("scraper.selectors.category_grid", "#Hubspokes4orNxMGrid")
	viper.SetDefault("scraper.selectors.product_grid", "[data-testid='item-stack']")
	viper.SetDefault("scraper.selectors.pagination", "ul.list.flex.items-center.justify-center.pa0")
	viper.SetDefault("scraper.selectors.page_number", "li a[data-automation-id='page-number'], li div")
	viper.SetDefault("scraper.selectors.embedded_data", "script#__NEXT_DATA__")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "grocery")
	viper.SetDefault("database.user", "grocery_user")
	viper.SetDefault("database.password", "grocery_pass")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.consumer_group", "grocery_consumer")
	viper.SetDefault("redis.min_idle_time", 120)

	viper.SetDefault("log.level", "info")
}
