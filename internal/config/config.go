package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Lenta    LentaConfig    `mapstructure:"lenta"`
	Output   OutputConfig   `mapstructure:"output"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// LentaConfig holds Lenta API configuration. The Qrator secret and client
// literals default to the values the official Android build ships with, but
// stay overridable so the signer can be exercised with substitute values.
type LentaConfig struct {
	GatewayURL           string   `mapstructure:"gateway_url"`
	APIURL               string   `mapstructure:"api_url"`
	CatalogAPIURL        string   `mapstructure:"catalog_api_url"`
	QratorSecret         string   `mapstructure:"qrator_secret"`
	AppVersion           string   `mapstructure:"app_version"`
	Client               string   `mapstructure:"client"`
	MarketingPartnerKey  string   `mapstructure:"marketing_partner_key"`
	UserAgent            string   `mapstructure:"user_agent"`
	Regions              []string `mapstructure:"regions"`
	PageLimit            int      `mapstructure:"page_limit"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	RateLimitBackoff     int      `mapstructure:"rate_limit_backoff"`
	Proxies              []string `mapstructure:"proxies"`
}

// OutputConfig holds output file settings
type OutputConfig struct {
	File          string `mapstructure:"file"`
	Limit         int    `mapstructure:"limit"`
	BackfillBrand bool   `mapstructure:"backfill_brand"`
}

// DatabaseConfig holds the optional Postgres sink configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds the optional resume-state Redis connection details
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Defaults cover everything, so a missing config.yaml is fine.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("lenta.gateway_url", "https://lentochka.lenta.com")
	viper.SetDefault("lenta.api_url", "https://lenta.com/api/v1")
	viper.SetDefault("lenta.catalog_api_url", "https://api.lenta.com/v1")
	viper.SetDefault("lenta.qrator_secret", "3daca8c0f63e0f1094fbba6cc874d615")
	viper.SetDefault("lenta.app_version", "6.24.1")
	viper.SetDefault("lenta.client", "android_9_6.24.1")
	viper.SetDefault("lenta.marketing_partner_key", "mp402-8a74f99040079ea25d64d14b5212b0e3")
	viper.SetDefault("lenta.user_agent", "okhttp/4.9.1")
	viper.SetDefault("lenta.regions", []string{"spb", "msk"})
	viper.SetDefault("lenta.page_limit", 24)
	viper.SetDefault("lenta.timeout", 60)
	viper.SetDefault("lenta.max_requests_per_second", 4)
	viper.SetDefault("lenta.rate_limit_backoff", 5)

	viper.SetDefault("output.file", "products.json")
	viper.SetDefault("output.limit", 100)
	viper.SetDefault("output.backfill_brand", false)

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "lenta")
	viper.SetDefault("database.user", "lenta_user")
	viper.SetDefault("database.password", "lenta_pass")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
}
