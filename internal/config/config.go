package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `yaml:"app" mapstructure:"app"`
	Database   DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Aggregator AggregatorConfig `yaml:"aggregator" mapstructure:"aggregator"`
	Sources    SourcesConfig    `yaml:"sources" mapstructure:"sources"`
}

type AppConfig struct {
	Environment    string   `yaml:"environment" mapstructure:"environment"`
	Host           string   `yaml:"host" mapstructure:"host"`
	Port           string   `yaml:"port" mapstructure:"port"`
	LogLevel       string   `yaml:"log_level" mapstructure:"log_level"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     string `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"db_name" mapstructure:"db_name"`
	SSLMode  string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxConns int    `yaml:"max_conns" mapstructure:"max_conns"`
}

// CacheConfig налаштування durable KV кешу
// Addr та Password перечитуються з env на кожен виклик (див. internal/cache),
// тут лише дефолти для локального запуску
type CacheConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

type AggregatorConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Secret   string `yaml:"secret" mapstructure:"secret"`
	Schedule string `yaml:"schedule" mapstructure:"schedule"` // cron spec
}

// SourcesConfig base URL overrides для upstream джерел
type SourcesConfig struct {
	DefiLlamaYieldsBase string `yaml:"defillama_yields_base" mapstructure:"defillama_yields_base"`
	DefiLlamaAPIBase    string `yaml:"defillama_api_base" mapstructure:"defillama_api_base"`
	PendleBase          string `yaml:"pendle_base" mapstructure:"pendle_base"`
	MerklBase           string `yaml:"merkl_base" mapstructure:"merkl_base"`
	ChateauBase         string `yaml:"chateau_base" mapstructure:"chateau_base"`
	SumcapBase          string `yaml:"sumcap_base" mapstructure:"sumcap_base"`
	StablewatchBase     string `yaml:"stablewatch_base" mapstructure:"stablewatch_base"`
}

func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Database.Host = getEnv("DB_HOST", config.Database.Host)
	config.Database.Port = getEnv("DB_PORT", config.Database.Port)
	config.Database.User = getEnv("DB_USER", config.Database.User)
	config.Database.Password = getEnv("DB_PASSWORD", config.Database.Password)
	config.Database.DBName = getEnv("DB_NAME", config.Database.DBName)

	config.Cache.Addr = getEnv("KV_REDIS_ADDR", config.Cache.Addr)
	config.Cache.Password = getEnv("KV_REDIS_PASSWORD", config.Cache.Password)

	config.Aggregator.Secret = getEnv("AGGREGATOR_SECRET", config.Aggregator.Secret)

	config.Sources.SumcapBase = getEnv("SUMCAP_API_BASE", config.Sources.SumcapBase)
	config.Sources.PendleBase = getEnv("PENDLE_API_BASE", config.Sources.PendleBase)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.App.Port == "" {
		c.App.Port = "8080"
	}

	if c.Aggregator.Schedule == "" {
		c.Aggregator.Schedule = "0 * * * *" // щогодини
	}

	// База даних опціональна: read-шляхи деградують без неї,
	// write-шляхи (sync) повертають 500 при відсутній конфігурації
	if c.Database.Host != "" {
		if c.Database.Port == "" {
			return fmt.Errorf("database.port is required when database.host is set")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database.db_name is required when database.host is set")
		}
	}

	if c.App.Environment == "production" {
		if c.Aggregator.Secret == "" {
			return fmt.Errorf("aggregator.secret is required for production")
		}
	}

	return nil
}

// StorageConfigured чи налаштоване durable сховище
func (c *Config) StorageConfigured() bool {
	return c.Database.Host != ""
}

func (c *Config) SafeString() string {
	return fmt.Sprintf(`Config:
		Environment: %s
		Port: %s
		Log Level: %s

		Database:
			Host: %s:%s
			User: %s
			Database: %s
			SSL Mode: %s
			Max Connections: %d

		Cache:
			Addr: %s
			Password: %s
			Database: %d

		Aggregator:
			Enabled: %t
			Secret: %s
			Schedule: %s

		Sources:
			Sumcap Base: %s
			Pendle Base: %s
		`,
		c.App.Environment,
		c.App.Port,
		c.App.LogLevel,
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.DBName,
		c.Database.SSLMode,
		c.Database.MaxConns,
		c.Cache.Addr,
		maskSecret(c.Cache.Password),
		c.Cache.DB,
		c.Aggregator.Enabled,
		maskSecret(c.Aggregator.Secret),
		c.Aggregator.Schedule,
		c.Sources.SumcapBase,
		c.Sources.PendleBase,
	)
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	return value
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}

	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}

	return s[:4] + "..." + s[len(s)-4:]
}
