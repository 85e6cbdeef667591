package main

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

// DefaultConfigFileName is the config file searched for without --config.
const DefaultConfigFileName = "wetdirt"

// Config holds all configuration for the wetdirt server.
// Priority: CLI flags > env vars > config file > defaults
type Config struct {
	Database DatabaseConfig `mapstructure:"db"`
	Server   ServerConfig   `mapstructure:"server"`
	Hash     HashConfig     `mapstructure:"hash"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DatabaseConfig locates and authenticates against the query endpoint.
type DatabaseConfig struct {
	URL         string `mapstructure:"url"`
	Namespace   string `mapstructure:"namespace"`
	Database    string `mapstructure:"database"`
	Credentials string `mapstructure:"credentials"`
}

// ServerConfig controls the WebFinger listener.
type ServerConfig struct {
	Addr   string `mapstructure:"addr"`
	Domain string `mapstructure:"domain"`
}

// HashConfig sets the Argon2id costs and pool size.
type HashConfig struct {
	Workers int    `mapstructure:"workers"`
	Time    uint32 `mapstructure:"time"`
	Memory  uint32 `mapstructure:"memory"`
	Threads uint8  `mapstructure:"threads"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads configuration from the config file, environment and flags.
func LoadConfig(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/wetdirt/")
		viper.SetConfigName(DefaultConfigFileName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.SetEnvPrefix("WETDIRT")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("db.url", "http://localhost:8000/sql")
	viper.SetDefault("db.namespace", "wetdirt")
	viper.SetDefault("db.database", "wetdirt")
	viper.SetDefault("db.credentials", "root:root")

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.domain", "localhost")

	viper.SetDefault("hash.workers", 0)
	viper.SetDefault("hash.time", 2)
	viper.SetDefault("hash.memory", 19*1024)
	viper.SetDefault("hash.threads", 1)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("metrics.enabled", true)
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.Database.URL); err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("db.url %q is not an absolute URL", c.Database.URL))
	}
	if c.Server.Domain == "" {
		errs = append(errs, errors.New("server.domain is required"))
	}
	if c.Hash.Workers < 0 {
		errs = append(errs, fmt.Errorf("hash.workers must not be negative, got %d", c.Hash.Workers))
	}
	return errors.Join(errs...)
}
