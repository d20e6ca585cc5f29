// Package config loads process configuration from the environment and an
// optional config file.
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Addr  string `mapstructure:"ADDR"`
	Env   string `mapstructure:"ENV"`
	Store string `mapstructure:"STORE"` // memory | postgres | redis

	DatabaseURL string `mapstructure:"DATABASE_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
}

// Load reads configuration. Environment variables override a config.yaml
// found in the working directory; a missing file is not an error.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("ADDR", ":8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE", "memory")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the process runs with the production
// environment profile.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
