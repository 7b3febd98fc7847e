// Package config loads the development server configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"threadhub/internal/broker"
	"threadhub/internal/repository"
	"threadhub/pkg/database"
)

// Config is the development server configuration
type Config struct {
	Server   ServerConfig           `mapstructure:"server"`
	Database database.Config        `mapstructure:"database"`
	Redis    repository.RedisConfig `mapstructure:"redis"`
	JWT      JWTConfig              `mapstructure:"jwt"`
	Events   broker.Config          `mapstructure:"events"`
	Comments CommentsConfig         `mapstructure:"comments"`
	Logging  LoggingConfig          `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Debug           bool          `mapstructure:"debug"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type CommentsConfig struct {
	MaxDepth         int `mapstructure:"max_depth"`
	MaxContentLength int `mapstructure:"max_content_length"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

const defaultSecret = "threadhub-dev-secret-change-me"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", database.DriverSQLite)
	v.SetDefault("database.dsn", "threadhub.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("database.timeout", 5*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Minute)

	v.SetDefault("events.driver", broker.DriverNone)
	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.url", "")
	v.SetDefault("events.topic", "threadhub.comments")
	v.SetDefault("events.publish_timeout", 5*time.Second)

	v.SetDefault("jwt.secret", defaultSecret)
	v.SetDefault("jwt.issuer", "threadhub")
	v.SetDefault("jwt.expiration", 24*time.Hour)

	v.SetDefault("comments.max_depth", 4)
	v.SetDefault("comments.max_content_length", 5000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

// Load reads path (optional) and THREADHUB_* environment overrides, for
// example THREADHUB_DATABASE_DSN or THREADHUB_JWT_SECRET. A .env file in the
// working directory is loaded first; real environment variables win over it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("threadhub")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Events.Driver {
	case broker.DriverNone, broker.DriverKafka, broker.DriverRabbitMQ:
	default:
		return fmt.Errorf("events.driver %q is not one of kafka, rabbitmq", c.Events.Driver)
	}
	if c.Comments.MaxDepth < 0 {
		return errors.New("comments.max_depth must not be negative")
	}
	return nil
}

// InsecureSecret reports whether the JWT secret is the built-in default
func (c *Config) InsecureSecret() bool {
	return c.JWT.Secret == defaultSecret
}
