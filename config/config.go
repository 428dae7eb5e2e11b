// Package config loads service configuration from a yaml file and
// environment variables (TIDECHAT_ prefix), env taking precedence.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Blob     BlobConfig     `mapstructure:"blob"`

	// logLevel is swapped atomically on config-file changes.
	logLevel atomic.Pointer[slog.LevelVar]
}

type ServiceConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Path          string        `mapstructure:"path"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime"`
}

type BlobConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoadConfig reads configuration and installs a watcher that applies
// log-level changes without a restart.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("service.name", "tidechat")
	v.SetDefault("service.log_level", "info")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("database.path", "tidechat.db")
	v.SetDefault("database.sweep_interval", time.Minute)
	v.SetDefault("auth.token_lifetime", 7*24*time.Hour)
	v.SetDefault("blob.timeout", 15*time.Second)
	// Registered empty so AutomaticEnv can see the keys during Unmarshal.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("blob.endpoint", "")

	v.SetEnvPrefix("TIDECHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}

	level := &slog.LevelVar{}
	level.Set(parseLevel(cfg.Service.LogLevel))
	cfg.logLevel.Store(level)

	if configFile != "" {
		// Only the log level is re-read on change. Everything else in cfg
		// is consumed once at boot, and rewriting it here would race with
		// readers.
		v.OnConfigChange(func(e fsnotify.Event) {
			level.Set(parseLevel(v.GetString("service.log_level")))
		})
		v.WatchConfig()
	}

	return cfg, nil
}

// LogLevel returns the live log-level handle for slog handlers.
func (c *Config) LogLevel() *slog.LevelVar {
	return c.logLevel.Load()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
