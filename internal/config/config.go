// Package config loads application-level settings: where the configurations
// file lives, where logs and markers go, and how verbose the CLI is.
//
// Precedence, lowest first: built-in defaults, an optional findl.yaml in the
// user config dir, FINDL_* environment variables. Command-line flags are
// applied on top by the cmd layer.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type UpdateConfig struct {
	// MaxAge is the freshness window for skipping recently-updated
	// configurations.
	MaxAge time.Duration `mapstructure:"max_age"`
}

type Config struct {
	// Registry is the path to the configurations file.
	Registry string `mapstructure:"registry"`

	// LogDir holds per-configuration logs and last-update markers.
	LogDir string `mapstructure:"log_dir"`

	Logging LoggingConfig `mapstructure:"logging"`
	Update  UpdateConfig  `mapstructure:"update"`
}

// Load reads configuration from defaults, an optional config file, and the
// environment.
func Load(ctx context.Context) (*Config, error) {
	_ = ctx

	v := viper.New()
	v.SetConfigName("findl")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "findl"))
	}

	v.SetDefault("registry", "")
	v.SetDefault("log_dir", defaultLogDir())
	v.SetDefault("logging.level", "info")
	v.SetDefault("update.max_age", 24*time.Hour)

	v.SetEnvPrefix("FINDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "findl-logs"
	}
	return filepath.Join(home, ".local", "share", "findl", "logs")
}
