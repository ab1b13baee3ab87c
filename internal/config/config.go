// Package config holds app wide settings read by viper from an optional
// config file and GCCONTENT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. GCCONTENT_LOG_LEVEL.
const EnvPrefix = "GCCONTENT"

type Config struct {
	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level"`

	// web shell
	Addr           string `mapstructure:"addr"`
	TemplatesDir   string `mapstructure:"templates_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`

	// history of completed analyses; empty store disables it
	HistoryStore string `mapstructure:"history_store"`
	HistoryPath  string `mapstructure:"history_path"`

	// line width of exported FASTA records
	FastaWidth int `mapstructure:"fasta_width"`
}

var defaults = map[string]any{
	"log_file":         "",
	"log_level":        "info",
	"addr":             ":8080",
	"templates_dir":    "",
	"max_upload_bytes": int64(10 << 20),
	"history_store":    "",
	"history_path":     "",
	"fasta_width":      60,
}

// LoadConfig loads settings from path. If path is empty, looks for
// ./config.{json,yaml,toml}; a missing file is not an error and yields
// the defaults (overridden by the environment).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if c.FastaWidth <= 0 {
		c.FastaWidth = 60
	}
	return &c, nil
}

// HistoryEnabled reports whether completed analyses should be recorded.
func (c *Config) HistoryEnabled() bool {
	s := strings.ToLower(strings.TrimSpace(c.HistoryStore))
	return s != "" && s != "none"
}
