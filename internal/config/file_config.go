package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// fileValues mirrors the optional TOML config file. Environment variables
// always take precedence over anything set here.
type fileValues struct {
	AppName    string `toml:"app_name"`
	DataFolder string `toml:"data_folder"`
	LogLevel   string `toml:"log_level"`

	API struct {
		BaseURL   string  `toml:"base_url"`
		Timeout   string  `toml:"timeout"`
		RateLimit float64 `toml:"rate_limit"`
		RateBurst int     `toml:"rate_burst"`
	} `toml:"api"`

	Session struct {
		RefreshWindow string `toml:"refresh_window"`
	} `toml:"session"`
}

func loadFileValues(path string) (*fileValues, error) {
	values := &fileValues{}
	if path == "" {
		return values, nil
	}
	if _, err := toml.DecodeFile(path, values); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return values, nil
}

func (f *fileValues) or(value, defaultValue string) string {
	if f == nil || value == "" {
		return defaultValue
	}
	return value
}

func (f *fileValues) duration(value string, defaultValue time.Duration) time.Duration {
	if f == nil || value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
