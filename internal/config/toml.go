// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	App      AppConfig      `toml:"app"`
	Colors   ColorsConfig   `toml:"colors"`
	Anaglyph AnaglyphConfig `toml:"anaglyph"`
}

// AppConfig maps application-wide settings.
type AppConfig struct {
	DBPath      *string `toml:"db-path"`
	LogLevel    *string `toml:"log-level"`
	LogFile     *string `toml:"log-file"`
	Seed        *int64  `toml:"seed"`
	DefaultUser *string `toml:"default-user"`
	Catalog     *string `toml:"catalog"`
}

// ColorsConfig overrides the stored calibration. Values are hex colors or palette names.
type ColorsConfig struct {
	Left  *string `toml:"left"`
	Right *string `toml:"right"`
}

// AnaglyphConfig overrides the anaglyph geometry of every catalog configuration.
type AnaglyphConfig struct {
	Size        *int     `toml:"size"`
	PixelSize   *int     `toml:"pixel-size"`
	FocalSize   *float64 `toml:"focal-size"`
	FocalOffset *int     `toml:"focal-offset"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
