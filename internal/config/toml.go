// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Play        PlayConfig        `toml:"play"`
	Leaderboard LeaderboardConfig `toml:"leaderboard"`
}

// PlayConfig maps play-related settings.
type PlayConfig struct {
	Contest  *string `toml:"contest"`
	User     *string `toml:"user"`
	AutoNext *bool   `toml:"auto-next"`
}

// LeaderboardConfig maps leaderboard view settings.
type LeaderboardConfig struct {
	Top            *int `toml:"top"`
	RefreshSeconds *int `toml:"refresh-seconds"`
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
