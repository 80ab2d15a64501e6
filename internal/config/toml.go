// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice" koanf:"practice"`
	Engine   EngineConfig   `toml:"engine" koanf:"engine"`
	Log      LogConfig      `toml:"log" koanf:"log"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Dictionary   *string  `toml:"dictionary" koanf:"dictionary"`
	WordList     *string  `toml:"word-list" koanf:"word-list"`
	Rules        *string  `toml:"rules" koanf:"rules"`
	Lang         *string  `toml:"lang" koanf:"lang"`
	Length       *int     `toml:"length" koanf:"length"`
	Enabled      []string `toml:"enabled" koanf:"enabled"`
	RecentWindow *int     `toml:"recent-window" koanf:"recent-window"`
	UniqueWords  *bool    `toml:"unique-words" koanf:"unique-words"`
}

// EngineConfig maps classification and statistics settings.
type EngineConfig struct {
	Workers     *int     `toml:"workers" koanf:"workers"`
	StatsMode   *string  `toml:"stats-mode" koanf:"stats-mode"`
	HalfLife    *float64 `toml:"half-life" koanf:"half-life"`
	StatsWindow *int     `toml:"stats-window" koanf:"stats-window"`
	SkipFirst   *bool    `toml:"skip-first" koanf:"skip-first"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level  *string `toml:"level" koanf:"level"`
	Format *string `toml:"format" koanf:"format"`
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
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
