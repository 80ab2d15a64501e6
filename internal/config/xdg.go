package config

import (
	"os"
	"path/filepath"
)

const appName = "stenotutor"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultRulesPath returns the path of the user's rule file. When it does not
// exist the built-in rules are used.
func DefaultRulesPath() string {
	return filepath.Join(XDGConfigHome(), appName, "rules.yaml")
}

// DefaultDictionaryPath returns the default Plover JSON dictionary path.
func DefaultDictionaryPath() string {
	return filepath.Join(XDGConfigHome(), appName, "main.json")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, appName+".db")
}
