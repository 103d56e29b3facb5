package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Does not support ~username syntax - just ~ for the current user.
func ExpandTilde(path string) string {
	if path == "" {
		return path
	}

	// Handle ~/path
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path // Return unchanged if we can't get home
		}
		return filepath.Join(home, path[2:])
	}

	// Handle standalone ~
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}

	return path
}

// Expand replaces ${VAR} and $VAR references with environment values.
// Unset variables expand to the empty string, except that "$$" yields "$".
func Expand(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, func(name string) string {
		if name == "$" {
			return "$"
		}
		return os.Getenv(name)
	})
}

// expandAll expands the string settings that commonly reference secrets or
// per-host addresses.
func expandAll(cfg *Config) {
	cfg.API.URL = Expand(cfg.API.URL)
	cfg.API.Token = Expand(cfg.API.Token)
	cfg.Push.NATSURL = Expand(cfg.Push.NATSURL)
	cfg.Relay.RedisAddr = Expand(cfg.Relay.RedisAddr)
	for i, b := range cfg.Relay.KafkaBrokers {
		cfg.Relay.KafkaBrokers[i] = Expand(b)
	}
}
