package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ziris-labs/ziris/internal/errors"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".ziris.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/ziris"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. ZIRIS_API_TOKEN.
	EnvPrefix = "ZIRIS"
	// DotEnvFile is loaded from the working directory and the config's
	// directory before environment overrides are read.
	DotEnvFile = ".env"
)

// Load reads config from the specified path. Environment variables
// (including those from .env files) override file values.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'ziris config init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	loadDotEnv(filepath.Dir(path))
	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .ziris.yaml in current directory
// 3. ~/.config/ziris/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	// 1. Explicit path takes precedence
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	// 2. Current directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	// 3. Global config
	if global := GlobalPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalPath returns ~/.config/ziris/config.yaml, or "" without a home dir.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault loads config from the found path, or returns defaults with
// environment overrides applied if no file exists. This lets every command
// run against a local API without any setup.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		loadDotEnv("")
		cfg, err := parseConfig(newViper(), "environment")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadDotEnv loads .env files without overriding variables already set.
// Missing files are ignored.
func loadDotEnv(dir string) {
	candidates := []string{DotEnvFile}
	if dir != "" && dir != "." {
		candidates = append(candidates, filepath.Join(dir, DotEnvFile))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, source string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+source)
	}

	expandAll(cfg)
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it even when
// the file omits it.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("api.url", d.API.URL)
	v.SetDefault("api.timeout", d.API.Timeout.String())
	v.SetDefault("api.token", "")
	v.SetDefault("push.transport", d.Push.Transport)
	v.SetDefault("push.path", d.Push.Path)
	v.SetDefault("push.nats_url", d.Push.NATSURL)
	v.SetDefault("push.subject", d.Push.Subject)
	v.SetDefault("refresh.interval", d.Refresh.Interval.String())
	v.SetDefault("refresh.debounce", d.Refresh.Debounce.String())
	v.SetDefault("refresh.rule", d.Refresh.Rule)
	v.SetDefault("refresh.order_guard", d.Refresh.OrderGuard)
	v.SetDefault("dashboard.zone", d.Dashboard.Zone)
	v.SetDefault("dashboard.buffer_size", d.Dashboard.BufferSize)
	v.SetDefault("dashboard.notifications", d.Dashboard.Notifications)
	v.SetDefault("thresholds.temp", d.Thresholds.Temp)
	v.SetDefault("thresholds.press", d.Thresholds.Pressure)
	v.SetDefault("thresholds.vib", d.Thresholds.Vibration)
	v.SetDefault("thresholds.fumee", d.Thresholds.Smoke)
	v.SetDefault("serve.addr", d.Serve.Addr)
	v.SetDefault("relay.redis_addr", d.Relay.RedisAddr)
	v.SetDefault("relay.redis_key", d.Relay.RedisKey)
	v.SetDefault("relay.kafka_brokers", d.Relay.KafkaBrokers)
	v.SetDefault("relay.kafka_topic", d.Relay.KafkaTopic)
}
