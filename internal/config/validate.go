package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/sensor"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	// Check version
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but ziris only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade ziris or lower the config version")
	}

	checks := []struct {
		section string
		fn      func(*Config) error
	}{
		{"api", validateAPI},
		{"push", validatePush},
		{"refresh", validateRefresh},
		{"dashboard", validateDashboard},
		{"thresholds", validateThresholds},
		{"serve", validateServe},
		{"relay", validateRelay},
	}
	for _, c := range checks {
		if err := c.fn(cfg); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
				fmt.Sprintf("Check the '%s' section in your %s.", c.section, ConfigFileName))
		}
	}
	return nil
}

func validateAPI(cfg *Config) error {
	if cfg.API.URL == "" {
		return fmt.Errorf("api.url is required")
	}
	u, err := url.Parse(cfg.API.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("api.url %q is not an absolute URL", cfg.API.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.url must use http or https, got %q", u.Scheme)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	return nil
}

func validatePush(cfg *Config) error {
	p := cfg.Push
	switch p.Transport {
	case TransportWebSocket:
		if !strings.HasPrefix(p.Path, "/") {
			return fmt.Errorf("push.path must start with '/', got %q", p.Path)
		}
	case TransportNATS:
		if p.NATSURL == "" {
			return fmt.Errorf("push.nats_url is required for the nats transport")
		}
		if p.Subject == "" {
			return fmt.Errorf("push.subject is required for the nats transport")
		}
	case TransportNone:
	default:
		return fmt.Errorf("push.transport must be websocket, nats or none, got %q", p.Transport)
	}
	return nil
}

func validateRefresh(cfg *Config) error {
	r := cfg.Refresh
	if r.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive")
	}
	if r.Debounce <= 0 {
		return fmt.Errorf("refresh.debounce must be positive")
	}
	if r.Debounce >= r.Interval {
		return fmt.Errorf("refresh.debounce (%s) must be shorter than refresh.interval (%s)", r.Debounce, r.Interval)
	}
	if _, err := sensor.ParseRule(r.Rule); err != nil {
		return err
	}
	return nil
}

func validateDashboard(cfg *Config) error {
	d := cfg.Dashboard
	if d.Zone == "" {
		return fmt.Errorf("dashboard.zone is required (use \"all\" for every zone)")
	}
	if d.BufferSize < 1 {
		return fmt.Errorf("dashboard.buffer_size must be at least 1")
	}
	if d.Notifications < 1 {
		return fmt.Errorf("dashboard.notifications must be at least 1")
	}
	return nil
}

func validateThresholds(cfg *Config) error {
	for _, m := range sensor.Metrics {
		if v := cfg.Thresholds.Get(m); v < 0 {
			return fmt.Errorf("thresholds.%s can't be negative (%g)", m.Key(), v)
		}
	}
	return nil
}

func validateServe(cfg *Config) error {
	if _, _, err := net.SplitHostPort(cfg.Serve.Addr); err != nil {
		return fmt.Errorf("serve.addr %q is not host:port", cfg.Serve.Addr)
	}
	return nil
}

func validateRelay(cfg *Config) error {
	r := cfg.Relay
	if r.RedisAddr != "" && r.RedisKey == "" {
		return fmt.Errorf("relay.redis_key is required when relay.redis_addr is set")
	}
	if len(r.KafkaBrokers) > 0 && r.KafkaTopic == "" {
		return fmt.Errorf("relay.kafka_topic is required when relay.kafka_brokers is set")
	}
	if r.KafkaTopic != "" && len(r.KafkaBrokers) == 0 {
		return fmt.Errorf("relay.kafka_brokers is required when relay.kafka_topic is set")
	}
	return nil
}
