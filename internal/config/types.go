package config

import (
	"time"

	"github.com/ziris-labs/ziris/internal/sensor"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Push transports.
const (
	TransportWebSocket = "websocket"
	TransportNATS      = "nats"
	TransportNone      = "none"
)

// Config represents the complete .ziris.yaml configuration file.
type Config struct {
	Version    int               `yaml:"version" mapstructure:"version"`
	API        APIConfig         `yaml:"api" mapstructure:"api"`
	Push       PushConfig        `yaml:"push" mapstructure:"push"`
	Refresh    RefreshConfig     `yaml:"refresh" mapstructure:"refresh"`
	Dashboard  DashboardConfig   `yaml:"dashboard" mapstructure:"dashboard"`
	Thresholds sensor.Thresholds `yaml:"thresholds" mapstructure:"thresholds"`
	Serve      ServeConfig       `yaml:"serve" mapstructure:"serve"`
	Relay      RelayConfig       `yaml:"relay" mapstructure:"relay"`
}

// APIConfig locates the monitoring API.
type APIConfig struct {
	// URL is the REST base URL, e.g. http://localhost:8000.
	// Supports ${VAR} expansion.
	URL string `yaml:"url" mapstructure:"url"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Token is the bearer token. Usually set by 'ziris login' or ZIRIS_API_TOKEN.
	Token string `yaml:"token,omitempty" mapstructure:"token"`
}

// PushConfig selects the live notification channel.
type PushConfig struct {
	// Transport is "websocket", "nats" or "none".
	Transport string `yaml:"transport" mapstructure:"transport"`

	// Path is the websocket endpoint on the API host.
	Path string `yaml:"path" mapstructure:"path"`

	// NATSURL is the NATS server, required for the nats transport.
	NATSURL string `yaml:"nats_url" mapstructure:"nats_url"`

	// Subject is the NATS subject carrying notifications.
	Subject string `yaml:"subject" mapstructure:"subject"`
}

// RefreshConfig controls the refresh orchestrator.
type RefreshConfig struct {
	// Interval between polling refreshes.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// Debounce is the coalescing window for refresh triggers.
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`

	// Rule is the model-metrics decision rule: any, k2, k3 or k4.
	Rule string `yaml:"rule" mapstructure:"rule"`

	// OrderGuard drops results of fan-outs that started before the one
	// already applied. Off means the last fan-out to complete wins.
	OrderGuard bool `yaml:"order_guard" mapstructure:"order_guard"`
}

// DashboardConfig holds view defaults.
type DashboardConfig struct {
	// Zone is the initial zone filter; "all" disables real-time tracking.
	Zone string `yaml:"zone" mapstructure:"zone"`

	// BufferSize is the real-time series capacity.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`

	// Notifications is the notification history capacity.
	Notifications int `yaml:"notifications" mapstructure:"notifications"`
}

// ServeConfig controls 'ziris serve'.
type ServeConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// RelayConfig controls where 'ziris watch --relay' forwards views.
// Empty values disable the corresponding sink.
type RelayConfig struct {
	RedisAddr    string   `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisKey     string   `yaml:"redis_key" mapstructure:"redis_key"`
	KafkaBrokers []string `yaml:"kafka_brokers" mapstructure:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic" mapstructure:"kafka_topic"`
}

// RuleValue returns the parsed decision rule, falling back to k2.
func (r RefreshConfig) RuleValue() sensor.DecisionRule {
	rule, err := sensor.ParseRule(r.Rule)
	if err != nil {
		return sensor.RuleK2
	}
	return rule
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		API: APIConfig{
			URL:     "http://localhost:8000",
			Timeout: 10 * time.Second,
		},
		Push: PushConfig{
			Transport: TransportWebSocket,
			Path:      "/ws/notifications",
			Subject:   "ziris.notifications",
		},
		Refresh: RefreshConfig{
			Interval: 5 * time.Second,
			Debounce: 500 * time.Millisecond,
			Rule:     string(sensor.RuleK2),
		},
		Dashboard: DashboardConfig{
			Zone:          "all",
			BufferSize:    20,
			Notifications: 10,
		},
		Thresholds: sensor.DefaultThresholds(),
		Serve: ServeConfig{
			Addr: "127.0.0.1:9090",
		},
		Relay: RelayConfig{
			RedisKey:     "ziris:view",
			KafkaBrokers: []string{},
		},
	}
}
