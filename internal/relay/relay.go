// Package relay forwards dashboard views to external systems so other
// consumers can follow the console headlessly.
package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ziris-labs/ziris/internal/dashboard"
	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/notify"
	"github.com/ziris-labs/ziris/internal/sensor"
)

// DefaultPublishTimeout bounds one publish to every sink.
const DefaultPublishTimeout = 5 * time.Second

// Message is the relayed form of a view.
type Message struct {
	Seq             uint64                  `json:"seq"`
	Zone            string                  `json:"zone"`
	Rule            sensor.DecisionRule     `json:"rule"`
	RefreshedAt     time.Time               `json:"refreshed_at"`
	Summary         *sensor.Summary         `json:"summary,omitempty"`
	Recommendations []sensor.Recommendation `json:"recommendations,omitempty"`
	Metrics         *sensor.ModelMetrics    `json:"metrics,omitempty"`
	Thresholds      sensor.Thresholds       `json:"thresholds"`
	Notifications   []notify.Event          `json:"notifications"`
	Error           string                  `json:"error,omitempty"`
}

// NewMessage builds the relayed form of v.
func NewMessage(v dashboard.View) Message {
	m := Message{
		Seq:           v.Seq,
		Zone:          v.Zone,
		Rule:          v.Rule,
		RefreshedAt:   v.LastRefresh,
		Thresholds:    v.Thresholds,
		Notifications: v.Notifications,
		Error:         v.Error,
	}
	if s := v.Snapshot; s != nil {
		m.Summary = s.Summary
		m.Recommendations = s.Recommendations
		m.Metrics = s.Metrics
	}
	return m
}

// Encode returns the JSON payload and the partition key for m.
func (m Message) Encode() (key string, payload []byte, err error) {
	payload, err = json.Marshal(m)
	if err != nil {
		return "", nil, errors.WrapWithCode(err, errors.ErrDecode, "Failed to encode relay message", "")
	}
	return m.Zone, payload, nil
}

// Sink receives relayed messages.
type Sink interface {
	Name() string
	Publish(ctx context.Context, m Message) error
	Close() error
}

// Relay pushes views to every sink when something relayable changed.
type Relay struct {
	sinks   []Sink
	log     logger.Logger
	timeout time.Duration

	lastSeq    uint64
	lastNotify string
	published  int
	failures   int
}

// New creates a relay over sinks.
func New(log logger.Logger, sinks ...Sink) *Relay {
	return &Relay{
		sinks:   sinks,
		log:     logger.OrDefault(log),
		timeout: DefaultPublishTimeout,
	}
}

// Run forwards views until ctx is done or views is closed. Sink failures
// are logged and do not stop the relay.
func (r *Relay) Run(ctx context.Context, views <-chan dashboard.View) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-views:
			if !ok {
				return nil
			}
			r.Forward(ctx, v)
		}
	}
}

// Forward publishes v if its snapshot or notifications changed since the
// last forwarded view. It reports whether v was published.
func (r *Relay) Forward(ctx context.Context, v dashboard.View) bool {
	newest := ""
	if len(v.Notifications) > 0 {
		newest = v.Notifications[0].ID
	}
	if v.Seq == r.lastSeq && newest == r.lastNotify {
		return false
	}
	r.lastSeq, r.lastNotify = v.Seq, newest

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	m := NewMessage(v)
	for _, s := range r.sinks {
		if err := s.Publish(ctx, m); err != nil {
			r.failures++
			r.log.Warn("relay %s: %s", s.Name(), errors.Message(err))
			continue
		}
		r.published++
	}
	return true
}

// Counts returns how many sink publishes succeeded and failed.
func (r *Relay) Counts() (published, failed int) {
	return r.published, r.failures
}

// Close closes every sink.
func (r *Relay) Close() error {
	var first error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
