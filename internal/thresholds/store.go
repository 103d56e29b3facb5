// Package thresholds holds the client's working copy of the alert
// thresholds and mediates the suggest, apply and persist workflow.
//
// Edits are optimistic: the working copy changes before the server confirms
// and is never rolled back. When a write fails, client and server stay
// diverged until the next explicit Load.
package thresholds

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/spf13/cast"

	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/notify"
	"github.com/ziris-labs/ziris/internal/sensor"
)

// Client is the subset of the API the store needs.
type Client interface {
	Thresholds(ctx context.Context) (sensor.Thresholds, error)
	SaveThresholds(ctx context.Context, th sensor.Thresholds) (sensor.Thresholds, error)
	SuggestThresholds(ctx context.Context) (map[string]any, error)
}

// Refresher refreshes the dashboard immediately after thresholds change.
type Refresher interface {
	RefreshNow(ctx context.Context) error
}

// Option configures a Store.
type Option func(*Store)

// WithInitial sets the values used until the first successful Load.
func WithInitial(th sensor.Thresholds) Option {
	return func(s *Store) { s.working = th.Clamped() }
}

// WithNotifier receives the info notifications emitted by the workflow.
func WithNotifier(fn func(notify.Event)) Option {
	return func(s *Store) { s.notify = fn }
}

// WithRefresher is called after a suggestion is persisted.
func WithRefresher(r Refresher) Option {
	return func(s *Store) { s.refresher = r }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store owns the working thresholds.
type Store struct {
	client    Client
	notify    func(notify.Event)
	refresher Refresher
	log       logger.Logger
	now       func() time.Time

	mu      sync.Mutex
	working sensor.Thresholds
	loaded  bool
}

// New creates a store seeded with the default thresholds.
func New(client Client, opts ...Option) *Store {
	s := &Store{
		client:  client,
		log:     logger.NewEnvLogger("[thresholds]"),
		now:     time.Now,
		working: sensor.DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Working returns the current working copy.
func (s *Store) Working() sensor.Thresholds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working
}

// Loaded reports whether a Load has succeeded.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Load replaces the working copy with the server's values. On failure the
// previous values are kept and the error returned.
func (s *Store) Load(ctx context.Context) (sensor.Thresholds, error) {
	th, err := s.client.Thresholds(ctx)
	if err != nil {
		s.log.Warn("keeping previous thresholds: %s", errors.Message(err))
		return s.Working(), errors.WrapWithCode(err, errors.Code(err, errors.ErrNetwork),
			"Failed to load thresholds", "Previous values are still in use")
	}

	s.mu.Lock()
	s.working = th.Clamped()
	s.loaded = true
	out := s.working
	s.mu.Unlock()
	return out, nil
}

// SuggestOne applies the server's suggestion for a single metric, persists
// the full threshold object and refreshes the dashboard. A missing or
// non-numeric suggestion leaves everything unchanged.
func (s *Store) SuggestOne(ctx context.Context, m sensor.Metric) (sensor.Thresholds, error) {
	sugg, err := s.client.SuggestThresholds(ctx)
	if err != nil {
		return s.Working(), errors.WrapWithCode(err, errors.Code(err, errors.ErrNetwork),
			fmt.Sprintf("Failed to fetch %s suggestion", m), "")
	}

	v, ok := strictNumber(lookup(sugg, m))
	if !ok {
		s.log.Debug("suggestion for %s is not numeric, ignoring", m)
		return s.Working(), nil
	}

	// Re-read the working copy: another edit may have landed during the fetch.
	s.mu.Lock()
	s.working = s.working.With(m, v)
	next := s.working
	s.mu.Unlock()

	if err := s.persist(ctx, next); err != nil {
		return next, err
	}
	s.emit(fmt.Sprintf("Threshold %s updated: %.2f", m.Key(), v))
	s.refreshNow(ctx)
	return next, nil
}

// ApplyAll replaces every metric with its suggestion, keeping the previous
// value where the suggestion is not a valid positive number.
func (s *Store) ApplyAll(ctx context.Context) (sensor.Thresholds, error) {
	sugg, err := s.client.SuggestThresholds(ctx)
	if err != nil {
		return s.Working(), errors.WrapWithCode(err, errors.Code(err, errors.ErrNetwork),
			"Failed to fetch threshold suggestions", "")
	}

	s.mu.Lock()
	next := s.working
	for _, m := range sensor.Metrics {
		if v, ok := lenientNumber(lookup(sugg, m)); ok && v > 0 {
			next = next.With(m, v)
		}
	}
	s.working = next
	s.mu.Unlock()

	if err := s.persist(ctx, next); err != nil {
		return next, err
	}
	s.emit("Suggested thresholds applied to all metrics")
	s.refreshNow(ctx)
	return next, nil
}

// SetOne changes one metric locally and persists the full object. A failed
// write is returned but the local value stays.
func (s *Store) SetOne(ctx context.Context, m sensor.Metric, v float64) (sensor.Thresholds, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}

	s.mu.Lock()
	s.working = s.working.With(m, v)
	next := s.working
	s.mu.Unlock()

	return next, s.persist(ctx, next)
}

func (s *Store) persist(ctx context.Context, th sensor.Thresholds) error {
	if _, err := s.client.SaveThresholds(ctx, th); err != nil {
		s.log.Warn("threshold write failed, local values kept: %s", errors.Message(err))
		if errors.IsCode(err, errors.ErrPersist) {
			return err
		}
		return errors.WrapWithCode(err, errors.ErrPersist, "Failed to save thresholds",
			"Local values were kept; reload thresholds to resync with the server")
	}
	return nil
}

func (s *Store) emit(message string) {
	if s.notify != nil {
		s.notify(notify.NewEvent(message, notify.Info, s.now()))
	}
}

func (s *Store) refreshNow(ctx context.Context) {
	if s.refresher == nil {
		return
	}
	// Refresh failures reach the view through the refresh result itself.
	if err := s.refresher.RefreshNow(ctx); err != nil {
		s.log.Debug("refresh after threshold change failed: %s", errors.Message(err))
	}
}

// lookup returns the suggestion for m under its wire key or its name.
func lookup(sugg map[string]any, m sensor.Metric) any {
	if v, ok := sugg[m.Key()]; ok {
		return v
	}
	return sugg[m.String()]
}

// strictNumber accepts only values that decoded as JSON numbers.
func strictNumber(v any) (float64, bool) {
	switch v.(type) {
	case float64, float32, int, int64, int32:
		f := cast.ToFloat64(v)
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return 0, false
	}
}

// lenientNumber also accepts numeric strings.
func lenientNumber(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
