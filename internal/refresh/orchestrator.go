// Package refresh coalesces refresh triggers and fans out the three reads
// that make up one dashboard snapshot.
//
// Two entry points exist. RequestRefresh is debounced: calls within the
// debounce window reset the timer and collapse into a single fan-out that
// fires once the burst ends. RefreshNow bypasses the debounce for direct
// user actions and may overlap a debounced fan-out. Results are delivered to
// the sink in completion order, each tagged with the sequence number
// assigned when its fan-out started.
package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/sensor"
)

const (
	// DefaultDebounce is the coalescing window for RequestRefresh.
	DefaultDebounce = 500 * time.Millisecond

	// DefaultInterval is the polling cadence.
	DefaultInterval = 5 * time.Second

	// DefaultFetchTimeout bounds one fan-out.
	DefaultFetchTimeout = 15 * time.Second
)

// Trigger identifies what asked for a refresh.
type Trigger int

const (
	TriggerTimer Trigger = iota
	TriggerPush
	TriggerUser
	TriggerImmediate
)

func (t Trigger) String() string {
	switch t {
	case TriggerTimer:
		return "timer"
	case TriggerPush:
		return "push"
	case TriggerUser:
		return "user"
	case TriggerImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// Fetcher reads the three resources of a snapshot.
type Fetcher interface {
	Summary(ctx context.Context) (*sensor.Summary, error)
	Recommendations(ctx context.Context) ([]sensor.Recommendation, error)
	ModelMetrics(ctx context.Context, rule sensor.DecisionRule) (*sensor.ModelMetrics, error)
}

// Snapshot is one consistent view of the three resources.
type Snapshot struct {
	Summary         *sensor.Summary
	Recommendations []sensor.Recommendation
	Metrics         *sensor.ModelMetrics
	Rule            sensor.DecisionRule
	FetchedAt       time.Time
}

// Result is the outcome of one fan-out. Exactly one of Snapshot and Err is set.
type Result struct {
	Seq       uint64
	Trigger   Trigger
	Coalesced int // triggers folded into this fan-out
	Snapshot  *Snapshot
	Err       error
	Started   time.Time
	Completed time.Time
}

// Sink receives every completed fan-out.
type Sink func(Result)

// Stats are cumulative counters.
type Stats struct {
	Requested int64 // RequestRefresh calls
	Immediate int64 // RefreshNow calls
	Fanouts   int64 // fan-outs started
	Failures  int64 // fan-outs that failed
	Discarded int64 // results dropped after Close
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDebounce sets the coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithFetchTimeout bounds each fan-out.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.fetchTimeout = d
		}
	}
}

// WithRule sets the initial decision rule for model metrics.
func WithRule(r sensor.DecisionRule) Option {
	return func(o *Orchestrator) {
		if r != "" {
			o.rule = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// Orchestrator implements debounce-coalesce refreshes over a Fetcher.
type Orchestrator struct {
	fetcher      Fetcher
	sink         Sink
	debounce     time.Duration
	fetchTimeout time.Duration
	log          logger.Logger
	now          func() time.Time

	mu        sync.Mutex
	timer     *time.Timer
	gen       uint64 // invalidates timers that fired after being replaced
	pending   int
	last      Trigger
	rule      sensor.DecisionRule
	closed    bool
	stopPoll  chan struct{}
	pollDone  chan struct{}
	seq       atomic.Uint64
	requested atomic.Int64
	immediate atomic.Int64
	fanouts   atomic.Int64
	failures  atomic.Int64
	discarded atomic.Int64
}

// New creates an orchestrator delivering results to sink.
func New(fetcher Fetcher, sink Sink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:      fetcher,
		sink:         sink,
		debounce:     DefaultDebounce,
		fetchTimeout: DefaultFetchTimeout,
		log:          logger.NewEnvLogger("[refresh]"),
		now:          time.Now,
		rule:         sensor.RuleK2,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Rule returns the decision rule used for model metrics.
func (o *Orchestrator) Rule() sensor.DecisionRule {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rule
}

// SetRule changes the decision rule for subsequent fan-outs.
func (o *Orchestrator) SetRule(r sensor.DecisionRule) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rule = r
}

// RequestRefresh schedules a debounced fan-out. Every call resets the
// window, so a burst of calls produces one fan-out after the burst ends.
func (o *Orchestrator) RequestRefresh(trigger Trigger) {
	o.requested.Add(1)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	if o.timer != nil {
		o.timer.Stop()
	}
	o.gen++
	o.pending++
	o.last = trigger
	gen := o.gen
	o.timer = time.AfterFunc(o.debounce, func() { o.fire(gen) })
}

// Pending reports whether a debounced fan-out is scheduled.
func (o *Orchestrator) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.timer != nil
}

func (o *Orchestrator) fire(gen uint64) {
	o.mu.Lock()
	if o.closed || gen != o.gen {
		o.mu.Unlock()
		return
	}
	trigger, coalesced := o.last, o.pending
	o.timer = nil
	o.pending = 0
	o.mu.Unlock()

	if coalesced > 1 {
		o.log.Debug("coalesced %d triggers into one refresh", coalesced)
	}
	o.run(context.Background(), trigger, coalesced)
}

// RefreshNow runs a fan-out immediately in the calling goroutine, ignoring
// any pending debounced request. The result is delivered to the sink and
// its error returned.
func (o *Orchestrator) RefreshNow(ctx context.Context) error {
	o.immediate.Add(1)
	if o.isClosed() {
		return nil
	}
	return o.run(ctx, TriggerImmediate, 1).Err
}

func (o *Orchestrator) run(ctx context.Context, trigger Trigger, coalesced int) Result {
	ctx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()

	res := Result{
		Seq:       o.seq.Add(1),
		Trigger:   trigger,
		Coalesced: coalesced,
		Started:   o.now(),
	}
	o.fanouts.Add(1)
	rule := o.Rule()

	snap, err := o.fetchAll(ctx, rule)
	res.Completed = o.now()
	if err != nil {
		o.failures.Add(1)
		res.Err = errors.WrapWithCode(err, errors.Code(err, errors.ErrNetwork),
			"Failed to refresh dashboard", "")
		o.log.Warn("refresh #%d (%s) failed: %s", res.Seq, trigger, errors.Message(err))
	} else {
		snap.FetchedAt = res.Completed
		res.Snapshot = snap
		o.log.Debug("refresh #%d (%s) completed in %s", res.Seq, trigger, res.Completed.Sub(res.Started))
	}

	if o.isClosed() {
		o.discarded.Add(1)
		o.log.Debug("refresh #%d discarded after close", res.Seq)
		return res
	}
	if o.sink != nil {
		o.sink(res)
	}
	return res
}

// fetchAll issues the three reads together and succeeds only if all do.
func (o *Orchestrator) fetchAll(ctx context.Context, rule sensor.DecisionRule) (*Snapshot, error) {
	var (
		summary *sensor.Summary
		recs    []sensor.Recommendation
		metrics *sensor.ModelMetrics
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := o.fetcher.Summary(gctx)
		summary = s
		return err
	})
	g.Go(func() error {
		r, err := o.fetcher.Recommendations(gctx)
		recs = r
		return err
	})
	g.Go(func() error {
		m, err := o.fetcher.ModelMetrics(gctx, rule)
		metrics = m
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Snapshot{
		Summary:         summary,
		Recommendations: recs,
		Metrics:         metrics,
		Rule:            rule,
	}, nil
}

// StartPolling requests a refresh every interval until Close.
// Calling it twice has no effect.
func (o *Orchestrator) StartPolling(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	o.mu.Lock()
	if o.closed || o.stopPoll != nil {
		o.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	o.stopPoll, o.pollDone = stop, done
	o.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				o.RequestRefresh(TriggerTimer)
			}
		}
	}()
}

// Close cancels any pending debounced refresh and stops polling. Fan-outs
// already in flight run to completion but their results are discarded.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.gen++
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.pending = 0
	stop, done := o.stopPoll, o.pollDone
	o.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (o *Orchestrator) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Stats returns cumulative counters.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Requested: o.requested.Load(),
		Immediate: o.immediate.Load(),
		Fanouts:   o.fanouts.Load(),
		Failures:  o.failures.Load(),
		Discarded: o.discarded.Load(),
	}
}
