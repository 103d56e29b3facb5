// Package dashboard ties the synchronization engine together into one
// session with an explicit lifecycle.
//
// A Session owns a single event-loop goroutine. Refresh results, pushed
// notifications, connection changes, errors and user selections all become
// events on one queue, and only the loop mutates view state. After each
// event the loop publishes an immutable View to subscribers.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ziris-labs/ziris/internal/api"
	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/hover"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/notify"
	"github.com/ziris-labs/ziris/internal/push"
	"github.com/ziris-labs/ziris/internal/refresh"
	"github.com/ziris-labs/ziris/internal/sensor"
	"github.com/ziris-labs/ziris/internal/series"
	"github.com/ziris-labs/ziris/internal/thresholds"
)

// DefaultSeedRows is the number of synthetic rows inserted by Seed.
const DefaultSeedRows = 100

// Client is the API surface a session uses.
type Client interface {
	refresh.Fetcher
	thresholds.Client
	Retrain(ctx context.Context) (string, error)
	Seed(ctx context.Context, n int) (int, error)
}

// Config holds session settings.
type Config struct {
	Token         string
	Zone          string
	Paused        bool
	Rule          sensor.DecisionRule
	Interval      time.Duration
	Debounce      time.Duration
	FetchTimeout  time.Duration
	OrderGuard    bool
	BufferSize    int
	Notifications int
	Thresholds    sensor.Thresholds
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger shared by the session's components.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// state is owned by the loop goroutine.
type state struct {
	version     uint64
	snapshot    *refresh.Snapshot
	seq         uint64
	lastRefresh time.Time
	zone        string
	paused      bool
	rule        sensor.DecisionRule
	push        push.State
	hover       hover.Active
	user        api.Claims
	err         string
	errCode     string
}

// Session is one logged-in dashboard.
type Session struct {
	cfg    Config
	client Client
	log    logger.Logger
	now    func() time.Time

	orch     *refresh.Orchestrator
	listener *push.Listener
	store    *thresholds.Store
	buffer   *series.Buffer
	feed     *notify.Feed
	charts   *hover.Coordinator
	markers  map[hover.ChartID]*hover.Marker
	guard    *refresh.Guard

	events   chan func()
	done     chan struct{}
	loopDone chan struct{}

	startOnce sync.Once
	closeOnce sync.Once

	st state

	mu      sync.RWMutex
	current View
	subs    map[chan View]struct{}
	closed  bool
}

// New creates a session and starts its event loop. Nothing touches the
// network until Start. transport may be nil to run on polling alone.
func New(client Client, transport push.Transport, cfg Config, opts ...Option) *Session {
	if cfg.Zone == "" {
		cfg.Zone = AllZones
	}
	if cfg.Rule == "" {
		cfg.Rule = sensor.RuleK2
	}
	if cfg.Thresholds == (sensor.Thresholds{}) {
		cfg.Thresholds = sensor.DefaultThresholds()
	}

	s := &Session{
		cfg:      cfg,
		client:   client,
		log:      logger.NewEnvLogger("[session]"),
		now:      time.Now,
		buffer:   series.NewBuffer(cfg.BufferSize),
		feed:     notify.NewFeed(cfg.Notifications),
		charts:   hover.NewCoordinator(),
		markers:  make(map[hover.ChartID]*hover.Marker),
		guard:    refresh.NewGuard(cfg.OrderGuard),
		events:   make(chan func(), 64),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
		subs:     make(map[chan View]struct{}),
		st: state{
			zone:   cfg.Zone,
			paused: cfg.Paused,
			rule:   cfg.Rule,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.orch = refresh.New(client, s.onResult,
		refresh.WithDebounce(cfg.Debounce),
		refresh.WithFetchTimeout(cfg.FetchTimeout),
		refresh.WithRule(cfg.Rule),
		refresh.WithLogger(s.log),
	)
	s.store = thresholds.New(client,
		thresholds.WithInitial(cfg.Thresholds),
		thresholds.WithNotifier(s.onNotify),
		thresholds.WithRefresher(s.orch),
		thresholds.WithLogger(s.log),
	)
	if transport != nil {
		s.listener = push.NewListener(transport, s.orch, push.Handlers{
			OnEvent: s.onNotify,
			OnState: s.onPushState,
			OnError: s.fail,
		}, s.log)
	}
	for _, id := range hover.ChartIDs {
		m := hover.NewMarker(0)
		s.markers[id] = m
		s.charts.Register(id, m)
	}

	s.current = s.buildView()
	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.loopDone)
	for {
		select {
		case fn := <-s.events:
			fn()
			s.publish()
		case <-s.done:
			return
		}
	}
}

// post queues fn for the loop. It must never be called from the loop.
func (s *Session) post(fn func()) {
	select {
	case s.events <- fn:
	case <-s.done:
	}
}

func (s *Session) publish() {
	s.st.version++
	v := s.buildView()
	lengths := v.ChartLengths()
	for _, id := range hover.ChartIDs {
		s.markers[id].SetLen(lengths[id])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = v
	for ch := range s.subs {
		// Latest view wins for slow subscribers.
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func (s *Session) buildView() View {
	return View{
		Version:       s.st.version,
		Snapshot:      s.st.snapshot,
		Seq:           s.st.seq,
		LastRefresh:   s.st.lastRefresh,
		Series:        s.buffer.Contents(),
		Notifications: s.feed.Items(),
		Thresholds:    s.store.Working(),
		Zone:          s.st.zone,
		Paused:        s.st.paused,
		Rule:          s.st.rule,
		Push:          s.st.push,
		Hover:         s.st.hover,
		User:          s.st.user,
		Error:         s.st.err,
		ErrorCode:     s.st.errCode,
	}
}

// Start validates the token, loads thresholds, opens the push channel and
// begins polling. An expired or missing token is a blocking AUTH error:
// nothing else starts. Other failures only show up in the view.
func (s *Session) Start(ctx context.Context) error {
	var err error
	s.startOnce.Do(func() { err = s.start(ctx) })
	return err
}

func (s *Session) start(ctx context.Context) error {
	claims, err := api.CheckToken(s.cfg.Token, s.now())
	if err != nil {
		s.fail(err)
		return err
	}
	s.post(func() { s.st.user = claims })

	if _, err := s.store.Load(ctx); err != nil {
		s.log.Warn("using fallback thresholds: %s", errors.Message(err))
	}
	s.post(func() {})

	if s.listener != nil {
		// Failures reach the view through OnError; polling continues.
		_ = s.listener.Connect(ctx)
	}
	s.orch.StartPolling(s.cfg.Interval)
	s.orch.RequestRefresh(refresh.TriggerUser)
	return nil
}

// Close tears the session down: the pending debounce and polling stop, the
// push subscription closes and the loop exits. In-flight fetches finish in
// the background and are discarded.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.orch.Close()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		close(s.done)
		<-s.loopDone

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		for ch := range s.subs {
			close(ch)
			delete(s.subs, ch)
		}
	})
}

// View returns the latest published view.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe returns a channel that receives the current view immediately
// and every later one. Slow readers only see the latest. The channel is
// closed by cancel or Close.
func (s *Session) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	ch <- s.current

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Charts returns the hover registry. Rendering layers register their chart
// surfaces here, replacing the session's placeholder markers.
func (s *Session) Charts() *hover.Coordinator {
	return s.charts
}

// Stats returns the refresh counters.
func (s *Session) Stats() refresh.Stats {
	return s.orch.Stats()
}

// PushState returns the live subscription state.
func (s *Session) PushState() push.State {
	if s.listener == nil {
		return push.StateClosed
	}
	return s.listener.State()
}

// PushReceived returns how many pushed messages were handled.
func (s *Session) PushReceived() int64 {
	if s.listener == nil {
		return 0
	}
	return s.listener.Received()
}

// --- event sources ---

func (s *Session) onResult(r refresh.Result) {
	s.post(func() { s.applyResult(r) })
}

// applyResult commits a whole snapshot or nothing.
func (s *Session) applyResult(r refresh.Result) {
	if r.Err != nil {
		if s.guard.Stale(r.Seq) {
			s.log.Debug("ignoring failure of stale refresh #%d", r.Seq)
			return
		}
		s.setError(r.Err)
		return
	}
	if !s.guard.Accept(r.Seq) {
		s.log.Debug("dropping stale refresh #%d (applied #%d)", r.Seq, s.guard.Last())
		return
	}

	s.st.snapshot = r.Snapshot
	s.st.seq = r.Seq
	s.st.lastRefresh = r.Completed
	s.st.err, s.st.errCode = "", ""

	if s.st.zone == AllZones || s.st.paused || r.Snapshot.Summary == nil {
		return
	}
	if z, ok := r.Snapshot.Summary.Zones[s.st.zone]; ok {
		s.buffer.Append(z.Sample(r.Completed))
	}
}

func (s *Session) onNotify(e notify.Event) {
	s.post(func() { s.feed.Prepend(e) })
}

func (s *Session) onPushState(st push.State) {
	s.post(func() { s.st.push = st })
}

// fail surfaces err as the view's error line.
func (s *Session) fail(err error) {
	if err == nil {
		return
	}
	s.post(func() { s.setError(err) })
}

func (s *Session) setError(err error) {
	s.st.err = errors.Message(err)
	s.st.errCode = errors.Code(err, "")
}

// touch republishes after a component outside the loop changed.
func (s *Session) touch() {
	s.post(func() {})
}

// --- user actions ---

// RequestRefresh schedules a debounced refresh.
func (s *Session) RequestRefresh(t refresh.Trigger) {
	s.orch.RequestRefresh(t)
}

// RefreshNow refreshes immediately, bypassing the debounce. It returns once
// the outcome is reflected in View.
func (s *Session) RefreshNow(ctx context.Context) error {
	err := s.orch.RefreshNow(ctx)
	s.settle()
	return err
}

// settle waits until every event queued so far has been applied and
// published. It must never be called from the loop.
func (s *Session) settle() {
	applied := make(chan struct{})
	s.post(func() { close(applied) })
	select {
	case <-applied:
	case <-s.done:
	}
}

// SelectZone sets the zone filter. Real-time samples are appended only
// while a specific zone is selected.
func (s *Session) SelectZone(zone string) {
	if zone == "" {
		zone = AllZones
	}
	s.post(func() { s.st.zone = zone })
}

// SetPaused pauses or resumes real-time tracking.
func (s *Session) SetPaused(paused bool) {
	s.post(func() { s.st.paused = paused })
}

// TogglePause flips real-time tracking.
func (s *Session) TogglePause() {
	s.post(func() { s.st.paused = !s.st.paused })
}

// SetRule switches the model-metrics decision rule and requests a refresh.
func (s *Session) SetRule(r sensor.DecisionRule) {
	s.orch.SetRule(r)
	s.post(func() { s.st.rule = r })
	s.orch.RequestRefresh(refresh.TriggerUser)
}

// LoadThresholds resyncs the working thresholds with the server.
func (s *Session) LoadThresholds(ctx context.Context) error {
	_, err := s.store.Load(ctx)
	s.afterAction(err)
	return err
}

// SuggestThreshold applies the server's suggestion for one metric.
func (s *Session) SuggestThreshold(ctx context.Context, m sensor.Metric) error {
	_, err := s.store.SuggestOne(ctx, m)
	s.afterAction(err)
	return err
}

// ApplySuggestions applies the server's suggestions for every metric.
func (s *Session) ApplySuggestions(ctx context.Context) error {
	_, err := s.store.ApplyAll(ctx)
	s.afterAction(err)
	return err
}

// SetThreshold edits one metric optimistically and persists it.
func (s *Session) SetThreshold(ctx context.Context, m sensor.Metric, v float64) error {
	_, err := s.store.SetOne(ctx, m, v)
	s.afterAction(err)
	return err
}

// Reconnect reopens the push subscription after a drop.
func (s *Session) Reconnect(ctx context.Context) error {
	if s.listener == nil {
		err := errors.New(errors.ErrConfig, "Live notifications are disabled",
			"Set push.transport to websocket or nats")
		s.fail(err)
		return err
	}
	return s.listener.Reconnect(ctx)
}

// Retrain asks the server to retrain the model, then requests a refresh.
func (s *Session) Retrain(ctx context.Context) error {
	status, err := s.client.Retrain(ctx)
	if err != nil {
		s.fail(err)
		return err
	}
	s.log.Debug("retrain: %s", status)
	s.onNotify(notify.NewEvent("Model retrain started", notify.Info, s.now()))
	s.orch.RequestRefresh(refresh.TriggerUser)
	return nil
}

// Seed inserts n synthetic rows, refreshes immediately and reports it.
func (s *Session) Seed(ctx context.Context, n int) error {
	if n <= 0 {
		n = DefaultSeedRows
	}
	inserted, err := s.client.Seed(ctx, n)
	if err != nil {
		s.fail(err)
		return err
	}
	_ = s.orch.RefreshNow(ctx)
	s.onNotify(notify.NewEvent(fmt.Sprintf("Generated %d synthetic readings", inserted), notify.Info, s.now()))
	return nil
}

// DismissNotification removes one notification from the history.
func (s *Session) DismissNotification(id string) {
	s.post(func() { s.feed.Dismiss(id) })
}

// ClearError hides the current error line.
func (s *Session) ClearError() {
	s.post(func() { s.st.err, s.st.errCode = "", "" })
}

// SyncHover highlights index on every chart other than origin.
func (s *Session) SyncHover(index int, origin hover.ChartID) {
	s.charts.Sync(index, origin)
	active := s.charts.Active()
	s.post(func() { s.st.hover = active })
}

// ClearHover removes the highlight from every chart other than origin.
func (s *Session) ClearHover(origin hover.ChartID) {
	s.charts.Clear(origin)
	active := s.charts.Active()
	s.post(func() { s.st.hover = active })
}

// HoverMarker returns the session's placeholder chart for id.
func (s *Session) HoverMarker(id hover.ChartID) *hover.Marker {
	return s.markers[id]
}

func (s *Session) afterAction(err error) {
	if err != nil {
		s.fail(err)
		return
	}
	s.touch()
}
