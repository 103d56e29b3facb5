package dashboard

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziris-labs/ziris/internal/api"
	apitesting "github.com/ziris-labs/ziris/internal/api/testing"
	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/hover"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/notify"
	"github.com/ziris-labs/ziris/internal/push"
	pushtesting "github.com/ziris-labs/ziris/internal/push/testing"
	"github.com/ziris-labs/ziris/internal/refresh"
	"github.com/ziris-labs/ziris/internal/sensor"
)

const (
	testDebounce = 40 * time.Millisecond
	waitFor      = 2 * time.Second
	tick         = 5 * time.Millisecond
)

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      1,
		"username": "operator",
		"role":     "admin",
		"exp":      exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

type harness struct {
	backend   *apitesting.FakeBackend
	transport *pushtesting.FakeTransport
	session   *Session
}

func newHarness(t *testing.T, cfg Config, withPush bool) *harness {
	t.Helper()
	backend := apitesting.NewFakeBackend()
	t.Cleanup(backend.Close)

	if cfg.Token == "" {
		cfg.Token = signToken(t, time.Now().Add(time.Hour))
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = testDebounce
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	client := api.New(backend.URL(), api.WithToken(cfg.Token))

	h := &harness{backend: backend}
	var transport push.Transport
	if withPush {
		h.transport = pushtesting.NewFakeTransport()
		transport = h.transport
	}
	h.session = New(client, transport, cfg, WithLogger(logger.Noop()))
	t.Cleanup(h.session.Close)
	return h
}

// flush returns once every event queued so far has been applied and
// published.
func flush(s *Session) {
	done := make(chan struct{})
	s.post(func() { close(done) })
	<-done
}

// summaryCalls counts fan-outs; every fan-out fetches the summary once.
func (h *harness) summaryCalls() int {
	return h.backend.Calls("/dashboard/data")
}

func (h *harness) waitView(t *testing.T, cond func(View) bool, msg string) View {
	t.Helper()
	var v View
	require.Eventually(t, func() bool {
		v = h.session.View()
		return cond(v)
	}, waitFor, tick, msg)
	return v
}

func TestSession_StartLoadsEverything(t *testing.T) {
	h := newHarness(t, Config{}, true)
	require.NoError(t, h.session.Start(context.Background()))

	v := h.waitView(t, func(v View) bool { return v.Snapshot != nil }, "first refresh")
	assert.Equal(t, "operator", v.User.Username)
	assert.Equal(t, 10, v.Snapshot.Summary.TotalSensors)
	assert.Len(t, v.Snapshot.Recommendations, 1)
	assert.Equal(t, sensor.RuleK2, v.Snapshot.Rule)
	assert.Empty(t, v.Error)
	assert.Equal(t, []string{"Zone A"}, v.Zones())

	h.waitView(t, func(v View) bool { return v.Push == push.StateOpen }, "push open")
	assert.Equal(t, 1, h.backend.Calls("/thresholds"))
}

func TestSession_ExpiredTokenBlocksStart(t *testing.T) {
	h := newHarness(t, Config{Token: signToken(t, time.Now().Add(-time.Minute))}, true)

	err := h.session.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAuth))

	v := h.waitView(t, func(v View) bool { return v.Error != "" }, "auth error shown")
	assert.Equal(t, errors.ErrAuth, v.ErrorCode)

	time.Sleep(3 * testDebounce)
	assert.Zero(t, h.summaryCalls(), "nothing is fetched without a valid token")
	assert.Zero(t, h.transport.DialCount())
}

func TestSession_TriggerBurstCoalesces(t *testing.T) {
	h := newHarness(t, Config{Debounce: 100 * time.Millisecond}, true)
	require.NoError(t, h.session.Start(context.Background()))
	h.waitView(t, func(v View) bool { return v.Snapshot != nil }, "initial refresh")
	require.Equal(t, 1, h.summaryCalls())
	h.waitView(t, func(v View) bool { return v.Push == push.StateOpen }, "push open")

	// A timer tick, a pushed notification and a retrain inside one window.
	h.session.RequestRefresh(refresh.TriggerTimer)
	h.transport.Last().Deliver(`{"message":"Zone A anomaly"}`)
	require.NoError(t, h.session.Retrain(context.Background()))

	require.Eventually(t, func() bool { return h.summaryCalls() == 2 }, waitFor, tick)
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, 2, h.summaryCalls(), "three triggers inside one window give one fan-out")
	assert.Equal(t, 1, h.backend.Retrained())
}

func TestSession_PartialFailureKeepsSnapshot(t *testing.T) {
	h := newHarness(t, Config{}, false)
	require.NoError(t, h.session.Start(context.Background()))
	first := h.waitView(t, func(v View) bool { return v.Snapshot != nil }, "initial refresh")

	h.backend.Fail("/sensor/recommendations", http.StatusUnauthorized)
	err := h.session.RefreshNow(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAuth))

	v := h.waitView(t, func(v View) bool { return v.Error != "" }, "error shown")
	assert.Same(t, first.Snapshot, v.Snapshot, "previous snapshot stays intact")
	assert.Equal(t, first.Seq, v.Seq)
	assert.Equal(t, errors.ErrAuth, v.ErrorCode)
	assert.Contains(t, v.Error, "Failed to refresh dashboard")

	h.backend.ClearFailures()
	require.NoError(t, h.session.RefreshNow(context.Background()))
	v = h.waitView(t, func(v View) bool { return v.Error == "" }, "error cleared")
	assert.Greater(t, v.Seq, first.Seq)
}

func TestSession_PushMessageNotifiesAndRefreshes(t *testing.T) {
	h := newHarness(t, Config{}, true)
	require.NoError(t, h.session.Start(context.Background()))
	h.waitView(t, func(v View) bool { return v.Snapshot != nil && v.Push == push.StateOpen }, "ready")
	before := h.summaryCalls()

	h.transport.Last().Deliver(`{"message":"Alerte critique en Zone B"}`)

	v := h.waitView(t, func(v View) bool { return len(v.Notifications) == 1 }, "notification shown")
	assert.Equal(t, notify.Danger, v.Notifications[0].Level)
	assert.Equal(t, "Alerte critique en Zone B", v.Notifications[0].Message)
	require.Eventually(t, func() bool { return h.summaryCalls() == before+1 }, waitFor, tick)
	assert.EqualValues(t, 1, h.session.PushReceived())

	h.session.DismissNotification(v.Notifications[0].ID)
	h.waitView(t, func(v View) bool { return len(v.Notifications) == 0 }, "dismissed")
}

func TestSession_PushDropShowsErrorAndReconnects(t *testing.T) {
	h := newHarness(t, Config{}, true)
	require.NoError(t, h.session.Start(context.Background()))
	h.waitView(t, func(v View) bool { return v.Push == push.StateOpen }, "open")

	h.transport.Last().Drop(nil)
	v := h.waitView(t, func(v View) bool { return v.Push == push.StateClosed && v.Error != "" }, "drop shown")
	assert.Equal(t, errors.ErrPush, v.ErrorCode)

	require.NoError(t, h.session.Reconnect(context.Background()))
	h.waitView(t, func(v View) bool { return v.Push == push.StateOpen }, "reopened")
	assert.Equal(t, 2, h.transport.DialCount())
}

func TestSession_ReconnectWithoutPush(t *testing.T) {
	h := newHarness(t, Config{}, false)
	err := h.session.Reconnect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Equal(t, push.StateClosed, h.session.PushState())
}

func TestSession_ZoneSamplesAppendUnlessPaused(t *testing.T) {
	h := newHarness(t, Config{Zone: "Zone A"}, false)
	h.backend.SetSummaryFunc(func(call int) sensor.Summary {
		return sensor.Summary{
			TotalSensors: 1,
			Zones:        map[string]sensor.ZoneStats{"Zone A": {Total: 1, Temp: float64(60 + call)}},
		}
	})
	require.NoError(t, h.session.Start(context.Background()))
	h.waitView(t, func(v View) bool { return v.Series.Len() == 1 }, "first sample")

	require.NoError(t, h.session.RefreshNow(context.Background()))
	v := h.waitView(t, func(v View) bool { return v.Series.Len() == 2 }, "second sample")
	assert.Equal(t, []float64{61, 62}, v.Series.Temp)
	assert.Len(t, v.Series.Timestamps, 2)

	h.session.SetPaused(true)
	h.waitView(t, func(v View) bool { return v.Paused }, "paused")
	require.NoError(t, h.session.RefreshNow(context.Background()))
	v = h.waitView(t, func(v View) bool { return v.Snapshot.Summary.Zones["Zone A"].Temp == 63 }, "paused refresh")
	assert.Equal(t, 2, v.Series.Len(), "paused sessions do not append")

	h.session.SelectZone(AllZones)
	h.session.SetPaused(false)
	require.NoError(t, h.session.RefreshNow(context.Background()))
	v = h.waitView(t, func(v View) bool { return v.Snapshot.Summary.Zones["Zone A"].Temp == 64 }, "all-zones refresh")
	assert.Equal(t, 2, v.Series.Len(), "the all-zones filter does not append")
}

func TestSession_UnknownZoneSkipsAppend(t *testing.T) {
	h := newHarness(t, Config{Zone: "Zone Z"}, false)
	require.NoError(t, h.session.Start(context.Background()))
	v := h.waitView(t, func(v View) bool { return v.Snapshot != nil }, "refresh")
	assert.Zero(t, v.Series.Len())
	sensors, anomalies := v.Totals()
	assert.Zero(t, sensors)
	assert.Zero(t, anomalies)
}

func TestSession_OrderGuardDropsStaleResult(t *testing.T) {
	h := newHarness(t, Config{OrderGuard: true}, false)
	h.backend.SetSummaryFunc(func(call int) sensor.Summary {
		return sensor.Summary{TotalSensors: call}
	})
	// First fan-out is slow, second is fast.
	h.backend.Delay("/dashboard/data", 300*time.Millisecond)

	ctx := context.Background()
	slow := make(chan error, 1)
	go func() { slow <- h.session.RefreshNow(ctx) }()
	require.Eventually(t, func() bool { return h.summaryCalls() == 1 }, waitFor, tick)
	require.NoError(t, h.session.RefreshNow(ctx))
	require.NoError(t, <-slow)

	flush(h.session)
	v := h.session.View()
	require.NotNil(t, v.Snapshot)
	assert.Equal(t, uint64(2), v.Seq, "the older fan-out must not overwrite the newer one")
	assert.Equal(t, 2, v.Snapshot.Summary.TotalSensors)
}

func TestSession_RuleChangeRefetches(t *testing.T) {
	h := newHarness(t, Config{}, false)
	require.NoError(t, h.session.Start(context.Background()))
	h.waitView(t, func(v View) bool { return v.Snapshot != nil }, "initial")

	h.session.SetRule(sensor.RuleK4)
	v := h.waitView(t, func(v View) bool {
		return v.Snapshot != nil && v.Snapshot.Rule == sensor.RuleK4
	}, "refetched with new rule")
	assert.Equal(t, sensor.RuleK4, v.Rule)
	assert.Contains(t, h.backend.Rules(), "k4")
}

func TestSession_ThresholdActions(t *testing.T) {
	h := newHarness(t, Config{}, false)
	ctx := context.Background()
	require.NoError(t, h.session.Start(ctx))
	h.waitView(t, func(v View) bool { return v.Snapshot != nil }, "initial")

	require.NoError(t, h.session.SuggestThreshold(ctx, sensor.Temp))
	v := h.waitView(t, func(v View) bool { return v.Thresholds.Temp == 45.2 }, "temp suggested")
	assert.Equal(t, 8.0, v.Thresholds.Pressure)
	assert.Equal(t, 45.2, h.backend.Thresholds().Temp)
	h.waitView(t, func(v View) bool { return len(v.Notifications) == 1 }, "update notified")

	require.NoError(t, h.session.SetThreshold(ctx, sensor.Smoke, 300))
	h.waitView(t, func(v View) bool { return v.Thresholds.Smoke == 300 }, "smoke set")

	h.backend.Fail("/thresholds", http.StatusInternalServerError)
	err := h.session.SetThreshold(ctx, sensor.Vibration, 1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrPersist))
	v = h.waitView(t, func(v View) bool { return v.ErrorCode == errors.ErrPersist }, "persist error")
	assert.Equal(t, 1.0, v.Thresholds.Vibration, "optimistic edits are not rolled back")
}

func TestSession_SeedRefreshesAndNotifies(t *testing.T) {
	h := newHarness(t, Config{}, false)
	require.NoError(t, h.session.Start(context.Background()))
	h.waitView(t, func(v View) bool { return v.Snapshot != nil }, "initial")
	before := h.summaryCalls()

	require.NoError(t, h.session.Seed(context.Background(), 25))
	assert.Equal(t, 25, h.backend.Seeded())
	assert.Equal(t, before+1, h.summaryCalls(), "seeding refreshes immediately")
	v := h.waitView(t, func(v View) bool { return len(v.Notifications) == 1 }, "seed notified")
	assert.Equal(t, notify.Info, v.Notifications[0].Level)
}

func TestSession_HoverSync(t *testing.T) {
	h := newHarness(t, Config{}, false)
	require.NoError(t, h.session.Start(context.Background()))
	h.waitView(t, func(v View) bool { return v.Snapshot != nil }, "initial")

	h.session.SyncHover(3, hover.Sensor)
	v := h.waitView(t, func(v View) bool { return v.Hover.Valid }, "hover set")
	assert.Equal(t, hover.Sensor, v.Hover.Origin)

	idx, ok := h.session.HoverMarker(hover.Overview).ActiveIndex()
	require.True(t, ok)
	assert.Equal(t, 1, idx, "clamped to the overview's two bars")
	_, ok = h.session.HoverMarker(hover.Sensor).ActiveIndex()
	assert.False(t, ok, "the origin chart is left alone")
	_, ok = h.session.HoverMarker(hover.Realtime).ActiveIndex()
	assert.False(t, ok, "empty charts are skipped")

	h.session.ClearHover(hover.Sensor)
	h.waitView(t, func(v View) bool { return !v.Hover.Valid }, "hover cleared")
	_, ok = h.session.HoverMarker(hover.Overview).ActiveIndex()
	assert.False(t, ok)
}

func TestSession_SubscribeAndClose(t *testing.T) {
	h := newHarness(t, Config{}, true)
	views, cancel := h.session.Subscribe()
	defer cancel()

	first := <-views
	assert.Nil(t, first.Snapshot)

	require.NoError(t, h.session.Start(context.Background()))
	deadline := time.After(waitFor)
wait:
	for {
		select {
		case v := <-views:
			if v.Snapshot != nil {
				break wait
			}
		case <-deadline:
			t.Fatal("no refreshed view published")
		}
	}
	h.waitView(t, func(v View) bool { return v.Push == push.StateOpen }, "open")
	conn := h.transport.Last()

	h.session.Close()
	assert.True(t, conn.IsClosed())
	for range views {
		// drain until the channel is closed
	}

	late, _ := h.session.Subscribe()
	_, ok := <-late
	assert.False(t, ok)
}

func TestSession_RefreshNowAppliesBeforeReturning(t *testing.T) {
	h := newHarness(t, Config{}, false)
	require.NoError(t, h.session.Start(context.Background()))
	h.waitView(t, func(v View) bool { return v.Snapshot != nil }, "initial refresh")

	for i := 0; i < 10; i++ {
		before := h.session.View().Seq
		require.NoError(t, h.session.RefreshNow(context.Background()))
		assert.Equal(t, before+1, h.session.View().Seq, "refresh %d", i)
	}
}
