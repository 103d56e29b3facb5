package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/sensor"

	apitesting "github.com/ziris-labs/ziris/internal/api/testing"
)

func newTestClient(t *testing.T, opts ...Option) (*Client, *apitesting.FakeBackend) {
	t.Helper()
	fb := apitesting.NewFakeBackend()
	t.Cleanup(fb.Close)
	opts = append([]Option{WithLogger(logger.Noop())}, opts...)
	return New(fb.URL()+"/", opts...), fb
}

func TestClient_LoginStoresToken(t *testing.T) {
	c, fb := newTestClient(t)
	fb.RequireToken("abc")

	_, err := c.Summary(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAuth))

	resp, err := c.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.AccessToken)
	assert.Equal(t, "abc", c.Token())

	s, err := c.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, s.TotalSensors)
}

func TestClient_LoginRejected(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAuth))
	assert.Contains(t, errors.Message(err), "Invalid credentials")
	assert.Empty(t, c.Token())
}

func TestClient_Logout(t *testing.T) {
	c, fb := newTestClient(t)
	_, err := c.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.Token())
	assert.Equal(t, 1, fb.Calls("/auth/logout"))
}

func TestClient_ReadEndpoints(t *testing.T) {
	c, fb := newTestClient(t, WithToken("t"))
	ctx := context.Background()

	recs, err := c.Recommendations(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Zone A", recs[0].Zone)

	m, err := c.ModelMetrics(ctx, sensor.RuleK3)
	require.NoError(t, err)
	assert.Equal(t, 0.9, m.Accuracy)
	assert.Equal(t, []string{"k3"}, fb.Rules())

	u, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
}

func TestClient_Thresholds(t *testing.T) {
	c, fb := newTestClient(t)
	ctx := context.Background()

	th, err := c.Thresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, sensor.DefaultThresholds(), th)

	saved, err := c.SaveThresholds(ctx, sensor.Thresholds{Temp: 50, Pressure: -1, Vibration: 3, Smoke: 4})
	require.NoError(t, err)
	assert.Equal(t, 0.0, saved.Pressure)
	assert.Equal(t, 50.0, fb.Thresholds().Temp)

	sugg, err := c.SuggestThresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45.2, sugg["temp"])
}

func TestClient_SaveThresholdsFailureIsPersistError(t *testing.T) {
	c, fb := newTestClient(t)
	fb.Fail("/thresholds", http.StatusInternalServerError)

	_, err := c.SaveThresholds(context.Background(), sensor.DefaultThresholds())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrPersist))
	assert.Contains(t, errors.Message(err), "injected failure")
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
	}{
		{"unauthorized", http.StatusUnauthorized, errors.ErrAuth},
		{"forbidden", http.StatusForbidden, errors.ErrAuth},
		{"server error", http.StatusBadGateway, errors.ErrNetwork},
		{"not found", http.StatusNotFound, errors.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fb := newTestClient(t)
			fb.Fail("/dashboard/data", tt.status)

			_, err := c.Summary(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code))
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	c, fb := newTestClient(t, WithTimeout(50*time.Millisecond))
	fb.Delay("/dashboard/data", 300*time.Millisecond)

	_, err := c.Summary(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNetwork))
}

func TestClient_Actions(t *testing.T) {
	c, fb := newTestClient(t)
	ctx := context.Background()

	status, err := c.Retrain(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, status)
	assert.Equal(t, 1, fb.Retrained())

	n, err := c.Seed(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Equal(t, 25, fb.Seeded())
}

func TestClient_Jobs(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	started, err := c.StartSeedJob(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, sensor.JobQueued, started.Status)

	_, err = c.StartRetrainJob(ctx)
	require.NoError(t, err)

	jobs, err := c.Jobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	j, err := c.Job(ctx, started.JobID)
	require.NoError(t, err)
	assert.Equal(t, "seed", j.Type)
	assert.False(t, j.CreatedAt.IsZero())

	_, err = c.Job(ctx, "missing")
	assert.Error(t, err)
}

func TestClient_PushURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		path    string
		want    string
		wantErr bool
	}{
		{"http to ws", "http://host:8000", "/ws/notifications", "ws://host:8000/ws/notifications?token=tok", false},
		{"https to wss", "https://host/api/", "ws/notifications", "wss://host/api/ws/notifications?token=tok", false},
		{"default path", "http://host", "", "ws://host/ws/notifications?token=tok", false},
		{"invalid url", "http://[::1", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.base, WithToken("tok"))
			got, err := c.PushURL(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://host:8000///")
	assert.False(t, strings.HasSuffix(c.BaseURL(), "/"))
}
