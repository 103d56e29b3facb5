package relay

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziris-labs/ziris/internal/dashboard"
	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/notify"
	"github.com/ziris-labs/ziris/internal/refresh"
	"github.com/ziris-labs/ziris/internal/sensor"
)

type recordingSink struct {
	name     string
	fail     error
	messages []Message
	closed   bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, m Message) error {
	if s.fail != nil {
		return s.fail
	}
	s.messages = append(s.messages, m)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func view(seq uint64, notes ...notify.Event) dashboard.View {
	return dashboard.View{
		Seq:  seq,
		Zone: "Zone A",
		Rule: sensor.RuleK2,
		Snapshot: &refresh.Snapshot{
			Summary: &sensor.Summary{TotalSensors: int(seq)},
		},
		Thresholds:    sensor.DefaultThresholds(),
		Notifications: notes,
	}
}

func TestNewMessage(t *testing.T) {
	v := view(3, notify.NewEvent("hello", notify.Info, time.Now()))
	v.Error = "Failed to refresh dashboard: boom"

	m := NewMessage(v)
	assert.Equal(t, uint64(3), m.Seq)
	assert.Equal(t, 3, m.Summary.TotalSensors)
	assert.Nil(t, m.Metrics)
	assert.Len(t, m.Notifications, 1)
	assert.Equal(t, v.Error, m.Error)

	key, payload, err := m.Encode()
	require.NoError(t, err)
	assert.Equal(t, "Zone A", key)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "k2", decoded["rule"])
	assert.Contains(t, decoded, "thresholds")

	empty := NewMessage(dashboard.View{Zone: "all"})
	assert.Nil(t, empty.Summary)
}

func TestRelay_ForwardsOnlyChanges(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	r := New(logger.Noop(), sink)
	ctx := context.Background()

	assert.True(t, r.Forward(ctx, view(1)))
	assert.False(t, r.Forward(ctx, view(1)), "hover or pause changes are not relayed")
	assert.True(t, r.Forward(ctx, view(2)))

	e := notify.NewEvent("pushed", notify.Warning, time.Now())
	assert.True(t, r.Forward(ctx, view(2, e)), "a new notification is relayed")
	assert.False(t, r.Forward(ctx, view(2, e)))

	require.Len(t, sink.messages, 3)
	assert.Equal(t, uint64(2), sink.messages[2].Seq)
	published, failed := r.Counts()
	assert.Equal(t, 3, published)
	assert.Zero(t, failed)
}

func TestRelay_SinkFailureDoesNotStopOthers(t *testing.T) {
	log := logger.NewBufferLogger()
	bad := &recordingSink{name: "bad", fail: stderrors.New("down")}
	good := &recordingSink{name: "good"}
	r := New(log, bad, good)

	r.Forward(context.Background(), view(1))

	assert.Len(t, good.messages, 1)
	published, failed := r.Counts()
	assert.Equal(t, 1, published)
	assert.Equal(t, 1, failed)
	assert.True(t, log.HasLevel("warn"))

	require.NoError(t, r.Close())
	assert.True(t, bad.closed)
	assert.True(t, good.closed)
}

func TestRelay_Run(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	r := New(logger.Noop(), sink)

	views := make(chan dashboard.View, 3)
	views <- view(1)
	views <- view(1)
	views <- view(2)
	close(views)

	require.NoError(t, r.Run(context.Background(), views))
	assert.Len(t, sink.messages, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx, make(chan dashboard.View)))
}

func TestRedis_Unreachable(t *testing.T) {
	r := NewRedis("127.0.0.1:1", "ziris:view")
	defer r.Close()
	assert.Equal(t, "redis", r.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := r.Publish(ctx, NewMessage(view(1)))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNetwork))

	err = r.Ping(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestNewKafka(t *testing.T) {
	k := NewKafka([]string{"localhost:9092"}, "ziris.views")
	assert.Equal(t, "kafka", k.Name())
	assert.Equal(t, "ziris.views", k.writer.Topic)
	assert.Equal(t, "localhost:9092", k.writer.Addr.String())
}
