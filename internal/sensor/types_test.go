package sensor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	tests := []struct {
		input   string
		want    Metric
		wantErr bool
	}{
		{input: "temp", want: Temp},
		{input: "Temperature", want: Temp},
		{input: "press", want: Pressure},
		{input: " pressure ", want: Pressure},
		{input: "vib", want: Vibration},
		{input: "fumee", want: Smoke},
		{input: "smoke", want: Smoke},
		{input: "humidity", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMetric(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMetric_KeysRoundTrip(t *testing.T) {
	for _, m := range Metrics {
		got, err := ParseMetric(m.Key())
		require.NoError(t, err)
		assert.Equal(t, m, got)

		got, err = ParseMetric(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestSample_Value(t *testing.T) {
	s := Sample{Temp: 1, Pressure: 2, Vibration: 3, Smoke: 4}
	assert.Equal(t, 1.0, s.Value(Temp))
	assert.Equal(t, 2.0, s.Value(Pressure))
	assert.Equal(t, 3.0, s.Value(Vibration))
	assert.Equal(t, 4.0, s.Value(Smoke))
	assert.Equal(t, 0.0, s.Value(Metric(42)))
}

func TestThresholds(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, Thresholds{Temp: 80, Pressure: 8, Vibration: 15, Smoke: 200}, th)

	updated := th.With(Pressure, 9.5)
	assert.Equal(t, 9.5, updated.Get(Pressure))
	assert.Equal(t, 8.0, th.Get(Pressure), "With must not mutate the receiver")

	assert.Equal(t, 0.0, th.With(Temp, -3).Get(Temp))

	neg := Thresholds{Temp: -1, Pressure: 2, Vibration: -5, Smoke: 4}.Clamped()
	assert.Equal(t, Thresholds{Temp: 0, Pressure: 2, Vibration: 0, Smoke: 4}, neg)

	assert.True(t, th.Exceeds(Temp, 80.1))
	assert.False(t, th.Exceeds(Temp, 80))
}

func TestThresholds_JSONKeys(t *testing.T) {
	var th Thresholds
	require.NoError(t, json.Unmarshal([]byte(`{"temp":70,"press":6,"vib":12,"fumee":150}`), &th))
	assert.Equal(t, Thresholds{Temp: 70, Pressure: 6, Vibration: 12, Smoke: 150}, th)
}

func TestSummary_ZoneNamesAndLastUpdate(t *testing.T) {
	var s Summary
	payload := `{
		"total_sensors": 12,
		"anomalies": 2,
		"zones": {"Zone B": {"total": 6}, "Zone A": {"total": 6, "temp": 71.5}},
		"last_update": "2024-05-01T10:15:30.123456"
	}`
	require.NoError(t, json.Unmarshal([]byte(payload), &s))

	assert.Equal(t, []string{"Zone A", "Zone B"}, s.ZoneNames())
	assert.Equal(t, 71.5, s.Zones["Zone A"].Temp)

	ts, ok := s.LastUpdateTime()
	require.True(t, ok)
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 15, ts.Minute())

	var empty *Summary
	assert.Nil(t, empty.ZoneNames())
	_, ok = empty.LastUpdateTime()
	assert.False(t, ok)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "2024-05-01T10:15:30Z"},
		{input: "2024-05-01T10:15:30.5+02:00"},
		{input: "2024-05-01T10:15:30.123456"},
		{input: "2024-05-01 10:15:30"},
		{input: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseTime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJob_DecodesNaiveTimestamps(t *testing.T) {
	var j Job
	payload := `{"id":"abc","type":"seed","status":"running","progress":40,
		"created_at":"2024-05-01T10:15:30.000001","updated_at":null}`
	require.NoError(t, json.Unmarshal([]byte(payload), &j))

	assert.Equal(t, JobRunning, j.Status)
	assert.False(t, j.Status.Done())
	assert.Equal(t, time.Date(2024, 5, 1, 10, 15, 30, 1000, time.UTC), j.CreatedAt.Time)
	assert.True(t, j.UpdatedAt.IsZero())
}

func TestParseRule(t *testing.T) {
	r, err := ParseRule("K3")
	require.NoError(t, err)
	assert.Equal(t, RuleK3, r)

	_, err = ParseRule("k9")
	assert.Error(t, err)

	assert.Equal(t, RuleK2, RuleAny.Next())
	assert.Equal(t, RuleAny, RuleK4.Next())
	assert.Equal(t, RuleK2, DecisionRule("bogus").Next())
}

func TestZoneStats_Sample(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	z := ZoneStats{Temp: 1, Pressure: 2, Vibration: 3, Smoke: 4}
	s := z.Sample(ts)
	assert.Equal(t, ts, s.Timestamp)
	assert.Equal(t, 4.0, s.Smoke)
}
