package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ziris-labs/ziris/internal/push"
)

// newSessionCollectors returns metrics read from the session at scrape time.
func newSessionCollectors(s Surface) []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ziris_sensors",
			Help: "Sensors in the selected zone filter, from the last applied snapshot.",
		}, func() float64 {
			sensors, _ := s.View().Totals()
			return float64(sensors)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ziris_anomalies",
			Help: "Anomalous sensors in the selected zone filter.",
		}, func() float64 {
			_, anomalies := s.View().Totals()
			return float64(anomalies)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ziris_series_samples",
			Help: "Samples held in the real-time series buffer.",
		}, func() float64 {
			return float64(s.View().Series.Len())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ziris_push_connected",
			Help: "1 when the live notification channel is open.",
		}, func() float64 {
			if s.View().Push == push.StateOpen {
				return 1
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ziris_last_refresh_timestamp_seconds",
			Help: "Unix time of the last applied refresh, 0 before the first.",
		}, func() float64 {
			t := s.View().LastRefresh
			if t.IsZero() {
				return 0
			}
			return float64(t.UnixNano()) / 1e9
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "ziris_refresh_requests_total",
			Help: "Debounced refresh requests.",
		}, func() float64 {
			return float64(s.Stats().Requested)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "ziris_refresh_fanouts_total",
			Help: "Fetch fan-outs started.",
		}, func() float64 {
			return float64(s.Stats().Fanouts)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "ziris_refresh_failures_total",
			Help: "Fetch fan-outs that failed.",
		}, func() float64 {
			return float64(s.Stats().Failures)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "ziris_push_messages_total",
			Help: "Messages received on the live notification channel.",
		}, func() float64 {
			return float64(s.PushReceived())
		}),
	}
}
