// Package sensor holds the domain types shared by every ziris component:
// metrics, samples, thresholds and the payloads returned by the monitoring API.
package sensor

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Metric identifies one of the four measured channels.
type Metric int

const (
	Temp Metric = iota
	Pressure
	Vibration
	Smoke
)

// Metrics lists every channel in display order.
var Metrics = []Metric{Temp, Pressure, Vibration, Smoke}

// String returns the canonical metric name.
func (m Metric) String() string {
	switch m {
	case Temp:
		return "temp"
	case Pressure:
		return "pressure"
	case Vibration:
		return "vibration"
	case Smoke:
		return "smoke"
	default:
		return "unknown"
	}
}

// Key returns the field name used on the wire by the monitoring API.
func (m Metric) Key() string {
	switch m {
	case Temp:
		return "temp"
	case Pressure:
		return "press"
	case Vibration:
		return "vib"
	case Smoke:
		return "fumee"
	default:
		return ""
	}
}

// Label returns a human-readable label.
func (m Metric) Label() string {
	switch m {
	case Temp:
		return "Temperature"
	case Pressure:
		return "Pressure"
	case Vibration:
		return "Vibration"
	case Smoke:
		return "Smoke"
	default:
		return "Unknown"
	}
}

// Unit returns the measurement unit.
func (m Metric) Unit() string {
	switch m {
	case Temp:
		return "°C"
	case Pressure:
		return "bar"
	case Vibration:
		return "mm/s"
	case Smoke:
		return "ppm"
	default:
		return ""
	}
}

// ParseMetric accepts either the canonical name or the wire key.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "temp", "temperature":
		return Temp, nil
	case "press", "pressure":
		return Pressure, nil
	case "vib", "vibration":
		return Vibration, nil
	case "fumee", "smoke":
		return Smoke, nil
	}
	return 0, fmt.Errorf("unknown metric %q (want temp, pressure, vibration or smoke)", s)
}

// Sample is one reading of all four channels. Immutable once appended.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Temp      float64   `json:"temp"`
	Pressure  float64   `json:"press"`
	Vibration float64   `json:"vib"`
	Smoke     float64   `json:"fumee"`
}

// Value returns the reading for one channel.
func (s Sample) Value(m Metric) float64 {
	switch m {
	case Temp:
		return s.Temp
	case Pressure:
		return s.Pressure
	case Vibration:
		return s.Vibration
	case Smoke:
		return s.Smoke
	default:
		return 0
	}
}

// ZoneStats aggregates the sensors of one zone.
type ZoneStats struct {
	Total     int     `json:"total"`
	Anomalies int     `json:"anomalies"`
	Temp      float64 `json:"temp"`
	Pressure  float64 `json:"press"`
	Vibration float64 `json:"vib"`
	Smoke     float64 `json:"fumee"`
}

// Sample converts the zone averages into a sample stamped at ts.
func (z ZoneStats) Sample(ts time.Time) Sample {
	return Sample{
		Timestamp: ts,
		Temp:      z.Temp,
		Pressure:  z.Pressure,
		Vibration: z.Vibration,
		Smoke:     z.Smoke,
	}
}

// Summary is the dashboard summary payload.
type Summary struct {
	TotalSensors int                  `json:"total_sensors"`
	Anomalies    int                  `json:"anomalies"`
	Zones        map[string]ZoneStats `json:"zones"`
	LastUpdate   string               `json:"last_update,omitempty"`
}

// ZoneNames returns the zone names sorted alphabetically.
func (s *Summary) ZoneNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Zones))
	for name := range s.Zones {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LastUpdateTime parses LastUpdate. Returns false when absent or malformed.
func (s *Summary) LastUpdateTime() (time.Time, bool) {
	if s == nil || s.LastUpdate == "" {
		return time.Time{}, false
	}
	t, err := ParseTime(s.LastUpdate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Recommendation priorities as emitted by the API.
const (
	PriorityCritical = "critique"
	PriorityHigh     = "élevée"
	PriorityNormal   = "normale"
)

// Recommendation is one anomaly recommendation.
type Recommendation struct {
	ID             int      `json:"id"`
	Zone           string   `json:"zone"`
	RiskArea       string   `json:"risk_area"`
	Timestamp      string   `json:"timestamp"`
	Reasons        []string `json:"reasons"`
	Priority       string   `json:"priority"`
	Recommendation string   `json:"recommendation"`
}

// ModelMetrics describes the predictive model's accuracy for a decision rule.
type ModelMetrics struct {
	Accuracy   float64   `json:"accuracy"`
	MSE        float64   `json:"mse"`
	Prediction []float64 `json:"prediction"`
	TP         int       `json:"tp"`
	FP         int       `json:"fp"`
	TN         int       `json:"tn"`
	FN         int       `json:"fn"`
	Precision  float64   `json:"precision"`
	Recall     float64   `json:"recall"`
	F1         float64   `json:"f1"`
}

// DecisionRule converts per-metric breaches into one anomaly classification.
type DecisionRule string

const (
	RuleAny DecisionRule = "any"
	RuleK2  DecisionRule = "k2"
	RuleK3  DecisionRule = "k3"
	RuleK4  DecisionRule = "k4"
)

// Rules lists the supported decision rules.
var Rules = []DecisionRule{RuleAny, RuleK2, RuleK3, RuleK4}

// ParseRule validates a decision rule name.
func ParseRule(s string) (DecisionRule, error) {
	r := DecisionRule(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Rules {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown decision rule %q (want any, k2, k3 or k4)", s)
}

// Next cycles to the following rule.
func (r DecisionRule) Next() DecisionRule {
	for i, known := range Rules {
		if r == known {
			return Rules[(i+1)%len(Rules)]
		}
	}
	return RuleK2
}
