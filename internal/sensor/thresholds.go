package sensor

// Thresholds holds the per-metric alert boundaries. Values are never negative.
type Thresholds struct {
	Temp      float64 `json:"temp" mapstructure:"temp" yaml:"temp"`
	Pressure  float64 `json:"press" mapstructure:"press" yaml:"press"`
	Vibration float64 `json:"vib" mapstructure:"vib" yaml:"vib"`
	Smoke     float64 `json:"fumee" mapstructure:"fumee" yaml:"fumee"`
}

// DefaultThresholds returns the fallback used before the server answers.
func DefaultThresholds() Thresholds {
	return Thresholds{Temp: 80, Pressure: 8, Vibration: 15, Smoke: 200}
}

// Get returns the threshold for one metric.
func (t Thresholds) Get(m Metric) float64 {
	switch m {
	case Temp:
		return t.Temp
	case Pressure:
		return t.Pressure
	case Vibration:
		return t.Vibration
	case Smoke:
		return t.Smoke
	default:
		return 0
	}
}

// With returns a copy with one metric replaced. Negative values clamp to zero.
func (t Thresholds) With(m Metric, v float64) Thresholds {
	if v < 0 {
		v = 0
	}
	switch m {
	case Temp:
		t.Temp = v
	case Pressure:
		t.Pressure = v
	case Vibration:
		t.Vibration = v
	case Smoke:
		t.Smoke = v
	}
	return t
}

// Clamped returns a copy with every negative value raised to zero.
func (t Thresholds) Clamped() Thresholds {
	for _, m := range Metrics {
		t = t.With(m, t.Get(m))
	}
	return t
}

// Exceeds reports whether v is strictly above the metric's threshold.
func (t Thresholds) Exceeds(m Metric, v float64) bool {
	return v > t.Get(m)
}
