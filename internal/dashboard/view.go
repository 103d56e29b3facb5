package dashboard

import (
	"time"

	"github.com/ziris-labs/ziris/internal/api"
	"github.com/ziris-labs/ziris/internal/hover"
	"github.com/ziris-labs/ziris/internal/notify"
	"github.com/ziris-labs/ziris/internal/push"
	"github.com/ziris-labs/ziris/internal/refresh"
	"github.com/ziris-labs/ziris/internal/sensor"
	"github.com/ziris-labs/ziris/internal/series"
)

// AllZones is the zone filter that selects every zone.
const AllZones = "all"

// View is an immutable copy of everything the rendering layer shows.
// Slices and pointers in a View are never mutated after publication.
type View struct {
	Version uint64 `json:"version"`

	Snapshot    *refresh.Snapshot `json:"snapshot,omitempty"`
	Seq         uint64            `json:"seq"`
	LastRefresh time.Time         `json:"last_refresh"`

	Series        series.Contents     `json:"series"`
	Notifications []notify.Event      `json:"notifications"`
	Thresholds    sensor.Thresholds   `json:"thresholds"`
	Zone          string              `json:"zone"`
	Paused        bool                `json:"paused"`
	Rule          sensor.DecisionRule `json:"rule"`
	Push          push.State          `json:"push"`
	Hover         hover.Active        `json:"hover"`
	User          api.Claims          `json:"user"`

	// Error is the one-line message of the last failure; empty when the
	// last refresh succeeded.
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// Zones returns the zone names of the current snapshot.
func (v View) Zones() []string {
	if v.Snapshot == nil {
		return nil
	}
	return v.Snapshot.Summary.ZoneNames()
}

// Totals returns sensor and anomaly counts for the selected zone filter.
func (v View) Totals() (sensors, anomalies int) {
	if v.Snapshot == nil || v.Snapshot.Summary == nil {
		return 0, 0
	}
	s := v.Snapshot.Summary
	if v.Zone == "" || v.Zone == AllZones {
		return s.TotalSensors, s.Anomalies
	}
	if z, ok := s.Zones[v.Zone]; ok {
		return z.Total, z.Anomalies
	}
	return 0, 0
}

// ChartLengths returns the data length of every dashboard chart.
func (v View) ChartLengths() map[hover.ChartID]int {
	lengths := map[hover.ChartID]int{
		hover.Overview: 2, // sensors, anomalies
		hover.Realtime: v.Series.Len(),
	}
	if v.Snapshot != nil {
		if v.Snapshot.Metrics != nil {
			lengths[hover.Sensor] = len(v.Snapshot.Metrics.Prediction)
		}
		if v.Snapshot.Summary != nil {
			lengths[hover.Zone] = len(v.Snapshot.Summary.Zones)
		}
	}
	return lengths
}
