package ride

// State is the lifecycle state of an Aggregator.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
)

// RoutePoint is a single GPS fix.
type RoutePoint struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds
	SpeedMps  float64  `json:"speed_mps"` // 0 when the producer reports none
	AltitudeM *float64 `json:"altitude_m,omitempty"`
}

// Altitude returns the fix altitude, or 0 when unknown.
func (p RoutePoint) Altitude() float64 {
	if p.AltitudeM == nil {
		return 0
	}
	return *p.AltitudeM
}

// Stats are the running totals of one ride.
type Stats struct {
	TotalDistanceM float64 `json:"total_distance_m"`
	MaxSpeedMps    float64 `json:"max_speed_mps"`
	DurationSec    int64   `json:"duration_sec"`
	StartTime      *int64  `json:"start_time,omitempty"` // epoch milliseconds
	ElevationGainM float64 `json:"elevation_gain_m"`
}

// AvgSpeedMps is always derived from the totals so it cannot drift from them.
func (s Stats) AvgSpeedMps() float64 {
	if s.DurationSec <= 0 {
		return 0
	}
	return s.TotalDistanceM / float64(s.DurationSec)
}

// Snapshot is a consistent copy of an Aggregator taken after an update.
type Snapshot struct {
	State       State        `json:"state"`
	Stats       Stats        `json:"stats"`
	AvgSpeedMps float64      `json:"avg_speed_mps"`
	Route       []RoutePoint `json:"route"`
}

// Alt is a convenience for building points with a known altitude.
func Alt(m float64) *float64 {
	return &m
}
