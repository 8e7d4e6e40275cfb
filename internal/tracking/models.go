package tracking

import "backend-ridecoach/internal/ride"

type Session struct {
	ID        string     `json:"id"`
	RiderID   string     `json:"rider_id"`
	Name      string     `json:"name"`
	State     ride.State `json:"state"`
	StartTime *int64     `json:"start_time,omitempty"`
}

// TrackPoint is the wire form of a fix pushed by a rider's device.
type TrackPoint struct {
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	AltitudeM  *float64 `json:"altitude_m"`
	SpeedMps   float64  `json:"speed_mps"`
	RecordedAt int64    `json:"recorded_at"` // epoch milliseconds, defaults to now
}

type Summary struct {
	RideID         string     `json:"ride_id"`
	RiderID        string     `json:"rider_id"`
	State          ride.State `json:"state"`
	PointCount     int        `json:"point_count"`
	DistanceM      float64    `json:"distance_m"`
	AverageSpeedM  float64    `json:"average_speed_mps"`
	MaxSpeedM      float64    `json:"max_speed_mps"`
	ElevationGainM float64    `json:"elevation_gain_m"`
	DurationSec    int64      `json:"duration_sec"`
	Duration       string     `json:"duration"`
	StartTime      *int64     `json:"start_time,omitempty"`
	FixErrors      int64      `json:"fix_errors"`
}

// Event is pushed to live stream subscribers.
type Event struct {
	Type   string           `json:"type"` // sample, tick, fix_error, started, stopped
	RideID string           `json:"ride_id"`
	Stats  ride.Stats       `json:"stats"`
	Avg    float64          `json:"avg_speed_mps"`
	Clock  string           `json:"duration"`
	Point  *ride.RoutePoint `json:"point,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func newEvent(kind, rideID string, stats ride.Stats) Event {
	return Event{
		Type:   kind,
		RideID: rideID,
		Stats:  stats,
		Avg:    stats.AvgSpeedMps(),
		Clock:  ride.FormatDuration(stats.DurationSec),
	}
}
