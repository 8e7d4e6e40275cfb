// Package advisor shapes a finished ride for the external coaching service
// and calls it.
package advisor

import (
	"errors"
	"math"

	"backend-ridecoach/internal/ride"
)

const (
	MinRoutePoints  = 5
	SampleEvery     = 5
	Recommendations = 3
)

var (
	ErrInsufficientData = errors.New("at least 5 route points are required for ride feedback")
	ErrUnavailable      = errors.New("advisory service unavailable")
	ErrMalformedInsight = errors.New("advisory service returned a malformed insight")
)

type StatsPayload struct {
	TotalDistanceM float64 `json:"total_distance_m"`
	AvgSpeedMps    float64 `json:"avg_speed_mps"`
	MaxSpeedMps    float64 `json:"max_speed_mps"`
	DurationSec    int64   `json:"duration_sec"`
	Duration       string  `json:"duration"`
	ElevationGainM float64 `json:"elevation_gain_m"`
	StartTime      *int64  `json:"start_time,omitempty"`
}

type PointPayload struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	SpeedKmh float64 `json:"speed_kmh"`
}

type Request struct {
	Stats StatsPayload   `json:"stats"`
	Route []PointPayload `json:"route"`
}

// Insight is the coaching feedback for one ride.
type Insight struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// BuildRequest samples every fifth point of the route, rounds coordinates to
// four decimals and speeds to one decimal of km/h.
func BuildRequest(snap ride.Snapshot) (Request, error) {
	if len(snap.Route) < MinRoutePoints {
		return Request{}, ErrInsufficientData
	}

	req := Request{
		Stats: StatsPayload{
			TotalDistanceM: snap.Stats.TotalDistanceM,
			AvgSpeedMps:    snap.Stats.AvgSpeedMps(),
			MaxSpeedMps:    snap.Stats.MaxSpeedMps,
			DurationSec:    snap.Stats.DurationSec,
			Duration:       ride.FormatDuration(snap.Stats.DurationSec),
			ElevationGainM: snap.Stats.ElevationGainM,
			StartTime:      snap.Stats.StartTime,
		},
		Route: make([]PointPayload, 0, (len(snap.Route)+SampleEvery-1)/SampleEvery),
	}
	for i := 0; i < len(snap.Route); i += SampleEvery {
		p := snap.Route[i]
		req.Route = append(req.Route, PointPayload{
			Lat:      round(p.Lat, 4),
			Lng:      round(p.Lng, 4),
			SpeedKmh: round(ride.KmH(math.Max(p.SpeedMps, 0)), 1),
		})
	}
	return req, nil
}

// normalize keeps the first three recommendations and rejects insights
// missing any part.
func (in Insight) normalize() (Insight, error) {
	if in.Title == "" || in.Summary == "" || len(in.Recommendations) < Recommendations {
		return Insight{}, ErrMalformedInsight
	}
	in.Recommendations = in.Recommendations[:Recommendations]
	return in, nil
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
