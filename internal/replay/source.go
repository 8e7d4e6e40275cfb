// Package replay plays a recorded GPX track back as a live position source.
package replay

import (
	"context"
	"errors"
	"time"

	"backend-ridecoach/internal/recorder"
	"backend-ridecoach/internal/ride"
	"backend-ridecoach/internal/shared/geo"

	"github.com/tkrajina/gpxgo/gpx"
)

var ErrTooFewPoints = errors.New("the GPX file does not contain enough GPS points")

// Source emits the points of a track in order. Gaps between timestamps are
// slept through, divided by Speedup; a zero Speedup emits without pausing.
type Source struct {
	Points  []ride.RoutePoint
	Speedup float64
}

func Load(path string, speedup float64) (*Source, error) {
	g, err := gpx.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return FromGPX(g, speedup)
}

func Parse(data []byte, speedup float64) (*Source, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	return FromGPX(g, speedup)
}

// FromGPX flattens every track segment, falling back to routes for files
// that carry no tracks.
func FromGPX(g *gpx.GPX, speedup float64) (*Source, error) {
	var raw []gpx.GPXPoint
	for _, track := range g.Tracks {
		for _, segment := range track.Segments {
			raw = append(raw, segment.Points...)
		}
	}
	if len(raw) == 0 {
		for _, route := range g.Routes {
			raw = append(raw, route.Points...)
		}
	}
	if len(raw) < 2 {
		return nil, ErrTooFewPoints
	}

	points := make([]ride.RoutePoint, 0, len(raw))
	for i, p := range raw {
		rp := ride.RoutePoint{
			Lat:       p.Point.Latitude,
			Lng:       p.Point.Longitude,
			Timestamp: p.Timestamp.UnixMilli(),
		}
		if p.Timestamp.IsZero() {
			rp.Timestamp = 0
		}
		if p.Elevation.NotNull() {
			rp.AltitudeM = ride.Alt(p.Elevation.Value())
		}
		if i > 0 {
			rp.SpeedMps = legSpeed(points[i-1], rp)
		}
		points = append(points, rp)
	}
	return &Source{Points: points, Speedup: speedup}, nil
}

func legSpeed(prev, next ride.RoutePoint) float64 {
	dt := float64(next.Timestamp-prev.Timestamp) / 1000
	if prev.Timestamp == 0 || dt <= 0 {
		return 0
	}
	return geo.HaversineMeters(prev.Lat, prev.Lng, next.Lat, next.Lng) / dt
}

func (s *Source) Subscribe(ctx context.Context) (<-chan recorder.Fix, error) {
	if s == nil || len(s.Points) == 0 {
		return nil, ErrTooFewPoints
	}

	ch := make(chan recorder.Fix)
	go func() {
		defer close(ch)
		for i, p := range s.Points {
			if i > 0 && !s.wait(ctx, s.Points[i-1], p) {
				return
			}
			select {
			case ch <- recorder.Fix{Point: p}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Duration is the real time a replay takes at the configured speed-up.
func (s *Source) Duration() time.Duration {
	if s.Speedup <= 0 || len(s.Points) < 2 {
		return 0
	}
	var total time.Duration
	for i := 1; i < len(s.Points); i++ {
		total += s.gap(s.Points[i-1], s.Points[i])
	}
	return total
}

func (s *Source) gap(prev, next ride.RoutePoint) time.Duration {
	if s.Speedup <= 0 || prev.Timestamp == 0 || next.Timestamp <= prev.Timestamp {
		return 0
	}
	return time.Duration(float64(next.Timestamp-prev.Timestamp) * float64(time.Millisecond) / s.Speedup)
}

func (s *Source) wait(ctx context.Context, prev, next ride.RoutePoint) bool {
	d := s.gap(prev, next)
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
