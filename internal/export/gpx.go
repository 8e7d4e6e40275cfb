package export

import (
	"errors"
	"time"

	"backend-ridecoach/internal/ride"

	"github.com/tkrajina/gpxgo/gpx"
)

var ErrEmptyRoute = errors.New("ride has no route points")

const creator = "ridecoach"

// GPX renders the ride route as a GPX 1.1 document with a single track.
func GPX(name string, snap ride.Snapshot) ([]byte, error) {
	if len(snap.Route) == 0 {
		return nil, ErrEmptyRoute
	}

	segment := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(snap.Route))}
	for _, p := range snap.Route {
		pt := gpx.GPXPoint{
			Point: gpx.Point{Latitude: p.Lat, Longitude: p.Lng},
		}
		if p.Timestamp > 0 {
			pt.Timestamp = time.UnixMilli(p.Timestamp).UTC()
		}
		if p.AltitudeM != nil {
			pt.Elevation = *gpx.NewNullableFloat64(*p.AltitudeM)
		}
		segment.Points = append(segment.Points, pt)
	}

	doc := &gpx.GPX{
		Version: "1.1",
		Creator: creator,
		Name:    name,
		Tracks: []gpx.GPXTrack{{
			Name:     name,
			Type:     "cycling",
			Segments: []gpx.GPXTrackSegment{segment},
		}},
	}
	return doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
}
