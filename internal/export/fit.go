package export

import (
	"io"
	"time"

	"backend-ridecoach/internal/ride"
	"backend-ridecoach/internal/shared/geo"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"
)

const degreesToSemicircles = 2147483648.0 / 180.0

// FIT writes the ride as a FIT activity: one record per fix followed by the
// timer, lap and session summary messages.
func FIT(snap ride.Snapshot, w io.Writer) error {
	if len(snap.Route) == 0 {
		return ErrEmptyRoute
	}

	start := startTime(snap)
	end := start.Add(time.Duration(snap.Stats.DurationSec) * time.Second)
	elapsedMs := uint32(snap.Stats.DurationSec * 1000)
	totalCm := uint32(snap.Stats.TotalDistanceM * 100)

	fileID := mesgdef.FileId{
		Type:         typedef.FileActivity,
		Manufacturer: typedef.ManufacturerDevelopment,
		TimeCreated:  start,
	}

	fit := proto.FIT{}
	fit.Messages = append(fit.Messages, fileID.ToMesg(nil))

	var distance float64
	for i, p := range snap.Route {
		if i > 0 {
			prev := snap.Route[i-1]
			distance += geo.HaversineMeters(prev.Lat, prev.Lng, p.Lat, p.Lng)
		}
		record := &mesgdef.Record{
			Timestamp:     recordTime(p, start),
			PositionLat:   int32(p.Lat * degreesToSemicircles),
			PositionLong:  int32(p.Lng * degreesToSemicircles),
			Distance:      uint32(distance * 100),
			EnhancedSpeed: uint32(max(p.SpeedMps, 0) * 1000),
		}
		if p.AltitudeM != nil {
			record.EnhancedAltitude = enhancedAltitude(*p.AltitudeM)
		}
		fit.Messages = append(fit.Messages, record.ToMesg(nil))
	}

	event := mesgdef.Event{
		Timestamp: end,
		Event:     typedef.EventTimer,
		EventType: typedef.EventTypeStopAll,
	}
	fit.Messages = append(fit.Messages, event.ToMesg(nil))

	lap := mesgdef.Lap{
		Timestamp:        end,
		StartTime:        start,
		TotalElapsedTime: elapsedMs,
		TotalTimerTime:   elapsedMs,
		TotalDistance:    totalCm,
		Event:            typedef.EventLap,
		EventType:        typedef.EventTypeStop,
	}
	fit.Messages = append(fit.Messages, lap.ToMesg(nil))

	session := mesgdef.Session{
		Timestamp:        end,
		StartTime:        start,
		TotalElapsedTime: elapsedMs,
		TotalTimerTime:   elapsedMs,
		TotalDistance:    totalCm,
		Sport:            typedef.SportCycling,
		SubSport:         typedef.SubSportRoad,
		Event:            typedef.EventSession,
		EventType:        typedef.EventTypeStop,
		Trigger:          typedef.SessionTriggerActivityEnd,
	}
	fit.Messages = append(fit.Messages, session.ToMesg(nil))

	return encoder.New(w).Encode(&fit)
}

func startTime(snap ride.Snapshot) time.Time {
	if snap.Stats.StartTime != nil {
		return time.UnixMilli(*snap.Stats.StartTime).UTC()
	}
	if ts := snap.Route[0].Timestamp; ts > 0 {
		return time.UnixMilli(ts).UTC()
	}
	return time.Now().UTC()
}

func recordTime(p ride.RoutePoint, fallback time.Time) time.Time {
	if p.Timestamp > 0 {
		return time.UnixMilli(p.Timestamp).UTC()
	}
	return fallback
}

// enhancedAltitude encodes metres with scale 5 and offset 500. Values below
// the -500 m floor are clamped to it.
func enhancedAltitude(m float64) uint32 {
	return uint32((max(m, -500.0) + 500.0) * 5.0)
}
