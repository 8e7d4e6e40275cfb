package tracking

import (
	"context"
	"log"
	"time"

	"backend-ridecoach/internal/db"
	"backend-ridecoach/internal/ride"
)

const journalTimeout = 3 * time.Second

// journal mirrors the active ride into postgres. Writes made from the
// recorder loop are best effort and only logged on failure.
type journal struct {
	db db.Querier
}

func (j journal) enabled() bool {
	return j.db != nil
}

func (j journal) open(ctx context.Context, s Session, startedAt time.Time) error {
	if !j.enabled() {
		return nil
	}
	_, err := j.db.Exec(ctx, `
		INSERT INTO rides (id, rider_id, name, started_at, status)
		VALUES ($1,$2,$3,$4,$5)
	`, s.ID, s.RiderID, s.Name, startedAt, string(ride.StateRecording))
	return err
}

func (j journal) reset(ctx context.Context, rideID string, startedAt time.Time) error {
	if !j.enabled() {
		return nil
	}
	if _, err := j.db.Exec(ctx, `DELETE FROM ride_points WHERE ride_id=$1`, rideID); err != nil {
		return err
	}
	_, err := j.db.Exec(ctx, `
		UPDATE rides
		SET started_at=$2, ended_at=NULL, status=$3,
		    total_distance_m=0, max_speed_mps=0, elevation_gain_m=0, duration_sec=0
		WHERE id=$1
	`, rideID, startedAt, string(ride.StateRecording))
	return err
}

func (j journal) point(rideID string, seq int, p ride.RoutePoint) {
	if !j.enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	_, err := j.db.Exec(ctx, `
		INSERT INTO ride_points (ride_id, seq, lat, lng, altitude_m, speed_mps, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, rideID, seq, p.Lat, p.Lng, p.AltitudeM, p.SpeedMps, time.UnixMilli(p.Timestamp))
	if err != nil {
		log.Printf("journal point %s/%d: %v", rideID, seq, err)
	}
}

func (j journal) close(ctx context.Context, rideID string, stats ride.Stats, endedAt time.Time) {
	if !j.enabled() {
		return
	}
	_, err := j.db.Exec(ctx, `
		UPDATE rides
		SET ended_at=$2, status=$3, total_distance_m=$4, max_speed_mps=$5,
		    elevation_gain_m=$6, duration_sec=$7
		WHERE id=$1
	`, rideID, endedAt, string(ride.StateIdle), stats.TotalDistanceM, stats.MaxSpeedMps, stats.ElevationGainM, stats.DurationSec)
	if err != nil {
		log.Printf("journal close %s: %v", rideID, err)
	}
}
