package db

import "context"

// Journal tables mirror the ride in progress for offline analysis. Nothing
// in the service reads them back.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS rides (
		id TEXT PRIMARY KEY,
		rider_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		status TEXT NOT NULL,
		total_distance_m DOUBLE PRECISION NOT NULL DEFAULT 0,
		max_speed_mps DOUBLE PRECISION NOT NULL DEFAULT 0,
		elevation_gain_m DOUBLE PRECISION NOT NULL DEFAULT 0,
		duration_sec BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS ride_points (
		ride_id TEXT NOT NULL REFERENCES rides(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		altitude_m DOUBLE PRECISION,
		speed_mps DOUBLE PRECISION NOT NULL DEFAULT 0,
		recorded_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (ride_id, seq)
	)`,
}

// EnsureSchema creates the journal tables when missing.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
