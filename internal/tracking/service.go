package tracking

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"backend-ridecoach/internal/advisor"
	"backend-ridecoach/internal/db"
	"backend-ridecoach/internal/export"
	"backend-ridecoach/internal/recorder"
	"backend-ridecoach/internal/ride"
	"backend-ridecoach/internal/stream"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("ride not found")
	ErrNotRecording    = errors.New("ride is not recording")
	ErrRideActive      = errors.New("ride is still recording")
	ErrAdvisorDisabled = errors.New("advisory service not configured")
	ErrNoInsight       = errors.New("no feedback requested for this ride yet")
)

// Advisor produces coaching feedback for a finished ride.
type Advisor interface {
	Advise(ctx context.Context, req advisor.Request) (advisor.Insight, error)
}

type Options struct {
	Heartbeat    recorder.Heartbeat
	SampleBuffer int
	Now          func() time.Time
}

// Service keeps one ride per rider. Starting a new ride stops and replaces
// the rider's previous one.
type Service struct {
	journal   journal
	hub       *stream.Hub
	advisor   Advisor
	heartbeat recorder.Heartbeat
	buffer    int
	now       func() time.Time

	mu      sync.RWMutex
	rides   map[string]*session
	byRider map[string]string
}

type session struct {
	info    Session
	agg     *ride.Aggregator
	source  *recorder.PushSource
	rec     *recorder.Recorder
	insight *advisor.Insight
}

func NewService(q db.Querier, hub *stream.Hub, adv Advisor, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Heartbeat == nil {
		opts.Heartbeat = recorder.Ticker(time.Second)
	}
	return &Service{
		journal:   journal{db: q},
		hub:       hub,
		advisor:   adv,
		heartbeat: opts.Heartbeat,
		buffer:    opts.SampleBuffer,
		now:       opts.Now,
		rides:     map[string]*session{},
		byRider:   map[string]string{},
	}
}

func (s *Service) StartSession(ctx context.Context, input Session) (Session, error) {
	if prevID, ok := s.riderRide(input.RiderID); ok {
		if _, err := s.StopSession(ctx, prevID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return Session{}, err
		}
	}

	input.ID = uuid.NewString()
	if err := s.journal.open(ctx, input, s.now()); err != nil {
		return Session{}, err
	}

	sess := s.newSession(input)
	if err := sess.rec.Start(context.Background()); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	if prevID, ok := s.byRider[input.RiderID]; ok {
		delete(s.rides, prevID)
	}
	s.rides[input.ID] = sess
	s.byRider[input.RiderID] = input.ID
	s.mu.Unlock()

	s.publish(newEvent("started", input.ID, sess.agg.Stats()))
	return sess.describe(), nil
}

// RestartSession discards the ride's data and starts recording it afresh.
// If the journal cannot be reset the ride is left stopped.
func (s *Service) RestartSession(ctx context.Context, rideID string) (Session, error) {
	sess, err := s.lookup(rideID)
	if err != nil {
		return Session{}, err
	}
	// the old loop must be gone before the journal is cleared, or a fix it
	// is still handling lands in the reset ride
	sess.rec.Stop()
	if err := s.journal.reset(ctx, rideID, s.now()); err != nil {
		return Session{}, err
	}
	if err := sess.rec.Start(context.Background()); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	sess.insight = nil
	s.mu.Unlock()

	s.publish(newEvent("started", rideID, sess.agg.Stats()))
	return sess.describe(), nil
}

func (s *Service) AddPoint(ctx context.Context, rideID string, input TrackPoint) (ride.RoutePoint, error) {
	sess, err := s.lookup(rideID)
	if err != nil {
		return ride.RoutePoint{}, err
	}
	if sess.agg.State() != ride.StateRecording {
		return ride.RoutePoint{}, ErrNotRecording
	}

	point := ride.RoutePoint{
		Lat:       input.Lat,
		Lng:       input.Lng,
		Timestamp: input.RecordedAt,
		SpeedMps:  input.SpeedMps,
		AltitudeM: input.AltitudeM,
	}
	if point.Timestamp == 0 {
		point.Timestamp = s.now().UnixMilli()
	}
	if err := sess.source.Push(point); err != nil {
		return ride.RoutePoint{}, err
	}
	return point, nil
}

// ReportFixError records a failed position read from the rider's device.
// The ride keeps recording.
func (s *Service) ReportFixError(ctx context.Context, rideID, reason string) error {
	sess, err := s.lookup(rideID)
	if err != nil {
		return err
	}
	if sess.agg.State() != ride.StateRecording {
		return ErrNotRecording
	}
	if reason == "" {
		reason = "position unavailable"
	}
	return sess.source.Fail(errors.New(reason))
}

func (s *Service) StopSession(ctx context.Context, rideID string) (Summary, error) {
	sess, err := s.lookup(rideID)
	if err != nil {
		return Summary{}, err
	}
	wasRecording := sess.agg.State() == ride.StateRecording
	sess.rec.Stop()

	stats := sess.agg.Stats()
	if wasRecording {
		s.journal.close(ctx, rideID, stats, s.now())
		s.publish(newEvent("stopped", rideID, stats))
	}
	return s.summarize(sess), nil
}

func (s *Service) Summary(ctx context.Context, rideID string) (Summary, error) {
	sess, err := s.lookup(rideID)
	if err != nil {
		return Summary{}, err
	}
	return s.summarize(sess), nil
}

func (s *Service) Points(ctx context.Context, rideID string) ([]ride.RoutePoint, error) {
	sess, err := s.lookup(rideID)
	if err != nil {
		return nil, err
	}
	return sess.agg.Snapshot().Route, nil
}

// Advise asks the advisory service about a finished ride. Failures leave the
// ride untouched so the call can be retried.
func (s *Service) Advise(ctx context.Context, rideID string) (advisor.Insight, error) {
	sess, err := s.lookup(rideID)
	if err != nil {
		return advisor.Insight{}, err
	}
	if s.advisor == nil {
		return advisor.Insight{}, ErrAdvisorDisabled
	}

	snap := sess.agg.Snapshot()
	if snap.State == ride.StateRecording {
		return advisor.Insight{}, ErrRideActive
	}
	req, err := advisor.BuildRequest(snap)
	if err != nil {
		return advisor.Insight{}, err
	}
	insight, err := s.advisor.Advise(ctx, req)
	if err != nil {
		return advisor.Insight{}, err
	}

	s.mu.Lock()
	sess.insight = &insight
	s.mu.Unlock()
	return insight, nil
}

// Insight returns the last feedback received for the ride.
func (s *Service) Insight(ctx context.Context, rideID string) (advisor.Insight, error) {
	sess, err := s.lookup(rideID)
	if err != nil {
		return advisor.Insight{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess.insight == nil {
		return advisor.Insight{}, ErrNoInsight
	}
	return *sess.insight, nil
}

func (s *Service) ExportGPX(ctx context.Context, rideID string) ([]byte, error) {
	sess, err := s.lookup(rideID)
	if err != nil {
		return nil, err
	}
	name := sess.info.Name
	if name == "" {
		name = rideID
	}
	return export.GPX(name, sess.agg.Snapshot())
}

func (s *Service) ExportFIT(ctx context.Context, rideID string, w io.Writer) error {
	sess, err := s.lookup(rideID)
	if err != nil {
		return err
	}
	return export.FIT(sess.agg.Snapshot(), w)
}

// Close stops every recording ride.
func (s *Service) Close() {
	s.mu.RLock()
	ids := make([]string, 0, len(s.rides))
	for id := range s.rides {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		_, _ = s.StopSession(context.Background(), id)
	}
}

func (s *Service) newSession(info Session) *session {
	sess := &session{
		info:   info,
		agg:    ride.NewAggregator(s.now),
		source: recorder.NewPushSource(s.buffer),
	}
	id := info.ID
	sess.rec = recorder.New(sess.agg, sess.source, s.heartbeat, recorder.Hooks{
		OnSample: func(p ride.RoutePoint, stats ride.Stats) {
			s.journal.point(id, sess.agg.Len()-1, p)
			ev := newEvent("sample", id, stats)
			ev.Point = &p
			s.publish(ev)
		},
		OnTick: func(stats ride.Stats) {
			s.publish(newEvent("tick", id, stats))
		},
		OnFixError: func(err error) {
			ev := newEvent("fix_error", id, sess.agg.Stats())
			ev.Error = err.Error()
			s.publish(ev)
		},
	})
	return sess
}

func (s *Service) lookup(rideID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.rides[rideID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) riderRide(riderID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byRider[riderID]
	return id, ok
}

func (s *Service) summarize(sess *session) Summary {
	snap := sess.agg.Snapshot()
	stats := snap.Stats
	return Summary{
		RideID:         sess.info.ID,
		RiderID:        sess.info.RiderID,
		State:          snap.State,
		PointCount:     len(snap.Route),
		DistanceM:      stats.TotalDistanceM,
		AverageSpeedM:  snap.AvgSpeedMps,
		MaxSpeedM:      stats.MaxSpeedMps,
		ElevationGainM: stats.ElevationGainM,
		DurationSec:    stats.DurationSec,
		Duration:       ride.FormatDuration(stats.DurationSec),
		StartTime:      stats.StartTime,
		FixErrors:      sess.rec.FixErrors(),
	}
}

func (s *Service) publish(ev Event) {
	if s.hub == nil {
		return
	}
	s.hub.PublishJSON(ev.RideID, ev)
}

func (sess *session) describe() Session {
	info := sess.info
	info.State = sess.agg.State()
	info.StartTime = sess.agg.Stats().StartTime
	return info
}
