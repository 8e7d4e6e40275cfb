package recorder

import (
	"context"
	"errors"
	"sync"
	"time"

	"backend-ridecoach/internal/ride"
)

var (
	ErrSourceUnavailable = errors.New("position source unavailable")
	ErrNotSubscribed     = errors.New("position source has no subscriber")
	ErrBacklogFull       = errors.New("position backlog full")
)

// Fix is one event from a position source: either a point or a transient
// read error.
type Fix struct {
	Point ride.RoutePoint
	Err   error
}

// PositionSource delivers fixes until the subscription context ends. A
// Subscribe error means the source cannot deliver at all.
type PositionSource interface {
	Subscribe(ctx context.Context) (<-chan Fix, error)
}

// Heartbeat returns a tick channel and a function that stops it.
type Heartbeat func() (<-chan time.Time, func())

// Ticker is a wall-clock heartbeat.
func Ticker(interval time.Duration) Heartbeat {
	if interval <= 0 {
		interval = time.Second
	}
	return func() (<-chan time.Time, func()) {
		t := time.NewTicker(interval)
		return t.C, t.Stop
	}
}

// PushSource is a PositionSource fed by callers, e.g. an HTTP handler.
// Every subscription gets a fresh channel; pushes made while nobody is
// subscribed fail with ErrNotSubscribed.
type PushSource struct {
	mu     sync.Mutex
	buffer int
	ch     chan Fix
}

func NewPushSource(buffer int) *PushSource {
	if buffer <= 0 {
		buffer = 64
	}
	return &PushSource{buffer: buffer}
}

func (s *PushSource) Subscribe(ctx context.Context) (<-chan Fix, error) {
	ch := make(chan Fix, s.buffer)

	s.mu.Lock()
	s.ch = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.ch == ch {
			s.ch = nil
		}
		s.mu.Unlock()
	}()
	return ch, nil
}

// Push queues a point for the current subscriber.
func (s *PushSource) Push(p ride.RoutePoint) error {
	return s.send(Fix{Point: p})
}

// Fail reports a transient read error to the current subscriber.
func (s *PushSource) Fail(err error) error {
	return s.send(Fix{Err: err})
}

func (s *PushSource) send(f Fix) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch == nil {
		return ErrNotSubscribed
	}
	select {
	case s.ch <- f:
		return nil
	default:
		return ErrBacklogFull
	}
}
