package recorder

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"backend-ridecoach/internal/ride"
)

// Hooks are called from the recorder loop after the aggregator has been
// updated. Any of them may be nil. OnSourceEnd fires only when the source
// closes its channel and so ends the ride; Stop does not call it.
type Hooks struct {
	OnSample    func(ride.RoutePoint, ride.Stats)
	OnTick      func(ride.Stats)
	OnFixError  func(error)
	OnSourceEnd func(ride.Stats)
}

// Recorder connects a position source and a heartbeat to an aggregator.
// Fixes and ticks are applied by a single goroutine, one at a time.
type Recorder struct {
	agg       *ride.Aggregator
	source    PositionSource
	heartbeat Heartbeat
	hooks     Hooks

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	fixErrors atomic.Int64
}

func New(agg *ride.Aggregator, source PositionSource, heartbeat Heartbeat, hooks Hooks) *Recorder {
	if heartbeat == nil {
		heartbeat = Ticker(0)
	}
	return &Recorder{agg: agg, source: source, heartbeat: heartbeat, hooks: hooks}
}

func (r *Recorder) Aggregator() *ride.Aggregator {
	return r.agg
}

// FixErrors is the number of transient fix errors seen in the current ride.
func (r *Recorder) FixErrors() int64 {
	return r.fixErrors.Load()
}

// Start subscribes to the source and begins a new ride. If the source is
// unavailable no new ride starts and a ride already running is left as it
// was. Starting a running recorder resets the ride.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	fixes, err := r.source.Subscribe(loopCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	r.halt()

	ticks, stopTicks := r.heartbeat()
	r.fixErrors.Store(0)
	r.agg.Start()

	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	go r.loop(loopCtx, fixes, ticks, stopTicks, done)
	return nil
}

// Stop ends the ride immediately; events still queued become no-ops.
func (r *Recorder) Stop() {
	r.agg.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.halt()
}

// Done is closed when the current loop exits. It is nil before Start.
func (r *Recorder) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Recorder) halt() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
}

func (r *Recorder) loop(ctx context.Context, fixes <-chan Fix, ticks <-chan time.Time, stopTicks func(), done chan struct{}) {
	defer close(done)
	defer stopTicks()

	for {
		select {
		case <-ctx.Done():
			return
		case fix, ok := <-fixes:
			if !ok {
				r.agg.Stop()
				if r.hooks.OnSourceEnd != nil {
					r.hooks.OnSourceEnd(r.agg.Stats())
				}
				return
			}
			if fix.Err != nil {
				r.fixErrors.Add(1)
				log.Printf("position fix error: %v", fix.Err)
				if r.hooks.OnFixError != nil {
					r.hooks.OnFixError(fix.Err)
				}
				continue
			}
			if r.agg.Ingest(fix.Point) && r.hooks.OnSample != nil {
				r.hooks.OnSample(fix.Point, r.agg.Stats())
			}
		case <-ticks:
			if r.agg.Tick() && r.hooks.OnTick != nil {
				r.hooks.OnTick(r.agg.Stats())
			}
		}
	}
}
