package ride

import (
	"math"
	"sync"
	"time"

	"backend-ridecoach/internal/shared/geo"
)

// Aggregator turns a stream of fixes and heartbeat ticks into ride statistics.
// All methods are serialised by one mutex and run to completion.
type Aggregator struct {
	mu    sync.Mutex
	now   func() time.Time
	state State
	route []RoutePoint
	stats Stats
	prev  *RoutePoint
}

// NewAggregator returns an idle aggregator. A nil clock means time.Now.
func NewAggregator(now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{now: now, state: StateIdle}
}

// Start begins a new ride. Calling it while recording discards the current
// ride and starts over.
func (a *Aggregator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	startedAt := a.now().UnixMilli()
	a.route = nil
	a.stats = Stats{StartTime: &startedAt}
	a.prev = nil
	a.state = StateRecording
}

// Stop freezes the current ride. Stopping an idle aggregator does nothing.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = StateIdle
}

// Ingest applies one fix. It reports false when the fix was ignored, either
// because no ride is recording or because a coordinate, the speed or the
// altitude is not finite.
func (a *Aggregator) Ingest(p RoutePoint) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateRecording || !finitePoint(p) {
		return false
	}

	a.route = append(a.route, p)

	if a.prev == nil {
		first := p
		a.prev = &first
		return true
	}

	a.stats.TotalDistanceM += geo.HaversineMeters(a.prev.Lat, a.prev.Lng, p.Lat, p.Lng)

	if climb := p.Altitude() - a.prev.Altitude(); climb > 0 {
		a.stats.ElevationGainM += climb
	}

	a.stats.MaxSpeedMps = math.Max(a.stats.MaxSpeedMps, math.Max(p.SpeedMps, 0))

	next := p
	a.prev = &next
	return true
}

// Tick advances the ride clock by one second while recording.
func (a *Aggregator) Tick() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateRecording {
		return false
	}
	a.stats.DurationSec++
	return true
}

func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Len is the number of fixes in the current route.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.route)
}

func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyStats(a.stats)
}

// Snapshot returns a deep copy of the ride.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	route := make([]RoutePoint, len(a.route))
	for i, p := range a.route {
		if p.AltitudeM != nil {
			p.AltitudeM = Alt(*p.AltitudeM)
		}
		route[i] = p
	}

	stats := copyStats(a.stats)
	return Snapshot{
		State:       a.state,
		Stats:       stats,
		AvgSpeedMps: stats.AvgSpeedMps(),
		Route:       route,
	}
}

func copyStats(s Stats) Stats {
	if s.StartTime != nil {
		startedAt := *s.StartTime
		s.StartTime = &startedAt
	}
	return s
}

func finitePoint(p RoutePoint) bool {
	if !finite(p.Lat) || !finite(p.Lng) || !finite(p.SpeedMps) {
		return false
	}
	return p.AltitudeM == nil || finite(*p.AltitudeM)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
