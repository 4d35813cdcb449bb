package detect

import (
	"errors"
	"time"

	"backend-pawtrail/internal/shared/geo"

	"github.com/google/uuid"
)

var (
	ErrNoHomeZone       = errors.New("no home zone configured")
	ErrWalkInProgress   = errors.New("a walk is already in progress")
	ErrNoWalkInProgress = errors.New("no walk in progress")
)

type Config struct {
	StartConfirmations int
	EndConfirmations   int
}

func (c Config) withDefaults() Config {
	if c.StartConfirmations <= 0 {
		c.StartConfirmations = 3
	}
	if c.EndConfirmations <= 0 {
		c.EndConfirmations = 2
	}
	return c
}

// Engine consumes timestamped position samples one at a time and
// infers when the subject leaves and returns to the home zone. Calls
// are not safe for concurrent use; callers serialize per instance.
type Engine struct {
	cfg   Config
	home  *Zone
	zones []Zone

	state        State
	pending      int
	candidateAt  time.Time
	candidatePos Coordinate
	// First timestamp of the current return-confirmation run. The
	// finalized walk ends at this moment, not at the committing
	// sample, so duration reflects actual home arrival.
	returnAt time.Time

	walk    *Walk
	visited map[string]struct{}
}

func NewEngine(home *Zone, zones []Zone, cfg Config) *Engine {
	return &Engine{
		cfg:   cfg.withDefaults(),
		home:  home,
		zones: zones,
		state: StateAtHome,
	}
}

func (e *Engine) State() State { return e.state }

// IsWalking reports whether a walk is in progress, which also decides
// the sampling cadence the device should use.
func (e *Engine) IsWalking() bool {
	return e.state == StateWalking || e.state == StateReturning
}

func (e *Engine) CurrentWalk() *Walk { return e.walk }

// SetZones replaces the geofences. A pending leave confirmation is
// discarded only when the home geofence itself moved, since it was
// measured against the old boundary; reloading an unchanged home (or
// editing named zones) must not stall the start debounce. An
// in-progress walk keeps accumulating either way.
func (e *Engine) SetZones(home *Zone, zones []Zone) {
	homeMoved := !sameGeofence(e.home, home)
	e.home = home
	e.zones = zones
	if homeMoved && e.state == StateLeaving {
		e.state = StateAtHome
		e.pending = 0
	}
}

func sameGeofence(a, b *Zone) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Lat == b.Lat && a.Lng == b.Lng && a.RadiusKm == b.RadiusKm
}

// Ingest advances the state machine with one sample. The returned
// event is EventNone except on the sample that commits a walk start
// or completion.
func (e *Engine) Ingest(sample Coordinate, at time.Time) (Event, error) {
	if e.home == nil {
		return Event{}, ErrNoHomeZone
	}

	switch e.state {
	case StateAtHome:
		if !e.insideHome(sample) {
			e.state = StateLeaving
			e.pending = 1
			e.candidateAt = at
			e.candidatePos = sample
		}

	case StateLeaving:
		if e.insideHome(sample) {
			// Jitter, not a departure.
			e.state = StateAtHome
			e.pending = 0
			break
		}
		e.pending++
		if e.pending >= e.cfg.StartConfirmations {
			e.startWalk(e.candidatePos, e.candidateAt)
			return Event{
				Kind:          EventWalkStarted,
				StartedAt:     e.candidateAt,
				StartPosition: e.candidatePos,
			}, nil
		}

	case StateWalking:
		e.accumulate(sample)
		if e.insideHome(sample) {
			e.state = StateReturning
			e.pending = 1
			e.returnAt = at
		}

	case StateReturning:
		if !e.insideHome(sample) {
			// Back out the door; the same walk continues.
			e.state = StateWalking
			e.pending = 0
			break
		}
		e.pending++
		if e.pending >= e.cfg.EndConfirmations {
			return Event{Kind: EventWalkCompleted, Walk: e.finishWalk(e.returnAt)}, nil
		}
	}

	return Event{}, nil
}

// ManualStart begins a walk at the given position immediately,
// bypassing the leave confirmation window.
func (e *Engine) ManualStart(pos Coordinate, at time.Time) (Event, error) {
	if e.home == nil {
		return Event{}, ErrNoHomeZone
	}
	if e.walk != nil {
		return Event{}, ErrWalkInProgress
	}
	e.startWalk(pos, at)
	return Event{Kind: EventWalkStarted, StartedAt: at, StartPosition: pos}, nil
}

// ManualStop finalizes the in-progress walk at the given time without
// waiting for return confirmation.
func (e *Engine) ManualStop(at time.Time) (Event, error) {
	if e.walk == nil {
		return Event{}, ErrNoWalkInProgress
	}
	return Event{Kind: EventWalkCompleted, Walk: e.finishWalk(at)}, nil
}

func (e *Engine) startWalk(pos Coordinate, at time.Time) {
	e.walk = &Walk{
		ID:        uuid.NewString(),
		StartTime: at,
		Path:      []Coordinate{pos},
	}
	e.visited = map[string]struct{}{}
	e.state = StateWalking
	e.pending = 0
}

func (e *Engine) finishWalk(endedAt time.Time) *Walk {
	walk := e.walk
	walk.EndTime = endedAt
	walk.DurationSeconds = int64(endedAt.Sub(walk.StartTime).Seconds())

	e.walk = nil
	e.visited = nil
	e.state = StateAtHome
	e.pending = 0
	return walk
}

func (e *Engine) accumulate(sample Coordinate) {
	last := e.walk.Path[len(e.walk.Path)-1]
	e.walk.DistanceKm += geo.HaversineKm(last.Lat, last.Lng, sample.Lat, sample.Lng)
	e.walk.Path = append(e.walk.Path, sample)

	for _, z := range e.zones {
		if _, seen := e.visited[z.Name]; seen {
			continue
		}
		if geo.WithinRadiusKm(sample.Lat, sample.Lng, z.Lat, z.Lng, z.RadiusKm) {
			e.visited[z.Name] = struct{}{}
			e.walk.ZonesVisited = append(e.walk.ZonesVisited, z.Name)
		}
	}
}

func (e *Engine) insideHome(sample Coordinate) bool {
	return geo.WithinRadiusKm(sample.Lat, sample.Lng, e.home.Lat, e.home.Lng, e.home.RadiusKm)
}
