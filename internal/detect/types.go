package detect

import (
	"encoding/json"
	"time"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Zone is a circular geofence. The home zone bounds walk detection;
// named zones are recorded as visited while a walk is underway.
type Zone struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm float64 `json:"radius_km"`
	Color    string  `json:"color"`
}

type Walk struct {
	ID              string       `json:"id"`
	StartTime       time.Time    `json:"start_time"`
	EndTime         time.Time    `json:"end_time"`
	DurationSeconds int64        `json:"duration_seconds"`
	DistanceKm      float64      `json:"distance_km"`
	Path            []Coordinate `json:"path"`
	ZonesVisited    []string     `json:"zones_visited"`
}

type State int

const (
	StateAtHome State = iota
	StateLeaving
	StateWalking
	StateReturning
)

func (s State) String() string {
	switch s {
	case StateAtHome:
		return "at_home"
	case StateLeaving:
		return "leaving"
	case StateWalking:
		return "walking"
	case StateReturning:
		return "returning"
	}
	return "unknown"
}

type EventKind int

const (
	EventNone EventKind = iota
	EventWalkStarted
	EventWalkCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventWalkStarted:
		return "walk_started"
	case EventWalkCompleted:
		return "walk_completed"
	}
	return "none"
}

func (k EventKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *EventKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "walk_started":
		*k = EventWalkStarted
	case "walk_completed":
		*k = EventWalkCompleted
	default:
		*k = EventNone
	}
	return nil
}

// Event is returned from Ingest instead of invoking callbacks, so the
// engine carries no reference to the application layer. StartedAt and
// StartPosition are set for WalkStarted; Walk is set for
// WalkCompleted and is the caller's to keep.
type Event struct {
	Kind          EventKind  `json:"kind"`
	StartedAt     time.Time  `json:"started_at,omitempty"`
	StartPosition Coordinate `json:"start_position,omitempty"`
	Walk          *Walk      `json:"walk,omitempty"`
}
