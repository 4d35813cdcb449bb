package snapshot

import (
	"time"

	"backend-pawtrail/internal/detect"
)

type NotificationSettings struct {
	WalkStarted     bool   `json:"walk_started"`
	WalkCompleted   bool   `json:"walk_completed"`
	QuietHoursStart string `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd   string `json:"quiet_hours_end,omitempty"`
}

// WalkRecord is the blob's own walk shape. The blob is a wire format
// owned by this package; it deliberately does not reference the
// history service's types.
type WalkRecord struct {
	ID              string              `json:"id"`
	StartTime       time.Time           `json:"start_time"`
	EndTime         time.Time           `json:"end_time"`
	DurationSeconds int64               `json:"duration_seconds"`
	DistanceKm      float64             `json:"distance_km"`
	Path            []detect.Coordinate `json:"path"`
	ZonesVisited    []string            `json:"zones_visited"`
}

// Snapshot is the full account blob: loaded once at client startup
// and rewritten whole on every mutation. Last writer wins, no merge.
type Snapshot struct {
	HomeZone             *detect.Zone         `json:"home_zone"`
	CustomZones          []detect.Zone        `json:"custom_zones"`
	Walks                []WalkRecord         `json:"walks"`
	NotificationSettings NotificationSettings `json:"notification_settings"`
}

func defaultSnapshot() Snapshot {
	return Snapshot{
		NotificationSettings: NotificationSettings{
			WalkStarted:   true,
			WalkCompleted: true,
		},
	}
}
