package walk

import (
	"time"

	"backend-pawtrail/internal/detect"
)

// Record is a finalized walk as stored in history. Ownership of the
// walk passes here once the engine completes it.
type Record struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	StartTime       time.Time           `json:"start_time"`
	EndTime         time.Time           `json:"end_time"`
	DurationSeconds int64               `json:"duration_seconds"`
	DistanceKm      float64             `json:"distance_km"`
	Path            []detect.Coordinate `json:"path"`
	ZonesVisited    []string            `json:"zones_visited"`
	CreatedAt       time.Time           `json:"created_at"`
}

type Summary struct {
	UserID               string  `json:"user_id"`
	WalkCount            int     `json:"walk_count"`
	TotalDistanceKm      float64 `json:"total_distance_km"`
	TotalDurationSeconds int64   `json:"total_duration_seconds"`
	LongestKm            float64 `json:"longest_km"`
}
