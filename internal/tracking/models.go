package tracking

import (
	"time"

	"backend-pawtrail/internal/detect"
)

// Sample is one position report from the device. Accuracy is the
// sensing mode the device used and is informational only.
type Sample struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
	Accuracy   string    `json:"accuracy"`
}

const (
	ModeHighAccuracy = "high_accuracy"
	ModeLowPower     = "low_power"
)

// Sampling tells the device which cadence to report at next. Interval
// zero means a continuous high-accuracy subscription.
type Sampling struct {
	Mode            string `json:"mode"`
	IntervalSeconds int    `json:"interval_seconds"`
}

type IngestResult struct {
	State    string        `json:"state"`
	Event    *detect.Event `json:"event,omitempty"`
	Sampling Sampling      `json:"sampling"`
	// Set when a completed walk could not be persisted. The walk is
	// still finalized in memory; persistence retry is the caller's.
	PersistError string `json:"persist_error,omitempty"`
}

type Status struct {
	State    string       `json:"state"`
	Walking  bool         `json:"walking"`
	Walk     *detect.Walk `json:"walk,omitempty"`
	Sampling Sampling     `json:"sampling"`
}

func samplingFor(walking bool) Sampling {
	if walking {
		return Sampling{Mode: ModeHighAccuracy}
	}
	return Sampling{Mode: ModeLowPower, IntervalSeconds: 120}
}
