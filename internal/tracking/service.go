package tracking

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"backend-pawtrail/internal/detect"
	"backend-pawtrail/internal/stream"
	"backend-pawtrail/internal/walk"
	"backend-pawtrail/internal/zone"
)

// Service drives one detection engine per user. Engines live in memory
// on the instance that receives the user's samples; walk events fan out
// through the hub so other instances still see them.
type Service struct {
	zones *zone.Service
	walks *walk.Service
	hub   *stream.Hub
	cfg   detect.Config

	mu      sync.Mutex
	engines map[string]*engineEntry
}

// engineEntry serializes all engine access for one user. Samples,
// manual starts and stops for the same user never interleave.
type engineEntry struct {
	mu     sync.Mutex
	engine *detect.Engine
}

func NewService(zones *zone.Service, walks *walk.Service, hub *stream.Hub, cfg detect.Config) *Service {
	return &Service{
		zones:   zones,
		walks:   walks,
		hub:     hub,
		cfg:     cfg,
		engines: map[string]*engineEntry{},
	}
}

func (s *Service) entryFor(userID string) *engineEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.engines[userID]
	if entry == nil {
		entry = &engineEntry{}
		s.engines[userID] = entry
	}
	return entry
}

// prepare builds the user's engine on first use and refreshes its zones
// from storage whenever no walk is in progress. While a walk is active
// the zone set stays frozen, so zone edits take effect on the next walk.
func (s *Service) prepare(ctx context.Context, userID string, entry *engineEntry) error {
	if entry.engine != nil && entry.engine.IsWalking() {
		return nil
	}

	home, zones, err := s.zones.Geofences(ctx, userID)
	if err != nil {
		return err
	}
	if entry.engine == nil {
		entry.engine = detect.NewEngine(home, zones, s.cfg)
	} else {
		entry.engine.SetZones(home, zones)
	}
	return nil
}

// Ingest feeds one position sample through the user's engine and reacts
// to whatever event it produced.
func (s *Service) Ingest(ctx context.Context, userID string, sample Sample) (IngestResult, error) {
	entry := s.entryFor(userID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := s.prepare(ctx, userID, entry); err != nil {
		return IngestResult{}, err
	}

	at := sample.RecordedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	event, err := entry.engine.Ingest(detect.Coordinate{Lat: sample.Lat, Lng: sample.Lng}, at)
	if err != nil {
		return IngestResult{}, err
	}
	return s.resolve(ctx, userID, entry, event), nil
}

// StartWalk begins a walk from the given position without waiting for
// the leave-home confirmation window.
func (s *Service) StartWalk(ctx context.Context, userID string, sample Sample) (IngestResult, error) {
	entry := s.entryFor(userID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := s.prepare(ctx, userID, entry); err != nil {
		return IngestResult{}, err
	}

	at := sample.RecordedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	event, err := entry.engine.ManualStart(detect.Coordinate{Lat: sample.Lat, Lng: sample.Lng}, at)
	if err != nil {
		return IngestResult{}, err
	}
	return s.resolve(ctx, userID, entry, event), nil
}

// StopWalk ends the current walk immediately at the given time.
func (s *Service) StopWalk(ctx context.Context, userID string, at time.Time) (IngestResult, error) {
	entry := s.entryFor(userID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.engine == nil {
		return IngestResult{}, detect.ErrNoWalkInProgress
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	event, err := entry.engine.ManualStop(at)
	if err != nil {
		return IngestResult{}, err
	}
	return s.resolve(ctx, userID, entry, event), nil
}

func (s *Service) Status(userID string) Status {
	entry := s.entryFor(userID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.engine == nil {
		return Status{
			State:    detect.StateAtHome.String(),
			Sampling: samplingFor(false),
		}
	}

	walking := entry.engine.IsWalking()
	return Status{
		State:    entry.engine.State().String(),
		Walking:  walking,
		Walk:     entry.engine.CurrentWalk(),
		Sampling: samplingFor(walking),
	}
}

// resolve broadcasts the event and, for completions, persists the walk.
// A failed save is reported in the result but never unwinds the engine;
// the walk is done either way.
func (s *Service) resolve(ctx context.Context, userID string, entry *engineEntry, event detect.Event) IngestResult {
	result := IngestResult{
		State:    entry.engine.State().String(),
		Sampling: samplingFor(entry.engine.IsWalking()),
	}

	if event.Kind == detect.EventNone {
		return result
	}
	result.Event = &event

	if event.Kind == detect.EventWalkCompleted {
		if _, err := s.walks.SaveWalk(ctx, userID, event.Walk); err != nil {
			log.Printf("tracking: save walk for user %s: %v", userID, err)
			result.PersistError = err.Error()
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("tracking: marshal event for user %s: %v", userID, err)
		return result
	}
	s.hub.Broadcast(userID, payload)
	return result
}
