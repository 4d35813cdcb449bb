package walk

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"backend-pawtrail/internal/db"
	"backend-pawtrail/internal/detect"
	"backend-pawtrail/internal/snapshot"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service struct {
	db   db.Querier
	snap *snapshot.Service
}

func NewService(db db.Querier, snap *snapshot.Service) *Service {
	return &Service{db: db, snap: snap}
}

// refreshSnapshot rewrites the account blob after a history change.
// Best effort: a failed rewrite never rolls back the walk record.
func (s *Service) refreshSnapshot(ctx context.Context, userID string) {
	if s.snap == nil {
		return
	}
	if _, err := s.snap.Rebuild(ctx, userID); err != nil {
		log.Printf("snapshot rebuild error: %v", err)
	}
}

// SaveWalk persists a completed walk into the user's history.
func (s *Service) SaveWalk(ctx context.Context, userID string, w *detect.Walk) (Record, error) {
	rec := Record{
		ID:              w.ID,
		UserID:          userID,
		StartTime:       w.StartTime,
		EndTime:         w.EndTime,
		DurationSeconds: w.DurationSeconds,
		DistanceKm:      w.DistanceKm,
		Path:            w.Path,
		ZonesVisited:    w.ZonesVisited,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	path, err := json.Marshal(rec.Path)
	if err != nil {
		return Record{}, err
	}
	zones, err := json.Marshal(rec.ZonesVisited)
	if err != nil {
		return Record{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO walks (id, user_id, started_at, ended_at, duration_seconds, distance_km, path, zones_visited)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, rec.ID, rec.UserID, rec.StartTime, rec.EndTime, rec.DurationSeconds, rec.DistanceKm, path, zones)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return Record{}, err
	}
	s.refreshSnapshot(ctx, rec.UserID)
	return rec, nil
}

func (s *Service) GetWalk(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, started_at, ended_at, duration_seconds, distance_km, path, zones_visited, created_at
		FROM walks WHERE id=$1
	`, id)
	return scanRecord(row.Scan)
}

func (s *Service) ListWalks(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, started_at, ended_at, duration_seconds, distance_km, path, zones_visited, created_at
		FROM walks WHERE user_id=$1
		ORDER BY started_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Service) DeleteWalk(ctx context.Context, id string) error {
	var userID string
	err := s.db.QueryRow(ctx, `
		DELETE FROM walks WHERE id=$1
		RETURNING user_id
	`, id).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	s.refreshSnapshot(ctx, userID)
	return nil
}

func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(distance_km),0), COALESCE(SUM(duration_seconds),0), COALESCE(MAX(distance_km),0)
		FROM walks WHERE user_id=$1
	`, userID)

	summary := Summary{UserID: userID}
	if err := row.Scan(&summary.WalkCount, &summary.TotalDistanceKm, &summary.TotalDurationSeconds, &summary.LongestKm); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func scanRecord(scan func(...any) error) (Record, error) {
	var rec Record
	var path, zones []byte
	if err := scan(&rec.ID, &rec.UserID, &rec.StartTime, &rec.EndTime, &rec.DurationSeconds, &rec.DistanceKm, &path, &zones, &rec.CreatedAt); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(path, &rec.Path); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(zones, &rec.ZonesVisited); err != nil {
		return Record{}, err
	}
	return rec, nil
}
