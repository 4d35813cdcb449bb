package snapshot

import (
	"context"
	"encoding/json"
	"errors"

	"backend-pawtrail/internal/db"
	"backend-pawtrail/internal/detect"

	"github.com/jackc/pgx/v5"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Load returns the stored blob, or a default snapshot when the user
// has none yet.
func (s *Service) Load(ctx context.Context, userID string) (Snapshot, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `
		SELECT data FROM account_snapshots WHERE user_id=$1
	`, userID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return defaultSnapshot(), nil
	}
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Service) Save(ctx context.Context, userID string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO account_snapshots (user_id, data)
		VALUES ($1,$2)
		ON CONFLICT (user_id) DO UPDATE SET data=EXCLUDED.data, updated_at=now()
	`, userID, data)
	return err
}

// Rebuild re-derives the blob from the zones and walks tables,
// carries the stored notification settings forward, and rewrites the
// whole row. Called after every zone or walk mutation.
func (s *Service) Rebuild(ctx context.Context, userID string) (Snapshot, error) {
	current, err := s.Load(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{NotificationSettings: current.NotificationSettings}

	if err := s.loadZones(ctx, userID, &snap); err != nil {
		return Snapshot{}, err
	}
	walks, err := s.loadWalks(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Walks = walks

	if err := s.Save(ctx, userID, snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Service) UpdateSettings(ctx context.Context, userID string, settings NotificationSettings) (Snapshot, error) {
	snap, err := s.Load(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	snap.NotificationSettings = settings
	if err := s.Save(ctx, userID, snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Service) loadZones(ctx context.Context, userID string, snap *Snapshot) error {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, ST_Y(location::geometry), ST_X(location::geometry),
		       radius_km, COALESCE(color,''), is_home
		FROM zones WHERE user_id=$1
		ORDER BY is_home DESC, created_at
	`, userID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var z detect.Zone
		var isHome bool
		if err := rows.Scan(&z.ID, &z.Name, &z.Lat, &z.Lng, &z.RadiusKm, &z.Color, &isHome); err != nil {
			return err
		}
		if isHome {
			home := z
			snap.HomeZone = &home
			continue
		}
		snap.CustomZones = append(snap.CustomZones, z)
	}
	return nil
}

func (s *Service) loadWalks(ctx context.Context, userID string) ([]WalkRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, started_at, ended_at, duration_seconds, distance_km, path, zones_visited
		FROM walks WHERE user_id=$1
		ORDER BY started_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []WalkRecord
	for rows.Next() {
		var rec WalkRecord
		var path, zones []byte
		if err := rows.Scan(&rec.ID, &rec.StartTime, &rec.EndTime, &rec.DurationSeconds, &rec.DistanceKm, &path, &zones); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(path, &rec.Path); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(zones, &rec.ZonesVisited); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
