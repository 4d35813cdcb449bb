package zone

import (
	"context"
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
	// Radius applied to the home zone when the caller does not
	// supply one.
	homeRadiusKm float64
}

func NewService(db db.Querier, homeRadiusKm float64, snap *snapshot.Service) *Service {
	if homeRadiusKm <= 0 {
		homeRadiusKm = 0.05
	}
	return &Service{db: db, snap: snap, homeRadiusKm: homeRadiusKm}
}

// refreshSnapshot rewrites the account blob after a zone mutation.
// Best effort: a failed rewrite never rolls back the zone change.
func (s *Service) refreshSnapshot(ctx context.Context, userID string) {
	if s.snap == nil {
		return
	}
	if _, err := s.snap.Rebuild(ctx, userID); err != nil {
		log.Printf("snapshot rebuild error: %v", err)
	}
}

// SetHome upserts the single home zone for a user. Walk detection is
// measured against this geofence.
func (s *Service) SetHome(ctx context.Context, userID string, lat, lng, radiusKm float64) (Zone, error) {
	if radiusKm <= 0 {
		radiusKm = s.homeRadiusKm
	}
	z := Zone{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     "Home",
		Lat:      lat,
		Lng:      lng,
		RadiusKm: radiusKm,
		IsHome:   true,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO zones (id, user_id, name, location, radius_km, color, is_home)
		VALUES ($1,$2,$3, ST_SetSRID(ST_MakePoint($4,$5), 4326)::geography, $6, $7, TRUE)
		ON CONFLICT (user_id) WHERE is_home DO UPDATE
		SET location=EXCLUDED.location, radius_km=EXCLUDED.radius_km
		RETURNING id, created_at
	`, z.ID, z.UserID, z.Name, z.Lng, z.Lat, z.RadiusKm, z.Color)
	if err := row.Scan(&z.ID, &z.CreatedAt); err != nil {
		return Zone{}, err
	}
	s.refreshSnapshot(ctx, userID)
	return z, nil
}

func (s *Service) CreateZone(ctx context.Context, input Zone) (Zone, error) {
	input.ID = uuid.NewString()
	input.IsHome = false
	row := s.db.QueryRow(ctx, `
		INSERT INTO zones (id, user_id, name, location, radius_km, color, is_home)
		VALUES ($1,$2,$3, ST_SetSRID(ST_MakePoint($4,$5), 4326)::geography, $6, $7, FALSE)
		RETURNING created_at
	`, input.ID, input.UserID, input.Name, input.Lng, input.Lat, input.RadiusKm, input.Color)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Zone{}, err
	}
	s.refreshSnapshot(ctx, input.UserID)
	return input, nil
}

func (s *Service) GetZone(ctx context.Context, id string) (Zone, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, ST_Y(location::geometry), ST_X(location::geometry),
		       radius_km, COALESCE(color,''), is_home, created_at
		FROM zones WHERE id=$1
	`, id)
	var z Zone
	if err := row.Scan(&z.ID, &z.UserID, &z.Name, &z.Lat, &z.Lng, &z.RadiusKm, &z.Color, &z.IsHome, &z.CreatedAt); err != nil {
		return Zone{}, err
	}
	return z, nil
}

func (s *Service) UpdateZone(ctx context.Context, id string, patch Patch) (Zone, error) {
	z, err := s.GetZone(ctx, id)
	if err != nil {
		return Zone{}, err
	}
	if patch.Name != nil {
		z.Name = *patch.Name
	}
	if patch.Lat != nil {
		z.Lat = *patch.Lat
	}
	if patch.Lng != nil {
		z.Lng = *patch.Lng
	}
	if patch.RadiusKm != nil {
		z.RadiusKm = *patch.RadiusKm
	}
	if patch.Color != nil {
		z.Color = *patch.Color
	}

	_, err = s.db.Exec(ctx, `
		UPDATE zones
		SET name=$2, location=ST_SetSRID(ST_MakePoint($3,$4), 4326)::geography,
		    radius_km=$5, color=$6
		WHERE id=$1
	`, z.ID, z.Name, z.Lng, z.Lat, z.RadiusKm, z.Color)
	if err != nil {
		return Zone{}, err
	}
	s.refreshSnapshot(ctx, z.UserID)
	return z, nil
}

func (s *Service) DeleteZone(ctx context.Context, id string) error {
	var userID string
	err := s.db.QueryRow(ctx, `
		DELETE FROM zones WHERE id=$1 AND NOT is_home
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

func (s *Service) ListZones(ctx context.Context, userID string) ([]Zone, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, ST_Y(location::geometry), ST_X(location::geometry),
		       radius_km, COALESCE(color,''), is_home, created_at
		FROM zones WHERE user_id=$1
		ORDER BY is_home DESC, created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.UserID, &z.Name, &z.Lat, &z.Lng, &z.RadiusKm, &z.Color, &z.IsHome, &z.CreatedAt); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// Geofences loads a user's zones in the shape the detection engine
// consumes. The home pointer is nil when no home zone is set.
func (s *Service) Geofences(ctx context.Context, userID string) (*detect.Zone, []detect.Zone, error) {
	zones, err := s.ListZones(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	var home *detect.Zone
	var named []detect.Zone
	for _, z := range zones {
		dz := detect.Zone{ID: z.ID, Name: z.Name, Lat: z.Lat, Lng: z.Lng, RadiusKm: z.RadiusKm, Color: z.Color}
		if z.IsHome {
			h := dz
			home = &h
			continue
		}
		named = append(named, dz)
	}
	return home, named, nil
}
