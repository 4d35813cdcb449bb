package walk

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"backend-pawtrail/internal/detect"

	"github.com/pashagolub/pgxmock/v3"
)

func sampleWalk() *detect.Walk {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &detect.Walk{
		ID:              "walk-1",
		StartTime:       start,
		EndTime:         start.Add(20 * time.Minute),
		DurationSeconds: 1200,
		DistanceKm:      1.4,
		Path:            []detect.Coordinate{{Lat: 0.001, Lng: 0}, {Lat: 0.002, Lng: 0.001}},
		ZonesVisited:    []string{"Park"},
	}
}

func TestSaveWalk(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	w := sampleWalk()
	path, _ := json.Marshal(w.Path)
	zones, _ := json.Marshal(w.ZonesVisited)

	mock.ExpectQuery(`INSERT INTO walks`).
		WithArgs("walk-1", "user-1", w.StartTime, w.EndTime, int64(1200), 1.4, path, zones).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	svc := NewService(mock, nil)
	rec, err := svc.SaveWalk(context.Background(), "user-1", w)
	if err != nil {
		t.Fatalf("save walk: %v", err)
	}
	if rec.ID != "walk-1" || rec.UserID != "user-1" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListWalks(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	w := sampleWalk()
	path, _ := json.Marshal(w.Path)
	zones, _ := json.Marshal(w.ZonesVisited)

	mock.ExpectQuery(`SELECT id, user_id, started_at, ended_at, duration_seconds, distance_km, path, zones_visited, created_at`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "started_at", "ended_at", "duration_seconds", "distance_km", "path", "zones_visited", "created_at"}).
			AddRow("walk-1", "user-1", w.StartTime, w.EndTime, int64(1200), 1.4, path, zones, time.Now()))

	svc := NewService(mock, nil)
	records, err := svc.ListWalks(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list walks: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record")
	}
	if len(records[0].Path) != 2 || records[0].ZonesVisited[0] != "Park" {
		t.Fatalf("path/zones round trip failed: %+v", records[0])
	}
}

func TestGetWalkNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, started_at, ended_at, duration_seconds, distance_km, path, zones_visited, created_at`).
		WithArgs("missing").
		WillReturnError(errWalk)

	svc := NewService(mock, nil)
	if _, err := svc.GetWalk(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSummary(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE\(SUM\(distance_km\),0\)`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"count", "distance", "duration", "longest"}).
			AddRow(3, 5.2, int64(4500), 2.8))

	svc := NewService(mock, nil)
	summary, err := svc.Summary(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.WalkCount != 3 || summary.TotalDistanceKm != 5.2 || summary.LongestKm != 2.8 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestDeleteWalkError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`DELETE FROM walks`).WithArgs("walk-err").WillReturnError(errWalk)

	svc := NewService(mock, nil)
	if err := svc.DeleteWalk(context.Background(), "walk-err"); err == nil {
		t.Fatalf("expected error")
	}
}

var errWalk = errors.New("walk error")
