package tracking

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"

	"backend-pawtrail/internal/detect"
	"backend-pawtrail/internal/stream"
	"backend-pawtrail/internal/walk"
	"backend-pawtrail/internal/zone"
)

// Stands in for the JWT middleware, which stores the claimed user id.
func passAuth(c *fiber.Ctx) error {
	c.Locals("user_id", "u1")
	return c.Next()
}

func anonAuth(c *fiber.Ctx) error { return c.Next() }

func newTestApp(t *testing.T) (*fiber.App, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)

	svc := NewService(zone.NewService(mock, 0.05, nil), walk.NewService(mock, nil), stream.NewHub(nil), detect.Config{})
	app := fiber.New()
	RegisterRoutes(app.Group("/tracking"), svc, passAuth)
	return app, mock
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func TestIngestSampleHandler(t *testing.T) {
	app, mock := newTestApp(t)
	expectGeofences(mock, true)

	resp := postJSON(t, app, "/tracking/samples", fiber.Map{
		"lat":         0.01,
		"lng":         0.0,
		"recorded_at": at(0),
		"accuracy":    ModeLowPower,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var result IngestResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.State != "leaving" {
		t.Fatalf("state = %s, want leaving", result.State)
	}
	if result.Sampling.Mode != ModeLowPower {
		t.Fatalf("sampling = %+v", result.Sampling)
	}
}

func TestIngestSampleHandlerNoHome(t *testing.T) {
	app, mock := newTestApp(t)
	expectGeofences(mock, false)

	resp := postJSON(t, app, "/tracking/samples", fiber.Map{"lat": 0.01})
	if resp.StatusCode != http.StatusPreconditionFailed {
		t.Fatalf("status = %d, want 412", resp.StatusCode)
	}
}

func TestTrackingRoutesRequireIdentity(t *testing.T) {
	app := fiber.New()
	svc := NewService(zone.NewService(nil, 0.05, nil), walk.NewService(nil, nil), stream.NewHub(nil), detect.Config{})
	RegisterRoutes(app.Group("/tracking"), svc, anonAuth)

	for _, path := range []string{"/tracking/samples", "/tracking/walks/start", "/tracking/walks/stop"} {
		resp := postJSON(t, app, path, fiber.Map{"lat": 0.01})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", path, resp.StatusCode)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/tracking/status", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status route: status = %d, want 401", resp.StatusCode)
	}
}

func TestManualWalkHandlers(t *testing.T) {
	app, mock := newTestApp(t)
	expectGeofences(mock, true)

	resp := postJSON(t, app, "/tracking/walks/start", fiber.Map{
		"lat":         0.0,
		"lng":         0.0,
		"recorded_at": at(0),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/tracking/walks/start", fiber.Map{"recorded_at": at(10)})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("double start status = %d, want 409", resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/tracking/status", nil)
	statusResp, err := app.Test(req)
	if err != nil || statusResp.StatusCode != http.StatusOK {
		t.Fatalf("status request: %v %v", err, statusResp.StatusCode)
	}
	var status Status
	if err := json.NewDecoder(statusResp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Walking || status.State != "walking" {
		t.Fatalf("status = %+v", status)
	}

	mock.ExpectQuery(`INSERT INTO walks`).
		WithArgs(pgxmock.AnyArg(), "u1", pgxmock.AnyArg(), pgxmock.AnyArg(), int64(300), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(at(300)))

	resp = postJSON(t, app, "/tracking/walks/stop", fiber.Map{"recorded_at": at(300)})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status = %d", resp.StatusCode)
	}
	var result IngestResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode stop: %v", err)
	}
	if result.Event == nil || result.Event.Walk == nil || result.Event.Walk.DurationSeconds != 300 {
		t.Fatalf("stop result = %+v", result)
	}

	resp = postJSON(t, app, "/tracking/walks/stop", fiber.Map{})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("stop without walk status = %d, want 409", resp.StatusCode)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
