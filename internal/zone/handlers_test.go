package zone

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func passAuth(c *fiber.Ctx) error { return c.Next() }

func TestZoneHandlers(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO zones`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Home", 106.8, -6.2, 0.05, "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("zone-home", time.Now()))

	mock.ExpectQuery(`INSERT INTO zones`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Park", 106.81, -6.21, 0.2, "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/zones"), NewService(mock, 0.05, nil), passAuth)

	body, _ := json.Marshal(fiber.Map{"user_id": "user-1", "lat": -6.2, "lng": 106.8})
	req := httptest.NewRequest(http.MethodPut, "/zones/home", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("set home status: %v %v", err, resp.StatusCode)
	}

	body, _ = json.Marshal(Zone{UserID: "user-1", Name: "Park", Lat: -6.21, Lng: 106.81, RadiusKm: 0.2})
	req = httptest.NewRequest(http.MethodPost, "/zones/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create zone status: %v %v", err, resp.StatusCode)
	}
}

func TestZoneHandlersBadRequest(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/zones"), NewService(nil, 0.05, nil), passAuth)

	req := httptest.NewRequest(http.MethodPost, "/zones/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for empty zone")
	}

	req = httptest.NewRequest(http.MethodPut, "/zones/home", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for home without user")
	}

	req = httptest.NewRequest(http.MethodGet, "/zones/", nil)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for list without user_id")
	}
}

func TestZoneHandlersList(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, name, ST_Y\(location::geometry\), ST_X\(location::geometry\),`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "lat", "lng", "radius_km", "color", "is_home", "created_at"}).
			AddRow("zone-home", "user-1", "Home", -6.2, 106.8, 0.05, "", true, time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/zones"), NewService(mock, 0.05, nil), passAuth)

	req := httptest.NewRequest(http.MethodGet, "/zones/?user_id=user-1", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list zones status: %v", err)
	}

	var zones []Zone
	if err := json.NewDecoder(resp.Body).Decode(&zones); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(zones) != 1 || !zones[0].IsHome {
		t.Fatalf("unexpected zones: %+v", zones)
	}
}
