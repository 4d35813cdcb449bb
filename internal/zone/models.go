package zone

import "time"

type Zone struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	RadiusKm  float64   `json:"radius_km"`
	Color     string    `json:"color"`
	IsHome    bool      `json:"is_home"`
	CreatedAt time.Time `json:"created_at"`
}

// Patch carries a partial zone update. Nil means "leave unchanged",
// so zero values like latitude 0 are valid targets.
type Patch struct {
	Name     *string  `json:"name"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	RadiusKm *float64 `json:"radius_km"`
	Color    *string  `json:"color"`
}
