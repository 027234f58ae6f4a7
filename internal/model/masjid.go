package model

import "time"

// Masjid is the public profile a display is bound to through its code.
type Masjid struct {
	ID        int       `db:"id"          json:"id"`
	Name      string    `db:"name"        json:"name"`
	Code      string    `db:"code"        json:"code"`
	Latitude  *float64  `db:"latitude"    json:"latitude,omitempty"`
	Longitude *float64  `db:"longitude"   json:"longitude,omitempty"`
	Timezone  *string   `db:"timezone"    json:"timezone,omitempty"`
	LogoURL   *string   `db:"logo_url"    json:"logo_url,omitempty"`
	CreatedBy int       `db:"created_by"  json:"created_by"`
	CreatedAt time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt time.Time `db:"updated_at"  json:"updated_at"`
}

// HasLocation reports whether both coordinates are set. Prayer times cannot
// be fetched without them.
func (m Masjid) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// Zone returns the masjid's configured IANA zone. ok is false when none is
// set or the name does not load.
func (m Masjid) Zone() (*time.Location, bool) {
	if m.Timezone == nil || *m.Timezone == "" {
		return nil, false
	}
	loc, err := time.LoadLocation(*m.Timezone)
	if err != nil {
		return nil, false
	}
	return loc, true
}
