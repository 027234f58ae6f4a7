package model

import "time"

// Content kinds. They double as the display module identifiers.
const (
	KindAnnouncement = "announcements"
	KindAyatHadith   = "ayat-and-hadith"
	KindEvent        = "events"
	KindPost         = "posts"
)

var ContentKinds = []string{KindAnnouncement, KindAyatHadith, KindEvent, KindPost}

func IsContentKind(kind string) bool {
	for _, k := range ContentKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Content is a single item of any of the four kinds. Kind-specific fields
// are nil when they do not apply.
type Content struct {
	ID           int        `db:"id"            json:"id"`
	MasjidID     int        `db:"masjid_id"     json:"masjid_id"`
	Kind         string     `db:"kind"          json:"kind"`
	Title        string     `db:"title"         json:"title"`
	Body         *string    `db:"body"          json:"body,omitempty"`
	ImageURL     *string    `db:"image_url"     json:"image_url,omitempty"`
	Reference    *string    `db:"reference"     json:"reference,omitempty"`
	Location     *string    `db:"location"      json:"location,omitempty"`
	StartsAt     *time.Time `db:"starts_at"     json:"starts_at,omitempty"`
	EndsAt       *time.Time `db:"ends_at"       json:"ends_at,omitempty"`
	Duration     *int       `db:"duration"      json:"duration,omitempty"`
	DisplayOrder *int       `db:"display_order" json:"display_order"`
	Visible      bool       `db:"visible"       json:"visible"`
	ArchivedAt   *time.Time `db:"archived_at"   json:"archived_at,omitempty"`
	CreatedBy    int        `db:"created_by"    json:"created_by"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

func (c Content) Archived() bool { return c.ArchivedAt != nil }
