package packets

import (
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/prayer"
)

type MasjidResponse struct {
	model.Masjid
	DisplayURL string `json:"display_url"`
}

type ContentListResponse struct {
	Kind  string          `json:"kind"`
	Items []model.Content `json:"items"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

type NextPrayerResponse struct {
	Title     string `json:"title"`
	Display   string `json:"display"`
	Tomorrow  bool   `json:"tomorrow"`
	Remaining string `json:"remaining"`
}

type TodayResponse struct {
	Timetable prayer.Timetable    `json:"timetable"`
	Current   string              `json:"current_prayer,omitempty"`
	Next      *NextPrayerResponse `json:"next_prayer,omitempty"`
}

type MonthResponse struct {
	Year  int                `json:"year"`
	Month int                `json:"month"`
	Days  []prayer.Timetable `json:"days"`
}
