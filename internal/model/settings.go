package model

import (
	"time"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/prayer"
)

// ModuleSetting is one entry of the saved module list.
type ModuleSetting struct {
	ID      string `json:"id"`
	Order   int    `json:"order"`
	Enabled bool   `json:"enabled"`
}

// Settings is a complete snapshot of a masjid's display configuration.
// Writers always replace the whole value; it is never mutated in place.
type Settings struct {
	MasjidID               int                `json:"masjid_id"`
	CalculationMethod      *int               `json:"calculation_method"`
	JuristicSchool         *int               `json:"juristic_school"`
	PrayerAdjustments      prayer.Adjustments `json:"prayer_adjustments"`
	Modules                []ModuleSetting    `json:"modules"`
	Theme                  string             `json:"theme"`
	HijriCalculationMethod string             `json:"hijri_calculation_method"`
	HijriOffset            int                `json:"hijri_offset"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// PrayerConfigured reports whether a calculation convention has been saved.
func (s *Settings) PrayerConfigured() bool {
	return s != nil && s.CalculationMethod != nil && s.JuristicSchool != nil
}

const (
	DefaultTheme                  = "emerald"
	DefaultHijriCalculationMethod = "HJCoSA"
)

// DefaultSettings is what a freshly created masjid starts with. Prayer
// calculation is left unset so the display asks for it.
func DefaultSettings(masjidID int) Settings {
	return Settings{
		MasjidID:               masjidID,
		PrayerAdjustments:      prayer.Adjustments{},
		Theme:                  DefaultTheme,
		HijriCalculationMethod: DefaultHijriCalculationMethod,
	}
}
