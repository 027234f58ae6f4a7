package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/prayer"
)

type UpdateMasjidRequest struct {
	Name      string   `json:"name" binding:"required"`
	Code      string   `json:"code" binding:"required,alphanum,min=3,max=32"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	Timezone  *string  `json:"timezone"`
}

type UpdatePrayerSettingsRequest struct {
	CalculationMethod *int               `json:"calculation_method" binding:"required,min=0,max=23"`
	JuristicSchool    *int               `json:"juristic_school" binding:"required,oneof=0 1"`
	PrayerAdjustments prayer.Adjustments `json:"prayer_adjustments"`
}

type ModuleEntry struct {
	ID      string `json:"id" binding:"required"`
	Order   int    `json:"order" binding:"required,min=1"`
	Enabled bool   `json:"enabled"`
}

type UpdateModulesRequest struct {
	Modules []ModuleEntry `json:"modules" binding:"required,dive"`
}

type UpdateThemeRequest struct {
	Theme string `json:"theme" binding:"required,alphanum,max=32"`
}

type UpdateHijriRequest struct {
	CalculationMethod string `json:"hijri_calculation_method" binding:"required,oneof=HJCoSA UAQ DIYANET MATHEMATICAL"`
	Offset            *int   `json:"hijri_offset" binding:"required,min=-2,max=2"`
}

// ContentRequest is the create/update body shared by all four content kinds.
// Fields that do not apply to a kind are ignored.
type ContentRequest struct {
	Title        string     `json:"title" binding:"required,max=200"`
	Body         *string    `json:"body"`
	ImageURL     *string    `json:"image_url" binding:"omitempty,url"`
	Reference    *string    `json:"reference"`
	Location     *string    `json:"location"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	Duration     *int       `json:"duration" binding:"omitempty,min=1,max=600"`
	DisplayOrder *int       `json:"display_order" binding:"omitempty,min=1"`
	Visible      *bool      `json:"visible"`
}

type VisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

type ReorderItemsRequest struct {
	ItemIDs []int `json:"item_ids" binding:"required"`
}

type MonthQuery struct {
	Year  int `form:"year" binding:"required,min=1900,max=2200"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}
