package aladhan

import (
	"fmt"
	"time"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/prayer"
)

type Response struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   Data   `json:"data"`
}

type CalendarResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   []Data `json:"data"`
}

type Data struct {
	Timings Timings  `json:"timings"`
	Date    DateInfo `json:"date"`
	Meta    Meta     `json:"meta"`
}

// Timings are "HH:mm" strings, possibly with a " (TZ)" suffix.
type Timings struct {
	Fajr    string `json:"Fajr"`
	Sunrise string `json:"Sunrise"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

type DateInfo struct {
	Readable  string        `json:"readable"`
	Hijri     HijriDate     `json:"hijri"`
	Gregorian GregorianDate `json:"gregorian"`
}

type HijriDate struct {
	Date  string `json:"date"`
	Day   string `json:"day"`
	Month struct {
		Number int    `json:"number"`
		En     string `json:"en"`
		Ar     string `json:"ar"`
	} `json:"month"`
	Year string `json:"year"`
}

type GregorianDate struct {
	Date    string `json:"date"` // DD-MM-YYYY
	Weekday struct {
		En string `json:"en"`
	} `json:"weekday"`
}

type Meta struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Method    struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"method"`
	School string `json:"school"`
}

// Baseline converts one day of provider data. The Gregorian date is
// normalised to YYYY-MM-DD; when it cannot be read the fallback is used.
func (d Data) Baseline(fallback time.Time) prayer.Baseline {
	date := fallback.Format("2006-01-02")
	if t, err := time.Parse("02-01-2006", d.Date.Gregorian.Date); err == nil {
		date = t.Format("2006-01-02")
	}
	return prayer.Baseline{
		Date:     date,
		Fajr:     d.Timings.Fajr,
		Sunrise:  d.Timings.Sunrise,
		Dhuhr:    d.Timings.Dhuhr,
		Asr:      d.Timings.Asr,
		Maghrib:  d.Timings.Maghrib,
		Isha:     d.Timings.Isha,
		Timezone: d.Meta.Timezone,
		Gregorian: prayer.GregorianDate{
			Weekday:  d.Date.Gregorian.Weekday.En,
			Readable: d.Date.Readable,
		},
		Hijri: prayer.HijriDate{
			Day:     d.Date.Hijri.Day,
			MonthEn: d.Date.Hijri.Month.En,
			MonthAr: d.Date.Hijri.Month.Ar,
			Year:    d.Date.Hijri.Year,
		},
	}
}

// Query selects the location and conventions for a timings request.
type Query struct {
	Latitude    float64
	Longitude   float64
	Method      int // 0..23, negative leaves it to the provider
	School      int // 0 standard, 1 hanafi, negative leaves it to the provider
	HijriMethod string
	HijriOffset int
}

func (q Query) key(scope string) string {
	return fmt.Sprintf("%s|%.6f|%.6f|%d|%d|%s|%d",
		scope, q.Latitude, q.Longitude, q.Method, q.School, q.HijriMethod, q.HijriOffset)
}
