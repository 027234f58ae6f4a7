package prayer

import (
	"strings"
	"time"
)

// Baseline is one day of provider-computed times. It is never mutated.
type Baseline struct {
	Date      string        `json:"date"` // YYYY-MM-DD
	Fajr      string        `json:"fajr"`
	Sunrise   string        `json:"sunrise"`
	Dhuhr     string        `json:"dhuhr"`
	Asr       string        `json:"asr"`
	Maghrib   string        `json:"maghrib"`
	Isha      string        `json:"isha"`
	Timezone  string        `json:"timezone,omitempty"`
	Gregorian GregorianDate `json:"gregorian"`
	Hijri     HijriDate     `json:"hijri"`
}

// GregorianDate is the provider's Gregorian calendar metadata.
type GregorianDate struct {
	Weekday  string `json:"weekday"`
	Readable string `json:"readable"`
}

// HijriDate is the provider's Hijri calendar metadata.
type HijriDate struct {
	Day     string `json:"day"`
	MonthEn string `json:"month_en"`
	MonthAr string `json:"month_ar"`
	Year    string `json:"year"`
}

// Format returns the Hijri date as "DD MonthName YYYY AH".
func (h HijriDate) Format() string {
	if h.Day == "" || h.MonthEn == "" || h.Year == "" {
		return ""
	}
	return h.Day + " " + h.MonthEn + " " + h.Year + " AH"
}

// Time returns the baseline value for one of the six daily prayers.
func (b Baseline) Time(name PrayerName) string {
	switch name {
	case Fajr:
		return b.Fajr
	case Sunrise:
		return b.Sunrise
	case Dhuhr, Jumma1, Jumma2, Jumma3:
		return b.Dhuhr
	case Asr:
		return b.Asr
	case Maghrib:
		return b.Maghrib
	case Isha:
		return b.Isha
	}
	return ""
}

// Location loads the provider's zone for this day; ok is false when it is
// missing or unknown to the tz database.
func (b Baseline) Location() (*time.Location, bool) {
	if b.Timezone == "" {
		return nil, false
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, false
	}
	return loc, true
}

// IsFriday reports whether the baseline's date is a Friday.
func (b Baseline) IsFriday() bool {
	return IsFridayDate(b.Date)
}

// Row is one displayed line of a timetable.
type Row struct {
	Title string `json:"title"`
	Resolution
}

// Clock returns the row's effective time; ok is false when the raw value is malformed.
func (r Row) Clock() (Clock, bool) {
	return ParseClockTime(r.Raw)
}

// Timetable is a masjid's effective schedule for one day.
type Timetable struct {
	Date   string `json:"date"`
	Friday bool   `json:"friday"`
	Hijri  string `json:"hijri,omitempty"`
	Rows   []Row  `json:"rows"`
}

// BuildTimetable resolves every daily slot of baseline. On Fridays the Dhuhr
// row is replaced by the selected Jumma slots.
func BuildTimetable(b Baseline, adjustments Adjustments, style LabelStyle) Timetable {
	tt := Timetable{
		Date:   b.Date,
		Friday: b.IsFriday(),
		Hijri:  b.Hijri.Format(),
	}
	for _, name := range DailyPrayers {
		if name == Dhuhr && tt.Friday {
			for _, slot := range SelectJumma(b.Dhuhr, adjustments, style) {
				tt.Rows = append(tt.Rows, Row{Title: slot.Title, Resolution: slot.Resolution})
			}
			continue
		}
		tt.Rows = append(tt.Rows, Row{
			Title:      name.Title(),
			Resolution: Resolve(name, b.Time(name), adjustments, style),
		})
	}
	return tt
}

// BuildMonth resolves a run of baselines, one timetable per day.
func BuildMonth(days []Baseline, adjustments Adjustments, style LabelStyle) []Timetable {
	out := make([]Timetable, 0, len(days))
	for _, d := range days {
		out = append(out, BuildTimetable(d, adjustments, style))
	}
	return out
}

// prayerRows are the rows eligible for current/next lookups; sunrise marks
// the end of Fajr and is not itself a prayer.
func (t Timetable) prayerRows() []Row {
	out := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Name == Sunrise {
			continue
		}
		if _, ok := r.Clock(); !ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Next returns the earliest prayer strictly after now. When every prayer has
// passed it wraps to the earliest prayer of the day and tomorrow is true.
// Comparison is numeric on minutes of the day, not on row order.
func (t Timetable) Next(now Clock) (row Row, tomorrow bool, ok bool) {
	rows := t.prayerRows()
	if len(rows) == 0 {
		return Row{}, false, false
	}
	var (
		next, first       Row
		nextAt, firstAt   Clock
		haveNext, haveAny bool
	)
	for _, r := range rows {
		c, _ := r.Clock()
		if !haveAny || c.Before(firstAt) {
			first, firstAt, haveAny = r, c, true
		}
		if now.Before(c) && (!haveNext || c.Before(nextAt)) {
			next, nextAt, haveNext = r, c, true
		}
	}
	if haveNext {
		return next, false, true
	}
	return first, true, true
}

// Current returns the latest prayer whose time is at or before now.
func (t Timetable) Current(now Clock) (Row, bool) {
	var (
		cur   Row
		curAt Clock
		found bool
	)
	for _, r := range t.prayerRows() {
		c, _ := r.Clock()
		if now.Before(c) {
			continue
		}
		if !found || curAt.Before(c) {
			cur, curAt, found = r, c, true
		}
	}
	return cur, found
}

// Remaining is the duration from now until the next prayer, wrapping past midnight.
func (t Timetable) Remaining(now Clock) (time.Duration, bool) {
	row, tomorrow, ok := t.Next(now)
	if !ok {
		return 0, false
	}
	c, _ := row.Clock()
	mins := c.Minutes() - now.Minutes()
	if tomorrow {
		mins += minutesPerDay
	}
	return time.Duration(mins) * time.Minute, true
}

// Row looks up a row by title, case-insensitively.
func (t Timetable) Row(title string) (Row, bool) {
	for _, r := range t.Rows {
		if strings.EqualFold(r.Title, title) {
			return r, true
		}
	}
	return Row{}, false
}
