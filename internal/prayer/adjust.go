package prayer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PrayerName identifies one adjustable prayer slot.
type PrayerName string

const (
	Fajr    PrayerName = "fajr"
	Sunrise PrayerName = "sunrise"
	Dhuhr   PrayerName = "dhuhr"
	Asr     PrayerName = "asr"
	Maghrib PrayerName = "maghrib"
	Isha    PrayerName = "isha"
	Jumma1  PrayerName = "jumma1"
	Jumma2  PrayerName = "jumma2"
	Jumma3  PrayerName = "jumma3"
)

// DailyPrayers are the six canonical slots in chronological order.
var DailyPrayers = []PrayerName{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// JummaVariants are the alternate Friday congregational slots.
var JummaVariants = []PrayerName{Jumma1, Jumma2, Jumma3}

// AllPrayerNames is every adjustable slot.
var AllPrayerNames = append(append([]PrayerName{}, DailyPrayers...), JummaVariants...)

var displayNames = map[PrayerName]string{
	Fajr:    "Fajr",
	Sunrise: "Sunrise",
	Dhuhr:   "Dhuhr",
	Asr:     "Asr",
	Maghrib: "Maghrib",
	Isha:    "Isha",
	Jumma1:  "Jumma ١",
	Jumma2:  "Jumma ٢",
	Jumma3:  "Jumma ٣",
}

// ParsePrayerName maps a case-insensitive key onto the closed set of prayers.
func ParsePrayerName(s string) (PrayerName, bool) {
	n := PrayerName(strings.ToLower(strings.TrimSpace(s)))
	_, ok := displayNames[n]
	return n, ok
}

// Title is the human-readable name shown on the timetable.
func (n PrayerName) Title() string {
	if t, ok := displayNames[n]; ok {
		return t
	}
	return string(n)
}

// AdjustmentType discriminates the three adjustment variants.
type AdjustmentType string

const (
	AdjustDefault AdjustmentType = "default"
	AdjustOffset  AdjustmentType = "offset"
	AdjustManual  AdjustmentType = "manual"
)

// Adjustment is one masjid-specific correction for a prayer slot. Offset is
// meaningful only for AdjustOffset and ManualTime only for AdjustManual.
type Adjustment struct {
	Type       AdjustmentType `json:"type"`
	Offset     int            `json:"offset,omitempty"`
	ManualTime string         `json:"manual_time,omitempty"`
}

// Adjustments maps prayer slots to their correction. A missing key means default.
type Adjustments map[PrayerName]Adjustment

// UnmarshalJSON drops keys outside the known prayer set.
func (a *Adjustments) UnmarshalJSON(data []byte) error {
	var raw map[string]Adjustment
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Adjustments, len(raw))
	for k, v := range raw {
		name, ok := ParsePrayerName(k)
		if !ok {
			continue
		}
		out[name] = v
	}
	*a = out
	return nil
}

// Validate checks that each entry carries a usable payload for its type.
func (a Adjustments) Validate() error {
	for name, adj := range a {
		switch adj.Type {
		case AdjustDefault, AdjustOffset, "":
		case AdjustManual:
			if _, ok := ParseClockTime(adj.ManualTime); !ok {
				return fmt.Errorf("%s: manual_time %q must be HH:mm", name, adj.ManualTime)
			}
		default:
			return fmt.Errorf("%s: unknown adjustment type %q", name, adj.Type)
		}
	}
	return nil
}

// LabelStyle selects how adjustment annotations are rendered.
type LabelStyle int

const (
	// LabelParenthesized renders "(+01h 15m)" and "(manual)".
	LabelParenthesized LabelStyle = iota
	// LabelPlain renders "+1h 15m" and "manual".
	LabelPlain
)

// Resolution is the outcome of applying adjustments to one baseline time.
type Resolution struct {
	Name     PrayerName `json:"name"`
	Raw      string     `json:"raw"`
	Display  string     `json:"display"`
	Label    string     `json:"label,omitempty"`
	Adjusted bool       `json:"adjusted"`
}

// IsAdjusted reports whether name carries an offset or manual adjustment.
// Any other type resolves to the baseline, so it does not count.
func IsAdjusted(name PrayerName, adjustments Adjustments) bool {
	adj, ok := adjustments[name]
	return ok && (adj.Type == AdjustOffset || adj.Type == AdjustManual)
}

// Resolve computes the effective time for name from its baseline and the
// masjid's adjustments. It is a pure function and never fails: unknown names
// and unparseable values fall back to the baseline as received.
func Resolve(name PrayerName, baseline string, adjustments Adjustments, style LabelStyle) Resolution {
	base := stripSuffix(baseline)
	res := Resolution{Name: name, Raw: base}

	adj, ok := adjustments[name]
	if ok {
		switch adj.Type {
		case AdjustOffset:
			res.Raw = AddOffsetMinutes(base, adj.Offset)
			res.Label = offsetLabel(adj.Offset, style)
			res.Adjusted = true
		case AdjustManual:
			res.Raw = adj.ManualTime
			res.Label = manualLabel(style)
			res.Adjusted = true
		}
	}

	res.Display = FormatForDisplay(res.Raw)
	return res
}

func manualLabel(style LabelStyle) string {
	if style == LabelParenthesized {
		return "(manual)"
	}
	return "manual"
}

func offsetLabel(offset int, style LabelStyle) string {
	sign := ""
	switch {
	case offset > 0:
		sign = "+"
	case offset < 0:
		sign = "-"
		offset = -offset
	}
	h, m := offset/60, offset%60

	var body string
	switch {
	case h == 0:
		body = fmt.Sprintf("%02dm", m)
	case style == LabelParenthesized:
		body = fmt.Sprintf("%02dh %02dm", h, m)
	default:
		body = fmt.Sprintf("%dh %02dm", h, m)
	}

	if style == LabelParenthesized {
		return "(" + sign + body + ")"
	}
	return sign + body
}
