package prayer

// JummaName is the label of the synthetic slot used when no variant is configured.
const JummaName = "Jumma"

// JummaSlot is one Friday congregational prayer row.
type JummaSlot struct {
	Title string `json:"title"`
	Resolution
}

// SelectJumma decides which Friday slots to show. Variants without a
// non-default adjustment are skipped; when none are configured a single
// generic slot carrying the resolved Dhuhr time is returned.
//
// The caller decides whether the date is a Friday.
func SelectJumma(dhuhrBaseline string, adjustments Adjustments, style LabelStyle) []JummaSlot {
	var slots []JummaSlot
	for _, name := range JummaVariants {
		if !IsAdjusted(name, adjustments) {
			continue
		}
		slots = append(slots, JummaSlot{
			Title:      name.Title(),
			Resolution: Resolve(name, dhuhrBaseline, adjustments, style),
		})
	}
	if len(slots) > 0 {
		return slots
	}

	dhuhr := Resolve(Dhuhr, dhuhrBaseline, adjustments, style)
	return []JummaSlot{{Title: JummaName, Resolution: dhuhr}}
}
