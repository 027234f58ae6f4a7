package display

import (
	"time"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

type SlideKind string

const (
	SlidePrayerTiming SlideKind = "prayer-timing"
	SlideWeather      SlideKind = "weather"
	SlideContent      SlideKind = "content"
	SlideDevLogout    SlideKind = "dev-logout"
)

// Slide is one step of the display cycle. Prayer and weather slides carry
// no payload of their own; the client renders them from the session.
type Slide struct {
	Kind    SlideKind      `json:"kind"`
	Module  ModuleID       `json:"module,omitempty"`
	Item    *model.Content `json:"item,omitempty"`
	Seconds int            `json:"duration,omitempty"`
}

// Duration is the slide's own dwell time, zero when it uses the cycle default.
func (s Slide) Duration() time.Duration {
	return time.Duration(s.Seconds) * time.Second
}

type SlideInputs struct {
	Groups     []ContentGroup
	HasWeather bool
	DevMode    bool
}

// BuildSlides lays out the fixed slide sequence for one session: prayer
// timing, weather when loaded, one slide per content item in group order,
// and a trailing logout slide in development.
func BuildSlides(in SlideInputs) []Slide {
	slides := []Slide{{Kind: SlidePrayerTiming}}
	if in.HasWeather {
		slides = append(slides, Slide{Kind: SlideWeather})
	}
	for _, g := range in.Groups {
		for item := range g.Items() {
			s := Slide{Kind: SlideContent, Module: g.Module, Item: &item}
			if item.Duration != nil && *item.Duration > 0 {
				s.Seconds = *item.Duration
			}
			slides = append(slides, s)
		}
	}
	if in.DevMode {
		slides = append(slides, Slide{Kind: SlideDevLogout})
	}
	return slides
}
