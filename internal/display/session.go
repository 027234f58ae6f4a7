package display

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/aladhan"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/prayer"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/weather"
)

type ProfileSource interface {
	GetMasjidByCode(ctx context.Context, code string) (model.Masjid, error)
}

// SettingsSource returns nil settings when the masjid never saved any.
type SettingsSource interface {
	GetSettings(ctx context.Context, masjidID int) (*model.Settings, error)
}

// ContentSource lists visible, non-archived items of one kind.
type ContentSource interface {
	ListVisibleContent(ctx context.Context, masjidID int, kind string) ([]model.Content, error)
}

type WeatherSource interface {
	Forecast(ctx context.Context, lat, lon float64) (weather.Forecast, error)
}

// Setup reasons.
const (
	ReasonLocation       = "location"
	ReasonPrayerSettings = "prayer_settings"
	ReasonModules        = "modules"
)

// SetupNeeded explains why a display cannot start yet.
type SetupNeeded struct {
	Masjid  model.Masjid `json:"masjid"`
	Reasons []string     `json:"reasons"`
}

func (s SetupNeeded) Error() string {
	return fmt.Sprintf("setup needed: %v", s.Reasons)
}

// NextPrayer is the upcoming row of the timetable.
type NextPrayer struct {
	Title     string `json:"title"`
	Display   string `json:"display"`
	Tomorrow  bool   `json:"tomorrow"`
	Remaining string `json:"remaining"`
}

// Session is everything one display needs to render: the masjid context
// the slides were built against, and the slides themselves.
type Session struct {
	Masjid      model.Masjid      `json:"masjid"`
	Settings    model.Settings    `json:"settings"`
	Theme       string            `json:"theme"`
	DevMode     bool              `json:"dev_mode"`
	ViaCode     bool              `json:"via_code"`
	Timezone    string            `json:"timezone"`
	Timetable   prayer.Timetable  `json:"timetable"`
	Current     string            `json:"current_prayer,omitempty"`
	Next        *NextPrayer       `json:"next_prayer,omitempty"`
	Weather     *weather.Forecast `json:"weather,omitempty"`
	Slides      []Slide           `json:"slides"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// BuildResult holds exactly one of Session or SetupNeeded.
type BuildResult struct {
	Session     *Session
	SetupNeeded *SetupNeeded
}

type Builder struct {
	Profiles ProfileSource
	Settings SettingsSource
	Content  ContentSource
	Timings  aladhan.DaySource
	Weather  WeatherSource // optional
	DevMode  bool
}

// Build assembles a display session for the masjid with the given code.
// Settings are resolved before anything else; timings, content and weather
// are then fetched concurrently and grouping runs once all are in. A
// cancelled ctx yields an error matching errs.IsCancelled.
func (b *Builder) Build(ctx context.Context, code string, now time.Time) (BuildResult, error) {
	masjid, err := b.Profiles.GetMasjidByCode(ctx, code)
	if err != nil {
		return BuildResult{}, fmt.Errorf("load masjid %q: %w", code, err)
	}

	settings, err := b.Settings.GetSettings(ctx, masjid.ID)
	if err != nil {
		return BuildResult{}, fmt.Errorf("load settings for masjid %d: %w", masjid.ID, err)
	}

	var modules []model.ModuleSetting
	if settings != nil {
		modules = settings.Modules
	}
	order, enabled := OrderFromSettings(modules)

	if reasons := setupReasons(masjid, settings, enabled); len(reasons) > 0 {
		return BuildResult{SetupNeeded: &SetupNeeded{Masjid: masjid, Reasons: reasons}}, nil
	}

	zone, _ := masjid.Zone()
	query := aladhan.Query{
		Latitude:    *masjid.Latitude,
		Longitude:   *masjid.Longitude,
		Method:      *settings.CalculationMethod,
		School:      *settings.JuristicSchool,
		HijriMethod: settings.HijriCalculationMethod,
		HijriOffset: settings.HijriOffset,
	}

	var (
		baseline    prayer.Baseline
		local       time.Time
		forecast    *weather.Forecast
		mu          sync.Mutex
		collections = make(Collections, len(enabled))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bl, at, err := aladhan.FetchLocalDay(gctx, b.Timings, now, zone, query)
		if err != nil {
			return fmt.Errorf("fetch timings: %w", err)
		}
		baseline, local = bl, at
		return nil
	})
	for _, id := range Modules {
		if !enabled[id] {
			continue
		}
		g.Go(func() error {
			items, err := b.Content.ListVisibleContent(gctx, masjid.ID, string(id))
			if err != nil {
				return fmt.Errorf("list %s: %w", id, err)
			}
			mu.Lock()
			collections[id] = items
			mu.Unlock()
			return nil
		})
	}
	if b.Weather != nil {
		g.Go(func() error {
			f, err := b.Weather.Forecast(gctx, *masjid.Latitude, *masjid.Longitude)
			if err != nil {
				if !errs.IsCancelled(err) {
					log.Warn().Err(err).Str("code", code).Msg("[display] weather unavailable, skipping slide")
				}
				return nil
			}
			forecast = &f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BuildResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return BuildResult{}, err
	}

	tt := prayer.BuildTimetable(baseline, settings.PrayerAdjustments, prayer.LabelPlain)
	groups := BuildContentGroups(order, collections)

	s := &Session{
		Masjid:      masjid,
		Settings:    *settings,
		Theme:       settings.Theme,
		DevMode:     b.DevMode,
		Timezone:    local.Location().String(),
		Timetable:   tt,
		Weather:     forecast,
		GeneratedAt: now,
	}
	s.clock(local)
	s.Slides = BuildSlides(SlideInputs{
		Groups:     groups,
		HasWeather: forecast != nil,
		DevMode:    b.DevMode,
	})
	return BuildResult{Session: s}, nil
}

func (s *Session) location() *time.Location {
	if loc, err := time.LoadLocation(s.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

func (s *Session) clock(local time.Time) {
	now := prayer.ClockOf(local)
	s.Current = currentPrayer(s.Timetable, now)
	s.Next = nextPrayer(s.Timetable, now)
}

// At returns a copy with the current and next prayer recomputed for now.
func (s *Session) At(now time.Time) Session {
	out := *s
	out.clock(now.In(s.location()))
	return out
}

// Stale reports whether the local date at now has moved past the day the
// timetable was built for. A session without a dated timetable never is.
func (s *Session) Stale(now time.Time) bool {
	if s.Timetable.Date == "" {
		return false
	}
	return now.In(s.location()).Format("2006-01-02") != s.Timetable.Date
}

func setupReasons(m model.Masjid, s *model.Settings, enabled map[ModuleID]bool) []string {
	var reasons []string
	if !m.HasLocation() {
		reasons = append(reasons, ReasonLocation)
	}
	if !s.PrayerConfigured() {
		reasons = append(reasons, ReasonPrayerSettings)
	}
	if len(enabled) == 0 {
		reasons = append(reasons, ReasonModules)
	}
	return reasons
}

func nextPrayer(tt prayer.Timetable, now prayer.Clock) *NextPrayer {
	row, tomorrow, ok := tt.Next(now)
	if !ok {
		return nil
	}
	remaining, _ := tt.Remaining(now)
	return &NextPrayer{
		Title:     row.Title,
		Display:   row.Display,
		Tomorrow:  tomorrow,
		Remaining: prayer.FormatRemaining(remaining),
	}
}

// currentPrayer is empty before the day's first prayer.
func currentPrayer(tt prayer.Timetable, now prayer.Clock) string {
	if row, ok := tt.Current(now); ok {
		return row.Title
	}
	return ""
}
