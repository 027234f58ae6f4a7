package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/aladhan"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/db"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/display"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/prayer"
)

type TimingsProvider interface {
	aladhan.DaySource
	FetchMonth(ctx context.Context, year int, month time.Month, q aladhan.Query) ([]prayer.Baseline, error)
}

type PrayerTimesController struct {
	store   db.Store
	timings TimingsProvider
	now     func() time.Time
}

// PrayerTimesModule mounts the admin timetable views. Labels use the
// parenthesized style.
func PrayerTimesModule(store db.Store, timings TimingsProvider) api.Module {
	ctl := &PrayerTimesController{store: store, timings: timings, now: time.Now}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/prayer-times/today", ctl.today)
		c.GET("/prayer-times/month", ctl.month)
	})
}

// query resolves what the provider needs, or a 409 naming what is missing.
func (pc *PrayerTimesController) query(ctx *gin.Context, user *model.User) (model.Masjid, *model.Settings, aladhan.Query, *api.APIError) {
	m, apiErr := ownedMasjid(ctx, pc.store, user)
	if apiErr != nil {
		return m, nil, aladhan.Query{}, apiErr
	}
	s, err := pc.store.GetSettings(ctx.Request.Context(), m.ID)
	if err != nil {
		return m, nil, aladhan.Query{}, api.Internal("could not load settings")
	}

	var reasons []string
	if !m.HasLocation() {
		reasons = append(reasons, display.ReasonLocation)
	}
	if !s.PrayerConfigured() {
		reasons = append(reasons, display.ReasonPrayerSettings)
	}
	if len(reasons) > 0 {
		return m, nil, aladhan.Query{}, &api.APIError{Code: http.StatusConflict, Message: "setup needed", Details: reasons}
	}

	return m, s, aladhan.Query{
		Latitude:    *m.Latitude,
		Longitude:   *m.Longitude,
		Method:      *s.CalculationMethod,
		School:      *s.JuristicSchool,
		HijriMethod: s.HijriCalculationMethod,
		HijriOffset: s.HijriOffset,
	}, nil
}

func fetchError(err error) *api.APIError {
	if errs.IsCancelled(err) {
		return api.Cancelled()
	}
	log.Error().Err(err).Msg("prayer time provider failed")
	return &api.APIError{Code: http.StatusBadGateway, Message: "prayer time provider unavailable"}
}

// GET /api/admin/prayer-times/today
func (pc *PrayerTimesController) today(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	m, s, q, apiErr := pc.query(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	zone, _ := m.Zone()

	baseline, local, err := aladhan.FetchLocalDay(ctx.Request.Context(), pc.timings, pc.now(), zone, q)
	if err != nil {
		return nil, fetchError(err)
	}

	tt := prayer.BuildTimetable(baseline, s.PrayerAdjustments, prayer.LabelParenthesized)
	resp := packets.TodayResponse{Timetable: tt}
	now := prayer.ClockOf(local)
	if cur, ok := tt.Current(now); ok {
		resp.Current = cur.Title
	}
	if row, tomorrow, ok := tt.Next(now); ok {
		remaining, _ := tt.Remaining(now)
		resp.Next = &packets.NextPrayerResponse{
			Title:     row.Title,
			Display:   row.Display,
			Tomorrow:  tomorrow,
			Remaining: prayer.FormatRemaining(remaining),
		}
	}
	return resp, nil
}

// GET /api/admin/prayer-times/month?year=2025&month=3
func (pc *PrayerTimesController) month(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var mq packets.MonthQuery
	if err := ctx.ShouldBindQuery(&mq); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	_, s, q, apiErr := pc.query(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	days, err := pc.timings.FetchMonth(ctx.Request.Context(), mq.Year, time.Month(mq.Month), q)
	if err != nil {
		return nil, fetchError(err)
	}
	return packets.MonthResponse{
		Year:  mq.Year,
		Month: mq.Month,
		Days:  prayer.BuildMonth(days, s.PrayerAdjustments, prayer.LabelParenthesized),
	}, nil
}
