package endpoints

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/db"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/display"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

type SettingsController struct {
	store     db.Store
	refresher Refresher
}

// SettingsModule mounts /settings. Every write replaces one sub-object and
// answers with the full snapshot.
func SettingsModule(store db.Store, refresher Refresher) api.Module {
	ctl := &SettingsController{store: store, refresher: orNop(refresher)}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/settings", ctl.getSettings)
		c.PUT("/settings/prayer", ctl.updatePrayer)
		c.PUT("/settings/modules", ctl.updateModules)
		c.PUT("/settings/theme", ctl.updateTheme)
		c.PUT("/settings/hijri", ctl.updateHijri)
	})
}

// current returns the stored snapshot, or the defaults when none was saved.
func (sc *SettingsController) current(ctx *gin.Context, m model.Masjid) (model.Settings, *api.APIError) {
	s, err := sc.store.GetSettings(ctx.Request.Context(), m.ID)
	if err != nil {
		return model.Settings{}, api.Internal("could not load settings")
	}
	if s == nil {
		return model.DefaultSettings(m.ID), nil
	}
	return *s, nil
}

// update applies mutate to a copy of the current snapshot and saves it whole.
func (sc *SettingsController) update(ctx *gin.Context, user *model.User, mutate func(*model.Settings)) (any, *api.APIError) {
	m, apiErr := ownedMasjid(ctx, sc.store, user)
	if apiErr != nil {
		return nil, apiErr
	}
	next, apiErr := sc.current(ctx, m)
	if apiErr != nil {
		return nil, apiErr
	}
	mutate(&next)

	rctx := ctx.Request.Context()
	saved, err := sc.store.SaveSettings(rctx, next)
	if err != nil {
		log.Error().Err(err).Int("masjid_id", m.ID).Msg("could not save settings")
		return nil, api.Internal("could not save settings")
	}
	sc.refresher.Invalidate(rctx, m.Code)
	return saved, nil
}

// GET /api/admin/settings
func (sc *SettingsController) getSettings(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	m, apiErr := ownedMasjid(ctx, sc.store, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return sc.current(ctx, m)
}

// PUT /api/admin/settings/prayer
func (sc *SettingsController) updatePrayer(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.UpdatePrayerSettingsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if err := request.PrayerAdjustments.Validate(); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	return sc.update(ctx, user, func(s *model.Settings) {
		s.CalculationMethod = request.CalculationMethod
		s.JuristicSchool = request.JuristicSchool
		if request.PrayerAdjustments != nil {
			s.PrayerAdjustments = request.PrayerAdjustments
		}
	})
}

// PUT /api/admin/settings/modules
func (sc *SettingsController) updateModules(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.UpdateModulesRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	modules := make([]model.ModuleSetting, 0, len(request.Modules))
	saved := make(display.ModuleOrder, len(request.Modules))
	for _, entry := range request.Modules {
		id, ok := display.ParseModuleID(entry.ID)
		if !ok {
			return nil, api.BadRequest(fmt.Sprintf("unknown module %q", entry.ID))
		}
		if _, dup := saved[id]; dup {
			return nil, api.BadRequest(fmt.Sprintf("module %q listed twice", entry.ID))
		}
		saved[id] = entry.Order
		modules = append(modules, model.ModuleSetting{ID: entry.ID, Order: entry.Order, Enabled: entry.Enabled})
	}
	if err := display.DefaultModuleOrder().Merge(saved).Validate(); err != nil {
		return nil, &api.APIError{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	}

	return sc.update(ctx, user, func(s *model.Settings) {
		s.Modules = modules
	})
}

// PUT /api/admin/settings/theme
func (sc *SettingsController) updateTheme(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.UpdateThemeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	return sc.update(ctx, user, func(s *model.Settings) {
		s.Theme = request.Theme
	})
}

// PUT /api/admin/settings/hijri
func (sc *SettingsController) updateHijri(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.UpdateHijriRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	return sc.update(ctx, user, func(s *model.Settings) {
		s.HijriCalculationMethod = request.CalculationMethod
		s.HijriOffset = *request.Offset
	})
}
