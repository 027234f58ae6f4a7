package endpoints

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/db"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

// Refresher is told whenever something a masjid's display renders changes.
type Refresher interface {
	Invalidate(ctx context.Context, code string)
}

type nopRefresher struct{}

func (nopRefresher) Invalidate(context.Context, string) {}

func orNop(r Refresher) Refresher {
	if r == nil {
		return nopRefresher{}
	}
	return r
}

// ownedMasjid loads the masjid the signed-in user administers.
func ownedMasjid(ctx *gin.Context, store db.Store, user *model.User) (model.Masjid, *api.APIError) {
	m, err := store.GetMasjidByOwner(ctx.Request.Context(), user.ID)
	if err != nil {
		if errs.IsNotFound(err) {
			return model.Masjid{}, &api.APIError{Code: http.StatusNotFound, Message: "no masjid registered for this account"}
		}
		log.Error().Err(err).Int("user_id", user.ID).Msg("could not load masjid for user")
		return model.Masjid{}, api.Internal("could not load masjid")
	}
	return m, nil
}

func idParam(ctx *gin.Context) (int, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		log.Error().Err(err).Str("id_raw", ctx.Param("id")).Msg("invalid id in request")
		return 0, api.BadRequest("invalid id")
	}
	return id, nil
}
