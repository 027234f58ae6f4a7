package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/db"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/storage"
)

type MasjidController struct {
	store     db.Store
	storage   storage.Storage
	refresher Refresher
}

// MasjidModule mounts the masjid profile and image upload endpoints.
func MasjidModule(store db.Store, storageSystem storage.Storage, refresher Refresher) api.Module {
	ctl := &MasjidController{store: store, storage: storageSystem, refresher: orNop(refresher)}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/masjid", ctl.getMasjid)
		c.PUT("/masjid", ctl.updateMasjid)
		c.POST("/masjid/logo", ctl.uploadLogo)
		c.POST("/uploads/image", ctl.uploadImage)
	})
}

func masjidResponse(m model.Masjid) packets.MasjidResponse {
	return packets.MasjidResponse{Masjid: m, DisplayURL: "/display/" + m.Code}
}

// GET /api/admin/masjid
func (mc *MasjidController) getMasjid(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	m, apiErr := ownedMasjid(ctx, mc.store, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return masjidResponse(m), nil
}

// PUT /api/admin/masjid
func (mc *MasjidController) updateMasjid(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.UpdateMasjidRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if (request.Latitude == nil) != (request.Longitude == nil) {
		return nil, api.BadRequest("latitude and longitude must be set together")
	}
	if request.Timezone != nil && *request.Timezone != "" {
		if _, err := time.LoadLocation(*request.Timezone); err != nil {
			return nil, api.BadRequest(fmt.Sprintf("unknown timezone %q", *request.Timezone))
		}
	}

	m, apiErr := ownedMasjid(ctx, mc.store, user)
	if apiErr != nil {
		return nil, apiErr
	}
	oldCode := m.Code

	m.Name = request.Name
	m.Code = strings.ToUpper(request.Code)
	m.Latitude, m.Longitude, m.Timezone = request.Latitude, request.Longitude, request.Timezone

	rctx := ctx.Request.Context()
	if m.Code != oldCode {
		if _, err := mc.store.GetMasjidByCode(rctx, m.Code); err == nil {
			return nil, &api.APIError{Code: http.StatusConflict, Message: "masjid code already in use"}
		}
	}

	updated, err := mc.store.UpdateMasjid(rctx, m)
	if err != nil {
		return nil, api.FromStoreError(err, "could not update masjid")
	}

	mc.refresher.Invalidate(rctx, oldCode)
	if updated.Code != oldCode {
		mc.refresher.Invalidate(rctx, updated.Code)
	}
	return masjidResponse(updated), nil
}

func (mc *MasjidController) saveUpload(ctx *gin.Context, folder string) (string, *api.APIError) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return "", api.BadRequest("file is required")
	}
	url, err := mc.storage.SaveImage(fileHeader, folder)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return "", &api.APIError{Code: http.StatusUnsupportedMediaType, Message: "only image uploads are accepted"}
		}
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to store upload")
		return "", api.Internal("could not save file")
	}
	return url, nil
}

// POST /api/admin/masjid/logo (multipart, field "file")
func (mc *MasjidController) uploadLogo(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	m, apiErr := ownedMasjid(ctx, mc.store, user)
	if apiErr != nil {
		return nil, apiErr
	}
	url, apiErr := mc.saveUpload(ctx, "logos/"+m.Code)
	if apiErr != nil {
		return nil, apiErr
	}
	rctx := ctx.Request.Context()
	if err := mc.store.SetMasjidLogo(rctx, m.ID, url); err != nil {
		return nil, api.FromStoreError(err, "could not save logo")
	}
	mc.refresher.Invalidate(rctx, m.Code)
	return packets.UploadResponse{URL: url}, nil
}

// POST /api/admin/uploads/image (multipart, field "file"); the returned URL
// goes into a content item's image_url.
func (mc *MasjidController) uploadImage(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	m, apiErr := ownedMasjid(ctx, mc.store, user)
	if apiErr != nil {
		return nil, apiErr
	}
	url, apiErr := mc.saveUpload(ctx, "content/"+m.Code)
	if apiErr != nil {
		return nil, apiErr
	}
	return api.Created(packets.UploadResponse{URL: url}), nil
}
