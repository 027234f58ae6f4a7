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

type ContentController struct {
	store     db.Store
	refresher Refresher
}

// ContentModule mounts CRUD for announcements, events, posts and
// ayat-and-hadith under /content/:kind.
func ContentModule(store db.Store, refresher Refresher) api.Module {
	ctl := &ContentController{store: store, refresher: orNop(refresher)}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/content/:kind", ctl.listContent)
		c.POST("/content/:kind", ctl.createContent)
		c.POST("/content/:kind/reorder", ctl.reorderContent)
		c.GET("/content/:kind/:id", ctl.getContent)
		c.PUT("/content/:kind/:id", ctl.updateContent)
		c.DELETE("/content/:kind/:id", ctl.archiveContent)
		c.PATCH("/content/:kind/:id/visibility", ctl.setVisibility)
	})
}

func kindParam(ctx *gin.Context) (string, *api.APIError) {
	kind := ctx.Param("kind")
	if !model.IsContentKind(kind) {
		return "", &api.APIError{Code: http.StatusNotFound, Message: fmt.Sprintf("unknown content kind %q", kind)}
	}
	return kind, nil
}

// scope resolves the masjid and kind every content route works within.
func (cc *ContentController) scope(ctx *gin.Context, user *model.User) (model.Masjid, string, *api.APIError) {
	kind, apiErr := kindParam(ctx)
	if apiErr != nil {
		return model.Masjid{}, "", apiErr
	}
	m, apiErr := ownedMasjid(ctx, cc.store, user)
	if apiErr != nil {
		return model.Masjid{}, "", apiErr
	}
	return m, kind, nil
}

func validateContent(kind string, r packets.ContentRequest) *api.APIError {
	if r.StartsAt != nil && r.EndsAt != nil && r.EndsAt.Before(*r.StartsAt) {
		return api.BadRequest("ends_at must not be before starts_at")
	}
	if kind == model.KindEvent && r.StartsAt == nil {
		return api.BadRequest("events need starts_at")
	}
	if kind == model.KindAyatHadith && (r.Body == nil || *r.Body == "") {
		return api.BadRequest("ayat-and-hadith entries need a body")
	}
	return nil
}

// apply copies the request onto c, dropping fields the kind does not use.
func apply(c *model.Content, r packets.ContentRequest) {
	c.Title = r.Title
	c.Body = r.Body
	c.ImageURL = r.ImageURL
	c.Duration = r.Duration
	c.DisplayOrder = r.DisplayOrder
	c.Reference, c.Location, c.StartsAt, c.EndsAt = nil, nil, nil, nil
	switch c.Kind {
	case model.KindAyatHadith:
		c.Reference = r.Reference
	case model.KindEvent:
		c.Location, c.StartsAt, c.EndsAt = r.Location, r.StartsAt, r.EndsAt
	case model.KindAnnouncement:
		c.StartsAt, c.EndsAt = r.StartsAt, r.EndsAt
	}
	if r.Visible != nil {
		c.Visible = *r.Visible
	}
}

// GET /api/admin/content/:kind?archived=true
func (cc *ContentController) listContent(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	m, kind, apiErr := cc.scope(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	items, err := cc.store.ListContent(ctx.Request.Context(), m.ID, kind, ctx.Query("archived") == "true")
	if err != nil {
		return nil, api.Internal("could not list content")
	}
	return packets.ContentListResponse{Kind: kind, Items: display.SortItems(items)}, nil
}

// POST /api/admin/content/:kind
func (cc *ContentController) createContent(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	m, kind, apiErr := cc.scope(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.ContentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if apiErr := validateContent(kind, request); apiErr != nil {
		return nil, apiErr
	}

	item := model.Content{MasjidID: m.ID, Kind: kind, Visible: true, CreatedBy: user.ID}
	apply(&item, request)

	rctx := ctx.Request.Context()
	created, err := cc.store.CreateContent(rctx, item)
	if err != nil {
		return nil, api.Internal("could not create content")
	}
	log.Info().Int("masjid_id", m.ID).Str("kind", kind).Int("content_id", created.ID).Msg("content created")
	cc.refresher.Invalidate(rctx, m.Code)
	return api.Created(created), nil
}

// GET /api/admin/content/:kind/:id
func (cc *ContentController) getContent(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	m, kind, apiErr := cc.scope(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	id, apiErr := idParam(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	item, err := cc.store.GetContent(ctx.Request.Context(), m.ID, id)
	if err != nil {
		return nil, api.FromStoreError(err, "could not load content")
	}
	if item.Kind != kind {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "not found"}
	}
	return item, nil
}

// PUT /api/admin/content/:kind/:id
func (cc *ContentController) updateContent(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	m, _, apiErr := cc.scope(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	current, apiErr := cc.getContent(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	item := current.(model.Content)
	if item.Archived() {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "archived content cannot be edited"}
	}

	var request packets.ContentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if apiErr := validateContent(item.Kind, request); apiErr != nil {
		return nil, apiErr
	}
	apply(&item, request)

	rctx := ctx.Request.Context()
	updated, err := cc.store.UpdateContent(rctx, item)
	if err != nil {
		return nil, api.FromStoreError(err, "could not update content")
	}
	cc.refresher.Invalidate(rctx, m.Code)
	return updated, nil
}

// DELETE /api/admin/content/:kind/:id archives the item; it is never hard-deleted.
func (cc *ContentController) archiveContent(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	m, _, apiErr := cc.scope(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := cc.getContent(ctx, user); apiErr != nil {
		return nil, apiErr
	}
	id, _ := idParam(ctx)

	rctx := ctx.Request.Context()
	if err := cc.store.ArchiveContent(rctx, m.ID, id); err != nil {
		return nil, api.FromStoreError(err, "could not archive content")
	}
	cc.refresher.Invalidate(rctx, m.Code)
	return api.NoContent, nil
}

// PATCH /api/admin/content/:kind/:id/visibility
func (cc *ContentController) setVisibility(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.VisibilityRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	m, _, apiErr := cc.scope(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := cc.getContent(ctx, user); apiErr != nil {
		return nil, apiErr
	}
	id, _ := idParam(ctx)

	rctx := ctx.Request.Context()
	if err := cc.store.SetContentVisibility(rctx, m.ID, id, *request.Visible); err != nil {
		return nil, api.FromStoreError(err, "could not update visibility")
	}
	cc.refresher.Invalidate(rctx, m.Code)
	return cc.getContent(ctx, user)
}

// POST /api/admin/content/:kind/reorder sets display_order 1..n in the given order.
func (cc *ContentController) reorderContent(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	m, kind, apiErr := cc.scope(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.ReorderItemsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	seen := make(map[int]bool, len(request.ItemIDs))
	for _, id := range request.ItemIDs {
		if seen[id] {
			return nil, api.BadRequest(fmt.Sprintf("item %d listed twice", id))
		}
		seen[id] = true
	}

	rctx := ctx.Request.Context()
	if err := cc.store.ReorderContent(rctx, m.ID, kind, request.ItemIDs); err != nil {
		return nil, api.FromStoreError(err, "could not reorder content")
	}
	cc.refresher.Invalidate(rctx, m.Code)
	return cc.listContent(ctx, user)
}
