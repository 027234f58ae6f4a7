package endpoints

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/display"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api/display/packets"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/redis"
)

// etagTTL is short because a session carries the time left until the next prayer.
const etagTTL = 30 * time.Second

type DisplayController struct {
	builder display.SessionBuilder
	kiosk   *display.Kiosk
	hub     *middleware.Hub
	now     func() time.Time
}

// DisplayModule mounts the public, code-addressed display endpoints.
func DisplayModule(builder display.SessionBuilder, kiosk *display.Kiosk, hub *middleware.Hub) api.Module {
	ctl := &DisplayController{builder: builder, kiosk: kiosk, hub: hub, now: time.Now}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/:code", ctl.getSession)
		c.PUBLIC_POST("/:code/control", ctl.control)
		c.RAW_GET("/:code/ws", ctl.socket)
	})
}

// PageModule serves the kiosk HTML shell at /display/:code.
func PageModule(templateName string) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.RAW_GET("/:code", func(ctx *gin.Context) {
			ctx.HTML(http.StatusOK, templateName, gin.H{"Code": normalizeCode(ctx.Param("code"))})
		})
	})
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func sessionETag(s display.Session) (string, error) {
	s.GeneratedAt = time.Time{}
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return `"` + hex.EncodeToString(sum[:16]) + `"`, nil
}

// buildError maps a failed build onto a response. Cancellation is not a failure.
func buildError(code string, err error) *api.APIError {
	switch {
	case errs.IsCancelled(err):
		log.Debug().Str("code", code).Msg("[display] build cancelled")
		return api.Cancelled()
	case errs.IsNotFound(err):
		return &api.APIError{Code: http.StatusNotFound, Message: "unknown display code"}
	default:
		log.Error().Err(err).Str("code", code).Msg("[display] build failed")
		return &api.APIError{Code: http.StatusBadGateway, Message: "could not build display"}
	}
}

func notModified(ctx *gin.Context, etag string) {
	ctx.Header("ETag", etag)
	ctx.Status(http.StatusNotModified)
	ctx.Writer.WriteHeaderNow()
}

// GET /api/display/:code
func (d *DisplayController) getSession(ctx *gin.Context) (any, *api.APIError) {
	code := normalizeCode(ctx.Param("code"))
	rctx := ctx.Request.Context()
	ifNoneMatch := ctx.GetHeader("If-None-Match")

	if cached, ok := redis.DisplayETag(rctx, code); ok && ifNoneMatch != "" && ifNoneMatch == cached {
		notModified(ctx, cached)
		return nil, nil
	}

	session, apiErr := d.currentSession(rctx, code)
	if apiErr != nil {
		return nil, apiErr
	}
	session.ViaCode = true

	etag, err := sessionETag(session)
	if err != nil {
		return nil, api.Internal("could not encode session")
	}
	redis.StoreDisplayETag(rctx, code, etag, etagTTL)

	if ifNoneMatch == etag {
		notModified(ctx, etag)
		return nil, nil
	}
	ctx.Header("ETag", etag)
	return session, nil
}

// currentSession prefers the running kiosk's session so the slide list the
// page renders is the one socket event indices point into.
func (d *DisplayController) currentSession(ctx context.Context, code string) (display.Session, *api.APIError) {
	now := d.now()
	if running, ok := d.kiosk.Session(code); ok && !running.Stale(now) {
		return running.At(now), nil
	}

	res, err := d.builder.Build(ctx, code, now)
	if err != nil {
		return display.Session{}, buildError(code, err)
	}
	if res.SetupNeeded != nil {
		return display.Session{}, &api.APIError{Code: http.StatusConflict, Message: "setup needed", Details: res.SetupNeeded}
	}
	return *res.Session, nil
}

// POST /api/display/:code/control
func (d *DisplayController) control(ctx *gin.Context) (any, *api.APIError) {
	var request packets.ControlRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	code := normalizeCode(ctx.Param("code"))

	ev, err := d.kiosk.Control(code, request.Action)
	if err != nil {
		switch {
		case errs.IsNotFound(err):
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "no display running for this code"}
		case errors.Is(err, display.ErrUnknownAction):
			return nil, api.BadRequest(err.Error())
		default:
			return nil, api.Internal("control failed")
		}
	}
	return ev, nil
}

// GET /api/display/:code/ws starts the kiosk cycle for code and streams its
// events until the socket closes. The cycle stops with the last socket.
func (d *DisplayController) socket(ctx *gin.Context) {
	code := normalizeCode(ctx.Param("code"))

	res, err := d.kiosk.Start(ctx.Request.Context(), code)
	if err != nil {
		apiErr := buildError(code, err)
		ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
		return
	}
	if res.SetupNeeded != nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "setup needed", "details": res.SetupNeeded})
		return
	}

	if err := d.hub.Serve(ctx.Writer, ctx.Request, code, func() { d.kiosk.Stop(code) }); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("[display] websocket upgrade failed")
	}
}
