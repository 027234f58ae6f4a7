package main

import (
	"html/template"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/db"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/display"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api"
	authapi "github.com/Nixie-Tech-LLC/masjidboard/internal/http/api/admin/auth/endpoints"
	adminapi "github.com/Nixie-Tech-LLC/masjidboard/internal/http/api/admin/control/endpoints"
	displayapi "github.com/Nixie-Tech-LLC/masjidboard/internal/http/api/display/endpoints"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/storage"
)

// Services are the long-lived components the routes are built on.
type Services struct {
	Store    db.Store
	Storage  storage.Storage
	Timings  adminapi.TimingsProvider
	Builder  display.SessionBuilder
	Kiosk    *display.Kiosk
	Hub      *middleware.Hub
	Template *template.Template
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, env Environment, svc Services) {
	r.SetHTMLTemplate(svc.Template)
	r.Use(middleware.RequestID())
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"If-None-Match",
			middleware.RequestIDHeader,
		},
		ExposeHeaders: []string{
			"Content-Length",
			"ETag",
			middleware.RequestIDHeader,
		},
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	refresher := displayapi.Refresher{Kiosk: svc.Kiosk}

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		authapi.AuthPublicModule(env.SecretKey, svc.Store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
		Users:     svc.Store,
	},
		// session endpoints that require auth
		authapi.AuthSessionModule(env.SecretKey, svc.Store),
		// control modules
		adminapi.MasjidModule(svc.Store, svc.Storage, refresher),
		adminapi.SettingsModule(svc.Store, refresher),
		adminapi.ContentModule(svc.Store, refresher),
		adminapi.PrayerTimesModule(svc.Store, svc.Timings),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/display",
	},
		displayapi.DisplayModule(svc.Builder, svc.Kiosk, svc.Hub),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/display",
	},
		displayapi.PageModule(displayTemplate),
	)

	if !env.UseSpaces {
		r.Static(uploadsRoute, env.UploadDir)
	}
}
