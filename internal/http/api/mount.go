package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/middleware"
)

// Module attaches a feature's endpoints to a Controller.
type Module interface {
	Mount(c *Controller)
}

type ModuleFunc func(c *Controller)

func (f ModuleFunc) Mount(c *Controller) { f(c) }

// Controller wraps a router group. The verb methods require an authenticated
// user; the PUBLIC_ variants do not.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) handle(method, path string, h gin.HandlerFunc) {
	c.Group.Handle(method, path, h)
}

func (c *Controller) GET(path string, h HandlerFuncWithAuth) {
	c.handle(http.MethodGet, path, ResolveEndpointWithAuth(h))
}

func (c *Controller) POST(path string, h HandlerFuncWithAuth) {
	c.handle(http.MethodPost, path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PUT(path string, h HandlerFuncWithAuth) {
	c.handle(http.MethodPut, path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PATCH(path string, h HandlerFuncWithAuth) {
	c.handle(http.MethodPatch, path, ResolveEndpointWithAuth(h))
}

func (c *Controller) DELETE(path string, h HandlerFuncWithAuth) {
	c.handle(http.MethodDelete, path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PUBLIC_GET(path string, h HandlerFunc) {
	c.handle(http.MethodGet, path, ResolveEndpoint(h))
}

func (c *Controller) PUBLIC_POST(path string, h HandlerFunc) {
	c.handle(http.MethodPost, path, ResolveEndpoint(h))
}

// RAW_GET mounts a plain gin handler, for endpoints that take over the connection.
func (c *Controller) RAW_GET(path string, h gin.HandlerFunc) {
	c.handle(http.MethodGet, path, h)
}

// Grouper is satisfied by *gin.Engine and *gin.RouterGroup.
type Grouper interface {
	Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup
}

type GroupConfig struct {
	Prefix     string
	Auth       bool
	SecretKey  string                // required with Auth
	Users      middleware.UserLookup // required with Auth
	Middleware []gin.HandlerFunc
}

// MountGroup mounts modules under cfg.Prefix. Misconfigured auth is a
// startup bug and aborts the process.
func MountGroup(parent Grouper, cfg GroupConfig, modules ...Module) *gin.RouterGroup {
	handlers := append([]gin.HandlerFunc{}, cfg.Middleware...)
	if cfg.Auth {
		if cfg.SecretKey == "" || cfg.Users == nil {
			log.Fatal().Str("prefix", cfg.Prefix).Msg("[api] auth group mounted without secret or user lookup")
		}
		handlers = append(handlers, middleware.JWTMiddleware(cfg.SecretKey, cfg.Users))
	}

	grp := parent.Group(cfg.Prefix, handlers...)
	controller := &Controller{Group: grp}
	for _, m := range modules {
		m.Mount(controller)
	}
	log.Debug().Str("prefix", cfg.Prefix).Bool("auth", cfg.Auth).Int("modules", len(modules)).Msg("[api] group mounted")
	return grp
}
