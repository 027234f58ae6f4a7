package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noUsers struct{}

func (noUsers) GetUserByID(context.Context, int) (*model.User, error) {
	return nil, errs.ErrNotFound
}

func TestFromStoreError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("masjid 3: %w", errs.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("code: %w", errs.ErrConflict), http.StatusConflict},
		{errs.ErrForbidden, http.StatusForbidden},
		{context.Canceled, StatusClientClosed},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FromStoreError(tc.err, "failed").Code, tc.err.Error())
	}
}

func TestMountGroup(t *testing.T) {
	r := gin.New()
	MountGroup(r, GroupConfig{Prefix: "/open"}, ModuleFunc(func(c *Controller) {
		c.PUBLIC_GET("/ping", func(*gin.Context) (any, *APIError) { return gin.H{"ok": true}, nil })
		c.PUBLIC_POST("/make", func(*gin.Context) (any, *APIError) { return Created(gin.H{"id": 1}), nil })
		c.PUBLIC_GET("/fail", func(*gin.Context) (any, *APIError) {
			return nil, &APIError{Code: http.StatusConflict, Message: "setup", Details: gin.H{"reasons": []string{"location"}}}
		})
	}))
	MountGroup(r, GroupConfig{Prefix: "/closed", Auth: true, SecretKey: "s", Users: noUsers{}},
		ModuleFunc(func(c *Controller) {
			c.DELETE("/x", func(*gin.Context, *model.User) (any, *APIError) { return NoContent, nil })
		}))

	do := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	w := do(http.MethodGet, "/open/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	assert.Equal(t, http.StatusCreated, do(http.MethodPost, "/open/make").Code)

	w = do(http.MethodGet, "/open/fail")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"setup","details":{"reasons":["location"]}}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodDelete, "/closed/x").Code)
}

func TestResolveEndpointWithAuth_NoContent(t *testing.T) {
	r := gin.New()
	r.DELETE("/x", func(c *gin.Context) {
		middleware.SetCurrentUser(c, &model.User{ID: 1})
		ResolveEndpointWithAuth(func(*gin.Context, *model.User) (any, *APIError) { return NoContent, nil })(c)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
