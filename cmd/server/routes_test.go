package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/aladhan"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/db"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/display"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/storage"
)

func newServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := db.NewMemoryStore()
	timings := aladhan.NewClient("http://127.0.0.1:1", nil)
	builder := &display.Builder{Profiles: store, Settings: store, Content: store, Timings: timings}
	hub := middleware.NewHub()
	kiosk := display.NewKiosk(builder, time.Hour, hub)
	t.Cleanup(kiosk.Shutdown)

	r := gin.New()
	RegisterRoutes(r, Environment{SecretKey: "test-secret", UseSpaces: true}, Services{
		Store:    store,
		Storage:  storage.NewLocalStorage(t.TempDir(), "/uploads"),
		Timings:  timings,
		Builder:  builder,
		Kiosk:    kiosk,
		Hub:      hub,
		Template: LoadTemplates(),
	})
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes_Health(t *testing.T) {
	r := newServer(t)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRoutes_DisplayPage(t *testing.T) {
	r := newServer(t)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/display/noor", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"NOOR"`)
}

func TestRoutes_DisplayPageHandlesFailedLoad(t *testing.T) {
	r := newServer(t)
	page := serve(r, httptest.NewRequest(http.MethodGet, "/display/noor", nil)).Body.String()

	assert.Contains(t, page, `<div id="error" hidden>`)
	assert.Contains(t, page, `<button id="reload" type="button">Reload</button>`)
	assert.Contains(t, page, "showError(")
	assert.NotContains(t, page, "if (!res.ok) return;", "a failed build must not leave stale slides up silently")
	assert.Contains(t, page, "render(ev.index, ev.slide)")
}

func TestRoutes_SignupThenDisplayNeedsSetup(t *testing.T) {
	r := newServer(t)

	body := `{"email":"imam@example.com","password":"supersecret","masjid_name":"Masjid Al-Noor","masjid_code":"NOOR"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/auth/signup", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))

	req = httptest.NewRequest(http.MethodGet, "/api/admin/masjid", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"code":"NOOR"`))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/display/NOOR", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/display/UNKNOWN", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_AdminRequiresToken(t *testing.T) {
	r := newServer(t)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDurationEnv(t *testing.T) {
	t.Setenv("SLIDE_INTERVAL", "20s")
	assert.Equal(t, 20*time.Second, durationEnv("SLIDE_INTERVAL", time.Second))
	t.Setenv("SLIDE_INTERVAL", "12")
	assert.Equal(t, 12*time.Second, durationEnv("SLIDE_INTERVAL", time.Second))
	t.Setenv("SLIDE_INTERVAL", "soon")
	assert.Equal(t, time.Second, durationEnv("SLIDE_INTERVAL", time.Second))
}

func TestEnvironment_Validate(t *testing.T) {
	err := Environment{UseSpaces: true}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL, JWT_SECRET, SERVER_ADDRESS, SPACES_BUCKET/SPACES_ENDPOINT")

	ok := Environment{DatabaseURL: "postgres://x", SecretKey: "s", ServerAddress: ":8080"}
	assert.NoError(t, ok.Validate())
}

func TestInitStorage_Local(t *testing.T) {
	s, err := InitStorage(Environment{UploadDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorage{}, s)
}
