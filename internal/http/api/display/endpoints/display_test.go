package endpoints_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/display"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api/display/endpoints"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

// fakeBuilder answers by code: NOOR builds, FLAKY loses its weather slide
// after the first build, SETUP needs setup, DOWN fails, anything else is
// unknown.
type fakeBuilder struct {
	builds atomic.Int32
	flaky  atomic.Int32
}

func (f *fakeBuilder) Build(ctx context.Context, code string, now time.Time) (display.BuildResult, error) {
	f.builds.Add(1)
	switch code {
	case "FLAKY":
		slides := []display.Slide{{Kind: display.SlidePrayerTiming}, {Kind: display.SlideWeather}, {Kind: display.SlideContent}}
		if f.flaky.Add(1) > 1 {
			slides = append(slides[:1], slides[2:]...)
		}
		return display.BuildResult{Session: &display.Session{
			Masjid: model.Masjid{ID: 2, Name: "Masjid Al-Huda", Code: "FLAKY"},
			Slides: slides,
		}}, nil
	case "NOOR":
		return display.BuildResult{Session: &display.Session{
			Masjid:      model.Masjid{ID: 1, Name: "Masjid Al-Noor", Code: "NOOR"},
			Theme:       model.DefaultTheme,
			Slides:      []display.Slide{{Kind: display.SlidePrayerTiming}, {Kind: display.SlideWeather}, {Kind: display.SlideContent}},
			GeneratedAt: now,
		}}, nil
	case "SETUP":
		return display.BuildResult{SetupNeeded: &display.SetupNeeded{Reasons: []string{display.ReasonLocation}}}, nil
	case "DOWN":
		return display.BuildResult{}, errors.New("aladhan: status 503")
	case "GONE":
		return display.BuildResult{}, ctx.Err()
	}
	return display.BuildResult{}, fmt.Errorf("masjid %q: %w", code, errs.ErrNotFound)
}

func setup(t *testing.T) (*gin.Engine, *fakeBuilder, *display.Kiosk, *middleware.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b := &fakeBuilder{}
	hub := middleware.NewHub()
	kiosk := display.NewKiosk(b, time.Hour, hub)
	t.Cleanup(kiosk.Shutdown)

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/display"}, endpoints.DisplayModule(b, kiosk, hub))
	return r, b, kiosk, hub
}

func get(r http.Handler, path, etag string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetSession(t *testing.T) {
	r, _, _, _ := setup(t)

	w := get(r, "/api/display/noor", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var s display.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.True(t, s.ViaCode)
	assert.Equal(t, "NOOR", s.Masjid.Code)
	assert.Len(t, s.Slides, 3)

	// GeneratedAt differs between builds; the ETag must not
	w = get(r, "/api/display/NOOR", "")
	assert.Equal(t, etag, w.Header().Get("ETag"))

	w = get(r, "/api/display/NOOR", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	w = get(r, "/api/display/NOOR", `"stale"`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetSession_FollowsRunningCycle(t *testing.T) {
	r, b, kiosk, _ := setup(t)
	_, err := kiosk.Start(context.Background(), "FLAKY")
	require.NoError(t, err)
	builds := b.builds.Load()

	w := get(r, "/api/display/flaky", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var s display.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	require.Len(t, s.Slides, 3, "the page gets the list event indices refer to")
	assert.Equal(t, display.SlideWeather, s.Slides[1].Kind)
	assert.True(t, s.ViaCode)
	assert.Equal(t, builds, b.builds.Load())

	kiosk.Stop("FLAKY")
	w = get(r, "/api/display/flaky", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Len(t, s.Slides, 2, "without a cycle the session is built fresh")
}

func TestGetSession_Errors(t *testing.T) {
	r, _, _, _ := setup(t)

	w := get(r, "/api/display/SETUP", "")
	require.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Details display.SetupNeeded `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{display.ReasonLocation}, body.Details.Reasons)

	assert.Equal(t, http.StatusNotFound, get(r, "/api/display/NOPE", "").Code)
	assert.Equal(t, http.StatusBadGateway, get(r, "/api/display/DOWN", "").Code)
}

func TestGetSession_Cancelled(t *testing.T) {
	r, _, _, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/display/GONE", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, 499, w.Code)
}

func postControl(r http.Handler, code, action string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/display/"+code+"/control",
		bytes.NewBufferString(`{"action":"`+action+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestControl_WithoutCycle(t *testing.T) {
	r, _, _, _ := setup(t)
	assert.Equal(t, http.StatusNotFound, postControl(r, "NOOR", "next").Code)
	assert.Equal(t, http.StatusBadRequest, postControl(r, "NOOR", "rewind").Code)
}

func TestControl_DrivesRunningCycle(t *testing.T) {
	r, _, kiosk, _ := setup(t)
	_, err := kiosk.Start(context.Background(), "NOOR")
	require.NoError(t, err)

	w := postControl(r, "noor", "next")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ev display.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ev))
	assert.Equal(t, 1, ev.Index)

	w = postControl(r, "NOOR", "pause")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ev))
	assert.Equal(t, display.EventPaused, ev.Type)
	assert.True(t, ev.Paused)

	w = postControl(r, "NOOR", "prev")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ev))
	assert.Equal(t, 0, ev.Index)
}

func TestSocket_StartsAndStopsCycle(t *testing.T) {
	r, _, kiosk, hub := setup(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/display/noor/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return hub.Count("NOOR") == 1 }, time.Second, 10*time.Millisecond)
	_, running := kiosk.Cycle("NOOR")
	assert.True(t, running)

	resp, err := http.Post(srv.URL+"/api/display/NOOR/control", "application/json", strings.NewReader(`{"action":"next"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		_, running := kiosk.Cycle("NOOR")
		return !running
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSocket_SetupNeeded(t *testing.T) {
	r, _, kiosk, _ := setup(t)
	w := get(r, "/api/display/SETUP/ws", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	_, running := kiosk.Cycle("SETUP")
	assert.False(t, running)
}

func TestRefresher_RebuildsRunningCycle(t *testing.T) {
	_, b, kiosk, _ := setup(t)
	_, err := kiosk.Start(context.Background(), "NOOR")
	require.NoError(t, err)
	before := b.builds.Load()

	endpoints.Refresher{Kiosk: kiosk}.Invalidate(context.Background(), "NOOR")
	assert.Eventually(t, func() bool { return b.builds.Load() > before }, time.Second, 10*time.Millisecond)
}
