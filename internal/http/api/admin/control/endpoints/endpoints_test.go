package endpoints_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/aladhan"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/db"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api/admin/control/endpoints"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/prayer"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/storage"
)

const secret = "test-secret"

type recordingRefresher struct {
	mu    sync.Mutex
	codes []string
}

func (r *recordingRefresher) Invalidate(_ context.Context, code string) {
	r.mu.Lock()
	r.codes = append(r.codes, code)
	r.mu.Unlock()
}

func (r *recordingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}

type fakeStorage struct{}

func (fakeStorage) SaveImage(fh *multipart.FileHeader, folder string) (string, error) {
	if !storage.IsImage(fh.Filename) {
		return "", storage.ErrUnsupportedType
	}
	return "https://cdn.example.com/" + folder + "/" + fh.Filename, nil
}

type fakeTimings struct {
	err error
}

func (f fakeTimings) FetchDay(_ context.Context, date time.Time, _ aladhan.Query) (prayer.Baseline, error) {
	if f.err != nil {
		return prayer.Baseline{}, f.err
	}
	return prayer.Baseline{
		Date: date.Format("2006-01-02"), Fajr: "05:10", Sunrise: "06:30", Dhuhr: "12:30",
		Asr: "15:45", Maghrib: "18:20", Isha: "19:40",
	}, nil
}

func (f fakeTimings) FetchMonth(ctx context.Context, year int, month time.Month, q aladhan.Query) ([]prayer.Baseline, error) {
	var out []prayer.Baseline
	for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
		b, err := f.FetchDay(ctx, d, q)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

type fixture struct {
	router    *gin.Engine
	store     *db.MemoryStore
	refresher *recordingRefresher
	masjid    model.Masjid
	token     string
}

func newFixture(t *testing.T, timings endpoints.TimingsProvider) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := db.NewMemoryStore()
	userID, err := store.CreateUser(ctx, "admin@example.com", "hash", nil)
	require.NoError(t, err)
	m, err := store.CreateMasjid(ctx, userID, "Masjid Al-Noor", "NOOR")
	require.NoError(t, err)
	token, err := middleware.GenerateJWT(userID, secret)
	require.NoError(t, err)

	if timings == nil {
		timings = fakeTimings{}
	}
	ref := &recordingRefresher{}
	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/admin", Auth: true, SecretKey: secret, Users: store},
		endpoints.MasjidModule(store, fakeStorage{}, ref),
		endpoints.SettingsModule(store, ref),
		endpoints.ContentModule(store, ref),
		endpoints.PrayerTimesModule(store, timings),
	)
	return &fixture{router: r, store: store, refresher: ref, masjid: m, token: token}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRequiresAuth(t *testing.T) {
	f := newFixture(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/masjid", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMasjidProfile(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/admin/masjid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "NOOR", got["code"])
	assert.Equal(t, "/display/NOOR", got["display_url"])

	w = f.do(t, http.MethodPut, "/api/admin/masjid", map[string]any{
		"name": "Masjid Al-Noor", "code": "noor2", "latitude": 43.6, "longitude": -79.4, "timezone": "America/Toronto",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got = decode[map[string]any](t, w)
	assert.Equal(t, "NOOR2", got["code"])
	assert.Equal(t, 2, f.refresher.count(), "old and new code both refreshed")
}

func TestMasjidProfile_Validation(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPut, "/api/admin/masjid", map[string]any{"name": "X", "code": "NOOR", "latitude": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/api/admin/masjid", map[string]any{"name": "X", "code": "NOOR", "timezone": "Mars/Base"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ctx := context.Background()
	other, _ := f.store.CreateUser(ctx, "other@example.com", "hash", nil)
	_, err := f.store.CreateMasjid(ctx, other, "Other", "TAKEN")
	require.NoError(t, err)
	w = f.do(t, http.MethodPut, "/api/admin/masjid", map[string]any{"name": "X", "code": "TAKEN"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogoUpload(t *testing.T) {
	f := newFixture(t, nil)

	upload := func(name string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, _ := mw.CreateFormFile("file", name)
		_, _ = part.Write([]byte("data"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/admin/masjid/logo", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+f.token)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		return w
	}

	w := upload("logo.png")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	m, err := f.store.GetMasjidByCode(context.Background(), "NOOR")
	require.NoError(t, err)
	require.NotNil(t, m.LogoURL)
	assert.Equal(t, "https://cdn.example.com/logos/NOOR/logo.png", *m.LogoURL)

	assert.Equal(t, http.StatusUnsupportedMediaType, upload("logo.exe").Code)
}

func TestSettings_DefaultsThenWrites(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/admin/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	s := decode[model.Settings](t, w)
	assert.Equal(t, model.DefaultTheme, s.Theme)
	assert.False(t, s.PrayerConfigured())

	w = f.do(t, http.MethodPut, "/api/admin/settings/prayer", map[string]any{
		"calculation_method": 2,
		"juristic_school":    0,
		"prayer_adjustments": map[string]any{
			"isha":   map[string]any{"type": "manual", "manual_time": "21:00"},
			"bogus":  map[string]any{"type": "offset", "offset": 5},
			"jumma1": map[string]any{"type": "offset", "offset": 15},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s = decode[model.Settings](t, w)
	assert.True(t, s.PrayerConfigured())
	assert.Len(t, s.PrayerAdjustments, 2)

	// a theme write keeps the prayer snapshot intact
	w = f.do(t, http.MethodPut, "/api/admin/settings/theme", map[string]any{"theme": "midnight"})
	require.Equal(t, http.StatusOK, w.Code)
	s = decode[model.Settings](t, w)
	assert.Equal(t, "midnight", s.Theme)
	assert.True(t, s.PrayerConfigured())

	w = f.do(t, http.MethodPut, "/api/admin/settings/hijri", map[string]any{"hijri_calculation_method": "UAQ", "hijri_offset": -1})
	require.Equal(t, http.StatusOK, w.Code)
	s = decode[model.Settings](t, w)
	assert.Equal(t, -1, s.HijriOffset)

	assert.Equal(t, 3, f.refresher.count())
}

func TestSettings_Rejects(t *testing.T) {
	f := newFixture(t, nil)
	tests := []struct {
		name string
		path string
		body map[string]any
		want int
	}{
		{"method out of range", "/api/admin/settings/prayer", map[string]any{"calculation_method": 24, "juristic_school": 0}, http.StatusBadRequest},
		{"school out of range", "/api/admin/settings/prayer", map[string]any{"calculation_method": 2, "juristic_school": 2}, http.StatusBadRequest},
		{"bad manual time", "/api/admin/settings/prayer", map[string]any{
			"calculation_method": 2, "juristic_school": 0,
			"prayer_adjustments": map[string]any{"fajr": map[string]any{"type": "manual", "manual_time": "5am"}},
		}, http.StatusBadRequest},
		{"hijri offset", "/api/admin/settings/hijri", map[string]any{"hijri_calculation_method": "UAQ", "hijri_offset": 3}, http.StatusBadRequest},
		{"unknown module", "/api/admin/settings/modules", map[string]any{"modules": []map[string]any{{"id": "videos", "order": 1, "enabled": true}}}, http.StatusBadRequest},
		{"duplicate rank", "/api/admin/settings/modules", map[string]any{"modules": []map[string]any{
			{"id": "events", "order": 1, "enabled": true},
			{"id": "posts", "order": 1, "enabled": true},
		}}, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(t, http.MethodPut, tc.path, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
	assert.Equal(t, 0, f.refresher.count())
}

func TestSettings_Modules(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodPut, "/api/admin/settings/modules", map[string]any{"modules": []map[string]any{
		{"id": "announcements", "order": 4, "enabled": true},
		{"id": "ayat-and-hadith", "order": 3, "enabled": false},
		{"id": "events", "order": 2, "enabled": true},
		{"id": "posts", "order": 1, "enabled": true},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s := decode[model.Settings](t, w)
	require.Len(t, s.Modules, 4)
	assert.False(t, s.Modules[1].Enabled)
}

func TestContent_CRUD(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/admin/content/announcements", map[string]any{"title": "Eid prayer", "body": "8am"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[model.Content](t, w)
	assert.True(t, first.Visible)
	assert.Equal(t, model.KindAnnouncement, first.Kind)

	w = f.do(t, http.MethodPost, "/api/admin/content/announcements", map[string]any{"title": "Fundraiser", "location": "ignored"})
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[model.Content](t, w)
	assert.Nil(t, second.Location, "location only applies to events")

	w = f.do(t, http.MethodPut, "/api/admin/content/announcements/"+strconv.Itoa(first.ID), map[string]any{"title": "Eid prayer (updated)", "duration": 20})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Content](t, w)
	assert.Equal(t, "Eid prayer (updated)", updated.Title)
	require.NotNil(t, updated.Duration)
	assert.Equal(t, 20, *updated.Duration)

	w = f.do(t, http.MethodPost, "/api/admin/content/announcements/reorder", map[string]any{"item_ids": []int{second.ID, first.ID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[struct {
		Items []model.Content `json:"items"`
	}](t, w)
	require.Len(t, list.Items, 2)
	assert.Equal(t, second.ID, list.Items[0].ID)

	w = f.do(t, http.MethodPatch, "/api/admin/content/announcements/"+strconv.Itoa(first.ID)+"/visibility", map[string]any{"visible": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[model.Content](t, w).Visible)

	w = f.do(t, http.MethodDelete, "/api/admin/content/announcements/"+strconv.Itoa(first.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodPut, "/api/admin/content/announcements/"+strconv.Itoa(first.ID), map[string]any{"title": "again"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodGet, "/api/admin/content/announcements", nil)
	assert.Len(t, decode[struct {
		Items []model.Content `json:"items"`
	}](t, w).Items, 1)

	w = f.do(t, http.MethodGet, "/api/admin/content/announcements?archived=true", nil)
	assert.Len(t, decode[struct {
		Items []model.Content `json:"items"`
	}](t, w).Items, 2)

	assert.Equal(t, 6, f.refresher.count())
}

func TestContent_Validation(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/admin/content/videos", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/admin/content/events", map[string]any{"title": "No date"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/admin/content/ayat-and-hadith", map[string]any{"title": "Empty"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/admin/content/events", map[string]any{
		"title": "Backwards", "starts_at": "2025-03-07T19:00:00Z", "ends_at": "2025-03-07T18:00:00Z",
	}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/admin/content/posts/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/admin/content/posts/999", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/admin/content/posts/reorder", map[string]any{"item_ids": []int{1, 1}}).Code)

	w := f.do(t, http.MethodPost, "/api/admin/content/posts", map[string]any{"title": "Post"})
	require.Equal(t, http.StatusCreated, w.Code)
	post := decode[model.Content](t, w)
	// a post is not reachable under another kind
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/admin/content/events/"+strconv.Itoa(post.ID), nil).Code)
}

func TestPrayerTimes_NeedsSetup(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/api/admin/prayer-times/today", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode[map[string]any](t, w)
	assert.ElementsMatch(t, []any{"location", "prayer_settings"}, body["details"])
}

func configure(t *testing.T, f *fixture) {
	t.Helper()
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/api/admin/masjid", map[string]any{
		"name": "Masjid Al-Noor", "code": "NOOR", "latitude": 43.6, "longitude": -79.4,
	}).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/api/admin/settings/prayer", map[string]any{
		"calculation_method": 2, "juristic_school": 0,
		"prayer_adjustments": map[string]any{"maghrib": map[string]any{"type": "offset", "offset": 5}},
	}).Code)
}

func TestPrayerTimes_Today(t *testing.T) {
	f := newFixture(t, nil)
	configure(t, f)

	w := f.do(t, http.MethodGet, "/api/admin/prayer-times/today", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Timetable prayer.Timetable `json:"timetable"`
		Next      *struct {
			Title string `json:"title"`
		} `json:"next_prayer"`
	}](t, w)
	row, ok := resp.Timetable.Row("Maghrib")
	require.True(t, ok)
	assert.Equal(t, "18:25", row.Raw)
	assert.Equal(t, "(+05m)", row.Label)
	assert.NotNil(t, resp.Next)
}

func TestPrayerTimes_Month(t *testing.T) {
	f := newFixture(t, nil)
	configure(t, f)

	w := f.do(t, http.MethodGet, "/api/admin/prayer-times/month?year=2025&month=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Days []prayer.Timetable `json:"days"`
	}](t, w)
	assert.Len(t, resp.Days, 28)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/admin/prayer-times/month?year=2025&month=13", nil).Code)
}

func TestPrayerTimes_ProviderDown(t *testing.T) {
	f := newFixture(t, fakeTimings{err: errors.New("aladhan: status 503")})
	configure(t, f)
	assert.Equal(t, http.StatusBadGateway, f.do(t, http.MethodGet, "/api/admin/prayer-times/today", nil).Code)
}
