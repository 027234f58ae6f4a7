package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/aladhan"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/config"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/db"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/prayer"
)

type fakeTimings struct {
	lastQuery aladhan.Query
	lastDate  time.Time
}

func (f *fakeTimings) FetchDay(_ context.Context, date time.Time, q aladhan.Query) (prayer.Baseline, error) {
	f.lastQuery, f.lastDate = q, date
	return prayer.Baseline{
		Date: date.Format("2006-01-02"), Fajr: "05:10", Sunrise: "06:30", Dhuhr: "12:30",
		Asr: "15:45", Maghrib: "18:20", Isha: "19:40",
	}, nil
}

func testDeps(store *db.MemoryStore, timings *fakeTimings) deps {
	return deps{
		openStore: func(*config.Config) (db.Store, error) { return store, nil },
		migrate:   func(*config.Config) error { return nil },
		timings:   func(*config.Config) timingsSource { return timings },
	}
}

func run(t *testing.T, d deps, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("test", d)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAddUser(t *testing.T) {
	store := db.NewMemoryStore()
	d := testDeps(store, &fakeTimings{})

	out, err := run(t, d, "adduser", "--email", "imam@example.com", "--password", "supersecret",
		"--masjid-name", "Masjid Al-Noor", "--code", "noor")
	require.NoError(t, err)
	assert.Contains(t, out, "[NOOR]")

	ctx := context.Background()
	m, err := store.GetMasjidByCode(ctx, "NOOR")
	require.NoError(t, err)
	s, err := store.GetSettings(ctx, m.ID)
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = run(t, d, "adduser", "--email", "imam@example.com", "--password", "supersecret",
		"--masjid-name", "Again", "--code", "OTHER")
	assert.Error(t, err, "duplicate email")

	_, err = run(t, d, "adduser", "--email", "x@example.com", "--password", "short", "--masjid-name", "X", "--code", "X1")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	t.Setenv("MIGRATIONS_PATH", "./migrations")
	out, err := run(t, testDeps(db.NewMemoryStore(), &fakeTimings{}), "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "./migrations")
}

func TestTimetable_ByCoordinates(t *testing.T) {
	timings := &fakeTimings{}
	out, err := run(t, testDeps(db.NewMemoryStore(), timings),
		"timetable", "--latitude", "43.65", "--longitude", "-79.38", "--method", "3", "--date", "2025-03-06")
	require.NoError(t, err)

	assert.Equal(t, 3, timings.lastQuery.Method)
	assert.Equal(t, "2025-03-06", timings.lastDate.Format("2006-01-02"))
	assert.Contains(t, out, "Maghrib")
	assert.Contains(t, out, "6:20 PM")
	assert.NotContains(t, out, "<- next", "only today marks the next prayer")
}

func TestTimetable_ByCodeAppliesAdjustments(t *testing.T) {
	store := db.NewMemoryStore()
	ctx := context.Background()
	uid, err := store.CreateUser(ctx, "imam@example.com", "hash", nil)
	require.NoError(t, err)
	m, err := store.CreateMasjid(ctx, uid, "Masjid Al-Noor", "NOOR")
	require.NoError(t, err)
	lat, lon := 43.65, -79.38
	m.Latitude, m.Longitude = &lat, &lon
	_, err = store.UpdateMasjid(ctx, m)
	require.NoError(t, err)

	method, school := 2, 1
	s := model.DefaultSettings(m.ID)
	s.CalculationMethod, s.JuristicSchool = &method, &school
	s.PrayerAdjustments = prayer.Adjustments{prayer.Maghrib: {Type: prayer.AdjustOffset, Offset: 5}}
	_, err = store.SaveSettings(ctx, s)
	require.NoError(t, err)

	timings := &fakeTimings{}
	out, err := run(t, testDeps(store, timings), "timetable", "noor", "--json", "--date", "2025-03-06")
	require.NoError(t, err)
	assert.Equal(t, 1, timings.lastQuery.School)

	var tt prayer.Timetable
	require.NoError(t, json.Unmarshal([]byte(out), &tt))
	row, ok := tt.Row("Maghrib")
	require.True(t, ok)
	assert.Equal(t, "18:25", row.Raw)
	assert.Equal(t, "(+05m)", row.Label)
}

func TestTimetable_Rejects(t *testing.T) {
	d := testDeps(db.NewMemoryStore(), &fakeTimings{})

	_, err := run(t, d, "timetable")
	assert.Error(t, err)
	_, err = run(t, d, "timetable", "--latitude", "1", "--longitude", "2", "--school", "3")
	assert.Error(t, err)
	_, err = run(t, d, "timetable", "--latitude", "1", "--longitude", "2", "--date", "06/03/2025")
	assert.Error(t, err)
	_, err = run(t, d, "timetable", "MISSING")
	assert.Error(t, err)
}
