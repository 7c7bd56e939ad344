package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/salahplan/internal/aiparse"
	"github.com/sandeepkv93/salahplan/internal/analytics"
	"github.com/sandeepkv93/salahplan/internal/clock"
	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/planner"
	"github.com/sandeepkv93/salahplan/internal/storage"
)

var now = time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)

type fakeParser struct {
	resp aiparse.Response
}

func (f fakeParser) Parse(context.Context, string) (aiparse.Response, error) {
	return f.resp, nil
}

func newTestServer(t *testing.T, parser aiparse.Parser) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	saved := model.DefaultSavedState()
	saved.PrayerSettings.AutoFetch = false
	store := storage.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), saved))

	rt, err := planner.NewRuntime(context.Background(), planner.Options{
		Clock:  clock.NewFake(now),
		Store:  store,
		Logger: logger,
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	srv := httptest.NewServer(NewServer(rt, parser, []string{"http://localhost:5173"}, logger).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/api/tasks", `{"title":"Standup","category":"work","time":"09:00 AM – 09:30 AM","reminder":10}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[model.Task](t, resp)
	assert.Equal(t, model.CategoryWork, created.Category)
	assert.Equal(t, "2026-03-10", created.Date)

	resp = do(t, http.MethodPost, srv.URL+"/api/tasks", `{"title":"Clash","time":"09:15 AM – 09:45 AM"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	msg := decodeBody[map[string]string](t, resp)
	assert.Contains(t, msg["error"], "Standup")

	resp = do(t, http.MethodPost, srv.URL+"/api/tasks/2026-03-10/"+created.ID+"/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	toggled := decodeBody[model.Task](t, resp)
	assert.Equal(t, model.StatusDone, toggled.Status)

	resp = do(t, http.MethodPost, srv.URL+"/api/tasks/2026-03-10/"+created.ID+"/repeat", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	copied := decodeBody[model.Task](t, resp)
	assert.Equal(t, "2026-03-11", copied.Date)

	resp = do(t, http.MethodGet, srv.URL+"/api/tasks?date=all", "")
	all := decodeBody[[]model.Task](t, resp)
	assert.Len(t, all, 2)

	resp = do(t, http.MethodDelete, srv.URL+"/api/tasks/2026-03-11/"+copied.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/tasks/2026-03-11/"+copied.ID+"/toggle", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTaskValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/api/tasks", `{"title":"","time":"09:00 AM"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/tasks", `{"title":"x","time":"soon"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/tasks", `{"title":"x","time":"09:00 AM","category":"hobby"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/tasks", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAITask(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := do(t, http.MethodPost, srv.URL+"/api/ai/tasks", `{"prompt":"gym at 7pm"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	reminder := 5
	srv = newTestServer(t, fakeParser{resp: aiparse.Response{
		Title: "Gym", Category: "sports", StartTime: "07:00 PM", EndTime: "08:00 PM",
		Reminder: &reminder, Recurrence: "Daily",
	}})
	resp = do(t, http.MethodPost, srv.URL+"/api/ai/tasks", `{"prompt":"gym at 7pm"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decodeBody[model.Task](t, resp)
	assert.Equal(t, model.CategoryWork, task.Category)
	assert.Equal(t, 5, task.Reminder)
	require.NotNil(t, task.Recurrence)
	assert.Equal(t, model.FrequencyDaily, task.Recurrence.Frequency)
}

func TestNotificationsAndTheme(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPut, srv.URL+"/api/settings/theme", `{"theme":"dark"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, http.MethodPut, srv.URL+"/api/settings/theme", `{"theme":"neon"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/settings", "")
	settings := decodeBody[settingsResponse](t, resp)
	assert.Equal(t, model.ThemeDark, settings.Theme)

	resp = do(t, http.MethodPost, srv.URL+"/api/notifications/read", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodDelete, srv.URL+"/api/notifications", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodGet, srv.URL+"/api/notifications", "")
	assert.Empty(t, decodeBody[[]model.Notification](t, resp))
}

func TestHealthSettingsGenerateTasks(t *testing.T) {
	srv := newTestServer(t, nil)
	health := model.DefaultHealthSettings()
	health.Gym.Enabled = true
	body, err := json.Marshal(health)
	require.NoError(t, err)

	resp := do(t, http.MethodPut, srv.URL+"/api/settings/health", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/tasks", "")
	tasks := decodeBody[[]model.Task](t, resp)
	require.Len(t, tasks, 1)
	assert.Equal(t, "health-gym", tasks[0].ID)
	assert.Equal(t, "07:00 PM – 08:00 PM", tasks[0].Time.String())
}

func TestExportImport(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := do(t, http.MethodPost, srv.URL+"/api/tasks", `{"title":"Pay rent","category":"finance","time":"10:00 AM"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	backup, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(backup), "Pay rent")

	other := newTestServer(t, nil)
	resp = do(t, http.MethodPost, other.URL+"/api/import", string(backup))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, http.MethodGet, other.URL+"/api/tasks", "")
	assert.Len(t, decodeBody[[]model.Task](t, resp), 1)

	resp = do(t, http.MethodPost, other.URL+"/api/import", `{"tasks":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyticsAndPrayerTimes(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := do(t, http.MethodGet, srv.URL+"/api/analytics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeBody[analytics.Summary](t, resp)
	assert.Len(t, summary.Week, 7)

	resp = do(t, http.MethodGet, srv.URL+"/api/prayer-times", "")
	pt := decodeBody[prayerTimesResponse](t, resp)
	assert.Equal(t, "2026-03-10", pt.Date)
	assert.Nil(t, pt.Times)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/tasks", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
