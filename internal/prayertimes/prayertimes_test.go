package prayertimes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/salahplan/internal/model"
)

var tuesday = time.Date(2026, 3, 3, 9, 0, 0, 0, time.Local)

func calendarHandler(t *testing.T, gotQuery *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendarByCity" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		*gotQuery = r.URL.RawQuery
		days := make([]string, 0, 3)
		for d := 1; d <= 3; d++ {
			days = append(days, fmt.Sprintf(`{"timings":{"Fajr":"05:%02d (PKT)","Sunrise":"06:30 (PKT)","Dhuhr":"12:15 (PKT)","Asr":"16:30 (PKT)","Maghrib":"18:20 (PKT)","Isha":"19:45 (PKT)"}}`, d))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"code":200,"status":"OK","data":[%s]}`, strings.Join(days, ","))
	}
}

func TestAladhanFetch(t *testing.T) {
	var query string
	srv := httptest.NewServer(calendarHandler(t, &query))
	defer srv.Close()

	client := NewAladhanClient(srv.URL, time.Second)
	times, err := client.Fetch(context.Background(), model.DefaultPrayerSettings(), tuesday)
	require.NoError(t, err)

	assert.Equal(t, model.PrayerTimes{
		Fajr: "05:03 AM", Dhuhr: "12:15 PM", Asr: "04:30 PM", Maghrib: "06:20 PM", Isha: "07:45 PM",
	}, times)
	assert.Contains(t, query, "city=Minchinabad")
	assert.Contains(t, query, "method=2")
	assert.Contains(t, query, "school=1")
	assert.Contains(t, query, "latitudeAdjustmentMethod=3")
	assert.Contains(t, query, "month=3")
	assert.Contains(t, query, "year=2026")
}

func TestAladhanFetchShortCalendar(t *testing.T) {
	var query string
	srv := httptest.NewServer(calendarHandler(t, &query))
	defer srv.Close()

	client := NewAladhanClient(srv.URL, time.Second)
	_, err := client.Fetch(context.Background(), model.DefaultPrayerSettings(), tuesday.AddDate(0, 0, 10))
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestAladhanFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAladhanClient(srv.URL, time.Second).Fetch(context.Background(), model.DefaultPrayerSettings(), tuesday)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestSettingsMapping(t *testing.T) {
	client := NewAladhanClient("", 0)
	settings := model.DefaultPrayerSettings()
	settings.Juristic = model.JuristicStandard
	settings.HighLatitudeMethod = model.LatitudeOneSeventh
	u := client.CalendarURL(settings, tuesday)
	assert.True(t, strings.HasPrefix(u, DefaultBaseURL+"/calendarByCity?"))
	assert.Contains(t, u, "school=0")
	assert.Contains(t, u, "latitudeAdjustmentMethod=2")
}

func TestTo12Hour(t *testing.T) {
	assert.Equal(t, "12:05 AM", To12Hour("00:05 (BST)"))
	assert.Equal(t, "12:30 PM", To12Hour("12:30"))
	assert.Equal(t, "", To12Hour(""))
	assert.Equal(t, "", To12Hour("n/a"))
}

type stubProvider struct {
	times model.PrayerTimes
	err   error
	calls int
}

func (s *stubProvider) Fetch(context.Context, model.PrayerSettings, time.Time) (model.PrayerTimes, error) {
	s.calls++
	return s.times, s.err
}

func fullSlot(fajr string) model.PrayerTimes {
	return model.PrayerTimes{Fajr: fajr, Dhuhr: "12:15 PM", Asr: "04:30 PM", Maghrib: "06:20 PM", Isha: "07:45 PM"}
}

func TestResolveAutoFetch(t *testing.T) {
	stub := &stubProvider{times: fullSlot("05:10 AM")}
	times, err := Resolve(context.Background(), stub, model.DefaultPrayerSettings(), tuesday)
	require.NoError(t, err)
	assert.Equal(t, "05:10 AM", times.Fajr)

	stub.err = errors.New("offline")
	_, err = Resolve(context.Background(), stub, model.DefaultPrayerSettings(), tuesday)
	assert.Error(t, err)
	assert.Equal(t, 2, stub.calls)
}

func TestResolveManual(t *testing.T) {
	settings := model.DefaultPrayerSettings()
	settings.AutoFetch = false
	settings.ManualTimes = map[string]model.PrayerTimes{
		"Monday":  fullSlot("05:00 AM"),
		"Tuesday": fullSlot("05:01 AM"),
	}

	times, err := Resolve(context.Background(), nil, settings, tuesday)
	require.NoError(t, err)
	assert.Equal(t, "05:01 AM", times.Fajr)

	settings.RepeatWeekly = true
	times, err = Resolve(context.Background(), nil, settings, tuesday)
	require.NoError(t, err)
	assert.Equal(t, "05:00 AM", times.Fajr)

	settings.ManualTimes = map[string]model.PrayerTimes{"Friday": fullSlot("05:05 AM")}
	times, err = Resolve(context.Background(), nil, settings, tuesday)
	require.NoError(t, err)
	assert.Equal(t, "05:05 AM", times.Fajr)
}

func TestResolveManualIncomplete(t *testing.T) {
	settings := model.DefaultPrayerSettings()
	settings.City = ""
	partial := fullSlot("05:00 AM")
	partial.Isha = ""
	settings.ManualTimes = map[string]model.PrayerTimes{"Tuesday": partial}

	_, err := Resolve(context.Background(), &stubProvider{}, settings, tuesday)
	assert.ErrorIs(t, err, ErrNoTimes)
}
