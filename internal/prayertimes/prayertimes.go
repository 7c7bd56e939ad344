// Package prayertimes resolves today's prayer times, either from the Aladhan
// calendar API or from the manually configured weekday slots.
package prayertimes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

const DefaultBaseURL = "https://api.aladhan.com/v1"

// calculationMethod 2 is the Islamic Society of North America.
const calculationMethod = 2

var (
	ErrNoTimes      = errors.New("prayertimes: no prayer times available")
	ErrBadResponse  = errors.New("prayertimes: unexpected api response")
	ErrMissingPlace = errors.New("prayertimes: city and country are required")
)

// Provider fetches one day's prayer times for the configured place.
type Provider interface {
	Fetch(ctx context.Context, settings model.PrayerSettings, day time.Time) (model.PrayerTimes, error)
}

type AladhanClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewAladhanClient(baseURL string, timeout time.Duration) *AladhanClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AladhanClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type calendarResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   []struct {
		Timings map[string]string `json:"timings"`
	} `json:"data"`
}

func school(j model.Juristic) int {
	if j == model.JuristicHanafi {
		return 1
	}
	return 0
}

func latitudeAdjustment(h model.HighLatitudeMethod) int {
	switch h {
	case model.LatitudeMiddleOfTheNight:
		return 1
	case model.LatitudeOneSeventh:
		return 2
	default:
		return 3
	}
}

// CalendarURL builds the monthly calendarByCity request for day's month.
func (c *AladhanClient) CalendarURL(settings model.PrayerSettings, day time.Time) string {
	q := url.Values{}
	q.Set("city", settings.City)
	q.Set("country", settings.Country)
	q.Set("method", strconv.Itoa(calculationMethod))
	q.Set("school", strconv.Itoa(school(settings.Juristic)))
	q.Set("latitudeAdjustmentMethod", strconv.Itoa(latitudeAdjustment(settings.HighLatitudeMethod)))
	q.Set("month", strconv.Itoa(int(day.Month())))
	q.Set("year", strconv.Itoa(day.Year()))
	return c.BaseURL + "/calendarByCity?" + q.Encode()
}

func (c *AladhanClient) Fetch(ctx context.Context, settings model.PrayerSettings, day time.Time) (model.PrayerTimes, error) {
	if strings.TrimSpace(settings.City) == "" || strings.TrimSpace(settings.Country) == "" {
		return model.PrayerTimes{}, ErrMissingPlace
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.CalendarURL(settings, day), nil)
	if err != nil {
		return model.PrayerTimes{}, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return model.PrayerTimes{}, fmt.Errorf("fetch prayer calendar: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return model.PrayerTimes{}, fmt.Errorf("%w: status %d", ErrBadResponse, res.StatusCode)
	}

	var body calendarResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return model.PrayerTimes{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if body.Code != http.StatusOK || len(body.Data) < day.Day() {
		return model.PrayerTimes{}, fmt.Errorf("%w: code %d status %q", ErrBadResponse, body.Code, body.Status)
	}
	timings := body.Data[day.Day()-1].Timings
	if len(timings) == 0 {
		return model.PrayerTimes{}, fmt.Errorf("%w: no timings for day %d", ErrBadResponse, day.Day())
	}

	var out model.PrayerTimes
	for _, name := range model.PrayerNames {
		out.Set(name, To12Hour(timings[name]))
	}
	return out, nil
}

// To12Hour converts an API time such as "04:52 (BST)" into "04:52 AM". It
// returns "" when the input has no clock.
func To12Hour(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	c, ok := timerange.ParseClock24(fields[0])
	if !ok {
		return ""
	}
	return c.String()
}

// Resolve picks today's prayer times: fetched when auto-fetch is on and a
// place is set, otherwise from the manual slots. It returns ErrNoTimes when
// nothing usable is available.
func Resolve(ctx context.Context, p Provider, settings model.PrayerSettings, now time.Time) (model.PrayerTimes, error) {
	if settings.AutoFetch && strings.TrimSpace(settings.City) != "" && strings.TrimSpace(settings.Country) != "" {
		if p == nil {
			return model.PrayerTimes{}, ErrNoTimes
		}
		times, err := p.Fetch(ctx, settings, now)
		if err != nil {
			return model.PrayerTimes{}, err
		}
		if !times.Complete() {
			return model.PrayerTimes{}, ErrNoTimes
		}
		return times, nil
	}
	times, ok := Manual(settings, now)
	if !ok {
		return model.PrayerTimes{}, ErrNoTimes
	}
	return times, nil
}

// weekOrder is the lookup order when no Monday slot exists.
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Manual returns the configured slot for today. With weekly repeat the Monday
// slot applies every day, falling back to the first configured weekday.
// Slots with fewer than five prayers are ignored.
func Manual(settings model.PrayerSettings, now time.Time) (model.PrayerTimes, bool) {
	var slot model.PrayerTimes
	var ok bool
	if settings.RepeatWeekly {
		for _, day := range weekOrder {
			if slot, ok = settings.ManualTimes[day.String()]; ok {
				break
			}
		}
	} else {
		slot, ok = settings.ManualTimes[now.Weekday().String()]
	}
	if !ok || !slot.Complete() {
		return model.PrayerTimes{}, false
	}
	return slot, true
}
