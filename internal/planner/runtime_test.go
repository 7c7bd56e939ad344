package planner

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/salahplan/internal/clock"
	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/notify"
	"github.com/sandeepkv93/salahplan/internal/storage"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

type stubProvider struct {
	mu    sync.Mutex
	times model.PrayerTimes
	err   error
	calls int
}

func (p *stubProvider) Fetch(context.Context, model.PrayerSettings, time.Time) (model.PrayerTimes, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.times, p.err
}

func (p *stubProvider) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (r *recordingNotifier) Send(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

// blockingNotifier holds every send until release is closed.
type blockingNotifier struct {
	release chan struct{}
	recordingNotifier
}

func (b *blockingNotifier) Send(ctx context.Context, n model.Notification) error {
	<-b.release
	return b.recordingNotifier.Send(ctx, n)
}

type harness struct {
	rt       *Runtime
	clk      *clock.Fake
	store    *storage.MemoryStore
	provider *stubProvider
	notifier *recordingNotifier
	ctx      context.Context
}

func startRuntime(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clk:      clock.NewFake(morning),
		store:    storage.NewMemoryStore(),
		provider: &stubProvider{times: times},
		notifier: &recordingNotifier{},
	}
	logger := log.New(io.Discard)
	rt, err := NewRuntime(context.Background(), Options{
		Clock:                h.clk,
		Store:                h.store,
		Provider:             h.provider,
		Sink:                 notify.NewSink(h.notifier, true, logger),
		Logger:               logger,
		PollInterval:         time.Hour,
		AutoCompleteInterval: time.Hour,
	})
	require.NoError(t, err)
	h.rt = rt

	ctx, cancel := context.WithCancel(context.Background())
	h.ctx = context.Background()
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func (h *harness) waitFor(t *testing.T, cond func(State) bool) State {
	t.Helper()
	var last State
	require.Eventually(t, func() bool {
		s, err := h.rt.Snapshot(h.ctx)
		if err != nil {
			return false
		}
		last = s
		return cond(s)
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func prayerCount(s State) int {
	n := 0
	for _, task := range s.Today(morning) {
		if task.Origin.Kind == model.OriginPrayer {
			n++
		}
	}
	return n
}

func TestRuntimeResolvesPrayerTimes(t *testing.T) {
	h := startRuntime(t)
	s := h.waitFor(t, func(s State) bool { return prayerCount(s) == 5 })
	require.NotNil(t, s.PrayerTimes)
	assert.Equal(t, "05:10 AM", s.PrayerTimes.Fajr)
}

func TestRuntimeFetchFailureRemovesPrayerTasks(t *testing.T) {
	h := startRuntime(t)
	h.waitFor(t, func(s State) bool { return prayerCount(s) == 5 })

	h.provider.fail(errors.New("network down"))
	_, err := h.rt.Do(h.ctx, func(s State, _ time.Time) (State, error) {
		settings := s.PrayerSettings
		settings.City = "Lahore"
		return s.SetPrayerSettings(settings)
	})
	require.NoError(t, err)

	s := h.waitFor(t, func(s State) bool { return prayerCount(s) == 0 })
	assert.Nil(t, s.PrayerTimes)
}

func TestRuntimePollFiresReminderOnce(t *testing.T) {
	h := startRuntime(t)
	_, err := h.rt.Do(h.ctx, func(s State, now time.Time) (State, error) {
		next, _, err := s.SaveTask(TaskInput{
			Title:    "Call",
			Time:     timerange.ParseWindow("10:00 AM – 10:30 AM"),
			Reminder: 15,
		}, now)
		return next, err
	})
	require.NoError(t, err)

	h.clk.Set(at(9, 50))
	s, err := h.rt.Poll(h.ctx)
	require.NoError(t, err)
	require.Len(t, s.Notifications, 1)
	assert.Equal(t, "Call is starting in 15 minutes.", s.Notifications[0].Body)

	h.clk.Set(at(9, 55))
	s, err = h.rt.Poll(h.ctx)
	require.NoError(t, err)
	assert.Len(t, s.Notifications, 1)
	require.Eventually(t, func() bool { return h.notifier.count() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestRuntimeSavesAfterChange(t *testing.T) {
	h := startRuntime(t)
	_, err := h.rt.Do(h.ctx, func(s State, _ time.Time) (State, error) {
		return s.SetTheme(model.ThemeDark)
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		saved, ok, err := h.store.Load(context.Background())
		return err == nil && ok && saved.Theme == model.ThemeDark
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRuntimeRejectedTransitionLeavesState(t *testing.T) {
	h := startRuntime(t)
	before, err := h.rt.Snapshot(h.ctx)
	require.NoError(t, err)

	_, err = h.rt.Do(h.ctx, func(s State, _ time.Time) (State, error) {
		return s.SetTheme("neon")
	})
	require.ErrorIs(t, err, model.ErrInvalidTheme)

	after, err := h.rt.Snapshot(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Theme, after.Theme)
}

func TestRuntimeDeliversPrayerAlert(t *testing.T) {
	h := startRuntime(t)
	h.waitFor(t, func(s State) bool { return prayerCount(s) == 5 })
	require.Eventually(t, func() bool { return h.rt.engine.Pending() == 5 }, 2*time.Second, 5*time.Millisecond)

	h.clk.Set(at(4, 56))
	h.rt.engine.Wake()

	s := h.waitFor(t, func(s State) bool { return len(s.Notifications) == 1 })
	assert.Equal(t, "Prayer Time Reminder", s.Notifications[0].Title)
	assert.Equal(t, "Fajr prayer is in 15 minutes.", s.Notifications[0].Body)
}

func TestRuntimeNotificationToggleCancelsAlerts(t *testing.T) {
	h := startRuntime(t)
	require.Eventually(t, func() bool { return h.rt.engine.Pending() == 5 }, 2*time.Second, 5*time.Millisecond)

	_, err := h.rt.Do(h.ctx, func(s State, _ time.Time) (State, error) {
		settings := s.PrayerSettings
		settings.Notifications = false
		return s.SetPrayerSettings(settings)
	})
	require.NoError(t, err)
	assert.Zero(t, h.rt.engine.Pending())
}

func TestRuntimeStoppedRejectsRequests(t *testing.T) {
	logger := log.New(io.Discard)
	rt, err := NewRuntime(context.Background(), Options{Store: storage.NewMemoryStore(), Logger: logger})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)

	_, err = rt.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestRuntimeSettleWaitsForPrayerTimes(t *testing.T) {
	h := startRuntime(t)
	s, err := h.rt.Settle(h.ctx)
	require.NoError(t, err)
	require.NotNil(t, s.PrayerTimes)
	assert.Equal(t, 5, prayerCount(s))
}

func TestRuntimeSlowNotifierDoesNotBlockLoop(t *testing.T) {
	notifier := &blockingNotifier{release: make(chan struct{})}
	logger := log.New(io.Discard)
	clk := clock.NewFake(morning)
	rt, err := NewRuntime(context.Background(), Options{
		Clock:                clk,
		Store:                storage.NewMemoryStore(),
		Provider:             &stubProvider{times: times},
		Sink:                 notify.NewSink(notifier, true, logger),
		Logger:               logger,
		PollInterval:         time.Hour,
		AutoCompleteInterval: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	released := false
	release := func() {
		if !released {
			released = true
			close(notifier.release)
		}
	}
	t.Cleanup(release)

	bg := context.Background()
	_, err = rt.Do(bg, func(s State, now time.Time) (State, error) {
		next, _, err := s.SaveTask(TaskInput{
			Title:    "Call",
			Time:     timerange.ParseWindow("10:00 AM – 10:30 AM"),
			Reminder: 15,
		}, now)
		return next, err
	})
	require.NoError(t, err)

	clk.Set(at(9, 50))
	s, err := rt.Poll(bg)
	require.NoError(t, err)
	require.Len(t, s.Notifications, 1)

	quick, cancelQuick := context.WithTimeout(bg, 500*time.Millisecond)
	defer cancelQuick()
	_, err = rt.Snapshot(quick)
	require.NoError(t, err)
	_, err = rt.Do(quick, func(s State, _ time.Time) (State, error) {
		return s.SetTheme(model.ThemeDark)
	})
	require.NoError(t, err)
	assert.Zero(t, notifier.count())

	release()
	require.Eventually(t, func() bool { return notifier.count() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestRuntimeDayChangeForgetsFiredReminders(t *testing.T) {
	h := startRuntime(t)
	var task model.Task
	_, err := h.rt.Do(h.ctx, func(s State, now time.Time) (State, error) {
		next, saved, err := s.SaveTask(TaskInput{
			Title:    "Call",
			Time:     timerange.ParseWindow("10:00 AM – 10:30 AM"),
			Reminder: 15,
		}, now)
		task = saved
		return next, err
	})
	require.NoError(t, err)

	h.clk.Set(at(9, 50))
	s, err := h.rt.Poll(h.ctx)
	require.NoError(t, err)
	require.True(t, s.Triggered.Has(task.Date, task.ID))

	h.clk.Set(time.Date(2026, 3, 11, 0, 5, 0, 0, time.Local))
	s, err = h.rt.Poll(h.ctx)
	require.NoError(t, err)
	assert.False(t, s.Triggered.Has(task.Date, task.ID))
	_, kept := s.Find(task.ID, task.Date)
	assert.True(t, kept)
}
