package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/salahplan/internal/clock"
	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/notify"
	"github.com/sandeepkv93/salahplan/internal/prayertimes"
	"github.com/sandeepkv93/salahplan/internal/reminders"
	"github.com/sandeepkv93/salahplan/internal/scheduler"
	"github.com/sandeepkv93/salahplan/internal/storage"
)

var ErrNotRunning = errors.New("planner: runtime is not running")

const settleInterval = 20 * time.Millisecond

// deliveryBuffer bounds the desktop notifications waiting for the notifier.
const deliveryBuffer = 16

// Transition moves the state forward. Returning an error leaves the state as
// it was.
type Transition func(s State, now time.Time) (State, error)

type Options struct {
	Clock                clock.Clock
	Store                storage.Store
	Provider             prayertimes.Provider
	Sink                 *notify.Sink
	Logger               *log.Logger
	SchedulerBuffer      int
	PollInterval         time.Duration
	AutoCompleteInterval time.Duration
	FetchTimeout         time.Duration
}

type request struct {
	fn    Transition
	write bool
	reply chan response
}

type response struct {
	state State
	err   error
}

type fetchResult struct {
	version uint64
	times   *model.PrayerTimes
	err     error
}

// Runtime owns the state on a single goroutine. Requests from the TUI, the
// HTTP API and the CLI are applied one at a time in arrival order. Prayer
// times are resolved off the loop and fed back as a transition.
type Runtime struct {
	clock    clock.Clock
	store    storage.Store
	provider prayertimes.Provider
	sink     *notify.Sink
	logger   *log.Logger
	engine   *scheduler.Engine

	pollInterval time.Duration
	autoInterval time.Duration
	fetchTimeout time.Duration

	runCtx context.Context
	state  State
	day    string

	prayerKey string
	alertKey  string
	version   uint64
	applied   uint64

	requests   chan request
	fetched    chan fetchResult
	saves      chan model.SavedState
	deliveries chan model.Notification
	changes    chan struct{}
	done       chan struct{}
}

// NewRuntime loads the saved state and prepares the runtime. Run starts it.
func NewRuntime(ctx context.Context, opts Options) (*Runtime, error) {
	if opts.Store == nil {
		return nil, errors.New("planner: store is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = reminders.PollInterval
	}
	if opts.AutoCompleteInterval <= 0 {
		opts.AutoCompleteInterval = reminders.AutoCompleteInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}

	saved, ok, err := opts.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if !ok {
		saved = model.DefaultSavedState()
	}
	now := opts.Clock.Now()
	return &Runtime{
		clock:        opts.Clock,
		store:        opts.Store,
		provider:     opts.Provider,
		sink:         opts.Sink,
		logger:       opts.Logger,
		engine:       scheduler.NewEngineWithClock(opts.SchedulerBuffer, opts.Clock),
		pollInterval: opts.PollInterval,
		autoInterval: opts.AutoCompleteInterval,
		fetchTimeout: opts.FetchTimeout,
		state:        New(saved).Regenerate(now),
		day:          model.DateKey(now),
		requests:     make(chan request),
		fetched:      make(chan fetchResult, 1),
		saves:        make(chan model.SavedState, 1),
		deliveries:   make(chan model.Notification, deliveryBuffer),
		changes:      make(chan struct{}, 1),
		done:         make(chan struct{}),
	}, nil
}

// Changes signals after every state change. Signals coalesce.
func (r *Runtime) Changes() <-chan struct{} {
	return r.changes
}

// Run drives the loop until ctx is cancelled. Pending prayer alerts are
// cancelled on the way out and the last state is saved.
func (r *Runtime) Run(ctx context.Context) error {
	defer close(r.done)
	r.runCtx = ctx
	r.engine.Start()
	defer r.engine.Stop()
	defer r.engine.CancelAll()

	saverDone := make(chan struct{})
	go r.saver(saverDone)
	defer func() {
		close(r.saves)
		<-saverDone
	}()

	delivererDone := make(chan struct{})
	go r.deliverer(context.WithoutCancel(ctx), delivererDone)
	defer func() {
		close(r.deliveries)
		<-delivererDone
	}()

	poll := time.NewTicker(r.pollInterval)
	defer poll.Stop()
	auto := time.NewTicker(r.autoInterval)
	defer auto.Stop()

	r.afterChange(ctx, false)
	for {
		select {
		case <-ctx.Done():
			r.save()
			return nil
		case req := <-r.requests:
			req.reply <- r.apply(ctx, req)
		case <-poll.C:
			r.poll(ctx)
		case <-auto.C:
			r.autoComplete(ctx)
		case res := <-r.fetched:
			r.applyFetch(ctx, res)
		case ev := <-r.engine.C():
			r.deliverAlert(ev)
		}
	}
}

// Do applies fn on the loop and persists the result.
func (r *Runtime) Do(ctx context.Context, fn Transition) (State, error) {
	return r.send(ctx, request{fn: fn, write: true})
}

// Snapshot returns the current state without changing it.
func (r *Runtime) Snapshot(ctx context.Context) (State, error) {
	return r.send(ctx, request{fn: func(s State, _ time.Time) (State, error) { return s, nil }})
}

// Poll runs the reminder scan and prayer auto-completion immediately.
func (r *Runtime) Poll(ctx context.Context) (State, error) {
	return r.send(ctx, request{fn: func(State, time.Time) (State, error) {
		r.poll(r.runCtx)
		r.autoComplete(r.runCtx)
		return r.state, nil
	}})
}

// Settle waits until no prayer time lookup is outstanding and returns the
// state at that point.
func (r *Runtime) Settle(ctx context.Context) (State, error) {
	for {
		settled := false
		st, err := r.send(ctx, request{fn: func(s State, _ time.Time) (State, error) {
			settled = r.applied == r.version
			return s, nil
		}})
		if err != nil || settled {
			return st, err
		}
		select {
		case <-time.After(settleInterval):
		case <-ctx.Done():
			return State{}, ctx.Err()
		}
	}
}

// Now is the runtime's clock reading.
func (r *Runtime) Now() time.Time {
	return r.clock.Now()
}

func (r *Runtime) send(ctx context.Context, req request) (State, error) {
	req.reply = make(chan response, 1)
	select {
	case r.requests <- req:
	case <-r.done:
		return State{}, ErrNotRunning
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.state, res.err
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

func (r *Runtime) apply(ctx context.Context, req request) response {
	next, err := req.fn(r.state, r.clock.Now())
	if err != nil {
		return response{state: r.state, err: err}
	}
	r.state = next
	if req.write {
		r.afterChange(ctx, true)
	}
	return response{state: r.state}
}

// afterChange runs the follow-ups of a state change: prayer times are
// re-resolved when their settings moved, alerts are rebuilt when their inputs
// moved, and the state is saved.
func (r *Runtime) afterChange(ctx context.Context, save bool) {
	if key := fmt.Sprint(r.state.PrayerSettings); key != r.prayerKey {
		r.prayerKey = key
		r.resolvePrayerTimes(ctx)
	}
	r.rescheduleAlerts()
	r.autoCompleteQuiet()
	if save {
		r.save()
	}
	r.signal()
}

func (r *Runtime) resolvePrayerTimes(ctx context.Context) {
	r.version++
	version := r.version
	settings := r.state.PrayerSettings
	now := r.clock.Now()
	go func() {
		ctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()
		res := fetchResult{version: version}
		times, err := prayertimes.Resolve(ctx, r.provider, settings, now)
		if err != nil {
			res.err = err
		} else {
			res.times = &times
		}
		select {
		case r.fetched <- res:
		case <-r.done:
		}
	}()
}

func (r *Runtime) applyFetch(ctx context.Context, res fetchResult) {
	if res.version != r.version {
		return
	}
	r.applied = res.version
	if res.err != nil {
		r.logger.Warn("prayer times unavailable", "city", r.state.PrayerSettings.City, "err", res.err)
	}
	r.state = r.state.ApplyPrayerTimes(res.times, r.clock.Now())
	r.afterChange(ctx, true)
}

func (r *Runtime) rescheduleAlerts() {
	key := "off"
	if r.state.PrayerSettings.Notifications && r.state.PrayerTimes != nil {
		key = fmt.Sprint(*r.state.PrayerTimes, r.day)
	}
	if key == r.alertKey {
		return
	}
	r.alertKey = key
	if key == "off" {
		r.engine.CancelAll()
		return
	}
	n, err := r.engine.Replace(reminders.PrayerAlerts(*r.state.PrayerTimes, r.clock.Now()))
	if err != nil {
		r.logger.Warn("schedule prayer alerts", "err", err)
		return
	}
	r.logger.Debug("prayer alerts scheduled", "count", n)
}

func (r *Runtime) deliverAlert(ev scheduler.ReminderEvent) {
	if !r.engine.IsCurrent(ev) || !r.state.PrayerSettings.Notifications {
		return
	}
	n := model.NewNotification(ev.Title, ev.Body, r.clock.Now())
	r.state = r.state.Notify(n)
	r.deliver(n)
	r.save()
	r.signal()
}

func (r *Runtime) poll(ctx context.Context) {
	now := r.clock.Now()
	if day := model.DateKey(now); day != r.day {
		r.day = day
		r.state = r.state.Rollover(now)
		r.prayerKey = ""
		r.afterChange(ctx, true)
	}
	next, fired := r.state.Tick(now)
	if len(fired) == 0 {
		return
	}
	r.state = next
	for _, n := range fired {
		r.deliver(n)
	}
	r.save()
	r.signal()
}

func (r *Runtime) autoComplete(context.Context) {
	if r.autoCompleteQuiet() {
		r.save()
		r.signal()
	}
}

func (r *Runtime) autoCompleteQuiet() bool {
	next, ids := r.state.AutoComplete(r.clock.Now())
	if len(ids) == 0 {
		return false
	}
	r.state = next
	r.logger.Info("prayers auto-completed", "ids", ids)
	return true
}

// save hands the snapshot to the saver. Only the newest pending snapshot is
// kept.
func (r *Runtime) save() {
	snap := r.state.Saved()
	for {
		select {
		case r.saves <- snap:
			return
		default:
		}
		select {
		case <-r.saves:
		default:
		}
	}
}

func (r *Runtime) saver(done chan<- struct{}) {
	defer close(done)
	for snap := range r.saves {
		if err := r.store.Save(context.Background(), snap); err != nil {
			r.logger.Error("save state", "err", err)
		}
	}
}

// deliver queues n for the desktop notifier without blocking the loop. The
// notification is dropped when the queue is full.
func (r *Runtime) deliver(n model.Notification) {
	if !r.sink.Allowed() {
		return
	}
	select {
	case r.deliveries <- n:
	default:
		r.logger.Warn("desktop notification dropped", "title", n.Title, "queued", len(r.deliveries))
	}
}

func (r *Runtime) deliverer(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for n := range r.deliveries {
		r.sink.Deliver(ctx, n)
	}
}

func (r *Runtime) signal() {
	select {
	case r.changes <- struct{}{}:
	default:
	}
}
