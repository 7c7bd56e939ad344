package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/salahplan/internal/clock"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrStopped            = errors.New("scheduler: engine stopped")
)

// ReminderEvent is a one-shot alert. Generation is stamped by the engine;
// events from a generation that has since been cancelled are stale.
type ReminderEvent struct {
	ID         string
	TaskID     string
	Title      string
	Body       string
	TriggerAt  time.Time
	Generation uint64
}

type queueItem struct {
	event ReminderEvent
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].event.TriggerAt.Before(pq[j].event.TriggerAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

type Engine struct {
	mu         sync.Mutex
	clock      clock.Clock
	queue      priorityQueue
	out        chan ReminderEvent
	wakeup     chan struct{}
	stopCh     chan struct{}
	doneCh     chan struct{}
	started    bool
	stopped    bool
	dropped    uint64
	generation atomic.Uint64
}

func NewEngine(bufferSize int) *Engine {
	return NewEngineWithClock(bufferSize, clock.Real{})
}

func NewEngineWithClock(bufferSize int, clk clock.Clock) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		clock:  clk,
		queue:  make(priorityQueue, 0),
		out:    make(chan ReminderEvent, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *Engine) C() <-chan ReminderEvent {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

func (e *Engine) Schedule(ev ReminderEvent) error {
	if ev.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}

	ev.Generation = e.generation.Load()
	heap.Push(&e.queue, queueItem{event: ev})
	e.signalWakeup()
	return nil
}

// CancelAll discards every pending event, including any already buffered for
// the consumer, and invalidates events currently in flight.
func (e *Engine) CancelAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
	e.signalWakeup()
}

// Replace atomically cancels all pending events and schedules evs in their
// place. Events without a trigger time are skipped. It returns how many were
// scheduled.
func (e *Engine) Replace(evs []ReminderEvent) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return 0, ErrStopped
	}
	e.cancelLocked()
	gen := e.generation.Load()
	n := 0
	for _, ev := range evs {
		if ev.TriggerAt.IsZero() {
			continue
		}
		ev.Generation = gen
		heap.Push(&e.queue, queueItem{event: ev})
		n++
	}
	e.signalWakeup()
	return n, nil
}

// IsCurrent reports whether ev belongs to the live generation.
func (e *Engine) IsCurrent(ev ReminderEvent) bool {
	return ev.Generation == e.generation.Load()
}

// Pending is the number of queued events.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Wake makes the loop re-read the clock, for clocks that jump.
func (e *Engine) Wake() {
	e.signalWakeup()
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) cancelLocked() {
	e.generation.Add(1)
	e.queue = e.queue[:0]
	for {
		select {
		case <-e.out:
		default:
			return
		}
	}
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := next.TriggerAt.Sub(e.clock.Now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := e.popDue(e.clock.Now())
			for _, ev := range due {
				if !e.IsCurrent(ev) {
					continue
				}
				select {
				case e.out <- ev:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (ReminderEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return ReminderEvent{}, false
	}
	return e.queue[0].event, true
}

func (e *Engine) popDue(now time.Time) []ReminderEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]ReminderEvent, 0)
	for len(e.queue) > 0 {
		next := e.queue[0].event
		if next.TriggerAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(queueItem)
		out = append(out, item.event)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
