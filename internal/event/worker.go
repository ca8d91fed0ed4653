package event

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/pquota/internal/infra"
)

type Handler func(ctx context.Context, event Queueable)

// Queue delivers events to subscribers one at a time, in arrival order.
type Queue struct {
	q       chan Queueable
	timeout time.Duration

	subsMutex     sync.RWMutex
	subscriptions map[string][]Handler

	runMutex  sync.Mutex
	started   bool
	runCancel context.CancelFunc
	workersWg sync.WaitGroup
}

// NewQueue creates a queue holding up to size pending events. Each subscriber
// call gets its own context bounded by timeout; zero disables the bound.
func NewQueue(size int, timeout time.Duration) *Queue {
	return &Queue{
		q:             make(chan Queueable, size),
		timeout:       timeout,
		subscriptions: map[string][]Handler{},
	}
}

func (w *Queue) Subscribe(eventType string, handler Handler) {
	w.subsMutex.Lock()
	defer w.subsMutex.Unlock()
	w.subscriptions[eventType] = append(w.subscriptions[eventType], handler)
}

// Enqueue blocks while the queue is full.
func (w *Queue) Enqueue(ctx context.Context, event Queueable) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case w.q <- event:
		return nil
	}
}

func (w *Queue) Len() int {
	return len(w.q)
}

func (w *Queue) Start(ctx context.Context) error {
	w.runMutex.Lock()
	defer w.runMutex.Unlock()
	if w.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.runCancel = cancel

	w.workersWg.Add(1)
	go func() {
		defer w.workersWg.Done()
		w.run(runCtx)
	}()

	w.started = true
	return nil
}

func (w *Queue) Stop(ctx context.Context) error {
	w.runMutex.Lock()
	if !w.started {
		w.runMutex.Unlock()
		return nil
	}
	w.started = false
	cancel := w.runCancel
	w.runMutex.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.workersWg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (w *Queue) run(ctx context.Context) {
	entry := w.getLogEntry()
	entry.Trace("events runner go")
	profileTicker := time.NewTicker(5 * time.Minute)
	defer profileTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			entry.Info("shutting down event worker by cancelled context")
			return
		case <-profileTicker.C:
			if qlen := len(w.q); qlen > 0 {
				entry.Debugf("unprocessed queue length: %d", qlen)
			}
		case event := <-w.q:
			w.dispatch(ctx, event)
		}
	}
}

func (w *Queue) dispatch(ctx context.Context, event Queueable) {
	if event == nil {
		return
	}
	if event.Expired() {
		w.getLogEntry().WithField("type", event.Type()).Trace("skip expired event")
		return
	}

	w.subsMutex.RLock()
	subscribers := w.subscriptions[event.Type()]
	w.subsMutex.RUnlock()
	if len(subscribers) == 0 {
		w.getLogEntry().WithField("type", event.Type()).Warn("no subscribers, dropping event")
		return
	}

	for _, sub := range subscribers {
		w.call(ctx, sub, event)
	}
}

func (w *Queue) call(ctx context.Context, sub Handler, event Queueable) {
	defer infra.LogPanic("event_worker:" + event.Type())

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	sub(ctx, event)
}

func (w *Queue) getLogEntry() *log.Entry {
	return log.WithField("context", "event_worker")
}
