package client

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/luma/fcp/event"
	"github.com/luma/fcp/metrics"
)

// Handler receives events. Handlers run on the connection's read loop and
// must not block on replies from the node.
type Handler func(ev event.Event)

// Subscription is one attached handler.
type Subscription struct {
	dispatcher *Dispatcher
	name       string
	handler    Handler
	removed    int32

	// held for the whole of a delivery
	mu sync.Mutex
}

// Unsubscribe detaches the handler and waits for a delivery already running
// on the read loop to finish. No delivery is made once it returns. A handler
// removing its own subscription calls Release instead.
func (s *Subscription) Unsubscribe() {
	s.dispatcher.Unsubscribe(s)
}

// Release detaches the handler without waiting for a running delivery.
func (s *Subscription) Release() {
	s.dispatcher.release(s)
}

func (s *Subscription) deliver(ev event.Event) {
	if s.name != "" && s.name != ev.Name() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if atomic.LoadInt32(&s.removed) == 1 {
		return
	}

	s.handler(ev)
}

// Dispatcher fans events out to every attached subscription. Each
// subscription sees events in the order they were dispatched.
type Dispatcher struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}

	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewDispatcher(m *metrics.Metrics, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}

	if m == nil {
		m = metrics.Default()
	}

	return &Dispatcher{
		subs:    make(map[*Subscription]struct{}),
		metrics: m,
		log:     log,
	}
}

// Subscribe attaches handler to every event.
func (d *Dispatcher) Subscribe(handler Handler) *Subscription {
	return d.SubscribeTo("", handler)
}

// SubscribeTo attaches handler to events called name only. An empty name
// matches every event.
func (d *Dispatcher) SubscribeTo(name string, handler Handler) *Subscription {
	sub := &Subscription{
		dispatcher: d,
		name:       name,
		handler:    handler,
	}

	d.mu.Lock()
	d.subs[sub] = struct{}{}
	d.mu.Unlock()

	d.metrics.RecordSubscribe()
	return sub
}

func (d *Dispatcher) Unsubscribe(sub *Subscription) {
	d.release(sub)

	// Wait out a delivery that passed the removed check before we set it
	sub.mu.Lock()
	sub.mu.Unlock() //nolint:staticcheck
}

func (d *Dispatcher) release(sub *Subscription) {
	if !atomic.CompareAndSwapInt32(&sub.removed, 0, 1) {
		return
	}

	d.mu.Lock()
	delete(d.subs, sub)
	d.mu.Unlock()

	d.metrics.RecordUnsubscribe()
}

func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.subs)
}

// Dispatch delivers ev to a snapshot of the current subscriptions. Handlers
// may subscribe and unsubscribe while it runs.
func (d *Dispatcher) Dispatch(ev event.Event) {
	d.mu.RLock()
	snapshot := make([]*Subscription, 0, len(d.subs))
	for sub := range d.subs {
		snapshot = append(snapshot, sub)
	}
	d.mu.RUnlock()

	for _, sub := range snapshot {
		d.safeDeliver(sub, ev)
	}
}

func (d *Dispatcher) safeDeliver(sub *Subscription, ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Event handler panicked",
				zap.String("event", ev.Name()),
				zap.Any("panic", r))
		}
	}()

	sub.deliver(ev)
}
