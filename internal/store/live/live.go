// Package live fans change signals out to query listeners. Backends without
// native snapshot listeners register a query per subscriber and call Notify
// when a collection changes; each listener re-runs its query on its own
// goroutine and delivers only when the result differs from the last one.
package live

import (
	"context"
	"reflect"
	"sync"

	"saadSocialAPI/internal/store"
)

type Hub struct {
	mu        sync.Mutex
	listeners map[*listener]struct{}
}

func NewHub() *Hub {
	return &Hub{listeners: make(map[*listener]struct{})}
}

// listener signals coalesce, so a burst of writes can produce a single
// snapshot of the latest state.
type listener struct {
	hub     *Hub
	topic   string
	eval    func() (any, bool)
	deliver func(any)
	signal  chan struct{}
	stop    chan struct{}
	once    sync.Once
}

// Listen registers eval against topic and runs it once immediately. eval
// returning false skips delivery for that round.
func (h *Hub) Listen(ctx context.Context, topic string, eval func() (any, bool), deliver func(any)) store.Unsubscribe {
	l := &listener{
		hub:     h,
		topic:   topic,
		eval:    eval,
		deliver: deliver,
		signal:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	h.mu.Lock()
	h.listeners[l] = struct{}{}
	h.mu.Unlock()

	l.signal <- struct{}{}
	go l.run(ctx)
	return l.close
}

func (h *Hub) Notify(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for l := range h.listeners {
		if l.topic != topic {
			continue
		}
		select {
		case l.signal <- struct{}{}:
		default:
		}
	}
}

// NotifyAll wakes every listener, used after a reconnect when individual
// change events may have been missed.
func (h *Hub) NotifyAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for l := range h.listeners {
		select {
		case l.signal <- struct{}{}:
		default:
		}
	}
}

// Count is the number of listeners not yet released.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Close stops every listener still registered.
func (h *Hub) Close() {
	h.mu.Lock()
	all := make([]*listener, 0, len(h.listeners))
	for l := range h.listeners {
		all = append(all, l)
	}
	h.mu.Unlock()
	for _, l := range all {
		l.close()
	}
}

func (l *listener) run(ctx context.Context) {
	var last any
	delivered := false
	for {
		select {
		case <-l.stop:
			return
		case <-ctx.Done():
			l.close()
			return
		case <-l.signal:
		}

		snap, ok := l.eval()
		if !ok {
			continue
		}
		if delivered && reflect.DeepEqual(last, snap) {
			continue
		}
		select {
		case <-l.stop:
			return
		default:
		}
		last, delivered = snap, true
		l.deliver(snap)
	}
}

func (l *listener) close() {
	l.once.Do(func() {
		close(l.stop)
		l.hub.mu.Lock()
		delete(l.hub.listeners, l)
		l.hub.mu.Unlock()
	})
}
