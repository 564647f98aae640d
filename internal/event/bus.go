package event

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subscriberBuffer = 100

var droppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cases_events_dropped_total",
	Help: "Change events not delivered because a subscriber buffer was full.",
}, []string{"type"})

type subscription struct {
	ch    chan Event
	types map[Type]struct{}
}

func (s subscription) wants(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// InMemoryBus delivers events to subscribers of this process.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string]subscription
}

func NewBus() *InMemoryBus {
	return &InMemoryBus{
		subscribers: make(map[string]subscription),
	}
}

func (b *InMemoryBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subscribers {
		if !sub.wants(e.Type) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			droppedEvents.WithLabelValues(string(e.Type)).Inc()
			slog.Warn("event dropped for slow subscriber", "subscriber", id, "type", e.Type)
		}
	}
}

// Subscribe registers a listener for the given types, or for every type when
// none are given. The returned func closes the channel and is safe to call twice.
func (b *InMemoryBus) Subscribe(types ...Type) (<-chan Event, func()) {
	sub := subscription{ch: make(chan Event, subscriberBuffer)}
	if len(types) > 0 {
		sub.types = make(map[Type]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	id := uuid.NewString()
	b.mu.Lock()
	b.subscribers[id] = sub
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subscribers, id)
			close(sub.ch)
		})
	}

	return sub.ch, unsubscribe
}

func (b *InMemoryBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
