package eventbus

import (
	"context"
	"sync"

	"github.com/damiantriebl/pgworkspace/schema"
	"pkt.systems/pslog"
)

// Bus fans session events out to subscribers. It satisfies core.EventSink,
// decoupling the store from whatever UI layer re-reads the snapshot.
type Bus struct {
	mu    sync.Mutex
	subs  map[chan schema.SessionEvent]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[chan schema.SessionEvent]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber and returns its channel plus a cancel.
func (b *Bus) Subscribe() (<-chan schema.SessionEvent, func()) {
	ch := make(chan schema.SessionEvent, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.Debug("eventbus subscribe", "subs", count)
	}
	return ch, func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
		if b.log != nil {
			b.log.Debug("eventbus unsubscribe")
		}
	}
}

// OnSessionEvent publishes a session event to every subscriber. Slow
// subscribers drop events rather than block the store.
func (b *Bus) OnSessionEvent(event schema.SessionEvent) {
	b.mu.Lock()
	subs := make([]chan schema.SessionEvent, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 && b.log != nil {
		b.log.Warn("eventbus dropped events", "dropped", dropped, "type", event.Type)
	}
}
