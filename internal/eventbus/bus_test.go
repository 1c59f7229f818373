package eventbus

import (
	"testing"
	"time"

	"github.com/damiantriebl/pgworkspace/schema"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := New(nil)
	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	bus.OnSessionEvent(schema.SessionEvent{Type: schema.SessionEventCreated, ActiveTab: "query-1"})

	for i, ch := range []<-chan schema.SessionEvent{ch1, ch2} {
		select {
		case event := <-ch:
			if event.Type != schema.SessionEventCreated || event.ActiveTab != "query-1" {
				t.Fatalf("subscriber %d got unexpected event: %+v", i, event)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive the event", i)
		}
	}
}

func TestBusCancelStopsDelivery(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}
	// Publishing after cancel must not panic.
	bus.OnSessionEvent(schema.SessionEvent{Type: schema.SessionEventClosed})
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe()
	defer cancel()

	for i := 0; i < 300; i++ {
		bus.OnSessionEvent(schema.SessionEvent{Type: schema.SessionEventUpdated})
	}
	if len(ch) != 256 {
		t.Fatalf("expected a full buffer of 256, got %d", len(ch))
	}
}
