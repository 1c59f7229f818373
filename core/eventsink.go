package core

import "github.com/damiantriebl/pgworkspace/schema"

// EventSink receives session change events from the store. Implementations
// must not call back into the store from the handler.
type EventSink interface {
	OnSessionEvent(event schema.SessionEvent)
}
