package schema

// SessionEventType describes tab lifecycle or state changes.
type SessionEventType string

const (
	// SessionEventCreated indicates a tab was created.
	SessionEventCreated SessionEventType = "created"
	// SessionEventClosed indicates a tab was closed.
	SessionEventClosed SessionEventType = "closed"
	// SessionEventActivated indicates a tab became active.
	SessionEventActivated SessionEventType = "activated"
	// SessionEventUpdated indicates a tab was updated.
	SessionEventUpdated SessionEventType = "updated"
	// SessionEventLoaded indicates the session was (re)loaded from storage.
	SessionEventLoaded SessionEventType = "loaded"
)

// SessionEvent represents a change to the session. Subscribers re-read the
// session snapshot rather than patching their own copy.
type SessionEvent struct {
	Type      SessionEventType
	Tab       TabSnapshot
	ActiveTab TabID
}
