package schema

import "encoding/json"

// TabSnapshot is a read-only view of a tab. It doubles as the persisted
// wire shape for the session slot, so the json tags are load-bearing.
type TabSnapshot struct {
	ID       TabID           `json:"id"`
	Title    string          `json:"title"`
	Kind     TabKind         `json:"kind"`
	Content  json.RawMessage `json:"content,omitempty"`
	IsActive bool            `json:"isActive"`
	CanClose bool            `json:"canClose"`
}

// SessionSnapshot is the full persisted session state: the ordered tab
// list plus the active tab reference.
type SessionSnapshot struct {
	Tabs        []TabSnapshot `json:"tabs"`
	ActiveTabID TabID         `json:"activeTabId"`
}

// TabSpec describes a tab to create.
type TabSpec struct {
	Title    string
	Kind     TabKind
	Content  json.RawMessage
	CanClose bool
}

// TabUpdate carries partial tab fields to merge. Nil fields are left
// untouched; id and active state are never updatable through it.
type TabUpdate struct {
	Title   *string
	Content json.RawMessage
}
