package core

import (
	"encoding/json"

	"github.com/damiantriebl/pgworkspace/schema"
)

// tab tracks the state of a single workspace panel. Active state is not
// stored here; the store derives it from its active tab reference.
type tab struct {
	ID       schema.TabID
	Title    string
	Kind     schema.TabKind
	Content  json.RawMessage
	CanClose bool
}

// Snapshot returns a transport-friendly view of the tab.
func (t *tab) Snapshot(active bool) schema.TabSnapshot {
	return schema.TabSnapshot{
		ID:       t.ID,
		Title:    t.Title,
		Kind:     t.Kind,
		Content:  append(json.RawMessage(nil), t.Content...),
		IsActive: active,
		CanClose: t.CanClose,
	}
}
