package schema

const (
	// SessionSlotKey is the fixed persistence slot for the session.
	SessionSlotKey = "tabManagerState"
	// ConnectionTabID is the id of the permanent connection tab.
	ConnectionTabID TabID = "connection"
	// SchemaTabID is the id of the default schema browser tab.
	SchemaTabID TabID = "schema-explorer"
)

// DefaultSession returns the fallback session: the permanent connection tab
// (active) plus a closable schema browser tab.
func DefaultSession() SessionSnapshot {
	return SessionSnapshot{
		Tabs: []TabSnapshot{
			{ID: ConnectionTabID, Title: "Connection", Kind: KindConnection, IsActive: true, CanClose: false},
			{ID: SchemaTabID, Title: "Schema Explorer", Kind: KindSchema, IsActive: false, CanClose: true},
		},
		ActiveTabID: ConnectionTabID,
	}
}

// ValidateSession repairs a raw decoded session into a well-formed one.
// Rules, applied in order:
//   - empty or absent tab list: the default tab set replaces it wholesale
//   - empty active reference: falls back to the connection tab
//   - active reference naming no existing tab: falls back to the connection
//     tab, then to the first tab if no connection tab survived
//   - per-tab active flags are forced consistent with the active reference
//
// The function is pure; it never inspects storage and never fails.
func ValidateSession(raw SessionSnapshot) SessionSnapshot {
	if len(raw.Tabs) == 0 {
		return DefaultSession()
	}
	session := SessionSnapshot{
		Tabs:        append([]TabSnapshot(nil), raw.Tabs...),
		ActiveTabID: raw.ActiveTabID,
	}
	if session.ActiveTabID == "" {
		session.ActiveTabID = ConnectionTabID
	}
	if !containsTab(session.Tabs, session.ActiveTabID) {
		session.ActiveTabID = ConnectionTabID
	}
	if !containsTab(session.Tabs, session.ActiveTabID) {
		session.ActiveTabID = session.Tabs[0].ID
	}
	for i := range session.Tabs {
		session.Tabs[i].IsActive = session.Tabs[i].ID == session.ActiveTabID
	}
	return session
}

func containsTab(tabs []TabSnapshot, id TabID) bool {
	for _, tab := range tabs {
		if tab.ID == id {
			return true
		}
	}
	return false
}
