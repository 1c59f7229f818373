package schema

import "testing"

func TestValidateSessionEmptyTabs(t *testing.T) {
	session := ValidateSession(SessionSnapshot{})
	if len(session.Tabs) != 2 {
		t.Fatalf("expected default tabs, got %d", len(session.Tabs))
	}
	if session.ActiveTabID != ConnectionTabID {
		t.Fatalf("expected connection active, got %q", session.ActiveTabID)
	}
	if !session.Tabs[0].IsActive || session.Tabs[1].IsActive {
		t.Fatalf("expected only the connection tab flagged active")
	}
}

func TestValidateSessionEmptyActive(t *testing.T) {
	session := ValidateSession(SessionSnapshot{
		Tabs: []TabSnapshot{
			{ID: ConnectionTabID, Kind: KindConnection},
			{ID: "query-1", Kind: KindQuery, CanClose: true},
		},
	})
	if session.ActiveTabID != ConnectionTabID {
		t.Fatalf("expected connection fallback, got %q", session.ActiveTabID)
	}
}

func TestValidateSessionDanglingActive(t *testing.T) {
	session := ValidateSession(SessionSnapshot{
		Tabs: []TabSnapshot{
			{ID: ConnectionTabID, Kind: KindConnection},
			{ID: "query-1", Kind: KindQuery, CanClose: true},
		},
		ActiveTabID: "query-404",
	})
	if session.ActiveTabID != ConnectionTabID {
		t.Fatalf("expected connection fallback, got %q", session.ActiveTabID)
	}
}

func TestValidateSessionDanglingActiveNoConnectionTab(t *testing.T) {
	session := ValidateSession(SessionSnapshot{
		Tabs: []TabSnapshot{
			{ID: "query-1", Kind: KindQuery, CanClose: true},
			{ID: "query-2", Kind: KindQuery, CanClose: true},
		},
		ActiveTabID: "query-404",
	})
	if session.ActiveTabID != "query-1" {
		t.Fatalf("expected first tab fallback, got %q", session.ActiveTabID)
	}
	if !session.Tabs[0].IsActive || session.Tabs[1].IsActive {
		t.Fatalf("active flags inconsistent: %+v", session.Tabs)
	}
}

func TestValidateSessionForcesFlagConsistency(t *testing.T) {
	session := ValidateSession(SessionSnapshot{
		Tabs: []TabSnapshot{
			{ID: ConnectionTabID, Kind: KindConnection, IsActive: true},
			{ID: "query-1", Kind: KindQuery, IsActive: true, CanClose: true},
		},
		ActiveTabID: "query-1",
	})
	if session.Tabs[0].IsActive {
		t.Fatalf("stale active flag survived")
	}
	if !session.Tabs[1].IsActive {
		t.Fatalf("expected query-1 flagged active")
	}
}

func TestValidateSessionDoesNotMutateInput(t *testing.T) {
	raw := SessionSnapshot{
		Tabs: []TabSnapshot{
			{ID: ConnectionTabID, Kind: KindConnection},
		},
		ActiveTabID: "query-404",
	}
	_ = ValidateSession(raw)
	if raw.ActiveTabID != "query-404" {
		t.Fatalf("input snapshot mutated")
	}
	if raw.Tabs[0].IsActive {
		t.Fatalf("input tabs mutated")
	}
}

func TestValidateSessionValidInputUnchanged(t *testing.T) {
	raw := SessionSnapshot{
		Tabs: []TabSnapshot{
			{ID: ConnectionTabID, Kind: KindConnection, IsActive: false},
			{ID: "query-1", Kind: KindQuery, IsActive: true, CanClose: true},
		},
		ActiveTabID: "query-1",
	}
	session := ValidateSession(raw)
	if session.ActiveTabID != "query-1" {
		t.Fatalf("valid active overridden: %q", session.ActiveTabID)
	}
	if len(session.Tabs) != 2 || session.Tabs[1].ID != "query-1" {
		t.Fatalf("valid tab list altered: %+v", session.Tabs)
	}
}
