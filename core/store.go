package core

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/damiantriebl/pgworkspace/internal/logx"
	"github.com/damiantriebl/pgworkspace/internal/persist"
	"github.com/damiantriebl/pgworkspace/schema"
	"pkt.systems/pslog"
)

// Store owns the ordered tab collection and the active tab reference. Every
// operation is total: bad targets are ignored, storage failures are logged
// and absorbed, and each completed operation leaves the session with exactly
// one active tab referenced by ActiveTabID.
type Store struct {
	slot   persist.Slot
	sink   EventSink
	logger pslog.Logger

	mu     sync.Mutex
	tabs   map[schema.TabID]*tab
	order  []schema.TabID
	active schema.TabID
	seq    int64
}

// Deps carries optional collaborators for the store.
type Deps struct {
	Sink   EventSink
	Logger pslog.Logger
}

// NewStore constructs a store, loading persisted session state from the
// slot. A missing, malformed, or empty slot falls back to the default
// session; construction never fails.
func NewStore(slot persist.Slot, deps Deps) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = logx.Ctx(context.Background())
	}
	s := &Store{
		slot:   slot,
		sink:   deps.Sink,
		logger: logger,
		tabs:   make(map[schema.TabID]*tab),
		seq:    time.Now().UnixNano(),
	}
	s.load()
	s.emit(schema.SessionEvent{Type: schema.SessionEventLoaded, ActiveTab: s.active})
	return s
}

// Create appends a new tab and makes it active. It returns the new id and
// never fails.
func (s *Store) Create(spec schema.TabSpec) schema.TabID {
	kind := spec.Kind
	if kind == "" {
		kind = schema.KindQuery
	}
	title := strings.TrimSpace(spec.Title)
	if title == "" {
		title = defaultTitle(kind)
	}

	s.mu.Lock()
	id := s.nextIDLocked(kind)
	created := &tab{
		ID:       id,
		Title:    title,
		Kind:     kind,
		Content:  append(json.RawMessage(nil), spec.Content...),
		CanClose: spec.CanClose,
	}
	s.tabs[id] = created
	s.order = append(s.order, id)
	s.active = id
	event := schema.SessionEvent{
		Type:      schema.SessionEventCreated,
		Tab:       created.Snapshot(true),
		ActiveTab: id,
	}
	s.mu.Unlock()
	s.emit(event)
	s.persist()
	logx.WithTab(s.logger, id).Info("session tab created", "kind", kind, "title", title)
	return id
}

// CreateQueryTab creates an active query editor tab. An empty title
// defaults to "New Query"; the initial query text becomes the content.
func (s *Store) CreateQueryTab(title, query string) schema.TabID {
	if strings.TrimSpace(title) == "" {
		title = "New Query"
	}
	content, _ := json.Marshal(queryContent{Query: query})
	return s.Create(schema.TabSpec{Title: title, Kind: schema.KindQuery, Content: content, CanClose: true})
}

// CreateSchemaTab creates an active schema browser tab.
func (s *Store) CreateSchemaTab(title string) schema.TabID {
	return s.Create(schema.TabSpec{Title: title, Kind: schema.KindSchema, CanClose: true})
}

type queryContent struct {
	Query string `json:"query"`
}

// SwitchTo makes the tab active. Unknown ids are ignored.
func (s *Store) SwitchTo(id schema.TabID) {
	s.mu.Lock()
	target, ok := s.tabs[id]
	if !ok {
		s.mu.Unlock()
		logx.WithTab(s.logger, id).Debug("session tab switch ignored", "reason", "not found")
		return
	}
	s.active = id
	event := schema.SessionEvent{
		Type:      schema.SessionEventActivated,
		Tab:       target.Snapshot(true),
		ActiveTab: id,
	}
	s.mu.Unlock()
	s.emit(event)
	s.persist()
	logx.WithTab(s.logger, id).Info("session tab activated")
}

// Close removes the tab. Unknown ids and permanent tabs are ignored. When
// the active tab closes, the tab now occupying its former position takes
// over, then the one before it, then the first remaining tab.
func (s *Store) Close(id schema.TabID) {
	s.mu.Lock()
	target, ok := s.tabs[id]
	if !ok {
		s.mu.Unlock()
		logx.WithTab(s.logger, id).Debug("session tab close ignored", "reason", "not found")
		return
	}
	if !target.CanClose {
		s.mu.Unlock()
		logx.WithTab(s.logger, id).Debug("session tab close ignored", "reason", "permanent")
		return
	}
	idx := indexOf(s.order, id)
	s.order = append(s.order[:idx], s.order[idx+1:]...)
	delete(s.tabs, id)
	if s.active == id {
		switch {
		case idx < len(s.order):
			s.active = s.order[idx]
		case idx > 0:
			s.active = s.order[idx-1]
		case len(s.order) > 0:
			s.active = s.order[0]
		default:
			// The permanent connection tab should make this unreachable.
			s.active = schema.ConnectionTabID
		}
	}
	event := schema.SessionEvent{
		Type:      schema.SessionEventClosed,
		Tab:       target.Snapshot(false),
		ActiveTab: s.active,
	}
	s.mu.Unlock()
	s.emit(event)
	s.persist()
	logx.WithTab(s.logger, id).Info("session tab closed", "active", event.ActiveTab)
}

// Update merges partial fields into the tab. Unknown ids are ignored; the
// tab's id and active state are never touched.
func (s *Store) Update(id schema.TabID, update schema.TabUpdate) {
	s.mu.Lock()
	target, ok := s.tabs[id]
	if !ok {
		s.mu.Unlock()
		logx.WithTab(s.logger, id).Debug("session tab update ignored", "reason", "not found")
		return
	}
	if update.Title != nil {
		target.Title = *update.Title
	}
	if update.Content != nil {
		target.Content = append(json.RawMessage(nil), update.Content...)
	}
	event := schema.SessionEvent{
		Type:      schema.SessionEventUpdated,
		Tab:       target.Snapshot(id == s.active),
		ActiveTab: s.active,
	}
	s.mu.Unlock()
	s.emit(event)
	s.persist()
	logx.WithTab(s.logger, id).Debug("session tab updated")
}

// Active returns the active tab, falling back to the first tab should the
// active reference ever dangle.
func (s *Store) Active() schema.TabSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if target, ok := s.tabs[s.active]; ok {
		return target.Snapshot(true)
	}
	if len(s.order) > 0 {
		if target, ok := s.tabs[s.order[0]]; ok {
			return target.Snapshot(false)
		}
	}
	return schema.TabSnapshot{}
}

// Snapshot returns a read-only copy of the full session.
func (s *Store) Snapshot() schema.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() schema.SessionSnapshot {
	tabs := make([]schema.TabSnapshot, 0, len(s.order))
	for _, id := range s.order {
		target := s.tabs[id]
		if target == nil {
			continue
		}
		tabs = append(tabs, target.Snapshot(id == s.active))
	}
	return schema.SessionSnapshot{Tabs: tabs, ActiveTabID: s.active}
}

func defaultTitle(kind schema.TabKind) string {
	switch kind {
	case schema.KindConnection:
		return "Connection"
	case schema.KindSchema:
		return "Schema Explorer"
	default:
		return "New Query"
	}
}

func indexOf(order []schema.TabID, id schema.TabID) int {
	for i, current := range order {
		if current == id {
			return i
		}
	}
	return -1
}

func (s *Store) load() {
	session := schema.DefaultSession()
	if s.slot != nil {
		data, found, err := s.slot.Load(schema.SessionSlotKey)
		switch {
		case err != nil:
			s.logger.Warn("session load failed", "err", err)
		case !found:
			s.logger.Debug("session state missing")
		default:
			var raw schema.SessionSnapshot
			if err := json.Unmarshal(data, &raw); err != nil {
				s.logger.Warn("session state malformed", "err", err)
			} else {
				session = schema.ValidateSession(raw)
			}
		}
	}
	s.mu.Lock()
	s.tabs = make(map[schema.TabID]*tab, len(session.Tabs))
	s.order = s.order[:0]
	for _, snap := range session.Tabs {
		if _, exists := s.tabs[snap.ID]; exists {
			logx.WithTab(s.logger, snap.ID).Warn("session state dropped duplicate tab")
			continue
		}
		s.tabs[snap.ID] = &tab{
			ID:       snap.ID,
			Title:    snap.Title,
			Kind:     schema.NormalizeTabKind(string(snap.Kind)),
			Content:  append(json.RawMessage(nil), snap.Content...),
			CanClose: snap.CanClose,
		}
		s.order = append(s.order, snap.ID)
	}
	s.active = session.ActiveTabID
	count := len(s.order)
	s.mu.Unlock()
	s.logger.Debug("session state loaded", "tabs", count, "active", session.ActiveTabID)
}

func (s *Store) persist() {
	if s.slot == nil {
		return
	}
	s.mu.Lock()
	session := s.snapshotLocked()
	s.mu.Unlock()
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		s.logger.Warn("session persist failed", "err", err)
		return
	}
	if err := s.slot.Save(schema.SessionSlotKey, data); err != nil {
		s.logger.Warn("session persist failed", "err", err)
		return
	}
	s.logger.Trace("session state persisted", "tabs", len(session.Tabs))
}

func (s *Store) emit(event schema.SessionEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnSessionEvent(event)
}
