package keymap

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/damiantriebl/pgworkspace/schema"
	"pkt.systems/pslog"
)

// Action is a zero-argument shortcut handler.
type Action func()

// Binding describes a registered shortcut.
type Binding struct {
	Chord       string
	Description string
}

// Map matches key chords against a registered table and invokes the bound
// action. Chords are written as "+"-joined parts, e.g. "ctrl+shift+t";
// modifier order and case are normalized away.
type Map struct {
	mu       sync.Mutex
	bindings map[string]entry
	log      pslog.Logger
}

type entry struct {
	description string
	action      Action
}

// New constructs an empty shortcut map.
func New(logger pslog.Logger) *Map {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Map{bindings: make(map[string]entry), log: logger}
}

// Bind registers an action under the chord. Rebinding a taken chord is an
// error so callers notice conflicting tables.
func (m *Map) Bind(chord, description string, action Action) error {
	normalized, err := Normalize(chord)
	if err != nil {
		return err
	}
	if action == nil {
		return fmt.Errorf("%w: %s has no action", schema.ErrInvalidChord, normalized)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.bindings[normalized]; taken {
		return fmt.Errorf("%w: %s", schema.ErrChordBound, normalized)
	}
	m.bindings[normalized] = entry{description: description, action: action}
	m.log.Debug("keymap bound", "chord", normalized, "action", description)
	return nil
}

// Dispatch invokes the action bound to the chord and reports whether one
// was found. Unparseable chords dispatch nothing.
func (m *Map) Dispatch(chord string) bool {
	normalized, err := Normalize(chord)
	if err != nil {
		return false
	}
	m.mu.Lock()
	bound, ok := m.bindings[normalized]
	m.mu.Unlock()
	if !ok {
		return false
	}
	m.log.Trace("keymap dispatch", "chord", normalized, "action", bound.description)
	bound.action()
	return true
}

// Bindings returns the registered table sorted by chord.
func (m *Map) Bindings() []Binding {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Binding, 0, len(m.bindings))
	for chord, bound := range m.bindings {
		out = append(out, Binding{Chord: chord, Description: bound.description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chord < out[j].Chord })
	return out
}

// Normalize canonicalizes a chord: lowercase, modifiers in a fixed order,
// exactly one non-modifier key.
func Normalize(chord string) (string, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(chord)), "+")
	var mods []string
	key := ""
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			return "", fmt.Errorf("%w: %q", schema.ErrInvalidChord, chord)
		case "ctrl", "control":
			mods = append(mods, "ctrl")
		case "alt", "option":
			mods = append(mods, "alt")
		case "shift":
			mods = append(mods, "shift")
		case "meta", "cmd", "super":
			mods = append(mods, "meta")
		default:
			if key != "" {
				return "", fmt.Errorf("%w: %q has multiple keys", schema.ErrInvalidChord, chord)
			}
			key = part
		}
	}
	if key == "" {
		return "", fmt.Errorf("%w: %q has no key", schema.ErrInvalidChord, chord)
	}
	sort.Slice(mods, func(i, j int) bool { return modRank(mods[i]) < modRank(mods[j]) })
	return strings.Join(append(mods, key), "+"), nil
}

func modRank(mod string) int {
	switch mod {
	case "ctrl":
		return 0
	case "alt":
		return 1
	case "shift":
		return 2
	default:
		return 3
	}
}
