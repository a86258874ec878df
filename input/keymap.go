package input

import (
	"fmt"
	"maps"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Rune aliases for keys that can't be bare single-char TOML keys
var runeAliases = map[string]rune{
	"space":     ' ',
	"backslash": '\\',
}

// keysByName is the reverse of tcell.KeyNames, lower-cased
var keysByName = func() map[string]tcell.Key {
	m := make(map[string]tcell.Key, len(tcell.KeyNames))
	for k, name := range tcell.KeyNames {
		m[strings.ToLower(name)] = k
	}
	return m
}()

// KeyMap maps terminal key events to actions
type KeyMap struct {
	// Special keys (arrows, Esc, Ctrl+*)
	Keys map[tcell.Key]Action

	// Printable runes, matched case-insensitively
	Runes map[rune]Action
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Keys: map[tcell.Key]Action{
			tcell.KeyLeft:   ActionMoveLeft,
			tcell.KeyRight:  ActionMoveRight,
			tcell.KeyDown:   ActionSoftDrop,
			tcell.KeyUp:     ActionRotateCW,
			tcell.KeyEscape: ActionPause,
			tcell.KeyCtrlC:  ActionQuit,
			tcell.KeyCtrlQ:  ActionQuit,
		},
		Runes: map[rune]Action{
			'x': ActionRotateCW,
			'z': ActionRotateCCW,
			'c': ActionHold,
			' ': ActionHardDrop,
			'p': ActionPause,
			'q': ActionForfeit,
		},
	}
}

// Lookup resolves a key event
func (m *KeyMap) Lookup(ev *tcell.EventKey) (Action, bool) {
	if ev.Key() == tcell.KeyRune {
		a, ok := m.Runes[toLower(ev.Rune())]
		return a, ok && a != ActionNone
	}
	a, ok := m.Keys[ev.Key()]
	return a, ok && a != ActionNone
}

// Clone returns a deep copy
func (m *KeyMap) Clone() *KeyMap {
	return &KeyMap{
		Keys:  maps.Clone(m.Keys),
		Runes: maps.Clone(m.Runes),
	}
}

// Apply overrides bindings from a key name → action name table, as loaded
// from the [keys] config section. Binding a key to "none" removes it.
// Unknown key or action names are rejected without modifying the map
func (m *KeyMap) Apply(bindings map[string]string) error {
	next := m.Clone()
	for keyStr, actionName := range bindings {
		a, ok := ActionByName(actionName)
		if !ok {
			return fmt.Errorf("key %q: unknown action: %q", keyStr, actionName)
		}

		if k, ok := keysByName[strings.ToLower(keyStr)]; ok && len([]rune(keyStr)) > 1 {
			if a == ActionNone {
				delete(next.Keys, k)
			} else {
				next.Keys[k] = a
			}
			continue
		}

		r, err := resolveRune(keyStr)
		if err != nil {
			return fmt.Errorf("key %q: %w", keyStr, err)
		}
		if a == ActionNone {
			delete(next.Runes, r)
		} else {
			next.Runes[r] = a
		}
	}

	m.Keys, m.Runes = next.Keys, next.Runes
	return nil
}

// resolveRune converts a config key string to a rune
// Accepts single characters and named aliases
func resolveRune(s string) (rune, error) {
	if r, ok := runeAliases[strings.ToLower(s)]; ok {
		return r, nil
	}
	runes := []rune(s)
	if len(runes) == 1 {
		return toLower(runes[0]), nil
	}
	return 0, fmt.Errorf("invalid key: expected single character, alias or key name")
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
