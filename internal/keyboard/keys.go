package keyboard

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Code is a hardware key code as reported by the key tap.
type Code uint16

// Event is a single key transition.
type Event struct {
	Code Code
	Down bool
	At   time.Time
}

// Modifier identifies the key that drives the activation gesture.
type Modifier string

const (
	ModSuper   Modifier = "super"
	ModAlt     Modifier = "alt"
	ModControl Modifier = "control"
	ModShift   Modifier = "shift"
)

// ParseModifier accepts the config spelling of a modifier, including the
// macOS names users carry over from other tools.
func ParseModifier(s string) (Modifier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "super", "cmd", "command", "meta", "win":
		return ModSuper, nil
	case "alt", "option", "opt":
		return ModAlt, nil
	case "control", "ctrl":
		return ModControl, nil
	case "shift":
		return ModShift, nil
	default:
		return "", fmt.Errorf("unknown modifier key %q (want super, alt, control or shift)", s)
	}
}

// Key names the keys an activation reacts to.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyReturn
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyShift
	KeyF
	KeyC
	KeyH
	KeyJ
	KeyK
	KeyL
)

// Keymap translates hardware codes for the running keyboard layout.
type Keymap interface {
	// IsModifier reports whether code is one of the physical keys of m
	// (left or right variant).
	IsModifier(code Code, m Modifier) bool
	// Resolve maps a code to a named key, or KeyUnknown.
	Resolve(code Code) Key
}

// KeySet is the set of currently pressed key codes.
type KeySet map[Code]struct{}

// Has reports whether code is pressed.
func (s KeySet) Has(code Code) bool {
	_, ok := s[code]
	return ok
}

// Clone returns an independent copy.
func (s KeySet) Clone() KeySet {
	out := make(KeySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Codes returns the pressed codes in ascending order.
func (s KeySet) Codes() []Code {
	out := make([]Code, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Keys resolves every pressed code through km.
func (s KeySet) Keys(km Keymap) map[Key]bool {
	out := make(map[Key]bool, len(s))
	for code := range s {
		if k := km.Resolve(code); k != KeyUnknown {
			out[k] = true
		}
	}
	return out
}

// StaticKeymap is a fixed table, used when the layout is known up front and
// in tests.
type StaticKeymap struct {
	Modifiers map[Modifier][]Code
	Named     map[Code]Key
}

// IsModifier implements Keymap.
func (m StaticKeymap) IsModifier(code Code, mod Modifier) bool {
	for _, c := range m.Modifiers[mod] {
		if c == code {
			return true
		}
	}
	return false
}

// Resolve implements Keymap.
func (m StaticKeymap) Resolve(code Code) Key {
	if k, ok := m.Named[code]; ok {
		return k
	}
	return KeyUnknown
}
