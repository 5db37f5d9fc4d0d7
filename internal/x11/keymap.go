package x11

import (
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/1broseidon/penc/internal/keyboard"
)

var modifierKeysyms = map[keyboard.Modifier][]string{
	keyboard.ModSuper:   {"Super_L", "Super_R"},
	keyboard.ModAlt:     {"Alt_L", "Alt_R"},
	keyboard.ModControl: {"Control_L", "Control_R"},
	keyboard.ModShift:   {"Shift_L", "Shift_R"},
}

var namedKeysyms = map[string]keyboard.Key{
	"Escape": keyboard.KeyEscape,
	"Return": keyboard.KeyReturn,
	"Left":   keyboard.KeyLeft,
	"Right":  keyboard.KeyRight,
	"Up":     keyboard.KeyUp,
	"Down":   keyboard.KeyDown,
	"f":      keyboard.KeyF,
	"c":      keyboard.KeyC,
	"h":      keyboard.KeyH,
	"j":      keyboard.KeyJ,
	"k":      keyboard.KeyK,
	"l":      keyboard.KeyL,
}

// NewKeymap resolves the keysyms penc reacts to into keycodes for the
// layout loaded on conn.
func NewKeymap(conn *Connection) keyboard.StaticKeymap {
	km := keyboard.StaticKeymap{
		Modifiers: make(map[keyboard.Modifier][]keyboard.Code),
		Named:     make(map[keyboard.Code]keyboard.Key),
	}
	for mod, syms := range modifierKeysyms {
		for _, sym := range syms {
			for _, kc := range keybind.StrToKeycodes(conn.XUtil, sym) {
				km.Modifiers[mod] = append(km.Modifiers[mod], keyboard.Code(kc))
			}
		}
	}
	for _, kc := range km.Modifiers[keyboard.ModShift] {
		km.Named[kc] = keyboard.KeyShift
	}
	for sym, key := range namedKeysyms {
		for _, kc := range keybind.StrToKeycodes(conn.XUtil, sym) {
			km.Named[keyboard.Code(kc)] = key
		}
	}
	return km
}
