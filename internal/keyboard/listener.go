// Package keyboard recognizes the activation gesture on a modifier key and
// reports key activity while an activation is live.
package keyboard

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/1broseidon/penc/internal/runloop"
)

// Default gesture timings, in the units the preferences store uses.
const (
	DefaultSecondPressWindow = 300 * time.Millisecond
	DefaultHoldTimeout       = 0
)

// Delegate receives gesture events. All calls happen on the run loop.
type Delegate interface {
	OnActivationStarted()
	OnKeyDownWhileActivated(pressed KeySet)
	OnActivationCompleted()
	OnActivationAborted()
}

// State is the listener's gesture phase.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateActivated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateActivated:
		return "activated"
	default:
		return "unknown"
	}
}

// Listener is the activation gesture state machine. HandleEvent, the
// setters and Reset must be called on the run loop; timers post back onto
// it through the Poster.
type Listener struct {
	clock    clockwork.Clock
	poster   runloop.Poster
	keymap   Keymap
	delegate Delegate
	logger   *zap.Logger

	modifier    Modifier
	sensitivity time.Duration
	// nextModifier takes effect once a live activation ends.
	nextModifier *Modifier
	holdTimeout time.Duration

	// pressed mirrors the physical keyboard and survives gesture resets.
	pressed      KeySet
	state        State
	lastPress    time.Time
	pressCount   int
	modifierHeld bool

	// generation invalidates timers armed for an earlier gesture.
	generation       uint64
	sensitivityTimer clockwork.Timer
	holdTimer        clockwork.Timer
}

// NewListener creates an idle listener for the super key with default
// timings.
func NewListener(clock clockwork.Clock, poster runloop.Poster, keymap Keymap, delegate Delegate, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		clock:       clock,
		poster:      poster,
		keymap:      keymap,
		delegate:    delegate,
		logger:      logger,
		modifier:    ModSuper,
		sensitivity: DefaultSecondPressWindow,
		holdTimeout: DefaultHoldTimeout,
		pressed:     make(KeySet),
	}
}

// SetDelegate replaces the delegate.
func (l *Listener) SetDelegate(d Delegate) {
	l.delegate = d
}

// SetActivationModifierKey changes the gesture key. An in-flight gesture is
// dropped so a half-recognized press of the old key cannot complete. A live
// activation keeps the old key until it completes or aborts.
func (l *Listener) SetActivationModifierKey(m Modifier) {
	if l.state == StateActivated {
		if m == l.modifier {
			l.nextModifier = nil
		} else {
			l.nextModifier = &m
		}
		return
	}
	if m == l.modifier {
		return
	}
	l.modifier = m
	if l.state == StateArmed {
		l.toIdle()
	}
}

// Modifier returns the gesture key currently being watched.
func (l *Listener) Modifier() Modifier {
	return l.modifier
}

// SetSecondActivationModifierKeyPress sets the maximum gap between the two
// presses of a double press. Zero disables double-press activation.
func (l *Listener) SetSecondActivationModifierKeyPress(d time.Duration) {
	if d < 0 {
		d = 0
	}
	l.sensitivity = d
}

// SetHoldActivationModifierKeyTimeout sets how long the modifier must be
// held to activate. Zero disables hold activation.
func (l *Listener) SetHoldActivationModifierKeyTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	l.holdTimeout = d
}

// State returns the current gesture phase.
func (l *Listener) State() State {
	return l.state
}

// PressCount returns the number of modifier presses in the current gesture.
func (l *Listener) PressCount() int {
	return l.pressCount
}

// Pressed returns a copy of the pressed key set.
func (l *Listener) Pressed() KeySet {
	return l.pressed.Clone()
}

// Reset returns to idle without notifying the delegate.
func (l *Listener) Reset() {
	l.toIdle()
}

// HandleEvent feeds one key transition into the state machine.
func (l *Listener) HandleEvent(ev Event) {
	if ev.Down {
		if l.pressed.Has(ev.Code) {
			return // repeat
		}
		l.pressed[ev.Code] = struct{}{}
	} else {
		delete(l.pressed, ev.Code)
	}

	isModifier := l.keymap.IsModifier(ev.Code, l.modifier)

	switch l.state {
	case StateIdle:
		if isModifier && ev.Down {
			l.arm(ev.At)
		}

	case StateArmed:
		switch {
		case isModifier && ev.Down:
			if l.sensitivity > 0 && ev.At.Sub(l.lastPress) <= l.sensitivity {
				l.pressCount++
				l.activate()
				return
			}
			l.arm(ev.At)
		case isModifier && !ev.Down:
			l.modifierHeld = false
			stopTimer(&l.holdTimer)
			if l.sensitivity <= 0 || ev.At.Sub(l.lastPress) > l.sensitivity {
				l.toIdle()
			}
		case ev.Down:
			// The modifier is being used in a chord.
			l.toIdle()
		}

	case StateActivated:
		switch {
		case isModifier && !ev.Down:
			if l.modifierStillHeld() {
				return // the other side's key is still down
			}
			l.finish(true)
		case ev.Down && l.keymap.Resolve(ev.Code) == KeyEscape:
			l.finish(false)
		case ev.Down && !isModifier:
			if l.delegate != nil {
				l.delegate.OnKeyDownWhileActivated(l.pressed.Clone())
			}
		}
	}
}

func (l *Listener) arm(at time.Time) {
	l.stopTimers()
	if l.sensitivity <= 0 && l.holdTimeout <= 0 {
		l.toIdle()
		return
	}

	l.generation++
	gen := l.generation
	l.state = StateArmed
	l.lastPress = at
	l.pressCount = 1
	l.modifierHeld = true

	if l.sensitivity > 0 {
		l.sensitivityTimer = l.schedule(l.sensitivity, gen, l.onSensitivityExpired)
	}
	if l.holdTimeout > 0 {
		l.holdTimer = l.schedule(l.holdTimeout, gen, l.onHoldExpired)
	}
}

func (l *Listener) activate() {
	l.stopTimers()
	l.generation++
	l.state = StateActivated
	l.logger.Debug("activation gesture recognized", zap.Int("presses", l.pressCount))
	if l.delegate != nil {
		l.delegate.OnActivationStarted()
	}
}

func (l *Listener) finish(commit bool) {
	l.toIdle()
	if l.delegate == nil {
		return
	}
	if commit {
		l.delegate.OnActivationCompleted()
	} else {
		l.delegate.OnActivationAborted()
	}
}

func (l *Listener) toIdle() {
	l.stopTimers()
	l.generation++
	l.state = StateIdle
	l.pressCount = 0
	l.modifierHeld = false
	l.lastPress = time.Time{}
	if l.nextModifier != nil {
		l.modifier = *l.nextModifier
		l.nextModifier = nil
	}
}

func (l *Listener) modifierStillHeld() bool {
	for code := range l.pressed {
		if l.keymap.IsModifier(code, l.modifier) {
			return true
		}
	}
	return false
}

func (l *Listener) onSensitivityExpired(gen uint64) {
	if gen != l.generation || l.state != StateArmed {
		return
	}
	if l.modifierHeld && l.holdTimeout > 0 {
		return // the hold timer decides
	}
	l.toIdle()
}

func (l *Listener) onHoldExpired(gen uint64) {
	if gen != l.generation || l.state != StateArmed {
		return
	}
	if !l.modifierHeld {
		return
	}
	l.activate()
}

func (l *Listener) schedule(d time.Duration, gen uint64, fn func(uint64)) clockwork.Timer {
	return l.clock.AfterFunc(d, func() {
		l.poster.Post(func() { fn(gen) })
	})
}

func (l *Listener) stopTimers() {
	stopTimer(&l.sensitivityTimer)
	stopTimer(&l.holdTimer)
}

func stopTimer(t *clockwork.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
