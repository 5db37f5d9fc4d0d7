package daemon

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/1broseidon/penc/internal/platform"
)

// DisplayLister returns the connected displays.
type DisplayLister func() ([]platform.Display, error)

// OverlaySet is the overlay pool as seen by the reconciler.
type OverlaySet interface {
	Displays() []platform.Display
	Sync(displays []platform.Display) error
}

// Caller runs fn on the run loop and waits for it.
type Caller interface {
	Call(ctx context.Context, fn func() error) error
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Clock    clockwork.Clock
	Logger   *zap.Logger
}

// Reconciler keeps one overlay per display when monitors are plugged or
// rearranged. It never touches the pool during an activation.
type Reconciler struct {
	interval time.Duration
	clock    clockwork.Clock
	list     DisplayLister
	overlays OverlaySet
	active   func() bool
	loop     Caller
	logger   *zap.Logger
}

// NewReconciler creates a reconciler. active reports whether an activation
// is running; list, overlays and active are only used on loop.
func NewReconciler(cfg ReconcilerConfig, loop Caller, list DisplayLister, overlays OverlaySet, active func() bool) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		interval: interval,
		clock:    clock,
		list:     list,
		overlays: overlays,
		active:   active,
		loop:     loop,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Debug("reconciler started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("reconciler stopped")
			return
		case <-ticker.Chan():
			if err := r.loop.Call(ctx, r.reconcile); err != nil && ctx.Err() == nil {
				r.logger.Warn("reconcile failed", zap.Error(err))
			}
		}
	}
}

// ReconcileNow triggers an immediate pass on the loop.
func (r *Reconciler) ReconcileNow(ctx context.Context) error {
	return r.loop.Call(ctx, r.reconcile)
}

func (r *Reconciler) reconcile() (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("reconciler panic recovered", zap.Any("panic", p))
			err = fmt.Errorf("reconciler panic: %v", p)
		}
	}()

	if r.active != nil && r.active() {
		return nil
	}
	displays, err := r.list()
	if err != nil {
		return fmt.Errorf("list displays: %w", err)
	}
	if len(displays) == 0 {
		return nil
	}
	displays = slices.Clone(displays)
	slices.SortFunc(displays, func(a, b platform.Display) int { return a.ID - b.ID })
	if slices.Equal(displays, r.overlays.Displays()) {
		return nil
	}
	r.logger.Info("display layout changed", zap.Int("displays", len(displays)))
	return r.overlays.Sync(displays)
}
