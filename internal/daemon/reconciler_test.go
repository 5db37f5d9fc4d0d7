package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/penc/internal/platform"
)

type inlineCaller struct{}

func (inlineCaller) Call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

type fakeOverlays struct {
	displays []platform.Display
	syncs    int
}

func (f *fakeOverlays) Displays() []platform.Display { return f.displays }

func (f *fakeOverlays) Sync(d []platform.Display) error {
	f.syncs++
	f.displays = d
	return nil
}

func display(id, width int) platform.Display {
	r := platform.Rect{Width: width, Height: 1080}
	return platform.Display{ID: id, Name: "out", Bounds: r, Usable: r}
}

func TestReconcileSyncsOnlyOnChange(t *testing.T) {
	overlays := &fakeOverlays{displays: []platform.Display{display(0, 1920)}}
	listed := []platform.Display{display(0, 1920)}
	r := NewReconciler(ReconcilerConfig{}, inlineCaller{}, func() ([]platform.Display, error) { return listed, nil }, overlays, nil)

	require.NoError(t, r.ReconcileNow(context.Background()))
	assert.Equal(t, 0, overlays.syncs)

	listed = []platform.Display{display(1, 2560), display(0, 1920)}
	require.NoError(t, r.ReconcileNow(context.Background()))
	assert.Equal(t, 1, overlays.syncs)
	assert.Equal(t, []platform.Display{display(0, 1920), display(1, 2560)}, overlays.displays)

	require.NoError(t, r.ReconcileNow(context.Background()))
	assert.Equal(t, 1, overlays.syncs)
}

func TestReconcileSkipsDuringActivation(t *testing.T) {
	overlays := &fakeOverlays{}
	active := true
	r := NewReconciler(ReconcilerConfig{}, inlineCaller{},
		func() ([]platform.Display, error) { return []platform.Display{display(0, 1920)}, nil },
		overlays, func() bool { return active })

	require.NoError(t, r.ReconcileNow(context.Background()))
	assert.Equal(t, 0, overlays.syncs)

	active = false
	require.NoError(t, r.ReconcileNow(context.Background()))
	assert.Equal(t, 1, overlays.syncs)
}

func TestReconcileErrors(t *testing.T) {
	overlays := &fakeOverlays{displays: []platform.Display{display(0, 1920)}}
	r := NewReconciler(ReconcilerConfig{}, inlineCaller{},
		func() ([]platform.Display, error) { return nil, errors.New("randr gone") }, overlays, nil)
	assert.ErrorContains(t, r.ReconcileNow(context.Background()), "randr gone")

	r = NewReconciler(ReconcilerConfig{}, inlineCaller{},
		func() ([]platform.Display, error) { panic("bad reply") }, overlays, nil)
	assert.ErrorContains(t, r.ReconcileNow(context.Background()), "bad reply")

	r = NewReconciler(ReconcilerConfig{}, inlineCaller{},
		func() ([]platform.Display, error) { return nil, nil }, overlays, nil)
	require.NoError(t, r.ReconcileNow(context.Background()))
	assert.Equal(t, 0, overlays.syncs, "an empty listing keeps the current overlays")
}

func TestRunReconcilesOnTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	listed := make(chan struct{}, 1)
	r := NewReconciler(ReconcilerConfig{Interval: time.Second, Clock: clock}, inlineCaller{},
		func() ([]platform.Display, error) {
			listed <- struct{}{}
			return nil, nil
		},
		&fakeOverlays{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)
	select {
	case <-listed:
	case <-time.After(time.Second):
		t.Fatal("no reconcile pass after a tick")
	}

	cancel()
	<-done
}
