package permission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	keyboardErr error
	activeAfter int
	calls       int
}

func (p *fakeProbe) CanReadKeyboard() error { return p.keyboardErr }

func (p *fakeProbe) SupportsActiveWindow() bool {
	p.calls++
	return p.calls > p.activeAfter
}

func TestTrustedImmediately(t *testing.T) {
	c := NewX11Checker(&fakeProbe{}, clockwork.NewFakeClock(), 0, nil)
	assert.True(t, c.IsTrusted())
	require.NoError(t, Ensure(context.Background(), c, nil))
}

func TestKeyboardFailureDenies(t *testing.T) {
	c := NewX11Checker(&fakeProbe{keyboardErr: errors.New("BadAccess")}, clockwork.NewFakeClock(), 0, nil)
	assert.False(t, c.IsTrusted())
	assert.ErrorIs(t, Ensure(context.Background(), c, nil), ErrPermissionDenied)
}

func TestPromptWaitsForWindowManager(t *testing.T) {
	clock := clockwork.NewFakeClock()
	probe := &fakeProbe{activeAfter: 2}
	c := NewX11Checker(probe, clock, 5*time.Second, nil)

	done := make(chan error, 1)
	go func() { done <- Ensure(context.Background(), c, nil) }()

	// IsTrusted in Ensure fails, PromptTrusted's first check fails, then
	// it sleeps once before succeeding.
	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(250 * time.Millisecond)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Ensure did not return")
	}
	assert.Equal(t, 3, probe.calls)
}

func TestPromptGivesUpAfterWait(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewX11Checker(&fakeProbe{activeAfter: 1000}, clock, time.Second, nil)

	done := make(chan bool, 1)
	go func() { done <- c.PromptTrusted(context.Background()) }()

	for i := 0; i < 4; i++ {
		require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
		clock.Advance(250 * time.Millisecond)
	}

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("PromptTrusted did not return")
	}
}

func TestPromptStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewX11Checker(&fakeProbe{activeAfter: 1000}, clockwork.NewFakeClock(), time.Hour, nil)
	assert.False(t, c.PromptTrusted(ctx))
}
