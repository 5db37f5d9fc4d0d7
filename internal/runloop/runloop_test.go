package runloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPendingPreservesOrder(t *testing.T) {
	l := New(8, nil)
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}

	assert.Equal(t, 5, l.RunPending())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Equal(t, 0, l.RunPending())
}

func TestPostDropsWhenFull(t *testing.T) {
	l := New(1, nil)
	calls := 0
	l.Post(func() { calls++ })
	l.Post(func() { calls++ })

	l.RunPending()
	assert.Equal(t, 1, calls)
}

func TestPostReliableKeepsOrderWhenFull(t *testing.T) {
	l := New(1, nil)
	var got []string
	l.Post(func() { got = append(got, "down a") })
	l.PostReliable(func() { got = append(got, "up a") })
	l.Post(func() { got = append(got, "down b") })
	l.PostReliable(func() { got = append(got, "up b") })

	assert.Equal(t, 3, l.RunPending())
	assert.Equal(t, []string{"down a", "up a", "up b"}, got)
	assert.Equal(t, 0, l.RunPending())
}

func TestPostReliableDrainsUnderRun(t *testing.T) {
	l := New(1, nil)
	l.Post(func() {})
	ran := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		l.PostReliable(func() { ran <- i })
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	for want := 0; want < 3; want++ {
		select {
		case got := <-ran:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("reliable task %d never ran", want)
		}
	}
}

func TestCallReturnsResultFromLoop(t *testing.T) {
	l := New(4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	sentinel := errors.New("boom")
	err := l.Call(context.Background(), func() error { return sentinel })
	require.ErrorIs(t, err, sentinel)

	require.NoError(t, l.Call(context.Background(), func() error { return nil }))
}

func TestCallAfterStopReturnsErrStopped(t *testing.T) {
	l := New(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	// Fill the queue so Call cannot enqueue and must observe done.
	l.Post(func() {})
	err := l.Call(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestPanickingTaskDoesNotKillLoop(t *testing.T) {
	l := New(4, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go l.Run(ctx)

	l.Post(func() { panic("bad task") })
	require.NoError(t, l.Call(ctx, func() error { return nil }))
}
