package x11

import (
	"context"
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"

	"github.com/1broseidon/penc/internal/keyboard"
)

// DefaultPollInterval is how often the key tap samples the keyboard.
const DefaultPollInterval = 8 * time.Millisecond

// KeyTap reports global key transitions by sampling QueryKeymap. It never
// grabs keys, so every other application keeps its shortcuts.
type KeyTap struct {
	conn     *Connection
	interval time.Duration
	logger   *zap.Logger
}

// NewKeyTap opens a dedicated X connection for sampling. Sharing the main
// connection would serialize samples behind overlay traffic.
func NewKeyTap(interval time.Duration, logger *zap.Logger) (*KeyTap, error) {
	conn, err := NewConnection()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &KeyTap{conn: conn, interval: interval, logger: logger}, nil
}

// Keymap builds the code table for the current keyboard layout.
func (t *KeyTap) Keymap() keyboard.Keymap {
	return NewKeymap(t.conn)
}

// Run samples until ctx is done, calling emit for every transition. emit
// runs on the tap goroutine and must not block.
func (t *KeyTap) Run(ctx context.Context, emit func(keyboard.Event)) error {
	defer t.conn.Close()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	var prev [32]byte
	primed := false
	failures := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			reply, err := xproto.QueryKeymap(t.conn.XUtil.Conn()).Reply()
			if err != nil {
				failures++
				if failures >= 10 {
					return fmt.Errorf("query keymap: %w", err)
				}
				continue
			}
			failures = 0

			var cur [32]byte
			copy(cur[:], reply.Keys)
			if primed {
				diffKeys(prev, cur, now, emit)
			}
			prev = cur
			primed = true
		}
	}
}

// diffKeys emits one event per changed bit. Releases are emitted before
// presses so a fast modifier re-press inside one sample reads in order.
func diffKeys(prev, cur [32]byte, at time.Time, emit func(keyboard.Event)) {
	for pass := 0; pass < 2; pass++ {
		down := pass == 1
		for i := 0; i < 32; i++ {
			changed := prev[i] ^ cur[i]
			if changed == 0 {
				continue
			}
			for bit := 0; bit < 8; bit++ {
				mask := byte(1) << bit
				if changed&mask == 0 {
					continue
				}
				isDown := cur[i]&mask != 0
				if isDown != down {
					continue
				}
				emit(keyboard.Event{Code: keyboard.Code(i*8 + bit), Down: isDown, At: at})
			}
		}
	}
}
