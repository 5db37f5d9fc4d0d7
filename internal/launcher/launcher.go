// Package launcher is the login helper that starts the penc agent and
// waits for the agent to dismiss it.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/penc/internal/ipc"
)

// AppID identifies the agent in KILL_LAUNCHER notifications.
const AppID = "io.github.1broseidon.penc"

// ErrAgentExited means the agent stopped before dismissing the launcher.
var ErrAgentExited = errors.New("agent exited before it finished starting")

// ErrTimeout means the agent never dismissed the launcher.
var ErrTimeout = errors.New("timed out waiting for the agent")

// Options configures Run.
type Options struct {
	// SocketPath is where the launcher listens.
	SocketPath string
	// AgentSocketPath is probed to skip launching a running agent.
	AgentSocketPath string
	// AppID is the identifier a KILL_LAUNCHER payload must carry.
	AppID string
	// Start launches the agent and returns a channel closed when it exits.
	Start   func() (<-chan error, error)
	Timeout time.Duration
	Logger  *zap.Logger
}

// Run starts the agent unless it is already answering, then waits for its
// KILL_LAUNCHER notification.
func Run(ctx context.Context, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.AppID == "" {
		opts.AppID = AppID
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	logger := opts.Logger

	if opts.AgentSocketPath != "" {
		if err := ipc.NewClientAt(opts.AgentSocketPath).WithTimeout(500 * time.Millisecond).Ping(); err == nil {
			logger.Info("agent already running")
			return nil
		}
	}

	killed := make(chan struct{})
	srv := ipc.NewServer(opts.SocketPath, killDispatcher(opts.AppID, killed, logger), logger)
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	exited, err := opts.Start()
	if err != nil {
		return fmt.Errorf("start agent: %w", err)
	}

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	select {
	case <-killed:
		logger.Info("dismissed by agent")
		return nil
	case err := <-exited:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAgentExited, err)
		}
		return ErrAgentExited
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// killDispatcher answers PING and closes killed on a matching
// KILL_LAUNCHER.
func killDispatcher(appID string, killed chan struct{}, logger *zap.Logger) ipc.Dispatcher {
	var once sync.Once

	return ipc.DispatchFunc(func(_ context.Context, req *ipc.Request) *ipc.Response {
		switch req.Command {
		case ipc.CommandPing:
			resp, _ := ipc.NewOKResponse(nil)
			return resp
		case ipc.CommandKillLauncher:
			var p ipc.AppPayload
			if err := req.DecodePayload(&p); err != nil {
				return ipc.NewErrorResponse(err.Error())
			}
			if p.AppID != appID {
				logger.Warn("ignoring kill for another app", zap.String("app_id", p.AppID))
				return ipc.NewErrorResponse(fmt.Sprintf("app id %q does not match", p.AppID))
			}
			once.Do(func() { close(killed) })
			resp, _ := ipc.NewOKResponse(nil)
			return resp
		default:
			return ipc.NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
		}
	})
}

// StartCommand returns a Start function running name with args detached
// from the launcher's stdio.
func StartCommand(name string, args ...string) func() (<-chan error, error) {
	return func() (<-chan error, error) {
		cmd := exec.Command(name, args...)
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		exited := make(chan error, 1)
		go func() { exited <- cmd.Wait() }()
		return exited, nil
	}
}

// Dismiss is called by the agent at boot: when a launcher answers on
// socketPath it is sent KILL_LAUNCHER with appID. A missing launcher is
// not an error.
func Dismiss(socketPath, appID string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := ipc.NewClientAt(socketPath).WithTimeout(500 * time.Millisecond)
	if err := client.Ping(); err != nil {
		logger.Debug("no launcher running")
		return nil
	}
	if err := client.KillLauncher(appID); err != nil {
		return fmt.Errorf("dismiss launcher: %w", err)
	}
	logger.Info("dismissed launcher")
	return nil
}
