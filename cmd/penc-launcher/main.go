// Command penc-launcher starts the penc agent at login and exits once the
// agent reports that it is up.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/penc/internal/launcher"
	"github.com/1broseidon/penc/internal/logging"
	"github.com/1broseidon/penc/internal/runtimepath"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("penc-launcher", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	agent := fs.String("agent", "", "Path to the penc binary (default: next to this binary, then $PATH)")
	timeout := fs.Duration("timeout", 30*time.Second, "How long to wait for the agent to start")
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: penc-launcher [--agent PATH] [--timeout DURATION]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Starts `penc daemon` and waits until it dismisses the launcher.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = *logLevel
	logger := logging.NewOrNop(logCfg).Named("launcher")
	defer logger.Sync()

	agentPath, err := resolveAgent(*agent)
	if err != nil {
		logger.Error("cannot find agent", zap.Error(err))
		return 1
	}

	socket, err := runtimepath.LauncherSocketPath()
	if err != nil {
		logger.Error("runtime dir unavailable", zap.Error(err))
		return 1
	}
	agentSocket, err := runtimepath.SocketPath()
	if err != nil {
		logger.Error("runtime dir unavailable", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = launcher.Run(ctx, launcher.Options{
		SocketPath:      socket,
		AgentSocketPath: agentSocket,
		AppID:           launcher.AppID,
		Start:           launcher.StartCommand(agentPath, "daemon"),
		Timeout:         *timeout,
		Logger:          logger,
	})
	if err != nil {
		logger.Error("launch failed", zap.Error(err))
		return 1
	}
	return 0
}

func resolveAgent(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if exe, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exe), "penc")
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			return sibling, nil
		}
	}
	return exec.LookPath("penc")
}
