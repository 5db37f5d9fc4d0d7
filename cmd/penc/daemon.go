package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/1broseidon/penc/internal/activation"
	"github.com/1broseidon/penc/internal/config"
	"github.com/1broseidon/penc/internal/coordinator"
	"github.com/1broseidon/penc/internal/daemon"
	"github.com/1broseidon/penc/internal/ipc"
	"github.com/1broseidon/penc/internal/keyboard"
	"github.com/1broseidon/penc/internal/launcher"
	"github.com/1broseidon/penc/internal/logging"
	"github.com/1broseidon/penc/internal/metrics"
	"github.com/1broseidon/penc/internal/notify"
	"github.com/1broseidon/penc/internal/overlay"
	"github.com/1broseidon/penc/internal/permission"
	"github.com/1broseidon/penc/internal/platform"
	"github.com/1broseidon/penc/internal/preferences"
	"github.com/1broseidon/penc/internal/runloop"
	"github.com/1broseidon/penc/internal/runtimepath"
	"github.com/1broseidon/penc/internal/updater"
	"github.com/1broseidon/penc/internal/x11"
)

const permissionHelp = "Penc could not read the keyboard state or find an EWMH window manager.\n" +
	"Check that DISPLAY points at your X session and that your window manager " +
	"supports _NET_ACTIVE_WINDOW, then start Penc again."

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: $PENC_CONFIG or ~/.config/penc/config.yaml)")
	logLevel := fs.String("log-level", "", "Log level override (debug, info, warn, error)")
	permissionWait := fs.Duration("permission-wait", 30*time.Second, "How long to wait for keyboard access at startup")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: penc daemon [--config PATH] [--log-level LEVEL]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the agent in the foreground. SIGHUP reloads the config.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	env, err := config.ReadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	configPath := *path
	if configPath == "" {
		if configPath, err = config.ResolvePath(env); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	boot, err := config.LoadFromPathWithEnv(configPath, env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = boot.Config.LogLevel
	if *logLevel != "" {
		logCfg.Level = *logLevel
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	return newAgentRunner(configPath, env, logger, *permissionWait).run()
}

type agentRunner struct {
	configPath     string
	env            config.Env
	logger         *zap.Logger
	permissionWait time.Duration
	notifier       *notify.Desktop
}

func newAgentRunner(configPath string, env config.Env, logger *zap.Logger, permissionWait time.Duration) *agentRunner {
	return &agentRunner{
		configPath:     configPath,
		env:            env,
		logger:         logger,
		permissionWait: permissionWait,
		notifier:       notify.NewDesktop("Penc", logger.Named("notify")),
	}
}

func (r *agentRunner) fail(title string, err error) int {
	r.logger.Error(title, zap.Error(err))
	_ = r.notifier.Dialog(notify.KindError, title, err.Error())
	return 1
}

func (r *agentRunner) run() int {
	logger := r.logger

	if sock, err := runtimepath.LauncherSocketPath(); err == nil {
		if err := launcher.Dismiss(sock, launcher.AppID, logger.Named("launcher")); err != nil {
			logger.Warn("launcher still running", zap.Error(err))
		}
	}

	store, err := preferences.Open(r.configPath, r.env, logger.Named("prefs"))
	if err != nil {
		return r.fail("Failed to load configuration", err)
	}
	cfg := store.Config()
	logger.Info("configuration loaded",
		zap.String("path", r.configPath),
		zap.String("modifier", cfg.ActivationModifierKey),
		zap.Int("disabled_apps", len(cfg.DisabledApps)))

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		return r.fail("Failed to connect to display", err)
	}
	defer backend.Disconnect()
	conn := backend.Connection()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checker := permission.NewX11Checker(conn, nil, r.permissionWait, logger.Named("permission"))
	if err := permission.Ensure(ctx, checker, logger); err != nil {
		logger.Error("permission check failed", zap.Error(err))
		_ = r.notifier.Dialog(notify.KindError, "Accessibility permissions needed", permissionHelp)
		return 1
	}

	tap, err := x11.NewKeyTap(cfg.PollInterval(), logger.Named("keytap"))
	if err != nil {
		return r.fail("Failed to open keyboard tap", err)
	}
	keymap := tap.Keymap()

	loop := runloop.New(256, logger.Named("loop"))
	reg := metrics.NewRegistry()
	pool := overlay.NewPool(overlay.NewX11Factory(conn), loop, logger.Named("overlay"))

	coord := coordinator.New(coordinator.Options{
		Desktop: backend,
		NewSession: coordinator.ActivationFactory(activation.Deps{
			Backend:  backend,
			Overlays: pool,
			Keymap:   keymap,
			Logger:   logger.Named("activation"),
		}),
		Preferences: store,
		Overlays:    pool,
		Metrics:     metrics.NewActivationMetrics(reg),
		Logger:      logger.Named("coordinator"),
	})
	listener := keyboard.NewListener(clockwork.NewRealClock(), loop, keymap, coord, logger.Named("keyboard"))
	coord.SetListener(listener)
	store.SetDelegate(coord)
	// Apply the loaded settings to the listener and overlays.
	loop.Post(coord.OnPreferencesChanged)

	agent := daemon.NewAgent(daemon.AgentOptions{
		Preferences: store,
		Slot:        coord,
		Frontmost:   backend,
		Updater: updater.New(updater.Options{
			FeedURL:        cfg.UpdateFeedURL,
			CurrentVersion: version,
			Logger:         logger.Named("updater"),
		}),
		Notifier:        r.notifier,
		OpenPreferences: openPreferences,
		Quit:            stop,
		Version:         version,
		Logger:          logger.Named("agent"),
	})

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return r.fail("Runtime directory unavailable", err)
	}
	server := ipc.NewServer(socketPath, ipc.NewAgentDispatcher(agent, loop), logger.Named("ipc"))
	if err := server.Start(); err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			logger.Error("penc is already running", zap.String("socket", socketPath))
			return 1
		}
		return r.fail("Failed to start IPC server", err)
	}
	defer server.Stop()

	go conn.EventLoop()
	defer conn.Quit()

	go func() {
		err := tap.Run(ctx, func(ev keyboard.Event) {
			handle := func() { listener.HandleEvent(ev) }
			if ev.Down {
				loop.Post(handle)
			} else {
				loop.PostReliable(handle)
			}
		})
		if err != nil {
			logger.Error("keyboard tap stopped", zap.Error(err))
			stop()
		}
	}()

	if addr := cfg.MetricsAddr; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, reg, logger.Named("metrics")); err != nil {
				logger.Warn("metrics endpoint failed", zap.String("addr", addr), zap.Error(err))
			}
		}()
	}

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{Logger: logger.Named("reconciler")},
		loop, backend.Displays, pool, coord.Active)
	go func() {
		if err := reconciler.ReconcileNow(ctx); err != nil {
			logger.Warn("initial overlay sync failed", zap.Error(err))
		}
		reconciler.Run(ctx)
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				loop.Post(func() { _ = agent.Reload() })
			}
		}
	}()

	logger.Info("penc started",
		zap.String("version", version),
		zap.String("socket", socketPath))

	loop.Run(ctx)

	// The loop has stopped; this goroutine now owns the coordinator.
	loop.RunPending()
	coord.Close()
	pool.Close()
	logger.Info("penc stopped")
	return 0
}

func openPreferences() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	return notify.OpenInTerminal(exe, "prefs")
}
