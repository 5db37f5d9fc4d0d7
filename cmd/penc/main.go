package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/1broseidon/penc/internal/config"
	"github.com/1broseidon/penc/internal/ipc"
	"github.com/1broseidon/penc/internal/logging"
	"github.com/1broseidon/penc/internal/tui"
	"github.com/1broseidon/penc/internal/updater"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "toggle":
		os.Exit(runToggle(os.Args[2:]))
	case "toggle-app":
		os.Exit(runToggleApp(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "menu":
		os.Exit(runMenu(os.Args[2:]))
	case "prefs":
		os.Exit(runPrefs(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "check-update":
		os.Exit(runCheckUpdate(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "version":
		fmt.Println(version)
		os.Exit(0)
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: penc <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the penc agent (foreground)")
	fmt.Fprintln(w, "  status              Show agent status")
	fmt.Fprintln(w, "  toggle              Disable or re-enable penc globally")
	fmt.Fprintln(w, "  toggle-app [APP]    Disable or re-enable penc for an app (default: frontmost)")
	fmt.Fprintln(w, "  reload              Re-read the config file")
	fmt.Fprintln(w, "  menu                Open the status menu")
	fmt.Fprintln(w, "  prefs               Open the preferences editor")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  check-update        Check the release feed for a newer version")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "  version             Print the version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'penc <command> --help' for command-specific options.")
}

// parseNoArgs parses a flag set for a command that takes no positional
// arguments. ok is false when the caller should return code.
func parseNoArgs(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", fs.Name())
		fs.Usage()
		return 2, false
	}
	return 0, true
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Print the raw status as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: penc status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show agent status via IPC.")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	fmt.Printf("version:        %s\n", status.Version)
	fmt.Printf("disabled:       %v\n", status.Disabled)
	fmt.Printf("modifier_key:   %s\n", status.ModifierKey)
	fmt.Printf("active:         %v\n", status.Active)
	if status.Target != nil {
		t := status.Target
		fmt.Printf("target:         %s %q %dx%d+%d+%d (%.1fs)\n", t.AppID, t.Title, t.Width, t.Height, t.X, t.Y, status.ActiveSeconds)
	}
	if status.FrontmostApp != "" {
		fmt.Printf("frontmost_app:  %s\n", status.FrontmostApp)
	}
	fmt.Printf("disabled_apps:  %d\n", len(status.DisabledApps))
	for _, app := range status.DisabledApps {
		fmt.Printf("- %s\n", app)
	}
	fmt.Printf("config_path:    %s\n", status.ConfigPath)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runToggle(args []string) int {
	fs := flag.NewFlagSet("toggle", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: penc toggle")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flip the global disable switch. The switch resets when the agent restarts.")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	disabled, err := ipc.NewClient().ToggleDisable()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if disabled {
		fmt.Println("penc: disabled")
	} else {
		fmt.Println("penc: enabled")
	}
	return 0
}

func runToggleApp(args []string) int {
	fs := flag.NewFlagSet("toggle-app", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: penc toggle-app [APP_ID]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Add or remove an app (WM_CLASS) from disabled_apps. Defaults to the")
		fmt.Fprintln(os.Stderr, "application owning the focused window.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "toggle-app takes at most one argument")
		fs.Usage()
		return 2
	}

	data, err := ipc.NewClient().ToggleAppDisable(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if data.Disabled {
		fmt.Printf("%s: disabled\n", data.AppID)
	} else {
		fmt.Printf("%s: enabled\n", data.AppID)
	}
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: penc reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the agent to re-read its config file (same as SIGHUP).")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config: reloaded")
	return 0
}

func runPrefs(args []string) int {
	fs := flag.NewFlagSet("prefs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: $PENC_CONFIG or ~/.config/penc/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: penc prefs [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive preferences editor. Saving reloads a running agent.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  1/2/3, Tab  Switch tabs")
		fmt.Fprintln(os.Stderr, "  a / f / x   Add, add frontmost, remove (app tabs)")
		fmt.Fprintln(os.Stderr, "  Ctrl+S      Review and save")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C   Quit")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	if err := tui.Run(*path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runCheckUpdate(args []string) int {
	fs := flag.NewFlagSet("check-update", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	feed := fs.String("feed", "", "Release feed URL (default: update_feed_url from config)")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall timeout")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: penc check-update [--feed URL] [--timeout DURATION]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Compare this build against the latest published release.")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	feedURL := *feed
	if feedURL == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		feedURL = cfg.UpdateFeedURL
	}

	checker := updater.New(updater.Options{
		FeedURL:        feedURL,
		CurrentVersion: version,
		Logger:         logging.NewOrNop(logging.Config{Level: "warn", OutputPaths: []string{"stderr"}}),
	})
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := checker.CheckForUpdates(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(res.Message())
	return 0
}
