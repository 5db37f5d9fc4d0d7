// Package runtimepath resolves the per-user runtime locations penc uses for
// its sockets.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	socketName         = "penc.sock"
	launcherSocketName = "penc-launcher.sock"
)

// Dir returns the runtime directory. Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/penc-runtime-<uid> (created)
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/penc-runtime-%d", uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

// SocketPath returns the agent's IPC socket.
func SocketPath() (string, error) {
	return inDir(socketName)
}

// LauncherSocketPath returns the socket the login launcher listens on
// while it waits for the agent.
func LauncherSocketPath() (string, error) {
	return inDir(launcherSocketName)
}

func inDir(name string) (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, name), nil
}
