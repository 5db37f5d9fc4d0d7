package preferences

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/penc/internal/config"
	"github.com/1broseidon/penc/internal/keyboard"
)

type countingDelegate struct {
	calls int
}

func (d *countingDelegate) OnPreferencesChanged() { d.calls++ }

func openTemp(t *testing.T, body string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if body != "" {
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	s, err := Open(path, config.Env{}, nil)
	require.NoError(t, err)
	return s, path
}

func TestSnapshotReflectsConfig(t *testing.T) {
	s, _ := openTemp(t, "activation_modifier_key: ctrl\nhold_duration: 0.5\nreverse_scroll: true\n")

	snap := s.Snapshot()
	assert.Equal(t, keyboard.ModControl, snap.ModifierKey)
	assert.Equal(t, 300*time.Millisecond, snap.Sensitivity)
	assert.Equal(t, 500*time.Millisecond, snap.HoldDuration)
	assert.Equal(t, config.DefaultVelocityThreshold, snap.VelocityThreshold)
	assert.True(t, snap.ReverseScroll)
	assert.False(t, snap.Disabled)
	assert.Empty(t, snap.DisabledApps)
}

func TestSetterPersistsAndNotifies(t *testing.T) {
	s, path := openTemp(t, "")
	d := &countingDelegate{}
	s.SetDelegate(d)

	require.NoError(t, s.SetSwipeDetectionVelocityThreshold(900))
	assert.Equal(t, 1, d.calls)
	assert.Equal(t, 900.0, s.SwipeDetectionVelocityThreshold())

	res, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 900.0, res.Config.SwipeDetectionVelocityThreshold)
}

func TestInvalidSetKeepsPreviousValue(t *testing.T) {
	s, _ := openTemp(t, "")
	d := &countingDelegate{}
	s.SetDelegate(d)

	assert.Error(t, s.SetActivationModifierKey("hyper"))
	assert.Equal(t, "super", s.ActivationModifierKey())
	assert.Equal(t, 0, d.calls)
}

func TestToggleDisabledAppRestoresPriorSet(t *testing.T) {
	s, path := openTemp(t, "disabled_apps: [Gimp, Blender]\n")
	d := &countingDelegate{}
	s.SetDelegate(d)
	before := s.DisabledApps()

	disabled, err := s.ToggleDisabledApp("Inkscape")
	require.NoError(t, err)
	assert.True(t, disabled)
	assert.Contains(t, s.DisabledApps(), "Inkscape")

	res, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Contains(t, res.Config.DisabledApps, "Inkscape")

	disabled, err = s.ToggleDisabledApp("Inkscape")
	require.NoError(t, err)
	assert.False(t, disabled)
	assert.Equal(t, before, s.DisabledApps())
	assert.Equal(t, 2, d.calls)
}

func TestToggleDisabledAppRejectsEmptyID(t *testing.T) {
	s := NewMemoryStore(config.DefaultConfig(), nil)
	_, err := s.ToggleDisabledApp("")
	assert.Error(t, err)
}

func TestGlobalDisableIsNotPersisted(t *testing.T) {
	s, path := openTemp(t, "")
	d := &countingDelegate{}
	s.SetDelegate(d)

	assert.True(t, s.ToggleDisabled())
	assert.True(t, s.Snapshot().Disabled)
	s.SetDisabled(true)
	assert.Equal(t, 1, d.calls, "no notification without a change")

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "global disable must not write the file")

	require.NoError(t, os.WriteFile(path, []byte("reverse_scroll: true\n"), 0644))
	require.NoError(t, s.Reload())
	assert.True(t, s.ReverseScroll())
	assert.True(t, s.Disabled(), "reload keeps the in-memory switch")
	assert.False(t, s.ToggleDisabled())
}

func TestReloadFailureKeepsConfig(t *testing.T) {
	s, path := openTemp(t, "reverse_scroll: true\n")
	require.NoError(t, os.WriteFile(path, []byte("bogus: 1\n"), 0644))

	assert.Error(t, s.Reload())
	assert.True(t, s.ReverseScroll())
}

func TestMemoryStoreSkipsPersistence(t *testing.T) {
	s := NewMemoryStore(config.DefaultConfig(), nil)
	require.NoError(t, s.SetReverseScroll(true))
	assert.True(t, s.Snapshot().ReverseScroll)
	assert.NoError(t, s.Reload())
	assert.Empty(t, s.Path())
}

func TestSetterDoesNotPersistEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reverse_scroll: true\n"), 0644))
	env := config.Env{LogLevel: "debug", MetricsAddr: "127.0.0.1:9999"}
	s, err := Open(path, env, nil)
	require.NoError(t, err)

	_, err = s.ToggleDisabledApp("firefox")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", s.Config().MetricsAddr, "env still applies in memory")
	assert.Equal(t, "debug", s.Config().LogLevel)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "metrics_addr")
	assert.NotContains(t, string(data), "log_level")

	res, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "info", res.Config.LogLevel)
	assert.Empty(t, res.Config.MetricsAddr)
	assert.True(t, res.Config.ReverseScroll)
	assert.Equal(t, []string{"firefox"}, res.Config.DisabledApps)
}

func TestSetterKeepsIncludedValuesInTheirFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte("hold_duration: 0.7\n"), 0644))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("include: base.yaml\n"), 0644))
	s, err := Open(path, config.Env{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.SetReverseScroll(true))
	assert.Equal(t, 0.7, s.HoldDuration())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "base.yaml")
	assert.NotContains(t, string(data), "hold_duration")

	res, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 0.7, res.Config.HoldDuration)
	assert.True(t, res.Config.ReverseScroll)
}
