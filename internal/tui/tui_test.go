package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/penc/internal/config"
	"github.com/1broseidon/penc/internal/ipc"
)

type fakeAgent struct {
	status  *ipc.StatusData
	reloads int
}

func (f *fakeAgent) GetStatus() (*ipc.StatusData, error) {
	if f.status == nil {
		return nil, errors.New("not running")
	}
	return f.status, nil
}

func (f *fakeAgent) Reload() error {
	f.reloads++
	return nil
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m model, msgs ...tea.Msg) model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func TestGeneralApplyForm(t *testing.T) {
	cfg := config.DefaultConfig()
	g := NewGeneralTab(cfg)
	g.loadFields()

	g.fModifier = "alt"
	g.fSensitivity = "0"
	g.fHold = "0.5"
	g.fThreshold = "900"
	g.fReverseScroll = true
	g.applyForm()

	if cfg.ActivationModifierKey != "alt" || cfg.ActivationSensitivity != 0 || cfg.HoldDuration != 0.5 {
		t.Fatalf("unexpected activation settings: %+v", cfg)
	}
	if cfg.SwipeDetectionVelocityThreshold != 900 || !cfg.ReverseScroll {
		t.Fatalf("unexpected swipe settings: %+v", cfg)
	}

	// Both gestures off is rejected and keeps the previous pair.
	g.fSensitivity = "0"
	g.fHold = "0"
	g.applyForm()
	if cfg.HoldDuration != 0.5 {
		t.Fatalf("expected hold 0.5 to survive, got %v", cfg.HoldDuration)
	}
}

func TestValidators(t *testing.T) {
	if err := validateSeconds(5)("0.3"); err != nil {
		t.Fatalf("expected valid: %v", err)
	}
	if err := validateSeconds(5)("6"); err == nil {
		t.Fatalf("expected range error")
	}
	if err := validateSeconds(5)("soon"); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := validatePositive("0"); err == nil {
		t.Fatalf("expected positive error")
	}
}

func TestAppsTabAddRemove(t *testing.T) {
	cfg := config.DefaultConfig()
	a := NewAppsTab(disabledAppsList, cfg, "Gimp")
	a, _ = a.Update(tea.WindowSizeMsg{Width: 80, Height: 20})

	a, _ = a.Update(keys("a"))
	if !a.adding {
		t.Fatalf("expected add mode")
	}
	a, _ = a.Update(keys("inkscape"))
	a, _ = a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	a, _ = a.Update(keys("f"))
	a, _ = a.Update(keys("f"))

	if len(cfg.DisabledApps) != 2 || cfg.DisabledApps[0] != "inkscape" || cfg.DisabledApps[1] != "Gimp" {
		t.Fatalf("unexpected disabled apps: %v", cfg.DisabledApps)
	}

	a, _ = a.Update(keys("x"))
	if len(cfg.DisabledApps) != 1 || cfg.DisabledApps[0] != "Gimp" {
		t.Fatalf("expected first entry removed, got %v", cfg.DisabledApps)
	}
}

func TestDesktopTabEditsDesktopApps(t *testing.T) {
	cfg := config.DefaultConfig()
	before := len(cfg.DesktopApps)
	a := NewAppsTab(desktopAppsList, cfg, "")
	a.add("pcmanfm")
	a.add("PCManFM")
	if len(cfg.DesktopApps) != before+1 {
		t.Fatalf("expected one case-insensitive addition, got %v", cfg.DesktopApps)
	}
	if len(cfg.DisabledApps) != 0 {
		t.Fatalf("disabled apps touched: %v", cfg.DisabledApps)
	}
}

func TestSaveWritesConfigAndReloadsAgent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	agent := &fakeAgent{status: &ipc.StatusData{ModifierKey: "super", FrontmostApp: "gimp"}}

	m := newModel(path, agent)
	m = send(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	if !m.agent.connected || m.agent.frontmost != "gimp" {
		t.Fatalf("expected connected agent state, got %+v", m.agent)
	}

	m = send(m, keys("2"), keys("f"), tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.saveOverlay.Active() || m.saveOverlay.phase != savePreview {
		t.Fatalf("expected diff preview")
	}
	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.saveOverlay.SaveSucceeded() {
		t.Fatalf("save failed: %v", m.saveOverlay.err)
	}
	if agent.reloads != 1 {
		t.Fatalf("expected one reload, got %d", agent.reloads)
	}

	res, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if !res.Config.IsAppDisabled("gimp") {
		t.Fatalf("expected gimp disabled in saved file, got %v", res.Config.DisabledApps)
	}

}

func TestSaveWithoutChangesReportsNothing(t *testing.T) {
	m := newModel(filepath.Join(t.TempDir(), "config.yaml"), &fakeAgent{})
	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.saveOverlay.phase != saveResult || m.saveOverlay.err == nil {
		t.Fatalf("expected no-changes result")
	}
	if m.agent.connected {
		t.Fatalf("agent should be reported as not running")
	}
}

func TestComputeChanges(t *testing.T) {
	a := config.DefaultConfig()
	b := a.Clone()
	b.ReverseScroll = true
	b.DisabledApps = append(b.DisabledApps, "gimp")
	b.DesktopApps = b.DesktopApps[1:]
	b.MetricsAddr = "127.0.0.1:9464"

	changes, err := computeChanges(a, b)
	if err != nil {
		t.Fatalf("computeChanges: %v", err)
	}
	got := make([]string, 0, len(changes))
	for _, c := range changes {
		got = append(got, c.String())
	}
	want := []string{
		"~ reverse_scroll: false -> true",
		"+ disabled_apps: gimp",
		"- desktop_apps: " + a.DesktopApps[0],
		"~ metrics_addr: (unset) -> 127.0.0.1:9464",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("changes:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	if changes, _ := computeChanges(a, a.Clone()); len(changes) != 0 {
		t.Fatalf("expected no changes for identical configs, got %v", changes)
	}
}
