package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/penc/internal/config"
)

// GeneralTab shows and edits the activation gesture settings.
type GeneralTab struct {
	cfg *config.Config

	width  int
	height int

	editing bool
	form    *huh.Form

	// Form-bound values (strings for huh, converted on submit)
	fModifier      string
	fSensitivity   string
	fHold          string
	fThreshold     string
	fReverseScroll bool
	fLogLevel      string
}

// NewGeneralTab creates a GeneralTab from the loaded config.
func NewGeneralTab(cfg *config.Config) GeneralTab {
	return GeneralTab{cfg: cfg}
}

// Update implements tea.Model.
func (g GeneralTab) Update(msg tea.Msg) (GeneralTab, tea.Cmd) {
	if g.editing {
		return g.updateEditing(msg)
	}
	return g.updateDisplay(msg)
}

func (g GeneralTab) updateDisplay(msg tea.Msg) (GeneralTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "e" {
			g.startEditing()
			return g, g.form.Init()
		}
	case tea.WindowSizeMsg:
		g.width = msg.Width
		g.height = msg.Height
	}
	return g, nil
}

func (g GeneralTab) updateEditing(msg tea.Msg) (GeneralTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			g.editing = false
			g.form = nil
			return g, nil
		}
	case tea.WindowSizeMsg:
		g.width = msg.Width
		g.height = msg.Height
	}

	form, cmd := g.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		g.form = f
	}

	if g.form.State == huh.StateCompleted {
		g.applyForm()
		g.editing = false
		g.form = nil
		return g, nil
	}

	return g, cmd
}

func (g *GeneralTab) loadFields() {
	cfg := g.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	g.fModifier = cfg.ActivationModifierKey
	g.fSensitivity = formatSeconds(cfg.ActivationSensitivity)
	g.fHold = formatSeconds(cfg.HoldDuration)
	g.fThreshold = strconv.FormatFloat(cfg.SwipeDetectionVelocityThreshold, 'f', -1, 64)
	g.fReverseScroll = cfg.ReverseScroll
	g.fLogLevel = cfg.LogLevel
}

func (g *GeneralTab) startEditing() {
	g.loadFields()

	modifierOpts := []huh.Option[string]{
		huh.NewOption("super", "super"),
		huh.NewOption("alt", "alt"),
		huh.NewOption("control", "control"),
		huh.NewOption("shift", "shift"),
	}
	levelOpts := []huh.Option[string]{
		huh.NewOption("debug", "debug"),
		huh.NewOption("info", "info"),
		huh.NewOption("warn", "warn"),
		huh.NewOption("error", "error"),
	}

	w := g.width - 4
	if w < 40 {
		w = 40
	}

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("activation_modifier_key").
				Title("Activation Modifier").
				Description("Key that is double-pressed or held to activate").
				Options(modifierOpts...).
				Value(&g.fModifier),

			huh.NewInput().
				Key("activation_sensitivity").
				Title("Double-press Window").
				Description("Seconds between presses; 0 turns double-press off").
				Validate(validateSeconds(5)).
				Value(&g.fSensitivity),

			huh.NewInput().
				Key("hold_duration").
				Title("Hold Duration").
				Description("Seconds to hold the modifier; 0 turns hold off").
				Validate(validateSeconds(10)).
				Value(&g.fHold),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("swipe_detection_velocity_threshold").
				Title("Swipe Velocity Threshold").
				Description("Scroll velocity that counts as a swipe").
				Validate(validatePositive).
				Value(&g.fThreshold),

			huh.NewConfirm().
				Key("reverse_scroll").
				Title("Reverse Scroll").
				Value(&g.fReverseScroll),

			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(levelOpts...).
				Value(&g.fLogLevel),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	g.editing = true
}

// applyForm copies the form values into the config. Values that fail to
// parse leave the previous setting; the form validators catch them first.
func (g *GeneralTab) applyForm() {
	if g.cfg == nil {
		return
	}
	if g.fModifier != "" {
		g.cfg.ActivationModifierKey = g.fModifier
	}
	sens, sensErr := parseSeconds(g.fSensitivity)
	hold, holdErr := parseSeconds(g.fHold)
	if sensErr == nil && holdErr == nil && (sens > 0 || hold > 0) {
		g.cfg.ActivationSensitivity = sens
		g.cfg.HoldDuration = hold
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(g.fThreshold), 64); err == nil && v > 0 {
		g.cfg.SwipeDetectionVelocityThreshold = v
	}
	g.cfg.ReverseScroll = g.fReverseScroll
	if g.fLogLevel != "" {
		g.cfg.LogLevel = g.fLogLevel
	}
}

func parseSeconds(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func validateSeconds(max float64) func(string) error {
	return func(s string) error {
		v, err := parseSeconds(s)
		if err != nil {
			return fmt.Errorf("enter a number of seconds")
		}
		if v < 0 || v > max {
			return fmt.Errorf("must be between 0 and %g", max)
		}
		return nil
	}
}

func validatePositive(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

// View implements tea.Model.
func (g GeneralTab) View() string {
	if g.editing && g.form != nil {
		return g.viewEditing()
	}
	return g.viewDisplay()
}

func (g GeneralTab) viewDisplay() string {
	cfg := g.cfg
	if cfg == nil {
		style := lipgloss.NewStyle().
			Width(g.width).
			Height(g.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center)
		return style.Render("No config loaded")
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(26).
		Align(lipgloss.Right).
		PaddingRight(2)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)

	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	lines := []string{
		"",
		row("Activation Modifier", cfg.ActivationModifierKey),
		row("Double-press Window", secondsOrOff(cfg.ActivationSensitivity)),
		row("Hold Duration", secondsOrOff(cfg.HoldDuration)),
		"",
		row("Swipe Velocity Threshold", strconv.FormatFloat(cfg.SwipeDetectionVelocityThreshold, 'f', -1, 64)),
		row("Reverse Scroll", strconv.FormatBool(cfg.ReverseScroll)),
		"",
		row("Log Level", cfg.LogLevel),
		row("Metrics Address", displayOrDefault(cfg.MetricsAddr, "(off)")),
		"",
		dimStyle.Render("  Press 'e' to edit settings"),
	}

	contentStyle := lipgloss.NewStyle().
		Width(g.width).
		Height(g.height).
		Padding(1, 2)

	return contentStyle.Render(strings.Join(lines, "\n"))
}

func (g GeneralTab) viewEditing() string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render("Editing Activation Settings") +
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("  (esc to cancel)")

	style := lipgloss.NewStyle().
		Width(g.width).
		Height(g.height).
		Padding(1, 2)

	return style.Render(header + "\n\n" + g.form.View())
}

func secondsOrOff(v float64) string {
	if v == 0 {
		return "off"
	}
	return formatSeconds(v) + "s"
}

func displayOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
