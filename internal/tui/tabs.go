package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Tab identifies a TUI tab.
type Tab int

const (
	TabGeneral Tab = iota
	TabDisabledApps
	TabDesktopApps
	tabCount // sentinel for iteration
)

var tabNames = [tabCount]string{"General", "Disabled Apps", "Desktop Apps"}

func (t Tab) String() string {
	if t < 0 || t >= tabCount {
		return "?"
	}
	return tabNames[t]
}

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			MarginBottom(1)

	tabGap = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		SetString(" ")
)

// renderTabBar renders "1:General" style labels with the active one
// highlighted.
func renderTabBar(active Tab, width int) string {
	cells := make([]string, 0, 2*int(tabCount))
	for t := Tab(0); t < tabCount; t++ {
		if t > 0 {
			cells = append(cells, tabGap.Render())
		}
		style := inactiveTabStyle
		if t == active {
			style = activeTabStyle
		}
		cells = append(cells, style.Render(fmt.Sprintf("%d:%s", t+1, t)))
	}
	return tabBarStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
}

// agentState is what the status bar shows about the running agent.
type agentState struct {
	connected bool
	disabled  bool
	modifier  string
	frontmost string
}

// renderStatusBar renders the agent connection status bar.
func renderStatusBar(st agentState, width int) string {
	var status string
	switch {
	case !st.connected:
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = dot + " agent not running"
	default:
		color := lipgloss.Color("42")
		label := "agent running"
		if st.disabled {
			color = lipgloss.Color("214")
			label = "agent disabled"
		}
		dot := lipgloss.NewStyle().Foreground(color).Render("●")
		parts := []string{dot + " " + label}
		if st.modifier != "" {
			parts = append(parts, "modifier:"+st.modifier)
		}
		if st.frontmost != "" {
			parts = append(parts, "frontmost:"+st.frontmost)
		}
		status = strings.Join(parts, "  ")
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(status)
}

// renderHelpBar renders the bottom help/keybinding bar.
func renderHelpBar(width int) string {
	help := "tab/shift-tab: switch tabs  1-3: jump to tab  ctrl-s: save  q/ctrl-c: quit"
	style := lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	return style.Render(help)
}
