package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/penc/internal/config"
	"github.com/1broseidon/penc/internal/ipc"
)

// agentClient is the IPC surface the editor uses.
type agentClient interface {
	GetStatus() (*ipc.StatusData, error)
	Reload() error
}

// model is the root bubbletea model for the preferences editor.
type model struct {
	configPath string
	cfg        *config.Config
	loadErr    error
	client     agentClient

	activeTab Tab

	generalTab  GeneralTab
	disabledTab AppsTab
	desktopTab  AppsTab

	// Save overlay
	originalConfig *config.Config
	saveOverlay    SaveOverlay

	agent agentState

	width  int
	height int
}

func newModel(configPath string, client agentClient) model {
	m := model{
		configPath: configPath,
		client:     client,
		activeTab:  TabGeneral,
	}

	m.loadConfig()
	m.originalConfig = m.cfg.Clone()
	m.refreshAgentStatus()

	m.generalTab = NewGeneralTab(m.cfg)
	m.disabledTab = NewAppsTab(disabledAppsList, m.cfg, m.agent.frontmost)
	m.desktopTab = NewAppsTab(desktopAppsList, m.cfg, m.agent.frontmost)

	return m
}

// loadConfig reads the file at configPath. A broken file leaves the
// defaults in place and the error on screen.
func (m *model) loadConfig() {
	res, err := config.LoadFromPath(m.configPath)
	if err != nil {
		m.loadErr = err
		m.cfg = config.DefaultConfig()
		return
	}
	m.cfg = res.Config
}

func (m *model) refreshAgentStatus() {
	m.agent = agentState{}
	if m.client == nil {
		return
	}
	status, err := m.client.GetStatus()
	if err != nil {
		return
	}
	m.agent = agentState{
		connected: true,
		disabled:  status.Disabled,
		modifier:  status.ModifierKey,
		frontmost: status.FrontmostApp,
	}
}

// reloader returns the client when an agent is connected.
func (m model) reloader() reloader {
	if !m.agent.connected || m.client == nil {
		return nil
	}
	return m.client
}

func (m model) resizeTabs() model {
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	sub := tea.WindowSizeMsg{Width: m.width, Height: h}
	m.generalTab, _ = m.generalTab.Update(sub)
	m.disabledTab, _ = m.disabledTab.Update(sub)
	m.desktopTab, _ = m.desktopTab.Update(sub)
	return m
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Save overlay captures all input when active
	if m.saveOverlay.Active() {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			prevPhase := m.saveOverlay.phase
			m.saveOverlay = m.saveOverlay.Update(msg, m.cfg, m.configPath, m.reloader())
			if prevPhase == savePreview && m.saveOverlay.SaveSucceeded() {
				m.originalConfig = m.cfg.Clone()
				m.loadErr = nil
			}
		case tea.WindowSizeMsg:
			m.width = msg.Width
			m.height = msg.Height
		}
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+s" {
		m.saveOverlay.Show(m.originalConfig, m.cfg)
		return m, nil
	}

	// A focused form or text input consumes every key except ctrl+c.
	capturing := (m.activeTab == TabGeneral && m.generalTab.editing) ||
		(m.activeTab == TabDisabledApps && m.disabledTab.adding) ||
		(m.activeTab == TabDesktopApps && m.desktopTab.adding)
	if capturing {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		case tea.WindowSizeMsg:
			m.width = msg.Width
			m.height = msg.Height
			return m.resizeTabs(), nil
		}
		return m.updateActive(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1":
			m.activeTab = TabGeneral
			return m, nil
		case "2":
			m.activeTab = TabDisabledApps
			return m, nil
		case "3":
			m.activeTab = TabDesktopApps
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.resizeTabs(), nil
	}

	return m.updateActive(msg)
}

func (m model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case TabGeneral:
		m.generalTab, cmd = m.generalTab.Update(msg)
	case TabDisabledApps:
		m.disabledTab, cmd = m.disabledTab.Update(msg)
	case TabDesktopApps:
		m.desktopTab, cmd = m.desktopTab.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.agent, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)
	if m.loadErr != nil {
		errLine := lipgloss.NewStyle().
			Width(m.width).
			Foreground(lipgloss.Color("196")).
			Padding(0, 1).
			Render("config error, editing defaults: " + m.loadErr.Error())
		helpBar = lipgloss.JoinVertical(lipgloss.Left, errLine, helpBar)
	}

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := m.height - usedHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	if m.saveOverlay.Active() {
		content = m.saveOverlay.View(m.width, contentHeight)
	} else {
		switch m.activeTab {
		case TabGeneral:
			content = m.generalTab.View()
		case TabDisabledApps:
			content = m.disabledTab.View()
		case TabDesktopApps:
			content = m.desktopTab.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
