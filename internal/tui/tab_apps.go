package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/penc/internal/config"
)

// appItem is a list item representing an application id.
type appItem struct {
	id        string
	frontmost bool
}

func (i appItem) Title() string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●") + " " + i.id
}

func (i appItem) Description() string {
	if i.frontmost {
		return "frontmost application"
	}
	return "WM_CLASS"
}

func (i appItem) FilterValue() string { return i.id }

// appListKind selects which config list an AppsTab edits.
type appListKind int

const (
	disabledAppsList appListKind = iota
	desktopAppsList
)

// AppsTab edits one of the application id lists.
type AppsTab struct {
	kind      appListKind
	list      list.Model
	cfg       *config.Config
	frontmost string
	width     int
	height    int

	adding    bool
	textInput textinput.Model
}

// NewAppsTab creates a tab editing the list selected by kind.
func NewAppsTab(kind appListKind, cfg *config.Config, frontmost string) AppsTab {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	a := AppsTab{kind: kind, cfg: cfg, frontmost: frontmost}

	l := list.New(a.items(), delegate, 0, 0)
	l.Title = a.title()
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	a.list = l

	ti := textinput.New()
	ti.Placeholder = "WM_CLASS, e.g. gimp or org.inkscape.Inkscape"
	ti.CharLimit = 128
	a.textInput = ti

	return a
}

func (a AppsTab) title() string {
	if a.kind == desktopAppsList {
		return "Desktop Apps"
	}
	return "Disabled Apps"
}

func (a AppsTab) ids() *[]string {
	if a.cfg == nil {
		return nil
	}
	if a.kind == desktopAppsList {
		return &a.cfg.DesktopApps
	}
	return &a.cfg.DisabledApps
}

func (a AppsTab) items() []list.Item {
	ids := a.ids()
	if ids == nil {
		return nil
	}
	items := make([]list.Item, 0, len(*ids))
	for _, id := range *ids {
		items = append(items, appItem{id: id, frontmost: strings.EqualFold(id, a.frontmost)})
	}
	return items
}

// Update handles messages for the tab.
func (a AppsTab) Update(msg tea.Msg) (AppsTab, tea.Cmd) {
	if a.adding {
		return a.updateAdding(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.SetSize(a.listWidth(), a.height)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "a":
			a.adding = true
			a.textInput.Reset()
			a.textInput.Focus()
			return a, textinput.Blink
		case "f":
			if a.frontmost != "" {
				a.add(a.frontmost)
				a.list.SetItems(a.items())
			}
			return a, nil
		case "x", "delete":
			if item, ok := a.list.SelectedItem().(appItem); ok {
				a.remove(item.id)
				a.list.SetItems(a.items())
			}
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

func (a AppsTab) updateAdding(msg tea.Msg) (AppsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if value := strings.TrimSpace(a.textInput.Value()); value != "" {
				a.add(value)
				a.list.SetItems(a.items())
			}
			a.adding = false
			a.textInput.Blur()
			return a, nil
		case "esc":
			a.adding = false
			a.textInput.Blur()
			return a, nil
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil
	}

	var cmd tea.Cmd
	a.textInput, cmd = a.textInput.Update(msg)
	return a, cmd
}

func (a AppsTab) listWidth() int {
	w := a.width * 2 / 5
	if w < 20 {
		w = 20
	}
	return w
}

func (a *AppsTab) add(id string) {
	ids := a.ids()
	if ids == nil {
		return
	}
	for _, existing := range *ids {
		if strings.EqualFold(existing, id) {
			return
		}
	}
	*ids = append(*ids, id)
}

func (a *AppsTab) remove(id string) {
	ids := a.ids()
	if ids == nil {
		return
	}
	for i, existing := range *ids {
		if existing == id {
			*ids = append((*ids)[:i:i], (*ids)[i+1:]...)
			return
		}
	}
}

// View implements tea.Model.
func (a AppsTab) View() string {
	if a.width == 0 || a.height == 0 {
		return ""
	}

	leftWidth := a.listWidth()
	rightWidth := a.width - leftWidth
	if rightWidth < 10 {
		rightWidth = 10
	}

	var leftContent string
	if a.adding {
		inputStyle := lipgloss.NewStyle().Padding(0, 1).Width(leftWidth)
		prompt := lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Render("Add application:") + "\n" +
			a.textInput.View() + "\n" +
			lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("enter: confirm  esc: cancel")
		inputBlock := inputStyle.Render(prompt)
		listHeight := a.height - lipgloss.Height(inputBlock)
		if listHeight < 1 {
			listHeight = 1
		}
		a.list.SetSize(leftWidth, listHeight)
		leftContent = inputBlock + "\n" + a.list.View()
	} else {
		leftContent = a.list.View()
	}

	left := lipgloss.NewStyle().
		Width(leftWidth).
		Height(a.height).
		Render(leftContent)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, a.renderDetail(rightWidth))
}

func (a AppsTab) renderDetail(width int) string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("248"))

	if item, ok := a.list.SelectedItem().(appItem); ok {
		b.WriteString(titleStyle.Render(item.id))
		b.WriteString("\n\n")
	}
	if a.kind == desktopAppsList {
		b.WriteString(dimStyle.Render("Untitled windows of these applications are treated\nas the desktop, so activation targets no window."))
	} else {
		b.WriteString(dimStyle.Render("Activation beeps instead of starting while one of\nthese applications is focused."))
	}
	b.WriteString("\n\n")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	help := "a: add  x: remove"
	if a.frontmost != "" {
		help += "  f: add " + a.frontmost
	}
	b.WriteString(helpStyle.Render(help))

	style := lipgloss.NewStyle().
		Width(width).
		Height(a.height).
		Padding(1, 2).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(lipgloss.Color("236"))

	return style.Render(b.String())
}
