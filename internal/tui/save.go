package tui

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/penc/internal/config"
)

type savePhase int

const (
	saveHidden savePhase = iota
	savePreview
	saveResult
)

type changeKind int

const (
	changeSet changeKind = iota
	changeAdded
	changeRemoved
)

// change is one edited setting. List settings produce one change per entry.
type change struct {
	key  string
	kind changeKind
	from string
	to   string
}

func (c change) String() string {
	switch c.kind {
	case changeAdded:
		return fmt.Sprintf("+ %s: %s", c.key, c.to)
	case changeRemoved:
		return fmt.Sprintf("- %s: %s", c.key, c.from)
	default:
		return fmt.Sprintf("~ %s: %s -> %s", c.key, c.from, c.to)
	}
}

// reloader asks a running agent to re-read its config.
type reloader interface {
	Reload() error
}

// SaveOverlay lists pending edits and writes the config on confirm.
type SaveOverlay struct {
	phase    savePhase
	changes  []change
	err      error
	reloaded bool
	scroll   int
}

// Active reports whether the overlay is visible.
func (s SaveOverlay) Active() bool {
	return s.phase != saveHidden
}

// Show opens the preview, or a "no changes" result when nothing differs.
func (s *SaveOverlay) Show(original, current *config.Config) {
	s.err = nil
	s.reloaded = false
	s.scroll = 0

	changes, err := computeChanges(original, current)
	switch {
	case err != nil:
		s.phase, s.err = saveResult, err
	case len(changes) == 0:
		s.phase, s.err = saveResult, fmt.Errorf("no changes to save")
	default:
		s.changes = changes
		s.phase = savePreview
	}
}

// SaveSucceeded reports whether the last save completed without error.
func (s SaveOverlay) SaveSucceeded() bool {
	return s.phase == saveResult && s.err == nil
}

// Update handles input while the overlay is active. Confirming writes cfg
// to path and then reloads agent when one is connected.
func (s SaveOverlay) Update(msg tea.Msg, cfg *config.Config, path string, agent reloader) SaveOverlay {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s
	}
	if s.phase == saveResult {
		s.phase = saveHidden
		return s
	}

	switch km.String() {
	case "esc", "n":
		s.phase = saveHidden
	case "enter", "y":
		s.err = cfg.SaveTo(path)
		if s.err == nil && agent != nil {
			s.reloaded = agent.Reload() == nil
		}
		s.phase = saveResult
	case "up", "k":
		s.scroll = max(s.scroll-1, 0)
	case "down", "j":
		s.scroll = min(s.scroll+1, max(len(s.changes)-1, 0))
	}
	return s
}

var (
	saveBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
	saveTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	saveFootStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	changeStyles   = map[changeKind]lipgloss.Style{
		changeSet:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		changeAdded:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		changeRemoved: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// View renders the overlay centred in a width x height area.
func (s SaveOverlay) View(width, height int) string {
	var body string
	switch s.phase {
	case savePreview:
		body = s.previewBody(width, height)
	case saveResult:
		body = s.resultBody()
	default:
		return ""
	}
	box := saveBoxStyle.Width(clamp(width-8, 30, 72)).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func (s SaveOverlay) previewBody(width, height int) string {
	rows := max(height-10, 3)
	start := min(s.scroll, max(len(s.changes)-rows, 0))
	end := min(start+rows, len(s.changes))
	textW := max(clamp(width-8, 30, 72)-6, 10)

	lines := make([]string, 0, end-start)
	for _, c := range s.changes[start:end] {
		text := c.String()
		if len(text) > textW {
			text = text[:textW-1] + "…"
		}
		lines = append(lines, changeStyles[c.kind].Render(text))
	}

	title := saveTitleStyle.Render(fmt.Sprintf("Save preferences: %d change(s)", len(s.changes)))
	footer := saveFootStyle.Render("enter/y: save  esc/n: cancel  j/k: scroll")
	return title + "\n\n" + strings.Join(lines, "\n") + "\n\n" + footer
}

func (s SaveOverlay) resultBody() string {
	var msg string
	if s.err != nil {
		msg = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Render("Error: " + s.err.Error())
	} else {
		ok := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
		msg = ok.Render("Preferences saved")
		if s.reloaded {
			msg += "\n" + ok.UnsetBold().Render("Agent reloaded")
		}
	}
	return msg + "\n\n" + saveFootStyle.Render("press any key to dismiss")
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// computeChanges compares two configs key by key in file order. Scalars
// that differ yield a changeSet; sequences yield one entry per added or
// removed element.
func computeChanges(original, current *config.Config) ([]change, error) {
	if original == nil || current == nil {
		return nil, nil
	}
	before, err := settingsOf(original)
	if err != nil {
		return nil, err
	}
	after, err := settingsOf(current)
	if err != nil {
		return nil, err
	}

	var changes []change
	for _, key := range settingKeys(before, after) {
		b, a := before.values[key], after.values[key]
		if b.list || a.list {
			for _, v := range a.items {
				if !slices.Contains(b.items, v) {
					changes = append(changes, change{key: key, kind: changeAdded, to: v})
				}
			}
			for _, v := range b.items {
				if !slices.Contains(a.items, v) {
					changes = append(changes, change{key: key, kind: changeRemoved, from: v})
				}
			}
			continue
		}
		if b.scalar != a.scalar {
			changes = append(changes, change{key: key, kind: changeSet, from: orUnset(b.scalar), to: orUnset(a.scalar)})
		}
	}
	return changes, nil
}

type setting struct {
	list   bool
	scalar string
	items  []string
}

type settings struct {
	order  []string
	values map[string]setting
}

// settingsOf flattens the YAML rendering of cfg into its top-level keys.
func settingsOf(cfg *config.Config) (settings, error) {
	var doc yaml.Node
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return settings{}, fmt.Errorf("marshal config: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return settings{}, fmt.Errorf("parse config: %w", err)
	}

	out := settings{values: map[string]setting{}}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return out, nil
	}
	pairs := doc.Content[0].Content
	for i := 0; i+1 < len(pairs); i += 2 {
		key, val := pairs[i].Value, pairs[i+1]
		var s setting
		if val.Kind == yaml.SequenceNode {
			s.list = true
			for _, item := range val.Content {
				s.items = append(s.items, item.Value)
			}
		} else {
			s.scalar = val.Value
		}
		out.order = append(out.order, key)
		out.values[key] = s
	}
	return out, nil
}

// settingKeys returns after's key order followed by keys only in before.
func settingKeys(before, after settings) []string {
	keys := slices.Clone(after.order)
	for _, k := range before.order {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func orUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}
