// Package menu models penc's status menu. Labels of the two toggle items
// are recomputed every time the menu opens.
package menu

import (
	"fmt"
)

// Tags of the items whose labels change.
const (
	TagToggleDisable    = 1
	TagToggleAppDisable = 2
)

// Action identifiers.
const (
	ActionAbout            = "about"
	ActionCheckForUpdates  = "check_for_updates"
	ActionToggleDisable    = "toggle_disable"
	ActionToggleAppDisable = "toggle_app_disable"
	ActionPreferences      = "preferences"
	ActionQuit             = "quit"
)

// Item is one menu row. Separators carry no action.
type Item struct {
	Tag       int    `json:"tag,omitempty"`
	Title     string `json:"title,omitempty"`
	Action    string `json:"action,omitempty"`
	Key       string `json:"key,omitempty"`
	Enabled   bool   `json:"enabled"`
	Separator bool   `json:"separator,omitempty"`
}

// State is what the toggle labels depend on.
type State struct {
	Disabled bool
	// AppName is the frontmost application's display name; empty when
	// there is no frontmost application.
	AppName     string
	AppDisabled bool
}

// Menu is the ordered item list.
type Menu struct {
	Items []Item `json:"items"`
	// AppID is the frontmost application when the menu was opened. Send it
	// back with the selection so per-app actions target that app.
	AppID string `json:"app_id,omitempty"`
}

// New returns the menu with default labels.
func New() *Menu {
	return &Menu{Items: []Item{
		{Title: "About Penc", Action: ActionAbout, Enabled: true},
		{Title: "Check for updates", Action: ActionCheckForUpdates, Enabled: true},
		{Separator: true},
		{Tag: TagToggleDisable, Title: "Disable", Action: ActionToggleDisable, Enabled: true},
		{Tag: TagToggleAppDisable, Title: "Disable for current app", Action: ActionToggleAppDisable},
		{Separator: true},
		{Title: "Preferences...", Action: ActionPreferences, Key: ",", Enabled: true},
		{Separator: true},
		{Title: "Quit", Action: ActionQuit, Key: "q", Enabled: true},
	}}
}

// WillOpen refreshes the toggle labels from st.
func (m *Menu) WillOpen(st State) {
	if item := m.ItemWithTag(TagToggleDisable); item != nil {
		if st.Disabled {
			item.Title = "Enable"
		} else {
			item.Title = "Disable"
		}
	}
	if item := m.ItemWithTag(TagToggleAppDisable); item != nil {
		switch {
		case st.AppName == "":
			item.Title = "Disable for current app"
			item.Enabled = false
		case st.AppDisabled:
			item.Title = fmt.Sprintf("Enable for %q", st.AppName)
			item.Enabled = true
		default:
			item.Title = fmt.Sprintf("Disable for %q", st.AppName)
			item.Enabled = true
		}
	}
}

// ItemWithTag returns the item carrying tag, or nil.
func (m *Menu) ItemWithTag(tag int) *Item {
	for i := range m.Items {
		if m.Items[i].Tag == tag {
			return &m.Items[i]
		}
	}
	return nil
}

// Actions performs menu selections.
type Actions interface {
	About() error
	CheckForUpdates() error
	ToggleDisabled() error
	ToggleAppDisabled() error
	Preferences() error
	Quit() error
}

// Dispatch runs the handler for action. Disabled items are rejected.
func (m *Menu) Dispatch(action string, a Actions) error {
	var item *Item
	for i := range m.Items {
		if !m.Items[i].Separator && m.Items[i].Action == action {
			item = &m.Items[i]
			break
		}
	}
	if item == nil {
		return fmt.Errorf("unknown menu action %q", action)
	}
	if !item.Enabled {
		return fmt.Errorf("menu item %q is disabled", item.Title)
	}
	switch action {
	case ActionAbout:
		return a.About()
	case ActionCheckForUpdates:
		return a.CheckForUpdates()
	case ActionToggleDisable:
		return a.ToggleDisabled()
	case ActionToggleAppDisable:
		return a.ToggleAppDisabled()
	case ActionPreferences:
		return a.Preferences()
	case ActionQuit:
		return a.Quit()
	default:
		return fmt.Errorf("unknown menu action %q", action)
	}
}
