package mcp

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// WindowOutput describes the window an open activation targets.
type WindowOutput struct {
	ID     uint32 `json:"id"`
	AppID  string `json:"app_id"`
	Title  string `json:"title"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Running       bool          `json:"running"`
	Disabled      bool          `json:"disabled"`
	Active        bool          `json:"active"`
	Target        *WindowOutput `json:"target,omitempty"`
	ModifierKey   string        `json:"modifier_key,omitempty"`
	DisabledApps  []string      `json:"disabled_apps"`
	FrontmostApp  string        `json:"frontmost_app,omitempty"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Version       string        `json:"version,omitempty"`
}

// ToggleDisableInput is the input for the toggle_disable tool.
type ToggleDisableInput struct {
	Disabled *bool `json:"disabled,omitempty" jsonschema:"Desired state. When omitted the current state is flipped."`
}

// ToggleDisableOutput is the output for the toggle_disable tool.
type ToggleDisableOutput struct {
	Disabled bool `json:"disabled"`
	Changed  bool `json:"changed"`
}

// ToggleAppDisableInput is the input for the toggle_app_disable tool.
type ToggleAppDisableInput struct {
	AppID string `json:"app_id,omitempty" jsonschema:"Application WM_CLASS. Defaults to the frontmost application."`
}

// ToggleAppDisableOutput is the output for the toggle_app_disable tool.
type ToggleAppDisableOutput struct {
	AppID    string `json:"app_id"`
	Disabled bool   `json:"disabled"`
}

// ReloadConfigInput is the input for the reload_config tool.
type ReloadConfigInput struct{}

// ReloadConfigOutput is the output for the reload_config tool.
type ReloadConfigOutput struct {
	Reloaded bool `json:"reloaded"`
}
