package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus        CommandType = "GET_STATUS"
	CommandReload           CommandType = "RELOAD"
	CommandToggleDisable    CommandType = "TOGGLE_DISABLE"
	CommandToggleAppDisable CommandType = "TOGGLE_APP_DISABLE"
	CommandGetMenu          CommandType = "GET_MENU"
	CommandMenuAction       CommandType = "MENU_ACTION"
	CommandPing             CommandType = "PING"
	CommandKillLauncher     CommandType = "KILL_LAUNCHER"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// WindowInfo describes the window an activation targets.
type WindowInfo struct {
	ID     uint32 `json:"id"`
	AppID  string `json:"app_id"`
	Title  string `json:"title"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Disabled         bool        `json:"disabled"`
	Active           bool        `json:"active"`
	Target           *WindowInfo `json:"target,omitempty"`
	ActiveSeconds    float64     `json:"active_seconds,omitempty"`
	ModifierKey      string      `json:"modifier_key"`
	DisabledApps     []string    `json:"disabled_apps"`
	FrontmostApp     string      `json:"frontmost_app,omitempty"`
	FrontmostAppName string      `json:"frontmost_app_name,omitempty"`
	ConfigPath       string      `json:"config_path,omitempty"`
	UptimeSeconds    int64       `json:"uptime_seconds"`
	Version          string      `json:"version"`
}

// AppPayload names an application. An empty AppID means the frontmost one.
type AppPayload struct {
	AppID string `json:"app_id,omitempty"`
}

// ToggleData is returned by TOGGLE_DISABLE and TOGGLE_APP_DISABLE.
type ToggleData struct {
	Disabled bool   `json:"disabled"`
	AppID    string `json:"app_id,omitempty"`
}

// MenuActionPayload selects a menu action.
type MenuActionPayload struct {
	Action string `json:"action"`
	AppID  string `json:"app_id,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// okOrError wraps NewOKResponse for handlers that cannot fail to marshal in
// practice.
func okOrError(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// DecodePayload unmarshals req.Payload into v. A missing payload leaves v
// unchanged.
func (r *Request) DecodePayload(v interface{}) error {
	if len(r.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", r.Command, err)
	}
	return nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
