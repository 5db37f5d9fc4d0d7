package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/penc/internal/menu"
	"github.com/1broseidon/penc/internal/runtimepath"
)

// Client handles IPC communication with the agent
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the agent socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// WithTimeout returns a copy of c using timeout for dial and I/O.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	cp := *c
	cp.timeout = timeout
	return &cp
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to penc: %w (is the agent running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("penc error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) call(cmd CommandType, payload interface{}, out interface{}) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// GetStatus retrieves agent status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Reload asks the agent to re-read its config file.
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// ToggleDisable flips the global disable flag and returns the new value.
func (c *Client) ToggleDisable() (bool, error) {
	var data ToggleData
	if err := c.call(CommandToggleDisable, nil, &data); err != nil {
		return false, err
	}
	return data.Disabled, nil
}

// ToggleAppDisable flips appID's membership in disabled_apps. An empty
// appID targets the frontmost application.
func (c *Client) ToggleAppDisable(appID string) (*ToggleData, error) {
	var data ToggleData
	if err := c.call(CommandToggleAppDisable, AppPayload{AppID: appID}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetMenu returns the status menu with labels refreshed for the current
// state.
func (c *Client) GetMenu() (*menu.Menu, error) {
	var m menu.Menu
	if err := c.call(CommandGetMenu, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MenuAction runs a menu action in the agent. appID is Menu.AppID from the
// GetMenu call that produced the selection.
func (c *Client) MenuAction(action, appID string) error {
	return c.call(CommandMenuAction, MenuActionPayload{Action: action, AppID: appID}, nil)
}

// Ping checks if the server is responding
func (c *Client) Ping() error {
	return c.call(CommandPing, nil, nil)
}

// KillLauncher tells a waiting launcher that the agent identified by appID
// is up.
func (c *Client) KillLauncher(appID string) error {
	return c.call(CommandKillLauncher, AppPayload{AppID: appID}, nil)
}
