package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/penc/internal/menu"
	"github.com/1broseidon/penc/internal/runloop"
)

type fakeAgent struct {
	disabled    bool
	apps        map[string]bool
	reloadErr   error
	actions     []string
	reloadCalls int
}

func (f *fakeAgent) Status() StatusData {
	return StatusData{Disabled: f.disabled, ModifierKey: "super", Version: "test"}
}

func (f *fakeAgent) Reload() error {
	f.reloadCalls++
	return f.reloadErr
}

func (f *fakeAgent) ToggleDisabled() ToggleData {
	f.disabled = !f.disabled
	return ToggleData{Disabled: f.disabled}
}

func (f *fakeAgent) ToggleAppDisabled(appID string) (ToggleData, error) {
	if appID == "" {
		appID = "gimp"
	}
	if f.apps == nil {
		f.apps = map[string]bool{}
	}
	f.apps[appID] = !f.apps[appID]
	return ToggleData{Disabled: f.apps[appID], AppID: appID}, nil
}

func (f *fakeAgent) Menu() *menu.Menu {
	m := menu.New()
	m.WillOpen(menu.State{Disabled: f.disabled})
	return m
}

func (f *fakeAgent) MenuAction(action, appID string) error {
	if action == "bogus" {
		return errors.New("unknown menu action")
	}
	f.actions = append(f.actions, action)
	return nil
}

func startAgentServer(t *testing.T, agent AgentHandler) *Client {
	t.Helper()

	loop := runloop.New(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	socket := filepath.Join(t.TempDir(), "penc.sock")
	srv := NewServer(socket, NewAgentDispatcher(agent, loop), nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		srv.Stop()
		cancel()
	})
	return NewClientAt(socket)
}

func TestAgentCommandsRoundTrip(t *testing.T) {
	agent := &fakeAgent{}
	client := startAgentServer(t, agent)

	require.NoError(t, client.Ping())

	status, err := client.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Disabled)
	assert.Equal(t, "super", status.ModifierKey)

	disabled, err := client.ToggleDisable()
	require.NoError(t, err)
	assert.True(t, disabled)

	m, err := client.GetMenu()
	require.NoError(t, err)
	assert.Equal(t, "Enable", m.ItemWithTag(menu.TagToggleDisable).Title)

	data, err := client.ToggleAppDisable("")
	require.NoError(t, err)
	assert.Equal(t, "gimp", data.AppID)
	assert.True(t, data.Disabled)

	require.NoError(t, client.MenuAction(menu.ActionAbout, ""))
	assert.Equal(t, []string{menu.ActionAbout}, agent.actions)

	require.NoError(t, client.Reload())
	assert.Equal(t, 1, agent.reloadCalls)
}

func TestAgentErrorsSurfaceToClient(t *testing.T) {
	agent := &fakeAgent{reloadErr: errors.New("bad yaml")}
	client := startAgentServer(t, agent)

	err := client.Reload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad yaml")

	err = client.MenuAction("bogus", "")
	require.Error(t, err)

	err = client.call(CommandMenuAction, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "menu action is required")

	err = client.call("NOPE", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown command")
}

func TestStoppedLoopReportsError(t *testing.T) {
	loop := runloop.New(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	d := NewAgentDispatcher(&fakeAgent{}, loop)
	resp := d.Dispatch(context.Background(), &Request{Command: CommandGetStatus})
	assert.Equal(t, "ERROR", resp.Status)

	resp = d.Dispatch(context.Background(), &Request{Command: CommandPing})
	assert.Equal(t, "OK", resp.Status)
}

func TestStartRejectsLiveSocketAndReplacesStaleOne(t *testing.T) {
	dir := t.TempDir()
	socket := filepath.Join(dir, "penc.sock")

	require.NoError(t, os.WriteFile(socket, nil, 0600))
	srv := NewServer(socket, DispatchFunc(func(context.Context, *Request) *Response {
		return okOrError(nil)
	}), nil)
	require.NoError(t, srv.Start(), "stale file is replaced")
	defer srv.Stop()

	info, err := os.Stat(socket)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second := NewServer(socket, DispatchFunc(func(context.Context, *Request) *Response { return nil }), nil)
	err = second.Start()
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestStopRemovesSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "penc.sock")
	srv := NewServer(socket, DispatchFunc(func(context.Context, *Request) *Response { return nil }), nil)
	require.NoError(t, srv.Start())

	srv.Stop()
	srv.Stop()

	_, err := os.Stat(socket)
	assert.True(t, os.IsNotExist(err))
	_, err = net.Dial("unix", socket)
	assert.Error(t, err)
}

func TestInvalidRequestLine(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "penc.sock")
	srv := NewServer(socket, DispatchFunc(func(context.Context, *Request) *Response { return nil }), nil)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("not json\n"))
	require.NoError(t, err)

	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), `"status":"ERROR"`)
	assert.Contains(t, string(buf[:n]), "Invalid request")
}
