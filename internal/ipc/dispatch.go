package ipc

import (
	"context"
	"fmt"

	"github.com/1broseidon/penc/internal/menu"
)

// Caller runs fn on the agent's serialized context.
type Caller interface {
	Call(ctx context.Context, fn func() error) error
}

// AgentHandler is the agent state reachable over IPC. Methods are invoked on
// the run loop.
type AgentHandler interface {
	Status() StatusData
	Reload() error
	ToggleDisabled() ToggleData
	ToggleAppDisabled(appID string) (ToggleData, error)
	Menu() *menu.Menu
	MenuAction(action, appID string) error
}

// NewAgentDispatcher routes agent commands to h through loop.
func NewAgentDispatcher(h AgentHandler, loop Caller) Dispatcher {
	return &agentDispatcher{handler: h, loop: loop}
}

type agentDispatcher struct {
	handler AgentHandler
	loop    Caller
}

func (d *agentDispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	if req.Command == CommandPing {
		return okOrError(nil)
	}

	var resp *Response
	err := d.loop.Call(ctx, func() error {
		resp = d.handle(req)
		return nil
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("%s: %v", req.Command, err))
	}
	return resp
}

func (d *agentDispatcher) handle(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return okOrError(d.handler.Status())

	case CommandReload:
		if err := d.handler.Reload(); err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
		}
		return okOrError(nil)

	case CommandToggleDisable:
		return okOrError(d.handler.ToggleDisabled())

	case CommandToggleAppDisable:
		var p AppPayload
		if err := req.DecodePayload(&p); err != nil {
			return NewErrorResponse(err.Error())
		}
		data, err := d.handler.ToggleAppDisabled(p.AppID)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return okOrError(data)

	case CommandGetMenu:
		return okOrError(d.handler.Menu())

	case CommandMenuAction:
		var p MenuActionPayload
		if err := req.DecodePayload(&p); err != nil {
			return NewErrorResponse(err.Error())
		}
		if p.Action == "" {
			return NewErrorResponse("menu action is required")
		}
		if err := d.handler.MenuAction(p.Action, p.AppID); err != nil {
			return NewErrorResponse(err.Error())
		}
		return okOrError(nil)

	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}
