// Package mcp exposes penc's controls as Model Context Protocol tools over
// stdio, forwarding each call to the running agent.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/penc/internal/ipc"
)

const ServerName = "penc"

// AgentClient is the IPC surface the tools call. *ipc.Client implements it.
type AgentClient interface {
	GetStatus() (*ipc.StatusData, error)
	ToggleDisable() (bool, error)
	ToggleAppDisable(appID string) (*ipc.ToggleData, error)
	Reload() error
}

// Server is the MCP server for penc.
type Server struct {
	mcpServer *mcpsdk.Server
	client    AgentClient
	logger    *zap.Logger
}

// NewServer creates an MCP server forwarding to client.
func NewServer(client AgentClient, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{client: client, logger: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report whether the penc agent is running, whether it is disabled globally, the open activation (if any) and the per-app disable list.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_disable",
		Description: "Disable or enable penc globally. Pass disabled to set a specific state; omit it to flip the current one. The global flag is not persisted across agent restarts.",
	}, s.handleToggleDisable)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_app_disable",
		Description: "Add or remove an application (by WM_CLASS) from penc's disabled_apps list. Defaults to the frontmost application. The change is saved to the config file.",
	}, s.handleToggleAppDisable)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload_config",
		Description: "Make the penc agent re-read its config file.",
	}, s.handleReloadConfig)
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		s.logger.Debug("agent status unavailable", zap.Error(err))
		return nil, GetStatusOutput{Running: false, DisabledApps: []string{}}, nil
	}

	out := GetStatusOutput{
		Running:       true,
		Disabled:      status.Disabled,
		Active:        status.Active,
		ModifierKey:   status.ModifierKey,
		DisabledApps:  status.DisabledApps,
		FrontmostApp:  status.FrontmostApp,
		UptimeSeconds: status.UptimeSeconds,
		Version:       status.Version,
	}
	if out.DisabledApps == nil {
		out.DisabledApps = []string{}
	}
	if t := status.Target; t != nil {
		out.Target = &WindowOutput{
			ID: t.ID, AppID: t.AppID, Title: t.Title,
			X: t.X, Y: t.Y, Width: t.Width, Height: t.Height,
		}
	}
	return nil, out, nil
}

func (s *Server) handleToggleDisable(_ context.Context, _ *mcpsdk.CallToolRequest, args ToggleDisableInput) (*mcpsdk.CallToolResult, ToggleDisableOutput, error) {
	if args.Disabled != nil {
		status, err := s.client.GetStatus()
		if err != nil {
			return nil, ToggleDisableOutput{}, fmt.Errorf("penc agent not reachable: %w", err)
		}
		if status.Disabled == *args.Disabled {
			return nil, ToggleDisableOutput{Disabled: status.Disabled}, nil
		}
	}

	disabled, err := s.client.ToggleDisable()
	if err != nil {
		return nil, ToggleDisableOutput{}, err
	}
	s.logger.Info("toggled global disable", zap.Bool("disabled", disabled))
	return nil, ToggleDisableOutput{Disabled: disabled, Changed: true}, nil
}

func (s *Server) handleToggleAppDisable(_ context.Context, _ *mcpsdk.CallToolRequest, args ToggleAppDisableInput) (*mcpsdk.CallToolResult, ToggleAppDisableOutput, error) {
	data, err := s.client.ToggleAppDisable(args.AppID)
	if err != nil {
		return nil, ToggleAppDisableOutput{}, err
	}
	s.logger.Info("toggled app disable", zap.String("app_id", data.AppID), zap.Bool("disabled", data.Disabled))
	return nil, ToggleAppDisableOutput{AppID: data.AppID, Disabled: data.Disabled}, nil
}

func (s *Server) handleReloadConfig(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReloadConfigInput) (*mcpsdk.CallToolResult, ReloadConfigOutput, error) {
	if err := s.client.Reload(); err != nil {
		return nil, ReloadConfigOutput{}, err
	}
	return nil, ReloadConfigOutput{Reloaded: true}, nil
}
