package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/edgedock/internal/ipc"
)

const (
	ServerName    = "edgedock"
	ServerVersion = "0.1.0"
)

// DockClient is the subset of the daemon IPC client the tools forward to.
type DockClient interface {
	Dock(windowID uint32, direction string) (uint32, error)
	Undock(windowID uint32, resetPosition bool) (uint32, error)
	ListDocks() (*ipc.DocksData, error)
}

// Server is the MCP server exposing edgedock's docking operations.
type Server struct {
	mcpServer *mcpsdk.Server
	client    DockClient
	logger    *slog.Logger
}

// NewServer creates an MCP server forwarding tool calls to client.
func NewServer(client DockClient, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		client: client,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
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
		Name:        "dock_window",
		Description: "Dock a window to a screen edge. The window slides off screen when the mouse leaves it and peeks out when the mouse touches the edge; moving from the peek strip into the window brings it fully back, while resting on the strip hides it again. Docks the window under the mouse cursor unless window_id is given.",
	}, s.handleDockWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "undock_window",
		Description: "Release a docked window and restore its original stacking, opacity, click-through and size. Undocks the window under the mouse cursor unless window_id is given.",
	}, s.handleUndockWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_docks",
		Description: "List docked windows with their edge, visibility state and whether docking is paused.",
	}, s.handleListDocks)
}
