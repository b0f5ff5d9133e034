package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/edgedock/internal/dock"
)

func (s *Server) handleDockWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args DockWindowInput) (*mcpsdk.CallToolResult, DockWindowOutput, error) {
	if strings.TrimSpace(args.Direction) == "" {
		return nil, DockWindowOutput{}, fmt.Errorf("direction is required (up, down, left or right)")
	}
	dir, err := dock.ParseDirection(args.Direction)
	if err != nil {
		return nil, DockWindowOutput{}, err
	}

	id, err := s.client.Dock(args.WindowID, dir.String())
	if err != nil {
		s.logger.Debug("dock_window failed", "window_id", args.WindowID, "direction", dir, "error", err)
		return nil, DockWindowOutput{}, err
	}
	s.logger.Debug("dock_window", "window_id", id, "direction", dir)
	return nil, DockWindowOutput{WindowID: id, Direction: dir.String()}, nil
}

func (s *Server) handleUndockWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args UndockWindowInput) (*mcpsdk.CallToolResult, UndockWindowOutput, error) {
	id, err := s.client.Undock(args.WindowID, args.ResetPosition)
	if err != nil {
		s.logger.Debug("undock_window failed", "window_id", args.WindowID, "error", err)
		return nil, UndockWindowOutput{WindowID: args.WindowID}, err
	}
	s.logger.Debug("undock_window", "window_id", id)
	return nil, UndockWindowOutput{WindowID: id, Undocked: true}, nil
}

func (s *Server) handleListDocks(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListDocksInput) (*mcpsdk.CallToolResult, ListDocksOutput, error) {
	data, err := s.client.ListDocks()
	if err != nil {
		return nil, ListDocksOutput{}, err
	}
	docks := data.Docks
	if docks == nil {
		docks = []dock.Info{}
	}
	return nil, ListDocksOutput{Count: len(docks), Docks: docks}, nil
}
