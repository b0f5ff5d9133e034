package mcp

import "github.com/1broseidon/edgedock/internal/dock"

// DockWindowInput is the input for the dock_window tool.
type DockWindowInput struct {
	Direction string `json:"direction" jsonschema:"Screen edge to dock to: up, down, left or right"`
	WindowID  uint32 `json:"window_id,omitempty" jsonschema:"X11 window id to dock (default: the window under the mouse cursor)"`
}

// DockWindowOutput is the output for the dock_window tool.
type DockWindowOutput struct {
	WindowID  uint32 `json:"window_id"`
	Direction string `json:"direction"`
}

// UndockWindowInput is the input for the undock_window tool.
type UndockWindowInput struct {
	WindowID      uint32 `json:"window_id,omitempty" jsonschema:"X11 window id to undock (default: the window under the mouse cursor)"`
	ResetPosition bool   `json:"reset_position,omitempty" jsonschema:"When true, move the window back fully on screen before releasing it"`
}

// UndockWindowOutput is the output for the undock_window tool.
type UndockWindowOutput struct {
	WindowID uint32 `json:"window_id"`
	Undocked bool   `json:"undocked"`
}

// ListDocksInput is the input for the list_docks tool.
type ListDocksInput struct{}

// ListDocksOutput is the output for the list_docks tool.
type ListDocksOutput struct {
	Count int         `json:"count"`
	Docks []dock.Info `json:"docks"`
}
