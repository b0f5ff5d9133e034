package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/edgedock/internal/dock"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandDock      CommandType = "DOCK"
	CommandUndock    CommandType = "UNDOCK"
	CommandPause     CommandType = "PAUSE"
	CommandResume    CommandType = "RESUME"
	CommandListDocks CommandType = "LIST_DOCKS"
	CommandGetStatus CommandType = "GET_STATUS"
	CommandReload    CommandType = "RELOAD"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
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

// DockPayload is the payload of DOCK. A zero WindowID docks the window
// under the cursor.
type DockPayload struct {
	WindowID  uint32 `json:"window_id,omitempty"`
	Direction string `json:"direction"`
}

// UndockPayload is the payload of UNDOCK. A zero WindowID undocks the
// window under the cursor.
type UndockPayload struct {
	WindowID      uint32 `json:"window_id,omitempty"`
	ResetPosition bool   `json:"reset_position,omitempty"`
}

// WindowPayload names the window for PAUSE and RESUME.
type WindowPayload struct {
	WindowID uint32 `json:"window_id"`
}

// WindowData is returned by DOCK and UNDOCK.
type WindowData struct {
	WindowID uint32 `json:"window_id"`
}

// DocksData represents the data returned by LIST_DOCKS
type DocksData struct {
	Docks []dock.Info `json:"docks"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DockCount     int   `json:"dock_count"`
	PausedCount   int   `json:"paused_count"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
	PID           int   `json:"pid"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: command is empty")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
