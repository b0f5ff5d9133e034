package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/edgedock/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client for the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client talking to the daemon listening on socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(command CommandType, payload any) (*Response, error) {
	req := Request{Command: command}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = raw
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
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

	respData, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

func decodeData[T any](resp *Response, what string) (*T, error) {
	var out T
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s data: %w", what, err)
	}
	return &out, nil
}

// Dock docks windowID to the given screen edge. A zero windowID docks the
// window under the cursor. It returns the id of the docked window.
func (c *Client) Dock(windowID uint32, direction string) (uint32, error) {
	resp, err := c.sendRequest(CommandDock, DockPayload{WindowID: windowID, Direction: direction})
	if err != nil {
		return 0, err
	}
	data, err := decodeData[WindowData](resp, "dock")
	if err != nil {
		return 0, err
	}
	return data.WindowID, nil
}

// Undock releases windowID, or the window under the cursor when zero.
func (c *Client) Undock(windowID uint32, resetPosition bool) (uint32, error) {
	resp, err := c.sendRequest(CommandUndock, UndockPayload{WindowID: windowID, ResetPosition: resetPosition})
	if err != nil {
		return 0, err
	}
	data, err := decodeData[WindowData](resp, "undock")
	if err != nil {
		return 0, err
	}
	return data.WindowID, nil
}

// Pause suspends the docker of windowID.
func (c *Client) Pause(windowID uint32) error {
	_, err := c.sendRequest(CommandPause, WindowPayload{WindowID: windowID})
	return err
}

// Resume restarts the docker of windowID from the window's current position.
func (c *Client) Resume(windowID uint32) error {
	_, err := c.sendRequest(CommandResume, WindowPayload{WindowID: windowID})
	return err
}

// ListDocks retrieves the docked windows.
func (c *Client) ListDocks() (*DocksData, error) {
	resp, err := c.sendRequest(CommandListDocks, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[DocksData](resp, "docks")
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(CommandGetStatus, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[StatusData](resp, "status")
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(CommandReload, nil)
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
