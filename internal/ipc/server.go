package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/edgedock/internal/dock"
	"github.com/1broseidon/edgedock/internal/platform"
	"github.com/1broseidon/edgedock/internal/runtimepath"
)

// ServerConfig holds configuration for the IPC server.
type ServerConfig struct {
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath string
	Manager    *dock.Manager
	// Reload is called for RELOAD. Nil makes RELOAD fail.
	Reload func() error
	Logger *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	manager    *dock.Manager
	reload     func() error
	logger     *slog.Logger
	startTime  time.Time

	listener     net.Listener
	conns        sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Manager == nil {
		return nil, fmt.Errorf("ipc server needs a dock manager")
	}
	socketPath := cfg.SocketPath
	if socketPath == "" {
		p, err := runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
		socketPath = p
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		socketPath: socketPath,
		manager:    cfg.Manager,
		reload:     cfg.Reload,
		logger:     logger,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections. It refuses to replace the
// socket of a daemon that still answers.
func (s *Server) Start() error {
	if conn, err := net.DialTimeout("unix", s.socketPath, 200*time.Millisecond); err == nil {
		conn.Close()
		return fmt.Errorf("another daemon is listening on %s", s.socketPath)
	}
	// Stale socket from a crashed daemon.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}
	s.listener = listener

	s.logger.Info("IPC server listening", "socket", s.socketPath)
	s.conns.Add(1)
	go s.acceptLoop()
	return nil
}

// Run starts the server and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.conns.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) stopping() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// handleConnection serves a single request-response exchange.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(10 * time.Second))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("IPC read error", "error", err)
		return
	}

	var resp *Response
	req, err := ParseRequest(data)
	if err != nil {
		resp = NewErrorResponse(fmt.Sprintf("Invalid request: %v", err))
	} else {
		resp = s.handleCommand(req)
	}

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Debug("failed to send IPC response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)
	switch req.Command {
	case CommandDock:
		return s.handleDock(req.Payload)
	case CommandUndock:
		return s.handleUndock(req.Payload)
	case CommandPause:
		return s.handlePauseResume(req.Payload, s.manager.PauseDock)
	case CommandResume:
		return s.handlePauseResume(req.Payload, s.manager.ResumeDock)
	case CommandListDocks:
		return ok(DocksData{Docks: s.manager.List()})
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleDock(payload json.RawMessage) *Response {
	var req DockPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid dock payload: %v", err))
	}
	dir, err := dock.ParseDirection(req.Direction)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	id := platform.WindowID(req.WindowID)
	if id == 0 {
		id, err = s.manager.DockUnderCursor(dir)
	} else {
		err = s.manager.DockWindow(id, dir)
	}
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to dock: %v", err))
	}
	return ok(WindowData{WindowID: uint32(id)})
}

func (s *Server) handleUndock(payload json.RawMessage) *Response {
	var req UndockPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid undock payload: %v", err))
	}

	id := platform.WindowID(req.WindowID)
	if id == 0 {
		var (
			found bool
			err   error
		)
		id, found, err = s.manager.UndockUnderCursor(req.ResetPosition)
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to undock: %v", err))
		}
		if !found {
			return NewErrorResponse(fmt.Sprintf("window %d is not docked", id))
		}
		return ok(WindowData{WindowID: uint32(id)})
	}

	if !s.manager.UndockWindow(id, req.ResetPosition) {
		return NewErrorResponse(fmt.Sprintf("window %d is not docked", id))
	}
	return ok(WindowData{WindowID: uint32(id)})
}

func (s *Server) handlePauseResume(payload json.RawMessage, op func(platform.WindowID) bool) *Response {
	var req WindowPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if req.WindowID == 0 {
		return NewErrorResponse("window_id is required")
	}
	if !op(platform.WindowID(req.WindowID)) {
		return NewErrorResponse(fmt.Sprintf("window %d is not docked", req.WindowID))
	}
	return ok(WindowData{WindowID: req.WindowID})
}

func (s *Server) handleGetStatus() *Response {
	docks := s.manager.List()
	paused := 0
	for _, d := range docks {
		if d.Paused {
			paused++
		}
	}
	return ok(StatusData{
		DockCount:     len(docks),
		PausedCount:   paused,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		PID:           os.Getpid(),
	})
}

func (s *Server) handleReload() *Response {
	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	s.logger.Info("config reloaded via IPC")
	return ok(nil)
}

func decodePayload(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}

func ok(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}
