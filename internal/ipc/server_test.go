package ipc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/1broseidon/edgedock/internal/anim"
	"github.com/1broseidon/edgedock/internal/dock"
	"github.com/1broseidon/edgedock/internal/geom"
	"github.com/1broseidon/edgedock/internal/platform"
)

type testDaemon struct {
	client  *Client
	desktop *platform.MemoryDesktop
	manager *dock.Manager
	reloads *atomic.Int32
	socket  string
}

func startServer(t *testing.T) *testDaemon {
	t.Helper()

	desktop := platform.NewMemoryDesktop()
	desktop.AddWindow(platform.NewMemoryWindow(1, "one", geom.Rect{X: 100, Y: 200, Width: 400, Height: 300}))
	desktop.AddWindow(platform.NewMemoryWindow(2, "two", geom.Rect{X: 900, Y: 400, Width: 300, Height: 200}))
	manager := dock.NewManager(desktop, anim.NewRegistry(nil), dock.ManagerConfig{
		Options: dock.Options{Preset: anim.Preset{Curve: geom.Linear, Duration: time.Millisecond}},
	})

	reloads := &atomic.Int32{}
	socket := filepath.Join(t.TempDir(), "edgedock.sock")
	srv, err := NewServer(ServerConfig{
		SocketPath: socket,
		Manager:    manager,
		Reload: func() error {
			reloads.Add(1)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run: %v", err)
		}
		manager.UndockAll()
	})

	client := NewClientAt(socket)
	deadline := time.Now().Add(2 * time.Second)
	for client.Ping() != nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not come up")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return &testDaemon{client: client, desktop: desktop, manager: manager, reloads: reloads, socket: socket}
}

func TestServerDockListAndUndock(t *testing.T) {
	d := startServer(t)

	id, err := d.client.Dock(1, "up")
	if err != nil || id != 1 {
		t.Fatalf("Dock(1) = %d, %v", id, err)
	}

	d.desktop.SetCursor(geom.Point{X: 1000, Y: 500})
	id, err = d.client.Dock(0, "left")
	if err != nil || id != 2 {
		t.Fatalf("Dock under cursor = %d, %v", id, err)
	}

	docks, err := d.client.ListDocks()
	if err != nil {
		t.Fatalf("ListDocks: %v", err)
	}
	if len(docks.Docks) != 2 {
		t.Fatalf("expected 2 docks, got %+v", docks.Docks)
	}
	dirs := map[platform.WindowID]string{}
	for _, info := range docks.Docks {
		dirs[info.WindowID] = info.Direction
	}
	if dirs[1] != "up" || dirs[2] != "left" {
		t.Fatalf("unexpected directions %v", dirs)
	}

	if _, err := d.client.Undock(1, true); err != nil {
		t.Fatalf("Undock: %v", err)
	}
	if _, err := d.client.Undock(1, true); err == nil || !strings.Contains(err.Error(), "not docked") {
		t.Fatalf("expected not docked error, got %v", err)
	}

	status, err := d.client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.DaemonRunning || status.DockCount != 1 || status.PID != os.Getpid() {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestServerRejectsBadInput(t *testing.T) {
	d := startServer(t)

	if _, err := d.client.Dock(1, "sideways"); err == nil {
		t.Fatal("expected error for unknown direction")
	}
	if _, err := d.client.Dock(42, "up"); err == nil {
		t.Fatal("expected error for unknown window")
	}
	if err := d.client.Pause(0); err == nil || !strings.Contains(err.Error(), "window_id is required") {
		t.Fatalf("expected window_id error, got %v", err)
	}
	if err := d.client.Resume(7); err == nil || !strings.Contains(err.Error(), "not docked") {
		t.Fatalf("expected not docked error, got %v", err)
	}
	if _, err := d.client.sendRequest("NOPE", nil); err == nil || !strings.Contains(err.Error(), "Unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
	if d.manager.Len() != 0 {
		t.Fatalf("bad input docked %d windows", d.manager.Len())
	}
}

func TestServerPauseResumeAndReload(t *testing.T) {
	d := startServer(t)

	if _, err := d.client.Dock(2, "down"); err != nil {
		t.Fatalf("Dock: %v", err)
	}
	if err := d.client.Pause(2); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	status, err := d.client.GetStatus()
	if err != nil || status.PausedCount != 1 {
		t.Fatalf("status after pause = %+v, %v", status, err)
	}
	if err := d.client.Resume(2); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	status, err = d.client.GetStatus()
	if err != nil || status.PausedCount != 0 {
		t.Fatalf("status after resume = %+v, %v", status, err)
	}

	if err := d.client.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := d.reloads.Load(); got != 1 {
		t.Fatalf("reload called %d times, want 1", got)
	}
}

func TestServerRefusesLiveSocket(t *testing.T) {
	d := startServer(t)

	second, err := NewServer(ServerConfig{SocketPath: d.socket, Manager: d.manager})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := second.Start(); err == nil || !strings.Contains(err.Error(), "another daemon") {
		t.Fatalf("expected live socket error, got %v", err)
	}
	if err := d.client.Ping(); err != nil {
		t.Fatalf("first server broken: %v", err)
	}
}

func TestClientWithoutDaemon(t *testing.T) {
	c := NewClientAt(filepath.Join(t.TempDir(), "missing.sock"))
	if err := c.Ping(); err == nil || !strings.Contains(err.Error(), "is the daemon running") {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(`{"command":"DOCK","payload":{"direction":"up"}}`))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Command != CommandDock {
		t.Fatalf("command = %q", req.Command)
	}
	if _, err := ParseRequest([]byte(`{}`)); err == nil {
		t.Fatal("expected error for empty command")
	}
	if _, err := ParseRequest([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
