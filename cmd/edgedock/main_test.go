package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/1broseidon/edgedock/internal/config"
	"github.com/1broseidon/edgedock/internal/dock"
	"github.com/1broseidon/edgedock/internal/platform"
)

func TestParseWindowID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"", 0, false},
		{"  ", 0, false},
		{"42", 42, false},
		{"0x3a00007", 0x3a00007, false},
		{"0X10", 16, false},
		{"window", 0, true},
		{"-1", 0, true},
		{"0x1ffffffff", 0, true},
	}
	for _, tt := range tests {
		got, err := parseWindowID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseWindowID(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseWindowID(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceDefault}, "default"},
		{config.Source{Kind: config.SourceDefault, Name: "builtin"}, "default:builtin"},
		{config.Source{Kind: config.SourceFile}, "file"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}, "file:/c.yaml:3:5"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Errorf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestPrintDocks(t *testing.T) {
	var buf bytes.Buffer
	printDocks(&buf, nil)
	if got := buf.String(); got != "no docked windows\n" {
		t.Fatalf("empty output = %q", got)
	}

	buf.Reset()
	printDocks(&buf, []dock.Info{{WindowID: platform.WindowID(0x2a), Title: "term", Direction: "left", State: "hidden"}})
	out := buf.String()
	for _, want := range []string{"WINDOW", "0x2a", "left", "hidden", "term"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"daemon", "dock", "undock", "pause", "resume", "list", "status", "reload", "config", "mcp"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestDockRejectsUnknownDirection(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"dock", "sideways"})
	root.SetOut(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}
