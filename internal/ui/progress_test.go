package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"wsc/internal/driver"
)

func TestProgressModelTracksFiles(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("compiling", []string{"a.wsc.yaml", "b.wsc.yaml"}, events).(*progressModel)

	m.Update(eventMsg{File: "a.wsc.yaml", Stage: driver.StageSema, Status: driver.StatusWorking})
	m.Update(eventMsg{File: "b.wsc.yaml", Stage: driver.StageLower, Status: driver.StatusError})
	m.Update(eventMsg{File: "elsewhere.wsc.yaml", Stage: driver.StageLower, Status: driver.StatusDone})
	if got := m.units[0].label(); got != "checking" {
		t.Fatalf("a label = %q, want checking", got)
	}
	if got := m.units[1].label(); got != "error" {
		t.Fatalf("b label = %q, want error", got)
	}
	if got := m.fraction(); got != (0.4+1.0)/2 {
		t.Fatalf("fraction = %v", got)
	}

	_, cmd := m.Update(closedMsg{})
	if !m.finished || cmd == nil {
		t.Fatalf("closing the event channel must quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("quit command is not tea.Quit")
	}
	view := m.View()
	if !strings.Contains(view, "done: compiling") || !strings.Contains(view, "a.wsc.yaml") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	for _, tc := range []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a/very/long/path.wsc.yaml", 10, "a/very/..."},
		{"abcdef", 4, "a..."},
		{"abcdef", 3, "abc"},
		{"日本語のパス.wsc.yaml", 9, "日本語..."},
	} {
		got := truncate(tc.in, tc.width)
		if got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
		if w := runewidth.StringWidth(got); w > tc.width {
			t.Errorf("truncate(%q, %d) is %d columns wide", tc.in, tc.width, w)
		}
	}
}
