package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"wirepath/internal/pipeline"
)

func TestProgressModelTracksDependencies(t *testing.T) {
	m := NewProgressModel("resolving demo", nil).(*progressModel)

	events := []pipeline.Event{
		{Stage: pipeline.StageRegister, Status: pipeline.StatusWorking},
		{Input: "source", Dependency: "g:a:1", Stage: pipeline.StageRegister, Status: pipeline.StatusQueued},
		{Input: "proto", Dependency: "g:a:1", Stage: pipeline.StageRegister, Status: pipeline.StatusQueued},
		{Stage: pipeline.StageResolve, Status: pipeline.StatusWorking},
		{Input: "source", Dependency: "g:a:1", Stage: pipeline.StageResolve, Status: pipeline.StatusWorking},
		{Input: "source", Dependency: "g:a:1", Stage: pipeline.StageResolve, Status: pipeline.StatusDone, Files: 2},
	}
	for _, ev := range events {
		m.applyEvent(ev)
	}

	if len(m.items) != 2 {
		t.Fatalf("items = %+v, want one row per input and dependency", m.items)
	}
	if m.items[0].status != "done" || m.items[0].files != 2 || m.items[1].status != "queued" {
		t.Fatalf("items = %+v", m.items)
	}
	if m.stageLabel != "resolving" {
		t.Fatalf("stage label = %q", m.stageLabel)
	}
	if got := m.percent(); got != 0.5 {
		t.Fatalf("percent = %v, want 0.5", got)
	}

	view := m.View()
	if !strings.Contains(view, "g:a:1 (2)") || !strings.Contains(view, "resolving demo (resolving)") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{in: "short", width: 10, want: "short"},
		{in: "com.example:protos:1.0", width: 10, want: "com.exa..."},
		{in: "abcdef", width: 3, want: "abc"},
		{in: "abc", width: 0, want: "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestProgressModelQuitsOnInterrupt(t *testing.T) {
	m := NewProgressModel("resolving demo", nil).(*progressModel)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || !m.interrupted {
		t.Fatalf("ctrl+c did not quit: interrupted=%v", m.interrupted)
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("ctrl+c command is not tea.Quit")
	}
	if !strings.Contains(m.View(), "interrupted: resolving demo") {
		t.Fatalf("view:\n%s", m.View())
	}
}
