package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/fileflow/internal/progress"
)

// ===== Layout =====

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		width int
		check func(string) bool
	}{
		{"fits", "/a/b.txt", 20, func(s string) bool { return s == "/a/b.txt" }},
		{"tiny width", "/a/very/long/path.txt", 5, func(s string) bool { return s == "..." }},
		{"keeps file name", "/home/user/projects/fileflow/internal/ui/progress.go", 40, func(s string) bool {
			return len(s) <= 40 && strings.HasSuffix(s, "progress.go")
		}},
		{"long file name", "/x/" + strings.Repeat("n", 50) + ".txt", 20, func(s string) bool {
			return len(s) <= 20 && strings.HasPrefix(s, "...") && strings.HasSuffix(s, ".txt")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncatePath(tt.path, tt.width)
			if !tt.check(got) {
				t.Errorf("TruncatePath(%q, %d) = %q", tt.path, tt.width, got)
			}
		})
	}
}

func TestTerminalHelpersWithoutTTY(t *testing.T) {
	if IsTerminal(nil) {
		t.Error("nil file is not a terminal")
	}
	if TerminalWidth(nil) != DefaultWidth {
		t.Error("nil file should fall back to the default width")
	}
}

// ===== Confirm =====

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"sure\n", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got, err := Confirm(strings.NewReader(tt.input), &out, "Delete 3 files?")
		if err != nil {
			t.Fatalf("Confirm(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Delete 3 files?") {
			t.Errorf("question not printed: %q", out.String())
		}
	}
}

// ===== Progress model =====

func TestProgressModelFollowsEvents(t *testing.T) {
	events := make(chan *progress.Event, 1)
	m := NewProgressModel("Organizing", events, 100)

	if !strings.Contains(m.View(), "starting") {
		t.Errorf("initial view = %q", m.View())
	}

	next, cmd := m.Update(eventMsg{event: &progress.Event{
		Phase:   progress.PhaseMoving,
		Current: "/data/a.jpg",
		Done:    2,
		Total:   4,
	}})
	if cmd == nil {
		t.Error("model must keep listening for events")
	}
	view := next.View()
	for _, want := range []string{"Organizing", string(progress.PhaseMoving), "2/4", "/data/a.jpg"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	final, cmd := next.Update(doneMsg{err: errors.New("boom")})
	if cmd == nil {
		t.Error("done must quit the program")
	}
	fm := final.(ProgressModel)
	if !fm.done || fm.err == nil || fm.View() != "" {
		t.Errorf("unexpected final model: done=%v err=%v view=%q", fm.done, fm.err, fm.View())
	}
}

func TestProgressModelInterrupt(t *testing.T) {
	m := NewProgressModel("Sweeping", make(chan *progress.Event), 80)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || !next.(ProgressModel).interrupted {
		t.Error("ctrl+c should interrupt")
	}
}

func TestProgressModelClosedSubscription(t *testing.T) {
	events := make(chan *progress.Event)
	close(events)
	if msg := waitForEvent(events)(); msg != nil {
		t.Errorf("closed subscription should yield no message, got %v", msg)
	}
}

func TestRunWithoutTerminal(t *testing.T) {
	called := false
	err := Run(context.Background(), progress.NewReporter(), nil, "scan", func(ctx context.Context) error {
		called = true
		return errors.New("done")
	})
	if !called || err == nil || err.Error() != "done" {
		t.Errorf("Run() = %v, called = %v", err, called)
	}
}
