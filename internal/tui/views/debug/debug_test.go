package debug

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func fill(m *Model, n int) {
	for i := 0; i < n; i++ {
		m.Add(KindEvent, fmt.Sprintf("msg %d", i))
	}
}

func TestAddCollapsesRepeats(t *testing.T) {
	m := New()
	m.Add(KindCamera, "camera live")
	m.Add(KindCamera, "camera live")
	m.Add(KindEvent, "camera live")
	if len(m.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m.Entries))
	}
	if m.Entries[0].Repeat != 2 {
		t.Errorf("repeat = %d, want 2", m.Entries[0].Repeat)
	}
	if got := m.Counts()[KindCamera]; got != 2 {
		t.Errorf("camera count = %d, want 2", got)
	}
	if !strings.Contains(m.View(80, 20), "camera live ×2") {
		t.Error("view should show the repeat count")
	}
}

func TestMaxEntries(t *testing.T) {
	m := New()
	fill(&m, maxEntries+50)
	if len(m.Entries) != maxEntries {
		t.Fatalf("expected %d entries, got %d", maxEntries, len(m.Entries))
	}
	if m.Entries[0].Message != "msg 50" {
		t.Errorf("oldest entry = %q, want %q", m.Entries[0].Message, "msg 50")
	}
}

func TestScroll(t *testing.T) {
	tests := []struct {
		name  string
		up    int
		down  int
		want  int
		count int
	}{
		{name: "up", up: 5, want: 5, count: 20},
		{name: "up then down", up: 5, down: 3, want: 2, count: 20},
		{name: "floor at zero", up: 2, down: 10, want: 0, count: 20},
		{name: "capped at oldest", up: 100, want: 4, count: 5},
		{name: "empty", up: 3, want: 0, count: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			fill(&m, tt.count)
			m.ScrollUp(tt.up)
			m.ScrollDown(tt.down)
			if m.Offset != tt.want {
				t.Errorf("offset = %d, want %d", m.Offset, tt.want)
			}
		})
	}
}

func TestAddResetsScroll(t *testing.T) {
	m := New()
	fill(&m, 10)
	m.ScrollUp(5)
	m.Add(KindEvent, "new")
	if m.Offset != 0 {
		t.Error("adding an entry should jump to the newest line")
	}
}

func TestErrorsOnly(t *testing.T) {
	m := New()
	m.Add(KindCamera, "camera acquired")
	m.Add(KindError, "export failed")
	m.ToggleErrors()
	v := m.View(80, 20)
	if strings.Contains(v, "camera acquired") {
		t.Error("errors-only view should hide camera entries")
	}
	if !strings.Contains(v, "export failed") || !strings.Contains(v, "errors only") {
		t.Error("errors-only view should show errors and its marker")
	}
	m.ToggleErrors()
	if !strings.Contains(m.View(80, 20), "camera acquired") {
		t.Error("toggling back should show every entry")
	}
}

func TestViewEmpty(t *testing.T) {
	m := New()
	if !strings.Contains(m.View(80, 20), "Nothing logged yet.") {
		t.Error("empty view should say nothing was logged")
	}
}

func TestRelativeStamps(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := New()
	m.Now = func() time.Time { return at }
	m.Add(KindEvent, "phase capturing")
	at = at.Add(2500 * time.Millisecond)
	m.Add(KindExport, "saved")
	v := m.View(80, 20)
	for _, want := range []string{"+   0.0s", "+   2.5s"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}
