package session

import (
	"encoding/json"
	"testing"

	"github.com/snapstrip/photobooth/internal/capture"
	"github.com/snapstrip/photobooth/internal/overlay"
)

func TestPhaseMarshalJSON(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{AwaitingPermission, `"awaiting_permission"`},
		{Capturing, `"capturing"`},
		{Editing, `"editing"`},
		{Phase(99), `"unknown"`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.phase)
		if err != nil {
			t.Errorf("Marshal(%v) error: %v", tt.phase, err)
			continue
		}
		if string(data) != tt.expected {
			t.Errorf("Marshal(%v) = %s, want %s", tt.phase, data, tt.expected)
		}
	}
}

func TestPhaseUnmarshalJSON(t *testing.T) {
	tests := []struct {
		input    string
		expected Phase
	}{
		{`"awaiting_permission"`, AwaitingPermission},
		{`"capturing"`, Capturing},
		{`"editing"`, Editing},
		{`"bogus"`, AwaitingPermission}, // unknown names leave the zero value
	}

	for _, tt := range tests {
		var p Phase
		if err := json.Unmarshal([]byte(tt.input), &p); err != nil {
			t.Errorf("Unmarshal(%s) error: %v", tt.input, err)
			continue
		}
		if p != tt.expected {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, p, tt.expected)
		}
	}
}

func TestModeJSON(t *testing.T) {
	data, err := json.Marshal(ModeDraw)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"draw"` {
		t.Errorf("Marshal(ModeDraw) = %s", data)
	}
	var m Mode
	if err := json.Unmarshal([]byte(`"stickers"`), &m); err != nil || m != ModeStickers {
		t.Errorf("Unmarshal(stickers) = %v, %v", m, err)
	}
}

func TestStateClone(t *testing.T) {
	orig := &State{
		Phase:   Editing,
		Capture: capture.Snapshot{Photos: []*capture.Photo{{ID: "p1"}}},
		Edit: &EditState{
			Template: "polaroid",
			Text:     map[string]string{"title": "hi"},
			Stickers: []overlay.Sticker{{ID: "s1"}},
		},
	}

	c := orig.Clone()
	c.Capture.Photos[0] = &capture.Photo{ID: "other"}
	c.Edit.Text["title"] = "changed"
	c.Edit.Stickers[0].ID = "changed"
	c.Edit.Template = "minimal"

	if orig.Capture.Photos[0].ID != "p1" {
		t.Error("Clone shares the photo slice")
	}
	if orig.Edit.Text["title"] != "hi" {
		t.Error("Clone shares the text map")
	}
	if orig.Edit.Stickers[0].ID != "s1" {
		t.Error("Clone shares the sticker slice")
	}
	if orig.Edit.Template != "polaroid" {
		t.Error("Clone shares the edit state")
	}
}

func TestStoreReturnsCopy(t *testing.T) {
	s := NewStore()
	if got := s.Get(); got.Phase != AwaitingPermission {
		t.Errorf("new store phase = %v", got.Phase)
	}

	s.Update(&State{Phase: Capturing, Edit: &EditState{Template: "original"}})
	if s.Version() != 1 {
		t.Errorf("Version() = %d, want 1", s.Version())
	}

	got := s.Get()
	got.Edit.Template = "mutated"
	if s.Get().Edit.Template != "original" {
		t.Error("Get did not return a copy; mutation leaked into store")
	}
}

func TestStoreUpdateStoresCopy(t *testing.T) {
	s := NewStore()
	st := &State{Phase: Capturing}
	s.Update(st)
	st.Phase = Editing
	if s.Get().Phase != Capturing {
		t.Error("Update did not store a copy; caller mutation leaked into store")
	}
}

func TestEventTypeString(t *testing.T) {
	if EventExported.String() != "exported" || EventType(42).String() != "unknown" {
		t.Errorf("unexpected event names %q %q", EventExported, EventType(42))
	}
}
