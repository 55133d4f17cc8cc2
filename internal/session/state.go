package session

import (
	"encoding/json"
	"maps"
	"slices"
	"time"

	"github.com/snapstrip/photobooth/internal/camera"
	"github.com/snapstrip/photobooth/internal/capture"
	"github.com/snapstrip/photobooth/internal/overlay"
)

// Phase is the booth's top-level screen.
type Phase int

const (
	AwaitingPermission Phase = iota
	Capturing
	Editing
)

var phaseNames = map[Phase]string{
	AwaitingPermission: "awaiting_permission",
	Capturing:          "capturing",
	Editing:            "editing",
}

var phaseFromName = map[string]Phase{
	"awaiting_permission": AwaitingPermission,
	"capturing":           Capturing,
	"editing":             Editing,
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, ok := phaseFromName[s]; ok {
		*p = v
	}
	return nil
}

// State is the snapshot published to observers after every change.
type State struct {
	Phase            Phase            `json:"phase"`
	Capture          capture.Snapshot `json:"capture"`
	Facing           camera.Facing    `json:"facing"`
	CameraLive       bool             `json:"cameraLive"`
	PermissionDenied bool             `json:"permissionDenied,omitempty"`
	Edit             *EditState       `json:"edit,omitempty"`
	LastExport       string           `json:"lastExport,omitempty"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// EditState describes the edit session without its rasters.
type EditState struct {
	Template   string            `json:"template"`
	Background string            `json:"background"`
	Text       map[string]string `json:"text"`
	Stickers   []overlay.Sticker `json:"stickers"`
	Brush      overlay.Brush     `json:"brush"`
	Mode       Mode              `json:"mode"`
	CanUndo    bool              `json:"canUndo"`
	CanRedo    bool              `json:"canRedo"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
}

// Clone returns a deep copy of the State, duplicating slice and map fields
// so the copy can be mutated independently of the original. Photos are
// immutable and stay shared.
func (s *State) Clone() *State {
	c := *s
	c.Capture.Photos = slices.Clone(s.Capture.Photos)
	if s.Edit != nil {
		e := *s.Edit
		e.Text = maps.Clone(s.Edit.Text)
		e.Stickers = slices.Clone(s.Edit.Stickers)
		c.Edit = &e
	}
	return &c
}

// PhotoCount returns how many photos have been taken.
func (s *State) PhotoCount() int {
	return len(s.Capture.Photos)
}
