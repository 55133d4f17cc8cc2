// Package client talks to a running kiosk server over HTTP and WebSocket.
// Types mirror the server's wire format without importing its packages.
package client

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	MsgSnapshot  MessageType = "snapshot"
	MsgCountdown MessageType = "countdown"
	MsgCaptured  MessageType = "captured"
	MsgPhase     MessageType = "phase"
	MsgExported  MessageType = "exported"
)

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Photo describes a captured frame.
type Photo struct {
	ID      string    `json:"id"`
	Filter  string    `json:"filter"`
	TakenAt time.Time `json:"takenAt"`
}

// Capture mirrors the sequencer snapshot.
type Capture struct {
	State     string   `json:"state"`
	Photos    []*Photo `json:"photos"`
	Shot      int      `json:"shot"`
	Countdown int      `json:"countdown"`
	Counting  bool     `json:"counting"`
	Active    bool     `json:"active"`
	MaxPhotos int      `json:"maxPhotos"`
	Filter    string   `json:"filter"`
}

// Position is a sticker center in percent of the strip.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sticker is a placed glyph.
type Sticker struct {
	ID       string   `json:"id"`
	Glyph    string   `json:"glyph"`
	Position Position `json:"position"`
}

// Brush is the drawing brush.
type Brush struct {
	Kind string `json:"kind"`
	Size int    `json:"size"`
}

// Edit mirrors the editor state.
type Edit struct {
	Template   string            `json:"template"`
	Background string            `json:"background"`
	Text       map[string]string `json:"text"`
	Stickers   []Sticker         `json:"stickers"`
	Brush      Brush             `json:"brush"`
	Mode       string            `json:"mode"`
	CanUndo    bool              `json:"canUndo"`
	CanRedo    bool              `json:"canRedo"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
}

// State mirrors the booth state.
type State struct {
	Phase            string    `json:"phase"`
	Capture          Capture   `json:"capture"`
	Facing           string    `json:"facing"`
	CameraLive       bool      `json:"cameraLive"`
	PermissionDenied bool      `json:"permissionDenied,omitempty"`
	Edit             *Edit     `json:"edit,omitempty"`
	LastExport       string    `json:"lastExport,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// SnapshotPayload carries the full state.
type SnapshotPayload struct {
	State *State `json:"state"`
}

// CountdownPayload is sent on every countdown tick.
type CountdownPayload struct {
	Countdown int `json:"countdown"`
	Shot      int `json:"shot"`
	MaxPhotos int `json:"maxPhotos"`
}

// CapturedPayload announces a new photo.
type CapturedPayload struct {
	Photo *Photo `json:"photo"`
	Index int    `json:"index"`
	Count int    `json:"count"`
}

// PhasePayload announces a phase transition.
type PhasePayload struct {
	Phase string `json:"phase"`
}

// ExportedPayload carries the path of a saved strip.
type ExportedPayload struct {
	Path string `json:"path"`
}

// APIError is a non-2xx response.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// Describe renders a message as one human-readable line.
func Describe(msg WSMessage) string {
	switch msg.Type {
	case MsgSnapshot:
		var p SnapshotPayload
		if json.Unmarshal(msg.Payload, &p) == nil && p.State != nil {
			return fmt.Sprintf("snapshot: %s, %d/%d photos", p.State.Phase, len(p.State.Capture.Photos), p.State.Capture.MaxPhotos)
		}
	case MsgCountdown:
		var p CountdownPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return fmt.Sprintf("countdown: %d (shot %d of %d)", p.Countdown, p.Shot+1, p.MaxPhotos)
		}
	case MsgCaptured:
		var p CapturedPayload
		if json.Unmarshal(msg.Payload, &p) == nil && p.Photo != nil {
			return fmt.Sprintf("captured: photo %d (%s)", p.Index+1, p.Photo.Filter)
		}
	case MsgPhase:
		var p PhasePayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return "phase: " + p.Phase
		}
	case MsgExported:
		var p ExportedPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return "exported: " + p.Path
		}
	}
	return string(msg.Type) + ": " + string(msg.Payload)
}
