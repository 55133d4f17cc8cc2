package ws

import (
	"github.com/snapstrip/photobooth/internal/capture"
	"github.com/snapstrip/photobooth/internal/session"
)

type MessageType string

const (
	MsgSnapshot  MessageType = "snapshot"
	MsgCountdown MessageType = "countdown"
	MsgCaptured  MessageType = "captured"
	MsgPhase     MessageType = "phase"
	MsgExported  MessageType = "exported"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

type SnapshotPayload struct {
	State *session.State `json:"state"`
}

type CountdownPayload struct {
	Countdown int `json:"countdown"`
	Shot      int `json:"shot"`
	MaxPhotos int `json:"maxPhotos"`
}

type CapturedPayload struct {
	Photo *capture.Photo `json:"photo"`
	Index int            `json:"index"`
	Count int            `json:"count"`
}

type PhasePayload struct {
	Phase session.Phase `json:"phase"`
}

type ExportedPayload struct {
	Path string `json:"path"`
}

// messageFor converts a session event to its wire message. Plain updates
// have no message of their own; they reach clients as throttled snapshots.
func messageFor(ev session.Event) (WSMessage, bool) {
	s := ev.State
	switch ev.Type {
	case session.EventCountdown:
		return WSMessage{Type: MsgCountdown, Payload: CountdownPayload{
			Countdown: s.Capture.Countdown,
			Shot:      s.Capture.Shot,
			MaxPhotos: s.Capture.MaxPhotos,
		}}, true
	case session.EventCaptured:
		n := len(s.Capture.Photos)
		if n == 0 {
			return WSMessage{}, false
		}
		return WSMessage{Type: MsgCaptured, Payload: CapturedPayload{
			Photo: s.Capture.Photos[n-1],
			Index: n - 1,
			Count: n,
		}}, true
	case session.EventPhase:
		return WSMessage{Type: MsgPhase, Payload: PhasePayload{Phase: s.Phase}}, true
	case session.EventExported:
		return WSMessage{Type: MsgExported, Payload: ExportedPayload{Path: ev.Path}}, true
	}
	return WSMessage{}, false
}
