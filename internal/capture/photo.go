package capture

import (
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/snapstrip/photobooth/internal/filter"
)

// Photo is one captured frame with its filter baked in. Photos are never
// modified after capture, so they are shared by pointer.
type Photo struct {
	ID      string       `json:"id"`
	Image   *image.NRGBA `json:"-"`
	Filter  filter.Kind  `json:"filter"`
	TakenAt time.Time    `json:"takenAt"`
}

func newPhoto(frame image.Image, k filter.Kind, at time.Time) *Photo {
	return &Photo{
		ID:      uuid.NewString(),
		Image:   filter.Filtered(frame, k),
		Filter:  k,
		TakenAt: at,
	}
}
