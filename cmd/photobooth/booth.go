package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/snapstrip/photobooth/internal/camera"
	"github.com/snapstrip/photobooth/internal/capture"
	"github.com/snapstrip/photobooth/internal/catalog"
	"github.com/snapstrip/photobooth/internal/config"
	"github.com/snapstrip/photobooth/internal/export"
	"github.com/snapstrip/photobooth/internal/filter"
	"github.com/snapstrip/photobooth/internal/overlay"
	"github.com/snapstrip/photobooth/internal/session"
	"github.com/snapstrip/photobooth/internal/timeline"
)

// booth is the controller and the parts it was assembled from.
type booth struct {
	ctrl *session.Controller
	cam  *camera.Manager
	exp  *export.Exporter
	cat  *catalog.Catalog
}

func newDevice(c config.CameraConfig) camera.Device {
	switch c.Device {
	case "dir":
		return &camera.Directory{Path: c.Dir}
	case "denied":
		return camera.Denied{}
	default:
		return &camera.Synthetic{}
	}
}

// newBooth builds a controller from cfg. It must be used from tl's
// goroutine afterwards.
func newBooth(cfg *config.Config, tl timeline.Timeline, rec session.Recorder, log *zap.Logger) (*booth, error) {
	facing, err := camera.ParseFacing(cfg.Camera.Facing)
	if err != nil {
		return nil, err
	}
	k, err := filter.ParseKind(cfg.Capture.Filter)
	if err != nil {
		return nil, err
	}
	brushKind, err := overlay.ParseBrush(cfg.Edit.Brush)
	if err != nil {
		return nil, err
	}
	color, err := catalog.ParseColor(cfg.Edit.Color)
	if err != nil {
		return nil, fmt.Errorf("edit.color: %w", err)
	}

	cat := catalog.Default()
	dev := newDevice(cfg.Camera)
	cons := camera.Constraints{Facing: facing, Width: cfg.Camera.Width, Height: cfg.Camera.Height}
	cam := camera.NewManager(dev, cons, log)
	exp := export.New(cfg.Export.Dir, float64(cfg.Export.Scale), log)

	ctrl := session.New(tl, dev, cam, exp, session.Options{
		Capture: capture.Config{
			MaxPhotos: cfg.Capture.MaxPhotos,
			Countdown: cfg.Capture.Countdown,
			Tick:      cfg.Capture.Tick,
			Pause:     cfg.Capture.Pause,
		},
		EditorDelay: cfg.Capture.EditorDelay,
		Filter:      k,
		Constraints: cons,
		Edit: session.EditOptions{
			Template:     cfg.Edit.Template,
			Background:   cfg.Edit.Background,
			Brush:        overlay.Brush{Kind: brushKind, Color: color.NRGBA(), Size: cfg.Edit.BrushSize},
			HistoryLimit: cfg.Edit.HistoryLimit,
			Width:        cfg.Edit.Width,
			Density:      cfg.Edit.Density,
		},
		Catalog:  cat,
		Recorder: rec,
	}, log)
	return &booth{ctrl: ctrl, cam: cam, exp: exp, cat: cat}, nil
}
