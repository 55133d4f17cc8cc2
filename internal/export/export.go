// Package export writes composed strips to PNG files.
package export

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/snapstrip/photobooth/internal/compose"
)

// DefaultScale is the supersampling multiplier applied to base units.
const DefaultScale = 4

var ErrNothingToExport = errors.New("export: nothing to export")

var stampReplacer = strings.NewReplacer(":", "-", ".", "-")

// FileName returns the download name for a strip exported at t, e.g.
// photobooth-strip-2024-05-01T10-20-30-123Z.png.
func FileName(t time.Time) string {
	return "photobooth-strip-" + stampReplacer.Replace(t.UTC().Format("2006-01-02T15:04:05.000Z")) + ".png"
}

// Exporter renders compositions and writes them into Dir.
type Exporter struct {
	Dir   string
	Scale float64
	Now   func() time.Time

	log *zap.Logger
}

func New(dir string, scale float64, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{Dir: dir, Scale: scale, Now: time.Now, log: log.Named("export")}
}

func (e *Exporter) scale() float64 {
	if e.Scale <= 0 {
		return DefaultScale
	}
	return e.Scale
}

// Export renders c and writes it to a new file in Dir, returning its path.
// The file appears only once it is fully written.
func (e *Exporter) Export(ctx context.Context, c compose.Composition) (string, error) {
	if c.Count(compose.LayerPhoto) == 0 {
		return "", ErrNothingToExport
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	img, err := compose.Render(c, e.scale())
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".photobooth-*.tmp")
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := png.Encode(tmp, img); err != nil {
		return "", fmt.Errorf("export: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	path := filepath.Join(dir, FileName(now()))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	committed = true

	e.log.Info("strip exported", zap.String("path", path), zap.Stringer("size", img.Bounds().Size()))
	return path, nil
}

// WritePNG renders c and streams it to w.
func (e *Exporter) WritePNG(w io.Writer, c compose.Composition) error {
	img, err := compose.Render(c, e.scale())
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return png.Encode(w, img)
}
