package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/webp"
)

// Directory is a Device that replays still images from a folder, oldest name
// first, one per Grab. It serves tethered cameras that drop shots into a hot
// folder as well as scripted kiosk demos.
type Directory struct {
	Path string
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

func (d *Directory) Open(ctx context.Context, _ Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, d.Path)
		}
		return nil, fmt.Errorf("camera: open %s: %w", d.Path, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(d.Path, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("camera: no images in %s", d.Path)
	}
	sort.Strings(files)
	return &directoryStream{trackSet: newTrackSet(1), files: files}, nil
}

type directoryStream struct {
	*trackSet
	mu    sync.Mutex
	files []string
	next  int
}

func (s *directoryStream) Ready(ctx context.Context) error {
	return ctx.Err()
}

func (s *directoryStream) Grab() (image.Image, error) {
	if !s.live() {
		return nil, ErrNotReady
	}
	s.mu.Lock()
	path := s.files[s.next%len(s.files)]
	s.next++
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("camera: decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
