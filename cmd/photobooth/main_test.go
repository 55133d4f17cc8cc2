package main

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapstrip/photobooth/internal/config"
	"github.com/snapstrip/photobooth/internal/overlay"
	"github.com/snapstrip/photobooth/internal/session"
	"github.com/snapstrip/photobooth/internal/timeline"
)

var timeOrigin = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func writeTestImage(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	require.NoError(t, writePNG(path, img))
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestFilterCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	writeTestImage(t, in, color.NRGBA{R: 200, G: 40, B: 40, A: 255})

	msg := execute(t, "filter", in, out, "--filter", "grayscale")
	assert.Contains(t, msg, "(grayscale)")

	img, err := readImage(out)
	require.NoError(t, err)
	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	var inputs []string
	for i, c := range []color.NRGBA{{R: 255, A: 255}, {G: 255, A: 255}} {
		p := filepath.Join(dir, "shot"+string(rune('a'+i))+".png")
		writeTestImage(t, p, c)
		inputs = append(inputs, p)
	}
	out := filepath.Join(dir, "strip.png")
	args := append([]string{"render", "--scale", "1", "--sticker", "⭐@10,10", "-o", out}, inputs...)
	assert.Equal(t, out+"\n", execute(t, args...))

	img, err := readImage(out)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Edit.Width, img.Bounds().Dx())
}

func TestParseSticker(t *testing.T) {
	tests := []struct {
		in      string
		glyph   string
		pos     overlay.Position
		wantErr bool
	}{
		{in: "💖", glyph: "💖", pos: overlay.Center},
		{in: "💖@20,30", glyph: "💖", pos: overlay.Position{X: 20, Y: 30}},
		{in: "⭐@150,-5", glyph: "⭐", pos: overlay.Position{X: 100, Y: 0}},
		{in: "⭐@x,1", wantErr: true},
		{in: "⭐@12", wantErr: true},
		{in: "@1,2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			st, err := parseSticker(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.glyph, st.Glyph)
			assert.Equal(t, tt.pos, st.Position)
			assert.NotEmpty(t, st.ID)
		})
	}
}

func TestNewBooth(t *testing.T) {
	cfg := config.Default()
	cfg.Export.Dir = t.TempDir()
	b, err := newBooth(cfg, timeline.NewManual(timeOrigin), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, session.AwaitingPermission, b.ctrl.Phase())
	assert.Equal(t, cfg.Export.Dir, b.exp.Dir)

	cfg.Camera.Facing = "sideways"
	_, err = newBooth(cfg, timeline.NewManual(timeOrigin), nil, nil)
	assert.Error(t, err)
}

func TestLoadConfigMissingDefault(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}
