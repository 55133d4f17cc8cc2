package overlay

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawLine(c *Canvas, from, to Point) {
	c.BeginStroke(from)
	c.StrokeTo(Point{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2})
	c.StrokeTo(to)
	c.EndStroke()
}

func TestStrokePaintsAlongPath(t *testing.T) {
	c := NewCanvas(40, 40, 1)
	require.True(t, c.Empty())

	drawLine(c, Point{5, 20}, Point{35, 20})

	img := c.Image()
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(20, 20))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(5, 20), "round cap covers the start")
	assert.Equal(t, color.RGBA{}, img.RGBAAt(20, 5))
	assert.False(t, c.Empty())
}

func TestDensityScalesRaster(t *testing.T) {
	c := NewCanvas(40, 30, 2)
	assert.Equal(t, image.Pt(80, 60), c.Size())

	drawLine(c, Point{10, 15}, Point{30, 15})
	img := c.Image()
	assert.NotZero(t, img.RGBAAt(40, 30).A)
	assert.Zero(t, img.RGBAAt(40, 5).A)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	c := NewCanvas(50, 50, 1)
	lines := [][2]Point{
		{{5, 5}, {45, 5}},
		{{5, 25}, {45, 25}},
		{{5, 45}, {45, 45}},
	}
	var states [][]byte
	for _, l := range lines {
		drawLine(c, l[0], l[1])
		states = append(states, c.Image().Pix)
	}
	final := states[len(states)-1]

	for range lines {
		require.True(t, c.Undo())
	}
	assert.False(t, c.Undo())
	assert.True(t, c.Empty())

	for i := range lines {
		require.True(t, c.Redo())
		assert.True(t, bytes.Equal(states[i], c.Image().Pix), "redo %d", i)
	}
	assert.False(t, c.Redo())
	assert.True(t, bytes.Equal(final, c.Image().Pix))
}

func TestNewStrokeClearsRedo(t *testing.T) {
	c := NewCanvas(30, 30, 1)
	drawLine(c, Point{2, 2}, Point{28, 2})
	drawLine(c, Point{2, 15}, Point{28, 15})

	require.True(t, c.Undo())
	assert.True(t, c.CanRedo())

	drawLine(c, Point{2, 28}, Point{28, 28})
	assert.False(t, c.CanRedo())
	assert.False(t, c.Redo())
	assert.True(t, c.CanUndo())
}

func TestClearWipesHistory(t *testing.T) {
	c := NewCanvas(20, 20, 1)
	drawLine(c, Point{2, 10}, Point{18, 10})
	c.Undo()
	drawLine(c, Point{10, 2}, Point{10, 18})

	c.Clear()
	assert.True(t, c.Empty())
	assert.False(t, c.CanUndo())
	assert.False(t, c.CanRedo())
}

func TestHistoryLimit(t *testing.T) {
	c := NewCanvas(20, 20, 1)
	c.SetHistoryLimit(2)
	for i := 0; i < 5; i++ {
		drawLine(c, Point{2, float64(2 + 3*i)}, Point{18, float64(2 + 3*i)})
	}
	assert.True(t, c.Undo())
	assert.True(t, c.Undo())
	assert.False(t, c.Undo())
	assert.False(t, c.Empty(), "strokes older than the limit stay painted")
}

func TestUndoEndsStrokeInProgress(t *testing.T) {
	c := NewCanvas(20, 20, 1)
	c.BeginStroke(Point{5, 5})
	c.StrokeTo(Point{15, 5})
	require.True(t, c.Drawing())

	require.True(t, c.Undo())
	assert.False(t, c.Drawing())
	assert.True(t, c.Empty())
	assert.False(t, c.StrokeTo(Point{15, 15}))
}

func TestBrushSizeClamped(t *testing.T) {
	c := NewCanvas(10, 10, 1)
	c.SetBrush(Brush{Kind: Marker, Size: 99})
	assert.Equal(t, MaxBrushSize, c.Brush().Size)
	c.SetBrush(Brush{Kind: Marker, Size: 0})
	assert.Equal(t, MinBrushSize, c.Brush().Size)
}

func TestBrushPaint(t *testing.T) {
	tests := []struct {
		kind BrushKind
		want paint
	}{
		{Regular, paint{opacity: 1, width: 10, blend: SourceOver}},
		{Marker, paint{opacity: 0.4, width: 15, blend: Multiply}},
		{Neon, paint{opacity: 0.8, width: 8, glow: 20, blend: Screen}},
		{Highlighter, paint{opacity: 0.2, width: 30, blend: Overlay}},
		{Spray, paint{opacity: 0.2, width: 5, blend: SourceOver}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Brush{Kind: tt.kind, Size: 10}.paint())
		})
	}
}

func TestTranslucentBrushOnEmptyCanvas(t *testing.T) {
	c := NewCanvas(30, 30, 1)
	c.SetBrush(Brush{Kind: Marker, Color: color.NRGBA{R: 255, A: 255}, Size: 10})
	drawLine(c, Point{5, 15}, Point{25, 15})

	px := c.Image().RGBAAt(15, 15)
	assert.InDelta(t, 102, int(px.A), 1)
	assert.InDelta(t, 102, int(px.R), 1)
	assert.Zero(t, px.G)
}

func TestNeonGlowsPastStroke(t *testing.T) {
	c := NewCanvas(60, 60, 1)
	c.SetBrush(Brush{Kind: Neon, Color: color.NRGBA{G: 255, A: 255}, Size: 4})
	drawLine(c, Point{10, 30}, Point{50, 30})

	img := c.Image()
	assert.NotZero(t, img.RGBAAt(30, 30).A)
	assert.NotZero(t, img.RGBAAt(30, 36).A, "glow extends beyond the stroke width")
}

func TestParseBrush(t *testing.T) {
	for _, k := range BrushKinds() {
		got, err := ParseBrush(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseBrush("crayon")
	assert.Error(t, err)
	assert.Equal(t, Marker, Regular.Next())
	assert.Equal(t, Regular, Spray.Next())
}

func TestBlendMix(t *testing.T) {
	tests := []struct {
		mode   Blend
		cb, cs float64
		want   float64
	}{
		{SourceOver, 0.2, 0.7, 0.7},
		{Multiply, 0.5, 0.5, 0.25},
		{Screen, 0.5, 0.5, 0.75},
		{Overlay, 0.25, 0.5, 0.25},
		{Overlay, 0.75, 0.5, 0.75},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, tt.mode.mix(tt.cb, tt.cs), 1e-9)
	}
}
