package catalog

import (
	"encoding/json"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Len(t, c.Templates, 11)
	assert.Len(t, c.Backgrounds, 12)
	assert.Len(t, c.AllStickers(), 45)

	tpl, ok := c.Template("magazine-cover")
	require.True(t, ok)
	assert.Equal(t, 1, tpl.Columns)
	require.NotNil(t, tpl.Overlay)
	require.Len(t, tpl.Text, 3)
	assert.Equal(t, "VOGUE", tpl.Text[0].Text)
	assert.Equal(t, AnchorTop, tpl.Text[0].Anchor)
	assert.Equal(t, AlignCenter, tpl.Text[0].Align, "align defaults to center")

	collage, ok := c.Template("polaroid-collage")
	require.True(t, ok)
	assert.Equal(t, 2, collage.Columns)

	bg, ok := c.Background("white")
	require.True(t, ok)
	assert.True(t, bg.Solid())
	sunset, _ := c.Background("gradient2")
	assert.False(t, sunset.Solid())

	_, ok = c.Template("nope")
	assert.False(t, ok)
	assert.Equal(t, -1, c.TemplateIndex("nope"))
	assert.Equal(t, 0, c.BackgroundIndex("white"))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#ffffff", color.NRGBA{255, 255, 255, 255}, true},
		{"#00000080", color.NRGBA{0, 0, 0, 128}, true},
		{"ec4899", color.NRGBA{0xec, 0x48, 0x99, 255}, true},
		{"#fff", color.NRGBA{}, false},
		{"#zzzzzz", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.NRGBA(), tt.in)
	}
}

func TestColorJSON(t *testing.T) {
	c, err := ParseColor("#11223344")
	require.NoError(t, err)
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `"#11223344"`, string(data))

	opaque, _ := ParseColor("#112233")
	data, _ = json.Marshal(opaque)
	assert.JSONEq(t, `"#112233"`, string(data))
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte(`
templates:
  - {id: a}
  - {id: a}
backgrounds:
  - {id: white, from: "#ffffff"}
`))
	assert.Error(t, err)

	_, err = Parse([]byte(`backgrounds: [{id: white, from: "#ffffff"}]`))
	assert.Error(t, err)
}

func TestStickerStyle(t *testing.T) {
	c := Default()

	blue := c.StickerStyle("💙")
	assert.Equal(t, "heart", blue.Shape)
	assert.Equal(t, "#3b82f6", blue.Color.String())
	assert.Equal(t, "<3", blue.Label)

	assert.Equal(t, "star", c.StickerStyle("🔥").Shape)
	assert.Equal(t, "flower", c.StickerStyle("🌸").Shape)

	unknown := c.StickerStyle("🐙")
	assert.Equal(t, "badge", unknown.Shape)
	assert.False(t, unknown.Color.IsZero())
	assert.Empty(t, unknown.Label)
}
