// Package catalog holds the static template, background and sticker tables
// the editor offers. The tables ship embedded in the binary as YAML.
package catalog

import (
	_ "embed"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// Color is a hex-encoded NRGBA color ("#rrggbb" or "#rrggbbaa").
type Color color.NRGBA

// ParseColor decodes a hex color.
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func (c Color) String() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// NRGBA returns c as a standard library color.
func (c Color) NRGBA() color.NRGBA { return color.NRGBA(c) }

// IsZero reports whether c is fully transparent black, the unset value.
func (c Color) IsZero() bool { return c == Color{} }

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(data []byte) error {
	v, err := ParseColor(string(data))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Anchor positions a text field vertically.
type Anchor string

const (
	AnchorTop    Anchor = "top"
	AnchorMiddle Anchor = "middle"
	AnchorBottom Anchor = "bottom"
)

// Align positions a text field horizontally.
type Align string

const (
	AlignCenter Align = "center"
	AlignLeft   Align = "left"
	AlignRight  Align = "right"
)

// Frame styles the box each photo sits in.
type Frame struct {
	Padding     int     `yaml:"padding" json:"padding"`
	Fill        Color   `yaml:"fill" json:"fill"`
	Gradient    []Color `yaml:"gradient" json:"gradient,omitempty"`
	Border      int     `yaml:"border" json:"border"`
	BorderColor Color   `yaml:"border_color" json:"borderColor"`
	Radius      int     `yaml:"radius" json:"radius"`
	Shadow      bool    `yaml:"shadow" json:"shadow"`
}

// Overlay is a vertical gradient laid over each photo.
type Overlay struct {
	From Color `yaml:"from" json:"from"`
	To   Color `yaml:"to" json:"to"`
}

// TextField is an editable caption printed on the template.
type TextField struct {
	ID          string `yaml:"id" json:"id"`
	Text        string `yaml:"text" json:"text"`
	Placeholder string `yaml:"placeholder" json:"placeholder"`
	Anchor      Anchor `yaml:"anchor" json:"anchor"`
	Offset      int    `yaml:"offset" json:"offset"`
	Size        int    `yaml:"size" json:"size"`
	Align       Align  `yaml:"align" json:"align"`
	Color       Color  `yaml:"color" json:"color"`
	Outline     Color  `yaml:"outline" json:"outline,omitempty"`
	Bubble      Color  `yaml:"bubble" json:"bubble,omitempty"`
}

// Template is a named layout and styling preset.
type Template struct {
	ID      string      `yaml:"id" json:"id"`
	Name    string      `yaml:"name" json:"name"`
	Preview string      `yaml:"preview" json:"preview"`
	Columns int         `yaml:"columns" json:"columns"`
	Gap     int         `yaml:"gap" json:"gap"`
	Padding int         `yaml:"padding" json:"padding"`
	Frame   Frame       `yaml:"frame" json:"frame"`
	Overlay *Overlay    `yaml:"overlay" json:"overlay,omitempty"`
	Text    []TextField `yaml:"text" json:"text,omitempty"`
}

// Background is a solid color or a left-to-right gradient.
type Background struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	From  Color  `yaml:"from" json:"from"`
	To    Color  `yaml:"to" json:"to,omitempty"`
}

// Solid reports whether the background has a single color.
func (b Background) Solid() bool { return b.To.IsZero() }

// StickerGroup is a themed row of sticker glyphs. Shape and Colors drive
// the vector badge drawn for each glyph.
type StickerGroup struct {
	Group  string   `yaml:"group" json:"group"`
	Shape  string   `yaml:"shape" json:"shape"`
	Label  string   `yaml:"label" json:"label"`
	Colors []Color  `yaml:"colors" json:"colors"`
	Glyphs []string `yaml:"glyphs" json:"glyphs"`
}

// StickerStyle describes how a glyph is drawn.
type StickerStyle struct {
	Shape string
	Color Color
	Label string // ASCII stand-in printed on the badge
}

// Catalog is the full set of static editor tables.
type Catalog struct {
	Templates   []Template     `yaml:"templates" json:"templates"`
	Backgrounds []Background   `yaml:"backgrounds" json:"backgrounds"`
	Stickers    []StickerGroup `yaml:"stickers" json:"stickers"`
}

// Parse decodes a catalog document and fills in defaults.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if len(c.Templates) == 0 {
		return nil, fmt.Errorf("catalog: no templates")
	}
	if len(c.Backgrounds) == 0 {
		return nil, fmt.Errorf("catalog: no backgrounds")
	}
	for i := range c.Stickers {
		if c.Stickers[i].Shape == "" {
			c.Stickers[i].Shape = "badge"
		}
	}
	seen := make(map[string]bool)
	for i := range c.Templates {
		t := &c.Templates[i]
		if t.ID == "" || seen[t.ID] {
			return nil, fmt.Errorf("catalog: missing or duplicate template id %q", t.ID)
		}
		seen[t.ID] = true
		if t.Columns <= 0 {
			t.Columns = 1
		}
		for j := range t.Text {
			f := &t.Text[j]
			if f.Anchor == "" {
				f.Anchor = AnchorBottom
			}
			if f.Align == "" {
				f.Align = AlignCenter
			}
			if f.Size <= 0 {
				f.Size = 1
			}
		}
	}
	return &c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}

// Template looks up a template by id.
func (c *Catalog) Template(id string) (Template, bool) {
	for _, t := range c.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Background looks up a background by id.
func (c *Catalog) Background(id string) (Background, bool) {
	for _, b := range c.Backgrounds {
		if b.ID == id {
			return b, true
		}
	}
	return Background{}, false
}

// AllStickers returns every sticker glyph in catalog order.
func (c *Catalog) AllStickers() []string {
	var out []string
	for _, g := range c.Stickers {
		out = append(out, g.Glyphs...)
	}
	return out
}

// StickerStyle returns the badge shape and color for glyph. Unknown glyphs
// get a neutral badge.
func (c *Catalog) StickerStyle(glyph string) StickerStyle {
	for _, g := range c.Stickers {
		for i, gl := range g.Glyphs {
			if gl != glyph {
				continue
			}
			st := StickerStyle{Shape: g.Shape, Color: neutral, Label: g.Label}
			if len(g.Colors) > 0 {
				st.Color = g.Colors[i%len(g.Colors)]
			}
			return st
		}
	}
	return StickerStyle{Shape: "badge", Color: neutral}
}

var neutral = Color{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}

// TemplateIndex returns the position of id in Templates, or -1.
func (c *Catalog) TemplateIndex(id string) int {
	for i, t := range c.Templates {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// BackgroundIndex returns the position of id in Backgrounds, or -1.
func (c *Catalog) BackgroundIndex(id string) int {
	for i, b := range c.Backgrounds {
		if b.ID == id {
			return i
		}
	}
	return -1
}
