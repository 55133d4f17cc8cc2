package overlay

import (
	"fmt"
	"image/color"
)

// BrushKind selects how a stroke is painted. Every kind follows the same
// stroke path; only the paint parameters differ.
type BrushKind int

const (
	Regular BrushKind = iota
	Marker
	Neon
	Highlighter
	Spray
)

var brushNames = map[BrushKind]string{
	Regular:     "regular",
	Marker:      "marker",
	Neon:        "neon",
	Highlighter: "highlighter",
	Spray:       "spray",
}

var brushLabels = map[BrushKind]string{
	Regular:     "Regular Pen",
	Marker:      "Marker",
	Neon:        "Neon",
	Highlighter: "Highlighter",
	Spray:       "Spray",
}

func (k BrushKind) String() string {
	if s, ok := brushNames[k]; ok {
		return s
	}
	return fmt.Sprintf("brush(%d)", int(k))
}

// Label is the human-readable brush name.
func (k BrushKind) Label() string { return brushLabels[k] }

// BrushKinds lists the brushes in menu order.
func BrushKinds() []BrushKind {
	return []BrushKind{Regular, Marker, Neon, Highlighter, Spray}
}

// Next cycles to the following brush.
func (k BrushKind) Next() BrushKind { return (k + 1) % BrushKind(len(brushNames)) }

func ParseBrush(s string) (BrushKind, error) {
	if s == "" {
		return Regular, nil
	}
	for k, name := range brushNames {
		if name == s {
			return k, nil
		}
	}
	return Regular, fmt.Errorf("unknown brush %q", s)
}

func (k BrushKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *BrushKind) UnmarshalText(data []byte) error {
	v, err := ParseBrush(string(data))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Brush sizes are in base units before the canvas density is applied.
const (
	MinBrushSize = 1
	MaxBrushSize = 20
)

// Brush is the paint used for new strokes.
type Brush struct {
	Kind  BrushKind   `json:"kind"`
	Color color.NRGBA `json:"color"`
	Size  int         `json:"size"`
}

// DefaultBrush is a black 5-unit pen.
func DefaultBrush() Brush {
	return Brush{Kind: Regular, Color: color.NRGBA{A: 0xff}, Size: 5}
}

type paint struct {
	opacity float64
	width   float64
	glow    float64
	blend   Blend
}

func (b Brush) paint() paint {
	size := float64(clampSize(b.Size))
	switch b.Kind {
	case Marker:
		return paint{opacity: 0.4, width: size * 1.5, blend: Multiply}
	case Neon:
		return paint{opacity: 0.8, width: size * 0.8, glow: 20, blend: Screen}
	case Highlighter:
		return paint{opacity: 0.2, width: size * 3, blend: Overlay}
	case Spray:
		return paint{opacity: 0.2, width: size * 0.5, blend: SourceOver}
	default:
		return paint{opacity: 1, width: size, blend: SourceOver}
	}
}

func clampSize(n int) int {
	return max(MinBrushSize, min(MaxBrushSize, n))
}
