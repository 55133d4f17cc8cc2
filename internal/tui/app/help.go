package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
)

func helpMarkdown(k KeyMap) string {
	var b strings.Builder
	b.WriteString("# Photobooth\n\n")
	section := func(title, intro string, keys ...key.Binding) {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n| key | action |\n|---|---|\n", title, intro)
		for _, kb := range keys {
			h := kb.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	section("Capture", "Strike a pose: each shot has a countdown and the filter is baked in.",
		k.Start, k.Retake, k.Done, k.Filter, k.Flip)
	section("Edit", "Decorate the strip, then save it as a PNG.",
		k.Template, k.Background, k.Caption, k.Export, k.NewSession)
	section("Stickers", "Stickers and drawing take turns; `m` switches between them.",
		k.AddSticker, k.NextItem, k.Remove, k.Up, k.Down, k.Left, k.Right)
	section("Drawing", "Move the cursor with the arrows. Strokes are drawn while the pen is down.",
		k.Pen, k.Brush, k.Color, k.Bigger, k.Smaller, k.Undo, k.Redo, k.Clear)
	section("General", "", k.Help, k.Debug, k.Escape, k.Quit)
	return b.String()
}

// renderHelp renders the key reference for a terminal width columns wide.
// It falls back to the raw markdown if rendering fails.
func renderHelp(k KeyMap, width int) string {
	md := helpMarkdown(k)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
