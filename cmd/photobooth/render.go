package main

import (
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/snapstrip/photobooth/internal/catalog"
	"github.com/snapstrip/photobooth/internal/compose"
	"github.com/snapstrip/photobooth/internal/export"
	"github.com/snapstrip/photobooth/internal/filter"
	"github.com/snapstrip/photobooth/internal/overlay"
)

var renderOpts struct {
	template   string
	background string
	filter     string
	text       map[string]string
	stickers   []string
	scale      int
	out        string
}

var renderCmd = &cobra.Command{
	Use:   "render <image>...",
	Short: "Compose still images into a strip without the camera",
	Example: `  photobooth render a.jpg b.jpg c.jpg d.jpg --template polaroid -o strip.png
  photobooth render *.png --text title="Best day" --sticker "💖@20,30"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOpts.template, "template", "t", "", "template id (default from config)")
	f.StringVarP(&renderOpts.background, "background", "b", "", "background id (default from config)")
	f.StringVarP(&renderOpts.filter, "filter", "f", "none", "filter applied to every image")
	f.StringToStringVar(&renderOpts.text, "text", nil, "caption overrides as id=value")
	f.StringArrayVar(&renderOpts.stickers, "sticker", nil, "sticker as glyph@x,y in percent; repeatable")
	f.IntVar(&renderOpts.scale, "scale", 0, "pixels per base unit (default from config)")
	f.StringVarP(&renderOpts.out, "out", "o", "", "output file (default: a new file in export.dir)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cat := catalog.Default()
	tplID := firstNonEmpty(renderOpts.template, cfg.Edit.Template)
	tpl, ok := cat.Template(tplID)
	if !ok {
		return fmt.Errorf("unknown template %q", tplID)
	}
	bgID := firstNonEmpty(renderOpts.background, cfg.Edit.Background)
	bg, ok := cat.Background(bgID)
	if !ok {
		return fmt.Errorf("unknown background %q", bgID)
	}
	k, err := filter.ParseKind(renderOpts.filter)
	if err != nil {
		return err
	}
	stickers := make([]overlay.Sticker, 0, len(renderOpts.stickers))
	for _, s := range renderOpts.stickers {
		st, err := parseSticker(s)
		if err != nil {
			return err
		}
		stickers = append(stickers, st)
	}

	photos := make([]image.Image, 0, len(args))
	for _, path := range args {
		img, err := readImage(path)
		if err != nil {
			return err
		}
		photos = append(photos, filter.Filtered(img, k))
	}

	comp := compose.Layout(compose.Input{
		Template:   tpl,
		Background: bg,
		Photos:     photos,
		Text:       renderOpts.text,
		Stickers:   stickers,
		Catalog:    cat,
		Width:      cfg.Edit.Width,
	})

	scale := cfg.Export.Scale
	if renderOpts.scale > 0 {
		scale = renderOpts.scale
	}
	log, err := newLogger("")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	exp := export.New(cfg.Export.Dir, float64(scale), log)

	path := renderOpts.out
	if path == "" {
		path, err = exp.Export(cmd.Context(), comp)
		if err != nil {
			return err
		}
	} else if err := writeStrip(exp, path, comp); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func writeStrip(exp *export.Exporter, path string, comp compose.Composition) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exp.WritePNG(f, comp); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// parseSticker reads "glyph@x,y". Without a position the sticker is centered.
func parseSticker(s string) (overlay.Sticker, error) {
	st := overlay.Sticker{ID: uuid.NewString(), Glyph: s, Position: overlay.Center}
	glyph, pos, found := strings.Cut(s, "@")
	if !found {
		return st, nil
	}
	xs, ys, ok := strings.Cut(pos, ",")
	if !ok || glyph == "" {
		return st, fmt.Errorf("sticker %q: want glyph@x,y", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return st, fmt.Errorf("sticker %q: invalid position", s)
	}
	st.Glyph = glyph
	st.Position = overlay.Position{X: x, Y: y}.Clamp()
	return st, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
