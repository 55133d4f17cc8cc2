// Package app is the root Bubble Tea model of the booth TUI.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/snapstrip/photobooth/internal/capture"
	"github.com/snapstrip/photobooth/internal/catalog"
	"github.com/snapstrip/photobooth/internal/overlay"
	"github.com/snapstrip/photobooth/internal/session"
	"github.com/snapstrip/photobooth/internal/tui/theme"
	"github.com/snapstrip/photobooth/internal/tui/views/debug"
	"github.com/snapstrip/photobooth/internal/tui/views/detail"
	"github.com/snapstrip/photobooth/internal/tui/views/preview"
	"github.com/snapstrip/photobooth/internal/tui/views/status"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHelp
	OverlayDebug
	OverlayCaption
)

const (
	cursorStep   = 5.0 // base units
	nudgeStep    = 2.0 // percent of the strip
	flashFPS     = 60
	sidebarWidth = 44
	thumbCols    = 16
	thumbRows    = 6
)

var (
	brushColors = []color.NRGBA{
		{0, 0, 0, 255},
		{255, 255, 255, 255},
		{239, 68, 68, 255},
		{245, 158, 11, 255},
		{34, 197, 94, 255},
		{59, 130, 246, 255},
		{168, 85, 247, 255},
		{236, 72, 153, 255},
	}
	borderRGB = color.NRGBA{0x4b, 0x55, 0x63, 255}
	flashRGB  = color.NRGBA{0xf9, 0xfa, 0xfb, 255}
	cursorRGB = color.NRGBA{0x22, 0xd3, 0xee, 255}
)

type (
	frameMsg struct{ view string }
	stripMsg struct {
		view string
		err  error
	}
	thumbsMsg struct{ views []string }
	flashMsg  struct{}
	exportMsg struct {
		path string
		err  error
	}
)

// Options tunes the model.
type Options struct {
	// PreviewInterval is the camera preview refresh period.
	PreviewInterval time.Duration
	Catalog         *catalog.Catalog
}

// Model is the root Bubble Tea model.
type Model struct {
	booth    *Booth
	ctx      context.Context
	cancel   context.CancelFunc
	keys     KeyMap
	cat      *catalog.Catalog
	interval time.Duration

	width  int
	height int
	state  *session.State

	overlay   Overlay
	statusBar status.Model
	detail    detail.Model
	events    debug.Model
	help      string
	caption   textinput.Model
	field     string // caption being edited

	preview    string
	strip      string
	thumbs     []string
	rendering  bool
	stripDirty bool

	selected   string // sticker id
	stickerIdx int
	colorIdx   int
	textIdx    int
	cursor     overlay.Point
	penDown    bool

	spring   harmonica.Spring
	flash    float64
	flashVel float64
	flashing bool

	lastErr string
}

// New creates the root model.
func New(b *Booth, opts Options) Model {
	if opts.PreviewInterval <= 0 {
		opts.PreviewInterval = time.Second / 12
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	ti := textinput.New()
	ti.CharLimit = 40
	m := Model{
		booth:     b,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		cat:       opts.Catalog,
		interval:  opts.PreviewInterval,
		statusBar: status.New(),
		detail:    detail.New(opts.Catalog),
		events:    debug.New(),
		caption:   ti,
		spring:    harmonica.NewSpring(harmonica.FPS(flashFPS), 8.0, 1.0),
	}
	m.setState(b.State())
	return m
}

// Init starts listening for booth events and the preview ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.booth.Next(m.ctx), m.tickFrame())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		if m.overlay == OverlayHelp {
			m.help = renderHelp(m.keys, m.width)
		}
		return m, tea.Batch(m.requestStrip(), m.requestThumbs())

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		return m.handleEvent(session.Event(msg))

	case frameMsg:
		m.preview = msg.view
		return m, m.tickFrame()

	case stripMsg:
		m.rendering = false
		switch {
		case msg.err == nil:
			m.strip = msg.view
		case !errors.Is(msg.err, session.ErrWrongPhase):
			m.fail(msg.err)
		}
		if m.stripDirty {
			m.stripDirty = false
			return m, m.requestStrip()
		}
		return m, nil

	case thumbsMsg:
		m.thumbs = msg.views
		return m, nil

	case flashMsg:
		m.flash, m.flashVel = m.spring.Update(m.flash, m.flashVel, 0)
		if math.Abs(m.flash) < 0.01 && math.Abs(m.flashVel) < 0.01 {
			m.flash, m.flashVel, m.flashing = 0, 0, false
			return m, nil
		}
		return m, flashTick()

	case exportMsg:
		if msg.err != nil {
			m.fail(fmt.Errorf("export failed: %w", msg.err))
		}
		return m, nil
	}

	if m.overlay == OverlayCaption {
		var cmd tea.Cmd
		m.caption, cmd = m.caption.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleEvent(ev session.Event) (tea.Model, tea.Cmd) {
	m.setState(ev.State)
	kind, text := describe(ev)
	m.events.Add(kind, text)

	cmds := []tea.Cmd{m.booth.Next(m.ctx)}
	switch m.state.Phase {
	case session.Capturing:
		if ev.Type == session.EventCaptured {
			cmds = append(cmds, m.startFlash())
		}
		if m.state.PhotoCount() != len(m.thumbs) {
			cmds = append(cmds, m.requestThumbs())
		}
	case session.Editing:
		if ev.Type != session.EventCountdown {
			cmds = append(cmds, m.requestStrip())
		}
	}
	if ev.Type == session.EventPhase {
		m.penDown = false
		m.strip = ""
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case OverlayCaption:
		return m.handleCaptionKey(msg)
	case OverlayNone:
	default:
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Debug):
			m.overlay = OverlayNone
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Caption):
			m.events.ToggleErrors()
		case key.Matches(msg, m.keys.Up):
			m.events.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.events.ScrollDown(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		m.help = renderHelp(m.keys, m.width)
		return m, nil
	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil
	}

	m.lastErr = ""
	var cmd tea.Cmd
	switch m.state.Phase {
	case session.AwaitingPermission:
		if key.Matches(msg, m.keys.Allow) {
			m.do(func(c *session.Controller) error { return c.RequestPermission(m.ctx) })
		}
	case session.Capturing:
		m.captureKey(msg)
	case session.Editing:
		cmd = m.editKey(msg)
	}
	m.setState(m.booth.State())
	return m, cmd
}

func (m *Model) captureKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Start):
		m.do((*session.Controller).Start)
	case key.Matches(msg, m.keys.Retake):
		m.do((*session.Controller).Retake)
		m.thumbs = nil
	case key.Matches(msg, m.keys.Done):
		m.do((*session.Controller).Done)
	case key.Matches(msg, m.keys.Filter):
		next := m.state.Capture.Filter.Next()
		m.do(func(c *session.Controller) error { return c.SetFilter(next) })
	case key.Matches(msg, m.keys.Flip):
		m.do(func(c *session.Controller) error { return c.SwitchFacing(m.ctx) })
	}
}

func (m *Model) editKey(msg tea.KeyMsg) tea.Cmd {
	e := m.state.Edit
	if e == nil {
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.Export):
		return m.exportCmd()
	case key.Matches(msg, m.keys.NewSession):
		m.do((*session.Controller).Reset)
		m.selected, m.thumbs = "", nil
		return nil
	case key.Matches(msg, m.keys.Template):
		id := m.cat.Templates[(m.cat.TemplateIndex(e.Template)+1)%len(m.cat.Templates)].ID
		m.textIdx = 0
		m.do(func(c *session.Controller) error { return c.SetTemplate(id) })
	case key.Matches(msg, m.keys.Background):
		id := m.cat.Backgrounds[(m.cat.BackgroundIndex(e.Background)+1)%len(m.cat.Backgrounds)].ID
		m.do(func(c *session.Controller) error { return c.SetBackground(id) })
	case key.Matches(msg, m.keys.Caption):
		return m.openCaption()
	case key.Matches(msg, m.keys.Mode):
		m.penDown = false
		m.edit(func(ed *session.Edit) error {
			if ed.Mode() == session.ModeDraw {
				ed.SetMode(session.ModeStickers)
			} else {
				ed.SetMode(session.ModeDraw)
			}
			return nil
		})
	case key.Matches(msg, m.keys.Undo):
		m.edit(func(ed *session.Edit) error { ed.Canvas().Undo(); return nil })
	case key.Matches(msg, m.keys.Redo):
		m.edit(func(ed *session.Edit) error { ed.Canvas().Redo(); return nil })
	case key.Matches(msg, m.keys.Clear):
		m.edit(func(ed *session.Edit) error { ed.Canvas().Clear(); return nil })
	case key.Matches(msg, m.keys.Brush):
		m.setBrush(func(b *overlay.Brush) { b.Kind = b.Kind.Next() })
	case key.Matches(msg, m.keys.Color):
		m.colorIdx = (m.colorIdx + 1) % len(brushColors)
		c := brushColors[m.colorIdx]
		m.setBrush(func(b *overlay.Brush) { b.Color = c })
	case key.Matches(msg, m.keys.Bigger):
		m.setBrush(func(b *overlay.Brush) { b.Size++ })
	case key.Matches(msg, m.keys.Smaller):
		m.setBrush(func(b *overlay.Brush) { b.Size-- })
	case e.Mode == session.ModeDraw:
		return m.drawKey(msg, e)
	default:
		m.stickerKey(msg, e)
	}
	return nil
}

func (m *Model) stickerKey(msg tea.KeyMsg, e *session.EditState) {
	switch {
	case key.Matches(msg, m.keys.AddSticker):
		glyphs := m.cat.AllStickers()
		if len(glyphs) == 0 {
			return
		}
		glyph := glyphs[m.stickerIdx%len(glyphs)]
		m.stickerIdx++
		m.do(func(c *session.Controller) error {
			s, err := c.AddSticker(glyph)
			m.selected = s.ID
			return err
		})
	case key.Matches(msg, m.keys.NextItem):
		if len(e.Stickers) == 0 {
			return
		}
		i := 0
		for j, s := range e.Stickers {
			if s.ID == m.selected {
				i = j + 1
			}
		}
		m.selected = e.Stickers[i%len(e.Stickers)].ID
	case key.Matches(msg, m.keys.Remove):
		if m.selected == "" {
			return
		}
		id := m.selected
		m.selected = ""
		m.do(func(c *session.Controller) error { return c.RemoveSticker(id) })
	default:
		dx, dy, ok := m.direction(msg)
		if !ok || m.selected == "" {
			return
		}
		id := m.selected
		m.edit(func(ed *session.Edit) error {
			if _, ok := ed.Board().Nudge(id, dx*nudgeStep, dy*nudgeStep); !ok {
				return fmt.Errorf("%w: sticker %q", session.ErrNotFound, id)
			}
			return nil
		})
	}
}

func (m *Model) drawKey(msg tea.KeyMsg, e *session.EditState) tea.Cmd {
	if key.Matches(msg, m.keys.Pen) {
		p := m.cursor
		if m.penDown {
			m.penDown = false
			m.edit(func(ed *session.Edit) error { ed.Release(); return nil })
			return nil
		}
		m.penDown = true
		m.edit(func(ed *session.Edit) error { ed.Press(p); return nil })
		return nil
	}
	dx, dy, ok := m.direction(msg)
	if !ok {
		return nil
	}
	m.cursor.X = max(0, min(e.Width, m.cursor.X+dx*cursorStep))
	m.cursor.Y = max(0, min(e.Height, m.cursor.Y+dy*cursorStep))
	if m.penDown {
		p := m.cursor
		m.edit(func(ed *session.Edit) error { ed.Drag(p); return nil })
		return nil
	}
	// The cursor is drawn into the preview.
	return m.requestStrip()
}

func (m *Model) direction(msg tea.KeyMsg) (dx, dy float64, ok bool) {
	switch {
	case key.Matches(msg, m.keys.Up):
		return 0, -1, true
	case key.Matches(msg, m.keys.Down):
		return 0, 1, true
	case key.Matches(msg, m.keys.Left):
		return -1, 0, true
	case key.Matches(msg, m.keys.Right):
		return 1, 0, true
	}
	return 0, 0, false
}

func (m *Model) setBrush(fn func(*overlay.Brush)) {
	m.edit(func(ed *session.Edit) error {
		b := ed.Canvas().Brush()
		fn(&b)
		ed.Canvas().SetBrush(b)
		return nil
	})
}

func (m *Model) openCaption() tea.Cmd {
	tpl, _ := m.cat.Template(m.state.Edit.Template)
	if len(tpl.Text) == 0 {
		m.fail(errors.New("this template has no captions"))
		return nil
	}
	f := tpl.Text[m.textIdx%len(tpl.Text)]
	m.textIdx++
	value, ok := m.state.Edit.Text[f.ID]
	if !ok {
		value = f.Text
	}
	m.field = f.ID
	m.caption.Prompt = f.ID + ": "
	m.caption.Placeholder = f.Placeholder
	m.caption.SetValue(value)
	m.caption.CursorEnd()
	m.overlay = OverlayCaption
	return m.caption.Focus()
}

func (m Model) handleCaptionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.caption.Blur()
		m.overlay = OverlayNone
		return m, nil
	case tea.KeyEnter:
		m.caption.Blur()
		m.overlay = OverlayNone
		id, value := m.field, m.caption.Value()
		m.do(func(c *session.Controller) error { return c.SetText(id, value) })
		m.setState(m.booth.State())
		return m, nil
	}
	var cmd tea.Cmd
	m.caption, cmd = m.caption.Update(msg)
	return m, cmd
}

func (m *Model) do(fn func(*session.Controller) error) {
	if err := m.booth.Do(fn); err != nil {
		m.fail(err)
	}
}

func (m *Model) edit(fn func(*session.Edit) error) {
	if err := m.booth.Edit(fn); err != nil {
		m.fail(err)
	}
}

func (m *Model) fail(err error) {
	m.lastErr = err.Error()
	m.events.Add(debug.KindError, err.Error())
}

func (m *Model) setState(s *session.State) {
	if s == nil {
		return
	}
	m.state = s
	m.statusBar.SetState(s)
	m.detail.Edit = s.Edit
	if s.Edit == nil {
		m.selected = ""
	} else {
		found := false
		for _, st := range s.Edit.Stickers {
			found = found || st.ID == m.selected
		}
		if !found {
			m.selected = ""
			if n := len(s.Edit.Stickers); n > 0 {
				m.selected = s.Edit.Stickers[n-1].ID
			}
		}
	}
	m.detail.Selected = m.selected
}

func (m *Model) startFlash() tea.Cmd {
	m.flash, m.flashVel = 1, 0
	if m.flashing {
		return nil
	}
	m.flashing = true
	return flashTick()
}

func flashTick() tea.Cmd {
	return tea.Tick(time.Second/flashFPS, func(time.Time) tea.Msg { return flashMsg{} })
}

func (m Model) tickFrame() tea.Cmd {
	b := m.booth
	w, h := m.previewSize()
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		img, err := b.Frame()
		if err != nil {
			return frameMsg{}
		}
		return frameMsg{view: preview.Render(img, w, h)}
	})
}

func (m *Model) requestStrip() tea.Cmd {
	if m.state == nil || m.state.Phase != session.Editing || m.width == 0 {
		return nil
	}
	if m.rendering {
		m.stripDirty = true
		return nil
	}
	m.rendering = true
	b := m.booth
	w, h := m.stripSize()
	var cursor *overlay.Point
	if m.state.Edit != nil && m.state.Edit.Mode == session.ModeDraw {
		p := m.cursor
		cursor = &p
	}
	return func() tea.Msg {
		img, err := b.Strip()
		if err != nil {
			return stripMsg{err: err}
		}
		if cursor != nil {
			markCursor(img, *cursor)
		}
		return stripMsg{view: preview.Render(img, w, h)}
	}
}

// markCursor draws a crosshair at p, in base units of a scale-1 render.
func markCursor(img image.Image, p overlay.Point) {
	dst, ok := img.(interface{ Set(x, y int, c color.Color) })
	if !ok {
		return
	}
	x, y := int(math.Round(p.X)), int(math.Round(p.Y))
	for d := -4; d <= 4; d++ {
		dst.Set(x+d, y, cursorRGB)
		dst.Set(x, y+d, cursorRGB)
	}
}

func (m *Model) requestThumbs() tea.Cmd {
	if m.state == nil || m.state.Phase != session.Capturing {
		return nil
	}
	photos := m.state.Capture.Photos
	return func() tea.Msg {
		views := make([]string, 0, len(photos))
		for _, p := range photos {
			if p == nil || p.Image == nil {
				continue
			}
			views = append(views, preview.Render(p.Image, thumbCols, thumbRows))
		}
		return thumbsMsg{views: views}
	}
}

func (m Model) exportCmd() tea.Cmd {
	b, ctx := m.booth, m.ctx
	return func() tea.Msg {
		var path string
		err := b.Do(func(c *session.Controller) (err error) {
			path, err = c.Export(ctx)
			return err
		})
		return exportMsg{path: path, err: err}
	}
}

func (m Model) previewSize() (w, h int) {
	return max(m.width-sidebarWidth-4, 16), max(m.height-9, 6)
}

func (m Model) stripSize() (w, h int) {
	return max(m.width-sidebarWidth-4, 16), max(m.height-6, 6)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	switch m.overlay {
	case OverlayHelp:
		body = theme.StyleBorder.Padding(0, 1).Render(m.help)
	case OverlayDebug:
		body = m.events.View(m.width, m.height-4)
	case OverlayCaption:
		body = m.captionView()
	default:
		switch m.state.Phase {
		case session.Capturing:
			body = m.captureView()
		case session.Editing:
			body = m.editView()
		default:
			body = m.gateView()
		}
	}

	sections := []string{m.statusBar.View(), body, m.footer()}
	if m.lastErr != "" {
		sections = append(sections, theme.StyleError.Render("  ✗ "+m.lastErr))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) gateView() string {
	lines := []string{
		theme.StyleHeader.Render("Photobooth"),
		"",
		"Press enter to turn on the camera.",
	}
	if m.state.PermissionDenied {
		lines = append(lines, "", theme.StyleError.Render("Camera access was denied. Check the camera and try again."))
	}
	panel := theme.StyleBorder.Padding(1, 4).Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
	return lipgloss.Place(m.width, max(m.height-6, lipgloss.Height(panel)), lipgloss.Center, lipgloss.Center, panel)
}

func (m Model) captureView() string {
	snap := m.state.Capture
	frame := m.preview
	if frame == "" {
		frame = theme.StyleDimmed.Render("camera starting...")
	}
	border := theme.Lerp(borderRGB, flashRGB, m.flash)
	left := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Render(frame)

	var info string
	switch {
	case snap.Counting:
		info = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorCountdown).
			Render(fmt.Sprintf("  %d  ", snap.Countdown))
	case snap.State == capture.Complete:
		info = lipgloss.NewStyle().Foreground(theme.ColorExport).Render("All photos taken! Press enter to decorate.")
	case snap.Active:
		info = theme.StyleDimmed.Render("Get ready for the next one...")
	default:
		info = theme.StyleDimmed.Render("Press space to start.")
	}
	info += theme.StyleDimmed.Render(fmt.Sprintf("   shot %d of %d", min(snap.Shot+1, snap.MaxPhotos), snap.MaxPhotos))

	side := []string{theme.StyleHeader.Render(fmt.Sprintf("Photos %d/%d", len(snap.Photos), snap.MaxPhotos))}
	side = append(side, m.thumbs...)
	right := lipgloss.NewStyle().Width(sidebarWidth).PaddingLeft(2).Render(lipgloss.JoinVertical(lipgloss.Left, side...))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, left, info),
		right,
	)
}

func (m Model) editView() string {
	strip := m.strip
	if strip == "" {
		strip = theme.StyleDimmed.Render("rendering...")
	}
	left := theme.StyleBorder.Render(strip)
	right := m.detail.View()
	if e := m.state.Edit; e != nil && e.Mode == session.ModeDraw {
		pen := "pen up"
		if m.penDown {
			pen = "pen down"
		}
		right = lipgloss.JoinVertical(lipgloss.Left, right,
			theme.StyleDimmed.Render(fmt.Sprintf(" cursor %.0f,%.0f  %s", m.cursor.X, m.cursor.Y, pen)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m Model) captionView() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.StyleHeader.Render("Edit caption"),
		"",
		m.caption.View(),
		"",
		theme.StyleDimmed.Render("enter: save  esc: cancel"),
	)
	return theme.StyleBorder.Padding(1, 2).Width(min(m.width-2, 60)).Render(content)
}

func (m Model) footer() string {
	var keys []key.Binding
	switch m.state.Phase {
	case session.Capturing:
		keys = m.keys.captureKeys()
	case session.Editing:
		keys = m.keys.editKeys()
	default:
		keys = []key.Binding{m.keys.Allow, m.keys.Help, m.keys.Quit}
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		h := k.Help()
		parts = append(parts, h.Key+":"+h.Desc)
	}
	return theme.StyleDimmed.Render("  " + strings.Join(parts, "  "))
}

func describe(ev session.Event) (kind, text string) {
	s := ev.State
	switch ev.Type {
	case session.EventCountdown:
		return debug.KindEvent, fmt.Sprintf("countdown %d", s.Capture.Countdown)
	case session.EventCaptured:
		return debug.KindCamera, fmt.Sprintf("photo %d captured", s.PhotoCount())
	case session.EventPhase:
		return debug.KindEvent, "phase " + s.Phase.String()
	case session.EventExported:
		return debug.KindExport, "saved " + ev.Path
	case session.EventCamera:
		if s.CameraLive {
			return debug.KindCamera, "camera live (" + s.Facing.String() + ")"
		}
		return debug.KindCamera, "camera off"
	}
	return debug.KindEvent, ev.Type.String()
}
