package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	// Gate and capture.
	Allow  key.Binding
	Start  key.Binding
	Retake key.Binding
	Done   key.Binding
	Filter key.Binding
	Flip   key.Binding

	// Editing.
	Template   key.Binding
	Background key.Binding
	AddSticker key.Binding
	Remove     key.Binding
	NextItem   key.Binding
	Mode       key.Binding
	Pen        key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Brush      key.Binding
	Color      key.Binding
	Bigger     key.Binding
	Smaller    key.Binding
	Undo       key.Binding
	Redo       key.Binding
	Clear      key.Binding
	Caption    key.Binding
	Export     key.Binding
	NewSession key.Binding

	// Global.
	Help   key.Binding
	Debug  key.Binding
	Escape key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Allow: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "allow camera"),
		),
		Start: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "start countdown"),
		),
		Retake: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retake"),
		),
		Done: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "done"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "next filter"),
		),
		Flip: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "flip camera"),
		),
		Template: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "next template"),
		),
		Background: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "next background"),
		),
		AddSticker: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "add sticker"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "remove sticker"),
		),
		NextItem: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "select next sticker"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "stickers / draw"),
		),
		Pen: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pen down / up"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "move right"),
		),
		Brush: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "next brush"),
		),
		Color: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "next color"),
		),
		Bigger: key.NewBinding(
			key.WithKeys("]", "+"),
			key.WithHelp("]", "bigger brush"),
		),
		Smaller: key.NewBinding(
			key.WithKeys("[", "-"),
			key.WithHelp("[", "smaller brush"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u", "ctrl+z"),
			key.WithHelp("u", "undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("U", "ctrl+y"),
			key.WithHelp("U", "redo"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear drawing"),
		),
		Caption: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit caption"),
		),
		Export: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save strip"),
		),
		NewSession: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "start over"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Debug: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "event log"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// captureKeys and editKeys are shown in the footer.
func (k KeyMap) captureKeys() []key.Binding {
	return []key.Binding{k.Start, k.Retake, k.Done, k.Filter, k.Flip, k.Help, k.Quit}
}

func (k KeyMap) editKeys() []key.Binding {
	return []key.Binding{k.Template, k.Background, k.AddSticker, k.Mode, k.Caption, k.Export, k.NewSession, k.Help, k.Quit}
}
