// Package overlay contains the modal dialogs stacked over the board.
package overlay

import tea "github.com/charmbracelet/bubbletea"

// Overlay represents a modal overlay component
type Overlay interface {
	tea.Model
	Title() string
	Size() (width, height int)
}

// CloseOverlayMsg signals that the overlay should be closed
type CloseOverlayMsg struct{}

// SelectionMsg is sent when a menu entry is picked
type SelectionMsg struct {
	Key   string
	Value any
}

func closeCmd() tea.Msg { return CloseOverlayMsg{} }

// ResultMsg carries an overlay's outcome. The receiver closes the overlay
// first and then handles Msg, so a result that opens another overlay is
// never popped by a late close.
type ResultMsg struct {
	Msg tea.Msg
}

// emit returns a command that closes the overlay with msg as its result
func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return ResultMsg{Msg: msg} }
}
