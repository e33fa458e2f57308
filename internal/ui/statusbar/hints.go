package statusbar

import "github.com/riordanpawley/tandem/internal/types"

// GetHints returns the keybinding hints for the given mode
func GetHints(mode types.Mode) string {
	switch mode {
	case types.ModeNormal:
		return "h/l: columns  j/k: tasks  H/L: move  a: assign  c: create  ?: help  q: quit"
	case types.ModeSelect:
		return "Space: toggle  H/L: move selected  Esc: cancel"
	case types.ModeSearch:
		return "Type to filter  Enter: confirm  Esc: clear"
	default:
		return ""
	}
}
