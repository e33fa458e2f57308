package overlay

import tea "github.com/charmbracelet/bubbletea"

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyType(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

// typeText feeds each rune of s to the overlay as a key press
func typeText(o Overlay, s string) Overlay {
	for _, r := range s {
		m, _ := o.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		o = m.(Overlay)
	}
	return o
}

// collect runs cmd and flattens batches into the resulting messages. A
// ResultMsg expands to its payload followed by the close it implies.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if res, ok := msg.(ResultMsg); ok {
		return []tea.Msg{res.Msg, CloseOverlayMsg{}}
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// find returns the first message of type T
func find[T any](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func hasClose(msgs []tea.Msg) bool {
	_, ok := find[CloseOverlayMsg](msgs)
	return ok
}
