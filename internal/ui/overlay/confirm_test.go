package overlay

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type testConfirmedMsg struct{ n int }

func TestNewConfirmDialog(t *testing.T) {
	dialog := NewConfirmDialog("Move Tasks", "Move 3 tasks?", testConfirmedMsg{n: 3})

	if dialog.Title() != "Move Tasks" {
		t.Errorf("expected title %q, got %q", "Move Tasks", dialog.Title())
	}
	if dialog.selected {
		t.Error("expected default selection to be No")
	}
	if width, height := dialog.Size(); width != 60 || height < 6 {
		t.Errorf("unexpected size %dx%d", width, height)
	}
}

func TestConfirmDialog_Keys(t *testing.T) {
	tests := []struct {
		name        string
		keys        []tea.KeyMsg
		wantConfirm bool
	}{
		{name: "y confirms", keys: []tea.KeyMsg{keyRunes("y")}, wantConfirm: true},
		{name: "Y confirms", keys: []tea.KeyMsg{keyRunes("Y")}, wantConfirm: true},
		{name: "n cancels", keys: []tea.KeyMsg{keyRunes("n")}},
		{name: "esc cancels", keys: []tea.KeyMsg{keyType(tea.KeyEsc)}},
		{name: "enter defaults to no", keys: []tea.KeyMsg{keyType(tea.KeyEnter)}},
		{name: "left then enter", keys: []tea.KeyMsg{keyType(tea.KeyLeft), keyType(tea.KeyEnter)}, wantConfirm: true},
		{name: "tab twice then enter", keys: []tea.KeyMsg{keyType(tea.KeyTab), keyType(tea.KeyTab), keyType(tea.KeyEnter)}},
		{name: "h then l then enter", keys: []tea.KeyMsg{keyRunes("h"), keyRunes("l"), keyType(tea.KeyEnter)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialog := NewConfirmDialog("Move Tasks", "Move 3 tasks?", testConfirmedMsg{n: 3})

			var cmd tea.Cmd
			for _, k := range tt.keys {
				_, cmd = dialog.Update(k)
			}
			msgs := collect(cmd)

			if !hasClose(msgs) {
				t.Error("expected the dialog to close")
			}
			got, ok := find[testConfirmedMsg](msgs)
			if ok != tt.wantConfirm {
				t.Fatalf("confirmed = %v, want %v", ok, tt.wantConfirm)
			}
			if ok && got.n != 3 {
				t.Errorf("payload = %+v", got)
			}
		})
	}
}

func TestConfirmDialog_NilPayload(t *testing.T) {
	dialog := NewConfirmDialog("Quit", "", nil)
	_, cmd := dialog.Update(keyRunes("y"))
	msgs := collect(cmd)
	if len(msgs) != 1 || !hasClose(msgs) {
		t.Errorf("expected only a close, got %v", msgs)
	}
}
