package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// helpSection is one titled group of key/description pairs
type helpSection struct {
	title string
	keys  [][2]string
}

// helpSections mirrors the bindings handled in the app's key router
var helpSections = []helpSection{
	{"Navigation", [][2]string{
		{"h/l", "Move between columns"},
		{"j/k", "Move up/down in column"},
		{"g/G", "Jump to top/bottom of column"},
		{"Ctrl+D/U", "Half page down/up"},
	}},
	{"Tasks", [][2]string{
		{"Enter", "Show task details"},
		{"c", "Create task in current column"},
		{"e", "Edit task details"},
		{"a", "Assign users"},
		{"H/L", "Move task to previous/next status"},
		{"J/K", "Reorder within column"},
	}},
	{"Board", [][2]string{
		{"/", "Filter by text"},
		{"Esc", "Clear text filter"},
		{"f", "Filter menu"},
		{",", "Sort menu"},
		{"Tab", "Cycle view (all, active, backlog, done)"},
		{"p", "Switch project"},
		{"r", "Refresh tasks"},
	}},
	{"Selection", [][2]string{
		{"v", "Enter select mode"},
		{"Space", "Toggle selection on current task"},
		{"H/L", "Move selected tasks"},
		{"Esc", "Clear selection"},
	}},
	{"Other", [][2]string{
		{"x", "Dismiss error"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
	}},
}

// HelpOverlay lists the key bindings in a scrollable panel
type HelpOverlay struct {
	styles     *Styles
	scroll     int
	maxScroll  int
	viewHeight int
}

// NewHelpOverlay creates a new help overlay
func NewHelpOverlay() *HelpOverlay {
	return &HelpOverlay{styles: New(), viewHeight: 20}
}

func (h *HelpOverlay) Init() tea.Cmd { return nil }

func (h *HelpOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return h, nil
	}
	switch key.String() {
	case "esc", "q", "?":
		return h, closeCmd
	case "j", "down":
		h.scroll = min(h.scroll+1, h.maxScroll)
	case "k", "up":
		h.scroll = max(h.scroll-1, 0)
	case "g":
		h.scroll = 0
	case "G":
		h.scroll = h.maxScroll
	}
	return h, nil
}

func (h *HelpOverlay) View() string {
	var lines []string
	for i, sec := range helpSections {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, h.styles.MenuHeader.Render(sec.title+":"))
		for _, kv := range sec.keys {
			lines = append(lines, "  "+h.styles.MenuKey.Width(9).Render(kv[0])+" "+h.styles.MenuItem.Render(kv[1]))
		}
	}

	h.maxScroll = max(0, len(lines)-h.viewHeight)
	h.scroll = min(h.scroll, h.maxScroll)
	out := strings.Join(lines[h.scroll:min(h.scroll+h.viewHeight, len(lines))], "\n")
	if h.maxScroll > 0 {
		out += "\n" + h.styles.Footer.Render("["+h.styles.MenuKey.Render("j/k")+" to scroll, "+h.styles.MenuKey.Render("g/G")+" to jump]")
	}
	return out
}

func (h *HelpOverlay) Title() string { return "Help" }

func (h *HelpOverlay) Size() (width, height int) {
	return 56, h.viewHeight + 6
}
