package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmDialog asks a yes/no question and emits onConfirm when accepted
type ConfirmDialog struct {
	title     string
	message   string
	onConfirm tea.Msg
	styles    *Styles
	selected  bool // true = Yes, false = No
}

// NewConfirmDialog creates a confirmation dialog. onConfirm is delivered
// to the app when the user answers yes; no answer only closes the dialog.
func NewConfirmDialog(title, message string, onConfirm tea.Msg) *ConfirmDialog {
	return &ConfirmDialog{
		title:     title,
		message:   message,
		onConfirm: onConfirm,
		styles:    New(),
	}
}

// Init initializes the dialog
func (c *ConfirmDialog) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (c *ConfirmDialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "y", "Y":
			return c, c.confirm()

		case "n", "N", "esc":
			return c, closeCmd

		case "enter":
			if c.selected {
				return c, c.confirm()
			}
			return c, closeCmd

		case "left", "h":
			c.selected = true

		case "right", "l":
			c.selected = false

		case "tab":
			c.selected = !c.selected
		}
	}

	return c, nil
}

func (c *ConfirmDialog) confirm() tea.Cmd {
	if c.onConfirm == nil {
		return closeCmd
	}
	return emit(c.onConfirm)
}

// View renders the dialog
func (c *ConfirmDialog) View() string {
	var b strings.Builder

	if c.message != "" {
		b.WriteString(c.styles.MenuItem.Render(c.message))
		b.WriteString("\n\n")
	}

	yesStyle := c.styles.MenuItem
	noStyle := c.styles.MenuItem
	if c.selected {
		yesStyle = c.styles.MenuItemActive
	} else {
		noStyle = c.styles.MenuItemActive
	}

	b.WriteString(yesStyle.Render("[Y] Yes") + "    " + noStyle.Render("[N] No"))
	b.WriteString("\n")
	b.WriteString(c.styles.Footer.Render("← → / Tab: Switch • Enter: Confirm • Esc: Cancel"))

	return b.String()
}

// Title returns the dialog title
func (c *ConfirmDialog) Title() string {
	return c.title
}

// Size returns the dialog dimensions
func (c *ConfirmDialog) Size() (width, height int) {
	messageLines := len(strings.Split(c.message, "\n"))
	return 60, messageLines + 6
}
