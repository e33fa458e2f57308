package board

import "github.com/riordanpawley/tandem/internal/services/projection"

// Column is the projected column the board renders
type Column = projection.Column

// Cursor represents the current cursor position
type Cursor struct {
	Column int // Column index (0-2)
	Task   int // Task index within column
}

// cardHeight is the rendered height of a card including its border
const cardHeight = 4
