// Package types contains shared types used across the application.
package types

// Mode represents the current board interaction mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSelect
	ModeSearch
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeSelect:
		return "SELECT"
	case ModeSearch:
		return "FILTER"
	default:
		return "UNKNOWN"
	}
}
