package model

import "strings"

// Direction is a sort direction
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// DefaultSortColumn is the column a new session sorts by
const DefaultSortColumn = "date"

// ParseDirection normalizes a direction to asc or desc, defaulting to desc
func ParseDirection(direction string) Direction {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "asc", "ascending":
		return Ascending
	default:
		return Descending
	}
}

// Flip returns the opposite direction
func (d Direction) Flip() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// SortState is the active sort column and direction of a dashboard session
type SortState struct {
	Column    string
	Direction Direction
}

// DefaultSortState returns the state a session starts with
func DefaultSortState() SortState {
	return SortState{Column: DefaultSortColumn, Direction: Descending}
}
