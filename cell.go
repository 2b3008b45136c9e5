package respool

import (
	"container/list"
	"time"
)

// cell is a single pool slot. Its address is stable for its whole lifetime:
// it moves between the available/used/wasted lanes but is never copied or
// reallocated, which is what lets a Handle hold a raw *cell across an
// arbitrary number of lease/recycle/waste cycles.
type cell[T any] struct {
	value          *T
	resetTime      time.Time
	dropTime       time.Time
	wasteOnRecycle bool

	// elem is the cell's current position in whichever of storage's three
	// lanes presently holds it. Kept on the cell itself so moving a cell
	// between lanes is O(1) instead of a list scan.
	elem *list.Element
}

// moveCell detaches c from its current lane and appends it to the tail of
// to, preserving the cell's own address (only the container/list.Element
// wrapper changes).
func moveCell[T any](c *cell[T], from, to *list.List) {
	from.Remove(c.elem)
	c.elem = to.PushBack(c)
}
