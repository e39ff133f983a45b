package buffer

import "fmt"

// Range is an immutable pair of positions with Start <= End.
type Range struct {
	start Position
	end   Position
}

// NewRange creates a range from two positions, swapping them if they are
// given in reverse order.
func NewRange(a, b Position) Range {
	if b.IsBefore(a) {
		a, b = b, a
	}
	return Range{start: a, end: b}
}

// NewRangeFromCoords creates a range from line and character coordinates.
func NewRangeFromCoords(startLine, startChar, endLine, endChar int) (Range, error) {
	start, err := NewPosition(startLine, startChar)
	if err != nil {
		return Range{}, err
	}
	end, err := NewPosition(endLine, endChar)
	if err != nil {
		return Range{}, err
	}
	return NewRange(start, end), nil
}

// Rng is like NewRangeFromCoords but panics on negative input.
func Rng(startLine, startChar, endLine, endChar int) Range {
	return NewRange(Pos(startLine, startChar), Pos(endLine, endChar))
}

// Start returns the earlier position.
func (r Range) Start() Position { return r.start }

// End returns the later position.
func (r Range) End() Position { return r.end }

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%s-%s]", r.start, r.end)
}

// IsEmpty reports whether start equals end.
func (r Range) IsEmpty() bool { return r.start == r.end }

// IsSingleLine reports whether the range starts and ends on the same line.
func (r Range) IsSingleLine() bool { return r.start.line == r.end.line }

// Contains reports whether p lies within the range, bounds included.
func (r Range) Contains(p Position) bool {
	return r.start.IsBeforeOrEqual(p) && p.IsBeforeOrEqual(r.end)
}

// ContainsRange reports whether other lies entirely within r.
func (r Range) ContainsRange(other Range) bool {
	return r.Contains(other.start) && r.Contains(other.end)
}

// IsEqual reports whether r and other have the same bounds.
func (r Range) IsEqual(other Range) bool { return r == other }

// Intersection returns the overlap of r and other. The boolean is false when
// the ranges do not touch.
func (r Range) Intersection(other Range) (Range, bool) {
	start := Max(r.start, other.start)
	end := Min(r.end, other.end)
	if start.IsAfter(end) {
		return Range{}, false
	}
	return Range{start: start, end: end}, true
}

// Union returns the smallest range containing both r and other.
func (r Range) Union(other Range) Range {
	return Range{start: Min(r.start, other.start), end: Max(r.end, other.end)}
}

// With returns a range with the given bounds, normalised like NewRange.
func (r Range) With(start, end Position) Range {
	return NewRange(start, end)
}

// WithStart returns r with its start replaced.
func (r Range) WithStart(start Position) Range { return NewRange(start, r.end) }

// WithEnd returns r with its end replaced.
func (r Range) WithEnd(end Position) Range { return NewRange(r.start, end) }

// Selection is a range with a direction: the anchor stays put and the active
// end moves with the cursor.
type Selection struct {
	Range
	anchor Position
	active Position
}

// NewSelection creates a selection from anchor to active.
func NewSelection(anchor, active Position) Selection {
	return Selection{Range: NewRange(anchor, active), anchor: anchor, active: active}
}

// CursorAt returns an empty selection at p.
func CursorAt(p Position) Selection { return NewSelection(p, p) }

// Anchor returns the fixed end of the selection.
func (s Selection) Anchor() Position { return s.anchor }

// Active returns the moving end of the selection.
func (s Selection) Active() Position { return s.active }

// IsReversed reports whether the active end lies before the anchor.
func (s Selection) IsReversed() bool { return s.active.IsBefore(s.anchor) }

// String returns a human-readable representation of the selection.
func (s Selection) String() string {
	return fmt.Sprintf("{%s->%s}", s.anchor, s.active)
}
