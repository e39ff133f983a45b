package buffer

import (
	"errors"
	"fmt"
)

// ErrIllegalArgument is returned for negative line or character values and
// other misuse of the value constructors.
var ErrIllegalArgument = errors.New("illegal argument")

// Position is an immutable line and character pair. Both are zero-based;
// Character counts UTF-16 code units.
type Position struct {
	line      int
	character int
}

// NewPosition creates a position. Negative values are rejected.
func NewPosition(line, character int) (Position, error) {
	if line < 0 {
		return Position{}, fmt.Errorf("%w: line must be non-negative, got %d", ErrIllegalArgument, line)
	}
	if character < 0 {
		return Position{}, fmt.Errorf("%w: character must be non-negative, got %d", ErrIllegalArgument, character)
	}
	return Position{line: line, character: character}, nil
}

// Pos is like NewPosition but panics on negative input. It is meant for
// literals in tests and call sites whose arguments are known to be valid.
func Pos(line, character int) Position {
	p, err := NewPosition(line, character)
	if err != nil {
		panic(err)
	}
	return p
}

// Line returns the zero-based line.
func (p Position) Line() int { return p.line }

// Character returns the zero-based UTF-16 character offset within the line.
func (p Position) Character() int { return p.character }

// String returns a human-readable representation of the position.
func (p Position) String() string {
	return fmt.Sprintf("(%d:%d)", p.line, p.character)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Position) Compare(other Position) int {
	if p.line < other.line {
		return -1
	}
	if p.line > other.line {
		return 1
	}
	if p.character < other.character {
		return -1
	}
	if p.character > other.character {
		return 1
	}
	return 0
}

// IsBefore reports whether p comes before other.
func (p Position) IsBefore(other Position) bool { return p.Compare(other) < 0 }

// IsBeforeOrEqual reports whether p comes before or equals other.
func (p Position) IsBeforeOrEqual(other Position) bool { return p.Compare(other) <= 0 }

// IsAfter reports whether p comes after other.
func (p Position) IsAfter(other Position) bool { return p.Compare(other) > 0 }

// IsAfterOrEqual reports whether p comes after or equals other.
func (p Position) IsAfterOrEqual(other Position) bool { return p.Compare(other) >= 0 }

// IsEqual reports whether p and other denote the same position.
func (p Position) IsEqual(other Position) bool { return p == other }

// Translate returns p shifted by the given deltas.
func (p Position) Translate(lineDelta, characterDelta int) (Position, error) {
	return NewPosition(p.line+lineDelta, p.character+characterDelta)
}

// With returns a position with the given line and character.
func (p Position) With(line, character int) (Position, error) {
	return NewPosition(line, character)
}

// WithLine returns p with its line replaced.
func (p Position) WithLine(line int) (Position, error) {
	return NewPosition(line, p.character)
}

// WithCharacter returns p with its character replaced.
func (p Position) WithCharacter(character int) (Position, error) {
	return NewPosition(p.line, character)
}

// Min returns the earlier of a and b.
func Min(a, b Position) Position {
	if b.IsBefore(a) {
		return b
	}
	return a
}

// Max returns the later of a and b.
func Max(a, b Position) Position {
	if b.IsAfter(a) {
		return b
	}
	return a
}
