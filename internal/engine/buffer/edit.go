package buffer

import "fmt"

// TextEdit replaces the text in Range with NewText. An empty range is an
// insert and an empty NewText is a delete. When NewEOL is set the edit also
// converts the whole text to that line terminator.
type TextEdit struct {
	Range   Range
	NewText string
	NewEOL  EndOfLine
}

// Replace returns an edit replacing r with text.
func Replace(r Range, text string) TextEdit {
	return TextEdit{Range: r, NewText: text}
}

// Insert returns an edit inserting text at p.
func Insert(p Position, text string) TextEdit {
	return TextEdit{Range: NewRange(p, p), NewText: text}
}

// Delete returns an edit removing r.
func Delete(r Range) TextEdit {
	return TextEdit{Range: r}
}

// SetEndOfLine returns an edit that only converts the line terminator.
func SetEndOfLine(eol EndOfLine) TextEdit {
	return TextEdit{NewEOL: eol}
}

// String returns a human-readable representation of the edit.
func (e TextEdit) String() string {
	if e.NewEOL != 0 && e.Range.IsEmpty() && e.NewText == "" {
		return fmt.Sprintf("SetEOL(%s)", e.NewEOL)
	}
	switch {
	case e.Range.IsEmpty():
		return fmt.Sprintf("Insert(%s, %q)", e.Range.start, e.NewText)
	case e.NewText == "":
		return fmt.Sprintf("Delete(%s)", e.Range)
	default:
		return fmt.Sprintf("Replace(%s, %q)", e.Range, e.NewText)
	}
}

// IsNoOp reports whether the edit changes nothing.
func (e TextEdit) IsNoOp() bool {
	return e.Range.IsEmpty() && e.NewText == "" && e.NewEOL == 0
}

// ContentChange describes a replaced span of a text, in the units the
// editor contract reports: RangeOffset and RangeLength count UTF-16 units
// of the text before the change.
type ContentChange struct {
	Range       Range
	RangeOffset int
	RangeLength int
	Text        string
}
