package buffer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// DefaultWordPattern matches numbers such as "-1.5" and runs of characters
// that are neither whitespace nor punctuation.
var DefaultWordPattern = regexp.MustCompile("(-?\\d*\\.\\d\\w*)|([^`~!@#$%^&*()\\-=+\\[{\\]}\\\\|;:'\",.<>/?\\s]+)")

// Text is an immutable snapshot of document content. Lines are split on
// first use, so Content alone never pays for splitting.
type Text struct {
	content string
	eol     EndOfLine

	once         sync.Once
	lines        []string
	byteStarts   []int // byte offset of each line start
	utf16Starts  []int // UTF-16 offset of each line start
	utf16Lengths []int // UTF-16 length of each line
}

// NewText creates a snapshot of content. The line terminator is detected
// from content; def applies when content has no newline.
func NewText(content string, def EndOfLine) *Text {
	return &Text{content: content, eol: DetectEOL(content, def)}
}

// Content returns the full text without splitting it into lines.
func (t *Text) Content() string { return t.content }

// EOL returns the line terminator used for splitting.
func (t *Text) EOL() EndOfLine { return t.eol }

// Len returns the length of the content in UTF-16 units.
func (t *Text) Len() int {
	t.split()
	last := len(t.lines) - 1
	return t.utf16Starts[last] + t.utf16Lengths[last]
}

// LinesMaterialized reports whether the content has been split into lines.
func (t *Text) LinesMaterialized() bool {
	return t.lines != nil
}

func (t *Text) split() {
	t.once.Do(func() {
		lines := strings.Split(t.content, t.eol.Sequence())
		sepBytes := len(t.eol.Sequence())

		t.byteStarts = make([]int, len(lines))
		t.utf16Starts = make([]int, len(lines))
		t.utf16Lengths = make([]int, len(lines))

		b, u := 0, 0
		for i, l := range lines {
			t.byteStarts[i] = b
			t.utf16Starts[i] = u
			t.utf16Lengths[i] = utf16Len(l)
			b += len(l) + sepBytes
			u += t.utf16Lengths[i] + sepBytes
		}
		t.lines = lines
	})
}

// Lines returns a copy of the lines.
func (t *Text) Lines() []string {
	t.split()
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// LineCount returns the number of lines. Empty content has one line.
func (t *Text) LineCount() int {
	t.split()
	return len(t.lines)
}

// TextLine describes one line of a Text.
type TextLine struct {
	LineNumber                       int
	Text                             string
	Range                            Range
	RangeIncludingLineBreak          Range
	FirstNonWhitespaceCharacterIndex int
	IsEmptyOrWhitespace              bool
}

// LineAt returns the line with the given number. Unlike position queries,
// an out-of-range line is an error.
func (t *Text) LineAt(line int) (TextLine, error) {
	t.split()
	if line < 0 || line >= len(t.lines) {
		return TextLine{}, fmt.Errorf("%w: line %d out of range [0, %d)", ErrIllegalArgument, line, len(t.lines))
	}

	text := t.lines[line]
	length := t.utf16Lengths[line]
	rng := Range{start: Position{line, 0}, end: Position{line, length}}
	withBreak := rng
	if line < len(t.lines)-1 {
		withBreak = Range{start: rng.start, end: Position{line + 1, 0}}
	}

	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	firstNonWS := byteToUTF16(text, len(text)-len(trimmed))

	return TextLine{
		LineNumber:                       line,
		Text:                             text,
		Range:                            rng,
		RangeIncludingLineBreak:          withBreak,
		FirstNonWhitespaceCharacterIndex: firstNonWS,
		IsEmptyOrWhitespace:              trimmed == "",
	}, nil
}

// LineAtPosition returns the line containing p.
func (t *Text) LineAtPosition(p Position) (TextLine, error) {
	return t.LineAt(p.line)
}

// ValidatePosition clamps p into the text.
func (t *Text) ValidatePosition(p Position) Position {
	t.split()
	last := len(t.lines) - 1

	if p.line < 0 {
		return Position{}
	}
	if p.line > last {
		return Position{line: last, character: t.utf16Lengths[last]}
	}
	if p.character < 0 {
		return Position{line: p.line}
	}
	if p.character > t.utf16Lengths[p.line] {
		return Position{line: p.line, character: t.utf16Lengths[p.line]}
	}
	return p
}

// ValidateRange clamps both ends of r into the text.
func (t *Text) ValidateRange(r Range) Range {
	return NewRange(t.ValidatePosition(r.start), t.ValidatePosition(r.end))
}

// OffsetAt returns the UTF-16 offset of p after validating it.
func (t *Text) OffsetAt(p Position) int {
	p = t.ValidatePosition(p)
	return t.utf16Starts[p.line] + p.character
}

// PositionAt returns the position of a UTF-16 offset. Offsets are clamped to
// [0, Len()]; an offset that falls inside a line terminator maps to the end
// of that line.
func (t *Text) PositionAt(offset int) Position {
	t.split()
	if offset <= 0 {
		return Position{}
	}

	line := sort.Search(len(t.utf16Starts), func(i int) bool {
		return t.utf16Starts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}

	character := offset - t.utf16Starts[line]
	if character > t.utf16Lengths[line] {
		character = t.utf16Lengths[line]
	}
	return Position{line: line, character: character}
}

// byteOffsetAt returns the byte offset of p after validating it.
func (t *Text) byteOffsetAt(p Position) int {
	p = t.ValidatePosition(p)
	return t.byteStarts[p.line] + utf16ToByte(t.lines[p.line], p.character)
}

// GetText returns the text covered by r after validating it.
func (t *Text) GetText(r Range) string {
	r = t.ValidateRange(r)
	return t.content[t.byteOffsetAt(r.start):t.byteOffsetAt(r.end)]
}

// FullRange returns the range spanning the whole text.
func (t *Text) FullRange() Range {
	t.split()
	last := len(t.lines) - 1
	return Range{end: Position{line: last, character: t.utf16Lengths[last]}}
}

// GetWordRangeAtPosition returns the range of the word at p, using
// DefaultWordPattern when re is nil. The boolean is false when p is not on
// a word. A pattern that matches the empty string is rejected.
func (t *Text) GetWordRangeAtPosition(p Position, re *regexp.Regexp) (Range, bool, error) {
	if re == nil {
		re = DefaultWordPattern
	}
	if re.MatchString("") {
		return Range{}, false, fmt.Errorf("%w: word pattern must not match the empty string", ErrIllegalArgument)
	}

	p = t.ValidatePosition(p)
	text := t.lines[p.line]
	pos := utf16ToByte(text, p.character)

	for _, m := range re.FindAllStringIndex(text, -1) {
		if m[0] <= pos && pos <= m[1] {
			start := Position{line: p.line, character: byteToUTF16(text, m[0])}
			end := Position{line: p.line, character: byteToUTF16(text, m[1])}
			return Range{start: start, end: end}, true, nil
		}
		if m[0] > pos {
			break
		}
	}
	return Range{}, false, nil
}
