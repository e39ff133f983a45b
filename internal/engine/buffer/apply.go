package buffer

import (
	"sort"
	"strings"
)

// resolvedEdit is a TextEdit with byte offsets computed against the text
// the batch is applied to.
type resolvedEdit struct {
	index int
	start Position
	from  int
	to    int
	text  string
}

// ApplyEdits applies edits to t and returns the resulting text.
//
// Ranges are validated against t and every offset is computed before any
// edit is applied. Edits are then spliced in order of descending start.
// On equal starts the edit ending later goes first, so a replacement is
// spliced before an insert at its start, and then the later input index
// goes first. Each splice therefore only shifts text that has already been
// processed. Offsets are clamped to the current
// length, so overlapping edits cannot panic; their outcome is deterministic.
//
// If any edit sets NewEOL, the last such edit in input order decides the
// line terminator of the result and all terminators are converted to it.
func ApplyEdits(t *Text, edits []TextEdit) *Text {
	if len(edits) == 0 {
		return t
	}

	resolved := make([]resolvedEdit, 0, len(edits))
	var eol EndOfLine
	for i, e := range edits {
		if e.NewEOL != 0 {
			eol = e.NewEOL
		}
		if e.Range.IsEmpty() && e.NewText == "" {
			continue
		}
		r := t.ValidateRange(e.Range)
		resolved = append(resolved, resolvedEdit{
			index: i,
			start: r.start,
			from:  t.byteOffsetAt(r.start),
			to:    t.byteOffsetAt(r.end),
			text:  e.NewText,
		})
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		a, b := resolved[i], resolved[j]
		if c := a.start.Compare(b.start); c != 0 {
			return c > 0
		}
		if a.to != b.to {
			return a.to > b.to
		}
		return a.index > b.index
	})

	content := t.content
	for _, e := range resolved {
		content = splice(content, e.from, e.to, e.text)
	}

	if eol != 0 {
		return NewText(ConvertEOL(content, eol), eol)
	}
	return NewText(content, t.eol)
}

// splice replaces content[from:to] with text, clamping both offsets.
func splice(content string, from, to int, text string) string {
	n := len(content)
	if from > n {
		from = n
	}
	if to > n {
		to = n
	}
	if to < from {
		to = from
	}

	var b strings.Builder
	b.Grow(n - (to - from) + len(text))
	b.WriteString(content[:from])
	b.WriteString(text)
	b.WriteString(content[to:])
	return b.String()
}

// FullChange describes replacing all of before with after, as a single
// content change.
func FullChange(before *Text, after *Text) ContentChange {
	return ContentChange{
		Range:       before.FullRange(),
		RangeOffset: 0,
		RangeLength: before.Len(),
		Text:        after.Content(),
	}
}
