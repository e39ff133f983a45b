// Package buffer provides the text model shared by documents and editors:
// immutable Position, Range, Selection and TextEdit values, an immutable Text
// snapshot with lazily split lines, and ApplyEdits, the multi-edit engine.
//
// # Units
//
// Line numbers are zero-based. Character offsets and document offsets count
// UTF-16 code units, matching the editor contract that extensions are written
// against. Byte offsets never leave this package.
//
// # Clamping
//
// Position arithmetic never fails on out-of-range input. Text.ValidatePosition
// clamps a line past the end to the last line, a character past the end of
// its line to the line length, and negative values to zero. OffsetAt and
// PositionAt are inverses over validated input.
//
// # Line terminators
//
// A Text uses a single line terminator for the whole content, taken from the
// first "\n": if it is preceded by "\r" the text is CRLF, otherwise LF.
// Mixed terminators are not tracked per line.
//
// # Edits
//
// ApplyEdits sorts edits by descending start position (later input first on
// ties, so inserts at one position keep their input order), computes every
// offset against the pre-edit text, and splices back to front. Overlapping
// edits are not rejected; the result is deterministic.
package buffer
