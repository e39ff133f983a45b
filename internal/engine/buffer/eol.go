package buffer

import "strings"

// EndOfLine is a line terminator convention. The zero value means "unset".
type EndOfLine int

const (
	// LF is "\n".
	LF EndOfLine = 1
	// CRLF is "\r\n".
	CRLF EndOfLine = 2
)

// String returns "LF" or "CRLF".
func (e EndOfLine) String() string {
	switch e {
	case LF:
		return "LF"
	case CRLF:
		return "CRLF"
	default:
		return "unset"
	}
}

// Sequence returns the terminator characters. Unset yields "\n".
func (e EndOfLine) Sequence() string {
	if e == CRLF {
		return "\r\n"
	}
	return "\n"
}

// ParseEOL maps "\n", "\r\n", "lf" and "crlf" (any case) to an EndOfLine.
// Anything else is unset.
func ParseEOL(s string) EndOfLine {
	switch strings.ToLower(s) {
	case "\n", "lf":
		return LF
	case "\r\n", "crlf":
		return CRLF
	default:
		return 0
	}
}

// DetectEOL returns the line terminator of content: the first "\n" decides,
// CRLF if it is preceded by "\r". Content without a newline gets def, or LF
// when def is unset.
func DetectEOL(content string, def EndOfLine) EndOfLine {
	i := strings.IndexByte(content, '\n')
	if i < 0 {
		if def == 0 {
			return LF
		}
		return def
	}
	if i > 0 && content[i-1] == '\r' {
		return CRLF
	}
	return LF
}

// ConvertEOL rewrites every line terminator in content to eol.
func ConvertEOL(content string, eol EndOfLine) string {
	lf := strings.ReplaceAll(content, "\r\n", "\n")
	if eol == CRLF {
		return strings.ReplaceAll(lf, "\n", "\r\n")
	}
	return lf
}
