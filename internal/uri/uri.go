// Package uri provides the resource identifier used as the universal key for
// files, directories, documents, and workspace folders.
//
// A URI is an immutable value. Two URIs are equal when their canonical string
// forms are equal; callers must never compare URIs by reference.
package uri

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode"
)

// Well-known schemes.
const (
	FileScheme     = "file"
	UntitledScheme = "untitled"
)

// Errors returned by Parse.
var (
	// ErrMissingScheme is returned when the input has no scheme.
	ErrMissingScheme = errors.New("uri: missing scheme")

	// ErrInvalidScheme is returned when the scheme contains illegal characters.
	ErrInvalidScheme = errors.New("uri: invalid scheme")
)

// URI is a scheme-qualified resource identifier.
//
// The path component is stored unescaped. For the file scheme it is always an
// absolute, cleaned, forward-slash path; Windows drive letters are kept in the
// form "/c:/dir".
type URI struct {
	scheme    string
	authority string
	path      string
	query     string
	fragment  string
}

// Parse parses a URI string such as "file:///src/a.ts" or "untitled:Untitled-1".
func Parse(s string) (URI, error) {
	if s == "" {
		return URI{}, ErrMissingScheme
	}
	u, err := url.Parse(s)
	if err != nil {
		return URI{}, fmt.Errorf("uri: parse %q: %w", s, err)
	}
	if u.Scheme == "" {
		return URI{}, fmt.Errorf("%w: %q", ErrMissingScheme, s)
	}
	if !validScheme(u.Scheme) {
		return URI{}, fmt.Errorf("%w: %q", ErrInvalidScheme, u.Scheme)
	}

	p := u.Path
	if u.Opaque != "" {
		p, err = url.PathUnescape(u.Opaque)
		if err != nil {
			return URI{}, fmt.Errorf("uri: parse %q: %w", s, err)
		}
	}

	return build(strings.ToLower(u.Scheme), u.Host, p, u.RawQuery, u.Fragment), nil
}

// MustParse is like Parse but panics if the input cannot be parsed.
// It is intended for tests and package-level variables.
func MustParse(s string) URI {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// File returns a file URI for the given path. Backslashes are treated as
// separators and relative paths are anchored at the root.
func File(p string) URI {
	return build(FileScheme, "", p, "", "")
}

// From returns a URI with the given scheme and path.
func From(scheme, p string) URI {
	return build(strings.ToLower(scheme), "", p, "", "")
}

// Untitled returns an untitled URI with the given name, e.g. "Untitled-1".
func Untitled(name string) URI {
	return build(UntitledScheme, "", name, "", "")
}

func build(scheme, authority, p, query, fragment string) URI {
	if scheme == FileScheme || strings.HasPrefix(p, "/") || authority != "" {
		p = normalizePath(p)
	}
	return URI{
		scheme:    scheme,
		authority: authority,
		path:      p,
		query:     query,
		fragment:  fragment,
	}
}

// normalizePath converts p into a cleaned absolute forward-slash path.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if isDriveLetterPath(p) {
		p = "/" + p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = path.Clean(p)
	if len(p) >= 3 && isDriveLetterPath(p[1:]) {
		p = "/" + strings.ToLower(p[1:2]) + p[2:]
	}
	return p
}

// isDriveLetterPath reports whether p begins with a drive letter, e.g. "C:/".
func isDriveLetterPath(p string) bool {
	return len(p) >= 2 && p[1] == ':' && unicode.IsLetter(rune(p[0])) &&
		(len(p) == 2 || p[2] == '/')
}

func validScheme(s string) bool {
	for i, r := range s {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && ('0' <= r && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return s != ""
}

// Scheme returns the URI scheme, always lower case.
func (u URI) Scheme() string { return u.scheme }

// Authority returns the authority (host) component.
func (u URI) Authority() string { return u.authority }

// Path returns the unescaped path component.
func (u URI) Path() string { return u.path }

// Query returns the raw query component.
func (u URI) Query() string { return u.query }

// Fragment returns the fragment component.
func (u URI) Fragment() string { return u.fragment }

// IsZero reports whether u is the zero URI.
func (u URI) IsZero() bool {
	return u == URI{}
}

// IsFile reports whether u uses the file scheme.
func (u URI) IsFile() bool { return u.scheme == FileScheme }

// IsUntitled reports whether u uses the untitled scheme.
func (u URI) IsUntitled() bool { return u.scheme == UntitledScheme }

// String returns the canonical string form. It is the comparison key for
// every registry in the module.
func (u URI) String() string {
	if u.IsZero() {
		return ""
	}
	var b strings.Builder
	b.WriteString(u.scheme)
	b.WriteByte(':')
	if u.scheme == FileScheme || u.authority != "" {
		b.WriteString("//")
		b.WriteString(u.authority)
	}
	b.WriteString(escapePath(u.path))
	if u.query != "" {
		b.WriteByte('?')
		b.WriteString(u.query)
	}
	if u.fragment != "" {
		b.WriteByte('#')
		b.WriteString(url.PathEscape(u.fragment))
	}
	return b.String()
}

// Key returns the registry key for u. It is identical to String.
func (u URI) Key() string { return u.String() }

// Equal reports whether u and other have the same canonical form.
func (u URI) Equal(other URI) bool {
	return u.String() == other.String()
}

// MarshalText implements encoding.TextMarshaler.
func (u URI) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *URI) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*u = URI{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// WithPath returns a copy of u with the path replaced.
func (u URI) WithPath(p string) URI {
	return build(u.scheme, u.authority, p, u.query, u.fragment)
}

// WithScheme returns a copy of u with the scheme replaced.
func (u URI) WithScheme(scheme string) URI {
	return build(strings.ToLower(scheme), u.authority, u.path, u.query, u.fragment)
}

// WithQuery returns a copy of u with the query replaced.
func (u URI) WithQuery(query string) URI {
	u.query = query
	return u
}

// WithFragment returns a copy of u with the fragment replaced.
func (u URI) WithFragment(fragment string) URI {
	u.fragment = fragment
	return u
}

// JoinPath returns u with the given segments appended to its path. Query and
// fragment are dropped.
func (u URI) JoinPath(segments ...string) URI {
	elems := append([]string{u.path}, segments...)
	return build(u.scheme, u.authority, path.Join(elems...), "", "")
}

// Dir returns the parent of u. The parent of the root is the root itself.
func (u URI) Dir() URI {
	return build(u.scheme, u.authority, path.Dir(u.path), "", "")
}

// Base returns the last element of the path.
func (u URI) Base() string {
	return path.Base(u.path)
}

// Ext returns the file name extension of the path, including the dot.
func (u URI) Ext() string {
	return path.Ext(u.path)
}

// IsRoot reports whether the path of u is the root "/".
func (u URI) IsRoot() bool {
	return u.path == "/"
}

// Segments returns the non-empty path segments of u.
func (u URI) Segments() []string {
	var out []string
	for _, s := range strings.Split(u.path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Encloses reports whether u contains child: same scheme and authority, and
// child's path equals u's path or lies beneath it. Containment is decided on
// whole segments, so "/src" does not enclose "/srcfoo".
func (u URI) Encloses(child URI) bool {
	if u.scheme != child.scheme || u.authority != child.authority {
		return false
	}
	_, ok := relPath(u.path, child.path)
	return ok
}

// Rel returns the slash-separated path of child relative to u, and whether
// child is enclosed by u. The relative path of u to itself is "".
func (u URI) Rel(child URI) (string, bool) {
	if u.scheme != child.scheme || u.authority != child.authority {
		return "", false
	}
	return relPath(u.path, child.path)
}

func relPath(parent, child string) (string, bool) {
	if parent == child {
		return "", true
	}
	prefix := parent
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if !strings.HasPrefix(child, prefix) {
		return "", false
	}
	return child[len(prefix):], true
}
