package uri

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in        string
		scheme    string
		path      string
		canonical string
	}{
		{"file:///src/a.ts", "file", "/src/a.ts", "file:///src/a.ts"},
		{"FILE:///src/../b.ts", "file", "/b.ts", "file:///b.ts"},
		{"file:///a%20b/c.txt", "file", "/a b/c.txt", "file:///a%20b/c.txt"},
		{"untitled:Untitled-1", "untitled", "Untitled-1", "untitled:Untitled-1"},
		{"file:///C:/Work/x.go", "file", "/c:/Work/x.go", "file:///c:/Work/x.go"},
		{"memfs://host/dir/f", "memfs", "/dir/f", "memfs://host/dir/f"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if u.Scheme() != tt.scheme {
				t.Errorf("Scheme: got %q, want %q", u.Scheme(), tt.scheme)
			}
			if u.Path() != tt.path {
				t.Errorf("Path: got %q, want %q", u.Path(), tt.path)
			}
			if u.String() != tt.canonical {
				t.Errorf("String: got %q, want %q", u.String(), tt.canonical)
			}

			again, err := Parse(u.String())
			if err != nil {
				t.Fatalf("re-Parse failed: %v", err)
			}
			if !again.Equal(u) {
				t.Errorf("round trip: got %q, want %q", again, u)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "/no/scheme", "1abc:/x"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}

	_, err := Parse("relative/path")
	if !errors.Is(err, ErrMissingScheme) {
		t.Errorf("expected ErrMissingScheme, got %v", err)
	}
}

func TestFile(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/a/b", "file:///a/b"},
		{"a/b", "file:///a/b"},
		{"/a/b/", "file:///a/b"},
		{`C:\Users\x`, "file:///c:/Users/x"},
		{"", "file:///"},
	}
	for _, tt := range tests {
		if got := File(tt.in).String(); got != tt.want {
			t.Errorf("File(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestURI_Equal(t *testing.T) {
	a := File("/x/y.txt")
	b := MustParse("file:///x/./y.txt")
	if !a.Equal(b) {
		t.Errorf("%q and %q should be equal", a, b)
	}
	if a.Equal(Untitled("y.txt")) {
		t.Error("different schemes should not be equal")
	}

	m := map[string]int{a.Key(): 1}
	if m[b.Key()] != 1 {
		t.Error("keys of equal URIs should collide")
	}
}

func TestURI_PathHelpers(t *testing.T) {
	u := File("/src/pkg/main.go")

	if got := u.Base(); got != "main.go" {
		t.Errorf("Base: got %q", got)
	}
	if got := u.Ext(); got != ".go" {
		t.Errorf("Ext: got %q", got)
	}
	if got := u.Dir().String(); got != "file:///src/pkg" {
		t.Errorf("Dir: got %q", got)
	}
	if got := File("/").Dir(); !got.IsRoot() {
		t.Errorf("Dir of root: got %q", got)
	}
	if got := File("/src").JoinPath("a", "../b.go").String(); got != "file:///src/b.go" {
		t.Errorf("JoinPath: got %q", got)
	}
	if got := u.WithPath("/other").String(); got != "file:///other" {
		t.Errorf("WithPath: got %q", got)
	}
	if got := u.Segments(); len(got) != 3 || got[2] != "main.go" {
		t.Errorf("Segments: got %v", got)
	}
}

func TestURI_Encloses(t *testing.T) {
	root := File("/src")
	tests := []struct {
		child URI
		want  bool
		rel   string
	}{
		{File("/src"), true, ""},
		{File("/src/a.ts"), true, "a.ts"},
		{File("/src/x/y.ts"), true, "x/y.ts"},
		{File("/srcfoo/a.ts"), false, ""},
		{File("/"), false, ""},
		{From("memfs", "/src/a.ts"), false, ""},
	}
	for _, tt := range tests {
		if got := root.Encloses(tt.child); got != tt.want {
			t.Errorf("Encloses(%q) = %v, want %v", tt.child, got, tt.want)
		}
		rel, ok := root.Rel(tt.child)
		if ok != tt.want || rel != tt.rel {
			t.Errorf("Rel(%q) = %q, %v; want %q, %v", tt.child, rel, ok, tt.rel, tt.want)
		}
	}

	if !File("/").Encloses(File("/a")) {
		t.Error("root should enclose everything on its volume")
	}
}

func TestURI_Text(t *testing.T) {
	var u URI
	if err := u.UnmarshalText([]byte("file:///a/b")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	text, err := u.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(text) != "file:///a/b" {
		t.Errorf("MarshalText: got %q", text)
	}

	var zero URI
	if err := zero.UnmarshalText(nil); err != nil || !zero.IsZero() {
		t.Errorf("empty text should yield zero URI, got %q, %v", zero, err)
	}
	if zero.String() != "" {
		t.Errorf("zero String: got %q", zero.String())
	}
}
