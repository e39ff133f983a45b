package buffer

import (
	"testing"
)

func TestApplyEdits_Insert(t *testing.T) {
	got := ApplyEdits(NewText("abc", 0), []TextEdit{Insert(Pos(0, 3), "def")})
	if got.Content() != "abcdef" {
		t.Errorf("got %q, want %q", got.Content(), "abcdef")
	}
}

func TestApplyEdits_OffsetsFromOriginal(t *testing.T) {
	txt := NewText("hello world\nsecond line", 0)
	edits := []TextEdit{
		Replace(Rng(0, 0, 0, 5), "HELLO THERE"),
		Delete(Rng(0, 5, 0, 11)),
		Insert(Pos(1, 0), ">> "),
		Replace(Rng(1, 7, 1, 11), "LINE"),
	}

	got := ApplyEdits(txt, edits)
	want := "HELLO THERE\n>> second LINE"
	if got.Content() != want {
		t.Errorf("got %q, want %q", got.Content(), want)
	}
	if txt.Content() != "hello world\nsecond line" {
		t.Error("ApplyEdits must not modify its input")
	}
}

func TestApplyEdits_OrderIndependent(t *testing.T) {
	txt := NewText("one two three\nfour five", 0)
	edits := []TextEdit{
		Replace(Rng(0, 0, 0, 3), "1"),
		Replace(Rng(0, 4, 0, 7), "2"),
		Replace(Rng(0, 8, 0, 13), "3"),
		Insert(Pos(1, 0), "[4]"),
		Delete(Rng(1, 4, 1, 9)),
	}
	want := ApplyEdits(txt, edits).Content()

	perms := [][]int{
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
		{1, 3, 0, 4, 2},
	}
	for _, perm := range perms {
		shuffled := make([]TextEdit, len(perm))
		for i, j := range perm {
			shuffled[i] = edits[j]
		}
		if got := ApplyEdits(txt, shuffled).Content(); got != want {
			t.Errorf("order %v: got %q, want %q", perm, got, want)
		}
	}
	if want != "1 2 3\n[4]four" {
		t.Errorf("unexpected result %q", want)
	}
}

func TestApplyEdits_InsertAndReplaceAtSameStart(t *testing.T) {
	txt := NewText("hello world", 0)
	tests := []struct {
		name  string
		edits []TextEdit
	}{
		{"insert first", []TextEdit{Insert(Pos(0, 0), "X"), Replace(Rng(0, 0, 0, 5), "Y")}},
		{"replace first", []TextEdit{Replace(Rng(0, 0, 0, 5), "Y"), Insert(Pos(0, 0), "X")}},
		{"with a later edit", []TextEdit{Insert(Pos(0, 0), "X"), Delete(Rng(0, 5, 0, 6)), Replace(Rng(0, 0, 0, 5), "Y")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyEdits(txt, tt.edits).Content()
			want := "XY world"
			if tt.name == "with a later edit" {
				want = "XYworld"
			}
			if got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestApplyEdits_SamePositionInsertsKeepInputOrder(t *testing.T) {
	txt := NewText("xy", 0)
	got := ApplyEdits(txt, []TextEdit{
		Insert(Pos(0, 1), "a"),
		Insert(Pos(0, 1), "b"),
		Insert(Pos(0, 1), "c"),
	})
	if got.Content() != "xabcy" {
		t.Errorf("got %q, want %q", got.Content(), "xabcy")
	}
}

func TestApplyEdits_OverlappingIsDeterministic(t *testing.T) {
	txt := NewText("abcdefgh", 0)
	edits := []TextEdit{
		Replace(Rng(0, 1, 0, 5), "X"),
		Replace(Rng(0, 3, 0, 7), "Y"),
	}

	first := ApplyEdits(txt, edits).Content()
	for i := 0; i < 5; i++ {
		if got := ApplyEdits(txt, edits).Content(); got != first {
			t.Fatalf("non-deterministic: %q vs %q", got, first)
		}
	}

	// The later start is applied first ("abcYh"), then the earlier edit
	// splices over offsets [1,5) of that result.
	if first != "aX" {
		t.Errorf("got %q", first)
	}
}

func TestApplyEdits_ClampsOutOfRange(t *testing.T) {
	txt := NewText("ab\ncd", 0)
	got := ApplyEdits(txt, []TextEdit{
		Insert(Pos(99, 99), "!"),
		Replace(Rng(0, 1, 0, 50), "Z"),
	})
	if got.Content() != "aZ\ncd!" {
		t.Errorf("got %q", got.Content())
	}
}

func TestApplyEdits_EOL(t *testing.T) {
	txt := NewText("a\nb", 0)
	got := ApplyEdits(txt, []TextEdit{SetEndOfLine(CRLF), Insert(Pos(1, 1), "\nc")})
	if got.Content() != "a\r\nb\r\nc" || got.EOL() != CRLF {
		t.Errorf("got %q (%v)", got.Content(), got.EOL())
	}

	single := NewText("abc", CRLF)
	if out := ApplyEdits(single, []TextEdit{Insert(Pos(0, 0), "x")}); out.EOL() != CRLF {
		t.Errorf("EOL should be carried when content has no newline: %v", out.EOL())
	}
}

func TestApplyEdits_NoEdits(t *testing.T) {
	txt := NewText("same", 0)
	if ApplyEdits(txt, nil) != txt {
		t.Error("no edits should return the input")
	}
	if got := ApplyEdits(txt, []TextEdit{Insert(Pos(0, 0), "")}); got.Content() != "same" {
		t.Errorf("no-op edit changed content: %q", got.Content())
	}
}

func TestApplyEdits_LinesStayConsistent(t *testing.T) {
	txt := NewText("a\r\nb\r\nc", 0)
	got := ApplyEdits(txt, []TextEdit{
		Delete(Rng(0, 1, 1, 0)),
		Insert(Pos(2, 1), "\r\nd"),
	})
	lines := got.Lines()
	if len(lines) != 3 || lines[0] != "ab" || lines[2] != "d" {
		t.Errorf("lines: %q", lines)
	}
}

func TestFullChange(t *testing.T) {
	before := NewText("ab\ncd", 0)
	after := ApplyEdits(before, []TextEdit{Insert(Pos(1, 2), "e")})
	c := FullChange(before, after)
	if c.Range != Rng(0, 0, 1, 2) || c.RangeLength != 5 || c.Text != "ab\ncde" {
		t.Errorf("FullChange: %+v", c)
	}
}

func TestTextEdit_String(t *testing.T) {
	tests := []struct {
		edit TextEdit
		want string
	}{
		{Insert(Pos(0, 1), "x"), `Insert((0:1), "x")`},
		{Delete(Rng(0, 0, 0, 2)), "Delete([(0:0)-(0:2)])"},
		{Replace(Rng(0, 0, 0, 2), "y"), `Replace([(0:0)-(0:2)], "y")`},
		{SetEndOfLine(LF), "SetEOL(LF)"},
	}
	for _, tt := range tests {
		if got := tt.edit.String(); got != tt.want {
			t.Errorf("String: got %s, want %s", got, tt.want)
		}
	}
	if !Insert(Pos(0, 0), "").IsNoOp() {
		t.Error("empty insert should be a no-op")
	}
}
