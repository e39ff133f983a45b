package search

import (
	"errors"
	"testing"

	"github.com/dshills/extsim/internal/uri"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		candidate string
		pattern   string
		want      bool
	}{
		{"src/a.ts", "**/*.ts", true},
		{"a.ts", "**/*.ts", true},
		{"src/a.ts", "*.ts", false},
		{"/src/a.ts", "src/*.ts", true},
		{"src/a.js", "src/*.{ts,js}", true},
		{"src/.env", "**/.env", true},
		{"node_modules/x/y.js", "**/node_modules/**", true},
		{"lib/a.go", "[a-k]*/*.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.candidate, func(t *testing.T) {
			got, err := Match(tt.candidate, tt.pattern)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.candidate, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, p := range []string{"", "/", "src/[a-"} {
		if _, err := Compile(p); !errors.Is(err, ErrBadPattern) {
			t.Errorf("Compile(%q) error = %v, want ErrBadPattern", p, err)
		}
	}
}

func TestCompiled_MatchURI(t *testing.T) {
	root := uri.File("/w")
	a := uri.File("/w/src/a.ts")

	plain, err := Glob("src/*.ts").Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !plain.MatchURI(a, root) {
		t.Error("plain pattern should match relative to root")
	}
	if plain.MatchURI(uri.File("/other/src/a.ts"), root) {
		t.Error("plain pattern should not match outside root")
	}
	if plain.MatchURI(a, uri.URI{}) {
		t.Error("without a root the full path is tested")
	}

	rel, err := RelativePattern(uri.File("/w/src"), "*.ts").Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !rel.IsRelative() || !rel.MatchURI(a, uri.File("/elsewhere")) {
		t.Error("relative pattern should match against its base")
	}
}

func TestCompileAll(t *testing.T) {
	set, err := CompileAll([]string{"**/.git", "src/[a-", "**/*.log"})
	if !errors.Is(err, ErrBadPattern) {
		t.Errorf("CompileAll() error = %v, want ErrBadPattern", err)
	}
	if len(set) != 2 {
		t.Fatalf("CompileAll() kept %d patterns, want 2", len(set))
	}

	root := uri.File("/w")
	if !set.MatchURI(uri.File("/w/out/x.log"), root) {
		t.Error("set should match x.log")
	}
	if set.MatchURI(uri.File("/w/x.txt"), root) {
		t.Error("set should not match x.txt")
	}
}
