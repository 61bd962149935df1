package linkrewrite

import (
	"testing"
)

func TestRewrite_Relative(t *testing.T) {
	r := New(ModeRelative, "")
	cases := []struct {
		name    string
		content string
		dir     string
		want    string
	}{
		{"simple doc link", "[x](y.md)", "foo/bar", "[x](../foo/bar/y.md)"},
		{"fragment kept", "see [x](y.md#usage)", "foo", "see [x](../foo/y.md#usage)"},
		{"dot prefix cleaned", "[x](./y.md)", "foo", "[x](../foo/y.md)"},
		{"parent link", "[x](../shared/README.md)", "lib/net", "[x](../lib/shared/README.md)"},
		{"root document", "[guide](docs/guide.md)", "", "[guide](../docs/guide.md)"},
		{"root as dot", "[guide](docs/guide.md)", ".", "[guide](../docs/guide.md)"},
		{"image any extension", "![d](img/d.png)", "foo", "![d](../foo/img/d.png)"},
		{"uppercase extension", "[x](NOTES.MD)", "foo", "[x](../foo/NOTES.MD)"},
		{"title kept", `[x](y.md "Why")`, "foo", `[x](../foo/y.md "Why")`},
		{"non doc link untouched", "[src](main.c)", "foo", "[src](main.c)"},
		{"http untouched", "[x](http://a/b.md)", "foo", "[x](http://a/b.md)"},
		{"https image untouched", "![b](https://img.shields.io/b.svg)", "foo", "![b](https://img.shields.io/b.svg)"},
		{"mailto untouched", "[m](mailto:a@b.md)", "foo", "[m](mailto:a@b.md)"},
		{"anchor untouched", "[a](#install)", "foo", "[a](#install)"},
		{"rooted untouched", "[a](/modules/x.md)", "foo", "[a](/modules/x.md)"},
		{"code untouched", "`[x](y.md)` and\n\n```\n[x](y.md)\n```\n", "foo", "`[x](y.md)` and\n\n```\n[x](y.md)\n```\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Rewrite(tc.content, tc.dir); got != tc.want {
				t.Fatalf("Rewrite(%q, %q) = %q, want %q", tc.content, tc.dir, got, tc.want)
			}
		})
	}
}

func TestRewrite_ZeroValueIsRelative(t *testing.T) {
	var r Rewriter
	if got := r.Rewrite("[x](y.md)", "foo/bar"); got != "[x](../foo/bar/y.md)" {
		t.Fatalf("got %q", got)
	}
}

func TestRewrite_RelativeIsNotIdempotent(t *testing.T) {
	r := New(ModeRelative, "")
	once := r.Rewrite("[x](y.md)", "foo/bar")
	twice := r.Rewrite(once, "foo/bar")
	if once == twice {
		t.Fatal("relative mode is expected to re-prefix on a second pass")
	}
}

func TestRewrite_AbsoluteIsIdempotent(t *testing.T) {
	r := New(ModeAbsolute, "/src")
	content := "[x](y.md#a) ![i](../img/i.png) [h](https://x.io/a.md)"
	once := r.Rewrite(content, "foo/bar")
	want := "[x](/src/foo/bar/y.md#a) ![i](/src/foo/img/i.png) [h](https://x.io/a.md)"
	if once != want {
		t.Fatalf("got %q, want %q", once, want)
	}
	if twice := r.Rewrite(once, "foo/bar"); twice != once {
		t.Fatalf("absolute mode changed already rewritten content: %q", twice)
	}
}

func TestRewrite_AbsoluteDefaultBase(t *testing.T) {
	r := Rewriter{Mode: ModeAbsolute}
	if got := r.Rewrite("[x](y.md)", "lib"); got != "[x](/lib/y.md)" {
		t.Fatalf("got %q", got)
	}
}

func TestEdits(t *testing.T) {
	src := []byte("a [x](y.md) b [z](http://q)")
	edits := New(ModeRelative, "").Edits(src, "d")
	if len(edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(edits))
	}
	if string(src[edits[0].Start:edits[0].End]) != "y.md" || string(edits[0].Replacement) != "../d/y.md" {
		t.Fatalf("unexpected edit %+v", edits[0])
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" Absolute "); err != nil || m != ModeAbsolute {
		t.Fatalf("got %q, %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != ModeRelative {
		t.Fatalf("empty: got %q, %v", m, err)
	}
	if _, err := ParseMode("sideways"); err == nil {
		t.Fatal("expected error")
	}
}

func TestHasScheme(t *testing.T) {
	cases := map[string]bool{
		"http://a":       true,
		"mailto:x@y":     true,
		"data:image/png": true,
		"git+ssh://h":    true,
		"y.md":           false,
		"./a:b.md":       false,
		":nope":          false,
		"1http://a":      false,
	}
	for in, want := range cases {
		if got := HasScheme(in); got != want {
			t.Errorf("HasScheme(%q) = %v, want %v", in, got, want)
		}
	}
}
