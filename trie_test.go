package ember

import "testing"

func newTestDict(terms ...string) *TermDict {
	d := NewTermDict()
	for _, t := range terms {
		d.Add(t)
	}
	return d
}

func TestTermDictExpandPrefix(t *testing.T) {
	d := newTestDict("hello", "help", "helmet", "world")
	got, err := d.ExpandPrefix("hel", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"hello", "help", "helmet"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	seen := map[string]bool{}
	for _, g := range got {
		seen[g] = true
	}
	for _, w := range want {
		if !seen[w] {
			t.Fatalf("missing %q in %v", w, got)
		}
	}
}

func TestTermDictExpandPrefixTooManyResults(t *testing.T) {
	d := newTestDict("aa", "ab", "ac")
	_, err := d.ExpandPrefix("a", 2)
	if err == nil {
		t.Fatalf("expected error when prefix exceeds limit")
	}
	if !IsKind(err, TooManyResults) {
		t.Fatalf("expected Kind TooManyResults, got %v", err)
	}
}

func TestTermDictExpandFuzzy(t *testing.T) {
	d := newTestDict("kitten", "sitting", "bitten", "mountain")
	got, err := d.ExpandFuzzy("kitten", 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := map[string]bool{}
	for _, g := range got {
		seen[g] = true
	}
	if !seen["kitten"] || !seen["sitting"] || !seen["bitten"] {
		t.Fatalf("expected kitten/sitting/bitten within edit distance 2, got %v", got)
	}
	if seen["mountain"] {
		t.Fatalf("mountain should not be within edit distance 2 of kitten, got %v", got)
	}
}

func TestTermDictExpandWildcard(t *testing.T) {
	d := newTestDict("foobar", "foobaz", "fizz", "foo")
	got, err := d.ExpandWildcard("foo*", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := map[string]bool{}
	for _, g := range got {
		seen[g] = true
	}
	for _, w := range []string{"foobar", "foobaz", "foo"} {
		if !seen[w] {
			t.Fatalf("missing %q in %v", w, got)
		}
	}
	if seen["fizz"] {
		t.Fatalf("fizz should not match foo*, got %v", got)
	}
}

func TestTermDictAddDedup(t *testing.T) {
	d := NewTermDict()
	d.Add("abc")
	d.Add("abc")
	got, _ := d.ExpandPrefix("abc", 10)
	if len(got) != 1 {
		t.Fatalf("expected exactly one entry after duplicate Add, got %v", got)
	}
}

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"h?llo", "hello", true},
		{"h?llo", "hllo", false},
		{"*world", "hello world", true},
		{"foo*bar", "foobazbar", true},
		{"foo*bar", "foobaz", false},
		{"exact", "exact", true},
		{"exact", "exacty", false},
	}
	for _, c := range cases {
		got := globMatch(c.pattern, c.s)
		if got != c.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", c.pattern, c.s, got, c.want)
		}
	}
}
