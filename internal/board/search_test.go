package board

import (
	"fmt"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := tokenize("Hello, hello WORLD! a 42 é-tude")
	want := []string{"hello", "world", "42", "tude"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCorpusSearch(t *testing.T) {
	h := newTestHost(t)
	alice, bob := h.board(t, "alice"), h.board(t, "bob")

	_, a, _ := alice.Post("the quick brown fox")
	bob.Post("a quick note")
	alice.Edit(load(t, alice), a.Hash, "the quick brown fox jumps")

	c := load(t, bob)
	results := c.Search("quick fox", 0)
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Body != "the quick brown fox jumps" {
		t.Errorf("best match = %q", results[0].Body)
	}
	for _, m := range results {
		if !c.IsVisible(m) {
			t.Errorf("superseded record %q in results", m.Body)
		}
	}

	if got := c.Search("bob", 1); len(got) != 1 || got[0].Body != "a quick note" {
		t.Errorf("author search = %v", hashes(got))
	}
	if got := c.Search("!", 0); got != nil {
		t.Errorf("empty query = %v", got)
	}
}
