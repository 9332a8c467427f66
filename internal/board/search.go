package board

import (
	"sort"
	"strings"
	"unicode"
)

// SearchIndex is an inverted index over the visible messages of a corpus.
// It is built once per snapshot and never modified.
type SearchIndex struct {
	msgs  []*Message
	index map[string]map[int]bool // term -> message positions
}

// tokenize splits text into distinct lowercase terms of two or more runes.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool)
	var result []string
	for _, w := range words {
		if len([]rune(w)) < 2 || seen[w] {
			continue
		}
		seen[w] = true
		result = append(result, w)
	}
	return result
}

// NewSearchIndex indexes the body and author of every visible message in c.
func NewSearchIndex(c *Corpus) *SearchIndex {
	s := &SearchIndex{index: make(map[string]map[int]bool)}
	for _, m := range c.all {
		if !c.IsVisible(m) {
			continue
		}
		pos := len(s.msgs)
		s.msgs = append(s.msgs, m)
		for _, term := range tokenize(m.Body + " " + m.Author) {
			if s.index[term] == nil {
				s.index[term] = make(map[int]bool)
			}
			s.index[term][pos] = true
		}
	}
	return s
}

// Search returns the messages matching any query term, most matched terms
// first and corpus order within a score. limit <= 0 means no limit.
func (s *SearchIndex) Search(query string, limit int) []*Message {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	scores := make(map[int]int)
	for _, term := range terms {
		for pos := range s.index[term] {
			scores[pos]++
		}
	}

	type scored struct {
		pos   int
		score int
	}
	results := make([]scored, 0, len(scores))
	for pos, score := range scores {
		results = append(results, scored{pos, score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].pos < results[j].pos
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	out := make([]*Message, len(results))
	for i, r := range results {
		out[i] = s.msgs[r.pos]
	}
	return out
}

// Search queries the snapshot's index, building it on first use.
func (c *Corpus) Search(query string, limit int) []*Message {
	c.searchOnce.Do(func() {
		c.search = NewSearchIndex(c)
	})
	return c.search.Search(query, limit)
}
