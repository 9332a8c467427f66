package board

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Corpus is a read-only snapshot of every record file on the host, merged
// and indexed. A Corpus is never updated; mutations produce a new one.
type Corpus struct {
	all        []*Message
	mine       []*Message
	topics     []*Message
	byHash     map[string]int   // hash key -> position in all
	byParent   map[string][]int // parent hash key -> positions, ascending
	superseded map[string]bool  // hash keys named by some edit_of
	mineKeys   map[string]bool
	read       *ReadState
	skipped    []error

	searchOnce sync.Once
	search     *SearchIndex
}

func newCorpus(all, mine []*Message, read *ReadState, skipped []error) *Corpus {
	c := &Corpus{
		all:        sortByTimestamp(all),
		mine:       sortByTimestamp(mine),
		byHash:     make(map[string]int, len(all)),
		byParent:   make(map[string][]int),
		superseded: make(map[string]bool),
		mineKeys:   make(map[string]bool, len(mine)),
		read:       read,
		skipped:    skipped,
	}
	if c.read == nil {
		c.read = newReadState("", nil)
	}
	for i, m := range c.all {
		key := HashKey(m.Hash)
		// The same record can appear in several files; the first copy wins.
		if _, dup := c.byHash[key]; !dup {
			c.byHash[key] = i
		}
		if p := HashKey(m.Parent); p != "" {
			c.byParent[p] = append(c.byParent[p], i)
		}
		if e := HashKey(m.EditOf); e != "" {
			c.superseded[e] = true
		}
	}
	for _, m := range c.mine {
		c.mineKeys[HashKey(m.Hash)] = true
	}
	for _, m := range c.all {
		if m.IsTopic() && c.IsVisible(m) {
			c.topics = append(c.topics, m)
		}
	}
	return c
}

type timedMessage struct {
	m      *Message
	t      time.Time
	parsed bool
}

// sortByTimestamp orders messages by timestamp, oldest first, keeping source
// order for ties. Timestamps that do not parse sort before those that do,
// ordered among themselves as strings.
func sortByTimestamp(msgs []*Message) []*Message {
	keyed := make([]timedMessage, len(msgs))
	for i, m := range msgs {
		t, err := time.Parse(time.RFC3339, m.Timestamp)
		keyed[i] = timedMessage{m: m, t: t, parsed: err == nil}
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		a, b := keyed[i], keyed[j]
		if a.parsed != b.parsed {
			return !a.parsed
		}
		if !a.parsed {
			return a.m.Timestamp < b.m.Timestamp
		}
		return a.t.Before(b.t)
	})
	out := make([]*Message, len(keyed))
	for i, k := range keyed {
		out[i] = k.m
	}
	return out
}

// All returns every loaded message in timestamp order, superseded ones
// included.
func (c *Corpus) All() []*Message { return c.all }

// Mine returns the acting user's own messages in timestamp order.
func (c *Corpus) Mine() []*Message { return c.mine }

// Topics returns the visible topics in timestamp order. Position n in the
// board is Topics()[n-1].
func (c *Corpus) Topics() []*Message { return c.topics }

// ReadState returns the read set the snapshot was built with.
func (c *Corpus) ReadState() *ReadState { return c.read }

// Skipped returns the diagnostics of record files left out of the corpus.
func (c *Corpus) Skipped() []error { return c.skipped }

// FindByHash resolves any record by hash, superseded ones included.
func (c *Corpus) FindByHash(hash string) *Message {
	i, ok := c.byHash[HashKey(hash)]
	if !ok {
		return nil
	}
	return c.all[i]
}

// FindAllByParentHash returns the visible direct replies to hash. An empty
// or unknown hash has no replies.
func (c *Corpus) FindAllByParentHash(hash string) []*Message {
	out := []*Message{}
	for _, i := range c.byParent[HashKey(hash)] {
		if c.IsVisible(c.all[i]) {
			out = append(out, c.all[i])
		}
	}
	return out
}

// FindTopicByPosition returns the n-th visible topic, counting from 1.
func (c *Corpus) FindTopicByPosition(n int) *Message {
	if n < 1 || n > len(c.topics) {
		return nil
	}
	return c.topics[n-1]
}

// FindTopicByHash resolves a topic by hash whether or not it has been
// superseded.
func (c *Corpus) FindTopicByHash(hash string) *Message {
	m := c.FindByHash(hash)
	if m == nil || !m.IsTopic() {
		return nil
	}
	return m
}

// FindTopic resolves id as a 1-based topic position when it is a number and
// as a hash otherwise.
func (c *Corpus) FindTopic(id string) *Message {
	id = strings.TrimSpace(id)
	if n, err := strconv.Atoi(id); err == nil {
		return c.FindTopicByPosition(n)
	}
	return c.FindTopicByHash(id)
}

// Position returns the 1-based position of a visible topic, or 0.
func (c *Corpus) Position(topic *Message) int {
	key := HashKey(topic.Hash)
	for i, t := range c.topics {
		if HashKey(t.Hash) == key {
			return i + 1
		}
	}
	return 0
}

// IsVisible reports whether m has not been superseded by an edit.
func (c *Corpus) IsVisible(m *Message) bool {
	return !c.superseded[HashKey(m.Hash)]
}

// IsMine reports whether m was loaded from the acting user's own file.
func (c *Corpus) IsMine(m *Message) bool {
	return c.mineKeys[HashKey(m.Hash)]
}

// IsUnread reports whether m is visible, not marked read and not the acting
// user's own.
func (c *Corpus) IsUnread(m *Message) bool {
	return c.IsVisible(m) && !c.read.Has(m.Hash) && !c.IsMine(m)
}

// Successor returns the newest record in m's edit chain. For a visible
// message that is m itself.
func (c *Corpus) Successor(m *Message) *Message {
	seen := map[string]bool{}
	for !c.IsVisible(m) {
		key := HashKey(m.Hash)
		if seen[key] {
			break
		}
		seen[key] = true
		var next *Message
		for _, cand := range c.all {
			if HashKey(cand.EditOf) == key {
				next = cand
				break
			}
		}
		if next == nil {
			break
		}
		m = next
	}
	return m
}

// Replies returns the visible replies to m and to every record m's edit
// chain replaced, in corpus order.
func (c *Corpus) Replies(m *Message) []*Message {
	var positions []int
	found := map[int]bool{}
	seen := map[string]bool{}
	r := m.Record
	for {
		key := HashKey(r.Hash)
		if key == "" || seen[key] {
			break
		}
		seen[key] = true
		for _, i := range c.byParent[key] {
			if !found[i] && c.IsVisible(c.all[i]) {
				found[i] = true
				positions = append(positions, i)
			}
		}
		pred := c.FindByHash(r.EditOf)
		if pred == nil {
			break
		}
		r = pred.Record
	}
	sort.Ints(positions)
	out := make([]*Message, len(positions))
	for j, i := range positions {
		out[j] = c.all[i]
	}
	return out
}

// Thread returns the hashes a mark-read of topic covers: the topic and its
// visible replies.
func (c *Corpus) Thread(topic *Message) []string {
	hashes := []string{topic.Hash}
	for _, r := range c.Replies(topic) {
		hashes = append(hashes, r.Hash)
	}
	return hashes
}

// UnreadReplies returns the unread replies to topic.
func (c *Corpus) UnreadReplies(topic *Message) []*Message {
	var out []*Message
	for _, r := range c.Replies(topic) {
		if c.IsUnread(r) {
			out = append(out, r)
		}
	}
	return out
}

// HasUnread reports whether topic or any of its replies is unread.
func (c *Corpus) HasUnread(topic *Message) bool {
	return c.IsUnread(topic) || len(c.UnreadReplies(topic)) > 0
}

// UnreadTopics returns the topics that are unread or carry an unread reply.
func (c *Corpus) UnreadTopics() []*Message {
	var out []*Message
	for _, t := range c.topics {
		if c.HasUnread(t) {
			out = append(out, t)
		}
	}
	return out
}

// UnreadMessages counts every unread visible message.
func (c *Corpus) UnreadMessages() int {
	n := 0
	for _, m := range c.all {
		if c.IsUnread(m) {
			n++
		}
	}
	return n
}

// Authors returns the distinct authors in the corpus, sorted.
func (c *Corpus) Authors() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range c.all {
		if !seen[m.Author] {
			seen[m.Author] = true
			out = append(out, m.Author)
		}
	}
	sort.Strings(out)
	return out
}

// Stats summarizes a corpus.
type Stats struct {
	Topics         int      `json:"topics"`
	Messages       int      `json:"messages"`
	UnreadTopics   int      `json:"unread_topics"`
	UnreadMessages int      `json:"unread_messages"`
	Invalid        int      `json:"invalid"`
	Authors        []string `json:"authors"`
	SkippedFiles   int      `json:"skipped_files"`
}

// Stats counts topics, visible messages, unread items and invalid records.
func (c *Corpus) Stats() Stats {
	s := Stats{
		Topics:         len(c.topics),
		UnreadTopics:   len(c.UnreadTopics()),
		UnreadMessages: c.UnreadMessages(),
		Authors:        c.Authors(),
		SkippedFiles:   len(c.skipped),
	}
	for _, m := range c.all {
		if c.IsVisible(m) {
			s.Messages++
		}
		if !m.Valid() {
			s.Invalid++
		}
	}
	if s.Authors == nil {
		s.Authors = []string{}
	}
	return s
}
