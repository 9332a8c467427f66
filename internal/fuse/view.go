package fuse

import (
	"sync"

	"github.com/systemshift/iris/internal/board"
)

// View holds the corpus snapshot the mount serves. Reloads swap the whole
// snapshot; a lookup sees either the old corpus or the new one.
type View struct {
	mu     sync.RWMutex
	corpus *board.Corpus
}

// NewView returns a view serving c.
func NewView(c *board.Corpus) *View {
	return &View{corpus: c}
}

// Corpus returns the current snapshot.
func (v *View) Corpus() *board.Corpus {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.corpus
}

// Swap replaces the snapshot.
func (v *View) Swap(c *board.Corpus) {
	v.mu.Lock()
	v.corpus = c
	v.mu.Unlock()
}
