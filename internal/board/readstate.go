package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/systemshift/iris/internal/safefile"
)

// ReadState is the set of record hashes a user has seen. Hashes keep their
// stored form on disk; membership ignores surrounding whitespace.
type ReadState struct {
	path   string
	hashes []string
	keys   map[string]bool
}

func newReadState(path string, hashes []string) *ReadState {
	rs := &ReadState{path: path, keys: make(map[string]bool, len(hashes))}
	for _, h := range hashes {
		k := HashKey(h)
		if k == "" || rs.keys[k] {
			continue
		}
		rs.keys[k] = true
		rs.hashes = append(rs.hashes, h)
	}
	sort.Strings(rs.hashes)
	return rs
}

// LoadReadState reads the read file at path. A missing file is an empty
// set; a file that is not a JSON array of strings is a *ParseError.
func LoadReadState(path string) (*ReadState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return newReadState(path, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var hashes []string
	if err := json.Unmarshal(data, &hashes); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if hashes == nil {
		return nil, &ParseError{Path: path, Err: errors.New("not a JSON array")}
	}
	return newReadState(path, hashes), nil
}

// EnsureReadFile creates path holding an empty array when it does not
// exist. An existing file is never touched. It reports whether it created
// the file.
func EnsureReadFile(path string) (bool, error) {
	created, err := safefile.CreateExclusive(path, []byte("[]\n"), RecordFileMode)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	return created, nil
}

// Path is the file the state was loaded from.
func (rs *ReadState) Path() string { return rs.path }

// Len is the number of distinct hashes marked read.
func (rs *ReadState) Len() int { return len(rs.hashes) }

// Hashes returns the sorted, deduplicated read hashes.
func (rs *ReadState) Hashes() []string {
	out := make([]string, len(rs.hashes))
	copy(out, rs.hashes)
	return out
}

// Has reports whether hash has been marked read.
func (rs *ReadState) Has(hash string) bool {
	return rs.keys[HashKey(hash)]
}

// Unread returns the candidates not marked read, in candidate order.
func (rs *ReadState) Unread(candidates []string) []string {
	var out []string
	for _, h := range candidates {
		if !rs.Has(h) {
			out = append(out, h)
		}
	}
	return out
}

// MarkRead persists the union of the current set and hashes, replacing the
// whole file, and returns the new state. rs itself is not modified.
func (rs *ReadState) MarkRead(hashes []string) (*ReadState, error) {
	all := make([]string, 0, len(rs.hashes)+len(hashes))
	all = append(all, rs.hashes...)
	all = append(all, hashes...)
	next := newReadState(rs.path, all)
	out := next.hashes
	if out == nil {
		out = []string{}
	}
	if err := safefile.WriteJSON(rs.path, out, RecordFileMode); err != nil {
		return nil, fmt.Errorf("write %s: %w", rs.path, err)
	}
	return next, nil
}
