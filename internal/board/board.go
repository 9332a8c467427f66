// Package board implements the iris record store: content-addressed
// records kept in one JSON file per user, merged into a read-only Corpus
// with edit chains, threading and per-user read tracking.
package board

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"
)

// Options configures a Board.
type Options struct {
	Author      string // localpart@host stamped on new records
	MessageFile string // acting user's record file
	ReadFile    string // acting user's read file

	// Discover lists the record files on the host. The acting user's own
	// file is always loaded, listed or not.
	Discover func() ([]string, error)
	Owners   OwnerResolver
	Logger   *slog.Logger
	Now      func() time.Time
}

// Board binds the acting user to the record files on the host. It holds no
// corpus: Load and every mutation return a fresh snapshot.
type Board struct {
	opts Options
	log  *slog.Logger
}

// New validates opts and fills defaults.
func New(opts Options) (*Board, error) {
	if opts.MessageFile == "" {
		return nil, errors.New("board: message file not set")
	}
	if opts.ReadFile == "" {
		return nil, errors.New("board: read file not set")
	}
	if opts.Author == "" {
		return nil, errors.New("board: author not set")
	}
	if opts.Owners == nil {
		owners, err := NewPasswdOwners(256)
		if err != nil {
			return nil, err
		}
		opts.Owners = owners
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Board{opts: opts, log: log}, nil
}

// GlobSource discovers record files matching pattern, e.g.
// "/home/*/.iris.messages".
func GlobSource(pattern string) func() ([]string, error) {
	return func() ([]string, error) {
		paths, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		return paths, nil
	}
}

// Author is the identity stamped on records this board creates.
func (b *Board) Author() string { return b.opts.Author }

// MessageFile is the acting user's record file.
func (b *Board) MessageFile() string { return b.opts.MessageFile }

// ReadFile is the acting user's read file.
func (b *Board) ReadFile() string { return b.opts.ReadFile }

// Files returns the record files a load reads, the acting user's first.
func (b *Board) Files() ([]string, error) {
	own := filepath.Clean(b.opts.MessageFile)
	files := []string{own}
	if b.opts.Discover == nil {
		return files, nil
	}
	found, err := b.opts.Discover()
	if err != nil {
		return nil, err
	}
	for _, p := range found {
		if filepath.Clean(p) != own {
			files = append(files, filepath.Clean(p))
		}
	}
	return files, nil
}

// Load reads every record file and the read file into a new Corpus. Parse
// failures in the acting user's own files are returned; any other file that
// cannot be read is skipped and recorded on Corpus.Skipped.
func (b *Board) Load() (*Corpus, error) {
	files, err := b.Files()
	if err != nil {
		return nil, fmt.Errorf("discover record files: %w", err)
	}

	var all, mine []*Message
	var skipped []error
	for i, path := range files {
		own := i == 0
		msgs, err := b.loadFile(path, own)
		if err != nil {
			if own {
				return nil, err
			}
			b.log.Warn("skipping record file", "path", path, "err", err)
			skipped = append(skipped, err)
			continue
		}
		all = append(all, msgs...)
		if own {
			mine = msgs
		}
	}

	read, err := LoadReadState(b.opts.ReadFile)
	if err != nil {
		return nil, err
	}
	c := newCorpus(all, mine, read, skipped)
	b.log.Debug("corpus loaded", "files", len(files), "messages", len(c.all), "topics", len(c.topics), "skipped", len(skipped))
	return c, nil
}

// loadFile loads and validates one record file. An unresolvable owner
// skips other users' files; on the acting user's own file it is recorded on
// each message instead.
func (b *Board) loadFile(path string, own bool) ([]*Message, error) {
	recs, err := LoadRecordFile(path)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	owner, ownerErr := b.opts.Owners.OwnerOf(path)
	if ownerErr != nil && !own {
		return nil, ownerErr
	}
	msgs := make([]*Message, len(recs))
	for i, r := range recs {
		msgs[i] = newMessage(r, path, owner, ownerErr)
		if !msgs[i].Valid() {
			b.log.Info("invalid record", "path", path, "hash", HashKey(r.Hash), "errors", len(msgs[i].Errors))
		}
	}
	return msgs, nil
}

// Post creates a topic.
func (b *Board) Post(body string) (*Corpus, Record, error) {
	r, err := NewRecord(body, "", b.opts.Author, b.opts.Now())
	if err != nil {
		return nil, Record{}, err
	}
	return b.commitAppend(r)
}

// Reply creates a reply to the record with hash parent.
func (b *Board) Reply(c *Corpus, parent, body string) (*Corpus, Record, error) {
	p := c.FindByHash(parent)
	if p == nil {
		return nil, Record{}, fmt.Errorf("reply to %s: %w", HashKey(parent), ErrNotFound)
	}
	r, err := NewRecord(body, p.Hash, b.opts.Author, b.opts.Now())
	if err != nil {
		return nil, Record{}, err
	}
	return b.commitAppend(r)
}

// Edit supersedes one of the acting user's visible records with a new body.
func (b *Board) Edit(c *Corpus, hash, body string) (*Corpus, Record, error) {
	m, err := b.ownVisible(c, hash)
	if err != nil {
		return nil, Record{}, fmt.Errorf("edit %s: %w", HashKey(hash), err)
	}
	r, err := Edit(m.Record, body)
	if err != nil {
		return nil, Record{}, err
	}
	return b.commitAppend(r)
}

// Delete toggles the tombstone on one of the acting user's visible records.
// Deleting a deleted record restores it.
func (b *Board) Delete(c *Corpus, hash string) (*Corpus, Record, error) {
	m, err := b.ownVisible(c, hash)
	if err != nil {
		return nil, Record{}, fmt.Errorf("delete %s: %w", HashKey(hash), err)
	}
	r := m.Record.ToggleDelete()
	if err := ReplaceRecord(b.opts.MessageFile, r); err != nil {
		return nil, Record{}, err
	}
	next, err := b.Load()
	if err != nil {
		return nil, Record{}, err
	}
	return next, r, nil
}

func (b *Board) ownVisible(c *Corpus, hash string) (*Message, error) {
	m := c.FindByHash(hash)
	if m == nil {
		return nil, ErrNotFound
	}
	if !c.IsMine(m) {
		return nil, ErrNotOwner
	}
	if !c.IsVisible(m) {
		return nil, ErrSuperseded
	}
	return m, nil
}

func (b *Board) commitAppend(r Record) (*Corpus, Record, error) {
	if err := AppendRecord(b.opts.MessageFile, r); err != nil {
		return nil, Record{}, err
	}
	b.log.Debug("record written", "path", b.opts.MessageFile, "hash", HashKey(r.Hash))
	next, err := b.Load()
	if err != nil {
		return nil, Record{}, err
	}
	return next, r, nil
}

// MarkRead marks topic and its visible replies read.
func (b *Board) MarkRead(c *Corpus, topic *Message) (*Corpus, error) {
	return b.markRead(c, c.Thread(topic))
}

// MarkAllRead marks every topic and reply on the board read.
func (b *Board) MarkAllRead(c *Corpus) (*Corpus, error) {
	var hashes []string
	for _, t := range c.Topics() {
		hashes = append(hashes, c.Thread(t)...)
	}
	return b.markRead(c, hashes)
}

func (b *Board) markRead(c *Corpus, hashes []string) (*Corpus, error) {
	rs := c.ReadState()
	if rs.Path() == "" {
		loaded, err := LoadReadState(b.opts.ReadFile)
		if err != nil {
			return nil, err
		}
		rs = loaded
	}
	if _, err := rs.MarkRead(hashes); err != nil {
		return nil, err
	}
	return b.Load()
}
