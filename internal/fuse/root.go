package fuse

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/iris/internal/board"
	"github.com/systemshift/iris/internal/display"
)

// dirMode is the permission of every directory in the mount.
const dirMode = 0555

// RootNode is the mountpoint directory. Contains "topics/", "unread/",
// "hashes/", "search/" and "stats.json".
type RootNode struct {
	fs.Inode
	view *View
}

var _ = (fs.NodeOnAdder)((*RootNode)(nil))
var _ = (fs.NodeGetattrer)((*RootNode)(nil))

func (r *RootNode) OnAdd(ctx context.Context) {
	dirs := []struct {
		name string
		node fs.InodeEmbedder
	}{
		{"topics", &TopicsDir{view: r.view}},
		{"unread", &UnreadDir{view: r.view}},
		{"hashes", &HashesDir{view: r.view}},
		{"search", &SearchRootDir{view: r.view}},
	}
	for _, d := range dirs {
		child := r.NewPersistentInode(ctx, d.node, fs.StableAttr{
			Mode: syscall.S_IFDIR,
			Ino:  stableIno(d.name),
		})
		r.AddChild(d.name, child, true)
	}

	stats := &DataFile{ino: stableIno("stats.json"), content: func() ([]byte, bool) {
		data, err := json.MarshalIndent(r.view.Corpus().Stats(), "", "  ")
		if err != nil {
			return nil, false
		}
		return append(data, '\n'), true
	}}
	r.AddChild("stats.json", r.NewPersistentInode(ctx, stats, fs.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  stats.ino,
	}), true)
}

func (r *RootNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = dirMode
	out.Ino = stableIno("/")
	return fs.OK
}

// positionName is the directory name of the topic at 1-based pos on a board
// with total topics, zero padded like the shell's topic index.
func positionName(pos, total int) string {
	return fmt.Sprintf("%0*d", display.IndexWidth(total), pos)
}

// parsePosition accepts a 1-based position with or without padding.
func parsePosition(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(name)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// cidName is the entry name of m under hashes/.
func cidName(m *board.Message) (string, bool) {
	cid, err := board.RecordCID(m.Hash)
	if err != nil {
		return "", false
	}
	return cid, true
}

// TopicsDir lists the visible topics by position.
type TopicsDir struct {
	fs.Inode
	view *View
}

var _ = (fs.NodeLookuper)((*TopicsDir)(nil))
var _ = (fs.NodeReaddirer)((*TopicsDir)(nil))
var _ = (fs.NodeGetattrer)((*TopicsDir)(nil))

func (d *TopicsDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = dirMode
	out.Ino = stableIno("topics")
	return fs.OK
}

func (d *TopicsDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	topics := d.view.Corpus().Topics()
	entries := make([]fuse.DirEntry, len(topics))
	for i := range topics {
		name := positionName(i+1, len(topics))
		entries[i] = fuse.DirEntry{
			Name: name,
			Mode: syscall.S_IFDIR,
			Ino:  stableIno("topics/" + name),
		}
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *TopicsDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	pos, ok := parsePosition(name)
	if !ok || d.view.Corpus().FindTopicByPosition(pos) == nil {
		return nil, syscall.ENOENT
	}
	// The inode outlives reloads, so the topic is found by position each time.
	dir := &RecordDir{view: d.view, path: "topics/" + name, resolve: func(c *board.Corpus) *board.Message {
		return c.FindTopicByPosition(pos)
	}}
	return d.NewInode(ctx, dir, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno(dir.path),
	}), fs.OK
}

// UnreadDir links to each topic that has something unread.
type UnreadDir struct {
	fs.Inode
	view *View
}

var _ = (fs.NodeLookuper)((*UnreadDir)(nil))
var _ = (fs.NodeReaddirer)((*UnreadDir)(nil))
var _ = (fs.NodeGetattrer)((*UnreadDir)(nil))

func (d *UnreadDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = dirMode
	out.Ino = stableIno("unread")
	return fs.OK
}

func (d *UnreadDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	c := d.view.Corpus()
	total := len(c.Topics())
	var entries []fuse.DirEntry
	for _, t := range c.UnreadTopics() {
		name := positionName(c.Position(t), total)
		entries = append(entries, fuse.DirEntry{
			Name: name,
			Mode: syscall.S_IFLNK,
			Ino:  stableIno("unread/" + name),
		})
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *UnreadDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	pos, ok := parsePosition(name)
	if !ok {
		return nil, syscall.ENOENT
	}
	c := d.view.Corpus()
	if t := c.FindTopicByPosition(pos); t == nil || !c.HasUnread(t) {
		return nil, syscall.ENOENT
	}
	return newSymlink(ctx, &d.Inode, "unread/"+name, func() (string, bool) {
		c := d.view.Corpus()
		if c.FindTopicByPosition(pos) == nil {
			return "", false
		}
		return "../topics/" + positionName(pos, len(c.Topics())), true
	}), fs.OK
}

// HashesDir holds every loaded record by CID, superseded edits included.
type HashesDir struct {
	fs.Inode
	view *View
}

var _ = (fs.NodeLookuper)((*HashesDir)(nil))
var _ = (fs.NodeReaddirer)((*HashesDir)(nil))
var _ = (fs.NodeGetattrer)((*HashesDir)(nil))

func (d *HashesDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = dirMode
	out.Ino = stableIno("hashes")
	return fs.OK
}

func (d *HashesDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	seen := make(map[string]bool)
	var entries []fuse.DirEntry
	for _, m := range d.view.Corpus().All() {
		name, ok := cidName(m)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		entries = append(entries, fuse.DirEntry{
			Name: name,
			Mode: syscall.S_IFDIR,
			Ino:  stableIno("hashes/" + name),
		})
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *HashesDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	hash, err := board.HashFromCID(name)
	if err != nil || d.view.Corpus().FindByHash(hash) == nil {
		return nil, syscall.ENOENT
	}
	dir := &RecordDir{view: d.view, path: "hashes/" + name, resolve: func(c *board.Corpus) *board.Message {
		return c.FindByHash(hash)
	}}
	return d.NewInode(ctx, dir, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno(dir.path),
	}), fs.OK
}
