package fuse

import (
	"context"
	"strings"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/iris/internal/board"
)

// recordField renders one file of a record directory.
type recordField struct {
	name   string
	render func(c *board.Corpus, m *board.Message) string
}

var recordFields = []recordField{
	{"message", func(c *board.Corpus, m *board.Message) string { return withNewline(m.Body) }},
	{"author", func(c *board.Corpus, m *board.Message) string { return m.Author + "\n" }},
	{"timestamp", func(c *board.Corpus, m *board.Message) string { return m.Timestamp + "\n" }},
	{"hash", func(c *board.Corpus, m *board.Message) string { return board.HashKey(m.Hash) + "\n" }},
	{"cid", func(c *board.Corpus, m *board.Message) string {
		cid, _ := cidName(m)
		return withNewline(cid)
	}},
	{"errors", func(c *board.Corpus, m *board.Message) string {
		var b strings.Builder
		for _, err := range m.Errors {
			b.WriteString(err.Error() + "\n")
		}
		return b.String()
	}},
	{"deleted", func(c *board.Corpus, m *board.Message) string {
		if m.Deleted {
			return "true\n"
		}
		return "false\n"
	}},
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// RecordDir is one record: topics/NN/ or hashes/<cid>/. Contains the record
// fields as files and replies/.
type RecordDir struct {
	fs.Inode
	view    *View
	path    string
	resolve func(c *board.Corpus) *board.Message
}

var _ = (fs.NodeLookuper)((*RecordDir)(nil))
var _ = (fs.NodeReaddirer)((*RecordDir)(nil))
var _ = (fs.NodeGetattrer)((*RecordDir)(nil))

func (d *RecordDir) current() (*board.Corpus, *board.Message) {
	c := d.view.Corpus()
	return c, d.resolve(c)
}

func (d *RecordDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	if _, m := d.current(); m == nil {
		return syscall.ENOENT
	}
	out.Mode = dirMode
	out.Ino = stableIno(d.path)
	return fs.OK
}

func (d *RecordDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries := make([]fuse.DirEntry, 0, len(recordFields)+1)
	for _, f := range recordFields {
		entries = append(entries, fuse.DirEntry{
			Name: f.name,
			Mode: syscall.S_IFREG,
			Ino:  stableIno(d.path + "/" + f.name),
		})
	}
	entries = append(entries, fuse.DirEntry{
		Name: "replies",
		Mode: syscall.S_IFDIR,
		Ino:  stableIno(d.path + "/replies"),
	})
	return fs.NewListDirStream(entries), fs.OK
}

func (d *RecordDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if name == "replies" {
		replies := &RepliesDir{record: d, path: d.path + "/replies"}
		return d.NewInode(ctx, replies, fs.StableAttr{
			Mode: syscall.S_IFDIR,
			Ino:  stableIno(replies.path),
		}), fs.OK
	}
	for _, f := range recordFields {
		if f.name != name {
			continue
		}
		render := f.render
		return newFile(ctx, &d.Inode, d.path+"/"+name, func() ([]byte, bool) {
			c, m := d.current()
			if m == nil {
				return nil, false
			}
			return []byte(render(c, m)), true
		}), fs.OK
	}
	return nil, syscall.ENOENT
}

// RepliesDir lists a record's visible replies in thread order. Each entry
// links to the reply under hashes/.
type RepliesDir struct {
	fs.Inode
	record *RecordDir
	path   string
}

var _ = (fs.NodeLookuper)((*RepliesDir)(nil))
var _ = (fs.NodeReaddirer)((*RepliesDir)(nil))
var _ = (fs.NodeGetattrer)((*RepliesDir)(nil))

func (d *RepliesDir) replies() []*board.Message {
	c, m := d.record.current()
	if m == nil {
		return nil
	}
	return c.Replies(m)
}

func (d *RepliesDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	if _, m := d.record.current(); m == nil {
		return syscall.ENOENT
	}
	out.Mode = dirMode
	out.Ino = stableIno(d.path)
	return fs.OK
}

func (d *RepliesDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	replies := d.replies()
	entries := make([]fuse.DirEntry, len(replies))
	for i := range replies {
		name := positionName(i+1, len(replies))
		entries[i] = fuse.DirEntry{
			Name: name,
			Mode: syscall.S_IFLNK,
			Ino:  stableIno(d.path + "/" + name),
		}
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *RepliesDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	pos, ok := parsePosition(name)
	if !ok || pos > len(d.replies()) {
		return nil, syscall.ENOENT
	}
	return newSymlink(ctx, &d.Inode, d.path+"/"+name, func() (string, bool) {
		replies := d.replies()
		if pos > len(replies) {
			return "", false
		}
		cid, ok := cidName(replies[pos-1])
		if !ok {
			return "", false
		}
		return "../../../hashes/" + cid, true
	}), fs.OK
}
