package fuse

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// searchLimit caps the results listed under one query.
const searchLimit = 100

// SearchRootDir is the /search/ directory. Lookup treats the name as a query.
type SearchRootDir struct {
	fs.Inode
	view *View
}

var _ = (fs.NodeLookuper)((*SearchRootDir)(nil))
var _ = (fs.NodeReaddirer)((*SearchRootDir)(nil))
var _ = (fs.NodeGetattrer)((*SearchRootDir)(nil))

func (d *SearchRootDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = dirMode
	out.Ino = stableIno("search")
	return fs.OK
}

func (d *SearchRootDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	// Queries are only reachable by name.
	return fs.NewListDirStream(nil), fs.OK
}

func (d *SearchRootDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if len(d.view.Corpus().Search(name, searchLimit)) == 0 {
		return nil, syscall.ENOENT
	}
	dir := &SearchResultsDir{view: d.view, query: name}
	return d.NewInode(ctx, dir, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno("search/" + name),
	}), fs.OK
}

// SearchResultsDir is /search/{query}/. Lists matching records as symlinks
// into hashes/.
type SearchResultsDir struct {
	fs.Inode
	view  *View
	query string
}

var _ = (fs.NodeLookuper)((*SearchResultsDir)(nil))
var _ = (fs.NodeReaddirer)((*SearchResultsDir)(nil))
var _ = (fs.NodeGetattrer)((*SearchResultsDir)(nil))

func (d *SearchResultsDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = dirMode
	out.Ino = stableIno("search/" + d.query)
	return fs.OK
}

func (d *SearchResultsDir) results() []string {
	var names []string
	for _, m := range d.view.Corpus().Search(d.query, searchLimit) {
		if name, ok := cidName(m); ok {
			names = append(names, name)
		}
	}
	return names
}

func (d *SearchResultsDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	results := d.results()
	entries := make([]fuse.DirEntry, len(results))
	for i, name := range results {
		entries[i] = fuse.DirEntry{
			Name: name,
			Mode: syscall.S_IFLNK,
			Ino:  stableIno("search/" + d.query + "/" + name),
		}
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *SearchResultsDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	found := false
	for _, r := range d.results() {
		if r == name {
			found = true
			break
		}
	}
	if !found {
		return nil, syscall.ENOENT
	}
	return newSymlink(ctx, &d.Inode, "search/"+d.query+"/"+name, fixed("../../hashes/"+name)), fs.OK
}

