package fuse

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// DataFile is a read-only file rendered from the current snapshot on every
// access. content reports false once the thing it describes is gone.
type DataFile struct {
	fs.Inode
	ino     uint64
	content func() ([]byte, bool)
}

var _ = (fs.NodeGetattrer)((*DataFile)(nil))
var _ = (fs.NodeOpener)((*DataFile)(nil))
var _ = (fs.NodeReader)((*DataFile)(nil))

func (f *DataFile) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	data, ok := f.content()
	if !ok {
		return syscall.ENOENT
	}
	out.Mode = 0444
	out.Size = uint64(len(data))
	out.Ino = f.ino
	return fs.OK
}

func (f *DataFile) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC) != 0 {
		return nil, 0, syscall.EROFS
	}
	// Contents change on reload, so bypass the page cache.
	return nil, fuse.FOPEN_DIRECT_IO, fs.OK
}

func (f *DataFile) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, ok := f.content()
	if !ok {
		return nil, syscall.ENOENT
	}
	if off >= int64(len(data)) {
		return fuse.ReadResultData(nil), fs.OK
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return fuse.ReadResultData(data[off:end]), fs.OK
}

// Symlink is a relative link between two places in the mount. The target
// is resolved against the current snapshot on every readlink.
type Symlink struct {
	fs.Inode
	ino    uint64
	target func() (string, bool)
}

var _ = (fs.NodeReadlinker)((*Symlink)(nil))
var _ = (fs.NodeGetattrer)((*Symlink)(nil))

func (s *Symlink) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	target, ok := s.target()
	if !ok {
		return nil, syscall.ENOENT
	}
	return []byte(target), fs.OK
}

func (s *Symlink) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	target, ok := s.target()
	if !ok {
		return syscall.ENOENT
	}
	out.Mode = 0777 | syscall.S_IFLNK
	out.Size = uint64(len(target))
	out.Ino = s.ino
	return fs.OK
}

func newSymlink(ctx context.Context, parent *fs.Inode, path string, target func() (string, bool)) *fs.Inode {
	ino := stableIno(path)
	return parent.NewInode(ctx, &Symlink{ino: ino, target: target}, fs.StableAttr{
		Mode: syscall.S_IFLNK,
		Ino:  ino,
	})
}

func newFile(ctx context.Context, parent *fs.Inode, path string, content func() ([]byte, bool)) *fs.Inode {
	ino := stableIno(path)
	return parent.NewInode(ctx, &DataFile{ino: ino, content: content}, fs.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  ino,
	})
}

// fixed is a symlink target that never changes.
func fixed(target string) func() (string, bool) {
	return func() (string, bool) { return target, true }
}
