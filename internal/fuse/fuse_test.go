package fuse

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/iris/internal/board"
	"github.com/systemshift/iris/internal/logger"
)

type homeOwners struct{}

func (homeOwners) OwnerOf(path string) (string, error) {
	return filepath.Base(filepath.Dir(path)), nil
}

func newBoard(t *testing.T, root, user string) *board.Board {
	t.Helper()
	dir := filepath.Join(root, user)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b, err := board.New(board.Options{
		Author:      user + "@ctrl-c.club",
		MessageFile: filepath.Join(dir, ".iris.messages"),
		ReadFile:    filepath.Join(dir, ".iris.read"),
		Discover:    board.GlobSource(filepath.Join(root, "*", ".iris.messages")),
		Owners:      homeOwners{},
		Logger:      logger.Discard(),
		Now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
	})
	if err != nil {
		t.Fatalf("board.New: %v", err)
	}
	return b
}

func TestPositionName(t *testing.T) {
	tests := []struct {
		pos, total int
		want       string
	}{
		{1, 1, "01"},
		{9, 12, "09"},
		{7, 150, "007"},
		{150, 150, "150"},
	}
	for _, tt := range tests {
		if got := positionName(tt.pos, tt.total); got != tt.want {
			t.Errorf("positionName(%d, %d) = %q, want %q", tt.pos, tt.total, got, tt.want)
		}
	}
}

func TestParsePosition(t *testing.T) {
	for name, want := range map[string]int{"1": 1, "01": 1, "007": 7, "12": 12} {
		got, ok := parsePosition(name)
		if !ok || got != want {
			t.Errorf("parsePosition(%q) = %d, %v", name, got, ok)
		}
	}
	for _, name := range []string{"", "0", "00", "-1", "1a", "abc"} {
		if _, ok := parsePosition(name); ok {
			t.Errorf("parsePosition(%q) should fail", name)
		}
	}
}

func TestDataFile(t *testing.T) {
	ctx := context.Background()
	content := []byte("hello board\n")
	gone := false
	f := &DataFile{ino: 7, content: func() ([]byte, bool) { return content, !gone }}

	var out fuse.AttrOut
	if errno := f.Getattr(ctx, nil, &out); errno != 0 {
		t.Fatalf("Getattr: %v", errno)
	}
	if out.Size != uint64(len(content)) || out.Ino != 7 || out.Mode != 0444 {
		t.Errorf("attr = size %d ino %d mode %o", out.Size, out.Ino, out.Mode)
	}

	if _, _, errno := f.Open(ctx, syscall.O_WRONLY); errno != syscall.EROFS {
		t.Errorf("write open = %v, want EROFS", errno)
	}
	_, flags, errno := f.Open(ctx, syscall.O_RDONLY)
	if errno != 0 || flags&fuse.FOPEN_DIRECT_IO == 0 {
		t.Errorf("read open = %v flags %x", errno, flags)
	}

	buf := make([]byte, 5)
	res, errno := f.Read(ctx, nil, buf, 6)
	if errno != 0 {
		t.Fatalf("Read: %v", errno)
	}
	got, _ := res.Bytes(buf)
	if string(got) != "board" {
		t.Errorf("Read = %q, want %q", got, "board")
	}
	res, _ = f.Read(ctx, nil, buf, 100)
	if got, _ := res.Bytes(buf); len(got) != 0 {
		t.Errorf("read past end = %q", got)
	}

	gone = true
	if errno := f.Getattr(ctx, nil, &out); errno != syscall.ENOENT {
		t.Errorf("Getattr after removal = %v, want ENOENT", errno)
	}
}

func TestSymlink(t *testing.T) {
	ctx := context.Background()
	s := &Symlink{ino: stableIno("unread/01"), target: fixed("../topics/01")}
	got, errno := s.Readlink(ctx)
	if errno != 0 || string(got) != "../topics/01" {
		t.Errorf("Readlink = %q, %v", got, errno)
	}
	var out fuse.AttrOut
	s.Getattr(ctx, nil, &out)
	if out.Mode&syscall.S_IFLNK == 0 || out.Size != uint64(len("../topics/01")) {
		t.Errorf("attr mode %o size %d", out.Mode, out.Size)
	}
	if out.Ino != stableIno("unread/01") {
		t.Errorf("attr ino = %d, want %d", out.Ino, stableIno("unread/01"))
	}

	missing := &Symlink{target: func() (string, bool) { return "", false }}
	if _, errno := missing.Readlink(ctx); errno != syscall.ENOENT {
		t.Errorf("dangling Readlink = %v", errno)
	}
}

func TestRecordFields(t *testing.T) {
	root := t.TempDir()
	alice, bob := newBoard(t, root, "alice"), newBoard(t, root, "bob")
	if _, _, err := alice.Post("hello board"); err != nil {
		t.Fatal(err)
	}
	c, err := bob.Load()
	if err != nil {
		t.Fatal(err)
	}
	topic := c.Topics()[0]
	if c, _, err = bob.Reply(c, topic.Hash, "hi alice"); err != nil {
		t.Fatal(err)
	}

	view := NewView(c)
	dir := &RecordDir{view: view, path: "topics/01", resolve: func(c *board.Corpus) *board.Message {
		return c.FindTopicByPosition(1)
	}}
	_, m := dir.current()
	if m == nil {
		t.Fatal("topic 1 not resolved")
	}
	want := map[string]string{
		"message":   "hello board\n",
		"author":    "alice@ctrl-c.club\n",
		"timestamp": "2024-01-01T00:01:00Z\n",
		"hash":      board.HashKey(topic.Hash) + "\n",
		"errors":    "",
		"deleted":   "false\n",
	}
	for _, f := range recordFields {
		w, ok := want[f.name]
		if !ok {
			continue
		}
		if got := f.render(c, m); got != w {
			t.Errorf("%s = %q, want %q", f.name, got, w)
		}
	}

	replies := &RepliesDir{record: dir, path: "topics/01/replies"}
	if got := replies.replies(); len(got) != 1 || got[0].Body != "hi alice" {
		t.Errorf("replies = %+v", got)
	}

	// A snapshot without the topic makes the directory disappear.
	empty, err := newBoard(t, t.TempDir(), "carol").Load()
	if err != nil {
		t.Fatal(err)
	}
	view.Swap(empty)
	var out fuse.AttrOut
	if errno := dir.Getattr(context.Background(), nil, &out); errno != syscall.ENOENT {
		t.Errorf("Getattr after swap = %v, want ENOENT", errno)
	}
}

func TestCIDName(t *testing.T) {
	root := t.TempDir()
	alice := newBoard(t, root, "alice")
	c, r, err := alice.Post("hello board")
	if err != nil {
		t.Fatal(err)
	}
	m := c.FindByHash(r.Hash)
	name, ok := cidName(m)
	if !ok || !strings.HasPrefix(name, "b") {
		t.Fatalf("cidName = %q, %v", name, ok)
	}
	hash, err := board.HashFromCID(name)
	if err != nil || board.HashKey(hash) != board.HashKey(r.Hash) {
		t.Errorf("HashFromCID(%q) = %q, %v", name, hash, err)
	}
}
