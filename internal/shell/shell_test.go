package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/systemshift/iris/internal/board"
	"github.com/systemshift/iris/internal/display"
	"github.com/systemshift/iris/internal/logger"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{Kind: CmdNone}},
		{"   ", Command{Kind: CmdNone}},
		{"help", Command{Kind: CmdHelp}},
		{"?", Command{Kind: CmdHelp}},
		{"t", Command{Kind: CmdTopics}},
		{"u", Command{Kind: CmdUnread}},
		{"12", Command{Kind: CmdShow, Arg: "12"}},
		{"show oic/FdsStZoVVFddyNONmT3g0Ds=", Command{Kind: CmdShow, Arg: "oic/FdsStZoVVFddyNONmT3g0Ds="}},
		{"c", Command{Kind: CmdCompose}},
		{"create", Command{Kind: CmdCompose}},
		{"r 3", Command{Kind: CmdReply, Arg: "3"}},
		{"reply\t3", Command{Kind: CmdReply, Arg: "3"}},
		{"e 2", Command{Kind: CmdEdit, Arg: "2"}},
		{"d abc=", Command{Kind: CmdDelete, Arg: "abc="}},
		{"m 1", Command{Kind: CmdMarkRead, Arg: "1"}},
		{"M", Command{Kind: CmdMarkAllRead}},
		{"/ quick fox", Command{Kind: CmdSearch, Arg: "quick fox"}},
		{"/fox", Command{Kind: CmdSearch, Arg: "fox"}},
		{"search  brown fox ", Command{Kind: CmdSearch, Arg: "brown fox"}},
		{"f", Command{Kind: CmdFreshen}},
		{"q", Command{Kind: CmdQuit}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.line)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.line, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Parse(%q) (-want +got):\n%s", tt.line, diff)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	for _, line := range []string{"frobnicate", "reply", "r", "search", "e", "mark_read"} {
		if _, err := Parse(line); err == nil {
			t.Errorf("Parse(%q) should fail", line)
		}
	}
}

func TestKindString(t *testing.T) {
	if CmdMarkAllRead.String() != "mark_all_read" {
		t.Errorf("String = %q", CmdMarkAllRead.String())
	}
	if Kind(99).String() != "Kind(99)" {
		t.Errorf("String = %q", Kind(99).String())
	}
}

type homeOwners struct{}

func (homeOwners) OwnerOf(path string) (string, error) {
	return filepath.Base(filepath.Dir(path)), nil
}

func openBoard(t *testing.T, root, user string) *board.Board {
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

// run feeds script to a shell for b and returns its output and final snapshot.
func run(t *testing.T, b *board.Board, history, script string) (string, *board.Corpus) {
	t.Helper()
	c, err := b.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var out bytes.Buffer
	sh := New(Options{
		Board:       b,
		Corpus:      c,
		Printer:     display.NewWithStyles(&out, 80, display.PlainStyles()),
		In:          strings.NewReader(script),
		HistoryFile: history,
		Version:     "test",
		Logger:      logger.Discard(),
	})
	if err := sh.Run(); err != nil {
		t.Fatalf("Run: %v\n%s", err, out.String())
	}
	return out.String(), sh.Corpus()
}

func TestSession_ComposeReplyRead(t *testing.T) {
	root := t.TempDir()
	alice, bob := openBoard(t, root, "alice"), openBoard(t, root, "bob")
	history := filepath.Join(root, "alice", ".iris.history")

	out, c := run(t, alice, history, "c\nhello board\nsecond line\n.\nt\nq\n")
	if !strings.Contains(out, "Topic saved!") {
		t.Fatalf("compose failed:\n%s", out)
	}
	if len(c.Topics()) != 1 || c.Topics()[0].Body != "hello board\nsecond line" {
		t.Fatalf("topics = %+v", c.Topics())
	}
	if !strings.Contains(out, "alice@ctrl-c.club | hello board") {
		t.Errorf("topic list missing:\n%s", out)
	}

	out, c = run(t, bob, "", "u\nr 1\nhi alice\n.\n1\nq\n")
	if !strings.Contains(out, "Reply saved!") {
		t.Fatalf("reply failed:\n%s", out)
	}
	if !strings.Contains(out, "  On 2024-01-01T00:01:00Z, bob@ctrl-c.club replied...") {
		t.Errorf("reply not shown:\n%s", out)
	}
	if len(c.Replies(c.Topics()[0])) != 1 {
		t.Error("reply not attached")
	}

	out, c = run(t, alice, history, "u\nm 1\nu\nq\n")
	if !strings.Contains(out, "Topic 1 marked read.") || !strings.Contains(out, "No unread topics.") {
		t.Errorf("mark read:\n%s", out)
	}
	if len(c.UnreadTopics()) != 0 {
		t.Error("topics still unread")
	}

	data, err := os.ReadFile(history)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// Only commands are remembered, not message bodies.
	if string(data) != "c\nt\nq\nu\nm 1\nu\nq\n" {
		t.Errorf("history = %q", data)
	}
}

func TestSession_EditDelete(t *testing.T) {
	root := t.TempDir()
	alice, bob := openBoard(t, root, "alice"), openBoard(t, root, "bob")

	out, c := run(t, alice, "", "c\ntypo\n.\ne 1\nfixed\n.\nt\nd 1\nd 1\nq\n")
	for _, want := range []string{"Message edited!", "(edited) fixed", "Message deleted.", "Message restored."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if len(c.Topics()) != 1 || c.Topics()[0].Body != "fixed" || c.Topics()[0].Deleted {
		t.Errorf("topics = %+v", c.Topics())
	}

	out, _ = run(t, bob, "", "e 1\nd 1\nq\n")
	if strings.Count(out, board.ErrNotOwner.Error()) != 2 {
		t.Errorf("bob should not edit or delete alice's topic:\n%s", out)
	}
}

func TestSession_EmptyAndUnknown(t *testing.T) {
	root := t.TempDir()
	alice := openBoard(t, root, "alice")

	out, c := run(t, alice, "", "t\nc\n\n.\nbogus\n7\n/ nothing\nf\n")
	for _, want := range []string{
		"No topics yet.",
		"Empty message, discarding...",
		`unknown command "bogus"`,
		"could not find a topic with ID 7",
		"No matches.",
		"Reloaded!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if len(c.All()) != 0 {
		t.Errorf("messages = %d, want 0", len(c.All()))
	}
}

func TestSession_Search(t *testing.T) {
	root := t.TempDir()
	alice := openBoard(t, root, "alice")
	out, _ := run(t, alice, "", "c\nthe quick brown fox\n.\nc\nsomething else\n.\n/fox\nq\n")
	if !strings.Contains(out, " 1 | topic | alice@ctrl-c.club | the quick brown fox") {
		t.Errorf("search output:\n%s", out)
	}
}

func TestSession_CorruptOwnFileIsFatal(t *testing.T) {
	root := t.TempDir()
	alice := openBoard(t, root, "alice")
	c, err := alice.Load()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(alice.MessageFile(), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	sh := New(Options{
		Board:   alice,
		Corpus:  c,
		Printer: display.NewWithStyles(&out, 80, display.PlainStyles()),
		In:      strings.NewReader("f\nq\n"),
		Logger:  logger.Discard(),
	})
	if err := sh.Run(); err == nil {
		t.Error("reload of a corrupt own file should end the session")
	}
}
