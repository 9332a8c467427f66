package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/systemshift/iris/internal/board"
	"github.com/systemshift/iris/internal/display"
	"github.com/systemshift/iris/internal/safefile"
)

// Options configures a Shell.
type Options struct {
	Board       *board.Board
	Corpus      *board.Corpus
	Printer     *display.Printer
	In          io.Reader
	Editor      string // command run on a temp file to compose; empty reads lines
	HistoryFile string // input lines are appended here; empty disables history
	Version     string
	Logger      *slog.Logger
}

// Shell runs the interactive board. It holds the latest snapshot and swaps
// it for the one each mutation returns.
type Shell struct {
	board   *board.Board
	corpus  *board.Corpus
	out     *display.Printer
	in      *bufio.Scanner
	editor  string
	history string
	version string
	log     *slog.Logger
}

// New returns a shell reading commands from opts.In.
func New(opts Options) *Shell {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Shell{
		board:   opts.Board,
		corpus:  opts.Corpus,
		out:     opts.Printer,
		in:      bufio.NewScanner(opts.In),
		editor:  opts.Editor,
		history: opts.HistoryFile,
		version: opts.Version,
		log:     log,
	}
}

// Corpus is the snapshot the shell currently shows.
func (s *Shell) Corpus() *board.Corpus { return s.corpus }

func (s *Shell) prompt() string {
	return s.board.Author() + "~> "
}

// Run reads and executes commands until quit or end of input. It returns
// an error only when the acting user's own files can no longer be read.
func (s *Shell) Run() error {
	s.out.Printf("Welcome to Iris v%s.  Type 'help' for a list of commands; Ctrl-D or 'quit' to leave.\n", s.version)
	if n := len(s.corpus.UnreadTopics()); n > 0 {
		s.out.Printf("%d unread topic(s). Type 'unread' to list them.\n", n)
	}
	for {
		s.out.Printf("%s", s.prompt())
		if !s.in.Scan() {
			s.out.Println()
			return s.in.Err()
		}
		line := s.in.Text()
		s.remember(line)

		cmd, err := Parse(line)
		if err != nil {
			s.out.Error("%v", err)
			continue
		}
		quit, err := s.Exec(cmd)
		if err != nil {
			if fatal(err) {
				return err
			}
			s.out.Error("%v", err)
		}
		if quit {
			return nil
		}
	}
}

// fatal reports errors that leave the acting user's own files unreadable.
func fatal(err error) bool {
	var pe *board.ParseError
	return errors.As(err, &pe)
}

func (s *Shell) remember(line string) {
	if s.history == "" || strings.TrimSpace(line) == "" {
		return
	}
	if err := safefile.Append(s.history, []byte(line+"\n"), 0600); err != nil {
		s.log.Debug("history", "path", s.history, "err", err)
	}
}

// Exec runs one command against the current snapshot.
func (s *Shell) Exec(cmd Command) (quit bool, err error) {
	switch cmd.Kind {
	case CmdNone:
	case CmdHelp:
		s.help()
	case CmdTopics:
		if len(s.corpus.Topics()) == 0 {
			s.out.Println("No topics yet. Type 'compose' to start one.")
			break
		}
		s.out.Topics(s.corpus, s.corpus.Topics())
	case CmdUnread:
		unread := s.corpus.UnreadTopics()
		if len(unread) == 0 {
			s.out.Println("No unread topics.")
			break
		}
		s.out.Topics(s.corpus, unread)
	case CmdShow:
		t, err := s.topic(cmd.Arg)
		if err != nil {
			return false, err
		}
		s.out.Topic(s.corpus, t)
	case CmdCompose:
		return false, s.compose()
	case CmdReply:
		return false, s.reply(cmd.Arg)
	case CmdEdit:
		return false, s.edit(cmd.Arg)
	case CmdDelete:
		return false, s.delete(cmd.Arg)
	case CmdMarkRead:
		t, err := s.topic(cmd.Arg)
		if err != nil {
			return false, err
		}
		c, err := s.board.MarkRead(s.corpus, t)
		if err != nil {
			return false, err
		}
		s.corpus = c
		s.out.Printf("Topic %d marked read.\n", s.corpus.Position(t))
	case CmdMarkAllRead:
		c, err := s.board.MarkAllRead(s.corpus)
		if err != nil {
			return false, err
		}
		s.corpus = c
		s.out.Println("All topics marked read.")
	case CmdSearch:
		s.search(cmd.Arg)
	case CmdFreshen:
		c, err := s.board.Load()
		if err != nil {
			return false, err
		}
		s.corpus = c
		s.out.Println("Reloaded!")
	case CmdQuit:
		return true, nil
	default:
		return false, fmt.Errorf("unhandled command %v", cmd.Kind)
	}
	return false, nil
}

// topic resolves a topic position or hash. A superseded topic resolves to
// its newest edit.
func (s *Shell) topic(id string) (*board.Message, error) {
	t := s.corpus.FindTopic(id)
	if t == nil {
		return nil, fmt.Errorf("could not find a topic with ID %s", id)
	}
	return s.corpus.Successor(t), nil
}

// message resolves a topic position, or any record by hash.
func (s *Shell) message(id string) (*board.Message, error) {
	if isNumber(id) {
		return s.topic(id)
	}
	m := s.corpus.FindByHash(id)
	if m == nil {
		return nil, fmt.Errorf("could not find a message with hash %s", id)
	}
	return m, nil
}

func (s *Shell) help() {
	s.out.Println()
	s.out.Printf("Iris v%s\n", s.version)
	s.out.Println()
	s.out.Println("Commands")
	s.out.Println("========")
	s.out.Println("help, h, ?            - Display this text")
	s.out.Println("topics, t             - List all topics")
	s.out.Println("unread, u             - List topics with unread messages")
	s.out.Println("# (topic id)          - Read specified topic")
	s.out.Println("compose, c            - Add a new topic")
	s.out.Println("reply #, r #          - Reply to a specific topic")
	s.out.Println("edit #|hash, e        - Edit one of your messages")
	s.out.Println("delete #|hash, d      - Delete or restore one of your messages")
	s.out.Println("mark_read #, m #      - Mark a topic and its replies read")
	s.out.Println("mark_all_read, M      - Mark everything read")
	s.out.Println("search terms, / terms - Search messages")
	s.out.Println("freshen, f            - Reload to get any new messages")
	s.out.Println("quit, q               - Leave")
	s.out.Println()
}

func (s *Shell) compose() error {
	body, err := s.readBody("Writing a new topic.", "")
	if err != nil {
		return err
	}
	c, _, err := s.board.Post(body)
	if err != nil {
		return s.discarded(err)
	}
	s.corpus = c
	s.out.Println("Topic saved!")
	return nil
}

func (s *Shell) reply(id string) error {
	t, err := s.topic(id)
	if err != nil {
		return err
	}
	body, err := s.readBody(fmt.Sprintf("Replying to topic %d.", s.corpus.Position(t)), "")
	if err != nil {
		return err
	}
	c, _, err := s.board.Reply(s.corpus, t.Hash, body)
	if err != nil {
		return s.discarded(err)
	}
	s.corpus = c
	s.out.Println("Reply saved!")
	return nil
}

func (s *Shell) edit(id string) error {
	m, err := s.message(id)
	if err != nil {
		return err
	}
	if !s.corpus.IsMine(m) {
		return board.ErrNotOwner
	}
	body, err := s.readBody("Editing your message.", m.Body)
	if err != nil {
		return err
	}
	c, _, err := s.board.Edit(s.corpus, m.Hash, body)
	if err != nil {
		return s.discarded(err)
	}
	s.corpus = c
	s.out.Println("Message edited!")
	return nil
}

func (s *Shell) delete(id string) error {
	m, err := s.message(id)
	if err != nil {
		return err
	}
	c, r, err := s.board.Delete(s.corpus, m.Hash)
	if err != nil {
		return err
	}
	s.corpus = c
	if r.Deleted {
		s.out.Println("Message deleted.")
	} else {
		s.out.Println("Message restored.")
	}
	return nil
}

func (s *Shell) discarded(err error) error {
	if errors.Is(err, board.ErrEmptyBody) {
		s.out.Println("Empty message, discarding...")
		return nil
	}
	return err
}

func (s *Shell) search(query string) {
	results := s.corpus.Search(query, 20)
	if len(results) == 0 {
		s.out.Println("No matches.")
		return
	}
	for _, m := range results {
		where := "topic"
		topic := m
		if !m.IsTopic() {
			where = "reply"
			if p := s.corpus.FindByHash(m.Parent); p != nil {
				topic = s.corpus.Successor(p)
			}
		}
		pos := s.corpus.Position(topic)
		s.out.Printf("%*d | %s | %s | %s\n", display.IndexWidth(len(s.corpus.Topics())), pos, where, m.Author,
			display.Truncate(m.Body, s.out.Width()/2))
	}
}
