// Package display renders the board for a terminal.
package display

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/systemshift/iris/internal/board"
)

// MinWidth is the narrowest layout the board renders at.
const MinWidth = 80

var (
	ColorAccent  = lipgloss.Color("#20B9B4")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#6C7A80")
)

// Styles are the lipgloss styles a Printer renders with.
type Styles struct {
	Index   lipgloss.Style
	Author  lipgloss.Style
	Muted   lipgloss.Style
	Unread  lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Title   lipgloss.Style
}

// ColorStyles is used on terminals.
func ColorStyles() Styles {
	return Styles{
		Index:   lipgloss.NewStyle().Bold(true),
		Author:  lipgloss.NewStyle().Foreground(ColorAccent),
		Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
		Unread:  lipgloss.NewStyle().Bold(true).Foreground(ColorWarning),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(ColorError),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	}
}

// PlainStyles render text unchanged, for pipes and tests.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{plain, plain, plain, plain, plain, plain, plain}
}

// Printer writes board views to a terminal or pipe.
type Printer struct {
	w      io.Writer
	width  int
	styles Styles
}

// New returns a Printer for w. A width of 0 is detected from the terminal;
// layouts never go below MinWidth. Color is used only when w is a terminal.
func New(w io.Writer, width int) *Printer {
	styles := PlainStyles()
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		styles = ColorStyles()
		if width == 0 {
			if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
				width = cols
			}
		}
	}
	return NewWithStyles(w, width, styles)
}

// NewWithStyles returns a Printer with explicit styles.
func NewWithStyles(w io.Writer, width int, styles Styles) *Printer {
	if width < MinWidth {
		width = MinWidth
	}
	return &Printer{w: w, width: width, styles: styles}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Width is the layout width in columns.
func (p *Printer) Width() int { return p.width }

// Println writes one line.
func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.w, a...)
}

// Printf writes formatted text.
func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.w, format, a...)
}

// Warn writes a highlighted warning line.
func (p *Printer) Warn(format string, a ...any) {
	fmt.Fprintln(p.w, p.styles.Warning.Render(fmt.Sprintf(format, a...)))
}

// Error writes a highlighted error line.
func (p *Printer) Error(format string, a ...any) {
	fmt.Fprintln(p.w, p.styles.Error.Render(fmt.Sprintf(format, a...)))
}

// Banner frames lines between rules of asterisks.
func (p *Printer) Banner(lines ...string) {
	rule := strings.Repeat("*", p.width)
	fmt.Fprintln(p.w, p.styles.Warning.Render(rule))
	for _, l := range lines {
		fmt.Fprintln(p.w, l)
	}
	fmt.Fprintln(p.w, p.styles.Warning.Render(rule))
}

// IndexWidth is the column width of topic positions on a board with n
// topics.
func IndexWidth(n int) int {
	return max(2, len(strconv.Itoa(n)))
}

// Truncate returns the first line of s, cut to length runes with a
// trailing "..." when it does not fit.
func Truncate(s string, length int) string {
	stub, _, _ := strings.Cut(s, "\n")
	r := []rune(stub)
	if len(r) <= length {
		return stub
	}
	if length <= 3 {
		return string(r[:max(length, 0)])
	}
	return string(r[:length-3]) + "..."
}

// TopicLine renders one row of the topic index:
//
//	* 12 | 2024-01-01T00:00:00Z | alice@host | first line of the topic...
//
// The leading marker is "*" when the topic or one of its replies is unread.
func (p *Printer) TopicLine(c *board.Corpus, pos int, t *board.Message, authorWidth int) string {
	marker := " "
	if c.HasUnread(t) {
		marker = "*"
	}
	idx := fmt.Sprintf("%*d", IndexWidth(len(c.Topics())), pos)
	author := fmt.Sprintf("%-*s", authorWidth, t.Author)
	head := marker + " " + strings.Join([]string{idx, t.Timestamp, author}, " | ")

	var flags []string
	if n := len(c.Replies(t)); n > 0 {
		flags = append(flags, fmt.Sprintf("(%d)", n))
	}
	if t.IsEdit() {
		flags = append(flags, "(edited)")
	}
	if !t.Valid() {
		flags = append(flags, "(!)")
	}
	body := t.Body
	if t.Deleted {
		body = "[deleted]"
	}
	prefix := ""
	if len(flags) > 0 {
		prefix = strings.Join(flags, " ") + " "
	}
	room := p.width - len([]rune(head)) - len(" | ") - len([]rune(prefix))
	stub := prefix + Truncate(body, room)

	styledHead := p.styles.Unread.Render(marker) + " " + strings.Join([]string{
		p.styles.Index.Render(idx),
		p.styles.Muted.Render(t.Timestamp),
		p.styles.Author.Render(author),
	}, " | ")
	return styledHead + " | " + stub
}

// AuthorWidth is the widest author among msgs, at least 1.
func AuthorWidth(msgs []*board.Message) int {
	w := 1
	for _, m := range msgs {
		w = max(w, len([]rune(m.Author)))
	}
	return w
}

// Topics writes the index of topics. Positions are looked up in c, so a
// subset such as the unread topics keeps board numbering.
func (p *Printer) Topics(c *board.Corpus, topics []*board.Message) {
	aw := AuthorWidth(topics)
	for _, t := range topics {
		fmt.Fprintln(p.w, p.TopicLine(c, c.Position(t), t, aw))
	}
}

// Message renders one record with its header, error banner and body.
func (p *Printer) Message(m *board.Message, verb string, indent string) string {
	var b strings.Builder
	rule := strings.Repeat("-", p.width-len(indent))
	header := fmt.Sprintf("On %s, %s %s...", m.Timestamp, p.styles.Author.Render(m.Author), verb)
	if m.IsEdit() {
		header += p.styles.Muted.Render(" (edited)")
	}
	b.WriteString(indent + header + "\n")
	for _, err := range m.Errors {
		b.WriteString(indent + p.styles.Error.Render("### "+err.Error()) + "\n")
	}
	b.WriteString(indent + p.styles.Muted.Render(rule) + "\n")
	body := m.Body
	if m.Deleted {
		body = "[deleted]"
	}
	for _, line := range strings.Split(body, "\n") {
		b.WriteString(indent + line + "\n")
	}
	b.WriteString(indent + p.styles.Muted.Render(rule) + "\n")
	return b.String()
}

// Topic writes a topic followed by its replies.
func (p *Printer) Topic(c *board.Corpus, t *board.Message) {
	fmt.Fprint(p.w, p.Message(t, "posted", ""))
	for _, r := range c.Replies(t) {
		verb := "replied"
		if c.IsUnread(r) {
			verb = p.styles.Unread.Render("replied")
		}
		fmt.Fprint(p.w, p.Message(r, verb, "  "))
	}
}

// Stats writes a corpus summary.
func (p *Printer) Stats(s board.Stats) {
	fmt.Fprintf(p.w, "%s\n", p.styles.Title.Render("Board statistics"))
	fmt.Fprintf(p.w, "  topics:          %d\n", s.Topics)
	fmt.Fprintf(p.w, "  messages:        %d\n", s.Messages)
	fmt.Fprintf(p.w, "  unread topics:   %d\n", s.UnreadTopics)
	fmt.Fprintf(p.w, "  unread messages: %d\n", s.UnreadMessages)
	fmt.Fprintf(p.w, "  invalid records: %d\n", s.Invalid)
	fmt.Fprintf(p.w, "  skipped files:   %d\n", s.SkippedFiles)
	fmt.Fprintf(p.w, "  authors:         %s\n", strings.Join(s.Authors, ", "))
}
