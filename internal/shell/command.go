// Package shell is the interactive board: a line-oriented command loop over
// a board snapshot.
package shell

import (
	"fmt"
	"strings"
)

// Kind identifies a shell command.
type Kind int

const (
	CmdNone Kind = iota // blank line
	CmdHelp
	CmdTopics
	CmdUnread
	CmdShow
	CmdCompose
	CmdReply
	CmdEdit
	CmdDelete
	CmdMarkRead
	CmdMarkAllRead
	CmdSearch
	CmdFreshen
	CmdQuit
)

var kindNames = map[Kind]string{
	CmdNone:        "none",
	CmdHelp:        "help",
	CmdTopics:      "topics",
	CmdUnread:      "unread",
	CmdShow:        "show",
	CmdCompose:     "compose",
	CmdReply:       "reply",
	CmdEdit:        "edit",
	CmdDelete:      "delete",
	CmdMarkRead:    "mark_read",
	CmdMarkAllRead: "mark_all_read",
	CmdSearch:      "search",
	CmdFreshen:     "freshen",
	CmdQuit:        "quit",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Command is one parsed input line.
type Command struct {
	Kind Kind
	Arg  string // topic position, hash or search terms
}

var commands = map[string]Kind{
	"help": CmdHelp, "h": CmdHelp, "?": CmdHelp,
	"topics": CmdTopics, "t": CmdTopics,
	"unread": CmdUnread, "u": CmdUnread,
	"show": CmdShow, "s": CmdShow,
	"compose": CmdCompose, "create": CmdCompose, "c": CmdCompose,
	"reply": CmdReply, "r": CmdReply,
	"edit": CmdEdit, "e": CmdEdit,
	"delete": CmdDelete, "undelete": CmdDelete, "d": CmdDelete,
	"mark_read": CmdMarkRead, "m": CmdMarkRead,
	"mark_all_read": CmdMarkAllRead, "M": CmdMarkAllRead,
	"search": CmdSearch, "/": CmdSearch,
	"freshen": CmdFreshen, "f": CmdFreshen,
	"quit": CmdQuit, "q": CmdQuit, "exit": CmdQuit,
}

var needsArg = map[Kind]string{
	CmdShow:     "show <topic>",
	CmdReply:    "reply <topic>",
	CmdEdit:     "edit <topic|hash>",
	CmdDelete:   "delete <topic|hash>",
	CmdMarkRead: "mark_read <topic>",
	CmdSearch:   "search <terms>",
}

// Parse turns an input line into a Command. A bare number shows that
// topic.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: CmdNone}, nil
	}
	word := strings.Fields(line)[0]
	rest := strings.TrimSpace(line[len(word):])
	if isNumber(word) {
		return Command{Kind: CmdShow, Arg: word}, nil
	}
	// "/terms" searches without a space.
	if strings.HasPrefix(word, "/") && len(word) > 1 {
		return Command{Kind: CmdSearch, Arg: strings.TrimSpace(line[1:])}, nil
	}
	kind, ok := commands[word]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q; type 'help' for a list of commands", word)
	}
	if usage, ok := needsArg[kind]; ok && rest == "" {
		return Command{}, fmt.Errorf("usage: %s", usage)
	}
	return Command{Kind: kind, Arg: rest}, nil
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
