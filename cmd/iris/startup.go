package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/systemshift/iris/internal/board"
	"github.com/systemshift/iris/internal/display"
	"github.com/systemshift/iris/internal/safefile"
)

const (
	dataFileMode   fs.FileMode = 0644
	executableMode fs.FileMode = 0755
)

// ensureMessageFile offers to create a missing message file. Without a
// terminal to ask on, nothing is created and the board loads empty.
func ensureMessageFile(b *board.Board, out *display.Printer, in *bufio.Reader, interactive bool) error {
	path := b.MessageFile()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	out.Printf("You have no message file at %s.\n", path)
	if !interactive {
		out.Println("Run iris interactively to create it.")
		return nil
	}
	out.Printf("Would you like to create it? (y/n) ")
	answer, err := in.ReadString('\n')
	if err != nil && answer == "" {
		out.Println()
		return nil
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
		out.Println("Continuing without a message file; you will not be able to post.")
		return nil
	}
	if _, err := safefile.CreateExclusive(path, []byte("[]\n"), board.RecordFileMode); err != nil {
		return fmt.Errorf("create message file: %w", err)
	}
	out.Printf("Created %s.\n", path)
	return nil
}

// checkPermissions warns when the user's files or the executable could be
// modified by others. It never fails.
func checkPermissions(b *board.Board, out *display.Printer) {
	for _, path := range []string{b.MessageFile(), b.ReadFile()} {
		if mode, ok := fileMode(path); ok && mode != dataFileMode {
			out.Banner(
				fmt.Sprintf("Your %s has incorrect permissions!  Should be \"%s\".", describe(b, path), dataFileMode),
				"You can change this from the command line with:",
				fmt.Sprintf("  chmod %o %s", dataFileMode, path),
				"Leaving your file with incorrect permissions could allow unauthorized edits!",
			)
		}
	}

	exe, err := os.Executable()
	if err != nil {
		return
	}
	if mode, ok := fileMode(exe); ok && mode != executableMode {
		out.Banner(
			fmt.Sprintf("The Iris file has incorrect permissions!  Should be \"%s\".", executableMode),
			"You can change this from the command line with:",
			fmt.Sprintf("  chmod %o %s", executableMode, exe),
			"If this file has the wrong permissions the program may be tampered with!",
		)
	}
}

func describe(b *board.Board, path string) string {
	if path == b.ReadFile() {
		return "read file"
	}
	return "message file"
}

func fileMode(path string) (fs.FileMode, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return fi.Mode().Perm(), true
}
