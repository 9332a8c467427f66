// Command iris is a bulletin board kept in plain files: each user's posts
// live in their home directory and everyone reads everyone's.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Version is the release reported by --version and the shell banner.
const Version = "1.0.0"

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// codeError carries a process exit code out of a command.
type codeError struct {
	code int
	err  error
}

func (e *codeError) Error() string { return e.err.Error() }
func (e *codeError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &codeError{code: exitUsage, err: err}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "iris: %v\n", err)
		var ce *codeError
		if errors.As(err, &ce) {
			return ce.code
		}
		return exitError
	}
	return exitOK
}
