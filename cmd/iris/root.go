package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/systemshift/iris/internal/board"
	"github.com/systemshift/iris/internal/config"
	"github.com/systemshift/iris/internal/display"
	"github.com/systemshift/iris/internal/logger"
	"github.com/systemshift/iris/internal/shell"
)

// app is everything a command needs once configuration has loaded.
type app struct {
	cfg   config.Config
	board *board.Board
	out   *display.Printer
	diag  *display.Printer // notices and warnings outside the shell
	log   *slog.Logger
}

func newApp(stdout, stderr io.Writer) (*app, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("find home directory: %w", err)
	}
	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Init(cfg.LogLevel)
	b, err := board.New(board.Options{
		Author:      cfg.Author(),
		MessageFile: cfg.MessageFile,
		ReadFile:    cfg.ReadFile,
		Discover:    board.GlobSource(cfg.Glob),
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("configured", "author", cfg.Author(), "messages", cfg.MessageFile, "glob", cfg.Glob)
	return &app{
		cfg:   cfg,
		board: b,
		out:   display.New(stdout, cfg.Width),
		diag:  display.New(stderr, cfg.Width),
		log:   log,
	}, nil
}

type rootFlags struct {
	version     bool
	stats       bool
	dump        bool
	interactive bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var flags rootFlags
	cmd := &cobra.Command{
		Use:   "iris",
		Short: "A bulletin board kept in plain files",
		Long: `iris reads every user's message file on the host and merges them into one
board. With no flags it starts the interactive shell.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError(fmt.Errorf("unexpected argument %q", args[0]))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(flags, bufio.NewReader(stdin), stdout, stderr)
		},
	}
	cmd.Flags().BoolVarP(&flags.version, "version", "v", false, "print the version and exit")
	cmd.Flags().BoolVarP(&flags.stats, "stats", "s", false, "print board statistics")
	cmd.Flags().BoolVarP(&flags.dump, "dump", "d", false, "print every record as JSON")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "start the interactive shell (default)")
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	cmd.AddCommand(newMountCmd(stdout, stderr))
	return cmd
}

// runRoot runs the flags and then the shell. Outside the shell, stdout
// carries only the requested output, so notices go to stderr.
func runRoot(flags rootFlags, in *bufio.Reader, stdout, stderr io.Writer) error {
	if flags.version {
		fmt.Fprintf(stdout, "Iris v%s\n", Version)
		return nil
	}
	interactive := flags.interactive || !(flags.stats || flags.dump)

	a, err := newApp(stdout, stderr)
	if err != nil {
		return err
	}
	notices := a.diag
	if interactive {
		notices = a.out
	}
	if err := ensureMessageFile(a.board, notices, in, interactive); err != nil {
		return err
	}
	if created, err := board.EnsureReadFile(a.board.ReadFile()); err != nil {
		return err
	} else if created {
		a.log.Info("created read file", "path", a.board.ReadFile())
	}
	checkPermissions(a.board, notices)

	c, err := a.board.Load()
	if err != nil {
		return err
	}
	for _, err := range c.Skipped() {
		a.log.Warn("skipped record file", "err", err)
	}

	if flags.stats {
		a.out.Stats(c.Stats())
	}
	if flags.dump {
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c.Dump()); err != nil {
			return err
		}
	}
	if !interactive {
		return nil
	}
	sh := shell.New(shell.Options{
		Board:       a.board,
		Corpus:      c,
		Printer:     a.out,
		In:          in,
		Editor:      a.cfg.Editor,
		HistoryFile: a.cfg.HistoryFile,
		Version:     Version,
		Logger:      a.log,
	})
	return sh.Run()
}
