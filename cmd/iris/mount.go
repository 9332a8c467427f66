package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/systemshift/iris/internal/board"
	irisfuse "github.com/systemshift/iris/internal/fuse"
)

func newMountCmd(stdout, stderr io.Writer) *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "mount DIR",
		Short: "Mount the board read-only at DIR",
		Long: `mount serves the board as a read-only filesystem: topics/, unread/,
hashes/, search/<query>/ and stats.json. The mount follows changes to the
message files until interrupted.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageError(fmt.Errorf("mount takes exactly one directory"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(stdout, stderr)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.mount(ctx, args[0], debug)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "log every FUSE request")
	return cmd
}

func (a *app) mount(ctx context.Context, mountpoint string, debug bool) error {
	if err := os.MkdirAll(mountpoint, 0755); err != nil {
		return fmt.Errorf("create mountpoint: %w", err)
	}
	c, err := a.board.Load()
	if err != nil {
		return err
	}
	view := irisfuse.NewView(c)

	a.log.Info("mounting", "dir", mountpoint, "topics", len(c.Topics()))
	server, err := irisfuse.MountFS(mountpoint, view, debug)
	if err != nil {
		return fmt.Errorf("mount failed: %w", err)
	}

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- a.board.Watch(ctx, func(c *board.Corpus) {
			a.log.Debug("reloaded", "messages", len(c.All()))
			view.Swap(c)
		})
	}()
	go func() {
		select {
		case <-ctx.Done():
		case err := <-watchErr:
			if err != nil {
				a.log.Error("watch stopped", "err", err)
			}
			<-ctx.Done()
		}
		a.log.Info("shutting down")
		if err := server.Unmount(); err != nil {
			a.log.Error("unmount", "err", err)
		}
	}()

	a.out.Printf("Board mounted at %s (pid %d). Interrupt to unmount.\n", mountpoint, os.Getpid())
	server.Wait()
	return nil
}
