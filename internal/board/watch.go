package board

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long Watch waits after the last relevant event before
// reloading. Saves rewrite the whole file, which arrives as several events.
const WatchDebounce = 200 * time.Millisecond

// Watch reloads the corpus whenever a record file or the read file changes
// and hands each new snapshot to onLoad. Directories are watched rather than
// files because every save replaces the file by rename. Watch blocks until
// ctx is done.
func (b *Board) Watch(ctx context.Context, onLoad func(*Corpus)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()

	tracked := map[string]bool{}
	dirs := map[string]bool{}
	track := func() {
		files, err := b.Files()
		if err != nil {
			b.log.Warn("discover record files", "err", err)
			return
		}
		files = append(files, filepath.Clean(b.opts.ReadFile))
		for _, f := range files {
			tracked[f] = true
			dir := filepath.Dir(f)
			if dirs[dir] {
				continue
			}
			if err := w.Add(dir); err != nil {
				b.log.Warn("watch directory", "dir", dir, "err", err)
				continue
			}
			dirs[dir] = true
		}
	}
	track()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !tracked[filepath.Clean(ev.Name)] {
				continue
			}
			fire = time.After(WatchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			b.log.Warn("watch", "err", err)
		case <-fire:
			fire = nil
			c, err := b.Load()
			if err != nil {
				b.log.Warn("reload", "err", err)
				continue
			}
			onLoad(c)
			track()
		}
	}
}
