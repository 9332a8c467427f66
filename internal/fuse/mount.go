package fuse

import (
	"github.com/hanwen/go-fuse/v2/fs"
	gofuse "github.com/hanwen/go-fuse/v2/fuse"
)

// MountFS mounts the read-only board at mountpoint, serving whatever
// snapshot view holds. Call server.Wait() to block, server.Unmount() to stop.
func MountFS(mountpoint string, view *View, debug bool) (*gofuse.Server, error) {
	root := &RootNode{view: view}

	opts := &fs.Options{
		MountOptions: gofuse.MountOptions{
			FsName:        "iris",
			Name:          "iris",
			DisableXAttrs: true,
			Debug:         debug,
			Options:       []string{"ro"},
		},
	}

	server, err := fs.Mount(mountpoint, root, opts)
	if err != nil {
		return nil, err
	}
	return server, nil
}
