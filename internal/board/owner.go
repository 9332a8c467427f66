package board

import (
	"fmt"
	"os/user"
	"strconv"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sys/unix"
)

// OwnerResolver maps a record file to the account name that owns it.
type OwnerResolver interface {
	OwnerOf(path string) (string, error)
}

// PasswdOwners resolves file owners through the host account database.
// Lookups are cached by uid; reloads happen on every mutation and every
// file on the host is owned by one of a handful of accounts.
type PasswdOwners struct {
	names *lru.Cache
}

// NewPasswdOwners returns a resolver caching up to size uid lookups.
func NewPasswdOwners(size int) (*PasswdOwners, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("owner cache: %w", err)
	}
	return &PasswdOwners{names: c}, nil
}

// OwnerOf returns the account name of path's owning uid. A uid with no
// account yields an *UnknownOwnerError.
func (p *PasswdOwners) OwnerOf(path string) (string, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if name, ok := p.names.Get(st.Uid); ok {
		return name.(string), nil
	}
	u, err := user.LookupId(strconv.FormatUint(uint64(st.Uid), 10))
	if err != nil {
		return "", &UnknownOwnerError{Path: path, UID: st.Uid, Err: err}
	}
	p.names.Add(st.Uid, u.Username)
	return u.Username, nil
}
