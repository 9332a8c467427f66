package board

import (
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"testing"
)

func TestPasswdOwners_OwnerOf(t *testing.T) {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		t.Skipf("no current user: %v", err)
	}
	path := filepath.Join(t.TempDir(), ".iris.messages")
	if err := os.WriteFile(path, []byte("[]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := NewPasswdOwners(4)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		got, err := p.OwnerOf(path)
		if err != nil {
			t.Fatalf("OwnerOf: %v", err)
		}
		if got != u.Username {
			t.Errorf("OwnerOf = %q, want %q", got, u.Username)
		}
	}
	if p.names.Len() != 1 {
		t.Errorf("cache holds %d uids, want 1", p.names.Len())
	}

	// Later lookups of the same uid come from the cache.
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		t.Skipf("uid %q is not numeric", u.Uid)
	}
	p.names.Add(uint32(uid), "cached")
	if got, _ := p.OwnerOf(path); got != "cached" {
		t.Errorf("OwnerOf = %q, want the cached name", got)
	}
}

func TestPasswdOwners_MissingFile(t *testing.T) {
	p, err := NewPasswdOwners(4)
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.OwnerOf(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("missing file should fail")
	}
	var ue *UnknownOwnerError
	if errors.As(err, &ue) {
		t.Errorf("missing file reported as unknown owner: %v", err)
	}
}

func TestPasswdOwners_UnknownUID(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("chown to an unassigned uid needs root")
	}
	const uid = 54321
	if _, err := user.LookupId(strconv.Itoa(uid)); err == nil {
		t.Skipf("uid %d has an account on this host", uid)
	}
	path := filepath.Join(t.TempDir(), ".iris.messages")
	if err := os.WriteFile(path, []byte("[]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chown(path, uid, uid); err != nil {
		t.Fatal(err)
	}

	p, err := NewPasswdOwners(4)
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.OwnerOf(path)
	var ue *UnknownOwnerError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UnknownOwnerError", err)
	}
	if ue.UID != uid || ue.Path != path {
		t.Errorf("UnknownOwnerError = %+v", ue)
	}
}
