package board

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a hash or topic position resolves to nothing.
	ErrNotFound = errors.New("message not found")
	// ErrNotOwner is returned when a user tries to edit or delete a record
	// that is not in their own record file.
	ErrNotOwner = errors.New("message belongs to another user")
	// ErrSuperseded is returned when editing a record that already has a
	// newer version.
	ErrSuperseded = errors.New("message has been superseded by an edit")
	// ErrEmptyBody is returned when posting an empty message.
	ErrEmptyBody = errors.New("empty message")
)

// IntegrityError reports a stored hash that does not match the recomputed
// content hash. The record may have been tampered with.
type IntegrityError struct {
	Expected string // recomputed from the record's fields
	Got      string // stored in the file
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("broken hash: expected %q, got %q", HashKey(e.Expected), HashKey(e.Got))
}

// OwnershipError reports a record whose author does not match the owner of
// the file it was loaded from.
type OwnershipError struct {
	Author string
	Owner  string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("bad username: got %s's message from %s's message file", e.Author, e.Owner)
}

// UnresolvableOwnerError reports a record whose file owner could not be
// determined, so ownership could not be checked.
type UnresolvableOwnerError struct {
	Reason string
}

func (e *UnresolvableOwnerError) Error() string {
	return "unvalidatable: " + e.Reason
}

// ParseError reports a record file or read file that is not a JSON array.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnknownOwnerError reports a file whose owning uid has no account name.
type UnknownOwnerError struct {
	Path string
	UID  uint32
	Err  error
}

func (e *UnknownOwnerError) Error() string {
	return fmt.Sprintf("owner of %s (uid %d) has no account name: %v", e.Path, e.UID, e.Err)
}

func (e *UnknownOwnerError) Unwrap() error { return e.Err }
