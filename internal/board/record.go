package board

import (
	"fmt"
	"strings"
	"time"
)

// TimestampFormat is the ISO-8601 UTC layout records are stamped with.
const TimestampFormat = time.RFC3339

// Record is one topic or reply. Records are values: operations that
// change a record return a new one.
type Record struct {
	Hash      string // stored identity, see ContentHash
	EditOf    string // hash of the record this one supersedes
	Deleted   bool   // tombstone flag, not part of the hash
	Author    string // localpart@host
	Parent    string // hash of the record replied to; empty for a topic
	Timestamp string
	Body      string
}

// NewRecord creates a topic (parent == "") or a reply stamped with now.
func NewRecord(body, parent, author string, now time.Time) (Record, error) {
	if strings.TrimSpace(body) == "" {
		return Record{}, ErrEmptyBody
	}
	r := Record{
		Author:    author,
		Parent:    parent,
		Timestamp: now.UTC().Format(TimestampFormat),
		Body:      body,
	}
	h, err := r.ContentHash()
	if err != nil {
		return Record{}, err
	}
	r.Hash = h
	return r, nil
}

// Edit creates the successor of pred carrying a new body. Author, parent
// and timestamp are inherited so the edit keeps its place in the thread.
func Edit(pred Record, body string) (Record, error) {
	if strings.TrimSpace(body) == "" {
		return Record{}, ErrEmptyBody
	}
	r := Record{
		EditOf:    pred.Hash,
		Author:    pred.Author,
		Parent:    pred.Parent,
		Timestamp: pred.Timestamp,
		Body:      body,
	}
	h, err := r.ContentHash()
	if err != nil {
		return Record{}, err
	}
	if HashKey(h) == HashKey(pred.Hash) {
		return Record{}, fmt.Errorf("edit does not change the message")
	}
	r.Hash = h
	return r, nil
}

// ToggleDelete returns a copy of r with the tombstone flag flipped.
func (r Record) ToggleDelete() Record {
	r.Deleted = !r.Deleted
	return r
}

// IsTopic reports whether r starts a thread.
func (r Record) IsTopic() bool {
	return HashKey(r.Parent) == ""
}

// ContentHash recomputes the hash from r's fields, ignoring the stored one.
func (r Record) ContentHash() (string, error) {
	return ContentHash(r.Author, r.Parent, r.Timestamp, r.Body)
}

// AuthorName is the local part of the author, everything before the last
// '@'. An author without a host is returned whole.
func (r Record) AuthorName() string {
	if i := strings.LastIndex(r.Author, "@"); i >= 0 {
		return r.Author[:i]
	}
	return r.Author
}

// ValidateHash compares the recomputed content hash against stored.
func ValidateHash(r Record, stored string) error {
	h, err := r.ContentHash()
	if err != nil {
		return &IntegrityError{Got: stored}
	}
	if HashKey(h) != HashKey(stored) {
		return &IntegrityError{Expected: h, Got: stored}
	}
	return nil
}

// ValidateOwner checks that the author's local part names owner.
func ValidateOwner(r Record, owner string) error {
	if owner == "" {
		return &UnresolvableOwnerError{Reason: "username is empty"}
	}
	if r.AuthorName() != owner {
		return &OwnershipError{Author: r.Author, Owner: owner}
	}
	return nil
}

// Message is a Record as loaded into a corpus, with the diagnostics found
// while loading it and the file it came from.
type Message struct {
	Record
	Source string
	Errors []error
}

// Valid reports whether the message loaded without diagnostics.
func (m *Message) Valid() bool {
	return len(m.Errors) == 0
}

// IsEdit reports whether the message supersedes another.
func (m *Message) IsEdit() bool {
	return HashKey(m.EditOf) != ""
}

// validate runs every record-level check. ownerErr, when set, replaces the
// ownership check with an UnresolvableOwnerError.
func validate(r Record, owner string, ownerErr error) []error {
	var errs []error
	if err := ValidateHash(r, r.Hash); err != nil {
		errs = append(errs, err)
	}
	if ownerErr != nil {
		errs = append(errs, &UnresolvableOwnerError{Reason: ownerErr.Error()})
	} else if err := ValidateOwner(r, owner); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func newMessage(r Record, source, owner string, ownerErr error) *Message {
	return &Message{
		Record: r,
		Source: source,
		Errors: validate(r, owner, ownerErr),
	}
}
