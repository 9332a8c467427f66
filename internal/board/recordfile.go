package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/systemshift/iris/internal/safefile"
)

// RecordFileMode is the mode record files and read files are written with:
// world-readable, owner-writable.
const RecordFileMode os.FileMode = 0644

// wireRecord is one element of a record file.
type wireRecord struct {
	Hash      string  `json:"hash"`
	EditHash  *string `json:"edit_hash"`
	IsDeleted *bool   `json:"is_deleted"`
	Data      payload `json:"data"`
}

func toWire(r Record) wireRecord {
	w := wireRecord{
		Hash: r.Hash,
		Data: newPayload(r.Author, r.Parent, r.Timestamp, r.Body),
	}
	if r.EditOf != "" {
		edit := r.EditOf
		w.EditHash = &edit
	}
	if r.Deleted {
		deleted := true
		w.IsDeleted = &deleted
	}
	return w
}

func fromWire(w wireRecord) Record {
	r := Record{
		Hash:      w.Hash,
		Author:    w.Data.Author,
		Timestamp: w.Data.Timestamp,
		Body:      w.Data.Message,
	}
	if w.Data.Parent != nil {
		r.Parent = *w.Data.Parent
	}
	if w.EditHash != nil {
		r.EditOf = *w.EditHash
	}
	if w.IsDeleted != nil {
		r.Deleted = *w.IsDeleted
	}
	return r
}

// LoadRecordFile reads every record in path, in file order. A missing file
// holds no records. Anything other than a JSON array of record objects is
// a *ParseError; whether that is fatal is up to the caller.
func LoadRecordFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var wire []wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if wire == nil {
		// "null" decodes without error but is not an array.
		return nil, &ParseError{Path: path, Err: errors.New("not a JSON array")}
	}
	recs := make([]Record, len(wire))
	for i, w := range wire {
		recs[i] = fromWire(w)
	}
	return recs, nil
}

// WriteRecordFile replaces path with recs as a pretty-printed JSON array.
func WriteRecordFile(path string, recs []Record) error {
	wire := make([]wireRecord, len(recs))
	for i, r := range recs {
		wire[i] = toWire(r)
	}
	if err := safefile.WriteJSON(path, wire, RecordFileMode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// AppendRecord adds r to the end of the record file at path.
func AppendRecord(path string, r Record) error {
	recs, err := LoadRecordFile(path)
	if err != nil {
		return err
	}
	return WriteRecordFile(path, append(recs, r))
}

// ReplaceRecord drops any record with r's hash from path and appends r.
func ReplaceRecord(path string, r Record) error {
	recs, err := LoadRecordFile(path)
	if err != nil {
		return err
	}
	key := HashKey(r.Hash)
	kept := recs[:0]
	for _, old := range recs {
		if HashKey(old.Hash) != key {
			kept = append(kept, old)
		}
	}
	return WriteRecordFile(path, append(kept, r))
}
