package board

import (
	"encoding/base64"
	"fmt"
	"strings"

	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

// ContentHash computes a record's identity: base64(SHA-1(CanonicalJSON)).
// The encoding ends in a newline, matching every stored record file.
func ContentHash(author, parent, timestamp, body string) (string, error) {
	data, err := CanonicalJSON(author, parent, timestamp, body)
	if err != nil {
		return "", fmt.Errorf("canonical payload: %w", err)
	}
	mh, err := multihash.Sum(data, multihash.SHA1, -1)
	if err != nil {
		return "", fmt.Errorf("multihash: %w", err)
	}
	decoded, err := multihash.Decode(mh)
	if err != nil {
		return "", fmt.Errorf("decode multihash: %w", err)
	}
	return encodeDigest(decoded.Digest), nil
}

func encodeDigest(digest []byte) string {
	return base64.StdEncoding.EncodeToString(digest) + "\n"
}

// HashKey normalizes a hash for index lookups. Stored hashes carry a
// trailing newline; hashes typed by a user usually do not.
func HashKey(hash string) string {
	return strings.TrimSpace(hash)
}

// RecordCID converts a record hash into a CIDv1 (raw codec, SHA-1
// multihash) rendered in base32lower. Unlike the base64 hash it is safe to
// use as a file name.
func RecordCID(hash string) (string, error) {
	digest, err := base64.StdEncoding.DecodeString(HashKey(hash))
	if err != nil {
		return "", fmt.Errorf("decode hash %q: %w", HashKey(hash), err)
	}
	mh, err := multihash.Encode(digest, multihash.SHA1)
	if err != nil {
		return "", fmt.Errorf("multihash: %w", err)
	}
	c := gocid.NewCidV1(gocid.Raw, mh)
	encoded, err := multibase.Encode(multibase.Base32, c.Bytes())
	if err != nil {
		return "", fmt.Errorf("base32 encode: %w", err)
	}
	return encoded, nil
}

// HashFromCID is the inverse of RecordCID.
func HashFromCID(s string) (string, error) {
	c, err := gocid.Decode(s)
	if err != nil {
		return "", fmt.Errorf("decode cid: %w", err)
	}
	decoded, err := multihash.Decode(c.Hash())
	if err != nil {
		return "", fmt.Errorf("decode multihash: %w", err)
	}
	if decoded.Code != multihash.SHA1 {
		return "", fmt.Errorf("cid %s is not a sha1 record id", s)
	}
	return encodeDigest(decoded.Digest), nil
}
