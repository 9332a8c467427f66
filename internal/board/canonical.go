package board

import (
	"bytes"
	"encoding/json"
)

// payload is the hashed portion of a record. Field order is the wire order
// every existing record file was hashed with; do not reorder.
type payload struct {
	Author    string  `json:"author"`
	Parent    *string `json:"parent"`
	Timestamp string  `json:"timestamp"`
	Message   string  `json:"message"`
}

func newPayload(author, parent, timestamp, body string) payload {
	p := payload{Author: author, Timestamp: timestamp, Message: body}
	if parent != "" {
		p.Parent = &parent
	}
	return p
}

// CanonicalJSON produces the compact encoding of the four hashed fields:
// author, parent (null for a topic), timestamp, message. HTML characters
// and the U+2028/U+2029 line separators are emitted unescaped.
func CanonicalJSON(author, parent, timestamp, body string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(newPayload(author, parent, timestamp, body)); err != nil {
		return nil, err
	}
	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})), nil
}

// unescapeLineSeparators rewrites the \u2028 and \u2029 escapes that
// encoding/json always produces back into raw runes. Every other escape
// pair is copied through whole, so an escaped backslash followed by the
// literal text "u2028" is left alone.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+6 <= len(b) {
			switch string(b[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}
