package board

// DumpEntry is one record as written by a full-corpus dump: the wire form
// plus what the loader derived about it.
type DumpEntry struct {
	wireRecord
	CID     string   `json:"cid,omitempty"`
	Source  string   `json:"source"`
	Visible bool     `json:"visible"`
	Errors  []string `json:"errors,omitempty"`
}

// Dump returns every message in corpus order, superseded ones included.
func (c *Corpus) Dump() []DumpEntry {
	out := make([]DumpEntry, len(c.all))
	for i, m := range c.all {
		e := DumpEntry{
			wireRecord: toWire(m.Record),
			Source:     m.Source,
			Visible:    c.IsVisible(m),
		}
		// A hash that is not base64 has no CID; the integrity error says why.
		if cid, err := RecordCID(m.Hash); err == nil {
			e.CID = cid
		}
		for _, err := range m.Errors {
			e.Errors = append(e.Errors, err.Error())
		}
		out[i] = e
	}
	return out
}
