package department

import (
	"bytes"
	"encoding/json"
)

// NotFound is stored in place of any field that could not be extracted.
const NotFound = "Not found"

// Department is one option of the department listing.
type Department struct {
	Name        string `json:"name"`
	RelativeURL string `json:"relative_url"`
}

// Record is an insertion-ordered mapping from field name to value.
// The zero value is ready to use.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord starts a record with the listing fields of d.
func NewRecord(d Department) *Record {
	r := &Record{}
	r.Set("name", d.Name)
	r.Set("relative_url", d.RelativeURL)
	return r
}

// Set stores value under key. Existing keys keep their position.
func (r *Record) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key and whether it was set.
func (r *Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value for key, or "" when unset.
func (r *Record) Value(key string) string {
	return r.values[key]
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

// CountNotFound returns how many fields hold the NotFound sentinel.
func (r *Record) CountNotFound() int {
	n := 0
	for _, k := range r.keys {
		if r.values[k] == NotFound {
			n++
		}
	}
	return n
}

// Columns returns the union of keys across records in first-seen order.
func Columns(records []*Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range records {
		for _, k := range r.keys {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// MarshalJSON encodes the record as a JSON object with keys in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
