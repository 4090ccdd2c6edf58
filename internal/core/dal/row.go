package dal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Column names consumed downstream; every other column passes through untouched
const (
	ColDate     = "Date"
	ColDuration = "Time Spent (seconds)"
	ColActivity = "Activity"
)

// Source identifies one immutable snapshot file
type Source struct {
	Path string
}

// String returns the path
func (s Source) String() string { return s.Path }

// Sources builds a Source list from paths, preserving order
func Sources(paths ...string) []Source {
	out := make([]Source, 0, len(paths))
	for _, p := range paths {
		out = append(out, Source{Path: p})
	}
	return out
}

// Document is one parsed snapshot. Numbers are json.Number so their literal text survives
type Document struct {
	Notes      string   `json:"notes,omitempty"`
	RowHeaders []string `json:"row_headers" validate:"required,min=1,dive,required"`
	Rows       [][]any  `json:"rows" validate:"required"`
}

// RawRow is a snapshot row paired with its column names
type RawRow struct {
	Headers []string
	Values  []any
}

// NewRawRow zips headers with values; lookups stop at the shorter of the two
func NewRawRow(headers []string, values []any) RawRow {
	return RawRow{Headers: headers, Values: values}
}

// Get returns the value under col
func (r RawRow) Get(col string) (any, bool) {
	n := min(len(r.Headers), len(r.Values))
	for i := 0; i < n; i++ {
		if r.Headers[i] == col {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the zipped column -> value mapping
func (r RawRow) Map() map[string]any {
	n := min(len(r.Headers), len(r.Values))
	m := make(map[string]any, n)
	for i := 0; i < n; i++ {
		m[r.Headers[i]] = r.Values[i]
	}
	return m
}

// Date returns the raw Date string, false when absent or not a string
func (r RawRow) Date() (string, bool) {
	v, ok := r.Get(ColDate)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Identity returns the dedup key of the row
func (r RawRow) Identity() RowIdentity { return IdentityOf(r.Values) }

// String renders the row in column order for error messages
func (r RawRow) String() string {
	n := min(len(r.Headers), len(r.Values))
	var b strings.Builder
	b.WriteByte('{')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: %v", r.Headers[i], r.Values[i])
	}
	b.WriteByte('}')
	return b.String()
}

// RowIdentity is the exact ordered tuple of a row's raw values in canonical form.
// Two rows collide iff every position is equal: strings by content, numbers by literal
type RowIdentity string

// IdentityOf encodes values as compact JSON, which is deterministic for the
// scalar and nested values a decoded snapshot can hold.
// Numbers compare by literal, not by value: 1 and 1.0 are different rows
func IdentityOf(values []any) RowIdentity {
	b, err := json.Marshal(values)
	if err != nil {
		return RowIdentity(fmt.Sprintf("%#v", values))
	}
	return RowIdentity(b)
}
