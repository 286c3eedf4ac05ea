// Package resultset normalizes SPARQL JSON result payloads into an
// immutable column/row model that renderers consume without touching
// the wire format.
package resultset

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Kind identifies the RDF term type of a bound value.
type Kind string

// Term kinds.
const (
	KindLiteral Kind = "literal"
	KindURI     Kind = "uri"
	KindBlank   Kind = "blank"
)

// Value is a single bound term.
type Value struct {
	Value    string
	Kind     Kind
	Lang     string
	Datatype string
}

// Binding is one result row: variable name to bound value.
// A variable missing from the map is unbound in that row.
type Binding map[string]Value

// ResultSet is the decoded result of a SELECT query.
// It is never mutated after construction.
type ResultSet struct {
	columns []string
	rows    []Binding
}

// New builds a ResultSet from already-decoded columns and rows.
// Binding keys that are not declared columns are dropped.
func New(columns []string, rows []Binding) *ResultSet {
	declared := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		declared[c] = struct{}{}
	}

	kept := make([]Binding, 0, len(rows))
	for _, row := range rows {
		b := make(Binding, len(row))
		for name, v := range row {
			if _, ok := declared[name]; ok {
				b[name] = v
			}
		}
		kept = append(kept, b)
	}

	return &ResultSet{
		columns: slices.Clone(columns),
		rows:    kept,
	}
}

// Columns returns the variable names in endpoint order.
func (r *ResultSet) Columns() []string {
	return slices.Clone(r.columns)
}

// Rows returns a copy of every binding.
func (r *ResultSet) Rows() []Binding {
	out := make([]Binding, len(r.rows))
	for i, row := range r.rows {
		out[i] = maps.Clone(row)
	}
	return out
}

// Len returns the number of rows.
func (r *ResultSet) Len() int {
	return len(r.rows)
}

// IsEmpty reports whether the query matched zero rows.
func (r *ResultSet) IsEmpty() bool {
	return len(r.rows) == 0
}

// Value returns the value bound to column in the given row. ok is false
// when the row is out of range or the variable is unbound.
func (r *ResultSet) Value(row int, column string) (Value, bool) {
	if row < 0 || row >= len(r.rows) {
		return Value{}, false
	}
	v, ok := r.rows[row][column]
	return v, ok
}

// Column returns the values bound to column, one entry per row, with
// the zero Value for rows where it is unbound.
func (r *ResultSet) Column(column string) []Value {
	out := make([]Value, len(r.rows))
	for i, row := range r.rows {
		out[i] = row[column]
	}
	return out
}

// MalformedResultError reports a JSON payload that lacks a structural
// field every SELECT result must carry.
type MalformedResultError struct {
	Field string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("malformed result: missing or invalid %q", e.Field)
}

// Parse decodes a SPARQL 1.1 JSON results document. Syntax errors are
// returned unwrapped from encoding/json; structural problems, including
// fields of the wrong JSON type, are reported as *MalformedResultError.
func Parse(data []byte) (*ResultSet, error) {
	var doc wireDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &MalformedResultError{Field: typeErr.Field}
		}
		return nil, err
	}
	return doc.resultSet()
}
