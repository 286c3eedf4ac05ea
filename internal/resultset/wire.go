package resultset

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Wire term types from the SPARQL 1.1 JSON results format.
const (
	wireURI          = "uri"
	wireLiteral      = "literal"
	wireTypedLiteral = "typed-literal"
	wireBNode        = "bnode"
)

type wireDocument struct {
	Head    *wireHead    `json:"head"`
	Results *wireResults `json:"results"`
}

type wireHead struct {
	Vars *[]string `json:"vars"`
}

type wireResults struct {
	Bindings *[]map[string]wireTerm `json:"bindings"`
}

type wireTerm struct {
	Type     string `json:"type,omitempty"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

func (d *wireDocument) resultSet() (*ResultSet, error) {
	switch {
	case d.Head == nil:
		return nil, &MalformedResultError{Field: "head"}
	case d.Head.Vars == nil:
		return nil, &MalformedResultError{Field: "head.vars"}
	case d.Results == nil:
		return nil, &MalformedResultError{Field: "results"}
	case d.Results.Bindings == nil:
		return nil, &MalformedResultError{Field: "results.bindings"}
	}

	rows := make([]Binding, 0, len(*d.Results.Bindings))
	for i, wb := range *d.Results.Bindings {
		b := make(Binding, len(wb))
		for name, t := range wb {
			v, err := t.value()
			if err != nil {
				return nil, fmt.Errorf("row %d, variable %q: %w", i, name, err)
			}
			b[name] = v
		}
		rows = append(rows, b)
	}

	return New(*d.Head.Vars, rows), nil
}

func (t wireTerm) value() (Value, error) {
	v := Value{Value: t.Value, Lang: t.Lang, Datatype: t.Datatype}
	switch t.Type {
	case wireURI:
		v.Kind = KindURI
	case wireBNode:
		v.Kind = KindBlank
	case wireLiteral, wireTypedLiteral, "":
		// Endpoints that omit the type only ever do so for plain values.
		v.Kind = KindLiteral
	default:
		return Value{}, &MalformedResultError{Field: "type " + t.Type}
	}
	return v, nil
}

func termFromValue(v Value) wireTerm {
	t := wireTerm{Value: v.Value, Lang: v.Lang, Datatype: v.Datatype}
	switch v.Kind {
	case KindURI:
		t.Type = wireURI
	case KindBlank:
		t.Type = wireBNode
	default:
		t.Type = wireLiteral
	}
	return t
}

// MarshalJSON encodes the result set in the SPARQL 1.1 JSON results format.
func (r *ResultSet) MarshalJSON() ([]byte, error) {
	vars := r.Columns()
	bindings := make([]map[string]wireTerm, len(r.rows))
	for i, row := range r.rows {
		wb := make(map[string]wireTerm, len(row))
		for name, v := range row {
			wb[name] = termFromValue(v)
		}
		bindings[i] = wb
	}
	return json.Marshal(wireDocument{
		Head:    &wireHead{Vars: &vars},
		Results: &wireResults{Bindings: &bindings},
	})
}

// UnmarshalJSON decodes a SPARQL 1.1 JSON results document into r.
func (r *ResultSet) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

// IsMalformed reports whether err marks a structurally invalid payload.
func IsMalformed(err error) bool {
	var malformed *MalformedResultError
	return errors.As(err, &malformed)
}
