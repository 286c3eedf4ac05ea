package resultset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantCols int
		wantRows int
	}{
		{
			name:     "zero columns zero rows",
			payload:  `{"head":{"vars":[]},"results":{"bindings":[]}}`,
			wantCols: 0,
			wantRows: 0,
		},
		{
			name:     "one column two rows",
			payload:  `{"head":{"vars":["g"]},"results":{"bindings":[{"g":{"value":"urn:graph:A"}},{"g":{"value":"urn:graph:B"}}]}}`,
			wantCols: 1,
			wantRows: 2,
		},
		{
			name: "unbound variable in second row",
			payload: `{"head":{"vars":["s","label"]},"results":{"bindings":[
				{"s":{"type":"uri","value":"http://example.org/a"},"label":{"type":"literal","value":"A","xml:lang":"en"}},
				{"s":{"type":"bnode","value":"b0"}}
			]}}`,
			wantCols: 2,
			wantRows: 2,
		},
		{
			name:     "columns declared but no rows",
			payload:  `{"head":{"vars":["x","y","z"]},"results":{"bindings":[]}}`,
			wantCols: 3,
			wantRows: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := Parse([]byte(tt.payload))
			require.NoError(t, err)
			assert.Len(t, rs.Columns(), tt.wantCols)
			assert.Equal(t, tt.wantRows, rs.Len())
			assert.Len(t, rs.Rows(), tt.wantRows)
			assert.Equal(t, tt.wantRows == 0, rs.IsEmpty())
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantField string
	}{
		{"missing results", `{"head":{"vars":["g"]}}`, "results"},
		{"missing head", `{"results":{"bindings":[]}}`, "head"},
		{"missing vars", `{"head":{},"results":{"bindings":[]}}`, "head.vars"},
		{"null bindings", `{"head":{"vars":[]},"results":{"bindings":null}}`, "results.bindings"},
		{"ask result", `{"head":{},"boolean":true}`, "head.vars"},
		{"results wrong type", `{"head":{"vars":[]},"results":"nope"}`, "results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.payload))
			require.Error(t, err)
			assert.True(t, IsMalformed(err))

			var malformed *MalformedResultError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.wantField, malformed.Field)
		})
	}
}

func TestParse_InvalidJSONIsNotMalformed(t *testing.T) {
	_, err := Parse([]byte(`<html>oops</html>`))
	require.Error(t, err)
	assert.False(t, IsMalformed(err))
}

func TestParse_UnknownTermType(t *testing.T) {
	_, err := Parse([]byte(`{"head":{"vars":["x"]},"results":{"bindings":[{"x":{"type":"triple","value":"?"}}]}}`))
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
}

func TestParse_TermKinds(t *testing.T) {
	payload := `{"head":{"vars":["u","b","l","t"]},"results":{"bindings":[{
		"u":{"type":"uri","value":"http://example.org/x"},
		"b":{"type":"bnode","value":"n1"},
		"l":{"type":"literal","value":"chat","xml:lang":"fr"},
		"t":{"type":"typed-literal","value":"42","datatype":"http://www.w3.org/2001/XMLSchema#integer"}
	}]}}`

	rs, err := Parse([]byte(payload))
	require.NoError(t, err)

	u, ok := rs.Value(0, "u")
	require.True(t, ok)
	assert.Equal(t, KindURI, u.Kind)

	b, _ := rs.Value(0, "b")
	assert.Equal(t, KindBlank, b.Kind)

	l, _ := rs.Value(0, "l")
	assert.Equal(t, KindLiteral, l.Kind)
	assert.Equal(t, "fr", l.Lang)

	typed, _ := rs.Value(0, "t")
	assert.Equal(t, KindLiteral, typed.Kind)
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#integer", typed.Datatype)
}

func TestNew_DropsUndeclaredKeys(t *testing.T) {
	rs := New([]string{"a"}, []Binding{
		{"a": {Value: "1"}, "extra": {Value: "ignored"}},
		{},
	})

	assert.Equal(t, []string{"a"}, rs.Columns())
	_, ok := rs.Value(0, "extra")
	assert.False(t, ok)
	_, ok = rs.Value(1, "a")
	assert.False(t, ok, "second row leaves a unbound")
	_, ok = rs.Value(5, "a")
	assert.False(t, ok, "out of range row")
}

func TestResultSet_Immutable(t *testing.T) {
	rs := New([]string{"a"}, []Binding{{"a": {Value: "1"}}})

	cols := rs.Columns()
	cols[0] = "changed"
	rows := rs.Rows()
	rows[0]["a"] = Value{Value: "changed"}

	assert.Equal(t, []string{"a"}, rs.Columns())
	v, _ := rs.Value(0, "a")
	assert.Equal(t, "1", v.Value)
}

func TestResultSet_Column(t *testing.T) {
	rs := New([]string{"g"}, []Binding{{"g": {Value: "A"}}, {}, {"g": {Value: "C"}}})
	got := rs.Column("g")
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Value)
	assert.Equal(t, "", got[1].Value)
	assert.Equal(t, "C", got[2].Value)
}

func TestResultSet_RoundTrip(t *testing.T) {
	payload := `{"head":{"vars":["s","o"]},"results":{"bindings":[
		{"s":{"type":"uri","value":"http://example.org/s"},"o":{"type":"literal","value":"x","xml:lang":"en"}},
		{"s":{"type":"bnode","value":"b1"}}
	]}}`

	first, err := Parse([]byte(payload))
	require.NoError(t, err)

	encoded, err := json.Marshal(first)
	require.NoError(t, err)

	var second ResultSet
	require.NoError(t, json.Unmarshal(encoded, &second))

	assert.Equal(t, first.Columns(), second.Columns())
	assert.Equal(t, first.Rows(), second.Rows())
}
