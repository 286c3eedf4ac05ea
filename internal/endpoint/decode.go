package endpoint

import (
	"bytes"
	"encoding/json"

	"github.com/leapstack-labs/parq/internal/resultset"
)

// Ack is the opaque acknowledgement returned by an update. Its shape is
// not interpreted; Value holds the parsed body when it is JSON.
type Ack struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Value       any
}

// Text returns the body as a trimmed string.
func (a *Ack) Text() string {
	return string(bytes.TrimSpace(a.Body))
}

// Reply is a decoded successful response. Exactly one field is set.
type Reply struct {
	Results *resultset.ResultSet
	Ack     *Ack
}

// Decoder turns a successful response into a Reply.
type Decoder func(resp *Response) (Reply, error)

// DecodeResults decodes a SPARQL JSON results document. Invalid JSON is
// a *DecodeError; valid JSON without head.vars and results.bindings is a
// *resultset.MalformedResultError.
func DecodeResults(resp *Response) (Reply, error) {
	rs, err := resultset.Parse(resp.Body)
	if err != nil {
		if resultset.IsMalformed(err) {
			return Reply{}, err
		}
		return Reply{}, &DecodeError{ContentType: resp.ContentType(), Err: err}
	}
	return Reply{Results: rs}, nil
}

// DecodeAck accepts any successful update reply. A JSON body is parsed
// into Ack.Value; any other body is carried through untouched.
func DecodeAck(resp *Response) (Reply, error) {
	ack := &Ack{
		StatusCode:  resp.StatusCode,
		ContentType: resp.ContentType(),
		Body:        resp.Body,
	}

	trimmed := bytes.TrimSpace(resp.Body)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return Reply{}, &DecodeError{ContentType: ack.ContentType, Err: err}
		}
		ack.Value = v
	}

	return Reply{Ack: ack}, nil
}
