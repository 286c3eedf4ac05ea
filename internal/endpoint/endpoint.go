// Package endpoint speaks the SPARQL 1.1 protocol to a Parliament-style
// graph store: it builds query and update requests, executes them over an
// injected Transport, and decodes the replies.
package endpoint

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Media types used on the wire.
const (
	ContentTypeSPARQLUpdate  = "application/sparql-update"
	ContentTypeSPARQLResults = "application/sparql-results+json"

	acceptResults = ContentTypeSPARQLResults + ", application/json;q=0.9, */*;q=0.1"
)

// Default endpoint locations for a local Parliament server.
const (
	DefaultURL        = "http://localhost:8089/parliament"
	DefaultQueryPath  = "/sparql"
	DefaultUpdatePath = "/update"
)

// ParliamentNS is the namespace of Parliament's vocabulary.
const ParliamentNS = "http://parliament.semwebcentral.org/parliament#"

// MasterGraph is the bookkeeping graph Parliament keeps its named-graph
// registry in. It is not user data.
const MasterGraph = ParliamentNS + "MasterGraph"

// GraphEnumerationQuery lists the distinct named graphs known to the store.
const GraphEnumerationQuery = `PREFIX par: <` + ParliamentNS + `>

SELECT DISTINCT ?g WHERE {
	?g a par:NamedGraph .
}`

// Transport performs a single HTTP exchange. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Endpoint holds the resolved query and update URLs of one store.
type Endpoint struct {
	queryURL  string
	updateURL string
}

// New resolves the query and update paths against base.
func New(base, queryPath, updatePath string) (*Endpoint, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint url %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint url %q: scheme must be http or https", base)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint url %q: missing host", base)
	}

	join := func(p string) string {
		return u.String() + "/" + strings.TrimLeft(p, "/")
	}

	return &Endpoint{
		queryURL:  join(queryPath),
		updateURL: join(updatePath),
	}, nil
}

// QueryURL returns the URL read operations are sent to.
func (e *Endpoint) QueryURL() string { return e.queryURL }

// UpdateURL returns the URL write operations are sent to.
func (e *Endpoint) UpdateURL() string { return e.updateURL }

// Request is one protocol operation ready to be sent. Graph, when set,
// scopes the operation to one named graph through the protocol's
// default-graph-uri (query) or using-graph-uri (update) parameter.
type Request struct {
	Target      string
	Method      string
	Payload     string
	ContentType string
	Graph       string
}

// Query builds a GET request carrying payload as the query parameter.
func (e *Endpoint) Query(payload string) Request {
	return Request{Target: e.queryURL, Method: http.MethodGet, Payload: payload}
}

// Update builds a POST request carrying payload as a raw update body.
func (e *Endpoint) Update(payload string) Request {
	return Request{
		Target:      e.updateURL,
		Method:      http.MethodPost,
		Payload:     payload,
		ContentType: ContentTypeSPARQLUpdate,
	}
}

// HTTPRequest converts r to an *http.Request. GET payloads are
// percent-encoded into the query string; POST payloads are sent verbatim.
func (r Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	switch r.Method {
	case http.MethodGet:
		u, err := url.Parse(r.Target)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", r.Target, err)
		}
		appendParam(u, "query", r.Payload)
		if r.Graph != "" {
			appendParam(u, "default-graph-uri", r.Graph)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", acceptResults)
		return req, nil

	case http.MethodPost:
		target := r.Target
		if r.Graph != "" {
			u, err := url.Parse(r.Target)
			if err != nil {
				return nil, fmt.Errorf("invalid target %q: %w", r.Target, err)
			}
			appendParam(u, "using-graph-uri", r.Graph)
			target = u.String()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(r.Payload))
		if err != nil {
			return nil, err
		}
		if r.ContentType != "" {
			req.Header.Set("Content-Type", r.ContentType)
		}
		req.Header.Set("Accept", acceptResults)
		return req, nil

	default:
		return nil, fmt.Errorf("unsupported method %q", r.Method)
	}
}

// Response is a fully read 2xx reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the media type of the body without parameters.
func (r *Response) ContentType() string {
	return mediaType(r.Header.Get("Content-Type"))
}

// Execute sends req over t and reads the whole reply. Transport failures
// are returned as *NetworkError and non-2xx replies as *EndpointError.
func Execute(ctx context.Context, t Transport, req Request) (*Response, error) {
	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, &NetworkError{Op: "build request", Err: err}
	}

	resp, err := t.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Op: req.Method + " " + req.Target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newEndpointError(resp.StatusCode, resp.Header.Get("Content-Type"), body)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// appendParam adds key=value to u's query. Spaces go out as %20 rather
// than form-style '+'.
func appendParam(u *url.URL, key, value string) {
	param := key + "=" + strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
	if u.RawQuery != "" {
		u.RawQuery += "&" + param
	} else {
		u.RawQuery = param
	}
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
