package view

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/leapstack-labs/parq/internal/endpoint"
)

// Prefixes maps a namespace prefix to its IRI.
type Prefixes map[string]string

// DefaultPrefixes returns the namespaces every buffer starts with.
func DefaultPrefixes() Prefixes {
	return Prefixes{
		"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
		"owl":  "http://www.w3.org/2002/07/owl#",
		"xsd":  "http://www.w3.org/2001/XMLSchema#",
		"par":  endpoint.ParliamentNS,
	}
}

// With returns a copy of p extended by extra. Entries in extra win.
func (p Prefixes) With(extra map[string]string) Prefixes {
	out := maps.Clone(p)
	if out == nil {
		out = Prefixes{}
	}
	maps.Copy(out, extra)
	return out
}

// Names returns the prefix names in sorted order.
func (p Prefixes) Names() []string {
	return slices.Sorted(maps.Keys(p))
}

// Declarations renders one PREFIX line per entry.
func (p Prefixes) Declarations() string {
	var b strings.Builder
	for _, name := range p.Names() {
		fmt.Fprintf(&b, "PREFIX %s: <%s>\n", name, p[name])
	}
	return b.String()
}

// QueryTemplate is the default query buffer.
func QueryTemplate(p Prefixes) string {
	return p.Declarations() + `
SELECT ?s ?p ?o WHERE {
	?s ?p ?o .
} LIMIT 100
`
}

// UpdateTemplate is the default update buffer.
func UpdateTemplate(p Prefixes) string {
	return p.Declarations() + `
INSERT DATA {

}
;
DELETE DATA {

}
`
}
