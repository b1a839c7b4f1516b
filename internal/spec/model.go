// Package spec holds the canonical in-memory representation of one version
// of an HTTP API description, plus the builder that produces it from a parsed
// OpenAPI document. A SpecModel is built once and never mutated afterward.
package spec

import (
	"sort"
	"strings"
)

// placeholder replaces every path-parameter name during normalization, so
// /users/{id} and /users/{userId} produce the same identity.
const placeholder = "{*}"

// EndpointIdentity identifies one API operation within a version.
// Equality is method (case-insensitive) plus the normalized path template;
// Path keeps the original parameter names for reporting.
type EndpointIdentity struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// NewEndpointIdentity builds an identity with the method upper-cased.
func NewEndpointIdentity(method, path string) EndpointIdentity {
	return EndpointIdentity{Method: strings.ToUpper(method), Path: path}
}

// NormalizePath rewrites every {param} segment to a common placeholder.
func NormalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") && len(seg) > 2 {
			segments[i] = placeholder
		}
	}
	return strings.Join(segments, "/")
}

// Key returns the canonical map key for the identity.
func (id EndpointIdentity) Key() string {
	return id.Method + " " + NormalizePath(id.Path)
}

// String returns the identity as authored, e.g. "GET /api/users/{id}".
func (id EndpointIdentity) String() string {
	return id.Method + " " + id.Path
}

// Less orders identities by method, then normalized path. This is the
// canonical ordering every downstream consumer relies on for determinism.
func (id EndpointIdentity) Less(other EndpointIdentity) bool {
	if id.Method != other.Method {
		return id.Method < other.Method
	}
	return NormalizePath(id.Path) < NormalizePath(other.Path)
}

// ParameterLocation is where a parameter is carried.
type ParameterLocation string

const (
	InPath   ParameterLocation = "path"
	InQuery  ParameterLocation = "query"
	InHeader ParameterLocation = "header"
	InCookie ParameterLocation = "cookie"
)

// Parameter is one declared operation parameter.
type Parameter struct {
	Name     string            `json:"name"`
	In       ParameterLocation `json:"in"`
	Required bool              `json:"required"`
	Schema   *SchemaNode       `json:"schema,omitempty"`
}

// Endpoint is one operation owned by a SpecModel.
type Endpoint struct {
	Identity            EndpointIdentity       `json:"identity"`
	Parameters          []Parameter            `json:"parameters,omitempty"`
	RequestBody         *SchemaNode            `json:"requestBody,omitempty"`
	RequestBodyRequired bool                   `json:"requestBodyRequired,omitempty"`
	Responses           map[string]*SchemaNode `json:"responses,omitempty"`
}

// ResponseCodes returns the endpoint's status codes in sorted order.
func (e *Endpoint) ResponseCodes() []string {
	codes := make([]string, 0, len(e.Responses))
	for code := range e.Responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Parameter returns the declared parameter with the given name and location.
func (e *Endpoint) Parameter(name string, in ParameterLocation) (Parameter, bool) {
	for _, p := range e.Parameters {
		if p.Name == name && p.In == in {
			return p, true
		}
	}
	return Parameter{}, false
}

// SchemaKind discriminates SchemaNode variants.
type SchemaKind string

const (
	SchemaPrimitive  SchemaKind = "primitive"
	SchemaObject     SchemaKind = "object"
	SchemaArray      SchemaKind = "array"
	SchemaOneOf      SchemaKind = "oneOf"
	SchemaUnresolved SchemaKind = "unresolved"
)

// SchemaNode is a resolved schema. Cyclic references are broken during
// resolution: a node whose reference is still being resolved comes back as
// an unresolved node carrying the reference path, so the resolved graph is
// a DAG and every traversal terminates.
type SchemaNode struct {
	Kind   SchemaKind `json:"kind"`
	Type   string     `json:"type,omitempty"`   // primitive type name
	Format string     `json:"format,omitempty"` // primitive format
	Enum   []string   `json:"enum,omitempty"`   // canonicalized, sorted

	Fields   map[string]*SchemaNode `json:"fields,omitempty"`   // object
	Required map[string]bool        `json:"required,omitempty"` // object

	Items *SchemaNode `json:"items,omitempty"` // array

	Variants []*SchemaNode `json:"variants,omitempty"` // oneOf

	Ref string `json:"ref,omitempty"` // reference path, set on unresolved nodes
}

// FieldNames returns the object's field names in sorted order.
func (n *SchemaNode) FieldNames() []string {
	names := make([]string, 0, len(n.Fields))
	for name := range n.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AdvisoryKind classifies builder advisories.
type AdvisoryKind string

const (
	// AdvisoryReducedConfidence marks an endpoint whose schemas contain
	// unresolved references; analysis for it is degraded, not skipped.
	AdvisoryReducedConfidence AdvisoryKind = "reduced_confidence"
	// AdvisoryTruncated marks a model cut down to the endpoint limit.
	AdvisoryTruncated AdvisoryKind = "truncated"
)

// Advisory is a non-fatal degradation recorded during the build. The diff
// engine surfaces advisories as warning-level changes.
type Advisory struct {
	Kind     AdvisoryKind     `json:"kind"`
	Identity EndpointIdentity `json:"identity"`
	Message  string           `json:"message"`
}

// SpecModel owns the endpoints of one API description version.
// Immutable once returned by the builder.
type SpecModel struct {
	endpoints  map[string]*Endpoint
	order      []string // keys sorted by identity
	advisories []Advisory
	truncated  bool
}

// Endpoints returns the endpoints in canonical identity order.
func (m *SpecModel) Endpoints() []*Endpoint {
	out := make([]*Endpoint, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.endpoints[key])
	}
	return out
}

// Get looks up an endpoint by identity key.
func (m *SpecModel) Get(key string) (*Endpoint, bool) {
	e, ok := m.endpoints[key]
	return e, ok
}

// Len returns the number of endpoints.
func (m *SpecModel) Len() int {
	return len(m.order)
}

// Advisories returns the degradations recorded during the build.
func (m *SpecModel) Advisories() []Advisory {
	return m.advisories
}

// Truncated reports whether the model was cut to the endpoint limit.
func (m *SpecModel) Truncated() bool {
	return m.truncated
}
