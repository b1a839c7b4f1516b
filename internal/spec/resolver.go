package spec

import (
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// resolver converts openapi3 schema references into SchemaNodes. Resolution
// is depth-first with memoization keyed by reference path: a reference seen
// while it is still being resolved comes back as an unresolved placeholder,
// which breaks cycles and keeps the resolved graph a DAG.
type resolver struct {
	memo       map[string]*SchemaNode
	inProgress map[string]bool
	unresolved []string // reference paths that degraded, in encounter order
}

func newResolver() *resolver {
	return &resolver{
		memo:       make(map[string]*SchemaNode),
		inProgress: make(map[string]bool),
	}
}

// dangling records an unresolvable reference and returns its placeholder.
func (r *resolver) dangling(ref string) *SchemaNode {
	if ref == "" {
		ref = "(missing)"
	}
	r.unresolved = append(r.unresolved, ref)
	return &SchemaNode{Kind: SchemaUnresolved, Ref: ref}
}

func (r *resolver) resolve(ref *openapi3.SchemaRef) *SchemaNode {
	if ref == nil {
		return nil
	}
	if ref.Value == nil {
		return r.dangling(ref.Ref)
	}

	key := ref.Ref
	if key != "" {
		if node, ok := r.memo[key]; ok {
			return node
		}
		if r.inProgress[key] {
			// Cycle: substitute a placeholder instead of following the
			// reference again.
			return &SchemaNode{Kind: SchemaUnresolved, Ref: key}
		}
		r.inProgress[key] = true
		defer delete(r.inProgress, key)
	}

	node := r.build(ref.Value)

	if key != "" {
		r.memo[key] = node
	}
	return node
}

func (r *resolver) build(s *openapi3.Schema) *SchemaNode {
	if len(s.OneOf) > 0 || len(s.AnyOf) > 0 {
		alts := s.OneOf
		if len(alts) == 0 {
			alts = s.AnyOf
		}
		node := &SchemaNode{Kind: SchemaOneOf}
		for _, alt := range alts {
			if v := r.resolve(alt); v != nil {
				node.Variants = append(node.Variants, v)
			}
		}
		return node
	}

	typ := schemaType(s)
	switch typ {
	case "object":
		return r.buildObject(s)
	case "array":
		node := &SchemaNode{Kind: SchemaArray, Type: "array"}
		node.Items = r.resolve(s.Items)
		return node
	case "":
		// Untyped schema with properties is still an object in practice.
		if len(s.Properties) > 0 {
			return r.buildObject(s)
		}
		return &SchemaNode{Kind: SchemaPrimitive, Format: s.Format, Enum: enumValues(s.Enum)}
	default:
		return &SchemaNode{
			Kind:   SchemaPrimitive,
			Type:   typ,
			Format: s.Format,
			Enum:   enumValues(s.Enum),
		}
	}
}

func (r *resolver) buildObject(s *openapi3.Schema) *SchemaNode {
	node := &SchemaNode{
		Kind:     SchemaObject,
		Type:     "object",
		Fields:   make(map[string]*SchemaNode, len(s.Properties)),
		Required: make(map[string]bool, len(s.Required)),
	}
	for name, prop := range s.Properties {
		node.Fields[name] = r.resolve(prop)
	}
	for _, name := range s.Required {
		node.Required[name] = true
	}
	return node
}

func schemaType(s *openapi3.Schema) string {
	if s.Type == nil {
		return ""
	}
	types := s.Type.Slice()
	if len(types) == 0 {
		return ""
	}
	return types[0]
}

// enumValues canonicalizes enum members to sorted strings so value sets
// compare independently of declaration order.
func enumValues(enum []interface{}) []string {
	if len(enum) == 0 {
		return nil
	}
	out := make([]string, 0, len(enum))
	for _, v := range enum {
		out = append(out, fmt.Sprint(v))
	}
	sort.Strings(out)
	return out
}
