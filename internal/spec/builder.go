package spec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/getkin/kin-openapi/openapi3"

	"ripple/internal/errors"
	"ripple/internal/logging"
)

// httpMethods is the probe order for operations on a path item.
var httpMethods = []string{"GET", "PUT", "POST", "DELETE", "PATCH", "HEAD", "OPTIONS", "TRACE"}

// Limits carries the plan-tier limits applied while building a model.
// Zero values disable the corresponding limit.
type Limits struct {
	MaxEndpoints int
}

// Builder turns a parsed OpenAPI document into a SpecModel.
type Builder struct {
	limits  Limits
	ignored []string // "METHOD /path/**" doublestar patterns, excluded before diffing
	logger  *logging.Logger
}

// NewBuilder creates a builder. The limits and ignore patterns are passed in
// explicitly so the build stays a pure function of its inputs.
func NewBuilder(limits Limits, ignored []string, logger *logging.Logger) *Builder {
	return &Builder{
		limits:  limits,
		ignored: ignored,
		logger:  logger,
	}
}

// Build produces a SpecModel or fails with MALFORMED_SPEC. Unresolved schema
// references degrade the owning endpoint to reduced confidence instead of
// failing the build; partial analysis is still a usable signal.
func (b *Builder) Build(doc *openapi3.T) (*SpecModel, error) {
	if doc == nil || doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.NewRippleError(errors.MalformedSpec,
			"document has no paths section", nil)
	}

	paths := make([]string, 0, doc.Paths.Len())
	for path := range doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	res := newResolver()
	model := &SpecModel{endpoints: make(map[string]*Endpoint)}

	for _, path := range paths {
		item := doc.Paths.Find(path)
		if item == nil {
			continue
		}
		for _, method := range httpMethods {
			op := item.GetOperation(method)
			if op == nil {
				continue
			}

			identity := NewEndpointIdentity(method, path)
			if b.isIgnored(identity) {
				b.logger.Debug("Endpoint excluded by ignore pattern", map[string]interface{}{
					"endpoint": identity.String(),
				})
				continue
			}

			key := identity.Key()
			if existing, ok := model.endpoints[key]; ok {
				return nil, errors.NewRippleError(errors.MalformedSpec,
					fmt.Sprintf("duplicate endpoint identity: %s collides with %s",
						identity.String(), existing.Identity.String()), nil)
			}

			before := len(res.unresolved)
			endpoint := b.buildEndpoint(identity, item, op, res)
			model.endpoints[key] = endpoint

			if len(res.unresolved) > before {
				refs := res.unresolved[before:]
				model.advisories = append(model.advisories, Advisory{
					Kind:     AdvisoryReducedConfidence,
					Identity: identity,
					Message: fmt.Sprintf("unresolved schema reference(s) %s; analysis confidence reduced",
						strings.Join(refs, ", ")),
				})
			}
		}
	}

	if len(model.endpoints) == 0 {
		return nil, errors.NewRippleError(errors.MalformedSpec,
			"document declares no operations", nil)
	}

	model.order = make([]string, 0, len(model.endpoints))
	for key := range model.endpoints {
		model.order = append(model.order, key)
	}
	sort.Slice(model.order, func(i, j int) bool {
		return model.endpoints[model.order[i]].Identity.Less(model.endpoints[model.order[j]].Identity)
	})

	b.truncate(model)

	b.logger.Debug("Spec model built", map[string]interface{}{
		"endpoints":  model.Len(),
		"advisories": len(model.advisories),
		"truncated":  model.truncated,
	})

	return model, nil
}

// isIgnored matches the identity against the configured ignore patterns.
func (b *Builder) isIgnored(identity EndpointIdentity) bool {
	for _, pattern := range b.ignored {
		if ok, err := doublestar.Match(pattern, identity.String()); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, identity.Key()); err == nil && ok {
			return true
		}
	}
	return false
}

// truncate deterministically cuts the model down to the endpoint limit.
// Exceeding the limit flags the model, it never fails the run.
func (b *Builder) truncate(model *SpecModel) {
	max := b.limits.MaxEndpoints
	if max <= 0 || len(model.order) <= max {
		return
	}

	dropped := model.order[max:]
	first := model.endpoints[dropped[0]].Identity
	for _, key := range dropped {
		delete(model.endpoints, key)
	}
	model.order = model.order[:max]
	model.truncated = true
	model.advisories = append(model.advisories, Advisory{
		Kind:     AdvisoryTruncated,
		Identity: first,
		Message: fmt.Sprintf("endpoint limit %d exceeded; %d endpoint(s) not analyzed",
			max, len(dropped)),
	})

	b.logger.Warn("Spec model truncated to endpoint limit", map[string]interface{}{
		"limit":   max,
		"dropped": len(dropped),
	})
}

func (b *Builder) buildEndpoint(identity EndpointIdentity, item *openapi3.PathItem, op *openapi3.Operation, res *resolver) *Endpoint {
	endpoint := &Endpoint{
		Identity:  identity,
		Responses: make(map[string]*SchemaNode),
	}

	// Path-item parameters apply to every operation; operation parameters
	// follow in declared order.
	for _, p := range item.Parameters {
		if param, ok := buildParameter(p, res); ok {
			endpoint.Parameters = append(endpoint.Parameters, param)
		}
	}
	for _, p := range op.Parameters {
		if param, ok := buildParameter(p, res); ok {
			endpoint.Parameters = append(endpoint.Parameters, param)
		}
	}

	if op.RequestBody != nil {
		if op.RequestBody.Value != nil {
			endpoint.RequestBody = res.resolve(bodySchema(op.RequestBody.Value.Content))
			endpoint.RequestBodyRequired = op.RequestBody.Value.Required
		} else {
			endpoint.RequestBody = res.dangling(op.RequestBody.Ref)
		}
	}

	if op.Responses != nil {
		for code, ref := range op.Responses.Map() {
			if ref == nil {
				continue
			}
			if ref.Value == nil {
				endpoint.Responses[code] = res.dangling(ref.Ref)
				continue
			}
			endpoint.Responses[code] = res.resolve(bodySchema(ref.Value.Content))
		}
	}

	return endpoint
}

func buildParameter(ref *openapi3.ParameterRef, res *resolver) (Parameter, bool) {
	if ref == nil || ref.Value == nil {
		return Parameter{}, false
	}
	return Parameter{
		Name:     ref.Value.Name,
		In:       ParameterLocation(ref.Value.In),
		Required: ref.Value.Required,
		Schema:   res.resolve(ref.Value.Schema),
	}, true
}

// bodySchema picks the schema out of a content map, preferring JSON.
func bodySchema(content openapi3.Content) *openapi3.SchemaRef {
	if len(content) == 0 {
		return nil
	}
	if mt, ok := content["application/json"]; ok && mt != nil {
		return mt.Schema
	}
	types := make([]string, 0, len(content))
	for ct := range content {
		types = append(types, ct)
	}
	sort.Strings(types)
	mt := content[types[0]]
	if mt == nil {
		return nil
	}
	return mt.Schema
}
