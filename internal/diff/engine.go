package diff

import (
	"fmt"
	"sort"
	"strings"

	"ripple/internal/logging"
	"ripple/internal/spec"
)

// Engine computes the classified set of differences between two spec models.
// It never fails given two valid models; degraded schema regions surface as
// warning-level REDUCED_CONFIDENCE changes rather than errors.
type Engine struct {
	logger *logging.Logger
}

// NewEngine creates a diff engine.
func NewEngine(logger *logging.Logger) *Engine {
	return &Engine{logger: logger}
}

// Compare diffs old against new and returns changes in a stable order:
// grouped by endpoint identity (method, then normalized path), then by the
// rule order below within each endpoint. Identical inputs always produce
// byte-identical output; the score feeds CI gates, so this is a correctness
// requirement, not a nicety.
func (e *Engine) Compare(old, new *spec.SpecModel) []Change {
	keys := unionKeys(old, new)

	var changes []Change
	for _, key := range keys {
		oldEp, inOld := old.Get(key)
		newEp, inNew := new.Get(key)

		switch {
		case inOld && !inNew:
			// Removing every method of a path and removing one method both
			// fold into a single ENDPOINT_REMOVED per identity.
			changes = append(changes, Change{
				Identity:    oldEp.Identity,
				Kind:        EndpointRemoved,
				Severity:    SeverityBreaking,
				Description: fmt.Sprintf("%s was removed", oldEp.Identity.String()),
			})
		case !inOld && inNew:
			changes = append(changes, Change{
				Identity:    newEp.Identity,
				Kind:        EndpointAdded,
				Severity:    SeverityInfo,
				Description: fmt.Sprintf("%s was added", newEp.Identity.String()),
			})
			changes = append(changes, advisoryChanges(new, newEp.Identity)...)
		default:
			changes = append(changes, e.compareEndpoint(oldEp, newEp)...)
			changes = append(changes, advisoryChanges(old, oldEp.Identity)...)
			changes = append(changes, advisoryChanges(new, newEp.Identity)...)
		}
	}

	changes = append(changes, truncationChanges(old)...)
	changes = append(changes, truncationChanges(new)...)
	changes = dedupe(changes)

	e.logger.Debug("Diff completed", map[string]interface{}{
		"endpoints": len(keys),
		"changes":   len(changes),
	})

	return changes
}

// unionKeys merges the identity keys of both models in canonical order.
func unionKeys(old, new *spec.SpecModel) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, ep := range old.Endpoints() {
		key := ep.Identity.Key()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	for _, ep := range new.Endpoints() {
		key := ep.Identity.Key()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// compareEndpoint fires every applicable structural rule for a matched pair.
// A single endpoint may produce many changes.
func (e *Engine) compareEndpoint(old, new *spec.Endpoint) []Change {
	var out []Change
	id := old.Identity

	// Rule 1: parameters removed.
	for _, p := range old.Parameters {
		if _, ok := new.Parameter(p.Name, p.In); ok {
			continue
		}
		severity := SeverityWarning
		if p.Required {
			severity = SeverityBreaking
		}
		out = append(out, Change{
			Identity: id,
			Kind:     ParamRemoved,
			Locator:  string(p.In) + ":" + p.Name,
			Severity: severity,
			Description: fmt.Sprintf("%s parameter %q removed from %s",
				p.In, p.Name, id.String()),
		})
	}

	// Rule 2: parameters added.
	for _, p := range new.Parameters {
		if _, ok := old.Parameter(p.Name, p.In); ok {
			continue
		}
		if p.Required {
			// Existing callers cannot satisfy a parameter they never sent.
			out = append(out, Change{
				Identity: id,
				Kind:     ParamNowRequired,
				Locator:  string(p.In) + ":" + p.Name,
				Severity: SeverityBreaking,
				Description: fmt.Sprintf("required %s parameter %q added to %s",
					p.In, p.Name, id.String()),
			})
		} else {
			out = append(out, Change{
				Identity: id,
				Kind:     ParamAdded,
				Locator:  string(p.In) + ":" + p.Name,
				Severity: SeverityInfo,
				Description: fmt.Sprintf("optional %s parameter %q added to %s",
					p.In, p.Name, id.String()),
			})
		}
	}

	// Rule 3: parameter type changes.
	for _, oldP := range old.Parameters {
		newP, ok := new.Parameter(oldP.Name, oldP.In)
		if !ok {
			continue
		}
		if severity, desc, changed := classifySchemaChange(oldP.Schema, newP.Schema); changed {
			out = append(out, Change{
				Identity: id,
				Kind:     ParamTypeChanged,
				Locator:  string(oldP.In) + ":" + oldP.Name,
				Severity: severity,
				Description: fmt.Sprintf("%s parameter %q of %s: %s",
					oldP.In, oldP.Name, id.String(), desc),
			})
		}
	}

	// Rules 4-5: request body fields.
	out = append(out, compareBody(id, "body", old.RequestBody, new.RequestBody, requestFieldRules)...)

	// Rule 6: response fields per status code present in both.
	for _, code := range old.ResponseCodes() {
		newSchema, ok := new.Responses[code]
		if !ok {
			continue
		}
		locator := "response:" + code
		out = append(out, compareBody(id, locator, old.Responses[code], newSchema, responseFieldRules)...)
	}

	// Rule 7: status codes removed.
	for _, code := range old.ResponseCodes() {
		if _, ok := new.Responses[code]; ok {
			continue
		}
		severity := SeverityWarning
		if strings.HasPrefix(code, "2") {
			severity = SeverityBreaking
		}
		out = append(out, Change{
			Identity: id,
			Kind:     ResponseRemoved,
			Locator:  "response:" + code,
			Severity: severity,
			Description: fmt.Sprintf("response %s removed from %s",
				code, id.String()),
		})
	}

	return out
}

// fieldRules parameterizes the body walk for the request and response
// directions, which classify removals and additions differently.
type fieldRules struct {
	removedKind      ChangeKind
	removedSeverity  func(required bool) Severity
	addedKind        ChangeKind
	emitAdded        bool
	nowRequiredKind  ChangeKind
	emitNowRequired  bool
	typeChangedKind  ChangeKind
	removedWhat      string
	addedWhat        string
	nowRequiredWhat  string
	typeChangedWhat  string
}

var requestFieldRules = fieldRules{
	removedKind: BodyFieldRemoved,
	removedSeverity: func(required bool) Severity {
		// Callers still sending a removed required field break; an optional
		// one only warrants a warning.
		if required {
			return SeverityBreaking
		}
		return SeverityWarning
	},
	emitNowRequired: true,
	nowRequiredKind: BodyFieldNowRequired,
	typeChangedKind: BodyFieldTypeChanged,
	removedWhat:     "request field",
	nowRequiredWhat: "request field",
	typeChangedWhat: "request field",
}

var responseFieldRules = fieldRules{
	removedKind: ResponseFieldRemoved,
	removedSeverity: func(bool) Severity {
		// Callers may read any response field, required or not.
		return SeverityBreaking
	},
	emitAdded:       true,
	addedKind:       ResponseFieldAdded,
	typeChangedKind: ResponseFieldTypeChanged,
	removedWhat:     "response field",
	addedWhat:       "response field",
	typeChangedWhat: "response field",
}

// compareBody recursively walks two schema trees, emitting field-level
// changes with dotted locators. Unresolved regions are skipped; the builder
// already recorded the confidence degradation.
func compareBody(id spec.EndpointIdentity, locator string, old, new *spec.SchemaNode, rules fieldRules) []Change {
	if old == nil || new == nil {
		return nil
	}
	if old.Kind == spec.SchemaUnresolved || new.Kind == spec.SchemaUnresolved {
		return nil
	}

	if old.Kind == spec.SchemaArray && new.Kind == spec.SchemaArray {
		return compareBody(id, locator+"[]", old.Items, new.Items, rules)
	}

	if old.Kind != spec.SchemaObject || new.Kind != spec.SchemaObject {
		if severity, desc, changed := classifySchemaChange(old, new); changed {
			return []Change{{
				Identity: id,
				Kind:     rules.typeChangedKind,
				Locator:  locator,
				Severity: severity,
				Description: fmt.Sprintf("%s %q of %s: %s",
					rules.typeChangedWhat, locator, id.String(), desc),
			}}
		}
		return nil
	}

	var out []Change

	// Fields removed.
	for _, name := range old.FieldNames() {
		if _, ok := new.Fields[name]; ok {
			continue
		}
		fieldLoc := locator + "." + name
		out = append(out, Change{
			Identity: id,
			Kind:     rules.removedKind,
			Locator:  fieldLoc,
			Severity: rules.removedSeverity(old.Required[name]),
			Description: fmt.Sprintf("%s %q removed from %s",
				rules.removedWhat, fieldLoc, id.String()),
		})
	}

	// Fields added.
	for _, name := range new.FieldNames() {
		if _, ok := old.Fields[name]; ok {
			continue
		}
		fieldLoc := locator + "." + name
		if rules.emitNowRequired && new.Required[name] {
			out = append(out, Change{
				Identity: id,
				Kind:     rules.nowRequiredKind,
				Locator:  fieldLoc,
				Severity: SeverityBreaking,
				Description: fmt.Sprintf("%s %q is newly required in %s",
					rules.nowRequiredWhat, fieldLoc, id.String()),
			})
		} else if rules.emitAdded {
			out = append(out, Change{
				Identity: id,
				Kind:     rules.addedKind,
				Locator:  fieldLoc,
				Severity: SeverityInfo,
				Description: fmt.Sprintf("%s %q added to %s",
					rules.addedWhat, fieldLoc, id.String()),
			})
		}
	}

	// Existing fields newly required.
	if rules.emitNowRequired {
		for _, name := range old.FieldNames() {
			if _, ok := new.Fields[name]; !ok {
				continue
			}
			if new.Required[name] && !old.Required[name] {
				fieldLoc := locator + "." + name
				out = append(out, Change{
					Identity: id,
					Kind:     rules.nowRequiredKind,
					Locator:  fieldLoc,
					Severity: SeverityBreaking,
					Description: fmt.Sprintf("%s %q is newly required in %s",
						rules.nowRequiredWhat, fieldLoc, id.String()),
				})
			}
		}
	}

	// Recurse into fields present in both.
	for _, name := range old.FieldNames() {
		newField, ok := new.Fields[name]
		if !ok {
			continue
		}
		out = append(out, compareBody(id, locator+"."+name, old.Fields[name], newField, rules)...)
	}

	return out
}

// classifySchemaChange compares two schema nodes and classifies the
// difference by breaking-change severity:
//   - incompatible or narrowed type (string to integer, enum set shrinks,
//     new enum constraint, structural kind change) is breaking
//   - compatibly widened type (integer to number, enum constraint dropped,
//     format loosened) is a warning
//   - enum set growth is informational
func classifySchemaChange(old, new *spec.SchemaNode) (Severity, string, bool) {
	if old == nil || new == nil {
		return SeverityInfo, "", false
	}
	if old.Kind == spec.SchemaUnresolved || new.Kind == spec.SchemaUnresolved {
		return SeverityInfo, "", false
	}

	if old.Kind != new.Kind {
		return SeverityBreaking,
			fmt.Sprintf("schema changed from %s to %s", old.Kind, new.Kind), true
	}

	if old.Kind != spec.SchemaPrimitive {
		return SeverityInfo, "", false
	}

	if old.Type != new.Type {
		if old.Type == "integer" && new.Type == "number" {
			return SeverityWarning,
				"type widened from integer to number", true
		}
		return SeverityBreaking,
			fmt.Sprintf("type changed from %s to %s", orAny(old.Type), orAny(new.Type)), true
	}

	if removed, added := enumDelta(old.Enum, new.Enum); removed != nil || added != nil {
		switch {
		case len(old.Enum) > 0 && len(new.Enum) == 0:
			return SeverityWarning, "enum constraint removed", true
		case len(old.Enum) == 0 && len(new.Enum) > 0:
			return SeverityBreaking,
				fmt.Sprintf("enum constraint added (%s)", strings.Join(new.Enum, ", ")), true
		case len(removed) > 0:
			return SeverityBreaking,
				fmt.Sprintf("enum value(s) removed: %s", strings.Join(removed, ", ")), true
		default:
			return SeverityInfo,
				fmt.Sprintf("enum value(s) added: %s", strings.Join(added, ", ")), true
		}
	}

	if old.Format != new.Format {
		return SeverityWarning,
			fmt.Sprintf("format changed from %s to %s", orAny(old.Format), orAny(new.Format)), true
	}

	return SeverityInfo, "", false
}

func orAny(s string) string {
	if s == "" {
		return "(untyped)"
	}
	return s
}

// enumDelta returns values present only in old and only in new.
func enumDelta(old, new []string) (removed, added []string) {
	oldSet := make(map[string]bool, len(old))
	for _, v := range old {
		oldSet[v] = true
	}
	newSet := make(map[string]bool, len(new))
	for _, v := range new {
		newSet[v] = true
	}
	for _, v := range old {
		if !newSet[v] {
			removed = append(removed, v)
		}
	}
	for _, v := range new {
		if !oldSet[v] {
			added = append(added, v)
		}
	}
	return removed, added
}

// advisoryChanges surfaces the builder's reduced-confidence advisories for
// one endpoint as warning-level changes.
func advisoryChanges(model *spec.SpecModel, id spec.EndpointIdentity) []Change {
	var out []Change
	for _, adv := range model.Advisories() {
		if adv.Kind != spec.AdvisoryReducedConfidence {
			continue
		}
		if adv.Identity.Key() != id.Key() {
			continue
		}
		out = append(out, Change{
			Identity:    id,
			Kind:        ReducedConfidence,
			Severity:    SeverityWarning,
			Description: adv.Message,
		})
	}
	return out
}

// truncationChanges surfaces endpoint-limit truncation as a warning change.
func truncationChanges(model *spec.SpecModel) []Change {
	var out []Change
	for _, adv := range model.Advisories() {
		if adv.Kind != spec.AdvisoryTruncated {
			continue
		}
		out = append(out, Change{
			Identity:    adv.Identity,
			Kind:        EndpointLimitExceeded,
			Severity:    SeverityWarning,
			Description: adv.Message,
		})
	}
	return out
}

// dedupe removes exact duplicate changes while preserving order. Advisories
// for the same endpoint can be recorded in both model versions.
func dedupe(changes []Change) []Change {
	seen := make(map[string]bool, len(changes))
	out := changes[:0]
	for _, c := range changes {
		key := c.Identity.Key() + "|" + string(c.Kind) + "|" + c.Locator + "|" + c.Description
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
