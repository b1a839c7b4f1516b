package spec

import (
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"ripple/internal/errors"
	"ripple/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Format: "human", Level: "error"})
}

func loadDoc(t *testing.T, data string) *openapi3.T {
	t.Helper()
	doc, err := openapi3.NewLoader().LoadFromData([]byte(data))
	if err != nil {
		t.Fatalf("failed to load test document: %v", err)
	}
	return doc
}

const usersSpec = `
openapi: 3.0.0
info:
  title: Users API
  version: 1.0.0
paths:
  /api/users:
    get:
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  type: object
                  properties:
                    id:
                      type: string
                    name:
                      type: string
  /api/users/{id}:
    parameters:
      - name: id
        in: path
        required: true
        schema:
          type: string
    get:
      responses:
        "200":
          description: ok
    delete:
      responses:
        "204":
          description: deleted
`

func TestBuilder_Build(t *testing.T) {
	doc := loadDoc(t, usersSpec)
	model, err := NewBuilder(Limits{}, nil, testLogger()).Build(doc)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if model.Len() != 3 {
		t.Fatalf("model has %d endpoints, want 3", model.Len())
	}

	// Canonical ordering: method first, then normalized path.
	keys := make([]string, 0, model.Len())
	for _, ep := range model.Endpoints() {
		keys = append(keys, ep.Identity.Key())
	}
	expected := []string{
		"DELETE /api/users/{*}",
		"GET /api/users",
		"GET /api/users/{*}",
	}
	for i := range expected {
		if keys[i] != expected[i] {
			t.Errorf("Endpoints()[%d] = %q, want %q", i, keys[i], expected[i])
		}
	}

	// Path-item parameters apply to every operation on the path.
	ep, ok := model.Get("GET /api/users/{*}")
	if !ok {
		t.Fatal("GET /api/users/{*} not found")
	}
	if _, ok := ep.Parameter("id", InPath); !ok {
		t.Error("path-item parameter id should be inherited by the operation")
	}

	list, _ := model.Get("GET /api/users")
	resp := list.Responses["200"]
	if resp == nil || resp.Kind != SchemaArray {
		t.Fatalf("200 response should be an array schema, got %+v", resp)
	}
	if resp.Items == nil || resp.Items.Kind != SchemaObject {
		t.Fatalf("array items should be an object, got %+v", resp.Items)
	}
}

func TestBuilder_MalformedSpec(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "no paths section",
			data: "openapi: 3.0.0\ninfo:\n  title: t\n  version: 1.0.0\npaths: {}\n",
		},
		{
			name: "paths without operations",
			data: "openapi: 3.0.0\ninfo:\n  title: t\n  version: 1.0.0\npaths:\n  /api/users: {}\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := loadDoc(t, tc.data)
			_, err := NewBuilder(Limits{}, nil, testLogger()).Build(doc)
			if err == nil {
				t.Fatal("Build() should fail")
			}
			if errors.CodeOf(err) != errors.MalformedSpec {
				t.Errorf("error code = %s, want %s", errors.CodeOf(err), errors.MalformedSpec)
			}
		})
	}
}

func TestBuilder_DuplicateIdentity(t *testing.T) {
	// /users/{id} and /users/{userId} normalize to the same identity.
	data := `
openapi: 3.0.0
info:
  title: t
  version: 1.0.0
paths:
  /api/users/{id}:
    get:
      responses:
        "200":
          description: ok
  /api/users/{userId}:
    get:
      responses:
        "200":
          description: ok
`
	doc := loadDoc(t, data)
	_, err := NewBuilder(Limits{}, nil, testLogger()).Build(doc)
	if err == nil {
		t.Fatal("Build() should reject colliding endpoint identities")
	}
	if errors.CodeOf(err) != errors.MalformedSpec {
		t.Errorf("error code = %s, want %s", errors.CodeOf(err), errors.MalformedSpec)
	}
}

func TestBuilder_IgnorePatterns(t *testing.T) {
	doc := loadDoc(t, usersSpec)
	model, err := NewBuilder(Limits{}, []string{"GET /api/users/**"}, testLogger()).Build(doc)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if _, ok := model.Get("GET /api/users/{*}"); ok {
		t.Error("GET /api/users/{id} should be excluded by the ignore pattern")
	}
	if _, ok := model.Get("DELETE /api/users/{*}"); !ok {
		t.Error("DELETE /api/users/{id} should survive a GET-only pattern")
	}
}

func TestBuilder_Truncation(t *testing.T) {
	doc := loadDoc(t, usersSpec)
	model, err := NewBuilder(Limits{MaxEndpoints: 2}, nil, testLogger()).Build(doc)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if !model.Truncated() {
		t.Fatal("model should be flagged as truncated")
	}
	if model.Len() != 2 {
		t.Errorf("truncated model has %d endpoints, want 2", model.Len())
	}

	// The first two in canonical order survive; the advisory names the first
	// dropped endpoint.
	if _, ok := model.Get("DELETE /api/users/{*}"); !ok {
		t.Error("first endpoint in canonical order should survive truncation")
	}
	var advisory *Advisory
	for i := range model.Advisories() {
		if model.Advisories()[i].Kind == AdvisoryTruncated {
			advisory = &model.Advisories()[i]
		}
	}
	if advisory == nil {
		t.Fatal("truncated model should carry a truncation advisory")
	}
	if advisory.Identity.Key() != "GET /api/users/{*}" {
		t.Errorf("advisory identity = %q, want the first dropped endpoint", advisory.Identity.Key())
	}
}

func TestBuilder_UnresolvedReferenceAdvisory(t *testing.T) {
	data := `
openapi: 3.0.0
info:
  title: t
  version: 1.0.0
paths:
  /api/items:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Missing"
`
	// The strict loader rejects dangling refs, so build the ref by hand.
	doc := loadDoc(t, strings.Replace(data,
		`$ref: "#/components/schemas/Missing"`, "type: string", 1))
	item := doc.Paths.Find("/api/items")
	op := item.GetOperation("GET")
	resp, _ := op.Responses.Map()["200"]
	resp.Value.Content["application/json"].Schema = &openapi3.SchemaRef{
		Ref: "#/components/schemas/Missing",
	}

	model, err := NewBuilder(Limits{}, nil, testLogger()).Build(doc)
	if err != nil {
		t.Fatalf("unresolved references must degrade, not fail: %v", err)
	}

	advisories := model.Advisories()
	if len(advisories) != 1 {
		t.Fatalf("got %d advisories, want 1", len(advisories))
	}
	if advisories[0].Kind != AdvisoryReducedConfidence {
		t.Errorf("advisory kind = %s, want %s", advisories[0].Kind, AdvisoryReducedConfidence)
	}
	if advisories[0].Identity.Key() != "GET /api/items" {
		t.Errorf("advisory identity = %q, want GET /api/items", advisories[0].Identity.Key())
	}

	ep, _ := model.Get("GET /api/items")
	if ep.Responses["200"] == nil || ep.Responses["200"].Kind != SchemaUnresolved {
		t.Errorf("degraded response schema should be unresolved, got %+v", ep.Responses["200"])
	}
}

func TestResolver_CyclicReference(t *testing.T) {
	data := `
openapi: 3.0.0
info:
  title: t
  version: 1.0.0
components:
  schemas:
    Node:
      type: object
      properties:
        value:
          type: string
        next:
          $ref: "#/components/schemas/Node"
paths:
  /api/nodes:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Node"
`
	doc := loadDoc(t, data)
	model, err := NewBuilder(Limits{}, nil, testLogger()).Build(doc)
	if err != nil {
		t.Fatalf("Build() failed on cyclic schema: %v", err)
	}

	ep, _ := model.Get("GET /api/nodes")
	node := ep.Responses["200"]
	if node == nil || node.Kind != SchemaObject {
		t.Fatalf("expected object schema, got %+v", node)
	}
	next := node.Fields["next"]
	if next == nil {
		t.Fatal("cyclic field should be present")
	}
	if next.Kind != SchemaUnresolved {
		t.Errorf("cycle should break into an unresolved placeholder, got kind %s", next.Kind)
	}
	if next.Ref == "" {
		t.Error("cycle placeholder should carry the reference path")
	}
}

func TestEnumValues_Canonicalized(t *testing.T) {
	got := enumValues([]interface{}{"red", "blue", 3, true})
	expected := []string{"3", "blue", "red", "true"}
	if len(got) != len(expected) {
		t.Fatalf("enumValues returned %d values, want %d", len(got), len(expected))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("enumValues[%d] = %q, want %q", i, got[i], expected[i])
		}
	}
}
