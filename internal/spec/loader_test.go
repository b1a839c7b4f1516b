package spec

import (
	"os"
	"path/filepath"
	"testing"

	"ripple/internal/errors"
)

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	if err := os.WriteFile(path, []byte(usersSpec), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument() failed: %v", err)
	}
	if doc.Paths.Len() != 2 {
		t.Errorf("document has %d paths, want 2", doc.Paths.Len())
	}
}

func TestLoadDocument_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "{{{{"},
		{name: "dangling ref", content: `
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
`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "api.yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadDocument(path)
			if err == nil {
				t.Fatal("LoadDocument() should fail")
			}
			if errors.CodeOf(err) != errors.MalformedSpec {
				t.Errorf("error code = %s, want %s", errors.CodeOf(err), errors.MalformedSpec)
			}
		})
	}
}

func TestLoadDocument_MissingFile(t *testing.T) {
	_, err := LoadDocument(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadDocument() on a missing file should fail")
	}
	if errors.CodeOf(err) != errors.MalformedSpec {
		t.Errorf("error code = %s, want %s", errors.CodeOf(err), errors.MalformedSpec)
	}
}
