package callers

import (
	"os"
	"path/filepath"
	"testing"

	"ripple/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Format: "human", Level: "error"})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadMapping(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "callers.yaml", `
mappings:
  - endpoint: "GET /api/users/{id}"
    callers:
      - file: "src/components/UserProfile.tsx"
        line: 42
        usage: "useQuery hook"
      - file: "src/api/client.ts"
        line: 7
  - endpoint: "POST /api/orders"
    callers:
      - file: "src/checkout.ts"
        line: 101
`)

	index, err := LoadMapping(path, testLogger())
	if err != nil {
		t.Fatalf("LoadMapping() failed: %v", err)
	}

	// The mapping endpoint is normalized like any other identity.
	sites := index.Sites("GET /api/users/{*}")
	if len(sites) != 2 {
		t.Fatalf("got %d sites for GET /api/users/{*}, want 2", len(sites))
	}
	// Finalize sorts by (file, line).
	if sites[0].File != "src/api/client.ts" {
		t.Errorf("sites[0].File = %q, want src/api/client.ts", sites[0].File)
	}
	for _, site := range sites {
		if site.Confidence != ConfidenceHigh {
			t.Errorf("mapping sites must be high confidence, got %s", site.Confidence)
		}
	}
	if sites[1].Snippet != "useQuery hook" {
		t.Errorf("usage should carry through as snippet, got %q", sites[1].Snippet)
	}

	if index.Count("POST /api/orders") != 1 {
		t.Errorf("Count(POST /api/orders) = %d, want 1", index.Count("POST /api/orders"))
	}
}

func TestLoadMapping_SkipsMalformedEntries(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "callers.yaml", `
mappings:
  - endpoint: "not-an-endpoint"
    callers:
      - file: "src/a.ts"
  - endpoint: "GET relative/path"
    callers:
      - file: "src/b.ts"
  - endpoint: "GET /api/ok"
    callers:
      - file: ""
      - file: "src/c.ts"
        line: 3
`)

	index, err := LoadMapping(path, testLogger())
	if err != nil {
		t.Fatalf("LoadMapping() failed: %v", err)
	}

	// Only the well-formed entry with a file survives.
	if index.TotalSites() != 1 {
		t.Fatalf("TotalSites() = %d, want 1", index.TotalSites())
	}
	if index.Count("GET /api/ok") != 1 {
		t.Errorf("Count(GET /api/ok) = %d, want 1", index.Count("GET /api/ok"))
	}
}

func TestLoadMapping_MissingFile(t *testing.T) {
	if _, err := LoadMapping(filepath.Join(t.TempDir(), "absent.yaml"), testLogger()); err == nil {
		t.Fatal("LoadMapping() on a missing file should fail")
	}
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		method   string
		path     string
		ok       bool
	}{
		{"GET /api/users/{id}", "GET", "/api/users/{id}", true},
		{"  POST  /api/orders ", "POST", "/api/orders", true},
		{"GET", "", "", false},
		{"GET relative", "", "", false},
		{"", "", "", false},
	}

	for _, tc := range tests {
		method, path, ok := splitEndpoint(tc.endpoint)
		if ok != tc.ok || method != tc.method || path != tc.path {
			t.Errorf("splitEndpoint(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.endpoint, method, path, ok, tc.method, tc.path, tc.ok)
		}
	}
}

func TestIndex_MergeKeepsBothSources(t *testing.T) {
	a := NewIndex()
	a.Add("GET /api/users/{*}", Site{File: "src/a.ts", Line: 1, Confidence: ConfidenceHigh})

	b := NewIndex()
	b.Add("GET /api/users/{*}", Site{File: "src/a.ts", Line: 1, Confidence: ConfidenceMedium})

	a.Merge(b)
	a.Finalize()

	// The same location from both sources is kept twice, each with its own
	// confidence tag.
	sites := a.Sites("GET /api/users/{*}")
	if len(sites) != 2 {
		t.Fatalf("got %d sites, want 2", len(sites))
	}
}
