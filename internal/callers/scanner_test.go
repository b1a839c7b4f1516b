package callers

import (
	"context"
	"reflect"
	"testing"

	"ripple/internal/config"
	"ripple/internal/spec"
)

func scanConfig() config.ScanConfig {
	return config.ScanConfig{
		IncludeExts: []string{".ts", ".tsx", ".py"},
		ExcludeDirs: []string{"node_modules"},
		Concurrency: 4,
	}
}

func identities(endpoints ...string) []spec.EndpointIdentity {
	out := make([]spec.EndpointIdentity, 0, len(endpoints))
	for _, e := range endpoints {
		method, path, _ := splitEndpoint(e)
		out = append(out, spec.NewEndpointIdentity(method, path))
	}
	return out
}

func TestScanner_SegmentAnchoring(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/client.ts", `
const user = await fetch("/api/users/" + id);
const profile = await fetch(`+"`"+`/api/users/${id}`+"`"+`);
const orders = await fetch(`+"`"+`/api/users/${id}/orders`+"`"+`);
`)

	index, err := NewScanner(scanConfig(), testLogger()).Scan(context.Background(), dir,
		identities("GET /api/users/{id}", "GET /api/users/{id}/orders"))
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}

	// The template-literal reference matches only its own endpoint; the
	// longer path must not satisfy the shorter template.
	userSites := index.Sites("GET /api/users/{*}")
	if len(userSites) != 1 {
		t.Fatalf("got %d sites for GET /api/users/{*}, want 1: %+v", len(userSites), userSites)
	}
	if userSites[0].Line != 3 {
		t.Errorf("user site line = %d, want 3", userSites[0].Line)
	}

	orderSites := index.Sites("GET /api/users/{*}/orders")
	if len(orderSites) != 1 {
		t.Fatalf("got %d sites for GET /api/users/{*}/orders, want 1: %+v", len(orderSites), orderSites)
	}
	if orderSites[0].Line != 4 {
		t.Errorf("order site line = %d, want 4", orderSites[0].Line)
	}

	for _, site := range append(userSites, orderSites...) {
		if site.Confidence != ConfidenceMedium {
			t.Errorf("scan hits must be medium confidence, got %s", site.Confidence)
		}
	}
}

func TestScanner_SharedTemplateRecordsEveryMethod(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/client.ts", `axios.request("/api/items/42")`)

	// A path literal cannot disambiguate GET from DELETE; both candidates
	// get the site.
	index, err := NewScanner(scanConfig(), testLogger()).Scan(context.Background(), dir,
		identities("GET /api/items/{id}", "DELETE /api/items/{id}"))
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}

	if index.Count("GET /api/items/{*}") != 1 {
		t.Errorf("GET count = %d, want 1", index.Count("GET /api/items/{*}"))
	}
	if index.Count("DELETE /api/items/{*}") != 1 {
		t.Errorf("DELETE count = %d, want 1", index.Count("DELETE /api/items/{*}"))
	}
}

func TestScanner_FileFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/hit.py", `requests.get("/api/ping")`)
	writeFile(t, dir, "src/skipped.md", `documentation mentions /api/ping here`)
	writeFile(t, dir, "node_modules/dep/index.ts", `fetch("/api/ping")`)

	index, err := NewScanner(scanConfig(), testLogger()).Scan(context.Background(), dir,
		identities("GET /api/ping"))
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}

	sites := index.Sites("GET /api/ping")
	if len(sites) != 1 {
		t.Fatalf("got %d sites, want 1 (markdown and node_modules excluded): %+v", len(sites), sites)
	}
}

func TestScanner_Deterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/a.ts", `fetch("/api/users/1")`)
	writeFile(t, dir, "src/b.ts", `fetch("/api/users/2")`)
	writeFile(t, dir, "src/c.ts", `fetch("/api/users/3")`)
	writeFile(t, dir, "src/d.ts", `fetch("/api/users/4")`)

	ids := identities("GET /api/users/{id}")
	scanner := NewScanner(config.ScanConfig{
		IncludeExts: []string{".ts"},
		Concurrency: 3,
	}, testLogger())

	first, err := scanner.Scan(context.Background(), dir, ids)
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := scanner.Scan(context.Background(), dir, ids)
		if err != nil {
			t.Fatalf("Scan() failed on run %d: %v", i, err)
		}
		if !reflect.DeepEqual(first.Sites("GET /api/users/{*}"), again.Sites("GET /api/users/{*}")) {
			t.Fatalf("run %d produced a different site list", i)
		}
	}
}

func TestScanner_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/a.ts", `fetch("/api/users/1")`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner(scanConfig(), testLogger()).Scan(ctx, dir, identities("GET /api/users/{id}"))
	if err == nil {
		t.Fatal("Scan() with a cancelled context should fail")
	}
}

func TestCompileTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		line     string
		match    bool
	}{
		{"literal path", "/api/health", `fetch("/api/health")`, true},
		{"parameter filled", "/api/users/{id}", `get("/api/users/123")`, true},
		{"template literal", "/api/users/{id}", "url = `/api/users/${userId}`", true},
		{"longer path rejected", "/api/users/{id}", `get("/api/users/123/orders")`, false},
		{"prefix rejected", "/api/users", `get("/api/users-admin")`, false},
		{"substring rejected", "/api/health", `get("/v2/api/healthcheck")`, false},
		{"python f-string", "/api/users/{id}", `requests.get(f"/api/users/{uid}")`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			re, err := compileTemplate(tc.template)
			if err != nil {
				t.Fatalf("compileTemplate(%q) failed: %v", tc.template, err)
			}
			if got := re.MatchString(tc.line); got != tc.match {
				t.Errorf("template %q against %q = %v, want %v", tc.template, tc.line, got, tc.match)
			}
		})
	}
}
