package callers

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ripple/internal/logging"
	"ripple/internal/spec"
)

// mappingFile is the on-disk shape of a declarative caller mapping:
//
//	mappings:
//	  - endpoint: "GET /api/users/{id}"
//	    callers:
//	      - file: "src/components/UserProfile.tsx"
//	        line: 42
//	        usage: "useQuery hook"
type mappingFile struct {
	Mappings []mappingEntry `yaml:"mappings"`
}

type mappingEntry struct {
	Endpoint string        `yaml:"endpoint"`
	Callers  []callerEntry `yaml:"callers"`
}

type callerEntry struct {
	File  string `yaml:"file"`
	Line  int    `yaml:"line"`
	Usage string `yaml:"usage"`
}

// LoadMapping reads a declarative caller mapping. Entries are consumed
// verbatim at high confidence. Malformed entries are skipped with a
// warning; only an unreadable file is an error.
func LoadMapping(path string, logger *logging.Logger) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file mappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	index := NewIndex()
	for _, entry := range file.Mappings {
		method, templatePath, ok := splitEndpoint(entry.Endpoint)
		if !ok {
			logger.Warn("Skipping malformed mapping entry", map[string]interface{}{
				"endpoint": entry.Endpoint,
			})
			continue
		}
		key := spec.NewEndpointIdentity(method, templatePath).Key()
		for _, c := range entry.Callers {
			if c.File == "" {
				logger.Warn("Skipping mapping caller without file", map[string]interface{}{
					"endpoint": entry.Endpoint,
				})
				continue
			}
			index.Add(key, Site{
				File:       c.File,
				Line:       c.Line,
				Snippet:    c.Usage,
				Confidence: ConfidenceHigh,
			})
		}
	}

	index.Finalize()
	return index, nil
}

// splitEndpoint parses "GET /api/users/{id}" into method and path.
func splitEndpoint(endpoint string) (method, path string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(endpoint), " ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	method = strings.TrimSpace(parts[0])
	path = strings.TrimSpace(parts[1])
	if method == "" || !strings.HasPrefix(path, "/") {
		return "", "", false
	}
	return method, path, true
}
