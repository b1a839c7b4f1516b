// Package callers maps endpoint identities to the places in a consuming
// source tree that use them, from a declarative mapping file, a heuristic
// source scan, or both.
package callers

import (
	"encoding/json"
	"sort"
)

// Confidence is the qualitative trust level of a caller site.
type Confidence string

const (
	// ConfidenceHigh marks sites from the declarative mapping, which is
	// treated as authoritative.
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium marks heuristic scan hits, where false positives
	// and negatives are possible.
	ConfidenceMedium Confidence = "medium"
)

// Site is one location in consumer code that references an endpoint.
type Site struct {
	File       string     `json:"file"`
	Line       int        `json:"line,omitempty"`
	Snippet    string     `json:"snippet,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// Index maps endpoint identity keys to their caller sites. Sites within an
// identity are kept sorted by (file, line) so repeated runs over the same
// inputs produce byte-identical output.
type Index struct {
	sites map[string][]Site
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{sites: make(map[string][]Site)}
}

// Add records a site for an identity key.
func (ix *Index) Add(key string, site Site) {
	ix.sites[key] = append(ix.sites[key], site)
}

// Merge unions another index into this one. Sites are not deduplicated
// across sources: the report deliberately shows a declarative entry and a
// heuristic hit for the same location side by side, each with its own
// confidence tag.
func (ix *Index) Merge(other *Index) {
	if other == nil {
		return
	}
	for key, sites := range other.sites {
		ix.sites[key] = append(ix.sites[key], sites...)
	}
}

// Finalize sorts every identity's sites by (file, line). Call once after
// all sources have been merged.
func (ix *Index) Finalize() {
	for _, sites := range ix.sites {
		sort.SliceStable(sites, func(i, j int) bool {
			if sites[i].File != sites[j].File {
				return sites[i].File < sites[j].File
			}
			return sites[i].Line < sites[j].Line
		})
	}
}

// Sites returns the sites recorded for an identity key.
func (ix *Index) Sites(key string) []Site {
	return ix.sites[key]
}

// Count returns the number of sites for an identity key.
func (ix *Index) Count(key string) int {
	return len(ix.sites[key])
}

// Keys returns the identity keys with at least one site, sorted.
func (ix *Index) Keys() []string {
	keys := make([]string, 0, len(ix.sites))
	for key := range ix.sites {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// TotalSites returns the number of sites across all identities.
func (ix *Index) TotalSites() int {
	total := 0
	for _, sites := range ix.sites {
		total += len(sites)
	}
	return total
}

// MarshalJSON renders the index as an identity-keyed object. encoding/json
// sorts map keys, which keeps the output deterministic.
func (ix *Index) MarshalJSON() ([]byte, error) {
	return json.Marshal(ix.sites)
}
