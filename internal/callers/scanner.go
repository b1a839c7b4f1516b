package callers

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"ripple/internal/config"
	"ripple/internal/logging"
	"ripple/internal/spec"
)

// Scanner walks a source tree and finds likely call sites for a set of
// endpoints by matching path templates against source text. Hits carry
// medium confidence: a matched literal may belong to a different endpoint
// when paths share structure, so the matcher anchors on full path-segment
// equality after wildcard substitution, never substring containment.
type Scanner struct {
	cfg    config.ScanConfig
	logger *logging.Logger
}

// NewScanner creates a scanner with the given scan configuration.
func NewScanner(cfg config.ScanConfig, logger *logging.Logger) *Scanner {
	return &Scanner{cfg: cfg, logger: logger}
}

// pathMatcher matches one normalized path template. Several identities can
// share a template (same path, different methods); a hit is ambiguous among
// them and is recorded for every candidate rather than dropped.
type pathMatcher struct {
	keys    []string // identity keys sharing this template, sorted
	pattern *regexp.Regexp
}

// Scan finds caller sites for the given identities under root. Files are
// scanned concurrently; results are merged and then sorted, so the output
// is independent of arrival order.
func (s *Scanner) Scan(ctx context.Context, root string, identities []spec.EndpointIdentity) (*Index, error) {
	matchers := buildMatchers(identities)
	if len(matchers) == 0 {
		return NewIndex(), nil
	}

	files, err := s.findFiles(root)
	if err != nil {
		return nil, err
	}

	workers := s.cfg.Concurrency
	if workers <= 0 {
		workers = 8
	}
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}

	index := NewIndex()
	var mu sync.Mutex
	ambiguous := 0

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				hits, amb := s.scanFile(file, matchers)
				if len(hits) == 0 {
					continue
				}
				mu.Lock()
				for key, sites := range hits {
					for _, site := range sites {
						index.Add(key, site)
					}
				}
				ambiguous += amb
				mu.Unlock()
			}
		}()
	}

feed:
	for _, file := range files {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- file:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index.Finalize()

	s.logger.Debug("Source scan completed", map[string]interface{}{
		"files":     len(files),
		"sites":     index.TotalSites(),
		"ambiguous": ambiguous,
	})

	return index, nil
}

// buildMatchers compiles one matcher per distinct normalized path template.
func buildMatchers(identities []spec.EndpointIdentity) []pathMatcher {
	byTemplate := make(map[string][]string)
	templates := make(map[string]string) // normalized -> original
	for _, id := range identities {
		norm := spec.NormalizePath(id.Path)
		byTemplate[norm] = append(byTemplate[norm], id.Key())
		if _, ok := templates[norm]; !ok {
			templates[norm] = id.Path
		}
	}

	norms := make([]string, 0, len(byTemplate))
	for norm := range byTemplate {
		norms = append(norms, norm)
	}
	sort.Strings(norms)

	matchers := make([]pathMatcher, 0, len(norms))
	for _, norm := range norms {
		pattern, err := compileTemplate(templates[norm])
		if err != nil {
			continue
		}
		keys := byTemplate[norm]
		sort.Strings(keys)
		matchers = append(matchers, pathMatcher{keys: keys, pattern: pattern})
	}
	return matchers
}

// compileTemplate turns a path template into a segment-anchored regex:
// each {param} segment becomes a single-segment wildcard, and the match
// must end at a segment boundary so /users/{id} never matches a reference
// to /users/{id}/orders.
func compileTemplate(template string) (*regexp.Regexp, error) {
	segments := strings.Split(template, "/")

	var b strings.Builder
	b.WriteString(`(?:^|[^0-9A-Za-z_/])`)
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("/")
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") && len(seg) > 2 {
			b.WriteString(`[^/\s"'` + "`" + `?#&]+`)
		} else {
			b.WriteString(regexp.QuoteMeta(seg))
		}
	}
	b.WriteString(`(?:[^0-9A-Za-z_/-]|$)`)

	return regexp.Compile(b.String())
}

// scanFile scans one file against every matcher. The returned map is keyed
// by identity key; ambiguous is the number of lines that matched more than
// one path template.
func (s *Scanner) scanFile(path string, matchers []pathMatcher) (map[string][]Site, int) {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Debug("Failed to open file for scan", map[string]interface{}{
			"file": path, "error": err.Error(),
		})
		return nil, 0
	}
	defer f.Close()

	var hits map[string][]Site
	ambiguous := 0

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if len(line) > 1000 {
			// Likely minified or generated.
			continue
		}

		matched := 0
		for _, m := range matchers {
			if !m.pattern.MatchString(line) {
				continue
			}
			matched++
			if hits == nil {
				hits = make(map[string][]Site)
			}
			for _, key := range m.keys {
				hits[key] = append(hits[key], Site{
					File:       path,
					Line:       lineNum,
					Snippet:    snippet(line),
					Confidence: ConfidenceMedium,
				})
			}
		}
		if matched > 1 {
			ambiguous++
		}
	}

	return hits, ambiguous
}

// snippet trims and caps a matched line for reporting.
func snippet(line string) string {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) > 120 {
		return trimmed[:120]
	}
	return trimmed
}

// findFiles returns the files to scan under root, filtered by extension,
// excluded directory, and size. The list is sorted for a stable job order.
func (s *Scanner) findFiles(root string) ([]string, error) {
	include := make(map[string]bool, len(s.cfg.IncludeExts))
	for _, ext := range s.cfg.IncludeExts {
		include[ext] = true
	}
	exclude := make(map[string]bool, len(s.cfg.ExcludeDirs))
	for _, dir := range s.cfg.ExcludeDirs {
		exclude[dir] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible
		}
		if d.IsDir() {
			if exclude[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if len(include) > 0 && !include[filepath.Ext(path)] {
			return nil
		}
		if s.cfg.MaxFileSizeBytes > 0 {
			if info, err := d.Info(); err != nil || info.Size() > s.cfg.MaxFileSizeBytes {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
