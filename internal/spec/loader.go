package spec

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"ripple/internal/errors"
)

// LoadDocument reads an OpenAPI description (YAML or JSON) into a parsed
// document tree. Parsing failures are fatal: nothing can be analyzed
// without a document.
func LoadDocument(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, errors.NewRippleError(errors.MalformedSpec,
			fmt.Sprintf("failed to load API description %q", path), err)
	}
	return doc, nil
}
