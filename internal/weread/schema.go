package weread

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Response schema names, one per list endpoint.
const (
	schemaNotebooks    = "notebooks"
	schemaBookmarks    = "bookmarks"
	schemaReviews      = "reviews"
	schemaChapterInfos = "chapter_infos"
)

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func loadSchemas() {
	schemas = make(map[string]*jsonschema.Schema)
	for _, name := range []string{schemaNotebooks, schemaBookmarks, schemaReviews, schemaChapterInfos} {
		filename := "schemas/" + name + ".json"
		raw, err := schemaFS.ReadFile(filename)
		if err != nil {
			schemasErr = fmt.Errorf("failed to read schema %s: %w", name, err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name+".json", bytes.NewReader(raw)); err != nil {
			schemasErr = fmt.Errorf("failed to load schema %s: %w", name, err)
			return
		}
		compiled, err := compiler.Compile(name + ".json")
		if err != nil {
			schemasErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
			return
		}
		schemas[name] = compiled
	}
}

// validateResponse checks body against the named response schema.
func validateResponse(name string, body []byte) error {
	schemasOnce.Do(loadSchemas)
	if schemasErr != nil {
		return schemasErr
	}
	schema, ok := schemas[name]
	if !ok {
		return fmt.Errorf("unknown response schema %q", name)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, name, err)
	}
	return nil
}
