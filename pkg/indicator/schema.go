package indicator

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBaseURL = "https://medmais.schemas.local/indicator/"

var (
	schemaMu    sync.RWMutex
	schemaCache = make(map[catalog.Kind]*jsonschema.Schema)
)

// schemaFor returns the compiled schema of kind.
func schemaFor(kind catalog.Kind) (*jsonschema.Schema, error) {
	schemaMu.RLock()
	s, ok := schemaCache[kind]
	schemaMu.RUnlock()
	if ok {
		return s, nil
	}

	name := string(kind) + ".schema.json"
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("no schema for %s: %w", kind, err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := schemaBaseURL + name
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("schema load failed for %s: %w", kind, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema compile failed for %s: %w", kind, err)
	}

	schemaMu.Lock()
	schemaCache[kind] = compiled
	schemaMu.Unlock()
	return compiled, nil
}

// Validate checks raw against the JSON Schema of kind.
func Validate(kind catalog.Kind, raw []byte) error {
	schema, err := schemaFor(kind)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %s: malformed JSON: %v", ErrInvalidPayload, kind, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, kind, err)
	}
	return nil
}
