package data

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

var (
	//go:embed schema/catalog.schema.json
	catalogSchemaSrc string
	//go:embed schema/effects.schema.json
	effectsSchemaSrc string

	catalogSchema = jsonschema.MustCompileString("catalog.schema.json", catalogSchemaSrc)
	effectsSchema = jsonschema.MustCompileString("effects.schema.json", effectsSchemaSrc)
)

// validateYAML checks a YAML document against a JSON schema by converting it
// to its JSON value first.
func validateYAML(s *jsonschema.Schema, raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	var v any
	if err := json.Unmarshal(js, &v); err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
