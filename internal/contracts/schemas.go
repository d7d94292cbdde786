package contracts

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	FilterGroupV1   = "FilterGroup/1.0.0"
	SavedSearchesV1 = "SavedSearches/1.0.0"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

var schemaPaths = map[string]string{
	FilterGroupV1:   "schemas/filter-group.v1.json",
	SavedSearchesV1: "schemas/saved-searches.v1.json",
}

var compiledSchemas = mustCompile()

func mustCompile() map[string]*jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	out := make(map[string]*jsonschema.Schema, len(schemaPaths))
	for key, path := range schemaPaths {
		data, err := schemaFiles.ReadFile(path)
		if err != nil {
			panic(fmt.Sprintf("failed to read schema %s: %v", path, err))
		}
		if err := compiler.AddResource(path, bytes.NewReader(data)); err != nil {
			panic(fmt.Sprintf("failed to add schema %s: %v", path, err))
		}
		schema, err := compiler.Compile(path)
		if err != nil {
			panic(fmt.Sprintf("failed to compile schema %s: %v", path, err))
		}
		out[key] = schema
	}
	return out
}

// Validate проверяет JSON-документ по схеме контракта
func Validate(contract string, body []byte) error {
	schema, ok := compiledSchemas[contract]
	if !ok {
		return fmt.Errorf("schema for contract '%s' not found", contract)
	}

	// распарсить JSON в универсальный тип interface{}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("document is not a valid JSON: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}
	return nil
}
