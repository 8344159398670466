package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema is a first, structural line of defense before the
// hand-written semantic walk in load.go runs: a two-phase
// "validate shape, then validate meaning" split.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "metadata": {
      "type": "object",
      "properties": {
        "title": {"type": "string"},
        "aead": {"type": "string"},
        "seed": {"type": "integer"},
        "remote_url": {"type": "string"},
        "remote_password": {"type": "string"},
        "is_local": {"type": "boolean"}
      }
    },
    "rules": {
      "type": "array",
      "items": {"type": "object"}
    }
  },
  "required": ["rules"]
}`

var compiledSchema *jsonschema.Schema

func init() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("zeka-config.json", strings.NewReader(documentSchema)); err != nil {
		panic(fmt.Sprintf("config: embedded schema is invalid: %v", err))
	}
	s, err := c.Compile("zeka-config.json")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema failed to compile: %v", err))
	}
	compiledSchema = s
}

// validateShape checks raw (as decoded by yaml.v3 into interface{}) against
// the structural schema. Numbers must be normalized to float64 first
// (json.Marshal + json.Unmarshal round-trip) since jsonschema validates
// against encoding/json's native number representation.
func validateShape(raw interface{}) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("config: document is not JSON-representable: %w", err)
	}
	var normalized interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&normalized); err != nil {
		return fmt.Errorf("config: failed to normalize document: %w", err)
	}
	return compiledSchema.Validate(normalized)
}
