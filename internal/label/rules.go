package label

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ruleFileSchema constrains operator-supplied courier rule files. Validated
// before compilation so a bad file fails the run upfront, not mid-scan.
func ruleFileSchema() map[string]any {
	return map[string]any{
		"type":     "array",
		"minItems": 1,
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"pattern": map[string]any{"type": "string", "minLength": 1},
				"courier": map[string]any{"type": "string", "minLength": 1},
			},
			"required": []string{"pattern", "courier"},
		},
	}
}

type ruleSpec struct {
	Pattern string `json:"pattern"`
	Courier string `json:"courier"`
}

// LoadRules reads custom courier rules from a JSON file. Patterns are matched
// case-insensitively, like the built-in table.
func LoadRules(path string) ([]CourierRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules validates rule JSON against the rule schema and compiles it.
func ParseRules(data []byte) ([]CourierRule, error) {
	if err := validateAgainstSchema(ruleFileSchema(), data); err != nil {
		return nil, err
	}

	var specs []ruleSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}

	rules := make([]CourierRule, 0, len(specs))
	for _, s := range specs {
		re, err := regexp.Compile("(?i)" + s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule pattern %q: %w", s.Pattern, err)
		}
		rules = append(rules, CourierRule{Pattern: re, Courier: s.Courier})
	}
	return rules, nil
}

// validateAgainstSchema validates "data" against "schemaMap".
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rules.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("rules.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("rules do not match schema: %w", err)
	}
	return nil
}
