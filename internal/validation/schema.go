package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spboyer/lesioneval/schemas"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// configSchema is the compiled JSON Schema for .lesioneval.yaml files.
var configSchema *jsonschema.Schema

func init() {
	configSchema = mustCompileSchema(schemas.ConfigSchemaJSON, "config.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateConfigFile validates a config file at the given path against the
// JSON schema and the cross-field rules the schema cannot express.
func ValidateConfigFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ValidateConfigBytes(data), nil
}

// ValidateConfigBytes validates raw YAML bytes against the config schema.
// An empty document is valid.
func ValidateConfigBytes(data []byte) []string {
	var yamlDoc any
	if err := yaml.Unmarshal(data, &yamlDoc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}
	if yamlDoc == nil {
		return nil
	}

	errs := validateAgainstSchema(configSchema, convertToJSONCompatible(yamlDoc))
	if len(errs) > 0 {
		return errs
	}
	return crossFieldErrors(yamlDoc)
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// crossFieldErrors checks rules spanning several keys: square cost
// weights, unique estimator names and Monte-Carlo references.
func crossFieldErrors(doc any) []string {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	var errs []string

	if cost, ok := root["cost"].(map[string]any); ok {
		if weights, ok := cost["weights"].([]any); ok {
			for i, row := range weights {
				if r, ok := row.([]any); ok && len(r) != len(weights) {
					errs = append(errs, fmt.Sprintf("/cost/weights/%d: row has %d entries, matrix has %d rows", i, len(r), len(weights)))
				}
			}
		}
	}

	names := map[string]bool{}
	if estimators, ok := root["estimators"].([]any); ok {
		for i, e := range estimators {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			name, _ := m["name"].(string)
			if names[name] {
				errs = append(errs, fmt.Sprintf("/estimators/%d/name: duplicate estimator %q", i, name))
			}
			names[name] = true
		}
	}

	if mc, ok := root["montecarlo"].(map[string]any); ok {
		for _, key := range []string{"estimator", "baseline"} {
			ref, _ := mc[key].(string)
			if ref != "" && !names[ref] {
				errs = append(errs, fmt.Sprintf("/montecarlo/%s: unknown estimator %q", key, ref))
			}
		}
	}
	return errs
}

// convertToJSONCompatible converts YAML-decoded values to JSON-compatible types.
// yaml.v3 decodes to map[string]any which is fine, but integers need to stay as-is.
func convertToJSONCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = convertToJSONCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = convertToJSONCompatible(v2)
		}
		return result
	default:
		return val
	}
}
