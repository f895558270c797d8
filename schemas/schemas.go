// Package schemas embeds the JSON Schemas used to validate configuration
// files.
package schemas

import _ "embed"

// ConfigSchemaJSON is the schema for .lesioneval.yaml.
//
//go:embed config.schema.json
var ConfigSchemaJSON string
