package x402

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// requirementsSchema guards the invariant that amount, payTo and asset are
// non-empty before a signature may be requested. Validation runs against the
// canonical structure, after normalization and defaulting.
const requirementsSchema = `{
	"type": "object",
	"required": ["scheme", "network", "maxAmountRequired", "payTo", "asset"],
	"properties": {
		"scheme":            {"type": "string", "minLength": 1},
		"network":           {"type": "string", "minLength": 1},
		"maxAmountRequired": {"type": "string", "pattern": "^[0-9]+$"},
		"payTo":             {"type": "string", "minLength": 1},
		"asset":             {"type": "string", "minLength": 1},
		"maxTimeoutSeconds": {"type": "integer", "minimum": 1}
	}
}`

var requirementsSchemaLoader = gojsonschema.NewStringLoader(requirementsSchema)

// ValidateRequirements checks canonical requirements against the schema.
// Returns a descriptive error listing every violated constraint.
func ValidateRequirements(req *PaymentRequirements) error {
	doc, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal requirements: %w", err)
	}

	result, err := gojsonschema.Validate(requirementsSchemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validate requirements: %w", err)
	}

	if !result.Valid() {
		descs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			descs = append(descs, e.String())
		}
		return fmt.Errorf("incomplete payment requirements: %s", strings.Join(descs, "; "))
	}
	return nil
}
