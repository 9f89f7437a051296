// internal/workers/search/sidecar-health/validation.go
package sidecarhealth

import "fourget-bridge/internal/common/validation"

// GetInputSchema accepts any process variables; the check takes no input.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:                 "object",
		Properties:           map[string]validation.Property{},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"status", "healthy", "checks", "engineCount", "checkedAt"},
		Properties: map[string]validation.Property{
			"status":      {Type: "string", Enum: []interface{}{"ok", "degraded", "error"}},
			"healthy":     {Type: "boolean"},
			"checks":      {Type: "object", AdditionalProperties: &validation.Property{Type: "string"}},
			"engineCount": {Type: "integer", Minimum: validation.FloatPtr(0)},
			"checkedAt":   {Type: "string"},
		},
		AdditionalProperties: false,
	}
}
