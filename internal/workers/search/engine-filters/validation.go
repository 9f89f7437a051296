// internal/workers/search/engine-filters/validation.go
package enginefilters

import "fourget-bridge/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"engine"},
		Properties: map[string]validation.Property{
			"engine": {
				Type:        "string",
				Description: "4get engine name",
				Pattern:     "^[A-Za-z0-9_]+$",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(50),
			},
			"refresh": {
				Type:        "boolean",
				Description: "Bypass the filters cache",
				Default:     false,
			},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"engine", "filters", "defaults"},
		Properties: map[string]validation.Property{
			"engine":   {Type: "string"},
			"filters":  {Type: "object"},
			"defaults": {Type: "object", AdditionalProperties: &validation.Property{Type: "string"}},
		},
		AdditionalProperties: false,
	}
}
