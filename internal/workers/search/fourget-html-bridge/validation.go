// internal/workers/search/fourget-html-bridge/validation.go
package fourgethtmlbridge

import "fourget-bridge/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"scraper", "query"},
		Properties: map[string]validation.Property{
			"requestId": {Type: "string", MaxLength: validation.IntPtr(100)},
			"scraper": {
				Type:        "string",
				Description: "4get scraper that parses the fetched page",
				Pattern:     "^[A-Za-z0-9_]+$",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(50),
			},
			"query": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(2048),
			},
			"locale": {
				Type:        "string",
				Description: "Locale tag such as en-US",
				Pattern:     "^[A-Za-z]{2,3}(-[A-Za-z0-9]{2,4})*$",
			},
			"safesearch": {Type: "integer", Enum: []interface{}{0, 1, 2}},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"requestId", "engine", "targetUrl", "results", "stats"},
		Properties: map[string]validation.Property{
			"requestId": {Type: "string"},
			"engine":    {Type: "string"},
			"targetUrl": {Type: "string"},
			"results":   {Type: "array", Items: &validation.Property{Type: "object"}},
			"stats":     {Type: "object"},
		},
		AdditionalProperties: false,
	}
}
