// internal/workers/search/fourget-search/validation.go
package fourgetsearch

import "fourget-bridge/internal/common/validation"

// GetInputSchema describes the job variables this worker reads. Other
// process variables are allowed through.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"engine", "query"},
		Properties: map[string]validation.Property{
			"requestId": {
				Type:        "string",
				Description: "Correlation id; generated when absent",
				MaxLength:   validation.IntPtr(100),
			},
			"engine": {
				Type:        "string",
				Description: "4get engine name",
				Pattern:     "^[A-Za-z0-9_]+$",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(50),
			},
			"query": {
				Type:        "string",
				Description: "Search terms",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(2048),
			},
			"params": {
				Type:        "object",
				Description: "Generic and engine-specific search parameters",
				Properties: map[string]validation.Property{
					"safesearch": {Type: "integer", Enum: []interface{}{0, 1, 2}},
					"language":   {Type: "string", MaxLength: validation.IntPtr(20)},
					"time_range": {Type: "string", Enum: []interface{}{"", "day", "week", "month", "year"}},
					"pageno":     {Type: "integer", Minimum: validation.FloatPtr(1)},
				},
			},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"requestId", "engine", "results", "stats"},
		Properties: map[string]validation.Property{
			"requestId": {Type: "string"},
			"engine":    {Type: "string"},
			"results": {
				Type: "array",
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"type", "result"},
					Properties: map[string]validation.Property{
						"type": {
							Type: "string",
							Enum: []interface{}{"suggestion", "answer", "web", "image", "video", "news"},
						},
						"result": {Type: "object"},
					},
				},
			},
			"stats": {Type: "object"},
		},
		AdditionalProperties: false,
	}
}
