package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"engine", "query"},
		Properties: map[string]Property{
			"engine": {Type: "string", MinLength: IntPtr(1), Pattern: "^[a-z0-9_]+$"},
			"query":  {Type: "string", MinLength: IntPtr(1), MaxLength: IntPtr(10)},
			"params": {
				Type: "object",
				Properties: map[string]Property{
					"safesearch": {Type: "integer", Enum: []interface{}{0, 1, 2}},
					"pageno":     {Type: "integer", Minimum: FloatPtr(1)},
				},
			},
		},
		AdditionalProperties: false,
	}
}

func TestValidator_Validate(t *testing.T) {
	v, err := Compile(searchSchema())
	require.NoError(t, err)

	tests := []struct {
		name      string
		doc       map[string]interface{}
		valid     bool
		wantField string
	}{
		{"valid", map[string]interface{}{"engine": "brave", "query": "cats"}, true, ""},
		{"valid with params", map[string]interface{}{"engine": "brave", "query": "cats", "params": map[string]interface{}{"safesearch": 2, "pageno": 3}}, true, ""},
		{"missing query", map[string]interface{}{"engine": "brave"}, false, "query"},
		{"empty engine", map[string]interface{}{"engine": "", "query": "x"}, false, "engine"},
		{"uppercase engine", map[string]interface{}{"engine": "Brave", "query": "x"}, false, "engine"},
		{"query too long", map[string]interface{}{"engine": "brave", "query": "abcdefghijk"}, false, "query"},
		{"extra field", map[string]interface{}{"engine": "brave", "query": "x", "debug": true}, false, "(root)"},
		{"safesearch out of range", map[string]interface{}{"engine": "brave", "query": "x", "params": map[string]interface{}{"safesearch": 5}}, false, "params.safesearch"},
		{"pageno zero", map[string]interface{}{"engine": "brave", "query": "x", "params": map[string]interface{}{"pageno": 0}}, false, "params.pageno"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.doc)
			assert.Equal(t, tt.valid, res.Valid, res.Error())
			if !tt.valid {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, tt.wantField, res.Errors[0].Field)
			}
		})
	}
}

func TestValidator_ValidateJSON(t *testing.T) {
	v, err := Compile(searchSchema())
	require.NoError(t, err)

	assert.True(t, v.ValidateJSON([]byte(`{"engine":"ddg","query":"q"}`)).Valid)

	res := v.ValidateJSON([]byte(`{"engine":`))
	assert.False(t, res.Valid)
	assert.Equal(t, "invalid_json", res.Errors[0].Code)
}

func TestValidateInput(t *testing.T) {
	res := ValidateInput(map[string]interface{}{"query": "x"}, searchSchema())
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error(), "engine")
}

func TestCompileJSON_InvalidSchema(t *testing.T) {
	_, err := CompileJSON([]byte(`{"type": 12}`))
	assert.Error(t, err)
}
