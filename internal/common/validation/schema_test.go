package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"message"},
	"properties": map[string]interface{}{
		"message": map[string]interface{}{"type": "string", "minLength": 1},
		"count":   map[string]interface{}{"type": "integer", "minimum": 0},
	},
}

func TestSchema_Validate(t *testing.T) {
	s, err := Compile(testSchema)
	require.NoError(t, err)

	tests := []struct {
		name      string
		doc       map[string]interface{}
		wantValid bool
		wantField string
	}{
		{name: "valid", doc: map[string]interface{}{"message": "rice"}, wantValid: true},
		{name: "missing required", doc: map[string]interface{}{}, wantField: "(root)"},
		{name: "empty string", doc: map[string]interface{}{"message": ""}, wantField: "message"},
		{name: "negative count", doc: map[string]interface{}{"message": "x", "count": -1}, wantField: "count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Validate(tt.doc)
			assert.Equal(t, tt.wantValid, result.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, result.Errors)
				assert.Equal(t, tt.wantField, result.Errors[0].Field)
				assert.NotEmpty(t, result.Error())
			}
		})
	}
}

func TestSchema_ValidateJSON(t *testing.T) {
	s := MustCompile(testSchema)

	assert.True(t, s.ValidateJSON([]byte(`{"message":"dal"}`)).Valid)

	malformed := s.ValidateJSON([]byte(`{"message":`))
	assert.False(t, malformed.Valid)
	assert.Equal(t, "MALFORMED_JSON", malformed.Errors[0].Code)

	wrongType := s.ValidateJSON([]byte(`{"message":42}`))
	assert.False(t, wrongType.Valid)
	assert.Equal(t, "message", wrongType.Errors[0].Field)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(map[string]interface{}{"type": 12})
	assert.Error(t, err)
}
