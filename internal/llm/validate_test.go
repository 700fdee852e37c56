package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-question",
		Description: "A quiz question",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"age":   map[string]any{"type": "integer", "minimum": 0},
				"grade": map[string]any{"type": "string", "enum": []any{"JK", "SK", "1"}},
			},
			"required": []any{"name", "age"},
		},
	}
}

func TestValidateResponse_ValidJSON(t *testing.T) {
	raw := json.RawMessage(`{"name":"Alice","age":10,"grade":"SK"}`)
	assert.NoError(t, validateResponse(testSchema(), raw))
}

func TestValidateResponse_ValidWithoutOptional(t *testing.T) {
	raw := json.RawMessage(`{"name":"Bob","age":8}`)
	assert.NoError(t, validateResponse(testSchema(), raw))
}

func TestValidateResponse_MissingRequired(t *testing.T) {
	raw := json.RawMessage(`{"name":"Charlie"}`)
	var invErr *ErrInvalidResponse
	assert.ErrorAs(t, validateResponse(testSchema(), raw), &invErr)
}

func TestValidateResponse_WrongType(t *testing.T) {
	raw := json.RawMessage(`{"name":"Dave","age":"ten"}`)
	var invErr *ErrInvalidResponse
	assert.ErrorAs(t, validateResponse(testSchema(), raw), &invErr)
}

func TestValidateResponse_InvalidEnum(t *testing.T) {
	raw := json.RawMessage(`{"name":"Eve","age":9,"grade":"9"}`)
	var invErr *ErrInvalidResponse
	assert.ErrorAs(t, validateResponse(testSchema(), raw), &invErr)
}

func TestValidateResponse_MalformedJSON(t *testing.T) {
	raw := json.RawMessage(`{not json}`)
	var invErr *ErrInvalidResponse
	assert.ErrorAs(t, validateResponse(testSchema(), raw), &invErr)
}

func TestValidateResponse_EmptyResponse(t *testing.T) {
	raw := json.RawMessage(``)
	assert.Error(t, validateResponse(testSchema(), raw))
}

func TestValidateResponse_NilSchema(t *testing.T) {
	raw := json.RawMessage(`{"anything":"goes"}`)
	assert.NoError(t, validateResponse(nil, raw))
}

func TestValidateResponse_NestedObjects(t *testing.T) {
	schema := &Schema{
		Name:        "test-nested",
		Description: "Nested test",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"student": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
					},
					"required": []any{"name"},
				},
				"scores": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "integer"},
				},
			},
			"required": []any{"student", "scores"},
		},
	}

	valid := json.RawMessage(`{"student":{"name":"Alice"},"scores":[90,85,92]}`)
	require.NoError(t, validateResponse(schema, valid))

	invalid := json.RawMessage(`{"student":{"name":"Alice"},"scores":["not","ints"]}`)
	assert.Error(t, validateResponse(schema, invalid))
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```JSON{\"a\":1}```", "{\"a\":1}"},
		{"  ```\n[\"cat\"]\n```  ", "[\"cat\"]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(stripFences(json.RawMessage(tt.in))))
	}
}
