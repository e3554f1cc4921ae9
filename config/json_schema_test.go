package config

import (
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSchema(t *testing.T) {
	schemaJSON, err := JSONSchema()

	require.NoError(t, err)
	assert.NotNil(t, schemaJSON)
	unmarshalledSchema := &jsonschema.Schema{}
	err = unmarshalledSchema.UnmarshalJSON(schemaJSON)
	assert.NoError(t, err)
	assert.Contains(t, string(schemaJSON), "max_token_limit")
}

func TestJSONSchema_UsesConfigKeys(t *testing.T) {
	schemaJSON, err := JSONSchema()
	require.NoError(t, err)

	schema := &jsonschema.Schema{}
	require.NoError(t, schema.UnmarshalJSON(schemaJSON))

	for _, key := range []string{"llm", "memory", "parser", "cache", "persistence", "vision", "places", "reference", "server"} {
		_, ok := schema.Properties.Get(key)
		assert.True(t, ok, "missing top-level key %q", key)
	}

	for _, key := range []string{"keyword_case_sensitive", "openai_api_key", "max_upload_bytes", "otlp_endpoint"} {
		assert.Contains(t, string(schemaJSON), `"`+key+`"`)
	}
	for _, field := range []string{"MaxTokenLimit", "OpenAIAPIKey", "KeywordCaseSensitive"} {
		assert.NotContains(t, string(schemaJSON), `"`+field+`"`)
	}
}
