package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"project_root": "src", "schema": "schema.graphql"}`))
	require.NoError(t, err)
	assert.Equal(t, "src", cfg.ArtifactDirectory, "artifact_directory defaults to project_root")
	assert.Equal(t, OnInvalidIDError, cfg.Options.OnInvalidIDType)
	assert.False(t, cfg.Options.IncludeFileExtensionsInImportStatements)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`{"project_root": "src", "schema": "s.graphql", "bogus": true}`))
	assert.Error(t, err)
}

func TestParseRejectsMissingRequiredFields(t *testing.T) {
	_, err := Parse([]byte(`{"schema": "s.graphql"}`))
	assert.Error(t, err)
}

func TestParseRejectsInvalidOnInvalidIDType(t *testing.T) {
	_, err := Parse([]byte(`{"project_root": "src", "schema": "s.graphql", "options": {"on_invalid_id_type": "nope"}}`))
	assert.Error(t, err)
}

func TestConfigEqual(t *testing.T) {
	a, err := Parse([]byte(`{"project_root": "src", "schema": "s.graphql", "schema_extensions": ["a.graphql"]}`))
	require.NoError(t, err)
	b, err := Parse([]byte(`{"project_root": "src", "schema": "s.graphql", "schema_extensions": ["a.graphql"]}`))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	c, err := Parse([]byte(`{"project_root": "other", "schema": "s.graphql"}`))
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}
