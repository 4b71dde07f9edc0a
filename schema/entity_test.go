package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entitySchemaJSON = `{
  "entities": [
    {"name": "User", "kind": "object", "fields": [
      {"name": "id", "target": {"type_name": "ID"}},
      {"name": "name", "target": {"type_name": "String", "nullable": true}}
    ]},
    {"name": "ID", "kind": "scalar"}
  ]
}`

func TestServerObjectEntityNamedResolvesSingleDefinition(t *testing.T) {
	s := newTestSchema(entitySchemaJSON, nil)
	e, rerr := s.ServerObjectEntityNamed("User")
	require.Nil(t, rerr)
	require.NotNil(t, e)
	assert.Equal(t, "User", e.Name)
}

func TestServerObjectEntityNamedNotFoundReturnsNilNil(t *testing.T) {
	s := newTestSchema(entitySchemaJSON, nil)
	e, rerr := s.ServerObjectEntityNamed("Missing")
	assert.Nil(t, rerr)
	assert.Nil(t, e)
}

func TestServerScalarEntityNamedResolvesScalar(t *testing.T) {
	s := newTestSchema(entitySchemaJSON, nil)
	e, rerr := s.ServerScalarEntityNamed("ID")
	require.Nil(t, rerr)
	require.NotNil(t, e)
	assert.Equal(t, "ID", e.Name)
}

func TestServerObjectEntityNamedKindMismatch(t *testing.T) {
	s := newTestSchema(entitySchemaJSON, nil)
	e, rerr := s.ServerObjectEntityNamed("ID")
	assert.Nil(t, e)
	require.NotNil(t, rerr)
	assert.Equal(t, ErrKindMismatch, rerr.Kind)
}

const duplicateEntitySchemaJSON = `{
  "entities": [
    {"name": "User", "kind": "object"},
    {"name": "User", "kind": "object"}
  ]
}`

func TestServerObjectEntityNamedMultipleDefinitions(t *testing.T) {
	s := newTestSchema(duplicateEntitySchemaJSON, nil)
	e, rerr := s.ServerObjectEntityNamed("User")
	assert.Nil(t, e)
	require.NotNil(t, rerr)
	assert.Equal(t, ErrMultipleDefinitions, rerr.Kind)
	assert.NotEmpty(t, rerr.Diagnostic.Secondary)
}
