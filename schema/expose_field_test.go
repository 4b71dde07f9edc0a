package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exposeFieldSchemaJSON = `{
  "entities": [
    {"name": "User", "kind": "object", "fields": [
      {"name": "id", "target": {"type_name": "ID"}},
      {"name": "bestFriend", "target": {"type_name": "User", "nullable": true}}
    ]},
    {"name": "ID", "kind": "scalar"}
  ]
}`

func TestApplyExposeFieldInstallsReversePointer(t *testing.T) {
	iso := map[string]string{
		"Component.ts": "export const Foo = iso(`pointer User.bestie to User @exposeField { id }`)(Component);\n",
	}
	s := newTestSchema(exposeFieldSchemaJSON, iso)
	reverse, diags := s.ApplyExposeField()
	assert.Empty(t, diags.Items())
	sel, ok := reverse["User.asUser"]
	require.True(t, ok)
	assert.Equal(t, ShapeObject, sel.Shape)
	assert.True(t, sel.IsInlineFragment)
	assert.Equal(t, "User", sel.TargetAnnotation.InnerEntity())
}

func TestApplyExposeFieldWithoutDirectiveInstallsNothing(t *testing.T) {
	iso := map[string]string{
		"Component.ts": "export const Foo = iso(`pointer User.bestie to User { id }`)(Component);\n",
	}
	s := newTestSchema(exposeFieldSchemaJSON, iso)
	reverse, diags := s.ApplyExposeField()
	assert.Empty(t, diags.Items())
	assert.Empty(t, reverse)
}

func TestSelectablesForEntityShadowRequiresExposeField(t *testing.T) {
	iso := map[string]string{
		"Component.ts": "export const Foo = iso(`field User.id { id }`)(Component);\n",
	}
	s := newTestSchema(exposeFieldSchemaJSON, iso)
	_, diags := s.SelectablesForEntity("User")
	require.NotEmpty(t, diags.Items())
}

func TestSelectablesForEntityShadowAllowedWithExposeField(t *testing.T) {
	iso := map[string]string{
		"Component.ts": "export const Foo = iso(`field User.id @exposeField { id }`)(Component);\n",
	}
	s := newTestSchema(exposeFieldSchemaJSON, iso)
	sels, diags := s.SelectablesForEntity("User")
	assert.Empty(t, diags.Items())
	sel, ok := sels["id"]
	require.True(t, ok)
	assert.Equal(t, KindClientSelectable, sel.Kind)
}

func TestSelectablesForEntityIncludesReversePointer(t *testing.T) {
	iso := map[string]string{
		"Component.ts": "export const Foo = iso(`pointer User.bestie to User @exposeField { id }`)(Component);\n",
	}
	s := newTestSchema(exposeFieldSchemaJSON, iso)
	sels, diags := s.SelectablesForEntity("User")
	assert.Empty(t, diags.Items())
	_, ok := sels["asUser"]
	assert.True(t, ok)
}
