package artifact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isographlabs/isograph-go/config"
	"github.com/isographlabs/isograph-go/elaborate"
	"github.com/isographlabs/isograph-go/internal/engine"
	"github.com/isographlabs/isograph-go/isoliteral"
	"github.com/isographlabs/isograph-go/mergedselection"
	"github.com/isographlabs/isograph-go/protocol"
	"github.com/isographlabs/isograph-go/protocol/graphqlproto"
	"github.com/isographlabs/isograph-go/schema"
	"github.com/isographlabs/isograph-go/sourceregistry"
)

const testSchemaJSON = `{
  "entities": [
    {"name": "Query", "kind": "object", "fields": [
      {"name": "user", "target": {"type_name": "User", "nullable": true}, "arguments": [
        {"name": "id", "type": {"type_name": "ID"}}
      ]}
    ]},
    {"name": "User", "kind": "object", "fields": [
      {"name": "id", "target": {"type_name": "ID"}},
      {"name": "name", "target": {"type_name": "String", "nullable": true}}
    ]},
    {"name": "ID", "kind": "scalar"},
    {"name": "String", "kind": "scalar"}
  ]
}`

func buildResult(t *testing.T, text string) mergedselection.Result {
	t.Helper()
	e := engine.New()
	reg := sourceregistry.New(e, "/project")
	reg.SetConfig(config.Config{ProjectRoot: ".", Schema: "schema.json", Options: config.Options{OnInvalidIDType: config.OnInvalidIDError}})
	reg.SetFileContent("schema.json", testSchemaJSON)
	s := schema.New(reg, graphqlproto.Protocol{})
	el := elaborate.New(s)

	decl, err := isoliteral.Parse(text)
	require.NoError(t, err)
	tree, diags := el.ElaborateDeclaration(decl)
	require.Empty(t, diags.Items())

	result, mergeDiags := mergedselection.Build(tree, nil)
	require.Empty(t, mergeDiags.Items())
	return result
}

func TestPlanGeneratesQueryText(t *testing.T) {
	result := buildResult(t, `field Query.me($uid: ID!) { user(id: $uid) { id name } }`)
	vars := []protocol.QueryVariable{{Name: "uid", Type: protocol.TypeAnnotation{TypeName: "ID"}}}

	a := Plan(graphqlproto.Protocol{}, protocol.QueryTextOptions{}, "Me", protocol.OperationQuery, vars, "Query", result)

	assert.True(t, strings.HasPrefix(a.QueryText, "query Me($uid: ID!)"))
	assert.Contains(t, a.QueryText, "user(id: $uid)")
	assert.Contains(t, a.QueryText, "id")
	assert.Contains(t, a.QueryText, "name")
}

func TestPlanOmitsUnreferencedVariables(t *testing.T) {
	result := buildResult(t, `field Query.me { user(id: "1") { id } }`)
	vars := []protocol.QueryVariable{{Name: "unused", Type: protocol.TypeAnnotation{TypeName: "ID"}}}

	a := Plan(graphqlproto.Protocol{}, protocol.QueryTextOptions{}, "Me", protocol.OperationQuery, vars, "Query", result)
	assert.NotContains(t, a.QueryText, "$unused")
}

func TestPlanBuildsNormalizationAndReaderTrees(t *testing.T) {
	result := buildResult(t, `field Query.me { user(id: "1") { id name } }`)
	a := Plan(graphqlproto.Protocol{}, protocol.QueryTextOptions{}, "Me", protocol.OperationQuery, nil, "Query", result)

	require.Len(t, a.Normalization, 1)
	assert.Equal(t, "user", a.Normalization[0].FieldName)
	require.Len(t, a.Normalization[0].Children, 2)

	require.Len(t, a.Reader, 1)
	assert.Equal(t, ReaderLinked, a.Reader[0].Kind)
	require.Len(t, a.Reader[0].Children, 2)
	assert.Equal(t, ReaderScalar, a.Reader[0].Children[0].Kind)
}

func TestFromAnnotationRoundTripsScalarListNullable(t *testing.T) {
	nullableList := schema.Union([]schema.TypeAnnotation{schema.Plural(schema.Scalar("User"))}, true)
	tt := FromAnnotation(nullableList)
	require.Equal(t, TypeNullable, tt.Kind)
	require.Equal(t, TypeList, tt.Inner.Kind)
	assert.Equal(t, "User", tt.Inner.Inner.Entity)
}

func TestPlanBuildsLoadableFieldArtifactForLoadablePointer(t *testing.T) {
	e := engine.New()
	reg := sourceregistry.New(e, "/project")
	reg.SetConfig(config.Config{ProjectRoot: ".", Schema: "schema.json", Options: config.Options{OnInvalidIDType: config.OnInvalidIDError}})
	reg.SetFileContent("schema.json", testSchemaJSON)
	reg.SetFileContent("Bestie.ts", "export const Bestie = iso(`pointer User.bestie to User { id }`)(Component);\n")
	reg.SetIsoLiteralFileSet([]string{"Bestie.ts"})
	s := schema.New(reg, graphqlproto.Protocol{})
	el := elaborate.New(s)

	decl, err := isoliteral.Parse(`field Query.me { user(id: "1") { bestie @loadable { id } } }`)
	require.NoError(t, err)
	tree, diags := el.ElaborateDeclaration(decl)
	require.Empty(t, diags.Items())

	result, mergeDiags := mergedselection.Build(tree, nil)
	require.Empty(t, mergeDiags.Items())

	a := Plan(graphqlproto.Protocol{}, protocol.QueryTextOptions{}, "Me", protocol.OperationQuery, nil, "Query", result)

	require.Len(t, a.Loadables, 1)
	assert.Equal(t, "bestie", a.Loadables[0].FieldName)
	require.NotNil(t, a.Loadables[0].Selectable)
	assert.Equal(t, "bestie", a.Loadables[0].Selectable.Name)
	assert.Equal(t, a.Refetches[0].QueryText, a.Loadables[0].Refetch.QueryText)
}

func TestPlanParameterTypesReflectsDeclaredVariables(t *testing.T) {
	result := buildResult(t, `field Query.me($uid: ID!) { user(id: $uid) { id } }`)
	vars := []protocol.QueryVariable{{Name: "uid", Type: protocol.TypeAnnotation{TypeName: "ID"}}}
	a := Plan(graphqlproto.Protocol{}, protocol.QueryTextOptions{}, "Me", protocol.OperationQuery, vars, "Query", result)
	require.Contains(t, a.ParameterTypes.Fields, "uid")
	assert.Equal(t, TypeScalar, a.ParameterTypes.Fields["uid"].Kind)
}
