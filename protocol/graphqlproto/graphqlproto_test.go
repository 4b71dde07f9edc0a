package graphqlproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isographlabs/isograph-go/protocol"
)

func TestParseTypeSystemDocuments(t *testing.T) {
	schema := `{"Entities":[{"name":"User","kind":"object","fields":[{"name":"id","target":{"type_name":"ID"}}]}]}`
	doc, diags := Protocol{}.ParseTypeSystemDocuments(schema, nil)
	require.Empty(t, diags.Items())
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "User", doc.Entities[0].Name)
	assert.Equal(t, protocol.KindObject, doc.Entities[0].Kind)
}

func TestParseTypeSystemDocumentsMergesExtensions(t *testing.T) {
	schema := `{"Entities":[{"name":"User","kind":"object"}]}`
	ext := `{"Entities":[{"name":"Comment","kind":"object"}]}`
	doc, diags := Protocol{}.ParseTypeSystemDocuments(schema, []string{ext})
	require.Empty(t, diags.Items())
	require.Len(t, doc.Entities, 2)
}

func TestParseTypeSystemDocumentsReportsMalformedJSON(t *testing.T) {
	_, diags := Protocol{}.ParseTypeSystemDocuments(`not json`, nil)
	assert.True(t, diags.HasErrors())
}

func TestGenerateQueryTextCompact(t *testing.T) {
	root := []protocol.QueryNode{
		{Kind: protocol.QueryNodeScalar, Name: "id", Alias: "id"},
		{
			Kind: protocol.QueryNodeLinked, Name: "profile", Alias: "profile",
			Children: []protocol.QueryNode{
				{Kind: protocol.QueryNodeScalar, Name: "avatar", Alias: "picture"},
			},
		},
	}
	text := Protocol{}.GenerateQueryText(protocol.QueryTextOptions{}, "Me", protocol.OperationQuery, nil, root)
	assert.Contains(t, text, "query Me")
	assert.Contains(t, text, "id")
	assert.Contains(t, text, "picture: avatar")
}

func TestGenerateQueryTextWithVariables(t *testing.T) {
	vars := []protocol.QueryVariable{{Name: "role", Type: protocol.TypeAnnotation{TypeName: "String", Nullable: false}}}
	root := []protocol.QueryNode{{Kind: protocol.QueryNodeScalar, Name: "users", Alias: "users"}}
	text := Protocol{}.GenerateQueryText(protocol.QueryTextOptions{}, "UsersByRole", protocol.OperationQuery, vars, root)
	assert.Contains(t, text, "$role: String!")
}
