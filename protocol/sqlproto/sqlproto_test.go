package sqlproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isographlabs/isograph-go/protocol"
)

const schemaYAML = `
tables:
  - name: User
    columns:
      - name: id
        type: ID
      - name: name
        type: String
        nullable: true
`

func TestParseTypeSystemDocuments(t *testing.T) {
	doc, diags := Protocol{}.ParseTypeSystemDocuments(schemaYAML, nil)
	require.Empty(t, diags.Items())
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "User", doc.Entities[0].Name)
	require.Len(t, doc.Entities[0].Fields, 2)
	assert.False(t, doc.Entities[0].Fields[0].Target.Nullable)
	assert.True(t, doc.Entities[0].Fields[1].Target.Nullable)
}

func TestParseTypeSystemDocumentsAppliesExtensionColumnOptions(t *testing.T) {
	ext := `
columns:
  User.id:
    nullable: true
`
	doc, diags := Protocol{}.ParseTypeSystemDocuments(schemaYAML, []string{ext})
	require.Empty(t, diags.Items())
	assert.True(t, doc.Entities[0].Fields[0].Target.Nullable)
}

func TestParseTypeSystemDocumentsReportsMalformedYAML(t *testing.T) {
	_, diags := Protocol{}.ParseTypeSystemDocuments("tables: [", nil)
	assert.True(t, diags.HasErrors())
}

func TestGenerateQueryTextRendersSelect(t *testing.T) {
	root := []protocol.QueryNode{
		{Kind: protocol.QueryNodeScalar, Name: "id"},
		{Kind: protocol.QueryNodeLinked, Name: "profile", Children: []protocol.QueryNode{
			{Kind: protocol.QueryNodeScalar, Name: "avatar"},
		}},
	}
	text := Protocol{}.GenerateQueryText(protocol.QueryTextOptions{}, "Me", protocol.OperationQuery, nil, root)
	assert.Contains(t, text, "SELECT id, profile.*")
	assert.Contains(t, text, "JOIN profile (")
}
