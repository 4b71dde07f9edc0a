package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaDiagnosticsEmptyForValidDocument(t *testing.T) {
	s := newTestSchema(entitySchemaJSON, nil)
	assert.Empty(t, s.SchemaDiagnostics().Items())
}

func TestSchemaDiagnosticsReportsMalformedSchema(t *testing.T) {
	s := newTestSchema("not valid json", nil)
	diags := s.SchemaDiagnostics()
	assert.NotEmpty(t, diags.Items())
}

func TestResolvedDocumentIsMemoizedAcrossCalls(t *testing.T) {
	s := newTestSchema(entitySchemaJSON, nil)
	doc1, _ := s.resolvedDocument()
	doc2, _ := s.resolvedDocument()
	assert.Equal(t, doc1, doc2)
}
