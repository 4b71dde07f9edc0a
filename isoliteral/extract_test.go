package isoliteral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBasicFieldLiteral(t *testing.T) {
	src := "export const Foo = iso(`field User.name { id }`)(Component);\n"
	got := Extract(src)
	require.Len(t, got, 1)
	assert.Equal(t, "Foo", got[0].ConstExportName)
	assert.Equal(t, "field User.name { id }", got[0].LiteralText)
	assert.True(t, got[0].CalledWithParentheses)
	assert.True(t, got[0].HasAssociatedFunction)
}

func TestExtractEntrypointWithoutConstExport(t *testing.T) {
	src := "const x = iso(`entrypoint Query.Me`);\n"
	got := Extract(src)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].ConstExportName)
	assert.False(t, got[0].HasAssociatedFunction)
	assert.True(t, got[0].CalledWithParentheses)
}

func TestExtractSkipsCommentedOutLiteral(t *testing.T) {
	src := "// export const Foo = iso(`field User.name`)(Component);\n" +
		"export const Bar = iso(`field User.id`)(Component);\n"
	got := Extract(src)
	require.Len(t, got, 1, "commented-out matches must be discarded")
	assert.Equal(t, "Bar", got[0].ConstExportName)
}

func TestExtractWithoutParentheses(t *testing.T) {
	src := "export const Foo = iso`field User.name`;\n"
	got := Extract(src)
	require.Len(t, got, 1)
	assert.False(t, got[0].CalledWithParentheses)
}

func TestExtractMultipleLiteralsInOneFile(t *testing.T) {
	src := "export const A = iso(`field User.name { id }`)(Component);\n" +
		"export const B = iso(`entrypoint Query.Me`);\n"
	got := Extract(src)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].ConstExportName)
	assert.Equal(t, "B", got[1].ConstExportName)
}
