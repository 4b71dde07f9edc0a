package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/isographlabs/isograph-go/protocol"
)

func TestScalarInnerEntityAndNullability(t *testing.T) {
	a := Scalar("User")
	assert.Equal(t, "User", a.InnerEntity())
	assert.False(t, a.IsNullable())
	assert.False(t, a.IsList())
}

func TestUnionNullableWrapsInnerEntity(t *testing.T) {
	a := Union([]TypeAnnotation{Scalar("User")}, true)
	assert.Equal(t, "User", a.InnerEntity())
	assert.True(t, a.IsNullable())
}

func TestPluralIsList(t *testing.T) {
	a := Plural(Scalar("User"))
	assert.True(t, a.IsList())
	assert.Equal(t, "User", a.InnerEntity())
	assert.False(t, a.IsNullable())
}

func TestNullableListInnerEntity(t *testing.T) {
	a := Union([]TypeAnnotation{Plural(Scalar("User"))}, true)
	assert.True(t, a.IsList())
	assert.True(t, a.IsNullable())
	assert.Equal(t, "User", a.InnerEntity())
}

func TestZeroVariantUnionPanics(t *testing.T) {
	assert.Panics(t, func() {
		Union(nil, true)
	})
}

func TestTypeAnnotationEqual(t *testing.T) {
	a := Union([]TypeAnnotation{Plural(Scalar("User"))}, true)
	b := Union([]TypeAnnotation{Plural(Scalar("User"))}, true)
	c := Union([]TypeAnnotation{Plural(Scalar("Post"))}, true)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal("not a TypeAnnotation"))
}

func TestLowerTypeAnnotationRoundTripsThroughRaise(t *testing.T) {
	cases := []protocol.TypeAnnotation{
		{TypeName: "ID", Nullable: false},
		{TypeName: "String", Nullable: true},
		{IsList: true, Inner: &protocol.TypeAnnotation{TypeName: "User"}, Nullable: false},
		{IsList: true, Inner: &protocol.TypeAnnotation{TypeName: "User", Nullable: true}, Nullable: true},
	}
	for _, c := range cases {
		lowered := LowerTypeAnnotation(c)
		raised := RaiseTypeAnnotation(lowered)
		assert.Equal(t, c.TypeName, raised.TypeName)
		assert.Equal(t, c.Nullable, raised.Nullable)
		assert.Equal(t, c.IsList, raised.IsList)
		if c.IsList {
			assert.Equal(t, c.Inner.TypeName, raised.Inner.TypeName)
			assert.Equal(t, c.Inner.Nullable, raised.Inner.Nullable)
		}
	}
}

func TestTypeAnnotationString(t *testing.T) {
	assert.Equal(t, "User!", Scalar("User").String())
	assert.Equal(t, "User!", Union([]TypeAnnotation{Scalar("User")}, true).String())
	assert.Equal(t, "[User!]!", Plural(Scalar("User")).String())
}
