// Package schema is the entity-and-selectable semantic layer described in
// spec.md §4.5: entities (object-like and scalar-like), selectables
// (server- or client-defined, scalar- or object-shaped), the type
// annotation algebra, and the memoized resolution queries built on top of
// a parsed protocol.TypeSystemDocument plus the project's iso literals.
package schema

import "github.com/isographlabs/isograph-go/protocol"

// annotationKind tags the three TypeAnnotation forms of spec.md §4.5.4.
type annotationKind int

const (
	annScalar annotationKind = iota
	annUnion
	annPlural
)

// TypeAnnotation is the internal type-annotation algebra: Scalar(entity),
// Union(variants, nullable), Plural(inner). Union generalizes spec.md's
// "set of variants" to a set of TypeAnnotations rather than bare entity
// names, so that a nullable list (Union wrapping a single Plural variant)
// and a true polymorphic union (multiple Scalar variants) share one
// representation.
type TypeAnnotation struct {
	kind     annotationKind
	entity   string
	variants []TypeAnnotation
	nullable bool
	inner    *TypeAnnotation
}

// Scalar constructs a non-null reference to entity.
func Scalar(entity string) TypeAnnotation {
	return TypeAnnotation{kind: annScalar, entity: entity}
}

// Union constructs a union of variants, nullable iff nullable is set. A
// single-variant union with nullable=true is how an otherwise-non-null
// annotation becomes nullable (spec.md §4.5.4: "The Union form with
// nullable = true is how nullability is represented").
//
// A zero-variant union panics: spec.md §9 records this as an open question
// ("whether zero-variant unions should instead be a recoverable
// diagnostic is unspecified") and DESIGN.md documents the decision to keep
// the source's panicking behavior rather than guess at a diagnostic shape
// for it.
func Union(variants []TypeAnnotation, nullable bool) TypeAnnotation {
	if len(variants) == 0 {
		panic("schema: zero-variant union")
	}
	return TypeAnnotation{kind: annUnion, variants: append([]TypeAnnotation{}, variants...), nullable: nullable}
}

// Plural constructs a non-null list of inner.
func Plural(inner TypeAnnotation) TypeAnnotation {
	return TypeAnnotation{kind: annPlural, inner: &inner}
}

// InnerEntity peels Plural and Union wrappers and returns the innermost
// entity reference (spec.md §4.5.4 "inner()"). For a multi-variant union
// it returns the first variant's innermost entity, since "the" innermost
// entity is only meaningful for the common nullable/list-wrapping case.
func (t TypeAnnotation) InnerEntity() string {
	cur := t
	for {
		switch cur.kind {
		case annPlural:
			cur = *cur.inner
		case annUnion:
			if len(cur.variants) == 0 {
				return ""
			}
			cur = cur.variants[0]
		default:
			return cur.entity
		}
	}
}

// IsNullable reports whether the outermost wrapper is a nullable union
// (spec.md §4.5.4 "is_nullable()").
func (t TypeAnnotation) IsNullable() bool {
	return t.kind == annUnion && t.nullable
}

// IsList reports whether this annotation is a Plural, or a single-variant
// Union (nullable or not) whose variant is a Plural.
func (t TypeAnnotation) IsList() bool {
	if t.kind == annPlural {
		return true
	}
	if t.kind == annUnion && len(t.variants) == 1 {
		return t.variants[0].kind == annPlural
	}
	return false
}

func (t TypeAnnotation) String() string {
	switch t.kind {
	case annPlural:
		return "[" + t.inner.String() + "]!"
	case annUnion:
		s := ""
		for i, v := range t.variants {
			if i > 0 {
				s += "|"
			}
			s += v.String()
		}
		if t.nullable {
			return s
		}
		return s + "!"
	default:
		return t.entity + "!"
	}
}

// Equal gives TypeAnnotation a value-equality the engine's backdating can
// use directly (schema.TypeAnnotation contains no unexported pointers that
// reflect.DeepEqual can't already handle, but Equal keeps comparisons
// explicit and future-proof against added fields).
func (t TypeAnnotation) Equal(other interface{}) bool {
	o, ok := other.(TypeAnnotation)
	if !ok {
		return false
	}
	if t.kind != o.kind || t.entity != o.entity || t.nullable != o.nullable {
		return false
	}
	if (t.inner == nil) != (o.inner == nil) {
		return false
	}
	if t.inner != nil && !t.inner.Equal(*o.inner) {
		return false
	}
	if len(t.variants) != len(o.variants) {
		return false
	}
	for i := range t.variants {
		if !t.variants[i].Equal(o.variants[i]) {
			return false
		}
	}
	return true
}

// LowerTypeAnnotation translates a network-protocol-native annotation into
// the internal algebra. Total, per spec.md §4.5.4.
func LowerTypeAnnotation(t protocol.TypeAnnotation) TypeAnnotation {
	var base TypeAnnotation
	if t.IsList {
		base = Plural(LowerTypeAnnotation(*t.Inner))
	} else {
		base = Scalar(t.TypeName)
	}
	if t.Nullable {
		return Union([]TypeAnnotation{base}, true)
	}
	return base
}

// RaiseTypeAnnotation inverts LowerTypeAnnotation for the shapes it
// produces (a Scalar or Plural, optionally wrapped in a single-variant
// nullable Union). It does not attempt to raise a true multi-variant
// union back into protocol.TypeAnnotation: protocol's annotation shape has
// no concept of a polymorphic union, so that direction is partial by
// construction, not a gap in this function.
func RaiseTypeAnnotation(t TypeAnnotation) protocol.TypeAnnotation {
	nullable := false
	cur := t
	if cur.kind == annUnion && len(cur.variants) == 1 {
		nullable = cur.nullable
		cur = cur.variants[0]
	}
	if cur.kind == annPlural {
		inner := RaiseTypeAnnotation(*cur.inner)
		return protocol.TypeAnnotation{IsList: true, Inner: &inner, Nullable: nullable}
	}
	return protocol.TypeAnnotation{TypeName: cur.entity, Nullable: nullable}
}
