package schema

import (
	"github.com/isographlabs/isograph-go/config"
	"github.com/isographlabs/isograph-go/diagnostics"
	"github.com/isographlabs/isograph-go/isoliteral"
	"github.com/isographlabs/isograph-go/protocol"
)

// SelectableKind distinguishes a server-defined selectable (originates in
// the schema) from a client-defined one (originates in an iso literal),
// per the GLOSSARY.
type SelectableKind int

const (
	KindServerSelectable SelectableKind = iota
	KindClientSelectable
)

// SelectableShape distinguishes a scalar-shaped selectable (leaf value)
// from an object-shaped one (has its own selectable children).
type SelectableShape int

const (
	ShapeScalar SelectableShape = iota
	ShapeObject
)

// VariableDefinition is a resolved (schema-level) argument or client-field
// variable definition: a name paired with its internal TypeAnnotation.
type VariableDefinition struct {
	Name string
	Type TypeAnnotation
}

// Selectable is spec.md §3's Selectable record: a named field or pointer
// on an entity.
type Selectable struct {
	Name             string
	ParentEntity     string
	TargetAnnotation TypeAnnotation
	Arguments        []VariableDefinition
	Kind             SelectableKind
	Shape            SelectableShape
	IsInlineFragment bool
	Location         diagnostics.Location

	// ClientDeclaration is set iff Kind == KindClientSelectable: the
	// parsed iso-literal declaration this selectable resolves to.
	ClientDeclaration *isoliteral.Declaration
}

func serverFieldToSelectable(parent string, f protocol.FieldDef) Selectable {
	args := make([]VariableDefinition, len(f.Arguments))
	for i, a := range f.Arguments {
		args[i] = VariableDefinition{Name: a.Name, Type: LowerTypeAnnotation(a.Type)}
	}
	target := LowerTypeAnnotation(f.Target)
	// Shape depends on whether the target entity is itself object-like;
	// that requires a schema lookup, so it's fixed up by resolveShape.
	return Selectable{
		Name:             f.Name,
		ParentEntity:     parent,
		TargetAnnotation: target,
		Arguments:        args,
		Kind:             KindServerSelectable,
		Shape:            ShapeScalar,
		Location:         f.Location,
	}
}

// serverFields returns the raw protocol.FieldDef list of the single,
// unambiguous object-entity definition of parent, if any.
func (s *Schema) serverFields(parent string) ([]protocol.FieldDef, *ResolveError) {
	e, rerr := s.ServerObjectEntityNamed(parent)
	if rerr != nil || e == nil {
		return nil, rerr
	}
	doc, _ := s.resolvedDocument()
	for _, def := range doc.Entities {
		if def.Name == parent && def.Kind == protocol.KindObject {
			return def.Fields, nil
		}
	}
	return nil, nil
}

// resolveShape fixes up a server selectable's Shape by checking whether
// its target entity is itself an object entity.
func (s *Schema) resolveShape(sel Selectable) Selectable {
	targetName := sel.TargetAnnotation.InnerEntity()
	if obj, _ := s.ServerObjectEntityNamed(targetName); obj != nil {
		sel.Shape = ShapeObject
	}
	return sel
}

// ServerSelectableNamed resolves parent.name to a server-defined
// selectable of either shape (spec.md §4.5.2).
func (s *Schema) ServerSelectableNamed(parent, name string) (*Selectable, *ResolveError) {
	fields, rerr := s.serverFields(parent)
	if rerr != nil {
		return nil, rerr
	}
	for _, f := range fields {
		if f.Name == name {
			sel := s.resolveShape(serverFieldToSelectable(parent, f))
			return &sel, nil
		}
	}
	return nil, nil
}

// ServerScalarSelectableNamed enforces Shape == ShapeScalar.
func (s *Schema) ServerScalarSelectableNamed(parent, name string) (*Selectable, *ResolveError) {
	return enforceShape(s.ServerSelectableNamed(parent, name), ShapeScalar)
}

// ServerObjectSelectableNamed enforces Shape == ShapeObject.
func (s *Schema) ServerObjectSelectableNamed(parent, name string) (*Selectable, *ResolveError) {
	return enforceShape(s.ServerSelectableNamed(parent, name), ShapeObject)
}

func enforceShape(sel *Selectable, want SelectableShape) (*Selectable, *ResolveError) {
	if sel == nil {
		return nil, nil
	}
	if sel.Shape != want {
		return nil, &ResolveError{
			Kind: ErrKindMismatch,
			Diagnostic: diagnostics.At(sel.Location, "%s.%s is not %s-shaped", sel.ParentEntity, sel.Name, shapeName(want)),
		}
	}
	return sel, nil
}

func shapeName(s SelectableShape) string {
	if s == ShapeObject {
		return "object"
	}
	return "scalar"
}

// ClientScalarSelectableNamed resolves parent.name to a client field
// declaration, lowered into a scalar-shaped Selectable.
func (s *Schema) ClientScalarSelectableNamed(parent, name string) (*Selectable, *ResolveError) {
	decl, rerr := s.ClientFieldDeclaration(parent, name)
	if rerr != nil || decl == nil {
		return nil, rerr
	}
	return clientDeclarationToSelectable(*decl, ShapeScalar, TypeAnnotation{}), nil
}

// ClientObjectSelectableNamed resolves parent.name to a client pointer
// declaration, lowered into an object-shaped Selectable whose target
// annotation comes from the pointer's `to` clause.
func (s *Schema) ClientObjectSelectableNamed(parent, name string) (*Selectable, *ResolveError) {
	decl, rerr := s.ClientPointerDeclaration(parent, name)
	if rerr != nil || decl == nil {
		return nil, rerr
	}
	target := Scalar("")
	if decl.PointerTarget != nil {
		target = lowerShapeTypeAnnotation(*decl.PointerTarget)
	}
	return clientDeclarationToSelectable(*decl, ShapeObject, target), nil
}

func lowerShapeTypeAnnotation(t isoliteral.TypeAnnotationShape) TypeAnnotation {
	var base TypeAnnotation
	if t.IsList {
		base = Plural(lowerShapeTypeAnnotation(*t.Inner))
	} else {
		base = Scalar(t.TypeName)
	}
	if t.Nullable {
		return Union([]TypeAnnotation{base}, true)
	}
	return base
}

func clientDeclarationToSelectable(decl isoliteral.Declaration, shape SelectableShape, target TypeAnnotation) *Selectable {
	if shape == ShapeScalar {
		target = Union([]TypeAnnotation{Scalar(decl.ParentType)}, true)
	}
	args := make([]VariableDefinition, len(decl.VariableDefinitions))
	for i, v := range decl.VariableDefinitions {
		args[i] = VariableDefinition{Name: v.Name, Type: lowerShapeTypeAnnotation(v.Type)}
	}
	d := decl
	return &Selectable{
		Name:              decl.SelectableName,
		ParentEntity:      decl.ParentType,
		TargetAnnotation:  target,
		Arguments:         args,
		Kind:              KindClientSelectable,
		Shape:             shape,
		Location:          diagnostics.Location{Start: decl.Span.Start, End: decl.Span.End},
		ClientDeclaration: &d,
	}
}

// SelectableNamed is the top-level selectable_named query of spec.md
// §4.5.2: resolves parent.name first against server selectables, then
// (if absent) against client ones.
func (s *Schema) SelectableNamed(parent, name string) (*Selectable, *ResolveError) {
	if sel, rerr := s.ServerSelectableNamed(parent, name); rerr != nil || sel != nil {
		return sel, rerr
	}
	if sel, rerr := s.ClientScalarSelectableNamed(parent, name); (rerr != nil && rerr.Kind != ErrKindMismatch) || sel != nil {
		return sel, rerr
	}
	return s.ClientObjectSelectableNamed(parent, name)
}

// ServerIDSelectable returns parent's "id" field only if it exists and
// its target annotation is exactly non-null ID (spec.md §4.5.2). A
// violation is gated by cfg.Options.OnInvalidIDType: "ignore" fails
// silently closed (returns nil, nil); "warn"/"error" both populate a
// diagnostic, differing only in severity (SPEC_FULL.md §5, supplemented
// from original_source/.../entity_access.rs).
func (s *Schema) ServerIDSelectable(parent string, cfg config.Config) (*Selectable, *diagnostics.Diagnostic) {
	sel, _ := s.ServerSelectableNamed(parent, "id")
	if sel == nil {
		return nil, nil
	}
	valid := sel.Shape == ShapeScalar && sel.TargetAnnotation.InnerEntity() == "ID" && !sel.TargetAnnotation.IsNullable()
	if valid {
		return sel, nil
	}
	switch cfg.Options.OnInvalidIDType {
	case config.OnInvalidIDIgnore:
		return nil, nil
	case config.OnInvalidIDWarn:
		d := diagnostics.Warnf(sel.Location, "%s.id must be non-null ID", parent)
		return nil, &d
	default:
		d := diagnostics.At(sel.Location, "%s.id must be non-null ID", parent)
		return nil, &d
	}
}
