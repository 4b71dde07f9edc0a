package schema

import (
	"github.com/isographlabs/isograph-go/diagnostics"
	"github.com/isographlabs/isograph-go/isoliteral"
)

// ApplyExposeField is SPEC_FULL.md §5's supplemented feature, grounded on
// original_source/crates/isograph_compiler/src/field_directives.rs's
// directive-validation pass and on
// isograph_schema/src/create_additional_fields/add_pointers_to_supertypes.rs's
// reverse-pointer installation pattern (there, `asSubtype` fields installed
// on an interface pointing at its concrete implementations; here, the
// reverse edge an explicit `@exposeField` client pointer declaration earns
// on its own target entity).
//
// A client pointer declaration `pointer Parent.name to Target @exposeField` does two
// things beyond an ordinary client pointer: it is permitted to shadow a
// server selectable named Parent.name (spec.md §4.5.3 — absent the
// directive, that collision is a diagnostic instead), and it installs a
// synthetic object-shaped selectable on Target, named "as" + Parent,
// pointing back at Parent. This mirrors add_pointers_to_supertypes' own
// "as<Subtype>" naming convention, generalized from supertype/subtype pairs
// to the exposing/target pair a client pointer declares.
func (s *Schema) ApplyExposeField() (map[string]*Selectable, diagnostics.List) {
	var diags diagnostics.List
	reverse := make(map[string]*Selectable)

	m, declDiags := s.declarationMapFromIsoLiterals()
	diags.Extend(declDiags)

	for key, refs := range m.byKey {
		for _, ref := range refs {
			d := ref.Declaration
			if d.Kind != isoliteral.DeclarationPointer || !d.HasExposeField() {
				continue
			}
			if d.PointerTarget == nil {
				diags.Add(diagnostics.At(diagnostics.Location{RelativePath: ref.Path, Start: d.Span.Start, End: d.Span.End},
					"@exposeField on %s.%s: pointer has no target type", key.Parent, key.Name))
				continue
			}
			targetAnnotation := lowerShapeTypeAnnotation(*d.PointerTarget)
			targetEntity := targetAnnotation.InnerEntity()
			reverseName := "as" + key.Parent

			loc := diagnostics.Location{RelativePath: ref.Path, Start: d.Span.Start, End: d.Span.End}
			if existing, ok := reverse[targetEntity+"."+reverseName]; ok {
				diags.Add(diagnostics.At(loc, "@exposeField: %s.%s already installed by %s.%s",
					targetEntity, reverseName, existing.ParentEntity, existing.Name))
				continue
			}

			sel := &Selectable{
				Name:             reverseName,
				ParentEntity:     targetEntity,
				TargetAnnotation: Union([]TypeAnnotation{Scalar(key.Parent)}, true),
				Kind:             KindClientSelectable,
				Shape:            ShapeObject,
				IsInlineFragment: true,
				Location:         loc,
			}
			reverse[targetEntity+"."+reverseName] = sel
		}
	}

	return reverse, diags
}

// ReverseExposedSelectableNamed resolves parent.name against the synthetic
// reverse pointers ApplyExposeField installs.
func (s *Schema) ReverseExposedSelectableNamed(parent, name string) *Selectable {
	reverse, _ := s.ApplyExposeField()
	return reverse[parent+"."+name]
}

// SelectablesForEntity returns every selectable reachable on parent: server
// fields, client field/pointer declarations, and the synthetic reverse
// pointers @exposeField installs on parent as a target entity (spec.md
// §4.5.3). A client declaration shadows a server selectable of the same
// name only when it carries @exposeField; otherwise the collision is
// reported as a diagnostic rather than silently picked one way.
func (s *Schema) SelectablesForEntity(parent string) (map[string]*Selectable, diagnostics.List) {
	var diags diagnostics.List
	out := make(map[string]*Selectable)

	fields, rerr := s.serverFields(parent)
	if rerr != nil {
		diags.Add(rerr.Diagnostic)
	}
	for _, f := range fields {
		sel := s.resolveShape(serverFieldToSelectable(parent, f))
		out[f.Name] = &sel
	}

	m, declDiags := s.declarationMapFromIsoLiterals()
	diags.Extend(declDiags)
	for key, refs := range m.byKey {
		if key.Parent != parent || len(refs) == 0 {
			continue
		}
		decl := refs[0].Declaration
		var sel *Selectable
		var lookupErr *ResolveError
		switch decl.Kind {
		case isoliteral.DeclarationField:
			sel, lookupErr = s.ClientScalarSelectableNamed(parent, key.Name)
		case isoliteral.DeclarationPointer:
			sel, lookupErr = s.ClientObjectSelectableNamed(parent, key.Name)
		default:
			continue
		}
		if lookupErr != nil {
			diags.Add(lookupErr.Diagnostic)
			continue
		}
		if sel == nil {
			continue
		}
		if existing, ok := out[key.Name]; ok {
			if !decl.HasExposeField() {
				diags.Add(diagnostics.At(sel.Location, "client field %s.%s collides with existing server field %s.%s",
					parent, key.Name, existing.ParentEntity, existing.Name))
				continue
			}
		}
		out[key.Name] = sel
	}

	reverse, reverseDiags := s.ApplyExposeField()
	diags.Extend(reverseDiags)
	for key, sel := range reverse {
		if sel.ParentEntity != parent {
			continue
		}
		if existing, ok := out[sel.Name]; ok {
			diags.Add(diagnostics.At(sel.Location, "@exposeField reverse pointer %s collides with existing field %s.%s",
				key, existing.ParentEntity, existing.Name))
			continue
		}
		out[sel.Name] = sel
	}

	return out, diags
}
