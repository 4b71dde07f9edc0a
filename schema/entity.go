package schema

import (
	"github.com/isographlabs/isograph-go/diagnostics"
	"github.com/isographlabs/isograph-go/protocol"
)

// Entity is the resolved form of spec.md §3 "Entity": a named type in the
// schema, object-like (with fields, resolved into Selectables separately)
// or scalar-like (atomic).
type Entity struct {
	Name        string
	Kind        protocol.EntityKind
	Description string
	Location    diagnostics.Location
}

// EntityRef pairs an Entity with the index of its definition among all
// definitions sharing its name, so duplicate-definition diagnostics can
// point at "the first definition" (spec.md §4.5.1).
type EntityRef struct {
	Entity          Entity
	DefinitionIndex int
}

// ResolveErrorKind distinguishes the three failure shapes spec.md §4.5.1
// names for singular entity/selectable resolution.
type ResolveErrorKind int

const (
	ErrUpstreamParse ResolveErrorKind = iota
	ErrMultipleDefinitions
	ErrKindMismatch
)

// ResolveError is the Err case of the Result<Option<T>, Err> shape every
// resolution query in this package returns (spec.md §4.5.1/§4.5.2).
type ResolveError struct {
	Kind       ResolveErrorKind
	Diagnostic diagnostics.Diagnostic
}

func (e *ResolveError) Error() string { return e.Diagnostic.Error() }

// ServerEntitiesNamed returns every server-defined entity sharing name,
// across possibly-duplicate definitions (spec.md §4.5.1:
// "server_entities_named(name) → Vec<EntityRef>").
func (s *Schema) ServerEntitiesNamed(name string) []EntityRef {
	doc, _ := s.resolvedDocument()
	var refs []EntityRef
	idx := 0
	for _, def := range doc.Entities {
		if def.Name != name {
			continue
		}
		refs = append(refs, EntityRef{
			Entity: Entity{
				Name:        def.Name,
				Kind:        def.Kind,
				Description: def.Description,
				Location:    def.Location,
			},
			DefinitionIndex: idx,
		})
		idx++
	}
	return refs
}

// ServerObjectEntityNamed resolves name to exactly one object entity,
// enforcing the three-way Ok(Some)/Ok(None)/Err split of spec.md §4.5.1:
// upstream parse error is surfaced by the caller checking diagnostics
// separately; here we only distinguish "not found", "multiple
// definitions", and "kind mismatch".
func (s *Schema) ServerObjectEntityNamed(name string) (*Entity, *ResolveError) {
	return resolveEntityOfKind(s.ServerEntitiesNamed(name), protocol.KindObject)
}

// ServerScalarEntityNamed mirrors ServerObjectEntityNamed for scalar
// entities.
func (s *Schema) ServerScalarEntityNamed(name string) (*Entity, *ResolveError) {
	return resolveEntityOfKind(s.ServerEntitiesNamed(name), protocol.KindScalar)
}

func resolveEntityOfKind(refs []EntityRef, want protocol.EntityKind) (*Entity, *ResolveError) {
	if len(refs) == 0 {
		return nil, nil
	}
	if len(refs) > 1 {
		first := refs[0].Entity
		return nil, &ResolveError{
			Kind: ErrMultipleDefinitions,
			Diagnostic: diagnostics.At(first.Location, "multiple definitions of entity %q", first.Name).
				WithSecondary(collectLocations(refs[1:])...),
		}
	}
	e := refs[0].Entity
	if e.Kind != want {
		return nil, &ResolveError{
			Kind:       ErrKindMismatch,
			Diagnostic: diagnostics.At(e.Location, "entity %q is a %s, not a %s", e.Name, e.Kind, want),
		}
	}
	return &e, nil
}

func collectLocations(refs []EntityRef) []diagnostics.Location {
	locs := make([]diagnostics.Location, len(refs))
	for i, r := range refs {
		locs[i] = r.Entity.Location
	}
	return locs
}
