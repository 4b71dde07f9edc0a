package schema

import (
	"fmt"
	"sort"

	"github.com/isographlabs/isograph-go/diagnostics"
	"github.com/isographlabs/isograph-go/internal/engine"
	"github.com/isographlabs/isograph-go/isoliteral"
)

// declKey identifies a client-defined declaration by its parent entity and
// selectable name, the same pair every other resolution query in this
// package keys on.
type declKey struct {
	Parent string
	Name   string
}

func (k declKey) String() string { return k.Parent + "." + k.Name }

// literalRef pairs a parsed Declaration with the file it came from, so
// duplicate-definition diagnostics can report both locations.
type literalRef struct {
	Declaration isoliteral.Declaration
	Path        string
}

// declarationMap is the result of client_selectable_declaration_map_from_
// iso_literals (spec.md §4.6): every client declaration across every
// iso-literal source, keyed by (parent, name), with multiple-definition
// detection already applied.
type declarationMap struct {
	byKey map[declKey][]literalRef
}

// extractAndParse runs extract_iso_literals and parse_iso_literal
// (spec.md §4.4.1/§4.4.2) over path as two nested memoized calls, and
// applies the §4.4.3 extraction-boundary validations. Diagnostics from a
// failing literal never abort the remaining literals in the same file.
func (s *Schema) extractAndParse(path string) ([]literalRef, diagnostics.List) {
	id := engine.DerivedIDOf("extract_iso_literals", declKey{Parent: "file", Name: path})
	wrapped, _ := s.Registry.Engine().Call(id, func(e *engine.Engine) (interface{}, error) {
		content, _ := s.Registry.ReadIsoLiteralSource(path)
		extractions := isoliteral.Extract(content)

		var refs []literalRef
		var diags diagnostics.List
		for _, ext := range extractions {
			if !ext.CalledWithParentheses {
				diags.Add(diagnostics.At(diagnostics.Location{RelativePath: path, Start: ext.StartOffsetInFile},
					"ExpectedParenthesesAroundIsoLiteral"))
			}

			parseID := engine.DerivedIDOf("parse_iso_literal", declKey{Parent: path, Name: fmt.Sprintf("%d:%s", ext.StartOffsetInFile, ext.ConstExportName)})
			parsedWrapped, _ := e.Call(parseID, func(_ *engine.Engine) (interface{}, error) {
				decl, err := isoliteral.Parse(ext.LiteralText)
				return decl, err
			}, false)
			decl, parseErr := engine.Unwrap(parsedWrapped)
			if parseErr != nil {
				diags.Add(diagnostics.At(diagnostics.Location{RelativePath: path, Start: ext.StartOffsetInFile}, "%s", parseErr))
				continue
			}

			d := decl.(isoliteral.Declaration)
			if d.Kind == isoliteral.DeclarationField && !ext.HasAssociatedFunction {
				diags.Add(diagnostics.At(diagnostics.Location{RelativePath: path, Start: ext.StartOffsetInFile},
					"ExpectedAssociatedJsFunction"))
			}
			refs = append(refs, literalRef{Declaration: d, Path: path})
		}
		return extractResult{refs: refs, diags: diags}, nil
	}, false)
	r := wrapped.(extractResult)
	return r.refs, r.diags
}

type extractResult struct {
	refs  []literalRef
	diags diagnostics.List
}

// declarationMapFromIsoLiterals scans every configured iso-literal source
// file and builds the declarationMap, detecting multiple definitions of
// the same (parent, name) once (spec.md §4.6).
func (s *Schema) declarationMapFromIsoLiterals() (declarationMap, diagnostics.List) {
	var diags diagnostics.List
	m := declarationMap{byKey: make(map[declKey][]literalRef)}

	paths, _ := s.Registry.ReadIsoLiteralFileSet()
	sorted := append([]string{}, paths...)
	sort.Strings(sorted)

	for _, path := range sorted {
		refs, fileDiags := s.extractAndParse(path)
		diags.Extend(fileDiags)
		for _, ref := range refs {
			key := declKey{Parent: ref.Declaration.ParentType, Name: ref.Declaration.SelectableName}
			m.byKey[key] = append(m.byKey[key], ref)
		}
	}
	return m, diags
}

func (s *Schema) lookupDeclaration(parent, name string, wantKind isoliteral.DeclarationKind) (*isoliteral.Declaration, *ResolveError) {
	m, _ := s.declarationMapFromIsoLiterals()
	refs, ok := m.byKey[declKey{Parent: parent, Name: name}]
	if !ok || len(refs) == 0 {
		return nil, nil
	}
	if len(refs) > 1 {
		loc := diagnostics.Location{RelativePath: refs[0].Path, Start: refs[0].Declaration.Span.Start, End: refs[0].Declaration.Span.End}
		secondary := make([]diagnostics.Location, len(refs)-1)
		for i, r := range refs[1:] {
			secondary[i] = diagnostics.Location{RelativePath: r.Path, Start: r.Declaration.Span.Start, End: r.Declaration.Span.End}
		}
		return nil, &ResolveError{
			Kind:       ErrMultipleDefinitions,
			Diagnostic: diagnostics.At(loc, "multiple definitions of %s.%s", parent, name).WithSecondary(secondary...),
		}
	}
	d := refs[0].Declaration
	if d.Kind != wantKind {
		loc := diagnostics.Location{RelativePath: refs[0].Path, Start: d.Span.Start, End: d.Span.End}
		return nil, &ResolveError{
			Kind:       ErrKindMismatch,
			Diagnostic: diagnostics.At(loc, "%s.%s is not a %s declaration", parent, name, declarationKindName(wantKind)),
		}
	}
	return &d, nil
}

func declarationKindName(k isoliteral.DeclarationKind) string {
	switch k {
	case isoliteral.DeclarationField:
		return "field"
	case isoliteral.DeclarationPointer:
		return "pointer"
	default:
		return "entrypoint"
	}
}

// ClientFieldDeclaration resolves parent.name to a ClientFieldDeclaration,
// per spec.md §4.6.
func (s *Schema) ClientFieldDeclaration(parent, name string) (*isoliteral.Declaration, *ResolveError) {
	return s.lookupDeclaration(parent, name, isoliteral.DeclarationField)
}

// ClientPointerDeclaration resolves parent.name to a
// ClientPointerDeclaration, per spec.md §4.6.
func (s *Schema) ClientPointerDeclaration(parent, name string) (*isoliteral.Declaration, *ResolveError) {
	return s.lookupDeclaration(parent, name, isoliteral.DeclarationPointer)
}

// EntrypointDeclarations enumerates every entrypoint declaration across
// every iso-literal source, per spec.md §4.6.
func (s *Schema) EntrypointDeclarations() []isoliteral.Declaration {
	m, _ := s.declarationMapFromIsoLiterals()
	var out []isoliteral.Declaration
	keys := make([]declKey, 0, len(m.byKey))
	for k := range m.byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Parent != keys[j].Parent {
			return keys[i].Parent < keys[j].Parent
		}
		return keys[i].Name < keys[j].Name
	})
	for _, k := range keys {
		for _, ref := range m.byKey[k] {
			if ref.Declaration.Kind == isoliteral.DeclarationEntrypoint {
				out = append(out, ref.Declaration)
			}
		}
	}
	return out
}
