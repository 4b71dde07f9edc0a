package schema

import (
	"github.com/isographlabs/isograph-go/diagnostics"
	"github.com/isographlabs/isograph-go/internal/engine"
	"github.com/isographlabs/isograph-go/protocol"
	"github.com/isographlabs/isograph-go/sourceregistry"
)

// Schema ties the source registry, a chosen NetworkProtocol, and the
// engine together, exposing the memoized resolution queries of spec.md
// §4.5-4.6. One Schema is built per compiler instance (spec.md §9: the
// core is parameterized by the network-protocol interface, never a
// concrete protocol).
type Schema struct {
	Registry *sourceregistry.Registry
	Protocol protocol.NetworkProtocol
}

// New constructs a Schema over reg, using proto to parse the configured
// schema document and its extensions.
func New(reg *sourceregistry.Registry, proto protocol.NetworkProtocol) *Schema {
	return &Schema{Registry: reg, Protocol: proto}
}

// constKey is a fmt.Stringer adapter for memoized queries keyed by a fixed
// string rather than a per-call parameter.
type constKey string

func (k constKey) String() string { return string(k) }

// docWithDiags bundles a parsed TypeSystemDocument with the diagnostics
// produced while parsing it, so both travel together through one
// memoized node.
type docWithDiags struct {
	doc   protocol.TypeSystemDocument
	diags diagnostics.List
}

// resolvedDocument runs parse_type_system_documents (spec.md §9, the
// "dynamic dispatch over which protocol" note) as a single memoized call
// over the configured schema and extension sources. Each source is read
// through the registry, so an edit to the schema file or any extension
// file invalidates this node, and transitively every entity/selectable
// resolution derived from it.
func (s *Schema) resolvedDocument() (protocol.TypeSystemDocument, diagnostics.List) {
	id := engine.DerivedIDOf("parse_type_system_documents", constKey("schema"))
	wrapped, _ := s.Registry.Engine().Call(id, func(e *engine.Engine) (interface{}, error) {
		cfg, ok := s.Registry.ReadConfig()
		if !ok {
			return docWithDiags{}, nil
		}
		schemaSrc, _ := s.Registry.ReadFileSource(cfg.Schema)
		var exts []string
		for _, p := range cfg.SchemaExtensions {
			c, _ := s.Registry.ReadFileSource(p)
			exts = append(exts, c)
		}
		doc, diags := s.Protocol.ParseTypeSystemDocuments(schemaSrc, exts)
		return docWithDiags{doc: doc, diags: diags}, nil
	}, false)
	result := wrapped.(docWithDiags)
	return result.doc, result.diags
}

// SchemaDiagnostics exposes the diagnostics produced while parsing the
// schema document, e.g. for a CLI front end deciding exit status
// (spec.md §7).
func (s *Schema) SchemaDiagnostics() diagnostics.List {
	_, diags := s.resolvedDocument()
	return diags
}
