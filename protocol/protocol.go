// Package protocol defines the abstraction spec.md §9 calls "dynamic
// dispatch over which protocol": the compiler core is parameterized by a
// NetworkProtocol rather than hardcoding GraphQL or SQL. Concrete
// implementations live in protocol/graphqlproto and protocol/sqlproto.
package protocol

import (
	"fmt"

	"github.com/isographlabs/isograph-go/diagnostics"
)

// EntityKind distinguishes object-like entities (with fields) from
// scalar-like entities (atomic), per spec.md §3 "Entity".
type EntityKind int

const (
	KindObject EntityKind = iota
	KindScalar
)

func (k EntityKind) String() string {
	if k == KindScalar {
		return "scalar"
	}
	return "object"
}

func (k EntityKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

func (k *EntityKind) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"scalar"`:
		*k = KindScalar
	case `"object"`, `""`:
		*k = KindObject
	default:
		return fmt.Errorf("protocol: invalid entity kind %s", data)
	}
	return nil
}

// TypeAnnotation is the network-protocol-native shape of a field's type,
// before it is lowered into the schema package's type annotation algebra
// (spec.md §4.5.4). Exactly one of the following holds: TypeName is set
// (a named reference, possibly Nullable); or IsList is true and Inner
// describes the element annotation.
type TypeAnnotation struct {
	TypeName string          `json:"type_name,omitempty"`
	Nullable bool            `json:"nullable,omitempty"`
	IsList   bool            `json:"is_list,omitempty"`
	Inner    *TypeAnnotation `json:"inner,omitempty"`
}

// ArgumentDef is a named, typed argument accepted by a field.
type ArgumentDef struct {
	Name         string              `json:"name"`
	Type         TypeAnnotation      `json:"type"`
	DefaultValue interface{}         `json:"default_value,omitempty"`
	Location     diagnostics.Location `json:"-"`
}

// FieldDef is one server-defined field of an object entity.
type FieldDef struct {
	Name      string               `json:"name"`
	Target    TypeAnnotation       `json:"target"`
	Arguments []ArgumentDef        `json:"arguments,omitempty"`
	Location  diagnostics.Location `json:"-"`
}

// EntityDef is one server-defined entity, as produced by a protocol's
// type-system parser. A schema may contain several EntityDefs sharing a
// name (spec.md §4.5.1: "Vec<EntityRef>") — duplicate detection happens in
// the schema package, not here.
type EntityDef struct {
	Name        string               `json:"name"`
	Kind        EntityKind           `json:"kind"`
	Description string               `json:"description,omitempty"`
	Fields      []FieldDef           `json:"fields,omitempty"`
	Location    diagnostics.Location `json:"-"`
}

// TypeSystemDocument is the result of parsing a schema document (plus any
// extension documents) through a NetworkProtocol. It intentionally carries
// no concrete syntax: the SDL/DDL grammar itself is out of scope
// (spec.md §1).
type TypeSystemDocument struct {
	Entities []EntityDef
}

// QueryTextOptions controls serialization of query text (spec.md §4.9).
type QueryTextOptions struct {
	Pretty bool
}

// OperationKind is the root operation kind of an entrypoint.
type OperationKind int

const (
	OperationQuery OperationKind = iota
	OperationMutation
	OperationSubscription
)

func (k OperationKind) String() string {
	switch k {
	case OperationMutation:
		return "mutation"
	case OperationSubscription:
		return "subscription"
	default:
		return "query"
	}
}

// QueryNodeKind tags a QueryNode the way spec.md §3 tags a
// MergedServerSelection.
type QueryNodeKind int

const (
	QueryNodeScalar QueryNodeKind = iota
	QueryNodeLinked
	QueryNodeInlineFragment
)

// QueryVariable is one `$name: Type` declaration serialized into an
// operation's variable list.
type QueryVariable struct {
	Name string
	Type TypeAnnotation
}

// QueryArgument is one resolved `name: value` pair attached to a
// QueryNode, already rendered to a protocol-agnostic literal-or-variable
// form by the caller (the artifact planner).
type QueryArgument struct {
	Name string
	// Exactly one of Variable or Literal is meaningful; IsVariable
	// selects which.
	Variable   string
	Literal    interface{}
	IsVariable bool
}

// QueryNode is a protocol-owned, minimal mirror of a merged-selection-map
// entry (see mergedselection.MergedSelectionMap), intentionally
// decoupled from that package so protocol has no dependency on the schema
// or elaboration layers: only the artifact planner, which already depends
// on both, needs to translate between the two shapes.
type QueryNode struct {
	Kind              QueryNodeKind
	Name              string // field name, or the type to refine to for InlineFragment
	Alias             string // display/normalization alias; equals Name if unaliased
	Arguments         []QueryArgument
	Children          []QueryNode // nil for scalar nodes
	TypeToRefineTo    string      // set iff Kind == QueryNodeInlineFragment
}

// NetworkProtocol is the interface spec.md §9 names explicitly:
// `parse_type_system_documents`, `generate_query_text`,
// `wrap_merged_selection_map`. Everything above the schema/artifact layers
// is written against this interface, never against a concrete protocol.
type NetworkProtocol interface {
	// ParseTypeSystemDocuments parses a schema document plus zero or more
	// extension documents into a TypeSystemDocument. Parse failures are
	// reported as diagnostics, not as a Go error, so that callers can
	// still attempt partial resolution downstream (spec.md §7: "Schema
	// parse errors (fatal for the affected schema document)").
	ParseTypeSystemDocuments(schemaSource string, extensionSources []string) (TypeSystemDocument, diagnostics.List)

	// GenerateQueryText renders a query-shaped tree of QueryNodes (the
	// entrypoint's merged selection map, translated by the artifact
	// planner) into protocol-native text.
	GenerateQueryText(opts QueryTextOptions, operationName string, kind OperationKind, variables []QueryVariable, root []QueryNode) string

	// WrapMergedSelectionMap gives the protocol a chance to inject
	// protocol-specific bookkeeping nodes (e.g. a leading __typename)
	// before query text is generated. Implementations that need nothing
	// extra return root unchanged.
	WrapMergedSelectionMap(root []QueryNode) []QueryNode
}
