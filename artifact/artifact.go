// Package artifact implements the artifact planner of spec.md §4.9: given a
// merged selection map and the enclosing entrypoint's operation name, it
// produces query text, a normalization AST, a reader AST, refetch
// descriptors, and symbolic parameter/output type trees.
package artifact

import (
	"sort"

	"github.com/isographlabs/isograph-go/mergedselection"
	"github.com/isographlabs/isograph-go/protocol"
	"github.com/isographlabs/isograph-go/schema"
)

// TypeTreeKind tags one node of a symbolic parameter/output type tree
// (spec.md §4.9: "a tree of {Scalar(entity), List(inner), Nullable(inner),
// Object(fields)}").
type TypeTreeKind int

const (
	TypeScalar TypeTreeKind = iota
	TypeList
	TypeNullable
	TypeObject
)

// TypeTree is a language-agnostic description of an input or output shape.
type TypeTree struct {
	Kind   TypeTreeKind
	Entity string               // set iff Kind == TypeScalar; also names the entity for TypeObject
	Inner  *TypeTree            // set iff Kind == TypeList or TypeNullable
	Fields map[string]*TypeTree // set iff Kind == TypeObject
}

// FromAnnotation lowers a schema.TypeAnnotation into the symbolic type tree
// spec.md §4.9 describes for parameter and output types. It goes by way of
// protocol.TypeAnnotation (schema.RaiseTypeAnnotation), which is partial for
// a true multi-variant union; every annotation this compiler actually
// produces for a field or argument target is a Scalar, Plural, or a
// single-variant nullable Union of one of those, so the partiality never
// triggers here.
func FromAnnotation(t schema.TypeAnnotation) *TypeTree {
	return fromProtocolAnnotation(schema.RaiseTypeAnnotation(t))
}

// ReaderNodeKind tags one node of a ReaderNode tree (spec.md §4.9: "a
// per-node kind tag (scalar / linked / resolver / refetch / inline-fragment
// / load-more)").
type ReaderNodeKind int

const (
	ReaderScalar ReaderNodeKind = iota
	ReaderLinked
	ReaderResolver
	ReaderRefetch
	ReaderInlineFragment
	ReaderLoadMore
)

// ReaderNode is a shape-preserving, display-alias-keyed tree used to
// generate the runtime reader that turns normalized store data back into
// the shape a caller requested.
type ReaderNode struct {
	Kind     ReaderNodeKind
	Alias    string
	Name     string
	Children []ReaderNode

	// Selectable is set for ReaderResolver nodes: the client selectable
	// whose own reader this node delegates to.
	Selectable *schema.Selectable
}

// NormalizationNode mirrors the merged map for runtime normalization:
// unlike ReaderNode it is keyed on the real field name plus argument shape
// rather than on display alias, and it carries the concrete type name for
// inline fragments so the normalizer can route polymorphic payloads.
type NormalizationNode struct {
	Kind       mergedselection.MergedServerSelectionKind
	FieldName  string
	Alias      string
	Arguments  []mergedselection.ArgumentValue
	TypeName   string // set iff Kind == KindInlineFragment
	Children   []NormalizationNode
}

// RefetchDescriptor is one standalone query built from a refetch path: a
// fresh query rooted at the refetchable object, together with the
// variables it closes over (spec.md §4.9).
type RefetchDescriptor struct {
	Path      []string
	QueryText string
	Variables []protocol.QueryVariable
}

// LoadableFieldArtifact is SPEC_FULL.md §5's supplemented
// imperatively-loaded-field bookkeeping: a @loadable client pointer
// selection needs, in addition to the refetch query itself (already
// covered by RefetchDescriptor), a separate "loader" artifact that a
// caller invokes at runtime to trigger that refetch on demand. It is kept
// distinct from RefetchDescriptor because the loader is generated
// per-field (one per loadable selection site, identified by FieldName and
// the client selectable it wraps), whereas a RefetchDescriptor is generated
// per-path and has no notion of "which field's loader this is".
type LoadableFieldArtifact struct {
	FieldName  string
	Selectable *schema.Selectable
	Refetch    RefetchDescriptor
}

// Artifact is the complete descriptor spec.md §4.9 names for one
// entrypoint: its query text, normalization AST, reader AST, refetch
// descriptors, parameter/output type trees, and (SPEC_FULL.md §5)
// per-loadable-field loader artifacts.
type Artifact struct {
	OperationName string
	OperationKind protocol.OperationKind

	QueryText      string
	Normalization  []NormalizationNode
	Reader         []ReaderNode
	Refetches      []RefetchDescriptor
	Loadables      []LoadableFieldArtifact
	ParameterTypes *TypeTree
	OutputType     *TypeTree
}

// Plan builds the artifact descriptor for one entrypoint's merged
// selection result (spec.md §4.9). net is the concrete network protocol
// whose query-text serializer and merged-map wrapper are used; variables
// is the entrypoint's full declared variable list, in declaration order;
// rootEntity is the entity the merged map is rooted at (the entrypoint's
// parent type, e.g. "Query").
func Plan(net protocol.NetworkProtocol, opts protocol.QueryTextOptions, operationName string, kind protocol.OperationKind, variables []protocol.QueryVariable, rootEntity string, result mergedselection.Result) Artifact {
	declaredVars := make(map[string]protocol.QueryVariable, len(variables))
	for _, v := range variables {
		declaredVars[v.Name] = v
	}

	usedVars := make([]protocol.QueryVariable, 0, len(result.ReferencedVariables))
	seen := make(map[string]bool)
	for _, name := range result.ReferencedVariables {
		if seen[name] {
			continue
		}
		seen[name] = true
		if v, ok := declaredVars[name]; ok {
			usedVars = append(usedVars, v)
		}
	}
	sort.Slice(usedVars, func(i, j int) bool { return usedVars[i].Name < usedVars[j].Name })

	root := toQueryNodes(result.Map)
	root = net.WrapMergedSelectionMap(root)
	queryText := net.GenerateQueryText(opts, operationName, kind, usedVars, root)

	refetches := make([]RefetchDescriptor, 0, len(result.RefetchPaths))
	loadables := make([]LoadableFieldArtifact, 0, len(result.RefetchPaths))
	for _, rp := range result.RefetchPaths {
		rd := RefetchDescriptor{
			Path:      rp.Path,
			QueryText: queryTextForRefetch(net, opts, rp, usedVars),
			Variables: usedVars,
		}
		refetches = append(refetches, rd)
		// Every refetch path currently recorded originates from a
		// @loadable client pointer selection (mergedselection only
		// appends to RefetchPaths in that case), so each one also gets a
		// loader artifact keyed on its field name and the selectable it
		// wraps.
		loadables = append(loadables, LoadableFieldArtifact{
			FieldName:  rp.Path[len(rp.Path)-1],
			Selectable: rp.Selectable,
			Refetch:    rd,
		})
	}

	return Artifact{
		OperationName:  operationName,
		OperationKind:  kind,
		QueryText:      queryText,
		Normalization:  toNormalizationNodes(result.Map),
		Reader:         toReaderNodes(result.Map),
		Refetches:      refetches,
		Loadables:      loadables,
		ParameterTypes: parameterTypeTree(variables),
		OutputType:     outputTypeTree(rootEntity, result.Map),
	}
}

// outputTypeTree builds the symbolic output shape spec.md §4.9 requires
// from the merged map's own entries: each scalar entry contributes a
// TypeScalar field named for its display alias, each linked field or
// client-object-selectable contributes a nested TypeObject, recursively.
func outputTypeTree(rootEntity string, m *mergedselection.MergedSelectionMap) *TypeTree {
	fields := make(map[string]*TypeTree)
	for _, e := range m.Entries() {
		switch e.Kind {
		case mergedselection.KindScalarField:
			entity := ""
			if e.Selectable != nil {
				entity = e.Selectable.TargetAnnotation.InnerEntity()
			}
			fields[e.Alias] = &TypeTree{Kind: TypeScalar, Entity: entity}
		case mergedselection.KindLinkedField, mergedselection.KindClientObjectSelectable:
			fields[e.Alias] = outputTypeTree(e.Name, e.Children)
		}
	}
	return &TypeTree{Kind: TypeObject, Entity: rootEntity, Fields: fields}
}

// queryTextForRefetch renders a standalone query for one refetch path. The
// refetch query's root is the path's selectable itself, wrapped as its own
// single-selection operation (spec.md §4.9 "wrapped in the necessary inline
// fragments").
func queryTextForRefetch(net protocol.NetworkProtocol, opts protocol.QueryTextOptions, rp mergedselection.RefetchPath, vars []protocol.QueryVariable) string {
	name := rp.Path[len(rp.Path)-1]
	node := protocol.QueryNode{Kind: protocol.QueryNodeLinked, Name: name, Alias: name}
	wrapped := net.WrapMergedSelectionMap([]protocol.QueryNode{node})
	return net.GenerateQueryText(opts, name, protocol.OperationQuery, vars, wrapped)
}

func parameterTypeTree(variables []protocol.QueryVariable) *TypeTree {
	fields := make(map[string]*TypeTree, len(variables))
	for _, v := range variables {
		fields[v.Name] = fromProtocolAnnotation(v.Type)
	}
	return &TypeTree{Kind: TypeObject, Fields: fields}
}

func fromProtocolAnnotation(t protocol.TypeAnnotation) *TypeTree {
	if t.Nullable {
		cp := t
		cp.Nullable = false
		return &TypeTree{Kind: TypeNullable, Inner: fromProtocolAnnotation(cp)}
	}
	if t.IsList {
		return &TypeTree{Kind: TypeList, Inner: fromProtocolAnnotation(*t.Inner)}
	}
	return &TypeTree{Kind: TypeScalar, Entity: t.TypeName}
}

func toQueryArguments(args []mergedselection.ArgumentValue) []protocol.QueryArgument {
	out := make([]protocol.QueryArgument, 0, len(args))
	for _, a := range args {
		out = append(out, protocol.QueryArgument{Name: a.Name, Variable: a.Variable, Literal: a.Literal, IsVariable: a.IsVariable})
	}
	return out
}

func toQueryNodes(m *mergedselection.MergedSelectionMap) []protocol.QueryNode {
	entries := m.Entries()
	out := make([]protocol.QueryNode, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case mergedselection.KindScalarField:
			out = append(out, protocol.QueryNode{Kind: protocol.QueryNodeScalar, Name: e.Name, Alias: e.Alias, Arguments: toQueryArguments(e.Arguments)})
		case mergedselection.KindLinkedField:
			out = append(out, protocol.QueryNode{Kind: protocol.QueryNodeLinked, Name: e.Name, Alias: e.Alias, Arguments: toQueryArguments(e.Arguments), Children: toQueryNodes(e.Children)})
		case mergedselection.KindInlineFragment:
			out = append(out, protocol.QueryNode{Kind: protocol.QueryNodeInlineFragment, Name: e.Name, TypeToRefineTo: e.Name, Children: toQueryNodes(e.Children)})
		case mergedselection.KindClientObjectSelectable:
			out = append(out, toQueryNodes(e.Children)...)
		}
	}
	return out
}

func toNormalizationNodes(m *mergedselection.MergedSelectionMap) []NormalizationNode {
	entries := m.Entries()
	out := make([]NormalizationNode, 0, len(entries))
	for _, e := range entries {
		n := NormalizationNode{Kind: e.Kind, FieldName: e.Name, Alias: e.Alias, Arguments: e.Arguments}
		if e.Kind == mergedselection.KindInlineFragment {
			n.TypeName = e.Name
		}
		if e.Children != nil {
			n.Children = toNormalizationNodes(e.Children)
		}
		out = append(out, n)
	}
	return out
}

func toReaderNodes(m *mergedselection.MergedSelectionMap) []ReaderNode {
	entries := m.Entries()
	out := make([]ReaderNode, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case mergedselection.KindScalarField:
			out = append(out, ReaderNode{Kind: ReaderScalar, Alias: e.Alias, Name: e.Name})
		case mergedselection.KindLinkedField:
			out = append(out, ReaderNode{Kind: ReaderLinked, Alias: e.Alias, Name: e.Name, Children: toReaderNodes(e.Children)})
		case mergedselection.KindInlineFragment:
			out = append(out, ReaderNode{Kind: ReaderInlineFragment, Alias: e.Name, Name: e.Name, Children: toReaderNodes(e.Children)})
		case mergedselection.KindClientObjectSelectable:
			out = append(out, ReaderNode{Kind: ReaderResolver, Alias: e.Alias, Name: e.Name, Selectable: e.Selectable, Children: toReaderNodes(e.Children)})
		}
	}
	return out
}
