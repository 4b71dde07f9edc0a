// Package elaborate implements the selection-set elaborator of spec.md
// §4.7: given a parsed iso-literal selection set, a parent entity, and the
// enclosing declaration's variable context, it resolves every selection
// against the schema and produces a tree of elaborated Nodes, one per
// selection, collecting diagnostics rather than aborting on the first
// error.
package elaborate

import (
	"sort"

	"github.com/isographlabs/isograph-go/diagnostics"
	"github.com/isographlabs/isograph-go/internal/engine"
	"github.com/isographlabs/isograph-go/isoliteral"
	"github.com/isographlabs/isograph-go/schema"
)

// ArgumentValue is a resolved call-site argument: either a reference to an
// enclosing variable or a literal value, never both (spec.md §3 "Variable
// context").
type ArgumentValue struct {
	Name       string
	IsVariable bool
	Variable   string
	IsNull     bool
	Literal    interface{}
}

// Node is one elaborated selection: the resolved selectable plus its
// checked arguments and, for object selections, its recursively elaborated
// children.
type Node struct {
	Alias        string
	Name         string
	ParentEntity string
	Selectable   *schema.Selectable
	Arguments    []ArgumentValue
	Children     []Node
	Variant      isoliteral.SelectionVariant
	Location     diagnostics.Location
}

// IsObject reports whether this node has its own child selection set.
func (n Node) IsObject() bool { return n.Selectable != nil && n.Selectable.Shape == schema.ShapeObject }

// Tree is the output of elaborating one selection set: its resolved nodes
// plus every variable name referenced anywhere within it (spec.md §4.8
// needs this to build an entrypoint's reachable-variable set).
type Tree struct {
	Nodes             []Node
	ReferencedVariables []string
}

// Elaborator wraps a schema.Schema with the memoized elaboration query.
type Elaborator struct {
	Schema *schema.Schema
}

// New constructs an Elaborator over s.
func New(s *schema.Schema) *Elaborator {
	return &Elaborator{Schema: s}
}

// declKey mirrors the (parent_entity, selection_set) memoization key
// spec.md §4.7 names. Keying on the owning declaration's (parent, name)
// is equivalent for every elaboration entry point in this compiler
// (client fields, client pointers, entrypoints each own exactly one
// selection set) and gives memoization a stable, comparable key without
// hashing the selection-set AST itself.
type declKey struct {
	Parent string
	Name   string
}

func (k declKey) String() string { return k.Parent + "." + k.Name }

// ElaborateDeclaration elaborates decl's selection set against the entity
// decl resolves selections within: decl.ParentType for a field/pointer
// declaration's own arguments context, decl.ParentType again as the
// top-level selection parent (fields of a client field/pointer declaration
// are themselves selections against decl.ParentType, matching how a
// `field User.name { ... }` declaration's `{ ... }` selects fields of
// User).
func (el *Elaborator) ElaborateDeclaration(decl isoliteral.Declaration) (Tree, diagnostics.List) {
	id := engine.DerivedIDOf("elaborate_selection_set", declKey{Parent: decl.ParentType, Name: decl.SelectableName})
	wrapped, _ := el.Schema.Registry.Engine().Call(id, func(_ *engine.Engine) (interface{}, error) {
		if len(el.Schema.ServerEntitiesNamed(decl.ParentType)) == 0 {
			// Scenario S5: an unknown parent entity is reported exactly
			// once, anchored at the parent-type token itself, and the
			// selection set underneath it is never elaborated — resolving
			// each of its selections against a nonexistent parent would
			// only cascade into a pile of unrelated "unknown field"
			// diagnostics anchored at the wrong span.
			var diags diagnostics.List
			diags.Add(diagnostics.At(parentTypeLocation(decl), "unknown type %q", decl.ParentType))
			return treeWithDiags{tree: Tree{}, diags: diags}, nil
		}
		varCtx := variableContext(decl.VariableDefinitions)
		nodes, diags := el.elaborateSet(decl.SelectionSet, decl.ParentType, varCtx)
		return treeWithDiags{tree: Tree{Nodes: nodes, ReferencedVariables: referencedVariables(nodes)}, diags: diags}, nil
	}, false)
	r := wrapped.(treeWithDiags)
	return r.tree, r.diags
}

func parentTypeLocation(decl isoliteral.Declaration) diagnostics.Location {
	return diagnostics.Location{Start: decl.ParentTypeSpan.Start, End: decl.ParentTypeSpan.End}
}

type treeWithDiags struct {
	tree  Tree
	diags diagnostics.List
}

func variableContext(defs []isoliteral.VariableDefinition) map[string]schema.TypeAnnotation {
	var lower func(t isoliteral.TypeAnnotationShape) schema.TypeAnnotation
	lower = func(t isoliteral.TypeAnnotationShape) schema.TypeAnnotation {
		base := schema.Scalar(t.TypeName)
		if t.IsList {
			base = schema.Plural(lower(*t.Inner))
		}
		if t.Nullable {
			return schema.Union([]schema.TypeAnnotation{base}, true)
		}
		return base
	}
	ctx := make(map[string]schema.TypeAnnotation, len(defs))
	for _, d := range defs {
		ctx[d.Name] = lower(d.Type)
	}
	return ctx
}

func (el *Elaborator) elaborateSet(set []isoliteral.Selection, parentEntity string, varCtx map[string]schema.TypeAnnotation) ([]Node, diagnostics.List) {
	var diags diagnostics.List
	nodes := make([]Node, 0, len(set))
	for _, sel := range set {
		node, selDiags := el.elaborateSelection(sel, parentEntity, varCtx)
		diags.Extend(selDiags)
		nodes = append(nodes, node)
	}
	return nodes, diags
}

func (el *Elaborator) elaborateSelection(sel isoliteral.Selection, parentEntity string, varCtx map[string]schema.TypeAnnotation) (Node, diagnostics.List) {
	var diags diagnostics.List
	loc := diagnostics.Location{Start: sel.Span.Start, End: sel.Span.End}

	node := Node{
		Alias:        sel.Alias,
		Name:         sel.Name,
		ParentEntity: parentEntity,
		Variant:      isoliteral.VariantOf(sel.Directives),
		Location:     loc,
	}

	selectable, rerr := el.Schema.SelectableNamed(parentEntity, sel.Name)
	if rerr != nil {
		diags.Add(rerr.Diagnostic)
		return node, diags
	}
	if selectable == nil {
		diags.Add(diagnostics.At(loc, "unknown field %s.%s", parentEntity, sel.Name))
		return node, diags
	}
	node.Selectable = selectable

	if sel.IsLinked() && selectable.Shape != schema.ShapeObject {
		diags.Add(diagnostics.At(loc, "%s.%s is scalar-shaped and cannot take a selection set", parentEntity, sel.Name))
	}
	if !sel.IsLinked() && selectable.Shape == schema.ShapeObject {
		diags.Add(diagnostics.At(loc, "%s.%s is object-shaped and requires a selection set", parentEntity, sel.Name))
	}

	if node.Variant == isoliteral.SelectionLoadable && !loadableEligible(*selectable) {
		diags.Add(diagnostics.At(loc, "@loadable is not valid on %s.%s: only client pointer selectables support it",
			parentEntity, sel.Name))
	}

	args, argDiags := el.resolveArguments(sel, *selectable, varCtx, loc)
	diags.Extend(argDiags)
	node.Arguments = args

	if sel.IsLinked() {
		childEntity := selectable.TargetAnnotation.InnerEntity()
		children, childDiags := el.elaborateSet(sel.SelectionSet, childEntity, varCtx)
		diags.Extend(childDiags)
		node.Children = children
	}

	return node, diags
}

// loadableEligible restricts @loadable to client, object-shaped
// selectables: the selection-level marker is only meaningful on a pointer
// whose resolution can be deferred to a standalone refetch query
// (SPEC_FULL.md §5's imperatively-loaded-field bookkeeping), never on a
// scalar or a server-defined field resolved inline with its parent query.
func loadableEligible(sel schema.Selectable) bool {
	return sel.Kind == schema.KindClientSelectable && sel.Shape == schema.ShapeObject
}

func (el *Elaborator) resolveArguments(sel isoliteral.Selection, selectable schema.Selectable, varCtx map[string]schema.TypeAnnotation, loc diagnostics.Location) ([]ArgumentValue, diagnostics.List) {
	var diags diagnostics.List
	byName := make(map[string]schema.VariableDefinition, len(selectable.Arguments))
	for _, a := range selectable.Arguments {
		byName[a.Name] = a
	}

	seen := make(map[string]bool, len(sel.Arguments))
	values := make([]ArgumentValue, 0, len(sel.Arguments))
	for _, arg := range sel.Arguments {
		if seen[arg.Name] {
			diags.Add(diagnostics.At(loc, "duplicate argument %q on %s.%s", arg.Name, selectable.ParentEntity, selectable.Name))
			continue
		}
		seen[arg.Name] = true

		def, known := byName[arg.Name]
		if !known {
			diags.Add(diagnostics.At(loc, "unknown argument %q on %s.%s", arg.Name, selectable.ParentEntity, selectable.Name))
			continue
		}

		val := ArgumentValue{Name: arg.Name}
		switch arg.Value.Kind {
		case isoliteral.ValueVariable:
			val.IsVariable = true
			val.Variable = arg.Value.VariableName
			if declared, ok := varCtx[val.Variable]; ok && !declared.Equal(def.Type) {
				diags.Add(diagnostics.At(loc, "variable $%s has type %s, expected %s for argument %q",
					val.Variable, declared, def.Type, arg.Name))
			}
		case isoliteral.ValueNull:
			val.IsNull = true
		default:
			val.Literal = arg.Value.Literal
		}
		values = append(values, val)
	}

	var missing []string
	for _, a := range selectable.Arguments {
		if !a.Type.IsNullable() && !seen[a.Name] {
			missing = append(missing, a.Name)
		}
	}
	sort.Strings(missing)
	for _, name := range missing {
		diags.Add(diagnostics.At(loc, "missing required argument %q on %s.%s", name, selectable.ParentEntity, selectable.Name))
	}

	return values, diags
}

func referencedVariables(nodes []Node) []string {
	seen := make(map[string]bool)
	var collect func(n Node)
	collect = func(n Node) {
		for _, a := range n.Arguments {
			if a.IsVariable {
				seen[a.Variable] = true
			}
		}
		for _, c := range n.Children {
			collect(c)
		}
	}
	for _, n := range nodes {
		collect(n)
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
