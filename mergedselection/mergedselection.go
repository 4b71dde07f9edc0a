// Package mergedselection implements the merged-selection builder of
// spec.md §4.8: given an elaborated selection tree (package elaborate) and
// the enclosing declaration's variable context, it produces a
// MergedSelectionMap keyed by normalization key, the set of variable names
// reachable from the tree, the ordered list of refetch paths, and the set
// of client-field ids encountered.
package mergedselection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/isographlabs/isograph-go/diagnostics"
	"github.com/isographlabs/isograph-go/elaborate"
	"github.com/isographlabs/isograph-go/isoliteral"
	"github.com/isographlabs/isograph-go/schema"
)

// ArgumentValue mirrors elaborate.ArgumentValue but is normalized against
// the enclosing variable-substitution context (spec.md §4.8 "variable
// substitution"): a child's argument that references a parent variable is
// composed with whatever substitution the parent itself applied.
type ArgumentValue struct {
	Name       string
	IsVariable bool
	Variable   string
	IsNull     bool
	Literal    interface{}
}

// MergedServerSelectionKind tags one entry of a MergedSelectionMap the way
// spec.md §3 tags a MergedServerSelection.
type MergedServerSelectionKind int

const (
	KindScalarField MergedServerSelectionKind = iota
	KindLinkedField
	KindInlineFragment
	KindClientObjectSelectable
)

// MergedServerSelection is one entry of a MergedSelectionMap: a scalar
// field, a linked (object) field with its own merged children, an inline
// fragment refining to a concrete type, or a client-object-selectable
// marker that contributes no network-visible entry but must still be
// retained so artifact readers know to emit the client field.
type MergedServerSelection struct {
	Kind MergedServerSelectionKind

	// Name is the real field name; Alias is the display alias honored in
	// generated readers. For KindInlineFragment, Name is the type being
	// refined to and Alias is unused.
	Name  string
	Alias string

	Arguments []ArgumentValue

	// Children holds the merged selections beneath this entry; populated
	// for KindLinkedField, KindInlineFragment and KindClientObjectSelectable.
	Children *MergedSelectionMap

	// Selectable is the schema selectable this entry resolves, retained so
	// the artifact planner can distinguish server fields from client
	// selectables without re-resolving against the schema.
	Selectable *schema.Selectable

	Location diagnostics.Location
}

// MergedSelectionMap is an ordered, deduplicated set of MergedServerSelection
// entries, plus the normalization-key order they were first inserted in
// (spec.md §4.8 "Selections are emitted in insertion order of their
// normalization keys").
type MergedSelectionMap struct {
	entries    map[string]*MergedServerSelection
	order      []string
	aliasCount map[string]int
}

func newMergedSelectionMap() *MergedSelectionMap {
	return &MergedSelectionMap{entries: make(map[string]*MergedServerSelection)}
}

// Entries returns the map's entries in insertion order.
func (m *MergedSelectionMap) Entries() []*MergedServerSelection {
	out := make([]*MergedServerSelection, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.entries[k])
	}
	return out
}

func (m *MergedSelectionMap) get(key string) (*MergedServerSelection, bool) {
	e, ok := m.entries[key]
	return e, ok
}

func (m *MergedSelectionMap) insert(key string, entry *MergedServerSelection) {
	if _, exists := m.entries[key]; !exists {
		m.order = append(m.order, key)
	}
	m.entries[key] = entry
}

// nextAlias computes the display alias for a newly-inserted entry named
// name: explicitAlias if the selection carried one, otherwise name itself
// the first time name is used as a default alias within this map, and a
// generated "name__N" alias on every subsequent default-aliased
// occurrence (spec.md §4.8: "the builder injects a generated alias when
// two selections of the same field carry different arguments", scenario
// S6). Only call this once per distinct normalization key; re-merging
// into an already-inserted entry must reuse that entry's existing alias
// instead of drawing a new one.
func (m *MergedSelectionMap) nextAlias(name, explicitAlias string) string {
	if explicitAlias != "" && explicitAlias != name {
		return explicitAlias
	}
	if m.aliasCount == nil {
		m.aliasCount = make(map[string]int)
	}
	m.aliasCount[name]++
	if m.aliasCount[name] == 1 {
		return name
	}
	return fmt.Sprintf("%s__%d", name, m.aliasCount[name])
}

// RefetchPath records one position in the tree where a @loadable client
// pointer selection demands a standalone refetch query (spec.md §4.8).
type RefetchPath struct {
	Path       []string // field-name path from the entrypoint root
	Selectable *schema.Selectable
	Location   diagnostics.Location
}

// Result is everything the merged-selection builder produces for one
// elaborated tree.
type Result struct {
	Map                 *MergedSelectionMap
	ReferencedVariables []string
	RefetchPaths        []RefetchPath
	ClientFieldIDs      []string
}

// Build merges tree's nodes into a MergedSelectionMap, honoring the
// tie-break rules of spec.md §4.8. varCtx is the substitution context in
// effect at tree's root (normally empty for an entrypoint's own top-level
// selection set; non-empty when Build is invoked to build a refetch
// descriptor closing over an ancestor's variables).
func Build(tree elaborate.Tree, varCtx map[string]ArgumentValue) (Result, diagnostics.List) {
	var diags diagnostics.List
	b := &builder{clientFieldIDs: make(map[string]bool)}
	m := b.buildSet(tree.Nodes, varCtx, nil, &diags)
	result := Result{
		Map:                 m,
		ReferencedVariables: tree.ReferencedVariables,
		RefetchPaths:        b.refetchPaths,
		ClientFieldIDs:      sortedKeys(b.clientFieldIDs),
	}
	return result, diags
}

type builder struct {
	aliasCounter   int
	refetchPaths   []RefetchPath
	clientFieldIDs map[string]bool
}

func (b *builder) buildSet(nodes []elaborate.Node, varCtx map[string]ArgumentValue, path []string, diags *diagnostics.List) *MergedSelectionMap {
	m := newMergedSelectionMap()
	for _, n := range nodes {
		b.mergeNode(m, n, varCtx, path, diags)
	}
	return m
}

// mergeNode resolves n's arguments against varCtx, computes its
// normalization key, and merges it into m: a colliding key with identical
// argument serialization merges children recursively; a colliding key with
// different arguments is disambiguated with a generated alias.
func (b *builder) mergeNode(m *MergedSelectionMap, n elaborate.Node, varCtx map[string]ArgumentValue, path []string, diags *diagnostics.List) {
	args := substituteArguments(n.Arguments, varCtx)
	argKey := canonicalArgumentKey(args)
	normKey := n.Name + argKey

	childPath := append(append([]string{}, path...), n.Name)

	if n.Selectable != nil && n.Selectable.IsInlineFragment {
		b.mergeInlineFragment(m, n.Selectable.TargetAnnotation.InnerEntity(), n.Children, childVarCtx(args, varCtx), childPath, diags)
		return
	}

	if n.Selectable != nil && n.Selectable.Kind == schema.KindClientSelectable {
		b.clientFieldIDs[n.ParentEntity+"."+n.Name] = true
		if n.Variant == isoliteral.SelectionLoadable {
			b.refetchPaths = append(b.refetchPaths, RefetchPath{Path: childPath, Selectable: n.Selectable, Location: n.Location})
		}
		if !n.IsObject() {
			// Client scalar selectables contribute no network entry.
			return
		}
		existing, ok := m.get(normKey)
		var alias string
		if ok && existing.Kind == KindClientObjectSelectable {
			alias = existing.Alias
		} else {
			alias = m.nextAlias(n.Name, n.Alias)
		}
		entry := &MergedServerSelection{Kind: KindClientObjectSelectable, Name: n.Name, Alias: alias, Arguments: args, Selectable: n.Selectable, Location: n.Location}
		if ok && existing.Kind != KindClientObjectSelectable {
			normKey = b.disambiguate(m, normKey)
		}
		entry.Children = b.buildSet(n.Children, childVarCtx(args, varCtx), childPath, diags)
		m.insert(normKey, entry)
		return
	}

	if !n.IsObject() {
		existing, ok := m.get(normKey)
		if ok {
			if existing.Alias != displayAlias(n) {
				diags.Add(diagnostics.At(n.Location, "field %q requested under conflicting aliases %q and %q", n.Name, existing.Alias, displayAlias(n)))
			}
			return
		}
		m.insert(normKey, &MergedServerSelection{Kind: KindScalarField, Name: n.Name, Alias: m.nextAlias(n.Name, n.Alias), Arguments: args, Selectable: n.Selectable, Location: n.Location})
		return
	}

	existing, ok := m.get(normKey)
	if ok && existing.Kind == KindLinkedField {
		for _, c := range n.Children {
			b.mergeNode(existing.Children, c, childVarCtx(args, varCtx), childPath, diags)
		}
		return
	}
	if ok {
		normKey = b.disambiguate(m, normKey)
	}
	entry := &MergedServerSelection{Kind: KindLinkedField, Name: n.Name, Alias: m.nextAlias(n.Name, n.Alias), Arguments: args, Selectable: n.Selectable, Location: n.Location}
	entry.Children = b.buildSet(n.Children, childVarCtx(args, varCtx), childPath, diags)
	m.insert(normKey, entry)
}

// mergeInlineFragment merges a same-typed inline fragment's children into
// parent's existing KindInlineFragment entry for typeName, or installs a
// fresh one. Inline fragments on different concrete types are kept as
// siblings (spec.md §9's documented merge policy) by virtue of typeName
// participating in the normalization key.
func (b *builder) mergeInlineFragment(m *MergedSelectionMap, typeName string, children []elaborate.Node, varCtx map[string]ArgumentValue, path []string, diags *diagnostics.List) {
	key := "...on " + typeName
	existing, ok := m.get(key)
	if ok && existing.Kind == KindInlineFragment {
		for _, c := range children {
			b.mergeNode(existing.Children, c, varCtx, path, diags)
		}
		return
	}
	entry := &MergedServerSelection{Kind: KindInlineFragment, Name: typeName}
	entry.Children = b.buildSet(children, varCtx, path, diags)
	m.insert(key, entry)
}

func (b *builder) disambiguate(m *MergedSelectionMap, base string) string {
	for {
		b.aliasCounter++
		candidate := fmt.Sprintf("%s__%d", base, b.aliasCounter)
		if _, exists := m.get(candidate); !exists {
			return candidate
		}
	}
}

func displayAlias(n elaborate.Node) string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

// substituteArguments resolves each argument against varCtx: a variable
// reference is replaced by whatever the enclosing context bound that
// variable name to, composing parent substitutions into the child's own
// argument list (spec.md §4.8 "variable substitution").
func substituteArguments(args []elaborate.ArgumentValue, varCtx map[string]ArgumentValue) []ArgumentValue {
	out := make([]ArgumentValue, 0, len(args))
	for _, a := range args {
		v := ArgumentValue{Name: a.Name, IsVariable: a.IsVariable, Variable: a.Variable, IsNull: a.IsNull, Literal: a.Literal}
		if a.IsVariable {
			if bound, ok := varCtx[a.Variable]; ok {
				v = ArgumentValue{Name: a.Name, IsVariable: bound.IsVariable, Variable: bound.Variable, IsNull: bound.IsNull, Literal: bound.Literal}
			}
		}
		out = append(out, v)
	}
	return out
}

// childVarCtx computes the variable-substitution context in effect for a
// child selection set: args passed at this node become the binding context
// a nested `$parentVar`-style reference resolves through.
func childVarCtx(args []ArgumentValue, parent map[string]ArgumentValue) map[string]ArgumentValue {
	if len(args) == 0 {
		return parent
	}
	ctx := make(map[string]ArgumentValue, len(parent)+len(args))
	for k, v := range parent {
		ctx[k] = v
	}
	for _, a := range args {
		ctx[a.Name] = a
	}
	return ctx
}

// canonicalArgumentKey serializes args into a stable string so that two
// selections of the same field with identical arguments collide on the
// same normalization key and two with different arguments do not (spec.md
// §4.8 "normalization key").
func canonicalArgumentKey(args []ArgumentValue) string {
	if len(args) == 0 {
		return ""
	}
	sorted := append([]ArgumentValue{}, args...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	var b strings.Builder
	b.WriteByte('(')
	for i, a := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Name)
		b.WriteByte(':')
		switch {
		case a.IsVariable:
			b.WriteByte('$')
			b.WriteString(a.Variable)
		case a.IsNull:
			b.WriteString("null")
		default:
			fmt.Fprintf(&b, "%v", a.Literal)
		}
	}
	b.WriteByte(')')
	return b.String()
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
