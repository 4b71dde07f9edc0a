package isoliteral

import "fmt"

// DeclarationKind distinguishes the three forms of iso-literal AST in
// spec.md §3/§6: field_def, pointer_def, entrypoint_def.
type DeclarationKind int

const (
	DeclarationField DeclarationKind = iota
	DeclarationPointer
	DeclarationEntrypoint
)

// TypeAnnotationShape mirrors the schema model's type annotation algebra
// (spec.md §4.5.4) at the syntax level, before it is resolved against a
// schema: a pointer declaration's `to` clause names a target type
// annotation using the same nullable/list syntax the schema model uses.
type TypeAnnotationShape struct {
	TypeName string
	Nullable bool
	IsList   bool
	// Inner is set when IsList is true, describing the element type.
	Inner *TypeAnnotationShape
}

// VariableDefinition is `$name: Type` appearing in a parenthesized
// variable-definitions clause (spec.md §6 grammar: varDefs).
type VariableDefinition struct {
	Name string
	Type TypeAnnotationShape
	Span Span
}

// Directive is `@name(args)` (spec.md §6 grammar: directive).
type Directive struct {
	Name string
	Args []Argument
	Span Span
}

// Argument is one `name: value` pair inside a selection's or directive's
// parenthesized argument list.
type Argument struct {
	Name  string
	Value NonConstantValue
	Span  Span
}

// NonConstantValueKind distinguishes the three forms spec.md §3
// ("Variable context") names: variable reference, literal, or null.
type NonConstantValueKind int

const (
	ValueVariable NonConstantValueKind = iota
	ValueLiteral
	ValueNull
)

// NonConstantValue is an argument value as written in an iso literal,
// before any variable substitution (spec.md §3/§4.8).
type NonConstantValue struct {
	Kind         NonConstantValueKind
	VariableName string      // set iff Kind == ValueVariable
	Literal      interface{} // set iff Kind == ValueLiteral: string, float64, bool, or nested structures
}

func (v NonConstantValue) String() string {
	switch v.Kind {
	case ValueVariable:
		return "$" + v.VariableName
	case ValueNull:
		return "null"
	default:
		return fmt.Sprintf("%v", v.Literal)
	}
}

// Selection is one entry of a selection set (spec.md §6 grammar:
// selection): `[alias:] name [(args)] [@directives] [{…}] [,]`.
type Selection struct {
	Alias        string // equal to Name if no alias was written
	Name         string
	Arguments    []Argument
	Directives   []Directive
	SelectionSet []Selection // nil for a scalar selection
	Span         Span
}

// IsLinked reports whether this selection has a sub-selection set, i.e. is
// an object/linked field rather than a scalar one.
func (s Selection) IsLinked() bool { return s.SelectionSet != nil }

// Declaration is the parsed form of a single iso literal (spec.md §3 "
// Iso-literal AST"): one of ClientFieldDeclaration, ClientPointerDeclaration,
// or EntrypointDeclaration, distinguished by Kind.
type Declaration struct {
	Kind DeclarationKind

	ParentType     string
	ParentTypeSpan Span
	SelectableName string
	Description    string

	// PointerTarget is set iff Kind == DeclarationPointer.
	PointerTarget *TypeAnnotationShape

	VariableDefinitions []VariableDefinition
	Directives          []Directive
	SelectionSet        []Selection // nil for entrypoints and for pointer/field decls with no body

	Span Span
}

// HasExposeField reports whether the declaration carries an @exposeField
// directive (spec.md §4.5.3 / SPEC_FULL.md §5).
func (d Declaration) HasExposeField() bool {
	return d.hasDirective("exposeField")
}

// IsComponent reports whether the declaration carries an @component
// directive.
func (d Declaration) IsComponent() bool { return d.hasDirective("component") }

func (d Declaration) hasDirective(name string) bool {
	for _, dir := range d.Directives {
		if dir.Name == name {
			return true
		}
	}
	return false
}

// SelectionVariant classifies a selection's loadable/updatable status
// (spec.md §4.7 "IsographSelectionVariant").
type SelectionVariant int

const (
	SelectionRegular SelectionVariant = iota
	SelectionLoadable
	SelectionUpdatable
)

// VariantOf inspects a selection's directives and returns its
// IsographSelectionVariant marker.
func VariantOf(directives []Directive) SelectionVariant {
	for _, d := range directives {
		switch d.Name {
		case "loadable":
			return SelectionLoadable
		case "updatable":
			return SelectionUpdatable
		}
	}
	return SelectionRegular
}
