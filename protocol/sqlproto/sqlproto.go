// Package sqlproto is a DDL-flavored protocol.NetworkProtocol, grounded on
// original_source/crates/sql_network_protocol for the two-protocol split:
// it demonstrates that the schema model and merged-selection builder carry
// no GraphQL assumption. Its schema document is a structured table
// description; extension documents layer additional column options
// expressed as YAML front matter, rather than a real DDL grammar (out of
// scope per spec.md §1).
package sqlproto

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/isographlabs/isograph-go/diagnostics"
	"github.com/isographlabs/isograph-go/protocol"
)

// columnOptions is the YAML shape an extension document may add on top of
// the base schema's entity/field definitions: per-column overrides keyed
// by "Table.column". Only the nullability override is applied; a
// description is decoded but not applied to the field.
type columnOptions struct {
	Nullable    *bool  `yaml:"nullable,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type extensionDocument struct {
	Columns map[string]columnOptions `yaml:"columns"`
}

// Protocol implements protocol.NetworkProtocol for YAML-encoded SQL-DDL-
// flavored schema documents.
type Protocol struct{}

var _ protocol.NetworkProtocol = Protocol{}

// baseDocument is the YAML shape of the primary schema source: a list of
// tables with their columns, in this package's own tableDef/columnDef
// shape, converted to protocol.EntityDef values by toEntityDef.
type baseDocument struct {
	Tables []tableDef `yaml:"tables"`
}

type tableDef struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Scalar      bool         `yaml:"scalar,omitempty"`
	Columns     []columnDef  `yaml:"columns,omitempty"`
}

type columnDef struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable,omitempty"`
	List     bool   `yaml:"list,omitempty"`
}

func (Protocol) ParseTypeSystemDocuments(schemaSource string, extensionSources []string) (protocol.TypeSystemDocument, diagnostics.List) {
	var diags diagnostics.List
	var base baseDocument
	if err := yaml.Unmarshal([]byte(schemaSource), &base); err != nil {
		diags.Add(diagnostics.New("sql schema document: %s", err))
		return protocol.TypeSystemDocument{}, diags
	}

	doc := protocol.TypeSystemDocument{}
	for _, t := range base.Tables {
		doc.Entities = append(doc.Entities, toEntityDef(t))
	}

	for i, ext := range extensionSources {
		var extDoc extensionDocument
		if err := yaml.Unmarshal([]byte(ext), &extDoc); err != nil {
			diags.Add(diagnostics.New("sql schema extension %d: %s", i, err))
			continue
		}
		applyColumnOptions(doc.Entities, extDoc.Columns)
	}

	return doc, diags
}

func toEntityDef(t tableDef) protocol.EntityDef {
	kind := protocol.KindObject
	if t.Scalar {
		kind = protocol.KindScalar
	}
	e := protocol.EntityDef{Name: t.Name, Kind: kind, Description: t.Description}
	for _, c := range t.Columns {
		target := protocol.TypeAnnotation{TypeName: c.Type, Nullable: c.Nullable}
		if c.List {
			inner := target
			target = protocol.TypeAnnotation{IsList: true, Inner: &inner, Nullable: c.Nullable}
		}
		e.Fields = append(e.Fields, protocol.FieldDef{Name: c.Name, Target: target})
	}
	return e
}

func applyColumnOptions(entities []protocol.EntityDef, columns map[string]columnOptions) {
	for key, opts := range columns {
		parts := strings.SplitN(key, ".", 2)
		if len(parts) != 2 {
			continue
		}
		tableName, columnName := parts[0], parts[1]
		for ei := range entities {
			if entities[ei].Name != tableName {
				continue
			}
			for fi := range entities[ei].Fields {
				f := &entities[ei].Fields[fi]
				if f.Name != columnName {
					continue
				}
				if opts.Nullable != nil {
					f.Target.Nullable = *opts.Nullable
				}
			}
		}
	}
}

func (Protocol) GenerateQueryText(opts protocol.QueryTextOptions, operationName string, kind protocol.OperationKind, variables []protocol.QueryVariable, root []protocol.QueryNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- %s %s\n", kind, operationName)
	writeSelect(&b, root, 0)
	return b.String()
}

func (Protocol) WrapMergedSelectionMap(root []protocol.QueryNode) []protocol.QueryNode {
	return root
}

func writeSelect(b *strings.Builder, nodes []protocol.QueryNode, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString("SELECT ")
	var cols []string
	var linked []protocol.QueryNode
	for _, n := range nodes {
		switch n.Kind {
		case protocol.QueryNodeScalar:
			cols = append(cols, n.Name)
		default:
			linked = append(linked, n)
			cols = append(cols, n.Name+".*")
		}
	}
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString("\n")
	for _, n := range linked {
		b.WriteString(strings.Repeat("  ", depth))
		fmt.Fprintf(b, "JOIN %s (\n", n.Name)
		writeSelect(b, n.Children, depth+1)
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(")\n")
	}
}
