// Package graphqlproto is a GraphQL-flavored protocol.NetworkProtocol. Per
// spec.md §1 ("the concrete syntax of any particular network protocol's
// type system... beyond the abstract contract their parsers satisfy" is
// out of scope), it does not lex SDL text: its "schema document" is
// already a structured protocol.TypeSystemDocument serialized as JSON, the
// simplest concrete syntax that satisfies the abstract parse contract
// without reimplementing a GraphQL SDL grammar.
package graphqlproto

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/isographlabs/isograph-go/diagnostics"
	"github.com/isographlabs/isograph-go/protocol"
)

// Protocol implements protocol.NetworkProtocol for JSON-encoded GraphQL
// type system documents.
type Protocol struct{}

var _ protocol.NetworkProtocol = Protocol{}

func (Protocol) ParseTypeSystemDocuments(schemaSource string, extensionSources []string) (protocol.TypeSystemDocument, diagnostics.List) {
	var diags diagnostics.List

	var doc protocol.TypeSystemDocument
	if err := json.Unmarshal([]byte(schemaSource), &doc); err != nil {
		diags.Add(diagnostics.New("graphql schema document: %s", err))
		return doc, diags
	}

	for i, ext := range extensionSources {
		var extDoc protocol.TypeSystemDocument
		if err := json.Unmarshal([]byte(ext), &extDoc); err != nil {
			diags.Add(diagnostics.New("graphql schema extension %d: %s", i, err))
			continue
		}
		doc.Entities = append(doc.Entities, extDoc.Entities...)
	}

	return doc, diags
}

func (Protocol) GenerateQueryText(opts protocol.QueryTextOptions, operationName string, kind protocol.OperationKind, variables []protocol.QueryVariable, root []protocol.QueryNode) string {
	var b strings.Builder
	b.WriteString(kind.String())
	if operationName != "" {
		b.WriteString(" ")
		b.WriteString(operationName)
	}
	if len(variables) > 0 {
		b.WriteString("(")
		for i, v := range variables {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%s: %s", v.Name, renderTypeAnnotation(v.Type))
		}
		b.WriteString(")")
	}
	b.WriteString(" ")
	writeNodes(&b, root, opts, 0)
	return b.String()
}

func (Protocol) WrapMergedSelectionMap(root []protocol.QueryNode) []protocol.QueryNode {
	return root
}

func renderTypeAnnotation(t protocol.TypeAnnotation) string {
	var s string
	if t.IsList {
		s = "[" + renderTypeAnnotation(*t.Inner) + "]"
	} else {
		s = t.TypeName
	}
	if !t.Nullable {
		s += "!"
	}
	return s
}

func writeNodes(b *strings.Builder, nodes []protocol.QueryNode, opts protocol.QueryTextOptions, depth int) {
	b.WriteString("{")
	if opts.Pretty {
		b.WriteString("\n")
	}
	for _, n := range nodes {
		if opts.Pretty {
			b.WriteString(strings.Repeat("  ", depth+1))
		}
		writeNode(b, n, opts, depth)
		if opts.Pretty {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	if opts.Pretty {
		b.WriteString(strings.Repeat("  ", depth))
	}
	b.WriteString("}")
}

func writeNode(b *strings.Builder, n protocol.QueryNode, opts protocol.QueryTextOptions, depth int) {
	if n.Kind == protocol.QueryNodeInlineFragment {
		fmt.Fprintf(b, "... on %s ", n.TypeToRefineTo)
		writeNodes(b, n.Children, opts, depth+1)
		return
	}
	if n.Alias != "" && n.Alias != n.Name {
		fmt.Fprintf(b, "%s: %s", n.Alias, n.Name)
	} else {
		b.WriteString(n.Name)
	}
	if len(n.Arguments) > 0 {
		b.WriteString("(")
		for i, a := range n.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			if a.IsVariable {
				fmt.Fprintf(b, "%s: $%s", a.Name, a.Variable)
			} else {
				fmt.Fprintf(b, "%s: %v", a.Name, a.Literal)
			}
		}
		b.WriteString(")")
	}
	if n.Kind == protocol.QueryNodeLinked {
		b.WriteString(" ")
		writeNodes(b, n.Children, opts, depth+1)
	}
}
