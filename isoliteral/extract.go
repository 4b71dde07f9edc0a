// Package isoliteral implements the two memoized functions of spec.md
// §4.4: extracting iso-literal occurrences from a source file by regex,
// and parsing the text of a single literal into an AST.
package isoliteral

import "regexp"

// Extraction is one occurrence of an iso literal found in a source file,
// per spec.md §3 ("Iso-literal extraction").
type Extraction struct {
	ConstExportName     string // empty if not of the `export const NAME = iso(...)` form
	LiteralText          string
	StartOffsetInFile     int
	HasAssociatedFunction bool
	CalledWithParentheses bool
}

// literalPattern recognizes `[// ]?[export const NAME = ]iso[(]`backtick`[)][(]`,
// per spec.md §4.4.1. Capture groups:
//  1. leading "//" comment marker, if any
//  2. "export const NAME =" prefix, capturing NAME
//  3. "(" if the literal is called with parentheses, i.e. `iso(`...`)`
//  4. the backtick-delimited literal text
//  5. ")" closing the call, if present
//  6. "(" if followed immediately by an associated function call
var literalPattern = regexp.MustCompile(
	"(//[^\n]*)?" +
		"(?:export\\s+const\\s+([A-Za-z_$][A-Za-z0-9_$]*)\\s*=\\s*)?" +
		"iso(\\()?" +
		"`((?:[^`\\\\]|\\\\.)*)`" +
		"(\\))?" +
		"(\\()?",
)

// Submatch group numbering for literalPattern (1-based, per the comment
// above it): 1=leading comment, 2=export const NAME, 3=open paren before
// the literal, 4=literal text, 5=close paren after the literal, 6=open
// paren of an associated function call.
const (
	groupComment    = 1
	groupExportName = 2
	groupOpenParen  = 3
	groupLiteral    = 4
	groupCloseParen = 5
	groupAssocFunc  = 6
)

// Extract scans content for iso literal occurrences. Commented-out matches
// (where the literal is preceded on the same line by `//`) are discarded,
// per spec.md §4.4.1 / §6.
func Extract(content string) []Extraction {
	var out []Extraction
	matches := literalPattern.FindAllStringSubmatchIndex(content, -1)
	for _, m := range matches {
		if groupPresent(m, groupComment) {
			continue
		}
		out = append(out, Extraction{
			ConstExportName:       group(content, m, groupExportName),
			LiteralText:           group(content, m, groupLiteral),
			StartOffsetInFile:     m[0],
			HasAssociatedFunction: groupPresent(m, groupAssocFunc),
			CalledWithParentheses: groupPresent(m, groupOpenParen) && groupPresent(m, groupCloseParen),
		})
	}
	return out
}

// groupPresent reports whether the 1-based submatch group idx participated
// in the match.
func groupPresent(m []int, idx int) bool {
	return m[idx*2] >= 0
}

func group(content string, m []int, idx int) string {
	lo, hi := m[idx*2], m[idx*2+1]
	if lo < 0 || hi < 0 {
		return ""
	}
	return content[lo:hi]
}
