package reflect

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/microsoft/typescript-go/shim/ast"
	"github.com/tsmeta/tsmeta/internal/literal"
)

// Visit walks the descendants of root in pre-order. fn sees a node before
// its children; when fn reports the node as replaced its children are not
// visited. The first error stops the walk.
func Visit(root *ast.Node, fn func(node *ast.Node) (replaced bool, err error)) error {
	var err error
	var visit func(n *ast.Node) bool
	visit = func(n *ast.Node) bool {
		replaced, e := fn(n)
		if e != nil {
			err = e
			return true
		}
		if replaced {
			return false
		}
		return n.ForEachChild(visit)
	}
	root.ForEachChild(visit)
	return err
}

// Edit replaces the source range [Pos, End) with Expr. Pos may point at
// leading trivia; Apply skips it so comments before the call survive.
type Edit struct {
	Pos  int
	End  int
	Expr literal.Expr
	// Paren wraps the printed literal in parentheses. StatementStart
	// additionally guards it with a leading semicolon.
	Paren          bool
	StatementStart bool
}

// Apply splices edits into text. Edits must not overlap. Multi-line
// literals are indented to match the line they start on.
func Apply(text string, edits []Edit) string {
	if len(edits) == 0 {
		return text
	}
	edits = slices.Clone(edits)
	slices.SortFunc(edits, func(a, b Edit) int { return a.Pos - b.Pos })

	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for _, e := range edits {
		start := SkipTrivia(text, e.Pos)
		sb.WriteString(text[last:start])

		printed := literal.Print(e.Expr, lineIndent(text, start))
		if e.Paren {
			printed = "(" + printed + ")"
			if e.StatementStart {
				printed = ";" + printed
			}
		}
		sb.WriteString(printed)
		last = e.End
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// lineIndent returns the leading spaces and tabs of the line containing pos.
func lineIndent(text string, pos int) string {
	lineStart := strings.LastIndexByte(text[:pos], '\n') + 1
	end := lineStart
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[lineStart:end]
}

// SkipTrivia returns the position of the first token at or after pos,
// skipping whitespace, line breaks, comments and a leading shebang.
func SkipTrivia(text string, pos int) int {
	if pos == 0 && strings.HasPrefix(text, "#!") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			pos = nl
		} else {
			return len(text)
		}
	}
	for pos < len(text) {
		c := text[pos]
		switch c {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			pos++
			continue
		case '/':
			if pos+1 < len(text) {
				switch text[pos+1] {
				case '/':
					nl := strings.IndexAny(text[pos:], "\n\r")
					if nl < 0 {
						return len(text)
					}
					pos += nl
					continue
				case '*':
					end := strings.Index(text[pos+2:], "*/")
					if end < 0 {
						return len(text)
					}
					pos += 2 + end + 2
					continue
				}
			}
			return pos
		}
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(text[pos:])
			if isUnicodeSpace(r) {
				pos += size
				continue
			}
		}
		return pos
	}
	return pos
}

func isUnicodeSpace(r rune) bool {
	switch r {
	case '\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200b'
}
