package literal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// indentUnit matches the TypeScript printer's default indentation.
const indentUnit = "    "

// Print renders e as JavaScript source. Continuation lines of multi-line
// literals are prefixed with baseIndent so the result can be spliced into a
// line that is already indented by that amount.
func Print(e Expr, baseIndent string) string {
	var sb strings.Builder
	p := printer{sb: &sb}
	p.expr(e, baseIndent)
	return sb.String()
}

type printer struct {
	sb *strings.Builder
}

func (p printer) expr(e Expr, indent string) {
	switch v := e.(type) {
	case *Object:
		p.object(v, indent)
	case *Array:
		p.array(v, indent)
	case *String:
		p.sb.WriteString(QuoteString(v.Value))
	case *Number:
		p.sb.WriteString(FormatNumber(v.Value))
	case *Bool:
		p.sb.WriteString(strconv.FormatBool(v.Value))
	case nil:
		p.sb.WriteString("undefined")
	default:
		panic(fmt.Sprintf("literal: unexpected expression %T", e))
	}
}

func (p printer) object(o *Object, indent string) {
	if len(o.Entries) == 0 {
		p.sb.WriteString("{}")
		return
	}
	if !o.MultiLine {
		p.sb.WriteString("{ ")
		for i, e := range o.Entries {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString(e.Key)
			p.sb.WriteString(": ")
			p.expr(e.Value, indent)
		}
		p.sb.WriteString(" }")
		return
	}
	inner := indent + indentUnit
	p.sb.WriteString("{\n")
	for i, e := range o.Entries {
		p.sb.WriteString(inner)
		p.sb.WriteString(e.Key)
		p.sb.WriteString(": ")
		p.expr(e.Value, inner)
		if i < len(o.Entries)-1 {
			p.sb.WriteByte(',')
		}
		p.sb.WriteByte('\n')
	}
	p.sb.WriteString(indent)
	p.sb.WriteByte('}')
}

func (p printer) array(a *Array, indent string) {
	if len(a.Elements) == 0 {
		p.sb.WriteString("[]")
		return
	}
	if !hasMultiLine(a.Elements) {
		p.sb.WriteByte('[')
		for i, e := range a.Elements {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.expr(e, indent)
		}
		p.sb.WriteByte(']')
		return
	}
	inner := indent + indentUnit
	p.sb.WriteString("[\n")
	for i, e := range a.Elements {
		p.sb.WriteString(inner)
		p.expr(e, inner)
		if i < len(a.Elements)-1 {
			p.sb.WriteByte(',')
		}
		p.sb.WriteByte('\n')
	}
	p.sb.WriteString(indent)
	p.sb.WriteByte(']')
}

func hasMultiLine(elems []Expr) bool {
	for _, e := range elems {
		switch v := e.(type) {
		case *Object:
			if v.MultiLine && len(v.Entries) > 0 {
				return true
			}
		case *Array:
			if hasMultiLine(v.Elements) {
				return true
			}
		}
	}
	return false
}

// FormatNumber formats f the way JavaScript's Number.prototype.toString does
// for finite values.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	// Go pads exponents to two digits; JavaScript does not.
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	exp = strings.TrimLeft(exp[1:], "0")
	if exp == "" {
		exp = "0"
	}
	return mantissa + "e" + string(sign) + exp
}

// QuoteString returns s as a double-quoted JavaScript string literal.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\v':
			sb.WriteString(`\v`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\x%02x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
