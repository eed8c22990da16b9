package reflect

import (
	"fmt"

	"github.com/microsoft/typescript-go/shim/ast"
	shimchecker "github.com/microsoft/typescript-go/shim/checker"
	"github.com/tsmeta/tsmeta/internal/descriptor"
)

// truncation records a place where synthesis emitted a circular placeholder.
type truncation struct {
	typeName string
	depth    bool // true when the depth limit was hit rather than a cycle
}

// synth holds the state of one descriptor synthesis. visiting is scoped to
// the current path from the root, so a type used twice side by side is
// described twice while a type that contains itself is cut.
type synth struct {
	checker  *shimchecker.Checker
	maxDepth int
	failOn   bool
	visiting map[shimchecker.TypeId]bool
	cut      []truncation
}

// typeMeta builds the descriptor of t and reports where it was truncated.
func (tr *Transformer) typeMeta(t *shimchecker.Type) (*descriptor.Descriptor, []truncation, error) {
	if t == nil {
		return nil, nil, ErrUnresolvedType
	}
	s := &synth{
		checker:  tr.checker,
		maxDepth: tr.opts.MaxDepth,
		failOn:   tr.opts.FailOnCycle,
		visiting: make(map[shimchecker.TypeId]bool),
	}
	d, err := s.meta(t, 0)
	if err != nil {
		return nil, s.cut, err
	}
	return &d, s.cut, nil
}

func (s *synth) meta(t *shimchecker.Type, depth int) (descriptor.Descriptor, error) {
	flags := t.Flags()
	d := descriptor.Descriptor{Flags: uint32(flags)}

	if s.visiting[t.Id()] {
		if s.failOn {
			return d, fmt.Errorf("%w: %s", ErrCircularType, typeName(t))
		}
		s.cut = append(s.cut, truncation{typeName: typeName(t)})
		d.Circular = true
		return d, nil
	}
	if s.maxDepth > 0 && depth >= s.maxDepth {
		s.cut = append(s.cut, truncation{typeName: typeName(t), depth: true})
		d.Circular = true
		return d, nil
	}
	s.visiting[t.Id()] = true
	defer delete(s.visiting, t.Id())

	objFlags := shimchecker.Type_objectFlags(t)
	if objFlags&(shimchecker.ObjectFlagsClass|shimchecker.ObjectFlagsInterface) != 0 {
		of := uint32(objFlags)
		d.ObjectFlags = &of

		props := shimchecker.Checker_getPropertiesOfType(s.checker, t)
		d.Properties = make([]descriptor.Property, 0, len(props))
		for _, prop := range props {
			propType := shimchecker.Checker_getTypeOfSymbol(s.checker, prop)
			value, err := s.meta(propType, depth+1)
			if err != nil {
				return d, fmt.Errorf("property %q: %w", prop.Name, err)
			}
			d.Properties = append(d.Properties, descriptor.Property{
				Name:     prop.Name,
				Value:    value,
				Optional: prop.Flags&ast.SymbolFlagsOptional != 0,
			})
		}
	}

	if flags&(shimchecker.TypeFlagsUnion|shimchecker.TypeFlagsIntersection) != 0 {
		members := t.Types()
		d.Types = make([]descriptor.Descriptor, 0, len(members))
		for _, m := range members {
			md, err := s.meta(m, depth+1)
			if err != nil {
				return d, err
			}
			d.Types = append(d.Types, md)
		}
	}

	if flags&(shimchecker.TypeFlagsStringLiteral|shimchecker.TypeFlagsNumberLiteral) != 0 {
		if lit := t.AsLiteralType(); lit != nil {
			d.Value = literalValue(lit.Value())
		}
	}

	return d, nil
}

// literalValue converts a checker literal value (string or jsnum.Number) to
// a string or float64.
func literalValue(v any) any {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return val
	case int:
		return float64(val)
	case fmt.Stringer:
		var f float64
		if _, err := fmt.Sscanf(val.String(), "%g", &f); err == nil {
			return f
		}
	}
	var f float64
	if _, err := fmt.Sscanf(fmt.Sprintf("%v", v), "%g", &f); err == nil {
		return f
	}
	return nil
}

func typeName(t *shimchecker.Type) string {
	if sym := t.Symbol(); sym != nil && sym.Name != "" && sym.Name[0] != '\xfe' && sym.Name != "__type" {
		return sym.Name
	}
	return fmt.Sprintf("type #%d", t.Id())
}
