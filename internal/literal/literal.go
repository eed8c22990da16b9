// Package literal models the small subset of JavaScript expressions that
// reflected type metadata is materialized into: object, array, string,
// number and boolean literals.
package literal

// Expr is a literal expression node. The set of implementations is closed.
type Expr interface {
	isExpr()
}

type exprBase struct{}

func (exprBase) isExpr() {}

// Entry is a single `key: value` pair of an object literal.
type Entry struct {
	Key   string
	Value Expr
}

// Object is an object literal. Keys are printed verbatim, so they must be
// valid identifier names.
type Object struct {
	exprBase
	Entries []Entry

	// MultiLine prints one entry per line.
	MultiLine bool
}

// Array is an array literal.
type Array struct {
	exprBase
	Elements []Expr
}

// String is a string literal.
type String struct {
	exprBase
	Value string
}

// Number is a numeric literal.
type Number struct {
	exprBase
	Value float64
}

// Bool is a `true` or `false` keyword.
type Bool struct {
	exprBase
	Value bool
}

// Obj returns a multi-line object literal with the given entries.
func Obj(entries ...Entry) *Object {
	return &Object{Entries: entries, MultiLine: true}
}

// Arr returns an array literal.
func Arr(elements ...Expr) *Array {
	if elements == nil {
		elements = []Expr{}
	}
	return &Array{Elements: elements}
}

// Str returns a string literal.
func Str(s string) *String { return &String{Value: s} }

// Num returns a numeric literal.
func Num(f float64) *Number { return &Number{Value: f} }

// Int returns a numeric literal for an integer value.
func Int(i int64) *Number { return &Number{Value: float64(i)} }

// Boolean returns a boolean literal.
func Boolean(b bool) *Bool { return &Bool{Value: b} }

// Set appends an entry to the object and returns it.
func (o *Object) Set(key string, value Expr) *Object {
	o.Entries = append(o.Entries, Entry{Key: key, Value: value})
	return o
}

// Get returns the value of the first entry with the given key.
func (o *Object) Get(key string) (Expr, bool) {
	for _, e := range o.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}
