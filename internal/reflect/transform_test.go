package reflect

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	shimchecker "github.com/microsoft/typescript-go/shim/checker"
	"github.com/tsmeta/tsmeta/internal/diagnostic"
	"github.com/tsmeta/tsmeta/internal/glob"
)

const importMeta = "import { meta } from \"ts-transformer-meta\"\n"

func TestInterfaceProperties(t *testing.T) {
	r := transformSource(t, importMeta+`
interface Foo {
  a?: number
  b: string
}
export const m = meta<Foo>()
`)
	d := onlyCall(t, r)

	if d.Flags&uint32(shimchecker.TypeFlagsObject) == 0 {
		t.Errorf("flags %d should include Object", d.Flags)
	}
	if d.ObjectFlags == nil || *d.ObjectFlags&uint32(shimchecker.ObjectFlagsInterface) == 0 {
		t.Fatalf("objectFlags should include Interface, got %v", d.ObjectFlags)
	}
	if diff := cmp.Diff([]string{"a", "b"}, propertyNames(d)); diff != "" {
		t.Errorf("property names (-want +got):\n%s", diff)
	}
	a, b := d.Properties[0], d.Properties[1]
	if !a.Optional || b.Optional {
		t.Errorf("optional = %v, %v; want true, false", a.Optional, b.Optional)
	}
	if a.Value.Flags != uint32(shimchecker.TypeFlagsNumber) {
		t.Errorf("a flags = %d, want Number", a.Value.Flags)
	}
	if b.Value.Flags != uint32(shimchecker.TypeFlagsString) {
		t.Errorf("b flags = %d, want String", b.Value.Flags)
	}
	if d.Types != nil || d.Value != nil {
		t.Errorf("interface descriptor should carry only properties, got %+v", d)
	}
	if !r.Changed || strings.Contains(r.Text, "meta<Foo>()") {
		t.Errorf("call was not replaced:\n%s", r.Text)
	}
}

func TestNestedInterfaces(t *testing.T) {
	r := transformSource(t, importMeta+`
interface Bar { b: number }
interface Foo { a: Bar }
export const m = meta<Foo>()
`)
	d := onlyCall(t, r)
	inner := d.Properties[0].Value
	if inner.ObjectFlags == nil {
		t.Fatal("nested interface should carry objectFlags")
	}
	if diff := cmp.Diff([]string{"b"}, propertyNames(&inner)); diff != "" {
		t.Errorf("nested property names (-want +got):\n%s", diff)
	}
}

func TestClassProperties(t *testing.T) {
	r := transformSource(t, importMeta+`
class Biz {
  id = 1
  get foo() { return 42 }
}
export const m = meta<Biz>()
`)
	d := onlyCall(t, r)
	if d.ObjectFlags == nil || *d.ObjectFlags&uint32(shimchecker.ObjectFlagsClass) == 0 {
		t.Fatalf("objectFlags should include Class, got %v", d.ObjectFlags)
	}
	if diff := cmp.Diff([]string{"id", "foo"}, propertyNames(d)); diff != "" {
		t.Errorf("property names (-want +got):\n%s", diff)
	}
}

func TestEmptyInterface(t *testing.T) {
	r := transformSource(t, importMeta+`
interface Empty {}
export const m = meta<Empty>()
`)
	d := onlyCall(t, r)
	if d.Properties == nil || len(d.Properties) != 0 {
		t.Errorf("expected present but empty properties, got %#v", d.Properties)
	}
	if !strings.Contains(r.Text, "properties: []") {
		t.Errorf("expected empty properties array in output:\n%s", r.Text)
	}
}

func TestStringLiteralUnion(t *testing.T) {
	r := transformSource(t, importMeta+`export const m = meta<"foo" | "bar">()
`)
	d := onlyCall(t, r)
	if d.Flags&uint32(shimchecker.TypeFlagsUnion) == 0 {
		t.Errorf("flags %d should include Union", d.Flags)
	}
	sorted := cmpopts.SortSlices(func(a, b string) bool { return a < b })
	if diff := cmp.Diff([]string{"foo", "bar"}, values(d.Types), sorted); diff != "" {
		t.Errorf("member values (-want +got):\n%s", diff)
	}
	for _, m := range d.Types {
		if m.Flags != uint32(shimchecker.TypeFlagsStringLiteral) {
			t.Errorf("member flags = %d, want StringLiteral", m.Flags)
		}
	}
}

func TestEnumMembers(t *testing.T) {
	r := transformSource(t, importMeta+`
enum Alpha { A, B, C }
export const m = meta<Alpha>()
`)
	d := onlyCall(t, r)
	if d.Flags&uint32(shimchecker.TypeFlagsEnumLiteral) == 0 {
		t.Errorf("flags %d should include EnumLiteral", d.Flags)
	}
	if diff := cmp.Diff([]string{"0", "1", "2"}, values(d.Types)); diff != "" {
		t.Errorf("member values (-want +got):\n%s", diff)
	}
	if _, ok := d.Types[0].Value.(float64); !ok {
		t.Errorf("enum value should be a number, got %T", d.Types[0].Value)
	}
	if !strings.Contains(r.Text, "value: 0") {
		t.Errorf("numeric value not emitted as a number:\n%s", r.Text)
	}
}

func TestLiteralValues(t *testing.T) {
	tests := []struct {
		name     string
		typeText string
		want     any
	}{
		{"number", "42", float64(42)},
		{"negative", "-1.5", float64(-1.5)},
		{"string", `"hi"`, "hi"},
		{"boolean has no value", "true", nil},
		{"primitive has no value", "string", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := transformSource(t, importMeta+"export const m = meta<"+tt.typeText+">()\n")
			d := onlyCall(t, r)
			if diff := cmp.Diff(tt.want, d.Value); diff != "" {
				t.Errorf("value (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBigIntLiteralHasNoValue(t *testing.T) {
	r := transformSource(t, importMeta+"export const m = meta<123n>()\n")
	d := onlyCall(t, r)
	if d.Flags != uint32(shimchecker.TypeFlagsBigIntLiteral) {
		t.Errorf("flags = %d, want BigIntLiteral", d.Flags)
	}
	if d.Value != nil {
		t.Errorf("value = %v, want none", d.Value)
	}
	if strings.Contains(r.Text, "value:") || strings.Contains(r.Text, "123n") {
		t.Errorf("bigint literal printed a value:\n%s", r.Text)
	}
}

func TestIntersection(t *testing.T) {
	r := transformSource(t, importMeta+`
interface A { a: number }
interface B { b: number }
export const m = meta<A & B>()
`)
	d := onlyCall(t, r)
	if d.Flags&uint32(shimchecker.TypeFlagsIntersection) == 0 {
		t.Errorf("flags %d should include Intersection", d.Flags)
	}
	if len(d.Types) != 2 {
		t.Fatalf("expected 2 members, got %d", len(d.Types))
	}
	if d.ObjectFlags != nil {
		t.Error("intersection itself is not a class or interface")
	}
}

func TestMissingTypeArgument(t *testing.T) {
	r := transformSource(t, importMeta+"export const m = meta()\n")
	if !strings.Contains(r.Text, "export const m = []\n") {
		t.Errorf("expected empty array replacement:\n%s", r.Text)
	}
	if len(r.Calls) != 1 || r.Calls[0].Descriptor != nil {
		t.Errorf("expected one call without descriptor, got %+v", r.Calls)
	}
	if len(r.Diagnostics) != 1 || r.Diagnostics[0].Category != diagnostic.CategoryMissingTypeArgument {
		t.Fatalf("expected a missing-type-argument diagnostic, got %v", r.Diagnostics)
	}
	if r.Diagnostics[0].Severity != diagnostic.SeverityInfo {
		t.Errorf("severity = %v, want info", r.Diagnostics[0].Severity)
	}
}

func TestSameNamedFunctionPassesThrough(t *testing.T) {
	src := `
function meta<T>(): number { return 1 }
interface Foo { a: number }
export const m = meta<Foo>()
`
	r := transformSource(t, src)
	if r.Changed || r.Text != src || len(r.Calls) != 0 {
		t.Errorf("local meta() must not be replaced:\n%s", r.Text)
	}
}

func TestFileWithoutMarkerIsUnchanged(t *testing.T) {
	src := importMeta + `
// nothing to do here
export const x = [1, 2, 3].map(n => n * 2)
`
	r := transformSource(t, src)
	if r.Changed || r.Text != src {
		t.Errorf("file without marker calls changed:\n%s", r.Text)
	}
}

func TestImportForms(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"renamed", "import { meta as describe } from \"ts-transformer-meta\"\nexport const m = describe<number>()\n"},
		{"namespace", "import * as tm from \"ts-transformer-meta\"\nexport const m = tm.meta<number>()\n"},
		{"parenthesized", importMeta + "export const m = (meta)<number>()\n"},
		{"element access", "import * as tm from \"ts-transformer-meta\"\nexport const m = tm[\"meta\"]<number>()\n"},
		{"local alias", importMeta + "const describe = meta\nexport const m = describe<number>()\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := transformSource(t, tt.src)
			d := onlyCall(t, r)
			if d.Flags != uint32(shimchecker.TypeFlagsNumber) {
				t.Errorf("flags = %d, want Number", d.Flags)
			}
		})
	}
}

func TestMarkerFilesPinned(t *testing.T) {
	env := setupProject(t, map[string]string{
		"src/marker.ts": "export function meta<T>(): unknown { throw new Error(\"untransformed\") }\n",
		testFile:        "import { meta } from \"./marker\"\nexport const m = meta<string>()\n",
	}, Options{})
	r, err := env.tr.TransformFile(env.sourceFile(t, testFile))
	if err != nil {
		t.Fatal(err)
	}
	if r.Changed {
		t.Fatal("unpinned local marker should not be recognized")
	}

	opts := Options{MarkerFiles: []string{env.root + "/src/marker.ts"}}
	opts.Marker = DefaultOptions().Marker
	opts.MaxDepth = DefaultOptions().MaxDepth
	pinned := New(env.tr.checker, env.project.FS, opts)
	r, err = pinned.TransformFile(env.sourceFile(t, testFile))
	if err != nil {
		t.Fatal(err)
	}
	if !r.Changed {
		t.Error("pinned marker file should be recognized")
	}
}

func TestCycleEmitsPlaceholder(t *testing.T) {
	r := transformSource(t, importMeta+`
interface ListNode { value: number; next: ListNode }
export const m = meta<ListNode>()
`)
	d := onlyCall(t, r)
	next := d.Properties[1].Value
	if !next.Circular {
		t.Fatalf("expected circular placeholder for next, got %+v", next)
	}
	if next.Flags != d.Flags || next.Properties != nil {
		t.Errorf("placeholder should carry only flags, got %+v", next)
	}
	if !strings.Contains(r.Text, "circular: true") {
		t.Errorf("placeholder not printed:\n%s", r.Text)
	}
	if len(r.Diagnostics) != 1 || r.Diagnostics[0].Category != diagnostic.CategoryCircularType {
		t.Errorf("expected a circular-type warning, got %v", r.Diagnostics)
	}
}

func TestCycleThroughUnion(t *testing.T) {
	r := transformSource(t, importMeta+`
interface Tree { children: Tree[] | Tree | null }
export const m = meta<Tree>()
`)
	d := onlyCall(t, r)
	if !findCircular(d) {
		t.Error("expected a circular placeholder somewhere in the tree")
	}
}

func TestCycleError(t *testing.T) {
	env := setupProject(t, map[string]string{testFile: importMeta + `
interface ListNode { next: ListNode }
export const m = meta<ListNode>()
`}, Options{Marker: DefaultOptions().Marker, MaxDepth: 64, FailOnCycle: true})

	_, err := env.tr.TransformFile(env.sourceFile(t, testFile))
	if !errors.Is(err, ErrCircularType) {
		t.Fatalf("expected ErrCircularType, got %v", err)
	}
	if !strings.Contains(err.Error(), "test.ts:4:18") {
		t.Errorf("error should carry the call location, got %v", err)
	}
}

func TestRepeatedTypeIsNotACycle(t *testing.T) {
	r := transformSource(t, importMeta+`
interface Point { x: number; y: number }
interface Line { from: Point; to: Point }
export const m = meta<Line>()
`)
	d := onlyCall(t, r)
	if findCircular(d) {
		t.Error("sibling uses of one type must not be treated as a cycle")
	}
	if diff := cmp.Diff(d.Properties[0].Value, d.Properties[1].Value); diff != "" {
		t.Errorf("both points should be described identically:\n%s", diff)
	}
}

func TestMaxDepth(t *testing.T) {
	env := setupProject(t, map[string]string{testFile: importMeta + `
interface C { n: number }
interface B { c: C }
interface A { b: B }
export const m = meta<A>()
`}, Options{Marker: DefaultOptions().Marker, MaxDepth: 2})

	r, err := env.tr.TransformFile(env.sourceFile(t, testFile))
	if err != nil {
		t.Fatal(err)
	}
	d := onlyCall(t, r)
	c := d.Properties[0].Value.Properties[0].Value
	if !c.Circular || c.Properties != nil {
		t.Errorf("expected depth placeholder at C, got %+v", c)
	}
	if len(r.Diagnostics) != 1 || r.Diagnostics[0].Category != diagnostic.CategoryDepthExceeded {
		t.Errorf("expected a depth-exceeded warning, got %v", r.Diagnostics)
	}
}

func TestStatementAndArrowParens(t *testing.T) {
	r := transformSource(t, importMeta+`
interface Foo { a: number }
meta<Foo>()
meta<Foo>().properties
export const f = () => meta<Foo>()
export const g = () => [meta<Foo>()]
`)
	if len(r.Calls) != 4 {
		t.Fatalf("expected 4 calls, got %d", len(r.Calls))
	}
	if got := strings.Count(r.Text, ";({"); got != 2 {
		t.Errorf("expected 2 statement-level parenthesized literals, got %d:\n%s", got, r.Text)
	}
	if !strings.Contains(r.Text, "() => ({") {
		t.Errorf("arrow body literal should be parenthesized:\n%s", r.Text)
	}
	if !strings.Contains(r.Text, "() => [{") {
		t.Errorf("array element literal should not be parenthesized:\n%s", r.Text)
	}
}

func TestLeadingCommentKept(t *testing.T) {
	r := transformSource(t, importMeta+"export const m = /* shape */ meta<number>()\n")
	if !strings.Contains(r.Text, "/* shape */ {") {
		t.Errorf("leading comment should survive:\n%s", r.Text)
	}
}

func TestNestedCallInsideArguments(t *testing.T) {
	r := transformSource(t, importMeta+`
declare function use(x: unknown): void
use(meta<number>())
export const m = [meta<string>(), meta<boolean>()]
`)
	if len(r.Calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(r.Calls))
	}
	if strings.Contains(r.Text, "meta<") {
		t.Errorf("all calls should be replaced:\n%s", r.Text)
	}
	if r.Calls[0].Line != 4 || r.Calls[0].Column != 5 {
		t.Errorf("first call at %d:%d, want 4:5", r.Calls[0].Line, r.Calls[0].Column)
	}
}

func TestTransformProgramFiltersFiles(t *testing.T) {
	src := importMeta + "export const m = meta<number>()\n"
	env := setupProject(t, map[string]string{
		"src/a.ts":      src,
		"src/a.spec.ts": src,
		"scripts/b.ts":  src,
	}, Options{})

	opts := env.tr.opts
	opts.Files = glob.Set{Include: []string{"src/**/*.ts"}, Exclude: []string{"**/*.spec.ts"}}
	result, err := TransformProgram(context.Background(), env.project, opts)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, f := range result.Files {
		names = append(names, strings.TrimPrefix(f.FileName, env.root+"/"))
	}
	if diff := cmp.Diff([]string{"src/a.ts"}, names); diff != "" {
		t.Errorf("transformed files (-want +got):\n%s", diff)
	}
	if result.CallCount() != 1 {
		t.Errorf("CallCount() = %d, want 1", result.CallCount())
	}
	if _, ok := result.Rewritten()[env.root+"/src/a.ts"]; !ok {
		t.Error("rewritten sources should include src/a.ts")
	}
}

func TestTransformProgramCancelled(t *testing.T) {
	env := setupProject(t, map[string]string{testFile: importMeta + "export const m = meta<number>()\n"}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := TransformProgram(ctx, env.project, env.tr.opts); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
