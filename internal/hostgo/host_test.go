package hostgo

import (
	"errors"
	"math"
	"math/big"
	"regexp"
	"testing"
	"time"

	"runtrace/internal/convert"
	"runtrace/internal/types"
	"runtrace/internal/values"
)

type Box struct {
	V any
}

type opaque struct {
	n int
}

type loud struct{}

func (loud) String() string { panic("nope") }

func newConverter() (*convert.Converter, *types.Registry) {
	reg := types.NewRegistry()
	return convert.New(Host{}, reg, convert.Options{MaxElements: convert.DefaultMaxElements}), reg
}

func TestStructVersions(t *testing.T) {
	c, reg := newConverter()
	a := c.ToValue(Box{V: 1}, convert.DefaultDepth)
	b := c.ToValue(Box{V: "s"}, convert.DefaultDepth)
	again := c.ToValue(&Box{V: 2}, convert.DefaultDepth)

	if got := reg.MustLookup(a.TypeID).LangType; got != "Box (#0)" {
		t.Fatalf("first shape: %q", got)
	}
	if got := reg.MustLookup(b.TypeID).LangType; got != "Box (#1)" {
		t.Fatalf("second shape: %q", got)
	}
	if again.TypeID != a.TypeID {
		t.Fatalf("pointer to same shape should reuse type %d, got %d", a.TypeID, again.TypeID)
	}
}

func TestDepthZero(t *testing.T) {
	c, reg := newConverter()
	got := c.ToValue([]int{1, 2}, 0)
	if got.Kind != values.VKNone || got.TypeID != reg.Builtins().NoType {
		t.Fatalf("depth 0: %+v", got)
	}
}

func TestMapPairsSorted(t *testing.T) {
	c, reg := newConverter()
	got := c.ToValue(map[string]int{"b": 2, "a": 1}, convert.DefaultDepth)
	if got.Kind != values.VKSequence || len(got.Elements) != 2 {
		t.Fatalf("map: %+v", got)
	}
	if name := reg.MustLookup(got.TypeID).LangType; name != "map[string]int" {
		t.Fatalf("map type: %q", name)
	}
	first := got.Elements[0]
	if first.FieldValues[0].Text != "a" || first.FieldValues[1].I != 1 {
		t.Fatalf("pairs should be sorted by key: %+v", first)
	}
}

func TestFixedTypes(t *testing.T) {
	c, reg := newConverter()
	tm := time.Unix(100, 5)
	got := c.ToValue(tm, convert.DefaultDepth)
	if rec := reg.MustLookup(got.TypeID); rec.LangType != "Time" || len(rec.Fields) != 2 {
		t.Fatalf("time type: %+v", rec)
	}
	if got.FieldValues[0].I != 100 || got.FieldValues[1].I != 5 {
		t.Fatalf("time fields: %+v", got.FieldValues)
	}
	re := c.ToValue(regexp.MustCompile(`a(b)`), convert.DefaultDepth)
	if reg.MustLookup(re.TypeID).LangType != "Regexp" || re.FieldValues[0].Text != "a(b)" || re.FieldValues[1].I != 1 {
		t.Fatalf("regexp: %+v", re)
	}
}

func TestNumbers(t *testing.T) {
	c, reg := newConverter()
	b := reg.Builtins()
	if got := c.ToValue(uint64(math.MaxUint64), 1); got.Kind != values.VKBigInt || got.TypeID != b.Int {
		t.Fatalf("large uint: %+v", got)
	}
	n, _ := new(big.Int).SetString("99999999999999999999", 10)
	if got := c.ToValue(n, 1); got.Big().Cmp(n) != 0 {
		t.Fatalf("big.Int: %s", got.Big())
	}
	if got := c.ToValue(float32(0.5), 1); got.Kind != values.VKFloat || got.F != 0.5 {
		t.Fatalf("float32: %+v", got)
	}
	if got := c.ToValue(Symbol("ok"), 1); got.TypeID != b.Symbol || got.Text != "ok" {
		t.Fatalf("symbol: %+v", got)
	}
}

func TestOpaqueAndUnsupported(t *testing.T) {
	c, reg := newConverter()
	got := c.ToValue(opaque{n: 3}, convert.DefaultDepth)
	if got.Kind != values.VKRaw || got.R != "{n:3}" {
		t.Fatalf("opaque struct: %+v", got)
	}
	if rec := reg.MustLookup(got.TypeID); rec.Kind != types.KindRaw || rec.LangType != "opaque" {
		t.Fatalf("opaque type: %+v", rec)
	}
	if got := c.ToValue(make(chan int), 1); got.Kind != values.VKError || got.Msg != convert.NotSupported {
		t.Fatalf("channel: %+v", got)
	}
	if got := c.ToValue(loud{}, 1); got.Kind != values.VKRaw || got.R != "" {
		t.Fatalf("panicking Stringer should give empty raw: %+v", got)
	}
}

func TestNilForms(t *testing.T) {
	c, _ := newConverter()
	var p *Box
	var s []int
	var m map[string]int
	for _, v := range []any{p, s, m, nil} {
		if got := c.ToValue(v, 1); got.Kind != values.VKNone {
			t.Fatalf("%T should be None, got %s", v, got.Kind)
		}
	}
}

func TestDisplay(t *testing.T) {
	h := Host{}
	if s, _ := h.Display(errors.New("bad")); s != "bad" {
		t.Fatalf("error display: %q", s)
	}
	if s, _ := h.Display(Box{V: 1}); s != "{V:1}" {
		t.Fatalf("struct display: %q", s)
	}
	if ClassOf(&Box{}) != "Box" || ClassOf(nil) != "nil" {
		t.Fatalf("class names: %q %q", ClassOf(&Box{}), ClassOf(nil))
	}
}

func TestSelfReferentialPointerTerminates(t *testing.T) {
	c, reg := newConverter()
	var a any
	a = &a
	got := c.ToValue(a, convert.DefaultDepth)
	if got.Kind != values.VKError || got.Msg != convert.NotSupported || got.TypeID != reg.Builtins().NoType {
		t.Fatalf("self-referential pointer: %+v", got)
	}

	n := 7
	p := &n
	pp := &p
	if got := c.ToValue(&pp, 1); got.Kind != values.VKInt || got.I != 7 {
		t.Fatalf("short pointer chain should resolve: %+v", got)
	}
}

func TestInspectSkipsOversizedCollections(t *testing.T) {
	h := Host{}
	tests := []struct {
		name  string
		value any
		shape convert.Shape
	}{
		{"slice", make([]int, 10), convert.ShapeSequence},
		{"array", [10]int{}, convert.ShapeSequence},
		{"map", map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 4: 4, 5: 5}, convert.ShapeMapping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := h.Inspect(tt.value, 5)
			if err != nil {
				t.Fatalf("inspect: %v", err)
			}
			if view.Shape != tt.shape || view.Elements != nil || view.Pairs != nil {
				t.Fatalf("children should not be copied: %+v", view)
			}
			if view.Len <= 5 {
				t.Fatalf("len = %d, want > 5", view.Len)
			}
		})
	}

	view, err := h.Inspect([]int{1, 2}, 5)
	if err != nil || len(view.Elements) != 2 {
		t.Fatalf("small slice: %+v, %v", view, err)
	}
}
