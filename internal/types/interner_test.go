package types

import "testing"

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()
	b := r.Builtins()
	ids := []TypeID{b.Int, b.Float, b.String, b.Bool, b.Symbol, b.NoType}
	for i, id := range ids {
		if id != TypeID(i+1) {
			t.Fatalf("builtin %d: got id %d, want %d", i, id, i+1)
		}
	}
	sym, _ := r.Lookup(b.Symbol)
	if sym.Kind != KindString || sym.LangType != SymbolName {
		t.Fatalf("unexpected symbol type %+v", sym)
	}
	none, _ := r.Lookup(b.NoType)
	if none.Kind != KindError {
		t.Fatalf("expected error kind for sentinel, got %v", none.Kind)
	}
	if r.Len() != 6 {
		t.Fatalf("expected 6 baseline types, got %d", r.Len())
	}
}

func TestEnsureTypeIDIsIdempotent(t *testing.T) {
	r := NewRegistry()
	a := r.EnsureTypeID(KindSeq, "Array")
	b := r.EnsureTypeID(KindSeq, "Array")
	if a != b {
		t.Fatalf("expected same id, got %d and %d", a, b)
	}
	if r.EnsureTypeID(KindInt, IntName) != r.Builtins().Int {
		t.Fatalf("baseline lookup allocated a duplicate")
	}
}

func TestKindParticipatesInIdentity(t *testing.T) {
	r := NewRegistry()
	raw := r.EnsureTypeID(KindRaw, "Point")
	seq := r.EnsureTypeID(KindSeq, "Point")
	if raw == seq {
		t.Fatalf("same name with different kinds must not collapse")
	}
}

func TestEnsureRawTypeIDAlwaysAllocates(t *testing.T) {
	r := NewRegistry()
	rec := MakeStruct("Point (#0)", nil)
	a := r.EnsureRawTypeID(rec)
	b := r.EnsureRawTypeID(rec)
	if a == b {
		t.Fatalf("raw registration must not dedupe")
	}
}

func TestStructVersioning(t *testing.T) {
	r := NewRegistry()
	b := r.Builtins()
	xy := []FieldTypeRecord{{Name: "x", TypeID: b.Int}, {Name: "y", TypeID: b.Int}}
	xyz := []FieldTypeRecord{{Name: "x", TypeID: b.Int}, {Name: "y", TypeID: b.Int}, {Name: "z", TypeID: b.Int}}

	first := r.EnsureStructType("Point", xy)
	second := r.EnsureStructType("Point", xyz)
	again := r.EnsureStructType("Point", xy)

	if first == second {
		t.Fatalf("different shapes share an id")
	}
	if again != first {
		t.Fatalf("repeated shape was not memoized")
	}
	if got := r.MustLookup(first).LangType; got != "Point (#0)" {
		t.Fatalf("first shape name = %q", got)
	}
	if got := r.MustLookup(second).LangType; got != "Point (#1)" {
		t.Fatalf("second shape name = %q", got)
	}
	if got := r.MustLookup(second).Fields; len(got) != 3 || got[2].Name != "z" {
		t.Fatalf("fields not stored: %+v", got)
	}
}

func TestFieldTypeChangeIsANewShape(t *testing.T) {
	r := NewRegistry()
	b := r.Builtins()
	a := r.EnsureStructType("Pair", []FieldTypeRecord{{Name: "k", TypeID: b.String}, {Name: "v", TypeID: b.Int}})
	c := r.EnsureStructType("Pair", []FieldTypeRecord{{Name: "k", TypeID: b.String}, {Name: "v", TypeID: b.String}})
	if a == c {
		t.Fatalf("field type change must produce a new version")
	}
}

func TestNextStructVersionPerClass(t *testing.T) {
	r := NewRegistry()
	if v := r.NextStructVersion("A"); v != 0 {
		t.Fatalf("first version = %d", v)
	}
	if v := r.NextStructVersion("B"); v != 0 {
		t.Fatalf("counter leaked across classes: %d", v)
	}
	if v := r.NextStructVersion("A"); v != 1 {
		t.Fatalf("second version = %d", v)
	}
}

func TestFixedStructTypeIsUnversioned(t *testing.T) {
	r := NewRegistry()
	b := r.Builtins()
	fields := []FieldTypeRecord{{Name: "begin", TypeID: b.Int}, {Name: "end", TypeID: b.Int}}
	a := r.EnsureFixedStructType("Range", fields)
	c := r.EnsureFixedStructType("Range", nil)
	if a != c {
		t.Fatalf("fixed struct registered twice")
	}
	if got := r.MustLookup(a).LangType; got != "Range" {
		t.Fatalf("fixed struct name = %q", got)
	}
}

func TestSnapshotSkipsReservedSlot(t *testing.T) {
	r := NewRegistry()
	snap := r.Snapshot()
	if len(snap) != r.Len() {
		t.Fatalf("snapshot len %d, registry len %d", len(snap), r.Len())
	}
	if snap[0].LangType != IntName {
		t.Fatalf("snapshot[0] = %q", snap[0].LangType)
	}
}

func TestKindTextRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindSeq, KindStruct, KindInt, KindRaw, KindError, KindNone, KindSlice} {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", k, err)
		}
		var got Kind
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("unmarshal %q: %v", b, err)
		}
		if got != k {
			t.Fatalf("round trip %v -> %v", k, got)
		}
	}
	if KindStruct != 6 || KindInt != 7 || KindRaw != 16 || KindError != 24 || KindNone != 30 {
		t.Fatalf("persisted kind numbering drifted")
	}
}
