package types

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the baseline primitive types.
type Builtins struct {
	Int    TypeID
	Float  TypeID
	String TypeID
	Bool   TypeID
	Symbol TypeID
	NoType TypeID // error sentinel used by None and unsupported values
}

// Baseline type names, registered at construction in this order.
const (
	IntName    = "Integer"
	FloatName  = "Float"
	StringName = "String"
	BoolName   = "Bool"
	SymbolName = "Symbol"
	NoTypeName = "No type"
)

type typeKey struct {
	Kind Kind
	Name string
}

// Registry interns type descriptors and hands out stable TypeIDs.
// It is not safe for concurrent use; the trace writer serializes access.
type Registry struct {
	types    []TypeRecord
	index    map[typeKey]TypeID
	builtins Builtins

	// per-class struct shape bookkeeping
	versions map[string]int
	shapes   map[string]TypeID
	fixed    map[string]TypeID
}

// NewRegistry constructs a registry seeded with the baseline primitives.
func NewRegistry() *Registry {
	r := &Registry{
		index:    make(map[typeKey]TypeID, 64),
		versions: make(map[string]int),
		shapes:   make(map[string]TypeID),
		fixed:    make(map[string]TypeID),
	}
	r.types = append(r.types, TypeRecord{Kind: KindNone}) // reserve 0 as NoTypeID
	r.builtins.Int = r.EnsureTypeID(KindInt, IntName)
	r.builtins.Float = r.EnsureTypeID(KindFloat, FloatName)
	r.builtins.String = r.EnsureTypeID(KindString, StringName)
	r.builtins.Bool = r.EnsureTypeID(KindBool, BoolName)
	r.builtins.Symbol = r.EnsureTypeID(KindString, SymbolName)
	r.builtins.NoType = r.EnsureTypeID(KindError, NoTypeName)
	return r
}

// Builtins returns TypeIDs for the baseline types.
func (r *Registry) Builtins() Builtins {
	return r.builtins
}

// EnsureTypeID returns the id registered for (kind, name), allocating one on
// first use.
func (r *Registry) EnsureTypeID(kind Kind, name string) TypeID {
	key := typeKey{Kind: kind, Name: name}
	if id, ok := r.index[key]; ok {
		return id
	}
	id := r.EnsureRawTypeID(MakeType(kind, name))
	r.index[key] = id
	return id
}

// EnsureRawTypeID stores the record as given and always allocates a new id.
func (r *Registry) EnsureRawTypeID(t TypeRecord) TypeID {
	n, err := safecast.Conv[uint32](len(r.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	r.types = append(r.types, t)
	return TypeID(n)
}

// NextStructVersion returns the next shape version for class, starting at 0.
func (r *Registry) NextStructVersion(class string) int {
	v, seen := r.versions[class]
	if seen {
		v++
	}
	r.versions[class] = v
	return v
}

// EnsureStructType returns the id of the struct shape (class, fields).
// A shape not seen before for this class gets the next version and is
// registered as "<class> (#<version>)".
func (r *Registry) EnsureStructType(class string, fields []FieldTypeRecord) TypeID {
	key := shapeKey(class, fields)
	if id, ok := r.shapes[key]; ok {
		return id
	}
	v := r.NextStructVersion(class)
	id := r.EnsureRawTypeID(MakeStruct(VersionedName(class, v), fields))
	r.shapes[key] = id
	return id
}

// EnsureFixedStructType registers one struct entry per class name. Used for
// host values whose field list is hardcoded (ranges, times, patterns), so the
// first occurrence fixes the field types.
func (r *Registry) EnsureFixedStructType(class string, fields []FieldTypeRecord) TypeID {
	if id, ok := r.fixed[class]; ok {
		return id
	}
	id := r.EnsureRawTypeID(MakeStruct(class, fields))
	r.fixed[class] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (r *Registry) Lookup(id TypeID) (TypeRecord, bool) {
	if id == NoTypeID || int(id) >= len(r.types) {
		return TypeRecord{}, false
	}
	return r.types[id], true
}

// MustLookup panics when id is invalid.
func (r *Registry) MustLookup(id TypeID) TypeRecord {
	t, ok := r.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return t
}

// Len reports how many types are registered, excluding the reserved slot.
func (r *Registry) Len() int {
	return len(r.types) - 1
}

// Snapshot copies the registered records in id order. Entry i has id i+1.
func (r *Registry) Snapshot() []TypeRecord {
	out := make([]TypeRecord, len(r.types)-1)
	copy(out, r.types[1:])
	return out
}

func shapeKey(class string, fields []FieldTypeRecord) string {
	var sb strings.Builder
	sb.WriteString(class)
	for _, f := range fields {
		sb.WriteByte(0)
		sb.WriteString(f.Name)
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(uint64(f.TypeID), 10))
	}
	return sb.String()
}
