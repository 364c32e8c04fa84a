// Package values defines the canonical value model recorded in traces.
package values

import (
	"fmt"
	"math/big"

	"runtrace/internal/types"
)

// ValueKind selects the active variant of a ValueRecord.
type ValueKind uint8

const (
	// VKNone represents the host's nothing/null and truncated values.
	VKNone ValueKind = iota
	// VKInt represents a signed 64-bit integer.
	VKInt
	// VKFloat represents a double.
	VKFloat
	// VKBool represents a boolean.
	VKBool
	// VKString represents text.
	VKString
	// VKBigInt represents an arbitrary-precision integer.
	VKBigInt
	// VKSequence represents an ordered collection.
	VKSequence
	// VKTuple represents a fixed-arity heterogeneous collection.
	VKTuple
	// VKStruct represents named fields, positionally matched with the type.
	VKStruct
	// VKVariant represents a tagged alternative with a payload.
	VKVariant
	// VKReference represents an indirection to another value.
	VKReference
	// VKRaw represents an opaque display-text fallback.
	VKRaw
	// VKError represents a value that could not be captured.
	VKError
	// VKCell represents a mutable slot; it is the only untyped variant.
	VKCell
)

var valueKindNames = [...]string{
	VKNone:      "None",
	VKInt:       "Int",
	VKFloat:     "Float",
	VKBool:      "Bool",
	VKString:    "String",
	VKBigInt:    "BigInt",
	VKSequence:  "Sequence",
	VKTuple:     "Tuple",
	VKStruct:    "Struct",
	VKVariant:   "Variant",
	VKReference: "Reference",
	VKRaw:       "Raw",
	VKError:     "Error",
	VKCell:      "Cell",
}

// String returns the persisted name of the kind.
func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return fmt.Sprintf("ValueKind(%d)", k)
}

// MarshalText renders the kind by name.
func (k ValueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *ValueKind) UnmarshalText(b []byte) error {
	s := string(b)
	for i, name := range valueKindNames {
		if name == s {
			*k = ValueKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown value kind %q", s)
}

// ValueRecord is one captured runtime value. Only the fields of the active
// Kind are meaningful; the rest stay zero and are omitted when encoded.
type ValueRecord struct {
	Kind   ValueKind    `json:"kind" msgpack:"kind"`
	TypeID types.TypeID `json:"type_id" msgpack:"type_id"`

	I    int64   `json:"i,omitempty" msgpack:"i,omitempty"`
	F    float64 `json:"f,omitempty" msgpack:"f,omitempty"`
	B    bool    `json:"b,omitempty" msgpack:"b,omitempty"`
	Text string  `json:"text,omitempty" msgpack:"text,omitempty"`
	R    string  `json:"r,omitempty" msgpack:"r,omitempty"`
	Msg  string  `json:"msg,omitempty" msgpack:"msg,omitempty"`

	// BigInt: big-endian magnitude plus sign.
	Magnitude []byte `json:"big,omitempty" msgpack:"big,omitempty"`
	Negative  bool   `json:"negative,omitempty" msgpack:"negative,omitempty"`

	Elements    []ValueRecord `json:"elements,omitempty" msgpack:"elements,omitempty"`
	IsSlice     bool          `json:"is_slice,omitempty" msgpack:"is_slice,omitempty"`
	FieldValues []ValueRecord `json:"field_values,omitempty" msgpack:"field_values,omitempty"`

	Discriminator string       `json:"discriminator,omitempty" msgpack:"discriminator,omitempty"`
	Contents      *ValueRecord `json:"contents,omitempty" msgpack:"contents,omitempty"`

	Dereferenced *ValueRecord `json:"dereferenced,omitempty" msgpack:"dereferenced,omitempty"`
	Address      uint64       `json:"address,omitempty" msgpack:"address,omitempty"`
	Mutable      bool         `json:"mutable,omitempty" msgpack:"mutable,omitempty"`

	Place int64 `json:"place,omitempty" msgpack:"place,omitempty"`
}

// Constructors ---------------------------------------------------------------

// Int builds an Int value.
func Int(i int64, t types.TypeID) ValueRecord {
	return ValueRecord{Kind: VKInt, TypeID: t, I: i}
}

// Float builds a Float value.
func Float(f float64, t types.TypeID) ValueRecord {
	return ValueRecord{Kind: VKFloat, TypeID: t, F: f}
}

// Bool builds a Bool value.
func Bool(b bool, t types.TypeID) ValueRecord {
	return ValueRecord{Kind: VKBool, TypeID: t, B: b}
}

// String builds a String value.
func String(text string, t types.TypeID) ValueRecord {
	return ValueRecord{Kind: VKString, TypeID: t, Text: text}
}

// BigInt builds a BigInt value from n. A nil n records zero.
func BigInt(n *big.Int, t types.TypeID) ValueRecord {
	v := ValueRecord{Kind: VKBigInt, TypeID: t}
	if n != nil {
		v.Magnitude = n.Bytes()
		v.Negative = n.Sign() < 0
	}
	return v
}

// Sequence builds a Sequence value.
func Sequence(elements []ValueRecord, isSlice bool, t types.TypeID) ValueRecord {
	return ValueRecord{Kind: VKSequence, TypeID: t, Elements: elements, IsSlice: isSlice}
}

// Tuple builds a Tuple value.
func Tuple(elements []ValueRecord, t types.TypeID) ValueRecord {
	return ValueRecord{Kind: VKTuple, TypeID: t, Elements: elements}
}

// Struct builds a Struct value.
func Struct(fields []ValueRecord, t types.TypeID) ValueRecord {
	return ValueRecord{Kind: VKStruct, TypeID: t, FieldValues: fields}
}

// Variant builds a Variant value.
func Variant(discriminator string, contents ValueRecord, t types.TypeID) ValueRecord {
	return ValueRecord{Kind: VKVariant, TypeID: t, Discriminator: discriminator, Contents: &contents}
}

// Reference builds a Reference value.
func Reference(target ValueRecord, address uint64, mutable bool, t types.TypeID) ValueRecord {
	return ValueRecord{Kind: VKReference, TypeID: t, Dereferenced: &target, Address: address, Mutable: mutable}
}

// Raw builds an opaque Raw value.
func Raw(r string, t types.TypeID) ValueRecord {
	return ValueRecord{Kind: VKRaw, TypeID: t, R: r}
}

// Error builds an Error value.
func Error(msg string, t types.TypeID) ValueRecord {
	return ValueRecord{Kind: VKError, TypeID: t, Msg: msg}
}

// Cell builds an untyped Cell value.
func Cell(place int64) ValueRecord {
	return ValueRecord{Kind: VKCell, TypeID: types.NoTypeID, Place: place}
}

// None builds a None value.
func None(t types.TypeID) ValueRecord {
	return ValueRecord{Kind: VKNone, TypeID: t}
}

// Accessors ------------------------------------------------------------------

// Type returns the type handle; Cell reports NoTypeID.
func (v ValueRecord) Type() types.TypeID {
	if v.Kind == VKCell {
		return types.NoTypeID
	}
	return v.TypeID
}

// Big reassembles a BigInt value. It returns nil for other kinds.
func (v ValueRecord) Big() *big.Int {
	if v.Kind != VKBigInt {
		return nil
	}
	n := new(big.Int).SetBytes(v.Magnitude)
	if v.Negative {
		n.Neg(n)
	}
	return n
}

// Walk calls fn for v and every nested value, depth first.
func (v ValueRecord) Walk(fn func(ValueRecord)) {
	fn(v)
	for _, e := range v.Elements {
		e.Walk(fn)
	}
	for _, f := range v.FieldValues {
		f.Walk(fn)
	}
	if v.Contents != nil {
		v.Contents.Walk(fn)
	}
	if v.Dereferenced != nil {
		v.Dereferenced.Walk(fn)
	}
}

// VariableID is the interned handle of a variable name.
type VariableID uint32

// FullValueRecord binds a variable occurrence to its value.
type FullValueRecord struct {
	VariableID VariableID  `json:"variable_id" msgpack:"variable_id"`
	Value      ValueRecord `json:"value" msgpack:"value"`
}
