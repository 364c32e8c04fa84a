// Package convert turns host runtime values into canonical ValueRecords.
//
// A host binding describes one level of a value at a time through Host.Inspect;
// the Converter walks children with a shrinking depth budget and registers the
// types it needs. Hitting the budget yields a None value, which is also how
// cyclic structures terminate.
package convert

import (
	"fmt"
	"math/big"
)

// Shape classifies a host value for conversion.
type Shape uint8

const (
	// ShapeNil is the host's nothing/null sentinel.
	ShapeNil Shape = iota
	ShapeBool
	ShapeInt
	ShapeBigInt
	ShapeFloat
	ShapeString
	// ShapeSymbol is an interned name; recorded as a String with the Symbol type.
	ShapeSymbol
	// ShapeSequence is an ordered collection.
	ShapeSequence
	// ShapeSet is an unordered collection, recorded like a sequence.
	ShapeSet
	// ShapeMapping is a key/value collection, flattened into Pair structs.
	ShapeMapping
	// ShapeFixed is a value with a hardcoded field list (range, time, pattern).
	ShapeFixed
	// ShapeRecord is a host record type with declared fields.
	ShapeRecord
	// ShapeObject is an arbitrary object, possibly with named slots.
	ShapeObject
	// ShapeUnsupported has no representation.
	ShapeUnsupported
)

// String returns the string representation of Shape.
func (s Shape) String() string {
	switch s {
	case ShapeNil:
		return "nil"
	case ShapeBool:
		return "bool"
	case ShapeInt:
		return "int"
	case ShapeBigInt:
		return "bigint"
	case ShapeFloat:
		return "float"
	case ShapeString:
		return "string"
	case ShapeSymbol:
		return "symbol"
	case ShapeSequence:
		return "sequence"
	case ShapeSet:
		return "set"
	case ShapeMapping:
		return "mapping"
	case ShapeFixed:
		return "fixed"
	case ShapeRecord:
		return "record"
	case ShapeObject:
		return "object"
	case ShapeUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("Shape(%d)", s)
	}
}

// Pair is one entry of a mapping.
type Pair struct {
	Key   any
	Value any
}

// View is a one-level description of a host value. Children stay opaque and
// are inspected only if the depth budget allows.
type View struct {
	Shape Shape
	Class string // host class name, used for type names

	Bool  bool
	Int   int64
	Big   *big.Int
	Float float64
	Text  []byte // raw host bytes for String/Symbol, decoded lossily

	Elements []any  // Sequence, Set
	Pairs    []Pair // Mapping
	Len      int    // collection size when Elements/Pairs were not copied

	FieldNames  []string // Fixed, Record, Object
	FieldValues []any
	FieldsErr   error // field introspection failed (Record, Object)
}

// Host is the contract a language binding implements.
//
// Inspect must not recurse into children. When limit is positive and a
// collection holds more than limit entries, Inspect may report only its Len
// and skip copying the children. Display renders a value for the Raw fallback
// and for error messages; it may run arbitrary host code, so the converter
// calls it behind a protected boundary.
type Host interface {
	Inspect(v any, limit int) (View, error)
	Display(v any) (string, error)
}
