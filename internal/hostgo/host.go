// Package hostgo binds Go values to the converter through reflection.
package hostgo

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"sort"
	"time"

	"runtrace/internal/convert"
)

// Symbol is an interned name; it is recorded with the Symbol type.
type Symbol string

// Host implements convert.Host for Go values.
type Host struct{}

var _ convert.Host = Host{}

var (
	timeType   = reflect.TypeOf(time.Time{})
	regexpType = reflect.TypeOf(&regexp.Regexp{})
	bigIntType = reflect.TypeOf(&big.Int{})
	symbolType = reflect.TypeOf(Symbol(""))
)

// maxIndirections bounds pointer and interface hops taken in one Inspect.
// Longer chains, including self-referential ones, are unsupported.
const maxIndirections = 32

// Inspect describes one level of v. Collections longer than a positive limit
// are reported by length only.
func (Host) Inspect(v any, limit int) (convert.View, error) {
	rv := reflect.ValueOf(v)
	for hops := 0; rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface); hops++ {
		if rv.Type() == regexpType || rv.Type() == bigIntType {
			break
		}
		if rv.IsNil() {
			return convert.View{Shape: convert.ShapeNil}, nil
		}
		if hops == maxIndirections {
			return convert.View{Shape: convert.ShapeUnsupported, Class: rv.Type().String()}, nil
		}
		rv = rv.Elem()
	}
	return inspect(rv, limit)
}

func inspect(rv reflect.Value, limit int) (convert.View, error) {
	if !rv.IsValid() {
		return convert.View{Shape: convert.ShapeNil}, nil
	}
	t := rv.Type()
	switch t {
	case timeType:
		tm := rv.Interface().(time.Time)
		return convert.View{
			Shape:       convert.ShapeFixed,
			Class:       "Time",
			FieldNames:  []string{"sec", "nsec"},
			FieldValues: []any{tm.Unix(), int64(tm.Nanosecond())},
		}, nil
	case regexpType:
		if rv.IsNil() {
			return convert.View{Shape: convert.ShapeNil}, nil
		}
		re := rv.Interface().(*regexp.Regexp)
		return convert.View{
			Shape:       convert.ShapeFixed,
			Class:       "Regexp",
			FieldNames:  []string{"source", "groups"},
			FieldValues: []any{re.String(), re.NumSubexp()},
		}, nil
	case bigIntType:
		if rv.IsNil() {
			return convert.View{Shape: convert.ShapeNil}, nil
		}
		return convert.View{Shape: convert.ShapeBigInt, Class: "Integer", Big: new(big.Int).Set(rv.Interface().(*big.Int))}, nil
	case symbolType:
		return convert.View{Shape: convert.ShapeSymbol, Class: "Symbol", Text: []byte(rv.String())}, nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return convert.View{Shape: convert.ShapeBool, Bool: rv.Bool()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return convert.View{Shape: convert.ShapeInt, Int: rv.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return convert.View{Shape: convert.ShapeBigInt, Big: new(big.Int).SetUint64(u)}, nil
		}
		return convert.View{Shape: convert.ShapeInt, Int: int64(u)}, nil
	case reflect.Float32, reflect.Float64:
		return convert.View{Shape: convert.ShapeFloat, Float: rv.Float()}, nil
	case reflect.String:
		return convert.View{Shape: convert.ShapeString, Text: []byte(rv.String())}, nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return convert.View{Shape: convert.ShapeNil}, nil
		}
		if limit > 0 && rv.Len() > limit {
			return convert.View{Shape: convert.ShapeSequence, Class: t.String(), Len: rv.Len()}, nil
		}
		elems := make([]any, 0, rv.Len())
		for i := range rv.Len() {
			elems = append(elems, interfaceOf(rv.Index(i)))
		}
		return convert.View{Shape: convert.ShapeSequence, Class: t.String(), Elements: elems}, nil
	case reflect.Map:
		if rv.IsNil() {
			return convert.View{Shape: convert.ShapeNil}, nil
		}
		if limit > 0 && rv.Len() > limit {
			return convert.View{Shape: convert.ShapeMapping, Class: t.String(), Len: rv.Len()}, nil
		}
		return inspectMap(rv), nil
	case reflect.Struct:
		return inspectStruct(rv), nil
	default:
		return convert.View{Shape: convert.ShapeUnsupported, Class: t.String()}, nil
	}
}

func inspectMap(rv reflect.Value) convert.View {
	keys := rv.MapKeys()
	sorted := make([]struct {
		label string
		key   reflect.Value
	}, len(keys))
	for i, k := range keys {
		sorted[i].label = fmt.Sprint(interfaceOf(k))
		sorted[i].key = k
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].label < sorted[j].label })

	pairs := make([]convert.Pair, 0, len(sorted))
	for _, k := range sorted {
		pairs = append(pairs, convert.Pair{Key: interfaceOf(k.key), Value: interfaceOf(rv.MapIndex(k.key))})
	}
	return convert.View{Shape: convert.ShapeMapping, Class: rv.Type().String(), Pairs: pairs}
}

// inspectStruct exposes exported fields only; a struct with none is opaque.
func inspectStruct(rv reflect.Value) convert.View {
	t := rv.Type()
	view := convert.View{Shape: convert.ShapeRecord, Class: ClassName(t)}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		view.FieldNames = append(view.FieldNames, f.Name)
		view.FieldValues = append(view.FieldValues, interfaceOf(rv.Field(i)))
	}
	if len(view.FieldNames) == 0 {
		view.Shape = convert.ShapeObject
	}
	return view
}

// interfaceOf returns rv as an interface value, nil for unreadable values.
func interfaceOf(rv reflect.Value) any {
	if !rv.IsValid() || !rv.CanInterface() {
		return nil
	}
	return rv.Interface()
}

// Display renders v the way fmt would, preferring Stringer and error.
func (Host) Display(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "nil", nil
	case error:
		return x.Error(), nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return fmt.Sprintf("%+v", v), nil
	}
}

// ClassName returns the short class name of a Go type, dereferencing pointers.
func ClassName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// ClassOf is ClassName for a value; nil yields "nil".
func ClassOf(v any) string {
	if v == nil {
		return "nil"
	}
	return ClassName(reflect.TypeOf(v))
}
