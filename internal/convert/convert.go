package convert

import (
	"golang.org/x/text/encoding/unicode"

	"runtrace/internal/types"
	"runtrace/internal/values"
)

// DefaultDepth is the depth budget used for top-level conversions.
const DefaultDepth = 10

// DefaultMaxElements bounds collection sizes; larger ones are not expanded.
const DefaultMaxElements = 5000

// NotSupported is the message of Error values for unrepresentable input.
const NotSupported = "not supported"

// PairClass is the class name of flattened mapping entries.
const PairClass = "Pair"

// TypeSink is the part of the type registry the converter needs.
// *types.Registry implements it.
type TypeSink interface {
	Builtins() types.Builtins
	EnsureTypeID(kind types.Kind, name string) types.TypeID
	EnsureStructType(class string, fields []types.FieldTypeRecord) types.TypeID
	EnsureFixedStructType(class string, fields []types.FieldTypeRecord) types.TypeID
}

// Options tune a Converter.
type Options struct {
	// MaxElements caps collection sizes; 0 disables the cap.
	MaxElements int
}

// Converter maps host values to ValueRecords. It is not safe for concurrent
// use; the trace writer calls it while holding its lock.
type Converter struct {
	host  Host
	types TypeSink
	opts  Options
	count uint64
}

// New creates a converter over the given binding and registry.
func New(host Host, sink TypeSink, opts Options) *Converter {
	return &Converter{host: host, types: sink, opts: opts}
}

// Count returns how many values were expanded so far.
func (c *Converter) Count() uint64 { return c.count }

// ToValue converts v with the given remaining depth budget.
func (c *Converter) ToValue(v any, depth int) values.ValueRecord {
	b := c.types.Builtins()
	if depth <= 0 || v == nil {
		return values.None(b.NoType)
	}
	c.count++

	view, ok := c.inspect(v)
	if !ok {
		return c.rawFallback(v, view.Class)
	}

	switch view.Shape {
	case ShapeNil:
		return values.None(b.NoType)
	case ShapeBool:
		return values.Bool(view.Bool, b.Bool)
	case ShapeInt:
		return values.Int(view.Int, b.Int)
	case ShapeBigInt:
		return values.BigInt(view.Big, b.Int)
	case ShapeFloat:
		return values.Float(view.Float, b.Float)
	case ShapeString:
		return values.String(decodeLossy(view.Text), b.String)
	case ShapeSymbol:
		return values.String(decodeLossy(view.Text), b.Symbol)
	case ShapeSequence, ShapeSet:
		if c.tooLarge(max(view.Len, len(view.Elements))) {
			return values.Error(NotSupported, b.NoType)
		}
		class := classOr(view.Class, "Array")
		if view.Shape == ShapeSet {
			class = classOr(view.Class, "Set")
		}
		elems := make([]values.ValueRecord, 0, len(view.Elements))
		for _, e := range view.Elements {
			elems = append(elems, c.ToValue(e, depth-1))
		}
		return values.Sequence(elems, false, c.types.EnsureTypeID(types.KindSeq, class))
	case ShapeMapping:
		if c.tooLarge(max(view.Len, len(view.Pairs))) {
			return values.Error(NotSupported, b.NoType)
		}
		pairs := make([]values.ValueRecord, 0, len(view.Pairs))
		for _, p := range view.Pairs {
			pairs = append(pairs, c.structValue(PairClass, []string{"k", "v"}, []any{p.Key, p.Value}, depth, false))
		}
		return values.Sequence(pairs, false, c.types.EnsureTypeID(types.KindSeq, classOr(view.Class, "Hash")))
	case ShapeFixed:
		if len(view.FieldNames) != len(view.FieldValues) {
			return c.rawFallback(v, view.Class)
		}
		return c.structValue(classOr(view.Class, "Object"), view.FieldNames, view.FieldValues, depth, true)
	case ShapeRecord, ShapeObject:
		if view.FieldsErr != nil || len(view.FieldNames) == 0 || len(view.FieldNames) != len(view.FieldValues) {
			return c.rawFallback(v, view.Class)
		}
		return c.structValue(classOr(view.Class, "Object"), view.FieldNames, view.FieldValues, depth, false)
	default:
		return values.Error(NotSupported, b.NoType)
	}
}

// RawObject records v as its display text typed by class. Used for receivers.
func (c *Converter) RawObject(v any, class string) values.ValueRecord {
	return c.rawFallback(v, class)
}

// DisplayText renders v through the host, never failing.
func (c *Converter) DisplayText(v any) string {
	return SafeDisplay(c.host, v)
}

func (c *Converter) structValue(class string, names []string, raw []any, depth int, fixed bool) values.ValueRecord {
	fields := make([]values.ValueRecord, 0, len(raw))
	for _, f := range raw {
		fields = append(fields, c.ToValue(f, depth-1))
	}
	shape := make([]types.FieldTypeRecord, len(names))
	for i, n := range names {
		shape[i] = types.FieldTypeRecord{Name: n, TypeID: fields[i].Type()}
	}
	var id types.TypeID
	if fixed {
		id = c.types.EnsureFixedStructType(class, shape)
	} else {
		id = c.types.EnsureStructType(class, shape)
	}
	return values.Struct(fields, id)
}

func (c *Converter) rawFallback(v any, class string) values.ValueRecord {
	text := SafeDisplay(c.host, v)
	return values.Raw(text, c.types.EnsureTypeID(types.KindRaw, classOr(class, "Object")))
}

// inspect calls the binding behind a recover boundary.
func (c *Converter) inspect(v any) (view View, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	view, err := c.host.Inspect(v, c.opts.MaxElements)
	if err != nil {
		return view, false
	}
	return view, true
}

func (c *Converter) tooLarge(n int) bool {
	return c.opts.MaxElements > 0 && n > c.opts.MaxElements
}

// SafeDisplay calls host.Display and turns any error or panic into "".
func SafeDisplay(host Host, v any) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()
	s, err := host.Display(v)
	if err != nil {
		return ""
	}
	return decodeLossy([]byte(s))
}

// decodeLossy replaces invalid UTF-8 with U+FFFD; on decoder failure the
// text is dropped.
func decodeLossy(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(out)
}

func classOr(class, fallback string) string {
	if class == "" {
		return fallback
	}
	return class
}
