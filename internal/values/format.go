package values

import (
	"strconv"
	"strings"

	"runtrace/internal/types"
)

// TypeNamer resolves type ids for display. *types.Registry satisfies it.
type TypeNamer interface {
	Lookup(id types.TypeID) (types.TypeRecord, bool)
}

// Format renders v as a compact single-line preview.
// names may be nil, in which case struct fields are printed positionally.
func Format(v ValueRecord, names TypeNamer) string {
	var sb strings.Builder
	format(&sb, v, names)
	return sb.String()
}

func format(sb *strings.Builder, v ValueRecord, names TypeNamer) {
	switch v.Kind {
	case VKNone:
		sb.WriteString("nil")
	case VKInt:
		sb.WriteString(strconv.FormatInt(v.I, 10))
	case VKFloat:
		sb.WriteString(strconv.FormatFloat(v.F, 'g', -1, 64))
	case VKBool:
		sb.WriteString(strconv.FormatBool(v.B))
	case VKString:
		sb.WriteString(strconv.Quote(v.Text))
	case VKBigInt:
		sb.WriteString(v.Big().String())
	case VKSequence, VKTuple:
		open, closing := "[", "]"
		if v.Kind == VKTuple {
			open, closing = "(", ")"
		}
		sb.WriteString(open)
		for i, e := range v.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, e, names)
		}
		sb.WriteString(closing)
	case VKStruct:
		var fields []types.FieldTypeRecord
		if names != nil {
			if t, ok := names.Lookup(v.TypeID); ok {
				sb.WriteString(t.LangType)
				fields = t.Fields
			}
		}
		sb.WriteString("{")
		for i, f := range v.FieldValues {
			if i > 0 {
				sb.WriteString(", ")
			}
			if i < len(fields) {
				sb.WriteString(fields[i].Name)
				sb.WriteString(": ")
			}
			format(sb, f, names)
		}
		sb.WriteString("}")
	case VKVariant:
		sb.WriteString(v.Discriminator)
		if v.Contents != nil {
			sb.WriteString("(")
			format(sb, *v.Contents, names)
			sb.WriteString(")")
		}
	case VKReference:
		sb.WriteString("&")
		if v.Dereferenced != nil {
			format(sb, *v.Dereferenced, names)
		}
	case VKRaw:
		sb.WriteString(v.R)
	case VKError:
		sb.WriteString("<error: ")
		sb.WriteString(v.Msg)
		sb.WriteString(">")
	case VKCell:
		sb.WriteString("cell#")
		sb.WriteString(strconv.FormatInt(v.Place, 10))
	default:
		sb.WriteString("<?value>")
	}
}
