package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TypeID uniquely identifies a type inside the registry.
type TypeID uint32

// NoTypeID marks the absence of a type. Cell values carry it.
const NoTypeID TypeID = 0

// Kind enumerates the type kinds understood by trace consumers.
// Numeric values are part of the persisted format; append only.
type Kind uint8

const (
	KindSeq Kind = iota
	KindSet
	KindHashSet
	KindOrderedSet
	KindArray
	KindVarargs
	KindStruct
	KindInt
	KindFloat
	KindString
	KindCString
	KindChar
	KindBool
	KindLiteral
	KindRef
	KindRecursion
	KindRaw
	KindEnum
	KindEnum16
	KindEnum32
	KindC
	KindTable
	KindUnion
	KindPointer
	KindError
	KindFunction
	KindTypeValue
	KindTuple
	KindVariant
	KindHTML
	KindNone
	KindNonExpanded
	KindAny
	KindSlice
)

var kindNames = [...]string{
	KindSeq:         "Seq",
	KindSet:         "Set",
	KindHashSet:     "HashSet",
	KindOrderedSet:  "OrderedSet",
	KindArray:       "Array",
	KindVarargs:     "Varargs",
	KindStruct:      "Struct",
	KindInt:         "Int",
	KindFloat:       "Float",
	KindString:      "String",
	KindCString:     "CString",
	KindChar:        "Char",
	KindBool:        "Bool",
	KindLiteral:     "Literal",
	KindRef:         "Ref",
	KindRecursion:   "Recursion",
	KindRaw:         "Raw",
	KindEnum:        "Enum",
	KindEnum16:      "Enum16",
	KindEnum32:      "Enum32",
	KindC:           "C",
	KindTable:       "TableKind",
	KindUnion:       "Union",
	KindPointer:     "Pointer",
	KindError:       "Error",
	KindFunction:    "FunctionKind",
	KindTypeValue:   "TypeValue",
	KindTuple:       "Tuple",
	KindVariant:     "Variant",
	KindHTML:        "Html",
	KindNone:        "None",
	KindNonExpanded: "NonExpanded",
	KindAny:         "Any",
	KindSlice:       "Slice",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown type kind %q", s)
}

// MarshalText renders the kind by name in JSON metadata.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// FieldTypeRecord names one field of a struct-shaped type.
type FieldTypeRecord struct {
	Name   string `json:"name" msgpack:"name"`
	TypeID TypeID `json:"type_id" msgpack:"type_id"`
}

// TypeRecord is a registered type descriptor.
// Fields is only populated for KindStruct.
type TypeRecord struct {
	Kind     Kind              `json:"kind" msgpack:"kind"`
	LangType string            `json:"lang_type" msgpack:"lang_type"`
	Fields   []FieldTypeRecord `json:"-" msgpack:"fields,omitempty"`
}

type specificInfo struct {
	Kind   string            `json:"kind"`
	Fields []FieldTypeRecord `json:"fields,omitempty"`
}

type typeRecordJSON struct {
	Kind         Kind         `json:"kind"`
	LangType     string       `json:"lang_type"`
	SpecificInfo specificInfo `json:"specific_info"`
}

// MarshalJSON emits the specific_info envelope consumers expect:
// {"kind":"None"} for plain types, {"kind":"Struct","fields":[...]} for structs.
func (t TypeRecord) MarshalJSON() ([]byte, error) {
	out := typeRecordJSON{Kind: t.Kind, LangType: t.LangType, SpecificInfo: specificInfo{Kind: "None"}}
	if t.Kind == KindStruct {
		out.SpecificInfo = specificInfo{Kind: "Struct", Fields: t.Fields}
		if out.SpecificInfo.Fields == nil {
			out.SpecificInfo.Fields = []FieldTypeRecord{}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the layout produced by MarshalJSON.
func (t *TypeRecord) UnmarshalJSON(b []byte) error {
	var in typeRecordJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	t.Kind = in.Kind
	t.LangType = in.LangType
	t.Fields = nil
	if in.SpecificInfo.Kind == "Struct" {
		t.Fields = in.SpecificInfo.Fields
	}
	return nil
}

// Descriptor helpers ---------------------------------------------------------

// MakeType describes a type without specific info.
func MakeType(kind Kind, name string) TypeRecord {
	return TypeRecord{Kind: kind, LangType: name}
}

// MakeStruct describes a struct type with the given fields.
func MakeStruct(name string, fields []FieldTypeRecord) TypeRecord {
	cp := append([]FieldTypeRecord(nil), fields...)
	return TypeRecord{Kind: KindStruct, LangType: name, Fields: cp}
}

// VersionedName builds the display name of the v-th shape of a class.
func VersionedName(class string, v int) string {
	return fmt.Sprintf("%s (#%d)", class, v)
}

// Table is a loaded type list as persisted in trace metadata: entry i has
// id i+1.
type Table []TypeRecord

// Lookup returns the type registered under id.
func (t Table) Lookup(id TypeID) (TypeRecord, bool) {
	if id == NoTypeID || int(id) > len(t) {
		return TypeRecord{}, false
	}
	return t[id-1], true
}
