package goadsym

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrpasztoradam/goadsym/internal/ads"
)

// Kind identifies the variant held by a Variable.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindString
	KindArray
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Variable is a value read from or written to a device variable.
// The set of implementations is closed: Void, Bool, I8, I16, I32, I64, U8,
// U16, U32, U64, F32, F64, String, Array and Struct.
type Variable interface {
	Kind() Kind
	String() string
	variable()
}

type (
	Void   struct{}
	Bool   bool
	I8     int8
	I16    int16
	I32    int32
	I64    int64
	U8     uint8
	U16    uint16
	U32    uint32
	U64    uint64
	F32    float32
	F64    float64
	String string
)

// Array is one dimension of an array value. Elements of a multi-dimensional
// array are themselves Arrays.
type Array struct {
	Start    StartIndex
	Elements []Variable
}

// Struct carries the fields a caller chose to set, in caller order.
type Struct struct {
	Fields []Field
}

// Field is a named struct member.
type Field struct {
	Name  string
	Value Variable
}

// StartIndex is the first index of an Array. The zero value means "the
// declared lower bound"; StartAt pins an explicit index that must match the
// declaration when written.
type StartIndex struct {
	index    int32
	explicit bool
}

// StartAt returns an explicit start index.
func StartAt(index int32) StartIndex {
	return StartIndex{index: index, explicit: true}
}

// Index returns the explicit start index, if any.
func (s StartIndex) Index() (int32, bool) {
	return s.index, s.explicit
}

func (s StartIndex) String() string {
	if !s.explicit {
		return "declared"
	}
	return strconv.FormatInt(int64(s.index), 10)
}

// NewArray builds an array value starting at the declared lower bound.
func NewArray(elements ...Variable) Array {
	return Array{Elements: elements}
}

// NewStruct builds a struct value from name/value pairs.
func NewStruct(fields ...Field) Struct {
	return Struct{Fields: fields}
}

func (Void) Kind() Kind   { return KindVoid }
func (Bool) Kind() Kind   { return KindBool }
func (I8) Kind() Kind     { return KindI8 }
func (I16) Kind() Kind    { return KindI16 }
func (I32) Kind() Kind    { return KindI32 }
func (I64) Kind() Kind    { return KindI64 }
func (U8) Kind() Kind     { return KindU8 }
func (U16) Kind() Kind    { return KindU16 }
func (U32) Kind() Kind    { return KindU32 }
func (U64) Kind() Kind    { return KindU64 }
func (F32) Kind() Kind    { return KindF32 }
func (F64) Kind() Kind    { return KindF64 }
func (String) Kind() Kind { return KindString }
func (Array) Kind() Kind  { return KindArray }
func (Struct) Kind() Kind { return KindStruct }

func (Void) variable()   {}
func (Bool) variable()   {}
func (I8) variable()     {}
func (I16) variable()    {}
func (I32) variable()    {}
func (I64) variable()    {}
func (U8) variable()     {}
func (U16) variable()    {}
func (U32) variable()    {}
func (U64) variable()    {}
func (F32) variable()    {}
func (F64) variable()    {}
func (String) variable() {}
func (Array) variable()  {}
func (Struct) variable() {}

// String renders values in the literal syntax accepted by ParseLiteral.

func (Void) String() string     { return "" }
func (v Bool) String() string   { return strconv.FormatBool(bool(v)) }
func (v I8) String() string     { return strconv.FormatInt(int64(v), 10) }
func (v I16) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v I32) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v I64) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v U8) String() string     { return strconv.FormatUint(uint64(v), 10) }
func (v U16) String() string    { return strconv.FormatUint(uint64(v), 10) }
func (v U32) String() string    { return strconv.FormatUint(uint64(v), 10) }
func (v U64) String() string    { return strconv.FormatUint(uint64(v), 10) }
func (v F32) String() string    { return strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (v F64) String() string    { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v String) String() string { return QuoteLiteral(string(v)) }

func (v Array) String() string {
	parts := make([]string, len(v.Elements))
	for i, el := range v.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (v Struct) String() string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = f.Name + ": " + f.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Field returns the value of the named field.
func (v Struct) Field(name string) (Variable, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func mismatch(want Kind, got Variable) error {
	if got == nil {
		return fmt.Errorf("%w: expected %s, got nil", ads.ErrTypeMismatch, want)
	}
	return fmt.Errorf("%w: expected %s, got %s %s", ads.ErrTypeMismatch, want, got.Kind(), got)
}

// AsBool returns the value of a Bool.
func AsBool(v Variable) (bool, error) {
	if b, ok := v.(Bool); ok {
		return bool(b), nil
	}
	return false, mismatch(KindBool, v)
}

func AsInt8(v Variable) (int8, error) {
	if n, ok := v.(I8); ok {
		return int8(n), nil
	}
	return 0, mismatch(KindI8, v)
}

func AsInt16(v Variable) (int16, error) {
	if n, ok := v.(I16); ok {
		return int16(n), nil
	}
	return 0, mismatch(KindI16, v)
}

func AsInt32(v Variable) (int32, error) {
	if n, ok := v.(I32); ok {
		return int32(n), nil
	}
	return 0, mismatch(KindI32, v)
}

func AsInt64(v Variable) (int64, error) {
	if n, ok := v.(I64); ok {
		return int64(n), nil
	}
	return 0, mismatch(KindI64, v)
}

func AsUint8(v Variable) (uint8, error) {
	if n, ok := v.(U8); ok {
		return uint8(n), nil
	}
	return 0, mismatch(KindU8, v)
}

func AsUint16(v Variable) (uint16, error) {
	if n, ok := v.(U16); ok {
		return uint16(n), nil
	}
	return 0, mismatch(KindU16, v)
}

func AsUint32(v Variable) (uint32, error) {
	if n, ok := v.(U32); ok {
		return uint32(n), nil
	}
	return 0, mismatch(KindU32, v)
}

func AsUint64(v Variable) (uint64, error) {
	if n, ok := v.(U64); ok {
		return uint64(n), nil
	}
	return 0, mismatch(KindU64, v)
}

func AsFloat32(v Variable) (float32, error) {
	if f, ok := v.(F32); ok {
		return float32(f), nil
	}
	return 0, mismatch(KindF32, v)
}

func AsFloat64(v Variable) (float64, error) {
	if f, ok := v.(F64); ok {
		return float64(f), nil
	}
	return 0, mismatch(KindF64, v)
}

// AsString returns the text of a String.
func AsString(v Variable) (string, error) {
	if s, ok := v.(String); ok {
		return string(s), nil
	}
	return "", mismatch(KindString, v)
}

// AsElements returns the elements of an Array.
func AsElements(v Variable) ([]Variable, error) {
	if a, ok := v.(Array); ok {
		return a.Elements, nil
	}
	return nil, mismatch(KindArray, v)
}

// AsFields returns the fields of a Struct.
func AsFields(v Variable) ([]Field, error) {
	if s, ok := v.(Struct); ok {
		return s.Fields, nil
	}
	return nil, mismatch(KindStruct, v)
}

// Native converts a value into plain Go values: numbers keep their width,
// arrays become []any and structs become map[string]any.
func Native(v Variable) any {
	switch v := v.(type) {
	case Void:
		return nil
	case Bool:
		return bool(v)
	case I8:
		return int8(v)
	case I16:
		return int16(v)
	case I32:
		return int32(v)
	case I64:
		return int64(v)
	case U8:
		return uint8(v)
	case U16:
		return uint16(v)
	case U32:
		return uint32(v)
	case U64:
		return uint64(v)
	case F32:
		return float32(v)
	case F64:
		return float64(v)
	case String:
		return string(v)
	case Array:
		out := make([]any, len(v.Elements))
		for i, el := range v.Elements {
			out[i] = Native(el)
		}
		return out
	case Struct:
		out := make(map[string]any, len(v.Fields))
		for _, f := range v.Fields {
			out[f.Name] = Native(f.Value)
		}
		return out
	default:
		return nil
	}
}
