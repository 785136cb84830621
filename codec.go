package goadsym

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/mrpasztoradam/goadsym/internal/ads"
	"github.com/mrpasztoradam/goadsym/internal/symbols"
)

// DefaultExcludedTypePrefixes lists vendor library namespaces whose struct
// fields are skipped when decoding.
var DefaultExcludedTypePrefixes = []string{"Tc2_", "Tc3_"}

// codec converts between raw device bytes and Variables using a directory.
type codec struct {
	dir      *symbols.Directory
	excluded []string
}

func newCodec(dir *symbols.Directory, excluded []string) *codec {
	return &codec{dir: dir, excluded: excluded}
}

// Decode interprets data as a value of dt, the effective type of sym after
// its path accessors.
func Decode(dir *symbols.Directory, sym *symbols.Symbol, dt *symbols.DataType, data []byte) (Variable, error) {
	return newCodec(dir, DefaultExcludedTypePrefixes).decode(sym, dt, data)
}

// Encode lays out v as the bytes the device expects for sym. ranges are the
// array dimensions of the addressed type, outermost first.
func Encode(sym *symbols.Symbol, ranges []symbols.Range, v Variable) ([]byte, error) {
	return encode(sym, ranges, v)
}

// skipField reports whether a struct field is left out of decoding and
// counts as covered during struct validation.
func (c *codec) skipField(typeName string) bool {
	if strings.Contains(typeName, "REFERENCE") {
		return true
	}
	for _, prefix := range c.excluded {
		if strings.HasPrefix(typeName, prefix) {
			return true
		}
	}
	return false
}

// decoding holds the struct type names on the current decode path.
type decoding map[string]bool

func (c *codec) decode(sym *symbols.Symbol, dt *symbols.DataType, data []byte) (Variable, error) {
	return c.decodeIn(decoding{}, sym, dt, data)
}

func (c *codec) decodeIn(active decoding, sym *symbols.Symbol, dt *symbols.DataType, data []byte) (Variable, error) {
	if len(dt.Ranges) == 0 {
		return c.decodeValue(active, sym, dt, data)
	}

	element, err := c.dir.ElementType(dt)
	if err != nil {
		return nil, err
	}
	return c.decodeArray(active, sym, element, dt.Ranges, data)
}

func (c *codec) decodeArray(active decoding, sym *symbols.Symbol, element *symbols.DataType, ranges []symbols.Range, data []byte) (Variable, error) {
	r := ranges[0]
	count := r.Len()
	if count == 0 {
		return Array{Start: StartAt(r.Lo), Elements: []Variable{}}, nil
	}
	if len(data)%count != 0 {
		return nil, fmt.Errorf("%w: %d bytes do not split into %d elements of [%s]",
			ads.ErrMalformedData, len(data), count, r)
	}

	chunk := len(data) / count
	if chunk == 0 && element.Size > 0 {
		return nil, fmt.Errorf("%w: %d bytes cannot hold %d elements of [%s]",
			ads.ErrMalformedData, len(data), count, r)
	}
	elements := make([]Variable, 0, min(count, len(data)))
	for i := 0; i < count; i++ {
		part := data[i*chunk : (i+1)*chunk]

		var (
			v   Variable
			err error
		)
		if len(ranges) == 1 {
			v, err = c.decodeValue(active, sym, element, part)
		} else {
			v, err = c.decodeArray(active, sym, element, ranges[1:], part)
		}
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", int(r.Lo)+i, err)
		}
		elements = append(elements, v)
	}

	return Array{Start: StartAt(r.Lo), Elements: elements}, nil
}

func (c *codec) decodeValue(active decoding, sym *symbols.Symbol, dt *symbols.DataType, data []byte) (Variable, error) {
	switch sym.Tag {
	case symbols.TagVoid:
		if len(data) != 0 {
			return nil, fmt.Errorf("%w: %s has value %v", ads.ErrMalformedData, sym.Tag, data)
		}
		return Void{}, nil
	case symbols.TagBool:
		if err := checkWidth(sym, data, 1); err != nil {
			return nil, err
		}
		switch data[0] {
		case 0:
			return Bool(false), nil
		case 1:
			return Bool(true), nil
		default:
			return nil, fmt.Errorf("%w: BOOL has value %d", ads.ErrMalformedData, data[0])
		}
	case symbols.TagInt8:
		if err := checkWidth(sym, data, 1); err != nil {
			return nil, err
		}
		return I8(data[0]), nil
	case symbols.TagUInt8:
		if err := checkWidth(sym, data, 1); err != nil {
			return nil, err
		}
		return U8(data[0]), nil
	case symbols.TagInt16:
		if err := checkWidth(sym, data, 2); err != nil {
			return nil, err
		}
		return I16(binary.LittleEndian.Uint16(data)), nil
	case symbols.TagUInt16:
		if err := checkWidth(sym, data, 2); err != nil {
			return nil, err
		}
		return U16(binary.LittleEndian.Uint16(data)), nil
	case symbols.TagInt32:
		if err := checkWidth(sym, data, 4); err != nil {
			return nil, err
		}
		return I32(binary.LittleEndian.Uint32(data)), nil
	case symbols.TagUInt32:
		if err := checkWidth(sym, data, 4); err != nil {
			return nil, err
		}
		return U32(binary.LittleEndian.Uint32(data)), nil
	case symbols.TagInt64:
		if err := checkWidth(sym, data, 8); err != nil {
			return nil, err
		}
		return I64(binary.LittleEndian.Uint64(data)), nil
	case symbols.TagUInt64:
		if err := checkWidth(sym, data, 8); err != nil {
			return nil, err
		}
		return U64(binary.LittleEndian.Uint64(data)), nil
	case symbols.TagReal32:
		if err := checkWidth(sym, data, 4); err != nil {
			return nil, err
		}
		return F32(math.Float32frombits(binary.LittleEndian.Uint32(data))), nil
	case symbols.TagReal64:
		if err := checkWidth(sym, data, 8); err != nil {
			return nil, err
		}
		return F64(math.Float64frombits(binary.LittleEndian.Uint64(data))), nil
	case symbols.TagString:
		return decodeString(data)
	case symbols.TagBigType:
		return c.decodeStruct(active, dt, data)
	default:
		return nil, unsupportedTag(sym)
	}
}

func (c *codec) decodeStruct(active decoding, dt *symbols.DataType, data []byte) (Variable, error) {
	if active[dt.Name] {
		return nil, fmt.Errorf("%w: %q contains itself", ads.ErrMalformedSchema, dt.Name)
	}
	active[dt.Name] = true
	defer delete(active, dt.Name)

	fields := make([]Field, 0, len(dt.Fields))
	for i := range dt.Fields {
		field := &dt.Fields[i]
		typeName := strings.TrimSpace(field.TypeName)
		if c.skipField(typeName) {
			continue
		}

		fieldType, err := c.dir.DataType(typeName)
		if err != nil {
			return nil, fmt.Errorf("field %q of %q: %w", field.Name, dt.Name, err)
		}

		end := uint64(field.Offset) + uint64(fieldType.Size)
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("%w: %s has offset %d and size %d but byte length is %d",
				ads.ErrMalformedData, field.Name, field.Offset, fieldType.Size, len(data))
		}

		v, err := c.decodeIn(active, field, fieldType, data[field.Offset:end])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		fields = append(fields, Field{Name: field.Name, Value: v})
	}
	return Struct{Fields: fields}, nil
}

func checkWidth(sym *symbols.Symbol, data []byte, width int) error {
	if len(data) != width {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ads.ErrMalformedData, sym.Tag, width, len(data))
	}
	return nil
}

func decodeString(data []byte) (Variable, error) {
	end := -1
	for i, b := range data {
		if b == 0 {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, fmt.Errorf("%w: cannot find null terminator in %d bytes", ads.ErrMalformedData, len(data))
	}
	if !utf8.Valid(data[:end]) {
		return nil, fmt.Errorf("%w: string is not valid UTF-8", ads.ErrMalformedData)
	}
	return String(data[:end]), nil
}

// unsupportedTag classifies tags the codec has no variant for.
func unsupportedTag(sym *symbols.Symbol) error {
	switch sym.Tag {
	case symbols.TagWString:
		return fmt.Errorf("%w: type %s (%d) of %q", ads.ErrUnsupported, sym.TypeName, uint32(sym.Tag), sym.Name)
	case symbols.TagReal80, symbols.TagMaxTypes:
		return fmt.Errorf("%w: type %s (%d) of %q is reserved", ads.ErrMalformedData, sym.TypeName, uint32(sym.Tag), sym.Name)
	default:
		return fmt.Errorf("%w: type %s (%d) of %q is invalid", ads.ErrMalformedData, sym.TypeName, uint32(sym.Tag), sym.Name)
	}
}

func encode(sym *symbols.Symbol, ranges []symbols.Range, v Variable) ([]byte, error) {
	switch v := v.(type) {
	case Array:
		return encodeArray(sym, ranges, v, false)
	case Struct:
		return nil, fmt.Errorf("%w: writing structs, write %q field by field", ads.ErrUnsupported, sym.Name)
	default:
		return encodeScalar(sym, v)
	}
}

// encodeArray lays out one dimension. When full is set the dimension must
// be supplied completely; only the trailing element of an outer dimension
// may be a prefix.
func encodeArray(sym *symbols.Symbol, ranges []symbols.Range, a Array, full bool) ([]byte, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: %q of type %q has no array dimension for %s",
			ads.ErrMalformedData, sym.Name, sym.TypeName, a)
	}

	r := ranges[0]
	if start, explicit := a.Start.Index(); explicit && start != r.Lo {
		return nil, fmt.Errorf("%w: array starts at %d but %q is declared [%s]",
			ads.ErrInvalidArgument, start, sym.Name, r)
	}
	if len(a.Elements) > r.Len() {
		return nil, fmt.Errorf("%w: %d elements exceed [%s] of %q",
			ads.ErrInvalidArgument, len(a.Elements), r, sym.Name)
	}
	if full && len(a.Elements) != r.Len() {
		return nil, fmt.Errorf("%w: inner dimension [%s] of %q needs %d elements, got %d",
			ads.ErrInvalidArgument, r, sym.Name, r.Len(), len(a.Elements))
	}

	var out []byte
	for i, el := range a.Elements {
		var (
			b   []byte
			err error
		)
		if len(ranges) > 1 {
			inner, ok := el.(Array)
			if !ok {
				return nil, fmt.Errorf("element %d: %w", int(r.Lo)+i, mismatch(KindArray, el))
			}
			b, err = encodeArray(sym, ranges[1:], inner, full || i < len(a.Elements)-1)
		} else {
			b, err = encode(sym, nil, el)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func encodeScalar(sym *symbols.Symbol, v Variable) ([]byte, error) {
	switch v := v.(type) {
	case Void:
		if sym.Tag == symbols.TagVoid {
			return []byte{}, nil
		}
	case Bool:
		if sym.Tag == symbols.TagBool {
			if v {
				return []byte{1}, nil
			}
			return []byte{0}, nil
		}
	case I8:
		if sym.Tag == symbols.TagInt8 {
			return []byte{byte(v)}, nil
		}
	case U8:
		if sym.Tag == symbols.TagUInt8 {
			return []byte{byte(v)}, nil
		}
	case I16:
		if sym.Tag == symbols.TagInt16 {
			return binary.LittleEndian.AppendUint16(nil, uint16(v)), nil
		}
	case U16:
		if sym.Tag == symbols.TagUInt16 {
			return binary.LittleEndian.AppendUint16(nil, uint16(v)), nil
		}
	case I32:
		if sym.Tag == symbols.TagInt32 {
			return binary.LittleEndian.AppendUint32(nil, uint32(v)), nil
		}
	case U32:
		if sym.Tag == symbols.TagUInt32 {
			return binary.LittleEndian.AppendUint32(nil, uint32(v)), nil
		}
	case I64:
		if sym.Tag == symbols.TagInt64 {
			return binary.LittleEndian.AppendUint64(nil, uint64(v)), nil
		}
	case U64:
		if sym.Tag == symbols.TagUInt64 {
			return binary.LittleEndian.AppendUint64(nil, uint64(v)), nil
		}
	case F32:
		if sym.Tag == symbols.TagReal32 {
			return binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(v))), nil
		}
	case F64:
		if sym.Tag == symbols.TagReal64 {
			return binary.LittleEndian.AppendUint64(nil, math.Float64bits(float64(v))), nil
		}
	case String:
		if sym.Tag == symbols.TagString {
			out := make([]byte, 0, len(v)+1)
			out = append(out, string(v)...)
			return append(out, 0), nil
		}
	case nil:
		return nil, fmt.Errorf("%w: nil value for %q", ads.ErrInvalidArgument, sym.Name)
	}

	return nil, fmt.Errorf("%w: %q is declared %s (%s), got %s %s",
		ads.ErrTypeMismatch, sym.Name, sym.TypeName, sym.Tag, v.Kind(), v)
}
