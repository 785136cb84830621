package fixture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrpasztoradam/goadsym/internal/ads"
	"github.com/mrpasztoradam/goadsym/internal/symbols"
)

type primitiveType struct {
	tag  symbols.TypeTag
	size uint32
}

var primitives = map[string]primitiveType{
	"VOID":  {symbols.TagVoid, 0},
	"BOOL":  {symbols.TagBool, 1},
	"BYTE":  {symbols.TagUInt8, 1},
	"SINT":  {symbols.TagInt8, 1},
	"USINT": {symbols.TagUInt8, 1},
	"WORD":  {symbols.TagUInt16, 2},
	"INT":   {symbols.TagInt16, 2},
	"UINT":  {symbols.TagUInt16, 2},
	"DWORD": {symbols.TagUInt32, 4},
	"DINT":  {symbols.TagInt32, 4},
	"UDINT": {symbols.TagUInt32, 4},
	"TIME":  {symbols.TagUInt32, 4},
	"LWORD": {symbols.TagUInt64, 8},
	"LINT":  {symbols.TagInt64, 8},
	"ULINT": {symbols.TagUInt64, 8},
	"REAL":  {symbols.TagReal32, 4},
	"LREAL": {symbols.TagReal64, 8},
}

const defaultStringLength = 80

// primitive infers the tag and size of a built-in type name.
func primitive(name string) (symbols.TypeTag, uint32, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if p, ok := primitives[upper]; ok {
		return p.tag, p.size, true
	}
	if n, ok := stringLength(upper, "WSTRING"); ok {
		return symbols.TagWString, 2 * (n + 1), true
	}
	if n, ok := stringLength(upper, "STRING"); ok {
		return symbols.TagString, n + 1, true
	}
	return 0, 0, false
}

func stringLength(name, keyword string) (uint32, bool) {
	if name == keyword {
		return defaultStringLength, true
	}
	rest, ok := strings.CutPrefix(name, keyword+"(")
	if !ok || !strings.HasSuffix(rest, ")") {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(strings.TrimSuffix(rest, ")")), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func isIndirect(typeName string) bool {
	return strings.HasPrefix(typeName, "REFERENCE TO ") || strings.HasPrefix(typeName, "POINTER TO ")
}

type resolver struct {
	specs    map[string]*DataTypeSpec
	done     map[string]*symbols.DataType
	order    []string
	visiting map[string]bool
}

// dataType resolves name, registering implicit primitive and array types.
func (r *resolver) dataType(name string) (*symbols.DataType, error) {
	if dt, ok := r.done[name]; ok {
		return dt, nil
	}
	if r.visiting[name] {
		return nil, fmt.Errorf("%w: data type %q contains itself", ads.ErrMalformedSchema, name)
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	dt, err := r.build(name, r.specs[name])
	if err != nil {
		return nil, err
	}
	r.done[name] = dt
	r.order = append(r.order, name)
	return dt, nil
}

func (r *resolver) build(name string, spec *DataTypeSpec) (*symbols.DataType, error) {
	dt := &symbols.DataType{Name: name}

	ranges, err := symbols.ParseRanges(name)
	if err != nil {
		return nil, err
	}

	switch {
	case len(ranges) > 0:
		elemName, _, err := symbols.ElementTypeName(name)
		if err != nil {
			return nil, err
		}
		elem, err := r.dataType(elemName)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", name, err)
		}
		// Ranges of a nested name include the element's own dimensions.
		count := 1
		for _, rg := range ranges[:len(ranges)-len(elem.Ranges)] {
			count *= rg.Len()
		}
		dt.BaseName = elemName
		dt.Ranges = ranges
		dt.Tag = elem.Tag
		dt.Size = uint32(count) * elem.Size

	case spec != nil && len(spec.Fields) > 0:
		dt.Tag = symbols.TagBigType
		if err := r.layout(dt, spec.Fields); err != nil {
			return nil, fmt.Errorf("%q: %w", name, err)
		}

	default:
		tag, size, ok := primitive(name)
		if !ok && (spec == nil || spec.Tag == nil) {
			return nil, fmt.Errorf("%w: unknown data type %q", ads.ErrNotFound, name)
		}
		dt.Tag, dt.Size = tag, size
	}

	if spec != nil {
		if spec.Tag != nil {
			dt.Tag = symbols.TypeTag(*spec.Tag)
		}
		if spec.Size != 0 {
			dt.Size = spec.Size
		}
		dt.Comment = spec.Comment
	}
	return dt, nil
}

func (r *resolver) layout(dt *symbols.DataType, fields []FieldSpec) error {
	var offset, end uint32
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return fmt.Errorf("%w: field %q declared twice", ads.ErrInvalidArgument, f.Name)
		}
		seen[f.Name] = true

		sym, err := r.member(f.Name, f.Type, f.Tag, f.Size)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
		if f.Offset != nil {
			offset = *f.Offset
		}
		sym.Offset = offset
		sym.Group = symbols.GroupStructField
		sym.Persistent = f.Persistent
		sym.Comment = f.Comment

		offset += sym.Size
		end = max(end, offset)
		dt.Fields = append(dt.Fields, sym)
	}
	dt.Size = end
	return nil
}

// member builds a symbol or field entry of typeName.
func (r *resolver) member(name, typeName string, tag *Tag, size uint32) (symbols.Symbol, error) {
	if name == "" || typeName == "" {
		return symbols.Symbol{}, fmt.Errorf("%w: name and type are required", ads.ErrInvalidArgument)
	}

	sym := symbols.Symbol{Name: name, TypeName: typeName}
	if isIndirect(typeName) {
		sym.Tag, sym.Size = symbols.TagUInt64, 8
	} else {
		dt, err := r.dataType(typeName)
		if err != nil {
			return symbols.Symbol{}, err
		}
		sym.Tag, sym.Size = dt.Tag, dt.Size
	}

	if tag != nil {
		sym.Tag = symbols.TypeTag(*tag)
	}
	if size != 0 {
		sym.Size = size
	}
	return sym, nil
}
