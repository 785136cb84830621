package symbols

import (
	"fmt"
	"strings"

	"github.com/mrpasztoradam/goadsym/internal/ads"
)

// Directory is the immutable index of every symbol and data type uploaded
// from a device. It is built once and is safe for concurrent readers. The
// pointers it hands out must not be modified.
type Directory struct {
	symbols       map[string]*Symbol
	symbolOrder   []*Symbol
	dataTypes     map[string]*DataType
	dataTypeOrder []*DataType
}

// NewDirectory indexes already parsed symbols and data types. Later entries
// replace earlier ones with the same name.
func NewDirectory(symbols []Symbol, dataTypes []DataType) *Directory {
	d := &Directory{
		symbols:   make(map[string]*Symbol, len(symbols)),
		dataTypes: make(map[string]*DataType, len(dataTypes)),
	}

	for i := range symbols {
		sym := &symbols[i]
		if _, exists := d.symbols[sym.Name]; exists {
			d.symbolOrder = replaceByName(d.symbolOrder, sym, func(s *Symbol) string { return s.Name })
		} else {
			d.symbolOrder = append(d.symbolOrder, sym)
		}
		d.symbols[sym.Name] = sym
	}

	for i := range dataTypes {
		dt := &dataTypes[i]
		if _, exists := d.dataTypes[dt.Name]; exists {
			d.dataTypeOrder = replaceByName(d.dataTypeOrder, dt, func(t *DataType) string { return t.Name })
		} else {
			d.dataTypeOrder = append(d.dataTypeOrder, dt)
		}
		d.dataTypes[dt.Name] = dt
	}

	return d
}

func replaceByName[T any](list []*T, item *T, name func(*T) string) []*T {
	for i, existing := range list {
		if name(existing) == name(item) {
			list[i] = item
			break
		}
	}
	return list
}

// Load parses both upload blobs and builds a directory from them.
func Load(symbolData []byte, symbolCount uint32, dataTypeData []byte, dataTypeCount uint32) (*Directory, error) {
	symbols, err := ParseSymbols(symbolData, symbolCount)
	if err != nil {
		return nil, fmt.Errorf("parse symbol table: %w", err)
	}

	dataTypes, err := ParseDataTypes(dataTypeData, dataTypeCount)
	if err != nil {
		return nil, fmt.Errorf("parse data type table: %w", err)
	}

	return NewDirectory(symbols, dataTypes), nil
}

// Symbol retrieves a top-level symbol by name.
func (d *Directory) Symbol(name string) (*Symbol, error) {
	sym, exists := d.symbols[name]
	if !exists {
		return nil, fmt.Errorf("%w: symbol %q", ads.ErrNotFound, name)
	}
	return sym, nil
}

// DataType retrieves a data type by name.
func (d *Directory) DataType(name string) (*DataType, error) {
	dt, exists := d.dataTypes[name]
	if !exists {
		return nil, fmt.Errorf("%w: data type %q", ads.ErrNotFound, name)
	}
	return dt, nil
}

// Symbols returns all top-level symbols in upload order.
func (d *Directory) Symbols() []*Symbol {
	out := make([]*Symbol, len(d.symbolOrder))
	copy(out, d.symbolOrder)
	return out
}

// DataTypes returns all data types in upload order.
func (d *Directory) DataTypes() []*DataType {
	out := make([]*DataType, len(d.dataTypeOrder))
	copy(out, d.dataTypeOrder)
	return out
}

// Find searches for symbols by name pattern (case-insensitive substring).
func (d *Directory) Find(pattern string) []*Symbol {
	pattern = strings.ToLower(pattern)
	var matches []*Symbol

	for _, sym := range d.symbolOrder {
		if strings.Contains(strings.ToLower(sym.Name), pattern) {
			matches = append(matches, sym)
		}
	}

	return matches
}

// BaseType returns the data type left after stripping n accessor units from
// the symbol's declared type.
func (d *Directory) BaseType(sym *Symbol, n int) (*DataType, error) {
	name, err := StripAccessors(sym.TypeName, n)
	if err != nil {
		return nil, err
	}
	return d.DataType(name)
}

// ElementType returns the innermost element type of an array type.
func (d *Directory) ElementType(dt *DataType) (*DataType, error) {
	return d.DataType(BaseTypeName(dt.Name))
}

// Resolve walks a dotted path and returns the addressed symbol together with
// its effective data type after the accessors on the last segment.
func (d *Directory) Resolve(path string) (*Symbol, *DataType, error) {
	sym, err := d.resolveSymbol(path)
	if err != nil {
		return nil, nil, err
	}

	if n := CountAccessors(path); n > 0 {
		dt, err := d.BaseType(sym, n)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve %q: %w", path, err)
		}
		return sym, dt, nil
	}

	dt, err := d.DataType(sym.TypeName)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %q: %w", path, err)
	}
	return sym, dt, nil
}

func (d *Directory) resolveSymbol(path string) (*Symbol, error) {
	tokens, key, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	sym, exists := d.symbols[key]
	if !exists {
		return nil, fmt.Errorf("%w: cannot find symbol entry for %q", ads.ErrNotFound, path)
	}

	for _, token := range tokens {
		parent, err := d.DataType(BaseTypeName(sym.TypeName))
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", path, err)
		}

		field, ok := parent.Field(TrimAccessors(token))
		if !ok {
			return nil, fmt.Errorf("%w: cannot find %q in %q", ads.ErrNotFound, token, parent.Name)
		}
		sym = field
	}

	return sym, nil
}

// splitPath returns the top-level lookup key and the field tokens after it.
func splitPath(path string) (fields []string, key string, err error) {
	if path == "" {
		return nil, "", fmt.Errorf("%w: empty path", ads.ErrInvalidArgument)
	}

	tokens := strings.Split(path, ".")
	if len(tokens) == 1 {
		return nil, TrimAccessors(tokens[0]), nil
	}
	return tokens[2:], tokens[0] + "." + TrimAccessors(tokens[1]), nil
}

// Location is the device address of a path.
type Location struct {
	IndexGroup  uint32
	IndexOffset uint32
	Size        uint32
}

// Locate computes the device address of a path from its top-level symbol,
// the struct field offsets along the way and the array index strides.
func (d *Directory) Locate(path string) (Location, error) {
	fields, key, err := splitPath(path)
	if err != nil {
		return Location{}, err
	}

	sym, exists := d.symbols[key]
	if !exists {
		return Location{}, fmt.Errorf("%w: cannot find symbol entry for %q", ads.ErrNotFound, path)
	}

	segments := strings.Split(path, ".")
	loc := Location{IndexGroup: sym.IndexGroup, IndexOffset: sym.Offset, Size: sym.Size}
	typeName := sym.TypeName

	// The key segment carries the top-level symbol's accessors.
	step := func(segment string) error {
		indices, err := ParseAccessors(segment)
		if err != nil {
			return err
		}
		if len(indices) == 0 {
			return nil
		}

		elementName, offset, size, err := d.index(typeName, indices)
		if err != nil {
			return fmt.Errorf("locate %q: %w", path, err)
		}
		typeName = elementName
		loc.IndexOffset += offset
		loc.Size = size
		return nil
	}

	if err := step(segments[len(segments)-len(fields)-1]); err != nil {
		return Location{}, err
	}

	for _, token := range fields {
		ranges, err := ParseRanges(typeName)
		if err != nil {
			return Location{}, fmt.Errorf("locate %q: %w", path, err)
		}
		if len(ranges) > 0 {
			return Location{}, fmt.Errorf("%w: %q needs an index before %q", ads.ErrInvalidArgument, typeName, token)
		}

		parent, err := d.DataType(stripReference(typeName))
		if err != nil {
			return Location{}, fmt.Errorf("locate %q: %w", path, err)
		}
		field, ok := parent.Field(TrimAccessors(token))
		if !ok {
			return Location{}, fmt.Errorf("%w: cannot find %q in %q", ads.ErrNotFound, token, parent.Name)
		}
		if field.Offset > parent.Size || field.Size > parent.Size-field.Offset {
			return Location{}, fmt.Errorf("%w: field %q at %d+%d exceeds %q of %d bytes",
				ads.ErrMalformedSchema, field.Name, field.Offset, field.Size, parent.Name, parent.Size)
		}

		loc.IndexOffset += field.Offset
		loc.Size = field.Size
		typeName = field.TypeName

		if err := step(token); err != nil {
			return Location{}, err
		}
	}

	return loc, nil
}

// index applies accessor indices to an array type name and returns the
// element type name, the element's byte offset and its size.
func (d *Directory) index(typeName string, indices []int) (string, uint32, uint32, error) {
	var offset uint64
	var size uint32

	for len(indices) > 0 {
		bracket, element, ok, err := outerGroup(typeName)
		if err != nil {
			return "", 0, 0, err
		}
		if !ok {
			return "", 0, 0, fmt.Errorf("%w: too many array accessors for %q", ads.ErrOutOfBounds, typeName)
		}

		group, err := parseBracket(bracket)
		if err != nil {
			return "", 0, 0, err
		}
		if len(group) > len(indices) {
			return "", 0, 0, fmt.Errorf("%w: cannot index into the middle of %q", ads.ErrOutOfBounds, typeName)
		}

		elementType, err := d.DataType(stripReference(element))
		if err != nil {
			return "", 0, 0, err
		}

		// Row-major: the last dimension of the group varies fastest.
		stride := uint64(elementType.Size)
		var groupOffset uint64
		for i := len(group) - 1; i >= 0; i-- {
			index := indices[i]
			if !group[i].Contains(index) {
				return "", 0, 0, fmt.Errorf("%w: index %d outside [%s] of %q", ads.ErrOutOfBounds, index, group[i], typeName)
			}
			groupOffset += uint64(index-int(group[i].Lo)) * stride
			stride *= uint64(group[i].Len())
		}

		offset += groupOffset
		if offset > uint64(^uint32(0)) {
			return "", 0, 0, fmt.Errorf("%w: offset overflow in %q", ads.ErrMalformedSchema, typeName)
		}
		size = elementType.Size
		typeName = element
		indices = indices[len(group):]
	}

	return typeName, uint32(offset), size, nil
}
