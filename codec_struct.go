package goadsym

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mrpasztoradam/goadsym/internal/ads"
	"github.com/mrpasztoradam/goadsym/internal/symbols"
)

// span is the byte range [start, end) a struct field occupies.
type span struct {
	name       string
	start, end uint64
}

// verifyStruct checks a struct value against its declared type without
// producing bytes: every supplied field must exist once, hold a value of the
// right shape and, ordered by offset, the supplied fields must cover the
// declared fields without gaps or overlaps.
func (c *codec) verifyStruct(dt *symbols.DataType, v Struct) error {
	if len(dt.Fields) == 0 {
		return fmt.Errorf("%w: %q is not a struct", ads.ErrTypeMismatch, dt.Name)
	}

	seen := make(map[string]bool, len(v.Fields))
	supplied := make([]span, 0, len(dt.Fields))

	for _, f := range v.Fields {
		if seen[f.Name] {
			return fmt.Errorf("%w: field %q of %q supplied twice", ads.ErrInvalidArgument, f.Name, dt.Name)
		}
		seen[f.Name] = true

		decl, ok := dt.Field(f.Name)
		if !ok {
			return fmt.Errorf("%w: %q has no field %q", ads.ErrInvalidArgument, dt.Name, f.Name)
		}
		if err := c.verifyField(decl, f.Value); err != nil {
			return fmt.Errorf("field %q of %q: %w", f.Name, dt.Name, err)
		}
		supplied = append(supplied, fieldSpan(decl))
	}

	for i := range dt.Fields {
		decl := &dt.Fields[i]
		if !seen[decl.Name] && c.skipField(strings.TrimSpace(decl.TypeName)) {
			supplied = append(supplied, fieldSpan(decl))
		}
	}

	sort.SliceStable(supplied, func(i, j int) bool { return supplied[i].start < supplied[j].start })

	var cursor uint64
	for _, s := range supplied {
		if s.start < cursor {
			return fmt.Errorf("%w: field %q at %d overlaps the previous field ending at %d",
				ads.ErrInvalidArgument, s.name, s.start, cursor)
		}
		if missing, ok := uncovered(dt, seen, cursor, s.start); ok {
			return fmt.Errorf("%w: gap at bytes %d..%d of %q, field %q not supplied",
				ads.ErrInvalidArgument, cursor, s.start, dt.Name, missing)
		}
		cursor = s.end
	}

	if cursor > uint64(dt.Size) {
		return fmt.Errorf("%w: fields end at %d beyond %q of %d bytes", ads.ErrInvalidArgument, cursor, dt.Name, dt.Size)
	}
	if missing, ok := uncovered(dt, seen, cursor, uint64(dt.Size)); ok {
		return fmt.Errorf("%w: gap at bytes %d..%d of %q, field %q not supplied",
			ads.ErrInvalidArgument, cursor, dt.Size, dt.Name, missing)
	}

	return nil
}

// uncovered returns a declared field that was not supplied and lies in
// [from, to). Padding between declared fields is never reported.
func uncovered(dt *symbols.DataType, seen map[string]bool, from, to uint64) (string, bool) {
	if from >= to {
		return "", false
	}
	for i := range dt.Fields {
		decl := &dt.Fields[i]
		if seen[decl.Name] {
			continue
		}
		s := fieldSpan(decl)
		if s.start < to && s.end > from {
			return decl.Name, true
		}
	}
	return "", false
}

func fieldSpan(field *symbols.Symbol) span {
	start := uint64(field.Offset)
	return span{name: field.Name, start: start, end: start + uint64(field.Size)}
}

func (c *codec) verifyField(field *symbols.Symbol, v Variable) error {
	fieldType, err := c.dir.DataType(strings.TrimSpace(field.TypeName))
	if err != nil {
		return err
	}
	_, err = c.verifyValue(field, fieldType, v)
	return err
}

// verifyValue encodes v against dt and, for struct-typed array elements,
// verifies every element as a struct. It returns the encoded bytes when the
// value is not struct-shaped.
func (c *codec) verifyValue(sym *symbols.Symbol, dt *symbols.DataType, v Variable) ([]byte, error) {
	if s, ok := v.(Struct); ok {
		if sym.Tag != symbols.TagBigType || dt.IsArray() {
			return nil, fmt.Errorf("%w: %q is declared %s, got struct", ads.ErrTypeMismatch, sym.Name, dt.Name)
		}
		return nil, c.verifyStruct(dt, s)
	}

	if a, ok := v.(Array); ok && sym.Tag == symbols.TagBigType && dt.IsArray() {
		element, err := c.dir.ElementType(dt)
		if err != nil {
			return nil, err
		}
		return nil, c.verifyStructArray(sym, element, dt.Ranges, a)
	}

	return encode(sym, dt.Ranges, v)
}

func (c *codec) verifyStructArray(sym *symbols.Symbol, element *symbols.DataType, ranges []symbols.Range, a Array) error {
	if len(ranges) == 0 {
		return fmt.Errorf("%w: %q has no array dimension left", ads.ErrMalformedData, sym.Name)
	}

	r := ranges[0]
	if start, explicit := a.Start.Index(); explicit && start != r.Lo {
		return fmt.Errorf("%w: array starts at %d but %q is declared [%s]", ads.ErrInvalidArgument, start, sym.Name, r)
	}
	if len(a.Elements) > r.Len() {
		return fmt.Errorf("%w: %d elements exceed [%s] of %q", ads.ErrInvalidArgument, len(a.Elements), r, sym.Name)
	}

	for i, el := range a.Elements {
		var err error
		switch el := el.(type) {
		case Array:
			err = c.verifyStructArray(sym, element, ranges[1:], el)
		case Struct:
			if len(ranges) > 1 {
				err = mismatch(KindArray, el)
			} else {
				err = c.verifyStruct(element, el)
			}
		default:
			err = mismatch(KindStruct, el)
		}
		if err != nil {
			return fmt.Errorf("element %d: %w", int(r.Lo)+i, err)
		}
	}
	return nil
}
