package symbols

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mrpasztoradam/goadsym/internal/ads"
)

// EncodeSymbols serializes symbols into the symbol upload format.
func EncodeSymbols(symbols []Symbol) ([]byte, error) {
	var out []byte
	for _, sym := range symbols {
		entry, err := encodeSymbolEntry(sym)
		if err != nil {
			return nil, fmt.Errorf("encode symbol %q: %w", sym.Name, err)
		}
		out = append(out, entry...)
	}
	return out, nil
}

func encodeSymbolEntry(sym Symbol) ([]byte, error) {
	if err := checkStringLengths(sym.Name, sym.TypeName, sym.Comment); err != nil {
		return nil, err
	}

	flags := sym.Flags
	if sym.Persistent {
		flags |= ads.SymbolFlagPersistent
	}

	length := symbolEntryHeaderLength + len(sym.Name) + len(sym.TypeName) + len(sym.Comment) + 3
	buf := make([]byte, symbolEntryHeaderLength, length)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(length))
	binary.LittleEndian.PutUint32(buf[4:8], sym.IndexGroup)
	binary.LittleEndian.PutUint32(buf[8:12], sym.Offset)
	binary.LittleEndian.PutUint32(buf[12:16], sym.Size)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(sym.Tag))
	binary.LittleEndian.PutUint32(buf[20:24], flags)
	binary.LittleEndian.PutUint16(buf[24:26], uint16(len(sym.Name)))
	binary.LittleEndian.PutUint16(buf[26:28], uint16(len(sym.TypeName)))
	binary.LittleEndian.PutUint16(buf[28:30], uint16(len(sym.Comment)))

	buf = appendCString(buf, sym.Name)
	buf = appendCString(buf, sym.TypeName)
	buf = appendCString(buf, sym.Comment)
	return buf, nil
}

// EncodeDataTypes serializes data types, their array info and their fields
// into the data type upload format.
func EncodeDataTypes(dataTypes []DataType) ([]byte, error) {
	var out []byte
	for _, dt := range dataTypes {
		entry, err := encodeDataTypeEntry(dt)
		if err != nil {
			return nil, fmt.Errorf("encode data type %q: %w", dt.Name, err)
		}
		out = append(out, entry...)
	}
	return out, nil
}

func encodeDataTypeEntry(dt DataType) ([]byte, error) {
	if err := checkStringLengths(dt.Name, dt.BaseName, dt.Comment); err != nil {
		return nil, err
	}
	if len(dt.Ranges) > math.MaxUint16 || len(dt.Fields) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: too many dimensions or fields", ads.ErrInvalidArgument)
	}

	var tail []byte
	tail = appendCString(tail, dt.Name)
	tail = appendCString(tail, dt.BaseName)
	tail = appendCString(tail, dt.Comment)
	for _, r := range dt.Ranges {
		tail = binary.LittleEndian.AppendUint32(tail, uint32(r.Lo))
		tail = binary.LittleEndian.AppendUint32(tail, uint32(r.Len()))
	}
	for _, field := range dt.Fields {
		entry, err := encodeFieldEntry(field)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		tail = append(tail, entry...)
	}

	header := dataTypeHeader{
		size:          dt.Size,
		tag:           dt.Tag,
		flags:         dt.Flags,
		nameLength:    len(dt.Name),
		typeLength:    len(dt.BaseName),
		commentLength: len(dt.Comment),
		arrayDim:      len(dt.Ranges),
		subItems:      len(dt.Fields),
	}
	return append(encodeDataTypeHeader(header, len(tail)), tail...), nil
}

func encodeFieldEntry(field Symbol) ([]byte, error) {
	if err := checkStringLengths(field.Name, field.TypeName, field.Comment); err != nil {
		return nil, err
	}

	flags := field.Flags
	if field.Persistent {
		flags |= ads.SymbolFlagPersistent << ads.DataTypeFlagShift
	}

	var tail []byte
	tail = appendCString(tail, field.Name)
	tail = appendCString(tail, field.TypeName)
	tail = appendCString(tail, field.Comment)

	header := dataTypeHeader{
		size:          field.Size,
		offset:        field.Offset,
		tag:           field.Tag,
		flags:         flags,
		nameLength:    len(field.Name),
		typeLength:    len(field.TypeName),
		commentLength: len(field.Comment),
	}
	return append(encodeDataTypeHeader(header, len(tail)), tail...), nil
}

func encodeDataTypeHeader(h dataTypeHeader, tailLength int) []byte {
	buf := make([]byte, dataTypeEntryHeaderLength, dataTypeEntryHeaderLength+tailLength)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(dataTypeEntryHeaderLength+tailLength))
	binary.LittleEndian.PutUint32(buf[4:8], 1)
	binary.LittleEndian.PutUint32(buf[16:20], h.size)
	binary.LittleEndian.PutUint32(buf[20:24], h.offset)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(h.tag))
	binary.LittleEndian.PutUint32(buf[28:32], h.flags)
	binary.LittleEndian.PutUint16(buf[32:34], uint16(h.nameLength))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(h.typeLength))
	binary.LittleEndian.PutUint16(buf[36:38], uint16(h.commentLength))
	binary.LittleEndian.PutUint16(buf[38:40], uint16(h.arrayDim))
	binary.LittleEndian.PutUint16(buf[40:42], uint16(h.subItems))
	return buf
}

func appendCString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

func checkStringLengths(values ...string) error {
	for _, v := range values {
		if len(v) > math.MaxUint16 {
			return fmt.Errorf("%w: string of %d bytes exceeds the entry limit", ads.ErrInvalidArgument, len(v))
		}
	}
	return nil
}
