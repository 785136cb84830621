// Package symbols implements symbol and data type table parsing for TwinCAT 3.
package symbols

import (
	"fmt"

	"github.com/mrpasztoradam/goadsym/internal/ads"
)

// TypeTag is the primitive type identifier the device attaches to every entry.
type TypeTag uint32

const (
	TagVoid     TypeTag = 0
	TagInt16    TypeTag = 2
	TagInt32    TypeTag = 3
	TagReal32   TypeTag = 4
	TagReal64   TypeTag = 5
	TagInt8     TypeTag = 16
	TagUInt8    TypeTag = 17
	TagUInt16   TypeTag = 18
	TagUInt32   TypeTag = 19
	TagInt64    TypeTag = 20
	TagUInt64   TypeTag = 21
	TagString   TypeTag = 30
	TagWString  TypeTag = 31
	TagReal80   TypeTag = 32
	TagBool     TypeTag = 33
	TagMaxTypes TypeTag = 34
	TagBigType  TypeTag = 65
)

func (t TypeTag) String() string {
	switch t {
	case TagVoid:
		return "VOID"
	case TagInt8:
		return "SINT"
	case TagUInt8:
		return "USINT"
	case TagInt16:
		return "INT"
	case TagUInt16:
		return "UINT"
	case TagInt32:
		return "DINT"
	case TagUInt32:
		return "UDINT"
	case TagInt64:
		return "LINT"
	case TagUInt64:
		return "ULINT"
	case TagReal32:
		return "REAL"
	case TagReal64:
		return "LREAL"
	case TagBool:
		return "BOOL"
	case TagString:
		return "STRING"
	case TagWString:
		return "WSTRING"
	case TagBigType:
		return "STRUCT"
	default:
		return fmt.Sprintf("TYPE_%d", uint32(t))
	}
}

// Group is the process image area a symbol lives in.
type Group int

const (
	GroupNone Group = iota
	GroupInput
	GroupOutput
	GroupFlag
	GroupStructField
)

func (g Group) String() string {
	switch g {
	case GroupInput:
		return "input"
	case GroupOutput:
		return "output"
	case GroupFlag:
		return "flag"
	case GroupStructField:
		return "field"
	default:
		return "none"
	}
}

// GroupFromIndexGroup maps a symbol's index group onto its Group. Unknown
// groups report false and map to GroupNone.
func GroupFromIndexGroup(indexGroup uint32) (Group, bool) {
	switch indexGroup {
	case ads.IndexGroupPhysicalInputs:
		return GroupInput, true
	case ads.IndexGroupPhysicalOutputs:
		return GroupOutput, true
	case ads.IndexGroupPLCMemory:
		return GroupFlag, true
	case ads.IndexGroupPLCData:
		return GroupNone, true
	default:
		return GroupNone, false
	}
}

// Symbol is a top-level device variable or a field inside a struct. Field
// offsets are relative to the start of the enclosing struct.
type Symbol struct {
	Name       string
	TypeName   string
	Tag        TypeTag
	IndexGroup uint32
	Offset     uint32
	Size       uint32
	Flags      uint32
	Persistent bool
	Group      Group
	Comment    string
}

// DataType is a named type: a primitive, a struct with Fields, or an array
// whose Ranges are listed outermost first.
type DataType struct {
	Name     string
	BaseName string
	Tag      TypeTag
	Size     uint32
	Flags    uint32
	Ranges   []Range
	Fields   []Symbol
	Comment  string
}

// IsArray reports whether the type declares at least one dimension.
func (dt *DataType) IsArray() bool {
	return len(dt.Ranges) > 0
}

// Field returns the field with the given name.
func (dt *DataType) Field(name string) (*Symbol, bool) {
	for i := range dt.Fields {
		if dt.Fields[i].Name == name {
			return &dt.Fields[i], true
		}
	}
	return nil, false
}

const (
	symbolEntryHeaderLength   = 30
	dataTypeEntryHeaderLength = 42
	arrayInfoLength           = 8
)

// ParseSymbols parses count symbol entries from a symbol upload blob, in
// upload order.
func ParseSymbols(data []byte, count uint32) ([]Symbol, error) {
	reader := newBlobReader(data)
	symbols := make([]Symbol, 0, min(int(count), len(data)/symbolEntryHeaderLength))

	for i := uint32(0); i < count; i++ {
		offset := reader.offset()
		record, err := reader.next(symbolEntryHeaderLength)
		if err != nil {
			return nil, fmt.Errorf("symbol %d: %w", i, err)
		}

		symbol, err := parseSymbolEntry(record)
		if err != nil {
			return nil, fmt.Errorf("parse symbol at offset %d: %w", offset, err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, nil
}

func parseSymbolEntry(record []byte) (Symbol, error) {
	r := newRecordReader(record, symbolEntryHeaderLength)

	symbol := Symbol{
		IndexGroup: r.uint32At(4),
		Offset:     r.uint32At(8),
		Size:       r.uint32At(12),
		Tag:        TypeTag(r.uint32At(16)),
		Flags:      r.uint32At(20),
	}
	symbol.Persistent = symbol.Flags&ads.SymbolFlagPersistent != 0
	symbol.Group, _ = GroupFromIndexGroup(symbol.IndexGroup)

	nameLength := int(r.uint16At(24))
	typeLength := int(r.uint16At(26))
	commentLength := int(r.uint16At(28))

	var err error
	if symbol.Name, err = r.text("name", nameLength); err != nil {
		return Symbol{}, err
	}
	if symbol.TypeName, err = r.text("type name", typeLength); err != nil {
		return Symbol{}, err
	}
	if symbol.Comment, err = r.text("comment", commentLength); err != nil {
		return Symbol{}, err
	}

	return symbol, nil
}

// ParseDataTypes parses count data type entries from a data type upload blob,
// in upload order. Array dimensions are taken from the type name itself.
func ParseDataTypes(data []byte, count uint32) ([]DataType, error) {
	reader := newBlobReader(data)
	dataTypes := make([]DataType, 0, min(int(count), len(data)/dataTypeEntryHeaderLength))

	for i := uint32(0); i < count; i++ {
		offset := reader.offset()
		record, err := reader.next(dataTypeEntryHeaderLength)
		if err != nil {
			return nil, fmt.Errorf("data type %d: %w", i, err)
		}

		dataType, err := parseDataTypeEntry(record)
		if err != nil {
			return nil, fmt.Errorf("parse data type at offset %d: %w", offset, err)
		}
		dataTypes = append(dataTypes, dataType)
	}

	return dataTypes, nil
}

type dataTypeHeader struct {
	size          uint32
	offset        uint32
	tag           TypeTag
	flags         uint32
	nameLength    int
	typeLength    int
	commentLength int
	arrayDim      int
	subItems      int
}

func readDataTypeHeader(r *recordReader) dataTypeHeader {
	return dataTypeHeader{
		size:          r.uint32At(16),
		offset:        r.uint32At(20),
		tag:           TypeTag(r.uint32At(24)),
		flags:         r.uint32At(28),
		nameLength:    int(r.uint16At(32)),
		typeLength:    int(r.uint16At(34)),
		commentLength: int(r.uint16At(36)),
		arrayDim:      int(r.uint16At(38)),
		subItems:      int(r.uint16At(40)),
	}
}

func parseDataTypeEntry(record []byte) (DataType, error) {
	r := newRecordReader(record, dataTypeEntryHeaderLength)
	h := readDataTypeHeader(r)

	dataType := DataType{
		Tag:   h.tag,
		Size:  h.size,
		Flags: h.flags,
	}

	var err error
	if dataType.Name, err = r.text("name", h.nameLength); err != nil {
		return DataType{}, err
	}
	if dataType.BaseName, err = r.text("type name", h.typeLength); err != nil {
		return DataType{}, err
	}
	if dataType.Comment, err = r.text("comment", h.commentLength); err != nil {
		return DataType{}, err
	}

	// The binary array info duplicates what the name already encodes.
	if err := r.skip("array info", h.arrayDim*arrayInfoLength); err != nil {
		return DataType{}, err
	}

	if dataType.Ranges, err = ParseRanges(dataType.Name); err != nil {
		return DataType{}, err
	}

	fields := newBlobReader(r.rest())
	dataType.Fields = make([]Symbol, 0, min(h.subItems, len(r.rest())/dataTypeEntryHeaderLength))
	for i := 0; i < h.subItems; i++ {
		sub, err := fields.next(dataTypeEntryHeaderLength)
		if err != nil {
			return DataType{}, fmt.Errorf("%s field %d: %w", dataType.Name, i, err)
		}

		field, err := parseFieldEntry(sub)
		if err != nil {
			return DataType{}, fmt.Errorf("%s field %d: %w", dataType.Name, i, err)
		}
		dataType.Fields = append(dataType.Fields, field)
	}

	return dataType, nil
}

func parseFieldEntry(record []byte) (Symbol, error) {
	r := newRecordReader(record, dataTypeEntryHeaderLength)
	h := readDataTypeHeader(r)

	field := Symbol{
		Tag:        h.tag,
		Offset:     h.offset,
		Size:       h.size,
		Flags:      h.flags,
		Persistent: (h.flags>>ads.DataTypeFlagShift)&ads.SymbolFlagPersistent != 0,
		Group:      GroupStructField,
	}

	var err error
	if field.Name, err = r.text("field name", h.nameLength); err != nil {
		return Symbol{}, err
	}
	if field.TypeName, err = r.text("field type name", h.typeLength); err != nil {
		return Symbol{}, err
	}
	if field.Comment, err = r.text("field comment", h.commentLength); err != nil {
		return Symbol{}, err
	}

	return field, nil
}
