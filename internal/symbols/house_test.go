package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrpasztoradam/goadsym/internal/ads"
)

func primitive(name string, tag TypeTag, size uint32) DataType {
	return DataType{Name: name, Tag: tag, Size: size}
}

func arrayType(name, base string, tag TypeTag, size uint32) DataType {
	ranges, err := ParseRanges(name)
	if err != nil {
		panic(err)
	}
	return DataType{Name: name, BaseName: base, Tag: tag, Size: size, Ranges: ranges}
}

func field(name, typeName string, tag TypeTag, offset, size uint32, persistent bool) Symbol {
	return Symbol{
		Name:       name,
		TypeName:   typeName,
		Tag:        tag,
		Offset:     offset,
		Size:       size,
		Persistent: persistent,
		Group:      GroupStructField,
	}
}

func variable(name, typeName string, tag TypeTag, offset, size uint32, persistent bool) Symbol {
	return Symbol{
		Name:       name,
		TypeName:   typeName,
		Tag:        tag,
		IndexGroup: ads.IndexGroupPLCData,
		Offset:     offset,
		Size:       size,
		Persistent: persistent,
	}
}

// houseModel mirrors a small PLC project: a garden of INT arrays and a house
// of nested structs, some of them persistent.
func houseModel() ([]Symbol, []DataType) {
	dataTypes := []DataType{
		primitive("INT", TagInt16, 2),
		primitive("USINT", TagUInt8, 1),
		primitive("BOOL", TagBool, 1),
		primitive("REAL", TagReal32, 4),
		primitive("STRING(80)", TagString, 81),
		arrayType("ARRAY [0..255] OF INT", "INT", TagInt16, 512),
		arrayType("ARRAY [0..7] OF INT", "INT", TagInt16, 16),
		arrayType("ARRAY [0..2] OF ARRAY [0..7] OF INT", "ARRAY [0..7] OF INT", TagInt16, 48),
		arrayType("ARRAY [0..3] OF ARRAY [0..2] OF ARRAY [0..7] OF INT", "ARRAY [0..2] OF ARRAY [0..7] OF INT", TagInt16, 192),
		arrayType("ARRAY [0..3,0..5,0..6] OF INT", "INT", TagInt16, 336),
		arrayType("ARRAY [0..5,0..5] OF INT", "INT", TagInt16, 72),
		arrayType("ARRAY [0..3] OF USINT", "USINT", TagUInt8, 4),
		arrayType("ARRAY [0..1] OF USINT", "USINT", TagUInt8, 2),
		arrayType("ARRAY [0..3] OF ST_Room", "ST_Room", TagBigType, 328),
		arrayType("ARRAY [0..0] OF ST_Room", "ST_Room", TagBigType, 82),
		{
			Name: "ST_Room", Tag: TagBigType, Size: 82,
			Fields: []Symbol{
				field("name", "STRING(80)", TagString, 0, 81, true),
				field("lights", "BOOL", TagBool, 81, 1, false),
			},
		},
		{
			Name: "ST_Fridge", Tag: TagBigType, Size: 18,
			Fields: []Symbol{
				field("top_shelf", "ARRAY [0..3] OF USINT", TagUInt8, 0, 4, true),
				field("middle_shelf", "ARRAY [0..3] OF USINT", TagUInt8, 4, 4, true),
				field("bottom_shelf", "ARRAY [0..3] OF USINT", TagUInt8, 8, 4, true),
				field("door_shelf", "ARRAY [0..3] OF USINT", TagUInt8, 12, 4, true),
				field("drawer", "ARRAY [0..1] OF USINT", TagUInt8, 16, 2, true),
			},
		},
		{
			Name: "ST_Kitchen", Tag: TagBigType, Size: 112,
			Fields: []Symbol{
				field("name", "STRING(80)", TagString, 0, 81, true),
				field("lit", "BOOL", TagBool, 81, 1, false),
				field("temperature", "REAL", TagReal32, 82, 4, false),
				field("fridge", "ST_Fridge", TagBigType, 86, 18, true),
				field("owner", "REFERENCE TO ST_Room", TagBigType, 104, 8, false),
			},
		},
	}

	symbols := []Symbol{
		variable("garden.plants", "ARRAY [0..255] OF INT", TagInt16, 1000, 512, true),
		variable("garden.vegetable_plot_at_front", "ARRAY [0..3] OF ARRAY [0..2] OF ARRAY [0..7] OF INT", TagInt16, 1512, 192, false),
		variable("garden.vegetable_plot_at_back", "ARRAY [0..3,0..5,0..6] OF INT", TagInt16, 1704, 336, false),
		variable("MAIN.kitchen", "ST_Kitchen", TagBigType, 100, 112, false),
		variable("MAIN.dining_room", "ST_Room", TagBigType, 212, 82, false),
		variable("MAIN.living_room", "ST_Room", TagBigType, 294, 82, false),
		variable("MAIN.bedroom", "ARRAY [0..3] OF ST_Room", TagBigType, 376, 328, false),
		variable("MAIN.bathroom", "ARRAY [0..0] OF ST_Room", TagBigType, 704, 82, false),
		variable("MAIN.grid", "ARRAY [0..5,0..5] OF INT", TagInt16, 786, 72, false),
	}
	sensor := variable("MAIN.sensor", "INT", TagInt16, 0, 2, false)
	sensor.IndexGroup = ads.IndexGroupPhysicalInputs
	symbols = append(symbols, sensor)

	return symbols, dataTypes
}

// houseDirectory encodes the house model and loads it back through the parser.
func houseDirectory(t *testing.T) *Directory {
	t.Helper()

	syms, dts := houseModel()
	symbolBlob, err := EncodeSymbols(syms)
	require.NoError(t, err)
	dataTypeBlob, err := EncodeDataTypes(dts)
	require.NoError(t, err)

	dir, err := Load(symbolBlob, uint32(len(syms)), dataTypeBlob, uint32(len(dts)))
	require.NoError(t, err)
	return dir
}
