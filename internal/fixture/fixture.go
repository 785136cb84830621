// Package fixture builds symbol tables and simulated devices from YAML
// schema descriptions.
//
// Only structs and aliases need to be declared. Primitive types such as INT
// or STRING(80) and array types such as "ARRAY [0..3] OF ST_Room" are
// registered automatically the first time a symbol or field refers to them.
// Tags and sizes are inferred from the referenced type unless given.
package fixture

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrpasztoradam/goadsym/internal/ads"
	"github.com/mrpasztoradam/goadsym/internal/plcsim"
	"github.com/mrpasztoradam/goadsym/internal/symbols"
)

//go:embed house.yaml
var houseYAML []byte

// Schema is the YAML document root.
type Schema struct {
	DataTypes []DataTypeSpec `yaml:"data_types"`
	Symbols   []SymbolSpec   `yaml:"symbols"`
	Memory    []AreaSpec     `yaml:"memory"`
}

// DataTypeSpec declares a struct, an alias or a type whose inferred tag or
// size should be overridden.
type DataTypeSpec struct {
	Name    string      `yaml:"name"`
	Tag     *Tag        `yaml:"tag,omitempty"`
	Size    uint32      `yaml:"size,omitempty"`
	Comment string      `yaml:"comment,omitempty"`
	Fields  []FieldSpec `yaml:"fields,omitempty"`
}

// FieldSpec declares a struct member. Fields without an offset follow the
// previous field without padding.
type FieldSpec struct {
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	Tag        *Tag    `yaml:"tag,omitempty"`
	Offset     *uint32 `yaml:"offset,omitempty"`
	Size       uint32  `yaml:"size,omitempty"`
	Persistent bool    `yaml:"persistent,omitempty"`
	Comment    string  `yaml:"comment,omitempty"`
}

// SymbolSpec declares a top-level variable. Group defaults to the PLC data
// area; symbols without an offset are placed after the highest address used
// so far in their group.
type SymbolSpec struct {
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	Tag        *Tag    `yaml:"tag,omitempty"`
	Group      *uint32 `yaml:"group,omitempty"`
	Offset     *uint32 `yaml:"offset,omitempty"`
	Size       uint32  `yaml:"size,omitempty"`
	Persistent bool    `yaml:"persistent,omitempty"`
	Comment    string  `yaml:"comment,omitempty"`
}

// AreaSpec sizes a memory area and optionally seeds it with hex data at
// an offset. Areas for every used group are created even when not listed.
type AreaSpec struct {
	Group  uint32 `yaml:"group"`
	Size   uint32 `yaml:"size,omitempty"`
	Offset uint32 `yaml:"offset,omitempty"`
	Data   string `yaml:"data,omitempty"`
}

// Tag is a type tag written either by name (INT, STRUCT) or by number.
type Tag symbols.TypeTag

var tagNames = func() map[string]symbols.TypeTag {
	names := map[string]symbols.TypeTag{"BIGTYPE": symbols.TagBigType}
	for _, tag := range []symbols.TypeTag{
		symbols.TagVoid, symbols.TagInt8, symbols.TagUInt8, symbols.TagInt16,
		symbols.TagUInt16, symbols.TagInt32, symbols.TagUInt32, symbols.TagInt64,
		symbols.TagUInt64, symbols.TagReal32, symbols.TagReal64, symbols.TagBool,
		symbols.TagString, symbols.TagWString, symbols.TagBigType,
	} {
		names[tag.String()] = tag
	}
	return names
}()

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Tag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: tag must be a scalar", node.Line)
	}
	if n, err := strconv.ParseUint(node.Value, 0, 32); err == nil {
		*t = Tag(n)
		return nil
	}
	tag, ok := tagNames[strings.ToUpper(node.Value)]
	if !ok {
		return fmt.Errorf("line %d: unknown type tag %q", node.Line, node.Value)
	}
	*t = Tag(tag)
	return nil
}

// Area is a memory area of the simulated device.
type Area struct {
	IndexGroup uint32
	Size       uint32
	Patches    []Patch
}

// Patch is initial content written into an area.
type Patch struct {
	Offset uint32
	Data   []byte
}

// Model is a fully resolved schema.
type Model struct {
	Symbols   []symbols.Symbol
	DataTypes []symbols.DataType
	Areas     []Area
}

// House returns the built-in demo model: a garden of INT arrays and a house
// of nested structs.
func House() *Model {
	m, err := Parse(houseYAML)
	if err != nil {
		panic(fmt.Sprintf("fixture: built-in house model: %v", err))
	}
	return m
}

// LoadFile reads and builds a YAML schema file.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and builds a YAML schema. Unknown keys are rejected.
func Parse(data []byte) (*Model, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var schema Schema
	if err := dec.Decode(&schema); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	return Build(&schema)
}

// Build resolves every type reference in schema.
func Build(schema *Schema) (*Model, error) {
	r := &resolver{
		specs:    make(map[string]*DataTypeSpec, len(schema.DataTypes)),
		done:     make(map[string]*symbols.DataType),
		visiting: make(map[string]bool),
	}
	for i := range schema.DataTypes {
		spec := &schema.DataTypes[i]
		if spec.Name == "" {
			return nil, fmt.Errorf("fixture: data type %d: %w: missing name", i, ads.ErrInvalidArgument)
		}
		if _, dup := r.specs[spec.Name]; dup {
			return nil, fmt.Errorf("fixture: %w: data type %q declared twice", ads.ErrInvalidArgument, spec.Name)
		}
		r.specs[spec.Name] = spec
	}

	for _, spec := range schema.DataTypes {
		if _, err := r.dataType(spec.Name); err != nil {
			return nil, fmt.Errorf("fixture: %w", err)
		}
	}

	m := &Model{}
	used := make(map[uint32]uint32)
	seen := make(map[string]bool, len(schema.Symbols))
	for _, spec := range schema.Symbols {
		if seen[spec.Name] {
			return nil, fmt.Errorf("fixture: %w: symbol %q declared twice", ads.ErrInvalidArgument, spec.Name)
		}
		seen[spec.Name] = true

		sym, err := r.member(spec.Name, spec.Type, spec.Tag, spec.Size)
		if err != nil {
			return nil, fmt.Errorf("fixture: symbol %q: %w", spec.Name, err)
		}

		sym.IndexGroup = ads.IndexGroupPLCData
		if spec.Group != nil {
			sym.IndexGroup = *spec.Group
		}
		sym.Group, _ = symbols.GroupFromIndexGroup(sym.IndexGroup)
		sym.Offset = used[sym.IndexGroup]
		if spec.Offset != nil {
			sym.Offset = *spec.Offset
		}
		sym.Persistent = spec.Persistent
		sym.Comment = spec.Comment

		used[sym.IndexGroup] = max(used[sym.IndexGroup], sym.Offset+sym.Size)
		m.Symbols = append(m.Symbols, sym)
	}

	for _, name := range r.order {
		m.DataTypes = append(m.DataTypes, *r.done[name])
	}

	areas, err := buildAreas(schema.Memory, used)
	if err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	m.Areas = areas
	return m, nil
}

func buildAreas(specs []AreaSpec, used map[uint32]uint32) ([]Area, error) {
	byGroup := make(map[uint32]*Area, len(used))
	area := func(group uint32) *Area {
		a, ok := byGroup[group]
		if !ok {
			a = &Area{IndexGroup: group, Size: used[group]}
			byGroup[group] = a
		}
		return a
	}

	for group := range used {
		area(group)
	}
	for _, spec := range specs {
		a := area(spec.Group)
		a.Size = max(a.Size, spec.Size)
		if spec.Data == "" {
			continue
		}
		data, err := hex.DecodeString(strings.ReplaceAll(spec.Data, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: memory 0x%X: %v", ads.ErrInvalidArgument, spec.Group, err)
		}
		a.Size = max(a.Size, spec.Offset+uint32(len(data)))
		a.Patches = append(a.Patches, Patch{Offset: spec.Offset, Data: data})
	}

	out := make([]Area, 0, len(byGroup))
	for _, a := range byGroup {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IndexGroup < out[j].IndexGroup })
	return out, nil
}

// Blobs encodes the model in the device upload formats.
func (m *Model) Blobs() (symbolData, dataTypeData []byte, err error) {
	symbolData, err = symbols.EncodeSymbols(m.Symbols)
	if err != nil {
		return nil, nil, err
	}
	dataTypeData, err = symbols.EncodeDataTypes(m.DataTypes)
	if err != nil {
		return nil, nil, err
	}
	return symbolData, dataTypeData, nil
}

// Directory encodes the model and parses it back.
func (m *Model) Directory() (*symbols.Directory, error) {
	symbolData, dataTypeData, err := m.Blobs()
	if err != nil {
		return nil, err
	}
	return symbols.Load(symbolData, uint32(len(m.Symbols)), dataTypeData, uint32(len(m.DataTypes)))
}

// Device returns a simulated device serving the model with its memory
// areas allocated and seeded.
func (m *Model) Device() (*plcsim.Device, error) {
	symbolData, dataTypeData, err := m.Blobs()
	if err != nil {
		return nil, err
	}

	dev := plcsim.New(symbolData, uint32(len(m.Symbols)), dataTypeData, uint32(len(m.DataTypes)))
	for _, a := range m.Areas {
		dev.AddArea(a.IndexGroup, a.Size)
		for _, p := range a.Patches {
			if err := dev.Poke(a.IndexGroup, p.Offset, p.Data); err != nil {
				return nil, fmt.Errorf("seed 0x%X+%d: %w", a.IndexGroup, p.Offset, err)
			}
		}
	}
	return dev, nil
}
