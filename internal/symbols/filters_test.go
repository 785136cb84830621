package symbols

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPathNodeFlat(t *testing.T) {
	node := &pathNode{name: "something", next: &pathNode{name: "another_thing"}}
	assert.Equal(t, []string{"first_thing.something.another_thing"}, node.paths("first_thing"))
}

func TestPathNodeArrayStart(t *testing.T) {
	node := &pathNode{ranges: []Range{{0, 1}}, next: &pathNode{name: "end"}}
	assert.Equal(t, []string{"start[0].end", "start[1].end"}, node.paths("start"))
}

func TestPathNodeNestedArrays(t *testing.T) {
	node := &pathNode{
		name: "many",
		next: &pathNode{
			ranges: []Range{{-1, 0}},
			next: &pathNode{
				ranges: []Range{{0, 2}},
				next: &pathNode{
					name: "items",
					next: &pathNode{
						ranges: []Range{{-8, -7}},
						next:   &pathNode{name: "together"},
					},
				},
			},
		},
	}

	want := []string{
		"very.many[-1][0].items[-8].together",
		"very.many[0][0].items[-8].together",
		"very.many[-1][1].items[-8].together",
		"very.many[0][1].items[-8].together",
		"very.many[-1][2].items[-8].together",
		"very.many[0][2].items[-8].together",
		"very.many[-1][0].items[-7].together",
		"very.many[0][0].items[-7].together",
		"very.many[-1][1].items[-7].together",
		"very.many[0][1].items[-7].together",
		"very.many[-1][2].items[-7].together",
		"very.many[0][2].items[-7].together",
	}
	assert.Equal(t, want, node.paths("very"))
}

func TestPersistent(t *testing.T) {
	dir := houseDirectory(t)

	want := []string{
		"garden.plants",
		"MAIN.kitchen.name",
		"MAIN.kitchen.fridge",
		"MAIN.dining_room.name",
		"MAIN.living_room.name",
		"MAIN.bedroom[0].name",
		"MAIN.bedroom[1].name",
		"MAIN.bedroom[2].name",
		"MAIN.bedroom[3].name",
		"MAIN.bathroom[0].name",
	}
	assert.Equal(t, want, dir.Persistent())
}

func TestPersistentDescendsIntoNonPersistentStruct(t *testing.T) {
	syms, dts := houseModel()
	for i := range dts {
		if dts[i].Name != "ST_Kitchen" {
			continue
		}
		for j := range dts[i].Fields {
			if dts[i].Fields[j].Name == "fridge" {
				dts[i].Fields[j].Persistent = false
			}
		}
	}
	dir := NewDirectory(syms, dts)

	got := dir.Persistent()
	assert.NotContains(t, got, "MAIN.kitchen.fridge")
	assert.Contains(t, got, "MAIN.kitchen.fridge.top_shelf")
	assert.Contains(t, got, "MAIN.kitchen.fridge.middle_shelf")
	assert.Contains(t, got, "MAIN.kitchen.fridge.bottom_shelf")
	assert.Contains(t, got, "MAIN.kitchen.fridge.door_shelf")
	assert.Contains(t, got, "MAIN.kitchen.fridge.drawer")
}

func TestWithDataTypeName(t *testing.T) {
	dir := houseDirectory(t)

	assert.Equal(t, []string{
		"MAIN.kitchen.name",
		"MAIN.dining_room.name",
		"MAIN.living_room.name",
		"MAIN.bedroom[0].name",
		"MAIN.bedroom[1].name",
		"MAIN.bedroom[2].name",
		"MAIN.bedroom[3].name",
		"MAIN.bathroom[0].name",
	}, dir.WithDataTypeName("STRING(80)"))

	assert.Equal(t, []string{"MAIN.kitchen.fridge"}, dir.WithDataTypeName("ST_Fridge"))
	assert.Empty(t, dir.WithDataTypeName("ST_Garage"))
}

func TestFlattenCombinedBracket(t *testing.T) {
	syms, dts := houseModel()
	dts = append(dts, arrayType("ARRAY [0..1,1..2] OF ST_Room", "ST_Room", TagBigType, 328))
	syms = append(syms, variable("MAIN.wing", "ARRAY [0..1,1..2] OF ST_Room", TagBigType, 900, 328, false))
	dir := NewDirectory(syms, dts)

	var got []string
	for _, p := range dir.Persistent() {
		if len(p) > 9 && p[:9] == "MAIN.wing" {
			got = append(got, p)
		}
	}
	assert.Equal(t, []string{
		"MAIN.wing[0,1].name",
		"MAIN.wing[0,2].name",
		"MAIN.wing[1,1].name",
		"MAIN.wing[1,2].name",
	}, got)
}

func TestFlattenTerminatesOnCycles(t *testing.T) {
	tests := []struct {
		name  string
		types []DataType
		want  []string
	}{
		{
			name: "single field",
			types: []DataType{{
				Name: "ST_Loop", Tag: TagBigType, Size: 8,
				Fields: []Symbol{{Name: "next", TypeName: "ST_Loop", Tag: TagBigType, Size: 8}},
			}},
		},
		{
			name: "two fields",
			types: []DataType{{
				Name: "ST_Loop", Tag: TagBigType, Size: 16,
				Fields: []Symbol{
					{Name: "a", TypeName: "ST_Loop", Tag: TagBigType, Size: 8},
					{Name: "b", TypeName: "ST_Loop", Tag: TagBigType, Offset: 8, Size: 8},
					{Name: "id", TypeName: "DINT", Tag: TagInt32, Offset: 16, Size: 4, Persistent: true},
				},
			}},
			want: []string{"MAIN.loop.id"},
		},
		{
			name: "through an array",
			types: []DataType{
				{
					Name: "ST_Loop", Tag: TagBigType, Size: 16,
					Fields: []Symbol{
						{Name: "children", TypeName: "ARRAY [0..1] OF ST_Loop", Tag: TagBigType, Size: 16},
						{Name: "other", TypeName: "ST_Other", Tag: TagBigType, Size: 4},
					},
				},
				arrayType("ARRAY [0..1] OF ST_Loop", "ST_Loop", TagBigType, 16),
				{
					Name: "ST_Other", Tag: TagBigType, Size: 4,
					Fields: []Symbol{{Name: "back", TypeName: "ST_Loop", Tag: TagBigType, Size: 4}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := NewDirectory(
				[]Symbol{{Name: "MAIN.loop", TypeName: "ST_Loop", Tag: TagBigType}},
				tt.types,
			)

			done := make(chan []string, 1)
			go func() { done <- dir.Persistent() }()

			select {
			case got := <-done:
				assert.Equal(t, tt.want, got)
			case <-time.After(5 * time.Second):
				t.Fatal("Persistent did not return")
			}
		})
	}
}

func TestFlattenSharedTypes(t *testing.T) {
	leaf := DataType{
		Name: "ST_Leaf", Tag: TagBigType, Size: 2,
		Fields: []Symbol{{Name: "v", TypeName: "INT", Tag: TagInt16, Size: 2, Persistent: true}},
	}
	pair := DataType{
		Name: "ST_Pair", Tag: TagBigType, Size: 4,
		Fields: []Symbol{
			{Name: "l", TypeName: "ST_Leaf", Tag: TagBigType, Size: 2},
			{Name: "r", TypeName: "ST_Leaf", Tag: TagBigType, Offset: 2, Size: 2},
		},
	}
	dir := NewDirectory(
		[]Symbol{
			{Name: "MAIN.a", TypeName: "ST_Pair", Tag: TagBigType},
			{Name: "MAIN.b", TypeName: "ST_Leaf", Tag: TagBigType},
		},
		[]DataType{leaf, pair},
	)

	assert.Equal(t, []string{"MAIN.a.l.v", "MAIN.a.r.v", "MAIN.b.v"}, dir.Persistent())
}
