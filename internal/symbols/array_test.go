package symbols

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrpasztoradam/goadsym/internal/ads"
)

func TestStripAccessors(t *testing.T) {
	const nested = "ARRAY [-6..2] OF ARRAY [3..7] OF UINT"
	const combined = "ARRAY [0..1,1..2,2..3] OF ARRAY [3..5] OF ARRAY [2..4,4..5] OF USINT"

	tests := []struct {
		typeName string
		n        int
		want     string
		wantErr  error
	}{
		{"UINT", 0, "UINT", nil},
		{"UINT", 1, "", ads.ErrOutOfBounds},
		{"ARRAY [3..7] OF UINT", 1, "UINT", nil},
		{"ARRAY [3..7] OF UINT", 2, "", ads.ErrOutOfBounds},
		{nested, 1, "ARRAY [3..7] OF UINT", nil},
		{nested, 2, "UINT", nil},
		{nested, 3, "", ads.ErrOutOfBounds},
		{"ARRAY [0..1,1..2] OF USINT", 1, "", ads.ErrOutOfBounds},
		{"ARRAY [0..1,1..2] OF USINT", 2, "USINT", nil},
		{"ARRAY [0..1,1..2] OF USINT", 3, "", ads.ErrOutOfBounds},
		{combined, 1, "", ads.ErrOutOfBounds},
		{combined, 2, "", ads.ErrOutOfBounds},
		{combined, 3, "ARRAY [3..5] OF ARRAY [2..4,4..5] OF USINT", nil},
		{combined, 4, "ARRAY [2..4,4..5] OF USINT", nil},
		{combined, 5, "", ads.ErrOutOfBounds},
		{combined, 6, "USINT", nil},
		{combined, 7, "", ads.ErrOutOfBounds},
		{"ARRAY [0..3] OF POINTER TO ST_Room", 1, "ST_Room", nil},
		{"ARRAY ]0..3[ OF INT", 1, "", ads.ErrMalformedSchema},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got, err := StripAccessors(tt.typeName, tt.n)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "n=%d: got %v", tt.n, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "n=%d", tt.n)
		})
	}
}

func TestBaseTypeName(t *testing.T) {
	tests := map[string]string{
		"UINT":                                  "UINT",
		"ARRAY [3..7] OF UINT":                  "UINT",
		"ARRAY [-6..2] OF ARRAY [3..7] OF UINT": "UINT",
		"ARRAY [0..1,1..2] OF USINT":            "USINT",
		"REFERENCE TO ST_Room":                  "ST_Room",
	}

	for in, want := range tests {
		if got := BaseTypeName(in); got != want {
			t.Errorf("BaseTypeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseRanges(t *testing.T) {
	tests := []struct {
		typeName string
		want     []Range
	}{
		{"UINT", nil},
		{"ST_ARRAYHOLDER", nil},
		{"ARRAY [3..7] OF UINT", []Range{{3, 7}}},
		{"ARRAY [-6..2] OF ARRAY [3..7] OF UINT", []Range{{-6, 2}, {3, 7}}},
		{
			"ARRAY [-6..2,1..3,-8..-4] OF ARRAY [3..7] OF ARRAY [1..2,2..3,3..4] OF UINT",
			[]Range{{-6, 2}, {1, 3}, {-8, -4}, {3, 7}, {1, 2}, {2, 3}, {3, 4}},
		},
		{"ARRAY [0..1, 1..2] OF USINT", []Range{{0, 1}, {1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got, err := ParseRanges(tt.typeName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRangesErrors(t *testing.T) {
	for _, typeName := range []string{
		"ARRAY [..7] OF UINT",
		"ARRAY [3..] OF UINT",
		"ARRAY [7..3] OF UINT",
		"ARRAY [3:7] OF UINT",
		"ARRAY [3..7 OF UINT",
		"ARRAY [a..7] OF UINT",
	} {
		t.Run(typeName, func(t *testing.T) {
			_, err := ParseRanges(typeName)
			require.Error(t, err)
			assert.ErrorIs(t, err, ads.ErrMalformedSchema)
		})
	}
}

func TestRangeLen(t *testing.T) {
	assert.Equal(t, 5, Range{3, 7}.Len())
	assert.Equal(t, 1, Range{0, 0}.Len())
	assert.Equal(t, 9, Range{-6, 2}.Len())
	assert.Equal(t, 0, Range{1, 0}.Len())
	assert.True(t, Range{-6, 2}.Contains(-6))
	assert.False(t, Range{-6, 2}.Contains(3))
}

func TestCountAccessors(t *testing.T) {
	tests := map[string]int{
		"my_value":              0,
		"my_value[-8]":          1,
		"my_value[3][5]":        2,
		"my_value[3,5]":         2,
		"my_value[-8][3,5]":     3,
		"MAIN.bedroom[2].name":  0,
		"MAIN.kitchen.shelf[1]": 1,
		"a.b[1].c[2][3]":        2,
	}

	for in, want := range tests {
		if got := CountAccessors(in); got != want {
			t.Errorf("CountAccessors(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestTrimAccessors(t *testing.T) {
	assert.Equal(t, "my_value", TrimAccessors("my_value"))
	assert.Equal(t, "my_value", TrimAccessors("my_value[-8]"))
	assert.Equal(t, "my_value", TrimAccessors("my_value[3][5]"))
}

func TestParseAccessors(t *testing.T) {
	got, err := ParseAccessors("plot[1][2, -3]")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, -3}, got)

	got, err = ParseAccessors("plot")
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, bad := range []string{"plot[1", "plot[x]", "plot[1]x"} {
		_, err := ParseAccessors(bad)
		assert.ErrorIs(t, err, ads.ErrInvalidArgument, bad)
	}
}
