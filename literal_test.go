package goadsym

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrpasztoradam/goadsym/internal/symbols"
)

func TestSplitArrayLiteral(t *testing.T) {
	tests := []struct {
		desc string
		text string
		want []string
	}{
		{
			desc: "simple",
			text: "[1,2,3,4,5]",
			want: []string{"1", "2", "3", "4", "5"},
		},
		{
			desc: "strings",
			text: `["hello","world","let's "escape"!"]`,
			want: []string{`"hello"`, `"world"`, `"let's "escape"!"`},
		},
		{
			desc: "comma in string",
			text: `["a,b","c"]`,
			want: []string{`"a,b"`, `"c"`},
		},
		{
			desc: "escaped quote",
			text: `["say \"hi, there\"",x]`,
			want: []string{`"say \"hi, there\""`, "x"},
		},
		{
			desc: "trailing backslash",
			text: `["a\\","b"]`,
			want: []string{`"a\\"`, `"b"`},
		},
		{
			desc: "nested",
			text: "[[1,2,3],[4,5,6],[20,21,22]]",
			want: []string{"[1,2,3]", "[4,5,6]", "[20,21,22]"},
		},
		{
			desc: "bare words",
			text: "[1,2,x,z]",
			want: []string{"1", "2", "x", "z"},
		},
		{
			desc: "empty",
			text: "[]",
		},
	}

	for _, test := range tests {
		got, err := SplitArrayLiteral(test.text)
		if err != nil {
			t.Errorf("SplitArrayLiteral(%s): %v", test.desc, err)
			continue
		}
		if diff := pretty.Compare(test.want, got); diff != "" {
			t.Errorf("SplitArrayLiteral(%s): -want/+got:\n%s", test.desc, diff)
		}
	}
}

func TestSplitArrayLiteralErrors(t *testing.T) {
	for _, text := range []string{
		"[1,2,3,4",
		"1,2,3,4]",
		"[1,2,3]x[4,5,6]",
		`[1,2,",x,z]`,
		"[",
		"",
	} {
		_, err := SplitArrayLiteral(text)
		assert.ErrorIs(t, err, ErrInvalidArgument, "SplitArrayLiteral(%q)", text)
	}
}

func TestParseLiteral(t *testing.T) {
	sym := func(tag symbols.TypeTag) *symbols.Symbol {
		return &symbols.Symbol{Name: "MAIN.x", Tag: tag}
	}

	tests := []struct {
		text string
		tag  symbols.TypeTag
		want Variable
	}{
		{"TRUE", symbols.TagBool, Bool(true)},
		{"0", symbols.TagBool, Bool(false)},
		{"-128", symbols.TagInt8, I8(-128)},
		{"16#7FFF", symbols.TagInt16, I16(0x7FFF)},
		{"-16#10", symbols.TagInt16, I16(-16)},
		{"2#1010_1010", symbols.TagUInt8, U8(0xAA)},
		{"8#17", symbols.TagUInt16, U16(15)},
		{"1_000_000", symbols.TagInt32, I32(1000000)},
		{"0b11", symbols.TagUInt32, U32(3)},
		{" 42 ", symbols.TagInt64, I64(42)},
		{"18446744073709551615", symbols.TagUInt64, U64(18446744073709551615)},
		{"1.5", symbols.TagReal32, F32(1.5)},
		{"-1e3", symbols.TagReal64, F64(-1000)},
		{`"quoted \"text\""`, symbols.TagString, String(`quoted "text"`)},
		{`'single'`, symbols.TagString, String("single")},
		{"plain", symbols.TagString, String("plain")},
		{`"a\\"`, symbols.TagString, String(`a\`)},
		{`"C:\temp"`, symbols.TagString, String(`C:\temp`)},
		{"", symbols.TagVoid, Void{}},
	}

	for _, tt := range tests {
		got, err := ParseLiteral(tt.text, sym(tt.tag), nil)
		require.NoError(t, err, "ParseLiteral(%q, %s)", tt.text, tt.tag)
		assert.Equal(t, tt.want, got, "ParseLiteral(%q, %s)", tt.text, tt.tag)
	}
}

func TestParseLiteralErrors(t *testing.T) {
	tests := []struct {
		text string
		tag  symbols.TypeTag
		want error
	}{
		{"yes", symbols.TagBool, ErrInvalidArgument},
		{"128", symbols.TagInt8, ErrInvalidArgument},
		{"-1", symbols.TagUInt16, ErrInvalidArgument},
		{"16#G", symbols.TagInt32, ErrInvalidArgument},
		{"one", symbols.TagReal64, ErrInvalidArgument},
		{"x", symbols.TagVoid, ErrInvalidArgument},
		{"{}", symbols.TagBigType, ErrUnsupported},
		{`"w"`, symbols.TagWString, ErrUnsupported},
		{"1", symbols.TypeTag(7), ErrMalformedData},
	}

	for _, tt := range tests {
		_, err := ParseLiteral(tt.text, &symbols.Symbol{Name: "MAIN.x", Tag: tt.tag}, nil)
		assert.ErrorIs(t, err, tt.want, "ParseLiteral(%q, %s)", tt.text, tt.tag)
	}
}

func TestParseLiteralArrays(t *testing.T) {
	sym := &symbols.Symbol{Name: "MAIN.grid", Tag: symbols.TagInt16}
	ranges := []symbols.Range{{Lo: 0, Hi: 1}, {Lo: 0, Hi: 2}}

	got, err := ParseLiteral("[[1,2,3],[4]]", sym, ranges)
	require.NoError(t, err)
	want := NewArray(NewArray(ints16(1, 2, 3)...), NewArray(ints16(4)...))
	if diff := pretty.Compare(want, got); diff != "" {
		t.Errorf("ParseLiteral: -want/+got:\n%s", diff)
	}

	data, err := TextToBytes("[[1,2,3],[4]]", sym, ranges)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 4, 0}, data)

	_, err = TextToBytes("[[1,2],[4]]", sym, ranges)
	assert.ErrorIs(t, err, ErrInvalidArgument, "inner dimensions must be complete")

	_, err = ParseLiteral("[1,[2]]", sym, ranges)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ParseLiteral("5", sym, ranges)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	got, err = ParseLiteral("[]", sym, ranges[1:])
	require.NoError(t, err)
	assert.Empty(t, got.(Array).Elements)

	strs := &symbols.Symbol{Name: "MAIN.names", Tag: symbols.TagString}
	got, err = ParseLiteral(`["a,b", c]`, strs, ranges[:1])
	require.NoError(t, err)
	assert.Equal(t, `["a,b","c"]`, got.String())
}

func TestQuoteLiteralRoundTrip(t *testing.T) {
	strs := &symbols.Symbol{Name: "MAIN.names", Tag: symbols.TagString}
	ranges := []symbols.Range{{Lo: 0, Hi: 2}}

	values := []String{`a\`, `say "hi"`, `\"`, "x,y"}
	for _, v := range values {
		got, err := ParseLiteral(QuoteLiteral(string(v)), strs, nil)
		require.NoError(t, err, "scalar %q", v)
		assert.Equal(t, v, got)
	}

	want := NewArray(String(`a\`), String(`b"`), String(""))
	got, err := ParseLiteral(want.String(), strs, ranges)
	require.NoError(t, err, "array %s", want)
	if diff := pretty.Compare(want, got); diff != "" {
		t.Errorf("ParseLiteral(%s): -want/+got:\n%s", want, diff)
	}
}
