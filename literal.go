package goadsym

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrpasztoradam/goadsym/internal/ads"
	"github.com/mrpasztoradam/goadsym/internal/symbols"
)

// SplitArrayLiteral splits "[a,b,c]" into its top-level elements. Commas
// inside nested brackets or double-quoted strings do not split; a backslash
// escapes a quote inside a string. Elements are returned verbatim.
func SplitArrayLiteral(text string) ([]string, error) {
	if !strings.HasPrefix(text, "[") {
		return nil, fmt.Errorf("%w: expected an array, but input does not start with '[': %s", ads.ErrInvalidArgument, text)
	}
	if len(text) < 2 || !strings.HasSuffix(text, "]") {
		return nil, fmt.Errorf("%w: expected an array, but input does not end with ']': %s", ads.ErrInvalidArgument, text)
	}

	inner := text[1 : len(text)-1]
	if strings.TrimSpace(inner) == "" {
		return nil, nil
	}

	var (
		out      []string
		current  strings.Builder
		depth    int
		inString bool
		escape   bool
	)
	for _, r := range inner {
		switch {
		case r == '[' && !inString:
			depth++
		case r == ']' && !inString:
			depth--
		case r == '"' && !inString:
			inString = true
		case r == '"' && inString && !escape:
			inString = false
		}

		if r == ',' && depth == 0 && !inString {
			out = append(out, current.String())
			current.Reset()
		} else {
			current.WriteRune(r)
		}

		if depth < 0 {
			return nil, fmt.Errorf("%w: invalid array: %s", ads.ErrInvalidArgument, text)
		}
		escape = r == '\\' && inString && !escape
	}
	out = append(out, current.String())

	if depth != 0 || inString {
		return nil, fmt.Errorf("%w: invalid array: %s", ads.ErrInvalidArgument, text)
	}
	return out, nil
}

// ParseLiteral parses human-readable text into a value shaped for sym.
// ranges are the array dimensions still to be filled, outermost first.
//
// Scalars follow the symbol's type tag. Integers accept decimal, Go prefixes
// (0x, 0b, 0o) and IEC radix notation (16#FF); underscores separate digits.
// Strings may be bare or wrapped in double or single quotes.
func ParseLiteral(text string, sym *symbols.Symbol, ranges []symbols.Range) (Variable, error) {
	text = strings.TrimSpace(text)

	if len(ranges) > 0 {
		parts, err := SplitArrayLiteral(text)
		if err != nil {
			return nil, err
		}
		elements := make([]Variable, 0, len(parts))
		for i, part := range parts {
			v, err := ParseLiteral(part, sym, ranges[1:])
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			elements = append(elements, v)
		}
		return NewArray(elements...), nil
	}

	switch sym.Tag {
	case symbols.TagVoid:
		if text != "" {
			return nil, fmt.Errorf("%w: void takes no value, got %q", ads.ErrInvalidArgument, text)
		}
		return Void{}, nil
	case symbols.TagBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, invalidLiteral(sym, text, err)
		}
		return Bool(b), nil
	case symbols.TagInt8:
		n, err := parseInt(text, 8)
		return I8(n), literalErr(sym, text, err)
	case symbols.TagInt16:
		n, err := parseInt(text, 16)
		return I16(n), literalErr(sym, text, err)
	case symbols.TagInt32:
		n, err := parseInt(text, 32)
		return I32(n), literalErr(sym, text, err)
	case symbols.TagInt64:
		n, err := parseInt(text, 64)
		return I64(n), literalErr(sym, text, err)
	case symbols.TagUInt8:
		n, err := parseUint(text, 8)
		return U8(n), literalErr(sym, text, err)
	case symbols.TagUInt16:
		n, err := parseUint(text, 16)
		return U16(n), literalErr(sym, text, err)
	case symbols.TagUInt32:
		n, err := parseUint(text, 32)
		return U32(n), literalErr(sym, text, err)
	case symbols.TagUInt64:
		n, err := parseUint(text, 64)
		return U64(n), literalErr(sym, text, err)
	case symbols.TagReal32:
		f, err := strconv.ParseFloat(text, 32)
		return F32(f), literalErr(sym, text, err)
	case symbols.TagReal64:
		f, err := strconv.ParseFloat(text, 64)
		return F64(f), literalErr(sym, text, err)
	case symbols.TagString:
		return String(unquoteLiteral(text)), nil
	case symbols.TagBigType:
		return nil, fmt.Errorf("%w: struct literals, set %q field by field", ads.ErrUnsupported, sym.Name)
	default:
		return nil, unsupportedTag(sym)
	}
}

// TextToBytes parses text for sym and encodes it.
func TextToBytes(text string, sym *symbols.Symbol, ranges []symbols.Range) ([]byte, error) {
	v, err := ParseLiteral(text, sym, ranges)
	if err != nil {
		return nil, err
	}
	return encode(sym, ranges, v)
}

func invalidLiteral(sym *symbols.Symbol, text string, err error) error {
	return fmt.Errorf("%w: %q is not a valid %s for %q: %v", ads.ErrInvalidArgument, text, sym.Tag, sym.Name, err)
}

// literalErr wraps a parse error; a nil err stays nil so the scalar cases
// can return value and error together.
func literalErr(sym *symbols.Symbol, text string, err error) error {
	if err == nil {
		return nil
	}
	return invalidLiteral(sym, text, err)
}

func parseInt(text string, bits int) (int64, error) {
	if base, digits, ok := iecRadix(text); ok {
		return strconv.ParseInt(digits, base, bits)
	}
	return strconv.ParseInt(text, 0, bits)
}

func parseUint(text string, bits int) (uint64, error) {
	if base, digits, ok := iecRadix(text); ok {
		return strconv.ParseUint(digits, base, bits)
	}
	return strconv.ParseUint(text, 0, bits)
}

// iecRadix splits "16#FF" style literals. A leading sign stays with the
// digits.
func iecRadix(text string) (int, string, bool) {
	sign := ""
	if strings.HasPrefix(text, "-") || strings.HasPrefix(text, "+") {
		sign, text = text[:1], text[1:]
	}

	radix, digits, found := strings.Cut(text, "#")
	if !found {
		return 0, "", false
	}
	base, err := strconv.Atoi(radix)
	if err != nil || (base != 2 && base != 8 && base != 16) {
		return 0, "", false
	}
	return base, sign + strings.ReplaceAll(digits, "_", ""), true
}

func unquoteLiteral(text string) string {
	if len(text) < 2 {
		return text
	}
	first, last := text[0], text[len(text)-1]
	if (first != '"' && first != '\'') || first != last {
		return text
	}

	// Only \\ and an escaped quote are escapes; other backslashes are kept.
	inner := text[1 : len(text)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) && (inner[i+1] == '\\' || inner[i+1] == first) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

// QuoteLiteral wraps s in double quotes, escaping backslashes and quotes so
// that ParseLiteral and SplitArrayLiteral read it back unchanged.
func QuoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
