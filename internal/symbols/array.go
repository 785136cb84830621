package symbols

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrpasztoradam/goadsym/internal/ads"
)

// Range is an inclusive array dimension. Hi < Lo denotes an empty dimension.
type Range struct {
	Lo int32
	Hi int32
}

// Len returns the number of elements in the dimension.
func (r Range) Len() int {
	if r.Hi < r.Lo {
		return 0
	}
	return int(r.Hi) - int(r.Lo) + 1
}

// Contains reports whether index lies within the dimension.
func (r Range) Contains(index int) bool {
	return index >= int(r.Lo) && index <= int(r.Hi)
}

func (r Range) String() string {
	return fmt.Sprintf("%d..%d", r.Lo, r.Hi)
}

// outerGroup splits "ARRAY [a..b,c..d] OF T" into the text between the first
// pair of brackets and T. ok is false when the name has no array clause left.
func outerGroup(typeName string) (bracket, element string, ok bool, err error) {
	open := strings.IndexByte(typeName, '[')
	closing := strings.IndexByte(typeName, ']')
	of := strings.Index(typeName, " OF ")
	if open < 0 || closing < 0 || of < 0 {
		return "", "", false, nil
	}
	if open >= closing || closing >= of {
		return "", "", false, fmt.Errorf("%w: unexpected data type %q", ads.ErrMalformedSchema, typeName)
	}
	return typeName[open+1 : closing], strings.TrimSpace(typeName[of+4:]), true, nil
}

// StripAccessors removes n accessor units from an array type name and returns
// the remaining type name. A bracket with k comma-separated dimensions counts
// as k units and can only be stripped as a whole.
func StripAccessors(typeName string, n int) (string, error) {
	remainder := typeName
	for n > 0 {
		bracket, element, ok, err := outerGroup(remainder)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: too many array accessors for %q", ads.ErrOutOfBounds, typeName)
		}

		units := strings.Count(bracket, ",") + 1
		if units > n {
			return "", fmt.Errorf("%w: cannot index into the middle of %q", ads.ErrOutOfBounds, typeName)
		}
		n -= units
		remainder = element
	}
	return stripReference(remainder), nil
}

// BaseTypeName strips every array clause from a type name.
func BaseTypeName(typeName string) string {
	base := typeName
	if i := strings.LastIndex(typeName, " OF "); i >= 0 {
		base = strings.TrimSpace(typeName[i+4:])
	}
	return stripReference(base)
}

// stripReference reduces "POINTER TO T" and "REFERENCE TO T" to T.
func stripReference(typeName string) string {
	if i := strings.LastIndex(typeName, " TO "); i >= 0 {
		return strings.TrimSpace(typeName[i+4:])
	}
	return typeName
}

// ParseRanges returns every dimension declared by the ARRAY clauses of a type
// name, outermost first.
func ParseRanges(typeName string) ([]Range, error) {
	var ranges []Range

	remainder := typeName
	for {
		open, ok := nextArrayClause(remainder)
		if !ok {
			return ranges, nil
		}

		closing := strings.IndexByte(remainder[open:], ']')
		if closing < 0 {
			return nil, fmt.Errorf("%w: cannot find ']' in %q", ads.ErrMalformedSchema, typeName)
		}
		closing += open

		group, err := parseBracket(remainder[open+1:closing])
		if err != nil {
			return nil, fmt.Errorf("%w in %q", err, typeName)
		}
		ranges = append(ranges, group...)
		remainder = remainder[closing+1:]
	}
}

// nextArrayClause finds "ARRAY" followed by an opening bracket and returns the
// bracket's position.
func nextArrayClause(s string) (int, bool) {
	offset := 0
	for {
		i := strings.Index(s[offset:], "ARRAY")
		if i < 0 {
			return 0, false
		}
		j := offset + i + len("ARRAY")
		for j < len(s) && s[j] == ' ' {
			j++
		}
		if j < len(s) && s[j] == '[' {
			return j, true
		}
		offset = offset + i + len("ARRAY")
	}
}

// parseBracket parses the comma-separated "lo..hi" list of one bracket.
func parseBracket(bracket string) ([]Range, error) {
	dims := strings.Split(bracket, ",")
	ranges := make([]Range, 0, len(dims))
	for _, dim := range dims {
		mid := strings.Index(dim, "..")
		if mid < 0 {
			return nil, fmt.Errorf("%w: cannot find \"..\" in dimension %q", ads.ErrMalformedSchema, dim)
		}

		lo, err := strconv.ParseInt(strings.TrimSpace(dim[:mid]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid start dimension %q", ads.ErrMalformedSchema, dim[:mid])
		}
		hi, err := strconv.ParseInt(strings.TrimSpace(dim[mid+2:]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end dimension %q", ads.ErrMalformedSchema, dim[mid+2:])
		}
		if lo > hi {
			return nil, fmt.Errorf("%w: invalid array dimensions %d > %d", ads.ErrMalformedSchema, lo, hi)
		}

		ranges = append(ranges, Range{Lo: int32(lo), Hi: int32(hi)})
	}
	return ranges, nil
}

// CountAccessors counts the accessor units on the last segment of a path.
// "a[3][5]" and "a[3,5]" both count 2.
func CountAccessors(path string) int {
	count := 0
	inside := false
	for i := len(path) - 1; i >= 0; i-- {
		switch c := path[i]; {
		case c == ']':
			inside = true
			count++
		case inside && c == ',':
			count++
		case c == '[':
			inside = false
		case c == '.':
			return count
		}
	}
	return count
}

// TrimAccessors returns the segment text before its first accessor.
func TrimAccessors(segment string) string {
	if i := strings.IndexByte(segment, '['); i >= 0 {
		return segment[:i]
	}
	return segment
}

// ParseAccessors returns the indices of every accessor on a segment, in
// order. "a[1][2,3]" yields [1 2 3].
func ParseAccessors(segment string) ([]int, error) {
	var indices []int

	rest := segment[len(TrimAccessors(segment)):]
	for len(rest) > 0 {
		if rest[0] != '[' {
			return nil, fmt.Errorf("%w: unexpected %q after accessor in %q", ads.ErrInvalidArgument, rest, segment)
		}
		closing := strings.IndexByte(rest, ']')
		if closing < 0 {
			return nil, fmt.Errorf("%w: missing ']' in %q", ads.ErrInvalidArgument, segment)
		}

		for _, part := range strings.Split(rest[1:closing], ",") {
			index, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("%w: invalid array index %q in %q", ads.ErrInvalidArgument, part, segment)
			}
			indices = append(indices, index)
		}
		rest = rest[closing+1:]
	}

	return indices, nil
}

// ElementTypeName returns the type one array clause below typeName. ok is
// false when typeName is not an array.
func ElementTypeName(typeName string) (element string, ok bool, err error) {
	_, element, ok, err = outerGroup(typeName)
	return element, ok, err
}
