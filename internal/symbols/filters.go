package symbols

import (
	"strconv"
	"strings"
)

// Predicate selects symbols during flattening.
type Predicate func(*Symbol) bool

// Flatten returns every concrete path whose symbol satisfies pred. A
// top-level symbol that matches is emitted as is; otherwise its data type is
// expanded field by field and across array dimensions. Fields whose data type
// cannot be resolved are skipped, as are fields whose type is already being
// expanded further up the path.
func (d *Directory) Flatten(pred Predicate) []string {
	f := &flattener{
		dir:    d,
		pred:   pred,
		active: make(map[string]bool),
		done:   make(map[string][]*pathNode),
	}

	var out []string
	for _, sym := range d.symbolOrder {
		if pred(sym) {
			out = append(out, sym.Name)
			continue
		}

		dt, exists := d.dataTypes[sym.TypeName]
		if !exists {
			continue
		}
		for _, node := range f.expand(dt) {
			out = append(out, node.paths(sym.Name)...)
		}
	}

	return out
}

// Persistent returns every path marked persistent.
func (d *Directory) Persistent() []string {
	return d.Flatten(func(s *Symbol) bool { return s.Persistent })
}

// WithDataTypeName returns every path declared with the given type name.
func (d *Directory) WithDataTypeName(name string) []string {
	return d.Flatten(func(s *Symbol) bool { return s.TypeName == name })
}

// flattener expands data types into path trees. active holds the types on
// the current expansion path. done caches every finished expansion, so each
// type is expanded at most once per Flatten call.
type flattener struct {
	dir    *Directory
	pred   Predicate
	active map[string]bool
	done   map[string][]*pathNode
}

func (f *flattener) expand(dt *DataType) []*pathNode {
	if f.active[dt.Name] {
		return nil
	}
	if cached, ok := f.done[dt.Name]; ok {
		return cached
	}
	f.active[dt.Name] = true
	defer delete(f.active, dt.Name)

	var nodes []*pathNode
	if dt.IsArray() {
		nodes = f.expandArray(dt)
	} else {
		nodes = f.expandFields(dt)
	}
	f.done[dt.Name] = nodes
	return nodes
}

func (f *flattener) expandArray(dt *DataType) []*pathNode {
	bracket, element, ok, err := outerGroup(dt.Name)
	if err != nil || !ok {
		return nil
	}
	group, err := parseBracket(bracket)
	if err != nil {
		return nil
	}
	elementType, exists := f.dir.dataTypes[stripReference(element)]
	if !exists {
		return nil
	}

	children := f.expand(elementType)
	out := make([]*pathNode, 0, len(children))
	for _, child := range children {
		// A group of several dimensions yields the product of their lengths.
		out = append(out, &pathNode{ranges: group, next: child})
	}
	return out
}

func (f *flattener) expandFields(dt *DataType) []*pathNode {
	var out []*pathNode
	for i := range dt.Fields {
		field := &dt.Fields[i]
		if f.pred(field) {
			out = append(out, &pathNode{name: field.Name})
			continue
		}
		child, exists := f.dir.dataTypes[field.TypeName]
		if !exists {
			continue
		}
		for _, grandchild := range f.expand(child) {
			out = append(out, &pathNode{name: field.Name, next: grandchild})
		}
	}
	return out
}

// pathNode is one step of a flattened path: either a field name or an array
// bracket spanning ranges. A node without next ends the path.
type pathNode struct {
	name   string
	ranges []Range
	next   *pathNode
}

func (n *pathNode) paths(start string) []string {
	out := []string{start}
	n.apply(&out)
	return out
}

func (n *pathNode) apply(prefixes *[]string) {
	for node := n; node != nil; node = node.next {
		if node.ranges == nil {
			for i, prefix := range *prefixes {
				(*prefixes)[i] = prefix + "." + node.name
			}
			continue
		}

		// Each index multiplies every prefix built so far.
		var expanded []string
		for _, accessor := range accessors(node.ranges) {
			for _, prefix := range *prefixes {
				expanded = append(expanded, prefix+accessor)
			}
		}
		*prefixes = expanded
	}
}

// accessors lists the bracket text for every index combination of a
// dimension group, first dimension slowest.
func accessors(ranges []Range) []string {
	out := []string{""}
	for _, r := range ranges {
		var next []string
		for _, head := range out {
			for i := int(r.Lo); i <= int(r.Hi); i++ {
				if head == "" {
					next = append(next, strconv.Itoa(i))
				} else {
					next = append(next, head+","+strconv.Itoa(i))
				}
			}
		}
		out = next
	}

	brackets := make([]string, len(out))
	for i, inner := range out {
		var b strings.Builder
		b.WriteByte('[')
		b.WriteString(inner)
		b.WriteByte(']')
		brackets[i] = b.String()
	}
	return brackets
}
