package grid

import (
	"github.com/jasonphillips/tplm/plan"
)

// Part is one resolved (dimension, value) step of a header path. ALL nodes
// contribute no part, their aggregation level is exactly the absence of the
// field.
type Part struct {
	Field string
	Value string
}

type Path []Part

func (self Path) fields() []string {
	out := make([]string, 0, len(self))
	for _, p := range self {
		out = append(out, p.Field)
	}
	return out
}

func (self Path) assign() map[string]string {
	out := make(map[string]string, len(self))
	for _, p := range self {
		out[p.Field] = p.Value
	}
	return out
}

// Header is one rendered node of a row or column header tree: a resolved
// member value, or a total. Dim is the display name of the dimension the
// member belongs to, ie the field name or its statement alias.
type Header struct {
	Label    string
	Dim      string
	IsTotal  bool
	Path     Path
	Children []*Header
}

func (self *Header) leaves(out []*Header) []*Header {
	if len(self.Children) == 0 {
		return append(out, self)
	}
	for _, c := range self.Children {
		out = c.leaves(out)
	}
	return out
}

// Cell is one measure result at one (row path, col path) cross: the raw
// value, nil when the combination has no underlying records, plus the
// formatted display string and the tooltip metadata line. Raw and display
// are both kept so a consumer can show either.
type Cell struct {
	Value   *float64
	Display string
	Tooltip string
}

// Grid is the fully-assembled crosstab: header trees with resolved,
// ordered, limited members, the flattened leaf paths in display order, and
// the cell matrix indexed [row][col][measure].
type Grid struct {
	RowHeaders []*Header
	ColHeaders []*Header

	Rows []*Header
	Cols []*Header

	Measures []*plan.MeasureSpec
	Cells    [][][]Cell
}

func flatten(headers []*Header) []*Header {
	out := []*Header{}
	for _, h := range headers {
		out = h.leaves(out)
	}
	return out
}
