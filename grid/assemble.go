package grid

// Grid assembly. Every cross of a resolved row path and column path looks
// up the main query whose group fields match the cross's field set, reads
// the aggregate of the row carrying the path's field to value assignment,
// computes ACROSS percentages against the denominator query and formats the
// value last, strictly for display. A combination absent from the result
// rows is a null cell, never a zero: absence means no underlying records.

import (
	"fmt"
	"sort"

	"github.com/jasonphillips/tplm/plan"
)

// Assemble joins the executor results back onto the crossed axis trees.
// It fails when a planned main query has no entry in the result set, a
// partial grid is never produced.
func Assemble(
	spec *plan.TableSpec,
	qp *plan.QueryPlan,
	results plan.ResultSet,
) (*Grid, error) {
	for _, q := range qp.Main {
		if _, ok := results[q.Key()]; !ok {
			return nil, fmt.Errorf(
				"assemble: result set is missing query %s",
				q.Key(),
			)
		}
	}

	a := &assembler{
		spec:    spec,
		queries: qp.Main,
		results: results,
	}

	g := &Grid{
		RowHeaders: a.expandAxis(spec.Rows),
		ColHeaders: a.expandAxis(spec.Cols),
		Measures:   spec.Measures,
	}
	g.Rows = flatten(g.RowHeaders)
	g.Cols = flatten(g.ColHeaders)

	// an axis carrying nothing but measures still spans the grid with a
	// single implicit header at the empty path
	if len(g.Rows) == 0 {
		h := &Header{}
		g.RowHeaders = []*Header{h}
		g.Rows = g.RowHeaders
	}
	if len(g.Cols) == 0 {
		h := &Header{}
		g.ColHeaders = []*Header{h}
		g.Cols = g.ColHeaders
	}

	g.Cells = make([][][]Cell, len(g.Rows))
	for ri, row := range g.Rows {
		g.Cells[ri] = make([][]Cell, len(g.Cols))
		for ci, col := range g.Cols {
			g.Cells[ri][ci] = a.cell(row, col)
		}
	}

	return g, nil
}

type assembler struct {
	spec    *plan.TableSpec
	queries []*plan.GroupingQuery
	results plan.ResultSet
}

// ----------------------------------------------------------------------------
// header expansion

func (self *assembler) expandAxis(t *plan.AxisTree) []*Header {
	out := []*Header{}
	for _, r := range t.Roots {
		out = append(out, self.expandNode(t, r, Path{})...)
	}
	return out
}

// expandNode turns one template node into its display headers under the
// given ancestor path: an ALL node yields a single total header, a field
// node yields one header per resolved member.
func (self *assembler) expandNode(t *plan.AxisTree, id int, at Path) []*Header {
	n := t.Node(id)

	if n.IsAll {
		label := n.Label
		if label == "" {
			label = "All"
		}
		h := &Header{
			Label:   label,
			IsTotal: true,
			Path:    at,
		}
		for _, c := range n.Children {
			h.Children = append(h.Children, self.expandNode(t, c, at)...)
		}
		return []*Header{h}
	}

	dim := n.Field
	if n.Label != "" {
		dim = n.Label
	}

	out := []*Header{}
	for _, member := range self.members(t, n, at) {
		path := append(append(Path{}, at...), Part{Field: n.Field, Value: member})
		h := &Header{
			Label: member,
			Dim:   dim,
			Path:  path,
		}
		for _, c := range n.Children {
			h.Children = append(h.Children, self.expandNode(t, c, path)...)
		}
		out = append(out, h)
	}
	return out
}

// members resolves the ordered member list of a field node under one
// ancestor path. A by-value ordered node was fixed by discovery, anything
// else enumerates the distinct values the main queries returned, sorted
// alphabetically with the node's direction and limit applied.
func (self *assembler) members(t *plan.AxisTree, n *plan.AxisNode, at Path) []string {
	ancestors := t.PathFields(n.Parent)

	if n.Fixed != nil {
		return n.Fixed[plan.PathKey(at.assign(), ancestors)]
	}

	assign := at.assign()
	seen := map[string]bool{}
	members := []string{}

	for _, q := range self.queries {
		if !containsAll(q.GroupFields, ancestors) || !contains(q.GroupFields, n.Field) {
			continue
		}
		for _, row := range self.results[q.Key()] {
			if !row.Matches(assign, ancestors) {
				continue
			}
			v := row.Dimensions[n.Field]
			if !seen[v] {
				seen[v] = true
				members = append(members, v)
			}
		}
	}

	sort.Strings(members)
	if n.Order != nil {
		if n.Order.Descending() {
			for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
				members[i], members[j] = members[j], members[i]
			}
		}
		if limit := n.Order.Limit; limit > 0 && limit < len(members) {
			if n.Order.LastN {
				members = members[len(members)-limit:]
			} else {
				members = members[:limit]
			}
		}
	}
	return members
}

// ----------------------------------------------------------------------------
// cell lookup

func (self *assembler) cell(row, col *Header) []Cell {
	fields := fieldUnion(row.Path.fields(), col.Path.fields())
	assign := mergeAssign(row.Path.assign(), col.Path.assign())

	out := make([]Cell, 0, len(self.spec.Measures))
	for _, m := range self.spec.Measures {
		v := self.lookup(fields, assign, m.Base().Key())

		if m.Across != plan.AcrossNone && v != nil {
			var denomFields []string
			if m.Across == plan.AcrossCols {
				denomFields = row.Path.fields()
			} else {
				denomFields = col.Path.fields()
			}
			denom := self.lookup(denomFields, assign, m.Base().Key())
			if denom == nil || *denom == 0 {
				v = nil
			} else {
				ratio := *v / *denom
				v = &ratio
			}
		}

		out = append(out, Cell{
			Value:   v,
			Display: formatValue(m, v),
			Tooltip: Tooltip(row.Path, col.Path, m.Key()),
		})
	}
	return out
}

// lookup reads one aggregate from the query grouped by exactly the given
// fields. No matching result row means the combination has no records,
// which is a null, not a zero.
func (self *assembler) lookup(fields []string, assign map[string]string, aggKey string) *float64 {
	key := plan.QueryKey(fields, self.spec.Filter)
	for _, row := range self.results[key] {
		if row.Matches(assign, fields) {
			return row.Aggregates[aggKey]
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// small set helpers

func contains(set []string, f string) bool {
	for _, s := range set {
		if s == f {
			return true
		}
	}
	return false
}

func containsAll(set []string, fields []string) bool {
	for _, f := range fields {
		if !contains(set, f) {
			return false
		}
	}
	return true
}

func fieldUnion(a, b []string) []string {
	out := append([]string{}, a...)
	for _, f := range b {
		if !contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func mergeAssign(a, b map[string]string) map[string]string {
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
