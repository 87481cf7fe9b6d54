package plan

// Query plan generation. Every cell of the crossed row/column trees needs
// an aggregate at the grouping granularity of its two template levels:
// leaf by leaf, leaf by subtotal, subtotal by leaf, down to the empty
// grouping of a single grand total. Queries are deduplicated by content so
// that no granularity is ever issued twice, one grouped query carries the
// aggregate columns of every measure that needs it. ACROSS percentage
// measures additionally need denominator queries at the grouping obtained
// by dropping the varying axis's fields, computed algebraically from the
// levels rather than by inspecting built queries.

import (
	"sort"
	"strings"
)

// BuildPlan derives the main query phase for a fully-resolved spec and
// pairs it with the already-issued discovery phase. Fails with PlanError
// when the spec still carries pending orderings, planning main queries
// before discovery resolved is a pipeline bug, not a user error.
func BuildPlan(discovery []*GroupingQuery, spec *TableSpec) (*QueryPlan, error) {
	if len(spec.Rows.PendingNodes()) > 0 || len(spec.Cols.PendingNodes()) > 0 {
		return nil, planErrf("spec still has pending by-value orderings")
	}

	g := &queryGen{
		spec:  spec,
		dedup: map[string]*GroupingQuery{},
	}

	rowLevels := axisLevels(spec.Rows)
	colLevels := axisLevels(spec.Cols)

	for _, rl := range rowLevels {
		for _, cl := range colLevels {
			cell := fieldUnion(rl, cl)

			q := g.addQuery(cell)
			for _, m := range spec.Measures {
				g.addAggregate(q, m.Base())
			}

			// denominator queries for percentage measures: ACROSS COLS
			// divides by the row-level aggregate with every column field
			// removed, ACROSS ROWS the other way around
			for _, m := range spec.Measures {
				switch m.Across {
				case AcrossCols:
					g.addAggregate(g.addQuery(rl), m.Base())
				case AcrossRows:
					g.addAggregate(g.addQuery(cl), m.Base())
				}
			}
		}
	}

	return &QueryPlan{
		Discovery: discovery,
		Main:      g.out,
	}, nil
}

type queryGen struct {
	spec  *TableSpec
	dedup map[string]*GroupingQuery
	out   []*GroupingQuery
}

func (self *queryGen) addQuery(fields []string) *GroupingQuery {
	key := QueryKey(fields, self.spec.Filter)
	if q, ok := self.dedup[key]; ok {
		return q
	}

	sorted := append([]string{}, fields...)
	sort.Strings(sorted)
	q := &GroupingQuery{
		GroupFields: sorted,
		Filter:      self.spec.Filter,
	}
	self.dedup[key] = q
	self.out = append(self.out, q)
	return q
}

func (self *queryGen) addAggregate(q *GroupingQuery, m *MeasureSpec) {
	if !q.hasAggregate(m.Key()) {
		q.Aggregates = append(q.Aggregates, m)
	}
}

// axisLevels enumerates the distinct grouping levels of one axis: one per
// template leaf, identified by the fields on its root-to-leaf chain. ALL
// nodes contribute no field, so an axis of `occupation | ALL` yields the
// levels {occupation} and {} in display order.
func axisLevels(t *AxisTree) [][]string {
	seen := map[string]bool{}
	out := [][]string{}
	for _, leaf := range t.Leaves() {
		fields := t.PathFields(leaf)
		key := strings.Join(fields, ",")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, fields)
	}
	// an axis carrying nothing but measures has a single implicit level,
	// the empty grouping
	if len(out) == 0 {
		out = append(out, []string{})
	}
	return out
}

func fieldUnion(a, b []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, f := range a {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, f := range b {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
