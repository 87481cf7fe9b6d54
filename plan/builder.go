package plan

// Table-spec building. The builder orchestrates filter normalization, the
// two axis builds and measure binding, and owns the two-phase resolution of
// by-value orderings: a statement with pending nodes first yields a
// PendingSpec whose discovery queries must run, the discovery results then
// fix the member sets and the final TableSpec comes out of Resolve. The
// dependency is visible in the types, not hidden in control flow.

import (
	"sort"

	"github.com/jasonphillips/tplm/tpl"
)

type Builder struct {
	schema *Schema
}

func NewBuilder(schema *Schema) *Builder {
	return &Builder{
		schema: schema,
	}
}

// PendingSpec is a TableSpec whose by-value ordered nodes still wait for
// their discovery results. A statement without by-value orderings produces
// a PendingSpec with no discovery queries, Resolve is then a no-op pass.
type PendingSpec struct {
	spec    *TableSpec
	pending []pendingRef
}

type pendingRef struct {
	axis *AxisTree
	node int
}

func (self *Builder) Build(stmt *tpl.Table) (*PendingSpec, error) {
	measures, err := self.collectMeasures(stmt)
	if err != nil {
		return nil, err
	}

	var filter FilterExpr
	if stmt.Where != nil {
		filter, err = normalizeFilter(stmt.Where.Condition, self.schema)
		if err != nil {
			return nil, err
		}
	}

	rows, err := newAxisBuilder(self.schema, measures).build(stmt.Rows)
	if err != nil {
		return nil, err
	}
	cols, err := newAxisBuilder(self.schema, measures).build(stmt.Cols)
	if err != nil {
		return nil, err
	}

	spec := &TableSpec{
		Rows:     rows,
		Cols:     cols,
		Measures: measures,
		Filter:   filter,
		schema:   self.schema,
	}

	p := &PendingSpec{
		spec: spec,
	}
	for _, id := range rows.PendingNodes() {
		p.pending = append(p.pending, pendingRef{axis: rows, node: id})
	}
	for _, id := range cols.PendingNodes() {
		p.pending = append(p.pending, pendingRef{axis: cols, node: id})
	}
	return p, nil
}

// collectMeasures walks both axis clauses in display order and binds every
// measure occurrence. A bundle like income.(sum | mean) yields one spec per
// aggregate. A statement that binds no measure at all gets the implicit
// record count.
func (self *Builder) collectMeasures(stmt *tpl.Table) ([]*MeasureSpec, error) {
	out := []*MeasureSpec{}

	var walk func(t tpl.Term) error
	walk = func(t tpl.Term) error {
		switch t.Type() {
		case tpl.TermMeasure:
			m := t.(*tpl.MeasureTerm)
			specs, err := self.bindMeasure(m)
			if err != nil {
				return err
			}
			out = append(out, specs...)
			return nil

		case tpl.TermNest:
			n := t.(*tpl.NestTerm)
			if err := walk(n.L); err != nil {
				return err
			}
			return walk(n.R)

		case tpl.TermConcat:
			c := t.(*tpl.ConcatTerm)
			if err := walk(c.L); err != nil {
				return err
			}
			return walk(c.R)

		default:
			return nil
		}
	}

	if err := walk(stmt.Rows); err != nil {
		return nil, err
	}
	if err := walk(stmt.Cols); err != nil {
		return nil, err
	}

	if len(out) == 0 {
		out = append(out, &MeasureSpec{
			AggType: AggCount,
		})
	}
	return out, nil
}

func (self *Builder) bindMeasure(m *tpl.MeasureTerm) ([]*MeasureSpec, error) {
	format, ok := parseFormat(m.Format)
	if !ok {
		return nil, compileErrf("measure", "unknown format %q", m.Format)
	}

	across := AcrossNone
	switch m.Across {
	case tpl.AcrossRows:
		across = AcrossRows
	case tpl.AcrossCols:
		across = AcrossCols
	}

	out := make([]*MeasureSpec, 0, len(m.Aggs))
	for _, agg := range m.Aggs {
		ty, ok := aggNameToType(agg)
		if !ok {
			return nil, compileErrf("measure", "unknown aggregate %q", agg)
		}
		spec := &MeasureSpec{
			Field:   m.Field,
			AggType: ty,
			Format:  format,
			Across:  across,
		}
		if err := self.schema.checkMeasure(spec); err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// two-phase resolution

func (self *PendingSpec) HasPending() bool { return len(self.pending) > 0 }

// Spec exposes the under-construction spec for planning the discovery
// phase. Callers must not hold onto it past Resolve.
func (self *PendingSpec) Spec() *TableSpec { return self.spec }

// DiscoveryQueries derives the deduplicated discovery phase: one grouping
// query per pending node, grouped by the node's field plus every ancestor
// field so that per-parent top-N scopes correctly, aggregating the
// referenced measure under the statement filter.
func (self *PendingSpec) DiscoveryQueries() []*GroupingQuery {
	dedup := map[string]*GroupingQuery{}
	out := []*GroupingQuery{}

	for _, ref := range self.pending {
		n := ref.axis.Node(ref.node)
		fields := ref.axis.PathFields(n.ID)

		key := QueryKey(fields, self.spec.Filter)
		q, ok := dedup[key]
		if !ok {
			sorted := append([]string{}, fields...)
			sort.Strings(sorted)
			q = &GroupingQuery{
				GroupFields: sorted,
				Filter:      self.spec.Filter,
			}
			dedup[key] = q
			out = append(out, q)
		}
		m := n.Order.OrderMeasure
		if !q.hasAggregate(m.Key()) {
			q.Aggregates = append(q.Aggregates, m)
		}
	}

	return out
}

// Resolve fixes every pending node's member set from the discovery results
// and returns the completed, immutable TableSpec. The statement filter is
// narrowed with the fixed member sets so that the main queries only touch
// the members that will be displayed. Members accumulate per field first:
// the same field can be pending under several parents, ie nested under
// `(region | ALL)`, and each of those nodes' members must stay reachable,
// so the field gets one union filter, never one conjunct per node.
func (self *PendingSpec) Resolve(results ResultSet) (*TableSpec, error) {
	fieldMembers := map[string]map[string]bool{}
	fieldOrder := []string{}

	for _, ref := range self.pending {
		n := ref.axis.Node(ref.node)
		fields := ref.axis.PathFields(n.ID)

		rows, ok := results[QueryKey(fields, self.spec.Filter)]
		if !ok {
			return nil, planErrf(
				"discovery result missing for by-value ordering on %q",
				n.Field,
			)
		}

		ancestors := fields[:len(fields)-1]
		fixed := resolveMembers(n, rows, ancestors)
		n.Fixed = fixed
		n.Pending = false

		seen, ok := fieldMembers[n.Field]
		if !ok {
			seen = map[string]bool{}
			fieldMembers[n.Field] = seen
			fieldOrder = append(fieldOrder, n.Field)
		}
		for _, m := range memberUnion(fixed) {
			seen[m] = true
		}
	}

	narrowed := self.spec.Filter
	for _, field := range fieldOrder {
		members := make([]string, 0, len(fieldMembers[field]))
		for m := range fieldMembers[field] {
			members = append(members, m)
		}
		sort.Strings(members)
		if len(members) > 0 {
			narrowed = andFilter(narrowed, memberFilter(field, members))
		}
	}

	self.spec.Filter = narrowed
	self.pending = nil
	return self.spec, nil
}

type memberRank struct {
	value string
	rank  *float64
}

// resolveMembers ranks the candidate values of one pending node within each
// ancestor path independently: sort by the discovered aggregate (descending
// by default for by-value, ASC/DESC overrides, null ranks last), then take
// the first N for a positive limit or the last N of that same sequence for
// a negative one. The convention is deliberate: `[-N]` is the tail of the
// `[N]` ordering, sequence order preserved.
func resolveMembers(n *AxisNode, rows []ResultRow, ancestors []string) map[string][]string {
	aggKey := n.Order.OrderMeasure.Key()
	perParent := map[string][]memberRank{}
	parentOrder := []string{}

	for _, row := range rows {
		pk := PathKey(row.Dimensions, ancestors)
		if _, ok := perParent[pk]; !ok {
			parentOrder = append(parentOrder, pk)
		}
		perParent[pk] = append(perParent[pk], memberRank{
			value: row.Dimensions[n.Field],
			rank:  row.Aggregates[aggKey],
		})
	}

	desc := n.Order.Descending()
	out := make(map[string][]string, len(perParent))

	for _, pk := range parentOrder {
		cand := perParent[pk]
		sort.SliceStable(cand, func(i, j int) bool {
			a, b := cand[i].rank, cand[j].rank
			if a == nil && b == nil {
				return cand[i].value < cand[j].value
			}
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			if *a != *b {
				if desc {
					return *a > *b
				}
				return *a < *b
			}
			return cand[i].value < cand[j].value
		})

		limit := n.Order.Limit
		if limit == 0 || limit > len(cand) {
			limit = len(cand)
		}
		if n.Order.LastN {
			cand = cand[len(cand)-limit:]
		} else {
			cand = cand[:limit]
		}

		members := make([]string, 0, len(cand))
		for _, c := range cand {
			members = append(members, c.value)
		}
		out[pk] = members
	}

	return out
}

func memberUnion(fixed map[string][]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, members := range fixed {
		for _, m := range members {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out
}
