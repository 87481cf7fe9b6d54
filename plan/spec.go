package plan

import (
	"fmt"
	"sort"
	"strings"
)

const (
	AggSum = iota
	AggMean
	AggCount
	AggMin
	AggMax
	AggP50
	AggP95
)

const (
	AcrossNone = iota
	AcrossRows
	AcrossCols
)

const (
	FormatNone = iota
	FormatCurrency
	FormatPercent
	FormatDecimal
)

const (
	DirDefault = iota
	DirAsc
	DirDesc
)

func aggTypeToName(i int) string {
	switch i {
	case AggSum:
		return "sum"
	case AggMean:
		return "mean"
	case AggCount:
		return "count"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggP50:
		return "p50"
	case AggP95:
		return "p95"
	default:
		return "unknown"
	}
}

func aggNameToType(n string) (int, bool) {
	switch n {
	case "sum":
		return AggSum, true
	case "mean", "avg":
		return AggMean, true
	case "count":
		return AggCount, true
	case "min":
		return AggMin, true
	case "max":
		return AggMax, true
	case "p50", "median":
		return AggP50, true
	case "p95":
		return AggP95, true
	default:
		return -1, false
	}
}

// Display format of one measure occurrence. Decimals only applies to
// FormatDecimal and FormatPercent.
type Format struct {
	Kind     int
	Decimals int
}

func parseFormat(s string) (Format, bool) {
	switch {
	case s == "":
		return Format{Kind: FormatNone}, true
	case s == "currency":
		return Format{Kind: FormatCurrency}, true
	case s == "percent":
		return Format{Kind: FormatPercent, Decimals: 1}, true
	case strings.HasPrefix(s, "percent."):
		var d int
		if _, err := fmt.Sscanf(s, "percent.%d", &d); err != nil || d < 0 {
			return Format{}, false
		}
		return Format{Kind: FormatPercent, Decimals: d}, true
	case strings.HasPrefix(s, "decimal."):
		var d int
		if _, err := fmt.Sscanf(s, "decimal.%d", &d); err != nil || d < 0 {
			return Format{}, false
		}
		return Format{Kind: FormatDecimal, Decimals: d}, true
	default:
		return Format{}, false
	}
}

// One measure occurrence of the statement. Field is empty for the implicit
// record count measure of a statement that binds no measure at all.
type MeasureSpec struct {
	Field   string
	AggType int
	Format  Format
	Across  int
}

func (self *MeasureSpec) AggName() string { return aggTypeToName(self.AggType) }

// Key names the aggregate column this measure reads from a query result,
// ie "income.sum". The across/format decoration is display side and does
// not participate.
func (self *MeasureSpec) Key() string {
	if self.Field == "" {
		return self.AggName()
	}
	return self.Field + "." + self.AggName()
}

// Base strips the across/format decoration down to the raw aggregate the
// executor computes.
func (self *MeasureSpec) Base() *MeasureSpec {
	return &MeasureSpec{
		Field:   self.Field,
		AggType: self.AggType,
	}
}

const NilNode = -1

// Node of an axis tree. The tree is an arena, nodes reference each other by
// index into AxisTree.Nodes, never by pointer.
type AxisNode struct {
	ID       int
	Parent   int
	Children []int

	IsAll bool
	Field string
	Label string
	Order *Ordering

	// Pending marks a by-value ordered node whose member set is unknown
	// until its discovery query returned. Fixed holds the resolved, ordered
	// member list per ancestor path key once resolution ran.
	Pending bool
	Fixed   map[string][]string
}

// Ordering/limit of one dimension node. Limit is the absolute member count,
// LastN distinguishes `[-N]` from `[N]`.
type Ordering struct {
	ByValue      bool
	Dir          int
	Limit        int
	LastN        bool
	OrderMeasure *MeasureSpec
}

// Descending is the effective sort direction: by-value ranks descending by
// default, alphabetical ascending, an explicit ASC/DESC always wins.
func (self *Ordering) Descending() bool {
	switch self.Dir {
	case DirAsc:
		return false
	case DirDesc:
		return true
	default:
		return self.ByValue
	}
}

// AxisTree is the normalized form of one ROWS or COLS clause, an ordered
// forest. Roots order is display order.
type AxisTree struct {
	Nodes []*AxisNode
	Roots []int
}

func newAxisTree() *AxisTree {
	return &AxisTree{}
}

func (self *AxisTree) newNode(parent int) *AxisNode {
	n := &AxisNode{
		ID:     len(self.Nodes),
		Parent: parent,
	}
	self.Nodes = append(self.Nodes, n)
	if parent == NilNode {
		self.Roots = append(self.Roots, n.ID)
	} else {
		p := self.Nodes[parent]
		p.Children = append(p.Children, n.ID)
	}
	return n
}

func (self *AxisTree) Node(id int) *AxisNode { return self.Nodes[id] }

// Leaves returns the template leaves in display order. Each leaf stands for
// one grouping level of the axis.
func (self *AxisTree) Leaves() []int {
	out := []int{}
	var walk func(id int)
	walk = func(id int) {
		n := self.Nodes[id]
		if len(n.Children) == 0 {
			out = append(out, id)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range self.Roots {
		walk(r)
	}
	return out
}

// Ancestors returns the root-to-node chain including the node itself.
func (self *AxisTree) Ancestors(id int) []int {
	chain := []int{}
	for cur := id; cur != NilNode; cur = self.Nodes[cur].Parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// PathFields returns the dimension fields on the root-to-node chain. An ALL
// node contributes nothing, it aggregates over its level.
func (self *AxisTree) PathFields(id int) []string {
	fields := []string{}
	for _, a := range self.Ancestors(id) {
		n := self.Nodes[a]
		if !n.IsAll && n.Field != "" {
			fields = append(fields, n.Field)
		}
	}
	return fields
}

func (self *AxisTree) PendingNodes() []int {
	out := []int{}
	for _, n := range self.Nodes {
		if n.Pending {
			out = append(out, n.ID)
		}
	}
	return out
}

// TableSpec is the fully-built specification the planner works from. It is
// read-only once Build/Resolve returned it, one compile request owns it
// exclusively.
type TableSpec struct {
	Rows     *AxisTree
	Cols     *AxisTree
	Measures []*MeasureSpec
	Filter   FilterExpr

	schema *Schema
}

func (self *TableSpec) Schema() *Schema { return self.schema }

// HasAcross reports whether any measure wants a percentage denominator.
func (self *TableSpec) HasAcross() bool {
	for _, m := range self.Measures {
		if m.Across != AcrossNone {
			return true
		}
	}
	return false
}

// One grouping (aggregation) query against the external executor. Immutable
// once planned. GroupFields is kept sorted, the set is order-independent.
type GroupingQuery struct {
	GroupFields []string
	Aggregates  []*MeasureSpec
	Filter      FilterExpr
}

// Key is the content-based identity used for dedup and for joining results
// back: sorted group fields plus canonical filter print.
func (self *GroupingQuery) Key() string {
	return QueryKey(self.GroupFields, self.Filter)
}

func QueryKey(fields []string, filter FilterExpr) string {
	sorted := append([]string{}, fields...)
	sort.Strings(sorted)
	return fmt.Sprintf("g(%s);f(%s)", strings.Join(sorted, ","), PrintFilterExpr(filter))
}

// hasAggregate reports whether the query already carries the aggregate
// column named by key.
func (self *GroupingQuery) hasAggregate(key string) bool {
	for _, a := range self.Aggregates {
		if a.Key() == key {
			return true
		}
	}
	return false
}

// QueryPlan is the ordered two-phase output of planning: discovery queries
// resolve top-N member sets and must fully complete before the main queries
// may be dispatched.
type QueryPlan struct {
	Discovery []*GroupingQuery
	Main      []*GroupingQuery
}

// ResultRow is one grouped row returned by the executor: one value per
// grouped field plus one nullable numeric result per requested aggregate.
type ResultRow struct {
	Dimensions map[string]string
	Aggregates map[string]*float64
}

// ResultSet collects executor output for a whole phase, keyed by the query
// Key().
type ResultSet map[string][]ResultRow

// Matches reports whether the row carries exactly the given field to value
// assignment for every listed field.
func (self *ResultRow) Matches(assign map[string]string, fields []string) bool {
	for _, f := range fields {
		if self.Dimensions[f] != assign[f] {
			return false
		}
	}
	return true
}

// PathKey canonicalizes a field to value assignment, used to key per-parent
// member sets and header paths.
func PathKey(assign map[string]string, fields []string) string {
	sorted := append([]string{}, fields...)
	sort.Strings(sorted)
	parts := make([]string, 0, len(sorted))
	for _, f := range sorted {
		parts = append(parts, f+"="+assign[f])
	}
	return strings.Join(parts, ";")
}
