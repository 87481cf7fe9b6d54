package plan

import (
	"fmt"
	"strings"
)

// Printing the spec and the plan out, for testing, debugging, visualization
// purpose etc ...

func (self *TableSpec) Print() string {
	buf := &strings.Builder{}
	self.printAxis("rows", self.Rows, buf)
	self.printAxis("cols", self.Cols, buf)
	self.printMeasures(buf)
	buf.WriteString(fmt.Sprintf("Filter: %s\n", PrintFilterExpr(self.Filter)))
	return buf.String()
}

func (self *TableSpec) printAxis(
	name string,
	t *AxisTree,
	buf *strings.Builder,
) {
	buf.WriteString(fmt.Sprintf("##> Axis(%s)\n", name))

	var walk func(id int, depth int)
	walk = func(id int, depth int) {
		n := t.Node(id)
		buf.WriteString(strings.Repeat("  ", depth))
		buf.WriteString(printAxisNode(n))
		buf.WriteString("\n")

		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, r := range t.Roots {
		walk(r, 0)
	}
}

func printAxisNode(n *AxisNode) string {
	buf := strings.Builder{}

	if n.IsAll {
		buf.WriteString("ALL")
	} else {
		buf.WriteString(n.Field)
	}

	if n.Order != nil {
		buf.WriteString("[")
		if n.Order.LastN {
			buf.WriteString("-")
		}
		if n.Order.Limit > 0 {
			buf.WriteString(fmt.Sprintf("%d", n.Order.Limit))
		}
		if n.Order.OrderMeasure != nil {
			buf.WriteString(fmt.Sprintf("@%s", n.Order.OrderMeasure.Key()))
		}
		if n.Order.Descending() {
			buf.WriteString(" desc")
		} else {
			buf.WriteString(" asc")
		}
		buf.WriteString("]")
	}

	if n.Label != "" {
		buf.WriteString(fmt.Sprintf(" '%s'", n.Label))
	}

	if n.Pending {
		buf.WriteString(" <pending>")
	}

	return buf.String()
}

func (self *TableSpec) printMeasures(buf *strings.Builder) {
	buf.WriteString("##> Measures\n")
	for _, m := range self.Measures {
		buf.WriteString(m.Key())
		switch m.Format.Kind {
		case FormatCurrency:
			buf.WriteString(":currency")
		case FormatPercent:
			buf.WriteString(fmt.Sprintf(":percent.%d", m.Format.Decimals))
		case FormatDecimal:
			buf.WriteString(fmt.Sprintf(":decimal.%d", m.Format.Decimals))
		}
		switch m.Across {
		case AcrossRows:
			buf.WriteString(" across(rows)")
		case AcrossCols:
			buf.WriteString(" across(cols)")
		}
		buf.WriteString("\n")
	}
}

func (self *QueryPlan) Print() string {
	buf := &strings.Builder{}

	buf.WriteString("##> Phase(discovery)\n")
	for _, q := range self.Discovery {
		printQuery(q, buf)
	}
	buf.WriteString("##> Phase(main)\n")
	for _, q := range self.Main {
		printQuery(q, buf)
	}
	return buf.String()
}

func printQuery(q *GroupingQuery, buf *strings.Builder) {
	aggs := []string{}
	for _, a := range q.Aggregates {
		aggs = append(aggs, a.Key())
	}
	buf.WriteString(fmt.Sprintf(
		"group(%s) agg(%s) filter(%s)\n",
		strings.Join(q.GroupFields, ","),
		strings.Join(aggs, ","),
		PrintFilterExpr(q.Filter),
	))
}
