package plan

// Axis building. A ROWS or COLS clause is normalized into an AxisTree:
// concatenation (`|`) yields siblings at the current level, nesting (`*`)
// hangs the right operand under every member the left operand produced,
// including synthetic ALL members so that subtotals nest correctly. Measure
// expressions found inside of the clause contribute measure bindings, never
// axis nodes, they were collected before the axis was built.

import (
	"github.com/jasonphillips/tplm/tpl"
)

type axisBuilder struct {
	tree     *AxisTree
	schema   *Schema
	measures []*MeasureSpec
}

func newAxisBuilder(schema *Schema, measures []*MeasureSpec) *axisBuilder {
	return &axisBuilder{
		tree:     newAxisTree(),
		schema:   schema,
		measures: measures,
	}
}

// build normalizes one clause into the axis tree and returns it. Fails with
// CompileError when the clause references a field the schema does not know
// or a by-value ordering names a measure absent from the statement.
func (self *axisBuilder) build(clause tpl.Term) (*AxisTree, error) {
	if _, err := self.buildTerm(clause, NilNode); err != nil {
		return nil, err
	}
	return self.tree, nil
}

// buildTerm appends the nodes one term produces under the given parent and
// returns the frontier, ie the deepest level the term created. Nesting
// attaches its right operand under every frontier node of its left operand.
func (self *axisBuilder) buildTerm(term tpl.Term, parent int) ([]int, error) {
	switch term.Type() {
	case tpl.TermField:
		return self.buildField(term.(*tpl.FieldTerm), parent)

	case tpl.TermAll:
		return self.buildAll(term.(*tpl.AllTerm), parent)

	case tpl.TermMeasure:
		// measure bindings are collected up front, the term leaves no node
		// on the axis
		return nil, nil

	case tpl.TermNest:
		n := term.(*tpl.NestTerm)
		left, err := self.buildTerm(n.L, parent)
		if err != nil {
			return nil, err
		}
		frontier := []int{}
		for _, l := range left {
			right, err := self.buildTerm(n.R, l)
			if err != nil {
				return nil, err
			}
			frontier = append(frontier, right...)
		}
		if len(frontier) == 0 {
			// the right operand was pure measure decoration
			return left, nil
		}
		return frontier, nil

	case tpl.TermConcat:
		c := term.(*tpl.ConcatTerm)
		left, err := self.buildTerm(c.L, parent)
		if err != nil {
			return nil, err
		}
		right, err := self.buildTerm(c.R, parent)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil

	default:
		return nil, compileErrf("axis", "unknown axis term")
	}
}

func (self *axisBuilder) buildField(f *tpl.FieldTerm, parent int) ([]int, error) {
	if err := self.schema.checkDimension(f.Name); err != nil {
		return nil, err
	}

	n := self.tree.newNode(parent)
	n.Field = f.Name
	n.Label = f.Label

	if f.Order != nil {
		order, err := self.buildOrdering(f)
		if err != nil {
			return nil, err
		}
		n.Order = order
		n.Pending = order != nil && order.ByValue
	}

	return []int{n.ID}, nil
}

func (self *axisBuilder) buildAll(a *tpl.AllTerm, parent int) ([]int, error) {
	n := self.tree.newNode(parent)
	n.IsAll = true
	n.Label = a.Label
	return []int{n.ID}, nil
}

// buildOrdering resolves the `[N]` / `[N@measure]` / DESC / ASC suffix of a
// dimension reference. A by-value ordering must reference a measure that
// appears somewhere in the statement's measure list; the node stays pending
// until the discovery phase resolved its member set.
func (self *axisBuilder) buildOrdering(f *tpl.FieldTerm) (*Ordering, error) {
	o := f.Order

	order := &Ordering{
		Dir: DirDefault,
	}
	switch o.Dir {
	case tpl.OrderAsc:
		order.Dir = DirAsc
	case tpl.OrderDesc:
		order.Dir = DirDesc
	}

	if o.HasLimit {
		order.Limit = int(o.Limit)
		if order.Limit < 0 {
			order.Limit = -order.Limit
			order.LastN = true
		}
	}

	if o.OrderRef != nil {
		ref, err := self.resolveOrderMeasure(o.OrderRef)
		if err != nil {
			return nil, err
		}
		order.ByValue = true
		order.OrderMeasure = ref
	}

	if !order.ByValue && order.Limit == 0 && order.Dir == DirDefault {
		return nil, nil
	}
	return order, nil
}

// resolveOrderMeasure matches an `@field` or `@field.agg` reference against
// the statement's measure list.
func (self *axisBuilder) resolveOrderMeasure(ref *tpl.MeasureTerm) (*MeasureSpec, error) {
	wantAgg := -1
	if agg := ref.First(); agg != "" {
		ty, ok := aggNameToType(agg)
		if !ok {
			return nil, compileErrf("axis", "unknown aggregate %q in ordering", agg)
		}
		wantAgg = ty
	}

	for _, m := range self.measures {
		if m.Field != ref.Field {
			continue
		}
		if wantAgg != -1 && m.AggType != wantAgg {
			continue
		}
		return m.Base(), nil
	}

	name := ref.Field
	if wantAgg != -1 {
		name = name + "." + aggTypeToName(wantAgg)
	}
	return nil, compileErrf(
		"axis",
		"ordering references measure %q which is not in the statement's measure list",
		name,
	)
}
