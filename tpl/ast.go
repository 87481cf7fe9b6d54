package tpl

import (
	"fmt"
	"strings"
)

const (
	TermField = iota
	TermAll
	TermMeasure
	TermNest
	TermConcat
)

const (
	OrderNone = iota
	OrderAsc
	OrderDesc
)

const (
	AcrossNone = iota
	AcrossRows
	AcrossCols
)

const (
	FilterCmp = iota
	FilterAnd
	FilterOr
	FilterNot
)

const (
	CmpEq = iota
	CmpNe
	CmpGt
	CmpLt
	CmpGe
	CmpLe
	CmpIsNull
	CmpIsNotNull
)

const (
	ConstNull = iota
	ConstBool
	ConstStr
	ConstInt
	ConstReal
)

// Table statement, the only statement TPL has. The WHERE clause is optional,
// ROWS/COLS are both mandatory axis clauses.
type Table struct {
	Where *Where
	Rows  Term
	Cols  Term
}

type Where struct {
	Condition Filter
}

// Axis clause term. A term is either a single dimension reference, the
// synthetic ALL marker, a measure expression, or a nest/concat composition
// of two terms. The composition keeps the user's parenthesization as tree
// shape, the planner never re-derives precedence.
type Term interface {
	Type() int
}

// Dimension reference inside of an axis clause, ie `occupation[5@income.sum]
// 'Job' DESC`.
type FieldTerm struct {
	Name  string
	Label string
	Order *Order
}

// Ordering/limit suffix of a dimension reference. Limit keeps the sign of
// the literal, ie `[-3]` yields Limit == -3. OrderRef is only set for a
// by-value ordering (`@field.agg`).
type Order struct {
	HasLimit bool
	Limit    int64
	OrderRef *MeasureTerm
	Dir      int
}

type AllTerm struct {
	Label string
}

// Measure expression, ie `income.sum:currency ACROSS COLS`. Aggs holds more
// than one name for the bundled form `income.(sum | mean)`.
type MeasureTerm struct {
	Field  string
	Aggs   []string
	Format string
	Across int
}

type NestTerm struct {
	L Term
	R Term
}

type ConcatTerm struct {
	L Term
	R Term
}

func (self *FieldTerm) Type() int   { return TermField }
func (self *AllTerm) Type() int     { return TermAll }
func (self *MeasureTerm) Type() int { return TermMeasure }
func (self *NestTerm) Type() int    { return TermNest }
func (self *ConcatTerm) Type() int  { return TermConcat }

func (self *Order) ByValue() bool { return self.OrderRef != nil }

// agg names of the measure, ie "sum" for `income.sum`, the first one for a
// bundle
func (self *MeasureTerm) First() string {
	if len(self.Aggs) == 0 {
		return ""
	}
	return self.Aggs[0]
}

// Filter clause AST. Parenthesized groups stay as explicit tree nodes.
type Filter interface {
	FilterType() int
}

type CmpFilter struct {
	Field string
	Op    int
	Value Const
}

type BinaryFilter struct {
	Op int // FilterAnd | FilterOr
	L  Filter
	R  Filter
}

type NotFilter struct {
	Operand Filter
}

func (self *CmpFilter) FilterType() int    { return FilterCmp }
func (self *BinaryFilter) FilterType() int { return self.Op }
func (self *NotFilter) FilterType() int    { return FilterNot }

type Const struct {
	Ty     int
	Bool   bool
	String string
	Int    int64
	Real   float64
}

func (self *Const) Print() string {
	switch self.Ty {
	case ConstNull:
		return "null"
	case ConstBool:
		return fmt.Sprintf("%v", self.Bool)
	case ConstStr:
		return fmt.Sprintf("%q", self.String)
	case ConstInt:
		return fmt.Sprintf("%d", self.Int)
	case ConstReal:
		return fmt.Sprintf("%f", self.Real)
	default:
		return "<invalid>"
	}
}

func cmpOpName(op int) string {
	switch op {
	case CmpEq:
		return "="
	case CmpNe:
		return "!="
	case CmpGt:
		return ">"
	case CmpLt:
		return "<"
	case CmpGe:
		return ">="
	case CmpLe:
		return "<="
	case CmpIsNull:
		return "is null"
	case CmpIsNotNull:
		return "is not null"
	default:
		return "<invalid>"
	}
}

// Printing the term back into TPL-ish syntax, used by tests and the plan
// dump.
func PrintTerm(t Term) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Type() {
	case TermField:
		f := t.(*FieldTerm)
		buf := strings.Builder{}
		buf.WriteString(f.Name)
		if f.Order != nil && (f.Order.HasLimit || f.Order.OrderRef != nil) {
			buf.WriteString("[")
			if f.Order.HasLimit {
				buf.WriteString(fmt.Sprintf("%d", f.Order.Limit))
			}
			if f.Order.OrderRef != nil {
				buf.WriteString(fmt.Sprintf("@%s.%s", f.Order.OrderRef.Field, f.Order.OrderRef.First()))
			}
			buf.WriteString("]")
		}
		if f.Label != "" {
			buf.WriteString(fmt.Sprintf(" '%s'", f.Label))
		}
		switch {
		case f.Order != nil && f.Order.Dir == OrderAsc:
			buf.WriteString(" ASC")
		case f.Order != nil && f.Order.Dir == OrderDesc:
			buf.WriteString(" DESC")
		}
		return buf.String()

	case TermAll:
		a := t.(*AllTerm)
		if a.Label != "" {
			return fmt.Sprintf("ALL '%s'", a.Label)
		}
		return "ALL"

	case TermMeasure:
		m := t.(*MeasureTerm)
		buf := strings.Builder{}
		buf.WriteString(m.Field)
		buf.WriteString(".")
		if len(m.Aggs) == 1 {
			buf.WriteString(m.Aggs[0])
		} else {
			buf.WriteString("(")
			buf.WriteString(strings.Join(m.Aggs, " | "))
			buf.WriteString(")")
		}
		if m.Format != "" {
			buf.WriteString(":")
			buf.WriteString(m.Format)
		}
		switch m.Across {
		case AcrossRows:
			buf.WriteString(" ACROSS ROWS")
		case AcrossCols:
			buf.WriteString(" ACROSS COLS")
		}
		return buf.String()

	case TermNest:
		n := t.(*NestTerm)
		return fmt.Sprintf("(%s * %s)", PrintTerm(n.L), PrintTerm(n.R))

	case TermConcat:
		c := t.(*ConcatTerm)
		return fmt.Sprintf("(%s | %s)", PrintTerm(c.L), PrintTerm(c.R))

	default:
		return "<invalid>"
	}
}

// Printing the filter tree back, parenthesized explicitly, one pair per
// tree node. This string doubles as a canonical representation when the
// planner keys a query for dedup.
func PrintFilter(f Filter) string {
	if f == nil {
		return "<none>"
	}

	switch f.FilterType() {
	case FilterCmp:
		c := f.(*CmpFilter)
		if c.Op == CmpIsNull || c.Op == CmpIsNotNull {
			return fmt.Sprintf("(%s %s)", c.Field, cmpOpName(c.Op))
		}
		return fmt.Sprintf("(%s %s %s)", c.Field, cmpOpName(c.Op), c.Value.Print())

	case FilterAnd:
		b := f.(*BinaryFilter)
		return fmt.Sprintf("(%s and %s)", PrintFilter(b.L), PrintFilter(b.R))

	case FilterOr:
		b := f.(*BinaryFilter)
		return fmt.Sprintf("(%s or %s)", PrintFilter(b.L), PrintFilter(b.R))

	case FilterNot:
		n := f.(*NotFilter)
		return fmt.Sprintf("(not %s)", PrintFilter(n.Operand))

	default:
		return "<invalid>"
	}
}
