package plan

// Filter normalization. The WHERE clause AST comes in as tpl.Filter, the
// planner works on its own predicate tree so that the rest of the compiler
// never reaches back into the syntax layer. Parenthesized grouping stays as
// tree shape, precedence is never re-derived here.

import (
	"fmt"

	"github.com/jasonphillips/tplm/tpl"
)

const (
	OpEq = iota
	OpNe
	OpGt
	OpLt
	OpGe
	OpLe
	OpIsNull
	OpIsNotNull
)

const (
	FilterLeaf = iota
	FilterAnd
	FilterOr
	FilterNot
)

type FilterExpr interface {
	FilterType() int
}

// Predicate is one field/operator/value leaf. Value is nil for the null
// checks, otherwise string, int64, float64 or bool.
type Predicate struct {
	Field string
	Op    int
	Value interface{}
}

type FilterBinary struct {
	Op int // FilterAnd | FilterOr
	L  FilterExpr
	R  FilterExpr
}

// FilterUnary is the NOT combinator.
type FilterUnary struct {
	Operand FilterExpr
}

func (self *Predicate) FilterType() int    { return FilterLeaf }
func (self *FilterBinary) FilterType() int { return self.Op }
func (self *FilterUnary) FilterType() int  { return FilterNot }

func cmpOpPrint(op int) string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpGe:
		return ">="
	case OpLe:
		return "<="
	case OpIsNull:
		return "is null"
	case OpIsNotNull:
		return "is not null"
	default:
		return "<invalid>"
	}
}

// normalizeFilter converts a syntax filter tree into the planner form and
// runs the operator/type checks against the schema.
func normalizeFilter(f tpl.Filter, schema *Schema) (FilterExpr, error) {
	if f == nil {
		return nil, nil
	}

	switch f.FilterType() {
	case tpl.FilterCmp:
		c := f.(*tpl.CmpFilter)
		p := &Predicate{
			Field: c.Field,
			Op:    cmpOpFromAst(c.Op),
			Value: constValue(c.Value),
		}
		if err := schema.checkPredicate(p); err != nil {
			return nil, err
		}
		return p, nil

	case tpl.FilterAnd, tpl.FilterOr:
		b := f.(*tpl.BinaryFilter)
		l, err := normalizeFilter(b.L, schema)
		if err != nil {
			return nil, err
		}
		r, err := normalizeFilter(b.R, schema)
		if err != nil {
			return nil, err
		}
		op := FilterAnd
		if b.Op == tpl.FilterOr {
			op = FilterOr
		}
		return &FilterBinary{Op: op, L: l, R: r}, nil

	case tpl.FilterNot:
		n := f.(*tpl.NotFilter)
		operand, err := normalizeFilter(n.Operand, schema)
		if err != nil {
			return nil, err
		}
		return &FilterUnary{Operand: operand}, nil

	default:
		return nil, compileErrf("filter", "unknown filter node")
	}
}

func cmpOpFromAst(op int) int {
	switch op {
	case tpl.CmpEq:
		return OpEq
	case tpl.CmpNe:
		return OpNe
	case tpl.CmpGt:
		return OpGt
	case tpl.CmpLt:
		return OpLt
	case tpl.CmpGe:
		return OpGe
	case tpl.CmpLe:
		return OpLe
	case tpl.CmpIsNull:
		return OpIsNull
	case tpl.CmpIsNotNull:
		return OpIsNotNull
	default:
		return -1
	}
}

func constValue(c tpl.Const) interface{} {
	switch c.Ty {
	case tpl.ConstNull:
		return nil
	case tpl.ConstBool:
		return c.Bool
	case tpl.ConstStr:
		return c.String
	case tpl.ConstInt:
		return c.Int
	case tpl.ConstReal:
		return c.Real
	default:
		return nil
	}
}

// andFilter combines two filters, either side may be nil.
func andFilter(l, r FilterExpr) FilterExpr {
	if l == nil {
		return r
	}
	if r == nil {
		return l
	}
	return &FilterBinary{Op: FilterAnd, L: l, R: r}
}

// memberFilter builds the narrowing constraint `field = v0 or field = v1
// or ...` used once a by-value top-N member set is fixed.
func memberFilter(field string, members []string) FilterExpr {
	var out FilterExpr
	for _, m := range members {
		p := &Predicate{
			Field: field,
			Op:    OpEq,
			Value: m,
		}
		if out == nil {
			out = p
		} else {
			out = &FilterBinary{Op: FilterOr, L: out, R: p}
		}
	}
	return out
}

// PrintFilterExpr renders the canonical, fully-parenthesized form. The
// string is also the filter component of a query dedup key, so it must be
// deterministic for equal trees.
func PrintFilterExpr(f FilterExpr) string {
	if f == nil {
		return "<none>"
	}

	switch f.FilterType() {
	case FilterLeaf:
		p := f.(*Predicate)
		if p.Op == OpIsNull || p.Op == OpIsNotNull {
			return fmt.Sprintf("(%s %s)", p.Field, cmpOpPrint(p.Op))
		}
		return fmt.Sprintf("(%s %s %s)", p.Field, cmpOpPrint(p.Op), printValue(p.Value))

	case FilterAnd:
		b := f.(*FilterBinary)
		return fmt.Sprintf("(%s and %s)", PrintFilterExpr(b.L), PrintFilterExpr(b.R))

	case FilterOr:
		b := f.(*FilterBinary)
		return fmt.Sprintf("(%s or %s)", PrintFilterExpr(b.L), PrintFilterExpr(b.R))

	case FilterNot:
		n := f.(*FilterUnary)
		return fmt.Sprintf("(not %s)", PrintFilterExpr(n.Operand))

	default:
		return "<invalid>"
	}
}

func printValue(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", vv)
	case int64:
		return fmt.Sprintf("%d", vv)
	case float64:
		return fmt.Sprintf("%f", vv)
	case bool:
		return fmt.Sprintf("%v", vv)
	default:
		return "<invalid>"
	}
}
