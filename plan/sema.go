package plan

// Semantic checking. The table-spec builder is the single place that
// enforces field/measure existence and operator/type compatibility, the
// planner and the assembler trust the spec they get.

import (
	"sort"
)

const (
	FieldString = iota
	FieldNumber
)

// Schema describes the fields the backing data source exposes. The compiler
// only needs the name and whether the field is numeric.
type Schema struct {
	fields map[string]int
}

func NewSchema() *Schema {
	return &Schema{
		fields: make(map[string]int),
	}
}

func (self *Schema) String(names ...string) *Schema {
	for _, n := range names {
		self.fields[n] = FieldString
	}
	return self
}

func (self *Schema) Number(names ...string) *Schema {
	for _, n := range names {
		self.fields[n] = FieldNumber
	}
	return self
}

func (self *Schema) Has(name string) bool {
	_, ok := self.fields[name]
	return ok
}

func (self *Schema) Numeric(name string) bool {
	k, ok := self.fields[name]
	return ok && k == FieldNumber
}

func (self *Schema) Fields() []string {
	out := make([]string, 0, len(self.fields))
	for n := range self.fields {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// checkDimension validates a dimension reference inside of an axis clause.
func (self *Schema) checkDimension(field string) error {
	if !self.Has(field) {
		return compileErrf("axis", "unknown field %q", field)
	}
	return nil
}

// checkMeasure validates a measure binding: the field must exist and must
// be numeric for any aggregate that does arithmetic. count is the one
// aggregate that works on any field, or on no field at all.
func (self *Schema) checkMeasure(m *MeasureSpec) error {
	if m.Field == "" {
		if m.AggType != AggCount {
			return compileErrf("measure", "aggregate %s requires a field", m.AggName())
		}
		return nil
	}
	if !self.Has(m.Field) {
		return compileErrf("measure", "unknown field %q", m.Field)
	}
	if m.AggType != AggCount && !self.Numeric(m.Field) {
		return compileErrf(
			"measure",
			"aggregate %s(%s) requires a numeric field",
			m.AggName(), m.Field,
		)
	}
	return nil
}

// checkPredicate validates one comparison of the filter: the field must
// exist, ordering comparisons only apply to numeric fields, and the literal
// type must be usable against the field type.
func (self *Schema) checkPredicate(p *Predicate) error {
	if !self.Has(p.Field) {
		return compileErrf("filter", "unknown field %q", p.Field)
	}

	switch p.Op {
	case OpGt, OpLt, OpGe, OpLe:
		if !self.Numeric(p.Field) {
			return compileErrf(
				"filter",
				"operator %s requires numeric field, %q is not",
				cmpOpPrint(p.Op), p.Field,
			)
		}
		switch p.Value.(type) {
		case int64, float64:
		default:
			return compileErrf(
				"filter",
				"operator %s on %q requires a numeric literal",
				cmpOpPrint(p.Op), p.Field,
			)
		}

	case OpEq, OpNe:
		switch p.Value.(type) {
		case string:
			if self.Numeric(p.Field) {
				return compileErrf(
					"filter",
					"field %q is numeric, cannot compare against a string literal",
					p.Field,
				)
			}
		case int64, float64:
			if !self.Numeric(p.Field) {
				return compileErrf(
					"filter",
					"field %q is not numeric, cannot compare against a number",
					p.Field,
				)
			}
		case bool, nil:
			// null/bool equality is allowed on any field
		}

	case OpIsNull, OpIsNotNull:
		// no literal involved
	}

	return nil
}
