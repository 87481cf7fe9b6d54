package exec

// database/sql executor. The schema maps every field to a column expression
// so that a field can be backed by a raw column or by an expression over
// the stored table. One grouped query turns into a single SELECT with the
// dimension expressions first, then the aggregate expressions, grouped by
// the dimension expressions and filtered by the parameterized translation
// of the statement filter. Quantile aggregates use the clickhouse
// quantile() form, an engine without it needs an expression-level override.

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jasonphillips/tplm/plan"
)

// Dimension binds one schema field to the sql expression that produces it.
type Dimension struct {
	Name       string
	Expression string
}

type SQLExecutor struct {
	db    *sql.DB
	table string
	exprs map[string]string
	log   *zap.Logger
}

func NewSQLExecutor(db *sql.DB, table string, dims []*Dimension, log *zap.Logger) *SQLExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	exprs := make(map[string]string, len(dims))
	for _, d := range dims {
		exprs[d.Name] = d.Expression
	}
	return &SQLExecutor{
		db:    db,
		table: table,
		exprs: exprs,
		log:   log,
	}
}

func (self *SQLExecutor) expr(field string) string {
	if e, ok := self.exprs[field]; ok && e != "" {
		return e
	}
	return field
}

func (self *SQLExecutor) Run(
	ctx context.Context,
	q *plan.GroupingQuery,
) ([]plan.ResultRow, error) {
	query, params := self.buildQuery(q)

	self.log.Debug("sql query",
		zap.String("sql", query),
		zap.Any("params", params),
	)

	rows, err := self.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to exec query: %w, query: %s", err, query)
	}
	defer rows.Close()

	out := []plan.ResultRow{}
	for rows.Next() {
		dims := make([]sql.NullString, len(q.GroupFields))
		aggs := make([]sql.NullFloat64, len(q.Aggregates))

		dest := make([]interface{}, 0, len(dims)+len(aggs))
		for i := range dims {
			dest = append(dest, &dims[i])
		}
		for i := range aggs {
			dest = append(dest, &aggs[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		r := plan.ResultRow{
			Dimensions: make(map[string]string, len(q.GroupFields)),
			Aggregates: make(map[string]*float64, len(q.Aggregates)),
		}
		for i, f := range q.GroupFields {
			r.Dimensions[f] = dims[i].String
		}
		for i, m := range q.Aggregates {
			if aggs[i].Valid {
				v := aggs[i].Float64
				r.Aggregates[m.Key()] = &v
			} else {
				r.Aggregates[m.Key()] = nil
			}
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

// ----------------------------------------------------------------------------
// query assembly

func (self *SQLExecutor) buildQuery(q *plan.GroupingQuery) (string, []interface{}) {
	cols := make([]string, 0, len(q.GroupFields)+len(q.Aggregates))
	groups := make([]string, 0, len(q.GroupFields))

	for _, f := range q.GroupFields {
		e := self.expr(f)
		cols = append(cols, fmt.Sprintf(`%s AS %s`, e, f))
		groups = append(groups, e)
	}
	for _, m := range q.Aggregates {
		cols = append(cols, fmt.Sprintf(`%s AS "%s"`, self.aggExpr(m), m.Key()))
	}

	query := `SELECT ` + strings.Join(cols, `, `) + ` FROM ` + self.table

	params := make([]interface{}, 0)
	if q.Filter != nil {
		where := self.filterSQL(q.Filter, &params)
		query += ` WHERE ` + where
	}

	if len(groups) > 0 {
		query += ` GROUP BY ` + strings.Join(groups, `, `)
	}

	return query, params
}

func (self *SQLExecutor) aggExpr(m *plan.MeasureSpec) string {
	field := ""
	if m.Field != "" {
		field = self.expr(m.Field)
	}

	switch m.AggType {
	case plan.AggSum:
		return fmt.Sprintf(`sum(%s)`, field)
	case plan.AggMean:
		return fmt.Sprintf(`avg(%s)`, field)
	case plan.AggMin:
		return fmt.Sprintf(`min(%s)`, field)
	case plan.AggMax:
		return fmt.Sprintf(`max(%s)`, field)
	case plan.AggP50:
		return fmt.Sprintf(`quantile(0.5)(%s)`, field)
	case plan.AggP95:
		return fmt.Sprintf(`quantile(0.95)(%s)`, field)
	default:
		if field == "" {
			return `count(*)`
		}
		return fmt.Sprintf(`count(%s)`, field)
	}
}

func (self *SQLExecutor) filterSQL(f plan.FilterExpr, params *[]interface{}) string {
	switch f.FilterType() {
	case plan.FilterAnd:
		b := f.(*plan.FilterBinary)
		return fmt.Sprintf(`(%s AND %s)`,
			self.filterSQL(b.L, params),
			self.filterSQL(b.R, params),
		)

	case plan.FilterOr:
		b := f.(*plan.FilterBinary)
		return fmt.Sprintf(`(%s OR %s)`,
			self.filterSQL(b.L, params),
			self.filterSQL(b.R, params),
		)

	case plan.FilterNot:
		u := f.(*plan.FilterUnary)
		return fmt.Sprintf(`NOT (%s)`, self.filterSQL(u.Operand, params))

	default:
		return self.predicateSQL(f.(*plan.Predicate), params)
	}
}

func (self *SQLExecutor) predicateSQL(p *plan.Predicate, params *[]interface{}) string {
	e := self.expr(p.Field)

	switch p.Op {
	case plan.OpIsNull:
		return e + ` IS NULL`
	case plan.OpIsNotNull:
		return e + ` IS NOT NULL`
	}

	op := ""
	switch p.Op {
	case plan.OpEq:
		op = `=`
	case plan.OpNe:
		op = `!=`
	case plan.OpGt:
		op = `>`
	case plan.OpLt:
		op = `<`
	case plan.OpGe:
		op = `>=`
	case plan.OpLe:
		op = `<=`
	}

	*params = append(*params, p.Value)
	return fmt.Sprintf(`%s %s ?`, e, op)
}
