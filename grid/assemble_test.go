package grid

import (
	"fmt"
	"testing"

	"github.com/jasonphillips/tplm/plan"
	"github.com/jasonphillips/tplm/tpl"
	"github.com/stretchr/testify/assert"
)

func testSchema() *plan.Schema {
	return plan.NewSchema().
		String("occupation", "education", "region").
		Number("income", "age")
}

func fv(v float64) *float64 { return &v }

func row(dims map[string]string, aggs map[string]*float64) plan.ResultRow {
	if dims == nil {
		dims = map[string]string{}
	}
	return plan.ResultRow{Dimensions: dims, Aggregates: aggs}
}

// compile a statement without pending orderings down to spec + plan
func compile(src string, assert *assert.Assertions) (*plan.TableSpec, *plan.QueryPlan) {
	stmt, err := tpl.Parse(src)
	assert.True(err == nil)

	p, err := plan.NewBuilder(testSchema()).Build(stmt)
	if err != nil {
		print(fmt.Sprintf("%s\n", err))
	}
	assert.True(err == nil)

	spec, err := p.Resolve(plan.ResultSet{})
	assert.True(err == nil)

	qp, err := plan.BuildPlan(nil, spec)
	assert.True(err == nil)
	return spec, qp
}

func queryByFields(qp *plan.QueryPlan, fields ...string) *plan.GroupingQuery {
	for _, q := range qp.Main {
		if len(q.GroupFields) != len(fields) {
			continue
		}
		ok := true
		for i := range fields {
			if q.GroupFields[i] != fields[i] {
				ok = false
				break
			}
		}
		if ok {
			return q
		}
	}
	return nil
}

func cellByLabel(g *Grid, rowLabel, colLabel string, measure int) *Cell {
	for ri, r := range g.Rows {
		if r.Label != rowLabel {
			continue
		}
		for ci, c := range g.Cols {
			if c.Label != colLabel {
				continue
			}
			return &g.Cells[ri][ci][measure]
		}
	}
	return nil
}

func TestRoundTrip(t *testing.T) {
	assert := assert.New(t)

	spec, qp := compile("table rows occupation cols education * income.sum;", assert)
	q := queryByFields(qp, "education", "occupation")
	assert.NotNil(q)

	results := plan.ResultSet{
		q.Key(): []plan.ResultRow{
			row(map[string]string{"occupation": "Engineer", "education": "BA"},
				map[string]*float64{"income.sum": fv(1000)}),
			row(map[string]string{"occupation": "Engineer", "education": "MA"},
				map[string]*float64{"income.sum": fv(2000)}),
			row(map[string]string{"occupation": "Clerk", "education": "BA"},
				map[string]*float64{"income.sum": fv(500)}),
		},
	}

	g, err := Assemble(spec, qp, results)
	assert.True(err == nil)

	// 2 occupations x 2 educations
	assert.Equal(2, len(g.Rows))
	assert.Equal(2, len(g.Cols))

	c := cellByLabel(g, "Engineer", "BA", 0)
	assert.NotNil(c.Value)
	assert.Equal(1000.0, *c.Value)

	// a pair absent from the rows is null, not zero
	c = cellByLabel(g, "Clerk", "MA", 0)
	assert.Nil(c.Value)
	assert.Equal("", c.Display)
}

func TestTotalsGrid(t *testing.T) {
	assert := assert.New(t)

	// 2 occupations and 2 educations plus a total on each axis yields a
	// 3x3 grid whose bottom-right cell is the sum of the four leaf cells
	spec, qp := compile(
		"table rows occupation | ALL cols (education | ALL) * income.sum;",
		assert,
	)

	leaf := queryByFields(qp, "education", "occupation")
	byOcc := queryByFields(qp, "occupation")
	byEdu := queryByFields(qp, "education")
	grand := queryByFields(qp)

	results := plan.ResultSet{
		leaf.Key(): []plan.ResultRow{
			row(map[string]string{"occupation": "Clerk", "education": "BA"},
				map[string]*float64{"income.sum": fv(1)}),
			row(map[string]string{"occupation": "Clerk", "education": "MA"},
				map[string]*float64{"income.sum": fv(2)}),
			row(map[string]string{"occupation": "Engineer", "education": "BA"},
				map[string]*float64{"income.sum": fv(3)}),
			row(map[string]string{"occupation": "Engineer", "education": "MA"},
				map[string]*float64{"income.sum": fv(4)}),
		},
		byOcc.Key(): []plan.ResultRow{
			row(map[string]string{"occupation": "Clerk"}, map[string]*float64{"income.sum": fv(3)}),
			row(map[string]string{"occupation": "Engineer"}, map[string]*float64{"income.sum": fv(7)}),
		},
		byEdu.Key(): []plan.ResultRow{
			row(map[string]string{"education": "BA"}, map[string]*float64{"income.sum": fv(4)}),
			row(map[string]string{"education": "MA"}, map[string]*float64{"income.sum": fv(6)}),
		},
		grand.Key(): []plan.ResultRow{
			row(nil, map[string]*float64{"income.sum": fv(10)}),
		},
	}

	g, err := Assemble(spec, qp, results)
	assert.True(err == nil)

	assert.Equal(3, len(g.Rows))
	assert.Equal(3, len(g.Cols))

	total := cellByLabel(g, "All", "All", 0)
	assert.Equal(10.0, *total.Value)

	sum := 0.0
	for _, r := range []string{"Clerk", "Engineer"} {
		for _, c := range []string{"BA", "MA"} {
			sum += *cellByLabel(g, r, c, 0).Value
		}
	}
	assert.Equal(sum, *total.Value)

	// row subtotal against the column total
	assert.Equal(7.0, *cellByLabel(g, "Engineer", "All", 0).Value)
	assert.Equal(6.0, *cellByLabel(g, "All", "MA", 0).Value)
}

func TestAcrossPercentages(t *testing.T) {
	assert := assert.New(t)

	spec, qp := compile(
		"table rows occupation cols education * income.sum:percent across cols;",
		assert,
	)

	leaf := queryByFields(qp, "education", "occupation")
	denom := queryByFields(qp, "occupation")

	results := plan.ResultSet{
		leaf.Key(): []plan.ResultRow{
			row(map[string]string{"occupation": "Clerk", "education": "BA"},
				map[string]*float64{"income.sum": fv(25)}),
			row(map[string]string{"occupation": "Clerk", "education": "MA"},
				map[string]*float64{"income.sum": fv(75)}),
			row(map[string]string{"occupation": "Engineer", "education": "BA"},
				map[string]*float64{"income.sum": fv(40)}),
			row(map[string]string{"occupation": "Engineer", "education": "MA"},
				map[string]*float64{"income.sum": fv(60)}),
		},
		denom.Key(): []plan.ResultRow{
			row(map[string]string{"occupation": "Clerk"}, map[string]*float64{"income.sum": fv(100)}),
			row(map[string]string{"occupation": "Engineer"}, map[string]*float64{"income.sum": fv(100)}),
		},
	}

	g, err := Assemble(spec, qp, results)
	assert.True(err == nil)

	assert.Equal(0.25, *cellByLabel(g, "Clerk", "BA", 0).Value)
	assert.Equal("25.0%", cellByLabel(g, "Clerk", "BA", 0).Display)

	// percentages across one row sum to 100% within rounding tolerance
	for ri := range g.Rows {
		sum := 0.0
		for ci := range g.Cols {
			sum += *g.Cells[ri][ci][0].Value
		}
		assert.InDelta(1.0, sum, 0.005)
	}
}

func TestAcrossNullDenominator(t *testing.T) {
	assert := assert.New(t)

	spec, qp := compile(
		"table rows occupation cols education * income.sum across cols;",
		assert,
	)

	leaf := queryByFields(qp, "education", "occupation")
	denom := queryByFields(qp, "occupation")

	results := plan.ResultSet{
		leaf.Key(): []plan.ResultRow{
			row(map[string]string{"occupation": "Clerk", "education": "BA"},
				map[string]*float64{"income.sum": fv(25)}),
			row(map[string]string{"occupation": "Monk", "education": "BA"},
				map[string]*float64{"income.sum": fv(5)}),
		},
		denom.Key(): []plan.ResultRow{
			// zero denominator for Clerk, missing denominator for Monk
			row(map[string]string{"occupation": "Clerk"}, map[string]*float64{"income.sum": fv(0)}),
		},
	}

	g, err := Assemble(spec, qp, results)
	assert.True(err == nil)

	// zero or absent denominators yield null, never a division error
	assert.Nil(cellByLabel(g, "Clerk", "BA", 0).Value)
	assert.Nil(cellByLabel(g, "Monk", "BA", 0).Value)
}

func TestAlphabeticalLimit(t *testing.T) {
	assert := assert.New(t)

	spec, qp := compile("table rows occupation[2] cols income.sum;", assert)
	q := queryByFields(qp, "occupation")

	results := plan.ResultSet{
		q.Key(): []plan.ResultRow{
			row(map[string]string{"occupation": "Clerk"}, map[string]*float64{"income.sum": fv(1)}),
			row(map[string]string{"occupation": "Baker"}, map[string]*float64{"income.sum": fv(2)}),
			row(map[string]string{"occupation": "Actor"}, map[string]*float64{"income.sum": fv(3)}),
		},
	}

	g, err := Assemble(spec, qp, results)
	assert.True(err == nil)

	// first 2 alphabetically ascending
	assert.Equal(2, len(g.Rows))
	assert.Equal("Actor", g.Rows[0].Label)
	assert.Equal("Baker", g.Rows[1].Label)
}

func TestLastNAlphabetical(t *testing.T) {
	assert := assert.New(t)

	spec, qp := compile("table rows occupation[-2] cols income.sum;", assert)
	q := queryByFields(qp, "occupation")

	results := plan.ResultSet{
		q.Key(): []plan.ResultRow{
			row(map[string]string{"occupation": "Clerk"}, map[string]*float64{"income.sum": fv(1)}),
			row(map[string]string{"occupation": "Baker"}, map[string]*float64{"income.sum": fv(2)}),
			row(map[string]string{"occupation": "Actor"}, map[string]*float64{"income.sum": fv(3)}),
		},
	}

	g, err := Assemble(spec, qp, results)
	assert.True(err == nil)

	// last 2 of the ascending order, sequence order preserved
	assert.Equal(2, len(g.Rows))
	assert.Equal("Baker", g.Rows[0].Label)
	assert.Equal("Clerk", g.Rows[1].Label)
}

func TestMissingResultIsError(t *testing.T) {
	assert := assert.New(t)

	spec, qp := compile("table rows occupation cols education * income.sum;", assert)
	_, err := Assemble(spec, qp, plan.ResultSet{})
	assert.Error(err)
}

func TestNestedSubtotalHeaders(t *testing.T) {
	assert := assert.New(t)

	spec, qp := compile(
		"table rows occupation * (education | ALL 'Subtotal') cols income.sum;",
		assert,
	)

	leaf := queryByFields(qp, "education", "occupation")
	sub := queryByFields(qp, "occupation")

	results := plan.ResultSet{
		leaf.Key(): []plan.ResultRow{
			row(map[string]string{"occupation": "Clerk", "education": "BA"},
				map[string]*float64{"income.sum": fv(1)}),
			row(map[string]string{"occupation": "Clerk", "education": "MA"},
				map[string]*float64{"income.sum": fv(2)}),
		},
		sub.Key(): []plan.ResultRow{
			row(map[string]string{"occupation": "Clerk"}, map[string]*float64{"income.sum": fv(3)}),
		},
	}

	g, err := Assemble(spec, qp, results)
	assert.True(err == nil)

	// Clerk expands into BA, MA and the subtotal leaf
	assert.Equal(1, len(g.RowHeaders))
	clerk := g.RowHeaders[0]
	assert.Equal("Clerk", clerk.Label)
	assert.Equal(3, len(clerk.Children))
	assert.Equal("Subtotal", clerk.Children[2].Label)
	assert.True(clerk.Children[2].IsTotal)

	// the subtotal row reads from the coarser query but keeps the parent
	// assignment
	assert.Equal(3, len(g.Rows))
	sum := *g.Cells[2][0][0].Value
	assert.Equal(3.0, sum)
}
