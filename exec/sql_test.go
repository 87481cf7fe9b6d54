package exec

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/jasonphillips/tplm/plan"
)

const testTable = "people"

func testDimensions() []*Dimension {
	return []*Dimension{
		{Name: "occupation", Expression: "occupation"},
		{Name: "education", Expression: "education"},
		{Name: "region", Expression: "region"},
		{Name: "income", Expression: "income"},
		{Name: "age", Expression: "age"},
	}
}

func sumMeasure(field string) *plan.MeasureSpec {
	return &plan.MeasureSpec{Field: field, AggType: plan.AggSum}
}

func TestSQLGrouped(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.
		ExpectQuery(
			"^"+regexp.QuoteMeta(
				`SELECT education AS education, occupation AS occupation, `+
					`sum(income) AS "income.sum", avg(age) AS "age.mean" `+
					`FROM people GROUP BY education, occupation`)+"$",
		).
		WillReturnRows(
			sqlmock.NewRows(
				[]string{"education", "occupation", "income.sum", "age.mean"},
			).
				AddRow("BA", "Clerk", 100.5, 30.0).
				AddRow("MA", "Doctor", nil, nil),
		)

	ex := NewSQLExecutor(db, testTable, testDimensions(), nil)
	rows, err := ex.Run(context.Background(), &plan.GroupingQuery{
		GroupFields: []string{"education", "occupation"},
		Aggregates: []*plan.MeasureSpec{
			sumMeasure("income"),
			{Field: "age", AggType: plan.AggMean},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, len(rows))

	require.Equal(t, "Clerk", rows[0].Dimensions["occupation"])
	require.Equal(t, 100.5, *rows[0].Aggregates["income.sum"])
	require.Equal(t, 30.0, *rows[0].Aggregates["age.mean"])

	// a NULL aggregate scans into a nil value, never a zero
	require.Nil(t, rows[1].Aggregates["income.sum"])
	require.Nil(t, rows[1].Aggregates["age.mean"])
}

func TestSQLFilterParams(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.
		ExpectQuery(
			"^"+regexp.QuoteMeta(
				`SELECT occupation AS occupation, count(*) AS "count" `+
					`FROM people WHERE (age > ? AND region = ?) GROUP BY occupation`)+"$",
		).
		WithArgs(int64(30), "East").
		WillReturnRows(
			sqlmock.NewRows([]string{"occupation", "count"}).
				AddRow("Clerk", 7.0),
		)

	ex := NewSQLExecutor(db, testTable, testDimensions(), nil)
	rows, err := ex.Run(context.Background(), &plan.GroupingQuery{
		GroupFields: []string{"occupation"},
		Aggregates:  []*plan.MeasureSpec{{AggType: plan.AggCount}},
		Filter: &plan.FilterBinary{
			Op: plan.FilterAnd,
			L:  &plan.Predicate{Field: "age", Op: plan.OpGt, Value: int64(30)},
			R:  &plan.Predicate{Field: "region", Op: plan.OpEq, Value: "East"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, len(rows))
	require.Equal(t, 7.0, *rows[0].Aggregates["count"])
}

func TestSQLGrandTotal(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.
		ExpectQuery(
			"^"+regexp.QuoteMeta(`SELECT count(*) AS "count" FROM people`)+"$",
		).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42.0))

	ex := NewSQLExecutor(db, testTable, testDimensions(), nil)
	rows, err := ex.Run(context.Background(), &plan.GroupingQuery{
		Aggregates: []*plan.MeasureSpec{{AggType: plan.AggCount}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, len(rows))
	require.Equal(t, 0, len(rows[0].Dimensions))
	require.Equal(t, 42.0, *rows[0].Aggregates["count"])
}

func TestSQLExpressionDimension(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.
		ExpectQuery(
			"^"+regexp.QuoteMeta(
				`SELECT lower(occ) AS occupation, sum(income) AS "income.sum" `+
					`FROM people WHERE spouse IS NULL GROUP BY lower(occ)`)+"$",
		).
		WillReturnRows(
			sqlmock.NewRows([]string{"occupation", "income.sum"}).
				AddRow("clerk", 9.0),
		)

	ex := NewSQLExecutor(db, testTable, []*Dimension{
		{Name: "occupation", Expression: "lower(occ)"},
	}, nil)
	rows, err := ex.Run(context.Background(), &plan.GroupingQuery{
		GroupFields: []string{"occupation"},
		Aggregates:  []*plan.MeasureSpec{sumMeasure("income")},
		Filter:      &plan.Predicate{Field: "spouse", Op: plan.OpIsNull},
	})
	require.NoError(t, err)
	require.Equal(t, "clerk", rows[0].Dimensions["occupation"])
}

func TestSQLQuantileExpr(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.
		ExpectQuery(
			"^"+regexp.QuoteMeta(
				`SELECT quantile(0.5)("income") AS "income.p50" FROM people`)+"$",
		).
		WillReturnRows(sqlmock.NewRows([]string{"income.p50"}).AddRow(123.0))

	ex := NewSQLExecutor(db, testTable, []*Dimension{
		{Name: "income", Expression: `"income"`},
	}, nil)
	rows, err := ex.Run(context.Background(), &plan.GroupingQuery{
		Aggregates: []*plan.MeasureSpec{{Field: "income", AggType: plan.AggP50}},
	})
	require.NoError(t, err)
	require.Equal(t, 123.0, *rows[0].Aggregates["income.p50"])
}
