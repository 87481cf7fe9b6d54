package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTooltipRoundTrip(t *testing.T) {
	assert := assert.New(t)

	rowPath := Path{{Field: "occupation", Value: "Engineer"}}
	colPath := Path{{Field: "education", Value: "BA"}}

	s := Tooltip(rowPath, colPath, "income.sum")
	assert.Equal("occupation: Engineer, education: BA → income.sum", s)

	parts, agg := ParseTooltip(s)
	assert.Equal("income.sum", agg)
	assert.Equal(2, len(parts))
	assert.Equal(Part{Field: "occupation", Value: "Engineer"}, parts[0])
	assert.Equal(Part{Field: "education", Value: "BA"}, parts[1])
}

func TestTooltipEmptyPaths(t *testing.T) {
	assert := assert.New(t)

	s := Tooltip(Path{}, Path{}, "count")
	assert.Equal("→ count", s)

	parts, agg := ParseTooltip(s)
	assert.Equal("count", agg)
	assert.Equal(0, len(parts))
}

func TestParseTooltipTolerance(t *testing.T) {
	assert := assert.New(t)

	{
		// ASCII arrow accepted
		parts, agg := ParseTooltip("region: East -> age.mean")
		assert.Equal("age.mean", agg)
		assert.Equal(1, len(parts))
		assert.Equal("East", parts[0].Value)
	}
	{
		// ill-formed pairs are skipped, not fatal
		parts, agg := ParseTooltip("region: East, oops, : nofield → count")
		assert.Equal("count", agg)
		assert.Equal(1, len(parts))
	}
	{
		// no arrow yields no aggregate
		parts, agg := ParseTooltip("region: East")
		assert.Equal("", agg)
		assert.Equal(1, len(parts))
	}
	{
		parts, agg := ParseTooltip("")
		assert.Equal("", agg)
		assert.Equal(0, len(parts))
	}
	{
		// truncated string after the arrow
		_, agg := ParseTooltip("region: East →")
		assert.Equal("", agg)
	}
}
