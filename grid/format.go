package grid

// Display formatting. Formatting is the last assembly step and is strictly
// presentational, the raw numeric value stays on the cell next to the
// formatted string.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jasonphillips/tplm/plan"
)

func formatValue(m *plan.MeasureSpec, v *float64) string {
	if v == nil {
		return ""
	}

	switch m.Format.Kind {
	case plan.FormatCurrency:
		return formatCurrency(*v)

	case plan.FormatPercent:
		return fmt.Sprintf("%.*f%%", m.Format.Decimals, *v*100)

	case plan.FormatDecimal:
		return fmt.Sprintf("%.*f", m.Format.Decimals, *v)

	default:
		return strconv.FormatFloat(*v, 'g', -1, 64)
	}
}

func formatCurrency(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]

	grouped := strings.Builder{}
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(c)
	}

	if neg {
		return "-$" + grouped.String() + frac
	}
	return "$" + grouped.String() + frac
}
