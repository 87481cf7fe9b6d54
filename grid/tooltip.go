package grid

// Cell metadata strings for the hover widget. Every cell carries a line of
// the form
//
//   Occupation: Engineer, Education: BA → income.sum
//
// the dimension path on the left of the arrow, the aggregate name on the
// right. The widget parses exactly this format, so the parser here is the
// reference implementation: it splits on the unicode or ASCII arrow, then
// on comma-separated "name: value" pairs, and silently skips ill-formed
// pairs rather than failing on a malformed or truncated string.

import (
	"strings"
)

// Tooltip renders the metadata line of one cell.
func Tooltip(rowPath, colPath Path, aggKey string) string {
	parts := []string{}
	for _, p := range rowPath {
		parts = append(parts, p.Field+": "+p.Value)
	}
	for _, p := range colPath {
		parts = append(parts, p.Field+": "+p.Value)
	}

	if len(parts) == 0 {
		return "→ " + aggKey
	}
	return strings.Join(parts, ", ") + " → " + aggKey
}

// ParseTooltip parses a metadata line back into its dimension pairs and
// aggregate name. Ill-formed pairs are skipped, a string without an arrow
// yields no aggregate. The parser never fails.
func ParseTooltip(s string) ([]Part, string) {
	dims := s
	agg := ""

	if idx := strings.Index(s, "→"); idx >= 0 {
		dims = s[:idx]
		agg = strings.TrimSpace(s[idx+len("→"):])
	} else if idx := strings.Index(s, "->"); idx >= 0 {
		dims = s[:idx]
		agg = strings.TrimSpace(s[idx+2:])
	}

	out := []Part{}
	for _, pair := range strings.Split(dims, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.Index(pair, ":")
		if idx <= 0 {
			continue
		}
		name := strings.TrimSpace(pair[:idx])
		value := strings.TrimSpace(pair[idx+1:])
		if name == "" {
			continue
		}
		out = append(out, Part{Field: name, Value: value})
	}

	return out, agg
}
