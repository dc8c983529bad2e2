package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders every result table as a compact report.
func (r *Results) Markdown() string {
	var b strings.Builder
	b.WriteString("[LIFE EXPECTANCY SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Records: %d\n", r.Records))
	b.WriteString(fmt.Sprintf("GDP threshold: %s (inclusive on both buckets)\n", FormatCell(r.GDPThreshold)))
	for _, t := range r.Tables() {
		b.WriteString("\n[")
		b.WriteString(t.Title)
		b.WriteString("]\n")
		if len(t.Rows) == 0 {
			b.WriteString("(no rows)\n")
			continue
		}
		b.WriteString("| ")
		b.WriteString(strings.Join(t.Columns, " | "))
		b.WriteString(" |\n|")
		for range t.Columns {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for _, row := range t.Rows {
			b.WriteString("| ")
			for i, v := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(safeVal(FormatCell(v)))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

// FormatCell renders a table value. Floats keep at most two decimals.
func FormatCell(v any) string {
	switch x := v.(type) {
	case float64:
		s := fmt.Sprintf("%.2f", x)
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
		if s == "" || s == "-" {
			return "0"
		}
		return s
	case int:
		return fmt.Sprintf("%d", x)
	case string:
		return x
	default:
		return fmt.Sprint(v)
	}
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
