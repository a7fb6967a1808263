package compose

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/windforest/querychat/internal/query"
)

// ResultsSection renders rows as a markdown table, or a no-results line.
func ResultsSection(result query.Result) string {
	if len(result.Rows) == 0 {
		return "\n**Results:** No results found."
	}

	var b strings.Builder
	b.WriteString("\n**Results:**\n")
	headers := make([]string, len(result.Columns))
	separators := make([]string, len(result.Columns))
	for i, column := range result.Columns {
		headers[i] = escapeCell(column)
		separators[i] = "---"
	}
	writeTableRow(&b, headers)
	writeTableRow(&b, separators)
	for _, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for i := range result.Columns {
			if i < len(row) {
				cells[i] = escapeCell(FormatCell(row[i]))
			}
		}
		writeTableRow(&b, cells)
	}
	if result.Truncated {
		fmt.Fprintf(&b, "\n_Showing the first %d rows; the query returned more._\n", len(result.Rows))
	}
	return b.String()
}

func writeTableRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

// FormatCell renders a scalar for a table cell: thousands separators for
// numbers, two decimals for floats.
func FormatCell(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	case bool:
		if typed {
			return "true"
		}
		return "false"
	case int:
		return humanize.Comma(int64(typed))
	case int8:
		return humanize.Comma(int64(typed))
	case int16:
		return humanize.Comma(int64(typed))
	case int32:
		return humanize.Comma(int64(typed))
	case int64:
		return humanize.Comma(typed)
	case uint:
		return humanize.BigComma(new(big.Int).SetUint64(uint64(typed)))
	case uint8:
		return humanize.Comma(int64(typed))
	case uint16:
		return humanize.Comma(int64(typed))
	case uint32:
		return humanize.Comma(int64(typed))
	case uint64:
		return humanize.BigComma(new(big.Int).SetUint64(typed))
	case *big.Int:
		if typed == nil {
			return ""
		}
		return humanize.BigComma(typed)
	case float32:
		return formatFloat(float64(typed))
	case float64:
		return formatFloat(typed)
	case time.Time:
		if typed.Hour() == 0 && typed.Minute() == 0 && typed.Second() == 0 && typed.Nanosecond() == 0 {
			return typed.Format(time.DateOnly)
		}
		return typed.Format(time.RFC3339)
	case interface{ Float64() float64 }:
		// DuckDB DECIMAL values.
		return formatFloat(typed.Float64())
	default:
		return fmt.Sprint(typed)
	}
}

func formatFloat(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Sprint(value)
	}
	rounded := strconv.FormatFloat(value, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(rounded, "-") {
		sign, rounded = "-", rounded[1:]
	}
	whole, fraction, _ := strings.Cut(rounded, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + rounded
	}
	return sign + humanize.Comma(n) + "." + fraction
}

func escapeCell(value string) string {
	value = strings.ReplaceAll(value, "|", `\|`)
	value = strings.ReplaceAll(value, "\r\n", " ")
	return strings.ReplaceAll(value, "\n", " ")
}
