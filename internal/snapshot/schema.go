package snapshot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

type ColumnKind string

const (
	KindInt64  ColumnKind = "int64"
	KindDouble ColumnKind = "double"
	KindString ColumnKind = "string"
	// KindDate is stored as days since the Unix epoch.
	KindDate ColumnKind = "date"
	// KindTimestamp is stored as microseconds of wall-clock time, not
	// adjusted to UTC.
	KindTimestamp ColumnKind = "timestamp"
)

var timeLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
}

// KindForDeclaredType maps a SQLite declared column type onto a parquet
// column kind, following SQLite's type affinity rules.
func KindForDeclaredType(declared string) ColumnKind {
	upper := strings.ToUpper(declared)
	switch {
	case strings.Contains(upper, "INT"), strings.Contains(upper, "BOOL"):
		return KindInt64
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "CLOB"), strings.Contains(upper, "TEXT"):
		return KindString
	case strings.Contains(upper, "DATETIME"), strings.Contains(upper, "TIMESTAMP"):
		return KindTimestamp
	case strings.Contains(upper, "DATE"):
		return KindDate
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"), strings.Contains(upper, "DOUB"),
		strings.Contains(upper, "NUMERIC"), strings.Contains(upper, "DECIMAL"):
		return KindDouble
	default:
		return KindString
	}
}

// tableLayout is the parquet schema of one table. Parquet groups order their
// leaf columns by name, so leafIndex maps a source column to its leaf.
type tableLayout struct {
	schema    *parquet.Schema
	columns   []Column
	leafIndex []int
}

func newTableLayout(table string, columns []Column) (tableLayout, error) {
	if len(columns) == 0 {
		return tableLayout{}, fmt.Errorf("table %q has no columns", table)
	}
	group := parquet.Group{}
	names := make([]string, 0, len(columns))
	for _, column := range columns {
		if _, dup := group[column.Name]; dup {
			return tableLayout{}, fmt.Errorf("table %q has duplicate column %q", table, column.Name)
		}
		group[column.Name] = parquet.Optional(leafFor(column.Kind))
		names = append(names, column.Name)
	}
	sort.Strings(names)
	position := make(map[string]int, len(names))
	for i, name := range names {
		position[name] = i
	}
	leafIndex := make([]int, len(columns))
	for i, column := range columns {
		leafIndex[i] = position[column.Name]
	}
	return tableLayout{
		schema:    parquet.NewSchema(table, group),
		columns:   columns,
		leafIndex: leafIndex,
	}, nil
}

func leafFor(kind ColumnKind) parquet.Node {
	switch kind {
	case KindInt64:
		return parquet.Int(64)
	case KindDouble:
		return parquet.Leaf(parquet.DoubleType)
	case KindDate:
		return parquet.Date()
	case KindTimestamp:
		return parquet.TimestampAdjusted(parquet.Microsecond, false)
	default:
		return parquet.String()
	}
}

// row converts scanned SQLite values into a parquet row ordered by leaf index.
func (l tableLayout) row(values []any) (parquet.Row, error) {
	row := make(parquet.Row, len(values))
	for i, value := range values {
		leaf := l.leafIndex[i]
		if value == nil {
			row[leaf] = parquet.NullValue().Level(0, 0, leaf)
			continue
		}
		converted, err := convertValue(l.columns[i].Kind, value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", l.columns[i].Name, err)
		}
		row[leaf] = converted.Level(0, 1, leaf)
	}
	return row, nil
}

func convertValue(kind ColumnKind, value any) (parquet.Value, error) {
	switch kind {
	case KindInt64:
		switch typed := value.(type) {
		case int64:
			return parquet.Int64Value(typed), nil
		case bool:
			if typed {
				return parquet.Int64Value(1), nil
			}
			return parquet.Int64Value(0), nil
		case float64:
			return parquet.Int64Value(int64(typed)), nil
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
			if err != nil {
				return parquet.Value{}, fmt.Errorf("value %q is not an integer", typed)
			}
			return parquet.Int64Value(parsed), nil
		}
	case KindDouble:
		switch typed := value.(type) {
		case float64:
			return parquet.DoubleValue(typed), nil
		case int64:
			return parquet.DoubleValue(float64(typed)), nil
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
			if err != nil {
				return parquet.Value{}, fmt.Errorf("value %q is not a number", typed)
			}
			return parquet.DoubleValue(parsed), nil
		}
	case KindDate, KindTimestamp:
		moment, err := timeValue(value)
		if err != nil {
			return parquet.Value{}, err
		}
		// Wall clock as if it were UTC, so DuckDB sees the stored date.
		year, month, day := moment.Date()
		if kind == KindDate {
			midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			return parquet.Int32Value(int32(midnight.Unix() / 86400)), nil
		}
		wall := time.Date(year, month, day, moment.Hour(), moment.Minute(), moment.Second(), moment.Nanosecond(), time.UTC)
		return parquet.Int64Value(wall.UnixMicro()), nil
	default:
		return parquet.ByteArrayValue([]byte(stringValue(value))), nil
	}
	return parquet.Value{}, fmt.Errorf("unsupported %T value for %s column", value, kind)
}

// timeValue accepts what the SQLite driver returns for date columns: a
// parsed time, or the raw text when the stored value did not parse.
func timeValue(value any) (time.Time, error) {
	var text string
	switch typed := value.(type) {
	case time.Time:
		return typed, nil
	case string:
		text = typed
	case []byte:
		text = string(typed)
	default:
		return time.Time{}, fmt.Errorf("unsupported %T value for a date column", value)
	}
	text = strings.TrimSpace(text)
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("value %q is not a date", text)
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case []byte:
		return string(typed)
	case time.Time:
		if typed.Hour() == 0 && typed.Minute() == 0 && typed.Second() == 0 && typed.Nanosecond() == 0 {
			return typed.Format(time.DateOnly)
		}
		return typed.Format(time.RFC3339)
	default:
		return fmt.Sprint(typed)
	}
}
