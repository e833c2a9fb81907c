package table

import (
	"math"
	"strconv"
	"strings"
	"time"

	lo "github.com/samber/lo"
)

// Row maps a column name to a cell value. Values are nil, string, float64 or time.Time.
type Row map[string]any

// Table is an ordered set of rows sharing one column set. Operations return new tables;
// the receiver is never modified.
type Table struct {
	Columns []string
	Rows    []Row
}

// New builds a table with the given columns and rows. Rows are copied.
func New(columns []string, rows ...Row) *Table {
	t := &Table{Columns: append([]string{}, columns...)}
	for _, r := range rows {
		t.Rows = append(t.Rows, r.clone())
	}
	return t
}

func (r Row) clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Len returns the number of rows; a nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether t is nil or has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// Has reports whether the table carries column name (exact match).
func (t *Table) Has(name string) bool {
	return lo.Contains(t.Columns, name)
}

// Clone returns a deep copy of the row maps.
func (t *Table) Clone() *Table {
	return New(t.Columns, t.Rows...)
}

// Column returns the values of one column in row order.
func (t *Table) Column(name string) []any {
	return lo.Map(t.Rows, func(r Row, _ int) any { return r[name] })
}

// WithColumn returns a copy with column name set to values. The column is appended when new.
func (t *Table) WithColumn(name string, values []any) *Table {
	c := t.Clone()
	if !c.Has(name) {
		c.Columns = append(c.Columns, name)
	}
	for i := range c.Rows {
		if i < len(values) {
			c.Rows[i][name] = values[i]
		} else {
			c.Rows[i][name] = nil
		}
	}
	return c
}

// Drop returns a copy without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	if len(names) == 0 {
		return t.Clone()
	}
	c := &Table{Columns: lo.Without(t.Columns, names...)}
	for _, r := range t.Rows {
		nr := r.clone()
		for _, n := range names {
			delete(nr, n)
		}
		c.Rows = append(c.Rows, nr)
	}
	return c
}

// Filter returns the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	return New(t.Columns, lo.Filter(t.Rows, func(r Row, _ int) bool { return keep(r) })...)
}

// Append returns a copy with rows added at the end.
func (t *Table) Append(rows ...Row) *Table {
	c := t.Clone()
	for _, r := range rows {
		c.Rows = append(c.Rows, r.clone())
	}
	return c
}

// Concat stacks tables. Columns are the union in order of first appearance.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, col := range t.Columns {
			if !out.Has(col) {
				out.Columns = append(out.Columns, col)
			}
		}
		for _, r := range t.Rows {
			out.Rows = append(out.Rows, r.clone())
		}
	}
	return out
}

// RenameColumns returns a copy where each column name is passed through fn.
func (t *Table) RenameColumns(fn func(string) string) *Table {
	c := &Table{Columns: lo.Map(t.Columns, func(s string, _ int) string { return fn(s) })}
	for _, r := range t.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[fn(k)] = v
		}
		c.Rows = append(c.Rows, nr)
	}
	return c
}

// AsFloat converts numeric cells. Strings are not coerced; see the costing engine for that.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// IsNull reports absent cells: nil, NaN, or a blank string.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// FormatValue renders a cell for keys, file names and text output.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	}
	if f, ok := AsFloat(v); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// ParseCell turns raw text from a file into a cell value: blank is nil, plain numbers are float64,
// anything else stays a string.
func ParseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}
