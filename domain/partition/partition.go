package partition

import (
	"errors"
	"fmt"
	"strings"

	lo "github.com/samber/lo"

	"ptf-calc/domain/table"
)

var (
	ErrNoData        = errors.New("no data")
	ErrMissingColumn = errors.New("missing column")
)

// SummaryLabel is written into the label columns of the summary row.
const SummaryLabel = "TOPLAM"

// Group is one subset of the input table.
type Group struct {
	// Key is the sanitized group value, safe to use as a file name.
	Key string
	// Value is the raw partition column value.
	Value any
	Table *table.Table
	// HasSummary is set when the last row of Table is the synthetic summary row.
	HasSummary bool
}

// Rows returns the group rows without the summary row.
func (g Group) Rows() []table.Row {
	if g.HasSummary && len(g.Table.Rows) > 0 {
		return g.Table.Rows[:len(g.Table.Rows)-1]
	}
	return g.Table.Rows
}

// Result holds the groups in order of first appearance.
type Result struct {
	Column string
	Groups []Group
}

// Get returns the group with sanitized key k.
func (r *Result) Get(k string) (Group, bool) {
	return lo.Find(r.Groups, func(g Group) bool { return g.Key == k })
}

// Keys returns the sanitized keys in order.
func (r *Result) Keys() []string {
	return lo.Map(r.Groups, func(g Group, _ int) string { return g.Key })
}

// Concat re-assembles the groups without summary rows.
func (r *Result) Concat() *table.Table {
	parts := lo.Map(r.Groups, func(g Group, _ int) *table.Table { return table.New(g.Table.Columns, g.Rows()...) })
	return table.Concat(parts...)
}

type options struct {
	summary      bool
	labelColumns []string
	clearColumns []string
	label        string
}

// Option configures Split.
type Option func(*options)

// WithSummary appends a summary row to every group: numeric columns are summed, the partition
// column keeps the group value, label columns get the label and clear columns are blanked.
func WithSummary(labelColumns, clearColumns []string) Option {
	return func(o *options) {
		o.summary = true
		o.labelColumns = labelColumns
		o.clearColumns = clearColumns
	}
}

// WithLabel overrides SummaryLabel.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}

// Split partitions t by the values of column.
func Split(t *table.Table, column string, opts ...Option) (*Result, error) {
	if t == nil || len(t.Columns) == 0 {
		return nil, ErrNoData
	}
	if !t.Has(column) {
		return nil, fmt.Errorf("%w: Missing %s", ErrMissingColumn, column)
	}
	o := options{label: SummaryLabel}
	for _, opt := range opts {
		opt(&o)
	}

	var numeric []string
	if o.summary {
		numeric = numericColumns(t)
	}

	res := &Result{Column: column}
	index := map[string]int{}
	for _, row := range t.Rows {
		raw := table.FormatValue(row[column])
		i, ok := index[raw]
		if !ok {
			i = len(res.Groups)
			index[raw] = i
			res.Groups = append(res.Groups, Group{
				Key:   SanitizeKey(raw),
				Value: row[column],
				Table: table.New(t.Columns),
			})
		}
		g := &res.Groups[i]
		g.Table.Rows = append(g.Table.Rows, cloneRow(row))
	}

	if o.summary {
		for i := range res.Groups {
			g := &res.Groups[i]
			g.Table.Rows = append(g.Table.Rows, summaryRow(g, column, numeric, o))
			g.HasSummary = true
		}
	}
	return res, nil
}

// SanitizeKey replaces path separators so the key can be a file name.
func SanitizeKey(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(s)
}

// numericColumns returns the columns whose non-null values are all numbers and that hold at least
// one number.
func numericColumns(t *table.Table) []string {
	return lo.Filter(t.Columns, func(col string, _ int) bool {
		seen := false
		for _, r := range t.Rows {
			v := r[col]
			if table.IsNull(v) {
				continue
			}
			if _, ok := table.AsFloat(v); !ok {
				return false
			}
			seen = true
		}
		return seen
	})
}

func summaryRow(g *Group, column string, numeric []string, o options) table.Row {
	row := table.Row{}
	for _, col := range numeric {
		sum := 0.0
		for _, r := range g.Table.Rows {
			if f, ok := table.AsFloat(r[col]); ok {
				sum += f
			}
		}
		row[col] = sum
	}
	row[column] = g.Value
	for _, col := range o.labelColumns {
		if g.Table.Has(col) {
			row[col] = o.label
		}
	}
	for _, col := range o.clearColumns {
		if g.Table.Has(col) {
			row[col] = ""
		}
	}
	return row
}

func cloneRow(r table.Row) table.Row {
	c := make(table.Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}
