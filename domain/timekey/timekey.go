// Package timekey derives the canonical (date, hour) join key from the heterogeneous date and
// hour encodings found in hand-made spreadsheets.
//
// The cascade is lenient on purpose: a malformed cell yields a null date or a zero hour for that
// row instead of rejecting the whole file.
package timekey

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	lo "github.com/samber/lo"

	"ptf-calc/domain/schema"
	"ptf-calc/domain/table"
)

// DateLayout is the canonical date key format.
const DateLayout = "2006-01-02"

// Mode tells the normalizer which kind of table it is looking at.
type Mode int

const (
	Consumption Mode = iota
	Price
)

var (
	// ErrMissingColumns is returned when the date or hour column cannot be resolved.
	ErrMissingColumns = errors.New("Missing Columns")
	// ErrDate reports a date column where no row parsed. See Normalized.Diagnose.
	ErrDate = errors.New("Date Error")
	// ErrTime reports an hour column where every row defaulted to 0. See Normalized.Diagnose.
	ErrTime = errors.New("Time Error")
)

// Key is the canonical time key. An empty Date is a null key.
type Key struct {
	Date string
	Hour int
}

// Valid reports whether the key can take part in a join.
func (k Key) Valid() bool { return k.Date != "" }

// Failure classifies why a cell did not parse.
type Failure string

const (
	FailureNone           Failure = ""
	FailureDateParse      Failure = "date-parse"
	FailureNumeric        Failure = "numeric-coercion"
	FailureHourRange      Failure = "hour-range"
	FailureTimestampParse Failure = "timestamp-parse"
)

// unresolvedHour marks a cell that failed numeric coercion; it is never confused with a
// genuinely parsed hour 0.
const unresolvedHour = -1

// RowResult is the per-row outcome of key derivation.
type RowResult struct {
	Key         Key
	DateFailure Failure
	// HourFailure is the first failure in the hour cascade; the row may still have resolved
	// through the timestamp fallback.
	HourFailure Failure
	// HourFallback is set when the hour came from neither numeric coercion nor the timestamp
	// re-parse and was defaulted to 0.
	HourFallback bool
}

// Failures counts failure kinds per source column.
type Failures map[string]map[Failure]int

func (f Failures) add(column string, kind Failure) {
	if kind == FailureNone {
		return
	}
	if f[column] == nil {
		f[column] = map[Failure]int{}
	}
	f[column][kind]++
}

// Dominant returns the most frequent failure kind for column, or FailureNone. Ties resolve
// alphabetically so the result is stable.
func (f Failures) Dominant(column string) Failure {
	counts := f[column]
	if len(counts) == 0 {
		return FailureNone
	}
	kinds := lo.Keys(counts)
	sort.Slice(kinds, func(i, j int) bool {
		if counts[kinds[i]] != counts[kinds[j]] {
			return counts[kinds[i]] > counts[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})
	return kinds[0]
}

// Normalized is a table with its per-row keys. Keys[i] belongs to Table.Rows[i].
type Normalized struct {
	Table      *table.Table
	Rows       []RowResult
	DateColumn string
	HourColumn string
	// HourExtracted is set when the hour came from the date column because no hour column
	// exists.
	HourExtracted bool
	Failures      Failures
}

// Keys returns the row keys in order.
func (n *Normalized) Keys() []Key {
	return lo.Map(n.Rows, func(r RowResult, _ int) Key { return r.Key })
}

// Dates returns the distinct non-null dates in order of first appearance.
func (n *Normalized) Dates() []string {
	dates := lo.FilterMap(n.Rows, func(r RowResult, _ int) (string, bool) { return r.Key.Date, r.Key.Valid() })
	return lo.Uniq(dates)
}

// Normalize resolves the date and hour columns of t and derives one key per row.
func Normalize(t *table.Table, mode Mode) (*Normalized, error) {
	s := schema.Resolve(t.Columns)
	n := &Normalized{
		Table:      t,
		DateColumn: s.Date,
		HourColumn: s.Hour,
		Failures:   Failures{},
	}

	var extracted []int
	if mode == Consumption && n.DateColumn != "" && n.HourColumn == "" {
		extracted = extractHours(t.Column(n.DateColumn))
		if extracted != nil {
			n.HourColumn = n.DateColumn
			n.HourExtracted = true
		}
	}
	if n.DateColumn == "" || n.HourColumn == "" {
		return nil, ErrMissingColumns
	}

	n.Rows = make([]RowResult, len(t.Rows))
	for i, row := range t.Rows {
		var res RowResult
		if d, ok := ParseDate(row[n.DateColumn]); ok {
			res.Key.Date = d.Format(DateLayout)
		} else {
			res.DateFailure = FailureDateParse
		}
		if extracted != nil {
			res.Key.Hour = extracted[i]
		} else {
			res.Key.Hour, res.HourFailure, res.HourFallback = hourOf(row[n.HourColumn])
		}
		n.Failures.add(n.DateColumn, res.DateFailure)
		n.Failures.add(n.HourColumn, res.HourFailure)
		if res.HourFallback {
			n.Failures.add(n.HourColumn, FailureTimestampParse)
		}
		n.Rows[i] = res
	}
	return n, nil
}

// Diagnose describes columns that failed on every row: a date column with no parseable cell
// (ErrDate) and an hour column where every row defaulted to 0 (ErrTime). Such tables are still
// usable; null dates simply never join and defaulted hours join at 0.
func (n *Normalized) Diagnose() []error {
	if len(n.Rows) == 0 {
		return nil
	}
	var errs []error
	if lo.EveryBy(n.Rows, func(r RowResult) bool { return !r.Key.Valid() }) {
		errs = append(errs, fmt.Errorf("%w: %s in column %q", ErrDate, n.Failures.Dominant(n.DateColumn), n.DateColumn))
	}
	if lo.EveryBy(n.Rows, func(r RowResult) bool { return r.HourFallback }) {
		errs = append(errs, fmt.Errorf("%w: %s in column %q", ErrTime, n.Failures.Dominant(n.HourColumn), n.HourColumn))
	}
	return errs
}

// extractHours parses every cell as a timestamp and returns the hours, or nil when no cell
// carries a non-zero hour (a date-only column).
func extractHours(values []any) []int {
	hours := make([]int, len(values))
	nonZero := false
	for i, v := range values {
		if ts, ok := ParseDate(v); ok {
			hours[i] = ts.Hour()
			nonZero = nonZero || hours[i] != 0
		}
	}
	if !nonZero {
		return nil
	}
	return hours
}

// HourOf runs the hour cascade on one cell. ok is false when the hour could not be read and
// would default to 0.
func HourOf(v any) (hour int, ok bool) {
	h, _, fallback := hourOf(v)
	return h, !fallback
}

// hourOf runs the hour cascade: numeric coercion, then timestamp re-parse of the same cell,
// then 0.
func hourOf(v any) (int, Failure, bool) {
	h, failure := coerceHour(v)
	if h != unresolvedHour {
		return h, FailureNone, false
	}
	if ts, ok := ParseTimestamp(v); ok {
		return ts.Hour(), failure, false
	}
	return 0, failure, true
}

func coerceHour(v any) (int, Failure) {
	var f float64
	switch x := v.(type) {
	case string:
		parsed, ok := parseNumber(x)
		if !ok {
			return unresolvedHour, FailureNumeric
		}
		f = parsed
	default:
		n, ok := table.AsFloat(v)
		if !ok {
			return unresolvedHour, FailureNumeric
		}
		f = n
	}
	h := int(math.Trunc(f))
	if h < 0 || h > 23 {
		return unresolvedHour, FailureHourRange
	}
	return h, FailureNone
}

func parseNumber(s string) (float64, bool) {
	v := table.ParseCell(strings.TrimSpace(s))
	return table.AsFloat(v)
}
