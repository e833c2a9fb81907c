// Package costing derives cost columns on a reconciled table, either from the matched market
// price or from the time-of-use tariff schedule.
package costing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ptf-calc/domain/schema"
	"ptf-calc/domain/table"
	"ptf-calc/domain/tariff"
	"ptf-calc/domain/timekey"
)

// Derived column names.
const (
	ColumnConsumptionMWh = "Gerçek Tüketim (MWh)"
	ColumnMarketCost     = "PTF x Gerçekleşen Tüketim"
	ColumnUnitPrice      = "Unit Price (TL)"
	ColumnTariffCost     = "Calculated Cost (TL)"
)

// ErrNumeric is returned when a consumption or price cell is text that is not a number.
var ErrNumeric = errors.New("numeric coercion failed")

// Apply adds cost columns to t. With a price column the market formula is used and always
// re-derived; without one the tariff schedule prices each row and the columns are only added
// when absent. Tables lacking the required columns come back unchanged.
func Apply(t *table.Table, sched tariff.Schedule) (*table.Table, error) {
	if t.Empty() {
		return t, nil
	}
	s := schema.Resolve(t.Columns)
	switch {
	case s.Has(schema.RoleConsumption, schema.RolePrice):
		return applyMarket(t, s)
	case s.Price == "" && s.Has(schema.RoleDate, schema.RoleConsumption):
		return applyTariff(t, s, sched)
	}
	return t, nil
}

func applyMarket(t *table.Table, s schema.Schema) (*table.Table, error) {
	cons, err := Coerce(t.Column(s.Consumption))
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", s.Consumption, err)
	}
	price, err := Coerce(t.Column(s.Price))
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", s.Price, err)
	}

	mwh := make([]any, len(cons))
	cost := make([]any, len(cons))
	thousand := decimal.NewFromInt(1000)
	for i := range cons {
		c, ok := cons[i].(float64)
		if !ok {
			continue
		}
		m := decimal.NewFromFloat(c).Div(thousand)
		mwh[i] = m.InexactFloat64()
		if p, ok := price[i].(float64); ok {
			cost[i] = m.Mul(decimal.NewFromFloat(p)).RoundBank(2).InexactFloat64()
		}
	}
	out := t.WithColumn(s.Consumption, cons).WithColumn(s.Price, price)
	return out.WithColumn(ColumnConsumptionMWh, mwh).WithColumn(ColumnMarketCost, cost), nil
}

func applyTariff(t *table.Table, s schema.Schema, sched tariff.Schedule) (*table.Table, error) {
	if t.Has(ColumnUnitPrice) && t.Has(ColumnTariffCost) {
		return t, nil
	}
	cons, err := Coerce(t.Column(s.Consumption))
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", s.Consumption, err)
	}

	unit := make([]any, len(t.Rows))
	cost := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		cost[i] = 0.0
		ts, ok := timestampOf(row, s)
		if !ok {
			continue
		}
		rate := sched.RateAt(ts)
		unit[i] = rate
		if c, ok := cons[i].(float64); ok {
			cost[i] = decimal.NewFromFloat(c).Mul(decimal.NewFromFloat(rate)).InexactFloat64()
		}
	}

	out := t
	if !out.Has(ColumnUnitPrice) {
		out = out.WithColumn(ColumnUnitPrice, unit)
	}
	if !out.Has(ColumnTariffCost) {
		out = out.WithColumn(ColumnTariffCost, cost)
	}
	return out, nil
}

// timestampOf returns the row timestamp. A date cell without a time part takes its hour from
// the hour column when there is one.
func timestampOf(row table.Row, s schema.Schema) (time.Time, bool) {
	ts, ok := timekey.ParseDate(row[s.Date])
	if !ok {
		return time.Time{}, false
	}
	if tariff.ClockOf(ts) == 0 && s.Hour != "" {
		if h, ok := timekey.HourOf(row[s.Hour]); ok {
			ts = ts.Add(time.Duration(h) * time.Hour)
		}
	}
	return ts, true
}

// Coerce converts a column to numbers. Text uses a decimal comma or point ("9,66" or "9.66");
// blank cells become nil. Any other text fails with ErrNumeric.
func Coerce(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		if table.IsNull(v) {
			continue
		}
		if f, ok := table.AsFloat(v); ok {
			out[i] = f
			continue
		}
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: row %d: unsupported value %v", ErrNumeric, i+1, v)
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(str), ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %q", ErrNumeric, i+1, str)
		}
		out[i] = f
	}
	return out, nil
}
