// Package reconcile joins consumption tables against a market price table on the canonical
// (date, hour) key.
package reconcile

import (
	"errors"
	"fmt"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"

	"ptf-calc/domain/schema"
	"ptf-calc/domain/table"
	"ptf-calc/domain/timekey"
)

// ErrNoOverlap means the consumption dates and the price dates are disjoint. It is a skip, not a
// failure: batches routinely contain files outside the loaded price range.
var ErrNoOverlap = errors.New("no overlapping dates")

// PriceIndex is a deduplicated price table: at most one price per key.
type PriceIndex struct {
	Column string
	prices map[timekey.Key]any
	dates  mapset.Set[string]
	// Duplicates counts price rows dropped because their key was already present.
	Duplicates int
}

// NewPriceIndex normalizes a price table and keeps the first row per key.
func NewPriceIndex(prices *table.Table) (*PriceIndex, error) {
	n, err := timekey.Normalize(prices, timekey.Price)
	if err != nil {
		return nil, err
	}
	warn("reconcile.ptf.keys", n)
	col := schema.Resolve(prices.Columns).Price
	if col == "" {
		return nil, fmt.Errorf("%w: no price column", timekey.ErrMissingColumns)
	}

	idx := &PriceIndex{
		Column: col,
		prices: map[timekey.Key]any{},
		dates:  mapset.NewThreadUnsafeSet[string](),
	}
	for i, res := range n.Rows {
		if !res.Key.Valid() {
			continue
		}
		if _, seen := idx.prices[res.Key]; seen {
			idx.Duplicates++
			continue
		}
		idx.prices[res.Key] = prices.Rows[i][col]
		idx.dates.Add(res.Key.Date)
	}
	return idx, nil
}

// Len returns the number of distinct keys.
func (p *PriceIndex) Len() int { return len(p.prices) }

// Keys returns the distinct keys in no particular order.
func (p *PriceIndex) Keys() []timekey.Key {
	keys := make([]timekey.Key, 0, len(p.prices))
	for k := range p.prices {
		keys = append(keys, k)
	}
	return keys
}

// Dates returns the set of dates covered by the price table.
func (p *PriceIndex) Dates() mapset.Set[string] { return p.dates.Clone() }

// Lookup returns the price for k.
func (p *PriceIndex) Lookup(k timekey.Key) (any, bool) {
	v, ok := p.prices[k]
	return v, ok
}

// Reconcile left-joins consumption against the index. Every consumption row is kept, duplicates
// included; rows without a matching key get a nil price. The result carries no key columns.
func (p *PriceIndex) Reconcile(consumption *table.Table) (*table.Table, error) {
	n, err := timekey.Normalize(consumption, timekey.Consumption)
	if err != nil {
		return nil, err
	}
	warn("reconcile.file.keys", n)
	fileDates := mapset.NewThreadUnsafeSet[string](n.Dates()...)
	if fileDates.Intersect(p.dates).Cardinality() == 0 {
		sample := "Unknown"
		if d := n.Dates(); len(d) > 0 {
			sample = d[0]
		}
		return nil, fmt.Errorf("%w: file dates start %s", ErrNoOverlap, sample)
	}

	values := make([]any, len(n.Rows))
	for i, res := range n.Rows {
		if !res.Key.Valid() {
			continue
		}
		if v, ok := p.prices[res.Key]; ok {
			values[i] = v
		}
	}
	return consumption.WithColumn(p.Column, values), nil
}

// Reconcile is the one-shot form of NewPriceIndex followed by PriceIndex.Reconcile.
func Reconcile(consumption, prices *table.Table) (*table.Table, error) {
	idx, err := NewPriceIndex(prices)
	if err != nil {
		return nil, err
	}
	return idx.Reconcile(consumption)
}

func warn(event string, n *timekey.Normalized) {
	for _, err := range n.Diagnose() {
		slog.Warn(event, "reason", err)
	}
}
