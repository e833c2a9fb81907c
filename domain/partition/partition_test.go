package partition

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptf-calc/domain/table"
)

func input() *table.Table {
	return table.New([]string{"Abone No", "Ünvan", "Tarih", "Aktif Çekiş"},
		table.Row{"Abone No": "A/1", "Ünvan": "Acme", "Tarih": "01.01.2024", "Aktif Çekiş": 10.0},
		table.Row{"Abone No": "B", "Ünvan": "Beta", "Tarih": "01.01.2024", "Aktif Çekiş": 5.0},
		table.Row{"Abone No": "A/1", "Ünvan": "Acme", "Tarih": "02.01.2024", "Aktif Çekiş": 2.5},
		table.Row{"Abone No": 42.0, "Ünvan": "Gamma", "Tarih": "01.01.2024", "Aktif Çekiş": nil},
	)
}

func TestSplit_GroupsInFirstAppearanceOrder(t *testing.T) {
	res, err := Split(input(), "Abone No")
	require.NoError(t, err)

	assert.Equal(t, []string{"A_1", "B", "42"}, res.Keys())
	g, ok := res.Get("A_1")
	require.True(t, ok)
	assert.Equal(t, "A/1", g.Value)
	assert.Equal(t, 2, g.Table.Len())
	assert.False(t, g.HasSummary)
}

func TestSplit_Summary(t *testing.T) {
	res, err := Split(input(), "Abone No", WithSummary([]string{"Ünvan"}, []string{"Tarih"}))
	require.NoError(t, err)

	g, ok := res.Get("A_1")
	require.True(t, ok)
	require.Equal(t, 3, g.Table.Len())
	summary := g.Table.Rows[2]
	assert.Equal(t, "A/1", summary["Abone No"])
	assert.Equal(t, SummaryLabel, summary["Ünvan"])
	assert.Equal(t, "", summary["Tarih"])
	assert.Equal(t, 12.5, summary["Aktif Çekiş"])
	assert.Len(t, g.Rows(), 2)

	g, ok = res.Get("42")
	require.True(t, ok)
	assert.Equal(t, 0.0, g.Table.Rows[1]["Aktif Çekiş"])
}

func TestSplit_CustomLabel(t *testing.T) {
	res, err := Split(input(), "Abone No", WithSummary([]string{"Ünvan"}, nil), WithLabel("TOTAL"))
	require.NoError(t, err)

	g, _ := res.Get("B")
	assert.Equal(t, "TOTAL", g.Table.Rows[1]["Ünvan"])
	assert.Equal(t, "01.01.2024", g.Table.Rows[0]["Tarih"])
}

func TestSplit_ConcatRoundTrip(t *testing.T) {
	in := input()
	res, err := Split(in, "Abone No", WithSummary([]string{"Ünvan"}, []string{"Tarih"}))
	require.NoError(t, err)

	out := res.Concat()
	assert.Equal(t, in.Columns, out.Columns)
	assert.ElementsMatch(t, in.Rows, out.Rows)
}

func TestSplit_Errors(t *testing.T) {
	_, err := Split(nil, "Abone No")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Split(input(), "Subscriber")
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "Missing Subscriber")
}

func TestSplit_DisjointSubsets(t *testing.T) {
	res, err := Split(input(), "Ünvan")
	require.NoError(t, err)

	total := 0
	for _, g := range res.Groups {
		for _, r := range g.Table.Rows {
			assert.Equal(t, g.Value, r["Ünvan"])
		}
		total += g.Table.Len()
	}
	assert.Equal(t, input().Len(), total)
	keys := res.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"Acme", "Beta", "Gamma"}, keys)
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeKey(`a/b\c`))
}
