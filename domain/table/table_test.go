package table

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Table {
	return New([]string{"a", "b"},
		Row{"a": "x", "b": 1.0},
		Row{"a": "y", "b": 2.0},
	)
}

func TestWithColumn_DoesNotMutate(t *testing.T) {
	in := sample()
	out := in.WithColumn("c", []any{true})

	assert.Equal(t, []string{"a", "b"}, in.Columns)
	assert.NotContains(t, in.Rows[0], "c")
	assert.Equal(t, []string{"a", "b", "c"}, out.Columns)
	assert.Equal(t, true, out.Rows[0]["c"])
	assert.Nil(t, out.Rows[1]["c"])

	replaced := in.WithColumn("b", []any{9.0, 8.0})
	assert.Equal(t, []string{"a", "b"}, replaced.Columns)
	assert.Equal(t, []any{9.0, 8.0}, replaced.Column("b"))
	assert.Equal(t, []any{1.0, 2.0}, in.Column("b"))
}

func TestDropFilterAppend(t *testing.T) {
	in := sample()

	d := in.Drop("b", "missing")
	assert.Equal(t, []string{"a"}, d.Columns)
	assert.NotContains(t, d.Rows[0], "b")

	f := in.Filter(func(r Row) bool { return r["a"] == "y" })
	require.Equal(t, 1, f.Len())
	assert.Equal(t, 2.0, f.Rows[0]["b"])

	a := in.Append(Row{"a": "z"})
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 2, in.Len())
}

func TestConcat_UnionColumns(t *testing.T) {
	out := Concat(sample(), nil, New([]string{"b", "c"}, Row{"b": 3.0, "c": "k"}))

	assert.Equal(t, []string{"a", "b", "c"}, out.Columns)
	assert.Equal(t, 3, out.Len())
	assert.Nil(t, out.Rows[2]["a"])
}

func TestRenameColumns(t *testing.T) {
	out := sample().RenameColumns(func(s string) string { return s + "!" })

	assert.Equal(t, []string{"a!", "b!"}, out.Columns)
	assert.Equal(t, "x", out.Rows[0]["a!"])
}

func TestNilTable(t *testing.T) {
	var tbl *Table
	assert.Equal(t, 0, tbl.Len())
	assert.True(t, tbl.Empty())
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull("  "))
	assert.True(t, IsNull(math.NaN()))
	assert.False(t, IsNull(0.0))
	assert.False(t, IsNull("0"))
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"Abone", "Abone"},
		{1001.0, "1001"},
		{3, "3"},
		{2.5, "2.5"},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "2024-01-02"},
		{time.Date(2024, 1, 2, 13, 0, 0, 0, time.UTC), "2024-01-02 13:00:00"},
		{true, ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatValue(c.in), "%v", c.in)
	}
}

func TestParseCell(t *testing.T) {
	assert.Nil(t, ParseCell(" "))
	assert.Equal(t, 12.5, ParseCell(" 12.5 "))
	assert.Equal(t, "9,66", ParseCell("9,66"))
	assert.Equal(t, "01.01.2024", ParseCell("01.01.2024"))
	assert.Equal(t, "NaN", ParseCell("NaN"))
}
