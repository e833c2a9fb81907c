package xlsx

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ptf-calc/domain/table"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "a.xlsx")
	ts := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	in := table.New([]string{"Abone No", "Tarih", "Aktif Çekiş", "Note"},
		table.Row{"Abone No": "A-1", "Tarih": ts, "Aktif Çekiş": 12.5, "Note": nil},
		table.Row{"Abone No": "A-1", "Tarih": ts.Add(time.Hour), "Aktif Çekiş": 3.0, "Note": "x"},
	)

	require.NoError(t, Write(path, in, WriteOptions{}))
	out, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, in.Columns, out.Columns)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "A-1", out.Rows[0]["Abone No"])
	assert.Equal(t, 12.5, out.Rows[0]["Aktif Çekiş"])
	assert.Nil(t, out.Rows[0]["Note"])
	assert.Equal(t, "x", out.Rows[1]["Note"])

	got, ok := out.Rows[1]["Tarih"].(time.Time)
	require.True(t, ok, "date cell should come back as time, got %T", out.Rows[1]["Tarih"])
	assert.True(t, got.Equal(ts.Add(time.Hour)), got.String())
}

func TestWrite_HighlightLastRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sum.xlsx")
	in := table.New([]string{"Ünvan", "Tutar"},
		table.Row{"Ünvan": "Acme", "Tutar": 1.0},
		table.Row{"Ünvan": "TOPLAM", "Tutar": 1.0},
	)
	require.NoError(t, Write(path, in, WriteOptions{HighlightLastRow: true, Sheet: "Data"}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Data"}, f.GetSheetList())
	plain, err := f.GetCellStyle("Data", "A2")
	require.NoError(t, err)
	assert.Zero(t, plain)
	for _, cell := range []string{"A3", "B3"} {
		id, err := f.GetCellStyle("Data", cell)
		require.NoError(t, err)
		assert.NotZero(t, id, cell)
	}
}

func TestRead_SkipsLeadingBlankRowsAndNamesEmptyHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Tarih", "", "Tarih"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"01.01.2024", 5, "x"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	out, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tarih", "Unnamed: 1", "Tarih.1"}, out.Columns)
	assert.Equal(t, "01.01.2024", out.Rows[0]["Tarih"])
	assert.Equal(t, 5.0, out.Rows[0]["Unnamed: 1"])
}

func TestIsDateFormat(t *testing.T) {
	custom := func(s string) *excelize.Style { return &excelize.Style{CustomNumFmt: &s} }

	assert.True(t, isDateFormat(&excelize.Style{NumFmt: 14}))
	assert.True(t, isDateFormat(&excelize.Style{NumFmt: 22}))
	assert.False(t, isDateFormat(&excelize.Style{NumFmt: 2}))
	assert.True(t, isDateFormat(custom("dd.mm.yyyy")))
	assert.True(t, isDateFormat(custom("[$-41F]hh:mm")))
	assert.False(t, isDateFormat(custom(`#,##0.00 "TL"`)))
	assert.False(t, isDateFormat(custom("[Red]0.00")))
}
