package timekey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptf-calc/domain/table"
)

func TestParseDate_Formats(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"day first dots", "03.04.2024", "2024-04-03"},
		{"day first slashes with time", "03/04/2024 13:00", "2024-04-03"},
		{"single digits", "3.4.2024 7:00:00", "2024-04-03"},
		{"two digit year", "15-01-24", "2024-01-15"},
		{"iso", "2024-04-03", "2024-04-03"},
		{"iso with time", "2024-04-03 23:00:00", "2024-04-03"},
		{"rfc3339", "2024-04-03T23:00:00+03:00", "2024-04-03"},
		{"month first fallback", "01-15-24", "2024-01-15"},
		{"time value", time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC), "2023-01-01"},
		{"excel serial", 45292.5, "2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Format(DateLayout))
		})
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, in := range []any{nil, "", "not a date", "13:00", 0.5, "32.13.2024"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, "%v", in)
	}
}

func TestParseTimestamp_ClockOnly(t *testing.T) {
	ts, ok := ParseTimestamp("13:00")
	require.True(t, ok)
	assert.Equal(t, 13, ts.Hour())

	ts, ok = ParseTimestamp("07:30:00")
	require.True(t, ok)
	assert.Equal(t, 7, ts.Hour())
}

func TestNormalize_DateAndHourColumns(t *testing.T) {
	tbl := table.New([]string{"Tarih", "Saat", "PTF (TL/MWh)"},
		table.Row{"Tarih": "01.01.2024", "Saat": 0.0, "PTF (TL/MWh)": 2500.0},
		table.Row{"Tarih": "01.01.2024", "Saat": "01:00", "PTF (TL/MWh)": 2400.0},
		table.Row{"Tarih": "01.01.2024", "Saat": "2", "PTF (TL/MWh)": 2300.0},
		table.Row{"Tarih": "bad", "Saat": "garbage", "PTF (TL/MWh)": 2300.0},
	)

	n, err := Normalize(tbl, Price)
	require.NoError(t, err)

	assert.Equal(t, []Key{
		{Date: "2024-01-01", Hour: 0},
		{Date: "2024-01-01", Hour: 1},
		{Date: "2024-01-01", Hour: 2},
		{Date: "", Hour: 0},
	}, n.Keys())
	assert.Equal(t, []string{"2024-01-01"}, n.Dates())

	// Parsed zero and defaulted zero are distinguishable.
	assert.False(t, n.Rows[0].HourFallback)
	assert.Equal(t, FailureNone, n.Rows[0].HourFailure)
	assert.Equal(t, FailureNumeric, n.Rows[1].HourFailure)
	assert.False(t, n.Rows[1].HourFallback)
	assert.True(t, n.Rows[3].HourFallback)
	assert.Equal(t, FailureDateParse, n.Rows[3].DateFailure)

	assert.Equal(t, FailureDateParse, n.Failures.Dominant("Tarih"))
	assert.Equal(t, FailureNumeric, n.Failures.Dominant("Saat"))
}

func TestNormalize_MissingColumns(t *testing.T) {
	tbl := table.New([]string{"Abone No", "Consumption"}, table.Row{"Abone No": "A", "Consumption": 1.0})

	_, err := Normalize(tbl, Consumption)
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Equal(t, "Missing Columns", err.Error())
}

func TestNormalize_ExtractsHourFromDate(t *testing.T) {
	tbl := table.New([]string{"Date", "Consumption"},
		table.Row{"Date": "01.01.2023 00:00", "Consumption": 1.0},
		table.Row{"Date": "01.01.2023 13:00", "Consumption": 1.0},
	)

	n, err := Normalize(tbl, Consumption)
	require.NoError(t, err)
	assert.True(t, n.HourExtracted)
	assert.Equal(t, []Key{{"2023-01-01", 0}, {"2023-01-01", 13}}, n.Keys())
	assert.Equal(t, []string{"Date", "Consumption"}, n.Table.Columns)
}

func TestNormalize_NoExtractionForDateOnly(t *testing.T) {
	tbl := table.New([]string{"Date", "Consumption"},
		table.Row{"Date": "01.01.2023", "Consumption": 1.0},
	)

	_, err := Normalize(tbl, Consumption)
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestNormalize_NoExtractionInPriceMode(t *testing.T) {
	tbl := table.New([]string{"Date", "PTF"},
		table.Row{"Date": "01.01.2023 13:00", "PTF": 1.0},
	)

	_, err := Normalize(tbl, Price)
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestNormalize_HourOutOfRangeFallsBack(t *testing.T) {
	tbl := table.New([]string{"Tarih", "Saat"},
		table.Row{"Tarih": "01.01.2024", "Saat": 5.0},
		table.Row{"Tarih": "01.01.2024", "Saat": -3.0},
	)

	n, err := Normalize(tbl, Price)
	require.NoError(t, err)
	assert.Equal(t, 5, n.Rows[0].Key.Hour)
	assert.Equal(t, FailureHourRange, n.Rows[1].HourFailure)
	assert.Equal(t, 0, n.Rows[1].Key.Hour)
}

func TestNormalize_AllDatesInvalid(t *testing.T) {
	tbl := table.New([]string{"Tarih", "Saat"},
		table.Row{"Tarih": "x", "Saat": 1.0},
		table.Row{"Tarih": "n/a", "Saat": 2.0},
	)

	n, err := Normalize(tbl, Price)
	require.NoError(t, err)
	require.Len(t, n.Rows, 2)
	assert.False(t, n.Rows[0].Key.Valid())
	assert.Equal(t, 2, n.Rows[1].Key.Hour)
	assert.Empty(t, n.Dates())

	diag := n.Diagnose()
	require.Len(t, diag, 1)
	assert.ErrorIs(t, diag[0], ErrDate)
	assert.Contains(t, diag[0].Error(), "date-parse")
}

func TestNormalize_AllHoursInvalid(t *testing.T) {
	tbl := table.New([]string{"Tarih", "Saat"},
		table.Row{"Tarih": "01.01.2024", "Saat": "x"},
		table.Row{"Tarih": "01.01.2024", "Saat": nil},
		table.Row{"Tarih": "02.01.2024", "Saat": ""},
	)

	n, err := Normalize(tbl, Consumption)
	require.NoError(t, err)
	assert.Equal(t, []Key{{"2024-01-01", 0}, {"2024-01-01", 0}, {"2024-01-02", 0}}, n.Keys())

	diag := n.Diagnose()
	require.Len(t, diag, 1)
	assert.ErrorIs(t, diag[0], ErrTime)
}

func TestDiagnose_PartialFailures(t *testing.T) {
	tbl := table.New([]string{"Tarih", "Saat"},
		table.Row{"Tarih": "01.01.2024", "Saat": 3.0},
		table.Row{"Tarih": "x", "Saat": "y"},
	)

	n, err := Normalize(tbl, Price)
	require.NoError(t, err)
	assert.Empty(t, n.Diagnose())
}

func TestNormalize_EmptyTable(t *testing.T) {
	n, err := Normalize(table.New([]string{"Tarih", "Saat"}), Price)
	require.NoError(t, err)
	assert.Empty(t, n.Rows)
	assert.Empty(t, n.Dates())
}
