package timekey

import (
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ptf-calc/domain/table"
)

// Layouts tried for spreadsheet date cells. Day-first comes before month-first so that
// 03.04.2024 is the 3rd of April; month-first only applies when day-first is impossible.
var (
	isoLayouts = []string{
		time.RFC3339,
		"2006-1-2T15:04:05",
		"2006-1-2 15:04:05",
		"2006-1-2 15:04",
		"2006-1-2",
	}

	dayFirstLayouts   = expand([]string{"2", "1", "2006"}, []string{"2", "1", "06"})
	monthFirstLayouts = expand([]string{"1", "2", "2006"}, []string{"1", "2", "06"})
	clockLayouts      = []string{"15:04:05", "15:04"}
)

// expand builds date layouts for the "." "/" "-" separators, each with and without a time part.
func expand(orders ...[]string) []string {
	var out []string
	for _, order := range orders {
		for _, sep := range []string{".", "/", "-"} {
			date := strings.Join(order, sep)
			out = append(out, date+" 15:04:05", date+" 15:04", date)
		}
	}
	return out
}

// excelSerialMin and excelSerialMax bound the numbers accepted as Excel date serials
// (1900-01-01 .. 9999-12-31).
const (
	excelSerialMin = 1
	excelSerialMax = 2958465
)

// ParseDate interprets a cell as a calendar timestamp, day-first. Time-only text is rejected
// because it carries no date.
func ParseDate(v any) (time.Time, bool) {
	return parse(v, false)
}

// ParseTimestamp is ParseDate that also accepts time-only text such as "13:00", which is
// enough to read an hour.
func ParseTimestamp(v any) (time.Time, bool) {
	return parse(v, true)
}

func parse(v any, allowClock bool) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x, !x.IsZero()
	case string:
		return parseText(x, allowClock)
	}
	if f, ok := table.AsFloat(v); ok {
		if f < excelSerialMin || f > excelSerialMax {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, false
		}
		// Serial fractions carry float noise; round to the second.
		return t.Round(time.Second), true
	}
	return time.Time{}, false
}

func parseText(s string, allowClock bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, group := range [][]string{isoLayouts, dayFirstLayouts, monthFirstLayouts} {
		for _, layout := range group {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	if allowClock {
		for _, layout := range clockLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
