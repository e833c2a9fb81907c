// Package xlsx reads and writes tables as Excel workbooks.
package xlsx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ptf-calc/domain/table"
)

// DefaultSheet is the sheet name used for written workbooks.
const DefaultSheet = "Sheet1"

// HighlightColor fills the summary row.
const HighlightColor = "FFFF00"

var ErrNoSheet = errors.New("workbook has no sheet")

// Read loads the first sheet of the workbook at path. The first non-empty row is the header.
// Numeric cells become float64, date and time formatted cells become time.Time, blank cells nil.
func Read(path string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	styles := styleCache{f: f, dates: map[int]bool{}}
	t := &table.Table{}
	header := -1
	for i, cells := range rows {
		if header < 0 {
			if blank(cells) {
				continue
			}
			header = i
			t.Columns = headerNames(cells)
			continue
		}
		if blank(cells) {
			continue
		}
		row := table.Row{}
		for j, col := range t.Columns {
			if j >= len(cells) {
				row[col] = nil
				continue
			}
			v := table.ParseCell(cells[j])
			if n, ok := v.(float64); ok && styles.isDate(sheet, j+1, i+1) {
				if ts, err := excelize.ExcelDateToTime(n, false); err == nil {
					v = ts.Round(time.Second)
				}
			}
			row[col] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func headerNames(cells []string) []string {
	names := make([]string, len(cells))
	seen := map[string]int{}
	for i, c := range cells {
		name := c
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n := seen[name]; n > 0 {
			seen[name]++
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		names[i] = name
	}
	return names
}

// styleCache remembers which style ids carry a date or time number format.
type styleCache struct {
	f     *excelize.File
	dates map[int]bool
}

func (s styleCache) isDate(sheet string, col, row int) bool {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false
	}
	id, err := s.f.GetCellStyle(sheet, cell)
	if err != nil || id == 0 {
		return false
	}
	if d, ok := s.dates[id]; ok {
		return d
	}
	st, err := s.f.GetStyle(id)
	d := err == nil && isDateFormat(st)
	s.dates[id] = d
	return d
}

var (
	quoted    = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)
	dateToken = regexp.MustCompile(`[dmyhs]`)
)

func isDateFormat(st *excelize.Style) bool {
	if st.CustomNumFmt != nil {
		return dateToken.MatchString(quoted.ReplaceAllString(strings.ToLower(*st.CustomNumFmt), ""))
	}
	switch {
	case st.NumFmt >= 14 && st.NumFmt <= 22, st.NumFmt >= 45 && st.NumFmt <= 47:
		return true
	}
	return false
}

// WriteOptions tune Write.
type WriteOptions struct {
	Sheet string
	// HighlightLastRow fills the last data row, used for summary rows.
	HighlightLastRow bool
}

// Write saves t as a single-sheet workbook at path, creating parent directories.
func Write(path string, t *table.Table, opts WriteOptions) error {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()
	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return err
		}
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range t.Rows {
		values := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			values[j] = cellValue(r[c])
		}
		if err := f.SetSheetRow(sheet, "A"+strconv.Itoa(i+2), &values); err != nil {
			return err
		}
	}

	if opts.HighlightLastRow && len(t.Rows) > 0 && len(t.Columns) > 0 {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{HighlightColor}, Pattern: 1},
			Font: &excelize.Font{Bold: true},
		})
		if err != nil {
			return err
		}
		row := len(t.Rows) + 1
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), row)
		if err := f.SetCellStyle(sheet, first, last, style); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return x
	case string:
		return x
	}
	if f, ok := table.AsFloat(v); ok {
		return f
	}
	return table.FormatValue(v)
}
