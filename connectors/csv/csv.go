package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ptf-calc/domain/table"
)

// Read loads a CSV file into a table. The delimiter is sniffed from the header line
// (semicolon exports are common for Turkish locales). A UTF-8 BOM is ignored.
func Read(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads CSV records from r. Values go through table.ParseCell.
func Decode(r io.Reader) (*table.Table, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	first, _ := br.Peek(4096)

	cr := csv.NewReader(br)
	cr.Comma = sniff(first)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return &table.Table{}, nil
	}

	t := &table.Table{Columns: records[0]}
	for _, rec := range records[1:] {
		if len(rec) == 0 || (len(rec) == 1 && rec[0] == "") {
			continue
		}
		row := make(table.Row, len(t.Columns))
		for j, col := range t.Columns {
			if j < len(rec) {
				row[col] = table.ParseCell(rec[j])
			} else {
				row[col] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func sniff(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, count := ',', bytes.Count(head, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(head, []byte(string(d))); n > count {
			best, count = d, n
		}
	}
	return best
}

// Write stores t as a comma separated file at path.
func Write(path string, t *table.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write(t.Columns); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			rec[j] = table.FormatValue(r[c])
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Records renders t as header-keyed string maps, the shape served by the web API.
func Records(t *table.Table) []map[string]string {
	res := make([]map[string]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		obj := make(map[string]string, len(t.Columns))
		for _, c := range t.Columns {
			obj[c] = table.FormatValue(r[c])
		}
		res = append(res, obj)
	}
	return res
}
