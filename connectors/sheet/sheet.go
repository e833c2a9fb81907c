// Package sheet picks the file connector from the file extension.
package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"ptf-calc/connectors/csv"
	"ptf-calc/connectors/xlsx"
	"ptf-calc/domain/table"
)

// ErrUnsupported is returned for extensions no connector handles.
var ErrUnsupported = errors.New("unsupported file format")

// Read loads path with the connector matching its extension.
func Read(path string) (*table.Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return xlsx.Read(path)
	case ".csv":
		return csv.Read(path)
	default:
		// Legacy .xls (BIFF) workbooks included.
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

// Write stores t at path. CSV paths get CSV, everything else a workbook.
func Write(path string, t *table.Table, opts xlsx.WriteOptions) error {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return csv.Write(path, t)
	}
	return xlsx.Write(path, t, opts)
}

// Reader and Writer plug the dispatch into the batch pipeline.
type Reader struct{}

func (Reader) Read(path string) (*table.Table, error) { return Read(path) }

type Writer struct {
	Options xlsx.WriteOptions
}

// Write saves t. A legacy .xls name is written as .xlsx beside it.
func (w Writer) Write(path string, t *table.Table) error {
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		path += "x"
	}
	return Write(path, t, w.Options)
}
