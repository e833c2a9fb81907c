// Package batch reconciles every consumption file of a folder against one price table and writes
// the costed copies next to the folder.
package batch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lo "github.com/samber/lo"

	"ptf-calc/domain/costing"
	"ptf-calc/domain/reconcile"
	"ptf-calc/domain/schema"
	"ptf-calc/domain/table"
	"ptf-calc/domain/tariff"
)

// OutputDirName is the directory created beside the input folder.
const OutputDirName = "PtfHesaplama"

// Extensions lists the file types picked up in a folder.
var Extensions = []string{".xlsx", ".xls", ".csv"}

// Reader loads one file into a table.
type Reader interface {
	Read(path string) (*table.Table, error)
}

// Writer stores a table at path.
type Writer interface {
	Write(path string, t *table.Table) error
}

// Observer is told what happened to each file.
type Observer interface {
	FileProcessed(name string, rows int)
	FileSkipped(name string, reason string)
	FileFailed(name string, err error)
}

type nopObserver struct{}

func (nopObserver) FileProcessed(string, int) {}

func (nopObserver) FileSkipped(string, string) {}

func (nopObserver) FileFailed(string, error) {}

// Processor runs the folder pipeline. Files are handled one after the other.
type Processor struct {
	Reader   Reader
	Writer   Writer
	Schedule tariff.Schedule
	Observer Observer
	// OutputDirName overrides the default output directory name.
	OutputDirName string
}

// Outcome summarizes one ProcessFolder call.
type Outcome struct {
	OK        bool     `json:"ok"`
	Message   string   `json:"message"`
	Processed int      `json:"processed"`
	Skipped   []string `json:"skipped,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	OutputDir string   `json:"output_dir,omitempty"`
}

// ProcessFolder reconciles and costs each spreadsheet in folder and writes the results to the
// sibling output directory. Per-file problems are collected, never fatal.
func (p *Processor) ProcessFolder(folder string, prices *table.Table) Outcome {
	obs := p.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	fi, err := os.Stat(folder)
	if err != nil || !fi.IsDir() || prices == nil {
		return Outcome{Message: "Folder not found or PTF file not loaded."}
	}

	name := p.OutputDirName
	if name == "" {
		name = OutputDirName
	}
	outDir := filepath.Join(filepath.Dir(filepath.Clean(folder)), name)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Outcome{Message: fmt.Sprintf("Output Error: %v", err)}
	}

	idx, err := reconcile.NewPriceIndex(trimHeaders(prices))
	if err != nil {
		return Outcome{Message: fmt.Sprintf("PTF File Error: %v", err), OutputDir: outDir}
	}
	if idx.Duplicates > 0 {
		slog.Info("batch.ptf.duplicates", "dropped", idx.Duplicates)
	}

	files, err := ListInputs(folder)
	if err != nil {
		return Outcome{Message: "Folder not found or PTF file not loaded."}
	}

	out := Outcome{OutputDir: outDir}
	slog.Info("batch.start", "folder", folder, "files", len(files), "out", outDir)
	for _, f := range files {
		rows, err := p.processFile(idx, filepath.Join(folder, f), filepath.Join(outDir, f))
		switch {
		case errors.Is(err, reconcile.ErrNoOverlap):
			slog.Warn("batch.file.skip", "file", f, "reason", err)
			out.Skipped = append(out.Skipped, f)
			obs.FileSkipped(f, err.Error())
		case err != nil:
			slog.Error("batch.file.error", "file", f, "err", err)
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", f, err))
			obs.FileFailed(f, err)
		default:
			slog.Info("batch.file.done", "file", f, "rows", rows)
			out.Processed++
			obs.FileProcessed(f, rows)
		}
	}

	switch {
	case out.Processed == 0 && len(out.Errors) > 0:
		out.Message = "Errors: " + strings.Join(lo.Slice(out.Errors, 0, 2), "; ")
	case out.Processed == 0:
		out.Message = "No Matching Dates found."
	default:
		out.OK = true
		out.Message = fmt.Sprintf("Success! Processed %d files.", out.Processed)
	}
	slog.Info("batch.done", "processed", out.Processed, "skipped", len(out.Skipped), "errors", len(out.Errors))
	return out
}

func (p *Processor) processFile(idx *reconcile.PriceIndex, src, dst string) (int, error) {
	t, err := p.Reader.Read(src)
	if err != nil {
		return 0, err
	}
	joined, err := idx.Reconcile(trimHeaders(t))
	if err != nil {
		return 0, err
	}
	costed, err := costing.Apply(joined, p.Schedule)
	if err != nil {
		return 0, err
	}
	final := costed.Drop(schema.ColumnsToDrop(costed.Columns)...)
	if err := p.Writer.Write(dst, final); err != nil {
		return 0, err
	}
	return final.Len(), nil
}

// ListInputs returns the spreadsheet files of dir in name order. Office lock files are ignored.
func ListInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, "~$") {
			continue
		}
		if lo.Contains(Extensions, strings.ToLower(filepath.Ext(n))) {
			files = append(files, n)
		}
	}
	sort.Strings(files)
	return files, nil
}

func trimHeaders(t *table.Table) *table.Table {
	return t.RenameColumns(strings.TrimSpace)
}
