package cmdsplit

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ptf-calc/connectors/config"
	"ptf-calc/connectors/sheet"
	"ptf-calc/connectors/xlsx"
	"ptf-calc/domain/costing"
	"ptf-calc/domain/partition"
	"ptf-calc/domain/schema"
)

// Run executes the split subcommand: one workbook per subscriber.
//
// Usage:
//
//	ptf-calc split -file consumption.xlsx [-out ./exports] [-column "Abone No"] [-summary=false] [-cost=false]
func Run(args []string) error {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("file", "", "consumption spreadsheet to split (required)")
	out := fs.String("out", "", "base output directory (default paths.output)")
	column := fs.String("column", "", "partition column (default split.column)")
	summary := fs.Bool("summary", true, "append a highlighted summary row per file (default split.summary)")
	cost := fs.Bool("cost", true, "add cost columns before splitting (default split.cost)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		slog.Error("split.validation.error", "reason", "missing -file")
		return fmt.Errorf("split: -file is required")
	}

	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	c := env.Config
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			c.Paths.Output = *out
		case "column":
			c.Split.Column = *column
		case "summary":
			c.Split.Summary = *summary
		case "cost":
			c.Split.Cost = *cost
		}
	})

	res, err := Export(env, *file, c.Paths.Output)
	if err != nil {
		return err
	}
	fmt.Printf("Split %d files into %s\n", res.Files, res.Dir)
	return nil
}

// Result describes one export.
type Result struct {
	Files int      `json:"files"`
	Dir   string   `json:"dir"`
	Keys  []string `json:"keys"`
}

// Export splits the file at path by the configured column and writes
// <out>/<source name>/<split folder>/<key>.xlsx for every group.
func Export(env *config.Env, path, out string) (Result, error) {
	c := env.Config
	t, err := sheet.Read(path)
	if err != nil {
		return Result{}, err
	}
	t = t.RenameColumns(strings.TrimSpace)
	slog.Info("split.start", "file", path, "rows", t.Len(), "column", c.Split.Column)

	if c.Split.Cost {
		sched, err := env.Schedule()
		if err != nil {
			return Result{}, err
		}
		if t, err = costing.Apply(t, sched); err != nil {
			return Result{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	t = t.Drop(schema.ColumnsToDrop(t.Columns)...)

	var opts []partition.Option
	if c.Split.Summary {
		opts = append(opts, partition.WithSummary(c.Split.LabelColumns, c.Split.ClearColumns), partition.WithLabel(c.Split.Label))
	}
	groups, err := partition.Split(t, c.Split.Column, opts...)
	if err != nil {
		return Result{}, err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir := filepath.Join(out, stem, c.Split.Folder)
	for _, g := range groups.Groups {
		target := filepath.Join(dir, g.Key+".xlsx")
		if err := xlsx.Write(target, g.Table, xlsx.WriteOptions{HighlightLastRow: g.HasSummary}); err != nil {
			return Result{}, fmt.Errorf("write %s: %w", target, err)
		}
	}
	slog.Info("split.done", "files", len(groups.Groups), "dir", dir)
	return Result{Files: len(groups.Groups), Dir: dir, Keys: groups.Keys()}, nil
}
