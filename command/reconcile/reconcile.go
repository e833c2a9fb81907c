package cmdreconcile

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"ptf-calc/connectors/config"
	"ptf-calc/connectors/library"
	"ptf-calc/connectors/sheet"
	"ptf-calc/domain/batch"
)

// Run executes the reconcile subcommand: every spreadsheet of -folder is joined with the PTF
// file and written with cost columns to the sibling output directory.
func Run(args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	folder := fs.String("folder", "", "folder with consumption spreadsheets (required)")
	ptf := fs.String("ptf", "", "PTF file: library name or path (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *folder == "" || *ptf == "" {
		slog.Error("reconcile.validation.error", "reason", "missing -folder or -ptf")
		return fmt.Errorf("reconcile: -folder and -ptf are required")
	}

	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	out, err := Execute(env, *folder, *ptf, nil)
	if err != nil {
		return err
	}
	fmt.Println(out.Message)
	if !out.OK {
		return errors.New(out.Message)
	}
	fmt.Printf("Output: %s\n", out.OutputDir)
	return nil
}

// Execute loads the PTF file from the library and runs the folder pipeline.
func Execute(env *config.Env, folder, ptf string, obs batch.Observer) (batch.Outcome, error) {
	sched, err := env.Schedule()
	if err != nil {
		return batch.Outcome{}, err
	}
	lib := &library.Library{Dir: env.Config.Paths.Library}
	prices, err := lib.Load(ptf)
	if err != nil {
		slog.Error("reconcile.ptf.error", "ptf", ptf, "err", err)
		prices = nil
	}

	slog.Info("reconcile.start", "folder", folder, "ptf", ptf)
	p := &batch.Processor{
		Reader:        sheet.Reader{},
		Writer:        sheet.Writer{},
		Schedule:      sched,
		Observer:      obs,
		OutputDirName: env.Config.Batch.OutputDir,
	}
	return p.ProcessFolder(folder, prices), nil
}
