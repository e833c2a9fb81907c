package cmdptf

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"ptf-calc/connectors/config"
	"ptf-calc/connectors/library"
	"ptf-calc/domain/reconcile"
	"ptf-calc/domain/table"
)

// Run executes the ptf subcommand managing the PTF library.
//
// Usage:
//
//	ptf-calc ptf list
//	ptf-calc ptf import -file <path>
//	ptf-calc ptf show -name <file> [-n 24]
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("ptf: expected list, import or show")
	}
	sub, rest := args[0], args[1:]
	fs := flag.NewFlagSet("ptf "+sub, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	switch sub {
	case "list":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		names, err := lib.List()
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	case "import":
		file := fs.String("file", "", "spreadsheet to copy into the library (required)")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *file == "" {
			return fmt.Errorf("ptf import: -file is required")
		}
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		name, err := lib.Import(*file)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %s.\n", name)
		return nil
	case "show":
		name := fs.String("name", "", "library name or path (required)")
		n := fs.Int("n", 24, "rows to print")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		t, err := lib.Load(*name)
		if err != nil {
			return err
		}
		idx, err := reconcile.NewPriceIndex(t.RenameColumns(strings.TrimSpace))
		if err != nil {
			return fmt.Errorf("PTF File Error: %w", err)
		}
		fmt.Printf("PTF Loaded. %d rows, %d distinct hours, %d duplicates, %d days\n",
			t.Len(), idx.Len(), idx.Duplicates, idx.Dates().Cardinality())
		printTable(t, *n)
		return nil
	}
	return fmt.Errorf("ptf: unknown subcommand %q", sub)
}

func openLibrary() (*library.Library, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	return library.New(env.Config.Paths.Library)
}

func printTable(t *table.Table, n int) {
	fmt.Println(strings.Join(t.Columns, "\t"))
	for i, r := range t.Rows {
		if i >= n {
			fmt.Printf("... %d more\n", t.Len()-n)
			return
		}
		cells := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			cells[j] = table.FormatValue(r[c])
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
}
