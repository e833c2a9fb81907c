package main

import (
	"fmt"
	"log/slog"
	"os"

	cmdfetch "ptf-calc/command/fetch"
	cmdptf "ptf-calc/command/ptf"
	cmdreconcile "ptf-calc/command/reconcile"
	cmdsplit "ptf-calc/command/split"
	cmdtariff "ptf-calc/command/tariff"
	cmdweb "ptf-calc/command/web"
)

// Electricity consumption costing toolkit.
// Usage:
//   ptf-calc reconcile -folder ./Tuketim -ptf ocak.xlsx
//   ptf-calc split -file subscribers.xlsx [-column "Abone No"] [-out ./exports]
//   ptf-calc ptf list | import -file prices.xlsx | show -name prices.xlsx
//   ptf-calc tariff show | rates -peak 2.7 | params kdv=0.2 | price -at "2024-01-01 18:30"
//   EPIAS_USERNAME=... EPIAS_PASSWORD=... ptf-calc fetch [-date 2024-01-31]
//   ptf-calc web [-addr :8080]

var commands = map[string]func([]string) error{
	"reconcile": cmdreconcile.Run,
	"split":     cmdsplit.Run,
	"ptf":       cmdptf.Run,
	"tariff":    cmdtariff.Run,
	"fetch":     cmdfetch.Run,
	"web":       cmdweb.Run,
}

func main() {
	args := os.Args
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	if len(args) > 1 {
		if run, ok := commands[args[1]]; ok {
			if err := run(append([]string{}, args[2:]...)); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: ptf-calc reconcile | split | ptf | tariff | fetch | web [flags]\n"+
		"ENV: CONFIG_PATH (default ./config.yml), SETTINGS_PATH (tariff settings file), EPIAS_USERNAME/EPIAS_PASSWORD (fetch)")
	os.Exit(2)
}
