package cmdfetch

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ptf-calc/connectors/config"
	"ptf-calc/connectors/epias"
	"ptf-calc/connectors/library"
	dconfig "ptf-calc/domain/config"
	"ptf-calc/domain/table"
	"ptf-calc/domain/tariff"
)

// PriceSource returns the 24 hourly prices of one day.
type PriceSource interface {
	DayAheadPrices(ctx context.Context, day time.Time) ([]float64, error)
}

// Run executes the fetch subcommand: download one day of PTF prices from EPİAŞ, average them
// into day/peak/night rates and persist them.
//
// Usage:
//
//	EPIAS_USERNAME=... EPIAS_PASSWORD=... ptf-calc fetch [-date 2024-01-31] [-save] [-kwh] [-dry-run]
func Run(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	date := fs.String("date", "", "day to fetch, YYYY-MM-DD (default today)")
	save := fs.Bool("save", false, "also store the hourly prices in the PTF library")
	kwh := fs.Bool("kwh", false, "convert TL/MWh averages to TL/kWh before storing")
	dryRun := fs.Bool("dry-run", false, "print the derived rates without saving them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(env.Config.EPIAS.Timezone)
	if err != nil {
		loc = time.FixedZone("TRT", 3*60*60)
	}
	day := time.Now().In(loc)
	if *date != "" {
		if day, err = time.ParseInLocation("2006-01-02", *date, loc); err != nil {
			return fmt.Errorf("fetch: invalid -date: %w", err)
		}
	}

	user, pass := os.Getenv("EPIAS_USERNAME"), os.Getenv("EPIAS_PASSWORD")
	client, err := epias.New(user, pass, epias.Options{
		AuthURL:    env.Config.EPIAS.AuthURL,
		ServiceURL: env.Config.EPIAS.ServiceURL,
		Location:   loc,
	})
	if err != nil {
		slog.Error("fetch.validation.error", "reason", err)
		return err
	}

	res, err := Fetch(context.Background(), client, env, day, Options{Save: *save, PerKWh: *kwh, DryRun: *dryRun})
	if err != nil {
		return err
	}
	fmt.Printf("day=%.2f peak=%.2f night=%.2f\n", res.Rates.Day, res.Rates.Peak, res.Rates.Night)
	if res.Saved != "" {
		fmt.Printf("Saved %s\n", res.Saved)
	}
	return nil
}

// Options control Fetch.
type Options struct {
	Save   bool
	PerKWh bool
	DryRun bool
}

// Result is what Fetch derived and stored.
type Result struct {
	Prices []float64    `json:"prices"`
	Rates  tariff.Rates `json:"rates"`
	Saved  string       `json:"saved,omitempty"`
}

// Fetch loads the prices of day, derives the band rates with the configured windows and stores
// them in the settings file unless DryRun is set.
func Fetch(ctx context.Context, src PriceSource, env *config.Env, day time.Time, o Options) (Result, error) {
	slog.Info("fetch.start", "date", day.Format("2006-01-02"))
	prices, err := src.DayAheadPrices(ctx, day)
	if err != nil {
		slog.Error("fetch.error", "err", err)
		return Result{}, err
	}
	sched, err := env.Schedule()
	if err != nil {
		return Result{}, err
	}
	rates, err := sched.DeriveRates(prices)
	if err != nil {
		return Result{}, err
	}
	if o.PerKWh {
		rates = tariff.Rates{Day: rates.Day / 1000, Peak: rates.Peak / 1000, Night: rates.Night / 1000}
	}
	res := Result{Prices: prices, Rates: rates}

	if o.Save {
		lib, err := library.New(env.Config.Paths.Library)
		if err != nil {
			return res, err
		}
		if res.Saved, err = lib.Save("PTF_"+day.Format("2006-01-02")+".xlsx", priceTable(day, prices)); err != nil {
			return res, err
		}
	}
	if o.DryRun {
		return res, nil
	}
	if env.Settings, err = config.UpdateRates(env.SettingsPath, dconfig.FromRates(rates)); err != nil {
		return res, err
	}
	slog.Info("fetch.done", "day", rates.Day, "peak", rates.Peak, "night", rates.Night)
	return res, nil
}

func priceTable(day time.Time, prices []float64) *table.Table {
	t := table.New([]string{"Tarih", "Saat", "PTF (TL/MWh)"})
	for h, p := range prices {
		t.Rows = append(t.Rows, table.Row{
			"Tarih":        day.Format("02.01.2006"),
			"Saat":         fmt.Sprintf("%02d:00", h),
			"PTF (TL/MWh)": p,
		})
	}
	return t
}
