package cmdtariff

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ptf-calc/connectors/config"
	dconfig "ptf-calc/domain/config"
	"ptf-calc/domain/tariff"
	"ptf-calc/domain/timekey"
)

// Run executes the tariff subcommand.
//
// Usage:
//
//	ptf-calc tariff show
//	ptf-calc tariff rates [-day 1.5] [-peak 2.5] [-night 0.8]
//	ptf-calc tariff params key=value [key=value ...]
//	ptf-calc tariff price -at "2024-01-01 18:30"
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("tariff: expected show, rates, params or price")
	}
	sub, rest := args[0], args[1:]
	fs := flag.NewFlagSet("tariff "+sub, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	switch sub {
	case "show":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		env, err := config.LoadEnv()
		if err != nil {
			return err
		}
		sched, err := env.Schedule()
		if err != nil {
			return err
		}
		printSettings(env.Settings, sched)
		return nil
	case "rates":
		var u dconfig.RateUpdate
		fs.Func("day", "day rate (TL/kWh)", floatFlag(&u.Day))
		fs.Func("peak", "peak rate (TL/kWh)", floatFlag(&u.Peak))
		fs.Func("night", "night rate (TL/kWh)", floatFlag(&u.Night))
		if err := fs.Parse(rest); err != nil {
			return err
		}
		env, err := config.LoadEnv()
		if err != nil {
			return err
		}
		s, err := config.UpdateRates(env.SettingsPath, u)
		if err != nil {
			return err
		}
		fmt.Printf("day=%.2f peak=%.2f night=%.2f\n", s.Rates.Day, s.Rates.Peak, s.Rates.Night)
		return nil
	case "params":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		values, err := parseAssignments(fs.Args())
		if err != nil {
			return err
		}
		env, err := config.LoadEnv()
		if err != nil {
			return err
		}
		_, unknown, err := config.UpdateParams(env.SettingsPath, values)
		if err != nil {
			return err
		}
		if len(unknown) > 0 {
			fmt.Fprintf(os.Stderr, "ignored unknown parameters: %s\n", strings.Join(unknown, ", "))
		}
		return nil
	case "price":
		at := fs.String("at", "", "timestamp, e.g. \"2024-01-01 18:30\" (required)")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		ts, ok := timekey.ParseTimestamp(*at)
		if !ok {
			return fmt.Errorf("tariff price: cannot parse -at %q", *at)
		}
		env, err := config.LoadEnv()
		if err != nil {
			return err
		}
		sched, err := env.Schedule()
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %.2f\n", ts.Format("2006-01-02 15:04"), sched.BandAt(ts), sched.RateAt(ts))
		return nil
	}
	return fmt.Errorf("tariff: unknown subcommand %q", sub)
}

func floatFlag(dst **float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}
}

func parseAssignments(args []string) (map[string]float64, error) {
	values := map[string]float64{}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", a)
		}
		f, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(v), ",", ".", 1), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		values[strings.TrimSpace(k)] = f
	}
	return values, nil
}

func printSettings(s dconfig.Settings, sched tariff.Schedule) {
	fmt.Printf("day   %s  %.2f\n", sched.Day, s.Rates.Day)
	fmt.Printf("peak  %s  %.2f\n", sched.Peak, s.Rates.Peak)
	fmt.Printf("night otherwise     %.2f\n", s.Rates.Night)
	p := s.Params
	for _, kv := range []struct {
		name string
		v    float64
	}{
		{"yekdem_tahmini", p.YekdemTahmini},
		{"ilave_katsayi", p.IlaveKatsayi},
		{"dengesizlik_orani", p.DengesizlikOrani},
		{"dagitim_bedeli", p.DagitimBedeli},
		{"btv", p.BTV},
		{"trt", p.TRT},
		{"enerji_fonu", p.EnerjiFonu},
		{"kdv", p.KDV},
		{"profil_maliye", p.ProfilMaliye},
	} {
		fmt.Printf("%-18s %g\n", kv.name, kv.v)
	}
}
