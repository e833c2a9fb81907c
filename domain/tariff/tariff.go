// Package tariff models the time-of-use fallback rate table used when no market price matches a
// consumption row.
package tariff

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Band names one of the three rate bands.
type Band string

const (
	BandDay   Band = "day"
	BandPeak  Band = "peak"
	BandNight Band = "night"
)

// Rates are TL/kWh per band.
type Rates struct {
	Day   float64 `yaml:"day" json:"day"`
	Peak  float64 `yaml:"peak" json:"peak"`
	Night float64 `yaml:"night" json:"night"`
}

// DefaultRates are the built-in Turkish tariff example values.
func DefaultRates() Rates {
	return Rates{Day: 1.50, Peak: 2.50, Night: 0.80}
}

// Of returns the rate of band b.
func (r Rates) Of(b Band) float64 {
	switch b {
	case BandPeak:
		return r.Peak
	case BandDay:
		return r.Day
	}
	return r.Night
}

// Clock is a time of day in minutes after midnight.
type Clock int

const minutesPerDay = 24 * 60

// ParseClock reads "HH:MM". "24:00" is accepted as the end of the day.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	c := Clock(h*60 + m)
	if h < 0 || m < 0 || m > 59 || c > minutesPerDay {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	return c, nil
}

// ClockOf returns the time of day of t.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Window is a half-open [Start, End) interval inside one day.
type Window struct {
	Start Clock
	End   Clock
}

// ParseWindow reads "HH:MM-HH:MM".
func ParseWindow(s string) (Window, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return Window{}, fmt.Errorf("invalid window %q", s)
	}
	start, err := ParseClock(from)
	if err != nil {
		return Window{}, err
	}
	end, err := ParseClock(to)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: start, End: end}, nil
}

// Contains reports whether c falls in the window.
func (w Window) Contains(c Clock) bool {
	return w.Start <= c && c < w.End
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

func (w Window) overlaps(o Window) bool {
	return w.Start < o.End && o.Start < w.End
}

// Schedule is the rate table. Night is everything outside the day and peak windows.
type Schedule struct {
	Rates Rates
	Day   Window
	Peak  Window
}

// DefaultSchedule is day 06:00-17:00, peak 17:00-22:00, night otherwise.
func DefaultSchedule() Schedule {
	return Schedule{
		Rates: DefaultRates(),
		Day:   Window{Start: 6 * 60, End: 17 * 60},
		Peak:  Window{Start: 17 * 60, End: 22 * 60},
	}
}

var ErrInvalidSchedule = errors.New("invalid tariff schedule")

// Validate checks that both windows lie within one day and do not overlap.
func (s Schedule) Validate() error {
	for name, w := range map[Band]Window{BandDay: s.Day, BandPeak: s.Peak} {
		if w.Start < 0 || w.End > minutesPerDay || w.Start >= w.End {
			return fmt.Errorf("%w: %s window %s", ErrInvalidSchedule, name, w)
		}
	}
	if s.Day.overlaps(s.Peak) {
		return fmt.Errorf("%w: day %s overlaps peak %s", ErrInvalidSchedule, s.Day, s.Peak)
	}
	return nil
}

// BandAt returns the band for the time of day of t. Peak is checked before day.
func (s Schedule) BandAt(t time.Time) Band {
	return s.bandAtClock(ClockOf(t))
}

func (s Schedule) bandAtClock(c Clock) Band {
	if s.Peak.Contains(c) {
		return BandPeak
	}
	if s.Day.Contains(c) {
		return BandDay
	}
	return BandNight
}

// RateAt returns the TL/kWh rate in force at t.
func (s Schedule) RateAt(t time.Time) float64 {
	return s.Rates.Of(s.BandAt(t))
}

// HourBands assigns each hour index 0..23 to the band in force at the start of that hour.
func (s Schedule) HourBands() map[Band][]int {
	out := map[Band][]int{}
	for h := 0; h < 24; h++ {
		b := s.bandAtClock(Clock(h * 60))
		out[b] = append(out[b], h)
	}
	return out
}

// DeriveRates averages 24 hourly market prices (index 0 is 00:00 local time) into the three
// bands of s, each rounded half to even to 2 decimal places.
func (s Schedule) DeriveRates(prices []float64) (Rates, error) {
	if len(prices) != 24 {
		return Rates{}, fmt.Errorf("Expected 24 hours of data, got %d", len(prices))
	}
	bands := s.HourBands()
	avg := func(b Band) float64 {
		idx := bands[b]
		if len(idx) == 0 {
			return 0
		}
		sum := decimal.Zero
		for _, i := range idx {
			sum = sum.Add(decimal.NewFromFloat(prices[i]))
		}
		return sum.Div(decimal.NewFromInt(int64(len(idx)))).RoundBank(2).InexactFloat64()
	}
	return Rates{Day: avg(BandDay), Peak: avg(BandPeak), Night: avg(BandNight)}, nil
}

// Params are the detailed cost parameters. They are persisted with the rates and are not used
// by the costing engine.
type Params struct {
	YekdemTahmini    float64 `yaml:"yekdem_tahmini" json:"yekdem_tahmini"`
	IlaveKatsayi     float64 `yaml:"ilave_katsayi" json:"ilave_katsayi"`
	DengesizlikOrani float64 `yaml:"dengesizlik_orani" json:"dengesizlik_orani"`
	DagitimBedeli    float64 `yaml:"dagitim_bedeli" json:"dagitim_bedeli"`
	BTV              float64 `yaml:"btv" json:"btv"`
	TRT              float64 `yaml:"trt" json:"trt"`
	EnerjiFonu       float64 `yaml:"enerji_fonu" json:"enerji_fonu"`
	KDV              float64 `yaml:"kdv" json:"kdv"`
	ProfilMaliye     float64 `yaml:"profil_maliye" json:"profil_maliye"`
}

// DefaultParams returns the built-in parameter values.
func DefaultParams() Params {
	return Params{
		YekdemTahmini:    284.87,
		IlaveKatsayi:     0.019,
		DengesizlikOrani: 0.0,
		DagitimBedeli:    0.895372,
		BTV:              0.01,
		TRT:              0.00,
		EnerjiFonu:       0.00,
		KDV:              0.20,
		ProfilMaliye:     3.35269,
	}
}

// ParamNames lists the persisted parameter keys in display order.
var ParamNames = []string{
	"yekdem_tahmini", "ilave_katsayi", "dengesizlik_orani", "dagitim_bedeli",
	"btv", "trt", "enerji_fonu", "kdv", "profil_maliye",
}

// Set updates the parameter called name. Unknown names are reported and ignored by callers.
func (p *Params) Set(name string, v float64) bool {
	switch name {
	case "yekdem_tahmini":
		p.YekdemTahmini = v
	case "ilave_katsayi":
		p.IlaveKatsayi = v
	case "dengesizlik_orani":
		p.DengesizlikOrani = v
	case "dagitim_bedeli":
		p.DagitimBedeli = v
	case "btv":
		p.BTV = v
	case "trt":
		p.TRT = v
	case "enerji_fonu":
		p.EnerjiFonu = v
	case "kdv":
		p.KDV = v
	case "profil_maliye":
		p.ProfilMaliye = v
	default:
		return false
	}
	return true
}
