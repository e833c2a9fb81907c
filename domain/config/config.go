package config

import (
	"fmt"

	"ptf-calc/domain/tariff"
)

// Config represents the structure of config.yml used by the tool.
// Every field has a default; see Default.
type Config struct {
	Paths struct {
		// Library is the PTF library directory.
		Library string `yaml:"library"`
		// Output receives split exports.
		Output string `yaml:"output"`
		// Settings is the persisted rates/params file. SETTINGS_PATH overrides it.
		Settings string `yaml:"settings"`
	} `yaml:"paths"`
	Batch struct {
		OutputDir string `yaml:"output_dir"`
	} `yaml:"batch"`
	Split struct {
		Column       string   `yaml:"column"`
		Folder       string   `yaml:"folder"`
		Summary      bool     `yaml:"summary"`
		Cost         bool     `yaml:"cost"`
		Label        string   `yaml:"label"`
		LabelColumns []string `yaml:"label_columns"`
		ClearColumns []string `yaml:"clear_columns"`
	} `yaml:"split"`
	Tariff struct {
		Day  string `yaml:"day"`
		Peak string `yaml:"peak"`
	} `yaml:"tariff"`
	EPIAS struct {
		AuthURL    string `yaml:"auth_url"`
		ServiceURL string `yaml:"service_url"`
		Timezone   string `yaml:"timezone"`
	} `yaml:"epias"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var c Config
	c.Paths.Library = "PTF_Files"
	c.Paths.Output = "."
	c.Paths.Settings = "tariff_settings.yml"
	c.Batch.OutputDir = "PtfHesaplama"
	c.Split.Column = "Abone No"
	c.Split.Folder = "AboneNo"
	c.Split.Summary = true
	c.Split.Cost = true
	c.Split.Label = "TOPLAM"
	c.Split.LabelColumns = []string{"Ünvan"}
	c.Split.ClearColumns = []string{"Tarih"}
	c.Tariff.Day = "06:00-17:00"
	c.Tariff.Peak = "17:00-22:00"
	c.EPIAS.AuthURL = "https://giris.epias.com.tr/cas/v1/tickets"
	c.EPIAS.ServiceURL = "https://seffaflik.epias.com.tr/electricity-service/v1/markets/dam/data/mcp"
	c.EPIAS.Timezone = "Europe/Istanbul"
	return c
}

// Schedule builds the tariff schedule from the configured windows and the given rates.
func (c Config) Schedule(rates tariff.Rates) (tariff.Schedule, error) {
	day, err := tariff.ParseWindow(c.Tariff.Day)
	if err != nil {
		return tariff.Schedule{}, fmt.Errorf("tariff.day: %w", err)
	}
	peak, err := tariff.ParseWindow(c.Tariff.Peak)
	if err != nil {
		return tariff.Schedule{}, fmt.Errorf("tariff.peak: %w", err)
	}
	s := tariff.Schedule{Rates: rates, Day: day, Peak: peak}
	if err := s.Validate(); err != nil {
		return tariff.Schedule{}, err
	}
	return s, nil
}

// Settings is the user-editable pricing state persisted between runs.
type Settings struct {
	Rates  tariff.Rates  `yaml:"rates" json:"rates"`
	Params tariff.Params `yaml:"params" json:"params"`
}

// DefaultSettings returns the built-in rates and parameters.
func DefaultSettings() Settings {
	return Settings{Rates: tariff.DefaultRates(), Params: tariff.DefaultParams()}
}

// RateUpdate carries the rates to change; nil fields are left alone.
type RateUpdate struct {
	Day   *float64 `json:"day,omitempty"`
	Peak  *float64 `json:"peak,omitempty"`
	Night *float64 `json:"night,omitempty"`
}

// Apply sets the non-nil rates on s.
func (u RateUpdate) Apply(s *Settings) {
	if u.Day != nil {
		s.Rates.Day = *u.Day
	}
	if u.Peak != nil {
		s.Rates.Peak = *u.Peak
	}
	if u.Night != nil {
		s.Rates.Night = *u.Night
	}
}

// FromRates returns an update setting all three rates.
func FromRates(r tariff.Rates) RateUpdate {
	return RateUpdate{Day: &r.Day, Peak: &r.Peak, Night: &r.Night}
}
