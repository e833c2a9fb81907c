package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	dconfig "ptf-calc/domain/config"
	"ptf-calc/domain/tariff"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "./config.yml"

// Path returns the config file location from CONFIG_PATH.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

// SettingsPath returns SETTINGS_PATH, falling back to the configured settings file.
func SettingsPath(c *dconfig.Config) string {
	if p := os.Getenv("SETTINGS_PATH"); p != "" {
		return p
	}
	return c.Paths.Settings
}

// Load parses the YAML configuration file at path on top of the defaults.
func Load(path string) (*dconfig.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := dconfig.Default()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	slog.Info(fmt.Sprintf("Loaded config: %s", path))
	return &c, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*dconfig.Config, error) {
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config.default", "path", path)
		d := dconfig.Default()
		return &d, nil
	}
	return c, err
}

// LoadSettings reads the settings file. Keys absent from the file keep their defaults and a
// missing file yields the defaults.
func LoadSettings(path string) (dconfig.Settings, error) {
	s := dconfig.DefaultSettings()
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return dconfig.DefaultSettings(), fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// SaveSettings writes s to path.
func SaveSettings(path string, s dconfig.Settings) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	slog.Info("settings.saved", "path", path)
	return nil
}

// UpdateRates changes the given rates and saves.
func UpdateRates(path string, u dconfig.RateUpdate) (dconfig.Settings, error) {
	s, err := LoadSettings(path)
	if err != nil {
		return s, err
	}
	u.Apply(&s)
	return s, SaveSettings(path, s)
}

// UpdateParams changes the named parameters and saves. Unknown names are returned and left out.
func UpdateParams(path string, values map[string]float64) (dconfig.Settings, []string, error) {
	s, err := LoadSettings(path)
	if err != nil {
		return s, nil, err
	}
	var unknown []string
	for k, v := range values {
		if !s.Params.Set(k, v) {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	if len(unknown) > 0 {
		slog.Warn("settings.params.unknown", "keys", unknown)
	}
	return s, unknown, SaveSettings(path, s)
}

// Env is the resolved configuration and settings of one run.
type Env struct {
	Config       *dconfig.Config
	SettingsPath string
	Settings     dconfig.Settings
}

// LoadEnv loads the config from CONFIG_PATH and the settings it points to.
func LoadEnv() (*Env, error) {
	c, err := LoadOrDefault(Path())
	if err != nil {
		return nil, err
	}
	sp := SettingsPath(c)
	s, err := LoadSettings(sp)
	if err != nil {
		return nil, err
	}
	return &Env{Config: c, SettingsPath: sp, Settings: s}, nil
}

// Schedule combines the configured windows with the persisted rates.
func (e *Env) Schedule() (tariff.Schedule, error) {
	return e.Config.Schedule(e.Settings.Rates)
}
