package cmdsplit

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptf-calc/connectors/config"
	"ptf-calc/connectors/xlsx"
	dconfig "ptf-calc/domain/config"
	"ptf-calc/domain/costing"
	"ptf-calc/domain/table"
)

func TestExport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Ocak 2024.xlsx")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := table.New([]string{"Abone No ", "Ünvan", "Tarih", "Saat", "Aktif Çekiş", "Reaktif Veriş"})
	for i := 0; i < 3; i++ {
		in.Rows = append(in.Rows,
			table.Row{"Abone No ": "10/2", "Ünvan": "Acme", "Tarih": base, "Saat": float64(17 + i), "Aktif Çekiş": 2.0, "Reaktif Veriş": 1.0},
			table.Row{"Abone No ": "11", "Ünvan": "Beta", "Tarih": base, "Saat": float64(i), "Aktif Çekiş": 1.0, "Reaktif Veriş": 1.0},
		)
	}
	require.NoError(t, xlsx.Write(src, in, xlsx.WriteOptions{}))

	c := dconfig.Default()
	env := &config.Env{Config: &c, Settings: dconfig.DefaultSettings()}
	res, err := Export(env, src, filepath.Join(dir, "out"))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Equal(t, filepath.Join(dir, "out", "Ocak 2024", "AboneNo"), res.Dir)
	assert.Equal(t, []string{"10_2", "11"}, res.Keys)

	got, err := xlsx.Read(filepath.Join(res.Dir, "10_2.xlsx"))
	require.NoError(t, err)
	require.Equal(t, 4, got.Len())
	assert.NotContains(t, got.Columns, "Reaktif Veriş")
	assert.Contains(t, got.Columns, costing.ColumnTariffCost)

	summary := got.Rows[3]
	assert.Equal(t, "TOPLAM", summary["Ünvan"])
	assert.Equal(t, "10/2", summary["Abone No"])
	assert.Equal(t, 6.0, summary["Aktif Çekiş"])
	// Hours 17, 18, 19 fall in the peak window: 3 * 2 kWh * 2.50.
	assert.InDelta(t, 15.0, summary[costing.ColumnTariffCost], 1e-9)
}

func TestExport_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.xlsx")
	require.NoError(t, xlsx.Write(src, table.New([]string{"Ünvan"}, table.Row{"Ünvan": "Acme"}), xlsx.WriteOptions{}))

	c := dconfig.Default()
	env := &config.Env{Config: &c, Settings: dconfig.DefaultSettings()}
	_, err := Export(env, src, dir)
	assert.ErrorContains(t, err, "Missing Abone No")
}

func brokenConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("split: [unclosed\n"), 0o644))
	return path
}

func TestRun_HelpWithBrokenConfig(t *testing.T) {
	t.Setenv("CONFIG_PATH", brokenConfig(t))

	err := Run([]string{"-h"})
	assert.ErrorIs(t, err, flag.ErrHelp)

	err = Run([]string{"-file", "x.xlsx"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, flag.ErrHelp)
}

func TestRun_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yml"))
	t.Setenv("SETTINGS_PATH", filepath.Join(dir, "s.yml"))
	src := filepath.Join(dir, "in.xlsx")
	in := table.New([]string{"Sayac", "Tarih", "Aktif Çekiş"},
		table.Row{"Sayac": "A", "Tarih": "01.01.2024 10:00", "Aktif Çekiş": 1.0},
	)
	require.NoError(t, xlsx.Write(src, in, xlsx.WriteOptions{}))

	out := filepath.Join(dir, "out")
	require.NoError(t, Run([]string{"-file", src, "-out", out, "-column", "Sayac", "-summary=false"}))
	assert.FileExists(t, filepath.Join(out, "in", "AboneNo", "A.xlsx"))
}
