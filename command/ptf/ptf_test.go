package cmdptf

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("CONFIG_PATH", path)
	return dir
}

func TestRun_HelpWithBrokenConfig(t *testing.T) {
	writeConfig(t, "paths: [unclosed\n")

	for _, sub := range []string{"list", "import", "show"} {
		assert.ErrorIs(t, Run([]string{sub, "-h"}), flag.ErrHelp, sub)
	}

	err := Run([]string{"list"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, flag.ErrHelp)
}

func TestRun_Import(t *testing.T) {
	dir := writeConfig(t, "")
	lib := filepath.Join(dir, "PTF_Files")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("paths:\n  library: "+filepath.ToSlash(lib)+"\n"), 0o644))
	src := filepath.Join(dir, "ocak.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	require.NoError(t, Run([]string{"import", "-file", src}))
	assert.FileExists(t, filepath.Join(lib, "ocak.xlsx"))
	require.NoError(t, Run([]string{"list"}))

	assert.ErrorContains(t, Run([]string{"import"}), "-file is required")
	assert.ErrorContains(t, Run([]string{"nope"}), "unknown subcommand")
}
