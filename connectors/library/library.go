// Package library manages the local directory of market price (PTF) spreadsheets.
package library

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lo "github.com/samber/lo"

	"ptf-calc/connectors/sheet"
	"ptf-calc/connectors/xlsx"
	"ptf-calc/domain/table"
)

// DefaultDir is the library directory relative to the working directory.
const DefaultDir = "PTF_Files"

var ErrNotFound = errors.New("File not found.")

var extensions = []string{".xlsx", ".xls", ".csv"}

// Library is a directory of PTF files.
type Library struct {
	Dir string
}

// New returns a library rooted at dir and creates the directory.
func New(dir string) (*Library, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Library{Dir: dir}, nil
}

// List returns the spreadsheet names in the library, sorted.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		if lo.Contains(extensions, strings.ToLower(filepath.Ext(e.Name()))) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Import copies the file at src into the library and returns its name.
func (l *Library) Import(src string) (string, error) {
	in, err := os.Open(src)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	defer in.Close()

	name := filepath.Base(src)
	dst := filepath.Join(l.Dir, name)
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	if fi, err := in.Stat(); err == nil {
		_ = os.Chtimes(dst, fi.ModTime(), fi.ModTime())
	}
	slog.Info("library.import", "name", name, "dir", l.Dir)
	return name, nil
}

// Resolve returns an existing path for nameOrPath: the path itself when it exists, otherwise the
// library entry of that name.
func (l *Library) Resolve(nameOrPath string) (string, error) {
	if fi, err := os.Stat(nameOrPath); err == nil && !fi.IsDir() {
		return nameOrPath, nil
	}
	p := filepath.Join(l.Dir, filepath.Base(nameOrPath))
	if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, nameOrPath)
}

// Load resolves and reads a PTF file.
func (l *Library) Load(nameOrPath string) (*table.Table, error) {
	p, err := l.Resolve(nameOrPath)
	if err != nil {
		return nil, err
	}
	t, err := sheet.Read(p)
	if err != nil {
		return nil, err
	}
	slog.Info("library.load", "path", p, "rows", t.Len())
	return t, nil
}

// Save writes t into the library under name.
func (l *Library) Save(name string, t *table.Table) (string, error) {
	p := filepath.Join(l.Dir, filepath.Base(name))
	if err := sheet.Write(p, t, xlsx.WriteOptions{}); err != nil {
		return "", err
	}
	return p, nil
}
