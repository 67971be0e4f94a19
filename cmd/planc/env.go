package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/h1t35h/AssetOpsBench/internal/catalog"
	"github.com/h1t35h/AssetOpsBench/internal/compile"
	"github.com/h1t35h/AssetOpsBench/internal/state"
	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

// osFs is the filesystem used for catalogs and plan files.
var osFs afero.Fs = afero.NewOsFs()

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

// catalogPath returns the --catalog flag or the configured path.
func catalogPath() string {
	if flagCatalog != "" {
		return flagCatalog
	}
	return cfg.Catalog.Path
}

// maxSteps returns the --max-steps flag or the configured ceiling.
func maxSteps() int {
	if flagMaxSteps > 0 {
		return flagMaxSteps
	}
	return cfg.Compiler.MaxSteps
}

// loadCatalog reads the catalog file. When the configured default file does
// not exist the built-in AssetOpsBench catalog is used; an explicit --catalog
// must exist.
func loadCatalog() (*models.Catalog, error) {
	path := catalogPath()
	cat, err := catalog.Load(osFs, path)
	if err == nil {
		return cat, nil
	}
	if flagCatalog == "" && errors.Is(err, fs.ErrNotExist) {
		printStatus("⚠", fmt.Sprintf("%s not found, using built-in catalog", path), warnColor)
		return catalog.Default(), nil
	}
	return nil, err
}

// newCompiler builds a compiler over cat from flags and config.
func newCompiler(cat *models.Catalog, extra ...compile.Option) *compile.Compiler {
	opts := []compile.Option{
		compile.WithMaxSteps(maxSteps()),
		compile.WithMaxInputBytes(cfg.Compiler.MaxInputBytes),
		compile.WithDebugLog(debugLogger()),
	}
	return compile.New(cat, append(opts, extra...)...)
}

// readPlan reads a plan file, or stdin for "-".
func readPlan(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read plan from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := afero.ReadFile(osFs, path)
	if err != nil {
		return "", fmt.Errorf("read plan: %w", err)
	}
	return string(data), nil
}

// readStatement returns the statement text, or the trimmed contents of file when set.
func readStatement(text, file string) (string, error) {
	if text != "" && file != "" {
		return "", errors.New("use only one of --statement and --statement-file")
	}
	if file == "" {
		return text, nil
	}
	data, err := afero.ReadFile(osFs, file)
	if err != nil {
		return "", fmt.Errorf("read statement: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// openHistory opens the history database, or returns nil when history is off.
// Failures are reported and history is skipped; they never fail a compilation.
func openHistory(disabled bool) state.Store {
	if disabled || !cfg.History.Enabled {
		return nil
	}
	db, err := state.Open(cfg.History.Path)
	if err != nil {
		printStatus("⚠", "history disabled: "+err.Error(), warnColor)
		return nil
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		printStatus("⚠", "history disabled: "+err.Error(), warnColor)
		return nil
	}
	return db
}

// record stores rec when store is non-nil.
func record(store state.Store, rec *state.Record) {
	if store == nil {
		return
	}
	if err := store.RecordCompilation(rec); err != nil {
		printStatus("⚠", "could not record compilation: "+err.Error(), warnColor)
	}
}
