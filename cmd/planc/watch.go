package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/h1t35h/AssetOpsBench/internal/catalog"
	"github.com/h1t35h/AssetOpsBench/internal/compile"
	"github.com/h1t35h/AssetOpsBench/internal/tui"
	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

var (
	watchPlan      string
	watchStatement string
)

var watchCmd = &cobra.Command{
	Use:   "watch --plan FILE",
	Short: "Recompile a plan whenever the agent catalog changes",
	Long: `Compile a plan, then watch the agent catalog file and recompile each
time it changes. The plan file is re-read on every recompilation.

A catalog edit that fails to load or validate is reported and the previous
catalog stays in use. Stop with Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w, err := startCatalogWatcher()
		if err != nil {
			return err
		}
		defer w.Close()

		return watchLoop(ctx, w, cmd.OutOrStdout(), func(cat *models.Catalog) (compile.Result, error) {
			return compileWatched(cat, watchPlan, watchStatement)
		})
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchPlan, "plan", "p", "", "Plan text file")
	watchCmd.Flags().StringVarP(&watchStatement, "statement", "s", "", "Problem statement used for entity grounding")
	watchCmd.MarkFlagRequired("plan")
}

// catalogSource publishes catalog snapshots; *catalog.Watcher implements it.
type catalogSource interface {
	Current() *models.Catalog
	Updates() <-chan *models.Catalog
	Errors() <-chan error
	Done() <-chan struct{}
}

var _ catalogSource = (*catalog.Watcher)(nil)

// startCatalogWatcher loads the catalog and starts watching it for changes.
func startCatalogWatcher() (*catalog.Watcher, error) {
	w, err := catalog.NewWatcher(osFs, catalogPath())
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		w.Close()
		return nil, err
	}
	log.Printf("[watch] watching %s", catalogPath())
	return w, nil
}

// compileWatched re-reads the plan and compiles it against cat.
func compileWatched(cat *models.Catalog, planPath, statement string) (compile.Result, error) {
	raw, err := readPlan(planPath)
	if err != nil {
		return compile.Result{}, err
	}
	return newCompiler(cat).CompileFor(statement, raw), nil
}

// watchLoop compiles against the current catalog and again on every update
// until ctx is done. Catalog and plan read errors are reported, not fatal.
func watchLoop(ctx context.Context, w catalogSource, out io.Writer, run func(*models.Catalog) (compile.Result, error)) error {
	show := func(cat *models.Catalog) {
		res, err := run(cat)
		if err != nil {
			printStatus("⚠", err.Error(), warnColor)
			return
		}
		fmt.Fprintln(out, tui.RenderResult(res, textWidth))
		fmt.Fprintln(out)
	}

	show(w.Current())
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-w.Done():
			return nil
		case cat, ok := <-w.Updates():
			if !ok {
				return nil
			}
			printStatus("↻", fmt.Sprintf("catalog reloaded (%d agents)", cat.Len()), okColor)
			show(cat)
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			printStatus("⚠", "catalog reload failed, keeping previous: "+err.Error(), warnColor)
		}
	}
}
