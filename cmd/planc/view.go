package main

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/h1t35h/AssetOpsBench/internal/tui"
)

var (
	viewPlan      string
	viewStatement string
	viewWatch     bool
)

var viewCmd = &cobra.Command{
	Use:   "view --plan FILE",
	Short: "Browse a compiled plan in an interactive viewer",
	Long: `Compile a plan and show the result in a scrollable terminal viewer.

With --watch the viewer recompiles whenever the agent catalog changes.
Scroll with the arrow keys, j/k or pgup/pgdown; quit with q.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		res, err := compileWatched(cat, viewPlan, viewStatement)
		if err != nil {
			return err
		}

		viewer := tui.NewPlanViewer(filepath.Base(viewPlan), res)
		program := tea.NewProgram(viewer, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

		if viewWatch {
			w, err := startCatalogWatcher()
			if err != nil {
				return err
			}
			defer w.Close()
			go forwardCatalogUpdates(w, program)
		}

		if _, err := program.Run(); err != nil {
			return fmt.Errorf("run viewer: %w", err)
		}
		return nil
	},
}

// forwardCatalogUpdates recompiles on each catalog update and sends the result to the viewer.
func forwardCatalogUpdates(w catalogSource, program *tea.Program) {
	for {
		select {
		case <-w.Done():
			return
		case cat, ok := <-w.Updates():
			if !ok {
				return
			}
			res, err := compileWatched(cat, viewPlan, viewStatement)
			if err != nil {
				program.Send(tui.ErrorMsg{Err: err})
				continue
			}
			program.Send(tui.ResultMsg{Result: res})
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			program.Send(tui.ErrorMsg{Err: err})
		}
	}
}

func init() {
	viewCmd.Flags().StringVarP(&viewPlan, "plan", "p", "", "Plan text file")
	viewCmd.Flags().StringVarP(&viewStatement, "statement", "s", "", "Problem statement used for entity grounding")
	viewCmd.Flags().BoolVarP(&viewWatch, "watch", "w", false, "Recompile when the agent catalog changes")
	viewCmd.MarkFlagRequired("plan")
}
