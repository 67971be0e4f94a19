// Package tui renders compilation results for the terminal.
//
// RenderResult produces a styled, static report of a compile.Result: the
// step list with resolved agents, the execution waves of a compiled plan,
// or the failure and the steps parsed before it. PlanViewer wraps the same
// report in a scrollable bubbletea program:
//
//	viewer := tui.NewPlanViewer("plan.txt", result)
//	program := tea.NewProgram(viewer, tea.WithAltScreen())
//	go func() {
//	    for res := range updates {
//	        program.Send(tui.ResultMsg{Result: res})
//	    }
//	}()
//	_, err := program.Run()
//
// Users scroll with the arrow keys, j/k, pgup/pgdown and quit with q or Ctrl+C.
package tui
