package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/h1t35h/AssetOpsBench/internal/compile"
)

// ResultMsg replaces the result shown by a PlanViewer, e.g. after a catalog reload.
type ResultMsg struct {
	Result compile.Result
}

// ErrorMsg reports a non-fatal error in the viewer footer.
type ErrorMsg struct {
	Err error
}

type viewerKeyMap struct {
	Quit   key.Binding
	Top    key.Binding
	Bottom key.Binding
}

func defaultViewerKeys() viewerKeyMap {
	return viewerKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
	}
}

// PlanViewer is a scrollable bubbletea model showing one compilation result.
type PlanViewer struct {
	title    string
	result   compile.Result
	viewport viewport.Model
	keys     viewerKeyMap
	styles   styles
	ready    bool
	width    int
	height   int
	updates  int
	lastErr  error
}

// NewPlanViewer creates a viewer for res. title is shown in the header bar.
func NewPlanViewer(title string, res compile.Result) *PlanViewer {
	return &PlanViewer{
		title:  title,
		result: res,
		keys:   defaultViewerKeys(),
		styles: defaultStyles(),
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (v *PlanViewer) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (v *PlanViewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Top):
			v.viewport.GotoTop()
			return v, nil
		case key.Matches(msg, v.keys.Bottom):
			v.viewport.GotoBottom()
			return v, nil
		}

	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		bodyHeight := v.bodyHeight()
		if !v.ready {
			v.viewport = viewport.New(msg.Width, bodyHeight)
			v.ready = true
		} else {
			v.viewport.Width = msg.Width
			v.viewport.Height = bodyHeight
		}
		v.viewport.SetContent(RenderResult(v.result, msg.Width))
		return v, nil

	case ResultMsg:
		v.result = msg.Result
		v.updates++
		v.lastErr = nil
		if v.ready {
			v.viewport.SetContent(RenderResult(v.result, v.width))
		}
		return v, nil

	case ErrorMsg:
		v.lastErr = msg.Err
		return v, nil
	}

	if !v.ready {
		return v, nil
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View implements tea.Model.
func (v *PlanViewer) View() string {
	if !v.ready {
		return "Loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, v.headerView(), v.viewport.View(), v.footerView())
}

// Result returns the result currently displayed.
func (v *PlanViewer) Result() compile.Result {
	return v.result
}

func (v *PlanViewer) headerView() string {
	status := v.styles.success.Render("ok")
	if !v.result.OK() {
		status = v.styles.failure.Render("failed")
	}
	return v.styles.title.Render(" "+v.title+" ") + " " + status
}

func (v *PlanViewer) footerView() string {
	text := fmt.Sprintf("%3.f%%  %s • %s • %s",
		v.viewport.ScrollPercent()*100,
		v.keys.Top.Help().Key+" "+v.keys.Top.Help().Desc,
		v.keys.Bottom.Help().Key+" "+v.keys.Bottom.Help().Desc,
		v.keys.Quit.Help().Key+" "+v.keys.Quit.Help().Desc,
	)
	if v.updates > 0 {
		text += fmt.Sprintf("  (recompiled %d×)", v.updates)
	}
	if v.lastErr != nil {
		text += "  " + v.styles.warning.Render(v.lastErr.Error())
	}
	return v.styles.footer.Render(text)
}

func (v *PlanViewer) bodyHeight() int {
	// Header and footer take one line each.
	h := v.height - 2
	if h < 1 {
		h = 1
	}
	return h
}
