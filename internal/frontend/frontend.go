// Package frontend renders an exercise attempt in the terminal. It is a
// pure observer of the attempt runner: everything it shows arrives as
// runner messages, and everything the user does goes back through
// Dispatch.
package frontend

import (
	"fmt"
	"regexp"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/moritz-zoellner/pyrope/internal/engine"
	"github.com/moritz-zoellner/pyrope/internal/message"
	"github.com/moritz-zoellner/pyrope/internal/model"
	"github.com/moritz-zoellner/pyrope/internal/runner"
)

var placeholderRe = regexp.MustCompile(`<<\s*([A-Za-z_][A-Za-z0-9_]*)\s*>>`)

// widget is the frontend side of one input field.
type widget struct {
	id        string
	fieldName string
	field     *model.Field
	input     textinput.Model
}

// attempt is the state accumulated from runner messages. The Bubble Tea
// model copies by value, so the mutable message sink lives behind a
// pointer.
type attempt struct {
	sender   string
	debug    bool
	preamble string
	problem  string
	feedback string
	hints    engine.Hints
	widgets  []*widget
	byID     map[string]*widget
	byField  map[string]*widget
}

func (a *attempt) apply(fields map[string]*model.Field) runner.Observer {
	return func(msg message.Message) {
		a.sender = msg.Sender()
		switch m := msg.(type) {
		case message.ExerciseAttribute:
			switch m.Name {
			case "debug":
				a.debug, _ = m.Value.(bool)
			case "hints":
				if h, ok := m.Value.(engine.Hints); ok {
					a.hints = h
				}
			}
		case message.RenderTemplate:
			switch m.Part {
			case "preamble":
				a.preamble = m.Template
			case "problem":
				a.problem = m.Template
			case "feedback":
				a.feedback = m.Template
			}
		case message.CreateWidget:
			w := &widget{
				id:        m.WidgetID,
				fieldName: m.FieldName,
				field:     fields[m.WidgetID],
				input:     newInput(m.WidgetType),
			}
			a.widgets = append(a.widgets, w)
			a.byID[m.WidgetID] = w
			a.byField[m.FieldName] = w
		}
	}
}

func newInput(widgetType string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	switch widgetType {
	case "Integer", "Natural", "Decimal":
		ti.Placeholder = "number"
		ti.CharLimit = 12
	case "Boolean":
		ti.Placeholder = "true/false"
		ti.CharLimit = 5
	default:
		ti.Placeholder = "text"
		ti.CharLimit = 64
	}
	return ti
}

// Model is the Bubble Tea model for a single attempt.
type Model struct {
	r       *runner.Runner
	state   *attempt
	focus   int
	aborted bool
	err     error
}

// New builds the frontend model and wires it as the runner's observer.
// The runner must not have run yet.
func New(r *runner.Runner) (*Model, error) {
	fields, err := r.Engine().Fields()
	if err != nil {
		return nil, err
	}
	byWidget := make(map[string]*model.Field, len(fields))
	for _, f := range fields {
		byWidget[f.WidgetID] = f
	}
	state := &attempt{
		byID:    map[string]*widget{},
		byField: map[string]*widget{},
	}
	r.RegisterObserver(state.apply(byWidget))
	return &Model{r: r, state: state}, nil
}

// Aborted reports whether the user quit before submitting.
func (m *Model) Aborted() bool {
	return m.aborted
}

// Err returns the first runner error encountered, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) Init() tea.Cmd {
	if len(m.state.widgets) > 0 {
		return m.state.widgets[0].input.Focus()
	}
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.r.State() == runner.StateDone {
		switch key.String() {
		case "ctrl+c", "q", "enter", "esc":
			return m, tea.Quit
		}
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "tab", "down":
		return m, m.moveFocus(1)
	case "shift+tab", "up":
		return m, m.moveFocus(-1)
	case "enter":
		if err := m.submit(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, nil
	}

	if len(m.state.widgets) == 0 {
		return m, nil
	}
	w := m.state.widgets[m.focus]
	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	if err := m.r.Dispatch(message.NewChangeWidgetAttribute(
		"frontend", w.id, "value", w.input.Value())); err != nil {
		m.err = err
		return m, tea.Quit
	}
	return m, cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	n := len(m.state.widgets)
	if n == 0 {
		return nil
	}
	m.state.widgets[m.focus].input.Blur()
	m.focus = ((m.focus+delta)%n + n) % n
	return m.state.widgets[m.focus].input.Focus()
}

func (m *Model) submit() error {
	for _, w := range m.state.widgets {
		if err := m.r.Dispatch(message.NewChangeWidgetAttribute(
			"frontend", w.id, "value", w.input.Value())); err != nil {
			return err
		}
	}
	return m.r.Dispatch(message.NewSubmit("frontend", nil))
}

func (m *Model) View() tea.View {
	var b strings.Builder

	title := m.r.Engine().Definition().Label()
	b.WriteString(titleStyle.Render(title))
	if m.state.debug {
		b.WriteString(dimStyle.Render("  [debug]"))
	}
	b.WriteString("\n\n")

	if m.state.preamble != "" {
		b.WriteString(bodyStyle.Render(m.state.preamble))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderProblem())
	b.WriteString("\n")

	for _, h := range m.state.hints.General {
		b.WriteString(hintStyle.Render("hint: " + h))
		b.WriteString("\n")
	}

	if m.r.State() == runner.StateDone {
		b.WriteString("\n")
		b.WriteString(m.renderResults())
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("press enter to continue"))
	} else {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("tab: next field · enter: submit · esc: give up"))
	}

	v := tea.NewView("")
	v.SetContent(b.String())
	return v
}

// renderProblem substitutes each input placeholder with its widget view.
func (m *Model) renderProblem() string {
	return placeholderRe.ReplaceAllStringFunc(m.state.problem, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		w, ok := m.state.byField[name]
		if !ok {
			return match
		}
		view := w.input.View()
		if w.field != nil && w.field.ShowSolution && w.field.Solution() != nil {
			view += dimStyle.Render(fmt.Sprintf(" (solution: %v)", w.field.Solution()))
		}
		return view
	})
}

func (m *Model) renderResults() string {
	var rows []string
	for _, w := range m.state.widgets {
		f := w.field
		if f == nil || !f.ShowScore {
			continue
		}
		row := fmt.Sprintf("%s: ", w.fieldName)
		switch {
		case f.Correct == nil:
			row += dimStyle.Render("not graded")
		case *f.Correct:
			row += correctStyle.Render("correct")
		default:
			row += wrongStyle.Render("wrong")
		}
		if f.DisplayedScore != nil && f.DisplayedMaxScore != nil {
			row += dimStyle.Render(fmt.Sprintf("  %g / %g", *f.DisplayedScore, *f.DisplayedMaxScore))
		}
		rows = append(rows, row)
	}
	total, _ := m.r.Engine().TotalScore()
	maxTotal, _ := m.r.Engine().MaxTotalScore()
	rows = append(rows, fmt.Sprintf("total: %g / %g", total, maxTotal))
	if m.state.feedback != "" {
		rows = append(rows, "", bodyStyle.Render(m.state.feedback))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Run renders one attempt interactively and blocks until the user
// submits or aborts. Aborting before submission leaves the runner in its
// awaiting state; the caller decides what an abort means.
func Run(r *runner.Runner) (aborted bool, err error) {
	m, err := New(r)
	if err != nil {
		return false, err
	}
	if err := r.Run(); err != nil {
		return false, err
	}
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return false, err
	}
	if m.err != nil {
		return false, m.err
	}
	return m.aborted, nil
}
