// Package runner drives a single exercise attempt through its lifecycle:
// Created → Rendering → AwaitingSubmission → Finishing → Done. The runner
// sequences engine computations, notifies registered observers of every
// step, and hands the finished attempt to the persistence recorder.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moritz-zoellner/pyrope/internal/engine"
	"github.com/moritz-zoellner/pyrope/internal/exercise"
	"github.com/moritz-zoellner/pyrope/internal/message"
	"github.com/moritz-zoellner/pyrope/internal/model"
)

// State is the attempt lifecycle state.
type State int

const (
	StateCreated State = iota
	StateRendering
	StateAwaitingSubmission
	StateFinishing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRendering:
		return "rendering"
	case StateAwaitingSubmission:
		return "awaiting-submission"
	case StateFinishing:
		return "finishing"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrNotAwaiting is returned when a submission arrives while the runner
// is not awaiting one. It indicates a programming error in the caller.
var ErrNotAwaiting = errors.New("submission received while not awaiting submission")

// Observer receives every notified message, in emission order.
type Observer func(message.Message)

// Recorder is the persistence collaborator. Failures are not masked:
// retry policy belongs to the recorder, not the runner.
type Recorder interface {
	// EnsureUser upserts a user by name and returns its identifier.
	EnsureUser(ctx context.Context, name string) (int64, error)

	// EnsureExercise upserts an exercise definition keyed by content
	// hash.
	EnsureExercise(ctx context.Context, id, source, label string, maxScore float64) error

	// AppendResult records one finished attempt.
	AppendResult(ctx context.Context, result Result) error
}

// Result is the persisted outcome of one attempt.
type Result struct {
	ExerciseID  string
	UserID      int64
	StartedAt   time.Time
	SubmittedAt time.Time
	Score       float64
	MaxScore    float64
}

// Options configures a runner.
type Options struct {
	Debug      bool
	Globals    engine.Globals
	Difficulty *float64

	// Recorder is optional; without it (or without a definition source)
	// the attempt is not persisted.
	Recorder Recorder

	// Callback, when set, is invoked with (total, max total) after the
	// attempt is persisted.
	Callback func(total, max float64)

	Logger zerolog.Logger
}

// Runner is the attempt state machine. It is single-threaded: all
// methods must be called from one goroutine. Waiting for a submission is
// not a blocking call; the runner returns from Run and resumes when a
// Submit message is dispatched to it.
type Runner struct {
	AttemptID string

	eng      *engine.Engine
	debug    bool
	state    State
	recorder Recorder
	callback func(total, max float64)
	log      zerolog.Logger

	observers     []Observer
	widgetFields  map[string]*model.Field
	solutionsOut  bool
	userID        int64
	persistedUser bool
}

// New builds a runner for one attempt of the given definition. The user
// and exercise rows are ensured up front so a finished attempt only
// appends its result.
func New(def *exercise.Definition, opts Options) (*Runner, error) {
	eng, err := engine.New(def, opts.Globals, opts.Difficulty)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		AttemptID:    uuid.NewString(),
		eng:          eng,
		debug:        opts.Debug,
		state:        StateCreated,
		recorder:     opts.Recorder,
		callback:     opts.Callback,
		log:          opts.Logger.With().Str("component", "runner").Str("exercise", def.Name).Logger(),
		widgetFields: map[string]*model.Field{},
	}

	if r.recorder != nil && def.ID() != "" {
		ctx := context.Background()
		userID, err := r.recorder.EnsureUser(ctx, opts.Globals.UserName)
		if err != nil {
			return nil, fmt.Errorf("ensure user: %w", err)
		}
		maxScore, err := eng.MaxTotalScore()
		if err != nil {
			return nil, err
		}
		if err := r.recorder.EnsureExercise(ctx, def.ID(), def.Source, def.Label(), maxScore); err != nil {
			return nil, fmt.Errorf("ensure exercise: %w", err)
		}
		r.userID = userID
		r.persistedUser = true
	}
	return r, nil
}

// Engine exposes the attempt's evaluation engine.
func (r *Runner) Engine() *engine.Engine {
	return r.eng
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	return r.state
}

// RegisterObserver adds an observer. Observers must be registered before
// Run.
func (r *Runner) RegisterObserver(obs Observer) {
	r.observers = append(r.observers, obs)
}

func (r *Runner) notify(msg message.Message) {
	for _, obs := range r.observers {
		obs(msg)
	}
}

func (r *Runner) sender() string {
	return r.eng.Definition().Name
}

// Run performs the rendering phase and leaves the runner awaiting a
// submission. The emission order is fixed: debug flag, parameters,
// hints, preamble, one widget per input field, the problem template,
// optionally the solutions (debug mode), then the waiting marker.
func (r *Runner) Run() error {
	if r.state != StateCreated {
		return fmt.Errorf("run called in state %s", r.state)
	}
	r.state = StateRendering

	sender := r.sender()
	r.notify(message.NewExerciseAttribute(sender, "debug", r.debug))

	params, err := r.eng.Parameters()
	if err != nil {
		return err
	}
	r.notify(message.NewExerciseAttribute(sender, "parameters", params))

	hints, err := r.eng.HintList()
	if err != nil {
		return err
	}
	r.notify(message.NewExerciseAttribute(sender, "hints", hints))

	preamble, err := r.eng.Preamble()
	if err != nil {
		return err
	}
	r.notify(message.NewRenderTemplate(sender, "preamble", preamble))

	fields, err := r.eng.Fields()
	if err != nil {
		return err
	}
	for _, f := range fields {
		r.widgetFields[f.WidgetID] = f
		r.notify(message.NewCreateWidget(sender, f.WidgetID, f.Type.TypeName(), f.Name))
	}

	template, err := r.eng.Template()
	if err != nil {
		return err
	}
	r.notify(message.NewRenderTemplate(sender, "problem", template))

	if r.debug {
		if err := r.revealSolutions(); err != nil {
			return err
		}
	}

	r.notify(message.NewWaitingForSubmission(sender))
	r.eng.StartedAt = time.Now().UTC()
	r.state = StateAwaitingSubmission
	return nil
}

// Dispatch routes an inbound message: widget value changes update the
// matching field's live value, a submission triggers the finishing
// phase.
func (r *Runner) Dispatch(msg message.Message) error {
	switch m := msg.(type) {
	case message.ChangeWidgetAttribute:
		if m.Attribute != "value" {
			return nil
		}
		f, ok := r.widgetFields[m.WidgetID]
		if !ok {
			return fmt.Errorf("unknown widget %q", m.WidgetID)
		}
		if err := f.SetValue(m.Value); err != nil {
			// An unparseable live value is an empty answer, not a fault.
			return f.SetValue(nil)
		}
		return nil
	case message.Submit:
		if r.state != StateAwaitingSubmission {
			return fmt.Errorf("%w (state %s)", ErrNotAwaiting, r.state)
		}
		if m.Answers != nil {
			if err := r.eng.SetAnswers(m.Answers); err != nil {
				return err
			}
		}
		return r.finish()
	}
	return nil
}

// finish performs the finishing phase: reveal, grade, notify, persist,
// callback, log.
func (r *Runner) finish() error {
	r.state = StateFinishing
	r.eng.SubmittedAt = time.Now().UTC()
	sender := r.sender()

	if !r.debug {
		if err := r.revealSolutions(); err != nil {
			return err
		}
	}

	answers, err := r.eng.Answers()
	if err != nil {
		return err
	}
	r.notify(message.NewExerciseAttribute(sender, "answers", answers))

	maxTotal, err := r.eng.MaxTotalScore()
	if err != nil {
		return err
	}
	r.notify(message.NewExerciseAttribute(sender, "max_total_score", maxTotal))

	total, err := r.eng.TotalScore()
	if err != nil {
		return err
	}
	r.notify(message.NewExerciseAttribute(sender, "total_score", total))

	if _, err := r.eng.Correct(); err != nil {
		return err
	}
	fields, err := r.eng.Fields()
	if err != nil {
		return err
	}
	for _, f := range fields {
		f.ShowScore = true
		r.notify(message.NewChangeWidgetAttribute(sender, f.WidgetID, "show_score", true))
	}

	feedback, err := r.eng.Feedback()
	if err != nil {
		return err
	}
	r.notify(message.NewRenderTemplate(sender, "feedback", feedback))

	if r.persistedUser {
		err := r.recorder.AppendResult(context.Background(), Result{
			ExerciseID:  r.eng.Definition().ID(),
			UserID:      r.userID,
			StartedAt:   r.eng.StartedAt,
			SubmittedAt: r.eng.SubmittedAt,
			Score:       total,
			MaxScore:    maxTotal,
		})
		if err != nil {
			return fmt.Errorf("append result: %w", err)
		}
	}

	if r.callback != nil {
		r.callback(total, maxTotal)
	}

	r.log.Info().
		Str("attempt", r.AttemptID).
		Float64("total_score", total).
		Float64("max_total_score", maxTotal).
		Fields(r.eng.Summary()).
		Msg("attempt finished")

	r.state = StateDone
	return nil
}

// revealSolutions resolves the merged solution and flags every widget to
// show it.
func (r *Runner) revealSolutions() error {
	if r.solutionsOut {
		return nil
	}
	if _, err := r.eng.Solution(); err != nil {
		return err
	}
	fields, err := r.eng.Fields()
	if err != nil {
		return err
	}
	sender := r.sender()
	for _, f := range fields {
		f.ShowSolution = true
		r.notify(message.NewChangeWidgetAttribute(sender, f.WidgetID, "show_solution", true))
	}
	r.solutionsOut = true
	return nil
}
