// Package engine binds one random parameter sample to an exercise
// definition and derives the problem model, solutions, hints and scores
// from the definition's hooks.
//
// Every derived value lives in an explicit memo slot computed at most
// once per Engine instance, in dependency order: parameters → model →
// ifields → solutions → merged solution → max scores → scores →
// correctness. Determinism of a single attempt comes from this
// memoization, not from the hooks. An Engine is single-threaded: one
// attempt, one goroutine. A failed computation marks the attempt failed;
// restart from a fresh Engine.
package engine

import (
	"math/rand/v2"
	"time"

	"github.com/moritz-zoellner/pyrope/internal/exercise"
	"github.com/moritz-zoellner/pyrope/internal/model"
)

// Globals are the engine-wide defaults an attempt falls back to when the
// definition leaves difficulty bounds unset.
type Globals struct {
	MinDifficulty float64
	MaxDifficulty float64
	UserName      string

	// Rand drives difficulty sampling; nil uses the shared source.
	Rand *rand.Rand
}

// DefaultGlobals returns the stock global defaults.
func DefaultGlobals() Globals {
	return Globals{
		MinDifficulty: 0.0,
		MaxDifficulty: 1.0,
		UserName:      "John Doe",
	}
}

/// slot is a memoized computation result. Failures are cached too: a
// failed slot stays failed for the lifetime of the engine.
type slot[T any] struct {
	done bool
	val  T
	err  error
}

func resolve[T any](s *slot[T], compute func() (T, error)) (T, error) {
	if !s.done {
		s.val, s.err = compute()
		s.done = true
	}
	return s.val, s.err
}

// Hints is the normalized result of the hints hook: either general hints
// or per-field hints, never both.
type Hints struct {
	General  []string
	PerField map[string][]string
}

// Engine evaluates one parametrized attempt of a definition.
type Engine struct {
	def     *exercise.Definition
	globals Globals
	forced  *float64 // externally supplied difficulty

	difficulty float64

	// Attempt metadata, owned here so the runner stays a pure sequencer.
	UserName    string
	StartedAt   time.Time
	SubmittedAt time.Time

	parameters   slot[exercise.Args]
	problem      slot[*model.Problem]
	template     slot[string]
	preamble     slot[string]
	theSolution  slot[map[string]any]
	aSolution    slot[map[string]any]
	solution     slot[map[string]any]
	hints        slot[Hints]
	trivialInput slot[map[string]any]
	dummyInput   slot[map[string]any]
	scoreWeights slot[map[string]float64]
	maxScores    slot[map[string]*float64]
	scores       slot[map[string]*float64]
	correct      slot[map[string]*bool]

	totalScore    float64
	maxTotalScore float64
}

// New builds an engine for one attempt. difficulty, when non-nil,
// overrides sampling and must lie in [0, 1].
func New(def *exercise.Definition, globals Globals, difficulty *float64) (*Engine, error) {
	if difficulty != nil && (*difficulty < 0 || *difficulty > 1) {
		return nil, exercise.ConfigErr("difficulty must lie in [0, 1], got %v", *difficulty)
	}
	return &Engine{
		def:      def,
		globals:  globals,
		forced:   difficulty,
		UserName: globals.UserName,
	}, nil
}

// Definition returns the underlying exercise definition.
func (e *Engine) Definition() *exercise.Definition {
	return e.def
}

// Difficulty returns the difficulty bound to this attempt. It is only
// meaningful once Parameters has resolved.
func (e *Engine) Difficulty() float64 {
	return e.difficulty
}

func (e *Engine) randFloat() float64 {
	if e.globals.Rand != nil {
		return e.globals.Rand.Float64()
	}
	return rand.Float64()
}

// Parameters samples the difficulty and invokes the parameters hook. The
// hook may declare difficulty, user_name, min_difficulty and
// max_difficulty as keywords.
func (e *Engine) Parameters() (exercise.Args, error) {
	return resolve(&e.parameters, func() (exercise.Args, error) {
		min := e.globals.MinDifficulty
		max := e.globals.MaxDifficulty
		if e.def.MinDifficulty != nil {
			min = *e.def.MinDifficulty
		}
		if e.def.MaxDifficulty != nil {
			max = *e.def.MaxDifficulty
		}
		if e.forced != nil {
			e.difficulty = *e.forced
		} else {
			e.difficulty = min + e.randFloat()*(max-min)
		}
		if e.def.Parameters == nil {
			return exercise.Args{}, nil
		}
		bag := exercise.Args{
			"difficulty":     e.difficulty,
			"min_difficulty": min,
			"max_difficulty": max,
			"user_name":      e.globals.UserName,
		}
		raw, err := e.def.Parameters.Call(bag)
		if err != nil {
			return nil, err
		}
		params, err := asArgs(raw)
		if err != nil {
			return nil, exercise.IllPosed("the parameters hook must return a mapping, got %T", raw)
		}
		return params, nil
	})
}

// Model invokes the problem hook and validates that every output field
// the template references is resolvable from the parameter sample.
func (e *Engine) Model() (*model.Problem, error) {
	return resolve(&e.problem, func() (*model.Problem, error) {
		params, err := e.Parameters()
		if err != nil {
			return nil, err
		}
		raw, err := e.def.Problem.Call(params)
		if err != nil {
			return nil, err
		}
		problem, ok := raw.(*model.Problem)
		if !ok {
			return nil, exercise.IllPosed("the problem hook must return a problem model, got %T", raw)
		}
		for _, ofield := range problem.OutputFields() {
			if _, ok := params[ofield]; !ok {
				return nil, exercise.IllPosed("no parameter for output field %q", ofield)
			}
		}
		return problem, nil
	})
}

// Template returns the problem template with output fields substituted
// from the parameter sample.
func (e *Engine) Template() (string, error) {
	return resolve(&e.template, func() (string, error) {
		problem, err := e.Model()
		if err != nil {
			return "", err
		}
		params, err := e.Parameters()
		if err != nil {
			return "", err
		}
		return problem.Render(params), nil
	})
}

// Preamble renders the preamble hook, defaulting to the empty string.
func (e *Engine) Preamble() (string, error) {
	return resolve(&e.preamble, func() (string, error) {
		if e.def.Preamble == nil {
			return "", nil
		}
		params, err := e.Parameters()
		if err != nil {
			return "", err
		}
		raw, err := e.def.Preamble.Call(params)
		if err != nil {
			return "", err
		}
		if raw == nil {
			return "", nil
		}
		s, ok := raw.(string)
		if !ok {
			return "", exercise.IllPosed("the preamble hook must return a string, got %T", raw)
		}
		return s, nil
	})
}

// Fields returns the problem's input fields in declaration order.
func (e *Engine) Fields() ([]*model.Field, error) {
	problem, err := e.Model()
	if err != nil {
		return nil, err
	}
	return problem.Fields(), nil
}

// TheSolution resolves the reference solution: the explicit hook result
// merged with solutions implied by the trailing-underscore naming
// convention, explicit entries taking precedence.
func (e *Engine) TheSolution() (map[string]any, error) {
	return resolve(&e.theSolution, func() (map[string]any, error) {
		problem, err := e.Model()
		if err != nil {
			return nil, err
		}
		params, err := e.Parameters()
		if err != nil {
			return nil, err
		}
		explicit, err := e.solutionHook(e.def.TheSolution, problem, params)
		if err != nil {
			return nil, err
		}

		for _, name := range problem.FieldNames() {
			if _, ok := explicit[name]; ok {
				continue
			}
			if len(name) < 2 || name[len(name)-1] != '_' {
				continue
			}
			if v, ok := params[name[:len(name)-1]]; ok {
				explicit[name] = v
			}
		}

		resolved := make(map[string]any, len(explicit))
		for name, v := range explicit {
			f, ok := problem.Field(name)
			if !ok {
				return nil, exercise.IllPosed("solution for unknown input field %q", name)
			}
			if err := f.SetTheSolution(v); err != nil {
				return nil, exercise.IllPosed("solution for field %q: %v", name, err)
			}
			resolved[name] = f.TheSolution()
		}
		return resolved, nil
	})
}

// ASolution resolves the possibly non-unique solution.
func (e *Engine) ASolution() (map[string]any, error) {
	return resolve(&e.aSolution, func() (map[string]any, error) {
		problem, err := e.Model()
		if err != nil {
			return nil, err
		}
		params, err := e.Parameters()
		if err != nil {
			return nil, err
		}
		raw, err := e.solutionHook(e.def.ASolution, problem, params)
		if err != nil {
			return nil, err
		}
		resolved := make(map[string]any, len(raw))
		for name, v := range raw {
			f, ok := problem.Field(name)
			if !ok {
				return nil, exercise.IllPosed("solution for unknown input field %q", name)
			}
			if err := f.SetASolution(v); err != nil {
				return nil, exercise.IllPosed("solution for field %q: %v", name, err)
			}
			resolved[name] = f.ASolution()
		}
		return resolved, nil
	})
}

// solutionHook invokes a solution hook and lifts a bare value to a
// single-field mapping. A bare value with more than one input field is
// ill-posed.
func (e *Engine) solutionHook(h *exercise.Hook, problem *model.Problem, params exercise.Args) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	raw, err := h.Call(params)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return map[string]any{}, nil
	}
	if m, err := asArgs(raw); err == nil {
		return m, nil
	}
	names := problem.FieldNames()
	if len(names) != 1 {
		return nil, exercise.IllPosed("unless there is only a single input field, a solution must be a mapping")
	}
	return map[string]any{names[0]: raw}, nil
}

// Solution is the merged, authoritative solution mapping: reference
// solutions take precedence over non-unique ones.
func (e *Engine) Solution() (map[string]any, error) {
	return resolve(&e.solution, func() (map[string]any, error) {
		the, err := e.TheSolution()
		if err != nil {
			return nil, err
		}
		a, err := e.ASolution()
		if err != nil {
			return nil, err
		}
		problem, err := e.Model()
		if err != nil {
			return nil, err
		}
		merged := make(map[string]any, len(the)+len(a))
		for name := range a {
			f, _ := problem.Field(name)
			merged[name] = f.Solution()
		}
		for name := range the {
			f, _ := problem.Field(name)
			merged[name] = f.Solution()
		}
		return merged, nil
	})
}

// HintList invokes the hints hook and normalizes its shapes: a bare
// string becomes a one-element list, a per-field mapping collapses to the
// single field's list when only one input field exists.
func (e *Engine) HintList() (Hints, error) {
	return resolve(&e.hints, func() (Hints, error) {
		if e.def.Hints == nil {
			return Hints{}, nil
		}
		params, err := e.Parameters()
		if err != nil {
			return Hints{}, err
		}
		raw, err := e.def.Hints.Call(params)
		if err != nil {
			return Hints{}, err
		}
		problem, err := e.Model()
		if err != nil {
			return Hints{}, err
		}
		return normalizeHints(raw, problem.FieldNames())
	})
}

func normalizeHints(raw any, fieldNames []string) (Hints, error) {
	switch v := raw.(type) {
	case nil:
		return Hints{}, nil
	case string:
		return Hints{General: []string{v}}, nil
	case []string:
		return Hints{General: append([]string(nil), v...)}, nil
	case map[string]any, map[string][]string, map[string]string:
		perField, err := hintMap(v)
		if err != nil {
			return Hints{}, err
		}
		if len(perField) == 0 {
			return Hints{}, nil
		}
		normalized := make(map[string][]string, len(fieldNames))
		for _, name := range fieldNames {
			normalized[name] = perField[name]
		}
		if len(fieldNames) == 1 {
			return Hints{General: normalized[fieldNames[0]]}, nil
		}
		return Hints{PerField: normalized}, nil
	}
	return Hints{}, exercise.IllPosed("the hints hook must return a string, a list of strings or a per-field mapping, got %T", raw)
}

func hintMap(raw any) (map[string][]string, error) {
	out := map[string][]string{}
	switch m := raw.(type) {
	case map[string][]string:
		for k, v := range m {
			out[k] = append([]string(nil), v...)
		}
	case map[string]string:
		for k, v := range m {
			out[k] = []string{v}
		}
	case map[string]any:
		for k, v := range m {
			switch hv := v.(type) {
			case string:
				out[k] = []string{hv}
			case []string:
				out[k] = append([]string(nil), hv...)
			default:
				return nil, exercise.IllPosed("hints for field %q must be a string or list of strings, got %T", k, v)
			}
		}
	}
	return out, nil
}

// TrivialInput maps every field to its value type's trivial value.
func (e *Engine) TrivialInput() (map[string]any, error) {
	return resolve(&e.trivialInput, func() (map[string]any, error) {
		fields, err := e.Fields()
		if err != nil {
			return nil, err
		}
		input := make(map[string]any, len(fields))
		for _, f := range fields {
			input[f.Name] = f.Type.TrivialValue()
		}
		return input, nil
	})
}

// DummyInput maps every field to its value type's dummy value.
func (e *Engine) DummyInput() (map[string]any, error) {
	return resolve(&e.dummyInput, func() (map[string]any, error) {
		fields, err := e.Fields()
		if err != nil {
			return nil, err
		}
		input := make(map[string]any, len(fields))
		for _, f := range fields {
			input[f.Name] = f.Type.DummyValue()
		}
		return input, nil
	})
}

// ScoreWeights normalizes the definition's weight specification against
// the problem's input fields.
func (e *Engine) ScoreWeights() (map[string]float64, error) {
	return resolve(&e.scoreWeights, func() (map[string]float64, error) {
		problem, err := e.Model()
		if err != nil {
			return nil, err
		}
		return e.def.Weights.Normalize(problem.FieldNames())
	})
}

// SetAnswers stores an answer mapping on the problem's fields. Values
// that fail a field's normalization clear that field instead of failing
// the attempt: an unparseable submission is an empty answer.
func (e *Engine) SetAnswers(answers map[string]any) error {
	problem, err := e.Model()
	if err != nil {
		return err
	}
	for name, v := range answers {
		f, ok := problem.Field(name)
		if !ok {
			return exercise.IllPosed("answer for unknown input field %q", name)
		}
		if err := f.SetValue(v); err != nil {
			f.SetValue(nil)
		}
	}
	return nil
}

// Answers returns the current answer mapping; unanswered fields are nil.
func (e *Engine) Answers() (map[string]any, error) {
	problem, err := e.Model()
	if err != nil {
		return nil, err
	}
	return problem.Answers(), nil
}

// Feedback renders the feedback hook with the parameter sample and the
// submitted answers. Default: empty string.
func (e *Engine) Feedback() (string, error) {
	if e.def.Feedback == nil {
		return "", nil
	}
	params, err := e.Parameters()
	if err != nil {
		return "", err
	}
	answers, err := e.Answers()
	if err != nil {
		return "", err
	}
	bag := make(exercise.Args, len(params)+len(answers))
	for k, v := range params {
		bag[k] = v
	}
	for k, v := range answers {
		bag[k] = v
	}
	raw, err := e.def.Feedback.Call(bag)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", exercise.IllPosed("the feedback hook must return a string, got %T", raw)
	}
	return s, nil
}

// Summary collects the attempt's derived values for the structured log.
func (e *Engine) Summary() map[string]any {
	summary := map[string]any{
		"name":       e.def.Name,
		"difficulty": e.difficulty,
		"user":       e.UserName,
	}
	if params, err := e.Parameters(); err == nil {
		summary["parameters"] = params
	}
	if answers, err := e.Answers(); err == nil {
		summary["answers"] = answers
	}
	if scores, err := e.Scores(); err == nil {
		summary["scores"] = scores
	}
	if total, err := e.TotalScore(); err == nil {
		summary["total_score"] = total
	}
	if max, err := e.MaxTotalScore(); err == nil {
		summary["max_total_score"] = max
	}
	if correct, err := e.Correct(); err == nil {
		summary["correct"] = correct
	}
	return summary
}

// asArgs coerces the mapping shapes a hook may return.
func asArgs(raw any) (exercise.Args, error) {
	switch m := raw.(type) {
	case exercise.Args:
		return m, nil
	case map[string]any:
		return exercise.Args(m), nil
	}
	return nil, exercise.IllPosed("not a mapping: %T", raw)
}
