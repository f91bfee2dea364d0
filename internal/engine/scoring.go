package engine

import (
	"github.com/moritz-zoellner/pyrope/internal/exercise"
	"github.com/moritz-zoellner/pyrope/internal/model"
)

// The scores hook legally returns one of four shapes: nothing (automatic
// scoring), a bare number, a (score, max) pair, or a per-field mapping of
// numbers/pairs. scoreResult is the tagged union the scoring algorithm
// matches on; the shape is decided once per invocation.
type scoreKind int

const (
	scoreNone scoreKind = iota
	scoreNumber
	scorePair
	scoreMap
)

type fieldScore struct {
	kind   scoreKind
	number float64
	pair   exercise.Pair
}

type scoreResult struct {
	kind   scoreKind
	number float64
	pair   exercise.Pair
	fields map[string]fieldScore
}

// interpretScores classifies a raw hook return value. Anything outside
// the documented shapes is an ill-posed exercise, never coerced.
func interpretScores(raw any) (scoreResult, error) {
	if raw == nil {
		return scoreResult{kind: scoreNone}, nil
	}
	if n, ok := toFloat(raw); ok {
		return scoreResult{kind: scoreNumber, number: n}, nil
	}
	if p, ok := raw.(exercise.Pair); ok {
		return scoreResult{kind: scorePair, pair: p}, nil
	}
	fields, ok := scoreFieldMap(raw)
	if !ok {
		return scoreResult{}, exercise.IllPosed(
			"the scores hook must return a number, a pair of numbers or a mapping with values of these types, got %T", raw)
	}
	return scoreResult{kind: scoreMap, fields: fields}, nil
}

func scoreFieldMap(raw any) (map[string]fieldScore, bool) {
	out := map[string]fieldScore{}
	switch m := raw.(type) {
	case map[string]float64:
		for k, v := range m {
			out[k] = fieldScore{kind: scoreNumber, number: v}
		}
	case map[string]exercise.Pair:
		for k, v := range m {
			out[k] = fieldScore{kind: scorePair, pair: v}
		}
	case map[string]any, exercise.Args:
		var entries map[string]any
		if args, ok := m.(exercise.Args); ok {
			entries = map[string]any(args)
		} else {
			entries = m.(map[string]any)
		}
		for k, v := range entries {
			switch {
			case v == nil:
				out[k] = fieldScore{kind: scoreNone}
			default:
				if n, ok := toFloat(v); ok {
					out[k] = fieldScore{kind: scoreNumber, number: n}
				} else if p, ok := v.(exercise.Pair); ok {
					out[k] = fieldScore{kind: scorePair, pair: p}
				} else {
					return nil, false
				}
			}
		}
	default:
		return nil, false
	}
	return out, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// callScores invokes the scores hook with the parameter sample overlaid
// by the given answer mapping.
func (e *Engine) callScores(answers map[string]any) (scoreResult, error) {
	params, err := e.Parameters()
	if err != nil {
		return scoreResult{}, err
	}
	bag := make(exercise.Args, len(params)+len(answers))
	for k, v := range params {
		bag[k] = v
	}
	for k, v := range answers {
		bag[k] = v
	}
	raw, err := e.def.Scores.Call(bag)
	if err != nil {
		return scoreResult{}, err
	}
	return interpretScores(raw)
}

// MaxScores derives the per-field maximum scores without real answers by
// probing the scores hook with dummy values. Fields the hook does not
// address fall back to their automatic maximum. Entries are nil where no
// per-field maximum exists (joint scoring over several fields).
func (e *Engine) MaxScores() (map[string]*float64, error) {
	return resolve(&e.maxScores, func() (map[string]*float64, error) {
		solution, err := e.Solution()
		if err != nil {
			return nil, err
		}
		problem, err := e.Model()
		if err != nil {
			return nil, err
		}
		weights, err := e.ScoreWeights()
		if err != nil {
			return nil, err
		}
		names := problem.FieldNames()

		probe := scoreResult{kind: scoreNone}
		if e.def.Scores != nil {
			dummy, err := e.DummyInput()
			if err != nil {
				return nil, err
			}
			probe, err = e.callScores(dummy)
			if err != nil {
				return nil, err
			}
		}

		switch probe.kind {
		case scoreNone:
			maxScores := make(map[string]*float64, len(names))
			total := 0.0
			for _, name := range names {
				f, _ := problem.Field(name)
				max := f.AutoMaxScore() * weights[name]
				maxScores[name] = &max
				f.DisplayedMaxScore = &max
				total += max
			}
			e.maxTotalScore = total
			return maxScores, nil

		case scorePair:
			uniform, err := e.def.Weights.UniformValue()
			if err != nil {
				return nil, err
			}
			e.maxTotalScore = probe.pair.Max * uniform
			return e.jointMaxScores(problem, names)

		case scoreNumber:
			// A bare number carries no maximum, so re-invoke the hook
			// with the full solution as the answer.
			for _, name := range names {
				if _, ok := solution[name]; !ok {
					return nil, exercise.IllPosed(
						"unable to determine a maximal total score: no solution for input field %q", name)
				}
			}
			res, err := e.callScores(solution)
			if err != nil {
				return nil, err
			}
			if res.kind != scoreNumber {
				return nil, exercise.IllPosed(
					"the scores hook changed shape between dummy and solution invocations")
			}
			uniform, err := e.def.Weights.UniformValue()
			if err != nil {
				return nil, err
			}
			e.maxTotalScore = res.number * uniform
			return e.jointMaxScores(problem, names)

		case scoreMap:
			// Score the solution where one exists, a dummy elsewhere, to
			// discover which fields the hook addresses.
			dummy, err := e.DummyInput()
			if err != nil {
				return nil, err
			}
			answer := make(map[string]any, len(names))
			for _, name := range names {
				if v, ok := solution[name]; ok {
					answer[name] = v
				} else {
					answer[name] = dummy[name]
				}
			}
			res, err := e.callScores(answer)
			if err != nil {
				return nil, err
			}
			if res.kind != scoreMap {
				return nil, exercise.IllPosed(
					"the scores hook changed shape between dummy and solution invocations")
			}

			maxScores := make(map[string]*float64, len(names))
			total := 0.0
			for _, name := range names {
				f, _ := problem.Field(name)
				entry, addressed := res.fields[name]
				_, solved := solution[name]

				var max float64
				switch {
				case !addressed || entry.kind == scoreNone:
					max = f.AutoMaxScore()
				case entry.kind == scorePair:
					// A pair carries its maximum explicitly, so it is
					// trusted even when scored against a dummy.
					max = entry.pair.Max
				case !solved:
					// A bare number produced from a dummy answer says
					// nothing about the maximum.
					max = f.AutoMaxScore()
				default:
					max = entry.number
				}
				max *= weights[name]
				maxScores[name] = &max
				f.DisplayedMaxScore = &max
				total += max
			}
			e.maxTotalScore = total
			return maxScores, nil
		}
		return nil, exercise.IllPosed("unreachable scores shape")
	})
}

// jointMaxScores reports the per-field view of a joint maximum: the
// single field carries the total, several fields carry nil.
func (e *Engine) jointMaxScores(problem *model.Problem, names []string) (map[string]*float64, error) {
	maxScores := make(map[string]*float64, len(names))
	if len(names) == 1 {
		f, _ := problem.Field(names[0])
		max := e.maxTotalScore
		maxScores[names[0]] = &max
		f.DisplayedMaxScore = &max
		return maxScores, nil
	}
	for _, name := range names {
		maxScores[name] = nil
	}
	return maxScores, nil
}

// Scores grades the submitted answers. The answer bag handed to the hook
// overlays, in increasing precedence, the hook's declared field defaults,
// the non-empty real answers, and dummy fill values for whatever remains
// unanswered. A joint result (bare number or pair over several fields)
// requires every field to have a real answer, otherwise the total is
// forced to 0 and every per-field score stays nil.
func (e *Engine) Scores() (map[string]*float64, error) {
	return resolve(&e.scores, func() (map[string]*float64, error) {
		// Solutions must be resolved before automatic scoring can compare
		// answers against them.
		if _, err := e.Solution(); err != nil {
			return nil, err
		}
		problem, err := e.Model()
		if err != nil {
			return nil, err
		}
		weights, err := e.ScoreWeights()
		if err != nil {
			return nil, err
		}
		names := problem.FieldNames()

		answered := map[string]any{}
		for name, v := range problem.Answers() {
			if v != nil {
				answered[name] = v
			}
		}
		noScores := make(map[string]*float64, len(names))
		for _, name := range names {
			noScores[name] = nil
		}

		probe := scoreResult{kind: scoreNone}
		if e.def.Scores != nil {
			dummy, err := e.DummyInput()
			if err != nil {
				return nil, err
			}
			probe, err = e.callScores(dummy)
			if err != nil {
				return nil, err
			}
		}

		// Joint scoring (bare number or pair): all-or-nothing, every
		// field needs a real answer. A single field carries the joint
		// score itself.
		if probe.kind == scoreNumber || probe.kind == scorePair {
			if len(answered) != len(names) {
				e.totalScore = 0.0
				return noScores, nil
			}
			res, err := e.callScores(answered)
			if err != nil {
				return nil, err
			}
			var score float64
			switch res.kind {
			case scoreNumber:
				score = res.number
			case scorePair:
				score = res.pair.Score
			default:
				return nil, exercise.IllPosed(
					"the scores hook changed shape between dummy and answer invocations")
			}
			uniform, err := e.def.Weights.UniformValue()
			if err != nil {
				return nil, err
			}
			e.totalScore = score * uniform
			if len(names) == 1 {
				f, _ := problem.Field(names[0])
				total := e.totalScore
				f.DisplayedScore = &total
				scores := map[string]*float64{names[0]: &total}
				return scores, nil
			}
			return noScores, nil
		}

		// Per-field scoring: defaults < real answers < dummy fill.
		answers := map[string]any{}
		if e.def.Scores != nil {
			for name, v := range e.def.Scores.FieldDefaults(names) {
				answers[name] = v
			}
		}
		for name, v := range answered {
			answers[name] = v
		}
		filled := map[string]bool{}
		if e.def.Scores != nil {
			dummy, err := e.DummyInput()
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				if _, ok := answers[name]; !ok {
					answers[name] = dummy[name]
					filled[name] = true
				}
			}
		}

		resolved := make(map[string]*float64, len(names))
		for _, name := range names {
			resolved[name] = nil
		}

		if e.def.Scores != nil {
			res, err := e.callScores(answers)
			if err != nil {
				return nil, err
			}
			switch res.kind {
			case scoreNumber, scorePair:
				return nil, exercise.IllPosed(
					"the scores hook changed shape between dummy and answer invocations")
			case scoreMap:
				for _, name := range names {
					entry, ok := res.fields[name]
					if !ok || entry.kind == scoreNone {
						continue
					}
					var score float64
					switch {
					case filled[name]:
						// The hook scored a dummy fill value; the field
						// was never really answered.
						score = 0.0
					case entry.kind == scorePair:
						score = entry.pair.Score
					default:
						score = entry.number
					}
					resolved[name] = &score
				}
			case scoreNone:
				// Fall through to automatic scoring.
			}
		}

		total := 0.0
		for _, name := range names {
			f, _ := problem.Field(name)
			var score float64
			if resolved[name] == nil {
				score = f.AutoScore()
			} else {
				score = *resolved[name]
			}
			score *= weights[name]
			resolved[name] = &score
			f.DisplayedScore = &score
			total += score
		}
		e.totalScore = total
		return resolved, nil
	})
}

// TotalScore is the weighted sum of per-field scores, or the joint score.
func (e *Engine) TotalScore() (float64, error) {
	if _, err := e.Scores(); err != nil {
		return 0, err
	}
	return e.totalScore, nil
}

// MaxTotalScore is the weighted sum of per-field maxima, or the joint
// maximum.
func (e *Engine) MaxTotalScore() (float64, error) {
	if _, err := e.MaxScores(); err != nil {
		return 0, err
	}
	return e.maxTotalScore, nil
}

// Correct reports, per field, whether the score equals the maximum score.
// A field with either value unresolved stays nil.
func (e *Engine) Correct() (map[string]*bool, error) {
	return resolve(&e.correct, func() (map[string]*bool, error) {
		maxScores, err := e.MaxScores()
		if err != nil {
			return nil, err
		}
		scores, err := e.Scores()
		if err != nil {
			return nil, err
		}
		problem, err := e.Model()
		if err != nil {
			return nil, err
		}
		correct := map[string]*bool{}
		for _, name := range problem.FieldNames() {
			f, _ := problem.Field(name)
			if f.Correct == nil && scores[name] != nil && maxScores[name] != nil {
				c := *scores[name] == *maxScores[name]
				f.Correct = &c
			}
			correct[name] = f.Correct
		}
		return correct, nil
	})
}
