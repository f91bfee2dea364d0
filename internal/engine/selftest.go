package engine

import (
	"fmt"

	"github.com/moritz-zoellner/pyrope/internal/exercise"
)

// InputCombinations enumerates answer mappings for self-testing: per
// field the cartesian product of nil, the trivial value, the dummy value
// and the solution (where one exists).
func (e *Engine) InputCombinations() ([]map[string]any, error) {
	problem, err := e.Model()
	if err != nil {
		return nil, err
	}
	trivial, err := e.TrivialInput()
	if err != nil {
		return nil, err
	}
	dummy, err := e.DummyInput()
	if err != nil {
		return nil, err
	}
	solution, err := e.Solution()
	if err != nil {
		return nil, err
	}

	names := problem.FieldNames()
	factors := make([][]any, len(names))
	for i, name := range names {
		factor := []any{nil}
		for _, candidates := range []map[string]any{trivial, dummy, solution} {
			if v, ok := candidates[name]; ok && v != nil {
				factor = append(factor, v)
			}
		}
		factors[i] = factor
	}

	combos := []map[string]any{{}}
	for i, name := range names {
		next := make([]map[string]any, 0, len(combos)*len(factors[i]))
		for _, combo := range combos {
			for _, v := range factors[i] {
				extended := make(map[string]any, len(combo)+1)
				for k, cv := range combo {
					extended[k] = cv
				}
				if v != nil {
					extended[name] = v
				}
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos, nil
}

// SelfTest checks a definition's hook contracts over one parametrization:
// the model is well posed, every derived value resolves, memoized reads
// are stable, and for every generated input combination the scores stay
// within [0, max]. It runs a fresh engine per input combination, matching
// the one-attempt-one-engine rule.
func SelfTest(def *exercise.Definition, globals Globals) error {
	probe, err := New(def, globals, nil)
	if err != nil {
		return err
	}
	if _, err := probe.Parameters(); err != nil {
		return fmt.Errorf("parameters: %w", err)
	}
	if _, err := probe.Model(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if _, err := probe.Template(); err != nil {
		return fmt.Errorf("template: %w", err)
	}
	if _, err := probe.Preamble(); err != nil {
		return fmt.Errorf("preamble: %w", err)
	}
	if _, err := probe.HintList(); err != nil {
		return fmt.Errorf("hints: %w", err)
	}
	if _, err := probe.Solution(); err != nil {
		return fmt.Errorf("solution: %w", err)
	}
	if _, err := probe.ScoreWeights(); err != nil {
		return fmt.Errorf("score weights: %w", err)
	}
	if _, err := probe.MaxScores(); err != nil {
		return fmt.Errorf("max scores: %w", err)
	}

	// Memoized reads must be identical.
	first, _ := probe.Parameters()
	second, _ := probe.Parameters()
	if len(first) != len(second) {
		return fmt.Errorf("parameters changed between reads")
	}
	for k, v := range first {
		if fmt.Sprintf("%v", second[k]) != fmt.Sprintf("%v", v) {
			return fmt.Errorf("parameter %q changed between reads", k)
		}
	}

	combos, err := probe.InputCombinations()
	if err != nil {
		return fmt.Errorf("input combinations: %w", err)
	}
	// Each combination gets a fresh engine; its own parametrization
	// yields the matching solutions, so combinations are re-derived per
	// run and selected by index.
	for i := range combos {
		run, err := New(def, globals, nil)
		if err != nil {
			return err
		}
		runCombos, err := run.InputCombinations()
		if err != nil {
			return fmt.Errorf("input combinations: %w", err)
		}
		if i >= len(runCombos) {
			continue
		}
		combo := runCombos[i]
		if _, err := run.MaxScores(); err != nil {
			return fmt.Errorf("max scores for input %v: %w", combo, err)
		}
		if err := run.SetAnswers(combo); err != nil {
			return fmt.Errorf("set answers %v: %w", combo, err)
		}
		total, err := run.TotalScore()
		if err != nil {
			return fmt.Errorf("scores for input %v: %w", combo, err)
		}
		max, err := run.MaxTotalScore()
		if err != nil {
			return fmt.Errorf("max total score for input %v: %w", combo, err)
		}
		if total < 0 || total > max {
			return fmt.Errorf("total score %v outside [0, %v] for input %v", total, max, combo)
		}
		if _, err := run.Correct(); err != nil {
			return fmt.Errorf("correct for input %v: %w", combo, err)
		}
	}
	return nil
}
