package engine

import (
	"testing"

	"github.com/moritz-zoellner/pyrope/internal/exercise"
	"github.com/moritz-zoellner/pyrope/internal/model"
)

func TestInputCombinations_CartesianProduct(t *testing.T) {
	def := twoFieldDef(t, nil)
	e := mustEngine(t, def)

	combos, err := e.InputCombinations()
	if err != nil {
		t.Fatalf("input combinations: %v", err)
	}
	// Per field: empty, trivial (0), dummy (1) and solution, where the
	// solutions 1 and 2 collide with neither for field b and with the
	// dummy for field a.
	if len(combos) < 9 {
		t.Fatalf("combinations = %d, want at least 9", len(combos))
	}
	seenEmpty := false
	seenFull := false
	for _, combo := range combos {
		if len(combo) == 0 {
			seenEmpty = true
		}
		if combo["a"] == int64(1) && combo["b"] == int64(2) {
			seenFull = true
		}
	}
	if !seenEmpty {
		t.Error("missing the all-empty combination")
	}
	if !seenFull {
		t.Error("missing the full-solution combination")
	}
}

func TestSelfTest_WellPosedDefinition(t *testing.T) {
	def := twoFieldDef(t, nil)
	if err := SelfTest(def, DefaultGlobals()); err != nil {
		t.Fatalf("self test: %v", err)
	}
}

func TestSelfTest_ReportsIllPosedModel(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Problem = exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("<<orphan>> <<x>>", model.NewField("x", model.Integer{})), nil
		})
	})
	if err := SelfTest(def, DefaultGlobals()); err == nil {
		t.Fatal("expected self test failure for unresolvable output field")
	}
}

func TestSelfTest_ReportsScoreAboveMaximum(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.TheSolution = exercise.NewHook(func(exercise.Args) (any, error) {
			return 5, nil
		})
		// Scores above what the solution yields: the dummy answer gets
		// more points than the maximum.
		d.Scores = exercise.NewHook(func(kw exercise.Args) (any, error) {
			if kw["x"] == int64(5) {
				return 1.0, nil
			}
			return 2.0, nil
		}, exercise.P("x"))
	})
	if err := SelfTest(def, DefaultGlobals()); err == nil {
		t.Fatal("expected self test failure for score above maximum")
	}
}
