package engine

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/moritz-zoellner/pyrope/internal/exercise"
	"github.com/moritz-zoellner/pyrope/internal/model"
)

func mustEngine(t *testing.T, def *exercise.Definition) *Engine {
	t.Helper()
	e, err := New(def, DefaultGlobals(), nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func singleFieldDef(t *testing.T, opts func(*exercise.Definition)) *exercise.Definition {
	t.Helper()
	d := exercise.Definition{
		Name: "single",
		Problem: exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("x = <<x>>", model.NewField("x", model.Integer{})), nil
		}),
	}
	if opts != nil {
		opts(&d)
	}
	def, err := exercise.New(d)
	if err != nil {
		t.Fatalf("new definition: %v", err)
	}
	return def
}

func TestParameters_ForcedDifficulty(t *testing.T) {
	var seen float64
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Parameters = exercise.NewHook(func(kw exercise.Args) (any, error) {
			seen = kw["difficulty"].(float64)
			return exercise.Args{}, nil
		}, exercise.P("difficulty"))
	})

	forced := 0.3
	e, err := New(def, DefaultGlobals(), &forced)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := e.Parameters(); err != nil {
		t.Fatalf("parameters: %v", err)
	}
	if seen != 0.3 || e.Difficulty() != 0.3 {
		t.Errorf("difficulty = %v (hook saw %v), want 0.3", e.Difficulty(), seen)
	}
}

func TestParameters_SampledWithinBounds(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.MinDifficulty = exercise.Float(0.2)
		d.MaxDifficulty = exercise.Float(0.4)
		d.Parameters = exercise.NewHook(func(kw exercise.Args) (any, error) {
			return exercise.Args{}, nil
		})
	})

	globals := DefaultGlobals()
	globals.Rand = rand.New(rand.NewPCG(1, 2))
	for range 20 {
		e, err := New(def, globals, nil)
		if err != nil {
			t.Fatalf("new engine: %v", err)
		}
		if _, err := e.Parameters(); err != nil {
			t.Fatalf("parameters: %v", err)
		}
		if d := e.Difficulty(); d < 0.2 || d > 0.4 {
			t.Fatalf("difficulty %v outside definition bounds [0.2, 0.4]", d)
		}
	}
}

func TestParameters_OutOfRangeForcedDifficulty(t *testing.T) {
	def := singleFieldDef(t, nil)
	forced := 1.5
	if _, err := New(def, DefaultGlobals(), &forced); err == nil {
		t.Fatal("expected error for difficulty outside [0, 1]")
	}
}

func TestParameters_MemoizedDespiteStochasticHook(t *testing.T) {
	calls := 0
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Parameters = exercise.NewHook(func(exercise.Args) (any, error) {
			calls++
			return exercise.Args{"n": rand.IntN(1 << 30)}, nil
		})
	})

	e := mustEngine(t, def)
	first, err := e.Parameters()
	if err != nil {
		t.Fatalf("parameters: %v", err)
	}
	second, err := e.Parameters()
	if err != nil {
		t.Fatalf("parameters: %v", err)
	}
	if calls != 1 {
		t.Errorf("parameters hook called %d times, want 1", calls)
	}
	if first["n"] != second["n"] {
		t.Error("memoized parameters changed between reads")
	}
}

func TestModel_OutputFieldWithoutParameter(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Problem = exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("<<missing>> and <<x>>", model.NewField("x", model.Integer{})), nil
		})
	})

	e := mustEngine(t, def)
	_, err := e.Model()
	var illPosed *exercise.IllPosedError
	if !errors.As(err, &illPosed) {
		t.Fatalf("Model error = %v, want IllPosedError", err)
	}
}

func TestTemplate_RendersParameters(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Parameters = exercise.NewHook(func(exercise.Args) (any, error) {
			return exercise.Args{"a": 7}, nil
		})
		d.Problem = exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("<<a>> + <<x>>", model.NewField("x", model.Integer{})), nil
		})
	})

	e := mustEngine(t, def)
	got, err := e.Template()
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if got != "7 + <<x>>" {
		t.Errorf("Template = %q, want %q", got, "7 + <<x>>")
	}
}

func TestTheSolution_BareValueSingleField(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.TheSolution = exercise.NewHook(func(exercise.Args) (any, error) {
			return 42, nil
		})
	})

	e := mustEngine(t, def)
	sol, err := e.TheSolution()
	if err != nil {
		t.Fatalf("the solution: %v", err)
	}
	if sol["x"] != int64(42) {
		t.Errorf("solution = %v, want x:42", sol)
	}
}

func TestTheSolution_BareValueMultiFieldIllPosed(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Problem = exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("<<x>> <<y>>",
				model.NewField("x", model.Integer{}),
				model.NewField("y", model.Integer{}),
			), nil
		})
		d.TheSolution = exercise.NewHook(func(exercise.Args) (any, error) {
			return 42, nil
		})
	})

	e := mustEngine(t, def)
	if _, err := e.TheSolution(); err == nil {
		t.Fatal("expected error for bare solution with several fields")
	}
}

func TestTheSolution_ImplicitUnderscoreConvention(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Parameters = exercise.NewHook(func(exercise.Args) (any, error) {
			return exercise.Args{"q": 3}, nil
		})
		d.Problem = exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("<<q_>>", model.NewField("q_", model.Integer{})), nil
		})
	})

	e := mustEngine(t, def)
	sol, err := e.TheSolution()
	if err != nil {
		t.Fatalf("the solution: %v", err)
	}
	if sol["q_"] != int64(3) {
		t.Errorf("solution = %v, want q_:3", sol)
	}
}

func TestTheSolution_ExplicitBeatsImplicit(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Parameters = exercise.NewHook(func(exercise.Args) (any, error) {
			return exercise.Args{"q": 3}, nil
		})
		d.Problem = exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("<<q_>>", model.NewField("q_", model.Integer{})), nil
		})
		d.TheSolution = exercise.NewHook(func(exercise.Args) (any, error) {
			return map[string]any{"q_": 9}, nil
		})
	})

	e := mustEngine(t, def)
	sol, err := e.TheSolution()
	if err != nil {
		t.Fatalf("the solution: %v", err)
	}
	if sol["q_"] != int64(9) {
		t.Errorf("solution = %v, want explicit q_:9", sol)
	}
}

func TestSolution_ReferenceBeatsNonUnique(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.TheSolution = exercise.NewHook(func(exercise.Args) (any, error) {
			return 5, nil
		})
		d.ASolution = exercise.NewHook(func(exercise.Args) (any, error) {
			return 7, nil
		})
	})

	e := mustEngine(t, def)
	sol, err := e.Solution()
	if err != nil {
		t.Fatalf("solution: %v", err)
	}
	if sol["x"] != int64(5) {
		t.Errorf("solution = %v, want reference 5", sol)
	}
}

func TestHints_Normalization(t *testing.T) {
	singleString := singleFieldDef(t, func(d *exercise.Definition) {
		d.Hints = exercise.NewHook(func(exercise.Args) (any, error) {
			return "try harder", nil
		})
	})
	e := mustEngine(t, singleString)
	h, err := e.HintList()
	if err != nil {
		t.Fatalf("hints: %v", err)
	}
	if len(h.General) != 1 || h.General[0] != "try harder" {
		t.Errorf("hints = %+v, want one general hint", h)
	}

	perField := singleFieldDef(t, func(d *exercise.Definition) {
		d.Problem = exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("<<x>> <<y>>",
				model.NewField("x", model.Integer{}),
				model.NewField("y", model.Integer{}),
			), nil
		})
		d.Hints = exercise.NewHook(func(exercise.Args) (any, error) {
			return map[string]any{"x": "first", "y": []string{"a", "b"}}, nil
		})
	})
	e = mustEngine(t, perField)
	h, err = e.HintList()
	if err != nil {
		t.Fatalf("hints: %v", err)
	}
	if len(h.PerField["x"]) != 1 || len(h.PerField["y"]) != 2 {
		t.Errorf("per-field hints = %+v", h)
	}
}

func TestHints_SingleFieldMapCollapsesToGeneral(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Hints = exercise.NewHook(func(exercise.Args) (any, error) {
			return map[string]any{"x": "just one"}, nil
		})
	})
	e := mustEngine(t, def)
	h, err := e.HintList()
	if err != nil {
		t.Fatalf("hints: %v", err)
	}
	if len(h.General) != 1 || h.PerField != nil {
		t.Errorf("hints = %+v, want collapsed general hint", h)
	}
}

func TestSetAnswers_UnparseableClearsField(t *testing.T) {
	def := singleFieldDef(t, nil)
	e := mustEngine(t, def)

	if err := e.SetAnswers(map[string]any{"x": "5"}); err != nil {
		t.Fatalf("set answers: %v", err)
	}
	answers, _ := e.Answers()
	if answers["x"] != int64(5) {
		t.Fatalf("answer = %v, want 5", answers["x"])
	}

	if err := e.SetAnswers(map[string]any{"x": "not a number"}); err != nil {
		t.Fatalf("set answers: %v", err)
	}
	answers, _ = e.Answers()
	if answers["x"] != nil {
		t.Errorf("answer = %v, want cleared", answers["x"])
	}
}

func TestSetAnswers_UnknownFieldFails(t *testing.T) {
	e := mustEngine(t, singleFieldDef(t, nil))
	if err := e.SetAnswers(map[string]any{"nope": 1}); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestTrivialAndDummyInput(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Problem = exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("<<n>> <<s>>",
				model.NewField("n", model.Integer{}),
				model.NewField("s", model.Text{}),
			), nil
		})
	})
	e := mustEngine(t, def)

	trivial, err := e.TrivialInput()
	if err != nil {
		t.Fatalf("trivial input: %v", err)
	}
	if trivial["n"] != int64(0) || trivial["s"] != "" {
		t.Errorf("trivial = %v", trivial)
	}

	dummy, err := e.DummyInput()
	if err != nil {
		t.Fatalf("dummy input: %v", err)
	}
	if dummy["n"] != int64(1) || dummy["s"] != "x" {
		t.Errorf("dummy = %v", dummy)
	}
}

func TestFeedback_SeesParametersAndAnswers(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Parameters = exercise.NewHook(func(exercise.Args) (any, error) {
			return exercise.Args{"target": 5}, nil
		})
		d.Feedback = exercise.NewHook(func(kw exercise.Args) (any, error) {
			if kw["x"] == int64(5) && kw["target"] == 5 {
				return "spot on", nil
			}
			return "nope", nil
		}, exercise.P("target"), exercise.PD("x", nil))
	})
	e := mustEngine(t, def)

	if err := e.SetAnswers(map[string]any{"x": 5}); err != nil {
		t.Fatalf("set answers: %v", err)
	}
	got, err := e.Feedback()
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if got != "spot on" {
		t.Errorf("Feedback = %q, want %q", got, "spot on")
	}
}
