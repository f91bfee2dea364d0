package engine

import (
	"testing"

	"github.com/moritz-zoellner/pyrope/internal/exercise"
	"github.com/moritz-zoellner/pyrope/internal/model"
)

func twoFieldDef(t *testing.T, opts func(*exercise.Definition)) *exercise.Definition {
	t.Helper()
	d := exercise.Definition{
		Name: "pair",
		Problem: exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("<<a>> <<b>>",
				model.NewField("a", model.Integer{}),
				model.NewField("b", model.Integer{}),
			), nil
		}),
		TheSolution: exercise.NewHook(func(exercise.Args) (any, error) {
			return map[string]any{"a": 1, "b": 2}, nil
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

func answer(t *testing.T, e *Engine, answers map[string]any) {
	t.Helper()
	if err := e.SetAnswers(answers); err != nil {
		t.Fatalf("set answers: %v", err)
	}
}

func TestAutoScoring_CorrectAnswer(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.TheSolution = exercise.NewHook(func(exercise.Args) (any, error) {
			return 5, nil
		})
	})
	e := mustEngine(t, def)
	answer(t, e, map[string]any{"x": "5"})

	scores, err := e.Scores()
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if scores["x"] == nil || *scores["x"] != 1.0 {
		t.Errorf("score = %v, want 1", scores["x"])
	}
	total, _ := e.TotalScore()
	max, _ := e.MaxTotalScore()
	if total != 1.0 || max != 1.0 {
		t.Errorf("total = %v / %v, want 1 / 1", total, max)
	}

	correct, err := e.Correct()
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	if correct["x"] == nil || !*correct["x"] {
		t.Errorf("correct = %v, want true", correct["x"])
	}
}

func TestAutoScoring_WrongAndMissingAnswer(t *testing.T) {
	for _, tt := range []struct {
		name    string
		answers map[string]any
	}{
		{"wrong", map[string]any{"x": 6}},
		{"missing", nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			def := singleFieldDef(t, func(d *exercise.Definition) {
				d.TheSolution = exercise.NewHook(func(exercise.Args) (any, error) {
					return 5, nil
				})
			})
			e := mustEngine(t, def)
			if tt.answers != nil {
				answer(t, e, tt.answers)
			}
			total, err := e.TotalScore()
			if err != nil {
				t.Fatalf("total score: %v", err)
			}
			if total != 0 {
				t.Errorf("total = %v, want 0", total)
			}
			correct, _ := e.Correct()
			if correct["x"] == nil || *correct["x"] {
				t.Errorf("correct = %v, want false", correct["x"])
			}
		})
	}
}

func TestAutoScoring_PointsScale(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Problem = exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("<<x>>", model.NewField("x", model.Integer{Points: 10})), nil
		})
		d.TheSolution = exercise.NewHook(func(exercise.Args) (any, error) {
			return 5, nil
		})
	})
	e := mustEngine(t, def)
	answer(t, e, map[string]any{"x": 5})

	total, err := e.TotalScore()
	if err != nil {
		t.Fatalf("total score: %v", err)
	}
	max, _ := e.MaxTotalScore()
	if total != 10 || max != 10 {
		t.Errorf("total = %v / %v, want 10 / 10", total, max)
	}
}

func TestWeightedAutoScoring(t *testing.T) {
	def := twoFieldDef(t, func(d *exercise.Definition) {
		d.Weights = exercise.FieldWeights(map[string]float64{"a": 2})
	})
	e := mustEngine(t, def)
	answer(t, e, map[string]any{"a": 1})

	scores, err := e.Scores()
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if *scores["a"] != 2.0 || *scores["b"] != 0.0 {
		t.Errorf("scores = a:%v b:%v, want a:2 b:0", *scores["a"], *scores["b"])
	}
	max, _ := e.MaxTotalScore()
	if max != 3.0 {
		t.Errorf("max total = %v, want 3", max)
	}
	total, _ := e.TotalScore()
	if total != 2.0 {
		t.Errorf("total = %v, want 2", total)
	}
}

func TestUniformWeightBroadcast(t *testing.T) {
	def := twoFieldDef(t, func(d *exercise.Definition) {
		d.Weights = exercise.UniformWeight(2)
	})
	e := mustEngine(t, def)
	answer(t, e, map[string]any{"a": 1, "b": 2})

	total, err := e.TotalScore()
	if err != nil {
		t.Fatalf("total score: %v", err)
	}
	max, _ := e.MaxTotalScore()
	if total != 4.0 || max != 4.0 {
		t.Errorf("total = %v / %v, want 4 / 4", total, max)
	}
}

func TestCustomNumberHook_SingleField(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.TheSolution = exercise.NewHook(func(exercise.Args) (any, error) {
			return 5, nil
		})
		d.Scores = exercise.NewHook(func(kw exercise.Args) (any, error) {
			if kw["x"] == int64(5) {
				return 10.0, nil
			}
			return 0.0, nil
		}, exercise.P("x"))
	})

	e := mustEngine(t, def)
	answer(t, e, map[string]any{"x": 5})

	max, err := e.MaxTotalScore()
	if err != nil {
		t.Fatalf("max total: %v", err)
	}
	if max != 10.0 {
		t.Errorf("max total = %v, want 10 (hook invoked with the solution)", max)
	}
	total, _ := e.TotalScore()
	if total != 10.0 {
		t.Errorf("total = %v, want 10", total)
	}
	scores, _ := e.Scores()
	if scores["x"] == nil || *scores["x"] != 10.0 {
		t.Errorf("score = %v, want 10", scores["x"])
	}
}

func TestJointScoring_AllOrNothing(t *testing.T) {
	def := twoFieldDef(t, func(d *exercise.Definition) {
		d.Scores = exercise.NewHook(func(kw exercise.Args) (any, error) {
			if kw["a"] == int64(1) && kw["b"] == int64(2) {
				return 3.0, nil
			}
			return 0.0, nil
		}, exercise.P("a"), exercise.P("b"))
	})

	t.Run("both answered correctly", func(t *testing.T) {
		e := mustEngine(t, def)
		answer(t, e, map[string]any{"a": 1, "b": 2})
		total, err := e.TotalScore()
		if err != nil {
			t.Fatalf("total: %v", err)
		}
		if total != 3.0 {
			t.Errorf("total = %v, want 3", total)
		}
		scores, _ := e.Scores()
		if scores["a"] != nil || scores["b"] != nil {
			t.Error("joint scoring must leave per-field scores unresolved")
		}
	})

	t.Run("one field unanswered forces zero", func(t *testing.T) {
		e := mustEngine(t, def)
		answer(t, e, map[string]any{"a": 1})
		total, err := e.TotalScore()
		if err != nil {
			t.Fatalf("total: %v", err)
		}
		if total != 0.0 {
			t.Errorf("total = %v, want 0", total)
		}
		correct, _ := e.Correct()
		if correct["a"] != nil || correct["b"] != nil {
			t.Error("correctness must stay unresolved under joint scoring")
		}
	})

	t.Run("max total from solution invocation", func(t *testing.T) {
		e := mustEngine(t, def)
		max, err := e.MaxTotalScore()
		if err != nil {
			t.Fatalf("max total: %v", err)
		}
		if max != 3.0 {
			t.Errorf("max total = %v, want 3", max)
		}
		maxScores, _ := e.MaxScores()
		if maxScores["a"] != nil || maxScores["b"] != nil {
			t.Error("joint maximum must leave per-field maxima unresolved")
		}
	})
}

func TestJointScoring_SingleFieldUnansweredForcesZero(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.TheSolution = exercise.NewHook(func(exercise.Args) (any, error) {
			return 5, nil
		})
		d.Scores = exercise.NewHook(func(exercise.Args) (any, error) {
			return 7.0, nil
		})
	})

	e := mustEngine(t, def)
	total, err := e.TotalScore()
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 0.0 {
		t.Errorf("total = %v, want 0 without a real answer", total)
	}
	scores, _ := e.Scores()
	if scores["x"] != nil {
		t.Errorf("score = %v, want unresolved", *scores["x"])
	}
}

func TestJointScoring_DivergingWeightsIllPosed(t *testing.T) {
	def := twoFieldDef(t, func(d *exercise.Definition) {
		d.Weights = exercise.FieldWeights(map[string]float64{"a": 2, "b": 1})
		d.Scores = exercise.NewHook(func(exercise.Args) (any, error) {
			return 3.0, nil
		})
	})

	e := mustEngine(t, def)
	if _, err := e.MaxTotalScore(); err == nil {
		t.Fatal("expected error for joint scoring with diverging weights")
	}
}

func TestScoreMapHook(t *testing.T) {
	def := twoFieldDef(t, func(d *exercise.Definition) {
		d.Scores = exercise.NewHook(func(kw exercise.Args) (any, error) {
			var sa float64
			if kw["a"] == int64(1) {
				sa = 2.0
			}
			var sb float64
			if kw["b"] == int64(2) {
				sb = 1.0
			}
			return exercise.Args{
				"a": exercise.Pair{Score: sa, Max: 2},
				"b": sb,
			}, nil
		}, exercise.P("a"), exercise.P("b"))
	})

	e := mustEngine(t, def)
	answer(t, e, map[string]any{"a": 1})

	// a is a pair, so its maximum is trusted; b is a bare number scored
	// against the solution.
	max, err := e.MaxTotalScore()
	if err != nil {
		t.Fatalf("max total: %v", err)
	}
	if max != 3.0 {
		t.Errorf("max total = %v, want 3", max)
	}

	scores, err := e.Scores()
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if scores["a"] == nil || *scores["a"] != 2.0 {
		t.Errorf("score a = %v, want 2", scores["a"])
	}
	// b was never answered; its dummy fill value must not score.
	if scores["b"] == nil || *scores["b"] != 0.0 {
		t.Errorf("score b = %v, want 0", scores["b"])
	}
	total, _ := e.TotalScore()
	if total != 2.0 {
		t.Errorf("total = %v, want 2", total)
	}

	correct, _ := e.Correct()
	if correct["a"] == nil || !*correct["a"] {
		t.Errorf("correct a = %v, want true", correct["a"])
	}
	if correct["b"] == nil || *correct["b"] {
		t.Errorf("correct b = %v, want false", correct["b"])
	}
}

func TestScoreMapHook_UnknownShapeIllPosed(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.TheSolution = exercise.NewHook(func(exercise.Args) (any, error) {
			return 5, nil
		})
		d.Scores = exercise.NewHook(func(exercise.Args) (any, error) {
			return "lots of points", nil
		})
	})

	e := mustEngine(t, def)
	if _, err := e.Scores(); err == nil {
		t.Fatal("expected error for a scores hook returning a string")
	}
}

func TestNoFields_ZeroTotals(t *testing.T) {
	def := singleFieldDef(t, func(d *exercise.Definition) {
		d.Problem = exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("nothing to answer"), nil
		})
	})
	e := mustEngine(t, def)

	total, err := e.TotalScore()
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	max, err := e.MaxTotalScore()
	if err != nil {
		t.Fatalf("max total: %v", err)
	}
	if total != 0 || max != 0 {
		t.Errorf("totals = %v / %v, want 0 / 0", total, max)
	}
}
