// Package examples ships a handful of built-in exercise definitions.
// They double as living documentation for the hook surface: static
// problems, parametrized problems, implicit solutions, custom scoring
// and joint scoring all appear here.
package examples

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/moritz-zoellner/pyrope/internal/exercise"
	"github.com/moritz-zoellner/pyrope/internal/model"
	"github.com/moritz-zoellner/pyrope/internal/pool"
)

// FortyTwo is the smallest possible exercise: a static problem with a
// single field and a bare-value solution.
func FortyTwo() *exercise.Definition {
	return exercise.MustNew(exercise.Definition{
		Name:   "forty-two",
		Source: "forty-two v1: the answer to everything is 42",
		Meta: exercise.Metadata{
			Title:    "The Answer",
			Language: "en",
		},
		Problem: exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem(
				"What is the answer to the ultimate question of life, "+
					"the universe and everything? <<answer>>",
				model.NewField("answer", model.Natural{}),
			), nil
		}),
		TheSolution: exercise.NewHook(func(exercise.Args) (any, error) {
			return 42, nil
		}),
		Feedback: exercise.NewHook(func(exercise.Args) (any, error) {
			return "Don't panic.", nil
		}),
	})
}

// FreeLunch has no input fields at all. Everyone gets the maximum total
// score of zero.
func FreeLunch() *exercise.Definition {
	return exercise.MustNew(exercise.Definition{
		Name:   "free-lunch",
		Source: "free-lunch v1: nothing to answer",
		Meta: exercise.Metadata{
			Title:    "Free Lunch",
			Language: "en",
		},
		Preamble: exercise.NewHook(func(exercise.Args) (any, error) {
			return "Sit back and relax.", nil
		}),
		Problem: exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem("There is nothing to do here."), nil
		}),
	})
}

// Division asks for quotient and remainder of a random integer
// division. The solutions come from the parameter sample via the
// trailing underscore convention, so no solution hook is needed.
func Division() *exercise.Definition {
	return exercise.MustNew(exercise.Definition{
		Name:   "integer-division",
		Source: "integer-division v1: quotient and remainder of a/b",
		Meta: exercise.Metadata{
			Title:    "Integer Division",
			Language: "en",
			Topics:   []string{"arithmetic"},
			Taxonomy: []string{"application"},
		},
		Parameters: exercise.NewHook(func(kw exercise.Args) (any, error) {
			difficulty := kw["difficulty"].(float64)
			// operand size grows with difficulty
			limit := 10 + int(difficulty*990)
			b := 2 + rand.IntN(8)
			a := rand.IntN(limit)
			return exercise.Args{
				"a":         a,
				"b":         b,
				"quotient":  a / b,
				"remainder": a % b,
			}, nil
		}, exercise.P("difficulty")),
		Problem: exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem(
				`
				Divide <<a>> by <<b>> with remainder.

				Quotient: <<quotient_>>
				Remainder: <<remainder_>>
				`,
				model.NewField("quotient_", model.Natural{}),
				model.NewField("remainder_", model.Natural{}),
			), nil
		}),
	})
}

// Factorization asks for the prime factorization of p*q as free text
// and grades it with a custom scores hook that accepts the factors in
// either order.
func Factorization() *exercise.Definition {
	primes := []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}

	return exercise.MustNew(exercise.Definition{
		Name:   "factorization",
		Source: "factorization v1: prime factorization of p*q",
		Meta: exercise.Metadata{
			Title:    "Prime Factorization",
			Language: "en",
			Topics:   []string{"number theory"},
			Taxonomy: []string{"analysis"},
		},
		Parameters: exercise.NewHook(func(exercise.Args) (any, error) {
			i := rand.IntN(len(primes))
			j := rand.IntN(len(primes) - 1)
			if j >= i {
				j++
			}
			p, q := primes[i], primes[j]
			return exercise.Args{"p": p, "q": q, "n": p * q}, nil
		}),
		Problem: exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem(
				"Write <<n>> as a product of two primes, e.g. 3*5: <<factorization>>",
				model.NewField("factorization", model.Text{}),
			), nil
		}),
		TheSolution: exercise.NewHook(func(kw exercise.Args) (any, error) {
			return fmt.Sprintf("%d*%d", kw["p"], kw["q"]), nil
		}, exercise.P("p"), exercise.P("q")),
		Scores: exercise.NewHook(func(kw exercise.Args) (any, error) {
			want := []int{kw["p"].(int), kw["q"].(int)}
			got, err := parseFactors(kw["factorization"])
			if err != nil {
				return 0.0, nil
			}
			sort.Ints(want)
			sort.Ints(got)
			if len(got) == 2 && got[0] == want[0] && got[1] == want[1] {
				return 2.0, nil
			}
			return 0.0, nil
		}, exercise.P("p"), exercise.P("q"), exercise.PD("factorization", "")),
	})
}

func parseFactors(v any) ([]int, error) {
	s, _ := v.(string)
	parts := strings.Split(s, "*")
	factors := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		factors = append(factors, n)
	}
	return factors, nil
}

// LinearSystem asks for a solution of a small linear system and grades
// both fields jointly: the full score is awarded only when both
// equations hold at once.
func LinearSystem() *exercise.Definition {
	return exercise.MustNew(exercise.Definition{
		Name:   "linear-system",
		Source: "linear-system v1: solve x+y=s, x-y=d",
		Meta: exercise.Metadata{
			Title:    "A Linear System",
			Language: "en",
			Topics:   []string{"algebra"},
			Taxonomy: []string{"application"},
		},
		Parameters: exercise.NewHook(func(exercise.Args) (any, error) {
			x := rand.IntN(20) - 10
			y := rand.IntN(20) - 10
			return exercise.Args{"s": x + y, "d": x - y, "x": x, "y": y}, nil
		}),
		Problem: exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem(
				`
				Find integers x and y with

				    x + y = <<s>>
				    x - y = <<d>>

				x = <<x_>>
				y = <<y_>>
				`,
				model.NewField("x_", model.Integer{}),
				model.NewField("y_", model.Integer{}),
			), nil
		}),
		Scores: exercise.NewHook(func(kw exercise.Args) (any, error) {
			x, okX := toInt(kw["x_"])
			y, okY := toInt(kw["y_"])
			s := kw["s"].(int)
			d := kw["d"].(int)
			if okX && okY && x+y == s && x-y == d {
				return 2.0, nil
			}
			return 0.0, nil
		}, exercise.P("s"), exercise.P("d"),
			exercise.PD("x_", nil), exercise.PD("y_", nil)),
	})
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	}
	return 0, false
}

// DigitSplit decomposes a three-digit number into its digits. The
// hundreds digit weighs more than the tens digit, which weighs more
// than the ones digit.
func DigitSplit() *exercise.Definition {
	return exercise.MustNew(exercise.Definition{
		Name:   "digit-split",
		Source: "digit-split v1: digits of a three-digit number",
		Meta: exercise.Metadata{
			Title:    "Digits",
			Language: "en",
			Topics:   []string{"arithmetic"},
			Taxonomy: []string{"knowledge"},
		},
		Weights: exercise.FieldWeights(map[string]float64{
			"hundreds_": 3,
			"tens_":     2,
			"ones_":     1,
		}),
		Parameters: exercise.NewHook(func(exercise.Args) (any, error) {
			n := 100 + rand.IntN(900)
			return exercise.Args{
				"n":        n,
				"hundreds": n / 100,
				"tens":     n / 10 % 10,
				"ones":     n % 10,
			}, nil
		}),
		Problem: exercise.NewHook(func(exercise.Args) (any, error) {
			return model.NewProblem(
				`
				Split <<n>> into its decimal digits.

				Hundreds: <<hundreds_>>
				Tens: <<tens_>>
				Ones: <<ones_>>
				`,
				model.NewField("hundreds_", model.Natural{}),
				model.NewField("tens_", model.Natural{}),
				model.NewField("ones_", model.Natural{}),
			), nil
		}),
	})
}

// All returns every built-in definition.
func All() []*exercise.Definition {
	return []*exercise.Definition{
		FortyTwo(),
		FreeLunch(),
		Division(),
		Factorization(),
		LinearSystem(),
		DigitSplit(),
	}
}

// Registry maps the built-in definitions by name for quiz file loading.
func Registry() pool.Registry {
	reg := pool.Registry{}
	for _, def := range All() {
		reg[def.Name] = def
	}
	return reg
}
