// Package model implements the problem model an exercise attempt renders
// and grades: a template with named input and output fields, where each
// input field carries a value type, a solution slot and a score slot.
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType describes how a field's values are parsed, compared and
// scored automatically.
type ValueType interface {
	// TypeName is the widget type announced on widget creation.
	TypeName() string

	// TrivialValue is the simplest admissible value (zero, empty string).
	TrivialValue() any

	// DummyValue is an arbitrary valid non-trivial value, used to probe
	// scoring hooks without a real answer.
	DummyValue() any

	// Normalize parses raw input (typically a widget string) into the
	// canonical value representation.
	Normalize(v any) (any, error)

	// MaxScore is the automatic maximum score for a field of this type.
	MaxScore() float64

	// Score grades an answer against a solution automatically.
	Score(answer, solution any) float64
}

// points resolves a configurable point value, defaulting to 1.
func points(p float64) float64 {
	if p == 0 {
		return 1.0
	}
	return p
}

// Integer accepts whole numbers.
type Integer struct {
	// Points is the automatic maximum score; 0 means 1.
	Points float64
}

func (Integer) TypeName() string { return "Integer" }
func (Integer) TrivialValue() any { return int64(0) }
func (Integer) DummyValue() any { return int64(1) }
func (t Integer) MaxScore() float64 { return points(t.Points) }

func (Integer) Normalize(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("not an integer: %v", x)
		}
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", x)
		}
		return n, nil
	}
	return nil, fmt.Errorf("not an integer: %v (%T)", v, v)
}

func (t Integer) Score(answer, solution any) float64 {
	a, errA := t.Normalize(answer)
	s, errS := t.Normalize(solution)
	if errA != nil || errS != nil {
		return 0
	}
	if a == s {
		return t.MaxScore()
	}
	return 0
}

// Natural accepts non-negative whole numbers.
type Natural struct {
	Points float64
}

func (Natural) TypeName() string { return "Natural" }
func (Natural) TrivialValue() any { return int64(0) }
func (Natural) DummyValue() any { return int64(1) }
func (t Natural) MaxScore() float64 { return points(t.Points) }

func (Natural) Normalize(v any) (any, error) {
	n, err := Integer{}.Normalize(v)
	if err != nil {
		return nil, err
	}
	if n.(int64) < 0 {
		return nil, fmt.Errorf("not a natural number: %v", n)
	}
	return n, nil
}

func (t Natural) Score(answer, solution any) float64 {
	a, errA := t.Normalize(answer)
	s, errS := t.Normalize(solution)
	if errA != nil || errS != nil {
		return 0
	}
	if a == s {
		return t.MaxScore()
	}
	return 0
}

// Decimal accepts real numbers, compared within an absolute tolerance.
type Decimal struct {
	Points    float64
	Tolerance float64
}

func (Decimal) TypeName() string { return "Decimal" }
func (Decimal) TrivialValue() any { return 0.0 }
func (Decimal) DummyValue() any { return 1.0 }
func (t Decimal) MaxScore() float64 { return points(t.Points) }

func (Decimal) Normalize(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", x)
		}
		return f, nil
	}
	return nil, fmt.Errorf("not a number: %v (%T)", v, v)
}

func (t Decimal) Score(answer, solution any) float64 {
	a, errA := t.Normalize(answer)
	s, errS := t.Normalize(solution)
	if errA != nil || errS != nil {
		return 0
	}
	if math.Abs(a.(float64)-s.(float64)) <= t.Tolerance {
		return t.MaxScore()
	}
	return 0
}

// Text accepts free text, compared after whitespace trimming. Comparison
// is case-insensitive when Fold is set.
type Text struct {
	Points float64
	Fold   bool
}

func (Text) TypeName() string { return "Text" }
func (Text) TrivialValue() any { return "" }
func (Text) DummyValue() any { return "x" }
func (t Text) MaxScore() float64 { return points(t.Points) }

func (Text) Normalize(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("not a string: %v (%T)", v, v)
	}
	return strings.TrimSpace(s), nil
}

func (t Text) Score(answer, solution any) float64 {
	a, errA := t.Normalize(answer)
	s, errS := t.Normalize(solution)
	if errA != nil || errS != nil {
		return 0
	}
	as, ss := a.(string), s.(string)
	if t.Fold {
		as, ss = strings.ToLower(as), strings.ToLower(ss)
	}
	if as == ss {
		return t.MaxScore()
	}
	return 0
}

// Boolean accepts true/false answers.
type Boolean struct {
	Points float64
}

func (Boolean) TypeName() string { return "Boolean" }
func (Boolean) TrivialValue() any { return false }
func (Boolean) DummyValue() any { return true }
func (t Boolean) MaxScore() float64 { return points(t.Points) }

func (Boolean) Normalize(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(x)))
		if err != nil {
			return nil, fmt.Errorf("not a boolean: %q", x)
		}
		return b, nil
	}
	return nil, fmt.Errorf("not a boolean: %v (%T)", v, v)
}

func (t Boolean) Score(answer, solution any) float64 {
	a, errA := t.Normalize(answer)
	s, errS := t.Normalize(solution)
	if errA != nil || errS != nil {
		return 0
	}
	if a == s {
		return t.MaxScore()
	}
	return 0
}
