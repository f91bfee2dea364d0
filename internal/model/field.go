package model

import "github.com/google/uuid"

// Field is a named input slot of a problem. It owns the live answer value
// and the solution and score slots filled in by the evaluation engine.
type Field struct {
	Name     string
	Type     ValueType
	WidgetID string

	value       any
	theSolution any
	aSolution   any

	// DisplayedScore / DisplayedMaxScore are set once scoring resolves;
	// nil means "not evaluated".
	DisplayedScore    *float64
	DisplayedMaxScore *float64

	// Correct is tri-state: nil until correctness resolves.
	Correct *bool

	ShowSolution bool
	ShowScore    bool
}

// NewField creates a field with a fresh widget identifier.
func NewField(name string, vt ValueType) *Field {
	return &Field{
		Name:     name,
		Type:     vt,
		WidgetID: uuid.NewString(),
	}
}

// SetValue normalizes and stores an answer value. A nil or empty raw
// value clears the answer.
func (f *Field) SetValue(raw any) error {
	if raw == nil || raw == "" {
		f.value = nil
		return nil
	}
	v, err := f.Type.Normalize(raw)
	if err != nil {
		return err
	}
	f.value = v
	return nil
}

// Value returns the current answer, nil when empty.
func (f *Field) Value() any {
	return f.value
}

// SetTheSolution normalizes and stores the reference solution.
func (f *Field) SetTheSolution(raw any) error {
	v, err := f.Type.Normalize(raw)
	if err != nil {
		return err
	}
	f.theSolution = v
	return nil
}

// SetASolution normalizes and stores a non-unique solution.
func (f *Field) SetASolution(raw any) error {
	v, err := f.Type.Normalize(raw)
	if err != nil {
		return err
	}
	f.aSolution = v
	return nil
}

// TheSolution returns the reference solution, nil when unset.
func (f *Field) TheSolution() any { return f.theSolution }

// ASolution returns the non-unique solution, nil when unset.
func (f *Field) ASolution() any { return f.aSolution }

// Solution returns the authoritative solution: the reference one when
// present, the non-unique one otherwise.
func (f *Field) Solution() any {
	if f.theSolution != nil {
		return f.theSolution
	}
	return f.aSolution
}

// AutoMaxScore is the automatic maximum score of this field.
func (f *Field) AutoMaxScore() float64 {
	return f.Type.MaxScore()
}

// AutoScore grades the current answer against the authoritative solution.
// It is 0 when either is missing.
func (f *Field) AutoScore() float64 {
	sol := f.Solution()
	if f.value == nil || sol == nil {
		return 0
	}
	return f.Type.Score(f.value, sol)
}
