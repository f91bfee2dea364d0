package model

import (
	"strings"
	"testing"
)

func TestNewProblem_ClassifiesPlaceholders(t *testing.T) {
	p := NewProblem(
		"Compute <<a>> + <<b>> = <<sum>>",
		NewField("sum", Integer{}),
	)

	if got := p.FieldNames(); len(got) != 1 || got[0] != "sum" {
		t.Errorf("FieldNames = %v, want [sum]", got)
	}
	ofields := p.OutputFields()
	if len(ofields) != 2 || ofields[0] != "a" || ofields[1] != "b" {
		t.Errorf("OutputFields = %v, want [a b]", ofields)
	}
}

func TestNewProblem_DuplicateOutputFieldListedOnce(t *testing.T) {
	p := NewProblem("<<n>> and again <<n>>")
	if got := p.OutputFields(); len(got) != 1 {
		t.Errorf("OutputFields = %v, want one entry", got)
	}
}

func TestRender_SubstitutesOutputFieldsOnly(t *testing.T) {
	p := NewProblem(
		"Compute <<a>> + <<b>> = <<sum>>",
		NewField("sum", Integer{}),
	)
	got := p.Render(map[string]any{"a": 2, "b": 3, "sum": 99})
	want := "Compute 2 + 3 = <<sum>>"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRender_UnresolvedPlaceholderKept(t *testing.T) {
	p := NewProblem("missing <<gone>>")
	if got := p.Render(map[string]any{}); got != "missing <<gone>>" {
		t.Errorf("Render = %q, want placeholder kept", got)
	}
}

func TestDedent(t *testing.T) {
	p := NewProblem(`
		First line
		  indented line
		last line
	`)
	want := "First line\n  indented line\nlast line"
	if p.Template() != want {
		t.Errorf("Template = %q, want %q", p.Template(), want)
	}
}

func TestFieldsOrderAndLookup(t *testing.T) {
	a := NewField("a", Integer{})
	b := NewField("b", Text{})
	p := NewProblem("<<a>> <<b>>", a, b)

	fields := p.Fields()
	if len(fields) != 2 || fields[0] != a || fields[1] != b {
		t.Errorf("Fields not in declaration order")
	}
	if f, ok := p.Field("b"); !ok || f != b {
		t.Error("Field lookup failed")
	}
	if _, ok := p.Field("c"); ok {
		t.Error("unexpected field c")
	}
}

func TestAnswers(t *testing.T) {
	a := NewField("a", Integer{})
	p := NewProblem("<<a>>", a)

	answers := p.Answers()
	if v, ok := answers["a"]; !ok || v != nil {
		t.Errorf("Answers = %v, want a:nil", answers)
	}

	if err := a.SetValue("5"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if got := p.Answers()["a"]; got != int64(5) {
		t.Errorf("answer = %v, want 5", got)
	}
}

func TestWidgetIDsAreUnique(t *testing.T) {
	a := NewField("a", Integer{})
	b := NewField("b", Integer{})
	if a.WidgetID == b.WidgetID || a.WidgetID == "" {
		t.Error("widget IDs must be unique and non-empty")
	}
	if !strings.Contains(a.WidgetID, "-") {
		t.Errorf("WidgetID %q does not look like a UUID", a.WidgetID)
	}
}
