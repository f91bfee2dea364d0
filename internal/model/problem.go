package model

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`<<\s*([A-Za-z_][A-Za-z0-9_]*)\s*>>`)

// Problem is the concrete rendering artifact of one attempt: a template
// with <<name>> placeholders, the declared input fields, and the output
// field names the template references beyond the inputs. Output fields
// must be satisfiable from the parameter sample.
type Problem struct {
	template string
	order    []string
	fields   map[string]*Field
	ofields  []string
}

// NewProblem builds a problem from a template and its input fields.
// Placeholders that match no input field are output fields.
func NewProblem(template string, fields ...*Field) *Problem {
	p := &Problem{
		template: dedent(template),
		fields:   make(map[string]*Field, len(fields)),
	}
	for _, f := range fields {
		p.order = append(p.order, f.Name)
		p.fields[f.Name] = f
	}
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(p.template, -1) {
		name := m[1]
		if _, ok := p.fields[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		p.ofields = append(p.ofields, name)
	}
	return p
}

// Template returns the raw template text.
func (p *Problem) Template() string {
	return p.template
}

// FieldNames returns the input field names in declaration order.
func (p *Problem) FieldNames() []string {
	return append([]string(nil), p.order...)
}

// Fields returns the input fields in declaration order.
func (p *Problem) Fields() []*Field {
	out := make([]*Field, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.fields[name])
	}
	return out
}

// Field looks up an input field by name.
func (p *Problem) Field(name string) (*Field, bool) {
	f, ok := p.fields[name]
	return f, ok
}

// OutputFields returns the output field names referenced by the template.
func (p *Problem) OutputFields() []string {
	return append([]string(nil), p.ofields...)
}

// Answers returns the current answer mapping; unanswered fields map to
// nil.
func (p *Problem) Answers() map[string]any {
	answers := make(map[string]any, len(p.order))
	for name, f := range p.fields {
		answers[name] = f.Value()
	}
	return answers
}

// Render substitutes output field placeholders from the parameter sample.
// Input field placeholders are left intact for the frontend's widgets.
func (p *Problem) Render(params map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(p.template, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		if _, ok := p.fields[name]; ok {
			return match
		}
		if v, ok := params[name]; ok {
			return fmt.Sprintf("%v", v)
		}
		return match
	})
}

// dedent strips the common leading whitespace of a multi-line template so
// definitions can indent templates with their surrounding code.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	margin := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}
	if margin <= 0 {
		return strings.TrimSpace(s)
	}
	for i, line := range lines {
		if len(line) >= margin {
			lines[i] = line[margin:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
