// Package message defines the typed messages exchanged between an
// attempt runner and its observers. Observers receive every message in
// emission order; ordering is part of the contract (a widget's creation
// message precedes any of its attribute changes).
package message

// Message is implemented by every notification type.
type Message interface {
	// Sender names the exercise definition the message originates from.
	Sender() string
}

type base struct {
	sender string
}

func (b base) Sender() string { return b.sender }

// ExerciseAttribute announces a derived attribute of the running attempt
// (debug flag, parameters, hints, answers, total and max score).
type ExerciseAttribute struct {
	base
	Name  string
	Value any
}

// NewExerciseAttribute builds an ExerciseAttribute message.
func NewExerciseAttribute(sender, name string, value any) ExerciseAttribute {
	return ExerciseAttribute{base: base{sender: sender}, Name: name, Value: value}
}

// CreateWidget announces an input widget for one field. It precedes any
// ChangeWidgetAttribute for the same widget.
type CreateWidget struct {
	base
	WidgetID   string
	WidgetType string
	FieldName  string
}

// NewCreateWidget builds a CreateWidget message.
func NewCreateWidget(sender, widgetID, widgetType, fieldName string) CreateWidget {
	return CreateWidget{base: base{sender: sender}, WidgetID: widgetID, WidgetType: widgetType, FieldName: fieldName}
}

// ChangeWidgetAttribute carries a widget attribute update in either
// direction: outbound (show solution, show score) or inbound (the live
// value as the user types).
type ChangeWidgetAttribute struct {
	base
	WidgetID  string
	Attribute string
	Value     any
}

// NewChangeWidgetAttribute builds a ChangeWidgetAttribute message.
func NewChangeWidgetAttribute(sender, widgetID, attribute string, value any) ChangeWidgetAttribute {
	return ChangeWidgetAttribute{base: base{sender: sender}, WidgetID: widgetID, Attribute: attribute, Value: value}
}

// RenderTemplate carries a rendered text part: "preamble", "problem" or
// "feedback".
type RenderTemplate struct {
	base
	Part     string
	Template string
}

// NewRenderTemplate builds a RenderTemplate message.
func NewRenderTemplate(sender, part, template string) RenderTemplate {
	return RenderTemplate{base: base{sender: sender}, Part: part, Template: template}
}

// WaitingForSubmission marks the end of the rendering phase.
type WaitingForSubmission struct {
	base
}

// NewWaitingForSubmission builds a WaitingForSubmission message.
func NewWaitingForSubmission(sender string) WaitingForSubmission {
	return WaitingForSubmission{base: base{sender: sender}}
}

// Submit is the inbound submission signal carrying the final answers.
type Submit struct {
	base
	Answers map[string]any
}

// NewSubmit builds a Submit message.
func NewSubmit(sender string, answers map[string]any) Submit {
	return Submit{base: base{sender: sender}, Answers: answers}
}
