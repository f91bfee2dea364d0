package exercise

// Args is the keyword bag a hook is invoked with: the parameter sample
// plus whatever extra context the caller supplies (difficulty, user name,
// current answers).
type Args map[string]any

// Param declares one named parameter of a hook. A hook is only handed the
// keywords it declares; a declared parameter without a default must be
// present in the bag or invocation fails.
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// P declares a required parameter.
func P(name string) Param {
	return Param{Name: name}
}

// PD declares a parameter with a default value.
func PD(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// Hook is a user-overridable computation attached to a definition. The
// declared parameter registry replaces runtime signature introspection:
// Call selects exactly the declared subset of the keyword bag.
type Hook struct {
	params []Param
	fn     func(Args) (any, error)
}

// NewHook builds a hook from a function and its parameter registry.
func NewHook(fn func(Args) (any, error), params ...Param) *Hook {
	return &Hook{params: params, fn: fn}
}

// Params returns the declared parameter registry.
func (h *Hook) Params() []Param {
	return h.params
}

// Call invokes the hook with the subset of bag matching the declared
// parameters. Defaults fill absent keywords; a required parameter absent
// from the bag yields a MissingParameterError.
func (h *Hook) Call(bag Args) (any, error) {
	kwargs := make(Args, len(h.params))
	for _, p := range h.params {
		if v, ok := bag[p.Name]; ok {
			kwargs[p.Name] = v
		} else if p.HasDefault {
			kwargs[p.Name] = p.Default
		} else {
			return nil, &MissingParameterError{Name: p.Name}
		}
	}
	return h.fn(kwargs)
}

// FieldDefaults returns the declared defaults whose parameter name matches
// one of the given input field names. During scoring these act as answers
// of last resort for unanswered fields.
func (h *Hook) FieldDefaults(fieldNames []string) Args {
	names := make(map[string]bool, len(fieldNames))
	for _, n := range fieldNames {
		names[n] = true
	}
	defaults := Args{}
	for _, p := range h.params {
		if p.HasDefault && names[p.Name] {
			defaults[p.Name] = p.Default
		}
	}
	return defaults
}
