package exercise

import "fmt"

// IllPosedError indicates an authoring defect in an exercise definition:
// an output field without a matching parameter, a hook returning a shape
// the engine cannot interpret, or a joint score without a uniform weight.
// It is always surfaced to the caller and never recovered silently.
type IllPosedError struct {
	msg string
}

func (e *IllPosedError) Error() string { return e.msg }

// IllPosed builds an IllPosedError with a formatted message.
func IllPosed(format string, args ...any) error {
	return &IllPosedError{msg: fmt.Sprintf(format, args...)}
}

// ConfigError indicates an invalid definition configuration (weights,
// difficulty bounds, metadata). Raised at construction time, before any
// attempt starts.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

// ConfigErr builds a ConfigError with a formatted message.
func ConfigErr(format string, args ...any) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// MissingParameterError is returned when a hook requires a parameter that
// is absent from the keyword bag it is invoked with.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing parameter: %s", e.Name)
}
