// Package exercise holds the declarative template an attempt is derived
// from: a required problem hook, a set of optional hooks, weights,
// difficulty bounds and metadata. Definitions are immutable after
// construction and safe to share between concurrent attempts.
package exercise

import (
	"crypto/sha256"
	"encoding/hex"
)

// Pair is a (score, max score) result a scores hook may return, either as
// a joint result or as a per-field mapping value.
type Pair struct {
	Score float64
	Max   float64
}

// Definition is an exercise template. Problem is the only required hook;
// every other hook has a documented default (empty mapping, empty string,
// or nil).
type Definition struct {
	// Name identifies the definition in pools, logs and the store label.
	Name string

	Meta    Metadata
	Weights WeightSpec

	// MinDifficulty / MaxDifficulty bound the sampled difficulty for this
	// definition; nil falls back to the global defaults. Bounds lie in
	// [0, 1].
	MinDifficulty *float64
	MaxDifficulty *float64

	// Source is the author-provided source text of the definition. Its
	// hash is the persistence identity; when empty the definition has no
	// identity and attempts against it are not persisted.
	Source string

	// Problem derives the problem model from the parameter sample.
	Problem *Hook

	// Parameters produces the parameter sample. Default: empty sample.
	Parameters *Hook

	// Preamble renders introductory text. Default: empty string.
	Preamble *Hook

	// TheSolution returns the reference solution: a mapping from field
	// name to value, or a bare value when there is exactly one field.
	TheSolution *Hook

	// ASolution returns a possibly non-unique solution, same shapes as
	// TheSolution.
	ASolution *Hook

	// Hints returns a string, a list of strings, or a per-field mapping.
	Hints *Hook

	// Scores overrides automatic scoring; see the engine's scoring
	// contract for the admissible return shapes.
	Scores *Hook

	// Feedback renders text shown after submission. It may declare field
	// names to receive the submitted answers.
	Feedback *Hook
}

// New validates a definition and returns it. Configuration defects
// (difficulty bounds outside [0, 1], negative weights, unknown taxonomy
// levels) surface here, before any attempt starts.
func New(d Definition) (*Definition, error) {
	if d.Problem == nil {
		return nil, ConfigErr("definition %q: the problem hook is required", d.Name)
	}
	if err := validateBound("MinDifficulty", d.MinDifficulty); err != nil {
		return nil, err
	}
	if err := validateBound("MaxDifficulty", d.MaxDifficulty); err != nil {
		return nil, err
	}
	if d.MinDifficulty != nil && d.MaxDifficulty != nil && *d.MinDifficulty > *d.MaxDifficulty {
		return nil, ConfigErr("MinDifficulty %v exceeds MaxDifficulty %v", *d.MinDifficulty, *d.MaxDifficulty)
	}
	if err := d.Weights.validate(); err != nil {
		return nil, err
	}
	if err := d.Meta.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// MustNew is New for statically known definitions; it panics on
// configuration errors.
func MustNew(d Definition) *Definition {
	def, err := New(d)
	if err != nil {
		panic(err)
	}
	return def
}

func validateBound(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if *v < 0 || *v > 1 {
		return ConfigErr("%s must lie in [0, 1], got %v", name, *v)
	}
	return nil
}

// ID returns the content-derived persistence identifier: the hex-encoded
// hash of the source text, or "" when no source is available.
func (d *Definition) ID() string {
	if d.Source == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(d.Source))
	return hex.EncodeToString(sum[:])
}

// Label returns the display label used by the store: the metadata title
// when set, the name otherwise.
func (d *Definition) Label() string {
	if d.Meta.Title != "" {
		return d.Meta.Title
	}
	return d.Name
}

// Float is a convenience for optional difficulty bounds.
func Float(v float64) *float64 {
	return &v
}
