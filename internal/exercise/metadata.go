package exercise

import "golang.org/x/mod/semver"

// TaxonomyLevels are the admissible taxonomy entries, in Bloom order.
var TaxonomyLevels = []string{
	"knowledge",
	"comprehension",
	"application",
	"analysis",
	"synthesis",
	"evaluation",
}

// Metadata carries the optional descriptive attributes of a definition.
// List-valued fields accept a single entry where only one applies.
type Metadata struct {
	Title      string
	Subtitle   string
	Author     string
	Language   string
	License    string
	URL        string
	Origin     string
	Discipline string
	Area       string
	Topics     []string
	Keywords   []string
	Taxonomy   []string

	// MinEngineVersion / MaxEngineVersion bound the engine versions this
	// definition is written for, in semver form ("v0.3.0"). Empty means
	// unbounded.
	MinEngineVersion string
	MaxEngineVersion string
}

func (m Metadata) validate() error {
	levels := make(map[string]bool, len(TaxonomyLevels))
	for _, l := range TaxonomyLevels {
		levels[l] = true
	}
	for _, t := range m.Taxonomy {
		if !levels[t] {
			return ConfigErr("unknown taxonomy level %q", t)
		}
	}
	if m.MinEngineVersion != "" && !semver.IsValid(m.MinEngineVersion) {
		return ConfigErr("invalid MinEngineVersion %q", m.MinEngineVersion)
	}
	if m.MaxEngineVersion != "" && !semver.IsValid(m.MaxEngineVersion) {
		return ConfigErr("invalid MaxEngineVersion %q", m.MaxEngineVersion)
	}
	return nil
}

// CompatibleWith reports whether the declared engine version bounds admit
// the given version. Development builds ("(devel)", empty, or otherwise
// non-semver) are always admitted.
func (m Metadata) CompatibleWith(version string) bool {
	if !semver.IsValid(version) {
		return true
	}
	if m.MinEngineVersion != "" && semver.Compare(version, m.MinEngineVersion) < 0 {
		return false
	}
	if m.MaxEngineVersion != "" && semver.Compare(version, m.MaxEngineVersion) > 0 {
		return false
	}
	return true
}
