package exercise

// WeightSpec is either a single non-negative number applied uniformly to
// every input field, or a mapping from field name to non-negative number.
// The zero value is a uniform weight of 1.
type WeightSpec struct {
	scalar   float64
	perField map[string]float64
	isMap    bool
	set      bool
}

// UniformWeight builds a scalar weight specification.
func UniformWeight(w float64) WeightSpec {
	return WeightSpec{scalar: w, set: true}
}

// FieldWeights builds a per-field weight specification.
func FieldWeights(m map[string]float64) WeightSpec {
	copied := make(map[string]float64, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return WeightSpec{perField: copied, isMap: true, set: true}
}

// IsMap reports whether the specification is per-field.
func (w WeightSpec) IsMap() bool { return w.isMap }

// Scalar returns the uniform weight. Valid only when IsMap is false.
func (w WeightSpec) Scalar() float64 {
	if !w.set {
		return 1.0
	}
	return w.scalar
}

// PerField returns a copy of the per-field mapping.
func (w WeightSpec) PerField() map[string]float64 {
	copied := make(map[string]float64, len(w.perField))
	for k, v := range w.perField {
		copied[k] = v
	}
	return copied
}

func (w WeightSpec) validate() error {
	if w.isMap {
		for name, v := range w.perField {
			if v < 0 {
				return ConfigErr("weight for field %q must be non-negative, got %v", name, v)
			}
		}
		return nil
	}
	if w.set && w.scalar < 0 {
		return ConfigErr("weight must be non-negative, got %v", w.scalar)
	}
	return nil
}

// Normalize resolves the specification into a per-field mapping for the
// given input fields. A scalar weight is broadcast to every field, or to a
// single empty-name key when there are no fields. Mapping keys must be a
// subset of the field names; unlisted fields default to 1.
func (w WeightSpec) Normalize(fieldNames []string) (map[string]float64, error) {
	if !w.isMap {
		scalar := w.Scalar()
		if len(fieldNames) == 0 {
			return map[string]float64{"": scalar}, nil
		}
		normalized := make(map[string]float64, len(fieldNames))
		for _, name := range fieldNames {
			normalized[name] = scalar
		}
		return normalized, nil
	}

	names := make(map[string]bool, len(fieldNames))
	for _, n := range fieldNames {
		names[n] = true
	}
	for key := range w.perField {
		if !names[key] {
			return nil, ConfigErr("weight key %q does not match any input field", key)
		}
	}
	normalized := make(map[string]float64, len(fieldNames))
	for _, name := range fieldNames {
		if v, ok := w.perField[name]; ok {
			normalized[name] = v
		} else {
			normalized[name] = 1.0
		}
	}
	return normalized, nil
}

// UniformValue returns the single weight applicable to a joint score. For
// a scalar specification that is the scalar itself. A per-field mapping is
// only admissible when all its values agree; otherwise the joint score has
// no resolvable uniform weight.
func (w WeightSpec) UniformValue() (float64, error) {
	if !w.isMap {
		return w.Scalar(), nil
	}
	first := 1.0
	seen := false
	for _, v := range w.perField {
		if !seen {
			first = v
			seen = true
			continue
		}
		if v != first {
			return 0, IllPosed("joint scoring requires a uniform weight, but the weight mapping has diverging values")
		}
	}
	return first, nil
}
