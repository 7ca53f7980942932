package desc

import "fmt"

// Merge combines template and delta into a fresh deep clone, following the
// exact cursor rule of §4.1 and §9's design note ("a reordered test suite
// depends on the insert-after-the-last-touched-position behavior").
//
// Merge never mutates template or delta (§8 invariant 2).
func Merge(template, delta *Spec, overrideName bool) (*Spec, error) {
	if template == nil {
		return nil, fmt.Errorf("merge: template is nil")
	}
	if delta == nil {
		return template.Clone(), nil
	}

	result := template.Clone()

	// Name policy (§4.1): template.name != delta.name is an error unless
	// overrideName is true (only allowed at the root of a merge).
	if delta.Name != "" && delta.Name != result.Name {
		if !overrideName {
			return nil, fmt.Errorf("merge: name mismatch %q != %q (overrideName not set)", result.Name, delta.Name)
		}
		result.Name = delta.Name
	}

	// Scalar fields: module/description take the delta value if non-empty,
	// otherwise the template value.
	if delta.ModuleSet {
		result.Module = delta.Module
		result.ModuleSet = delta.ModuleSet
	}
	if delta.Description != "" {
		result.Description = delta.Description
	}

	// env merge: shallow override, every delta key replaces wholesale.
	if len(delta.Env) > 0 {
		if result.Env == nil {
			result.Env = make(map[string]any, len(delta.Env))
		}
		for k, v := range delta.Env {
			result.Env[k] = deepCloneValue(v)
		}
	}

	// components merge: order-sensitive cursor algorithm.
	merged, err := mergeComponents(result.Components, delta.Components)
	if err != nil {
		return nil, err
	}
	result.Components = merged

	if err := validateUniqueNames(result.Components); err != nil {
		return nil, err
	}

	return result, nil
}

// mergeComponents implements §4.1's components-merge cursor rule.
func mergeComponents(base []*Spec, delta []*Spec) ([]*Spec, error) {
	result := make([]*Spec, len(base))
	copy(result, base)

	lastOp := -1

	for _, x := range delta {
		idx := findChildByName(result, x.Name)
		if idx >= 0 {
			lastOp = idx
			if x.IsDeleteMarker() {
				result = append(result[:idx], result[idx+1:]...)
				lastOp--
				continue
			}
			merged, err := Merge(result[idx], x, false)
			if err != nil {
				return nil, err
			}
			result[idx] = merged
			continue
		}

		if x.IsDeleteMarker() {
			// No match and module is null: no-op.
			continue
		}

		insertAt := lastOp + 1
		clone := x.Clone()
		result = append(result, nil)
		copy(result[insertAt+1:], result[insertAt:])
		result[insertAt] = clone
		lastOp = insertAt
	}

	return result, nil
}

// validateUniqueNames enforces §3's invariant: within any components array,
// name values are unique; duplicates are an error detected at container
// construction, but Merge checks it eagerly too so malformed descriptions
// fail fast (§4.1 "Failure model").
func validateUniqueNames(components []*Spec) error {
	seen := make(map[string]bool, len(components))
	for _, c := range components {
		if c.Name == "" {
			return fmt.Errorf("merge: component with empty name")
		}
		if seen[c.Name] {
			return fmt.Errorf("merge: duplicate component name %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
