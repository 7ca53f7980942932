// Package desc implements the description engine of §4.1: merging a base
// template with an optional override, substituting environment references
// and top-level linked values, and producing a fully-resolved component
// tree description.
package desc

import (
	"encoding/json"
	"fmt"
)

// Spec is the resolved description of one component (§3).
//
// A Spec is only ever produced by Merge, ResolveEnv and ResolveLinks; none
// of those mutate their inputs. Callers that build a Spec by hand (e.g. in
// tests or cmd/ demos) own the same immutability contract.
//
// Module has three distinct states, because §4.1's merge algorithm treats
// them differently:
//   - absent (ModuleSet=false, ModuleNull=false): a delta entry that
//     doesn't mention module at all — a "touch" that leaves it unchanged.
//   - explicit JSON null (ModuleSet=false, ModuleNull=true): "delete this
//     component".
//   - a concrete path (ModuleSet=true): the normal case.
type Spec struct {
	// Name is a non-empty identifier, unique within its parent's Components.
	Name string

	// Module is the logical module path, possibly with a "#"-separated
	// accessor chain ("pkg#ns#factory"); meaningful only when ModuleSet.
	Module     string
	ModuleSet  bool
	ModuleNull bool

	// Description is free text, optional.
	Description string

	// Env maps string keys to any JSON-representable value.
	Env map[string]any

	// Components is the ordered sequence of child specs, optional.
	Components []*Spec
}

// IsDeleteMarker reports whether this Spec represents a delta entry whose
// module is explicitly null, i.e. "delete this component" (§4.1 step 1).
// A Spec with module simply absent (a "touch") is NOT a delete marker.
func (s *Spec) IsDeleteMarker() bool {
	return s.ModuleNull
}

// Clone produces a deep, reference-disjoint copy of s (§4.1 "returns a
// fresh deep clone; never mutates inputs", and §8 invariant 2).
func (s *Spec) Clone() *Spec {
	if s == nil {
		return nil
	}
	clone := &Spec{
		Name:        s.Name,
		Module:      s.Module,
		ModuleSet:   s.ModuleSet,
		ModuleNull:  s.ModuleNull,
		Description: s.Description,
	}
	if s.Env != nil {
		clone.Env = make(map[string]any, len(s.Env))
		for k, v := range s.Env {
			clone.Env[k] = deepCloneValue(v)
		}
	}
	if s.Components != nil {
		clone.Components = make([]*Spec, len(s.Components))
		for i, c := range s.Components {
			clone.Components[i] = c.Clone()
		}
	}
	return clone
}

// deepCloneValue deep-clones a JSON-representable value (map, slice,
// scalar), used for env values during Merge and Clone (§4.1 "the value
// itself is deep-cloned; no recursive merge inside env values").
func deepCloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = deepCloneValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = deepCloneValue(vv)
		}
		return out
	default:
		return v
	}
}

// findChildByName returns the index of the child named name within
// components, or -1.
func findChildByName(components []*Spec, name string) int {
	for i, c := range components {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// specJSON mirrors the JSON shape of a description document (§6), with
// Module kept as a json.RawMessage so UnmarshalJSON can tell absent from
// explicit null from a concrete string.
type specJSON struct {
	Name        string          `json:"name"`
	Module      json.RawMessage `json:"module,omitempty"`
	Description string          `json:"description,omitempty"`
	Env         map[string]any  `json:"env,omitempty"`
	Components  []*Spec         `json:"components,omitempty"`
}

// UnmarshalJSON decodes a description document, distinguishing an absent
// "module" key from an explicit JSON null from a concrete path.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var raw specJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Name = raw.Name
	s.Description = raw.Description
	s.Env = raw.Env
	s.Components = raw.Components

	switch {
	case len(raw.Module) == 0:
		s.ModuleSet, s.ModuleNull, s.Module = false, false, ""
	case string(raw.Module) == "null":
		s.ModuleSet, s.ModuleNull, s.Module = false, true, ""
	default:
		var m string
		if err := json.Unmarshal(raw.Module, &m); err != nil {
			return fmt.Errorf("spec.module: %w", err)
		}
		s.ModuleSet, s.ModuleNull, s.Module = true, false, m
	}
	return nil
}

// MarshalJSON encodes the resolved spec back to JSON, writing an explicit
// null module for a delete marker and omitting module when it is absent.
func (s *Spec) MarshalJSON() ([]byte, error) {
	raw := specJSON{
		Name:        s.Name,
		Description: s.Description,
		Env:         s.Env,
		Components:  s.Components,
	}
	switch {
	case s.ModuleNull:
		raw.Module = json.RawMessage("null")
	case s.ModuleSet:
		encoded, err := json.Marshal(s.Module)
		if err != nil {
			return nil, err
		}
		raw.Module = encoded
	}
	return json.Marshal(raw)
}
