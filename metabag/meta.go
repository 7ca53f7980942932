// Package metabag provides generic typed accessors over a component's
// env/metadata bag (map[string]any), plus the handful of reserved env
// flags the framework itself interprets (§4.1 GLOSSARY, §4.4, §4.5, §7).
package metabag

import (
	"errors"
	"reflect"
)

// Get retrieves a typed value from source, converting via reflection when
// the stored value isn't already of type T (e.g. float64 from JSON vs. a
// narrower numeric type).
func Get[T any](source map[string]any, key string) (T, error) {
	if source == nil {
		var zero T
		return zero, errors.New("metadata source is nil")
	}

	value, ok := source[key]
	if !ok {
		var zero T
		return zero, errors.New("metadata key not found")
	}

	if result, ok := value.(T); ok {
		return result, nil
	}

	sourceValue := reflect.ValueOf(value)
	targetType := reflect.TypeOf((*T)(nil)).Elem()

	if sourceValue.IsValid() && sourceValue.Type().ConvertibleTo(targetType) {
		convertedValue := sourceValue.Convert(targetType)
		return convertedValue.Interface().(T), nil
	}

	var zero T
	return zero, errors.New("metadata value cannot be converted to requested type")
}

// Set sets a metadata value in source, a no-op if source is nil.
func Set(source map[string]any, key string, value any) {
	if source == nil {
		return
	}
	source[key] = value
}

// Reserved env keys the framework itself interprets, per §4.4's step 2
// (unknown-child exemption), §4.4 step 2/§4.5's temporary-child policy,
// and §7's propagation policy.
const (
	// KeyTemporary marks a child whose failure is not itself a restart
	// trigger for its parent (§4.4 checkAndRestartChild, §4.5).
	KeyTemporary = "__ca_temporary__"

	// KeyIsNotUnknown marks a component (e.g. a proxy) registered directly
	// into a container's child context that should not be treated as an
	// "unknown" child during checkup (§4.4 step 2).
	KeyIsNotUnknown = "__ca_isNotUnknown__"
)

// IsTemporary reports whether env marks its component temporary.
func IsTemporary(env map[string]any) bool {
	v, _ := Get[bool](env, KeyTemporary)
	return v
}

// IsNotUnknown reports whether env marks its component exempt from
// unknown-child detection.
func IsNotUnknown(env map[string]any) bool {
	v, _ := Get[bool](env, KeyIsNotUnknown)
	return v
}
