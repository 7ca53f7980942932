// Package validate provides the JSON-value schema validators used to check
// specs and env values at construction time (§4.1 "malformed descriptions
// ... fail fast before any component is instantiated", §4.4/§4.7's
// required env fields).
package validate

import "fmt"

// ValidationError represents a validation error, with an optional path
// into nested structures for context.
type ValidationError struct {
	Message string
	Path    []string
}

func (e *ValidationError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s at path %v", e.Message, e.Path)
	}
	return e.Message
}

// NumberSchema validates numbers, normalizing any numeric kind to float64.
type NumberSchema struct {
	Min         float64
	HasMin      bool
	Integer     bool
	NonNegative bool
}

func (s *NumberSchema) Validate(value any) (any, error) {
	var num float64

	switch v := value.(type) {
	case int:
		num = float64(v)
	case int32:
		num = float64(v)
	case int64:
		num = float64(v)
	case float32:
		num = float64(v)
	case float64:
		num = v
	default:
		return nil, &ValidationError{Message: fmt.Sprintf("value %v is not a number", value)}
	}

	if s.HasMin && num < s.Min {
		return nil, &ValidationError{Message: fmt.Sprintf("number %v is less than minimum %v", num, s.Min)}
	}
	if s.NonNegative && num < 0 {
		return nil, &ValidationError{Message: fmt.Sprintf("number %v must be >= 0", num)}
	}
	if s.Integer && float64(int64(num)) != num {
		return nil, &ValidationError{Message: fmt.Sprintf("number %v must be an integer", num)}
	}

	return num, nil
}

// Number creates a new number schema.
func Number() *NumberSchema { return &NumberSchema{} }

// NonNegativeInt creates a schema requiring an integer >= 0, used for
// maxRetries/retryDelay/interval/maxHangRetries (§4.4/§4.7).
func NonNegativeInt() *NumberSchema {
	return &NumberSchema{Integer: true, NonNegative: true}
}
