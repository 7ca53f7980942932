package validate

import "fmt"

// RequireInt extracts env[key] as an int, requiring it be present and a
// non-negative integer when nonNegative is true. Used by the static
// container for env.maxRetries/env.retryDelay (§4.4) and by the supervisor
// for env.interval/env.maxHangRetries (§4.7).
func RequireInt(env map[string]any, key string, nonNegative bool) (int, error) {
	raw, ok := env[key]
	if !ok {
		return 0, fmt.Errorf("missing required env.%s", key)
	}
	schema := NonNegativeInt()
	schema.NonNegative = nonNegative
	v, err := schema.Validate(raw)
	if err != nil {
		return 0, fmt.Errorf("env.%s: %w", key, err)
	}
	return int(v.(float64)), nil
}

// OptionalInt extracts env[key] as an int, returning def when absent. Used
// by the supervisor for env.dieDelay, which may be negative (§4.7 "negative
// disables exit for debugging").
func OptionalInt(env map[string]any, key string, def int) (int, error) {
	raw, ok := env[key]
	if !ok {
		return def, nil
	}
	schema := Number()
	schema.Integer = true
	v, err := schema.Validate(raw)
	if err != nil {
		return 0, fmt.Errorf("env.%s: %w", key, err)
	}
	return int(v.(float64)), nil
}

// RequireNonEmptyName validates that a component or spec name is non-empty
// (§3 "non-empty identifier").
func RequireNonEmptyName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	return nil
}
