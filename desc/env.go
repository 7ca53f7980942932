package desc

import (
	"encoding/json"
	"strings"
)

const (
	envPrefix  = "process.env."
	linkPrefix = "$._.env."
)

// EnvLookup resolves a process-environment variable name to its raw string
// value, reporting whether it is defined. Production callers pass
// os.LookupEnv; tests can supply a fake.
type EnvLookup func(name string) (string, bool)

// ResolveEnv walks the resolved tree and substitutes every env string value
// beginning with "process.env." per §4.1. A substituted value is not
// walked again within the same call, so resolveEnv ∘ resolveEnv =
// resolveEnv (§8 round-trip law) holds as long as no substituted value
// itself begins with the reserved prefix; one that does is substituted
// again by a second call.
func ResolveEnv(spec *Spec, lookup EnvLookup) *Spec {
	result := spec.Clone()
	walkEnv(result, lookup)
	return result
}

func walkEnv(spec *Spec, lookup EnvLookup) {
	if spec == nil {
		return
	}
	for k, v := range spec.Env {
		spec.Env[k] = resolveEnvValue(v, lookup)
	}
	for _, c := range spec.Components {
		walkEnv(c, lookup)
	}
}

func resolveEnvValue(v any, lookup EnvLookup) any {
	switch t := v.(type) {
	case string:
		if !strings.HasPrefix(t, envPrefix) {
			return t
		}
		rest := strings.TrimPrefix(t, envPrefix)
		name, def, hasDefault := splitNameDefault(rest)

		if raw, ok := lookup(name); ok {
			return parseOrRaw(raw)
		}
		if hasDefault {
			return parseOrRaw(def)
		}
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = resolveEnvValue(vv, lookup)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = resolveEnvValue(vv, lookup)
		}
		return out
	default:
		return v
	}
}

// splitNameDefault splits "name||default" into its two parts. If there is
// no "||", the second return is empty and hasDefault is false.
func splitNameDefault(s string) (name, def string, hasDefault bool) {
	if i := strings.Index(s, "||"); i >= 0 {
		return s[:i], s[i+2:], true
	}
	return s, "", false
}

// parseOrRaw JSON-parses raw, falling back to the raw string on parse
// failure (§4.1).
func parseOrRaw(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// ResolveLinks walks the resolved tree a second time, substituting every
// env string beginning with "$._.env." by looking up the remainder as a
// key in the root spec's env (§4.1 "Top-env linking"). root must already
// have had ResolveEnv applied; linked values may themselves be
// process.env. values already resolved, but must not be further links —
// ResolveLinks does not recurse into a linked value looking for more link
// prefixes, matching the idempotence law resolveLinks ∘ resolveLinks =
// resolveLinks (§8).
func ResolveLinks(spec *Spec) *Spec {
	result := spec.Clone()
	walkLinks(result, result)
	return result
}

func walkLinks(node, root *Spec) {
	if node == nil {
		return
	}
	for k, v := range node.Env {
		node.Env[k] = resolveLinkValue(v, root)
	}
	for _, c := range node.Components {
		walkLinks(c, root)
	}
}

func resolveLinkValue(v any, root *Spec) any {
	switch t := v.(type) {
	case string:
		if !strings.HasPrefix(t, linkPrefix) {
			return t
		}
		key := strings.TrimPrefix(t, linkPrefix)
		if root.Env == nil {
			return nil
		}
		val, ok := root.Env[key]
		if !ok {
			return nil
		}
		return deepCloneValue(val)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = resolveLinkValue(vv, root)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = resolveLinkValue(vv, root)
		}
		return out
	default:
		return v
	}
}
