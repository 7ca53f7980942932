package loader

import (
	"fmt"
	"strings"
	"sync"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
)

// Loader is the component loader of §4.2: an ordered resolver sequence, a
// cache of parsed descriptions, and a static override table.
type Loader struct {
	mu sync.Mutex

	resolvers        []Resolver
	staticArtifacts  map[string]any
	descriptionCache map[string]*desc.Spec
	moduleIndex      map[string]string // artefact name -> resolver ID that supplied it
}

// New creates an empty Loader.
func New() *Loader {
	return &Loader{
		staticArtifacts:  make(map[string]any),
		descriptionCache: make(map[string]*desc.Spec),
		moduleIndex:      make(map[string]string),
	}
}

// SetModules replaces the resolver sequence, clearing the description
// cache (§4.2 "replace the resolver sequence; clears the description
// cache").
func (l *Loader) SetModules(resolvers []Resolver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolvers = append([]Resolver(nil), resolvers...)
	l.descriptionCache = make(map[string]*desc.Spec)
}

// SetStaticArtifacts installs a table bypassing resolution, returning the
// previous table (§4.2).
func (l *Loader) SetStaticArtifacts(table map[string]any) map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.staticArtifacts
	if table == nil {
		table = make(map[string]any)
	}
	l.staticArtifacts = table
	return prev
}

// LoadResource resolves name to an artefact: check the static table, try
// each resolver in order, the first to succeed wins (§4.2
// "loadResource"). Descriptions (".json" names) are cached by name; the
// cache is consulted before the static table and resolvers.
func (l *Loader) LoadResource(name string) (any, error) {
	l.mu.Lock()
	if strings.HasSuffix(name, ".json") {
		if cached, ok := l.descriptionCache[name]; ok {
			l.mu.Unlock()
			return cached, nil
		}
	}
	if art, ok := l.staticArtifacts[name]; ok {
		l.mu.Unlock()
		return art, nil
	}
	resolvers := append([]Resolver(nil), l.resolvers...)
	l.mu.Unlock()

	var exhausted []string
	for _, r := range resolvers {
		art, found, err := r.Resolve(name)
		if err != nil {
			return nil, components.New(components.KindArtefactNotFound, name, err)
		}
		if found {
			l.mu.Lock()
			l.moduleIndex[name] = r.ID()
			l.mu.Unlock()
			return art, nil
		}
		exhausted = append(exhausted, r.ID())
	}

	return nil, components.New(components.KindArtefactNotFound, name,
		fmt.Errorf("exhausted resolvers %v", exhausted))
}

// ModuleIndexFor returns which resolver supplied name, if any.
func (l *Loader) ModuleIndexFor(name string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.moduleIndex[name]
	return id, ok
}

// LoadDescription resolves a description document by file name (§4.2
// "loadDescription"). When resolve is false, the raw parsed base document
// is returned unmodified. When resolve is true: the base is merged with an
// optional sibling "<base>++.json" delta (overrideName=false), then merged
// with specOverride (overrideName=true, may be nil), then env-resolved and
// top-env-linked.
func (l *Loader) LoadDescription(fileName string, resolve bool, specOverride *desc.Spec) (*desc.Spec, error) {
	if !strings.HasSuffix(fileName, ".json") {
		return nil, components.New(components.KindInvalidSpec, fileName,
			fmt.Errorf("description name must end with .json"))
	}
	normalized := normalizePath(fileName)

	base, err := l.loadDescriptionDocument(normalized)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.descriptionCache[normalized] = base
	l.mu.Unlock()

	if !resolve {
		return base.Clone(), nil
	}

	deltaName := strings.TrimSuffix(normalized, ".json") + "++.json"
	result := base
	if delta, derr := l.loadDescriptionDocument(deltaName); derr == nil {
		merged, merr := desc.Merge(result, delta, false)
		if merr != nil {
			return nil, components.New(components.KindInvalidSpec, fileName, merr)
		}
		result = merged
	}
	// Absence of the sibling delta is not an error (§4.2 step 4).

	if specOverride != nil {
		merged, merr := desc.Merge(result, specOverride, true)
		if merr != nil {
			return nil, components.New(components.KindInvalidSpec, fileName, merr)
		}
		result = merged
	}

	result = desc.ResolveEnv(result, envLookup)
	result = desc.ResolveLinks(result)
	return result, nil
}

// loadDescriptionDocument loads and JSON-decodes a description file via
// LoadResource, through desc.Spec.UnmarshalJSON; unknown fields in the
// document are ignored, not rejected.
func (l *Loader) loadDescriptionDocument(name string) (*desc.Spec, error) {
	raw, err := l.LoadResource(name)
	if err != nil {
		return nil, err
	}

	switch v := raw.(type) {
	case *desc.Spec:
		return v, nil
	case []byte:
		var s desc.Spec
		if err := s.UnmarshalJSON(v); err != nil {
			return nil, components.New(components.KindInvalidSpec, name, err)
		}
		return &s, nil
	case string:
		var s desc.Spec
		if err := s.UnmarshalJSON([]byte(v)); err != nil {
			return nil, components.New(components.KindInvalidSpec, name, err)
		}
		return &s, nil
	default:
		return nil, components.New(components.KindInvalidSpec, name,
			fmt.Errorf("unrecognized description artefact type %T", raw))
	}
}

func normalizePath(name string) string {
	return strings.TrimPrefix(name, "./")
}
