// Package loader implements the component loader of §4.2: a resolver
// chain that locates artefacts by logical name, a description cache, and
// the glue that turns a resolved description into a live component via its
// factory.
package loader

import (
	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
)

// Resolver attempts to locate an artefact by logical name (§4.2 "each
// resolver can attempt to locate an artefact by logical name"). A nil,
// false result with a nil error means "I don't have it, try the next
// resolver" — the loader distinguishes that from a hard error.
type Resolver interface {
	ID() string
	Resolve(name string) (artefact any, found bool, err error)
}

// Factory is the shape every loadable component exposes under the symbol
// name "newInstance" (§6 "Component factory contract"): it accepts the
// child context and the component's resolved spec, and asynchronously
// completes cb exactly once with (error, component).
type Factory func(ctx *components.Context, spec *desc.Spec, cb func(error, components.Component))

// Namespace is what a resolved module artefact must expose: at minimum a
// "newInstance" factory, reachable directly or by walking further
// "#"-separated accessor names (§4.2 "walk the accessor chain; the
// terminal value must expose a factory").
type Namespace map[string]any
