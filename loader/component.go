package loader

import (
	"fmt"
	"log/slog"
	"strings"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
	"github.com/google/uuid"
)

// LoadComponent resolves compSpec.module, invokes its factory, and on
// success registers the new component into ctx under compSpec.Name (§4.2
// "loadComponent"). cb is completed exactly once with (error, component).
//
// module is split on "#" into [modName, accessor1, accessor2, ...]; modName
// is resolved via LoadResource, then the accessor chain is walked to reach
// the terminal factory. The factory itself is invoked through a
// double-callback guard (§5 "Double-callback defence") and a panic
// recovery boundary that marks the resulting error WasThrown (§7
// FactoryException).
func (l *Loader) LoadComponent(ctx *components.Context, compSpec *desc.Spec, cb func(error, components.Component)) {
	invocationID := uuid.NewString()

	if !compSpec.ModuleSet {
		cb(components.New(components.KindInvalidSpec, compSpec.Name, nil), nil)
		return
	}

	parts := strings.Split(compSpec.Module, "#")
	modName := parts[0]
	accessors := parts[1:]

	artefact, err := l.LoadResource(modName)
	if err != nil {
		cb(err, nil)
		return
	}

	factory, err := walkAccessors(artefact, accessors, compSpec.Name)
	if err != nil {
		cb(err, nil)
		return
	}

	deliver := func(err error, comp components.Component) {
		if err != nil {
			cb(err, nil)
			return
		}
		if checkErr := comp.Checkup(nil); checkErr != nil {
			cb(checkErr, nil)
			return
		}
		ctx.Set(compSpec.Name, comp)
		cb(nil, comp)
	}

	onDiscarded := func(err error, comp components.Component) {
		slog.Warn("loadComponent: discarded double completion",
			"component", compSpec.Name, "invocation", invocationID, "error", err)
	}

	guarded := components.DoubleCallbackGuard(onDiscarded, deliver)
	invokeFactory(factory, ctx, compSpec, guarded)
}

// walkAccessors walks a "#"-separated accessor chain over artefact,
// returning the terminal Factory (§4.2 "walk the accessor chain; the
// terminal value must expose a factory").
func walkAccessors(artefact any, accessors []string, component string) (Factory, error) {
	current := artefact
	for _, accessor := range accessors {
		ns, ok := current.(Namespace)
		if !ok {
			if m, ok := current.(map[string]any); ok {
				ns = Namespace(m)
			} else {
				return nil, components.New(components.KindArtefactNotFound, component,
					notANamespaceErr(accessor))
			}
		}
		next, ok := ns[accessor]
		if !ok {
			return nil, components.New(components.KindArtefactNotFound, component, missingAccessorErr(accessor))
		}
		current = next
	}

	switch f := current.(type) {
	case Factory:
		return f, nil
	case func(*components.Context, *desc.Spec, func(error, components.Component)):
		return Factory(f), nil
	case Namespace:
		factory, ok := f["newInstance"]
		if !ok {
			return nil, components.New(components.KindArtefactNotFound, component, missingAccessorErr("newInstance"))
		}
		return walkAccessors(factory, nil, component)
	case map[string]any:
		factory, ok := f["newInstance"]
		if !ok {
			return nil, components.New(components.KindArtefactNotFound, component, missingAccessorErr("newInstance"))
		}
		return walkAccessors(factory, nil, component)
	default:
		return nil, components.New(components.KindArtefactNotFound, component, notAFactoryErr())
	}
}

// invokeFactory calls factory, recovering any panic and reporting it as a
// FactoryException with WasThrown set (§5, §7).
func invokeFactory(factory Factory, ctx *components.Context, spec *desc.Spec, cb func(error, components.Component)) {
	defer func() {
		if r := recover(); r != nil {
			cb(components.Thrown(spec.Name, r), nil)
		}
	}()
	factory(ctx, spec, cb)
}

func notANamespaceErr(accessor string) error {
	return fmt.Errorf("accessor %q: not a namespace", accessor)
}

func missingAccessorErr(accessor string) error {
	return fmt.Errorf("accessor %q not found", accessor)
}

func notAFactoryErr() error {
	return fmt.Errorf("terminal value does not expose a factory")
}
