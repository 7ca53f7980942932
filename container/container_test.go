package container

import (
	"errors"
	"testing"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/loader"
)

type leaf struct {
	*components.Kernel
	failCheckups int
}

func newLeafFactory(registry map[string]*leaf) loader.Factory {
	return func(ctx *components.Context, spec *desc.Spec, cb func(error, components.Component)) {
		k, err := components.NewKernel(spec, ctx)
		if err != nil {
			cb(err, nil)
			return
		}
		l := &leaf{Kernel: k}
		registry[spec.Name] = l
		cb(nil, l)
	}
}

func (l *leaf) Checkup(data *components.Data) error {
	if l.failCheckups > 0 {
		l.failCheckups--
		return components.New(components.KindMissingChild, l.GetSpec().Name, errors.New("simulated failure"))
	}
	return l.Kernel.Checkup(data)
}

func newTestContainer(t *testing.T, children []*desc.Spec) (*StaticContainer, map[string]*leaf) {
	t.Helper()
	registry := make(map[string]*leaf)
	ldr := loader.New()
	ldr.SetModules([]loader.Resolver{loader.NewMapResolver("leaves", map[string]any{
		"leaf": loader.Namespace{"newInstance": newLeafFactory(registry)},
	})})

	spec := &desc.Spec{
		Name:       "root",
		Env:        map[string]any{"maxRetries": float64(1), "retryDelay": float64(0)},
		Components: children,
	}

	sc, err := New(spec, nil, ldr, components.NopLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sc, registry
}

func childSpecs(names ...string) []*desc.Spec {
	out := make([]*desc.Spec, len(names))
	for i, n := range names {
		out[i] = &desc.Spec{Name: n, Module: "leaf", ModuleSet: true}
	}
	return out
}

func TestStaticContainer_RequiresMaxRetriesAndRetryDelay(t *testing.T) {
	ldr := loader.New()
	_, err := New(&desc.Spec{Name: "root"}, nil, ldr, nil)
	if err == nil {
		t.Fatalf("expected error for missing env.maxRetries/retryDelay")
	}
}

func TestStaticContainer_ChildContextRootWiring(t *testing.T) {
	ldr := loader.New()
	spec := &desc.Spec{Name: "root", Env: map[string]any{"maxRetries": float64(0), "retryDelay": float64(0)}}
	sc, err := New(spec, nil, ldr, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sc.Context().Root() != components.Component(sc) {
		t.Fatalf("root container's child context should back-reference itself")
	}
}

func TestStaticContainer_CheckupCreatesAndHealthChecksChildren(t *testing.T) {
	sc, registry := newTestContainer(t, childSpecs("a", "b"))

	// Force a restart cascade by making "a" fail its next checkup.
	for _, spec := range sc.ExpectedSpecs() {
		if err := sc.createChild(spec); err != nil {
			t.Fatalf("createChild(%s): %v", spec.Name, err)
		}
	}
	if len(registry) != 2 {
		t.Fatalf("expected 2 children created, got %d", len(registry))
	}

	registry["a"].failCheckups = 1
	oldA := registry["a"]
	data := components.NewData()
	if err := sc.Checkup(data); err != nil {
		t.Fatalf("Checkup after induced failure: %v", err)
	}
	if !data.RestartAll() {
		t.Fatalf("expected RestartAll to be set after a full restart cascade")
	}
	// Children were recreated: the old "a" object is gone, replaced.
	if registry["a"] == oldA {
		t.Fatalf("stale leaf object still referenced")
	}
}

func TestStaticContainer_ShutdownReverseOrderAndIdempotent(t *testing.T) {
	sc, registry := newTestContainer(t, childSpecs("x", "y"))
	for _, spec := range sc.ExpectedSpecs() {
		if err := sc.createChild(spec); err != nil {
			t.Fatalf("createChild: %v", err)
		}
	}

	if err := sc.Shutdown(nil); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !registry["x"].IsShutdown() || !registry["y"].IsShutdown() {
		t.Fatalf("expected both children shut down")
	}
	if !sc.IsShutdown() {
		t.Fatalf("expected container itself shut down")
	}

	// Idempotent: second call must not error.
	if err := sc.Shutdown(nil); err != nil {
		t.Fatalf("second Shutdown returned an error: %v", err)
	}
}

func TestStaticContainer_DoNotRestartSuppressesRecreate(t *testing.T) {
	sc, registry := newTestContainer(t, childSpecs("only"))
	if err := sc.createChild(sc.ExpectedSpecs()[0]); err != nil {
		t.Fatalf("createChild: %v", err)
	}
	registry["only"].failCheckups = 100

	data := components.NewData()
	data.SetDoNotRestart(true)
	if err := sc.Checkup(data); err == nil {
		t.Fatalf("expected checkup to propagate failure when doNotRestart is set")
	}
}
