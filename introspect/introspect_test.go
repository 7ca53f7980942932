package introspect

import (
	"reflect"
	"testing"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/container"
	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/loader"
)

func newLeafLoader() *loader.Loader {
	ldr := loader.New()
	ldr.SetModules([]loader.Resolver{loader.NewMapResolver("leaves", map[string]any{
		"leaf": loader.Namespace{"newInstance": loader.Factory(
			func(ctx *components.Context, spec *desc.Spec, cb func(error, components.Component)) {
				k, err := components.NewKernel(spec, ctx)
				if err != nil {
					cb(err, nil)
					return
				}
				cb(nil, &leafStub{Kernel: k})
			}),
		},
	})})
	return ldr
}

type leafStub struct {
	*components.Kernel
}

func TestInspect_StaticContainerReportsKindAndChildren(t *testing.T) {
	ldr := newLeafLoader()
	spec := &desc.Spec{
		Name: "root",
		Env:  map[string]any{"maxRetries": float64(0), "retryDelay": float64(0), "tag": "v1"},
		Components: []*desc.Spec{
			{Name: "a", Module: "leaf", ModuleSet: true},
			{Name: "b", Module: "leaf", ModuleSet: true},
		},
	}
	sc, err := container.New(spec, nil, ldr, components.NopLogger{})
	if err != nil {
		t.Fatalf("container.New: %v", err)
	}
	for _, cs := range sc.ExpectedSpecs() {
		done := make(chan error, 1)
		ldr.LoadComponent(sc.Context(), cs, func(err error, _ components.Component) { done <- err })
		if err := <-done; err != nil {
			t.Fatalf("loading %s: %v", cs.Name, err)
		}
	}

	node := Inspect(sc)
	if node.Kind != KindStatic {
		t.Fatalf("Kind = %v, want %v", node.Kind, KindStatic)
	}
	if node.Name != "root" {
		t.Fatalf("Name = %q, want root", node.Name)
	}
	if !reflect.DeepEqual(node.Dependencies, []string{"a", "b"}) {
		t.Fatalf("Dependencies = %v, want [a b]", node.Dependencies)
	}
	if node.Metadata["tag"] != "v1" {
		t.Fatalf("Metadata[tag] = %v, want v1", node.Metadata["tag"])
	}
}

func TestInspect_LeafHasNoDependencies(t *testing.T) {
	k, err := components.NewKernel(&desc.Spec{Name: "leaf-only"}, nil)
	if err != nil {
		t.Fatalf("NewKernel: %v", err)
	}
	node := Inspect(&leafStub{Kernel: k})
	if node.Kind != KindLeaf {
		t.Fatalf("Kind = %v, want %v", node.Kind, KindLeaf)
	}
	if node.Dependencies != nil {
		t.Fatalf("expected nil Dependencies for a leaf, got %v", node.Dependencies)
	}
}

func TestWalk_VisitsRootThenChildrenWithFullPaths(t *testing.T) {
	ldr := newLeafLoader()
	spec := &desc.Spec{
		Name: "root",
		Env:  map[string]any{"maxRetries": float64(0), "retryDelay": float64(0)},
		Components: []*desc.Spec{
			{Name: "a", Module: "leaf", ModuleSet: true},
		},
	}
	sc, err := container.New(spec, nil, ldr, components.NopLogger{})
	if err != nil {
		t.Fatalf("container.New: %v", err)
	}
	for _, cs := range sc.ExpectedSpecs() {
		done := make(chan error, 1)
		ldr.LoadComponent(sc.Context(), cs, func(err error, _ components.Component) { done <- err })
		if err := <-done; err != nil {
			t.Fatalf("loading %s: %v", cs.Name, err)
		}
	}

	var paths [][]string
	Walk(sc, func(path []string, node Node) {
		paths = append(paths, append([]string(nil), path...))
	})

	if len(paths) != 2 {
		t.Fatalf("expected 2 visited nodes (root + a), got %d: %v", len(paths), paths)
	}
	if !reflect.DeepEqual(paths[0], []string{"root"}) {
		t.Fatalf("first path = %v, want [root]", paths[0])
	}
	if !reflect.DeepEqual(paths[1], []string{"root", "a"}) {
		t.Fatalf("second path = %v, want [root a]", paths[1])
	}
}
