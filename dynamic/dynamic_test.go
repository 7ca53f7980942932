package dynamic

import (
	"sync"
	"testing"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/loader"
)

type leaf struct {
	*components.Kernel
}

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
				cb(nil, &leaf{Kernel: k})
			}),
		},
	})})
	return ldr
}

func TestDynamicContainer_InstanceChildCreatesOnceReturnsExisting(t *testing.T) {
	ldr := newLeafLoader()
	dc, err := New(&desc.Spec{Name: "pool"}, nil, ldr, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	spec := &desc.Spec{Name: "worker-1", Module: "leaf", ModuleSet: true}
	first, err := dc.InstanceChild(nil, spec)
	if err != nil {
		t.Fatalf("InstanceChild: %v", err)
	}
	second, err := dc.InstanceChild(nil, spec)
	if err != nil {
		t.Fatalf("InstanceChild (repeat): %v", err)
	}
	if first != second {
		t.Fatalf("expected InstanceChild to return the existing child on repeat")
	}
	if len(dc.AllChildren()) != 1 {
		t.Fatalf("expected exactly one expected child")
	}
}

func TestDynamicContainer_DeleteChildRemovesFromExpectedAndShutsDown(t *testing.T) {
	ldr := newLeafLoader()
	dc, err := New(&desc.Spec{Name: "pool"}, nil, ldr, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	spec := &desc.Spec{Name: "worker-1", Module: "leaf", ModuleSet: true}
	comp, err := dc.InstanceChild(nil, spec)
	if err != nil {
		t.Fatalf("InstanceChild: %v", err)
	}

	if err := dc.DeleteChild(nil, "worker-1"); err != nil {
		t.Fatalf("DeleteChild: %v", err)
	}
	if !comp.IsShutdown() {
		t.Fatalf("expected child to be shut down")
	}
	if _, ok := dc.GetChildSpec("worker-1"); ok {
		t.Fatalf("expected child removed from expected set")
	}

	// Idempotent on an already-absent name.
	if err := dc.DeleteChild(nil, "worker-1"); err != nil {
		t.Fatalf("DeleteChild on absent name returned error: %v", err)
	}
}

func TestDynamicContainer_ConcurrentInstanceChildSameNameSerialized(t *testing.T) {
	ldr := newLeafLoader()
	dc, err := New(&desc.Spec{Name: "pool"}, nil, ldr, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	spec := &desc.Spec{Name: "shared", Module: "leaf", ModuleSet: true}

	var wg sync.WaitGroup
	results := make([]components.Component, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			comp, err := dc.InstanceChild(nil, spec)
			if err != nil {
				t.Errorf("InstanceChild: %v", err)
				return
			}
			results[i] = comp
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatalf("concurrent InstanceChild calls on the same name produced different instances")
		}
	}
}

func TestDynamicContainer_ShutdownPropagatesToAllChildren(t *testing.T) {
	ldr := newLeafLoader()
	dc, err := New(&desc.Spec{Name: "pool"}, nil, ldr, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a, _ := dc.InstanceChild(nil, &desc.Spec{Name: "a", Module: "leaf", ModuleSet: true})
	b, _ := dc.InstanceChild(nil, &desc.Spec{Name: "b", Module: "leaf", ModuleSet: true})

	if err := dc.Shutdown(nil); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !a.IsShutdown() || !b.IsShutdown() {
		t.Fatalf("expected all children shut down")
	}
	if !dc.IsShutdown() {
		t.Fatalf("expected container itself shut down")
	}
}
