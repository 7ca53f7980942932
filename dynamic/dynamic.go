// Package dynamic implements the dynamic container of §4.5
// (gen_dynamic_container): runtime-mutable membership, one-for-one
// supervision, and sharded serial per-name queues.
package dynamic

import (
	"hash/fnv"
	"sync"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/loader"
	"github.com/cafgo/components/metabag"
)

// shardCount matches §4.5's "a fixed set (e.g., 47) of single-worker
// serial queues".
const shardCount = 47

// shard is a single-worker serial queue: tasks submitted to the same
// shard run one at a time, in submission order.
type shard struct {
	mu   sync.Mutex
	jobs chan func()
}

func newShard() *shard {
	s := &shard{jobs: make(chan func(), 64)}
	go s.run()
	return s
}

func (s *shard) run() {
	for job := range s.jobs {
		job()
	}
}

func (s *shard) submit(job func(), done chan<- struct{}) {
	s.jobs <- func() {
		job()
		close(done)
	}
}

// DynamicContainer extends the component kernel. Membership (the
// "expected" set) is mutable at runtime; supervision is one-for-one.
type DynamicContainer struct {
	*components.Kernel

	childCtx *components.Context
	loader   *loader.Loader
	logger   components.Logger

	mu       sync.Mutex
	expected map[string]*desc.Spec

	shards [shardCount]*shard

	self components.Component
}

// New constructs a DynamicContainer registered into parentCtx.
func New(spec *desc.Spec, parentCtx *components.Context, ldr *loader.Loader, logger components.Logger) (*DynamicContainer, error) {
	kernel, err := components.NewKernel(spec, parentCtx)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = components.NopLogger{}
	}

	childCtx := components.NewContext()
	dc := &DynamicContainer{
		Kernel:   kernel,
		childCtx: childCtx,
		loader:   ldr,
		logger:   logger,
		expected: make(map[string]*desc.Spec),
	}
	dc.self = dc
	for i := range dc.shards {
		dc.shards[i] = newShard()
	}

	if parentCtx != nil {
		if root := parentCtx.Root(); root != nil {
			childCtx.SetRoot(root)
		} else {
			childCtx.SetRoot(dc)
		}
	} else {
		childCtx.SetRoot(dc)
	}

	return dc, nil
}

// Context returns the children context ($.$).
func (dc *DynamicContainer) Context() *components.Context { return dc.childCtx }

// SetSelf overrides the deregistration identity, used by specializations
// embedding *DynamicContainer.
func (dc *DynamicContainer) SetSelf(self components.Component) { dc.self = self }

func (dc *DynamicContainer) shardFor(name string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return dc.shards[h.Sum32()%shardCount]
}

// runOnShard serializes fn against every other operation on the same
// child name (§4.5 "serialised through a per-name queue ... sharded by
// stable hash").
func (dc *DynamicContainer) runOnShard(name string, fn func()) {
	done := make(chan struct{})
	dc.shardFor(name).submit(fn, done)
	<-done
}

// InstanceChild creates a child named spec.Name if absent, or returns the
// existing one (§4.5 "instanceChild"). Callers needing a specific spec for
// an already-present name must call DeleteChild first.
func (dc *DynamicContainer) InstanceChild(data *components.Data, spec *desc.Spec) (components.Component, error) {
	var result components.Component
	var resultErr error

	dc.runOnShard(spec.Name, func() {
		if existing, ok := dc.childCtx.Get(spec.Name); ok {
			result = existing
			return
		}
		if err := dc.createChild(data, spec); err != nil {
			resultErr = err
			return
		}
		result, _ = dc.childCtx.Get(spec.Name)
	})

	return result, resultErr
}

// createChild is the internal, non-queued half of instancing: record the
// spec in the expected set, invoke the loader, and on failure roll back
// the expected-set entry if the spec was marked temporary (§4.5
// "createChild").
func (dc *DynamicContainer) createChild(data *components.Data, spec *desc.Spec) error {
	dc.mu.Lock()
	dc.expected[spec.Name] = spec
	dc.mu.Unlock()

	done := make(chan error, 1)
	dc.loader.LoadComponent(dc.childCtx, spec, func(err error, _ components.Component) {
		done <- err
	})
	err := <-done

	if err != nil && metabag.IsTemporary(spec.Env) {
		dc.mu.Lock()
		delete(dc.expected, spec.Name)
		dc.mu.Unlock()
	}
	return err
}

// DeleteChild removes name from the expected set (if present) then shuts
// it down (idempotent), per §4.5 "deleteChild".
func (dc *DynamicContainer) DeleteChild(data *components.Data, name string) error {
	var resultErr error
	dc.runOnShard(name, func() {
		dc.mu.Lock()
		delete(dc.expected, name)
		dc.mu.Unlock()

		comp, ok := dc.childCtx.Get(name)
		if !ok {
			return
		}
		resultErr = comp.Shutdown(data)
	})
	return resultErr
}

// GetChildSpec returns the expected spec for name, if any.
func (dc *DynamicContainer) GetChildSpec(name string) (*desc.Spec, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	spec, ok := dc.expected[name]
	return spec, ok
}

// AllChildren returns every expected child spec.
func (dc *DynamicContainer) AllChildren() []*desc.Spec {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	out := make([]*desc.Spec, 0, len(dc.expected))
	for _, spec := range dc.expected {
		out = append(out, spec)
	}
	return out
}

func (dc *DynamicContainer) checkChild(name string) error {
	comp, ok := dc.childCtx.Get(name)
	if !ok {
		return components.New(components.KindMissingChild, name, nil)
	}
	if comp.IsShutdown() {
		return components.New(components.KindShutdownChild, name, nil)
	}
	return comp.Checkup(nil)
}

func (dc *DynamicContainer) checkAndRestartChild(data *components.Data, spec *desc.Spec) error {
	err := dc.checkChild(spec.Name)
	if err == nil {
		return nil
	}
	if metabag.IsTemporary(spec.Env) {
		dc.logger.Debug("checkAndRestartChild: %s is temporary, swallowing: %v", spec.Name, err)
		return nil
	}
	if data != nil && data.DoNotRestart() {
		return err
	}

	var resultErr error
	dc.runOnShard(spec.Name, func() {
		resultErr = dc.createChild(data, spec)
	})
	return resultErr
}

// Checkup implements the one-for-one policy of §4.5: shut down children
// bound in $.$ but no longer in the expected set, then
// checkAndRestartChild for each expected spec independently. A failure in
// one child's recreation is logged and does not affect siblings, and the
// checkup still succeeds; only when data carries doNotRestart does a
// failing child make the container shut itself down and return that
// child's error (the last one, if several failed).
func (dc *DynamicContainer) Checkup(data *components.Data) error {
	if err := dc.Kernel.Checkup(data); err != nil {
		return err
	}

	dc.mu.Lock()
	expectedNames := make(map[string]bool, len(dc.expected))
	specs := make([]*desc.Spec, 0, len(dc.expected))
	for name, spec := range dc.expected {
		expectedNames[name] = true
		specs = append(specs, spec)
	}
	dc.mu.Unlock()

	for name, comp := range dc.childCtx.Snapshot() {
		if components.Reserved[name] || expectedNames[name] {
			continue
		}
		components.Yield()
		if err := comp.Shutdown(data); err != nil {
			dc.logger.Debug("shutdown of unknown dynamic child %s failed: %v", name, err)
		}
	}

	var lastErr error
	for _, spec := range specs {
		components.Yield()
		if err := dc.checkAndRestartChild(data, spec); err != nil {
			lastErr = err
			dc.logger.Debug("one-for-one restart of %s failed: %v", spec.Name, err)
		}
	}

	if lastErr != nil && data != nil && data.DoNotRestart() {
		_ = dc.Shutdown(data)
		return lastErr
	}

	return nil
}

// Shutdown propagates to all present children (unknowns and expected,
// concatenated, no ordering guarantee — dynamic children are
// independent), logging and propagating errors (§4.5 "Shutdown").
func (dc *DynamicContainer) Shutdown(data *components.Data) error {
	var firstErr error
	for name, comp := range dc.childCtx.Snapshot() {
		if components.Reserved[name] {
			continue
		}
		components.Yield()
		if err := comp.Shutdown(data); err != nil {
			dc.logger.Error("shutdown of dynamic child %s failed: %v", name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if err := dc.Kernel.Shutdown(data); err != nil {
		return err
	}
	dc.DeregisterSelf(dc.self)
	return firstErr
}
