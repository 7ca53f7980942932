// Package container implements the static container of §4.4
// (gen_container): fixed, ordered membership and one-for-all supervision.
package container

import (
	"fmt"
	"time"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/loader"
	"github.com/cafgo/components/metabag"
	"github.com/cafgo/components/validate"
)

// StaticContainer extends the component kernel, embedding it the way §4.3
// requires derived kernels to: the container's own Checkup/Shutdown wrap
// the embedded Kernel's, calling it explicitly rather than relying on
// open recursion (§9's "that.super" pattern, reimplemented as Go
// embedding).
type StaticContainer struct {
	*components.Kernel

	components []*desc.Spec // deep-cloned at construction, immutable thereafter
	childCtx   *components.Context
	loader     *loader.Loader
	maxRetries int
	retryDelay time.Duration
	logger     components.Logger

	self components.Component // the outermost wrapped value, for deregistration
}

// New constructs a StaticContainer from spec, registered into parentCtx.
// Requires env.maxRetries (int >= 0) and env.retryDelay (int ms >= 0),
// per §4.4.
func New(spec *desc.Spec, parentCtx *components.Context, ldr *loader.Loader, logger components.Logger) (*StaticContainer, error) {
	kernel, err := components.NewKernel(spec, parentCtx)
	if err != nil {
		return nil, err
	}

	maxRetries, err := validate.RequireInt(spec.Env, "maxRetries", true)
	if err != nil {
		return nil, components.New(components.KindInvalidSpec, spec.Name, err)
	}
	retryDelayMs, err := validate.RequireInt(spec.Env, "retryDelay", true)
	if err != nil {
		return nil, components.New(components.KindInvalidSpec, spec.Name, err)
	}

	clonedChildren := make([]*desc.Spec, len(spec.Components))
	for i, c := range spec.Components {
		clonedChildren[i] = c.Clone()
	}

	if logger == nil {
		logger = components.NopLogger{}
	}

	childCtx := components.NewContext()
	sc := &StaticContainer{
		Kernel:     kernel,
		components: clonedChildren,
		childCtx:   childCtx,
		loader:     ldr,
		maxRetries: maxRetries,
		retryDelay: time.Duration(retryDelayMs) * time.Millisecond,
		logger:     logger,
	}
	sc.self = sc

	// "$.$._ = $._ so children can reach the root; if the container is
	// itself the root (no parent), sets $._ = self" (§4.4).
	if parentCtx != nil {
		if root := parentCtx.Root(); root != nil {
			childCtx.SetRoot(root)
		} else {
			childCtx.SetRoot(sc)
		}
	} else {
		childCtx.SetRoot(sc)
	}

	return sc, nil
}

// Context returns the children context ($.$), used by dynamic/
// transactional/supervisor specializations and by cmd/ demos to look up
// live children by name.
func (sc *StaticContainer) Context() *components.Context { return sc.childCtx }

// ExpectedSpecs returns the deep-cloned, declaration-ordered child specs.
func (sc *StaticContainer) ExpectedSpecs() []*desc.Spec { return sc.components }

// SetSelf overrides the object passed to the context deregistration check
// on Shutdown, used by derived kernels (dynamic, transactional,
// supervisor) that embed *StaticContainer and must deregister the
// outermost wrapped value, not the embedded StaticContainer itself.
func (sc *StaticContainer) SetSelf(self components.Component) { sc.self = self }

// checkChild calls the named child's checkup; missing or shutdown
// children fail (§4.4 "checkChild").
func (sc *StaticContainer) checkChild(name string) error {
	comp, ok := sc.childCtx.Get(name)
	if !ok {
		return components.New(components.KindMissingChild, name, nil)
	}
	if comp.IsShutdown() {
		return components.New(components.KindShutdownChild, name, nil)
	}
	return comp.Checkup(nil)
}

// checkAndRestartChild implements §4.4's restart policy: swallow the
// error for temporary children, propagate it when the caller suppressed
// restart via data, otherwise recreate the child.
func (sc *StaticContainer) checkAndRestartChild(childSpec *desc.Spec, data *components.Data) error {
	err := sc.checkChild(childSpec.Name)
	if err == nil {
		return nil
	}
	if metabag.IsTemporary(childSpec.Env) {
		sc.logger.Debug("checkAndRestartChild: %s is temporary, swallowing: %v", childSpec.Name, err)
		return nil
	}
	if data != nil && data.DoNotRestart() {
		return err
	}
	return sc.createChild(childSpec)
}

// shutdownChild calls the child's shutdown; absence is success
// (idempotent), retried up to the configured bound (§4.4).
func (sc *StaticContainer) shutdownChild(name string) error {
	comp, ok := sc.childCtx.Get(name)
	if !ok {
		return nil
	}
	return components.RetryWithDelay(name, sc.maxRetries, sc.retryDelay, func() error {
		return comp.Shutdown(nil)
	})
}

// createChild shuts down any existing binding first (to avoid split-brain)
// then delegates to the loader, retried up to the configured bound
// (§4.4).
func (sc *StaticContainer) createChild(childSpec *desc.Spec) error {
	if err := sc.shutdownChild(childSpec.Name); err != nil {
		return err
	}
	return components.RetryWithDelay(childSpec.Name, sc.maxRetries, sc.retryDelay, func() error {
		components.Yield()
		done := make(chan error, 1)
		sc.loader.LoadComponent(sc.childCtx, childSpec, func(err error, _ components.Component) {
			done <- err
		})
		return <-done
	})
}

// shutdownUnknowns shuts down every child bound in $.$ that is not
// expected, reserved, or marked __ca_isNotUnknown__ (§4.4 step 2).
func (sc *StaticContainer) shutdownUnknowns(data *components.Data) {
	expected := make(map[string]bool, len(sc.components))
	for _, c := range sc.components {
		expected[c.Name] = true
	}

	for name, comp := range sc.childCtx.Snapshot() {
		if components.Reserved[name] || expected[name] {
			continue
		}
		if metabag.IsNotUnknown(comp.GetSpec().Env) {
			continue
		}
		components.Yield()
		if err := comp.Shutdown(data); err != nil {
			sc.logger.Debug("shutdown of unknown child %s failed: %v", name, err)
		}
	}
}

// Checkup implements the one-for-all supervision policy of §4.4: run the
// embedded kernel's checkup, shut down unknown children, health-check
// every expected child in order; a failing temporary child is skipped;
// on any other failure shut down ALL known
// children in reverse order and recreate ALL expected children in
// declaration order. If that whole cycle fails, the container shuts
// itself down and the original error propagates.
func (sc *StaticContainer) Checkup(data *components.Data) error {
	if err := sc.Kernel.Checkup(data); err != nil {
		return err
	}

	sc.shutdownUnknowns(data)

	var firstErr error
	for _, childSpec := range sc.components {
		components.Yield()
		if err := sc.checkChild(childSpec.Name); err != nil {
			if metabag.IsTemporary(childSpec.Env) {
				sc.logger.Debug("checkup: %s is temporary, not restarting: %v", childSpec.Name, err)
				continue
			}
			firstErr = err
			break
		}
	}

	if firstErr == nil {
		return nil
	}

	if data != nil && data.DoNotRestart() {
		return firstErr
	}

	for i := len(sc.components) - 1; i >= 0; i-- {
		childSpec := sc.components[i]
		components.Yield()
		if err := sc.shutdownChild(childSpec.Name); err != nil {
			sc.logger.Debug("shutdown of %s during restart cascade failed: %v", childSpec.Name, err)
		}
	}

	for _, childSpec := range sc.components {
		components.Yield()
		if err := sc.createChild(childSpec); err != nil {
			_ = sc.Shutdown(data)
			return fmt.Errorf("restart cascade failed recreating %s, original error %w", childSpec.Name, firstErr)
		}
	}

	if data != nil {
		data.SetRestartAll()
	}
	return nil
}

// Shutdown propagates to all children in reverse declaration order
// (unknowns first, then expected children reversed), logging per-child
// failures at debug, then calls the embedded kernel's shutdown and
// deregisters self (§4.4 "Shutdown").
func (sc *StaticContainer) Shutdown(data *components.Data) error {
	sc.shutdownUnknowns(data)
	for i := len(sc.components) - 1; i >= 0; i-- {
		childSpec := sc.components[i]
		components.Yield()
		if err := sc.shutdownChild(childSpec.Name); err != nil {
			sc.logger.Debug("shutdown of %s failed: %v", childSpec.Name, err)
		}
	}
	if err := sc.Kernel.Shutdown(data); err != nil {
		return err
	}
	sc.DeregisterSelf(sc.self)
	return nil
}
