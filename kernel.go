package components

import (
	"fmt"

	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/validate"
)

// Component is the capability set every live object in the tree exposes
// (§3, §4.3). Derived kernels (container, dynamic container, transactional
// container, supervisor) embed *Kernel and wrap its Checkup/Shutdown,
// capturing the parent method in a closure before substituting their own —
// the "prototype chain + that.super = ..." pattern of §9, reimplemented
// here as explicit embedding plus an explicit call to the embedded method,
// never open recursion.
type Component interface {
	GetSpec() *desc.Spec
	Checkup(data *Data) error
	Shutdown(data *Data) error
	IsShutdown() bool
}

// Kernel is the generic component kernel (gen_component, §4.3). It is
// meant to be embedded by every derived kernel type; derived Checkup/
// Shutdown methods call kernel.Checkup/kernel.Shutdown explicitly as part
// of their own behavior, per §4.3 "designed to be wrappable".
type Kernel struct {
	spec       *desc.Spec
	isShutdown bool
	ctx        *Context // the context this component is registered in
}

// NewKernel validates spec and constructs a new Kernel (§4.3
// "Construction (synchronous) validates the spec").
func NewKernel(spec *desc.Spec, ctx *Context) (*Kernel, error) {
	if spec == nil {
		return nil, New(KindInvalidSpec, "", fmt.Errorf("spec is nil"))
	}
	if err := validate.RequireNonEmptyName(spec.Name); err != nil {
		return nil, New(KindInvalidSpec, "", fmt.Errorf("spec.name: %w", err))
	}
	return &Kernel{spec: spec, ctx: ctx}, nil
}

// GetSpec returns the immutable spec.
func (k *Kernel) GetSpec() *desc.Spec {
	return k.spec
}

// IsShutdown reports the monotonic shutdown flag.
func (k *Kernel) IsShutdown() bool {
	return k.isShutdown
}

// Checkup fails with ComponentShutdown when isShutdown; otherwise succeeds
// (§4.3).
func (k *Kernel) Checkup(data *Data) error {
	if k.isShutdown {
		return New(KindComponentShutdown, k.spec.Name, nil)
	}
	return nil
}

// Shutdown sets isShutdown; always succeeds (§4.3, §8 invariant 5:
// idempotent, never errors on the second call). It does not remove the
// context binding: DeregisterSelf does that, and only for the value it is
// given, so a component that never calls DeregisterSelf stays bound under
// spec.name after Shutdown.
func (k *Kernel) Shutdown(data *Data) error {
	k.isShutdown = true
	return nil
}

// DeregisterSelf is called by derived kernels after Shutdown, passing
// themselves (the outermost wrapped Component) so the exact-identity check
// of §3 deregisters the right object.
func (k *Kernel) DeregisterSelf(self Component) {
	if k.ctx != nil {
		k.ctx.DeleteIfSame(k.spec.Name, self)
	}
}
