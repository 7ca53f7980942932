// Package hello is a minimal leaf component module, loadable via
// "hello#newInstance", used by the cmd/ description-engine demos
// (helloworld, rename, extend, hierarchy) to exercise merge and env
// resolution over a component with a handful of string/number env
// fields rather than a synthetic test stub.
package hello

import (
	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
)

// Hello is a leaf component whose only behaviour is reading back fields
// from its own resolved spec.Env.
type Hello struct {
	*components.Kernel
}

// GetMessage returns env.msg, or "" if absent.
func (h *Hello) GetMessage() string {
	v, _ := h.GetSpec().Env["msg"].(string)
	return v
}

// GetNumber returns env.number and whether it holds a number (§8 "extend"
// clears number by setting it to null in the delta, which reads back as
// absent, not zero).
func (h *Hello) GetNumber() (float64, bool) {
	v, ok := h.GetSpec().Env["number"]
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	return n, ok
}

// GetOtherMessage returns env.otherMessage, or "" if absent.
func (h *Hello) GetOtherMessage() string {
	v, _ := h.GetSpec().Env["otherMessage"].(string)
	return v
}

// NewInstance is the module's factory, registered under the symbol name
// "newInstance" (§6 "Component factory contract"). Callers wire it into a
// loader.Loader via loader.Namespace{"newInstance": loader.Factory(NewInstance)}.
func NewInstance(ctx *components.Context, spec *desc.Spec, cb func(error, components.Component)) {
	k, err := components.NewKernel(spec, ctx)
	if err != nil {
		cb(err, nil)
		return
	}
	cb(nil, &Hello{Kernel: k})
}
