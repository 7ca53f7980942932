// Package job is a leaf component module modeling a one-shot background
// task, used by the cmd/ dynamic-container demo to exercise children
// that complete and deregister themselves rather than running forever.
package job

import (
	"time"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
)

// Job runs until env.lifetimeMs elapses (if > 0), then shuts itself down
// and deregisters from the context it was loaded into. A zero or absent
// lifetimeMs means the job runs indefinitely.
type Job struct {
	*components.Kernel
}

// NewInstance is the module's factory, registered under "newInstance".
func NewInstance(ctx *components.Context, spec *desc.Spec, cb func(error, components.Component)) {
	k, err := components.NewKernel(spec, ctx)
	if err != nil {
		cb(err, nil)
		return
	}
	j := &Job{Kernel: k}

	var lifetimeMs float64
	if v, ok := spec.Env["lifetimeMs"].(float64); ok {
		lifetimeMs = v
	}
	if lifetimeMs > 0 {
		go func() {
			time.Sleep(time.Duration(lifetimeMs) * time.Millisecond)
			j.Shutdown(nil)
			if ctx != nil {
				ctx.DeleteIfSame(spec.Name, j)
			}
		}()
	}

	cb(nil, j)
}
