// Package flaky is a leaf component module whose Checkup randomly fails,
// used by the cmd/ supervisor demo to exercise
// restart cascades against a component with a configurable mean time
// between failures rather than a component that is either always healthy
// or always broken.
package flaky

import (
	"math/rand"
	"sync"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
)

// Flaky is a leaf component that reports env.msg/env.number like hello,
// but whose Checkup fails with probability env.failProbability (a float
// in [0, 1], default 0) on each call, seeded from env.seed for
// reproducible runs.
type Flaky struct {
	*components.Kernel

	mu         sync.Mutex
	rng        *rand.Rand
	failProb   float64
	checkCount int
	failCount  int
}

func (f *Flaky) GetMessage() string {
	v, _ := f.GetSpec().Env["msg"].(string)
	return v
}

func (f *Flaky) GetNumber() (float64, bool) {
	v, ok := f.GetSpec().Env["number"]
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	return n, ok
}

// Checkup reports the embedded kernel's shutdown state first, then rolls
// the dice: failProbability 0 never fails, 1 always fails.
func (f *Flaky) Checkup(data *components.Data) error {
	if err := f.Kernel.Checkup(data); err != nil {
		return err
	}

	f.mu.Lock()
	f.checkCount++
	fail := f.failProb > 0 && f.rng.Float64() < f.failProb
	if fail {
		f.failCount++
	}
	f.mu.Unlock()

	if fail {
		return components.New(components.KindFactoryError, f.GetSpec().Name, errFlaky{})
	}
	return nil
}

// Stats returns how many checkups ran and how many of those were rolled
// as failures, for demo reporting.
func (f *Flaky) Stats() (checks, fails int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkCount, f.failCount
}

type errFlaky struct{}

func (errFlaky) Error() string { return "flaky: simulated failure" }

// NewInstance is the module's factory, registered under "newInstance".
func NewInstance(ctx *components.Context, spec *desc.Spec, cb func(error, components.Component)) {
	k, err := components.NewKernel(spec, ctx)
	if err != nil {
		cb(err, nil)
		return
	}

	var failProb float64
	if v, ok := spec.Env["failProbability"]; ok {
		if n, ok := v.(float64); ok {
			failProb = n
		}
	}
	var seed int64 = 1
	if v, ok := spec.Env["seed"]; ok {
		if n, ok := v.(float64); ok {
			seed = int64(n)
		}
	}

	fl := &Flaky{
		Kernel:   k,
		rng:      rand.New(rand.NewSource(seed)),
		failProb: failProb,
	}
	cb(nil, fl)
}
