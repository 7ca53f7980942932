package supervisor

import (
	"errors"
	"testing"
	"time"

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

func newBrokenLoader() *loader.Loader {
	ldr := loader.New()
	ldr.SetModules([]loader.Resolver{loader.NewMapResolver("leaves", map[string]any{
		"leaf": loader.Namespace{"newInstance": loader.Factory(
			func(ctx *components.Context, spec *desc.Spec, cb func(error, components.Component)) {
				cb(errors.New("factory always fails"), nil)
			}),
		},
	})})
	return ldr
}

func baseEnv() map[string]any {
	return map[string]any{
		"maxRetries":     float64(0),
		"retryDelay":     float64(0),
		"interval":       float64(10),
		"dieDelay":       float64(-1), // disable process exit in tests
		"maxHangRetries": float64(2),
	}
}

func TestSupervisor_RequiresIntervalDieDelayMaxHangRetries(t *testing.T) {
	ldr := newLeafLoader()
	spec := &desc.Spec{
		Name: "root",
		Env:  map[string]any{"maxRetries": float64(0), "retryDelay": float64(0)},
	}
	if _, err := New(spec, nil, ldr, nil); err == nil {
		t.Fatalf("expected error for missing env.interval/maxHangRetries")
	}
}

func TestSupervisor_DieDelayDefaultsNegative(t *testing.T) {
	ldr := newLeafLoader()
	env := map[string]any{
		"maxRetries":     float64(0),
		"retryDelay":     float64(0),
		"interval":       float64(10),
		"maxHangRetries": float64(2),
	}
	spec := &desc.Spec{Name: "root", Env: env}
	sv, err := New(spec, nil, ldr, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sv.dieDelay >= 0 {
		t.Fatalf("expected dieDelay to default negative, got %v", sv.dieDelay)
	}
}

func TestSupervisor_StartSyncSuccessCreatesChildrenAndStartsTimer(t *testing.T) {
	ldr := newLeafLoader()
	spec := &desc.Spec{
		Name:       "root",
		Env:        baseEnv(),
		Components: []*desc.Spec{{Name: "a", Module: "leaf", ModuleSet: true}},
	}
	sv, err := New(spec, nil, ldr, components.NopLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sv.Shutdown(nil)

	done := make(chan error, 1)
	sv.StartSync(func(err error) { done <- err })
	if err := <-done; err != nil {
		t.Fatalf("StartSync: %v", err)
	}

	if _, ok := sv.Context().Get("a"); !ok {
		t.Fatalf("expected child 'a' to be created by the synchronous start checkup")
	}
	sv.mu.Lock()
	started := sv.ticker != nil
	sv.mu.Unlock()
	if !started {
		t.Fatalf("expected timer to be started after a successful sync start")
	}
}

func TestSupervisor_StartSyncFailureDoesNotStartTimerAndDies(t *testing.T) {
	ldr := newBrokenLoader()
	spec := &desc.Spec{
		Name:       "root",
		Env:        baseEnv(),
		Components: []*desc.Spec{{Name: "a", Module: "leaf", ModuleSet: true}},
	}
	sv, err := New(spec, nil, ldr, components.NopLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	sv.StartSync(func(err error) { done <- err })
	err = <-done
	if err == nil {
		t.Fatalf("expected StartSync to fail when children cannot be created")
	}
	if !components.IsKind(err, components.KindFatal) {
		t.Fatalf("expected a Fatal error escalated from die, got %v", err)
	}

	sv.mu.Lock()
	started := sv.ticker != nil
	sv.mu.Unlock()
	if started {
		t.Fatalf("timer must not start after a failed synchronous start")
	}
	if !sv.IsShutdown() {
		t.Fatalf("expected die to have shut the supervisor down")
	}
}

func TestSupervisor_TickHangDetectionReportsWithoutDying(t *testing.T) {
	ldr := newLeafLoader()
	spec := &desc.Spec{Name: "root", Env: baseEnv()}
	sv, err := New(spec, nil, ldr, components.NopLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var reports []TickReport
	sv.SetNotifier(NotifierFunc(func(r TickReport) { reports = append(reports, r) }))

	sv.mu.Lock()
	sv.pending = true
	sv.mu.Unlock()

	sv.tick()

	if len(reports) != 1 || !reports[0].Hang {
		t.Fatalf("expected a single Hang report, got %#v", reports)
	}
	if sv.IsShutdown() {
		t.Fatalf("a single overlapping tick under maxHangRetries must not die")
	}
}

func TestSupervisor_HangExceedsMaxHangRetriesDies(t *testing.T) {
	ldr := newLeafLoader()
	spec := &desc.Spec{Name: "root", Env: baseEnv()} // maxHangRetries = 2
	sv, err := New(spec, nil, ldr, components.NopLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sv.mu.Lock()
	sv.pending = true
	sv.mu.Unlock()

	sv.tick() // hangCount 1
	sv.tick() // hangCount 2
	if sv.IsShutdown() {
		t.Fatalf("should not yet have died at hangCount == maxHangRetries")
	}
	sv.tick() // hangCount 3 > 2, dies

	if !sv.IsShutdown() {
		t.Fatalf("expected die once hang count exceeds maxHangRetries")
	}
}

func TestSupervisor_ShutdownStopsTimerAndContainer(t *testing.T) {
	ldr := newLeafLoader()
	spec := &desc.Spec{Name: "root", Env: baseEnv()}
	sv, err := New(spec, nil, ldr, components.NopLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sv.StartLazy()

	// Give the background ticker goroutine a moment to observe the stop
	// signal deterministically via the explicit Shutdown call below rather
	// than relying on timing.
	time.Sleep(0)

	if err := sv.Shutdown(nil); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	sv.mu.Lock()
	stopped := sv.ticker == nil
	sv.mu.Unlock()
	if !stopped {
		t.Fatalf("expected ticker to be cleared after Shutdown")
	}
	if !sv.IsShutdown() {
		t.Fatalf("expected supervisor itself shut down")
	}

	// Idempotent.
	if err := sv.Shutdown(nil); err != nil {
		t.Fatalf("second Shutdown returned an error: %v", err)
	}
}
