// Package supervisor implements the periodic health-check driver of §4.7
// (gen_supervisor): a static container extended with a timer-driven tick
// loop, hang detection, and terminal process-exit escalation.
package supervisor

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/container"
	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/diagnostics"
	"github.com/cafgo/components/loader"
	"github.com/cafgo/components/validate"
)

// TickReport is delivered to the optional Notifier after every
// health-check tick (§4.7), including the overlapping-hang case.
type TickReport struct {
	RoundID    string
	Err        error
	RestartAll bool
	Hang       bool
	HangCount  int
}

// Notifier receives per-tick reports from a running Supervisor.
type Notifier interface {
	Notify(report TickReport)
}

// NotifierFunc adapts a plain func into a Notifier.
type NotifierFunc func(TickReport)

func (f NotifierFunc) Notify(r TickReport) { f(r) }

// Supervisor extends the static container with a periodic tick (§4.7).
// env.interval and env.maxHangRetries are required; env.dieDelay is
// optional and defaults to -1 (no process exit) when absent.
type Supervisor struct {
	*container.StaticContainer

	interval       time.Duration
	dieDelay       time.Duration
	maxHangRetries int
	logger         components.Logger

	mu        sync.Mutex
	notifier  Notifier
	dumper    *diagnostics.Dumper
	ticker    *time.Ticker
	stopCh    chan struct{}
	pending   bool
	hangCount int
	dead      bool

	dataPool *components.DataPool
	self     components.Component
}

// New constructs a Supervisor from spec, registered into parentCtx.
func New(spec *desc.Spec, parentCtx *components.Context, ldr *loader.Loader, logger components.Logger) (*Supervisor, error) {
	sc, err := container.New(spec, parentCtx, ldr, logger)
	if err != nil {
		return nil, err
	}

	intervalMs, err := validate.RequireInt(spec.Env, "interval", true)
	if err != nil {
		return nil, components.New(components.KindInvalidSpec, spec.Name, err)
	}
	dieDelayMs, err := validate.OptionalInt(spec.Env, "dieDelay", -1)
	if err != nil {
		return nil, components.New(components.KindInvalidSpec, spec.Name, err)
	}
	maxHangRetries, err := validate.RequireInt(spec.Env, "maxHangRetries", true)
	if err != nil {
		return nil, components.New(components.KindInvalidSpec, spec.Name, err)
	}

	if logger == nil {
		logger = components.NopLogger{}
	}

	sv := &Supervisor{
		StaticContainer: sc,
		interval:        time.Duration(intervalMs) * time.Millisecond,
		dieDelay:        time.Duration(dieDelayMs) * time.Millisecond,
		maxHangRetries:  maxHangRetries,
		logger:          logger,
		dataPool:        components.NewDataPool(),
	}
	sv.self = sv
	sc.SetSelf(sv)
	return sv, nil
}

// SetNotifier installs the optional per-tick report receiver (§4.7).
func (sv *Supervisor) SetNotifier(n Notifier) { sv.notifier = n }

// SetDumper installs an optional supervision-tree dumper, invoked from
// die() so operators get an ASCII snapshot of the tree at the moment the
// root decided it could not recover.
func (sv *Supervisor) SetDumper(d *diagnostics.Dumper) { sv.dumper = d }

// StartSync runs one health-check synchronously; on failure the timer is
// never started and the error is returned via cb; on success the timer
// starts and the notifier (if any) receives reports for every subsequent
// round (§4.7 "Synchronous start").
func (sv *Supervisor) StartSync(cb func(error)) {
	err := sv.Checkup(nil)
	if err != nil {
		cb(err)
		return
	}
	sv.startTimer()
	cb(nil)
}

// StartLazy starts the timer immediately; the first tick constructs the
// tree (children do not yet exist, so the first checkup's restart cascade
// creates them), and the notifier receives a report for every round
// including the first (§4.7 "Lazy start").
func (sv *Supervisor) StartLazy() {
	sv.startTimer()
}

func (sv *Supervisor) startTimer() {
	sv.mu.Lock()
	if sv.ticker != nil {
		sv.mu.Unlock()
		return
	}
	sv.ticker = time.NewTicker(sv.interval)
	sv.stopCh = make(chan struct{})
	ticker := sv.ticker
	stopCh := sv.stopCh
	sv.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				sv.tick()
			case <-stopCh:
				return
			}
		}
	}()
}

// tick implements the per-round algorithm of §4.7 step 1–2: hang detection
// against the previous round still being in flight, otherwise a normal
// checkup round, each tagged with a fresh round id for log correlation.
func (sv *Supervisor) tick() {
	roundID := uuid.NewString()

	sv.mu.Lock()
	if sv.pending {
		sv.hangCount++
		count := sv.hangCount
		exceeded := count > sv.maxHangRetries
		sv.mu.Unlock()

		if exceeded {
			sv.die(fmt.Sprintf("round %s: hang retries exceeded (%d > %d)", roundID, count, sv.maxHangRetries))
			return
		}
		sv.logger.Warn("supervisor %s: round %s overlaps previous tick, hang count %d", sv.GetSpec().Name, roundID, count)
		sv.report(TickReport{RoundID: roundID, Err: components.HangErr(sv.GetSpec().Name), Hang: true, HangCount: count})
		return
	}
	sv.pending = true
	sv.mu.Unlock()

	data := sv.dataPool.Acquire()
	err := sv.Checkup(data)
	restartAll := data.RestartAll()
	sv.dataPool.Release(data)

	sv.mu.Lock()
	sv.pending = false
	sv.hangCount = 0
	sv.mu.Unlock()

	sv.report(TickReport{RoundID: roundID, Err: err, RestartAll: restartAll})
}

func (sv *Supervisor) report(r TickReport) {
	if sv.notifier != nil {
		sv.notifier.Notify(r)
	}
}

// Checkup wraps the inherited static-container checkup so that any
// unrecoverable error triggers die (§4.7 "the root refuses to limp
// along"). A Fatal error already produced by die is returned as-is, not
// re-escalated.
func (sv *Supervisor) Checkup(data *components.Data) error {
	err := sv.StaticContainer.Checkup(data)
	if err == nil {
		return nil
	}
	if components.IsKind(err, components.KindFatal) {
		return err
	}
	return sv.die(err.Error())
}

// die implements §4.7's die(msg): log at fatal, optionally schedule a
// process exit, shut down, and return a dedicated Fatal error. Only the
// first call to die performs the exit/shutdown side effects; later calls
// still log at fatal and run the dumper, then return the same kind of
// error.
func (sv *Supervisor) die(msg string) error {
	sv.mu.Lock()
	alreadyDead := sv.dead
	sv.dead = true
	dieDelay := sv.dieDelay
	sv.mu.Unlock()

	fatalErr := components.New(components.KindFatal, sv.GetSpec().Name, fmt.Errorf("%s", msg))
	sv.logger.Fatal("supervisor %s dying: %s", sv.GetSpec().Name, components.Pretty(fatalErr))
	if sv.dumper != nil {
		sv.dumper.DumpOnFailure(sv.GetSpec().Name, fatalErr, sv.self)
	}

	if alreadyDead {
		return fatalErr
	}

	if dieDelay >= 0 {
		// Process exit, per §6: the supervisor is the only component that
		// may terminate the process, only from die, only with dieDelay >= 0.
		time.AfterFunc(dieDelay, func() {
			os.Exit(1)
		})
	}

	_ = sv.Shutdown(nil)
	return fatalErr
}

// Shutdown stops the timer, then calls the embedded static container's
// shutdown (§4.7 "Shutdown"). Stopping a time.Ticker cannot itself fail in
// Go, so the "error during cron shutdown triggers die" branch of §4.7 has
// no reachable path here; it is retained as a guard in case a future timer
// implementation can fail to stop cleanly.
func (sv *Supervisor) Shutdown(data *components.Data) error {
	sv.mu.Lock()
	if sv.ticker != nil {
		sv.ticker.Stop()
		close(sv.stopCh)
		sv.ticker = nil
	}
	sv.mu.Unlock()

	if err := sv.StaticContainer.Shutdown(data); err != nil {
		return sv.die(fmt.Sprintf("cron shutdown failed: %v", err))
	}
	return nil
}
