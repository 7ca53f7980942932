// Package transactional implements the transactional container of §4.6
// (gen_transactional): a static container extended with a two-phase-commit
// protocol over the subset of children marked isTransactional, plus a
// deferred action log.
package transactional

import (
	"encoding/json"
	"fmt"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/container"
	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/loader"
	"github.com/cafgo/components/metabag"
)

// Transactional is the capability every transactional child exposes,
// beyond the ordinary Component contract (§4.6).
type Transactional interface {
	components.Component
	Init(cb func(error))
	Resume(cp any, cb func(error))
	Begin(msg any, cb func(error))
	Prepare(cb func(any, error))
	Commit(cb func(error))
	Abort(cb func(error))
}

// logAction is one deferred {method, args} tuple (§4.6 "logActions").
type logAction struct {
	Method string
	Args   []any
}

// TransactionalContainer extends the static container with own state, a
// state backup for abort, and a deferred-action log applied at commit.
type TransactionalContainer struct {
	*container.StaticContainer

	state            any // JSON-serialisable, nil by default
	stateBackup      string
	logActions       []logAction
	logActionsTarget any // defaults to self
}

// New constructs a TransactionalContainer, embedding a StaticContainer
// the way §4.6 says it "extends the static container".
func New(spec *desc.Spec, parentCtx *components.Context, ldr *loader.Loader, logger components.Logger) (*TransactionalContainer, error) {
	sc, err := container.New(spec, parentCtx, ldr, logger)
	if err != nil {
		return nil, err
	}
	tc := &TransactionalContainer{StaticContainer: sc}
	tc.logActionsTarget = tc
	sc.SetSelf(tc)
	return tc, nil
}

// Interface compliance: a TransactionalContainer is itself transactional,
// so it can nest as another transactional container's child (§4.6).
var _ Transactional = (*TransactionalContainer)(nil)

// SetLogActionsTarget overrides the object on which deferred methods are
// ultimately invoked at replay time (§4.6 "defaults to self, can be set
// externally").
func (tc *TransactionalContainer) SetLogActionsTarget(target any) { tc.logActionsTarget = target }

// State returns the component's own JSON-serialisable state.
func (tc *TransactionalContainer) State() any { return tc.state }

// SetState sets the component's own state (used by the deferred-action
// replay mechanism and by cmd/ demos modeling domain mutations).
func (tc *TransactionalContainer) SetState(v any) { tc.state = v }

// LogAction appends a deferred {method, args} tuple to the log, invoked
// on logActionsTarget at replay time (§4.6).
func (tc *TransactionalContainer) LogAction(method string, args ...any) {
	tc.logActions = append(tc.logActions, logAction{Method: method, Args: args})
}

// transactionalChildren assembles the transactional children in
// declaration order (§4.6 "assembles the transactional children in
// declaration order").
func (tc *TransactionalContainer) transactionalChildren() []Transactional {
	var out []Transactional
	for _, spec := range tc.ExpectedSpecs() {
		if !isTransactional(spec) {
			continue
		}
		comp, ok := tc.Context().Get(spec.Name)
		if !ok {
			continue
		}
		if t, ok := comp.(Transactional); ok {
			out = append(out, t)
		}
	}
	return out
}

func isTransactional(spec *desc.Spec) bool {
	v, _ := metabag.Get[bool](spec.Env, "isTransactional")
	return v
}

// mapSeries applies fn to each transactional child serially, in
// declaration order, stopping at the first error (§4.6 "map-series
// semantics").
func mapSeries(children []Transactional, fn func(Transactional, func(error))) error {
	for _, child := range children {
		components.Yield()
		done := make(chan error, 1)
		fn(child, func(err error) { done <- err })
		if err := <-done; err != nil {
			return err
		}
	}
	return nil
}

// Init clears the log and applies init to every transactional child in
// order (§4.6 "init").
func (tc *TransactionalContainer) Init(cb func(error)) {
	tc.logActions = nil
	err := mapSeries(tc.transactionalChildren(), func(t Transactional, done func(error)) {
		t.Init(done)
	})
	cb(err)
}

// checkpoint mirrors the shape Prepare returns and Resume consumes.
type checkpoint struct {
	Children   map[string]any `json:"children,omitempty"`
	State      any            `json:"state,omitempty"`
	LogActions []logAction    `json:"logActions,omitempty"`
}

// Resume applies resume(cp[childName]) to each transactional child in
// order, then restores state/logActions from cp and replays the log
// (§4.6 "resume"). cp is any so TransactionalContainer itself satisfies
// the Transactional interface and can nest as another container's
// transactional child; it is expected to be a *checkpoint produced by a
// prior Prepare, or nil.
func (tc *TransactionalContainer) Resume(cpArg any, cb func(error)) {
	cp, _ := cpArg.(*checkpoint)
	children := tc.transactionalChildren()
	err := mapSeries(children, func(t Transactional, done func(error)) {
		var childCP any
		if cp != nil && cp.Children != nil {
			childCP = cp.Children[t.GetSpec().Name]
		}
		t.Resume(childCP, done)
	})
	if err != nil {
		cb(err)
		return
	}

	if cp != nil {
		if cp.State != nil {
			tc.state = cp.State
		}
		if len(cp.LogActions) > 0 {
			tc.logActions = cp.LogActions
		}
	}

	if replayErr := tc.replayLog(); replayErr != nil {
		cb(replayErr)
		return
	}
	tc.logActions = nil
	cb(nil)
}

// replayLog applies each log entry's method to logActionsTarget in order,
// stopping on first error (§4.6 "resume").
func (tc *TransactionalContainer) replayLog() error {
	target := tc.logActionsTarget
	for _, action := range tc.logActions {
		invoker, ok := target.(interface {
			InvokeLoggedAction(method string, args []any) error
		})
		if !ok {
			return fmt.Errorf("transactional: logActionsTarget does not implement InvokeLoggedAction")
		}
		if err := invoker.InvokeLoggedAction(action.Method, action.Args); err != nil {
			return err
		}
	}
	return nil
}

// InvokeLoggedAction is the default logActionsTarget's dispatch: this
// base implementation has no methods of its own to replay into, so
// cmd/ demos and derived components that need replay targets implement
// InvokeLoggedAction themselves and call SetLogActionsTarget.
func (tc *TransactionalContainer) InvokeLoggedAction(method string, args []any) error {
	return fmt.Errorf("transactional: no replay handler registered for method %q", method)
}

// Begin snapshots state into stateBackup (as JSON), clears the log, and
// propagates begin(msg) to transactional children (§4.6 "begin").
func (tc *TransactionalContainer) Begin(msg any, cb func(error)) {
	backup, err := json.Marshal(tc.state)
	if err != nil {
		cb(fmt.Errorf("transactional: snapshotting state: %w", err))
		return
	}
	tc.stateBackup = string(backup)
	tc.logActions = nil

	err = mapSeries(tc.transactionalChildren(), func(t Transactional, done func(error)) {
		t.Begin(msg, done)
	})
	cb(err)
}

// Prepare calls prepare on transactional children in order, combining
// results into a checkpoint the platform is expected to persist before
// commit (§4.6 "prepare").
func (tc *TransactionalContainer) Prepare(cb func(any, error)) {
	children := tc.transactionalChildren()
	results := make(map[string]any, len(children))

	var prepareErr error
	for _, child := range children {
		components.Yield()
		done := make(chan struct {
			result any
			err    error
		}, 1)
		child.Prepare(func(result any, err error) {
			done <- struct {
				result any
				err    error
			}{result, err}
		})
		r := <-done
		if r.err != nil {
			prepareErr = r.err
			break
		}
		results[child.GetSpec().Name] = r.result
	}

	if prepareErr != nil {
		cb(nil, prepareErr)
		return
	}

	cp := &checkpoint{Children: results}
	if tc.state != nil {
		cp.State = tc.state
	}
	if len(tc.logActions) > 0 {
		cp.LogActions = append([]logAction(nil), tc.logActions...)
	}
	cb(cp, nil)
}

// Commit calls commit on transactional children in order, then on success
// replays the deferred action log accumulated since the last begin (§4.6
// "commit"). Commit-error policy (§4.6): an error here, after prepare
// succeeded and the checkpoint was externally persisted, is unrecoverable
// for this component — the caller must shut it down and rely on Resume on
// restart.
func (tc *TransactionalContainer) Commit(cb func(error)) {
	err := mapSeries(tc.transactionalChildren(), func(t Transactional, done func(error)) {
		t.Commit(done)
	})
	if err != nil {
		cb(err)
		return
	}

	err = tc.replayLog()
	if err == nil {
		tc.logActions = nil
	}
	cb(err)
}

// Abort restores state from stateBackup (if non-empty), clears the log,
// and propagates abort to transactional children in order (§4.6
// "abort").
func (tc *TransactionalContainer) Abort(cb func(error)) {
	if tc.stateBackup != "" {
		var restored any
		if err := json.Unmarshal([]byte(tc.stateBackup), &restored); err != nil {
			cb(fmt.Errorf("transactional: restoring state backup: %w", err))
			return
		}
		tc.state = restored
	}
	tc.logActions = nil

	err := mapSeries(tc.transactionalChildren(), func(t Transactional, done func(error)) {
		t.Abort(done)
	})
	cb(err)
}
