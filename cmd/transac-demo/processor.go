package main

import (
	"fmt"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/loader"
	"github.com/cafgo/components/transactional"
)

// orderState is the order-processing domain state carried through the
// transactional container's begin/prepare/commit/abort/resume cycle
// (§8 "transac"), adapted from the order-processing example's DB/Config
// split into a single JSON-serialisable value.
type orderState struct {
	Language string `json:"language"`
	Message  string `json:"message"`
}

// orderProcessor is a root transactional container with no transactional
// children of its own: its state IS the order, and its deferred actions
// (setLanguage, setMessage, die) mutate that state only when replayed at
// commit or resume time (§4.6 "logActionsTarget").
type orderProcessor struct {
	*transactional.TransactionalContainer
}

func newOrderProcessor(name string, ldr *loader.Loader, logger components.Logger) (*orderProcessor, error) {
	spec := &desc.Spec{
		Name: name,
		Env:  map[string]any{"maxRetries": float64(0), "retryDelay": float64(0)},
	}
	tc, err := transactional.New(spec, nil, ldr, logger)
	if err != nil {
		return nil, err
	}
	op := &orderProcessor{TransactionalContainer: tc}
	op.SetLogActionsTarget(op)
	return op, nil
}

// LazyApply queues method to run against the order state at the next
// commit or resume, without applying it now (§8 "lazyApply").
func (o *orderProcessor) LazyApply(method string, args ...any) {
	o.LogAction(method, args...)
}

// State reads back the order's current language/message, tolerating both
// shapes State() can hold: the orderState this component writes, and the
// map[string]any a JSON round-trip through Abort/Resume produces.
func (o *orderProcessor) State() (language, message string) {
	return readState(o.TransactionalContainer.State())
}

func readState(v any) (language, message string) {
	switch s := v.(type) {
	case orderState:
		return s.Language, s.Message
	case map[string]any:
		if l, ok := s["language"].(string); ok {
			language = l
		}
		if m, ok := s["message"].(string); ok {
			message = m
		}
		return
	default:
		return "", ""
	}
}

// InvokeLoggedAction is the replay target for every deferred action
// queued through LazyApply (§4.6 "logActionsTarget").
func (o *orderProcessor) InvokeLoggedAction(method string, args []any) error {
	language, message := readState(o.TransactionalContainer.State())
	switch method {
	case "setLanguage":
		language = args[0].(string)
	case "setMessage":
		message = args[0].(string)
	case "die":
		return fmt.Errorf("orderProcessor %s: die action failed", o.GetSpec().Name)
	default:
		return fmt.Errorf("orderProcessor %s: unknown logged action %q", o.GetSpec().Name, method)
	}
	o.SetState(orderState{Language: language, Message: message})
	return nil
}
