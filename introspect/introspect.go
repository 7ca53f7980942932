// Package introspect provides a read-only Kind/Dependencies/Metadata view
// over a live component tree, adapted from the teacher's pkg/core
// Executor surface (Kind/Dependencies/Metadata) to this module's
// supervision tree instead of a reactive dependency graph.
package introspect

import (
	"sort"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/container"
	"github.com/cafgo/components/diagnostics"
	"github.com/cafgo/components/dynamic"
	"github.com/cafgo/components/supervisor"
	"github.com/cafgo/components/transactional"
)

// Kind classifies a live component by the supervision role it plays, the
// way the teacher's ExecutorKind classifies an executor by resolution
// strategy (main/lazy/reactive/static).
type Kind string

const (
	KindLeaf          Kind = "leaf"
	KindStatic        Kind = "static_container"
	KindDynamic       Kind = "dynamic_container"
	KindTransactional Kind = "transactional_container"
	KindSupervisor    Kind = "supervisor"
)

// Node is a read-only snapshot of one live component (the teacher's
// Executor.Kind/Dependencies/Metadata, carried over field-for-field).
type Node struct {
	Name         string
	Kind         Kind
	IsShutdown   bool
	Metadata     map[string]any
	Dependencies []string // immediate child names, sorted; nil for a leaf
}

// Inspect builds a Node for comp, one level deep.
func Inspect(comp components.Component) Node {
	spec := comp.GetSpec()
	node := Node{
		Name:       spec.Name,
		Kind:       kindOf(comp),
		IsShutdown: comp.IsShutdown(),
		Metadata:   spec.Env,
	}

	if names, ok := childNames(comp); ok {
		node.Dependencies = names
	}
	return node
}

func childNames(comp components.Component) ([]string, bool) {
	insp, ok := comp.(diagnostics.Inspectable)
	if !ok {
		return nil, false
	}
	ctx := insp.Context()
	if ctx == nil {
		return nil, false
	}
	snapshot := ctx.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		if components.Reserved[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, true
}

func kindOf(comp components.Component) Kind {
	switch comp.(type) {
	case *supervisor.Supervisor:
		return KindSupervisor
	case *transactional.TransactionalContainer:
		return KindTransactional
	case *dynamic.DynamicContainer:
		return KindDynamic
	case *container.StaticContainer:
		return KindStatic
	default:
		return KindLeaf
	}
}

// Walk visits comp and every reachable descendant depth-first, in sorted
// child-name order, calling visit with the root-to-comp name path
// (root included) and comp's Node.
func Walk(comp components.Component, visit func(path []string, node Node)) {
	walk(comp, nil, visit)
}

func walk(comp components.Component, path []string, visit func(path []string, node Node)) {
	node := Inspect(comp)
	here := append(append([]string(nil), path...), node.Name)
	visit(here, node)

	insp, ok := comp.(diagnostics.Inspectable)
	if !ok {
		return
	}
	ctx := insp.Context()
	if ctx == nil {
		return
	}
	snapshot := ctx.Snapshot()
	for _, name := range node.Dependencies {
		if child, ok := snapshot[name]; ok {
			walk(child, here, visit)
		}
	}
}
