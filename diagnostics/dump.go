// Package diagnostics renders the live supervision tree as ASCII art on
// catastrophic failure, the way the teacher's graph-debug extension dumps
// the dependency graph when a resolution fails.
package diagnostics

import (
	"log/slog"
	"os"
	"sort"

	"github.com/m1gwings/treedrawer/tree"

	components "github.com/cafgo/components"
)

// Inspectable is implemented by every container-shaped component (static,
// dynamic, transactional, supervisor): anything exposing a children
// context can be walked and rendered.
type Inspectable interface {
	components.Component
	Context() *components.Context
}

// Dumper logs a rendered supervision-tree snapshot at error level.
type Dumper struct {
	logger *slog.Logger
}

// New constructs a Dumper over handler, defaulting to a stderr text
// handler, the way the teacher's NewGraphDebugExtension builds its
// *slog.Logger from a caller-supplied slog.Handler.
func New(handler slog.Handler) *Dumper {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	return &Dumper{logger: slog.New(handler)}
}

// DumpOnFailure logs the tree rooted at root, tagged with the name and
// error that triggered the dump. The supervisor calls this (if wired)
// from die(), and containers can call it from an unrecoverable checkup
// failure, mirroring the teacher's OnError hook.
func (d *Dumper) DumpOnFailure(name string, cause error, root components.Component) {
	d.logger.Error("supervision tree dump", "component", name, "cause", cause, "tree", d.Render(root))
}

// Render renders root and its reachable descendants as an ASCII tree.
func (d *Dumper) Render(root components.Component) string {
	t := d.buildTree(root)
	if t == nil {
		return "(empty)"
	}
	return t.String()
}

func (d *Dumper) buildTree(comp components.Component) *tree.Tree {
	if comp == nil {
		return nil
	}
	label := comp.GetSpec().Name
	if comp.IsShutdown() {
		label += " [shutdown]"
	} else {
		label += " [up]"
	}
	node := tree.NewTree(tree.NodeString(label))

	insp, ok := comp.(Inspectable)
	if !ok {
		return node
	}
	ctx := insp.Context()
	if ctx == nil {
		return node
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

	for _, name := range names {
		childTree := d.buildTree(snapshot[name])
		if childTree != nil {
			addChild(node, childTree)
		}
	}
	return node
}

// addChild grafts child's structure under parent, the way the teacher's
// addTreeAsChild does when combining trees built from different roots.
func addChild(parent *tree.Tree, child *tree.Tree) {
	newChild := parent.AddChild(child.Val())
	for _, grandchild := range child.Children() {
		addChild(newChild, grandchild)
	}
}
