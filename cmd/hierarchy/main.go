// Command hierarchy is the §8 "hierarchy" scenario: a three-level static
// container tree (newHello -> h1, h2 -> h21), loaded recursively from a
// single description document, then torn down from the root.
package main

import (
	"fmt"
	"log"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/container"
	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/loader"
	"github.com/cafgo/components/logging"
	"github.com/cafgo/components/modules/hello"
)

const treeDoc = `{
	"name": "newHello",
	"module": "container",
	"env": {"maxRetries": 0, "retryDelay": 0},
	"components": [
		{"name": "h1", "module": "hello", "env": {"msg": "h1 message"}},
		{
			"name": "h2",
			"module": "container",
			"env": {"maxRetries": 0, "retryDelay": 0},
			"components": [
				{"name": "h21", "module": "hello", "env": {"msg": "h21 message"}}
			]
		}
	]
}`

// newContainerFactory wraps container.New as a loader.Factory that also
// bootstraps the new container's own children before delivering it, so
// loading the root cascades all the way down the tree (§4.2, §4.4
// "creates children on construction").
func newContainerFactory(ldr *loader.Loader, logger components.Logger) loader.Factory {
	return func(ctx *components.Context, spec *desc.Spec, cb func(error, components.Component)) {
		sc, err := container.New(spec, ctx, ldr, logger)
		if err != nil {
			cb(err, nil)
			return
		}
		if err := sc.Checkup(nil); err != nil {
			cb(err, nil)
			return
		}
		cb(nil, sc)
	}
}

func main() {
	ldr := loader.New()
	logger := logging.New(nil)
	ldr.SetModules([]loader.Resolver{
		loader.NewMapResolver("modules", map[string]any{
			"hello":     loader.Namespace{"newInstance": loader.Factory(hello.NewInstance)},
			"container": loader.Namespace{"newInstance": newContainerFactory(ldr, logger)},
		}),
		loader.NewFuncResolver("docs", func(name string) (any, bool, error) {
			if name == "newhello.json" {
				return []byte(treeDoc), true, nil
			}
			return nil, false, nil
		}),
	})

	spec, err := ldr.LoadDescription("newhello.json", true, nil)
	if err != nil {
		log.Fatalf("load description: %v", err)
	}

	root := components.NewContext()
	done := make(chan error, 1)
	ldr.LoadComponent(root, spec, func(err error, _ components.Component) { done <- err })
	if err := <-done; err != nil {
		log.Fatalf("load component: %v", err)
	}

	newHello, ok := root.Get("newHello")
	if !ok {
		log.Fatal("$.newHello is not bound")
	}
	newHelloC := newHello.(*container.StaticContainer)

	h1Comp, ok := newHelloC.Context().Get("h1")
	if !ok {
		log.Fatal("$.newHello.$.h1 is not bound")
	}
	h1 := h1Comp.(*hello.Hello)

	h2Comp, ok := newHelloC.Context().Get("h2")
	if !ok {
		log.Fatal("$.newHello.$.h2 is not bound")
	}
	h2 := h2Comp.(*container.StaticContainer)

	h21Comp, ok := h2.Context().Get("h21")
	if !ok {
		log.Fatal("$.newHello.$.h2.$.h21 is not bound")
	}
	h21 := h21Comp.(*hello.Hello)

	fmt.Printf("$.newHello.$.h1.getMessage() == %q\n", h1.GetMessage())
	fmt.Printf("$.newHello.$.h2.$.h21.getMessage() == %q\n", h21.GetMessage())

	if err := newHelloC.Shutdown(nil); err != nil {
		log.Fatalf("shutdown: %v", err)
	}

	fmt.Printf("isShutdown: newHello=%v h1=%v h2=%v h21=%v\n",
		newHelloC.IsShutdown(), h1.IsShutdown(), h2.IsShutdown(), h21.IsShutdown())

	_, stillBound := root.Get("newHello")
	fmt.Printf("root binding cleared from $: %v\n", !stillBound)
}
