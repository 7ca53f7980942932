// Command rename is the §8 "rename" scenario: the same helloworld
// description, loaded with a caller-supplied spec override that renames
// the component, binding it under the new name instead.
package main

import (
	"fmt"
	"log"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/loader"
	"github.com/cafgo/components/modules/hello"
)

const helloDoc = `{
	"name": "hello",
	"module": "hello",
	"env": {"msg": "hola mundo"}
}`

func main() {
	ldr := loader.New()
	ldr.SetModules([]loader.Resolver{
		loader.NewMapResolver("modules", map[string]any{
			"hello": loader.Namespace{"newInstance": loader.Factory(hello.NewInstance)},
		}),
		loader.NewFuncResolver("docs", func(name string) (any, bool, error) {
			if name == "hello.json" {
				return []byte(helloDoc), true, nil
			}
			return nil, false, nil
		}),
	})

	override := &desc.Spec{Name: "newHello"}
	spec, err := ldr.LoadDescription("hello.json", true, override)
	if err != nil {
		log.Fatalf("load description: %v", err)
	}

	root := components.NewContext()
	done := make(chan error, 1)
	ldr.LoadComponent(root, spec, func(err error, _ components.Component) { done <- err })
	if err := <-done; err != nil {
		log.Fatalf("load component: %v", err)
	}

	if _, stillHello := root.Get("hello"); stillHello {
		log.Fatal("$.hello is still bound; rename did not take effect")
	}
	comp, ok := root.Get("newHello")
	if !ok {
		log.Fatal("$.newHello is not bound")
	}
	h := comp.(*hello.Hello)
	fmt.Printf("$.newHello.getMessage() == %q\n", h.GetMessage())
}
