// Command helloworld is the simplest description-engine scenario (§8
// "helloworld"): load a single-component description and read back its
// resolved env field through the live component.
package main

import (
	"fmt"
	"log"

	components "github.com/cafgo/components"
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

	spec, err := ldr.LoadDescription("hello.json", true, nil)
	if err != nil {
		log.Fatalf("load description: %v", err)
	}

	root := components.NewContext()
	done := make(chan error, 1)
	ldr.LoadComponent(root, spec, func(err error, _ components.Component) { done <- err })
	if err := <-done; err != nil {
		log.Fatalf("load component: %v", err)
	}

	comp, ok := root.Get("hello")
	if !ok {
		log.Fatal("$.hello is not bound")
	}
	h := comp.(*hello.Hello)
	fmt.Printf("$.hello.getMessage() == %q\n", h.GetMessage())
}
