// Command extend is the §8 "extend" scenario: a base description plus
// its sibling "++.json" delta, exercising the merge algorithm's env
// overwrite (msg), explicit-null clear (number), and addition
// (otherMessage).
package main

import (
	"fmt"
	"log"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/loader"
	"github.com/cafgo/components/modules/hello"
)

const baseDoc = `{
	"name": "hello2",
	"module": "hello",
	"env": {"msg": "hola mundo", "number": 42}
}`

const deltaDoc = `{
	"name": "hello2",
	"env": {"msg": "adios mundo", "number": null, "otherMessage": "hello mundo"}
}`

func main() {
	ldr := loader.New()
	ldr.SetModules([]loader.Resolver{
		loader.NewMapResolver("modules", map[string]any{
			"hello": loader.Namespace{"newInstance": loader.Factory(hello.NewInstance)},
		}),
		loader.NewFuncResolver("docs", func(name string) (any, bool, error) {
			switch name {
			case "hello2.json":
				return []byte(baseDoc), true, nil
			case "hello2++.json":
				return []byte(deltaDoc), true, nil
			}
			return nil, false, nil
		}),
	})

	spec, err := ldr.LoadDescription("hello2.json", true, nil)
	if err != nil {
		log.Fatalf("load description: %v", err)
	}

	root := components.NewContext()
	done := make(chan error, 1)
	ldr.LoadComponent(root, spec, func(err error, _ components.Component) { done <- err })
	if err := <-done; err != nil {
		log.Fatalf("load component: %v", err)
	}

	comp, ok := root.Get("hello2")
	if !ok {
		log.Fatal("$.hello2 is not bound")
	}
	h := comp.(*hello.Hello)

	number, hasNumber := h.GetNumber()
	numberStr := "null"
	if hasNumber {
		numberStr = fmt.Sprintf("%v", number)
	}

	fmt.Printf("getMessage == %q\n", h.GetMessage())
	fmt.Printf("getNumber == %s\n", numberStr)
	fmt.Printf("getOtherMessage == %q\n", h.GetOtherMessage())
}
