// Command dynamic-demo is the §8 "dynamic" scenario: a dynamic container
// instanced with a mix of one-shot temporary jobs and long-running
// permanent ones, a handful deleted explicitly mid-run, the rest left to
// either self-terminate (temporary) or persist (permanent).
package main

import (
	"fmt"
	"log"
	"sort"
	"time"

	components "github.com/cafgo/components"
	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/dynamic"
	"github.com/cafgo/components/loader"
	"github.com/cafgo/components/logging"
	"github.com/cafgo/components/metabag"
	"github.com/cafgo/components/modules/job"
)

const tempLifetimeMs = float64(800)

func tempSpec(name string) *desc.Spec {
	return &desc.Spec{
		Name: name, Module: "job", ModuleSet: true,
		Env: map[string]any{"lifetimeMs": tempLifetimeMs, metabag.KeyTemporary: true},
	}
}

func permSpec(name string) *desc.Spec {
	return &desc.Spec{Name: name, Module: "job", ModuleSet: true, Env: map[string]any{"lifetimeMs": float64(0)}}
}

func main() {
	ldr := loader.New()
	ldr.SetModules([]loader.Resolver{
		loader.NewMapResolver("modules", map[string]any{
			"job": loader.Namespace{"newInstance": loader.Factory(job.NewInstance)},
		}),
	})
	logger := logging.New(nil)

	dc, err := dynamic.New(&desc.Spec{Name: "root"}, nil, ldr, logger)
	if err != nil {
		log.Fatalf("dynamic.New: %v", err)
	}

	order := []*desc.Spec{
		tempSpec("temp_comp1"),
		permSpec("comp2"),
		permSpec("comp3"),
		tempSpec("temp_comp4"),
		tempSpec("temp_comp5"),
		permSpec("comp6"),
		permSpec("comp7"),
		tempSpec("temp_comp8"),
		permSpec("comp9"),
		permSpec("comp10"),
	}

	for _, spec := range order {
		if _, err := dc.InstanceChild(nil, spec); err != nil {
			log.Fatalf("instancing %s: %v", spec.Name, err)
		}
	}

	for _, name := range []string{"temp_comp5", "comp6", "comp9"} {
		if err := dc.DeleteChild(nil, name); err != nil {
			log.Fatalf("deleting %s: %v", name, err)
		}
	}

	time.Sleep(10 * time.Second)

	var surviving []string
	for name := range dc.Context().Snapshot() {
		if components.Reserved[name] {
			continue
		}
		surviving = append(surviving, name)
	}
	sort.Strings(surviving)

	fmt.Printf("surviving children: %v\n", surviving)
}
