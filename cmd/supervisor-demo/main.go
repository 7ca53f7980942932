// Command supervisor-demo is the §8 "supervisor" scenario, adapted from
// the health-monitor's periodic service checker: six flaky leaves with
// random, per-leaf mean time between failures, supervised one-for-all by
// a periodically-ticking root. Over a short run, whenever any leaf rolls a
// failure the root restarts all six; none of them are ever actually gone.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/cafgo/components/desc"
	"github.com/cafgo/components/loader"
	"github.com/cafgo/components/logging"
	"github.com/cafgo/components/modules/flaky"
	"github.com/cafgo/components/supervisor"
)

func leafSpec(name string, failProbability float64, seed int, msg string, number float64) *desc.Spec {
	return &desc.Spec{
		Name:      name,
		Module:    "flaky",
		ModuleSet: true,
		Env: map[string]any{
			"msg":             msg,
			"number":          number,
			"failProbability": failProbability,
			"seed":            float64(seed),
		},
	}
}

func main() {
	ldr := loader.New()
	ldr.SetModules([]loader.Resolver{
		loader.NewMapResolver("modules", map[string]any{
			"flaky": loader.Namespace{"newInstance": loader.Factory(flaky.NewInstance)},
		}),
	})
	logger := logging.New(nil)

	spec := &desc.Spec{
		Name: "root",
		Env: map[string]any{
			"maxRetries":     float64(2),
			"retryDelay":     float64(0),
			"interval":       float64(50),
			"dieDelay":       float64(-1),
			"maxHangRetries": float64(2),
		},
		Components: []*desc.Spec{
			leafSpec("leaf1", 0.05, 1, "leaf one", 1),
			leafSpec("leaf2", 0.15, 2, "leaf two", 2),
			leafSpec("leaf3", 0.00, 3, "leaf three", 3),
			leafSpec("leaf4", 0.25, 4, "leaf four", 4),
			leafSpec("leaf5", 0.10, 5, "leaf five", 5),
			leafSpec("leaf6", 0.20, 6, "leaf six", 6),
		},
	}

	sv, err := supervisor.New(spec, nil, ldr, logger)
	if err != nil {
		log.Fatalf("supervisor.New: %v", err)
	}

	var restartRounds int
	sv.SetNotifier(supervisor.NotifierFunc(func(r supervisor.TickReport) {
		if r.RestartAll {
			restartRounds++
		}
	}))

	done := make(chan error, 1)
	sv.StartSync(func(err error) { done <- err })
	if err := <-done; err != nil {
		log.Fatalf("StartSync: %v", err)
	}

	time.Sleep(10 * time.Second)

	names := []string{"leaf1", "leaf2", "leaf3", "leaf4", "leaf5", "leaf6"}
	for _, name := range names {
		comp, ok := sv.Context().Get(name)
		if !ok {
			fmt.Printf("%s: MISSING\n", name)
			continue
		}
		fl := comp.(*flaky.Flaky)
		checks, fails := fl.Stats()
		fmt.Printf("%s: shutdown=%v msg=%q checks=%d simulated-failures=%d\n",
			name, fl.IsShutdown(), fl.GetMessage(), checks, fails)
	}
	fmt.Printf("restart-all rounds observed: %d\n", restartRounds)

	if err := sv.Shutdown(nil); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
