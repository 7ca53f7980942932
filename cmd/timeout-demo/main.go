// Command timeout-demo is the §8 "delay" scenario: components.WithTimeout
// wrapping a callback that never completes (expires with a TimeoutError)
// and one that completes well within its deadline (returns normally).
package main

import (
	"fmt"
	"time"

	components "github.com/cafgo/components"
)

func main() {
	never := components.WithTimeout("never", 1*time.Second, func(cb func(error)) {
		// intentionally never calls cb
	})
	start := time.Now()
	done := make(chan error, 1)
	never(func(err error) { done <- err })
	err := <-done
	fmt.Printf("never: elapsed=%s timeout=%v err=%v\n",
		time.Since(start).Round(100*time.Millisecond), components.IsKind(err, components.KindTimeout), err)

	var result string
	fast := components.WithTimeout("fast", 1*time.Second, func(cb func(error)) {
		go func() {
			time.Sleep(100 * time.Millisecond)
			result = "computed value"
			cb(nil)
		}()
	})
	done2 := make(chan error, 1)
	fast(func(err error) { done2 <- err })
	err2 := <-done2
	fmt.Printf("fast: result=%q err=%v\n", result, err2)
}
