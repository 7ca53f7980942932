package components

import (
	"runtime"
	"sync"
	"time"
)

// WithTimeout wraps an asynchronous callback-based operation with a bounded
// deadline (§5 "Cancellation and timeouts"). fn must eventually call its
// callback exactly once; if it has not done so by timeout, WithTimeout
// invokes the caller's callback with a TimeoutError and the in-flight
// operation's eventual result is discarded (never delivered).
func WithTimeout(component string, timeout time.Duration, fn func(cb func(error))) func(cb func(error)) {
	return func(cb func(error)) {
		var once sync.Once
		done := make(chan struct{})
		timer := time.NewTimer(timeout)

		go func() {
			fn(func(err error) {
				once.Do(func() {
					close(done)
					cb(err)
				})
			})
		}()

		go func() {
			select {
			case <-done:
				timer.Stop()
			case <-timer.C:
				once.Do(func() {
					cb(TimeoutErr(component))
				})
			}
		}()
	}
}

// RetryWithDelay retries fn up to maxRetries additional times (maxRetries+1
// attempts total), waiting retryDelay between attempts, per §4.4's
// env.maxRetries/env.retryDelay. It gives up with RetryExhausted carrying
// the last underlying error (§7).
func RetryWithDelay(component string, maxRetries int, retryDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
	}
	return New(KindRetryExhausted, component, lastErr)
}

// DoubleCallbackGuard wraps a factory's completion callback so that only
// the first call wins; every later call is reported via onDiscarded
// instead of being delivered (§4.2 "defend against a double-completed
// callback", §5 "Double-callback defence"). The returned func is what gets
// passed to the factory in place of its real callback.
func DoubleCallbackGuard(onDiscarded func(err error, comp Component), deliver func(err error, comp Component)) func(err error, comp Component) {
	var mu sync.Mutex
	delivered := false
	return func(err error, comp Component) {
		mu.Lock()
		first := !delivered
		delivered = true
		mu.Unlock()

		if first {
			deliver(err, comp)
			return
		}
		if onDiscarded != nil {
			onDiscarded(err, comp)
		}
	}
}

// Yield cooperatively releases the current goroutine's turn, the
// setImmediate-class mechanism of §5 used between items of a traversal so
// large trees do not monopolise progress and unrelated I/O can proceed.
func Yield() {
	runtime.Gosched()
}
