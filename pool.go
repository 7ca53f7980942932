package components

import "sync"

// DataPool recycles Data bags across checkup/shutdown cycles, the same
// allocation-avoidance idiom the teacher applies to its per-resolution
// ResolveCtx/ExecutionCtx (pool_manager.go): a container's checkup walks
// its full child set on every tick, and a supervisor ticks at a fixed
// interval indefinitely, so each tick's scratch Data bag is worth
// recycling rather than reallocating.
type DataPool struct {
	pool    sync.Pool
	metrics DataPoolMetrics
}

// DataPoolMetrics tracks pool efficiency, mirroring the teacher's
// PoolMetrics.
type DataPoolMetrics struct {
	mu     sync.Mutex
	Hits   uint64
	Misses uint64
}

// NewDataPool creates a pool of empty Data bags.
func NewDataPool() *DataPool {
	dp := &DataPool{}
	dp.pool.New = func() any {
		return &Data{values: make(map[string]any, 4)}
	}
	return dp
}

// Acquire gets a Data bag from the pool, cleared of any prior contents.
func (dp *DataPool) Acquire() *Data {
	d, ok := dp.pool.Get().(*Data)
	dp.metrics.mu.Lock()
	if ok {
		dp.metrics.Hits++
	} else {
		dp.metrics.Misses++
	}
	dp.metrics.mu.Unlock()

	if !ok {
		return &Data{values: make(map[string]any, 4)}
	}
	for k := range d.values {
		delete(d.values, k)
	}
	return d
}

// Release returns d to the pool.
func (dp *DataPool) Release(d *Data) {
	if d == nil {
		return
	}
	dp.pool.Put(d)
}

// Metrics returns a snapshot of pool hit/miss counters.
func (dp *DataPool) Metrics() DataPoolMetrics {
	dp.metrics.mu.Lock()
	defer dp.metrics.mu.Unlock()
	return DataPoolMetrics{Hits: dp.metrics.Hits, Misses: dp.metrics.Misses}
}
