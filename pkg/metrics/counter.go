package metrics

import "sync/atomic"

// Counter is a monotonically increasing event count.
type Counter struct {
	name string
	n    int64
}

func newCounter(name string) *Counter {
	return &Counter{name: name}
}

// Inc adds one.
func (c *Counter) Inc() { c.Add(1) }

// Add adds delta.
func (c *Counter) Add(delta int64) {
	if !enabled {
		return
	}
	atomic.AddInt64(&c.n, delta)
}

// Name returns the counter name.
func (c *Counter) Name() string { return c.name }

// Value returns the current count.
func (c *Counter) Value() int64 { return atomic.LoadInt64(&c.n) }

// Reset zeroes the counter.
func (c *Counter) Reset() { atomic.StoreInt64(&c.n, 0) }

var (
	RecordsIngested = newCounter("records_ingested")
	RecordsSkipped  = newCounter("records_skipped")
	IndexQueries    = newCounter("index_queries")
	BruteQueries    = newCounter("brute_force_queries")
	Reloads         = newCounter("dataset_reloads")
)

// AllCounters returns all registered counters.
func AllCounters() []*Counter {
	return []*Counter{RecordsIngested, RecordsSkipped, IndexQueries, BruteQueries, Reloads}
}

// CounterStats is a snapshot of one counter.
type CounterStats struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// AllCounterStats returns non-zero counters.
func AllCounterStats() []CounterStats {
	var out []CounterStats
	for _, c := range AllCounters() {
		if v := c.Value(); v > 0 {
			out = append(out, CounterStats{Name: c.name, Value: v})
		}
	}
	return out
}

// Snapshot is the combined metrics report.
type Snapshot struct {
	Timings  []TimingStats  `json:"timings"`
	Counters []CounterStats `json:"counters"`
}

// Collect returns a Snapshot of everything recorded so far.
func Collect() Snapshot {
	return Snapshot{Timings: AllTimingStats(), Counters: AllCounterStats()}
}
