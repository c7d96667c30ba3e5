// CLAUDE:SUMMARY In-memory counter collector implementing the injectable metrics Sink.
package pipeline

import "sync"

// Sink receives counter increments from pipeline stages. Implementations
// must be safe for concurrent use and must never block the caller.
type Sink interface {
	Increment(name string, labels map[string]string)
}

// NopSink discards all metrics.
type NopSink struct{}

func (NopSink) Increment(string, map[string]string) {}

// Collector is an in-memory Sink keeping simple named counters for
// Status reporting.
type Collector struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{counters: make(map[string]int64)}
}

// Increment bumps the named counter. A status label is folded into the
// counter name so success/error series stay distinct.
func (c *Collector) Increment(name string, labels map[string]string) {
	key := name
	if status := labels["status"]; status != "" {
		key = name + "_" + status
	}
	c.mu.Lock()
	c.counters[key]++
	c.mu.Unlock()
}

// Snapshot returns a copy of all counters.
func (c *Collector) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counters))
	for k, v := range c.counters {
		out[k] = v
	}
	return out
}

// teeSink forwards increments to every member.
type teeSink []Sink

func (t teeSink) Increment(name string, labels map[string]string) {
	for _, s := range t {
		s.Increment(name, labels)
	}
}
