package metrics

import "time"

// StatsSource is implemented by a cache that can report its current
// entry/byte footprint; pkg/cache's AtomCache and PageCache both satisfy
// it. Collector polls a set of named sources and republishes them as
// CacheSizeEntries/CacheSizeBytes gauges, mirroring the teacher's
// periodic-ticker Collector but reading from caches instead of a manager.
type StatsSource interface {
	Entries() int
	Bytes() int64
}

// Collector periodically refreshes gauge metrics from live cache state.
// Counters (hits/misses/evictions) are updated inline by the caches
// themselves; only the point-in-time footprint needs polling.
type Collector struct {
	sources map[string]StatsSource
	stopCh  chan struct{}
}

// NewCollector builds a collector over the named stats sources.
func NewCollector(sources map[string]StatsSource) *Collector {
	return &Collector{sources: sources, stopCh: make(chan struct{})}
}

// Start begins collecting metrics every interval until Stop is called.
func (c *Collector) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	for name, src := range c.sources {
		CacheSizeEntries.WithLabelValues(name).Set(float64(src.Entries()))
		CacheSizeBytes.WithLabelValues(name).Set(float64(src.Bytes()))
	}
}
