package cache

import "github.com/prometheus/client_golang/prometheus"

// RegisterMetrics exports t's counters as forum_cache_* series on reg.
func RegisterMetrics(reg prometheus.Registerer, t *Tiered) error {
	counter := func(name, help string, read func(Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "forum_cache_" + name,
			Help: help,
		}, func() float64 { return float64(read(t.Stats())) })
	}
	for _, c := range []prometheus.Collector{
		counter("l1_hits_total", "Reads served from the in-process tier.", func(s Stats) uint64 { return s.L1Hits }),
		counter("l2_hits_total", "Reads served from Redis.", func(s Stats) uint64 { return s.L2Hits }),
		counter("loads_total", "Reads that fell through to the loader.", func(s Stats) uint64 { return s.Loads }),
		counter("l2_errors_total", "Redis errors treated as misses.", func(s Stats) uint64 { return s.L2Errors }),
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
