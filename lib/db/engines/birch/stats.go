package birch

import (
	"github.com/VictoriaMetrics/metrics"
)

// stats holds the metrics of one database instance.
// Every instance has its own set, so several databases in one process do not share counters.
type stats struct {
	set *metrics.Set

	puts           *metrics.Counter
	hits           *metrics.Counter
	misses         *metrics.Counter
	expired        *metrics.Counter
	lazyDeletes    *metrics.Counter
	sweeperDeletes *metrics.Counter
	staleNodes     *metrics.Counter
	prefixScans    *metrics.Counter
}

func newStats(birch *birchImpl) *stats {
	set := metrics.NewSet()

	s := &stats{
		set:            set,
		puts:           set.NewCounter("ttlkv_puts_total"),
		hits:           set.NewCounter(`ttlkv_gets_total{result="hit"}`),
		misses:         set.NewCounter(`ttlkv_gets_total{result="miss"}`),
		expired:        set.NewCounter(`ttlkv_gets_total{result="expired"}`),
		lazyDeletes:    set.NewCounter("ttlkv_lazy_deletes_total"),
		sweeperDeletes: set.NewCounter("ttlkv_sweeper_deletes_total"),
		staleNodes:     set.NewCounter("ttlkv_sweeper_stale_nodes_total"),
		prefixScans:    set.NewCounter("ttlkv_prefix_scans_total"),
	}

	set.NewGauge("ttlkv_entries", func() float64 {
		return float64(birch.Size())
	})
	set.NewGauge("ttlkv_scheduled_nodes", func() float64 {
		return float64(birch.scheduler.Len())
	})

	return s
}
