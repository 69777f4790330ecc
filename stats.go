package rowan

// Stats is the read-only, side-effect-free statistics snapshot exposed to
// the surrounding application.
type Stats struct {
	CacheHits    uint64
	CacheMisses  uint64
	HitRate      float64
	Evictions    uint64
	MemoryUsed   int
	MemoryBudget int

	PoolAllocations uint64
	PoolReuses      uint64
	ReuseRate       float64

	DrawFailures   uint64
	FramesRendered uint64
	FramesSkipped  uint64
	QualityScale   float64
}

// GetStats aggregates cache, pool, and frame counters. Reading stats never
// mutates engine state.
func (e *Engine) GetStats() Stats {
	cs := e.cache.Stats()
	ps := e.pool.Stats()
	return Stats{
		CacheHits:       cs.Hits,
		CacheMisses:     cs.Misses,
		HitRate:         cs.HitRate,
		Evictions:       cs.Evictions,
		MemoryUsed:      cs.MemoryBytes,
		MemoryBudget:    cs.MemoryMax,
		PoolAllocations: ps.Allocations,
		PoolReuses:      ps.Reuses,
		ReuseRate:       ps.ReuseRate,
		DrawFailures:    e.drawFailures,
		FramesRendered:  e.framesRendered,
		FramesSkipped:   e.framesSkipped,
		QualityScale:    e.qualityScale,
	}
}
