package rowan

import (
	"fmt"
	"os"
	"time"
)

// debugStats holds per-frame timing and cache metrics.
// Only logged when Engine debug mode is on.
type debugStats struct {
	renderTime    time.Duration
	flushTime     time.Duration
	compositeTime time.Duration
	totalTime     time.Duration
	nodeCount     int
	cacheHits     int
	cacheMisses   int
}

// debugLog prints timing and cache stats to stderr.
func (e *Engine) debugLog(stats debugStats) {
	if !e.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[rowan] render: %v | flush: %v | composite: %v | total: %v\n",
		stats.renderTime, stats.flushTime, stats.compositeTime, stats.totalTime)
	_, _ = fmt.Fprintf(os.Stderr,
		"[rowan] nodes: %d | cache hits: %d | misses: %d | quality: %.2f\n",
		stats.nodeCount, stats.cacheHits, stats.cacheMisses, e.qualityScale)
}
