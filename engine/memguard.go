package engine

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// PressureLevel indicates memory pressure severity against a MemoryGuard's
// configured limit.
type PressureLevel int

const (
	// PressureNormal indicates heap usage is within normal bounds.
	PressureNormal PressureLevel = iota
	// PressureWarning indicates elevated heap usage (75% up to 90% of limit).
	PressureWarning
	// PressureCritical indicates heap usage is critical (90% of limit or more).
	PressureCritical
)

// MemoryGuard monitors heap pressure and throttles the engine's cross-host
// batch size in response, so a crawl that accumulates many in-flight
// saved-page bodies backs off concurrency instead of growing unbounded.
type MemoryGuard struct {
	mu         sync.RWMutex
	limitBytes int64
	lastLevel  PressureLevel
}

// NewMemoryGuard creates a guard with the given heap limit in megabytes. It
// sets runtime/debug's soft memory limit to the same value so the Go
// runtime's own GC pacing also leans on it.
func NewMemoryGuard(limitMB int64) *MemoryGuard {
	limitBytes := limitMB * 1024 * 1024
	debug.SetMemoryLimit(limitBytes)
	return &MemoryGuard{limitBytes: limitBytes, lastLevel: PressureNormal}
}

// Check samples current heap usage and returns the usage percentage and
// resulting pressure level.
func (g *MemoryGuard) Check() (usedPercent float64, level PressureLevel) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	limitBytes := float64(g.limitBytes)
	if limitBytes <= 0 {
		return 0, PressureNormal
	}
	usedPercent = float64(stats.HeapAlloc) / limitBytes * 100

	switch {
	case usedPercent >= 90:
		level = PressureCritical
	case usedPercent >= 75:
		level = PressureWarning
	default:
		level = PressureNormal
	}

	g.mu.Lock()
	g.lastLevel = level
	g.mu.Unlock()
	return usedPercent, level
}

// ThrottleBatch reduces a requested cross-host batch size under memory
// pressure: critical pressure forces sequential processing (1), warning
// pressure halves the batch (floor 1), normal pressure leaves it alone.
func (g *MemoryGuard) ThrottleBatch(requested int) int {
	_, level := g.Check()
	switch level {
	case PressureCritical:
		return 1
	case PressureWarning:
		if requested > 1 {
			return requested / 2
		}
		return 1
	default:
		return requested
	}
}
