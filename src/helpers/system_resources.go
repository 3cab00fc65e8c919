package helpers

// -----------------------------------------------------------------------------
// Soft Memory Limit
// -----------------------------------------------------------------------------

// Bounds for the soft GC limit. The streamer's working set is bounded (quote
// rows plus one capped order ring), so the ceiling keeps GC pacing sane on
// large hosts and the floor keeps it from thrashing on tiny ones.
const (
	memLimitFraction = 0.75
	memLimitFloorMB  = 512
	memLimitCeilMB   = 4096
)

// RecommendedMemoryLimitMB returns the soft heap limit to hand to
// debug.SetMemoryLimit: 75% of physical RAM clamped to [512MB, 4GB].
// Falls back to the floor when total RAM cannot be determined.
func RecommendedMemoryLimitMB() int {
	return clampMemLimitMB(totalSystemMemoryMB())
}

// clampMemLimitMB applies the fraction and bounds to a total RAM figure.
func clampMemLimitMB(totalMB int) int {
	if totalMB <= 0 {
		return memLimitFloorMB
	}

	limitMB := int(float64(totalMB) * memLimitFraction)
	if limitMB > memLimitCeilMB {
		return memLimitCeilMB
	}
	if limitMB >= memLimitFloorMB {
		return limitMB
	}

	// Below the floor: never recommend more than what is installed.
	if totalMB < memLimitFloorMB {
		return totalMB
	}
	return memLimitFloorMB
}
