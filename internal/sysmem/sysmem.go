// Package sysmem reports the amount of physical memory, used to size the default
// in-memory buffering budget.
package sysmem

// FallbackBytes is assumed when the platform does not report its memory size.
const FallbackBytes = 4 << 30

// Total returns the physical memory in bytes and whether the platform reported it.
func Total() (uint64, bool) {
	return total()
}

// Budget returns fraction of physical memory, or of FallbackBytes when unknown.
func Budget(fraction float64) int64 {
	mem, ok := Total()
	if !ok || mem == 0 {
		mem = FallbackBytes
	}
	return int64(float64(mem) * fraction)
}
