package gen

// floorDiv rounds toward negative infinity; b must be positive.
func floorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// splitmix64 finalizer.
func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash2 is a stable per-cell hash. It never depends on iteration order or
// chunk boundaries, so any chunk can be generated independently.
func Hash2(seed int64, x, y int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	return mix64(uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xbf58476d1ce4e5b9))
}

func clampPermille(v int) uint64 {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return uint64(v)
}

// scalePermille scales a base probability by a tuning knob; 0 means 1000.
func scalePermille(base uint64, scale int) uint64 {
	if scale <= 0 {
		scale = 1000
	}
	scaled := (base*uint64(scale) + 500) / 1000
	if scaled > 1000 {
		return 1000
	}
	return scaled
}
