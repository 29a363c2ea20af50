package store

// Region is a 32x32 block of chunks, the unit of static-layer loading.
//
// A slot with its presence bit unset reads as absent even if a chunk value
// sits in it; presence is what separates "generated and empty" from "never
// loaded". Slots are allocated on first use.
type Region struct {
	chunks   [RegionArea]*Chunk
	presence [RegionArea / 64]uint64
}

func NewRegion() *Region { return &Region{} }

func regionIndex(rx, ry int) int { return ry<<RegionShift | rx }

func inRegion(rx, ry int) bool {
	return rx >= 0 && rx < RegionSize && ry >= 0 && ry < RegionSize
}

// GetChunk returns the chunk at (rx, ry) only when it is present.
func (r *Region) GetChunk(rx, ry int) (*Chunk, bool) {
	if !inRegion(rx, ry) {
		return nil, false
	}
	i := regionIndex(rx, ry)
	if !r.present(i) {
		return nil, false
	}
	return r.chunks[i], true
}

// GetOrCreateChunk marks (rx, ry) present and returns the slot for the caller
// to fill. Calling it again returns the same chunk.
func (r *Region) GetOrCreateChunk(rx, ry int) *Chunk {
	i := regionIndex(rx&RegionMask, ry&RegionMask)
	if r.chunks[i] == nil {
		r.chunks[i] = NewChunk()
	}
	r.setPresent(i, true)
	return r.chunks[i]
}

// PutChunk replaces the slot at (rx, ry) wholesale and marks it present.
// A nil chunk clears the slot.
func (r *Region) PutChunk(rx, ry int, c *Chunk) {
	if !inRegion(rx, ry) {
		return
	}
	i := regionIndex(rx, ry)
	r.chunks[i] = c
	r.setPresent(i, c != nil)
}

func (r *Region) IsPresent(rx, ry int) bool {
	return inRegion(rx, ry) && r.present(regionIndex(rx, ry))
}

// PresentCount returns how many slots hold real data.
func (r *Region) PresentCount() int {
	n := 0
	for _, w := range r.presence {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}

// ForEachPresent calls fn for every present slot in index order until fn returns false.
func (r *Region) ForEachPresent(fn func(rx, ry int, c *Chunk) bool) {
	for i := 0; i < RegionArea; i++ {
		if !r.present(i) {
			continue
		}
		if !fn(i&RegionMask, i>>RegionShift, r.chunks[i]) {
			return
		}
	}
}

func (r *Region) present(i int) bool {
	return r.presence[i>>6]&(uint64(1)<<uint(i&63)) != 0
}

func (r *Region) setPresent(i int, v bool) {
	b := uint64(1) << uint(i&63)
	if v {
		r.presence[i>>6] |= b
	} else {
		r.presence[i>>6] &^= b
	}
}
