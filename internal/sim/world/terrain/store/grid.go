package store

import "sync"

// SpatialGrid buckets entity ids by the chunk cell they stand in, answering
// "who is near this position" without scanning every entity.
type SpatialGrid struct {
	mu      sync.RWMutex
	buckets map[Pos][]uint64
}

func NewSpatialGrid() *SpatialGrid {
	return &SpatialGrid{buckets: map[Pos][]uint64{}}
}

func (g *SpatialGrid) Insert(id uint64, pos Pos) {
	k := pos.ChunkKey()
	g.mu.Lock()
	g.buckets[k] = append(g.buckets[k], id)
	g.mu.Unlock()
}

func (g *SpatialGrid) Remove(id uint64, pos Pos) {
	g.mu.Lock()
	g.removeLocked(id, pos.ChunkKey())
	g.mu.Unlock()
}

// Move rebuckets id only when it crosses a cell boundary.
func (g *SpatialGrid) Move(id uint64, from, to Pos) {
	fk, tk := from.ChunkKey(), to.ChunkKey()
	if fk == tk {
		return
	}
	g.mu.Lock()
	g.removeLocked(id, fk)
	g.buckets[tk] = append(g.buckets[tk], id)
	g.mu.Unlock()
}

// Query returns a copy of the ids bucketed with pos.
func (g *SpatialGrid) Query(pos Pos) []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b := g.buckets[pos.ChunkKey()]
	if len(b) == 0 {
		return nil
	}
	out := make([]uint64, len(b))
	copy(out, b)
	return out
}

func (g *SpatialGrid) removeLocked(id uint64, k Pos) {
	b := g.buckets[k]
	for i, e := range b {
		if e == id {
			b[i] = b[len(b)-1]
			b = b[:len(b)-1]
			break
		}
	}
	if len(b) == 0 {
		delete(g.buckets, k)
		return
	}
	g.buckets[k] = b
}
