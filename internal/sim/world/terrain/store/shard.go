package store

import "sync"

// Shard is one concurrency domain of the dynamic layer. A chunk key always
// lands in the same shard, so contention is limited to keys sharing it.
//
// Every method holds the lock for a single map access and releases it
// before returning.
type Shard struct {
	mu     sync.RWMutex
	deltas map[Pos]*SparseChunk
}

// GetTile returns the override at (lx, ly) of chunk key, if any.
func (s *Shard) GetTile(key Pos, lx, ly int) (Tile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.deltas[key]; ok {
		return d.Get(lx, ly)
	}
	return VoidTile, false
}

// CheckFlagFast answers a solid (opaque=false) or opaque query from the delta
// masks. ok is false when the shard has no delta for key.
func (s *Shard) CheckFlagFast(key Pos, lx, ly int, opaque bool) (value, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, found := s.deltas[key]
	if !found {
		return false, false
	}
	if opaque {
		return d.IsOpaque(lx, ly), true
	}
	return d.IsSolid(lx, ly), true
}

// SetTile records an override. The first write to a chunk key creates its
// delta and hydrates it from base, the static chunk the caller found for that
// key, so pre-existing solid/opaque state carries over.
func (s *Shard) SetTile(key Pos, lx, ly int, t Tile, base *Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deltas[key]
	if !ok {
		if s.deltas == nil {
			s.deltas = map[Pos]*SparseChunk{}
		}
		d = NewSparseChunk()
		d.UpdateMasks(base)
		s.deltas[key] = d
	}
	d.Set(lx, ly, t)
}

// Rehydrate re-seeds the delta for key from a new base chunk. It is a no-op
// when the shard has no delta for key.
func (s *Shard) Rehydrate(key Pos, base *Chunk) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deltas[key]
	if !ok {
		return false
	}
	d.UpdateMasks(base)
	return true
}

// Overrides returns a copy of the overrides of chunk key keyed by cell index.
func (s *Shard) Overrides(key Pos) map[int]Tile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deltas[key]
	if !ok {
		return nil
	}
	out := make(map[int]Tile, len(d.mods))
	for i, t := range d.mods {
		out[int(i)] = t
	}
	return out
}

type ShardStats struct {
	Chunks int
	Tiles  int
}

func (s *Shard) Stats() ShardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := ShardStats{Chunks: len(s.deltas)}
	for _, d := range s.deltas {
		st.Tiles += d.Len()
	}
	return st
}
