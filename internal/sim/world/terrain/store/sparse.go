package store

// SparseChunk holds the live overrides for one chunk on top of its static
// contents.
//
// Its masks start as a copy of the base chunk's masks and are patched per
// override, so a flag query never has to consult the static layer again.
type SparseChunk struct {
	mods   map[uint8]Tile
	solid  BitMask
	opaque BitMask

	hydrated bool
}

func NewSparseChunk() *SparseChunk {
	return &SparseChunk{mods: map[uint8]Tile{}}
}

// Get returns the override at (lx, ly). ok=false means "ask the static layer",
// not "void".
func (s *SparseChunk) Get(lx, ly int) (Tile, bool) {
	if !inChunk(lx, ly) {
		return VoidTile, false
	}
	t, ok := s.mods[uint8(cellIndex(lx, ly))]
	return t, ok
}

// Set records an override and patches both masks at that cell.
func (s *SparseChunk) Set(lx, ly int, t Tile) {
	if !inChunk(lx, ly) {
		return
	}
	if s.mods == nil {
		s.mods = map[uint8]Tile{}
	}
	i := cellIndex(lx, ly)
	s.mods[uint8(i)] = t
	s.apply(i, t)
}

// UpdateMasks hydrates the masks from base (nil means an all-clear base) and
// then re-applies every recorded override, so edits made before hydration are
// never lost.
func (s *SparseChunk) UpdateMasks(base *Chunk) {
	if base != nil {
		s.solid, s.opaque = base.solid, base.opaque
	} else {
		s.solid.Clear()
		s.opaque.Clear()
	}
	for i, t := range s.mods {
		s.apply(int(i), t)
	}
	s.hydrated = true
}

func (s *SparseChunk) IsSolid(lx, ly int) bool {
	return inChunk(lx, ly) && s.solid.Get(cellIndex(lx, ly))
}

func (s *SparseChunk) IsOpaque(lx, ly int) bool {
	return inChunk(lx, ly) && s.opaque.Get(cellIndex(lx, ly))
}

func (s *SparseChunk) Hydrated() bool { return s.hydrated }

// Len is the number of overridden cells.
func (s *SparseChunk) Len() int { return len(s.mods) }

func (s *SparseChunk) apply(i int, t Tile) {
	s.solid.Set(i, t.IsSolid())
	s.opaque.Set(i, t.IsOpaque())
}
