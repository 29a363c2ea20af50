package store

// ChunkBuilder fills a chunk during world generation.
//
// It keeps a packed-tile -> palette-index lookup beside the chunk so each
// write is O(1) instead of a palette scan. Masks are only computed once, in Build.
type ChunkBuilder struct {
	chunk *Chunk
	lut   map[uint32]uint8
	full  bool
}

func NewChunkBuilder() *ChunkBuilder {
	return &ChunkBuilder{
		chunk: NewChunk(),
		lut:   map[uint32]uint8{0: 0},
	}
}

// SetTile writes t at (lx, ly) and reports whether it was stored.
func (b *ChunkBuilder) SetTile(lx, ly int, t Tile) bool {
	if !inChunk(lx, ly) {
		return false
	}
	packed := t.Pack()
	idx, ok := b.lut[packed]
	if !ok {
		c := b.chunk
		if c.paletteLen >= PaletteCap {
			b.full = true
			return false
		}
		idx = uint8(c.paletteLen)
		c.palette[c.paletteLen] = packed
		c.paletteLen++
		b.lut[packed] = idx
	}
	b.chunk.indices[cellIndex(lx, ly)] = idx
	return true
}

// Overflowed reports whether any write was rejected for a full palette.
func (b *ChunkBuilder) Overflowed() bool { return b.full }

// Build finalizes masks and hands the chunk over. The builder must not be
// used afterwards.
func (b *ChunkBuilder) Build() *Chunk {
	c := b.chunk
	c.RebuildMasks()
	b.chunk = nil
	b.lut = nil
	return c
}
