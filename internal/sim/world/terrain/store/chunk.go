package store

import (
	"crypto/sha256"
	"encoding/binary"
)

// PaletteCap is the number of distinct tiles a chunk can hold, void included.
const PaletteCap = 256

// Chunk is a 16x16 tile grid stored as palette indices.
//
// Palette slot 0 is always the void tile. The palette only grows and never
// holds duplicates. solid and opaque mirror the flags of the tile each cell
// resolves to.
//
// SetTile is a single-writer generation API. Once a chunk is handed to a
// WorldMap it must not be mutated again.
type Chunk struct {
	indices    [ChunkArea]uint8
	palette    [PaletteCap]uint32
	paletteLen int

	solid  BitMask
	opaque BitMask
}

func NewChunk() *Chunk {
	return &Chunk{paletteLen: 1}
}

func cellIndex(lx, ly int) int { return ly<<ChunkShift | lx }

func inChunk(lx, ly int) bool {
	return lx >= 0 && lx < ChunkSize && ly >= 0 && ly < ChunkSize
}

// GetTile returns the tile at (lx, ly), or the void tile when out of range.
func (c *Chunk) GetTile(lx, ly int) Tile {
	if !inChunk(lx, ly) {
		return VoidTile
	}
	return UnpackTile(c.palette[c.indices[cellIndex(lx, ly)]])
}

// SetTile writes t at (lx, ly). It reports false, without mutating anything,
// when the cell is out of range or t would be a 257th distinct tile.
func (c *Chunk) SetTile(lx, ly int, t Tile) bool {
	if !inChunk(lx, ly) {
		return false
	}
	c.ensureInit()
	packed := t.Pack()

	idx := -1
	for i := 0; i < c.paletteLen; i++ {
		if c.palette[i] == packed {
			idx = i
			break
		}
	}
	if idx < 0 {
		if c.paletteLen >= PaletteCap {
			return false
		}
		idx = c.paletteLen
		c.palette[idx] = packed
		c.paletteLen++
	}

	i := cellIndex(lx, ly)
	c.indices[i] = uint8(idx)
	c.solid.Set(i, packedSolid(packed))
	c.opaque.Set(i, packedOpaque(packed))
	return true
}

func (c *Chunk) IsSolidLocal(lx, ly int) bool {
	if !inChunk(lx, ly) {
		return false
	}
	return c.solid.Get(cellIndex(lx, ly))
}

func (c *Chunk) IsOpaqueLocal(lx, ly int) bool {
	if !inChunk(lx, ly) {
		return false
	}
	return c.opaque.Get(cellIndex(lx, ly))
}

// RebuildMasks recomputes both masks from the index array through a
// per-palette-entry lookup table.
func (c *Chunk) RebuildMasks() {
	c.ensureInit()
	var props [PaletteCap]struct{ solid, opaque bool }
	for i := 0; i < c.paletteLen; i++ {
		props[i].solid = packedSolid(c.palette[i])
		props[i].opaque = packedOpaque(c.palette[i])
	}

	c.solid.Clear()
	c.opaque.Clear()
	for i, pi := range c.indices {
		p := props[pi]
		if p.solid {
			c.solid.Set(i, true)
		}
		if p.opaque {
			c.opaque.Set(i, true)
		}
	}
}

func (c *Chunk) PaletteLen() int {
	if c.paletteLen == 0 {
		return 1
	}
	return c.paletteLen
}

// Palette returns a copy of the live palette entries.
func (c *Chunk) Palette() []Tile {
	n := c.PaletteLen()
	out := make([]Tile, n)
	for i := 0; i < n; i++ {
		out[i] = UnpackTile(c.palette[i])
	}
	return out
}

// Masks returns copies of the solid and opaque masks.
func (c *Chunk) Masks() (solid, opaque BitMask) { return c.solid, c.opaque }

// Fill sets every cell to t. It resets the palette to {void, t}.
func (c *Chunk) Fill(t Tile) {
	*c = Chunk{paletteLen: 1}
	packed := t.Pack()
	if packed == 0 {
		return
	}
	c.palette[1] = packed
	c.paletteLen = 2
	for i := range c.indices {
		c.indices[i] = 1
	}
	c.RebuildMasks()
}

func (c *Chunk) Clone() *Chunk {
	cp := *c
	return &cp
}

// Digest hashes the resolved tiles in cell order, so two chunks with equal
// contents hash the same regardless of palette order.
func (c *Chunk) Digest() [32]byte {
	h := sha256.New()
	var tmp [4]byte
	for _, pi := range c.indices {
		binary.LittleEndian.PutUint32(tmp[:], c.palette[pi])
		h.Write(tmp[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ensureInit makes a zero Chunk{} behave like NewChunk.
func (c *Chunk) ensureInit() {
	if c.paletteLen == 0 {
		c.paletteLen = 1
	}
}
