package store

import "fmt"

// Pos is a packed (x, y, z) world coordinate.
//
// Layout (low to high): x 26 bits | y 26 bits | z 12 bits. Each axis is stored
// biased by half its range so negative values survive plain unsigned masking.
// Values outside the representable range wrap; nothing checks for overflow.
type Pos uint64

const (
	bitsX = 26
	bitsY = 26
	bitsZ = 12

	shiftX = 0
	shiftY = bitsX
	shiftZ = bitsX + bitsY

	maskX = (1 << bitsX) - 1
	maskY = (1 << bitsY) - 1
	maskZ = (1 << bitsZ) - 1

	biasX = 1 << (bitsX - 1)
	biasY = 1 << (bitsY - 1)
	biasZ = 1 << (bitsZ - 1)
)

// Inclusive coordinate ranges that round-trip through Pos.
const (
	MinX, MaxX = -biasX, biasX - 1
	MinY, MaxY = -biasY, biasY - 1
	MinZ, MaxZ = -biasZ, biasZ - 1
)

// Chunk and region geometry.
const (
	ChunkShift = 4
	ChunkSize  = 1 << ChunkShift
	ChunkMask  = ChunkSize - 1
	ChunkArea  = ChunkSize * ChunkSize

	RegionShift = 5
	RegionSize  = 1 << RegionShift
	RegionMask  = RegionSize - 1
	RegionArea  = RegionSize * RegionSize
)

func NewPos(x, y, z int32) Pos {
	ux := uint64(uint32(x+biasX)) & maskX
	uy := uint64(uint32(y+biasY)) & maskY
	uz := uint64(uint32(z+biasZ)) & maskZ
	return Pos(uz<<shiftZ | uy<<shiftY | ux<<shiftX)
}

func (p Pos) X() int32 { return int32((uint64(p)>>shiftX)&maskX) - biasX }
func (p Pos) Y() int32 { return int32((uint64(p)>>shiftY)&maskY) - biasY }
func (p Pos) Z() int32 { return int32((uint64(p)>>shiftZ)&maskZ) - biasZ }

// XYZ unpacks all three axes.
func (p Pos) XYZ() (x, y, z int32) { return p.X(), p.Y(), p.Z() }

// ChunkKey returns the key of the chunk containing p. The shift is arithmetic,
// so negative coordinates floor: -1 maps to chunk -1, -17 to chunk -2.
func (p Pos) ChunkKey() Pos {
	return NewPos(p.X()>>ChunkShift, p.Y()>>ChunkShift, p.Z())
}

// Local returns p's cell inside its chunk, each axis in 0..15.
func (p Pos) Local() (lx, ly int) {
	return int(p.X() & ChunkMask), int(p.Y() & ChunkMask)
}

// RegionKey treats p as a chunk key and returns the owning region key.
func (p Pos) RegionKey() Pos {
	return NewPos(p.X()>>RegionShift, p.Y()>>RegionShift, p.Z())
}

// RegionLocal treats p as a chunk key and returns its slot inside the region.
func (p Pos) RegionLocal() (rx, ry int) {
	return int(p.X() & RegionMask), int(p.Y() & RegionMask)
}

// ShardIndex treats p as a chunk key and hashes it onto one of count shards.
// count must be a power of two.
func (p Pos) ShardIndex(count int) int {
	h := uint32(p.X()) ^ uint32(p.Y())
	return int(h & uint32(count-1))
}

// InRange reports whether (x, y, z) is representable without wrapping.
func InRange(x, y, z int) bool {
	return x >= MinX && x <= MaxX &&
		y >= MinY && y <= MaxY &&
		z >= MinZ && z <= MaxZ
}

func (p Pos) String() string {
	return fmt.Sprintf("Pos(%d, %d, %d)", p.X(), p.Y(), p.Z())
}
