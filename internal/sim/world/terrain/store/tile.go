package store

import "strings"

type MaterialID uint16

// TileFlags are independent, combinable tile properties.
type TileFlags uint8

const (
	FlagSolid TileFlags = 1 << iota
	FlagOpaque
	FlagLiquid
	FlagWalkable

	FlagsNone  TileFlags = 0
	knownFlags           = FlagSolid | FlagOpaque | FlagLiquid | FlagWalkable
)

var flagNames = [...]struct {
	flag TileFlags
	name string
}{
	{FlagSolid, "SOLID"},
	{FlagOpaque, "OPAQUE"},
	{FlagLiquid, "LIQUID"},
	{FlagWalkable, "WALKABLE"},
}

func (f TileFlags) Has(o TileFlags) bool { return f&o == o }

// Names lists the set flags in bit order.
func (f TileFlags) Names() []string {
	out := make([]string, 0, len(flagNames))
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			out = append(out, fn.name)
		}
	}
	return out
}

// ParseFlags maps flag names (case-insensitive) back to a bitset. Unknown names
// are reported through ok=false but the known ones are still applied.
func ParseFlags(names []string) (f TileFlags, ok bool) {
	ok = true
	for _, n := range names {
		matched := false
		for _, fn := range flagNames {
			if strings.EqualFold(strings.TrimSpace(n), fn.name) {
				f |= fn.flag
				matched = true
				break
			}
		}
		if !matched {
			ok = false
		}
	}
	return f, ok
}

func (f TileFlags) String() string {
	if f == 0 {
		return "NONE"
	}
	return strings.Join(f.Names(), "|")
}

// Tile is the 4-byte unit of map storage. The zero value is the void tile.
type Tile struct {
	Material MaterialID
	Flags    TileFlags
	Variant  uint8
}

// VoidTile is what every unvisited location holds.
var VoidTile = Tile{}

// Pack encodes t as variant<<24 | flags<<16 | material. Unknown flag bits are dropped.
func (t Tile) Pack() uint32 {
	return uint32(t.Variant)<<24 | uint32(t.Flags&knownFlags)<<16 | uint32(t.Material)
}

func UnpackTile(v uint32) Tile {
	return Tile{
		Material: MaterialID(v),
		Flags:    TileFlags(v>>16) & knownFlags,
		Variant:  uint8(v >> 24),
	}
}

func (t Tile) IsSolid() bool  { return t.Flags&FlagSolid != 0 }
func (t Tile) IsOpaque() bool { return t.Flags&FlagOpaque != 0 }
func (t Tile) IsVoid() bool   { return t.Pack() == 0 }

// packedSolid and packedOpaque read flag bits straight from a packed tile.
func packedSolid(v uint32) bool  { return (v>>16)&uint32(FlagSolid) != 0 }
func packedOpaque(v uint32) bool { return (v>>16)&uint32(FlagOpaque) != 0 }
