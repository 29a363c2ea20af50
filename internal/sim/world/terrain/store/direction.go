package store

// Direction is a unit step on the tile grid.
type Direction uint8

const (
	DirNone Direction = iota
	DirNorth
	DirSouth
	DirWest
	DirEast
	DirNorthWest
	DirNorthEast
	DirSouthWest
	DirSouthEast
	DirUp
	DirDown
)

var (
	Orthogonal = [4]Direction{DirNorth, DirSouth, DirWest, DirEast}
	All2D      = [8]Direction{DirNorth, DirSouth, DirWest, DirEast, DirNorthWest, DirNorthEast, DirSouthWest, DirSouthEast}
)

// Offset returns the (dx, dy, dz) step. North is -y.
func (d Direction) Offset() (dx, dy, dz int32) {
	switch d {
	case DirNorth:
		return 0, -1, 0
	case DirSouth:
		return 0, 1, 0
	case DirWest:
		return -1, 0, 0
	case DirEast:
		return 1, 0, 0
	case DirNorthWest:
		return -1, -1, 0
	case DirNorthEast:
		return 1, -1, 0
	case DirSouthWest:
		return -1, 1, 0
	case DirSouthEast:
		return 1, 1, 0
	case DirUp:
		return 0, 0, 1
	case DirDown:
		return 0, 0, -1
	default:
		return 0, 0, 0
	}
}

func (p Pos) Shift(d Direction) Pos {
	dx, dy, dz := d.Offset()
	return NewPos(p.X()+dx, p.Y()+dy, p.Z()+dz)
}

// DistanceSquared is planar (z is ignored).
func (p Pos) DistanceSquared(o Pos) int64 {
	dx := int64(p.X() - o.X())
	dy := int64(p.Y() - o.Y())
	return dx*dx + dy*dy
}

func (p Pos) ManhattanDistance(o Pos) int64 {
	dx := int64(p.X() - o.X())
	dy := int64(p.Y() - o.Y())
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

func (p Pos) InRadius(center Pos, radius int) bool {
	r := int64(radius)
	return p.DistanceSquared(center) <= r*r
}
