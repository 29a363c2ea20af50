package store

import "testing"

func TestPos_RoundTrip(t *testing.T) {
	cases := [][3]int32{
		{0, 0, 0},
		{10, 20, 5},
		{-1, -1, 0},
		{-100, 500, -5},
		{1024, -1024, 10},
		{MinX, MaxY, MinZ},
		{MaxX, MinY, MaxZ},
	}
	for _, c := range cases {
		p := NewPos(c[0], c[1], c[2])
		x, y, z := p.XYZ()
		if x != c[0] || y != c[1] || z != c[2] {
			t.Fatalf("round trip %v: got (%d,%d,%d)", c, x, y, z)
		}
	}
}

func TestPos_OutOfRangeWraps(t *testing.T) {
	p := NewPos(MaxX+1, 0, 0)
	if p.X() != MinX {
		t.Fatalf("expected x to wrap to %d, got %d", MinX, p.X())
	}
	if InRange(MaxX+1, 0, 0) {
		t.Fatalf("InRange accepted a wrapping x")
	}
	if !InRange(MaxX, MinY, MaxZ) {
		t.Fatalf("InRange rejected the range limits")
	}
}

func TestPos_ChunkKeyFloors(t *testing.T) {
	if got := NewPos(17, 0, 5).ChunkKey(); got != NewPos(1, 0, 5) {
		t.Fatalf("chunk key of (17,0,5): got %v", got)
	}
	if got := NewPos(-17, 0, 0).ChunkKey(); got != NewPos(-2, 0, 0) {
		t.Fatalf("chunk key of (-17,0,0): got %v", got)
	}
	if got := NewPos(-1, -16, 0).ChunkKey(); got != NewPos(-1, -1, 0) {
		t.Fatalf("chunk key of (-1,-16,0): got %v", got)
	}
}

func TestPos_Local(t *testing.T) {
	if lx, ly := NewPos(17, 0, 0).Local(); lx != 1 || ly != 0 {
		t.Fatalf("local of (17,0,0): got (%d,%d)", lx, ly)
	}
	if lx, ly := NewPos(-1, 0, 0).Local(); lx != 15 || ly != 0 {
		t.Fatalf("local of (-1,0,0): got (%d,%d)", lx, ly)
	}
}

func TestPos_RegionKey(t *testing.T) {
	rk := NewPos(33, 0, 0).RegionKey()
	if rk.X() != 1 || rk.Y() != 0 {
		t.Fatalf("region key of chunk (33,0,0): got %v", rk)
	}
	rk = NewPos(-1, -33, 2).RegionKey()
	if rk != NewPos(-1, -2, 2) {
		t.Fatalf("region key of chunk (-1,-33,2): got %v", rk)
	}
	if rx, ry := NewPos(33, -1, 0).RegionLocal(); rx != 1 || ry != 31 {
		t.Fatalf("region local of chunk (33,-1): got (%d,%d)", rx, ry)
	}
}

func TestPos_ShardIndex(t *testing.T) {
	const n = 16
	seen := map[int]bool{}
	for cx := int32(-8); cx < 8; cx++ {
		for cy := int32(-8); cy < 8; cy++ {
			k := NewPos(cx, cy, 0)
			i := k.ShardIndex(n)
			if i < 0 || i >= n {
				t.Fatalf("shard index %d out of range for %v", i, k)
			}
			if want := int(uint32(cx^cy) & (n - 1)); i != want {
				t.Fatalf("shard index of %v: got %d want %d", k, i, want)
			}
			if k.ShardIndex(n) != i {
				t.Fatalf("shard index not stable for %v", k)
			}
			seen[i] = true
		}
	}
	if len(seen) != n {
		t.Fatalf("expected all %d shards hit, got %d", n, len(seen))
	}
}

func TestDirection_Shift(t *testing.T) {
	p := NewPos(0, 0, 0)
	if got := p.Shift(DirNorth); got != NewPos(0, -1, 0) {
		t.Fatalf("north: got %v", got)
	}
	if got := p.Shift(DirSouthEast); got != NewPos(1, 1, 0) {
		t.Fatalf("south-east: got %v", got)
	}
	if got := p.Shift(DirDown); got != NewPos(0, 0, -1) {
		t.Fatalf("down: got %v", got)
	}
	if got := p.Shift(DirNone); got != p {
		t.Fatalf("none moved the position: %v", got)
	}
	a, b := NewPos(-3, 4, 0), NewPos(0, 0, 7)
	if d := a.DistanceSquared(b); d != 25 {
		t.Fatalf("distance squared: got %d", d)
	}
	if d := a.ManhattanDistance(b); d != 7 {
		t.Fatalf("manhattan: got %d", d)
	}
	if !a.InRadius(b, 5) || a.InRadius(b, 4) {
		t.Fatalf("radius check wrong")
	}
}
