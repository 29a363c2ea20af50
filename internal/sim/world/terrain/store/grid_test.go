package store

import (
	"sort"
	"testing"
)

func sortedIDs(ids []uint64) []uint64 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestSpatialGrid_InsertQueryRemove(t *testing.T) {
	g := NewSpatialGrid()
	g.Insert(1, NewPos(0, 0, 0))
	g.Insert(2, NewPos(15, 15, 0))
	g.Insert(3, NewPos(16, 0, 0))

	got := sortedIDs(g.Query(NewPos(7, 7, 0)))
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("query: got %v", got)
	}
	if got := g.Query(NewPos(-1, 0, 0)); got != nil {
		t.Fatalf("empty cell: got %v", got)
	}

	g.Remove(1, NewPos(3, 3, 0))
	if got := g.Query(NewPos(0, 0, 0)); len(got) != 1 || got[0] != 2 {
		t.Fatalf("after remove: got %v", got)
	}
	g.Remove(2, NewPos(0, 0, 0))
	if len(g.buckets) != 1 {
		t.Fatalf("empty bucket not deleted: %d buckets", len(g.buckets))
	}
}

func TestSpatialGrid_Move(t *testing.T) {
	g := NewSpatialGrid()
	g.Insert(9, NewPos(1, 1, 0))

	g.Move(9, NewPos(1, 1, 0), NewPos(14, 2, 0))
	if got := g.Query(NewPos(0, 0, 0)); len(got) != 1 {
		t.Fatalf("move within a cell changed the bucket: %v", got)
	}

	g.Move(9, NewPos(14, 2, 0), NewPos(-5, 2, 0))
	if got := g.Query(NewPos(0, 0, 0)); got != nil {
		t.Fatalf("old cell still holds id: %v", got)
	}
	if got := g.Query(NewPos(-16, 0, 0)); len(got) != 1 || got[0] != 9 {
		t.Fatalf("new cell: got %v", got)
	}
}

func TestSpatialGrid_QueryReturnsCopy(t *testing.T) {
	g := NewSpatialGrid()
	g.Insert(4, NewPos(0, 0, 0))
	got := g.Query(NewPos(0, 0, 0))
	got[0] = 99
	if again := g.Query(NewPos(0, 0, 0)); again[0] != 4 {
		t.Fatalf("caller mutated the grid")
	}
}
