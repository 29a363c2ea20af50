package store

import "math/bits"

// BitMask is a dense 256-bit set, one bit per chunk cell.
//
// Indices are 0..255. The array access keeps Go's bounds check, so an index
// past 255 panics instead of touching a neighbouring word.
type BitMask [ChunkArea / 64]uint64

func (m *BitMask) Set(i int, v bool) {
	w := i >> 6
	b := uint64(1) << uint(i&63)
	if v {
		m[w] |= b
	} else {
		m[w] &^= b
	}
}

func (m *BitMask) Get(i int) bool {
	return m[i>>6]&(uint64(1)<<uint(i&63)) != 0
}

// Merge ORs other into m.
func (m *BitMask) Merge(other *BitMask) {
	for i := range m {
		m[i] |= other[i]
	}
}

func (m *BitMask) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

func (m *BitMask) Clear() { *m = BitMask{} }
