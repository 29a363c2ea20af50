// Package encoding holds the compact wire form of a chunk's tiles: a palette
// of packed tiles plus run-length encoded palette indices.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// Palettize deduplicates packed tiles in first-seen order and returns the
// palette together with the per-cell palette index.
func Palettize(packed []uint32) (palette []uint32, ids []uint16) {
	seen := make(map[uint32]uint16, 8)
	ids = make([]uint16, len(packed))
	for i, v := range packed {
		id, ok := seen[v]
		if !ok {
			id = uint16(len(palette))
			seen[v] = id
			palette = append(palette, v)
		}
		ids[i] = id
	}
	return palette, ids
}

// EncodeRLE encodes palette indices as base64 of (index, run) uvarint pairs.
func EncodeRLE(ids []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(ids); {
		id := ids[i]
		run := 1
		for i+run < len(ids) && ids[i+run] == id {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(id))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE reverses EncodeRLE. The decoded sequence must hold exactly want
// entries, and every index must be below paletteLen.
func DecodeRLE(b64 string, want, paletteLen int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, 0, want)
	for i := 0; i < len(raw); {
		id, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if id >= uint64(paletteLen) {
			return nil, fmt.Errorf("palette index %d out of range (palette %d)", id, paletteLen)
		}
		if run == 0 || run > uint64(want-len(out)) {
			return nil, fmt.Errorf("run %d overflows %d cells", run, want)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(id))
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("decoded %d cells, want %d", len(out), want)
	}
	return out, nil
}
