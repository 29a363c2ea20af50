package world

import (
	"context"
	"sync"

	"tileworld.ai/internal/sim/world/terrain/store"
)

// GenerateChunk builds the chunk at (cx, cy, z) and publishes it, unless a
// static chunk is already present. It reports whether a chunk was generated.
func (w *World) GenerateChunk(cx, cy, z int32) bool {
	key := store.NewPos(cx, cy, z)
	if _, ok := w.m.ChunkAt(key); ok {
		return false
	}
	c := w.gen.Chunk(cx, cy)
	w.m.PutChunk(key, c)
	w.generated.Add(1)

	w.auditMu.RLock()
	sink := w.chunkSink
	w.auditMu.RUnlock()
	if sink != nil {
		sink.RecordChunk(cx, cy, z, c.Digest(), c.PaletteLen())
	}
	return true
}

// ChunkSink receives metadata for every generated chunk.
type ChunkSink interface {
	RecordChunk(cx, cy, z int32, digest [32]byte, paletteLen int)
}

func (w *World) SetChunkSink(s ChunkSink) {
	w.auditMu.Lock()
	w.chunkSink = s
	w.auditMu.Unlock()
}

// Generate pregenerates the square of chunks within radius (in chunks) of
// the origin on layer z using cfg.GenWorkers goroutines. It returns the number
// of chunks generated and ctx.Err() if cancelled early.
func (w *World) Generate(ctx context.Context, radius int, z int32) (int, error) {
	if radius < 0 {
		return 0, nil
	}
	jobs := make(chan store.Pos)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		n  int
	)
	for i := 0; i < w.cfg.GenWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				if w.GenerateChunk(key.X(), key.Y(), key.Z()) {
					mu.Lock()
					n++
					mu.Unlock()
				}
			}
		}()
	}

	var err error
feed:
	for cy := -radius; cy <= radius; cy++ {
		for cx := -radius; cx <= radius; cx++ {
			if err = ctx.Err(); err != nil {
				break feed
			}
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break feed
			case jobs <- store.NewPos(int32(cx), int32(cy), z):
			}
		}
	}
	close(jobs)
	wg.Wait()
	return n, err
}
