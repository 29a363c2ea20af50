// Profiling:
// go build ./cmd/mapbench
// ./mapbench -profile=cpu -run=mixed
// go tool pprof -http=":8000" ./mapbench cpu.pprof

package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/pkg/profile"

	"tileworld.ai/internal/sim/world/terrain/store"
)

func main() {
	var (
		mode    = flag.String("profile", "", "profile mode: cpu, mem, or empty for none")
		run     = flag.String("run", "all", "workload: read, fill, builder, mixed, all")
		iters   = flag.Int("iters", 2_000_000, "operations per workload")
		workers = flag.Int("workers", 8, "goroutines for the mixed workload")
		shards  = flag.Int("shards", store.DefaultShardCount, "delta shard count")
		outDir  = flag.String("out", ".", "profile output directory")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[mapbench] ", log.LstdFlags|log.Lmicroseconds)

	var p interface{ Stop() }
	switch *mode {
	case "cpu":
		p = profile.Start(profile.CPUProfile, profile.ProfilePath(*outDir), profile.NoShutdownHook, profile.Quiet)
	case "mem":
		p = profile.Start(profile.MemProfileAllocs, profile.ProfilePath(*outDir), profile.NoShutdownHook, profile.Quiet)
	case "":
	default:
		logger.Fatalf("unknown profile mode %q", *mode)
	}

	workloads := []struct {
		name string
		fn   func(n int)
	}{
		{"read", regionRandomRead},
		{"fill", chunkFillPalette},
		{"builder", builderFillPalette},
		{"mixed", func(n int) { mixedEdits(n, *workers, *shards) }},
	}
	for _, wl := range workloads {
		if *run != "all" && *run != wl.name {
			continue
		}
		start := time.Now()
		wl.fn(*iters)
		d := time.Since(start)
		logger.Printf("%-8s %d ops in %s (%.1f ns/op)", wl.name, *iters, d.Round(time.Millisecond), float64(d.Nanoseconds())/float64(*iters))
	}

	if p != nil {
		p.Stop()
	}
}

func benchTile(i int) store.Tile {
	f := store.FlagsNone
	if i%3 == 0 {
		f = store.FlagSolid | store.FlagOpaque
	}
	return store.Tile{Material: store.MaterialID(i % 255), Flags: f}
}

func regionRandomRead(n int) {
	r := store.NewRegion()
	for cy := 0; cy < store.RegionSize; cy++ {
		for cx := 0; cx < store.RegionSize; cx++ {
			r.GetOrCreateChunk(cx, cy).Fill(benchTile(cx + cy))
		}
	}
	rng := rand.New(rand.NewSource(1))
	span := store.RegionSize * store.ChunkSize
	hits := 0
	for i := 0; i < n; i++ {
		x, y := rng.Intn(span), rng.Intn(span)
		c, ok := r.GetChunk(x>>store.ChunkShift, y>>store.ChunkShift)
		if ok && c.IsSolidLocal(x&store.ChunkMask, y&store.ChunkMask) {
			hits++
		}
	}
	_ = hits
}

// chunkFillPalette writes 255 distinct tiles per chunk, the worst case for
// the palette before it saturates.
func chunkFillPalette(n int) {
	var c *store.Chunk
	for i := 0; i < n; i++ {
		cell := i % (store.PaletteCap - 1)
		if cell == 0 {
			c = store.NewChunk()
		}
		c.SetTile(cell&store.ChunkMask, cell>>store.ChunkShift, store.Tile{Material: store.MaterialID(cell + 1)})
	}
}

func builderFillPalette(n int) {
	var b *store.ChunkBuilder
	for i := 0; i < n; i++ {
		cell := i % (store.PaletteCap - 1)
		if cell == 0 {
			if b != nil {
				_ = b.Build()
			}
			b = store.NewChunkBuilder()
		}
		b.SetTile(cell&store.ChunkMask, cell>>store.ChunkShift, store.Tile{Material: store.MaterialID(cell + 1)})
	}
}

// mixedEdits runs concurrent readers and writers against one map: three
// reads per write over a 256x256 area.
func mixedEdits(n, workers, shards int) {
	m, err := store.NewWorldMap(store.Options{ShardCount: shards})
	if err != nil {
		log.Fatalf("world map: %v", err)
	}
	if workers < 1 {
		workers = 1
	}
	per := n / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < per; i++ {
				p := store.NewPos(int32(rng.Intn(256)-128), int32(rng.Intn(256)-128), 0)
				if i%4 == 0 {
					m.SetTile(p, benchTile(i))
					continue
				}
				_ = m.IsSolidFast(p)
			}
		}(int64(w + 1))
	}
	wg.Wait()
}
