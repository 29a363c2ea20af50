package main

import (
	"fmt"
	"io"

	"tileworld.ai/internal/persistence/indexdb"
	"tileworld.ai/internal/sim/world"
)

// writeMetrics renders the minimal Prometheus exposition format.
func writeMetrics(w io.Writer, worldID string, m world.WorldMetrics, sessions int64, idx *indexdb.Stats) {
	gauge := func(name, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		fmt.Fprintf(w, "%s{world=%q} %v\n", name, worldID, v)
	}
	counter := func(name, help string, v uint64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		fmt.Fprintf(w, "%s{world=%q} %d\n", name, worldID, v)
	}

	gauge("tileworld_regions", "Regions in the static layer.", m.Regions)
	gauge("tileworld_static_chunks", "Present static chunks.", m.StaticChunks)
	gauge("tileworld_delta_chunks", "Chunks with dynamic overrides.", m.DeltaChunks)
	gauge("tileworld_delta_tiles", "Dynamic override tiles.", m.DeltaTiles)
	gauge("tileworld_shards", "Delta layer shard count.", m.ShardCount)
	gauge("tileworld_sessions", "Connected websocket sessions.", sessions)
	counter("tileworld_edits_total", "Accepted tile edits.", m.Edits)
	counter("tileworld_rejected_edits_total", "Rejected tile edits.", m.RejectedEdits)
	counter("tileworld_generated_chunks_total", "Chunks produced by world generation.", m.GeneratedChunks)

	if idx == nil {
		return
	}
	gauge("tileworld_index_queue_depth", "Index writer backlog.", idx.QueueDepth)
	counter("tileworld_index_dropped_audit_total", "Edit rows dropped because the index queue was full.", idx.DropAuditTotal)
	counter("tileworld_index_dropped_chunk_total", "Chunk rows dropped because the index queue was full.", idx.DropChunkTotal)
	counter("tileworld_index_written_total", "Rows committed to the index.", idx.WrittenTotal)
}
