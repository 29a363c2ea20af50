package world

// WorldMetrics is a point-in-time view of storage state and edit counters.
// Safe to call from HTTP handlers while edits are in flight.
type WorldMetrics struct {
	Regions      int `json:"regions"`
	StaticChunks int `json:"static_chunks"`
	DeltaChunks  int `json:"delta_chunks"`
	DeltaTiles   int `json:"delta_tiles"`
	ShardCount   int `json:"shard_count"`

	Edits           uint64 `json:"edits"`
	RejectedEdits   uint64 `json:"rejected_edits"`
	GeneratedChunks uint64 `json:"generated_chunks"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	st := w.m.Stats()
	return WorldMetrics{
		Regions:         st.Regions,
		StaticChunks:    st.StaticChunks,
		DeltaChunks:     st.DeltaChunks,
		DeltaTiles:      st.DeltaTiles,
		ShardCount:      w.m.ShardCount(),
		Edits:           w.edits.Load(),
		RejectedEdits:   w.rejected.Load(),
		GeneratedChunks: w.generated.Load(),
	}
}
