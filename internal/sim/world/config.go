package world

type WorldConfig struct {
	ID   string
	Seed int64

	// BoundaryR bounds |x| and |y| for edits; 0 leaves only the packed
	// coordinate range as the limit.
	BoundaryR int

	ShardCount int
	// Boundary is "void" or "wall": what unloaded terrain reads as.
	Boundary string

	// Worldgen tuning (pure 2D tilemap, replicated on every z layer).
	BiomeRegionSize                 int
	SpawnClearRadius                int
	OreClusterProbScalePermille     int
	TerrainClusterProbScalePermille int
	SprinkleStonePermille           int
	SprinkleDirtPermille            int
	SprinkleLogPermille             int

	// Pregeneration worker count.
	GenWorkers int
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "world_1"
	}
	if c.ShardCount <= 0 {
		c.ShardCount = 64
	}
	if c.Boundary == "" {
		c.Boundary = "void"
	}
	if c.BiomeRegionSize <= 0 {
		c.BiomeRegionSize = 256
	}
	if c.GenWorkers <= 0 {
		c.GenWorkers = 4
	}
}
