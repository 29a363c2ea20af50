package tuning

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	ShardCount         int    `yaml:"shard_count"`
	Boundary           string `yaml:"boundary"`
	WorldBoundaryR     int    `yaml:"world_boundary_r"`
	PregenRadiusChunks int    `yaml:"pregen_radius_chunks"`
	PregenWorkers      int    `yaml:"pregen_workers"`

	WorldGen WorldGen `yaml:"worldgen"`
}

type WorldGen struct {
	Seed                            int64 `yaml:"seed"`
	BiomeRegionSize                 int   `yaml:"biome_region_size"`
	SpawnClearRadius                int   `yaml:"spawn_clear_radius"`
	OreClusterProbScalePermille     int   `yaml:"ore_cluster_prob_scale_permille"`
	TerrainClusterProbScalePermille int   `yaml:"terrain_cluster_prob_scale_permille"`
	SprinkleStonePermille           int   `yaml:"sprinkle_stone_permille"`
	SprinkleDirtPermille            int   `yaml:"sprinkle_dirt_permille"`
	SprinkleLogPermille             int   `yaml:"sprinkle_log_permille"`
}

const (
	BoundaryVoid = "void"
	BoundaryWall = "wall"
)

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		ShardCount:         64,
		Boundary:           BoundaryVoid,
		WorldBoundaryR:     4000,
		PregenRadiusChunks: 4,
		PregenWorkers:      4,
		WorldGen: WorldGen{
			Seed:                            1337,
			BiomeRegionSize:                 256,
			SpawnClearRadius:                6,
			OreClusterProbScalePermille:     1000,
			TerrainClusterProbScalePermille: 1000,
			SprinkleStonePermille:           18,
			SprinkleDirtPermille:            12,
			SprinkleLogPermille:             6,
		},
	}
}

// Load reads path over Defaults(), so keys missing from the file keep their
// default values.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Boundary = strings.ToLower(strings.TrimSpace(t.Boundary))
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	if n := t.ShardCount; n <= 0 || n&(n-1) != 0 {
		errs = append(errs, fmt.Errorf("shard_count %d is not a positive power of two", n))
	}
	switch t.Boundary {
	case BoundaryVoid, BoundaryWall:
	default:
		errs = append(errs, fmt.Errorf("boundary %q must be %q or %q", t.Boundary, BoundaryVoid, BoundaryWall))
	}
	if t.WorldBoundaryR < 0 {
		errs = append(errs, fmt.Errorf("world_boundary_r must be >= 0"))
	}
	if t.PregenRadiusChunks < 0 {
		errs = append(errs, fmt.Errorf("pregen_radius_chunks must be >= 0"))
	}
	if t.PregenWorkers < 0 {
		errs = append(errs, fmt.Errorf("pregen_workers must be >= 0"))
	}
	if t.WorldGen.BiomeRegionSize <= 0 {
		errs = append(errs, fmt.Errorf("worldgen.biome_region_size must be > 0"))
	}
	for name, v := range map[string]int{
		"sprinkle_stone_permille": t.WorldGen.SprinkleStonePermille,
		"sprinkle_dirt_permille":  t.WorldGen.SprinkleDirtPermille,
		"sprinkle_log_permille":   t.WorldGen.SprinkleLogPermille,
	} {
		if v < 0 || v > 1000 {
			errs = append(errs, fmt.Errorf("worldgen.%s %d out of [0,1000]", name, v))
		}
	}
	return errors.Join(errs...)
}
