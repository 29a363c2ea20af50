package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	WorldID         string         `json:"world_id"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type WorldParams struct {
	ChunkSize  int    `json:"chunk_size"`
	RegionSize int    `json:"region_size"`
	ShardCount int    `json:"shard_count"`
	Boundary   string `json:"boundary"`
	BoundaryR  int    `json:"boundary_r"`
	Seed       int64  `json:"seed"`
}

type CatalogDigests struct {
	TilePalette    PaletteDigest `json:"tile_palette"`
	TileDefsDigest string        `json:"tile_defs_digest"`
}

type PaletteDigest struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// TileView is the wire form of a tile. Material is the numeric id; Name is
// its catalog id. Flags are names ("SOLID", "OPAQUE", "LIQUID", "WALKABLE").
type TileView struct {
	Material int      `json:"material"`
	Name     string   `json:"name,omitempty"`
	Flags    []string `json:"flags"`
	Variant  int      `json:"variant"`
}

// GET_TILE (client -> server)
type GetTileMsg struct {
	Type  string `json:"type"`
	ReqID string `json:"req_id,omitempty"`
	Pos   [3]int `json:"pos"`
}

// SET_TILE (client -> server). Exactly one of Name or Material selects the
// material; Flags, when present, must match the catalog.
type SetTileMsg struct {
	Type     string   `json:"type"`
	ReqID    string   `json:"req_id,omitempty"`
	Pos      [3]int   `json:"pos"`
	Name     string   `json:"name,omitempty"`
	Material *int     `json:"material,omitempty"`
	Flags    []string `json:"flags,omitempty"`
	Variant  int      `json:"variant,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// TILE (server -> client)
type TileMsg struct {
	Type     string   `json:"type"`
	ReqID    string   `json:"req_id,omitempty"`
	Pos      [3]int   `json:"pos"`
	Tile     TileView `json:"tile"`
	Solid    bool     `json:"solid"`
	Opaque   bool     `json:"opaque"`
	CanEnter bool     `json:"can_enter"`
}

// GET_CHUNK (client -> server). Chunk is a chunk key: world x and y shifted
// right by 4, plus z.
type GetChunkMsg struct {
	Type  string `json:"type"`
	ReqID string `json:"req_id,omitempty"`
	Chunk [3]int `json:"chunk"`
}

// CHUNK (server -> client). Cells is the RLE form of 256 palette indices in
// row-major order (ly*16+lx). Loaded reports whether static data is present.
type ChunkMsg struct {
	Type    string     `json:"type"`
	ReqID   string     `json:"req_id,omitempty"`
	Chunk   [3]int     `json:"chunk"`
	Loaded  bool       `json:"loaded"`
	Palette []TileView `json:"palette"`
	Cells   string     `json:"cells"`
}

// ACK (server -> client)
type AckMsg struct {
	Type  string `json:"type"`
	ReqID string `json:"req_id,omitempty"`
	Pos   [3]int `json:"pos"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type    string `json:"type"`
	ReqID   string `json:"req_id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
