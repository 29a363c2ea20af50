package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tileworld.ai/internal/protocol"
	"tileworld.ai/internal/sim/catalogs"
	"tileworld.ai/internal/sim/encoding"
	"tileworld.ai/internal/sim/world"
)

func newTestServer(t *testing.T) (*Server, *world.World, string) {
	t.Helper()
	defs := []catalogs.TileDef{{ID: "AIR"}, {ID: "WATER", Liquid: true}}
	for _, id := range []string{"STONE", "LOG", "COAL_ORE", "IRON_ORE", "COPPER_ORE", "CRYSTAL_ORE"} {
		defs = append(defs, catalogs.TileDef{ID: id, Solid: true, Opaque: true})
	}
	for _, id := range []string{"DIRT", "GRASS", "SAND", "GRAVEL"} {
		defs = append(defs, catalogs.TileDef{ID: id, Walkable: true})
	}
	cats, err := catalogs.FromDefs(defs)
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	w, err := world.New(world.WorldConfig{ID: "test", BoundaryR: 1000}, cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	s := NewServer(w, nil)
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(hs.Close)
	return s, w, "ws" + strings.TrimPrefix(hs.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req string, out any) {
	t.Helper()
	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(req)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
}

func hello(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	var welcome protocol.WelcomeMsg
	roundTrip(t, conn, `{"type":"HELLO","protocol_version":"1.0","client_name":"bot"}`, &welcome)
	return welcome
}

func TestServer_HelloGetSet(t *testing.T) {
	s, w, url := newTestServer(t)
	conn := dial(t, url)

	welcome := hello(t, conn)
	if welcome.Type != protocol.TypeWelcome || welcome.WorldID != "test" || len(welcome.SessionID) != 36 {
		t.Fatalf("welcome: %+v", welcome)
	}
	if welcome.WorldParams.ChunkSize != 16 || welcome.Catalogs.TilePalette.Count != 12 {
		t.Fatalf("welcome params: %+v", welcome)
	}

	var ack protocol.AckMsg
	roundTrip(t, conn, `{"type":"SET_TILE","req_id":"r1","pos":[-3,7,0],"name":"STONE","reason":"wall"}`, &ack)
	if ack.Type != protocol.TypeAck || ack.ReqID != "r1" || ack.Pos != [3]int{-3, 7, 0} {
		t.Fatalf("ack: %+v", ack)
	}
	if !w.IsSolid(-3, 7, 0) {
		t.Fatalf("edit not applied to the world")
	}

	var tile protocol.TileMsg
	roundTrip(t, conn, `{"type":"GET_TILE","req_id":"r2","pos":[-3,7,0]}`, &tile)
	if tile.Type != protocol.TypeTile || tile.Tile.Name != "STONE" || !tile.Solid || !tile.Opaque || tile.CanEnter {
		t.Fatalf("tile: %+v", tile)
	}
	if len(tile.Tile.Flags) != 2 || tile.Tile.Flags[0] != "SOLID" || tile.Tile.Flags[1] != "OPAQUE" {
		t.Fatalf("flags: %v", tile.Tile.Flags)
	}

	var empty protocol.TileMsg
	roundTrip(t, conn, `{"type":"GET_TILE","pos":[500,500,0]}`, &empty)
	if empty.Tile.Name != "AIR" || len(empty.Tile.Flags) != 0 || !empty.CanEnter {
		t.Fatalf("empty tile: %+v", empty)
	}
	if s.Sessions() != 1 {
		t.Fatalf("sessions: %d", s.Sessions())
	}
}

func TestServer_GetChunk(t *testing.T) {
	_, w, url := newTestServer(t)
	stone, err := w.TileFor("STONE", 0)
	if err != nil {
		t.Fatalf("tile: %v", err)
	}
	if err := w.SetTile("test", -3, 7, 0, stone, ""); err != nil {
		t.Fatalf("set tile: %v", err)
	}
	conn := dial(t, url)
	hello(t, conn)

	var c protocol.ChunkMsg
	roundTrip(t, conn, `{"type":"GET_CHUNK","req_id":"c1","chunk":[-1,0,0]}`, &c)
	if c.Type != protocol.TypeChunk || c.ReqID != "c1" || c.Loaded {
		t.Fatalf("chunk: %+v", c)
	}
	if len(c.Palette) != 2 || c.Palette[0].Name != "AIR" || c.Palette[1].Name != "STONE" {
		t.Fatalf("palette: %+v", c.Palette)
	}
	ids, err := encoding.DecodeRLE(c.Cells, 256, len(c.Palette))
	if err != nil {
		t.Fatalf("cells: %v", err)
	}
	for i, id := range ids {
		want := uint16(0)
		if i == 7*16+13 {
			want = 1
		}
		if id != want {
			t.Fatalf("cell %d: got %d want %d", i, id, want)
		}
	}
}

func TestServer_Errors(t *testing.T) {
	_, _, url := newTestServer(t)
	conn := dial(t, url)
	hello(t, conn)

	cases := []struct {
		req  string
		code string
	}{
		{`{"type":"GET_TILE","pos":[1,2]}`, protocol.ErrProtoBadRequest},
		{`{"type":"SET_TILE","req_id":"a","pos":[5000,0,0],"name":"STONE"}`, protocol.ErrInvalidTarget},
		{`{"type":"SET_TILE","req_id":"b","pos":[0,0,0],"name":"LAVA"}`, protocol.ErrUnknownMaterial},
		{`{"type":"SET_TILE","req_id":"c","pos":[0,0,0],"material":999}`, protocol.ErrUnknownMaterial},
		{`{"type":"SET_TILE","req_id":"d","pos":[0,0,0],"name":"STONE","flags":["WALKABLE"]}`, protocol.ErrBadRequest},
		{`{"type":"GET_TILE","protocol_version":"0.1","pos":[0,0,0]}`, protocol.ErrProtoVersion},
	}
	for _, tc := range cases {
		var e protocol.ErrorMsg
		roundTrip(t, conn, tc.req, &e)
		if e.Type != protocol.TypeError || e.Code != tc.code {
			t.Fatalf("%s: got %+v want code %s", tc.req, e, tc.code)
		}
	}
}

func TestServer_RejectsMissingHello(t *testing.T) {
	_, _, url := newTestServer(t)
	conn := dial(t, url)
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"GET_TILE","pos":[0,0,0]}`))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}
