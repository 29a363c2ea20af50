package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tileworld.ai/internal/protocol"
	"tileworld.ai/internal/sim/encoding"
	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/sim/world/terrain/store"
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader

	sessions atomic.Int64
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

// Sessions returns the number of connected clients that completed HELLO.
func (s *Server) Sessions() int64 { return s.sessions.Load() }

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess, ok := s.handshake(conn)
		if !ok {
			return
		}
		s.sessions.Add(1)
		defer s.sessions.Add(-1)
		if s.log != nil {
			s.log.Printf("session %s connected (%s)", sess.id, sess.name)
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		out := make(chan []byte, 32)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		send := func(v any) bool {
			b, err := json.Marshal(v)
			if err != nil {
				return true
			}
			select {
			case out <- b:
				return true
			case <-ctx.Done():
				return false
			}
		}

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if !send(s.handle(sess, msg)) {
				break
			}
		}
		if s.log != nil {
			s.log.Printf("session %s closed", sess.id)
		}
	}
}

type session struct {
	id   string
	name string
}

func (s *session) actor() string { return s.name + "#" + s.id }

func (s *Server) handshake(conn *websocket.Conn) (*session, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil, false
	}
	if _, err := protocol.ValidateInbound(msg); err != nil {
		closeWith(conn, "bad HELLO")
		return nil, false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil, false
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil, false
	}

	sess := &session{id: uuid.NewString(), name: hello.ClientName}
	if err := writeJSON(conn, s.welcome(sess)); err != nil {
		return nil, false
	}
	return sess, true
}

func (s *Server) welcome(sess *session) protocol.WelcomeMsg {
	cfg := s.world.Config()
	tiles := &s.world.Catalogs().Tiles
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		WorldID:         cfg.ID,
		WorldParams: protocol.WorldParams{
			ChunkSize:  store.ChunkSize,
			RegionSize: store.RegionSize,
			ShardCount: cfg.ShardCount,
			Boundary:   cfg.Boundary,
			BoundaryR:  cfg.BoundaryR,
			Seed:       cfg.Seed,
		},
		Catalogs: protocol.CatalogDigests{
			TilePalette:    protocol.PaletteDigest{Digest: tiles.PaletteDigest, Count: len(tiles.Palette)},
			TileDefsDigest: tiles.DefsDigest,
		},
	}
}

// handle answers one client message; the result is always sent back.
func (s *Server) handle(sess *session, msg []byte) any {
	base, err := protocol.ValidateInbound(msg)
	if err != nil {
		return errorMsg(base.ReqID, protocol.ErrProtoBadRequest, err.Error())
	}
	if base.ProtocolVersion != "" && base.ProtocolVersion != protocol.Version {
		return errorMsg(base.ReqID, protocol.ErrProtoVersion, "unsupported protocol_version")
	}

	switch base.Type {
	case protocol.TypeGetTile:
		var m protocol.GetTileMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return errorMsg(base.ReqID, protocol.ErrProtoBadRequest, err.Error())
		}
		return s.tileMsg(m.ReqID, m.Pos)

	case protocol.TypeSetTile:
		var m protocol.SetTileMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return errorMsg(base.ReqID, protocol.ErrProtoBadRequest, err.Error())
		}
		t, err := s.resolveTile(m)
		if err == nil {
			err = s.world.SetTile(sess.actor(), m.Pos[0], m.Pos[1], m.Pos[2], t, m.Reason)
		}
		if err != nil {
			return errorMsg(m.ReqID, codeFor(err), err.Error())
		}
		return protocol.AckMsg{Type: protocol.TypeAck, ReqID: m.ReqID, Pos: m.Pos}

	case protocol.TypeGetChunk:
		var m protocol.GetChunkMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return errorMsg(base.ReqID, protocol.ErrProtoBadRequest, err.Error())
		}
		return s.chunkMsg(m.ReqID, m.Chunk)

	default:
		return errorMsg(base.ReqID, protocol.ErrBadRequest, "unexpected message type "+base.Type)
	}
}

func (s *Server) tileMsg(reqID string, p [3]int) protocol.TileMsg {
	x, y, z := p[0], p[1], p[2]
	return protocol.TileMsg{
		Type:     protocol.TypeTile,
		ReqID:    reqID,
		Pos:      p,
		Tile:     s.tileView(s.world.TileAt(x, y, z)),
		Solid:    s.world.IsSolid(x, y, z),
		Opaque:   s.world.IsOpaque(x, y, z),
		CanEnter: s.world.CanEnter(x, y, z),
	}
}

func (s *Server) chunkMsg(reqID string, c [3]int) protocol.ChunkMsg {
	cx, cy, z := int32(c[0]), int32(c[1]), int32(c[2])
	tiles := s.world.ChunkTiles(cx, cy, z)
	packed := make([]uint32, len(tiles))
	for i, t := range tiles {
		packed[i] = t.Pack()
	}
	palette, ids := encoding.Palettize(packed)
	views := make([]protocol.TileView, len(palette))
	for i, v := range palette {
		views[i] = s.tileView(store.UnpackTile(v))
	}
	_, loaded := s.world.Map().ChunkAt(store.NewPos(cx, cy, z))
	return protocol.ChunkMsg{
		Type:    protocol.TypeChunk,
		ReqID:   reqID,
		Chunk:   c,
		Loaded:  loaded,
		Palette: views,
		Cells:   encoding.EncodeRLE(ids),
	}
}

func (s *Server) tileView(t store.Tile) protocol.TileView {
	return protocol.TileView{
		Material: int(t.Material),
		Name:     s.world.Catalogs().Tiles.Name(t.Material),
		Flags:    t.Flags.Names(),
		Variant:  int(t.Variant),
	}
}

var errBadFlags = errors.New("flags do not match material")

func (s *Server) resolveTile(m protocol.SetTileMsg) (store.Tile, error) {
	name := m.Name
	if m.Material != nil {
		name = s.world.Catalogs().Tiles.Name(store.MaterialID(*m.Material))
		if name == "" {
			return store.VoidTile, world.ErrUnknownMaterial
		}
	}
	t, err := s.world.TileFor(name, uint8(m.Variant))
	if err != nil {
		return t, err
	}
	if m.Flags != nil {
		f, ok := store.ParseFlags(m.Flags)
		if !ok || f != t.Flags {
			return t, errBadFlags
		}
	}
	return t, nil
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, world.ErrOutOfRange):
		return protocol.ErrInvalidTarget
	case errors.Is(err, world.ErrUnknownMaterial):
		return protocol.ErrUnknownMaterial
	case errors.Is(err, world.ErrFlagMismatch), errors.Is(err, errBadFlags):
		return protocol.ErrBadRequest
	default:
		return protocol.ErrInternal
	}
}

func errorMsg(reqID, code, msg string) protocol.ErrorMsg {
	return protocol.ErrorMsg{Type: protocol.TypeError, ReqID: reqID, Code: code, Message: msg}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
