package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"tileworld.ai/internal/protocol"
)

func main() {
	var (
		url       = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name      = flag.String("name", "bot", "client name")
		materials = flag.String("materials", "STONE,DIRT,PLANKS,GLASS,AIR", "comma-separated material ids to place")
		radius    = flag.Int("radius", 32, "edit radius around the origin")
		every     = flag.Duration("every", 200*time.Millisecond, "delay between edits")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}
	var welcome protocol.WelcomeMsg
	if err := conn.ReadJSON(&welcome); err != nil || welcome.Type != protocol.TypeWelcome {
		logger.Fatalf("expected WELCOME: %+v %v", welcome, err)
	}
	logger.Printf("WELCOME session=%s world=%s seed=%d boundary=%s", welcome.SessionID, welcome.WorldID, welcome.WorldParams.Seed, welcome.WorldParams.Boundary)

	names := splitNames(*materials)
	if len(names) == 0 {
		logger.Fatalf("no materials")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	tick := time.NewTicker(*every)
	defer tick.Stop()

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	var sent, failed int
	for seq := 0; ; seq++ {
		select {
		case <-stop:
			logger.Printf("stopping: edits=%d failed=%d", sent, failed)
			return
		case <-tick.C:
		}

		pos := [3]int{r.Intn(2**radius+1) - *radius, r.Intn(2**radius+1) - *radius, 0}
		req := protocol.SetTileMsg{
			Type:   protocol.TypeSetTile,
			ReqID:  fmt.Sprintf("S%d", seq),
			Pos:    pos,
			Name:   names[r.Intn(len(names))],
			Reason: "bot",
		}
		if err := conn.WriteJSON(req); err != nil {
			logger.Printf("send: %v", err)
			return
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Printf("read: %v", err)
			return
		}
		sent++
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		if base.Type == protocol.TypeError {
			failed++
			var e protocol.ErrorMsg
			if json.Unmarshal(msg, &e) == nil {
				logger.Printf("edit %s at %v rejected: %s %s", req.Name, pos, e.Code, e.Message)
			}
		}
		if sent%100 == 0 {
			logger.Printf("edits=%d failed=%d", sent, failed)
		}
	}
}

func splitNames(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
