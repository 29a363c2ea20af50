package main

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"tileworld.ai/internal/persistence/indexdb"
	"tileworld.ai/internal/sim/world"
)

type stateResponse struct {
	WorldID  string             `json:"world_id"`
	Sessions int64              `json:"sessions"`
	Metrics  world.WorldMetrics `json:"metrics"`
	Index    *indexdb.Stats     `json:"index,omitempty"`
}

// stateHandler serves /admin/v1/state to loopback clients only.
func stateHandler(state func() stateResponse) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(state())
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
