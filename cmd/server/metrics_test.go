package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tileworld.ai/internal/persistence/indexdb"
	"tileworld.ai/internal/sim/world"
)

func TestWriteMetrics(t *testing.T) {
	var buf bytes.Buffer
	writeMetrics(&buf, "w1", world.WorldMetrics{Regions: 2, DeltaTiles: 7, Edits: 9}, 3, nil)
	out := buf.String()
	for _, want := range []string{
		`tileworld_regions{world="w1"} 2`,
		`tileworld_delta_tiles{world="w1"} 7`,
		`tileworld_edits_total{world="w1"} 9`,
		`tileworld_sessions{world="w1"} 3`,
		"# TYPE tileworld_edits_total counter",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "tileworld_index_") {
		t.Fatalf("index metrics written without an index")
	}

	buf.Reset()
	writeMetrics(&buf, "w1", world.WorldMetrics{}, 0, &indexdb.Stats{DropAuditTotal: 4})
	if !strings.Contains(buf.String(), `tileworld_index_dropped_audit_total{world="w1"} 4`) {
		t.Fatalf("index metrics missing:\n%s", buf.String())
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("TW_TEST_BOOL", "true")
	if !envBool("TW_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("TW_TEST_BOOL", "nonsense")
	if !envBool("TW_TEST_BOOL", true) || envBool("TW_TEST_BOOL", false) {
		t.Fatalf("invalid value must fall back to the default")
	}
}

func TestStateHandler_LoopbackOnly(t *testing.T) {
	h := stateHandler(func() stateResponse {
		return stateResponse{WorldID: "w1", Sessions: 2, Metrics: world.WorldMetrics{Edits: 5}}
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("loopback status: %d", rec.Code)
	}
	var got stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.WorldID != "w1" || got.Sessions != 2 || got.Metrics.Edits != 5 || got.Index != nil {
		t.Fatalf("state: %+v", got)
	}

	req.RemoteAddr = "10.1.2.3:5555"
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote status: %d", rec.Code)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	for addr, want := range map[string]bool{
		"127.0.0.1:80": true,
		"[::1]:80":     true,
		"::1":          true,
		"192.168.0.1":  false,
		"garbage":      false,
	} {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("%s: got %v want %v", addr, got, want)
		}
	}
}
