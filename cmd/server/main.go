package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "tileworld.ai/internal/persistence/log"
	"tileworld.ai/internal/sim/catalogs"
	"tileworld.ai/internal/sim/tuning"
	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 0, "world seed (0: use worldgen.seed from tuning)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite edit index")
		pregen     = flag.Int("pregen", -1, "pregeneration radius in chunks (-1: use tuning)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.WorldGen.Seed = *seed
	}
	if *pregen >= 0 {
		tune.PregenRadiusChunks = *pregen
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	w, err := world.New(world.WorldConfig{
		ID:                              *worldID,
		Seed:                            tune.WorldGen.Seed,
		BoundaryR:                       tune.WorldBoundaryR,
		ShardCount:                      tune.ShardCount,
		Boundary:                        tune.Boundary,
		BiomeRegionSize:                 tune.WorldGen.BiomeRegionSize,
		SpawnClearRadius:                tune.WorldGen.SpawnClearRadius,
		OreClusterProbScalePermille:     tune.WorldGen.OreClusterProbScalePermille,
		TerrainClusterProbScalePermille: tune.WorldGen.TerrainClusterProbScalePermille,
		SprinkleStonePermille:           tune.WorldGen.SprinkleStonePermille,
		SprinkleDirtPermille:            tune.WorldGen.SprinkleDirtPermille,
		SprinkleLogPermille:             tune.WorldGen.SprinkleLogPermille,
		GenWorkers:                      tune.PregenWorkers,
	}, cats)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	auditLog := persistlog.NewAuditLogger(worldDir)
	defer auditLog.Close()
	if idx != nil {
		w.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx})
		w.SetChunkSink(idx)
	} else {
		w.SetAuditLogger(auditLog)
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	n, err := w.Generate(ctx, tune.PregenRadiusChunks, 0)
	if err != nil {
		logger.Printf("pregeneration interrupted after %d chunks: %v", n, err)
		return
	}
	logger.Printf("pregenerated %d chunks (radius=%d) in %s", n, tune.PregenRadiusChunks, time.Since(start).Round(time.Millisecond))

	wsSrv := ws.NewServer(w, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		if idx != nil {
			st := idx.Stats()
			writeMetrics(rw, *worldID, w.Metrics(), wsSrv.Sessions(), &st)
			return
		}
		writeMetrics(rw, *worldID, w.Metrics(), wsSrv.Sessions(), nil)
	})
	if envBool("TW_ENABLE_ADMIN_HTTP", true) {
		mux.HandleFunc("/admin/v1/state", stateHandler(func() stateResponse {
			resp := stateResponse{WorldID: *worldID, Sessions: wsSrv.Sessions(), Metrics: w.Metrics()}
			if idx != nil {
				st := idx.Stats()
				resp.Index = &st
			}
			return resp
		}))
	}
	if envBool("TW_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (TW_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
