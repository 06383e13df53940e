package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if err := InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer SyncLogger()

	gameMap := DefaultMap(cfg.TileSize)
	if cfg.MapFile != "" {
		if gameMap, err = LoadMapFile(cfg.MapFile, cfg.TileSize); err != nil {
			Log.Fatalw("load map", "path", cfg.MapFile, "err", err)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	hub := NewHub()
	game := NewGame(cfg.Rules, gameMap, hub, realClock{}, rand.New(rand.NewSource(seed)))
	hub.SetGame(game)

	var db *DB
	if cfg.DBPath != "" {
		if db, err = OpenDB(cfg.DBPath); err != nil {
			Log.Fatalw("open database", "path", cfg.DBPath, "err", err)
		}
		defer db.Close()
		analytics := NewAnalytics(db)
		defer analytics.Stop()
		game.SetRecorder(analytics)
	}

	go game.Run()
	defer game.Stop()

	mux := SetupRoutes(hub, game, db, cfg)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		Log.Infow("server starting", "addr", cfg.Addr, "walls", len(gameMap.Walls),
			"spawns", len(gameMap.Spawns), "min_players", cfg.Rules.MinPlayers)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			Log.Fatalw("listen", "err", err)
		}
	}()

	<-stop
	Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		Log.Warnw("shutdown", "err", err)
	}
}
