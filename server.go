package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
)

const (
	defaultRoundsLimit = 20
	maxRoundsLimit     = 100
	eventWindowDays    = 7
	qrSize             = 256
)

// newUpgrader builds the WebSocket upgrader. "*" accepts any origin; otherwise
// the origin must equal allowed, and with no setting it must match the host.
func newUpgrader(allowed string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed == "*" {
				return true // Non-browser clients don't send Origin
			}
			if allowed != "" {
				return origin == allowed
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return u.Host == r.Host
		},
	}
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Log.Debugw("write response", "err", err)
	}
}

// SetupRoutes configures HTTP routes. db may be nil when round history is off.
func SetupRoutes(hub *Hub, game *Game, db *DB, cfg Config) *http.ServeMux {
	mux := http.NewServeMux()
	upgrader := newUpgrader(cfg.AllowedOrigin)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Hide & Seek Server Running"))
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Log.Debugw("upgrade failed", "addr", ip, "err", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, game.Status())
	})

	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		snap := game.Metrics().Snapshot()
		snap["connections"] = hub.TotalConns()
		snap["clients"] = hub.ClientCount()
		writeJSON(w, http.StatusOK, snap)
	})

	mux.HandleFunc("/rounds", func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			http.Error(w, "round history disabled", http.StatusNotFound)
			return
		}
		limit := defaultRoundsLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxRoundsLimit)
		}
		rounds, err := db.RecentRounds(limit)
		if err != nil {
			Log.Errorw("recent rounds", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		wins, err := db.WinCounts()
		if err != nil {
			Log.Errorw("win counts", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		events, err := db.EventCounts(eventWindowDays)
		if err != nil {
			Log.Errorw("event counts", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rounds": rounds, "wins": wins, "events": events})
	})

	mux.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
		link := cfg.PublicURL
		if link == "" {
			link = "http://" + r.Host + "/"
		}
		png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
		if err != nil {
			Log.Errorw("qr encode", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	})

	return mux
}
