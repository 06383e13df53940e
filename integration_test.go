package main

import (
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// ---------- helpers ----------

type testServer struct {
	srv   *httptest.Server
	wsURL string
	hub   *Hub
	game  *Game
}

// startTestServer spins up the full HTTP stack over a real clock
func startTestServer(t *testing.T, rules Rules) *testServer {
	t.Helper()
	return startTestServerDB(t, rules, nil)
}

func startTestServerDB(t *testing.T, rules Rules, db *DB) *testServer {
	t.Helper()

	hub := NewHub()
	game := NewGame(rules, openTestMap(), hub, realClock{}, rand.New(rand.NewSource(1)))
	hub.SetGame(game)
	go game.Run()

	cfg := Config{AllowedOrigin: "*", TileSize: 40, Rules: rules}
	srv := httptest.NewServer(SetupRoutes(hub, game, db, cfg))
	t.Cleanup(func() {
		srv.Close()
		game.Stop()
	})

	return &testServer{
		srv:   srv,
		wsURL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		hub:   hub,
		game:  game,
	}
}

// dialWS opens a WebSocket connection to the test server
func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// wireMsg is an inbound frame as the browser would see it
type wireMsg struct {
	T     string
	D     json.RawMessage
	State *StateMsg
}

func readWire(t *testing.T, conn *websocket.Conn) wireMsg {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read WS: %v", err)
	}
	if msgType == websocket.BinaryMessage {
		var st StateMsg
		if err := msgpack.Unmarshal(raw, &st); err != nil {
			t.Fatalf("msgpack unmarshal: %v", err)
		}
		return wireMsg{T: MsgState, State: &st}
	}
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return wireMsg{T: env.T, D: env.D}
}

// readUntil skips messages until one of type typ satisfies match
func readUntil(t *testing.T, conn *websocket.Conn, typ string, match func(wireMsg) bool) wireMsg {
	t.Helper()
	for range 50 {
		m := readWire(t, conn)
		if m.T == typ && (match == nil || match(m)) {
			return m
		}
	}
	t.Fatalf("no %s message matched", typ)
	return wireMsg{}
}

func rosterLen(n int) func(wireMsg) bool {
	return func(m wireMsg) bool {
		var r RosterMsg
		return json.Unmarshal(m.D, &r) == nil && len(r.Players) == n
	}
}

// sendMsg sends a typed message over the WebSocket
func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	raw, _ := json.Marshal(Envelope{T: msgType, Data: data})
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write WS: %v", err)
	}
}

func joinAs(t *testing.T, conn *websocket.Conn, name string) JoinedMsg {
	t.Helper()
	sendMsg(t, conn, MsgJoin, JoinMsg{Name: name})
	m := readUntil(t, conn, MsgJoined, nil)
	var joined JoinedMsg
	if err := json.Unmarshal(m.D, &joined); err != nil {
		t.Fatalf("decode joined: %v", err)
	}
	return joined
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

// ---------- tests ----------

func TestIndexRoute(t *testing.T) {
	ts := startTestServer(t, DefaultRules())

	resp, err := http.Get(ts.srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "Hide & Seek Server Running" {
		t.Errorf("unexpected index response %d %q", resp.StatusCode, body)
	}

	if code := getJSON(t, ts.srv.URL+"/nope", nil); code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", code)
	}
}

func TestJoinOverWebSocket(t *testing.T) {
	ts := startTestServer(t, DefaultRules())

	c1 := dialWS(t, ts.wsURL)
	joined := joinAs(t, c1, "  Ann  ")
	if joined.Name != "Ann" {
		t.Errorf("expected trimmed name Ann, got %q", joined.Name)
	}
	if len(joined.Players) != 1 || joined.Players[0].ID != joined.ID {
		t.Errorf("expected roster with self, got %+v", joined.Players)
	}
	if joined.Players[0].Role != RoleHider || !joined.Players[0].Alive {
		t.Errorf("expected living hider, got %+v", joined.Players[0])
	}

	c2 := dialWS(t, ts.wsURL)
	joinAs(t, c2, "Bob")
	readUntil(t, c1, MsgRoster, rosterLen(2))

	var st GameStatus
	getJSON(t, ts.srv.URL+"/healthz", &st)
	if st.Players != 2 || st.Phase != PhaseLobby {
		t.Errorf("expected 2 players in lobby, got %+v", st)
	}

	c2.Close()
	readUntil(t, c1, MsgRoster, rosterLen(1))
}

func TestMalformedMessagesAreDropped(t *testing.T) {
	ts := startTestServer(t, DefaultRules())
	c := dialWS(t, ts.wsURL)
	joined := joinAs(t, c, "Ann")

	c.WriteMessage(websocket.TextMessage, []byte("not json"))
	sendMsg(t, c, MsgMove, map[string]float64{"x": 10})
	sendMsg(t, c, "teleport", nil)
	sendMsg(t, c, MsgRotate, map[string]float64{"angle": 1})

	// the connection survives and the valid rotate still lands
	readUntil(t, c, MsgRoster, func(m wireMsg) bool {
		var r RosterMsg
		if json.Unmarshal(m.D, &r) != nil {
			return false
		}
		return stateOf(r.Players, joined.ID).Angle == 1
	})

	var snap map[string]float64
	getJSON(t, ts.srv.URL+"/metrics", &snap)
	if snap["malformed"] != 3 {
		t.Errorf("expected 3 malformed messages counted, got %v", snap["malformed"])
	}
	if snap["connections"] != 1 || snap["clients"] != 1 {
		t.Errorf("expected 1 connection and client, got %v %v", snap["connections"], snap["clients"])
	}
}

func TestHeartbeatIsMsgpack(t *testing.T) {
	rules := DefaultRules()
	rules.HeartbeatInterval = 20 * time.Millisecond
	ts := startTestServer(t, rules)
	c := dialWS(t, ts.wsURL)
	joined := joinAs(t, c, "Ann")

	m := readUntil(t, c, MsgState, nil)
	if m.State.Phase != PhaseLobby || len(m.State.Players) != 1 || m.State.Players[0].ID != joined.ID {
		t.Errorf("unexpected heartbeat %+v", m.State)
	}
}

func TestRoundsDisabledWithoutDB(t *testing.T) {
	ts := startTestServer(t, DefaultRules())
	if code := getJSON(t, ts.srv.URL+"/rounds", nil); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestRoundsIncludeHistoryAndEvents(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()
	if err := db.RecordRound(RoundRow{ID: "r1", StartedAt: now.Add(-time.Minute), EndedAt: now, Winner: "killer", Reason: EndElimination, Players: 3, Kills: 2}); err != nil {
		t.Fatal(err)
	}
	a := NewAnalytics(db)
	a.Track(EvtJoin, "p1", "", nil)
	a.Track(EvtKill, "p1", "r1", nil)
	a.Stop()

	ts := startTestServerDB(t, DefaultRules(), db)
	var body struct {
		Rounds []RoundRow     `json:"rounds"`
		Wins   map[string]int `json:"wins"`
		Events map[string]int `json:"events"`
	}
	if code := getJSON(t, ts.srv.URL+"/rounds", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(body.Rounds) != 1 || body.Rounds[0].ID != "r1" || body.Wins["killer"] != 1 {
		t.Errorf("unexpected history %+v", body)
	}
	if body.Events[EvtJoin] != 1 || body.Events[EvtKill] != 1 {
		t.Errorf("unexpected event counts %v", body.Events)
	}

	if code := getJSON(t, ts.srv.URL+"/rounds?limit=abc", nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", code)
	}
}

func TestJoinRetryAfterFullSession(t *testing.T) {
	rules := DefaultRules()
	rules.MaxPlayers = 1
	ts := startTestServer(t, rules)

	c1 := dialWS(t, ts.wsURL)
	joinAs(t, c1, "Ann")

	c2 := dialWS(t, ts.wsURL)
	sendMsg(t, c2, MsgJoin, JoinMsg{Name: "Bob"})
	if st := ts.game.Status(); st.Players != 1 {
		t.Fatalf("expected full session to keep 1 player, got %d", st.Players)
	}

	c1.Close()
	deadline := time.Now().Add(2 * time.Second)
	for ts.game.Status().Players != 0 {
		if time.Now().After(deadline) {
			t.Fatal("first player never left")
		}
		time.Sleep(10 * time.Millisecond)
	}

	joined := joinAs(t, c2, "Bob")
	if joined.Name != "Bob" || len(joined.Players) != 1 {
		t.Errorf("expected Bob admitted after the slot freed, got %+v", joined)
	}
}

func TestQRCodeEndpoint(t *testing.T) {
	ts := startTestServer(t, DefaultRules())
	resp, err := http.Get(ts.srv.URL + "/qr")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if len(body) < 8 || string(body[1:4]) != "PNG" {
		t.Error("expected PNG payload")
	}
}

func TestOriginCheck(t *testing.T) {
	cases := []struct {
		allowed, origin, host string
		want                  bool
	}{
		{"*", "https://evil.example", "game.example", true},
		{"https://game.example", "https://game.example", "api.example", true},
		{"https://game.example", "https://evil.example", "api.example", false},
		{"", "http://game.example", "game.example", true},
		{"", "http://evil.example", "game.example", false},
		{"https://game.example", "", "game.example", true},
	}
	for _, tc := range cases {
		up := newUpgrader(tc.allowed)
		r := httptest.NewRequest(http.MethodGet, "http://"+tc.host+"/ws", nil)
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		if got := up.CheckOrigin(r); got != tc.want {
			t.Errorf("allowed=%q origin=%q: expected %v, got %v", tc.allowed, tc.origin, tc.want, got)
		}
	}
}
