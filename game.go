package main

import (
	"errors"
	"sync"
	"time"
)

const inboxSize = 256

// Publisher delivers outbound messages. It is called only from the game goroutine.
type Publisher interface {
	PublishAll(msg Envelope)
	PublishTo(id string, msg Envelope)
}

// RandSource picks killers and spawn points; *rand.Rand satisfies it
type RandSource interface {
	Intn(n int) int
	Float64() float64
}

// Move rejections, logged and counted but never sent to clients
var (
	ErrNotAlive = errors.New("player is not alive")
	ErrFrozen   = errors.New("killer is frozen while hiders hide")
)

// Inbound commands handled by the game goroutine
type (
	joinCmd struct {
		id, name string
		reply    chan bool
	}
	moveCmd struct {
		id  string
		msg MoveMsg
	}
	rotateCmd struct {
		id    string
		angle float64
	}
	killCmd struct {
		id, target string
	}
	leaveCmd struct {
		id string
	}
	statusCmd struct {
		reply chan GameStatus
	}
)

// GameStatus is a point-in-time summary for health endpoints
type GameStatus struct {
	Phase     Phase `json:"phase"`
	Remaining int   `json:"remaining"`
	Players   int   `json:"players"`
}

// Game owns the single session. Every mutation runs on the goroutine that
// calls Run, fed through inbox in arrival order.
type Game struct {
	rules    Rules
	gameMap  *GameMap
	collider Collider
	players  *Registry
	session  *Session
	pub      Publisher
	rng      RandSource
	clock    Clock
	recorder Recorder
	metrics  *GameMetrics

	inbox    chan any
	quit     chan struct{}
	stopOnce sync.Once

	beat       uint64
	nextSpawn  int
	roundID    string
	roundStart time.Time
	kills      int
}

// NewGame creates the session in the lobby. Call Run to start processing.
func NewGame(rules Rules, m *GameMap, pub Publisher, clock Clock, rng RandSource) *Game {
	g := &Game{
		rules:    rules,
		gameMap:  m,
		collider: Collider{Map: m, Radius: rules.PlayerRadius},
		players:  NewRegistry(),
		pub:      pub,
		rng:      rng,
		clock:    clock,
		recorder: nopRecorder{},
		metrics:  &GameMetrics{},
		inbox:    make(chan any, inboxSize),
		quit:     make(chan struct{}),
	}
	timer := NewTimer(clock, func(fn func()) { g.post(fn) })
	timer.onStale = func(err error) {
		g.metrics.IncStaleTick()
		Log.Warnw("dropped timer tick", "err", err, "phase", g.session.Phase)
	}
	g.session = NewSession(timer)
	return g
}

// SetRecorder attaches round and event persistence. Call before Run.
func (g *Game) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	g.recorder = r
}

// Metrics returns the live counters
func (g *Game) Metrics() *GameMetrics {
	return g.metrics
}

// Run processes commands until Stop is called
func (g *Game) Run() {
	if g.rules.HeartbeatInterval > 0 {
		stopBeat := g.clock.Every(g.rules.HeartbeatInterval, func() {
			g.post(func() { g.heartbeat() })
		})
		defer stopBeat()
	}
	defer g.session.timer.Cancel()

	for {
		select {
		case <-g.quit:
			return
		case cmd := <-g.inbox:
			g.handle(cmd)
		}
	}
}

// Stop terminates Run
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.quit) })
}

func (g *Game) post(cmd any) bool {
	select {
	case g.inbox <- cmd:
		return true
	case <-g.quit:
		return false
	}
}

// Join adds a player for connection id and reports whether the player is in
// the session. It returns false when the session is full or the game stopped.
func (g *Game) Join(id, name string) bool {
	reply := make(chan bool, 1)
	if !g.post(joinCmd{id: id, name: name, reply: reply}) {
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-g.quit:
		return false
	}
}

// Move proposes a new position for id
func (g *Game) Move(id string, msg MoveMsg) { g.post(moveCmd{id: id, msg: msg}) }

// Rotate changes the facing of id
func (g *Game) Rotate(id string, angle float64) { g.post(rotateCmd{id: id, angle: angle}) }

// AttemptKill asks for id to eliminate target
func (g *Game) AttemptKill(id, target string) { g.post(killCmd{id: id, target: target}) }

// Leave removes id from the session
func (g *Game) Leave(id string) { g.post(leaveCmd{id: id}) }

// Status returns the current phase summary, or a zero value once stopped
func (g *Game) Status() GameStatus {
	reply := make(chan GameStatus, 1)
	if !g.post(statusCmd{reply: reply}) {
		return GameStatus{}
	}
	select {
	case st := <-reply:
		return st
	case <-g.quit:
		return GameStatus{}
	}
}

func (g *Game) handle(cmd any) {
	switch c := cmd.(type) {
	case func():
		c()
	case joinCmd:
		ok := g.handleJoin(c.id, c.name)
		if c.reply != nil {
			c.reply <- ok
		}
	case moveCmd:
		g.handleMove(c.id, c.msg)
	case rotateCmd:
		g.handleRotate(c.id, c.angle)
	case killCmd:
		g.handleAttemptKill(c.id, c.target)
	case leaveCmd:
		g.handleLeave(c.id)
	case statusCmd:
		c.reply <- GameStatus{
			Phase:     g.session.Phase,
			Remaining: g.session.Remaining(),
			Players:   g.players.Count(),
		}
	default:
		Log.Errorw("unknown game command", "type", cmd)
	}
}

func (g *Game) handleJoin(id, name string) bool {
	if g.players.Get(id) != nil {
		return true
	}
	if g.players.Count() >= g.rules.MaxPlayers {
		Log.Debugw("join rejected, session full", "id", id)
		return false
	}

	role := g.rules.DefaultRole()
	if g.session.Phase != PhaseLobby {
		role = RoleSpectator
	}
	x, y := g.spawnPoint()
	p := NewPlayer(id, name, x, y, role)
	g.players.Add(p)
	g.metrics.IncJoin()
	g.recorder.Track(EvtJoin, id, g.roundID, map[string]any{"name": name})
	Log.Infow("player joined", "id", id, "name", name, "role", role)

	g.pub.PublishTo(id, Envelope{T: MsgJoined, Data: JoinedMsg{
		ID:      id,
		Name:    name,
		Players: g.rosterFor(id),
	}})
	if g.session.Phase != PhaseLobby {
		g.pub.PublishTo(id, Envelope{T: MsgPhaseChange, Data: PhaseMsg{
			Phase:    g.session.Phase,
			Duration: g.session.Remaining(),
		}})
	}
	g.publishRoster()
	g.evaluateLobby()
	return true
}

func (g *Game) handleMove(id string, m MoveMsg) {
	p := g.players.Get(id)
	if err := g.checkMove(p); err != nil {
		g.metrics.IncMoveRejected()
		Log.Debugw("move rejected", "id", id, "reason", err)
		return
	}

	tx, ty := g.gameMap.ClampToBounds(*m.X, *m.Y, g.rules.PlayerRadius)
	changed := false
	// Axes are tried separately so a blocked diagonal slides along the wall.
	if tx != p.X && g.collider.CanOccupy(tx, p.Y) {
		p.X = tx
		changed = true
	}
	if ty != p.Y && g.collider.CanOccupy(p.X, ty) {
		p.Y = ty
		changed = true
	}
	if m.Angle != nil {
		if a := NormalizeAngle(*m.Angle); a != p.Angle {
			p.Angle = a
			changed = true
		}
	}
	if !changed {
		return
	}
	g.metrics.IncMoveAccepted()
	g.publishRoster()

	if g.rules.AutoKillOnMove && g.session.Phase == PhaseHunt {
		g.autoKill(p)
	}
}

func (g *Game) checkMove(p *Player) error {
	if p == nil {
		return ErrUnknownPlayer
	}
	if !p.Alive {
		return ErrNotAlive
	}
	if p.Role == RoleSpectator && g.session.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if p.Role == RoleKiller && g.session.Phase == PhaseHide && g.rules.FreezeKillerDuringHide {
		return ErrFrozen
	}
	return nil
}

func (g *Game) handleRotate(id string, angle float64) {
	p := g.players.Get(id)
	if p == nil || !p.Alive {
		return
	}
	a := NormalizeAngle(angle)
	if a == p.Angle {
		return
	}
	p.Angle = a
	g.publishRoster()

	if g.rules.AutoKillOnMove && g.session.Phase == PhaseHunt && p.Role == RoleKiller {
		g.autoKill(p)
	}
}

func (g *Game) handleAttemptKill(id, targetID string) {
	killer := g.players.Get(id)
	target := g.players.Get(targetID)
	if err := CheckKill(g.session.Phase, killer, target, g.rules, g.collider); err != nil {
		g.metrics.IncKillRejected()
		Log.Debugw("kill rejected", "killer", id, "target", targetID, "reason", err)
		return
	}
	g.confirmKill(killer, target)
}

// autoKill runs the kill check between the killer and whoever just moved
func (g *Game) autoKill(mover *Player) {
	killer := g.players.Get(g.session.KillerID)
	if killer == nil {
		return
	}
	targets := []*Player{mover}
	if mover == killer {
		targets = g.players.All()
	}
	for _, t := range targets {
		if t == killer {
			continue
		}
		if CheckKill(g.session.Phase, killer, t, g.rules, g.collider) == nil {
			g.confirmKill(killer, t)
			if !g.session.InRound() {
				return
			}
		}
	}
}

func (g *Game) confirmKill(killer, target *Player) {
	if !target.Kill() {
		return
	}
	g.kills++
	g.metrics.IncKillConfirmed()
	g.recorder.Track(EvtKill, killer.ID, g.roundID, map[string]any{"victim": target.ID})
	Log.Infow("kill confirmed", "round", g.roundID, "victim", target.ID)

	g.pub.PublishAll(Envelope{T: MsgPlayerKilled, Data: KilledMsg{PlayerID: target.ID}})
	g.publishRoster()
	g.checkWin()
}

func (g *Game) handleLeave(id string) {
	p := g.players.Remove(id)
	if p == nil {
		return
	}
	g.metrics.IncLeave()
	g.recorder.Track(EvtLeave, id, g.roundID, map[string]any{"role": string(p.Role)})
	Log.Infow("player left", "id", id, "phase", g.session.Phase)

	switch g.session.Phase {
	case PhaseLobby:
		g.evaluateLobby()
	case PhaseHide, PhaseHunt:
		g.checkWin()
	}
	g.publishRoster()
}

// spawnPoint returns the next free spawn, or a random open spot when every
// spawn is taken
func (g *Game) spawnPoint() (float64, float64) {
	spawns := g.gameMap.Spawns
	for range len(spawns) {
		sp := spawns[g.nextSpawn%len(spawns)]
		g.nextSpawn++
		if !g.occupied(sp.X, sp.Y) {
			return sp.X, sp.Y
		}
	}
	return g.randomOpen()
}

func (g *Game) occupied(x, y float64) bool {
	r := g.rules.PlayerRadius
	for _, p := range g.players.All() {
		if CheckCollision(x, y, r, p.X, p.Y, r) {
			return true
		}
	}
	return false
}

func (g *Game) randomOpen() (float64, float64) {
	r := g.rules.PlayerRadius
	for range 32 {
		x := r + g.rng.Float64()*(g.gameMap.Width-2*r)
		y := r + g.rng.Float64()*(g.gameMap.Height-2*r)
		if g.collider.CanOccupy(x, y) {
			return x, y
		}
	}
	return g.gameMap.Width / 2, g.gameMap.Height / 2
}

// visibleRole hides the killer from everyone but themselves until the round is over
func (g *Game) visibleRole(p *Player, recipient string) Role {
	if p.Role == RoleKiller && p.ID != recipient && g.session.Phase != PhaseResult {
		return RoleHider
	}
	return p.Role
}

func (g *Game) rosterFor(recipient string) []PlayerState {
	all := g.players.All()
	out := make([]PlayerState, 0, len(all))
	for _, p := range all {
		out = append(out, p.ToState(g.visibleRole(p, recipient)))
	}
	return out
}

// publishRoster sends each player the roster as they are allowed to see it
func (g *Game) publishRoster() {
	for _, id := range g.players.IDs() {
		g.pub.PublishTo(id, Envelope{T: MsgRoster, Data: RosterMsg{Players: g.rosterFor(id)}})
	}
}

func (g *Game) heartbeat() {
	g.beat++
	for _, id := range g.players.IDs() {
		g.pub.PublishTo(id, Envelope{T: MsgState, Data: StateMsg{
			Tick:      g.beat,
			Phase:     g.session.Phase,
			Remaining: g.session.Remaining(),
			Players:   g.rosterFor(id),
		}})
	}
}
