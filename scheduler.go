package main

import "time"

// evaluateLobby starts the countdown once enough players are present and
// cancels it if the count drops back below the minimum
func (g *Game) evaluateLobby() {
	if g.session.Phase != PhaseLobby {
		return
	}
	enough := g.players.Count() >= g.rules.MinPlayers
	running := g.session.timer.Active()
	switch {
	case enough && !running:
		g.startPhaseTimer(PhaseLobby, g.enterHide)
		g.broadcastPhase(PhaseLobby, g.rules.LobbySeconds)
		Log.Infow("lobby countdown started", "players", g.players.Count())
	case !enough && running:
		g.session.timer.Cancel()
		g.broadcastPhase(PhaseLobby, 0)
		Log.Infow("lobby countdown cancelled", "players", g.players.Count())
	}
}

func (g *Game) enterHide() {
	players := g.players.All()
	if len(players) < g.rules.MinPlayers {
		g.session.timer.Cancel()
		return
	}
	if err := g.session.advance(PhaseHide); err != nil {
		Log.Errorw("enter hide", "err", err)
		return
	}

	killer := players[g.rng.Intn(len(players))]
	g.session.KillerID = killer.ID

	spawns := g.gameMap.Spawns
	offset := 0
	if g.rules.RespawnOnHide && len(spawns) > 0 {
		offset = g.rng.Intn(len(spawns))
	}
	for i, p := range players {
		p.Role = RoleHider
		if p == killer {
			p.Role = RoleKiller
		}
		p.Alive = true
		if g.rules.RespawnOnHide && len(spawns) > 0 {
			sp := spawns[(offset+i)%len(spawns)]
			p.X, p.Y = sp.X, sp.Y
		}
	}

	g.roundID = GenerateID()
	g.roundStart = time.Now()
	g.kills = 0
	g.metrics.IncRoundStarted()
	g.recorder.Track(EvtRoundStart, killer.ID, g.roundID, map[string]any{"players": len(players)})
	Log.Infow("round started", "round", g.roundID, "players", len(players))

	g.startPhaseTimer(PhaseHide, g.enterHunt)
	g.broadcastPhase(PhaseHide, g.rules.HideSeconds)
	for _, p := range players {
		g.pub.PublishTo(p.ID, Envelope{T: MsgRoleAssigned, Data: RoleMsg{Role: p.Role}})
	}
	g.publishRoster()
	g.checkRoles()
}

func (g *Game) enterHunt() {
	if err := g.session.advance(PhaseHunt); err != nil {
		Log.Errorw("enter hunt", "err", err)
		return
	}
	g.startPhaseTimer(PhaseHunt, func() { g.endRound(WinnerHiders, EndTimeout) })
	g.broadcastPhase(PhaseHunt, g.rules.HuntSeconds)
	Log.Infow("hunt started", "round", g.roundID)
}

// checkWin ends the round as soon as the outcome is decided
func (g *Game) checkWin() {
	if !g.session.InRound() {
		return
	}
	if winner, reason := EvaluateWinner(g.players, g.session.KillerID); winner != WinnerNone {
		g.endRound(winner, reason)
	}
}

func (g *Game) endRound(winner Winner, reason string) {
	if err := g.session.advance(PhaseResult); err != nil {
		Log.Errorw("end round", "err", err)
		return
	}
	killerID := g.session.KillerID

	g.pub.PublishAll(Envelope{T: MsgGameEnd, Data: GameEndMsg{
		Winner:   winner,
		KillerID: killerID,
		Reason:   reason,
	}})
	g.startPhaseTimer(PhaseResult, g.resetRound)
	g.broadcastPhase(PhaseResult, g.rules.ResultSeconds)
	g.publishRoster()

	g.metrics.IncRoundFinished()
	ended := time.Now()
	g.recorder.Track(EvtRoundEnd, killerID, g.roundID, map[string]any{"winner": string(winner), "reason": reason})
	g.recorder.TrackRound(RoundRow{
		ID:        g.roundID,
		StartedAt: g.roundStart,
		EndedAt:   ended,
		Winner:    string(winner),
		Reason:    reason,
		KillerID:  killerID,
		Players:   g.players.Count(),
		Kills:     g.kills,
	})
	Log.Infow("round ended", "round", g.roundID, "winner", winner, "reason", reason,
		"duration", ended.Sub(g.roundStart).Round(time.Second))
}

// resetRound returns everyone to the lobby. It does nothing when already there.
func (g *Game) resetRound() {
	if g.session.Phase == PhaseLobby {
		return
	}
	if err := g.session.advance(PhaseLobby); err != nil {
		Log.Errorw("reset round", "err", err)
		return
	}
	g.session.timer.Cancel()
	g.session.KillerID = ""
	role := g.rules.DefaultRole()
	for _, p := range g.players.All() {
		p.Role = role
		p.Alive = true
	}

	g.pub.PublishAll(Envelope{T: MsgGameReset})
	g.publishRoster()
	g.evaluateLobby()
	if !g.session.timer.Active() {
		g.broadcastPhase(PhaseLobby, 0)
	}
}

// startPhaseTimer replaces any live countdown with one for phase p
func (g *Game) startPhaseTimer(p Phase, onExpire func()) {
	g.session.timer.Start(g.rules.PhaseSeconds(p), nil, onExpire)
}

func (g *Game) broadcastPhase(p Phase, seconds int) {
	g.pub.PublishAll(Envelope{T: MsgPhaseChange, Data: PhaseMsg{Phase: p, Duration: seconds}})
}

// checkRoles logs a defect unless exactly one killer is among the players
func (g *Game) checkRoles() {
	if n := g.players.CountRole(RoleKiller); n != 1 {
		Log.Errorw("role invariant violated", "killers", n, "round", g.roundID)
	}
}
