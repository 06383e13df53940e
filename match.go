package main

import (
	"fmt"
	"math"
	"time"
)

// Phase represents the lifecycle stage of a round
type Phase string

const (
	PhaseLobby  Phase = "lobby"
	PhaseHide   Phase = "hide"
	PhaseHunt   Phase = "hunt"
	PhaseResult Phase = "result"
)

// next returns the only phase that may follow p
func (p Phase) next() Phase {
	switch p {
	case PhaseLobby:
		return PhaseHide
	case PhaseHide:
		return PhaseHunt
	case PhaseHunt:
		return PhaseResult
	default:
		return PhaseLobby
	}
}

// Rules holds the tunable settings for the session. Field tags let the
// process load them from HIDESEEK_* environment variables.
type Rules struct {
	MinPlayers    int `env:"MIN_PLAYERS" envDefault:"3"`
	MaxPlayers    int `env:"MAX_PLAYERS" envDefault:"20"`
	LobbySeconds  int `env:"LOBBY_SECONDS" envDefault:"20"`
	HideSeconds   int `env:"HIDE_SECONDS" envDefault:"15"`
	HuntSeconds   int `env:"HUNT_SECONDS" envDefault:"60"`
	ResultSeconds int `env:"RESULT_SECONDS" envDefault:"5"`

	KillRange       float64 `env:"KILL_RANGE" envDefault:"120"`
	KillConeDegrees float64 `env:"KILL_CONE_DEGREES" envDefault:"30"` // half-width
	PlayerRadius    float64 `env:"PLAYER_RADIUS" envDefault:"12"`

	FreezeKillerDuringHide bool   `env:"FREEZE_KILLER_DURING_HIDE" envDefault:"true"`
	RespawnOnHide          bool   `env:"RESPAWN_ON_HIDE" envDefault:"true"`
	AutoKillOnMove         bool   `env:"AUTO_KILL_ON_MOVE" envDefault:"false"`
	LobbyRole              string `env:"LOBBY_ROLE" envDefault:"hider"`

	// HeartbeatInterval enables periodic full-state sync; zero disables it
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"0s"`
}

// DefaultRules returns the stock rules
func DefaultRules() Rules {
	return Rules{
		MinPlayers:             3,
		MaxPlayers:             20,
		LobbySeconds:           20,
		HideSeconds:            15,
		HuntSeconds:            60,
		ResultSeconds:          5,
		KillRange:              120,
		KillConeDegrees:        30,
		PlayerRadius:           12,
		FreezeKillerDuringHide: true,
		RespawnOnHide:          true,
		LobbyRole:              string(RoleHider),
	}
}

// KillCone returns the detection half-angle in radians
func (r Rules) KillCone() float64 {
	return r.KillConeDegrees * math.Pi / 180
}

// DefaultRole is the role players hold outside a round
func (r Rules) DefaultRole() Role {
	if Role(r.LobbyRole) == RoleSpectator {
		return RoleSpectator
	}
	return RoleHider
}

// PhaseSeconds returns the timer length for a phase
func (r Rules) PhaseSeconds(p Phase) int {
	switch p {
	case PhaseLobby:
		return r.LobbySeconds
	case PhaseHide:
		return r.HideSeconds
	case PhaseHunt:
		return r.HuntSeconds
	case PhaseResult:
		return r.ResultSeconds
	}
	return 0
}

// Validate checks the rules are playable
func (r Rules) Validate() error {
	if r.MinPlayers < 2 {
		return fmt.Errorf("min players must be at least 2, got %d", r.MinPlayers)
	}
	if r.MaxPlayers < r.MinPlayers {
		return fmt.Errorf("max players %d below min players %d", r.MaxPlayers, r.MinPlayers)
	}
	for _, p := range []Phase{PhaseLobby, PhaseHide, PhaseHunt, PhaseResult} {
		if r.PhaseSeconds(p) <= 0 {
			return fmt.Errorf("%s duration must be positive", p)
		}
	}
	if r.KillRange <= 0 {
		return fmt.Errorf("kill range must be positive")
	}
	if r.KillConeDegrees <= 0 || r.KillConeDegrees > 180 {
		return fmt.Errorf("kill cone must be in (0, 180] degrees, got %v", r.KillConeDegrees)
	}
	if r.PlayerRadius <= 0 {
		return fmt.Errorf("player radius must be positive")
	}
	if !Role(r.LobbyRole).Valid() || Role(r.LobbyRole) == RoleKiller {
		return fmt.Errorf("lobby role must be hider or spectator, got %q", r.LobbyRole)
	}
	if r.HeartbeatInterval < 0 {
		return fmt.Errorf("heartbeat interval must not be negative")
	}
	return nil
}
