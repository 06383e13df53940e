package main

// Role is a player's part in the current round
type Role string

const (
	RoleHider     Role = "hider"
	RoleKiller    Role = "killer"
	RoleSpectator Role = "spectator"
)

// Valid reports whether r names a known role
func (r Role) Valid() bool {
	switch r {
	case RoleHider, RoleKiller, RoleSpectator:
		return true
	}
	return false
}

// Player represents a participant in the session
type Player struct {
	ID    string
	Name  string
	X, Y  float64
	Angle float64 // facing, radians in (-PI, PI]
	Role  Role
	Alive bool
}

// NewPlayer creates a living player at the given position
func NewPlayer(id, name string, x, y float64, role Role) *Player {
	return &Player{
		ID:    id,
		Name:  name,
		X:     x,
		Y:     y,
		Role:  role,
		Alive: true,
	}
}

// Kill marks the player dead. It returns false if they already were.
func (p *Player) Kill() bool {
	if !p.Alive {
		return false
	}
	p.Alive = false
	return true
}

// ToState converts to protocol state with the role the recipient may see
func (p *Player) ToState(visible Role) PlayerState {
	return PlayerState{
		ID:    p.ID,
		Name:  p.Name,
		X:     p.X,
		Y:     p.Y,
		Angle: p.Angle,
		Role:  visible,
		Alive: p.Alive,
	}
}
