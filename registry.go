package main

// Registry maps connection ids to players and remembers join order, which
// makes killer and spawn selection reproducible under a fixed random source.
type Registry struct {
	players map[string]*Player
	order   []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{players: make(map[string]*Player)}
}

// Add inserts a player. It returns false if the id is already present.
func (r *Registry) Add(p *Player) bool {
	if _, ok := r.players[p.ID]; ok {
		return false
	}
	r.players[p.ID] = p
	r.order = append(r.order, p.ID)
	return true
}

// Remove deletes a player and returns it, or nil if absent
func (r *Registry) Remove(id string) *Player {
	p, ok := r.players[id]
	if !ok {
		return nil
	}
	delete(r.players, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p
}

// Get returns the player for id, or nil
func (r *Registry) Get(id string) *Player {
	return r.players[id]
}

// Count returns the number of players
func (r *Registry) Count() int {
	return len(r.players)
}

// All returns players in join order
func (r *Registry) All() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// IDs returns player ids in join order
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// AliveHiders counts living players with the hider role
func (r *Registry) AliveHiders() int {
	n := 0
	for _, p := range r.players {
		if p.Role == RoleHider && p.Alive {
			n++
		}
	}
	return n
}

// CountRole counts players holding role, alive or not
func (r *Registry) CountRole(role Role) int {
	n := 0
	for _, p := range r.players {
		if p.Role == role {
			n++
		}
	}
	return n
}
