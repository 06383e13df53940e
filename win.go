package main

// Winner names the side that took the round
type Winner string

const (
	WinnerNone   Winner = ""
	WinnerKiller Winner = "killer"
	WinnerHiders Winner = "hiders"
)

// Reasons a round ended, recorded with the result
const (
	EndTimeout     = "timeout"
	EndElimination = "elimination"
	EndForfeit     = "killer_left"
)

// EvaluateWinner inspects the registry mid-round. A missing or dead killer
// hands the round to the hiders; no living hiders hands it to the killer.
func EvaluateWinner(players *Registry, killerID string) (Winner, string) {
	killer := players.Get(killerID)
	if killer == nil || killer.Role != RoleKiller || !killer.Alive {
		return WinnerHiders, EndForfeit
	}
	if players.AliveHiders() == 0 {
		return WinnerKiller, EndElimination
	}
	return WinnerNone, ""
}
