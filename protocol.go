package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Client -> Server message types
const (
	MsgJoin        = "join"
	MsgMove        = "move"
	MsgRotate      = "rotate"
	MsgAttemptKill = "attemptKill"
)

// Server -> Client message types
const (
	MsgJoined       = "joined"
	MsgRoster       = "rosterUpdate"
	MsgRoleAssigned = "roleAssigned"
	MsgPhaseChange  = "phaseChange"
	MsgPlayerKilled = "playerKilled"
	MsgGameEnd      = "gameEnd"
	MsgGameReset    = "gameReset"
	MsgState        = "state" // heartbeat, sent as a msgpack binary frame
)

const (
	maxNameLen  = 16
	defaultName = "Player"
)

// ErrMalformed marks an inbound message that failed boundary validation
var ErrMalformed = errors.New("malformed message")

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; D is decoded per type.
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is sent once when a connection wants a player
type JoinMsg struct {
	Name string `json:"name"`
}

func (m JoinMsg) Validate() error { return nil }

// CleanName trims the requested name and falls back to a default
func (m JoinMsg) CleanName() string {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return defaultName
	}
	if r := []rune(name); len(r) > maxNameLen {
		name = string(r[:maxNameLen])
	}
	return name
}

// MoveMsg proposes a new position and optionally a facing angle
type MoveMsg struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Angle *float64 `json:"angle,omitempty"`
}

func (m MoveMsg) Validate() error {
	if m.X == nil || m.Y == nil {
		return fmt.Errorf("%w: move requires x and y", ErrMalformed)
	}
	if !finite(*m.X, *m.Y) || (m.Angle != nil && !finite(*m.Angle)) {
		return fmt.Errorf("%w: move has non-finite values", ErrMalformed)
	}
	return nil
}

// RotateMsg changes facing only
type RotateMsg struct {
	Angle *float64 `json:"angle"`
}

func (m RotateMsg) Validate() error {
	if m.Angle == nil || !finite(*m.Angle) {
		return fmt.Errorf("%w: rotate requires a finite angle", ErrMalformed)
	}
	return nil
}

// AttemptKillMsg names the intended victim
type AttemptKillMsg struct {
	TargetID string `json:"targetId"`
}

func (m AttemptKillMsg) Validate() error {
	if m.TargetID == "" {
		return fmt.Errorf("%w: attemptKill requires targetId", ErrMalformed)
	}
	return nil
}

// DecodePayload unmarshals and validates an inbound payload
func DecodePayload[T interface{ Validate() error }](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

// PlayerState is one roster entry as seen by a particular recipient
type PlayerState struct {
	ID    string  `json:"id" msgpack:"id"`
	Name  string  `json:"name" msgpack:"n"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Angle float64 `json:"angle" msgpack:"a"`
	Role  Role    `json:"role" msgpack:"r"`
	Alive bool    `json:"alive" msgpack:"al"`
}

// JoinedMsg answers a join, to the joining connection only
type JoinedMsg struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Players []PlayerState `json:"players"`
}

// RosterMsg is the full authoritative player list
type RosterMsg struct {
	Players []PlayerState `json:"players"`
}

// RoleMsg privately tells a player their role
type RoleMsg struct {
	Role Role `json:"role"`
}

// PhaseMsg announces a transition and the timer it starts
type PhaseMsg struct {
	Phase    Phase `json:"phase"`
	Duration int   `json:"duration"`
}

// KilledMsg is broadcast when a kill is confirmed. The killer stays anonymous.
type KilledMsg struct {
	PlayerID string `json:"playerId"`
}

// GameEndMsg closes a round and reveals the killer
type GameEndMsg struct {
	Winner   Winner `json:"winner"`
	KillerID string `json:"killerId,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// StateMsg is the periodic full-state heartbeat
type StateMsg struct {
	Tick      uint64        `msgpack:"tick"`
	Phase     Phase         `msgpack:"ph"`
	Remaining int           `msgpack:"rem"`
	Players   []PlayerState `msgpack:"p"`
}
