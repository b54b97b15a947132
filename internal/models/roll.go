package models

import (
	"time"
)

// RollKind is the action recorded in the roll history
type RollKind string

const (
	RollKindRoll   RollKind = "roll"
	RollKindReroll RollKind = "reroll"
	RollKindFinale RollKind = "finale"
	RollKindBank   RollKind = "bank"
	RollKindBust   RollKind = "bust"
)

// Roll is one entry in a lobby's roll history
type Roll struct {
	// ID is the unique identifier for the roll
	ID string `json:"id"`

	LobbyID  string   `json:"lobby_id"`
	PlayerID string   `json:"player_id"`
	Kind     RollKind `json:"kind"`

	// Dice are the faces thrown, empty for bank and bust entries
	Dice []int `json:"dice,omitempty"`

	// Points scored by the action; the banked amount for bank entries
	Points int  `json:"points"`
	Bust   bool `json:"bust"`

	// Timestamp is when the roll was made
	Timestamp time.Time `json:"timestamp"`
}

// PlayerStats aggregates a player's history within a lobby
type PlayerStats struct {
	PlayerID string `json:"player_id"`
	Rolls    int    `json:"rolls"`
	Busts    int    `json:"busts"`
	Banks    int    `json:"banks"`
	BestBank int    `json:"best_bank"`
}
