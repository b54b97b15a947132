package models

import (
	"time"
)

// LobbyStatus represents the current state of a lobby
type LobbyStatus string

const (
	// LobbyStatusWaiting indicates a lobby is waiting for players to join
	LobbyStatusWaiting LobbyStatus = "waiting"

	// LobbyStatusActive indicates a game is in progress
	LobbyStatusActive LobbyStatus = "active"

	// LobbyStatusFinished indicates a winner has been declared
	LobbyStatusFinished LobbyStatus = "finished"
)

func (s LobbyStatus) rank() int {
	switch s {
	case LobbyStatusWaiting:
		return 1
	case LobbyStatusActive:
		return 2
	case LobbyStatusFinished:
		return 3
	}
	return 0
}

// Valid reports whether s is a known status
func (s LobbyStatus) Valid() bool {
	return s.rank() > 0
}

// CanTransition reports whether a lobby may move from s to next. Status only
// moves forward.
func (s LobbyStatus) CanTransition(next LobbyStatus) bool {
	return s.Valid() && next.Valid() && next.rank() > s.rank()
}

// GameMode selects the scoring rules of a lobby
type GameMode string

const (
	GameModeSixSided GameMode = "six_sided"
	GameModeTiered   GameMode = "tiered"
)

var winThresholds = map[GameMode][]int{
	GameModeSixSided: {3000, 5000, 10000},
	GameModeTiered:   {250},
}

// Valid reports whether m is a known mode
func (m GameMode) Valid() bool {
	_, ok := winThresholds[m]
	return ok
}

// DefaultThreshold is the first allowed win threshold for the mode
func (m GameMode) DefaultThreshold() int {
	if t := winThresholds[m]; len(t) > 0 {
		return t[0]
	}
	return 0
}

// ValidThreshold reports whether the mode can be played to threshold
func (m GameMode) ValidThreshold(threshold int) bool {
	for _, t := range winThresholds[m] {
		if t == threshold {
			return true
		}
	}
	return false
}

const (
	MinPlayers = 2
	MaxPlayers = 4
)

// Lobby is the shared row for one game
type Lobby struct {
	// ID is the unique identifier for the lobby
	ID string `json:"id"`

	// Code is the short code players use to join
	Code string `json:"code"`

	// HostID is the player who created the lobby
	HostID string `json:"host_id"`

	// ChannelID is the Discord channel the lobby was opened from, if any
	ChannelID string `json:"channel_id,omitempty"`

	Mode         GameMode    `json:"mode"`
	WinThreshold int         `json:"win_threshold"`
	Status       LobbyStatus `json:"status"`

	// CurrentTurnIndex points into the players ordered by TurnOrder
	CurrentTurnIndex int `json:"current_turn_index"`

	// WinnerID is set once the lobby is finished
	WinnerID string `json:"winner_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version is the lobby revision this row was last written at
	Version int64 `json:"version"`
}
