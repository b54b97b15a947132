package models

import (
	"time"
)

// Player represents a participant in a lobby
type Player struct {
	// ID is the unique identifier of the player, a Discord user ID for bot players
	ID string `json:"id"`

	LobbyID string `json:"lobby_id"`

	// Name is the display name of the player
	Name string `json:"name"`

	// TotalScore is the banked score for the game
	TotalScore int `json:"total_score"`

	// TurnOrder is the player's seat; turns advance in ascending order
	TurnOrder int `json:"turn_order"`

	// Connected is false while the player's client is away
	Connected bool `json:"connected"`

	JoinedAt  time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Version int64 `json:"version"`
}
