package realtime

import (
	"github.com/KirkDiggler/hotdice/internal/models"
)

// Kind names an event for logs, metrics and wire encodings
type Kind string

const (
	KindPlayerJoined      Kind = "player_joined"
	KindPlayerLeft        Kind = "player_left"
	KindGameStarted       Kind = "game_started"
	KindDiceRolled        Kind = "dice_rolled"
	KindDiceHeld          Kind = "dice_held"
	KindTurnBanked        Kind = "turn_banked"
	KindBust              Kind = "bust"
	KindScoreChanged      Kind = "score_changed"
	KindTurnChanged       Kind = "turn_changed"
	KindGameWon           Kind = "game_won"
	KindSyncStatusChanged Kind = "sync_status_changed"
)

// Meta is carried by every event. Snapshot is the observed state after the
// change and is shared by the events of one observation; treat it as
// read-only.
type Meta struct {
	Kind     Kind                 `json:"kind"`
	LobbyID  string               `json:"lobby_id"`
	PlayerID string               `json:"player_id,omitempty"`
	Revision int64                `json:"revision"`
	Snapshot models.LobbySnapshot `json:"-"`
}

// EventMeta returns the common fields of an event
func (m Meta) EventMeta() Meta { return m }

// Event is one classified change. The set of implementations is closed.
type Event interface {
	EventMeta() Meta
	isEvent()
}

type PlayerJoined struct {
	Meta
	Player models.Player `json:"player"`

	// Reconnected is set when a seated player came back
	Reconnected bool `json:"reconnected"`
}

type PlayerLeft struct {
	Meta
	Player models.Player `json:"player"`

	// Disconnected is set when the player is still seated but away
	Disconnected bool `json:"disconnected"`
}

type GameStarted struct {
	Meta
	Players []models.Player `json:"players"`
}

type DiceRolled struct {
	Meta
	Dice []int `json:"dice"`

	// PreviousDice is set for a tier 2 reroll
	PreviousDice []int `json:"previous_dice,omitempty"`
	RollCount    int   `json:"roll_count"`
	Tier         int   `json:"tier,omitempty"`
	TurnScore    int   `json:"turn_score"`
}

type DiceHeld struct {
	Meta
	Held      []int `json:"held"`
	Previous  []int `json:"previous,omitempty"`
	TurnScore int   `json:"turn_score"`
}

type TurnBanked struct {
	Meta
	Points     int `json:"points"`
	TotalScore int `json:"total_score"`
}

type Bust struct {
	Meta
	Dice []int `json:"dice,omitempty"`

	// Lost is the unbanked score forfeited
	Lost int `json:"lost"`
}

type ScoreChanged struct {
	Meta
	Before int `json:"before"`
	After  int `json:"after"`
}

type TurnChanged struct {
	Meta
	FromIndex    int    `json:"from_index"`
	ToIndex      int    `json:"to_index"`
	FromPlayerID string `json:"from_player_id,omitempty"`
}

type GameWon struct {
	Meta
	Score int `json:"score"`
}

type SyncStatusChanged struct {
	Meta
	Mode Mode `json:"mode"`

	// Healthy is false while polls are failing
	Healthy bool `json:"healthy"`
}

func (PlayerJoined) isEvent()      {}
func (PlayerLeft) isEvent()        {}
func (GameStarted) isEvent()       {}
func (DiceRolled) isEvent()        {}
func (DiceHeld) isEvent()          {}
func (TurnBanked) isEvent()        {}
func (Bust) isEvent()              {}
func (ScoreChanged) isEvent()      {}
func (TurnChanged) isEvent()       {}
func (GameWon) isEvent()           {}
func (SyncStatusChanged) isEvent() {}
