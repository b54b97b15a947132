package models

import (
	"encoding/json"
	"slices"
	"sort"
	"time"
)

// LobbySnapshot is the full authoritative state of one lobby at one revision
type LobbySnapshot struct {
	Lobby Lobby `json:"lobby"`

	// Players are ordered by TurnOrder
	Players []Player `json:"players"`

	Turn TurnState `json:"turn"`

	// Revision increases with every write to the lobby, its players or its turn
	Revision int64 `json:"revision"`
}

// Clone returns a deep copy of s
func (s LobbySnapshot) Clone() LobbySnapshot {
	s.Players = slices.Clone(s.Players)
	s.Turn = s.Turn.Clone()
	return s
}

// SortPlayers orders players by TurnOrder
func (s *LobbySnapshot) SortPlayers() {
	sort.SliceStable(s.Players, func(i, j int) bool {
		return s.Players[i].TurnOrder < s.Players[j].TurnOrder
	})
}

// CurrentPlayer returns the player whose turn it is
func (s LobbySnapshot) CurrentPlayer() (Player, bool) {
	i := s.Lobby.CurrentTurnIndex
	if i < 0 || i >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[i], true
}

// PlayerByID returns the player and its index in Players
func (s LobbySnapshot) PlayerByID(id string) (Player, int, bool) {
	for i, p := range s.Players {
		if p.ID == id {
			return p, i, true
		}
	}
	return Player{}, -1, false
}

// NextTurnIndex is the index after the current one, wrapping around
func (s LobbySnapshot) NextTurnIndex() int {
	if len(s.Players) == 0 {
		return 0
	}
	return (s.Lobby.CurrentTurnIndex + 1) % len(s.Players)
}

// ChangeTable names the record kind in a change notification
type ChangeTable string

const (
	ChangeTableLobby  ChangeTable = "lobby"
	ChangeTablePlayer ChangeTable = "player"
	ChangeTableTurn   ChangeTable = "turn"
)

// ChangeOp is the kind of write in a change notification
type ChangeOp string

const (
	ChangeOpInsert ChangeOp = "insert"
	ChangeOpUpdate ChangeOp = "update"
	ChangeOpDelete ChangeOp = "delete"

	// ChangeOpResync carries no row. The transport reconnected and changes
	// published while it was down are lost, so the lobby must be read again.
	ChangeOpResync ChangeOp = "resync"
)

// RawChange is a store notification as delivered by the push transport.
// Record and OldRecord hold the JSON of a Lobby, Player or TurnState.
type RawChange struct {
	Table      ChangeTable     `json:"table"`
	Op         ChangeOp        `json:"op"`
	LobbyID    string          `json:"lobby_id"`
	Version    int64           `json:"version"`
	CommitTime time.Time       `json:"commit_time"`
	Record     json.RawMessage `json:"record,omitempty"`
	OldRecord  json.RawMessage `json:"old_record,omitempty"`
}
