package models

import "sort"

// PlayerStanding is one row of the standings
type PlayerStanding struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	TotalScore int    `json:"total_score"`

	// Remaining is the points still needed to reach the win threshold
	Remaining int `json:"remaining"`

	// Current is true for the player whose turn it is
	Current bool `json:"current"`

	Rank int `json:"rank"`
}

// Leaderboard represents the current standings in a lobby
type Leaderboard struct {
	LobbyID  string            `json:"lobby_id"`
	WinnerID string            `json:"winner_id,omitempty"`
	Rows     []*PlayerStanding `json:"rows"`
}

// NewLeaderboard ranks the players of a snapshot by total score. Equal
// scores share a rank and keep turn order.
func NewLeaderboard(snap LobbySnapshot) *Leaderboard {
	current, _ := snap.CurrentPlayer()
	board := &Leaderboard{
		LobbyID:  snap.Lobby.ID,
		WinnerID: snap.Lobby.WinnerID,
		Rows:     make([]*PlayerStanding, 0, len(snap.Players)),
	}
	for _, p := range snap.Players {
		remaining := snap.Lobby.WinThreshold - p.TotalScore
		if remaining < 0 {
			remaining = 0
		}
		board.Rows = append(board.Rows, &PlayerStanding{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			TotalScore: p.TotalScore,
			Remaining:  remaining,
			Current:    snap.Lobby.Status == LobbyStatusActive && p.ID == current.ID,
		})
	}
	sort.SliceStable(board.Rows, func(i, j int) bool {
		return board.Rows[i].TotalScore > board.Rows[j].TotalScore
	})
	for i, row := range board.Rows {
		row.Rank = i + 1
		if i > 0 && row.TotalScore == board.Rows[i-1].TotalScore {
			row.Rank = board.Rows[i-1].Rank
		}
	}
	return board
}
