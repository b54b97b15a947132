package history

import "github.com/KirkDiggler/hotdice/internal/models"

// AppendRollsInput contains the entries to append; all must share a lobby
type AppendRollsInput struct {
	LobbyID string
	Rolls   []models.Roll
}

// ListRollsInput selects a lobby's history. Limit <= 0 returns everything;
// PlayerID filters when set.
type ListRollsInput struct {
	LobbyID  string
	PlayerID string
	Limit    int
}

// ListRollsOutput contains history entries, oldest first
type ListRollsOutput struct {
	Rolls []models.Roll
}

type GetPlayerStatsInput struct {
	LobbyID string
}

// GetPlayerStatsOutput holds one entry per player with any history
type GetPlayerStatsOutput struct {
	Stats map[string]*models.PlayerStats
}

type DeleteRollsInput struct {
	LobbyID string
}
