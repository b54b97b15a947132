package history

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/hotdice/internal/repositories/history Repository

import (
	"context"
)

// Repository defines the interface for roll history persistence
type Repository interface {
	// AppendRolls adds entries to the end of a lobby's history
	AppendRolls(ctx context.Context, input *AppendRollsInput) error

	// ListRolls returns the most recent entries of a lobby, oldest first
	ListRolls(ctx context.Context, input *ListRollsInput) (*ListRollsOutput, error)

	// GetPlayerStats returns per-player aggregates for a lobby
	GetPlayerStats(ctx context.Context, input *GetPlayerStatsInput) (*GetPlayerStatsOutput, error)

	// DeleteRolls removes a lobby's history and stats
	DeleteRolls(ctx context.Context, input *DeleteRollsInput) error
}
