package game

import "context"

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/KirkDiggler/hotdice/internal/services/game Service

// Service coordinates lobbies and turns on top of the shared store
type Service interface {
	// CreateLobby opens a lobby and seats the host
	CreateLobby(ctx context.Context, input *CreateLobbyInput) (*CreateLobbyOutput, error)

	// JoinLobby seats a player, or reconnects one who is already seated
	JoinLobby(ctx context.Context, input *JoinLobbyInput) (*JoinLobbyOutput, error)

	// LeaveLobby unseats a player before the game starts and marks them away after
	LeaveLobby(ctx context.Context, input *LeaveLobbyInput) (*LeaveLobbyOutput, error)

	// DeleteLobby removes a lobby and its history; host only
	DeleteLobby(ctx context.Context, input *DeleteLobbyInput) error

	// GetLobby resolves a lobby by id, join code or channel
	GetLobby(ctx context.Context, input *GetLobbyInput) (*GetLobbyOutput, error)

	// StartGame moves a waiting lobby to active
	StartGame(ctx context.Context, input *StartGameInput) (*ActionOutput, error)

	// Roll throws the dice in play for the current player
	Roll(ctx context.Context, input *RollInput) (*ActionOutput, error)

	// Hold sets aside scoring dice from the latest roll
	Hold(ctx context.Context, input *HoldInput) (*ActionOutput, error)

	// Reroll rerolls one die of a tier 2 roll
	Reroll(ctx context.Context, input *RerollInput) (*ActionOutput, error)

	// Bank adds the turn score to the player's total and passes the turn
	Bank(ctx context.Context, input *BankInput) (*ActionOutput, error)

	// Bust forfeits the turn score and passes the turn
	Bust(ctx context.Context, input *BustInput) (*ActionOutput, error)

	// EndTurn passes the turn after a bust or tier 3 roll has been shown
	EndTurn(ctx context.Context, input *EndTurnInput) (*ActionOutput, error)

	// GetLeaderboard returns the standings and per-player stats of a lobby
	GetLeaderboard(ctx context.Context, input *GetLeaderboardInput) (*GetLeaderboardOutput, error)

	// GetHistory returns the roll history of a lobby
	GetHistory(ctx context.Context, input *GetHistoryInput) (*GetHistoryOutput, error)
}

