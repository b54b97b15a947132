package lobby

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/hotdice/internal/repositories/lobby Repository

import (
	"context"

	"github.com/KirkDiggler/hotdice/internal/models"
)

// Repository is the shared store every player's process reads and writes.
// Every write bumps the lobby revision and publishes a change notification.
type Repository interface {
	// CreateLobby persists a new lobby in the waiting state
	CreateLobby(ctx context.Context, input *CreateLobbyInput) (*models.LobbySnapshot, error)

	// FetchLobby returns the full snapshot of a lobby
	FetchLobby(ctx context.Context, input *FetchLobbyInput) (*models.LobbySnapshot, error)

	// GetLobbyByCode resolves a join code to a snapshot
	GetLobbyByCode(ctx context.Context, input *GetLobbyByCodeInput) (*models.LobbySnapshot, error)

	// GetLobbyByChannel resolves the lobby opened from a Discord channel
	GetLobbyByChannel(ctx context.Context, input *GetLobbyByChannelInput) (*models.LobbySnapshot, error)

	// GetActiveLobbies lists lobbies that have not finished
	GetActiveLobbies(ctx context.Context, input *GetActiveLobbiesInput) (*GetActiveLobbiesOutput, error)

	// DeleteLobby removes a lobby and everything under it
	DeleteLobby(ctx context.Context, input *DeleteLobbyInput) error

	// AddPlayer seats a player at the end of the turn order
	AddPlayer(ctx context.Context, input *AddPlayerInput) (*models.Player, error)

	// RemovePlayer unseats a player from a waiting lobby
	RemovePlayer(ctx context.Context, input *RemovePlayerInput) error

	// SetConnected flags a player as present or away
	SetConnected(ctx context.Context, input *SetConnectedInput) error

	// SubmitTurnUpdate writes the present fields of a partial turn state
	SubmitTurnUpdate(ctx context.Context, input *SubmitTurnUpdateInput) error

	// ResetTurn replaces the whole turn state
	ResetTurn(ctx context.Context, input *ResetTurnInput) error

	// SubmitPlayerScoreUpdate sets a player's banked total
	SubmitPlayerScoreUpdate(ctx context.Context, input *SubmitPlayerScoreUpdateInput) error

	// AdvanceTurn moves the current-player index
	AdvanceTurn(ctx context.Context, input *AdvanceTurnInput) error

	// SetStatus moves the lobby status forward
	SetStatus(ctx context.Context, input *SetStatusInput) error

	// SetWinner records the winner and finishes the lobby
	SetWinner(ctx context.Context, input *SetWinnerInput) error

	// ApplyWrites commits an ordered batch of score, status, winner and turn
	// writes in one transaction
	ApplyWrites(ctx context.Context, input *ApplyWritesInput) (*ApplyWritesOutput, error)

	// SubscribeRaw streams change notifications for a lobby. The channel is
	// closed when the subscription ends for any reason. A ChangeOpResync entry
	// means notifications may have been lost and the lobby should be fetched.
	SubscribeRaw(ctx context.Context, input *SubscribeRawInput) (<-chan models.RawChange, error)

	// UnsubscribeRaw ends a subscription; safe to call more than once
	UnsubscribeRaw(ctx context.Context, input *UnsubscribeRawInput) error
}
