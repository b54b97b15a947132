package messaging

import "context"

// Service is the interface for the messaging service
type Service interface {
	// GetErrorMessage maps a failed action to a reason code and player-facing text
	GetErrorMessage(ctx context.Context, input *GetErrorMessageInput) (*GetErrorMessageOutput, error)

	// GetJoinLobbyMessage returns a message for when a player joins a lobby
	GetJoinLobbyMessage(ctx context.Context, input *GetJoinLobbyMessageInput) (*GetJoinLobbyMessageOutput, error)

	// GetLobbyStatusMessage returns a dynamic message based on the lobby status
	GetLobbyStatusMessage(ctx context.Context, input *GetLobbyStatusMessageInput) (*GetLobbyStatusMessageOutput, error)

	// GetActionResultMessage returns the personal message after a turn action
	GetActionResultMessage(ctx context.Context, input *GetActionResultMessageInput) (*GetActionResultMessageOutput, error)

	// GetEventMessage describes a change event for the lobby's channel
	GetEventMessage(ctx context.Context, input *GetEventMessageInput) (*GetEventMessageOutput, error)
}
