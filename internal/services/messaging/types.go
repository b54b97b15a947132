package messaging

import (
	"github.com/KirkDiggler/hotdice/internal/dice"
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/realtime"
	"github.com/KirkDiggler/hotdice/internal/turn"
)

// MessageTone represents the tone of a message
type MessageTone string

const (
	// ToneNeutral is a neutral tone
	ToneNeutral MessageTone = "neutral"

	// ToneFunny is a humorous tone
	ToneFunny MessageTone = "funny"
)

// Reason is the stable code of a rejected action
type Reason string

const (
	ReasonNotYourTurn      Reason = "not_your_turn"
	ReasonInvalidState     Reason = "invalid_state"
	ReasonInvalidHold      Reason = "invalid_hold"
	ReasonWrongTier        Reason = "wrong_tier"
	ReasonNotEnoughPlayers Reason = "not_enough_players"
	ReasonRetryAction      Reason = "retry_action"
	ReasonLobbyNotFound    Reason = "lobby_not_found"
	ReasonLobbyExists      Reason = "lobby_exists"
	ReasonLobbyStarted     Reason = "lobby_started"
	ReasonLobbyFull        Reason = "lobby_full"
	ReasonAlreadyJoined    Reason = "already_joined"
	ReasonNotInLobby       Reason = "not_in_lobby"
	ReasonNotHost          Reason = "not_host"
	ReasonInvalidInput     Reason = "invalid_input"
	ReasonInternal         Reason = "internal"
)

// Config contains configuration for the messaging service
type Config struct {
	// Roller picks among message variants; defaults to a time-seeded roller
	Roller dice.Roller
}

// GetErrorMessageInput contains parameters for getting an error message
type GetErrorMessageInput struct {
	// Err is the error returned by the game service
	Err error

	// PreferredTone is the preferred tone for the message (optional)
	PreferredTone MessageTone
}

// GetErrorMessageOutput contains the result of getting an error message
type GetErrorMessageOutput struct {
	Reason  Reason
	Message string
	Tone    MessageTone
}

// GetJoinLobbyMessageInput is the input for GetJoinLobbyMessage
type GetJoinLobbyMessageInput struct {
	PlayerName string

	// Reconnected is set when the player was already seated
	Reconnected bool

	// Code is the lobby's join code to share
	Code string

	PreferredTone MessageTone
}

// GetJoinLobbyMessageOutput is the output for GetJoinLobbyMessage
type GetJoinLobbyMessageOutput struct {
	Message string
	Tone    MessageTone
}

// GetLobbyStatusMessageInput is the input for GetLobbyStatusMessage
type GetLobbyStatusMessageInput struct {
	Status      models.LobbyStatus
	PlayerCount int

	// WinnerName is shown for finished lobbies
	WinnerName string
}

// GetLobbyStatusMessageOutput is the output for GetLobbyStatusMessage
type GetLobbyStatusMessageOutput struct {
	Message string
}

// GetActionResultMessageInput contains the input for GetActionResultMessage
type GetActionResultMessageInput struct {
	PlayerName string

	// Action is one of the game service's action names
	Action  string
	Outcome *turn.Outcome
}

// GetActionResultMessageOutput contains the output for GetActionResultMessage
type GetActionResultMessageOutput struct {
	Title   string
	Message string
}

// GetEventMessageInput contains a change event and the snapshot it was
// observed in, used to resolve player names
type GetEventMessageInput struct {
	Event realtime.Event
}

// GetEventMessageOutput contains the text for an event. Quiet events are
// not worth a channel post.
type GetEventMessageOutput struct {
	Message string
	Quiet   bool
}
