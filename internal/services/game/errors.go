package game

// GameError is a custom error type for game-related errors
type GameError string

// Error implements the error interface
func (e GameError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrLobbyNotFound        GameError = "lobby not found"
	ErrLobbyExists          GameError = "lobby already open in this channel"
	ErrLobbyStarted         GameError = "lobby has already started"
	ErrLobbyFull            GameError = "lobby is at maximum capacity"
	ErrPlayerNotInLobby     GameError = "player not in lobby"
	ErrPlayerAlreadyInLobby GameError = "player already in lobby"
	ErrNotHost              GameError = "only the host can do that"
	ErrInvalidMode          GameError = "unknown game mode"
	ErrInvalidThreshold     GameError = "win threshold not allowed for this mode"
	ErrInvalidInput         GameError = "invalid input"
	ErrRetryAction          GameError = "the lobby changed, try again"
	ErrNilConfig            GameError = "config cannot be nil"
	ErrNilLobbyRepo         GameError = "lobby repository cannot be nil"
	ErrNilHistoryRepo       GameError = "history repository cannot be nil"
	ErrNilMachine           GameError = "turn machine cannot be nil"
	ErrNilClock             GameError = "clock cannot be nil"
	ErrNilUUIDGenerator     GameError = "UUID generator cannot be nil"
)
