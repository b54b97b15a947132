package lobby

// RepositoryError is a custom error type for lobby store errors
type RepositoryError string

// Error implements the error interface
func (e RepositoryError) Error() string {
	return string(e)
}

const (
	ErrLobbyNotFound     RepositoryError = "lobby not found"
	ErrPlayerNotFound    RepositoryError = "player not found"
	ErrPlayerExists      RepositoryError = "player already in lobby"
	ErrLobbyFull         RepositoryError = "lobby is at maximum capacity"
	ErrConflict          RepositoryError = "concurrent write conflict"
	ErrInvalidTransition RepositoryError = "invalid lobby status transition"
	ErrLobbyStarted      RepositoryError = "lobby has already started"
	ErrCodeTaken         RepositoryError = "lobby code already in use"
	ErrInvalidInput      RepositoryError = "invalid input"
	ErrNilConfig         RepositoryError = "config cannot be nil"
	ErrNilRedisClient    RepositoryError = "redis client cannot be nil"
	ErrNilClock          RepositoryError = "clock cannot be nil"
)
