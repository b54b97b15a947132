package history

// RepositoryError represents an error in the history repository
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

const (
	// ErrInvalidInput is returned when input fails validation
	ErrInvalidInput = RepositoryError("invalid input")

	// ErrNilConfig is returned when the config is nil
	ErrNilConfig = RepositoryError("config cannot be nil")

	// ErrNilRedisClient is returned when the redis client is nil
	ErrNilRedisClient = RepositoryError("redis client cannot be nil")
)
