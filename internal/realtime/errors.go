package realtime

// ChannelError represents an error returned by a sync channel
type ChannelError string

func (e ChannelError) Error() string {
	return string(e)
}

const (
	// ErrNilConfig is returned when the config is nil
	ErrNilConfig = ChannelError("config cannot be nil")

	// ErrNilRepository is returned when the lobby repository is nil
	ErrNilRepository = ChannelError("lobby repository cannot be nil")

	// ErrInvalidInput is returned when the lobby ID is empty
	ErrInvalidInput = ChannelError("invalid input")

	// ErrNilHandler is returned when subscribing without a handler
	ErrNilHandler = ChannelError("handler cannot be nil")

	// ErrAlreadySubscribed is returned when the lobby already has a handler
	ErrAlreadySubscribed = ChannelError("lobby already subscribed")

	// ErrClosed is returned after Close
	ErrClosed = ChannelError("channel closed")
)
