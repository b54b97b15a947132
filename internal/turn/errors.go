package turn

// TurnError is a custom error type for rejected turn actions
type TurnError string

// Error implements the error interface
func (e TurnError) Error() string {
	return string(e)
}

const (
	ErrInvalidState  TurnError = "action not allowed in the current state"
	ErrNotYourTurn   TurnError = "it is not your turn"
	ErrInvalidHold   TurnError = "invalid hold selection"
	ErrWrongTier     TurnError = "action not allowed in this tier"
	ErrNotEnough     TurnError = "not enough players to start"
	ErrNilConfig     TurnError = "config cannot be nil"
	ErrNilDiceRoller TurnError = "dice roller cannot be nil"
)
