package scoring

import (
	"fmt"

	"github.com/KirkDiggler/hotdice/internal/models"
)

// Engine scores rolls for one game mode. Implementations hold no state and
// are safe for concurrent use.
type Engine interface {
	// DiceType is the die this mode is played with
	DiceType() DiceType

	// DiceCount is the number of dice thrown on a fresh turn
	DiceCount() int

	// Score evaluates one roll
	Score(dice []int) (*Result, error)

	// IsBust reports whether the roll scores nothing
	IsBust(dice []int) (bool, error)

	// IsHotDice reports whether every die in the roll is a scoring die
	IsHotDice(dice []int, scoringIndices []int) bool
}

// Engines maps game modes to their scoring engines
type Engines map[models.GameMode]Engine

// DefaultEngines returns the engines for every built-in mode
func DefaultEngines() Engines {
	return Engines{
		models.GameModeSixSided: SixSided{},
		models.GameModeTiered:   Tiered{},
	}
}

// ForMode returns the engine registered for mode
func (e Engines) ForMode(mode models.GameMode) (Engine, error) {
	engine, ok := e[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return engine, nil
}

// ForMode returns the built-in engine for mode
func ForMode(mode models.GameMode) (Engine, error) {
	return DefaultEngines().ForMode(mode)
}
