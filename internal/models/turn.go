package models

import (
	"slices"
	"time"
)

// TurnPhase is where the current turn is in its lifecycle
type TurnPhase string

const (
	// TurnPhaseAwaitingRoll waits for the player to throw
	TurnPhaseAwaitingRoll TurnPhase = "awaiting_roll"

	// TurnPhaseAwaitingHold waits for the player to set aside scoring dice
	TurnPhaseAwaitingHold TurnPhase = "awaiting_hold"

	// TurnPhaseHotDice means every die scored; the player may roll all dice again or bank
	TurnPhaseHotDice TurnPhase = "hot_dice"

	// TurnPhaseRerolling is the tier 2 phase where single dice may be rerolled
	TurnPhaseRerolling TurnPhase = "rerolling"

	// TurnPhaseResolved shows a tier 3 die whose effect is already applied
	TurnPhaseResolved TurnPhase = "resolved"

	TurnPhaseBusted TurnPhase = "busted"
	TurnPhaseBanked TurnPhase = "banked"
)

// TurnState is the in-progress turn of the current player
type TurnState struct {
	// PlayerID owns the turn; always the current player
	PlayerID string    `json:"player_id"`
	Phase    TurnPhase `json:"phase"`

	// Dice are the faces showing from the latest roll
	Dice []int `json:"dice"`

	// Held are indices into Dice set aside from the latest roll
	Held []int `json:"held"`

	// TurnScore is the unbanked total for this turn
	TurnScore int `json:"turn_score"`

	// RollBase is the turn score locked in before the latest roll
	RollBase int `json:"roll_base"`

	// DiceInPlay is the number of dice the next roll throws
	DiceInPlay int `json:"dice_in_play"`

	RollCount int  `json:"roll_count"`
	Bust      bool `json:"bust"`

	// Tier is the twenty-sided risk tier, zero in six-sided games
	Tier int `json:"tier"`

	// PreviousDice is the roll before the latest tier 2 reroll
	PreviousDice []int `json:"previous_dice"`

	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// Clone returns a deep copy of t
func (t TurnState) Clone() TurnState {
	t.Dice = slices.Clone(t.Dice)
	t.Held = slices.Clone(t.Held)
	t.PreviousDice = slices.Clone(t.PreviousDice)
	return t
}

// IsHeld reports whether index is held
func (t TurnState) IsHeld(index int) bool {
	return slices.Contains(t.Held, index)
}

// TurnUpdate is a partial write to the turn state. A nil field is left
// untouched; a non-nil pointer to a nil slice clears the field.
type TurnUpdate struct {
	PlayerID     *string    `json:"player_id,omitempty"`
	Phase        *TurnPhase `json:"phase,omitempty"`
	Dice         *[]int     `json:"dice,omitempty"`
	Held         *[]int     `json:"held,omitempty"`
	TurnScore    *int       `json:"turn_score,omitempty"`
	RollBase     *int       `json:"roll_base,omitempty"`
	DiceInPlay   *int       `json:"dice_in_play,omitempty"`
	RollCount    *int       `json:"roll_count,omitempty"`
	Bust         *bool      `json:"bust,omitempty"`
	Tier         *int       `json:"tier,omitempty"`
	PreviousDice *[]int     `json:"previous_dice,omitempty"`
}

// IsEmpty reports whether the update writes nothing
func (u TurnUpdate) IsEmpty() bool {
	return u.PlayerID == nil && u.Phase == nil && u.Dice == nil && u.Held == nil &&
		u.TurnScore == nil && u.RollBase == nil && u.DiceInPlay == nil &&
		u.RollCount == nil && u.Bust == nil && u.Tier == nil && u.PreviousDice == nil
}

// Apply returns t with the present fields of u written over it
func (u TurnUpdate) Apply(t TurnState) TurnState {
	t = t.Clone()
	if u.PlayerID != nil {
		t.PlayerID = *u.PlayerID
	}
	if u.Phase != nil {
		t.Phase = *u.Phase
	}
	if u.Dice != nil {
		t.Dice = slices.Clone(*u.Dice)
	}
	if u.Held != nil {
		t.Held = slices.Clone(*u.Held)
	}
	if u.TurnScore != nil {
		t.TurnScore = *u.TurnScore
	}
	if u.RollBase != nil {
		t.RollBase = *u.RollBase
	}
	if u.DiceInPlay != nil {
		t.DiceInPlay = *u.DiceInPlay
	}
	if u.RollCount != nil {
		t.RollCount = *u.RollCount
	}
	if u.Bust != nil {
		t.Bust = *u.Bust
	}
	if u.Tier != nil {
		t.Tier = *u.Tier
	}
	if u.PreviousDice != nil {
		t.PreviousDice = slices.Clone(*u.PreviousDice)
	}
	return t
}

// DiffTurn builds the update that takes from to to, carrying only changed fields
func DiffTurn(from, to TurnState) TurnUpdate {
	var u TurnUpdate
	if from.PlayerID != to.PlayerID {
		u.PlayerID = ptr(to.PlayerID)
	}
	if from.Phase != to.Phase {
		u.Phase = ptr(to.Phase)
	}
	if !sameInts(from.Dice, to.Dice) {
		u.Dice = ptr(slices.Clone(to.Dice))
	}
	if !sameInts(from.Held, to.Held) {
		u.Held = ptr(slices.Clone(to.Held))
	}
	if from.TurnScore != to.TurnScore {
		u.TurnScore = ptr(to.TurnScore)
	}
	if from.RollBase != to.RollBase {
		u.RollBase = ptr(to.RollBase)
	}
	if from.DiceInPlay != to.DiceInPlay {
		u.DiceInPlay = ptr(to.DiceInPlay)
	}
	if from.RollCount != to.RollCount {
		u.RollCount = ptr(to.RollCount)
	}
	if from.Bust != to.Bust {
		u.Bust = ptr(to.Bust)
	}
	if from.Tier != to.Tier {
		u.Tier = ptr(to.Tier)
	}
	if !sameInts(from.PreviousDice, to.PreviousDice) {
		u.PreviousDice = ptr(slices.Clone(to.PreviousDice))
	}
	return u
}

// sameInts treats nil and empty as different so a clear is always written
func sameInts(a, b []int) bool {
	return (a == nil) == (b == nil) && slices.Equal(a, b)
}

func ptr[T any](v T) *T {
	return &v
}
