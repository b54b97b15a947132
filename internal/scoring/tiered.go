package scoring

import (
	"fmt"
	"slices"
)

// Tier thresholds and dice counts for the twenty-sided mode
const (
	Tier1 = 1
	Tier2 = 2
	Tier3 = 3

	Tier1Max = 100
	Tier2Max = 200

	tier1Dice = 8
	tier2Dice = 3
	tier3Dice = 1

	Tier2Multiplier = 5

	// TieredTarget is the only win threshold the tiered mode is played to
	TieredTarget = 250

	finaleResetFace     = 1
	finaleKingmakerFace = 20
	kingmakerPoints     = 20

	singleOneTierPoints  = 1
	singleFiveTierPoints = 5
	sequencePointsStep   = 10
)

// Tiered scores the twenty-sided mode. Tier 1 and 2 score the same
// combinations, tier 2 multiplied by five. Tier 3 is a single die resolved by
// ResolveFinale.
type Tiered struct{}

func (Tiered) DiceType() DiceType { return D20 }

func (Tiered) DiceCount() int { return tier1Dice }

// TierForScore returns the tier a player with the given total rolls in.
// Lower bounds are inclusive; a player leaves a tier only once their total
// strictly exceeds its upper bound.
func TierForScore(total int) int {
	switch {
	case total <= Tier1Max:
		return Tier1
	case total <= Tier2Max:
		return Tier2
	default:
		return Tier3
	}
}

// DiceForTier returns the number of dice thrown in a tier
func DiceForTier(tier int) int {
	switch tier {
	case Tier2:
		return tier2Dice
	case Tier3:
		return tier3Dice
	default:
		return tier1Dice
	}
}

// Score evaluates a roll with tier 1 rules
func (e Tiered) Score(dice []int) (*Result, error) {
	return e.ScoreTier(dice, Tier1)
}

// ScoreTier evaluates a roll with the rules of tier 1 or 2. Tier 2 multiplies
// every combination and never busts on a roll.
func (e Tiered) ScoreTier(dice []int, tier int) (*Result, error) {
	if tier != Tier1 && tier != Tier2 {
		return nil, fmt.Errorf("%w: tier %d has no combination scoring", ErrInvalidTier, tier)
	}
	roll, err := NewDiceRoll(D20, dice, tier1Dice)
	if err != nil {
		return nil, err
	}

	t := newTally(roll.values)

	// sequences first, one die per face of each maximal run
	counts := t.remaining(20)
	for face := 1; face <= 20; {
		if counts[face] == 0 {
			face++
			continue
		}
		start := face
		for face <= 20 && counts[face] > 0 {
			face++
		}
		if length := face - start; length >= 3 {
			run := make([]int, 0, length)
			for f := start; f < face; f++ {
				run = append(run, f)
			}
			t.add(CategorySequence, run, sequencePointsStep*(length-2))
		}
	}

	counts = t.remaining(20)
	for face := 1; face <= 20; face++ {
		switch n := counts[face]; {
		case n >= 3:
			t.add(CategorySet, repeat(face, n), face*n)
		case n == 2:
			t.add(CategoryPair, repeat(face, 2), face*2)
		}
	}

	counts = t.remaining(20)
	if counts[1] == 1 {
		t.add(CategorySingle, []int{1}, singleOneTierPoints)
	}
	if counts[5] == 1 {
		t.add(CategorySingle, []int{5}, singleFiveTierPoints)
	}

	res := t.result()
	if tier == Tier2 {
		for i := range res.Combinations {
			res.Combinations[i].Points *= Tier2Multiplier
		}
		res.Points *= Tier2Multiplier
		res.Multiplier = Tier2Multiplier
		res.Bust = false
	}
	return res, nil
}

func (e Tiered) IsBust(dice []int) (bool, error) {
	res, err := e.Score(dice)
	if err != nil {
		return false, err
	}
	return res.Bust, nil
}

func (Tiered) IsHotDice(dice []int, scoringIndices []int) bool {
	return allScore(dice, scoringIndices)
}

// RerollResult is the outcome of rerolling one tier 2 die
type RerollResult struct {
	Index    int  `json:"index"`
	OldValue int  `json:"old_value"`
	NewValue int  `json:"new_value"`
	Bust     bool `json:"bust"`
	// Dice is the roll after the replacement
	Dice []int `json:"dice"`
	// Points is the tier 2 score of Dice, zero on bust
	Points int `json:"points"`
}

// Reroll replaces the die at index with face. A lower face than the one it
// replaces is a bust.
func (e Tiered) Reroll(dice []int, index, face int) (*RerollResult, error) {
	if index < 0 || index >= len(dice) {
		return nil, fmt.Errorf("%w: reroll index %d out of range", ErrInvalidInput, index)
	}
	if face < 1 || face > D20.Sides() {
		return nil, fmt.Errorf("%w: face %d out of range for %s", ErrInvalidInput, face, D20)
	}

	next := slices.Clone(dice)
	next[index] = face
	res := &RerollResult{
		Index:    index,
		OldValue: dice[index],
		NewValue: face,
		Bust:     face < dice[index],
		Dice:     next,
	}
	if res.Bust {
		return res, nil
	}

	scored, err := e.ScoreTier(next, Tier2)
	if err != nil {
		return nil, err
	}
	res.Points = scored.Points
	return res, nil
}

// FinaleKind classifies a tier 3 roll
type FinaleKind string

const (
	FinaleAdvance   FinaleKind = "advance"
	FinaleReset     FinaleKind = "reset"
	FinaleKingmaker FinaleKind = "kingmaker"
)

// Standing is a player's position for finale resolution
type Standing struct {
	PlayerID   string
	TotalScore int
	TurnOrder  int
}

// FinaleResult is the effect of a tier 3 roll on the standings
type FinaleResult struct {
	Face int        `json:"face"`
	Kind FinaleKind `json:"kind"`
	// RollerTotal is the roller's total after the roll
	RollerTotal int `json:"roller_total"`
	// BeneficiaryID receives kingmaker points; empty otherwise
	BeneficiaryID    string `json:"beneficiary_id,omitempty"`
	BeneficiaryTotal int    `json:"beneficiary_total,omitempty"`
}

// ResolveFinale applies a tier 3 face. A 1 resets the roller to zero, a 20
// gives twenty points to the lowest-scoring other player (earliest turn order
// on ties) and anything else adds its face to the roller.
func ResolveFinale(face int, roller Standing, others []Standing) (*FinaleResult, error) {
	if face < 1 || face > D20.Sides() {
		return nil, fmt.Errorf("%w: face %d out of range for %s", ErrInvalidInput, face, D20)
	}

	res := &FinaleResult{Face: face, RollerTotal: roller.TotalScore}
	switch face {
	case finaleResetFace:
		res.Kind = FinaleReset
		res.RollerTotal = 0
	case finaleKingmakerFace:
		res.Kind = FinaleKingmaker
		var last *Standing
		for i := range others {
			o := &others[i]
			if o.PlayerID == roller.PlayerID {
				continue
			}
			if last == nil || o.TotalScore < last.TotalScore ||
				(o.TotalScore == last.TotalScore && o.TurnOrder < last.TurnOrder) {
				last = o
			}
		}
		if last != nil {
			res.BeneficiaryID = last.PlayerID
			res.BeneficiaryTotal = last.TotalScore + kingmakerPoints
		}
	default:
		res.Kind = FinaleAdvance
		res.RollerTotal = roller.TotalScore + face
	}
	return res, nil
}
