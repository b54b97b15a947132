package scoring

import (
	"fmt"
	"slices"
)

// DiceType tags a roll with the die it was thrown with
type DiceType int

const (
	D6  DiceType = 6
	D20 DiceType = 20
)

// Sides returns the highest face of the die
func (d DiceType) Sides() int {
	return int(d)
}

func (d DiceType) String() string {
	return fmt.Sprintf("d%d", int(d))
}

// DiceRoll is an immutable set of faces produced by one roll
type DiceRoll struct {
	diceType DiceType
	values   []int
}

// NewDiceRoll validates and copies the faces. Empty rolls, faces outside
// [1, sides] and more than maxDice faces are rejected.
func NewDiceRoll(diceType DiceType, values []int, maxDice int) (DiceRoll, error) {
	if len(values) == 0 {
		return DiceRoll{}, fmt.Errorf("%w: empty roll", ErrInvalidInput)
	}
	if maxDice > 0 && len(values) > maxDice {
		return DiceRoll{}, fmt.Errorf("%w: %d dice exceeds %d", ErrInvalidInput, len(values), maxDice)
	}
	for i, v := range values {
		if v < 1 || v > diceType.Sides() {
			return DiceRoll{}, fmt.Errorf("%w: face %d at index %d out of range for %s", ErrInvalidInput, v, i, diceType)
		}
	}
	return DiceRoll{diceType: diceType, values: slices.Clone(values)}, nil
}

// Type returns the die type of the roll
func (r DiceRoll) Type() DiceType { return r.diceType }

// Len returns the number of dice
func (r DiceRoll) Len() int { return len(r.values) }

// At returns the face at position i
func (r DiceRoll) At(i int) int { return r.values[i] }

// Values returns a copy of the faces
func (r DiceRoll) Values() []int { return slices.Clone(r.values) }

// Category names a scoring combination
type Category string

const (
	CategoryFullStraight Category = "full_straight"
	CategoryHighStraight Category = "high_straight"
	CategoryLowStraight  Category = "low_straight"
	CategorySet          Category = "set"
	CategoryPair         Category = "pair"
	CategorySequence     Category = "sequence"
	CategorySingle       Category = "single"
)

// Combination is one scored group of dice
type Combination struct {
	Category Category `json:"category"`
	// Indices are positions in the roll, ascending
	Indices []int `json:"indices"`
	Values  []int `json:"values"`
	Points  int   `json:"points"`
}

// Result is the outcome of scoring one roll. Never mutated after it is returned.
type Result struct {
	Points int  `json:"points"`
	Bust   bool `json:"bust"`
	// ScoringIndices is the ascending union of every combination's indices
	ScoringIndices []int         `json:"scoring_indices"`
	Combinations   []Combination `json:"combinations"`
	Multiplier     int           `json:"multiplier,omitempty"`
}

// Scores reports whether the die at index contributed points
func (r *Result) Scores(index int) bool {
	_, found := slices.BinarySearch(r.ScoringIndices, index)
	return found
}

// tally tracks which positions of a roll have been consumed by a combination
type tally struct {
	values []int
	used   []bool
	combos []Combination
}

func newTally(values []int) *tally {
	return &tally{values: values, used: make([]bool, len(values))}
}

// remaining counts unused dice per face
func (t *tally) remaining(sides int) []int {
	counts := make([]int, sides+1)
	for i, v := range t.values {
		if !t.used[i] {
			counts[v]++
		}
	}
	return counts
}

// take consumes the first unused position holding face
func (t *tally) take(face int) int {
	for i, v := range t.values {
		if v == face && !t.used[i] {
			t.used[i] = true
			return i
		}
	}
	return -1
}

func (t *tally) add(category Category, faces []int, points int) {
	indices := make([]int, 0, len(faces))
	for _, f := range faces {
		indices = append(indices, t.take(f))
	}
	slices.Sort(indices)
	t.combos = append(t.combos, Combination{
		Category: category,
		Indices:  indices,
		Values:   slices.Clone(faces),
		Points:   points,
	})
}

func (t *tally) result() *Result {
	res := &Result{
		ScoringIndices: []int{},
		Combinations:   t.combos,
		Multiplier:     1,
	}
	if res.Combinations == nil {
		res.Combinations = []Combination{}
	}
	for _, c := range t.combos {
		res.Points += c.Points
		res.ScoringIndices = append(res.ScoringIndices, c.Indices...)
	}
	slices.Sort(res.ScoringIndices)
	res.Bust = res.Points == 0
	return res
}

func repeat(face, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = face
	}
	return out
}

// allScore reports whether every position is in scoringIndices
func allScore(dice []int, scoringIndices []int) bool {
	if len(dice) == 0 {
		return false
	}
	seen := make([]bool, len(dice))
	for _, i := range scoringIndices {
		if i >= 0 && i < len(dice) {
			seen[i] = true
		}
	}
	for _, ok := range seen {
		if !ok {
			return false
		}
	}
	return true
}
