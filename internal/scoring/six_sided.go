package scoring

const (
	sixSidedDice = 6

	fullStraightPoints = 1500
	highStraightPoints = 750
	lowStraightPoints  = 500
	setOfOnesPoints    = 1000
	singleOnePoints    = 100
	singleFivePoints   = 50
)

// SixSided scores the six-die game.
//
// Precedence: full straight, high straight (2-6), low straight (1-5), sets of
// three or more, then single 1s and 5s. Each die beyond three in a set
// doubles the set.
type SixSided struct{}

func (SixSided) DiceType() DiceType { return D6 }

func (SixSided) DiceCount() int { return sixSidedDice }

func (e SixSided) Score(dice []int) (*Result, error) {
	roll, err := NewDiceRoll(D6, dice, sixSidedDice)
	if err != nil {
		return nil, err
	}

	t := newTally(roll.values)
	counts := t.remaining(6)

	switch {
	case roll.Len() == 6 && hasRun(counts, 1, 6):
		t.add(CategoryFullStraight, []int{1, 2, 3, 4, 5, 6}, fullStraightPoints)
	case hasRun(counts, 2, 6):
		t.add(CategoryHighStraight, []int{2, 3, 4, 5, 6}, highStraightPoints)
	case hasRun(counts, 1, 5):
		t.add(CategoryLowStraight, []int{1, 2, 3, 4, 5}, lowStraightPoints)
	}

	counts = t.remaining(6)
	for face := 1; face <= 6; face++ {
		n := counts[face]
		if n < 3 {
			continue
		}
		t.add(CategorySet, repeat(face, n), setPoints(face, n))
	}

	counts = t.remaining(6)
	if n := counts[1]; n > 0 {
		t.add(CategorySingle, repeat(1, n), n*singleOnePoints)
	}
	if n := counts[5]; n > 0 {
		t.add(CategorySingle, repeat(5, n), n*singleFivePoints)
	}

	return t.result(), nil
}

func (e SixSided) IsBust(dice []int) (bool, error) {
	res, err := e.Score(dice)
	if err != nil {
		return false, err
	}
	return res.Bust, nil
}

func (SixSided) IsHotDice(dice []int, scoringIndices []int) bool {
	return allScore(dice, scoringIndices)
}

// setPoints is the three-of-a-kind value doubled for every die beyond three
func setPoints(face, n int) int {
	base := face * 100
	if face == 1 {
		base = setOfOnesPoints
	}
	return base << (n - 3)
}

// hasRun reports whether every face in [lo, hi] has at least one unused die
func hasRun(counts []int, lo, hi int) bool {
	for f := lo; f <= hi; f++ {
		if counts[f] == 0 {
			return false
		}
	}
	return true
}
