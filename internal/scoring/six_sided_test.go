package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SixSidedTestSuite struct {
	suite.Suite
	engine SixSided
}

func TestSixSidedTestSuite(t *testing.T) {
	suite.Run(t, new(SixSidedTestSuite))
}

func (s *SixSidedTestSuite) score(dice ...int) *Result {
	res, err := s.engine.Score(dice)
	s.Require().NoError(err)
	return res
}

func (s *SixSidedTestSuite) TestTable() {
	tests := []struct {
		name    string
		dice    []int
		points  int
		indices []int
	}{
		{"single one", []int{1, 2, 3, 4, 6, 6}, 100, []int{0}},
		{"single five", []int{5, 2, 3, 6, 6, 3}, 50, []int{0}},
		{"two ones and a five", []int{1, 5, 1}, 250, []int{0, 1, 2}},
		{"three ones", []int{1, 1, 1, 2, 3, 4}, 1000, []int{0, 1, 2}},
		{"three twos", []int{2, 2, 2}, 200, []int{0, 1, 2}},
		{"three sixes and a one", []int{6, 1, 6, 6}, 700, []int{0, 1, 2, 3}},
		{"four fours", []int{4, 4, 4, 4, 2, 3}, 800, []int{0, 1, 2, 3}},
		{"five twos", []int{2, 2, 2, 2, 2, 3}, 800, []int{0, 1, 2, 3, 4}},
		{"six ones", []int{1, 1, 1, 1, 1, 1}, 8000, []int{0, 1, 2, 3, 4, 5}},
		{"full straight", []int{3, 1, 6, 2, 5, 4}, 1500, []int{0, 1, 2, 3, 4, 5}},
		{"high straight", []int{2, 3, 4, 5, 6, 6}, 750, []int{0, 1, 2, 3, 4}},
		{"low straight plus a five", []int{1, 2, 3, 4, 5, 5}, 550, []int{0, 1, 2, 3, 4, 5}},
		{"high straight beats low straight", []int{2, 3, 4, 5, 6}, 750, []int{0, 1, 2, 3, 4}},
		{"two sets", []int{1, 1, 1, 5, 5, 5}, 1500, []int{0, 1, 2, 3, 4, 5}},
		{"five dice straight with extra one", []int{1, 1, 2, 3, 4, 5}, 600, []int{0, 1, 2, 3, 4, 5}},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			res := s.score(tc.dice...)
			s.Equal(tc.points, res.Points)
			s.Equal(tc.indices, res.ScoringIndices)
			s.False(res.Bust)
		})
	}
}

func (s *SixSidedTestSuite) TestBust() {
	res := s.score(2, 3, 4, 6)
	s.True(res.Bust)
	s.Equal(0, res.Points)
	s.Empty(res.ScoringIndices)

	bust, err := s.engine.IsBust([]int{2, 2, 3, 3, 4, 6})
	s.Require().NoError(err)
	s.True(bust)
}

func (s *SixSidedTestSuite) TestHotDice() {
	res := s.score(1, 1, 1, 5, 5, 5)
	s.Equal(1500, res.Points)
	s.True(s.engine.IsHotDice([]int{1, 1, 1, 5, 5, 5}, res.ScoringIndices))

	res = s.score(1, 2, 3, 4, 5, 6)
	s.True(s.engine.IsHotDice([]int{1, 2, 3, 4, 5, 6}, res.ScoringIndices))

	res = s.score(1, 1, 1, 2, 3, 4)
	s.False(s.engine.IsHotDice([]int{1, 1, 1, 2, 3, 4}, res.ScoringIndices))
}

func (s *SixSidedTestSuite) TestCombinationsDoNotOverlap() {
	for _, dice := range [][]int{
		{1, 1, 1, 1, 5, 5},
		{5, 1, 5, 1, 5, 1},
		{1, 2, 3, 4, 5, 1},
		{6, 6, 6, 6, 6, 6},
	} {
		res := s.score(dice...)
		seen := map[int]bool{}
		for _, c := range res.Combinations {
			for i, idx := range c.Indices {
				s.False(seen[idx], "index %d reused in %v", idx, dice)
				seen[idx] = true
				s.Equal(dice[idx], c.Values[i])
			}
		}
		s.Len(seen, len(res.ScoringIndices))
	}
}

func (s *SixSidedTestSuite) TestDuplicateFacesUseFirstUnusedPosition() {
	res := s.score(3, 5, 2, 5)
	s.Equal(100, res.Points)
	s.Require().Len(res.Combinations, 1)
	s.Equal([]int{1, 3}, res.Combinations[0].Indices)
}

func (s *SixSidedTestSuite) TestInvalidInput() {
	for _, dice := range [][]int{
		nil,
		{},
		{0, 1},
		{7},
		{1, 1, 1, 1, 1, 1, 1},
	} {
		_, err := s.engine.Score(dice)
		s.ErrorIs(err, ErrInvalidInput, "dice %v", dice)
	}
}

func (s *SixSidedTestSuite) TestDoesNotMutateInput() {
	dice := []int{5, 1, 1, 1}
	_ = s.score(dice...)
	s.Equal([]int{5, 1, 1, 1}, dice)
}

func TestSixSidedScoreIsDeterministic(t *testing.T) {
	engine := SixSided{}
	dice := []int{1, 5, 5, 5, 2, 6}
	first, err := engine.Score(dice)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := engine.Score(dice)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestForMode(t *testing.T) {
	engine, err := ForMode("six_sided")
	require.NoError(t, err)
	assert.Equal(t, D6, engine.DiceType())

	engine, err = ForMode("tiered")
	require.NoError(t, err)
	assert.Equal(t, D20, engine.DiceType())

	_, err = ForMode("yahtzee")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
