package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	mr      *miniredis.Miniredis
	client  *redis.Client
	repo    Repository
	ctx     context.Context
	testNow time.Time
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	// Create a new miniredis server for each test
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	repo, err := NewRedis(&Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
	s.testNow = time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) roll(id, player string, kind models.RollKind, points int, bust bool) models.Roll {
	return models.Roll{
		ID:        id,
		LobbyID:   "lobby-1",
		PlayerID:  player,
		Kind:      kind,
		Points:    points,
		Bust:      bust,
		Timestamp: s.testNow,
	}
}

func (s *RedisRepositoryTestSuite) TestNewRedisValidatesConfig() {
	_, err := NewRedis(nil)
	s.ErrorIs(err, ErrNilConfig)

	_, err = NewRedis(&Config{})
	s.ErrorIs(err, ErrNilRedisClient)
}

func (s *RedisRepositoryTestSuite) TestAppendAndListRolls() {
	first := s.roll("r1", "alice", models.RollKindRoll, 150, false)
	first.Dice = []int{1, 5, 2, 3, 4, 4}

	err := s.repo.AppendRolls(s.ctx, &AppendRollsInput{
		LobbyID: "lobby-1",
		Rolls: []models.Roll{
			first,
			s.roll("r2", "alice", models.RollKindBank, 150, false),
			s.roll("r3", "bob", models.RollKindRoll, 0, true),
		},
	})
	s.Require().NoError(err)

	out, err := s.repo.ListRolls(s.ctx, &ListRollsInput{LobbyID: "lobby-1"})
	s.Require().NoError(err)
	s.Require().Len(out.Rolls, 3)
	s.Equal("r1", out.Rolls[0].ID)
	s.Equal([]int{1, 5, 2, 3, 4, 4}, out.Rolls[0].Dice)
	s.Equal("r3", out.Rolls[2].ID)
	s.True(out.Rolls[2].Bust)

	out, err = s.repo.ListRolls(s.ctx, &ListRollsInput{LobbyID: "lobby-1", Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(out.Rolls, 2)
	s.Equal("r2", out.Rolls[0].ID)

	out, err = s.repo.ListRolls(s.ctx, &ListRollsInput{LobbyID: "lobby-1", PlayerID: "alice", Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(out.Rolls, 1)
	s.Equal("r2", out.Rolls[0].ID)
}

func (s *RedisRepositoryTestSuite) TestListRollsEmpty() {
	out, err := s.repo.ListRolls(s.ctx, &ListRollsInput{LobbyID: "nothing"})
	s.Require().NoError(err)
	s.Empty(out.Rolls)
}

func (s *RedisRepositoryTestSuite) TestAppendRollsValidates() {
	err := s.repo.AppendRolls(s.ctx, &AppendRollsInput{})
	s.ErrorIs(err, ErrInvalidInput)

	err = s.repo.AppendRolls(s.ctx, &AppendRollsInput{
		LobbyID: "lobby-2",
		Rolls:   []models.Roll{s.roll("r1", "alice", models.RollKindRoll, 0, false)},
	})
	s.ErrorIs(err, ErrInvalidInput)

	s.NoError(s.repo.AppendRolls(s.ctx, &AppendRollsInput{LobbyID: "lobby-1"}))
}

func (s *RedisRepositoryTestSuite) TestPlayerStats() {
	s.Require().NoError(s.repo.AppendRolls(s.ctx, &AppendRollsInput{
		LobbyID: "lobby-1",
		Rolls: []models.Roll{
			s.roll("r1", "alice", models.RollKindRoll, 300, false),
			s.roll("r2", "alice", models.RollKindBank, 300, false),
			s.roll("r3", "bob", models.RollKindRoll, 0, true),
			s.roll("r4", "bob", models.RollKindBust, 0, true),
		},
	}))
	s.Require().NoError(s.repo.AppendRolls(s.ctx, &AppendRollsInput{
		LobbyID: "lobby-1",
		Rolls:   []models.Roll{s.roll("r5", "alice", models.RollKindBank, 200, false)},
	}))

	out, err := s.repo.GetPlayerStats(s.ctx, &GetPlayerStatsInput{LobbyID: "lobby-1"})
	s.Require().NoError(err)
	s.Require().Contains(out.Stats, "alice")
	s.Equal(&models.PlayerStats{PlayerID: "alice", Rolls: 1, Banks: 2, BestBank: 300}, out.Stats["alice"])
	// the bust entry repeats the bust already counted on the roll
	s.Equal(2, out.Stats["bob"].Busts)
	s.Equal(1, out.Stats["bob"].Rolls)
}

func (s *RedisRepositoryTestSuite) TestHistoryIsCapped() {
	rolls := make([]models.Roll, 0, maxRolls+10)
	for i := 0; i < maxRolls+10; i++ {
		rolls = append(rolls, s.roll(fmt.Sprintf("r%d", i), "alice", models.RollKindRoll, 50, false))
	}
	s.Require().NoError(s.repo.AppendRolls(s.ctx, &AppendRollsInput{LobbyID: "lobby-1", Rolls: rolls}))

	out, err := s.repo.ListRolls(s.ctx, &ListRollsInput{LobbyID: "lobby-1"})
	s.Require().NoError(err)
	s.Len(out.Rolls, maxRolls)
	s.Equal("r10", out.Rolls[0].ID)
}

func (s *RedisRepositoryTestSuite) TestDeleteRolls() {
	s.Require().NoError(s.repo.AppendRolls(s.ctx, &AppendRollsInput{
		LobbyID: "lobby-1",
		Rolls:   []models.Roll{s.roll("r1", "alice", models.RollKindRoll, 50, false)},
	}))
	s.Require().NoError(s.repo.DeleteRolls(s.ctx, &DeleteRollsInput{LobbyID: "lobby-1"}))

	s.False(s.mr.Exists(rollsKeyPrefix + "lobby-1"))
	out, err := s.repo.GetPlayerStats(s.ctx, &GetPlayerStatsInput{LobbyID: "lobby-1"})
	s.Require().NoError(err)
	s.Empty(out.Stats)
}
