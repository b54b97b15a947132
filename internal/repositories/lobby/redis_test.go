package lobby

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	clockMocks "github.com/KirkDiggler/hotdice/internal/common/clock/mocks"
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	mockCtrl  *gomock.Controller
	mockClock *clockMocks.MockClock
	mr        *miniredis.Miniredis
	client    *redis.Client
	repo      Repository
	ctx       context.Context
	testNow   time.Time
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	// Create a new miniredis server for each test
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	s.mockCtrl = gomock.NewController(s.T())
	s.mockClock = clockMocks.NewMockClock(s.mockCtrl)
	s.testNow = time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)
	s.mockClock.EXPECT().Now().Return(s.testNow).AnyTimes()

	repo, err := NewRedis(&Config{
		RedisClient: s.client,
		Clock:       s.mockClock,
	})
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) createLobby(id, code string, players ...string) *models.LobbySnapshot {
	snap, err := s.repo.CreateLobby(s.ctx, &CreateLobbyInput{Lobby: &models.Lobby{
		ID:           id,
		Code:         code,
		HostID:       "host",
		ChannelID:    "channel-" + id,
		Mode:         models.GameModeSixSided,
		WinThreshold: 3000,
	}})
	s.Require().NoError(err)
	for _, p := range players {
		_, err := s.repo.AddPlayer(s.ctx, &AddPlayerInput{LobbyID: id, PlayerID: p, Name: p})
		s.Require().NoError(err)
	}
	return snap
}

func (s *RedisRepositoryTestSuite) fetch(id string) *models.LobbySnapshot {
	snap, err := s.repo.FetchLobby(s.ctx, &FetchLobbyInput{LobbyID: id})
	s.Require().NoError(err)
	return snap
}

func (s *RedisRepositoryTestSuite) TestNewRedisValidatesConfig() {
	_, err := NewRedis(nil)
	s.ErrorIs(err, ErrNilConfig)

	_, err = NewRedis(&Config{Clock: s.mockClock})
	s.ErrorIs(err, ErrNilRedisClient)

	_, err = NewRedis(&Config{RedisClient: s.client})
	s.ErrorIs(err, ErrNilClock)
}

func (s *RedisRepositoryTestSuite) TestCreateAndFetchLobby() {
	created := s.createLobby("lobby-1", "ABC234")
	s.Equal(models.LobbyStatusWaiting, created.Lobby.Status)
	s.Equal(int64(1), created.Revision)

	snap := s.fetch("lobby-1")
	s.Equal("ABC234", snap.Lobby.Code)
	s.Equal(models.GameModeSixSided, snap.Lobby.Mode)
	s.Equal(s.testNow.Unix(), snap.Lobby.CreatedAt.Unix())
	s.Empty(snap.Players)
	s.Equal(int64(1), snap.Revision)

	byCode, err := s.repo.GetLobbyByCode(s.ctx, &GetLobbyByCodeInput{Code: "ABC234"})
	s.Require().NoError(err)
	s.Equal("lobby-1", byCode.Lobby.ID)

	byChannel, err := s.repo.GetLobbyByChannel(s.ctx, &GetLobbyByChannelInput{ChannelID: "channel-lobby-1"})
	s.Require().NoError(err)
	s.Equal("lobby-1", byChannel.Lobby.ID)

	active, err := s.repo.GetActiveLobbies(s.ctx, &GetActiveLobbiesInput{})
	s.Require().NoError(err)
	s.Equal([]string{"lobby-1"}, active.LobbyIDs)
}

func (s *RedisRepositoryTestSuite) TestCreateLobbyRejectsTakenCode() {
	s.createLobby("lobby-1", "ABC234")
	_, err := s.repo.CreateLobby(s.ctx, &CreateLobbyInput{Lobby: &models.Lobby{ID: "lobby-2", Code: "ABC234"}})
	s.ErrorIs(err, ErrCodeTaken)
}

func (s *RedisRepositoryTestSuite) TestFetchLobbyNotFound() {
	_, err := s.repo.FetchLobby(s.ctx, &FetchLobbyInput{LobbyID: "missing"})
	s.ErrorIs(err, ErrLobbyNotFound)

	_, err = s.repo.GetLobbyByCode(s.ctx, &GetLobbyByCodeInput{Code: "NOPE22"})
	s.ErrorIs(err, ErrLobbyNotFound)
}

func (s *RedisRepositoryTestSuite) TestAddPlayerSeatsInOrder() {
	s.createLobby("lobby-1", "ABC234", "alice", "bob", "cara")

	snap := s.fetch("lobby-1")
	s.Require().Len(snap.Players, 3)
	s.Equal("alice", snap.Players[0].ID)
	s.Equal(0, snap.Players[0].TurnOrder)
	s.Equal("cara", snap.Players[2].ID)
	s.Equal(2, snap.Players[2].TurnOrder)
	s.True(snap.Players[1].Connected)
	s.Equal(int64(4), snap.Revision)
	s.Equal(int64(3), snap.Players[1].Version)

	_, err := s.repo.AddPlayer(s.ctx, &AddPlayerInput{LobbyID: "lobby-1", PlayerID: "bob"})
	s.ErrorIs(err, ErrPlayerExists)

	_, err = s.repo.AddPlayer(s.ctx, &AddPlayerInput{LobbyID: "lobby-1", PlayerID: "dan"})
	s.Require().NoError(err)
	_, err = s.repo.AddPlayer(s.ctx, &AddPlayerInput{LobbyID: "lobby-1", PlayerID: "eve"})
	s.ErrorIs(err, ErrLobbyFull)

	_, err = s.repo.AddPlayer(s.ctx, &AddPlayerInput{LobbyID: "missing", PlayerID: "eve"})
	s.ErrorIs(err, ErrLobbyNotFound)
}

func (s *RedisRepositoryTestSuite) TestRemovePlayerOnlyWhileWaiting() {
	s.createLobby("lobby-1", "ABC234", "alice", "bob")

	s.Require().NoError(s.repo.RemovePlayer(s.ctx, &RemovePlayerInput{LobbyID: "lobby-1", PlayerID: "alice"}))
	s.Len(s.fetch("lobby-1").Players, 1)

	err := s.repo.RemovePlayer(s.ctx, &RemovePlayerInput{LobbyID: "lobby-1", PlayerID: "alice"})
	s.ErrorIs(err, ErrPlayerNotFound)

	_, err = s.repo.AddPlayer(s.ctx, &AddPlayerInput{LobbyID: "lobby-1", PlayerID: "cara"})
	s.Require().NoError(err)
	s.Require().NoError(s.repo.SetStatus(s.ctx, &SetStatusInput{LobbyID: "lobby-1", Status: models.LobbyStatusActive}))

	err = s.repo.RemovePlayer(s.ctx, &RemovePlayerInput{LobbyID: "lobby-1", PlayerID: "bob"})
	s.ErrorIs(err, ErrLobbyStarted)

	s.Require().NoError(s.repo.SetConnected(s.ctx, &SetConnectedInput{LobbyID: "lobby-1", PlayerID: "bob", Connected: false}))
	p, _, ok := s.fetch("lobby-1").PlayerByID("bob")
	s.Require().True(ok)
	s.False(p.Connected)
}

func (s *RedisRepositoryTestSuite) TestSubmitTurnUpdateWritesOnlyPresentFields() {
	s.createLobby("lobby-1", "ABC234", "alice", "bob")
	s.Require().NoError(s.repo.ResetTurn(s.ctx, &ResetTurnInput{LobbyID: "lobby-1", Turn: models.TurnState{
		PlayerID:   "alice",
		Phase:      models.TurnPhaseAwaitingHold,
		Dice:       []int{1, 5, 2, 3, 3, 6},
		Held:       []int{0},
		TurnScore:  100,
		RollCount:  1,
		DiceInPlay: 6,
	}}))

	score := 150
	var cleared []int
	s.Require().NoError(s.repo.SubmitTurnUpdate(s.ctx, &SubmitTurnUpdateInput{
		LobbyID: "lobby-1",
		Update:  models.TurnUpdate{TurnScore: &score, Held: &cleared},
	}))

	snap := s.fetch("lobby-1")
	s.Equal(150, snap.Turn.TurnScore)
	s.Nil(snap.Turn.Held)
	s.Equal([]int{1, 5, 2, 3, 3, 6}, snap.Turn.Dice)
	s.Equal(models.TurnPhaseAwaitingHold, snap.Turn.Phase)
	s.Equal(snap.Revision, snap.Turn.Version)

	held := s.mr.HGet(turnKey("lobby-1"), "held")
	s.Equal("null", held, "a present empty field is written as null")

	err := s.repo.SubmitTurnUpdate(s.ctx, &SubmitTurnUpdateInput{LobbyID: "lobby-1"})
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *RedisRepositoryTestSuite) TestExpectedRevisionConflict() {
	created := s.createLobby("lobby-1", "ABC234", "alice", "bob")
	s.Equal(int64(1), created.Revision)

	score := 50
	err := s.repo.SubmitTurnUpdate(s.ctx, &SubmitTurnUpdateInput{
		LobbyID:          "lobby-1",
		Update:           models.TurnUpdate{TurnScore: &score},
		ExpectedRevision: created.Revision,
	})
	s.ErrorIs(err, ErrConflict)

	current := s.fetch("lobby-1").Revision
	err = s.repo.SubmitTurnUpdate(s.ctx, &SubmitTurnUpdateInput{
		LobbyID:          "lobby-1",
		Update:           models.TurnUpdate{TurnScore: &score},
		ExpectedRevision: current,
	})
	s.Require().NoError(err)
	s.Equal(current+1, s.fetch("lobby-1").Revision)
}

func (s *RedisRepositoryTestSuite) TestAdvanceTurn() {
	s.createLobby("lobby-1", "ABC234", "alice", "bob")

	s.Require().NoError(s.repo.AdvanceTurn(s.ctx, &AdvanceTurnInput{LobbyID: "lobby-1", NextIndex: 1}))
	s.Equal(1, s.fetch("lobby-1").Lobby.CurrentTurnIndex)

	err := s.repo.AdvanceTurn(s.ctx, &AdvanceTurnInput{LobbyID: "lobby-1", NextIndex: 2})
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *RedisRepositoryTestSuite) TestStatusOnlyMovesForward() {
	s.createLobby("lobby-1", "ABC234", "alice", "bob")

	s.Require().NoError(s.repo.SetStatus(s.ctx, &SetStatusInput{LobbyID: "lobby-1", Status: models.LobbyStatusActive}))
	err := s.repo.SetStatus(s.ctx, &SetStatusInput{LobbyID: "lobby-1", Status: models.LobbyStatusWaiting})
	s.ErrorIs(err, ErrInvalidTransition)

	err = s.repo.SetWinner(s.ctx, &SetWinnerInput{LobbyID: "lobby-1", WinnerID: "zed"})
	s.ErrorIs(err, ErrPlayerNotFound)

	s.Require().NoError(s.repo.SetWinner(s.ctx, &SetWinnerInput{LobbyID: "lobby-1", WinnerID: "bob"}))
	snap := s.fetch("lobby-1")
	s.Equal(models.LobbyStatusFinished, snap.Lobby.Status)
	s.Equal("bob", snap.Lobby.WinnerID)

	err = s.repo.SetWinner(s.ctx, &SetWinnerInput{LobbyID: "lobby-1", WinnerID: "alice"})
	s.ErrorIs(err, ErrInvalidTransition)

	active, err := s.repo.GetActiveLobbies(s.ctx, &GetActiveLobbiesInput{})
	s.Require().NoError(err)
	s.Empty(active.LobbyIDs)
}

func (s *RedisRepositoryTestSuite) TestSubmitPlayerScoreUpdate() {
	s.createLobby("lobby-1", "ABC234", "alice", "bob")

	in := &SubmitPlayerScoreUpdateInput{LobbyID: "lobby-1", PlayerID: "bob", TotalScore: 650}
	s.Require().NoError(s.repo.SubmitPlayerScoreUpdate(s.ctx, in))
	s.Require().NoError(s.repo.SubmitPlayerScoreUpdate(s.ctx, in))

	p, _, _ := s.fetch("lobby-1").PlayerByID("bob")
	s.Equal(650, p.TotalScore)

	err := s.repo.SubmitPlayerScoreUpdate(s.ctx, &SubmitPlayerScoreUpdateInput{LobbyID: "lobby-1", PlayerID: "zed", TotalScore: 1})
	s.ErrorIs(err, ErrPlayerNotFound)
}

func (s *RedisRepositoryTestSuite) TestDeleteLobby() {
	s.createLobby("lobby-1", "ABC234", "alice")

	s.Require().NoError(s.repo.DeleteLobby(s.ctx, &DeleteLobbyInput{LobbyID: "lobby-1"}))
	_, err := s.repo.FetchLobby(s.ctx, &FetchLobbyInput{LobbyID: "lobby-1"})
	s.ErrorIs(err, ErrLobbyNotFound)
	s.False(s.mr.Exists(codeKey("ABC234")))
	s.False(s.mr.Exists(channelKey("channel-lobby-1")))
}

func (s *RedisRepositoryTestSuite) TestSubscribeRawDeliversChanges() {
	s.createLobby("lobby-1", "ABC234", "alice", "bob")

	changes, err := s.repo.SubscribeRaw(s.ctx, &SubscribeRawInput{LobbyID: "lobby-1"})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.AdvanceTurn(s.ctx, &AdvanceTurnInput{LobbyID: "lobby-1", NextIndex: 1}))

	select {
	case change := <-changes:
		s.Equal(models.ChangeTableLobby, change.Table)
		s.Equal(models.ChangeOpUpdate, change.Op)
		s.Equal("lobby-1", change.LobbyID)

		var l models.Lobby
		s.Require().NoError(json.Unmarshal(change.Record, &l))
		s.Equal(1, l.CurrentTurnIndex)
		s.Equal(change.Version, l.Version)

		var old models.Lobby
		s.Require().NoError(json.Unmarshal(change.OldRecord, &old))
		s.Equal(0, old.CurrentTurnIndex)
	case <-time.After(2 * time.Second):
		s.Fail("no change delivered")
	}

	s.Require().NoError(s.repo.UnsubscribeRaw(s.ctx, &UnsubscribeRawInput{LobbyID: "lobby-1"}))
	s.Require().NoError(s.repo.UnsubscribeRaw(s.ctx, &UnsubscribeRawInput{LobbyID: "lobby-1"}))
	s.Require().NoError(s.repo.UnsubscribeRaw(s.ctx, &UnsubscribeRawInput{LobbyID: "never-subscribed"}))

	select {
	case _, open := <-changes:
		s.False(open)
	case <-time.After(2 * time.Second):
		s.Fail("stream not closed after unsubscribe")
	}
}

func (s *RedisRepositoryTestSuite) TestSubscribeRawReportsResubscribe() {
	s.createLobby("lobby-1", "ABC234", "alice", "bob")

	changes, err := s.repo.SubscribeRaw(s.ctx, &SubscribeRawInput{LobbyID: "lobby-1"})
	s.Require().NoError(err)
	defer s.repo.UnsubscribeRaw(s.ctx, &UnsubscribeRawInput{LobbyID: "lobby-1"})

	// drop every connection; go-redis reconnects and subscribes again
	s.mr.Close()
	s.Require().NoError(s.mr.Restart())

	select {
	case change := <-changes:
		s.Equal(models.ChangeOpResync, change.Op)
		s.Equal("lobby-1", change.LobbyID)
		s.Empty(change.Record)
	case <-time.After(5 * time.Second):
		s.FailNow("no resync after reconnect")
	}

	// the feed keeps working afterwards
	s.Require().NoError(s.repo.AdvanceTurn(s.ctx, &AdvanceTurnInput{LobbyID: "lobby-1", NextIndex: 1}))
	select {
	case change := <-changes:
		s.Equal(models.ChangeTableLobby, change.Table)
		s.Equal(models.ChangeOpUpdate, change.Op)
	case <-time.After(2 * time.Second):
		s.Fail("no change after reconnect")
	}
}

func (s *RedisRepositoryTestSuite) TestApplyWritesCommitsInOrder() {
	created := s.createLobby("lobby-1", "ABC234", "alice", "bob")
	s.Require().NoError(s.repo.SetStatus(s.ctx, &SetStatusInput{LobbyID: "lobby-1", Status: models.LobbyStatusActive}))
	before := s.fetch("lobby-1").Revision
	s.Equal(created.Revision+3, before)

	changes, err := s.repo.SubscribeRaw(s.ctx, &SubscribeRawInput{LobbyID: "lobby-1"})
	s.Require().NoError(err)
	defer s.repo.UnsubscribeRaw(s.ctx, &UnsubscribeRawInput{LobbyID: "lobby-1"})

	next := 1
	out, err := s.repo.ApplyWrites(s.ctx, &ApplyWritesInput{
		LobbyID:          "lobby-1",
		ExpectedRevision: before,
		Writes: []Write{
			{Score: &ScoreWrite{PlayerID: "alice", TotalScore: 350}},
			{AdvanceTo: &next},
			{ResetTurn: &models.TurnState{PlayerID: "bob", Phase: models.TurnPhaseAwaitingRoll, DiceInPlay: 6}},
		},
	})
	s.Require().NoError(err)
	s.Equal(before+3, out.Revision)

	snap := s.fetch("lobby-1")
	s.Equal(out.Revision, snap.Revision)
	s.Equal(1, snap.Lobby.CurrentTurnIndex)
	s.Equal("bob", snap.Turn.PlayerID)
	alice, _, _ := snap.PlayerByID("alice")
	s.Equal(350, alice.TotalScore)

	wantTables := []models.ChangeTable{models.ChangeTablePlayer, models.ChangeTableLobby, models.ChangeTableTurn}
	for i, table := range wantTables {
		select {
		case change := <-changes:
			s.Equal(table, change.Table)
			s.Equal(before+int64(i)+1, change.Version)
		case <-time.After(2 * time.Second):
			s.Failf("missing change", "change %d not delivered", i)
			return
		}
	}
}

func (s *RedisRepositoryTestSuite) TestApplyWritesConflictWritesNothing() {
	s.createLobby("lobby-1", "ABC234", "alice", "bob")
	before := s.fetch("lobby-1")

	next := 1
	_, err := s.repo.ApplyWrites(s.ctx, &ApplyWritesInput{
		LobbyID:          "lobby-1",
		ExpectedRevision: before.Revision - 1,
		Writes: []Write{
			{Score: &ScoreWrite{PlayerID: "alice", TotalScore: 300}},
			{AdvanceTo: &next},
		},
	})
	s.ErrorIs(err, ErrConflict)

	after := s.fetch("lobby-1")
	s.Equal(before.Revision, after.Revision)
	alice, _, _ := after.PlayerByID("alice")
	s.Zero(alice.TotalScore)
	s.Zero(after.Lobby.CurrentTurnIndex)
}

func (s *RedisRepositoryTestSuite) TestApplyWritesFailingStepLeavesLobbyUntouched() {
	s.createLobby("lobby-1", "ABC234", "alice", "bob")
	before := s.fetch("lobby-1")

	outOfRange := 5
	_, err := s.repo.ApplyWrites(s.ctx, &ApplyWritesInput{
		LobbyID: "lobby-1",
		Writes: []Write{
			{Score: &ScoreWrite{PlayerID: "alice", TotalScore: 300}},
			{AdvanceTo: &outOfRange},
		},
	})
	s.ErrorIs(err, ErrInvalidInput)

	after := s.fetch("lobby-1")
	s.Equal(before.Revision, after.Revision)
	alice, _, _ := after.PlayerByID("alice")
	s.Zero(alice.TotalScore)
}

func (s *RedisRepositoryTestSuite) TestApplyWritesRejectsMalformedBatch() {
	s.createLobby("lobby-1", "ABC234", "alice")

	_, err := s.repo.ApplyWrites(s.ctx, &ApplyWritesInput{LobbyID: "lobby-1"})
	s.ErrorIs(err, ErrInvalidInput)

	next := 0
	_, err = s.repo.ApplyWrites(s.ctx, &ApplyWritesInput{
		LobbyID: "lobby-1",
		Writes:  []Write{{Status: models.LobbyStatusActive, AdvanceTo: &next}},
	})
	s.ErrorIs(err, ErrInvalidInput)

	_, err = s.repo.ApplyWrites(s.ctx, &ApplyWritesInput{
		LobbyID: "lobby-1",
		Writes:  []Write{{Score: &ScoreWrite{PlayerID: "alice", TotalScore: -1}}},
	})
	s.ErrorIs(err, ErrInvalidInput)
}
