package discord

import (
	"context"
	"errors"
	"sync"
	"testing"

	diceMocks "github.com/KirkDiggler/hotdice/internal/dice/mocks"
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/realtime"
	"github.com/KirkDiggler/hotdice/internal/reconcile"
	"github.com/KirkDiggler/hotdice/internal/services/live"
	"github.com/KirkDiggler/hotdice/internal/services/messaging"
	"github.com/KirkDiggler/hotdice/internal/turn"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type recordingMessenger struct {
	mu    sync.Mutex
	sent  []*discordgo.MessageSend
	edits []*discordgo.MessageEdit
}

func (m *recordingMessenger) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, data)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (m *recordingMessenger) ChannelMessageEditComplex(e *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, e)
	return &discordgo.Message{ID: e.ID, ChannelID: e.Channel}, nil
}

type fakeFeed struct {
	listener  live.Listener
	watchErr  error
	unwatched int
}

func (f *fakeFeed) Watch(_ context.Context, _ string, fn live.Listener) (func(), error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	f.listener = fn
	return func() { f.unwatched++ }, nil
}

type BoardsTestSuite struct {
	suite.Suite
	mockCtrl  *gomock.Controller
	messenger *recordingMessenger
	feed      *fakeFeed
	boards    *boards
	ctx       context.Context
	snapshot  models.LobbySnapshot
}

func (s *BoardsTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	mockRoller := diceMocks.NewMockRoller(s.mockCtrl)
	mockRoller.EXPECT().Roll(gomock.Any()).Return(1).AnyTimes()

	msgs, err := messaging.New(&messaging.Config{Roller: mockRoller})
	s.Require().NoError(err)
	machine, err := turn.New(&turn.Config{Roller: mockRoller})
	s.Require().NoError(err)

	s.messenger = &recordingMessenger{}
	s.feed = &fakeFeed{}
	s.boards = newBoards(s.messenger, s.feed, machine, msgs, zap.NewNop())
	s.ctx = context.Background()
	s.snapshot = activeSnapshot()
}

func TestBoardsTestSuite(t *testing.T) {
	suite.Run(t, new(BoardsTestSuite))
}

func (s *BoardsTestSuite) update(e realtime.Event, snap models.LobbySnapshot) live.Update {
	return live.Update{
		LobbyID: "lobby-1",
		Event:   e,
		View:    reconcile.View{Snapshot: snap, Connection: reconcile.ConnectionSynced},
	}
}

func (s *BoardsTestSuite) TestTrackQueuesFeedUpdates() {
	s.Require().NoError(s.boards.track(s.ctx, "lobby-1", "chan-1", "msg-1"))
	s.True(s.boards.tracked("lobby-1"))

	// Act
	s.feed.listener(s.update(nil, s.snapshot))

	// Assert
	u := <-s.boards.updates
	s.Equal("lobby-1", u.LobbyID)
}

func (s *BoardsTestSuite) TestTrackFailureForgetsBoard() {
	s.feed.watchErr = errors.New("lobby not found")

	err := s.boards.track(s.ctx, "lobby-1", "chan-1", "msg-1")

	s.Error(err)
	s.False(s.boards.tracked("lobby-1"))
}

func (s *BoardsTestSuite) TestApplyPostsEventAndEditsBoard() {
	s.Require().NoError(s.boards.track(s.ctx, "lobby-1", "chan-1", "msg-1"))
	banked := realtime.TurnBanked{
		Meta:       realtime.Meta{Kind: realtime.KindTurnBanked, LobbyID: "lobby-1", PlayerID: "alice", Snapshot: s.snapshot},
		Points:     350,
		TotalScore: 1200,
	}

	// Act
	s.boards.apply(s.ctx, s.update(banked, s.snapshot))

	// Assert
	s.Require().Len(s.messenger.sent, 1)
	s.Equal("Alice banked 350. Total: 1200.", s.messenger.sent[0].Content)
	s.Require().Len(s.messenger.edits, 1)
	edit := s.messenger.edits[0]
	s.Equal("chan-1", edit.Channel)
	s.Equal("msg-1", edit.ID)
	s.Equal("Hot Dice: game in progress", (*edit.Embeds)[0].Title)
}

func (s *BoardsTestSuite) TestQuietEventOnlyEditsBoard() {
	s.Require().NoError(s.boards.track(s.ctx, "lobby-1", "chan-1", "msg-1"))
	rolled := realtime.DiceRolled{
		Meta: realtime.Meta{Kind: realtime.KindDiceRolled, LobbyID: "lobby-1", PlayerID: "alice", Snapshot: s.snapshot},
		Dice: []int{1, 5, 2, 3, 3, 6},
	}

	s.boards.apply(s.ctx, s.update(rolled, s.snapshot))

	s.Empty(s.messenger.sent)
	s.Len(s.messenger.edits, 1)
}

func (s *BoardsTestSuite) TestRetrackMovesBoard() {
	s.Require().NoError(s.boards.track(s.ctx, "lobby-1", "chan-1", "msg-1"))
	s.Require().NoError(s.boards.track(s.ctx, "lobby-1", "chan-1", "msg-2"))

	s.boards.apply(s.ctx, s.update(nil, s.snapshot))

	s.Require().Len(s.messenger.edits, 1)
	s.Equal("msg-2", s.messenger.edits[0].ID)
}

func (s *BoardsTestSuite) TestFinishedLobbyIsReleased() {
	s.Require().NoError(s.boards.track(s.ctx, "lobby-1", "chan-1", "msg-1"))
	finished := s.snapshot.Clone()
	finished.Lobby.Status = models.LobbyStatusFinished
	finished.Lobby.WinnerID = "alice"
	won := realtime.GameWon{
		Meta:  realtime.Meta{Kind: realtime.KindGameWon, LobbyID: "lobby-1", PlayerID: "alice", Snapshot: finished},
		Score: 3050,
	}

	// Act
	s.boards.apply(s.ctx, s.update(won, finished))

	// Assert
	s.Require().Len(s.messenger.sent, 1)
	s.Equal("Alice wins with 3050 points!", s.messenger.sent[0].Content)
	s.Len(s.messenger.edits, 1)
	s.False(s.boards.tracked("lobby-1"))
	s.Equal(1, s.feed.unwatched)
}

func (s *BoardsTestSuite) TestUntrackedLobbyIgnored() {
	s.boards.apply(s.ctx, s.update(nil, s.snapshot))

	s.Empty(s.messenger.sent)
	s.Empty(s.messenger.edits)
}

func (s *BoardsTestSuite) TestCloseUnwatchesEveryBoard() {
	s.Require().NoError(s.boards.track(s.ctx, "lobby-1", "chan-1", "msg-1"))

	s.boards.close()

	s.Equal(1, s.feed.unwatched)
	s.False(s.boards.tracked("lobby-1"))
}
