package turn

import (
	"testing"

	diceMocks "github.com/KirkDiggler/hotdice/internal/dice/mocks"
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/scoring"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type MachineTestSuite struct {
	suite.Suite
	mockCtrl       *gomock.Controller
	mockDiceRoller *diceMocks.MockRoller
	machine        *Machine

	sixSided models.LobbySnapshot
	tiered   models.LobbySnapshot
}

func TestMachineTestSuite(t *testing.T) {
	suite.Run(t, new(MachineTestSuite))
}

func (s *MachineTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockDiceRoller = diceMocks.NewMockRoller(s.mockCtrl)

	machine, err := New(&Config{Roller: s.mockDiceRoller})
	s.Require().NoError(err)
	s.machine = machine

	s.sixSided = models.LobbySnapshot{
		Lobby: models.Lobby{
			ID:           "lobby-1",
			Mode:         models.GameModeSixSided,
			WinThreshold: 3000,
			Status:       models.LobbyStatusActive,
		},
		Players: []models.Player{
			{ID: "alice", Name: "Alice", TurnOrder: 0},
			{ID: "bob", Name: "Bob", TurnOrder: 1},
			{ID: "cara", Name: "Cara", TurnOrder: 2},
		},
		Turn: models.TurnState{
			PlayerID:   "alice",
			Phase:      models.TurnPhaseAwaitingRoll,
			DiceInPlay: 6,
		},
	}

	s.tiered = models.LobbySnapshot{
		Lobby: models.Lobby{
			ID:           "lobby-2",
			Mode:         models.GameModeTiered,
			WinThreshold: 250,
			Status:       models.LobbyStatusActive,
		},
		Players: []models.Player{
			{ID: "alice", TurnOrder: 0, TotalScore: 150},
			{ID: "bob", TurnOrder: 1, TotalScore: 40},
			{ID: "cara", TurnOrder: 2, TotalScore: 230},
		},
		Turn: models.TurnState{
			PlayerID:   "alice",
			Phase:      models.TurnPhaseAwaitingRoll,
			Tier:       scoring.Tier2,
			DiceInPlay: 3,
		},
	}
}

func (s *MachineTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *MachineTestSuite) TestNewValidatesConfig() {
	_, err := New(nil)
	s.ErrorIs(err, ErrNilConfig)

	_, err = New(&Config{})
	s.ErrorIs(err, ErrNilDiceRoller)
}

func (s *MachineTestSuite) TestStart() {
	snap := s.sixSided
	snap.Lobby.Status = models.LobbyStatusWaiting
	snap.Turn = models.TurnState{}

	out, err := s.machine.Start(snap)
	s.Require().NoError(err)
	s.Equal(models.LobbyStatusActive, out.Plan.Status)
	s.Require().NotNil(out.Plan.ResetTurn)
	s.Equal("alice", out.Plan.ResetTurn.PlayerID)
	s.Equal(6, out.Plan.ResetTurn.DiceInPlay)
	s.Equal(models.LobbyStatusActive, out.Snapshot.Lobby.Status)

	_, err = s.machine.Start(s.sixSided)
	s.ErrorIs(err, ErrInvalidState)

	snap.Players = snap.Players[:1]
	_, err = s.machine.Start(snap)
	s.ErrorIs(err, ErrNotEnough)
}

func (s *MachineTestSuite) TestStartTieredUsesTierDice() {
	snap := s.tiered
	snap.Lobby.Status = models.LobbyStatusWaiting
	snap.Players[0].TotalScore = 0

	out, err := s.machine.Start(snap)
	s.Require().NoError(err)
	s.Equal(scoring.Tier1, out.Plan.ResetTurn.Tier)
	s.Equal(8, out.Plan.ResetTurn.DiceInPlay)
}

func (s *MachineTestSuite) TestRollDrawsDiceInPlay() {
	s.mockDiceRoller.EXPECT().RollMany(6, 6).Return([]int{1, 2, 3, 4, 6, 6})

	out, err := s.machine.Roll(s.sixSided, "alice")
	s.Require().NoError(err)
	s.Equal(100, out.Result.Points)
	s.Equal(models.TurnPhaseAwaitingHold, out.Snapshot.Turn.Phase)
	s.Equal(1, out.Snapshot.Turn.RollCount)
	s.Equal([]int{1, 2, 3, 4, 6, 6}, out.Snapshot.Turn.Dice)
	s.Require().Len(out.Plan.History, 1)
	s.Equal(models.RollKindRoll, out.Plan.History[0].Kind)
}

func (s *MachineTestSuite) TestRollRejectsWrongPlayer() {
	_, err := s.machine.Roll(s.sixSided, "bob")
	s.ErrorIs(err, ErrNotYourTurn)
}

func (s *MachineTestSuite) TestRollRejectsInactiveLobby() {
	snap := s.sixSided
	snap.Lobby.Status = models.LobbyStatusFinished
	_, err := s.machine.Roll(snap, "alice")
	s.ErrorIs(err, ErrInvalidState)
}

func (s *MachineTestSuite) TestRollRejectsWrongPhase() {
	snap := s.sixSided
	snap.Turn.Phase = models.TurnPhaseAwaitingHold
	_, err := s.machine.Roll(snap, "alice")
	s.ErrorIs(err, ErrInvalidState)
}

func (s *MachineTestSuite) TestApplyRollRejectsWrongDiceCount() {
	_, err := s.machine.ApplyRoll(s.sixSided, "alice", []int{1, 2})
	s.ErrorIs(err, scoring.ErrInvalidInput)
}

func (s *MachineTestSuite) TestRollBust() {
	snap := s.sixSided
	snap.Turn.TurnScore = 400
	snap.Turn.RollCount = 1
	snap.Turn.DiceInPlay = 4

	out, err := s.machine.ApplyRoll(snap, "alice", []int{2, 3, 4, 6})
	s.Require().NoError(err)
	s.True(out.Result.Bust)
	s.Equal(models.TurnPhaseBusted, out.Snapshot.Turn.Phase)
	s.True(out.Snapshot.Turn.Bust)
	s.Zero(out.Snapshot.Turn.TurnScore)
	s.Nil(out.Plan.AdvanceTo, "a bust is shown before the turn passes")
}

func (s *MachineTestSuite) TestRollHotDice() {
	out, err := s.machine.ApplyRoll(s.sixSided, "alice", []int{1, 1, 1, 5, 5, 5})
	s.Require().NoError(err)
	s.Equal(1500, out.Result.Points)
	s.Equal(models.TurnPhaseHotDice, out.Snapshot.Turn.Phase)
	s.Equal([]int{0, 1, 2, 3, 4, 5}, out.Snapshot.Turn.Held)
	s.Equal(1500, out.Snapshot.Turn.TurnScore)
	s.Equal(6, out.Snapshot.Turn.DiceInPlay)

	// hot dice may roll all six again
	out, err = s.machine.ApplyRoll(out.Snapshot, "alice", []int{5, 2, 3, 6, 6, 3})
	s.Require().NoError(err)
	s.Equal(1500, out.Snapshot.Turn.RollBase)
	s.Equal(models.TurnPhaseAwaitingHold, out.Snapshot.Turn.Phase)
}

func (s *MachineTestSuite) TestHoldThenRollThenBank() {
	out, err := s.machine.ApplyRoll(s.sixSided, "alice", []int{1, 5, 2, 3, 3, 6})
	s.Require().NoError(err)

	out, err = s.machine.Hold(out.Snapshot, "alice", []int{1, 0})
	s.Require().NoError(err)
	s.Equal([]int{0, 1}, out.Snapshot.Turn.Held)
	s.Equal(150, out.Snapshot.Turn.TurnScore)
	s.Equal(4, out.Snapshot.Turn.DiceInPlay)
	s.Equal(models.TurnPhaseAwaitingRoll, out.Snapshot.Turn.Phase)

	// changing the selection replaces it
	out, err = s.machine.Hold(out.Snapshot, "alice", []int{0})
	s.Require().NoError(err)
	s.Equal(100, out.Snapshot.Turn.TurnScore)
	s.Equal(5, out.Snapshot.Turn.DiceInPlay)

	out, err = s.machine.ApplyRoll(out.Snapshot, "alice", []int{2, 2, 2, 4, 6})
	s.Require().NoError(err)
	s.Equal(100, out.Snapshot.Turn.RollBase)
	out, err = s.machine.Hold(out.Snapshot, "alice", []int{0, 1, 2})
	s.Require().NoError(err)
	s.Equal(300, out.Snapshot.Turn.TurnScore)

	out, err = s.machine.Bank(out.Snapshot, "alice")
	s.Require().NoError(err)
	s.Equal([]ScoreUpdate{{PlayerID: "alice", TotalScore: 300}}, out.Plan.Scores)
	s.Require().NotNil(out.Plan.AdvanceTo)
	s.Equal(1, *out.Plan.AdvanceTo)
	s.Require().NotNil(out.Plan.ResetTurn)
	s.Equal("bob", out.Plan.ResetTurn.PlayerID)
	s.Equal(1, out.Snapshot.Lobby.CurrentTurnIndex)
	s.Equal(300, out.Snapshot.Players[0].TotalScore)
	s.Zero(out.Snapshot.Turn.TurnScore)
	s.Nil(out.Snapshot.Turn.Dice)
}

func (s *MachineTestSuite) TestHoldRejections() {
	out, err := s.machine.ApplyRoll(s.sixSided, "alice", []int{1, 5, 2, 3, 3, 6})
	s.Require().NoError(err)
	rolled := out.Snapshot

	_, err = s.machine.Hold(rolled, "alice", nil)
	s.ErrorIs(err, ErrInvalidHold)

	_, err = s.machine.Hold(rolled, "alice", []int{2})
	s.ErrorIs(err, ErrInvalidHold, "a non-scoring die cannot be held")

	_, err = s.machine.Hold(rolled, "alice", []int{0, 0})
	s.ErrorIs(err, ErrInvalidHold)

	_, err = s.machine.Hold(rolled, "alice", []int{9})
	s.ErrorIs(err, ErrInvalidHold)

	_, err = s.machine.Hold(s.sixSided, "alice", []int{0})
	s.ErrorIs(err, ErrInvalidState, "nothing rolled yet")
}

func (s *MachineTestSuite) TestHoldRejectsPartialStraight() {
	out, err := s.machine.ApplyRoll(s.sixSided, "alice", []int{2, 3, 4, 5, 6, 6})
	s.Require().NoError(err)

	_, err = s.machine.Hold(out.Snapshot, "alice", []int{0, 1})
	s.ErrorIs(err, ErrInvalidHold)

	out, err = s.machine.Hold(out.Snapshot, "alice", []int{0, 1, 2, 3, 4})
	s.Require().NoError(err)
	s.Equal(750, out.Snapshot.Turn.TurnScore)
	s.Equal(1, out.Snapshot.Turn.DiceInPlay)
}

func (s *MachineTestSuite) TestBankRejections() {
	_, err := s.machine.Bank(s.sixSided, "alice")
	s.ErrorIs(err, ErrInvalidState, "nothing to bank")

	out, err := s.machine.ApplyRoll(s.sixSided, "alice", []int{1, 2, 3, 4, 6, 6})
	s.Require().NoError(err)
	_, err = s.machine.Bank(out.Snapshot, "alice")
	s.ErrorIs(err, ErrInvalidState, "must hold before banking")

	busted := s.sixSided
	busted.Turn.Phase = models.TurnPhaseBusted
	busted.Turn.Bust = true
	_, err = s.machine.Bank(busted, "alice")
	s.ErrorIs(err, ErrInvalidState)
}

func (s *MachineTestSuite) TestBankTwiceNeverCreditsTwice() {
	snap := s.sixSided
	snap.Turn.RollCount = 1
	snap.Turn.TurnScore = 500
	snap.Turn.Dice = []int{1, 1, 1, 1, 1, 4}

	out, err := s.machine.Bank(snap, "alice")
	s.Require().NoError(err)
	s.Equal(500, out.Snapshot.Players[0].TotalScore)

	_, err = s.machine.Bank(out.Snapshot, "alice")
	s.ErrorIs(err, ErrInvalidState)
	s.ErrorIs(err, ErrNotYourTurn)
}

func (s *MachineTestSuite) TestRejectsTurnStateOfAnotherPlayer() {
	// seat index already moved to bob, turn hash still holds alice's turn
	snap := s.sixSided
	snap.Lobby.CurrentTurnIndex = 1
	snap.Turn.TurnScore = 300

	_, err := s.machine.Bank(snap, "bob")
	s.ErrorIs(err, ErrInvalidState)
	s.NotErrorIs(err, ErrNotYourTurn)

	_, err = s.machine.Roll(snap, "bob")
	s.ErrorIs(err, ErrInvalidState)

	_, err = s.machine.Bank(snap, "alice")
	s.ErrorIs(err, ErrNotYourTurn)
}

func (s *MachineTestSuite) TestWinningBankDoesNotAdvance() {
	snap := s.sixSided
	snap.Players[0].TotalScore = 2800
	snap.Turn.RollCount = 2
	snap.Turn.TurnScore = 200
	snap.Turn.Phase = models.TurnPhaseAwaitingRoll

	out, err := s.machine.Bank(snap, "alice")
	s.Require().NoError(err)
	s.True(out.Won())
	s.Equal("alice", out.Plan.WinnerID)
	s.Nil(out.Plan.AdvanceTo)
	s.Nil(out.Plan.ResetTurn)
	s.Equal(models.LobbyStatusFinished, out.Snapshot.Lobby.Status)
	s.Equal(0, out.Snapshot.Lobby.CurrentTurnIndex)

	_, err = s.machine.Bank(out.Snapshot, "alice")
	s.ErrorIs(err, ErrInvalidState)
}

func (s *MachineTestSuite) TestBankWrapsTurnOrder() {
	snap := s.sixSided
	snap.Lobby.CurrentTurnIndex = 2
	snap.Turn.PlayerID = "cara"
	snap.Turn.RollCount = 1
	snap.Turn.TurnScore = 50

	out, err := s.machine.Bank(snap, "cara")
	s.Require().NoError(err)
	s.Equal(0, *out.Plan.AdvanceTo)
	s.Equal("alice", out.Plan.ResetTurn.PlayerID)
}

func (s *MachineTestSuite) TestBustAdvancesAndDiscards() {
	out, err := s.machine.ApplyRoll(s.sixSided, "alice", []int{2, 3, 4, 6, 6, 2})
	s.Require().NoError(err)
	s.Equal(models.TurnPhaseBusted, out.Snapshot.Turn.Phase)

	out, err = s.machine.Bust(out.Snapshot, "alice")
	s.Require().NoError(err)
	s.Empty(out.Plan.Scores)
	s.Empty(out.Plan.History, "the bust was logged with its roll")
	s.Equal(1, out.Snapshot.Lobby.CurrentTurnIndex)
	s.Equal("bob", out.Snapshot.Turn.PlayerID)
	s.False(out.Snapshot.Turn.Bust)
}

func (s *MachineTestSuite) TestBustForfeitsLiveTurn() {
	snap := s.sixSided
	snap.Turn.RollCount = 1
	snap.Turn.TurnScore = 600

	out, err := s.machine.Bust(snap, "alice")
	s.Require().NoError(err)
	s.True(out.Plan.Turn.Bust != nil && *out.Plan.Turn.Bust)
	s.Require().Len(out.Plan.History, 1)
	s.Equal(models.RollKindBust, out.Plan.History[0].Kind)
	s.Zero(out.Snapshot.Players[0].TotalScore)
}

func (s *MachineTestSuite) TestTier1HotDiceRollsEight() {
	snap := s.tiered
	snap.Players[0].TotalScore = 20
	snap.Turn.Tier = scoring.Tier1
	snap.Turn.DiceInPlay = 8

	out, err := s.machine.ApplyRoll(snap, "alice", []int{1, 2, 3, 7, 7, 10, 11, 12})
	s.Require().NoError(err)
	s.Equal(10+14+10, out.Result.Points)
	s.Equal(models.TurnPhaseHotDice, out.Snapshot.Turn.Phase)
	s.Equal(8, out.Snapshot.Turn.DiceInPlay)
}

func (s *MachineTestSuite) TestTier2RollAndReroll() {
	out, err := s.machine.ApplyRoll(s.tiered, "alice", []int{16, 16, 2})
	s.Require().NoError(err)
	s.False(out.Result.Bust)
	s.Equal(models.TurnPhaseRerolling, out.Snapshot.Turn.Phase)
	s.Equal(32*5, out.Snapshot.Turn.TurnScore)

	_, err = s.machine.Hold(out.Snapshot, "alice", []int{0})
	s.ErrorIs(err, ErrWrongTier)

	s.mockDiceRoller.EXPECT().Roll(20).Return(16)
	rerolled, err := s.machine.Reroll(out.Snapshot, "alice", 2)
	s.Require().NoError(err)
	s.False(rerolled.Reroll.Bust)
	s.Equal([]int{16, 16, 2}, rerolled.Snapshot.Turn.PreviousDice)
	s.Equal([]int{16, 16, 16}, rerolled.Snapshot.Turn.Dice)
	s.Equal(48*5, rerolled.Snapshot.Turn.TurnScore)

	busted, err := s.machine.ApplyReroll(rerolled.Snapshot, "alice", 0, 3)
	s.Require().NoError(err)
	s.True(busted.Reroll.Bust)
	s.Equal(models.TurnPhaseBusted, busted.Snapshot.Turn.Phase)
	s.Zero(busted.Snapshot.Turn.TurnScore)

	banked, err := s.machine.Bank(rerolled.Snapshot, "alice")
	s.Require().NoError(err)
	s.True(banked.Won(), "150 + 240 passes 250")
}

func (s *MachineTestSuite) TestRerollOutsideTier2() {
	_, err := s.machine.Reroll(s.sixSided, "alice", 0)
	s.ErrorIs(err, ErrWrongTier)

	_, err = s.machine.Reroll(s.tiered, "alice", 0)
	s.ErrorIs(err, ErrInvalidState, "must roll first")
}

func (s *MachineTestSuite) tier3Snapshot() models.LobbySnapshot {
	snap := s.tiered
	snap.Players = []models.Player{
		{ID: "alice", TurnOrder: 0, TotalScore: 150},
		{ID: "bob", TurnOrder: 1, TotalScore: 40},
		{ID: "cara", TurnOrder: 2, TotalScore: 230},
	}
	snap.Lobby.CurrentTurnIndex = 2
	snap.Turn = models.TurnState{PlayerID: "cara", Phase: models.TurnPhaseAwaitingRoll, Tier: scoring.Tier3, DiceInPlay: 1}
	return snap
}

func (s *MachineTestSuite) TestTier3ResetOnOne() {
	out, err := s.machine.ApplyRoll(s.tier3Snapshot(), "cara", []int{1})
	s.Require().NoError(err)
	s.Equal(scoring.FinaleReset, out.Finale.Kind)
	s.Equal([]ScoreUpdate{{PlayerID: "cara", TotalScore: 0}}, out.Plan.Scores)
	s.Equal(models.TurnPhaseResolved, out.Snapshot.Turn.Phase)
	s.Nil(out.Plan.AdvanceTo)

	ended, err := s.machine.EndTurn(out.Snapshot, "cara")
	s.Require().NoError(err)
	s.Equal(0, *ended.Plan.AdvanceTo)
	s.Equal("alice", ended.Plan.ResetTurn.PlayerID)
	s.Equal(scoring.Tier2, ended.Plan.ResetTurn.Tier)
}

func (s *MachineTestSuite) TestTier3Kingmaker() {
	out, err := s.machine.ApplyRoll(s.tier3Snapshot(), "cara", []int{20})
	s.Require().NoError(err)
	s.Equal(scoring.FinaleKingmaker, out.Finale.Kind)
	s.Equal([]ScoreUpdate{{PlayerID: "bob", TotalScore: 60}}, out.Plan.Scores)
	s.Equal(230, out.Snapshot.Players[2].TotalScore)
	s.Equal(60, out.Snapshot.Players[1].TotalScore)
}

func (s *MachineTestSuite) TestTier3WinStopsTheTurn() {
	snap := s.tier3Snapshot()
	snap.Players[2].TotalScore = 235

	out, err := s.machine.ApplyRoll(snap, "cara", []int{19})
	s.Require().NoError(err)
	s.True(out.Won())
	s.Equal("cara", out.Snapshot.Lobby.WinnerID)

	_, err = s.machine.EndTurn(out.Snapshot, "cara")
	s.ErrorIs(err, ErrInvalidState)
}

func (s *MachineTestSuite) TestEndTurnRequiresFinishedTurn() {
	_, err := s.machine.EndTurn(s.sixSided, "alice")
	s.ErrorIs(err, ErrInvalidState)
}

func (s *MachineTestSuite) TestActions() {
	a := s.machine.Actions(s.sixSided)
	s.True(a.Roll)
	s.False(a.Hold)
	s.False(a.Bank)
	s.True(a.Bust)

	out, err := s.machine.ApplyRoll(s.sixSided, "alice", []int{1, 2, 3, 4, 6, 6})
	s.Require().NoError(err)
	a = s.machine.Actions(out.Snapshot)
	s.False(a.Roll)
	s.True(a.Hold)
	s.False(a.Bank)

	a = s.machine.Actions(s.tier3Snapshot())
	s.True(a.Roll)
	s.False(a.Reroll)
}

func (s *MachineTestSuite) TestAdvanceUsesUpdatedScoresForNextTier() {
	snap := s.tiered
	snap.Players[1].TotalScore = 95
	snap.Turn = models.TurnState{PlayerID: "alice", Phase: models.TurnPhaseRerolling, Tier: scoring.Tier2, Dice: []int{2, 9, 14}, RollCount: 1, DiceInPlay: 3}

	out, err := s.machine.Bust(snap, "alice")
	s.Require().NoError(err)
	s.Equal(scoring.Tier1, out.Plan.ResetTurn.Tier)
	s.Equal(8, out.Plan.ResetTurn.DiceInPlay)
}
